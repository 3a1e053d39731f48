package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Master tables",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS masters (
					kind TEXT NOT NULL,
					id TEXT NOT NULL,
					name TEXT NOT NULL,
					short_name TEXT NOT NULL DEFAULT '',
					furigana TEXT NOT NULL DEFAULT '',
					office_id TEXT NOT NULL DEFAULT '',
					care_manager_id TEXT NOT NULL DEFAULT '',
					is_duplicate INTEGER NOT NULL DEFAULT 0,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (kind, id)
				)`,
				`CREATE INDEX idx_masters_name ON masters(kind, name)`,

				`CREATE TABLE IF NOT EXISTS master_keywords (
					kind TEXT NOT NULL,
					master_id TEXT NOT NULL,
					keyword TEXT NOT NULL,
					PRIMARY KEY (kind, master_id, keyword),
					FOREIGN KEY (kind, master_id) REFERENCES masters(kind, id) ON DELETE CASCADE
				)`,
			})
		},
	},
	{
		Version:     2,
		Description: "Master aliases with their origin",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS master_aliases (
					kind TEXT NOT NULL,
					master_id TEXT NOT NULL,
					alias TEXT NOT NULL,
					source TEXT NOT NULL DEFAULT 'import',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (kind, master_id, alias),
					FOREIGN KEY (kind, master_id) REFERENCES masters(kind, id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_master_aliases_source ON master_aliases(source)`,
			})
		},
	},
	{
		Version:     3,
		Description: "Extraction records",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS extraction_records (
					document_id TEXT PRIMARY KEY,
					file_name TEXT NOT NULL DEFAULT '',
					suggested_file_name TEXT NOT NULL,
					tokens_hash TEXT NOT NULL,
					needs_review INTEGER NOT NULL DEFAULT 0,
					payload TEXT NOT NULL,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_extraction_records_review ON extraction_records(needs_review)`,
			})
		},
	},
	{
		Version:     4,
		Description: "Grouping columns on extraction records",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`ALTER TABLE extraction_records ADD COLUMN document_type TEXT NOT NULL DEFAULT ''`,
				`ALTER TABLE extraction_records ADD COLUMN customer_id TEXT NOT NULL DEFAULT ''`,
				`ALTER TABLE extraction_records ADD COLUMN customer_name TEXT NOT NULL DEFAULT ''`,
				`ALTER TABLE extraction_records ADD COLUMN office_name TEXT NOT NULL DEFAULT ''`,
				`ALTER TABLE extraction_records ADD COLUMN processed_at DATETIME`,
				`UPDATE extraction_records SET processed_at = updated_at WHERE processed_at IS NULL`,
				`CREATE INDEX idx_extraction_records_processed ON extraction_records(processed_at)`,
			})
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Debug("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion returns the database's current schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
