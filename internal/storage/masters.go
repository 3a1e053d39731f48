package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/docmeta/internal/common"
	"github.com/Veraticus/docmeta/internal/model"
)

// AliasSource records where an alias came from.
type AliasSource string

const (
	// AliasImported aliases arrive with master imports and are replaced by the next import.
	AliasImported AliasSource = "import"
	// AliasLearned aliases are added by reviewers and survive re-imports.
	AliasLearned AliasSource = "learned"
)

// SaveMasters upserts entries of one kind. Imported aliases and keywords of each
// saved entry are replaced; learned aliases are kept. Duplicate flags are
// recomputed across the whole kind.
func (s *SQLiteStorage) SaveMasters(ctx context.Context, kind model.EntityKind, entries []model.MasterEntry) error {
	return s.writeMasters(ctx, kind, entries, false)
}

// ReplaceMasters deletes every entry of the kind, learned aliases included,
// and saves entries in their place.
func (s *SQLiteStorage) ReplaceMasters(ctx context.Context, kind model.EntityKind, entries []model.MasterEntry) error {
	return s.writeMasters(ctx, kind, entries, true)
}

func (s *SQLiteStorage) writeMasters(ctx context.Context, kind model.EntityKind, entries []model.MasterEntry, replace bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateKind(kind); err != nil {
		return err
	}
	if err := validateEntries(entries); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if replace {
		if _, err := tx.ExecContext(ctx, `DELETE FROM masters WHERE kind = ?`, kind); err != nil {
			return fmt.Errorf("failed to clear %s masters: %w", kind, err)
		}
	}

	for i := range entries {
		if err := upsertMaster(ctx, tx, kind, &entries[i]); err != nil {
			return err
		}
	}

	if err := recomputeDuplicates(ctx, tx, kind); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit masters: %w", err)
	}

	s.invalidateMasters()
	slog.Debug("Saved masters", "kind", kind, "count", len(entries), "replace", replace)
	return nil
}

func upsertMaster(ctx context.Context, q queryable, kind model.EntityKind, e *model.MasterEntry) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO masters (kind, id, name, short_name, furigana, office_id, care_manager_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(kind, id) DO UPDATE SET
			name = excluded.name,
			short_name = excluded.short_name,
			furigana = excluded.furigana,
			office_id = excluded.office_id,
			care_manager_id = excluded.care_manager_id,
			updated_at = CURRENT_TIMESTAMP`,
		kind, e.ID, e.Name, e.ShortName, e.Furigana, e.OfficeID, e.CareManagerID)
	if err != nil {
		return fmt.Errorf("failed to save %s %s: %w", kind, e.ID, err)
	}

	if _, err := q.ExecContext(ctx,
		`DELETE FROM master_keywords WHERE kind = ? AND master_id = ?`, kind, e.ID); err != nil {
		return fmt.Errorf("failed to clear keywords for %s: %w", e.ID, err)
	}
	for _, kw := range e.Keywords {
		if strings.TrimSpace(kw) == "" {
			continue
		}
		if _, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO master_keywords (kind, master_id, keyword) VALUES (?, ?, ?)`,
			kind, e.ID, kw); err != nil {
			return fmt.Errorf("failed to save keyword for %s: %w", e.ID, err)
		}
	}

	if _, err := q.ExecContext(ctx,
		`DELETE FROM master_aliases WHERE kind = ? AND master_id = ? AND source = ?`,
		kind, e.ID, AliasImported); err != nil {
		return fmt.Errorf("failed to clear aliases for %s: %w", e.ID, err)
	}
	for _, alias := range e.Aliases {
		if err := insertAlias(ctx, q, kind, e.ID, alias, AliasImported); err != nil {
			return err
		}
	}
	return nil
}

func insertAlias(ctx context.Context, q queryable, kind model.EntityKind, id, alias string, source AliasSource) error {
	if strings.TrimSpace(alias) == "" {
		return nil
	}
	_, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO master_aliases (kind, master_id, alias, source) VALUES (?, ?, ?, ?)`,
		kind, id, alias, source)
	if err != nil {
		return fmt.Errorf("failed to save alias for %s: %w", id, err)
	}
	return nil
}

func recomputeDuplicates(ctx context.Context, q queryable, kind model.EntityKind) error {
	rows, err := q.QueryContext(ctx, `SELECT id, name FROM masters WHERE kind = ? ORDER BY id`, kind)
	if err != nil {
		return fmt.Errorf("failed to query %s names: %w", kind, err)
	}
	var entries []model.MasterEntry
	for rows.Next() {
		var e model.MasterEntry
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			_ = rows.Close()
			return fmt.Errorf("failed to scan %s name: %w", kind, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("failed to read %s names: %w", kind, err)
	}

	model.MarkDuplicates(entries)
	for _, e := range entries {
		if _, err := q.ExecContext(ctx,
			`UPDATE masters SET is_duplicate = ? WHERE kind = ? AND id = ?`,
			e.IsDuplicate, kind, e.ID); err != nil {
			return fmt.Errorf("failed to flag %s %s: %w", kind, e.ID, err)
		}
	}
	return nil
}

// ListMasters returns every entry of one kind ordered by id.
func (s *SQLiteStorage) ListMasters(ctx context.Context, kind model.EntityKind) ([]model.MasterEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateKind(kind); err != nil {
		return nil, err
	}
	return listMasters(ctx, s.db, kind)
}

func listMasters(ctx context.Context, q queryable, kind model.EntityKind) ([]model.MasterEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, short_name, furigana, office_id, care_manager_id, is_duplicate
		FROM masters WHERE kind = ? ORDER BY id`, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s masters: %w", kind, err)
	}

	entries := []model.MasterEntry{}
	index := make(map[string]int)
	for rows.Next() {
		var e model.MasterEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.ShortName, &e.Furigana, &e.OfficeID, &e.CareManagerID, &e.IsDuplicate); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan %s master: %w", kind, err)
		}
		index[e.ID] = len(entries)
		entries = append(entries, e)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("failed to read %s masters: %w", kind, err)
	}

	err = eachChild(ctx, q,
		`SELECT master_id, keyword FROM master_keywords WHERE kind = ? ORDER BY rowid`, kind,
		func(id, value string) {
			if i, ok := index[id]; ok {
				entries[i].Keywords = append(entries[i].Keywords, value)
			}
		})
	if err != nil {
		return nil, err
	}

	err = eachChild(ctx, q,
		`SELECT master_id, alias FROM master_aliases WHERE kind = ? ORDER BY rowid`, kind,
		func(id, value string) {
			if i, ok := index[id]; ok {
				entries[i].Aliases = append(entries[i].Aliases, value)
			}
		})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func eachChild(ctx context.Context, q queryable, query string, kind model.EntityKind, fn func(id, value string)) error {
	rows, err := q.QueryContext(ctx, query, kind)
	if err != nil {
		return fmt.Errorf("failed to query %s children: %w", kind, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var id, value string
		if err := rows.Scan(&id, &value); err != nil {
			return fmt.Errorf("failed to scan %s child: %w", kind, err)
		}
		fn(id, value)
	}
	return rows.Err()
}

// GetMaster returns one entry by kind and id.
func (s *SQLiteStorage) GetMaster(ctx context.Context, kind model.EntityKind, id string) (*model.MasterEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateKind(kind); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var e model.MasterEntry
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, short_name, furigana, office_id, care_manager_id, is_duplicate
		FROM masters WHERE kind = ? AND id = ?`, kind, id).
		Scan(&e.ID, &e.Name, &e.ShortName, &e.Furigana, &e.OfficeID, &e.CareManagerID, &e.IsDuplicate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", kind, id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %s: %w", kind, id, err)
	}

	keywords, err := s.childValues(ctx,
		`SELECT keyword FROM master_keywords WHERE kind = ? AND master_id = ? ORDER BY rowid`, kind, id)
	if err != nil {
		return nil, err
	}
	aliases, err := s.childValues(ctx,
		`SELECT alias FROM master_aliases WHERE kind = ? AND master_id = ? ORDER BY rowid`, kind, id)
	if err != nil {
		return nil, err
	}
	e.Keywords = keywords
	e.Aliases = aliases

	return &e, nil
}

func (s *SQLiteStorage) childValues(ctx context.Context, query string, kind model.EntityKind, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, kind, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query values for %s: %w", id, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan value for %s: %w", id, err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// DeleteMaster removes one entry with its aliases and keywords.
func (s *SQLiteStorage) DeleteMaster(ctx context.Context, kind model.EntityKind, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateKind(kind); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM masters WHERE kind = ? AND id = ?`, kind, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", kind, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, common.ErrNotFound)
	}

	if err := recomputeDuplicates(ctx, tx, kind); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}

	s.invalidateMasters()
	return nil
}

// AddAlias attaches an alias to an existing entry.
func (s *SQLiteStorage) AddAlias(ctx context.Context, kind model.EntityKind, id, alias string, source AliasSource) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateKind(kind); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if err := validateString(alias, "alias"); err != nil {
		return err
	}
	if source != AliasImported && source != AliasLearned {
		return fmt.Errorf("%w: alias source %q", ErrInvalidEntry, source)
	}

	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM masters WHERE kind = ? AND id = ?)`, kind, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to look up %s %s: %w", kind, id, err)
	}
	if !exists {
		return fmt.Errorf("%s %s: %w", kind, id, common.ErrNotFound)
	}

	if err := insertAlias(ctx, s.db, kind, id, alias, source); err != nil {
		return err
	}

	s.invalidateMasters()
	slog.Info("Added alias", "kind", kind, "id", id, "alias", alias, "source", source)
	return nil
}

// LoadMasters returns all three master lists. Results are cached until the
// next write or MasterCacheTTL elapses.
func (s *SQLiteStorage) LoadMasters(ctx context.Context) (model.MasterSet, error) {
	if err := validateContext(ctx); err != nil {
		return model.MasterSet{}, err
	}

	if cached := s.cachedMasters(); cached != nil {
		return cloneSet(*cached), nil
	}

	var set model.MasterSet
	for _, kind := range model.EntityKinds {
		entries, err := listMasters(ctx, s.db, kind)
		if err != nil {
			return model.MasterSet{}, err
		}
		switch kind {
		case model.KindDocument:
			set.Documents = entries
		case model.KindOffice:
			set.Offices = entries
		case model.KindCustomer:
			set.Customers = entries
		}
	}

	s.cacheMasters(&set)
	return cloneSet(set), nil
}

func cloneSet(set model.MasterSet) model.MasterSet {
	return model.MasterSet{
		Documents: append([]model.MasterEntry{}, set.Documents...),
		Offices:   append([]model.MasterEntry{}, set.Offices...),
		Customers: append([]model.MasterEntry{}, set.Customers...),
	}
}
