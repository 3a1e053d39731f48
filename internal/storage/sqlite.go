// Package storage persists master data and extraction records in SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Veraticus/docmeta/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// MasterCacheTTL is how long LoadMasters serves a cached master set.
const MasterCacheTTL = 5 * time.Minute

// SQLiteStorage stores masters and extraction records in a SQLite database.
type SQLiteStorage struct {
	cacheExpiry time.Time
	db          *sql.DB
	masterCache *model.MasterSet
	dbPath      string
	cacheMutex  sync.RWMutex
}

// NewSQLiteStorage opens (and creates if needed) the database at dbPath.
// ":memory:" opens a private in-memory database.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dsn := dbPath
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	} else {
		dsn = dbPath + "?_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Path returns the database path the storage was opened with.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStorage) cachedMasters() *model.MasterSet {
	s.cacheMutex.RLock()
	defer s.cacheMutex.RUnlock()

	if s.masterCache == nil || time.Now().After(s.cacheExpiry) {
		return nil
	}
	return s.masterCache
}

func (s *SQLiteStorage) cacheMasters(set *model.MasterSet) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	s.masterCache = set
	s.cacheExpiry = time.Now().Add(MasterCacheTTL)
}

func (s *SQLiteStorage) invalidateMasters() {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	s.masterCache = nil
}
