// Package testutil provides test helpers shared across docmeta packages.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/docmeta/internal/model"
	"github.com/Veraticus/docmeta/internal/storage"
	"github.com/Veraticus/docmeta/internal/testutil/masters"
)

// TestDB represents a migrated in-memory database seeded with masters.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
	Masters model.MasterSet
}

// SetupTestDB creates a new in-memory test database seeded with the fixture.
// A nil fixture leaves the master tables empty.
//
// Example:
//
//	db := testutil.SetupTestDB(t, masters.FixtureCare)
func SetupTestDB(t *testing.T, fixture masters.Fixture) *TestDB {
	t.Helper()

	return SetupTestDBWithBuilder(t, func(b masters.Builder) masters.Builder {
		if fixture == nil {
			return b
		}
		return b.WithFixture(fixture)
	})
}

// SetupTestDBWithBuilder creates a test database using a master builder.
//
// Example:
//
//	db := testutil.SetupTestDBWithBuilder(t, func(b masters.Builder) masters.Builder {
//		return b.WithFixture(masters.FixtureCare).WithCustomer("c9", "田中一郎", "o1")
//	})
func SetupTestDBWithBuilder(t *testing.T, configure func(masters.Builder) masters.Builder) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	builder := masters.NewBuilder(t)
	if configure != nil {
		builder = configure(builder)
	}

	set, err := builder.Seed(ctx, store)
	if err != nil {
		t.Fatalf("failed to seed masters: %v", err)
	}

	return &TestDB{
		Storage: store,
		Masters: set,
		t:       t,
	}
}

// MustGetMaster returns the stored entry or fails the test.
func (db *TestDB) MustGetMaster(kind model.EntityKind, id string) *model.MasterEntry {
	db.t.Helper()
	entry, err := db.Storage.GetMaster(context.Background(), kind, id)
	if err != nil {
		db.t.Fatalf("master %s %s: %v", kind, id, err)
	}
	return entry
}
