// Package masters provides a fluent builder for master-data test fixtures.
//
// Example usage:
//
//	set := masters.NewBuilder(t).
//		WithFixture(masters.FixtureCare).
//		WithCustomer("c9", "田中一郎", "o1").
//		Build()
package masters

import (
	"context"
	"fmt"
	"testing"

	"github.com/Veraticus/docmeta/internal/model"
)

// Saver persists master entries of one kind.
type Saver interface {
	SaveMasters(ctx context.Context, kind model.EntityKind, entries []model.MasterEntry) error
}

// Builder provides a fluent interface for constructing test masters.
type Builder interface {
	// WithEntry adds one entry of the given kind.
	WithEntry(kind model.EntityKind, entry model.MasterEntry) Builder

	// WithDocument adds a document type with optional keywords.
	WithDocument(id, name string, keywords ...string) Builder

	// WithOffice adds an office with an optional short name.
	WithOffice(id, name, shortName string) Builder

	// WithCustomer adds a customer belonging to an office.
	WithCustomer(id, name, officeID string) Builder

	// WithFixture adds every entry of a predefined fixture.
	WithFixture(fixture Fixture) Builder

	// Build returns the master set with duplicate flags computed.
	Build() model.MasterSet

	// Seed saves the built masters into storage and returns them.
	Seed(ctx context.Context, store Saver) (model.MasterSet, error)
}

type masterBuilder struct {
	t   *testing.T
	set model.MasterSet
}

// NewBuilder creates a new master builder for the given test.
func NewBuilder(t *testing.T) Builder {
	t.Helper()
	return &masterBuilder{t: t}
}

func (b *masterBuilder) WithEntry(kind model.EntityKind, entry model.MasterEntry) Builder {
	switch kind {
	case model.KindDocument:
		b.set.Documents = append(b.set.Documents, entry)
	case model.KindOffice:
		b.set.Offices = append(b.set.Offices, entry)
	case model.KindCustomer:
		b.set.Customers = append(b.set.Customers, entry)
	default:
		b.t.Fatalf("unknown master kind %q", kind)
	}
	return b
}

func (b *masterBuilder) WithDocument(id, name string, keywords ...string) Builder {
	return b.WithEntry(model.KindDocument, model.MasterEntry{ID: id, Name: name, Keywords: keywords})
}

func (b *masterBuilder) WithOffice(id, name, shortName string) Builder {
	return b.WithEntry(model.KindOffice, model.MasterEntry{ID: id, Name: name, ShortName: shortName})
}

func (b *masterBuilder) WithCustomer(id, name, officeID string) Builder {
	return b.WithEntry(model.KindCustomer, model.MasterEntry{ID: id, Name: name, OfficeID: officeID})
}

func (b *masterBuilder) WithFixture(fixture Fixture) Builder {
	set := fixture.Masters()
	for _, kind := range model.EntityKinds {
		for _, e := range set.Of(kind) {
			b.WithEntry(kind, e)
		}
	}
	return b
}

func (b *masterBuilder) Build() model.MasterSet {
	b.t.Helper()

	out := model.MasterSet{
		Documents: cloneEntries(b.set.Documents),
		Offices:   cloneEntries(b.set.Offices),
		Customers: cloneEntries(b.set.Customers),
	}
	for _, kind := range model.EntityKinds {
		entries := out.Of(kind)
		for i := range entries {
			if err := entries[i].Validate(); err != nil {
				b.t.Fatalf("invalid %s fixture: %v", kind, err)
			}
		}
		model.MarkDuplicates(entries)
	}
	return out
}

func (b *masterBuilder) Seed(ctx context.Context, store Saver) (model.MasterSet, error) {
	b.t.Helper()

	set := b.Build()
	for _, kind := range model.EntityKinds {
		if err := store.SaveMasters(ctx, kind, set.Of(kind)); err != nil {
			return model.MasterSet{}, fmt.Errorf("failed to seed %s masters: %w", kind, err)
		}
	}
	return set, nil
}

func cloneEntries(entries []model.MasterEntry) []model.MasterEntry {
	if entries == nil {
		return []model.MasterEntry{}
	}
	out := make([]model.MasterEntry, len(entries))
	copy(out, entries)
	return out
}
