package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/docmeta/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrInvalidKind  = errors.New("invalid master kind")
	ErrInvalidEntry = errors.New("invalid master entry")
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateKind(kind model.EntityKind) error {
	if _, err := model.ParseEntityKind(string(kind)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKind, err)
	}
	return nil
}

func validateEntries(entries []model.MasterEntry) error {
	seen := make(map[string]bool, len(entries))
	for i := range entries {
		if err := entries[i].Validate(); err != nil {
			return fmt.Errorf("%w at index %d: %w", ErrInvalidEntry, i, err)
		}
		if seen[entries[i].ID] {
			return fmt.Errorf("%w at index %d: duplicate id %s", ErrInvalidEntry, i, entries[i].ID)
		}
		seen[entries[i].ID] = true
	}
	return nil
}
