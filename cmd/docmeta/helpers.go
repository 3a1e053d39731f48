package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/viper"

	"github.com/Veraticus/docmeta/internal/common"
	"github.com/Veraticus/docmeta/internal/config"
	"github.com/Veraticus/docmeta/internal/engine"
	"github.com/Veraticus/docmeta/internal/model"
	"github.com/Veraticus/docmeta/internal/storage"
)

// initStorage opens the master database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(config.DatabasePath(viper.GetViper()))
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// readDocuments reads OCR input from path, or stdin for "-". The input is a
// single document object or an array of them.
func readDocuments(path string) ([]engine.Document, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path) //nolint:gosec // path comes from the operator
		if err != nil {
			return nil, common.NewUserError("cannot open input "+path, err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return decodeDocuments(data)
}

func decodeDocuments(data []byte) ([]engine.Document, error) {
	var docs []engine.Document
	if err := json.Unmarshal(data, &docs); err == nil {
		return docs, nil
	}

	var doc engine.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, common.NewUserError("input is not a document or a list of documents", err)
	}
	return []engine.Document{doc}, nil
}

// parseKind turns the --kind flag into an EntityKind.
func parseKind(s string) (model.EntityKind, error) {
	kind, err := model.ParseEntityKind(s)
	if err != nil {
		return "", common.NewUserError("invalid --kind", err)
	}
	return kind, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
