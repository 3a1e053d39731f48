package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/docmeta/internal/common"
	"github.com/Veraticus/docmeta/internal/group"
	"github.com/Veraticus/docmeta/internal/masterio"
	"github.com/Veraticus/docmeta/internal/model"
)

func TestDecodeDocuments(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantIDs []string
		wantErr bool
	}{
		{
			name:    "single object",
			input:   `{"documentId":"d1","fileName":"a.pdf","pages":[{"pageNumber":1,"text":"x"}]}`,
			wantIDs: []string{"d1"},
		},
		{
			name:    "array",
			input:   `[{"documentId":"d1","pages":[]},{"documentId":"d2","pages":[]}]`,
			wantIDs: []string{"d1", "d2"},
		},
		{name: "garbage", input: `not json`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := decodeDocuments([]byte(tt.input))
			if tt.wantErr {
				var userErr *common.UserError
				assert.ErrorAs(t, err, &userErr)
				return
			}
			require.NoError(t, err)
			ids := make([]string, 0, len(docs))
			for _, d := range docs {
				ids = append(ids, d.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestReadDocuments_MissingFile(t *testing.T) {
	_, err := readDocuments(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseKind(t *testing.T) {
	kind, err := parseKind("customer")
	require.NoError(t, err)
	assert.Equal(t, model.KindCustomer, kind)

	_, err = parseKind("vendor")
	assert.ErrorIs(t, err, common.ErrUnknownEntityKind)
}

func TestExportMasters(t *testing.T) {
	entries := []model.MasterEntry{
		{ID: "c1", Name: "山田太郎", Aliases: []string{"ヤマダ"}},
		{ID: "c2", Name: "佐藤花子"},
	}
	dir := t.TempDir()

	for _, name := range []string{"customers.csv", "customers.xlsx"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, exportMasters(path, model.KindCustomer, entries))

			res, err := masterio.ReadFile(path)
			require.NoError(t, err)
			require.Len(t, res.Entries, 2)
			assert.Equal(t, "山田太郎", res.Entries[0].Name)
			assert.Equal(t, []string{"ヤマダ"}, res.Entries[0].Aliases)
		})
	}

	err := exportMasters(filepath.Join(dir, "customers.txt"), model.KindCustomer, entries)
	assert.ErrorIs(t, err, masterio.ErrUnsupportedFormat)
}

func TestTokensCommand_JSON(t *testing.T) {
	cmd := tokensCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--customer", "山田太郎", "--date", "2025-01-18", "--json"})

	require.NoError(t, cmd.Execute())

	var got struct {
		Hash   string            `json:"tokensHash"`
		Tokens []model.TokenInfo `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Len(t, got.Hash, 64)
	assert.NotEmpty(t, got.Tokens)
}

func TestTokensCommand_BadDate(t *testing.T) {
	cmd := tokensCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--date", "18/01/2025"})

	var userErr *common.UserError
	assert.ErrorAs(t, cmd.Execute(), &userErr)
}

func TestVersionCommand(t *testing.T) {
	cmd := versionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "docmeta dev\n", out.String())
}

func TestTokensCommand_FromName(t *testing.T) {
	cmd := tokensCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--from-name", "居宅サービス計画書_テストケア_20250118_山田太郎.pdf", "--json"})

	require.NoError(t, cmd.Execute())

	var got struct {
		Tokens []model.TokenInfo `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))

	fields := map[model.TokenField]bool{}
	for _, tok := range got.Tokens {
		fields[tok.Field] = true
	}
	assert.True(t, fields[model.FieldDate])
	assert.True(t, fields[model.FieldCustomer])
	assert.True(t, fields[model.FieldDocumentType])
}

func TestGroupRows(t *testing.T) {
	latest := time.Date(2025, time.June, 3, 9, 0, 0, 0, time.UTC)
	groups := []group.Group{
		{
			Kind:        group.KindCustomer,
			Key:         "山田太郎",
			DisplayName: "山田 太郎",
			Count:       4,
			LatestAt:    latest,
			LatestDocs:  []group.Preview{{ID: "d5", FileName: "e.pdf"}, {ID: "d4", FileName: "d.pdf"}},
		},
	}

	rows := groupRows(groups)

	require.Len(t, rows, 1)
	assert.Equal(t, "山田 太郎", rows[0][0])
	assert.Equal(t, "4", rows[0][1])
	assert.Equal(t, latest.Local().Format(time.DateTime), rows[0][2])
	assert.Equal(t, "e.pdf, d.pdf", rows[0][3])
}

func TestPrintGroups_Empty(t *testing.T) {
	var buf bytes.Buffer
	printGroups(&buf, group.KindOffice, nil)
	assert.Contains(t, buf.String(), "No documents grouped by office")
}
