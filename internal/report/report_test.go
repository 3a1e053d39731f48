package report

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/docmeta/internal/engine"
	"github.com/Veraticus/docmeta/internal/model"
	"github.com/Veraticus/docmeta/internal/testutil/masters"
)

func extractAll(t *testing.T, docs ...engine.Document) []*engine.Result {
	t.Helper()
	cfg := engine.DefaultConfig()
	cfg.Now = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	e, err := engine.New(cfg, nil)
	require.NoError(t, err)

	set := masters.NewBuilder(t).WithFixture(masters.FixtureCare).Build()
	results := make([]*engine.Result, 0, len(docs))
	for _, doc := range docs {
		r, err := e.Extract(context.Background(), doc, set)
		require.NoError(t, err)
		results = append(results, r)
	}
	return results
}

var (
	planDoc = engine.Document{
		ID:       "a-plan",
		FileName: "scan1.pdf",
		Pages: []model.Page{
			{PageNumber: 1, Text: "居宅サービス計画書（１）\n利用者名 山田太郎 様\n居宅介護支援事業所 テストケア居宅介護支援事業所\n作成日 令和7年1月18日"},
		},
	}
	mixedDoc = engine.Document{
		ID:       "z-mixed",
		FileName: "scan2.pdf",
		Pages: []model.Page{
			{PageNumber: 1, Text: "サービス提供票\n利用者 山田太郎"},
			{PageNumber: 2, Text: "サービス提供票\n利用者 佐藤花子"},
		},
	}
)

func TestDocumentRows(t *testing.T) {
	rows := DocumentRows(extractAll(t, planDoc, mixedDoc))
	require.Len(t, rows, 2)

	assert.Equal(t, "z-mixed", rows[0].DocumentID, "rows needing review come first")
	assert.True(t, rows[0].NeedsReview)
	assert.False(t, rows[0].CustomerConfirmed)
	assert.True(t, rows[0].ShouldSplit)
	assert.NotEmpty(t, rows[0].SplitReason)
	assert.Contains(t, rows[0].CustomerCandidates, "山田太郎 (100)")

	plan := rows[1]
	assert.Equal(t, "a-plan", plan.DocumentID)
	assert.Equal(t, "2025-01-18", plan.Date)
	assert.Equal(t, "居宅サービス計画書", plan.DocumentType)
	assert.Equal(t, "山田太郎", plan.CustomerName)
	assert.Empty(t, plan.SplitReason)
	assert.Len(t, plan.Values(), len(DocumentHeader))
}

func TestSegmentRows(t *testing.T) {
	rows := SegmentRows(extractAll(t, planDoc, mixedDoc))
	require.Len(t, rows, 2)

	assert.Equal(t, "z-mixed", rows[0].DocumentID)
	assert.Equal(t, "P1", rows[0].Pages)
	assert.Equal(t, "山田太郎", rows[0].CustomerName)
	assert.Equal(t, "P2", rows[1].Pages)
	assert.Equal(t, "サービス提供票_佐藤花子.pdf", rows[1].SuggestedFileName)
	assert.Len(t, rows[0].Values(), len(SegmentHeader))
}

func TestFormatCandidates(t *testing.T) {
	tests := []struct {
		name       string
		want       string
		candidates []model.MatchCandidate
	}{
		{name: "none", want: ""},
		{
			name:       "single",
			candidates: []model.MatchCandidate{{ID: "c1", Name: "山田太郎", Score: 100}},
			want:       "山田太郎 (100)",
		},
		{
			name: "homonyms carry ids",
			candidates: []model.MatchCandidate{
				{ID: "c4", Name: "田中太郎", Score: 100, IsDuplicate: true},
				{ID: "c5", Name: "田中 太郎", Score: 100, IsDuplicate: true},
			},
			want: "田中太郎 [c4] (100) / 田中 太郎 [c5] (100)",
		},
		{
			name: "overflow",
			candidates: []model.MatchCandidate{
				{Name: "a", Score: 90}, {Name: "b", Score: 80}, {Name: "c", Score: 70}, {Name: "d", Score: 60}, {Name: "e", Score: 50},
			},
			want: "a (90) / b (80) / c (70) / +2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCandidates(tt.candidates))
		})
	}
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, extractAll(t, planDoc, mixedDoc)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{DocumentsSheet, SegmentsSheet}, f.GetSheetList())

	docs, err := f.GetRows(DocumentsSheet)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, DocumentHeader[0], docs[0][0])
	assert.Equal(t, "z-mixed", docs[1][0])

	segs, err := f.GetRows(SegmentsSheet)
	require.NoError(t, err)
	assert.Len(t, segs, 3)
}

func TestWriteWorkbook_NoSplits(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, extractAll(t, planDoc)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{DocumentsSheet}, f.GetSheetList())
}

func TestXLSXWriter_WriteResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.xlsx")
	w := NewXLSXWriter(path, nil)

	require.NoError(t, w.WriteResults(context.Background(), extractAll(t, planDoc)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(DocumentsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestXLSXWriter_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewXLSXWriter(filepath.Join(t.TempDir(), "r.xlsx"), nil).WriteResults(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

var _ engine.ResultWriter = (*XLSXWriter)(nil)
