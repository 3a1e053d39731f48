package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/docmeta/internal/engine"
	"github.com/Veraticus/docmeta/internal/model"
	"github.com/Veraticus/docmeta/internal/testutil/masters"
)

func extract(t *testing.T, doc engine.Document) *engine.Result {
	t.Helper()
	cfg := engine.DefaultConfig()
	cfg.Now = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	e, err := engine.New(cfg, nil)
	require.NoError(t, err)

	r, err := e.Extract(context.Background(), doc, masters.NewBuilder(t).WithFixture(masters.FixtureCare).Build())
	require.NoError(t, err)
	return r
}

func TestRenderResult(t *testing.T) {
	r := extract(t, engine.Document{
		ID:       "doc-1",
		FileName: "scan1.pdf",
		Pages: []model.Page{
			{PageNumber: 1, Text: "居宅サービス計画書（１）\n利用者名 山田太郎 様\n居宅介護支援事業所 テストケア居宅介護支援事業所\n作成日 令和7年1月18日"},
		},
	})

	out := RenderResult(r)
	assert.Contains(t, out, "doc-1 (scan1.pdf)")
	assert.Contains(t, out, "山田太郎")
	assert.Contains(t, out, "2025-01-18")
	assert.Contains(t, out, r.SuggestedName.FileName)
	assert.NotContains(t, out, "needs review")
}

func TestRenderResult_Split(t *testing.T) {
	r := extract(t, engine.Document{
		ID: "doc-2",
		Pages: []model.Page{
			{PageNumber: 1, Text: "サービス提供票\n利用者 山田太郎"},
			{PageNumber: 2, Text: "サービス提供票\n利用者 佐藤花子"},
		},
	})
	require.True(t, r.Split.ShouldSplit)

	out := RenderResult(r)
	assert.Contains(t, out, "P1")
	assert.Contains(t, out, "P2")
	assert.Contains(t, out, "佐藤花子")
}

func TestRenderBatchSummary(t *testing.T) {
	out := RenderBatchSummary(nil, 2, 1500*time.Millisecond)
	assert.Contains(t, out, "Extracted: 0")
	assert.Contains(t, out, "Failed: 2")
	assert.Contains(t, out, "1.5s")
}

func TestRenderMasters(t *testing.T) {
	out := RenderMasters([]model.MasterEntry{
		{ID: "c4", Name: "田中太郎", IsDuplicate: true},
		{ID: "c1", Name: "山田太郎", Aliases: []string{"ヤマダ"}},
	})
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "田中太郎")
	assert.Contains(t, out, "ヤマダ")
}

func TestRenderTable_ShortRows(t *testing.T) {
	out := RenderTable([]string{"A", "B"}, [][]string{{"x"}})
	assert.Contains(t, out, "x")
}
