package group

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/docmeta/internal/common"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "", want: ""},
		{input: "山田 太郎", want: "山田太郎"},
		{input: "山田　太郎", want: "山田太郎"},
		{input: "ＡＢＣケア１２３", want: "abcケア123"},
		{input: "  Care Plan ", want: "careplan"},
		{input: "サービス提供票", want: "サービス提供票"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := NormalizeKey(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NormalizeKey(got))
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		input string
		want  Kind
	}{
		{input: "customer", want: KindCustomer},
		{input: "Office", want: KindOffice},
		{input: "documentType", want: KindDocumentType},
		{input: "document-type", want: KindDocumentType},
		{input: "care-manager", want: KindCareManager},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseKind("vendor")
	assert.ErrorIs(t, err, common.ErrUnknownEntityKind)
}

func TestID(t *testing.T) {
	assert.Equal(t, "customer_山田太郎", ID(KindCustomer, "山田太郎"))
}

func TestAggregate(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, time.June, d, 9, 0, 0, 0, time.UTC) }
	items := []Item{
		{ID: "d1", FileName: "a.pdf", DocumentType: "提供票", Customer: "山田 太郎", Office: "みどりケア", ProcessedAt: day(1)},
		{ID: "d2", FileName: "b.pdf", DocumentType: "ケアプラン", Customer: "山田太郎", Office: "みどりケア", ProcessedAt: day(3)},
		{ID: "d3", FileName: "c.pdf", DocumentType: "提供票", Customer: "佐藤花子", ProcessedAt: day(2)},
		{ID: "d4", FileName: "d.pdf", DocumentType: "提供票", Customer: "山田太郎", ProcessedAt: day(4)},
		{ID: "d5", FileName: "e.pdf", DocumentType: "提供票", Customer: "山田太郎", ProcessedAt: day(5)},
		{ID: "d6", FileName: "f.pdf", Customer: "  ", ProcessedAt: day(6)},
	}

	t.Run("customer", func(t *testing.T) {
		groups := Aggregate(KindCustomer, items)
		require.Len(t, groups, 2)

		yamada := groups[0]
		assert.Equal(t, "山田太郎", yamada.Key)
		assert.Equal(t, "山田太郎", yamada.DisplayName)
		assert.Equal(t, 4, yamada.Count)
		assert.Equal(t, day(5), yamada.LatestAt)
		require.Len(t, yamada.LatestDocs, MaxPreviewDocs)
		assert.Equal(t, []string{"d5", "d4", "d2"}, previewIDs(yamada))

		assert.Equal(t, "佐藤花子", groups[1].Key)
		assert.Equal(t, 1, groups[1].Count)
		assert.Equal(t, day(2), groups[1].LatestAt)
	})

	t.Run("office skips empty values", func(t *testing.T) {
		groups := Aggregate(KindOffice, items)
		require.Len(t, groups, 1)
		assert.Equal(t, 2, groups[0].Count)
		assert.Equal(t, day(3), groups[0].LatestAt)
		assert.Equal(t, []string{"d2", "d1"}, previewIDs(groups[0]))
	})

	t.Run("document type", func(t *testing.T) {
		groups := Aggregate(KindDocumentType, items)
		require.Len(t, groups, 2)
		assert.Equal(t, "提供票", groups[0].Key)
		assert.Equal(t, 4, groups[0].Count)
		assert.Equal(t, "ケアプラン", groups[1].Key)
	})

	t.Run("care manager absent", func(t *testing.T) {
		assert.Empty(t, Aggregate(KindCareManager, items))
	})

	t.Run("input untouched", func(t *testing.T) {
		assert.Equal(t, "d1", items[0].ID)
	})
}

func previewIDs(g Group) []string {
	out := make([]string, 0, len(g.LatestDocs))
	for _, d := range g.LatestDocs {
		out = append(out, d.ID)
	}
	return out
}
