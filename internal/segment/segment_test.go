package segment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/docmeta/internal/model"
)

var testNow = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

type hit struct {
	id    string
	name  string
	score int
}

func result(hits ...hit) model.ExtractionResult {
	cands := make([]model.MatchCandidate, 0, len(hits))
	for _, h := range hits {
		mt := model.MatchFuzzy
		if h.score == 100 {
			mt = model.MatchExact
		}
		cands = append(cands, model.MatchCandidate{ID: h.id, Name: h.name, Score: h.score, MatchType: mt})
	}
	return model.NewExtractionResult(cands, model.MaxCandidates, model.ManualSelectionGap)
}

func page(n int, doc, office, customer []hit) model.PageExtraction {
	return model.PageExtraction{
		PageNumber: n,
		Documents:  result(doc...),
		Offices:    result(office...),
		Customers:  result(customer...),
	}
}

func one(id, name string, score int) []hit {
	return []hit{{id: id, name: name, score: score}}
}

func TestDetectChanges(t *testing.T) {
	tests := []struct {
		name string
		prev model.PageExtraction
		cur  model.PageExtraction
		want []Change
	}{
		{
			name: "same values",
			prev: page(1, one("d1", "提供票", 100), nil, one("c1", "山田太郎", 100)),
			cur:  page(2, one("d1", "提供票", 90), nil, one("c1", "山田太郎", 80)),
		},
		{
			name: "missing value on later page is not a change",
			prev: page(1, one("d1", "提供票", 100), nil, one("c1", "山田太郎", 100)),
			cur:  page(2, nil, nil, nil),
		},
		{
			name: "customer appears",
			prev: page(1, nil, nil, nil),
			cur:  page(2, nil, nil, one("c1", "山田太郎", 85)),
			want: []Change{{Type: ChangeCustomer, Next: "山田太郎", Confidence: 85}},
		},
		{
			name: "customer and office change",
			prev: page(1, nil, one("o1", "テストケア", 100), one("c1", "山田太郎", 100)),
			cur:  page(2, nil, one("o2", "みどり苑", 90), one("c2", "佐藤花子", 95)),
			want: []Change{
				{Type: ChangeCustomer, Previous: "山田太郎", Next: "佐藤花子", Confidence: 95},
				{Type: ChangeOffice, Previous: "テストケア", Next: "みどり苑", Confidence: 90},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectChanges(&tt.prev, &tt.cur))
		})
	}
}

func TestSplitSuggestions(t *testing.T) {
	tests := []struct {
		name           string
		pages          []model.PageExtraction
		wantReason     Reason
		wantConfidence int
		wantAfter      int
		wantNone       bool
	}{
		{
			name: "customer change",
			pages: []model.PageExtraction{
				page(1, nil, nil, one("c1", "山田太郎", 100)),
				page(2, nil, nil, one("c2", "佐藤花子", 100)),
			},
			wantReason:     ReasonCustomerChange,
			wantConfidence: 100,
			wantAfter:      1,
		},
		{
			name: "document change",
			pages: []model.PageExtraction{
				page(1, one("d1", "提供票", 100), nil, nil),
				page(2, one("d2", "居宅サービス計画書", 90), nil, nil),
			},
			wantReason:     ReasonDocumentChange,
			wantConfidence: 90,
			wantAfter:      1,
		},
		{
			name: "office change",
			pages: []model.PageExtraction{
				page(1, nil, one("o1", "テストケア", 100), nil),
				page(2, nil, one("o2", "みどり苑", 80), nil),
			},
			wantReason:     ReasonOfficeChange,
			wantConfidence: 80,
			wantAfter:      1,
		},
		{
			name: "multiple changes average rounds",
			pages: []model.PageExtraction{
				page(1, one("d1", "提供票", 100), nil, one("c1", "山田太郎", 100)),
				page(2, one("d2", "居宅サービス計画書", 75), nil, one("c2", "佐藤花子", 90)),
			},
			wantReason:     ReasonMultipleChanges,
			wantConfidence: 83,
			wantAfter:      1,
		},
		{
			name: "weak change is ignored",
			pages: []model.PageExtraction{
				page(1, nil, nil, one("c1", "山田太郎", 100)),
				page(2, nil, nil, one("c2", "山田次郎", 65)),
			},
			wantNone: true,
		},
		{
			name: "pages are ordered before comparison",
			pages: []model.PageExtraction{
				page(3, nil, nil, one("c2", "佐藤花子", 100)),
				page(2, nil, nil, one("c1", "山田太郎", 100)),
				page(1, nil, nil, one("c1", "山田太郎", 100)),
			},
			wantReason:     ReasonCustomerChange,
			wantConfidence: 100,
			wantAfter:      2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSuggestions(tt.pages, 0)
			if tt.wantNone {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantReason, got[0].Reason)
			assert.Equal(t, tt.wantConfidence, got[0].Confidence)
			assert.Equal(t, tt.wantAfter, got[0].AfterPageNumber)
		})
	}
}

func TestSegments(t *testing.T) {
	p1 := page(1, one("d1", "提供票", 100), one("o1", "テストケア", 100), one("c1", "山田太郎", 100))
	p1.Dates = []model.DateCandidate{{Date: time.Date(2025, time.January, 18, 0, 0, 0, 0, time.UTC), Confidence: 90}}
	pages := []model.PageExtraction{
		p1,
		page(2, nil, nil, one("c1", "山田太郎", 90)),
		page(3, one("d1", "提供票", 100), nil, one("c2", "佐藤花子", 100)),
		page(4, nil, nil, one("c2", "佐藤花子", 60)),
	}

	suggestions := SplitSuggestions(pages, 0)
	require.Len(t, suggestions, 1)
	assert.Equal(t, 2, suggestions[0].AfterPageNumber)

	segments := Segments(pages, suggestions, Options{Now: testNow})
	require.Len(t, segments, 2)

	first := segments[0]
	assert.Equal(t, "seg_1", first.ID)
	assert.Equal(t, 1, first.StartPage)
	assert.Equal(t, 2, first.EndPage)
	assert.Equal(t, 2, first.PageCount())
	assert.Equal(t, "提供票", first.DocumentType)
	assert.Equal(t, "テストケア", first.OfficeName)
	assert.Equal(t, "c1", first.CustomerID)
	assert.Equal(t, 100, first.Confidence)
	require.NotNil(t, first.Date)
	assert.Equal(t, "提供票_テストケア_20250118_山田太郎.pdf", first.SuggestedFileName)
	require.Len(t, first.CustomerCandidates, 1)
	assert.Equal(t, []int{1, 2}, first.CustomerCandidates[0].PageNumbers)

	second := segments[1]
	assert.Equal(t, "seg_2", second.ID)
	assert.Equal(t, 3, second.StartPage)
	assert.Equal(t, 4, second.EndPage)
	assert.Equal(t, "佐藤花子", second.CustomerName)
	assert.Equal(t, "", second.OfficeName)
	assert.Equal(t, 67, second.Confidence)
	assert.Nil(t, second.Date)
	assert.Equal(t, "提供票_佐藤花子.pdf", second.SuggestedFileName)
}

func TestSegments_CoverAllPages(t *testing.T) {
	pages := []model.PageExtraction{
		page(1, one("a", "A", 100), nil, nil),
		page(2, one("b", "B", 100), nil, nil),
		page(3, one("b", "B", 100), nil, nil),
		page(4, one("a", "A", 100), nil, nil),
		page(5, nil, nil, nil),
	}

	segments := Segments(pages, SplitSuggestions(pages, 0), Options{})

	require.Len(t, segments, 3)
	next := 1
	for _, s := range segments {
		assert.Equal(t, next, s.StartPage)
		assert.GreaterOrEqual(t, s.EndPage, s.StartPage)
		next = s.EndPage + 1
	}
	assert.Equal(t, 6, next)
}

func TestSegments_UniqueFileNames(t *testing.T) {
	pages := []model.PageExtraction{
		page(1, one("a", "A", 100), nil, one("x", "X", 100)),
		page(2, one("b", "B", 100), nil, one("x", "X", 100)),
		page(3, one("a", "A", 100), nil, one("x", "X", 100)),
	}

	segments := Segments(pages, SplitSuggestions(pages, 0), Options{})

	require.Len(t, segments, 3)
	assert.Equal(t, "A_X.pdf", segments[0].SuggestedFileName)
	assert.Equal(t, "B_X.pdf", segments[1].SuggestedFileName)
	assert.Equal(t, "A_X_2.pdf", segments[2].SuggestedFileName)
}

func TestSegments_CustomerAttributesDriveSplitFlag(t *testing.T) {
	pages := []model.PageExtraction{
		page(1, nil, nil, []hit{
			{id: "c1", name: "山田太郎", score: 100},
			{id: "c2", name: "佐藤花子", score: 100},
			{id: "c3", name: "山田次郎", score: 72},
		}),
	}
	attrs := map[string]model.CustomerAttribute{
		"c1": {ID: "c1", Name: "山田太郎", OfficeID: "o1"},
		"c2": {ID: "c2", Name: "佐藤花子", OfficeID: "o2"},
	}

	segments := Segments(pages, nil, Options{CustomerAttributes: attrs})

	require.Len(t, segments, 1)
	assert.True(t, segments[0].ShouldSplit)
	assert.Equal(t, "佐藤花子_山田太郎.pdf", segments[0].SuggestedFileName)
}

func TestSegments_MarkerDate(t *testing.T) {
	p := page(1, nil, nil, nil)
	p.Dates = []model.DateCandidate{
		{Date: time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC), Source: "令和6年12月1日", Confidence: 95},
		{Date: time.Date(2025, time.January, 18, 0, 0, 0, 0, time.UTC), Source: "令和7年1月18日", Confidence: 90},
	}
	opts := Options{
		Now:        testNow,
		DateMarker: "作成日",
		Texts:      map[int]string{1: "受付 令和6年12月1日\n作成日：令和7年1月18日"},
	}

	segments := Segments([]model.PageExtraction{p}, nil, opts)

	require.Len(t, segments, 1)
	require.NotNil(t, segments[0].Date)
	assert.Equal(t, 2025, segments[0].Date.Year())
}

func TestSegments_EdgeCases(t *testing.T) {
	assert.Empty(t, Segments(nil, nil, Options{}))
	assert.Panics(t, func() {
		Segments([]model.PageExtraction{{PageNumber: -1}}, nil, Options{})
	})
}

func TestAnalyze(t *testing.T) {
	pages := []model.PageExtraction{
		page(1, one("d1", "提供票", 100), nil, one("c1", "山田太郎", 100)),
		page(2, one("d2", "居宅サービス計画書", 100), nil, one("c1", "山田太郎", 100)),
		page(3, one("d2", "居宅サービス計画書", 100), nil, one("c2", "佐藤花子", 100)),
	}

	analysis := Analyze(pages, Options{Now: testNow})

	assert.Equal(t, 3, analysis.TotalPages)
	assert.True(t, analysis.ShouldSplit)
	require.Len(t, analysis.Suggestions, 2)
	assert.Equal(t, "1 customer changes and 1 document changes detected", analysis.SplitReason)
	require.Len(t, analysis.Segments, 3)

	summary := Summarize(analysis)
	assert.True(t, summary.ShouldSplit)
	assert.Equal(t, 3, summary.SegmentCount)
	assert.Equal(t, "P1", summary.Segments[0].Pages)
	assert.Equal(t, "佐藤花子", summary.Segments[2].CustomerName)
}

func TestAnalyze_NoSplit(t *testing.T) {
	pages := []model.PageExtraction{
		page(1, one("d1", "提供票", 100), nil, one("c1", "山田太郎", 100)),
		page(2, nil, nil, nil),
		page(3, nil, nil, nil),
	}

	analysis := Analyze(pages, Options{})

	assert.False(t, analysis.ShouldSplit)
	assert.Empty(t, analysis.Suggestions)
	require.Len(t, analysis.Segments, 1)

	summary := Summarize(analysis)
	assert.Equal(t, NoSplitReason, summary.Reason)
	assert.Equal(t, "P1-3", summary.Segments[0].Pages)
}

func TestAnalyze_Empty(t *testing.T) {
	analysis := Analyze(nil, Options{})
	assert.Zero(t, analysis.TotalPages)
	assert.False(t, analysis.ShouldSplit)
	assert.Empty(t, analysis.Segments)
}
