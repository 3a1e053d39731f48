package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/docmeta/internal/model"
)

func page(n int, candidates ...model.MatchCandidate) PageResult {
	for i := range candidates {
		candidates[i].PageNumbers = []int{n}
	}
	return PageResult{
		PageNumber: n,
		Result:     model.NewExtractionResult(candidates, model.MaxCandidates, model.ManualSelectionGap),
	}
}

func TestAggregate(t *testing.T) {
	pages := []PageResult{
		page(1, model.MatchCandidate{ID: "c1", Name: "山田太郎", Score: 75, MatchType: model.MatchFuzzy}),
		page(2,
			model.MatchCandidate{ID: "c1", Name: "山田太郎", Score: 100, MatchType: model.MatchExact},
			model.MatchCandidate{ID: "c2", Name: "山田次郎", Score: 72, MatchType: model.MatchFuzzy},
		),
		page(3, model.MatchCandidate{ID: "c2", Name: "山田次郎", Score: 70, MatchType: model.MatchFuzzy}),
	}

	result := Aggregate(pages)

	require.NotNil(t, result.BestMatch)
	assert.Equal(t, "c1", result.BestMatch.ID)
	assert.Equal(t, 100, result.BestMatch.Score)
	assert.Equal(t, model.MatchExact, result.BestMatch.MatchType)
	assert.Equal(t, []int{1, 2}, result.BestMatch.PageNumbers)
	assert.False(t, result.NeedsManualSelection)

	require.Len(t, result.Candidates, 2)
	assert.Equal(t, "c2", result.Candidates[1].ID)
	assert.Equal(t, 72, result.Candidates[1].Score)
	assert.Equal(t, []int{2, 3}, result.Candidates[1].PageNumbers)
}

func TestAggregate_WeakMentionsSurface(t *testing.T) {
	pages := []PageResult{
		page(1),
		page(2, model.MatchCandidate{ID: "o1", Name: "テストケア", Score: 71, MatchType: model.MatchFuzzy}),
	}

	result := Aggregate(pages)

	require.NotNil(t, result.BestMatch)
	assert.Equal(t, "o1", result.BestMatch.ID)
	assert.Equal(t, []int{2}, result.BestMatch.PageNumbers)
}

func TestAggregate_Empty(t *testing.T) {
	result := Aggregate(nil)
	assert.Nil(t, result.BestMatch)
	assert.Empty(t, result.Candidates)
	assert.False(t, result.NeedsManualSelection)
}

func TestAggregate_DuplicateStaysFlagged(t *testing.T) {
	pages := []PageResult{
		page(1, model.MatchCandidate{ID: "c1", Name: "田中太郎", Score: 100, MatchType: model.MatchExact, IsDuplicate: true}),
		page(2, model.MatchCandidate{ID: "c1", Name: "田中太郎", Score: 100, MatchType: model.MatchExact, IsDuplicate: true}),
	}

	result := Aggregate(pages)

	require.NotNil(t, result.BestMatch)
	assert.True(t, result.NeedsManualSelection)
}

func TestAggregate_CommutativeAndAssociative(t *testing.T) {
	p1 := page(1,
		model.MatchCandidate{ID: "a", Name: "A", Score: 90, MatchType: model.MatchPartial},
		model.MatchCandidate{ID: "b", Name: "B", Score: 70, MatchType: model.MatchFuzzy},
	)
	p2 := page(2,
		model.MatchCandidate{ID: "a", Name: "A", Score: 90, MatchType: model.MatchExact},
		model.MatchCandidate{ID: "c", Name: "C", Score: 85, MatchType: model.MatchFuzzy},
	)
	p3 := page(3,
		model.MatchCandidate{ID: "b", Name: "B", Score: 95, MatchType: model.MatchExact},
	)

	forward := Aggregate([]PageResult{p1, p2, p3})
	backward := Aggregate([]PageResult{p3, p2, p1})
	nested := Aggregate([]PageResult{
		{Result: Aggregate([]PageResult{p1, p2})},
		p3,
	})

	assert.Equal(t, forward, backward)
	assert.Equal(t, forward, nested)
	assert.Equal(t, model.MatchExact, forward.Candidates[1].MatchType, "equal scores keep the stronger match type")
}

func TestFromPages(t *testing.T) {
	customers := model.NewExtractionResult([]model.MatchCandidate{{ID: "c1", Score: 100}}, 0, 0)
	pages := []model.PageExtraction{{PageNumber: 4, Customers: customers}}

	got := FromPages(pages, model.KindCustomer)

	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].PageNumber)
	assert.Equal(t, "c1", got[0].Result.BestID())
}
