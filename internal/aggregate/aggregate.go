// Package aggregate folds per-page extraction results into one file-level result.
package aggregate

import (
	"slices"

	"github.com/Veraticus/docmeta/internal/model"
)

// PageResult is one page's ranked candidates for a single entity kind.
type PageResult struct {
	Result     model.ExtractionResult
	PageNumber int
}

// Aggregate merges candidates by id: the maximum score wins along with the match
// type it was observed with, and page numbers are unioned. The fold is
// commutative and associative, so page order does not matter.
func Aggregate(pages []PageResult) model.ExtractionResult {
	return AggregateWith(pages, model.MaxCandidates, model.ManualSelectionGap)
}

// AggregateWith is Aggregate with an explicit candidate limit and manual-selection gap.
func AggregateWith(pages []PageResult, limit, gap int) model.ExtractionResult {
	merged := make(map[string]*model.MatchCandidate)
	order := make([]string, 0)

	for _, page := range pages {
		for _, c := range page.Result.Candidates {
			pagesSeen := c.PageNumbers
			if page.PageNumber > 0 {
				pagesSeen = append(slices.Clone(pagesSeen), page.PageNumber)
			}

			existing, ok := merged[c.ID]
			if !ok {
				fresh := c
				fresh.PageNumbers = normalizePages(pagesSeen)
				merged[c.ID] = &fresh
				order = append(order, c.ID)
				continue
			}

			if better(c, *existing) {
				existing.Score = c.Score
				existing.MatchType = c.MatchType
				existing.Name = c.Name
			}
			existing.IsDuplicate = existing.IsDuplicate || c.IsDuplicate
			existing.PageNumbers = normalizePages(append(existing.PageNumbers, pagesSeen...))
		}
	}

	candidates := make([]model.MatchCandidate, 0, len(merged))
	for _, id := range order {
		candidates = append(candidates, *merged[id])
	}
	return model.NewExtractionResult(candidates, limit, gap)
}

// better decides which observation of the same entity carries the score. Equal
// scores prefer the stronger match type so that the result does not depend on
// page order.
func better(c, existing model.MatchCandidate) bool {
	if c.Score != existing.Score {
		return c.Score > existing.Score
	}
	return c.MatchType.Rank() < existing.MatchType.Rank()
}

func normalizePages(pages []int) []int {
	if len(pages) == 0 {
		return nil
	}
	out := slices.Clone(pages)
	slices.Sort(out)
	return slices.Compact(out)
}

// FromPages extracts one kind's per-page results.
func FromPages(pages []model.PageExtraction, kind model.EntityKind) []PageResult {
	out := make([]PageResult, 0, len(pages))
	for i := range pages {
		out = append(out, PageResult{PageNumber: pages[i].PageNumber, Result: pages[i].Result(kind)})
	}
	return out
}
