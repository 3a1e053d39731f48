package model

import (
	"slices"
	"sort"
)

const (
	// MaxCandidates caps every candidate list handed to a reviewer.
	MaxCandidates = 10
	// ManualSelectionGap is the score gap at or below which the top two
	// candidates are considered indistinguishable.
	ManualSelectionGap = 10
)

// MatchType records which rule produced a candidate's score.
type MatchType string

const (
	// MatchExact is a full containment of the name, alias, short name or furigana.
	MatchExact MatchType = "exact"
	// MatchPartial is a prefix or keyword containment.
	MatchPartial MatchType = "partial"
	// MatchFuzzy is a sliding-window edit-distance match.
	MatchFuzzy MatchType = "fuzzy"
	// MatchNone marks a candidate without textual evidence.
	MatchNone MatchType = "none"
)

// Rank orders match types from strongest to weakest evidence.
func (t MatchType) Rank() int {
	switch t {
	case MatchExact:
		return 0
	case MatchPartial:
		return 1
	case MatchFuzzy:
		return 2
	default:
		return 3
	}
}

// MatchCandidate is a scored, possibly wrong guess at an entity's identity.
type MatchCandidate struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	MatchType   MatchType `json:"matchType"`
	PageNumbers []int     `json:"pageNumbers,omitempty"`
	Score       int       `json:"score"`
	IsDuplicate bool      `json:"isDuplicate"`
}

// Candidates is a slice of MatchCandidate that sorts by descending score.
type Candidates []MatchCandidate

// Len implements sort.Interface.
func (c Candidates) Len() int {
	return len(c)
}

// Less implements sort.Interface - higher scores come first.
func (c Candidates) Less(i, j int) bool {
	if c[i].Score != c[j].Score {
		return c[i].Score > c[j].Score
	}
	if ri, rj := c[i].MatchType.Rank(), c[j].MatchType.Rank(); ri != rj {
		return ri < rj
	}
	if c[i].Name != c[j].Name {
		return c[i].Name < c[j].Name
	}
	return c[i].ID < c[j].ID
}

// Swap implements sort.Interface.
func (c Candidates) Swap(i, j int) {
	c[i], c[j] = c[j], c[i]
}

// Sort sorts the candidates by score in descending order.
func (c Candidates) Sort() {
	sort.Stable(c)
}

// ExtractionResult is the ranked outcome of matching one entity kind.
type ExtractionResult struct {
	BestMatch            *MatchCandidate  `json:"bestMatch"`
	Candidates           []MatchCandidate `json:"candidates"`
	NeedsManualSelection bool             `json:"needsManualSelection"`
}

// NewExtractionResult sorts a copy of candidates, keeps at most limit of them and
// derives the best match and manual-selection flag. A non-positive limit means
// MaxCandidates.
func NewExtractionResult(candidates []MatchCandidate, limit, gap int) ExtractionResult {
	if limit <= 0 {
		limit = MaxCandidates
	}

	ranked := make(Candidates, len(candidates))
	for i := range candidates {
		ranked[i] = candidates[i]
		ranked[i].PageNumbers = slices.Clone(candidates[i].PageNumbers)
	}
	ranked.Sort()
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	result := ExtractionResult{Candidates: []MatchCandidate(ranked)}
	if len(ranked) == 0 {
		result.Candidates = []MatchCandidate{}
		return result
	}

	result.BestMatch = &result.Candidates[0]
	result.NeedsManualSelection = ranked[0].IsDuplicate ||
		(len(ranked) > 1 && ranked[0].Score-ranked[1].Score <= gap)
	return result
}

// EmptyResult is the result of a match that found nothing.
func EmptyResult() ExtractionResult {
	return ExtractionResult{Candidates: []MatchCandidate{}}
}

// Found reports whether the result has a best match.
func (r ExtractionResult) Found() bool {
	return r.BestMatch != nil
}

// BestName returns the best match's name or "".
func (r ExtractionResult) BestName() string {
	if r.BestMatch == nil {
		return ""
	}
	return r.BestMatch.Name
}

// BestID returns the best match's id or "".
func (r ExtractionResult) BestID() string {
	if r.BestMatch == nil {
		return ""
	}
	return r.BestMatch.ID
}

// BestScore returns the best match's score or 0.
func (r ExtractionResult) BestScore() int {
	if r.BestMatch == nil {
		return 0
	}
	return r.BestMatch.Score
}
