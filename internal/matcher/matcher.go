package matcher

import (
	"math"
	"strings"

	"github.com/Veraticus/docmeta/internal/model"
	"github.com/Veraticus/docmeta/internal/similarity"
	"github.com/Veraticus/docmeta/internal/textnorm"
)

// Scores of the exact rules.
const (
	ExactScore = 100
	// keywordBase + keywordStep*n, capped at keywordCap.
	keywordBase = 75
	keywordStep = 10
	keywordCap  = 90
	// minFuzzyRunes is the shortest name worth a fuzzy scan.
	minFuzzyRunes = 2
)

// Matcher ranks one kind of master entry against page text. It holds no mutable
// state and is safe for concurrent use.
type Matcher struct {
	profile Profile
}

// Options carries per-call inputs.
type Options struct {
	// FileHint boosts office scores when the profile allows it.
	FileHint *FileNameHint
	// PageNumber is recorded on every candidate when positive.
	PageNumber int
}

// New creates a matcher for the given profile.
func New(profile Profile) *Matcher {
	if profile.MaxWindows <= 0 {
		profile.MaxWindows = DefaultMaxWindows
	}
	if profile.MaxCandidates <= 0 {
		profile.MaxCandidates = model.MaxCandidates
	}
	return &Matcher{profile: profile}
}

// Profile returns the matcher's profile.
func (m *Matcher) Profile() Profile {
	return m.profile
}

// Match scores every entry against text and returns those at or above MinScore,
// ranked, capped and with the manual-selection flag derived.
func (m *Matcher) Match(text string, entries []model.MasterEntry, opts Options) model.ExtractionResult {
	if len(entries) == 0 {
		return model.EmptyResult()
	}
	haystack := m.prepare(text)
	if haystack == "" {
		return model.EmptyResult()
	}

	var hint *FileNameHint
	if m.profile.UseFileNameHint {
		hint = opts.FileHint
	}

	var candidates []model.MatchCandidate
	for i := range entries {
		score, matchType := m.scoreEntry(haystack, &entries[i], hint)
		if score < m.profile.MinScore || matchType == model.MatchNone {
			continue
		}
		c := model.MatchCandidate{
			ID:          entries[i].ID,
			Name:        entries[i].Name,
			Score:       score,
			MatchType:   matchType,
			IsDuplicate: entries[i].IsDuplicate,
		}
		if opts.PageNumber > 0 {
			c.PageNumbers = []int{opts.PageNumber}
		}
		candidates = append(candidates, c)
	}

	return model.NewExtractionResult(candidates, m.profile.MaxCandidates, m.profile.ManualGap)
}

// prepare limits text to the profile's search range and match-normalizes it.
func (m *Matcher) prepare(text string) string {
	display := textnorm.DisplayForm(text)
	if m.profile.SearchRange > 0 {
		if runes := []rune(display); len(runes) > m.profile.SearchRange {
			display = string(runes[:m.profile.SearchRange])
		}
	}
	return textnorm.MatchForm(display)
}

func (m *Matcher) scoreEntry(haystack string, entry *model.MasterEntry, hint *FileNameHint) (int, model.MatchType) {
	name := textnorm.MatchForm(entry.Name)
	if name == "" {
		return 0, model.MatchNone
	}
	shortName := textnorm.MatchForm(entry.ShortName)

	score, matchType := 0, model.MatchNone

	switch {
	case strings.Contains(haystack, name):
		score, matchType = ExactScore, model.MatchExact
	case m.altHit(haystack, entry, shortName):
		score, matchType = m.profile.AltScore, model.MatchExact
	case m.prefixHit(haystack, name):
		score, matchType = m.profile.PrefixScore, model.MatchPartial
	}

	if m.profile.UseKeywords && score < keywordCap {
		if n := countKeywords(haystack, entry.Keywords); n > 0 {
			if ks := min(keywordCap, keywordBase+keywordStep*n); ks > score {
				score, matchType = ks, model.MatchPartial
			}
		}
	}

	bonus := hint.boost(name, shortName)

	if matchType == model.MatchNone && textnorm.Runes(name) >= minFuzzyRunes {
		threshold := m.profile.MinScore
		if bonus > 0 {
			threshold -= HintSlack
		}
		if fs := m.fuzzy(haystack, name); fs >= threshold {
			score, matchType = fs, model.MatchFuzzy
		}
	}

	if bonus > 0 && matchType != model.MatchNone && score >= m.profile.MinScore-HintSlack {
		score = min(ExactScore, score+bonus)
	}

	return score, matchType
}

// altHit checks aliases, the short name and (for customers) furigana.
func (m *Matcher) altHit(haystack string, entry *model.MasterEntry, shortName string) bool {
	alts := make([]string, 0, len(entry.Aliases)+2)
	alts = append(alts, shortName)
	for _, alias := range entry.Aliases {
		alts = append(alts, textnorm.MatchForm(alias))
	}
	if m.profile.UseFurigana {
		alts = append(alts, textnorm.MatchForm(entry.Furigana))
	}

	for _, alt := range alts {
		if textnorm.Runes(alt) >= minFuzzyRunes && strings.Contains(haystack, alt) {
			return true
		}
	}
	return false
}

// prefixHit reports whether the leading share of name appears in haystack.
func (m *Matcher) prefixHit(haystack, name string) bool {
	runes := []rune(name)
	if m.profile.PrefixMinRunes <= 0 || len(runes) < m.profile.PrefixMinRunes {
		return false
	}
	n := PrefixLength(len(runes), m.profile.PrefixRatio)
	if n == 0 {
		return false
	}
	return strings.Contains(haystack, string(runes[:n]))
}

// PrefixLength is floor(length*ratio), at least two runes and always shorter than
// the name. It returns 0 when no such prefix exists.
func PrefixLength(length int, ratio float64) int {
	n := int(math.Floor(float64(length) * ratio))
	if n < 2 {
		n = 2
	}
	if n >= length {
		n = length - 1
	}
	if n < 2 {
		return 0
	}
	return n
}

func countKeywords(haystack string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if k := textnorm.MatchForm(kw); k != "" && strings.Contains(haystack, k) {
			n++
		}
	}
	return n
}

// fuzzy slides a window of len(name)+FuzzyMargin runes, clipped to the text
// length, across haystack and returns the best similarity. At most MaxWindows
// start positions are scanned.
func (m *Matcher) fuzzy(haystack, name string) int {
	text := []rune(haystack)
	if len(text) == 0 {
		return 0
	}
	width := min(textnorm.Runes(name)+m.profile.FuzzyMargin, len(text))

	best := 0
	for start := 0; start+width <= len(text) && start < m.profile.MaxWindows; start++ {
		if s := similarity.Score(string(text[start:start+width]), name); s > best {
			best = s
			if best == ExactScore {
				return best
			}
		}
	}
	return best
}
