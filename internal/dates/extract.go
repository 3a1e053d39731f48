package dates

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Veraticus/docmeta/internal/model"
	"github.com/Veraticus/docmeta/internal/textnorm"
)

const (
	// MinYear is the earliest year accepted as a document date.
	MinYear = 1900
	// FutureYears is how far past the current year a date may lie.
	FutureYears = 10
	// DefaultMaxCandidates caps the candidates returned by Extract.
	DefaultMaxCandidates = 10
)

// CompiledRule holds a compiled regex with its rule metadata.
type CompiledRule struct {
	compiledRegex *regexp.Regexp
	Rule
}

// Extractor applies an ordered rule set to text. It is immutable and safe for
// concurrent use.
type Extractor struct {
	rules []CompiledRule
}

// Options tunes a single extraction.
type Options struct {
	// Now anchors validity and recency checks. Zero means time.Now().
	Now           time.Time
	MaxCandidates int
}

// NewExtractor compiles the given rules, highest priority first.
func NewExtractor(rules []Rule) (*Extractor, error) {
	compiled := make([]CompiledRule, 0, len(rules))
	for _, r := range rules {
		regex, err := regexp.Compile(r.Regex)
		if err != nil {
			return nil, fmt.Errorf("failed to compile date rule %s: %w", r.Name, err)
		}
		compiled = append(compiled, CompiledRule{Rule: r, compiledRegex: regex})
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Priority > compiled[j].Priority
	})

	return &Extractor{rules: compiled}, nil
}

var defaultExtractor = mustExtractor(DefaultRules())

func mustExtractor(rules []Rule) *Extractor {
	e, err := NewExtractor(rules)
	if err != nil {
		panic(err)
	}
	return e
}

// Default returns the extractor built from DefaultRules.
func Default() *Extractor {
	return defaultExtractor
}

// Extract runs the default rules over text.
func Extract(text string, opts Options) []model.DateCandidate {
	return defaultExtractor.Extract(text, opts)
}

// Extract returns the valid date candidates in text, one per calendar date with
// the highest confidence kept, sorted by confidence. Rules run over the raw text
// and over its DateForm.
func (e *Extractor) Extract(text string, opts Options) []model.DateCandidate {
	if strings.TrimSpace(text) == "" {
		return []model.DateCandidate{}
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	limit := opts.MaxCandidates
	if limit <= 0 {
		limit = DefaultMaxCandidates
	}

	variants := []string{text}
	if fixed := textnorm.DateForm(text); fixed != text {
		variants = append(variants, fixed)
	}

	var found []model.DateCandidate
	for _, variant := range variants {
		for _, rule := range e.rules {
			found = append(found, rule.scan(variant, now)...)
		}
	}

	unique := dedupe(found)
	ranked := model.DateCandidates(unique)
	ranked.Sort()
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return []model.DateCandidate(ranked)
}

func (r *CompiledRule) scan(text string, now time.Time) []model.DateCandidate {
	var out []model.DateCandidate
	for _, loc := range r.compiledRegex.FindAllStringSubmatchIndex(text, -1) {
		if r.Kind == KindEraMonth && !monthOnly(text[loc[1]:]) {
			continue
		}
		groups := make([]string, 0, len(loc)/2)
		for i := 0; i < len(loc); i += 2 {
			if loc[i] < 0 {
				groups = append(groups, "")
				continue
			}
			groups = append(groups, text[loc[i]:loc[i+1]])
		}

		year, month, day, ok := r.resolve(groups[1:])
		if !ok || !IsValidDate(year, month, day, now) {
			continue
		}
		out = append(out, model.DateCandidate{
			Date:       time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC),
			Source:     groups[0],
			Pattern:    r.Name,
			Confidence: r.Confidence,
		})
	}
	return out
}

// monthOnly reports whether an era year-month match stands on its own rather than
// being the head of a billing month or a full date.
func monthOnly(rest string) bool {
	next, _ := utf8.DecodeRuneInString(rest)
	return next != '分' && (next < '0' || next > '9')
}

func (r *CompiledRule) resolve(groups []string) (year, month, day int, ok bool) {
	switch r.Kind {
	case KindEraBilling, KindEraMonth, KindEraDate, KindShortEra:
		eraYear, valid := parseEraYear(groups[1])
		if !valid {
			return 0, 0, 0, false
		}
		year = ConvertEra(groups[0], eraYear)
		if year == InvalidYear {
			return 0, 0, 0, false
		}
		month = atoi(groups[2])
		day = 1
		if r.Kind == KindEraDate || r.Kind == KindShortEra {
			day = atoi(groups[3])
		}
		return year, month, day, true
	case KindWesternDate:
		return atoi(groups[0]), atoi(groups[1]), atoi(groups[2]), true
	default:
		return 0, 0, 0, false
	}
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

// IsValidDate reports whether y-m-d is a real calendar date within
// [MinYear, now.Year+FutureYears].
func IsValidDate(year, month, day int, now time.Time) bool {
	if year < MinYear || year > now.Year()+FutureYears {
		return false
	}
	if month < 1 || month > 12 {
		return false
	}
	return day >= 1 && day <= DaysIn(year, time.Month(month))
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// dedupe keeps one candidate per calendar date, the first with the highest confidence.
func dedupe(candidates []model.DateCandidate) []model.DateCandidate {
	index := make(map[string]int, len(candidates))
	out := make([]model.DateCandidate, 0, len(candidates))
	for _, c := range candidates {
		key := c.Date.Format(time.DateOnly)
		if i, seen := index[key]; seen {
			if c.Confidence > out[i].Confidence {
				out[i] = c
			}
			continue
		}
		index[key] = len(out)
		out = append(out, c)
	}
	return out
}

// Merge combines candidate lists from several pages into one ranked list with
// one candidate per calendar date.
func Merge(lists ...[]model.DateCandidate) []model.DateCandidate {
	var all []model.DateCandidate
	for _, l := range lists {
		all = append(all, l...)
	}
	ranked := model.DateCandidates(dedupe(all))
	ranked.Sort()
	return []model.DateCandidate(ranked)
}

// Format renders a date the way reviewers read it (2025/01/18).
func Format(t time.Time) string {
	return t.Format("2006/01/02")
}
