// Package segment detects document boundaries inside a multi-page scan and
// describes each resulting page range.
package segment

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/docmeta/internal/aggregate"
	"github.com/Veraticus/docmeta/internal/dates"
	"github.com/Veraticus/docmeta/internal/model"
	"github.com/Veraticus/docmeta/internal/naming"
)

const (
	// DefaultMinConfidence is the mean change confidence a split needs.
	DefaultMinConfidence = 70
	// ExactCustomerScore is the score at which a customer counts as named in the segment.
	ExactCustomerScore = 95
)

// ChangeType names the field that changed between two pages.
type ChangeType string

// Fields compared between consecutive pages.
const (
	ChangeCustomer     ChangeType = "customer"
	ChangeDocumentType ChangeType = "document_type"
	ChangeOffice       ChangeType = "office"
)

// Reason classifies a split suggestion.
type Reason string

// Split reasons, strongest first.
const (
	ReasonCustomerChange  Reason = "customer_change"
	ReasonDocumentChange  Reason = "document_change"
	ReasonOfficeChange    Reason = "office_change"
	ReasonMultipleChanges Reason = "multiple_changes"
)

// Change is one field whose best match differs from the previous page.
type Change struct {
	Type       ChangeType `json:"type"`
	Previous   string     `json:"previous,omitempty"`
	Next       string     `json:"next"`
	Confidence int        `json:"confidence"`
}

// NextSegment previews the values of the page that starts a new segment.
type NextSegment struct {
	DocumentType string `json:"documentType,omitempty"`
	CustomerName string `json:"customerName,omitempty"`
	OfficeName   string `json:"officeName,omitempty"`
}

// Suggestion proposes a cut after AfterPageNumber.
type Suggestion struct {
	Reason          Reason      `json:"reason"`
	Changes         []Change    `json:"changes"`
	Next            NextSegment `json:"nextSegment"`
	AfterPageNumber int         `json:"afterPageNumber"`
	Confidence      int         `json:"confidence"`
}

// Options carry what segment building needs beyond the per-page results.
type Options struct {
	Now                time.Time
	Texts              map[int]string
	CustomerAttributes map[string]model.CustomerAttribute
	DateMarker         string
	DocumentID         string
	Extension          string
	MinConfidence      int
	MaxLength          int
	MaxCustomerNames   int
}

// Analysis is the full split analysis of one file.
type Analysis struct {
	Suggestions []Suggestion              `json:"splitSuggestions"`
	Segments    []model.SegmentDescriptor `json:"segments"`
	SplitReason string                    `json:"splitReason,omitempty"`
	TotalPages  int                       `json:"totalPages"`
	ShouldSplit bool                      `json:"shouldSplit"`
}

// DetectChanges compares the best customer, document type and office of two
// consecutive pages. A field changes when cur has a best match whose name differs
// from prev's; the change carries cur's score as its confidence.
func DetectChanges(prev, cur *model.PageExtraction) []Change {
	var changes []Change
	fields := []struct {
		typ  ChangeType
		kind model.EntityKind
	}{
		{ChangeCustomer, model.KindCustomer},
		{ChangeDocumentType, model.KindDocument},
		{ChangeOffice, model.KindOffice},
	}

	for _, f := range fields {
		before, after := prev.Result(f.kind), cur.Result(f.kind)
		if !after.Found() || after.BestName() == "" || before.BestName() == after.BestName() {
			continue
		}
		changes = append(changes, Change{
			Type:       f.typ,
			Previous:   before.BestName(),
			Next:       after.BestName(),
			Confidence: after.BestScore(),
		})
	}
	return changes
}

// SplitSuggestions walks consecutive page pairs and suggests a cut wherever the
// mean confidence of the detected changes reaches minConfidence. A non-positive
// minConfidence means DefaultMinConfidence.
func SplitSuggestions(pages []model.PageExtraction, minConfidence int) []Suggestion {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}

	ordered := sortedPages(pages)
	var suggestions []Suggestion
	for i := 1; i < len(ordered); i++ {
		prev, cur := &ordered[i-1], &ordered[i]
		changes := DetectChanges(prev, cur)
		if len(changes) == 0 {
			continue
		}

		total := 0
		for _, c := range changes {
			total += c.Confidence
		}
		mean := float64(total) / float64(len(changes))
		if mean < float64(minConfidence) {
			continue
		}

		suggestions = append(suggestions, Suggestion{
			AfterPageNumber: prev.PageNumber,
			Reason:          reasonFor(changes),
			Confidence:      int(math.Round(mean)),
			Changes:         changes,
			Next: NextSegment{
				DocumentType: cur.Documents.BestName(),
				CustomerName: cur.Customers.BestName(),
				OfficeName:   cur.Offices.BestName(),
			},
		})
	}
	return suggestions
}

func reasonFor(changes []Change) Reason {
	has := func(t ChangeType) bool {
		for _, c := range changes {
			if c.Type == t {
				return true
			}
		}
		return false
	}

	switch {
	case has(ChangeCustomer):
		if len(changes) > 1 {
			return ReasonMultipleChanges
		}
		return ReasonCustomerChange
	case has(ChangeDocumentType):
		if len(changes) > 1 {
			return ReasonMultipleChanges
		}
		return ReasonDocumentChange
	default:
		return ReasonOfficeChange
	}
}

// Segments partitions the pages at the suggested cuts and describes each range.
// Within a range the highest-scoring page supplies the document type and office,
// customers are aggregated across pages and the date is selected from every
// page's date candidates. Segment file names are unique within the file.
// Segments panics on a negative page number.
func Segments(pages []model.PageExtraction, suggestions []Suggestion, opts Options) []model.SegmentDescriptor {
	if len(pages) == 0 {
		return []model.SegmentDescriptor{}
	}

	ordered := sortedPages(pages)
	for i := range ordered {
		if ordered[i].PageNumber < 0 {
			panic(fmt.Sprintf("segment: negative page number %d", ordered[i].PageNumber))
		}
	}
	last := ordered[len(ordered)-1].PageNumber

	cuts := make([]int, 0, len(suggestions)+1)
	for _, s := range suggestions {
		cuts = append(cuts, s.AfterPageNumber)
	}
	sort.Ints(cuts)
	cuts = append(cuts, last)

	segments := make([]model.SegmentDescriptor, 0, len(cuts))
	taken := make(map[string]bool)
	start := 1
	for _, end := range cuts {
		if end < start {
			continue
		}
		var members []model.PageExtraction
		for _, p := range ordered {
			if p.PageNumber >= start && p.PageNumber <= end {
				members = append(members, p)
			}
		}
		if len(members) == 0 {
			start = end + 1
			continue
		}

		seg := describe(members, opts)
		seg.ID = fmt.Sprintf("seg_%d", len(segments)+1)
		seg.StartPage, seg.EndPage = start, end
		seg.SuggestedFileName = naming.UniqueName(seg.SuggestedFileName, taken)
		segments = append(segments, seg)
		start = end + 1
	}
	return segments
}

func describe(members []model.PageExtraction, opts Options) model.SegmentDescriptor {
	docName, docScore := bestValue(members, model.KindDocument)
	officeName, officeScore := bestValue(members, model.KindOffice)
	customers := aggregate.Aggregate(aggregate.FromPages(members, model.KindCustomer))

	seg := model.SegmentDescriptor{
		DocumentType:       docName,
		OfficeName:         officeName,
		CustomerID:         customers.BestID(),
		CustomerName:       customers.BestName(),
		CustomerCandidates: customers.Candidates,
		Confidence:         int(math.Round(float64(docScore+officeScore+customers.BestScore()) / 3)),
	}

	var candidates []model.DateCandidate
	var texts []string
	for _, p := range members {
		candidates = append(candidates, p.Dates...)
		if t, ok := opts.Texts[p.PageNumber]; ok {
			texts = append(texts, t)
		}
	}
	if picked := dates.Select(dates.Merge(candidates), opts.DateMarker, strings.Join(texts, "\n"), opts.Now); picked != nil {
		d := picked.Date
		seg.Date = &d
	}

	name := naming.Generate(naming.Options{
		DocumentType:     docName,
		OfficeName:       officeName,
		Date:             seg.Date,
		Customers:        NamedCustomers(customers, opts.CustomerAttributes),
		DocumentID:       opts.DocumentID,
		Extension:        opts.Extension,
		MaxLength:        opts.MaxLength,
		MaxCustomerNames: opts.MaxCustomerNames,
	})
	seg.SuggestedFileName = name.FileName
	seg.ShouldSplit = name.ShouldSplit
	return seg
}

// bestValue returns the name and score of the page with the highest best-match
// score for kind. The first page wins ties.
func bestValue(pages []model.PageExtraction, kind model.EntityKind) (string, int) {
	var name string
	score := 0
	for i := range pages {
		r := pages[i].Result(kind)
		if r.BestName() != "" && r.BestScore() > score {
			name, score = r.BestName(), r.BestScore()
		}
	}
	return name, score
}

// NamedCustomers lists the customers a file or segment names outright, falling back to
// the best match when none reaches ExactCustomerScore.
func NamedCustomers(result model.ExtractionResult, attrs map[string]model.CustomerAttribute) []model.CustomerAttribute {
	attribute := func(c *model.MatchCandidate) model.CustomerAttribute {
		if a, ok := attrs[c.ID]; ok {
			return a
		}
		return model.CustomerAttribute{ID: c.ID, Name: c.Name}
	}

	var out []model.CustomerAttribute
	seen := make(map[string]bool)
	for i := range result.Candidates {
		c := &result.Candidates[i]
		if c.Score < ExactCustomerScore || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, attribute(c))
	}
	if len(out) == 0 && result.BestMatch != nil {
		out = append(out, attribute(result.BestMatch))
	}
	return out
}

func sortedPages(pages []model.PageExtraction) []model.PageExtraction {
	out := make([]model.PageExtraction, len(pages))
	copy(out, pages)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PageNumber < out[j].PageNumber
	})
	return out
}

// Analyze runs change detection, suggestion and segment building over a file.
func Analyze(pages []model.PageExtraction, opts Options) Analysis {
	analysis := Analysis{
		TotalPages:  len(pages),
		Suggestions: []Suggestion{},
		Segments:    []model.SegmentDescriptor{},
	}
	if len(pages) == 0 {
		return analysis
	}

	if s := SplitSuggestions(pages, opts.MinConfidence); s != nil {
		analysis.Suggestions = s
	}
	analysis.Segments = Segments(pages, analysis.Suggestions, opts)
	if len(analysis.Suggestions) == 0 {
		return analysis
	}

	analysis.ShouldSplit = true
	customerChanges, docChanges := 0, 0
	for _, s := range analysis.Suggestions {
		switch s.Reason {
		case ReasonCustomerChange, ReasonMultipleChanges:
			customerChanges++
		case ReasonDocumentChange:
			docChanges++
		}
	}

	switch {
	case customerChanges > 0 && docChanges > 0:
		analysis.SplitReason = fmt.Sprintf("%d customer changes and %d document changes detected", customerChanges, docChanges)
	case customerChanges > 0:
		analysis.SplitReason = fmt.Sprintf("%d customer changes detected", customerChanges)
	case docChanges > 0:
		analysis.SplitReason = fmt.Sprintf("%d document changes detected", docChanges)
	default:
		analysis.SplitReason = fmt.Sprintf("%d split candidates detected", len(analysis.Suggestions))
	}
	return analysis
}

// NoSplitReason is reported by Summarize when no cut is suggested.
const NoSplitReason = "no split needed"

// SegmentSummary is one line of a split confirmation.
type SegmentSummary struct {
	ID           string `json:"id"`
	Pages        string `json:"pages"`
	CustomerName string `json:"customer,omitempty"`
	DocumentType string `json:"document,omitempty"`
	FileName     string `json:"fileName"`
}

// Summary condenses an Analysis for confirmation before a file is cut.
type Summary struct {
	Reason       string           `json:"reason"`
	Segments     []SegmentSummary `json:"segments"`
	SegmentCount int              `json:"segmentCount"`
	ShouldSplit  bool             `json:"shouldSplit"`
}

// Summarize renders a short per-segment summary with page ranges such as "P1-3".
func Summarize(a Analysis) Summary {
	summary := Summary{
		ShouldSplit:  a.ShouldSplit,
		Reason:       a.SplitReason,
		SegmentCount: len(a.Segments),
		Segments:     make([]SegmentSummary, 0, len(a.Segments)),
	}
	if summary.Reason == "" {
		summary.Reason = NoSplitReason
	}

	for i := range a.Segments {
		seg := &a.Segments[i]
		summary.Segments = append(summary.Segments, SegmentSummary{
			ID:           seg.ID,
			Pages:        PageRange(seg.StartPage, seg.EndPage),
			CustomerName: seg.CustomerName,
			DocumentType: seg.DocumentType,
			FileName:     seg.SuggestedFileName,
		})
	}
	return summary
}

// PageRange formats an inclusive page range, "P2" or "P1-3".
func PageRange(start, end int) string {
	if start == end {
		return fmt.Sprintf("P%d", start)
	}
	return fmt.Sprintf("P%d-%d", start, end)
}
