// Package report turns extraction results into review rows and writes them
// to an XLSX workbook.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/docmeta/internal/engine"
	"github.com/Veraticus/docmeta/internal/model"
	"github.com/Veraticus/docmeta/internal/segment"
)

// maxListedCandidates caps how many candidates are rendered in one cell.
const maxListedCandidates = 3

// DocumentHeader names the columns of a DocumentRow.
var DocumentHeader = []string{
	"Document ID", "Source File", "Suggested File", "Date",
	"Document Type", "Document OK", "Office", "Office OK",
	"Customer", "Customer OK", "Customer Candidates",
	"Pages", "Split", "Split Reason", "Needs Review",
}

// SegmentHeader names the columns of a SegmentRow.
var SegmentHeader = []string{
	"Document ID", "Segment", "Pages", "Document Type", "Customer", "Office", "Date", "Confidence", "Suggested File",
}

// DocumentRow is one reviewable document.
type DocumentRow struct {
	DocumentID         string
	FileName           string
	SuggestedFileName  string
	Date               string
	DocumentType       string
	OfficeName         string
	CustomerName       string
	CustomerCandidates string
	SplitReason        string
	PageCount          int
	DocumentConfirmed  bool
	OfficeConfirmed    bool
	CustomerConfirmed  bool
	ShouldSplit        bool
	NeedsReview        bool
}

// Values returns the row in DocumentHeader order.
func (r DocumentRow) Values() []any {
	return []any{
		r.DocumentID, r.FileName, r.SuggestedFileName, r.Date,
		r.DocumentType, yesNo(r.DocumentConfirmed), r.OfficeName, yesNo(r.OfficeConfirmed),
		r.CustomerName, yesNo(r.CustomerConfirmed), r.CustomerCandidates,
		r.PageCount, yesNo(r.ShouldSplit), r.SplitReason, yesNo(r.NeedsReview),
	}
}

// SegmentRow is one suggested split of a document.
type SegmentRow struct {
	DocumentID        string
	SegmentID         string
	Pages             string
	DocumentType      string
	CustomerName      string
	OfficeName        string
	Date              string
	SuggestedFileName string
	Confidence        int
}

// Values returns the row in SegmentHeader order.
func (r SegmentRow) Values() []any {
	return []any{
		r.DocumentID, r.SegmentID, r.Pages, r.DocumentType, r.CustomerName,
		r.OfficeName, r.Date, r.Confidence, r.SuggestedFileName,
	}
}

// DocumentRows builds one row per result, those needing review first and
// otherwise ordered by document id.
func DocumentRows(results []*engine.Result) []DocumentRow {
	rows := make([]DocumentRow, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		f := r.Fields()
		row := DocumentRow{
			DocumentID:         r.DocumentID,
			FileName:           r.FileName,
			SuggestedFileName:  f.SuggestedFileName,
			DocumentType:       f.DocumentType,
			OfficeName:         f.OfficeName,
			CustomerName:       f.CustomerName,
			CustomerCandidates: FormatCandidates(f.CustomerCandidates),
			PageCount:          r.PageCount,
			DocumentConfirmed:  f.DocumentConfirmed,
			OfficeConfirmed:    f.OfficeConfirmed,
			CustomerConfirmed:  f.CustomerConfirmed,
			ShouldSplit:        r.Split.ShouldSplit,
			NeedsReview:        r.NeedsReview(),
		}
		if f.FileDate != nil {
			row.Date = f.FileDate.Format("2006-01-02")
		}
		if r.Split.ShouldSplit {
			row.SplitReason = r.Split.SplitReason
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].NeedsReview != rows[j].NeedsReview {
			return rows[i].NeedsReview
		}
		return rows[i].DocumentID < rows[j].DocumentID
	})
	return rows
}

// SegmentRows lists the segments of every result that should be split.
func SegmentRows(results []*engine.Result) []SegmentRow {
	var rows []SegmentRow
	for _, r := range results {
		if r == nil || !r.Split.ShouldSplit {
			continue
		}
		for _, s := range r.Split.Segments {
			row := SegmentRow{
				DocumentID:        r.DocumentID,
				SegmentID:         s.ID,
				Pages:             segment.PageRange(s.StartPage, s.EndPage),
				DocumentType:      s.DocumentType,
				CustomerName:      s.CustomerName,
				OfficeName:        s.OfficeName,
				SuggestedFileName: s.SuggestedFileName,
				Confidence:        s.Confidence,
			}
			if s.Date != nil {
				row.Date = s.Date.Format("2006-01-02")
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// FormatCandidates renders the top candidates as "name (score)" joined by " / ".
// Homonyms are marked with their id.
func FormatCandidates(candidates []model.MatchCandidate) string {
	parts := make([]string, 0, maxListedCandidates)
	for i, c := range candidates {
		if i == maxListedCandidates {
			parts = append(parts, fmt.Sprintf("+%d", len(candidates)-maxListedCandidates))
			break
		}
		if c.IsDuplicate {
			parts = append(parts, fmt.Sprintf("%s [%s] (%d)", c.Name, c.ID, c.Score))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%d)", c.Name, c.Score))
	}
	return strings.Join(parts, " / ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
