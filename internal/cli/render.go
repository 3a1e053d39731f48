package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/docmeta/internal/engine"
	"github.com/Veraticus/docmeta/internal/model"
	"github.com/Veraticus/docmeta/internal/report"
	"github.com/Veraticus/docmeta/internal/segment"
)

// RenderResult formats one extraction result for the terminal.
func RenderResult(r *engine.Result) string {
	f := r.Fields()

	var b strings.Builder
	title := r.DocumentID
	if r.FileName != "" {
		title += " (" + r.FileName + ")"
	}
	b.WriteString(FormatTitle(title))
	b.WriteString("\n")

	b.WriteString(fieldLine("Document", f.DocumentType, f.DocumentConfirmed, f.DocumentCandidates))
	b.WriteString(fieldLine("Office", f.OfficeName, f.OfficeConfirmed, f.OfficeCandidates))
	b.WriteString(fieldLine("Customer", f.CustomerName, f.CustomerConfirmed, f.CustomerCandidates))

	date := SubtleStyle.Render("(none)")
	if f.FileDate != nil {
		date = f.FileDate.Format(time.DateOnly)
	}
	fmt.Fprintf(&b, "  %-10s %s\n", "Date", date)
	fmt.Fprintf(&b, "  %-10s %s\n", "File", BoldStyle.Render(f.SuggestedFileName))

	if r.Split.ShouldSplit {
		b.WriteString("\n")
		b.WriteString(RenderSplit(r.Split))
	}
	return b.String()
}

func fieldLine(label, value string, confirmed bool, candidates []model.MatchCandidate) string {
	switch {
	case value == "":
		return fmt.Sprintf("  %-10s %s\n", label, SubtleStyle.Render("(not found)"))
	case confirmed:
		return fmt.Sprintf("  %-10s %s %s\n", label, value, SuccessStyle.Render(SuccessIcon))
	default:
		return fmt.Sprintf("  %-10s %s %s\n             %s\n", label, value,
			WarningStyle.Render("needs review"),
			SubtleStyle.Render(report.FormatCandidates(candidates)))
	}
}

// RenderSplit lists the suggested segments of a file.
func RenderSplit(a segment.Analysis) string {
	rows := make([][]string, 0, len(a.Segments))
	for i := range a.Segments {
		s := &a.Segments[i]
		rows = append(rows, []string{
			segment.PageRange(s.StartPage, s.EndPage),
			s.DocumentType,
			s.CustomerName,
			strconv.Itoa(s.Confidence),
			s.SuggestedFileName,
		})
	}
	header := WarningStyle.Render(SplitIcon + " " + a.SplitReason)
	return header + "\n" + RenderTable([]string{"Pages", "Document", "Customer", "Conf", "File"}, rows) + "\n"
}

// RenderBatchSummary boxes the counts of a batch run.
func RenderBatchSummary(results []*engine.Result, failed int, elapsed time.Duration) string {
	review, split := 0, 0
	for _, r := range results {
		if r.NeedsReview() {
			review++
		}
		if r.Split.ShouldSplit {
			split++
		}
	}

	summary := fmt.Sprintf("  • Extracted: %d\n", len(results)) +
		fmt.Sprintf("  • Needs review: %d\n", review) +
		fmt.Sprintf("  • Should split: %d\n", split)
	if failed > 0 {
		summary += ErrorStyle.Render(fmt.Sprintf("  • Failed: %d", failed)) + "\n"
	}
	summary += fmt.Sprintf("  • Time taken: %s", elapsed.Round(time.Millisecond))

	return RenderBox("Extraction Complete", summary)
}

// RenderMasters lists master entries as a table.
func RenderMasters(entries []model.MasterEntry) string {
	rows := make([][]string, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		dup := ""
		if e.IsDuplicate {
			dup = WarningIcon
		}
		rows = append(rows, []string{
			e.ID,
			e.Name,
			e.ShortName,
			strings.Join(e.Aliases, ", "),
			dup,
		})
	}
	return RenderTable([]string{"ID", "Name", "Short", "Aliases", "Dup"}, rows)
}
