package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/docmeta/internal/cli"
	"github.com/Veraticus/docmeta/internal/config"
	"github.com/Veraticus/docmeta/internal/engine"
	"github.com/Veraticus/docmeta/internal/group"
	"github.com/Veraticus/docmeta/internal/report"
	"github.com/Veraticus/docmeta/internal/sheets"
)

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "List stored documents that need a human decision",
		Long: `List stored extraction results where a document type, office or customer
could not be decided automatically. With --xlsx or --sheets the same rows are
written to a review workbook or the shared review sheet.

With --group-by, every stored document is instead summarized per customer,
office, document-type or care-manager with its count, latest processing time
and most recent files.`,
		Args: cobra.NoArgs,
		RunE: runReview,
	}
	cmd.Flags().String("xlsx", "", "Write the review workbook to this path")
	cmd.Flags().Bool("sheets", false, "Push the review rows to Google Sheets")
	cmd.Flags().String("group-by", "", "Summarize all documents by customer, office, document-type or care-manager")
	return cmd
}

func runReview(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if by, _ := cmd.Flags().GetString("group-by"); by != "" {
		kind, err := group.ParseKind(by)
		if err != nil {
			return err
		}
		groups, err := store.ListGroups(ctx, kind)
		if err != nil {
			return err
		}
		printGroups(cmd.OutOrStdout(), kind, groups)
		return nil
	}

	records, err := store.ListReviewRecords(ctx)
	if err != nil {
		return err
	}

	results := make([]*engine.Result, 0, len(records))
	for _, rec := range records {
		var r engine.Result
		if err := json.Unmarshal(rec.Payload, &r); err != nil {
			return fmt.Errorf("failed to decode record %s: %w", rec.DocumentID, err)
		}
		results = append(results, &r)
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		_, _ = fmt.Fprintln(out, cli.FormatSuccess("Nothing needs review"))
		return nil
	}

	if path, _ := cmd.Flags().GetString("xlsx"); path != "" {
		if err := report.NewXLSXWriter(config.ExpandPath(path), nil).WriteResults(ctx, results); err != nil {
			return err
		}
	}
	if push, _ := cmd.Flags().GetBool("sheets"); push {
		sheetsConfig, err := config.LoadSheetsConfig(viper.GetViper())
		if err != nil {
			return fmt.Errorf("failed to load sheets configuration: %w", err)
		}
		w, err := sheets.NewWriter(ctx, *sheetsConfig, nil)
		if err != nil {
			return err
		}
		if err := w.WriteResults(ctx, results); err != nil {
			return err
		}
	}

	rows := make([][]string, 0, len(results))
	for _, r := range report.DocumentRows(results) {
		rows = append(rows, []string{r.DocumentID, r.DocumentType, r.OfficeName, r.CustomerName, r.CustomerCandidates})
	}
	_, _ = fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%d documents need review", len(results))))
	_, _ = fmt.Fprintln(out, cli.RenderTable([]string{"Document", "Type", "Office", "Customer", "Candidates"}, rows))
	return nil
}

func printGroups(out io.Writer, kind group.Kind, groups []group.Group) {
	if len(groups) == 0 {
		_, _ = fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("No documents grouped by %s", kind)))
		return
	}
	_, _ = fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%d %s groups", len(groups), kind)))
	_, _ = fmt.Fprintln(out, cli.RenderTable([]string{"Group", "Documents", "Latest", "Recent files"}, groupRows(groups)))
}

func groupRows(groups []group.Group) [][]string {
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		files := make([]string, 0, len(g.LatestDocs))
		for _, d := range g.LatestDocs {
			files = append(files, d.FileName)
		}
		rows = append(rows, []string{
			g.DisplayName,
			strconv.Itoa(g.Count),
			g.LatestAt.Local().Format(time.DateTime),
			strings.Join(files, ", "),
		})
	}
	return rows
}
