package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/docmeta/internal/cli"
	"github.com/Veraticus/docmeta/internal/common"
	"github.com/Veraticus/docmeta/internal/config"
	"github.com/Veraticus/docmeta/internal/engine"
	"github.com/Veraticus/docmeta/internal/pdfsplit"
	"github.com/Veraticus/docmeta/internal/segment"
)

func splitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Cut a scanned PDF into the suggested segments",
		Long: `Extract the OCR output of one PDF and, when the pages hold more than one
document, write each segment to its own file named by its suggested file name.
Existing files are never overwritten.`,
		Args: cobra.NoArgs,
		RunE: runSplit,
	}
	cmd.Flags().String("pdf", "", "Scanned PDF to cut")
	cmd.Flags().String("pages", "-", "OCR output of the PDF as a document JSON object (- for stdin)")
	cmd.Flags().String("out", ".", "Directory for the segment files")
	cmd.Flags().Bool("dry-run", false, "Show the segments without writing files")
	cmd.Flags().Bool("json", false, "Print the split summary as JSON")
	_ = cmd.MarkFlagRequired("pdf")
	return cmd
}

func runSplit(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	pagesPath, _ := cmd.Flags().GetString("pages")
	docs, err := readDocuments(pagesPath)
	if err != nil {
		return err
	}
	if len(docs) != 1 {
		return common.NewUserError(fmt.Sprintf("split takes the OCR output of exactly one file, got %d", len(docs)), nil)
	}

	cfg, err := config.LoadEngineConfig(viper.GetViper())
	if err != nil {
		return err
	}
	eng, err := engine.New(cfg, slog.Default())
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	masters, err := store.LoadMasters(ctx)
	if err != nil {
		return err
	}
	result, err := eng.Extract(ctx, docs[0], masters)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		if err := writeJSON(out, segment.Summarize(result.Split)); err != nil {
			return err
		}
	} else if !result.Split.ShouldSplit {
		_, _ = fmt.Fprintln(out, cli.FormatInfo(segment.NoSplitReason))
	} else {
		_, _ = fmt.Fprint(out, cli.RenderSplit(result.Split))
	}
	if !result.Split.ShouldSplit {
		return nil
	}

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		return nil
	}

	pdfPath, _ := cmd.Flags().GetString("pdf")
	outDir, _ := cmd.Flags().GetString("out")
	outputs, err := pdfsplit.New(slog.Default()).Split(ctx, config.ExpandPath(pdfPath), config.ExpandPath(outDir), result.Split.Segments)
	if err != nil {
		return err
	}
	for _, o := range outputs {
		_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("%s → %s", segment.PageRange(o.StartPage, o.EndPage), o.Path)))
	}
	return nil
}
