package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/docmeta/internal/cli"
	"github.com/Veraticus/docmeta/internal/common"
	"github.com/Veraticus/docmeta/internal/config"
	"github.com/Veraticus/docmeta/internal/engine"
	"github.com/Veraticus/docmeta/internal/report"
	"github.com/Veraticus/docmeta/internal/sheets"
	"github.com/Veraticus/docmeta/internal/storage"
)

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [FILE|-]",
		Short: "Extract metadata from OCR output",
		Long: `Extract document type, office, customer and date from OCR output and
suggest a file name and page splits.

The input is JSON: one {"documentId", "fileName", "pages": [{"pageNumber", "text"}]}
object or an array of them. Use - or no argument to read stdin.

Each result is saved in the database so "docmeta review" can list what needs a
human decision.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runExtract,
	}

	cmd.Flags().Bool("json", false, "Print results as JSON")
	cmd.Flags().String("xlsx", "", "Also write a review workbook to this path")
	cmd.Flags().Bool("sheets", false, "Also push review rows to Google Sheets")
	cmd.Flags().Bool("no-save", false, "Do not store results in the database")
	cmd.Flags().Int("workers", 0, "Pages matched in parallel (default from config)")
	cmd.Flags().String("date", "", "Reference date for date validation and selection (YYYY-MM-DD)")

	_ = viper.BindPFlag("extraction.workers", cmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("extraction.reference_date", cmd.Flags().Lookup("date"))

	return cmd
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	input := "-"
	if len(args) == 1 {
		input = args[0]
	}
	docs, err := readDocuments(input)
	if err != nil {
		return err
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

	writers, err := resultWriters(cmd)
	if err != nil {
		return err
	}

	noSave, _ := cmd.Flags().GetBool("no-save")
	asJSON, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	start := time.Now()
	progress := cli.NewProgress(cmd.ErrOrStderr(), len(docs), "Extracting documents...")
	results, batchErr := eng.ExtractBatch(ctx, docs, store, func(_ engine.Document, result *engine.Result, err error) {
		progress.Done(err)
		if err != nil || noSave {
			return
		}
		if saveErr := saveRecord(cmd, store, result); saveErr != nil {
			common.LogError(saveErr, "Failed to save record", common.Fields{"document_id": result.DocumentID})
		}
	})
	progress.Finish()
	if batchErr != nil && len(results) == 0 {
		return batchErr
	}

	for _, w := range writers {
		if err := w.WriteResults(ctx, results); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
	}

	if asJSON {
		return writeJSON(out, results)
	}
	for _, r := range results {
		_, _ = fmt.Fprintln(out, cli.RenderResult(r))
	}
	_, _ = fmt.Fprintln(out, cli.RenderBatchSummary(results, progress.Failed(), time.Since(start)))
	return nil
}

func resultWriters(cmd *cobra.Command) ([]engine.ResultWriter, error) {
	var writers []engine.ResultWriter

	if path, _ := cmd.Flags().GetString("xlsx"); path != "" {
		writers = append(writers, report.NewXLSXWriter(config.ExpandPath(path), slog.Default()))
	}

	if push, _ := cmd.Flags().GetBool("sheets"); push {
		sheetsConfig, err := config.LoadSheetsConfig(viper.GetViper())
		if err != nil {
			return nil, fmt.Errorf("failed to load sheets configuration: %w", err)
		}
		w, err := sheets.NewWriter(cmd.Context(), *sheetsConfig, slog.Default())
		if err != nil {
			return nil, fmt.Errorf("failed to create sheets writer: %w", err)
		}
		writers = append(writers, w)
	}
	return writers, nil
}

func saveRecord(cmd *cobra.Command, store *storage.SQLiteStorage, result *engine.Result) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fields := result.Fields()
	return store.SaveRecord(cmd.Context(), &storage.Record{
		DocumentID:        result.DocumentID,
		FileName:          result.FileName,
		SuggestedFileName: result.SuggestedName.FileName,
		TokensHash:        result.TokensHash,
		DocumentType:      fields.DocumentType,
		CustomerID:        fields.CustomerID,
		CustomerName:      fields.CustomerName,
		OfficeName:        fields.OfficeName,
		NeedsReview:       result.NeedsReview(),
		Payload:           payload,
	})
}
