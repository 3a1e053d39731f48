package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/docmeta/internal/engine"
)

// Sheet names used in the workbook.
const (
	DocumentsSheet = "Documents"
	SegmentsSheet  = "Segments"
)

// XLSXWriter writes results to a workbook on disk.
type XLSXWriter struct {
	logger *slog.Logger
	path   string
}

// NewXLSXWriter creates a writer for the workbook at path.
func NewXLSXWriter(path string, logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{path: path, logger: logger}
}

// WriteResults implements engine.ResultWriter.
func (w *XLSXWriter) WriteResults(ctx context.Context, results []*engine.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0o750); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	f, err := os.Create(w.path) //nolint:gosec // path comes from the operator
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := WriteWorkbook(f, results); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}

	w.logger.Info("wrote report", "path", w.path, "documents", len(results))
	return nil
}

// WriteWorkbook writes a Documents sheet and, when any document should be
// split, a Segments sheet.
func WriteWorkbook(out io.Writer, results []*engine.Result) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName(f.GetSheetName(0), DocumentsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	docs := DocumentRows(results)
	docValues := make([][]any, 0, len(docs))
	for _, r := range docs {
		docValues = append(docValues, r.Values())
	}
	if err := writeSheet(f, DocumentsSheet, DocumentHeader, docValues); err != nil {
		return err
	}
	_ = f.SetColWidth(DocumentsSheet, "A", "B", 18)
	_ = f.SetColWidth(DocumentsSheet, "C", "C", 60)
	_ = f.SetColWidth(DocumentsSheet, "K", "K", 40)
	_ = f.SetColWidth(DocumentsSheet, "N", "N", 44)

	segments := SegmentRows(results)
	if len(segments) > 0 {
		if _, err := f.NewSheet(SegmentsSheet); err != nil {
			return fmt.Errorf("failed to add sheet: %w", err)
		}
		segValues := make([][]any, 0, len(segments))
		for _, r := range segments {
			segValues = append(segValues, r.Values())
		}
		if err := writeSheet(f, SegmentsSheet, SegmentHeader, segValues); err != nil {
			return err
		}
		_ = f.SetColWidth(SegmentsSheet, "I", "I", 60)
	}

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any) error {
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(header), 1)
		_ = f.SetCellStyle(sheet, "A1", last, style)
	}

	for i, values := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+2, err)
		}
		row := values
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("failed to freeze %s header: %w", sheet, err)
	}
	return nil
}
