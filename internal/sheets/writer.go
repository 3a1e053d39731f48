package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/docmeta/internal/common"
	"github.com/Veraticus/docmeta/internal/engine"
	"github.com/Veraticus/docmeta/internal/report"
)

// Writer pushes review rows to a Google Sheets spreadsheet. It implements
// engine.ResultWriter.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a new Google Sheets review writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	ts, err := tokenSource(ctx, config, logger)
	if err != nil {
		return nil, err
	}
	service, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, ts)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return &Writer{
		config:  config,
		service: service,
		logger:  logger,
	}, nil
}

// WriteResults replaces the review sheet with one row per result followed by
// the suggested segments.
func (w *Writer) WriteResults(ctx context.Context, results []*engine.Result) error {
	w.logger.Info("starting review sheet update", "documents", len(results))

	retryOpts := common.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	var spreadsheetID string
	var sheetID int64
	err := common.WithRetry(ctx, func() error {
		var err error
		spreadsheetID, sheetID, err = w.getOrCreateSpreadsheet(ctx)
		return classify(err)
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	err = common.WithRetry(ctx, func() error {
		return classify(w.clearSheet(ctx, spreadsheetID))
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to clear sheet: %w", err)
	}

	values := prepareReviewData(results)

	err = common.WithRetry(ctx, func() error {
		return classify(w.writeData(ctx, spreadsheetID, values))
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return classify(w.applyFormatting(ctx, spreadsheetID, sheetID, len(report.DocumentHeader)))
		}, retryOpts)
		if err != nil {
			// Formatting is cosmetic; the data is already written.
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("review sheet updated",
		"spreadsheet_id", spreadsheetID,
		"rows_written", len(values))
	return nil
}

// classify marks client errors other than rate limiting as permanent.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
		}
		if apiErr.Code >= 400 && apiErr.Code < 500 {
			return &common.RetryableError{Err: err, Retryable: false}
		}
	}
	return err
}

// getOrCreateSpreadsheet returns the spreadsheet id and the id of the review tab,
// creating either when missing.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, int64, error) {
	if w.config.SpreadsheetID == "" {
		spreadsheet := &sheets.Spreadsheet{
			Properties: &sheets.SpreadsheetProperties{
				Title:    w.config.SpreadsheetName,
				TimeZone: w.config.TimeZone,
			},
			Sheets: []*sheets.Sheet{
				{Properties: &sheets.SheetProperties{Title: w.config.SheetTitle}},
			},
		}

		created, err := w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
		if err != nil {
			return "", 0, fmt.Errorf("unable to create spreadsheet: %w", err)
		}
		w.logger.Info("created new spreadsheet",
			"id", created.SpreadsheetId,
			"url", created.SpreadsheetUrl)

		// Later calls in this run reuse the new spreadsheet.
		w.config.SpreadsheetID = created.SpreadsheetId
		return created.SpreadsheetId, created.Sheets[0].Properties.SheetId, nil
	}

	existing, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
	if err != nil {
		return "", 0, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
	}
	if id, ok := findSheet(existing, w.config.SheetTitle); ok {
		return w.config.SpreadsheetID, id, nil
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(w.config.SpreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: w.config.SheetTitle}}},
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", 0, fmt.Errorf("unable to add sheet %q: %w", w.config.SheetTitle, err)
	}
	return w.config.SpreadsheetID, resp.Replies[0].AddSheet.Properties.SheetId, nil
}

func findSheet(s *sheets.Spreadsheet, title string) (int64, bool) {
	for _, sh := range s.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return sh.Properties.SheetId, true
		}
	}
	return 0, false
}

func (w *Writer) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, w.config.SheetTitle+"!A:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// prepareReviewData lays out the document table and, when present, the
// segment table below it.
func prepareReviewData(results []*engine.Result) [][]any {
	docs := report.DocumentRows(results)
	segments := report.SegmentRows(results)

	values := make([][]any, 0, len(docs)+len(segments)+4)
	values = append(values, toRow(report.DocumentHeader))
	for _, r := range docs {
		values = append(values, r.Values())
	}

	if len(segments) > 0 {
		values = append(values,
			[]any{},
			[]any{"Suggested Splits"},
			toRow(report.SegmentHeader),
		)
		for _, r := range segments {
			values = append(values, r.Values())
		}
	}
	return values
}

func toRow(header []string) []any {
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	return row
}

// writeData writes the values in batches starting at A1.
func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))
		batch := values[i:end]

		rangeStr := fmt.Sprintf("%s!A%d", w.config.SheetTitle, i+1)
		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, &sheets.ValueRange{Values: batch}).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "start_row", i+1, "rows", len(batch))
	}
	return nil
}

// applyFormatting bolds and freezes the header row and sizes the columns.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, sheetID int64, columns int) error {
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   int64(columns),
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   int64(columns),
				},
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        sheetID,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}

func newWriterWithService(service *sheets.Service, config Config, logger *slog.Logger) *Writer {
	return &Writer{service: service, config: config, logger: logger}
}
