// Package masterio reads and writes master lists as CSV or XLSX spreadsheets.
//
// The first row is a header. Columns are matched by name in English or Japanese
// (id/ID, name/名称, short_name/略称, furigana/フリガナ, office_id/事業所ID,
// care_manager_id/ケアマネID, aliases/別名, keywords/キーワード). Aliases and
// keywords hold several values separated by ";" or "、".
package masterio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/docmeta/internal/model"
	"github.com/Veraticus/docmeta/internal/textnorm"
)

// Import errors.
var (
	ErrMissingNameColumn = errors.New("header has no name column")
	ErrUnsupportedFormat = errors.New("unsupported master file format")
	ErrInvalidRow        = errors.New("invalid master row")
)

type column int

const (
	colID column = iota
	colName
	colShortName
	colFurigana
	colOfficeID
	colCareManagerID
	colAliases
	colKeywords
)

// Header is the column order written by WriteXLSX and WriteCSV.
var Header = []string{"id", "name", "short_name", "furigana", "office_id", "care_manager_id", "aliases", "keywords"}

var headerAliases = map[string]column{
	"id":              colID,
	"name":            colName,
	"名称":              colName,
	"氏名":              colName,
	"shortname":       colShortName,
	"short_name":      colShortName,
	"略称":              colShortName,
	"furigana":        colFurigana,
	"フリガナ":            colFurigana,
	"ふりがな":            colFurigana,
	"officeid":        colOfficeID,
	"office_id":       colOfficeID,
	"事業所id":           colOfficeID,
	"caremanagerid":   colCareManagerID,
	"care_manager_id": colCareManagerID,
	"ケアマネid":          colCareManagerID,
	"aliases":         colAliases,
	"別名":              colAliases,
	"keywords":        colKeywords,
	"キーワード":           colKeywords,
}

var listSplitter = strings.NewReplacer("、", ";", "，", ";", ",", ";")

// Result is the outcome of an import.
type Result struct {
	Entries []model.MasterEntry
	// GeneratedIDs lists the rows (1-based, header included) that had no id.
	GeneratedIDs []int
	// Skipped counts blank rows.
	Skipped int
}

// ReadFile imports a .csv or .xlsx file. For workbooks the first sheet is read.
func ReadFile(path string) (*Result, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("failed to open master file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f)
	case ".xlsx", ".xlsm":
		return ReadXLSX(f, "")
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadCSV imports a UTF-8 CSV stream. A leading byte order mark is ignored.
func ReadCSV(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return parseRows(rows)
}

// ReadXLSX imports one sheet of a workbook. An empty sheet name reads the first sheet.
func ReadXLSX(r io.Reader, sheet string) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) (*Result, error) {
	if len(rows) == 0 {
		return &Result{Entries: []model.MasterEntry{}}, nil
	}

	columns := mapHeader(rows[0])
	if _, ok := columns[colName]; !ok {
		return nil, ErrMissingNameColumn
	}

	res := &Result{Entries: make([]model.MasterEntry, 0, len(rows)-1)}
	for i, row := range rows[1:] {
		rowNum := i + 2
		if blank(row) {
			res.Skipped++
			continue
		}

		cell := func(c column) string {
			idx, ok := columns[c]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		entry := model.MasterEntry{
			ID:            cell(colID),
			Name:          textnorm.DisplayForm(cell(colName)),
			ShortName:     textnorm.DisplayForm(cell(colShortName)),
			Furigana:      cell(colFurigana),
			OfficeID:      cell(colOfficeID),
			CareManagerID: cell(colCareManagerID),
			Aliases:       splitList(cell(colAliases)),
			Keywords:      splitList(cell(colKeywords)),
		}
		if entry.ID == "" {
			entry.ID = uuid.NewString()
			res.GeneratedIDs = append(res.GeneratedIDs, rowNum)
		}
		if err := entry.Validate(); err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrInvalidRow, rowNum, err)
		}
		res.Entries = append(res.Entries, entry)
	}

	model.MarkDuplicates(res.Entries)
	return res, nil
}

func mapHeader(header []string) map[column]int {
	columns := make(map[column]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		key = textnorm.DisplayForm(key)
		key = strings.ToLower(strings.ReplaceAll(key, " ", ""))
		if c, ok := headerAliases[key]; ok {
			if _, seen := columns[c]; !seen {
				columns[c] = i
			}
		}
	}
	return columns
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(listSplitter.Replace(s), ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func record(e *model.MasterEntry) []string {
	return []string{
		e.ID,
		e.Name,
		e.ShortName,
		e.Furigana,
		e.OfficeID,
		e.CareManagerID,
		strings.Join(e.Aliases, ";"),
		strings.Join(e.Keywords, ";"),
	}
}

// WriteCSV exports entries with the Header column order.
func WriteCSV(w io.Writer, entries []model.MasterEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i := range entries {
		if err := cw.Write(record(&entries[i])); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX exports entries to a single-sheet workbook named after the kind.
func WriteXLSX(w io.Writer, kind model.EntityKind, entries []model.MasterEntry) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	sheet := string(kind)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, Header)
	for i := range entries {
		rows = append(rows, record(&entries[i]))
	}
	for r, values := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", r+1, err)
		}
		row := make([]any, len(values))
		for i, v := range values {
			row[i] = v
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+1, err)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 14)
	_ = f.SetColWidth(sheet, "B", "B", 32)
	_ = f.SetColWidth(sheet, "G", "H", 40)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
