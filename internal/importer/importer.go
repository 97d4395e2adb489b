// Package importer reads flashcards from CSV and Excel spreadsheets.
//
// Each data row yields one card. Columns hold, in the default layout, the
// front, back, hint and tags of the card; tags are separated by commas,
// semicolons or pipes. Rows with an empty front or back are reported and
// skipped, and a file never partially fails: every readable row is returned.
package importer

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported import format")

// Config describes the spreadsheet layout.
type Config struct {
	SheetName    string // Excel sheet; empty means the first sheet
	StartRow     int    // First data row, 1-based
	FrontColumn  string
	BackColumn   string
	HintColumn   string // Optional
	TagsColumn   string // Optional
	MaxCardCount int    // Zero means no limit
}

// DefaultConfig reads front, back, hint and tags from columns A to D and
// skips one header row.
func DefaultConfig() Config {
	return Config{
		StartRow:    2,
		FrontColumn: "A",
		BackColumn:  "B",
		HintColumn:  "C",
		TagsColumn:  "D",
	}
}

// RowError describes a row that could not be turned into a card.
type RowError struct {
	Row     int
	Message string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// Result holds the cards read from a file.
type Result struct {
	Contents  []json.RawMessage
	Processed int
	Skipped   int
	Errors    []RowError
}

type columns struct {
	front, back, hint, tags int
}

func (c Config) columns() (columns, error) {
	var cols columns
	var err error
	if cols.front, err = columnIndex(c.FrontColumn, true); err != nil {
		return cols, fmt.Errorf("front column: %w", err)
	}
	if cols.back, err = columnIndex(c.BackColumn, true); err != nil {
		return cols, fmt.Errorf("back column: %w", err)
	}
	if cols.hint, err = columnIndex(c.HintColumn, false); err != nil {
		return cols, fmt.Errorf("hint column: %w", err)
	}
	if cols.tags, err = columnIndex(c.TagsColumn, false); err != nil {
		return cols, fmt.Errorf("tags column: %w", err)
	}
	return cols, nil
}

// columnIndex converts a column name such as "B" into a 0-based index, or -1
// for an empty optional column.
func columnIndex(name string, required bool) (int, error) {
	if name == "" {
		if required {
			return -1, errors.New("column is required")
		}
		return -1, nil
	}
	n, err := excelize.ColumnNameToNumber(name)
	if err != nil {
		return -1, err
	}
	return n - 1, nil
}

// ReadFile imports path, choosing the reader from the file extension.
func ReadFile(path string, cfg Config) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f, cfg)
	case ".xlsx", ".xlsm":
		return ReadXLSX(f, cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadCSV imports comma-separated rows from r.
func ReadCSV(r io.Reader, cfg Config) (*Result, error) {
	cols, err := cfg.columns()
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	result := &Result{}
	rowNum := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rowNum++
		if rowNum < cfg.StartRow {
			continue
		}
		if !result.add(row, rowNum, cols, cfg.MaxCardCount) {
			break
		}
	}
	return result, nil
}

// ReadXLSX imports rows from an Excel workbook read from r.
func ReadXLSX(r io.Reader, cfg Config) (*Result, error) {
	cols, err := cfg.columns()
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := cfg.SheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	result := &Result{}
	for i, row := range rows {
		rowNum := i + 1
		if rowNum < cfg.StartRow {
			continue
		}
		if !result.add(row, rowNum, cols, cfg.MaxCardCount) {
			break
		}
	}
	return result, nil
}

// add converts row into card content. It returns false once max cards have
// been collected.
func (res *Result) add(row []string, rowNum int, cols columns, max int) bool {
	if max > 0 && len(res.Contents) >= max {
		return false
	}
	if isBlank(row) {
		return true
	}
	res.Processed++

	content := domain.CardContent{
		Front: cell(row, cols.front),
		Back:  cell(row, cols.back),
		Hint:  cell(row, cols.hint),
		Tags:  splitTags(cell(row, cols.tags)),
	}
	switch {
	case content.Front == "":
		res.skip(rowNum, "front is empty")
		return true
	case content.Back == "":
		res.skip(rowNum, "back is empty")
		return true
	}

	raw, err := json.Marshal(content)
	if err != nil {
		res.skip(rowNum, err.Error())
		return true
	}
	res.Contents = append(res.Contents, raw)
	return true
}

func (res *Result) skip(rowNum int, msg string) {
	res.Skipped++
	res.Errors = append(res.Errors, RowError{Row: rowNum, Message: msg})
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func splitTags(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})
	tags := make([]string, 0, len(fields))
	for _, f := range fields {
		if t := strings.TrimSpace(f); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}
