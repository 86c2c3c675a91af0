// Package spreadsheet reads vendor price sheets, reference product lists and
// mapping tables from xlsx and csv files.
package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	ErrEmptySheet        = errors.New("spreadsheet has no header row")
	ErrInvalidSheet      = errors.New("spreadsheet could not be parsed")
)

// Sheet is a spreadsheet with row 1 as headers
type Sheet struct {
	Name    string
	Headers []string
	Rows    []Row
}

// Row maps header name to cell text. Number is the 1-based spreadsheet row.
type Row struct {
	Number int
	Cells  map[string]string
}

// Get returns the trimmed cell under header
func (r Row) Get(header string) string {
	if header == "" {
		return ""
	}
	return strings.TrimSpace(r.Cells[header])
}

// Sample returns up to n row cell maps for column identification
func (s *Sheet) Sample(n int) []map[string]string {
	if n > len(s.Rows) {
		n = len(s.Rows)
	}
	out := make([]map[string]string, 0, n)
	for _, r := range s.Rows[:n] {
		out = append(out, r.Cells)
	}
	return out
}

// ReadFile reads the first sheet of an xlsx file or a csv file. name is the
// original upload name and selects the format; path is where it is stored.
func ReadFile(name, path string) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()
	return Read(name, f)
}

// Read parses a spreadsheet from r, choosing the format by the extension of name
func Read(name string, r io.Reader) (*Sheet, error) {
	var records [][]string
	var err error

	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		records, err = readXLSX(r)
	case ".csv":
		records, err = readCSV(r, ',')
	case ".tsv":
		records, err = readCSV(r, '\t')
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	if err != nil {
		if errors.Is(err, ErrEmptySheet) {
			return nil, fmt.Errorf("%w: %s", err, name)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSheet, name, err)
	}

	return buildSheet(name, records)
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}
	return f.GetRows(sheets[0])
}

func readCSV(r io.Reader, sep rune) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

// buildSheet turns raw records into a Sheet. Blank headers become "Column N"
// and repeated headers get a numeric suffix so every header is unique.
func buildSheet(name string, records [][]string) (*Sheet, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySheet, name)
	}

	raw := records[0]
	if allBlank(raw) {
		return nil, fmt.Errorf("%w: %s", ErrEmptySheet, name)
	}

	headers := make([]string, len(raw))
	seen := make(map[string]int)
	for i, h := range raw {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}
		seen[h]++
		if n := seen[h]; n > 1 {
			h = fmt.Sprintf("%s (%d)", h, n)
		}
		headers[i] = h
	}

	sheet := &Sheet{Name: name, Headers: headers}
	for i, rec := range records[1:] {
		if allBlank(rec) {
			continue
		}
		cells := make(map[string]string, len(headers))
		for j, h := range headers {
			if j < len(rec) {
				cells[h] = rec[j]
			} else {
				cells[h] = ""
			}
		}
		sheet.Rows = append(sheet.Rows, Row{Number: i + 2, Cells: cells})
	}

	return sheet, nil
}

func allBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
