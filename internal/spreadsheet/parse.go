package spreadsheet

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/garyjia/event-invoice-analyzer/internal/extraction"
	"github.com/garyjia/event-invoice-analyzer/internal/matching"
	"github.com/garyjia/event-invoice-analyzer/internal/models"
	"github.com/xuri/excelize/v2"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/06",
	"01-02-06",
	"1-2-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2-Jan-2006",
	"02-Jan-06",
	"20060102",
}

var (
	currencyCode = regexp.MustCompile(`(?i)^(usd|eur|gbp|cad|aud|nzd|chf|jpy|mxn)\b|\b(usd|eur|gbp|cad|aud|nzd|chf|jpy|mxn)$`)
	plainNumber  = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)$`)
)

// Excel serial dates run from 1900-01-01 (1) to 9999-12-31 (2958465)
const maxExcelSerial = 2958465

// ParsePrice parses a price cell. Currency symbols, a leading or trailing
// ISO currency code, thousands separators and whitespace are ignored; any
// other text makes the cell invalid.
func ParsePrice(cell string) (float64, bool) {
	s := currencyCode.ReplaceAllString(strings.TrimSpace(cell), "")
	cleaned := strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Sc, r) || unicode.IsSpace(r) || r == ',' {
			return -1
		}
		return r
	}, s)
	if !plainNumber.MatchString(cleaned) {
		return 0, false
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseDate parses a date cell in any of the supported layouts or as an Excel serial number
func ParseDate(cell string) (time.Time, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, false
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= 1 && serial <= maxExcelSerial && !strings.Contains(s, "-") {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return truncateDay(t), true
		}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDay(t), true
		}
	}
	return time.Time{}, false
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RowSkip explains why a row was left out of the observations
type RowSkip struct {
	SourceFile string `json:"source_file"`
	Row        int    `json:"row"`
	Reason     string `json:"reason"`
}

// Skip reasons
const (
	SkipMissingProduct = "missing product name"
	SkipInvalidPrice   = "invalid price"
)

// ObservationResult is the outcome of reading one vendor sheet
type ObservationResult struct {
	Observations []models.PriceObservation
	Skipped      []RowSkip
	// DefaultedDates counts rows whose date was missing or unparseable and set to today
	DefaultedDates int
}

// Observations converts the rows of a vendor sheet into price observations.
// Rows without a product name or a numeric price are skipped; rows with a
// missing or unparseable date are dated today.
func Observations(sheet *Sheet, cols extraction.Columns, sourceFile string, now time.Time) ObservationResult {
	today := truncateDay(now)
	var res ObservationResult

	for _, row := range sheet.Rows {
		name := row.Get(cols.Product)
		if name == "" {
			res.Skipped = append(res.Skipped, RowSkip{SourceFile: sourceFile, Row: row.Number, Reason: SkipMissingProduct})
			continue
		}

		price, ok := ParsePrice(row.Get(cols.Price))
		if !ok {
			res.Skipped = append(res.Skipped, RowSkip{SourceFile: sourceFile, Row: row.Number, Reason: SkipInvalidPrice})
			continue
		}

		date, ok := ParseDate(row.Get(cols.Date))
		if !ok {
			date = today
			res.DefaultedDates++
		}

		res.Observations = append(res.Observations, models.PriceObservation{
			ProductName: name,
			UnitPrice:   price,
			Date:        date,
			SourceFile:  sourceFile,
			Row:         row.Number,
		})
	}

	return res
}

// ReferenceProducts returns the non-blank values of the product column in row order.
// Duplicates are kept.
func ReferenceProducts(sheet *Sheet, column string) []string {
	out := make([]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if v := row.Get(column); v != "" {
			out = append(out, v)
		}
	}
	return out
}

var (
	mappingFromKeywords = []string{"invoice", "vendor", "source", "original", "from"}
	mappingToKeywords   = []string{"reference", "canonical", "standard", "master", "mapped", "to"}
)

// MappingColumns picks the invoice-side and reference-side columns of a
// mapping table, falling back to the first two columns
func MappingColumns(headers []string) (from, to string) {
	find := func(keywords []string, exclude string) string {
		for _, kw := range keywords {
			for _, h := range headers {
				if h == exclude {
					continue
				}
				if strings.Contains(strings.ToLower(h), kw) {
					return h
				}
			}
		}
		return ""
	}

	from = find(mappingFromKeywords, "")
	to = find(mappingToKeywords, from)

	if from == "" || to == "" {
		if len(headers) < 2 {
			return "", ""
		}
		return headers[0], headers[1]
	}
	return from, to
}

// ReadMapping builds an explicit mapping from a mapping table sheet.
// Rows with either side blank are skipped; the first row for a name wins.
func ReadMapping(sheet *Sheet) matching.Mapping {
	mapping := make(matching.Mapping)
	from, to := MappingColumns(sheet.Headers)
	if from == "" {
		return mapping
	}

	for _, row := range sheet.Rows {
		mapping.Add(row.Get(from), row.Get(to))
	}
	return mapping
}
