package services

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Cell is one spreadsheet value. Numeric is set when the workbook stored a
// number, in which case Text holds its raw representation.
type Cell struct {
	Text    string
	Numeric bool
}

func (c Cell) Blank() bool {
	return strings.TrimSpace(c.Text) == ""
}

// SheetRow is a data row with its 1-based position in the sheet.
type SheetRow struct {
	Index int
	Cells []Cell
}

// Col returns the cell at position i, or a blank cell past the end of a
// short row.
func (r SheetRow) Col(i int) Cell {
	if i < 0 || i >= len(r.Cells) {
		return Cell{}
	}
	return r.Cells[i]
}

// ReadXLSX returns the non-empty rows of sheet starting at startRow (1-based).
// An empty sheet name selects the first sheet.
func ReadXLSX(r io.Reader, sheet string, startRow int) ([]SheetRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found (available: %s)", sheet, strings.Join(f.GetSheetList(), ", "))
	}

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	var rows []SheetRow
	for i, values := range raw {
		rowNum := i + 1
		if rowNum < startRow || isEmptyRow(values) {
			continue
		}

		cells := make([]Cell, len(values))
		for j, v := range values {
			cells[j] = Cell{Text: v}
			if strings.TrimSpace(v) == "" {
				continue
			}
			name, err := excelize.CoordinatesToCellName(j+1, rowNum)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(sheet, name)
			if err != nil {
				return nil, fmt.Errorf("failed to read cell %s: %w", name, err)
			}
			cells[j].Numeric = isNumericCell(typ, v)
		}
		rows = append(rows, SheetRow{Index: rowNum, Cells: cells})
	}

	return rows, nil
}

func isNumericCell(typ excelize.CellType, value string) bool {
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeBool, excelize.CellTypeError:
		return false
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	return err == nil
}

// ReadCSV reads a CSV export. Both comma and semicolon delimiters are
// accepted; every cell is treated as text.
func ReadCSV(r io.Reader, startRow int) ([]SheetRow, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(4096)

	reader := csv.NewReader(br)
	reader.Comma = detectDelimiter(head)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows []SheetRow
	rowNum := 0
	for {
		values, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading row %d: %w", rowNum+1, err)
		}
		rowNum++

		if rowNum < startRow || isEmptyRow(values) {
			continue
		}
		cells := make([]Cell, len(values))
		for j, v := range values {
			cells[j] = Cell{Text: v}
		}
		rows = append(rows, SheetRow{Index: rowNum, Cells: cells})
	}

	if rowNum == 0 {
		return nil, fmt.Errorf("empty file")
	}
	return rows, nil
}

func detectDelimiter(head []byte) rune {
	line := head
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		line = head[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

// ParseCurrency converts a Brazilian formatted amount ("R$ 1.234,56") to a
// decimal. Dots are thousand separators and the comma is the decimal mark.
// Blank values and a bare dash ("R$ -") are zero.
func ParseCurrency(s string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer(
		"R$", "",
		`"`, "",
		"'", "",
		" ", "",
		"\u00a0", "",
		"\t", "",
	).Replace(s)

	if cleaned == "" || cleaned == "-" {
		return decimal.Zero, nil
	}

	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount: %q", s)
	}
	return amount, nil
}

// parseMoneyCell reads numbers stored as numbers directly and runs text
// through ParseCurrency.
func parseMoneyCell(c Cell) (decimal.Decimal, error) {
	if c.Numeric {
		amount, err := decimal.NewFromString(strings.TrimSpace(c.Text))
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid amount: %q", c.Text)
		}
		return amount.Round(2), nil
	}
	return ParseCurrency(c.Text)
}

// parseQuantity accepts whole numbers only; blank is zero.
func parseQuantity(c Cell) (int, error) {
	text := strings.TrimSpace(c.Text)
	if text == "" {
		return 0, nil
	}
	if !c.Numeric {
		text = strings.ReplaceAll(text, ",", ".")
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid quantity: %q", c.Text)
	}
	return int(f), nil
}

var errBlankDate = errors.New("blank date")

var shortDateLayouts = []string{
	"2.1.2006",
	"2/1/2006",
}

var fullDateLayouts = []string{
	"2006-01-02",
	"2/1/2006",
	"2.1.2006",
	"2-1-2006",
	"02/01/06",
}

// ParseSheetDate reads a sales date. Accepted forms are DD.MM and DD/MM
// (taking year), full dates, and spreadsheet serial numbers counted from
// 1899-12-30.
func ParseSheetDate(c Cell, year int) (time.Time, error) {
	text := strings.TrimSpace(c.Text)
	if text == "" {
		return time.Time{}, errBlankDate
	}

	if c.Numeric {
		return numericDate(text, year)
	}

	if t, ok := shortDate(text, year); ok {
		return t, nil
	}

	for _, layout := range fullDateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, nil
		}
	}

	// a serial typed as text; "31.02" is a bad short date, not a serial
	if _, err := strconv.Atoi(text); err == nil {
		return serialDate(text)
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %q", text)
}

// shortDate parses a day.month or day/month value in year.
func shortDate(text string, year int) (time.Time, bool) {
	seps := strings.Count(text, ".") + strings.Count(text, "/")
	sep := strings.IndexAny(text, "./")
	if sep < 0 || seps != 1 {
		return time.Time{}, false
	}
	withYear := text + string(text[sep]) + strconv.Itoa(year)
	for _, layout := range shortDateLayouts {
		if t, err := time.Parse(layout, withYear); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// minSerialDate is 1910-01-01. Fractional numbers below it are day.month
// values the workbook stored as numbers, so 5.11 is 05.11 and 5.1 is 05.10.
const minSerialDate = 3653

func numericDate(text string, year int) (time.Time, error) {
	n, err := strconv.ParseFloat(text, 64)
	if err != nil || n >= minSerialDate || n == math.Trunc(n) {
		return serialDate(text)
	}
	if t, ok := shortDate(strconv.FormatFloat(n, 'f', 2, 64), year); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid day.month date: %q", text)
}

func serialDate(text string) (time.Time, error) {
	serial, err := strconv.ParseFloat(text, 64)
	if err != nil || serial < 1 {
		return time.Time{}, fmt.Errorf("invalid serial date: %q", text)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid serial date: %q", text)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// NormalizeSKU upper-cases a SKU, drops quote characters and collapses
// whitespace. Codes under prefix are stored hyphenated in the catalog, so
// "desk pto 20x20" becomes "DESK-PTO-20X20".
func NormalizeSKU(s, prefix string) string {
	s = strings.ToUpper(s)
	s = strings.NewReplacer(`"`, "", "'", "").Replace(s)

	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return ""
	}
	if prefix != "" && len(tokens) > 1 && tokens[0] == strings.ToUpper(prefix) {
		return strings.Join(tokens, "-")
	}
	return strings.Join(tokens, " ")
}

// NormalizeClientName maps a reported client name to its ledger name.
// Alias keys are matched case-insensitively; a blank name becomes fallback.
func NormalizeClientName(s string, aliases map[string]string, fallback string) string {
	name := strings.Join(strings.Fields(s), " ")
	if name == "" {
		return fallback
	}
	for alias, canonical := range aliases {
		if strings.EqualFold(alias, name) {
			return canonical
		}
	}
	return name
}

// isEmptyRow checks if all fields in a row are empty
func isEmptyRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
