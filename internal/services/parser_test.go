package services

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"R$ 2.291,00", "2291"},
		{"R$ -", "0"},
		{"-R$ 238,00", "-238"},
		{"", "0"},
		{"-", "0"},
		{`"R$ 1.234,56"`, "1234.56"},
		{"R$ 149,90", "149.9"},
		{"1.000.000,01", "1000000.01"},
		{"35", "35"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCurrency(tt.in)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestParseCurrency_Invalid(t *testing.T) {
	_, err := ParseCurrency("R$ abc")
	assert.Error(t, err)
}

func TestParseMoneyCell_NumericBypassesTextRules(t *testing.T) {
	// a dot in a numeric cell is a decimal point, not a thousands separator
	got, err := parseMoneyCell(Cell{Text: "2291.5", Numeric: true})
	require.NoError(t, err)
	assert.Equal(t, "2291.50", got.StringFixed(2))

	got, err = parseMoneyCell(Cell{Text: "2291.5"})
	require.NoError(t, err)
	assert.Equal(t, "22915.00", got.StringFixed(2))
}

func TestParseQuantity(t *testing.T) {
	q, err := parseQuantity(Cell{Text: "3"})
	require.NoError(t, err)
	assert.Equal(t, 3, q)

	q, err = parseQuantity(Cell{Text: "2", Numeric: true})
	require.NoError(t, err)
	assert.Equal(t, 2, q)

	q, err = parseQuantity(Cell{})
	require.NoError(t, err)
	assert.Equal(t, 0, q)

	_, err = parseQuantity(Cell{Text: "1,5"})
	assert.Error(t, err)

	_, err = parseQuantity(Cell{Text: "dois"})
	assert.Error(t, err)
}

func TestParseSheetDate(t *testing.T) {
	nov5 := time.Date(2024, time.November, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		cell Cell
		want time.Time
	}{
		{"dotted day month", Cell{Text: "05.11"}, nov5},
		{"slashed day month", Cell{Text: "5/11"}, nov5},
		{"full brazilian", Cell{Text: "05/11/2024"}, nov5},
		{"iso", Cell{Text: "2024-11-05"}, nov5},
		{"serial numeric cell", Cell{Text: "45601", Numeric: true}, nov5},
		{"serial as text", Cell{Text: "45601"}, nov5},
		{"serial with time fraction", Cell{Text: "45601.75", Numeric: true}, nov5},
		{"day month stored as number", Cell{Text: "5.11", Numeric: true}, nov5},
		{"day month with dropped zero", Cell{Text: "10.1", Numeric: true}, time.Date(2024, time.October, 10, 0, 0, 0, 0, time.UTC)},
		{"single digit month as number", Cell{Text: "5.01", Numeric: true}, time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSheetDate(tt.cell, 2024)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestParseSheetDate_Invalid(t *testing.T) {
	_, err := ParseSheetDate(Cell{}, 2024)
	assert.ErrorIs(t, err, errBlankDate)

	_, err = ParseSheetDate(Cell{Text: "31.02"}, 2024)
	assert.Error(t, err)

	_, err = ParseSheetDate(Cell{Text: "amanhã"}, 2024)
	assert.Error(t, err)

	_, err = ParseSheetDate(Cell{Text: "5.13", Numeric: true}, 2024)
	assert.Error(t, err, "no thirteenth month, and too small to be a serial")
}

func TestNormalizeSKU(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`ch206-pto-41"`, "CH206-PTO-41"},
		{"desk pto 20x20", "DESK-PTO-20X20"},
		{"  DESK   pto  ", "DESK-PTO"},
		{"mesa  'canto'  60", "MESA CANTO 60"},
		{"desk", "DESK"},
		{"deskpto 20", "DESKPTO 20"},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSKU(tt.in, "DESK"))
		})
	}
}

func TestNormalizeClientName(t *testing.T) {
	aliases := map[string]string{"ML Full": "Mercado Livre"}

	assert.Equal(t, "Mercado Livre", NormalizeClientName("  ml   full ", aliases, "Consumidor Final"))
	assert.Equal(t, "Consumidor Final", NormalizeClientName("   ", aliases, "Consumidor Final"))
	assert.Equal(t, "Loja Centro", NormalizeClientName("Loja  Centro", aliases, "Consumidor Final"))
}

func buildWorkbook(t *testing.T, sheet string, cells map[string]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	for ref, v := range cells {
		require.NoError(t, f.SetCellValue(sheet, ref, v))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadXLSX(t *testing.T) {
	data := buildWorkbook(t, "NOVEMBRO", map[string]any{
		"A1": "RELATÓRIO DE VENDAS",
		"A3": "DATA", "B3": "CLIENTE", "C3": "SKU",
		"A4": "05.11", "B4": "Loja Centro", "C4": "CH206", "D4": 2, "E4": "R$ 1.234,56",
		"A6": 45601, "C6": "desk pto", "D6": 1, "E6": 99.9,
	})

	rows, err := ReadXLSX(bytes.NewReader(data), "NOVEMBRO", 4)
	require.NoError(t, err)
	require.Len(t, rows, 2, "header rows and the empty row 5 are dropped")

	assert.Equal(t, 4, rows[0].Index)
	assert.Equal(t, Cell{Text: "05.11"}, rows[0].Col(ColDate))
	assert.Equal(t, Cell{Text: "2", Numeric: true}, rows[0].Col(ColQuantity))
	assert.False(t, rows[0].Col(ColUnitPrice).Numeric)
	assert.True(t, rows[0].Col(ColTotal).Blank())

	assert.Equal(t, 6, rows[1].Index)
	assert.True(t, rows[1].Col(ColDate).Numeric)
	assert.Equal(t, "45601", rows[1].Col(ColDate).Text)
	assert.True(t, rows[1].Col(ColUnitPrice).Numeric)
	assert.True(t, rows[1].Col(ColClient).Blank())
}

func TestReadXLSX_MissingSheet(t *testing.T) {
	data := buildWorkbook(t, "NOVEMBRO", map[string]any{"A1": "x"})

	_, err := ReadXLSX(bytes.NewReader(data), "DEZEMBRO", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOVEMBRO")
}

func TestReadXLSX_NotAWorkbook(t *testing.T) {
	_, err := ReadXLSX(strings.NewReader("data;cliente\n"), "", 1)
	assert.Error(t, err)
}

func TestReadCSV(t *testing.T) {
	input := "VENDAS NOVEMBRO;;;;;\n" +
		"DATA;CLIENTE;SKU;QTD;UNITARIO;TOTAL\n" +
		"05.11;Loja Centro;CH206;2;\"R$ 10,00\";\"R$ 20,00\"\n" +
		";;;;;\n" +
		";Loja Sul;desk pto;1;R$ 5,50;\n"

	rows, err := ReadCSV(strings.NewReader(input), 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 3, rows[0].Index)
	assert.Equal(t, "R$ 10,00", rows[0].Col(ColUnitPrice).Text)
	assert.Equal(t, 5, rows[1].Index)
	assert.True(t, rows[1].Col(ColDate).Blank())
	assert.True(t, rows[1].Col(99).Blank())
}

func TestReadCSV_CommaDelimited(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("05.11,Loja,CH206,1\n"), 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "CH206", rows[0].Col(ColSKU).Text)
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), 1)
	assert.Error(t, err)
}
