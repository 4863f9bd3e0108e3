package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textRow(index int, values ...string) SheetRow {
	cells := make([]Cell, len(values))
	for i, v := range values {
		cells[i] = Cell{Text: v}
	}
	return SheetRow{Index: index, Cells: cells}
}

func testNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{
		Year:          2024,
		BatchTag:      "VENDAS",
		SKUPrefix:     "DESK",
		ClientAliases: map[string]string{"ML": "Mercado Livre"},
		DefaultClient: "Consumidor Final",
	}
}

func TestNormalizeRows_ForwardFillsDates(t *testing.T) {
	rows := []SheetRow{
		textRow(4, "05.11", "Loja Centro", "CH206", "1", "R$ 10,00"),
		textRow(5, "", "Loja Centro", "CH207", "2", "R$ 10,00"),
		textRow(6, "", "", "desk pto", "1", "", "R$ 35,00"),
		textRow(7, "07.11", "ml", "CH206", "3", "R$ 10,00", "R$ 30,00"),
	}

	sales, skipped := NormalizeRows(rows, testNormalizeOptions())
	require.Empty(t, skipped)
	require.Len(t, sales, 4)

	nov5 := time.Date(2024, time.November, 5, 0, 0, 0, 0, time.UTC)
	nov7 := time.Date(2024, time.November, 7, 0, 0, 0, 0, time.UTC)
	assert.True(t, sales[0].Date.Equal(nov5))
	assert.True(t, sales[1].Date.Equal(nov5))
	assert.True(t, sales[2].Date.Equal(nov5))
	assert.True(t, sales[3].Date.Equal(nov7))

	assert.Equal(t, "Consumidor Final", sales[2].Client)
	assert.Equal(t, "Mercado Livre", sales[3].Client)
	assert.Equal(t, "DESK-PTO", sales[2].SKU)
}

func TestNormalizeRows_FillsMissingPrice(t *testing.T) {
	rows := []SheetRow{
		textRow(1, "05.11", "Loja", "CH206", "2", "R$ 10,00"),
		textRow(2, "05.11", "Loja", "CH206", "4", "", "R$ 30,00"),
	}

	sales, skipped := NormalizeRows(rows, testNormalizeOptions())
	require.Empty(t, skipped)
	require.Len(t, sales, 2)

	assert.True(t, decimal.NewFromInt(20).Equal(sales[0].Total))
	assert.True(t, decimal.RequireFromString("7.5").Equal(sales[1].UnitPrice))
}

func TestNormalizeRows_SkipReasons(t *testing.T) {
	rows := []SheetRow{
		textRow(1, "", "Loja", "CH206", "1", "R$ 10,00"),
		textRow(2, "05.11", "Loja", "", "1", "R$ 10,00"),
		textRow(3, "", "Loja", "CH206", "0", "R$ 10,00"),
		textRow(4, "", "Loja", "CH206", "1,5", "R$ 10,00"),
		textRow(5, "40/13", "Loja", "CH206", "1", "R$ 10,00"),
		textRow(6, "", "Loja", "CH206", "1", "R$ dez"),
		textRow(7, "", "Loja", "CH206", "1", "R$ 10,00"),
	}

	sales, skipped := NormalizeRows(rows, testNormalizeOptions())

	require.Len(t, skipped, 6)
	assert.Equal(t, SkippedRow{Row: 1, Reason: SkipNoDate}, skipped[0])
	assert.Equal(t, SkipBlankSKU, skipped[1].Reason)
	assert.Equal(t, SkipBadQuantity, skipped[2].Reason)
	assert.Equal(t, SkipBadQuantity, skipped[3].Reason)
	assert.Equal(t, SkippedRow{Row: 5, Reason: SkipInvalidDate, Value: "40/13"}, skipped[4])
	assert.Equal(t, SkipInvalidPrice, skipped[5].Reason)

	// the date on skipped row 2 still carries forward, the bad one on row 5 does not
	require.Len(t, sales, 1)
	assert.Equal(t, 7, sales[0].Row)
	assert.True(t, sales[0].Date.Equal(time.Date(2024, time.November, 5, 0, 0, 0, 0, time.UTC)))
}

func TestNormalizeRows_IdempotencyKeysAreStable(t *testing.T) {
	rows := []SheetRow{
		textRow(12, "05.11", "Loja", "desk pto 20x20", "1", "R$ 10,00"),
	}

	first, _ := NormalizeRows(rows, testNormalizeOptions())
	second, _ := NormalizeRows(rows, testNormalizeOptions())

	require.Len(t, first, 1)
	assert.Equal(t, "VENDAS-20241105-DESK-PTO-20X20-12", first[0].IdempotencyKey)
	assert.Equal(t, first[0].IdempotencyKey, second[0].IdempotencyKey)
}

func TestIdempotencyKey(t *testing.T) {
	date := time.Date(2025, time.January, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "NOV-20250109-CH206-3", IdempotencyKey("NOV", date, "CH206", 3))
}

func TestNormalizeRows_KeepsSheetTotals(t *testing.T) {
	rows := []SheetRow{
		textRow(4, "05.11", "Loja", "CH206", "3", "", "R$ 100,00"),
		textRow(5, "", "Loja", "CH207", "2", "R$ 50,00", "R$ 90,00"),
		textRow(6, "", "Loja", "CH208", "7", "R$ 14,29", "R$ 100,00"),
	}

	sales, skipped := NormalizeRows(rows, testNormalizeOptions())

	require.Len(t, sales, 2)
	assert.True(t, dec("33.33").Equal(sales[0].UnitPrice))
	assert.True(t, dec("100").Equal(sales[0].Total), "the sheet total wins over unit x qty")
	assert.True(t, dec("100").Equal(sales[1].Total))

	require.Len(t, skipped, 1)
	assert.Equal(t, SkippedRow{Row: 5, Reason: SkipPriceMismatch, Value: "2 x 50.00 != 90.00"}, skipped[0])
}

func TestPricesAgree(t *testing.T) {
	tests := []struct {
		unit  string
		qty   int
		total string
		want  bool
	}{
		{"10", 3, "30", true},
		{"33.33", 3, "100", true},
		{"14.29", 7, "100", true},
		{"33.33", 3, "99.99", true},
		{"50", 2, "90", false},
		{"10", 3, "30.02", false},
		{"10", 0, "0", false},
	}

	for _, tt := range tests {
		got := PricesAgree(dec(tt.unit), tt.qty, dec(tt.total))
		assert.Equal(t, tt.want, got, "%s x %d vs %s", tt.unit, tt.qty, tt.total)
	}
}
