package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Positional columns of a sales sheet.
const (
	ColDate = iota
	ColClient
	ColSKU
	ColQuantity
	ColUnitPrice
	ColTotal
)

// Skip reasons reported for rows that never reach emission.
const (
	SkipBlankSKU      = "blank SKU"
	SkipBadQuantity   = "quantity must be a positive whole number"
	SkipNoDate        = "no date and no earlier date to carry forward"
	SkipInvalidDate   = "unparseable date"
	SkipInvalidPrice  = "unparseable price"
	SkipPriceMismatch = "unit price and total disagree"
)

var errPriceMismatch = errors.New("price mismatch")

type NormalizeOptions struct {
	Year          int
	BatchTag      string
	SKUPrefix     string
	ClientAliases map[string]string
	DefaultClient string
}

// SaleRow is a sheet row ready for client resolution and emission.
type SaleRow struct {
	Row            int             `json:"row"`
	Date           time.Time       `json:"date"`
	Client         string          `json:"client"`
	SKU            string          `json:"sku"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Total          decimal.Decimal `json:"total"`
	IdempotencyKey string          `json:"idempotency_key"`
}

type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
	Value  string `json:"value,omitempty"`
}

// NormalizeRows walks rows strictly in sheet order. A blank date cell takes
// the last valid date seen above it, including dates on rows that were
// themselves skipped.
func NormalizeRows(rows []SheetRow, opts NormalizeOptions) ([]SaleRow, []SkippedRow) {
	var (
		sales    []SaleRow
		skipped  []SkippedRow
		lastDate time.Time
	)

	for _, row := range rows {
		dateCell := row.Col(ColDate)
		var dateErr error
		if !dateCell.Blank() {
			d, err := ParseSheetDate(dateCell, opts.Year)
			if err != nil {
				dateErr = err
			} else {
				lastDate = d
			}
		}

		sku := NormalizeSKU(row.Col(ColSKU).Text, opts.SKUPrefix)
		if sku == "" {
			skipped = append(skipped, SkippedRow{Row: row.Index, Reason: SkipBlankSKU})
			continue
		}

		qty, err := parseQuantity(row.Col(ColQuantity))
		if err != nil || qty <= 0 {
			skipped = append(skipped, SkippedRow{Row: row.Index, Reason: SkipBadQuantity, Value: row.Col(ColQuantity).Text})
			continue
		}

		if dateErr != nil {
			skipped = append(skipped, SkippedRow{Row: row.Index, Reason: SkipInvalidDate, Value: dateCell.Text})
			continue
		}
		if lastDate.IsZero() {
			skipped = append(skipped, SkippedRow{Row: row.Index, Reason: SkipNoDate})
			continue
		}

		unit, total, err := rowPrices(row, qty)
		if errors.Is(err, errPriceMismatch) {
			skipped = append(skipped, SkippedRow{
				Row:    row.Index,
				Reason: SkipPriceMismatch,
				Value:  fmt.Sprintf("%d x %s != %s", qty, unit.StringFixed(2), total.StringFixed(2)),
			})
			continue
		}
		if err != nil {
			skipped = append(skipped, SkippedRow{Row: row.Index, Reason: SkipInvalidPrice, Value: err.Error()})
			continue
		}

		sales = append(sales, SaleRow{
			Row:            row.Index,
			Date:           lastDate,
			Client:         NormalizeClientName(row.Col(ColClient).Text, opts.ClientAliases, opts.DefaultClient),
			SKU:            sku,
			Quantity:       qty,
			UnitPrice:      unit,
			Total:          total,
			IdempotencyKey: IdempotencyKey(opts.BatchTag, lastDate, sku, row.Index),
		})
	}

	return sales, skipped
}

// rowPrices fills whichever of unit price and total is missing from the
// other. When both are present they must agree.
func rowPrices(row SheetRow, qty int) (unit, total decimal.Decimal, err error) {
	unit, err = parseMoneyCell(row.Col(ColUnitPrice))
	if err != nil {
		return
	}
	total, err = parseMoneyCell(row.Col(ColTotal))
	if err != nil {
		return
	}

	q := decimal.NewFromInt(int64(qty))
	switch {
	case total.IsZero() && !unit.IsZero():
		total = unit.Mul(q).Round(2)
	case unit.IsZero() && !total.IsZero():
		unit = total.Div(q).Round(2)
	case !PricesAgree(unit, qty, total):
		return unit, total, errPriceMismatch
	}
	return unit, total, nil
}

var oneCent = decimal.New(1, -2)

// PricesAgree reports whether total is unit x qty to within a cent, or unit
// is total / qty rounded to cents.
func PricesAgree(unit decimal.Decimal, qty int, total decimal.Decimal) bool {
	if qty <= 0 {
		return false
	}
	q := decimal.NewFromInt(int64(qty))
	if unit.Mul(q).Sub(total).Abs().LessThanOrEqual(oneCent) {
		return true
	}
	return unit.Round(2).Equal(total.Div(q).Round(2))
}

// IdempotencyKey identifies one sheet line across runs:
// TAG-YYYYMMDD-SKU-<row>.
func IdempotencyKey(tag string, date time.Time, sku string, row int) string {
	return fmt.Sprintf("%s-%s-%s-%d", tag, date.Format("20060102"), sku, row)
}
