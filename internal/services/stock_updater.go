package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ashmitsharp/erp-api/internal/apperr"
	"github.com/ashmitsharp/erp-api/internal/database/db"
)

// Positional columns of a stock sheet.
const (
	StockColSKU = iota
	StockColQuantity
)

// StockStore is the slice of the query layer the stock import touches.
type StockStore interface {
	GetProductBySKU(ctx context.Context, arg db.GetProductBySKUParams) (db.Product, error)
	SetProductStock(ctx context.Context, arg db.SetProductStockParams) (int64, error)
}

type StockChange struct {
	Row  int    `json:"row"`
	SKU  string `json:"sku"`
	From int32  `json:"from"`
	To   int32  `json:"to"`
}

type StockReport struct {
	Updated []StockChange `json:"updated"`
	Planned []StockChange `json:"planned"`
	Unknown []SkippedRow  `json:"unknown"`
	Skipped []SkippedRow  `json:"skipped"`
	Failed  []RowFailure  `json:"failed"`
	Aborted bool          `json:"aborted"`
}

func (r *StockReport) Summary() string {
	return fmt.Sprintf("planned=%d updated=%d unknown=%d skipped=%d failed=%d",
		len(r.Planned), len(r.Updated), len(r.Unknown), len(r.Skipped), len(r.Failed))
}

// StockUpdater overwrites product stock levels from a sheet of (sku, qty).
type StockUpdater struct {
	store     StockStore
	skuPrefix string
	log       zerolog.Logger
}

func NewStockUpdater(store StockStore, skuPrefix string, log zerolog.Logger) *StockUpdater {
	return &StockUpdater{
		store:     store,
		skuPrefix: skuPrefix,
		log:       log.With().Str("component", "stock").Logger(),
	}
}

// Apply plans every change first, asks confirm with the number of planned
// updates, then writes them one by one.
func (u *StockUpdater) Apply(ctx context.Context, userID uuid.UUID, rows []SheetRow, confirm func(planned int) bool) (*StockReport, error) {
	report := &StockReport{}
	ids := make(map[int]uuid.UUID)

	for _, row := range rows {
		sku := NormalizeSKU(row.Col(StockColSKU).Text, u.skuPrefix)
		if sku == "" {
			report.Skipped = append(report.Skipped, SkippedRow{Row: row.Index, Reason: SkipBlankSKU})
			continue
		}
		qty, err := parseQuantity(row.Col(StockColQuantity))
		if err != nil || qty < 0 {
			report.Skipped = append(report.Skipped, SkippedRow{Row: row.Index, Reason: "quantity must be a whole number", Value: row.Col(StockColQuantity).Text})
			continue
		}

		product, err := u.store.GetProductBySKU(ctx, db.GetProductBySKUParams{UserID: userID, Sku: sku})
		if err != nil {
			if isNoRows(err) {
				report.Unknown = append(report.Unknown, SkippedRow{Row: row.Index, Reason: "unknown SKU", Value: sku})
				continue
			}
			return nil, apperr.External("UpdateStock", err)
		}

		report.Planned = append(report.Planned, StockChange{Row: row.Index, SKU: product.Sku, From: product.StockQuantity, To: int32(qty)})
		ids[row.Index] = product.ID
	}

	if confirm != nil && !confirm(len(report.Planned)) {
		report.Aborted = true
		return report, nil
	}

	for _, change := range report.Planned {
		n, err := u.store.SetProductStock(ctx, db.SetProductStockParams{ID: ids[change.Row], UserID: userID, StockQuantity: change.To})
		switch {
		case err != nil:
			report.Failed = append(report.Failed, RowFailure{Row: change.Row, Key: change.SKU, Error: err.Error()})
		case n == 0:
			report.Failed = append(report.Failed, RowFailure{Row: change.Row, Key: change.SKU, Error: "product disappeared"})
		default:
			report.Updated = append(report.Updated, change)
		}
	}

	u.log.Info().Msg(report.Summary())
	return report, nil
}
