package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashmitsharp/erp-api/internal/apperr"
)

func stockSheet() []SheetRow {
	return []SheetRow{
		textRow(2, "CH206", "12"),
		textRow(3, "desk pto", "0"),
		textRow(4, "SEM-CADASTRO", "5"),
		textRow(5, "", "3"),
		textRow(6, "CH207", "-1"),
		textRow(7, "CH207", "dois"),
	}
}

func TestStockUpdater_Apply(t *testing.T) {
	store := newMemStore()
	userID := uuid.New()
	ch := store.addProduct(userID, "CH206", "Chinelo", 3)
	desk := store.addProduct(userID, "DESK-PTO", "Mesa", 7)
	store.addProduct(userID, "CH207", "Chinelo 2", 1)

	u := NewStockUpdater(store, "DESK", zerolog.Nop())

	var asked int
	report, err := u.Apply(context.Background(), userID, stockSheet(), func(planned int) bool {
		asked = planned
		return true
	})
	require.NoError(t, err)

	assert.Equal(t, 2, asked)
	assert.Equal(t, []StockChange{
		{Row: 2, SKU: "CH206", From: 3, To: 12},
		{Row: 3, SKU: "DESK-PTO", From: 7, To: 0},
	}, report.Updated)
	assert.Equal(t, []SkippedRow{{Row: 4, Reason: "unknown SKU", Value: "SEM-CADASTRO"}}, report.Unknown)
	assert.Len(t, report.Skipped, 3)
	assert.Empty(t, report.Failed)

	assert.Equal(t, int32(12), store.products[0].StockQuantity)
	assert.Equal(t, ch.ID, store.products[0].ID)
	assert.Equal(t, int32(0), store.products[1].StockQuantity)
	assert.Equal(t, desk.ID, store.products[1].ID)
	assert.Equal(t, int32(1), store.products[2].StockQuantity)
	assert.Equal(t, "planned=2 updated=2 unknown=1 skipped=3 failed=0", report.Summary())
}

func TestStockUpdater_DeclinedWritesNothing(t *testing.T) {
	store := newMemStore()
	userID := uuid.New()
	store.addProduct(userID, "CH206", "Chinelo", 3)

	report, err := NewStockUpdater(store, "DESK", zerolog.Nop()).Apply(context.Background(), userID, stockSheet(), func(int) bool { return false })
	require.NoError(t, err)

	assert.True(t, report.Aborted)
	assert.Len(t, report.Planned, 1)
	assert.Empty(t, report.Updated)
	assert.Equal(t, int32(3), store.products[0].StockQuantity)
}

func TestStockUpdater_WriteFailure(t *testing.T) {
	store := newMemStore()
	userID := uuid.New()
	store.addProduct(userID, "CH206", "Chinelo", 3)
	store.failOn["SetProductStock"] = errBoom

	report, err := NewStockUpdater(store, "DESK", zerolog.Nop()).Apply(context.Background(), userID, stockSheet(), nil)
	require.NoError(t, err)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "CH206", report.Failed[0].Key)
}

func TestStockUpdater_LookupFailure(t *testing.T) {
	store := newMemStore()
	store.failOn["GetProductBySKU"] = errBoom

	_, err := NewStockUpdater(store, "DESK", zerolog.Nop()).Apply(context.Background(), uuid.New(), stockSheet(), nil)
	assert.True(t, apperr.IsExternal(err))
}
