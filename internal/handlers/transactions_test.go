package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ashmitsharp/erp-api/internal/apperr"
	"github.com/ashmitsharp/erp-api/internal/database/db"
	"github.com/ashmitsharp/erp-api/internal/services"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockTransactionService backs the transaction, account, category and
// summary handlers.
type MockTransactionService struct {
	TransactionService

	CreateFunc   func(in services.TransactionInput) (db.Transaction, error)
	ListFunc     func(f services.ListFilter) ([]db.Transaction, error)
	UpdateFunc   func(id uuid.UUID, in services.TransactionUpdate) (db.Transaction, error)
	SettleFunc   func(id uuid.UUID, settled time.Time) (db.Transaction, error)
	CancelFunc   func(id uuid.UUID) (db.Transaction, error)
	StatsFunc    func(from, to time.Time) (services.Stats, error)
	AccountsFunc func() ([]db.Account, error)

	categories []db.Category
}

func (m *MockTransactionService) Create(_ context.Context, _ uuid.UUID, in services.TransactionInput) (db.Transaction, error) {
	return m.CreateFunc(in)
}

func (m *MockTransactionService) List(_ context.Context, _ uuid.UUID, f services.ListFilter) ([]db.Transaction, error) {
	return m.ListFunc(f)
}

func (m *MockTransactionService) Update(_ context.Context, _ uuid.UUID, id uuid.UUID, in services.TransactionUpdate) (db.Transaction, error) {
	return m.UpdateFunc(id, in)
}

func (m *MockTransactionService) Settle(_ context.Context, _ uuid.UUID, id uuid.UUID, settled time.Time) (db.Transaction, error) {
	return m.SettleFunc(id, settled)
}

func (m *MockTransactionService) Cancel(_ context.Context, _ uuid.UUID, id uuid.UUID) (db.Transaction, error) {
	return m.CancelFunc(id)
}

func (m *MockTransactionService) Stats(_ context.Context, _ uuid.UUID, from, to time.Time) (services.Stats, error) {
	return m.StatsFunc(from, to)
}

func (m *MockTransactionService) ListAccounts(context.Context, uuid.UUID) ([]db.Account, error) {
	return m.AccountsFunc()
}

func (m *MockTransactionService) CreateCategory(_ context.Context, userID uuid.UUID, in services.CategoryInput) (db.Category, error) {
	if in.Kind != "income" && in.Kind != "expense" {
		return db.Category{}, apperr.Validation("CreateCategory", "kind must be income or expense")
	}
	cat := db.Category{ID: uuid.New(), UserID: &userID, Name: in.Name, Kind: in.Kind, ParentID: in.ParentID}
	m.categories = append(m.categories, cat)
	return cat, nil
}

func (m *MockTransactionService) ListCategories(context.Context, uuid.UUID) ([]db.Category, error) {
	return m.categories, nil
}

func (m *MockTransactionService) DeleteCategory(_ context.Context, _ uuid.UUID, id uuid.UUID) error {
	for _, c := range m.categories {
		if c.ID == id && c.IsGlobal {
			return apperr.Validation("DeleteCategory", "global categories are read-only")
		}
	}
	return nil
}

func newTransactionsApp(svc *MockTransactionService) *fiber.App {
	h := NewTransactionHandler(svc)
	app := newTestApp(testUserID)
	app.Get("/transactions", h.GetTransactions)
	app.Get("/transactions/stats", h.GetTransactionStats)
	app.Post("/transactions", h.CreateTransaction)
	app.Patch("/transactions/:id", h.UpdateTransaction)
	app.Post("/transactions/:id/settle", h.SettleTransaction)
	app.Post("/transactions/:id/cancel", h.CancelTransaction)
	return app
}

func TestCreateTransaction(t *testing.T) {
	var got services.TransactionInput
	svc := &MockTransactionService{CreateFunc: func(in services.TransactionInput) (db.Transaction, error) {
		got = in
		return db.Transaction{Description: in.Description, Status: "forecast"}, nil
	}}
	app := newTransactionsApp(svc)

	src, dst := uuid.New(), uuid.New()
	resp, result := doJSON(t, app, "POST", "/transactions", fiber.Map{
		"description":            "Reserva",
		"amount":                 "200.00",
		"kind":                   "transfer",
		"txn_date":               "2024-05-02",
		"account_id":             src,
		"destination_account_id": dst.String(),
	})

	require.Equal(t, fiber.StatusCreated, resp.StatusCode, result)
	assert.Equal(t, "forecast", result["status"])
	assert.Equal(t, src, got.AccountID)
	require.NotNil(t, got.DestinationAccountID)
	assert.Equal(t, dst, *got.DestinationAccountID)
	assert.Equal(t, mustDate("2024-05-02"), got.TxnDate)
	assert.Nil(t, got.CategoryID)
}

func TestGetTransactions_Pagination(t *testing.T) {
	var got services.ListFilter
	app := newTransactionsApp(&MockTransactionService{ListFunc: func(f services.ListFilter) ([]db.Transaction, error) {
		got = f
		return make([]db.Transaction, 2), nil
	}})

	resp, result := doJSON(t, app, "GET", "/transactions?from=2024-01-01&to=2024-06-30&limit=2&offset=4", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, got.Limit)
	assert.Equal(t, 4, got.Offset)
	assert.Equal(t, mustDate("2024-01-01"), got.From)

	pagination := result["pagination"].(map[string]any)
	assert.Equal(t, float64(2), pagination["count"])
	assert.Equal(t, true, pagination["has_more"])

	// out-of-range values fall back to defaults
	_, _ = doJSON(t, app, "GET", "/transactions?limit=500&offset=-1", nil)
	assert.Equal(t, 50, got.Limit)
	assert.Equal(t, 0, got.Offset)
}

func TestTransactionStateChanges(t *testing.T) {
	txnID := uuid.New()
	var settledOn time.Time
	svc := &MockTransactionService{
		UpdateFunc: func(id uuid.UUID, in services.TransactionUpdate) (db.Transaction, error) {
			return db.Transaction{}, apperr.Conflict("UpdateTransaction", "only forecast transactions can be edited")
		},
		SettleFunc: func(id uuid.UUID, settled time.Time) (db.Transaction, error) {
			settledOn = settled
			return db.Transaction{ID: id, Status: "settled"}, nil
		},
		CancelFunc: func(id uuid.UUID) (db.Transaction, error) {
			return db.Transaction{}, apperr.NotFound("CancelTransaction", "transaction")
		},
	}
	app := newTransactionsApp(svc)

	resp, result := doJSON(t, app, "PATCH", "/transactions/"+txnID.String(), fiber.Map{
		"description": "x", "amount": "1", "txn_date": "2024-05-01",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "only forecast transactions can be edited", result["error"])

	resp, result = doJSON(t, app, "PATCH", "/transactions/"+txnID.String(), fiber.Map{"description": "x"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, result["error"], "txn_date")

	resp, result = doJSON(t, app, "POST", "/transactions/"+txnID.String()+"/settle", fiber.Map{"settled_date": "2024-05-03"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "settled", result["status"])
	assert.Equal(t, mustDate("2024-05-03"), settledOn)

	resp, _ = doJSON(t, app, "POST", "/transactions/"+txnID.String()+"/cancel", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetTransactionStats(t *testing.T) {
	app := newTransactionsApp(&MockTransactionService{StatsFunc: func(from, to time.Time) (services.Stats, error) {
		return services.Stats{
			Income:  decimal.NewFromInt(500),
			Expense: decimal.NewFromInt(200),
			Net:     decimal.NewFromInt(300),
			Count:   3,
		}, nil
	}})

	resp, result := doJSON(t, app, "GET", "/transactions/stats?from=2024-01-01&to=2024-01-31", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	stats := result["stats"].(map[string]any)
	assert.Equal(t, "300", stats["net"])
	assert.Equal(t, float64(3), stats["count"])
	assert.Equal(t, "2024-01-31", result["to"])
}

func TestCategoriesHandler(t *testing.T) {
	global := db.Category{ID: uuid.New(), Name: "Vendas", Kind: "income", IsGlobal: true}
	svc := &MockTransactionService{categories: []db.Category{global}}
	h := NewCategoriesHandler(svc)
	app := newTestApp(testUserID)
	app.Get("/categories", h.GetCategories)
	app.Post("/categories", h.CreateCategory)
	app.Delete("/categories/:id", h.DeleteCategory)

	resp, _ := doJSON(t, app, "POST", "/categories", fiber.Map{"name": "Aluguel", "kind": "expense"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, result := doJSON(t, app, "POST", "/categories", fiber.Map{"name": "X", "kind": "other"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "kind must be income or expense", result["error"])

	_, result = doJSON(t, app, "GET", "/categories", nil)
	assert.Equal(t, float64(2), result["count"])
	_, result = doJSON(t, app, "GET", "/categories?scope=user", nil)
	assert.Equal(t, float64(1), result["count"])
	_, result = doJSON(t, app, "GET", "/categories?kind=income", nil)
	assert.Equal(t, float64(1), result["count"])

	resp, _ = doJSON(t, app, "GET", "/categories?scope=nope", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, "DELETE", "/categories/"+global.ID.String(), nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSummaryHandler(t *testing.T) {
	var calls int
	svc := &MockTransactionService{
		StatsFunc: func(from, to time.Time) (services.Stats, error) {
			calls++
			return services.Stats{Income: decimal.NewFromInt(10), Expense: decimal.NewFromInt(4), Net: decimal.NewFromInt(6), Count: 1}, nil
		},
		AccountsFunc: func() ([]db.Account, error) {
			return []db.Account{
				{CurrentBalance: decimal.RequireFromString("100.50"), Active: true},
				{CurrentBalance: decimal.NewFromInt(999), Active: false},
			}, nil
		},
	}
	h := NewSummaryHandler(svc)
	app := newTestApp(testUserID)
	app.Get("/summary", h.GetSummary)

	resp, result := doJSON(t, app, "GET", "/summary?from=2024-01-01&to=2024-03-31", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "100.5", result["total_balance"])
	assert.Len(t, result["net_flow_trend"], 3)
	assert.Equal(t, 4, calls) // range total plus one per month

	resp, _ = doJSON(t, app, "GET", "/summary?group_by=week", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	svc.AccountsFunc = func() ([]db.Account, error) { return nil, errors.New("db down") }
	resp, _ = doJSON(t, app, "GET", "/summary?from=2024-01-01&to=2024-01-31", nil)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
