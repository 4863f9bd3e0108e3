package handlers

import (
	"context"
	"time"

	"github.com/ashmitsharp/erp-api/internal/database/db"
	"github.com/ashmitsharp/erp-api/internal/services"
	"github.com/ashmitsharp/erp-api/internal/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionService interface {
	Create(ctx context.Context, userID uuid.UUID, in services.TransactionInput) (db.Transaction, error)
	Get(ctx context.Context, userID, txnID uuid.UUID) (db.Transaction, error)
	List(ctx context.Context, userID uuid.UUID, f services.ListFilter) ([]db.Transaction, error)
	Update(ctx context.Context, userID, txnID uuid.UUID, in services.TransactionUpdate) (db.Transaction, error)
	Settle(ctx context.Context, userID, txnID uuid.UUID, settledDate time.Time) (db.Transaction, error)
	Cancel(ctx context.Context, userID, txnID uuid.UUID) (db.Transaction, error)
	Stats(ctx context.Context, userID uuid.UUID, from, to time.Time) (services.Stats, error)
}

// TransactionHandler handles transaction-related requests
type TransactionHandler struct {
	txns TransactionService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(txns TransactionService) *TransactionHandler {
	return &TransactionHandler{txns: txns}
}

type CreateTransactionRequest struct {
	Description          string          `json:"description"`
	Amount               decimal.Decimal `json:"amount"`
	Kind                 string          `json:"kind"`
	TxnDate              string          `json:"txn_date"`
	AccountID            uuid.UUID       `json:"account_id"`
	DestinationAccountID *string         `json:"destination_account_id"`
	CategoryID           *string         `json:"category_id"`
}

// CreateTransaction records a forecast transaction
// POST /v1/transactions
func (h *TransactionHandler) CreateTransaction(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req CreateTransactionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("invalid request body", nil)
	}

	txnDate, err := parseDate("txn_date", req.TxnDate, today())
	if err != nil {
		return err
	}
	destID, err := parseOptionalUUID("destination_account_id", req.DestinationAccountID)
	if err != nil {
		return err
	}
	categoryID, err := parseOptionalUUID("category_id", req.CategoryID)
	if err != nil {
		return err
	}

	txn, err := h.txns.Create(c.Context(), userID, services.TransactionInput{
		Description:          req.Description,
		Amount:               req.Amount,
		Kind:                 req.Kind,
		TxnDate:              txnDate,
		AccountID:            req.AccountID,
		DestinationAccountID: destID,
		CategoryID:           categoryID,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(txn)
}

// GetTransactions returns one page of transactions in a date range
// GET /v1/transactions?from=2024-01-01&to=2024-12-31&limit=50&offset=0
func (h *TransactionHandler) GetTransactions(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	from, to, err := dateRange(c, today())
	if err != nil {
		return err
	}
	limit := queryInt(c, "limit", 50, 1, 100)
	offset := queryInt(c, "offset", 0, 0, 1<<30)

	txns, err := h.txns.List(c.Context(), userID, services.ListFilter{
		From:   from,
		To:     to,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return err
	}

	return utils.PaginatedResponse(c, txns, limit, offset, len(txns))
}

// GetTransaction handles GET /v1/transactions/:id
func (h *TransactionHandler) GetTransaction(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	txnID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	txn, err := h.txns.Get(c.Context(), userID, txnID)
	if err != nil {
		return err
	}
	return c.JSON(txn)
}

// UpdateTransactionRequest represents the request body for updating a
// forecast transaction
type UpdateTransactionRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	TxnDate     string          `json:"txn_date"`
	CategoryID  *string         `json:"category_id"`
}

// UpdateTransaction edits a forecast transaction
// PATCH /v1/transactions/:id
func (h *TransactionHandler) UpdateTransaction(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	txnID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req UpdateTransactionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("invalid request body", nil)
	}
	txnDate, err := parseDate("txn_date", req.TxnDate, time.Time{})
	if err != nil {
		return err
	}
	if txnDate.IsZero() {
		return utils.NewBadRequestError("txn_date is required", nil)
	}
	categoryID, err := parseOptionalUUID("category_id", req.CategoryID)
	if err != nil {
		return err
	}

	txn, err := h.txns.Update(c.Context(), userID, txnID, services.TransactionUpdate{
		Description: req.Description,
		Amount:      req.Amount,
		TxnDate:     txnDate,
		CategoryID:  categoryID,
	})
	if err != nil {
		return err
	}

	return c.JSON(txn)
}

type SettleTransactionRequest struct {
	SettledDate string `json:"settled_date"`
}

// SettleTransaction moves a forecast to settled and adjusts balances
// POST /v1/transactions/:id/settle
func (h *TransactionHandler) SettleTransaction(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	txnID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req SettleTransactionRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return utils.NewBadRequestError("invalid request body", nil)
		}
	}
	settledDate, err := parseDate("settled_date", req.SettledDate, today())
	if err != nil {
		return err
	}

	txn, err := h.txns.Settle(c.Context(), userID, txnID, settledDate)
	if err != nil {
		return err
	}
	return c.JSON(txn)
}

// CancelTransaction handles POST /v1/transactions/:id/cancel
func (h *TransactionHandler) CancelTransaction(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	txnID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	txn, err := h.txns.Cancel(c.Context(), userID, txnID)
	if err != nil {
		return err
	}
	return c.JSON(txn)
}

// GetTransactionStats returns settled income and expense for a date range
// GET /v1/transactions/stats?from=&to=
func (h *TransactionHandler) GetTransactionStats(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	from, to, err := dateRange(c, today())
	if err != nil {
		return err
	}

	stats, err := h.txns.Stats(c.Context(), userID, from, to)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"from":  from.Format(dateLayout),
		"to":    to.Format(dateLayout),
		"stats": stats,
	})
}
