package handlers

import (
	"context"

	"github.com/ashmitsharp/erp-api/internal/database/db"
	"github.com/ashmitsharp/erp-api/internal/services"
	"github.com/ashmitsharp/erp-api/internal/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AccountService interface {
	CreateAccount(ctx context.Context, userID uuid.UUID, in services.AccountInput) (db.Account, error)
	GetAccount(ctx context.Context, userID, accountID uuid.UUID) (db.Account, error)
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]db.Account, error)
	SetAccountActive(ctx context.Context, userID, accountID uuid.UUID, active bool) error
}

// AccountsHandler serves /v1/accounts
type AccountsHandler struct {
	accounts AccountService
}

func NewAccountsHandler(accounts AccountService) *AccountsHandler {
	return &AccountsHandler{accounts: accounts}
}

type CreateAccountRequest struct {
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// CreateAccount handles POST /v1/accounts
func (h *AccountsHandler) CreateAccount(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req CreateAccountRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("invalid request body", nil)
	}

	account, err := h.accounts.CreateAccount(c.Context(), userID, services.AccountInput{
		Name:           req.Name,
		Type:           req.Type,
		OpeningBalance: req.OpeningBalance,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(account)
}

// GetAccounts handles GET /v1/accounts
func (h *AccountsHandler) GetAccounts(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	accounts, err := h.accounts.ListAccounts(c.Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// GetAccount handles GET /v1/accounts/:id
func (h *AccountsHandler) GetAccount(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	accountID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	account, err := h.accounts.GetAccount(c.Context(), userID, accountID)
	if err != nil {
		return err
	}

	return c.JSON(account)
}

type SetAccountActiveRequest struct {
	Active *bool `json:"active"`
}

// SetAccountActive handles PATCH /v1/accounts/:id
func (h *AccountsHandler) SetAccountActive(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	accountID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req SetAccountActiveRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("invalid request body", nil)
	}
	if req.Active == nil {
		return utils.NewBadRequestError("active is required", nil)
	}

	if err := h.accounts.SetAccountActive(c.Context(), userID, accountID, *req.Active); err != nil {
		return err
	}

	account, err := h.accounts.GetAccount(c.Context(), userID, accountID)
	if err != nil {
		return err
	}
	return c.JSON(account)
}
