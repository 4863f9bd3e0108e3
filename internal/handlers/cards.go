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

type LedgerService interface {
	CreateCard(ctx context.Context, userID uuid.UUID, in services.CardInput) (db.Card, error)
	GetCard(ctx context.Context, userID, cardID uuid.UUID) (db.Card, error)
	ListCards(ctx context.Context, userID uuid.UUID) ([]db.Card, error)
	RegisterPurchase(ctx context.Context, userID uuid.UUID, in services.PurchaseInput) (services.PurchaseResult, error)
	DeletePurchase(ctx context.Context, userID, groupID uuid.UUID) error
	ListInvoices(ctx context.Context, userID, cardID uuid.UUID) ([]db.Invoice, error)
	GetInvoice(ctx context.Context, userID, invoiceID uuid.UUID) (services.InvoiceDetail, error)
	PayInvoice(ctx context.Context, userID uuid.UUID, in services.PaymentInput) (services.PaymentResult, error)
	RefreshInvoiceStatuses(ctx context.Context, userID uuid.UUID, today time.Time) (services.RefreshResult, error)
}

// CardsHandler serves cards, purchases and invoices.
type CardsHandler struct {
	ledger LedgerService
	now    func() time.Time
}

func NewCardsHandler(ledger LedgerService) *CardsHandler {
	return &CardsHandler{ledger: ledger, now: today}
}

type CreateCardRequest struct {
	Nickname         string          `json:"nickname"`
	Brand            string          `json:"brand"`
	Last4            string          `json:"last4"`
	CreditLimit      decimal.Decimal `json:"credit_limit"`
	ClosingDay       int             `json:"closing_day"`
	DueDay           int             `json:"due_day"`
	PaymentAccountID *string         `json:"payment_account_id"`
}

// CreateCard handles POST /v1/cards
func (h *CardsHandler) CreateCard(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req CreateCardRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("invalid request body", nil)
	}
	accountID, err := parseOptionalUUID("payment_account_id", req.PaymentAccountID)
	if err != nil {
		return err
	}

	card, err := h.ledger.CreateCard(c.Context(), userID, services.CardInput{
		Nickname:         req.Nickname,
		Brand:            req.Brand,
		Last4:            req.Last4,
		CreditLimit:      req.CreditLimit,
		ClosingDay:       req.ClosingDay,
		DueDay:           req.DueDay,
		PaymentAccountID: accountID,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(card)
}

// GetCards handles GET /v1/cards
func (h *CardsHandler) GetCards(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	cards, err := h.ledger.ListCards(c.Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"cards": cards,
		"count": len(cards),
	})
}

// GetCard handles GET /v1/cards/:id
func (h *CardsHandler) GetCard(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	cardID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	card, err := h.ledger.GetCard(c.Context(), userID, cardID)
	if err != nil {
		return err
	}
	return c.JSON(card)
}

type RegisterPurchaseRequest struct {
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	PurchaseDate string          `json:"purchase_date"`
	Installments int             `json:"installments"`
	CategoryID   *string         `json:"category_id"`
}

// RegisterPurchase spreads a purchase over the card's invoices
// POST /v1/cards/:id/purchases
func (h *CardsHandler) RegisterPurchase(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	cardID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req RegisterPurchaseRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("invalid request body", nil)
	}
	purchaseDate, err := parseDate("purchase_date", req.PurchaseDate, h.now())
	if err != nil {
		return err
	}
	categoryID, err := parseOptionalUUID("category_id", req.CategoryID)
	if err != nil {
		return err
	}
	if req.Installments == 0 {
		req.Installments = 1
	}

	result, err := h.ledger.RegisterPurchase(c.Context(), userID, services.PurchaseInput{
		CardID:       cardID,
		Description:  req.Description,
		Amount:       req.Amount,
		PurchaseDate: purchaseDate,
		Installments: req.Installments,
		CategoryID:   categoryID,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// DeletePurchase removes every installment of a purchase
// DELETE /v1/purchases/:group
func (h *CardsHandler) DeletePurchase(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	groupID, err := uuidParam(c, "group")
	if err != nil {
		return err
	}

	if err := h.ledger.DeletePurchase(c.Context(), userID, groupID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetInvoices handles GET /v1/cards/:id/invoices
func (h *CardsHandler) GetInvoices(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	cardID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	invoices, err := h.ledger.ListInvoices(c.Context(), userID, cardID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"invoices": invoices,
		"count":    len(invoices),
	})
}

// GetInvoice handles GET /v1/invoices/:id
func (h *CardsHandler) GetInvoice(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	invoiceID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	invoice, err := h.ledger.GetInvoice(c.Context(), userID, invoiceID)
	if err != nil {
		return err
	}
	return c.JSON(invoice)
}

// PayInvoiceRequest: amount defaults to the outstanding balance, account to
// the card's payment account.
type PayInvoiceRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	PaymentDate string           `json:"payment_date"`
	AccountID   *string          `json:"account_id"`
}

// PayInvoice handles POST /v1/invoices/:id/pay
func (h *CardsHandler) PayInvoice(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	invoiceID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req PayInvoiceRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return utils.NewBadRequestError("invalid request body", nil)
		}
	}
	paymentDate, err := parseDate("payment_date", req.PaymentDate, h.now())
	if err != nil {
		return err
	}
	accountID, err := parseOptionalUUID("account_id", req.AccountID)
	if err != nil {
		return err
	}

	result, err := h.ledger.PayInvoice(c.Context(), userID, services.PaymentInput{
		InvoiceID:   invoiceID,
		Amount:      req.Amount,
		PaymentDate: paymentDate,
		AccountID:   accountID,
	})
	if err != nil {
		return err
	}

	return c.JSON(result)
}

// RefreshInvoices handles POST /v1/invoices/refresh
func (h *CardsHandler) RefreshInvoices(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	result, err := h.ledger.RefreshInvoiceStatuses(c.Context(), userID, h.now())
	if err != nil {
		return err
	}
	return c.JSON(result)
}
