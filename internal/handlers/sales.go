package handlers

import (
	"context"
	"time"

	"github.com/ashmitsharp/erp-api/internal/apperr"
	"github.com/ashmitsharp/erp-api/internal/database/db"
	"github.com/ashmitsharp/erp-api/internal/services"
	"github.com/ashmitsharp/erp-api/internal/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type SalesService interface {
	Register(ctx context.Context, userID uuid.UUID, p services.SalePayload) (services.SaleRecord, error)
	GetByKey(ctx context.Context, userID uuid.UUID, key string) (services.SaleRecord, error)
	List(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]services.SaleRecord, error)
	LookupProduct(ctx context.Context, userID uuid.UUID, sku string) (db.Product, error)
	LookupClient(ctx context.Context, userID uuid.UUID, name string) (db.Client, error)
}

// SalesHandler is the sales ingestion API the import CLI posts to.
type SalesHandler struct {
	sales SalesService
}

func NewSalesHandler(sales SalesService) *SalesHandler {
	return &SalesHandler{sales: sales}
}

// RegisterSale handles POST /v1/sales. A repeated idempotency key answers
// 409 with code DUPLICATE, carrying the stored sale in details.
func (h *SalesHandler) RegisterSale(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var payload services.SalePayload
	if err := c.Bind().JSON(&payload); err != nil {
		return utils.NewBadRequestError("invalid request body", nil)
	}

	record, err := h.sales.Register(c.Context(), userID, payload)
	if apperr.IsConflict(err) {
		conflict := utils.NewConflictError("DUPLICATE", apperr.Message(err))
		if existing, lookupErr := h.sales.GetByKey(c.Context(), userID, payload.IdempotencyKey); lookupErr == nil {
			conflict.Details = fiber.Map{"sale": existing}
		}
		return conflict
	}
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"sale": record})
}

// GetSales handles GET /v1/sales?from=&to=
func (h *SalesHandler) GetSales(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	from, to, err := dateRange(c, today())
	if err != nil {
		return err
	}

	sales, err := h.sales.List(c.Context(), userID, from, to)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"sales": sales,
		"count": len(sales),
		"from":  from.Format(dateLayout),
		"to":    to.Format(dateLayout),
	})
}

// LookupProduct handles GET /v1/products/lookup?sku=
func (h *SalesHandler) LookupProduct(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	product, err := h.sales.LookupProduct(c.Context(), userID, c.Query("sku"))
	if err != nil {
		return err
	}
	return c.JSON(product)
}

// LookupClient handles GET /v1/clients/lookup?name=
func (h *SalesHandler) LookupClient(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	client, err := h.sales.LookupClient(c.Context(), userID, c.Query("name"))
	if err != nil {
		return err
	}
	return c.JSON(client)
}
