package handlers

import (
	"context"

	"github.com/ashmitsharp/erp-api/internal/database/db"
	"github.com/ashmitsharp/erp-api/internal/services"
	"github.com/ashmitsharp/erp-api/internal/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type CatalogService interface {
	CreateClient(ctx context.Context, userID uuid.UUID, name string) (db.Client, error)
	CreateProduct(ctx context.Context, userID uuid.UUID, in services.ProductInput) (db.Product, error)
}

// CatalogHandler maintains the clients and products that sales resolve
// against. Mounted behind RequireAdmin.
type CatalogHandler struct {
	catalog CatalogService
}

func NewCatalogHandler(catalog CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

type CreateClientRequest struct {
	Name string `json:"name"`
}

type CreateProductRequest struct {
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	StockQuantity int    `json:"stock_quantity"`
}

// CreateClient handles POST /v1/clients
func (h *CatalogHandler) CreateClient(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req CreateClientRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("invalid request body", nil)
	}

	client, err := h.catalog.CreateClient(c.Context(), userID, req.Name)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(client)
}

// CreateProduct handles POST /v1/products
func (h *CatalogHandler) CreateProduct(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req CreateProductRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("invalid request body", nil)
	}

	product, err := h.catalog.CreateProduct(c.Context(), userID, services.ProductInput{
		SKU:           req.SKU,
		Name:          req.Name,
		StockQuantity: req.StockQuantity,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(product)
}
