package handlers

import (
	"context"

	"github.com/ashmitsharp/erp-api/internal/database/db"
	"github.com/ashmitsharp/erp-api/internal/services"
	"github.com/ashmitsharp/erp-api/internal/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type CategoryService interface {
	CreateCategory(ctx context.Context, userID uuid.UUID, in services.CategoryInput) (db.Category, error)
	ListCategories(ctx context.Context, userID uuid.UUID) ([]db.Category, error)
	DeleteCategory(ctx context.Context, userID, categoryID uuid.UUID) error
}

// CategoriesHandler handles category management. Global categories are
// listed alongside the tenant's own but cannot be changed.
type CategoriesHandler struct {
	categories CategoryService
}

func NewCategoriesHandler(categories CategoryService) *CategoriesHandler {
	return &CategoriesHandler{categories: categories}
}

type CreateCategoryRequest struct {
	Name     string  `json:"name"`
	Kind     string  `json:"kind"`
	ParentID *string `json:"parent_id"`
}

// GetCategories handles GET /v1/categories?kind=income|expense&scope=all|user|global
func (h *CategoriesHandler) GetCategories(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	scope := c.Query("scope", "all")
	if scope != "all" && scope != "user" && scope != "global" {
		return utils.NewBadRequestError("scope must be one of: all, user, global", nil)
	}
	kind := c.Query("kind")

	categories, err := h.categories.ListCategories(c.Context(), userID)
	if err != nil {
		return err
	}

	filtered := make([]db.Category, 0, len(categories))
	for _, cat := range categories {
		if kind != "" && cat.Kind != kind {
			continue
		}
		if (scope == "user" && cat.IsGlobal) || (scope == "global" && !cat.IsGlobal) {
			continue
		}
		filtered = append(filtered, cat)
	}

	return c.JSON(fiber.Map{
		"categories": filtered,
		"count":      len(filtered),
	})
}

// CreateCategory handles POST /v1/categories
func (h *CategoriesHandler) CreateCategory(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req CreateCategoryRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("invalid request body", nil)
	}
	parentID, err := parseOptionalUUID("parent_id", req.ParentID)
	if err != nil {
		return err
	}

	category, err := h.categories.CreateCategory(c.Context(), userID, services.CategoryInput{
		Name:     req.Name,
		Kind:     req.Kind,
		ParentID: parentID,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(category)
}

// DeleteCategory handles DELETE /v1/categories/:id
func (h *CategoriesHandler) DeleteCategory(c fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	categoryID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.categories.DeleteCategory(c.Context(), userID, categoryID); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
