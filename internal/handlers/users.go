package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/ashmitsharp/erp-api/internal/database/db"
	"github.com/ashmitsharp/erp-api/internal/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserStore interface {
	UpsertUser(ctx context.Context, arg db.UpsertUserParams) (db.User, error)
	UpdateUserByClerkID(ctx context.Context, arg db.UpdateUserByClerkIDParams) (db.User, error)
	GetUserByClerkID(ctx context.Context, clerkUserID string) (db.User, error)
}

type UsersHandler struct {
	users UserStore
}

func NewUsersHandler(users UserStore) *UsersHandler {
	return &UsersHandler{users: users}
}

type CreateUserRequest struct {
	ClerkUserID string `json:"clerk_user_id"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
}

type UpdateUserRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

func optionalName(name string) *string {
	if name = strings.TrimSpace(name); name == "" {
		return nil
	}
	return &name
}

// CreateUser creates or refreshes a tenant (called by Clerk webhook)
func (h *UsersHandler) CreateUser(c fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("Invalid request body", nil)
	}

	if req.ClerkUserID == "" || req.Email == "" {
		return utils.NewBadRequestError("clerk_user_id and email are required", nil)
	}

	user, err := h.users.UpsertUser(c.Context(), db.UpsertUserParams{
		ID:          uuid.New(),
		ClerkUserID: req.ClerkUserID,
		Email:       req.Email,
		FullName:    optionalName(req.FullName),
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// UpdateUser updates an existing user (called by Clerk webhook)
func (h *UsersHandler) UpdateUser(c fiber.Ctx) error {
	clerkUserID := c.Params("id")
	if clerkUserID == "" {
		return utils.NewBadRequestError("user id is required", nil)
	}

	var req UpdateUserRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("Invalid request body", nil)
	}
	if req.Email == "" {
		return utils.NewBadRequestError("email is required", nil)
	}

	user, err := h.users.UpdateUserByClerkID(c.Context(), db.UpdateUserByClerkIDParams{
		ClerkUserID: clerkUserID,
		Email:       req.Email,
		FullName:    optionalName(req.FullName),
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return utils.NewNotFoundError("User")
	}
	if err != nil {
		return err
	}

	return c.JSON(user)
}

// GetUser returns the caller's user row
func (h *UsersHandler) GetUser(c fiber.Ctx) error {
	if user, ok := c.Locals("user").(db.User); ok {
		return c.JSON(user)
	}

	clerkUserID, ok := c.Locals("clerk_user_id").(string)
	if !ok || clerkUserID == "" {
		return utils.NewUnauthorizedError("unauthorized - user not authenticated")
	}

	user, err := h.users.GetUserByClerkID(c.Context(), clerkUserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return utils.NewNotFoundError("User")
	}
	if err != nil {
		return err
	}

	return c.JSON(user)
}
