package middleware

import (
	"context"
	"errors"

	"github.com/ashmitsharp/erp-api/internal/database/db"
	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5"
)

type UserLookup interface {
	GetUserByClerkID(ctx context.Context, clerkUserID string) (db.User, error)
}

// ResolveUser maps the Clerk subject set by ClerkAuth onto the local users
// row. Handlers read Locals("user_id") as a uuid.UUID and Locals("user") as a
// db.User.
func ResolveUser(users UserLookup) fiber.Handler {
	return func(c fiber.Ctx) error {
		clerkUserID, ok := c.Locals("clerk_user_id").(string)
		if !ok || clerkUserID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized - user not authenticated",
			})
		}

		user, err := users.GetUserByClerkID(c.Context(), clerkUserID)
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "user is not registered",
			})
		}
		if err != nil {
			return err
		}

		c.Locals("user_id", user.ID)
		c.Locals("user", user)
		return c.Next()
	}
}

// RequireAdmin lets only admin users through. It must run after ResolveUser.
func RequireAdmin() fiber.Handler {
	return func(c fiber.Ctx) error {
		user, ok := c.Locals("user").(db.User)
		if !ok || !user.IsAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "admin access required",
			})
		}
		return c.Next()
	}
}
