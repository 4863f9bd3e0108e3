package handlers

import (
	"strconv"
	"time"

	"github.com/ashmitsharp/erp-api/internal/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// currentUserID returns the tenant id set by middleware.ResolveUser.
func currentUserID(c fiber.Ctx) (uuid.UUID, error) {
	userID, ok := c.Locals("user_id").(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, utils.NewUnauthorizedError("unauthorized - user_id not found")
	}
	return userID, nil
}

func uuidParam(c fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, utils.NewBadRequestError("invalid "+name, nil)
	}
	return id, nil
}

// parseDate parses a YYYY-MM-DD field. Empty input yields def.
func parseDate(field, value string, def time.Time) (time.Time, error) {
	if value == "" {
		return def, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, utils.NewBadRequestError("invalid "+field+", expected YYYY-MM-DD", nil)
	}
	return t, nil
}

func parseOptionalUUID(field string, value *string) (*uuid.UUID, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*value)
	if err != nil {
		return nil, utils.NewBadRequestError("invalid "+field, nil)
	}
	return &id, nil
}

// dateRange reads from/to query params, defaulting to the last 12 months.
func dateRange(c fiber.Ctx, now time.Time) (time.Time, time.Time, error) {
	to, err := parseDate("to", c.Query("to"), now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	from, err := parseDate("from", c.Query("from"), to.AddDate(-1, 0, 0))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, utils.NewBadRequestError("from must not be after to", nil)
	}
	return from, to, nil
}

func queryInt(c fiber.Ctx, name string, def, min, max int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < min || v > max {
		return def
	}
	return v
}

func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
