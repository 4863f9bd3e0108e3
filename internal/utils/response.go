package utils

import "github.com/gofiber/fiber/v3"

// SuccessResponse sends a standardized success response
func SuccessResponse(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// CreatedResponse sends data with status 201.
func CreatedResponse(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// PaginatedResponse sends one page of a limit/offset listing. count is the
// number of items on this page; has_more is true when the page was full.
func PaginatedResponse(c fiber.Ctx, data any, limit, offset, count int) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"pagination": fiber.Map{
			"limit":    limit,
			"offset":   offset,
			"count":    count,
			"has_more": count == limit,
		},
	})
}
