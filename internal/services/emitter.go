package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/client"
	"github.com/google/uuid"

	"github.com/ashmitsharp/erp-api/internal/apperr"
)

// Emitter submits one sale. Implementations return an apperr Conflict when
// the idempotency key was already ingested.
type Emitter interface {
	EmitSale(ctx context.Context, userID uuid.UUID, p SalePayload) error
}

// HTTPEmitter posts sales to the ingestion API.
type HTTPEmitter struct {
	client  *client.Client
	baseURL string
}

func NewHTTPEmitter(baseURL, token string, timeout time.Duration) *HTTPEmitter {
	cc := client.New()
	cc.SetTimeout(timeout)
	if token != "" {
		cc.SetHeader(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return &HTTPEmitter{
		client:  cc,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// EmitSale ignores userID: the token decides the tenant on the server.
func (e *HTTPEmitter) EmitSale(ctx context.Context, _ uuid.UUID, p SalePayload) error {
	const op = "EmitSale"

	resp, err := e.client.R().
		SetContext(ctx).
		SetJSON(p).
		Post(e.baseURL + "/sales")
	if err != nil {
		return apperr.External(op, err)
	}
	defer resp.Close()

	switch status := resp.StatusCode(); {
	case status == fiber.StatusConflict:
		return apperr.Conflict(op, "sale %s already registered", p.IdempotencyKey)
	case status == fiber.StatusBadRequest:
		return apperr.Validation(op, "%s", responseMessage(resp.Body(), status))
	case status == fiber.StatusNotFound:
		return apperr.Validation(op, "%s", responseMessage(resp.Body(), status))
	case status >= 300:
		return apperr.External(op, fmt.Errorf("ingestion API: %s", responseMessage(resp.Body(), status)))
	}
	return nil
}

// responseMessage pulls "message" or "error" out of an error body.
func responseMessage(body []byte, status int) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return fmt.Sprintf("status %d", status)
}

// SaleRegistrar is satisfied by *SalesService.
type SaleRegistrar interface {
	Register(ctx context.Context, userID uuid.UUID, p SalePayload) (SaleRecord, error)
}

// StoreEmitter writes sales straight to the database. The server-side import
// uses it instead of calling its own HTTP API.
type StoreEmitter struct {
	sales SaleRegistrar
}

func NewStoreEmitter(sales SaleRegistrar) *StoreEmitter {
	return &StoreEmitter{sales: sales}
}

func (e *StoreEmitter) EmitSale(ctx context.Context, userID uuid.UUID, p SalePayload) error {
	_, err := e.sales.Register(ctx, userID, p)
	return err
}
