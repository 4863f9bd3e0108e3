package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ashmitsharp/erp-api/internal/apperr"
	"github.com/ashmitsharp/erp-api/internal/database/db"
)

// SalePayload is the body accepted by the sales ingestion endpoint.
type SalePayload struct {
	SaleDate       string            `json:"sale_date"`
	ClientID       uuid.UUID         `json:"client_id"`
	Channel        string            `json:"channel"`
	IdempotencyKey string            `json:"idempotency_key"`
	Items          []SaleItemPayload `json:"items"`
}

// SaleItemPayload is one sale line. Total is the line total as reported;
// when omitted it is unit_price x quantity.
type SaleItemPayload struct {
	SKU       string           `json:"sku"`
	Quantity  int              `json:"quantity"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	Total     *decimal.Decimal `json:"total,omitempty"`
	Name      string           `json:"name,omitempty"`
}

type SaleRecord struct {
	db.Sale
	Items []db.SaleItem `json:"items"`
}

// SalesService stores sales and answers catalog lookups.
type SalesService struct {
	store          Store
	defaultChannel string
	log            zerolog.Logger
}

func NewSalesService(store Store, defaultChannel string, log zerolog.Logger) *SalesService {
	return &SalesService{
		store:          store,
		defaultChannel: defaultChannel,
		log:            log.With().Str("component", "sales").Logger(),
	}
}

// Register stores a sale and its items atomically. A reused idempotency key
// is a Conflict and leaves the existing sale untouched.
func (s *SalesService) Register(ctx context.Context, userID uuid.UUID, p SalePayload) (SaleRecord, error) {
	const op = "RegisterSale"

	date, err := time.Parse("2006-01-02", strings.TrimSpace(p.SaleDate))
	if err != nil {
		return SaleRecord{}, apperr.Validation(op, "sale_date must be YYYY-MM-DD")
	}
	p.IdempotencyKey = strings.TrimSpace(p.IdempotencyKey)
	if p.IdempotencyKey == "" {
		return SaleRecord{}, apperr.Validation(op, "idempotency_key is required")
	}
	if p.ClientID == uuid.Nil {
		return SaleRecord{}, apperr.Validation(op, "client_id is required")
	}
	if len(p.Items) == 0 {
		return SaleRecord{}, apperr.Validation(op, "at least one item is required")
	}
	if strings.TrimSpace(p.Channel) == "" {
		p.Channel = s.defaultChannel
	}

	total := decimal.Zero
	lineTotals := make([]decimal.Decimal, len(p.Items))
	for i, item := range p.Items {
		if strings.TrimSpace(item.SKU) == "" {
			return SaleRecord{}, apperr.Validation(op, "item %d: sku is required", i+1)
		}
		if item.Quantity <= 0 {
			return SaleRecord{}, apperr.Validation(op, "item %d: quantity must be positive", i+1)
		}
		if item.UnitPrice.IsNegative() {
			return SaleRecord{}, apperr.Validation(op, "item %d: unit_price cannot be negative", i+1)
		}
		line, err := lineTotal(item)
		if err != nil {
			return SaleRecord{}, apperr.Validation(op, "item %d: %s", i+1, err.Error())
		}
		lineTotals[i] = line
		total = total.Add(line)
	}

	if _, err := s.store.GetClient(ctx, db.GetClientParams{ID: p.ClientID, UserID: userID}); err != nil {
		return SaleRecord{}, lookupErr(op, "client", err)
	}

	var record SaleRecord
	err = s.store.ExecTx(ctx, func(q db.Querier) error {
		sale, err := q.CreateSale(ctx, db.CreateSaleParams{
			ID:             uuid.New(),
			UserID:         userID,
			SaleDate:       date,
			ClientID:       p.ClientID,
			Channel:        p.Channel,
			IdempotencyKey: p.IdempotencyKey,
			Total:          total.Round(2),
		})
		if err != nil {
			if isNoRows(err) || isUniqueViolation(err) {
				return apperr.Conflict(op, "sale %s already registered", p.IdempotencyKey)
			}
			return apperr.External(op, err)
		}
		record.Sale = sale

		for i, item := range p.Items {
			name, err := itemName(ctx, q, userID, item)
			if err != nil {
				return err
			}
			saved, err := q.CreateSaleItem(ctx, db.CreateSaleItemParams{
				ID:        uuid.New(),
				SaleID:    sale.ID,
				Sku:       strings.TrimSpace(item.SKU),
				Name:      name,
				Quantity:  int32(item.Quantity),
				UnitPrice: item.UnitPrice.Round(2),
				Total:     lineTotals[i],
			})
			if err != nil {
				return apperr.External(op, err)
			}
			record.Items = append(record.Items, saved)
		}
		return nil
	})
	if err != nil {
		return SaleRecord{}, passThrough(op, err)
	}

	s.log.Debug().Str("idempotency_key", p.IdempotencyKey).Str("total", record.Total.StringFixed(2)).Msg("sale registered")
	return record, nil
}

// GetByKey returns the sale stored under an idempotency key, with its items.
func (s *SalesService) GetByKey(ctx context.Context, userID uuid.UUID, key string) (SaleRecord, error) {
	const op = "GetSaleByKey"

	sale, err := s.store.GetSaleByKey(ctx, db.GetSaleByKeyParams{UserID: userID, IdempotencyKey: strings.TrimSpace(key)})
	if err != nil {
		return SaleRecord{}, lookupErr(op, "sale", err)
	}
	items, err := s.store.ListSaleItems(ctx, sale.ID)
	if err != nil {
		return SaleRecord{}, apperr.External(op, err)
	}
	return SaleRecord{Sale: sale, Items: items}, nil
}

// lineTotal keeps the reported total when it agrees with the unit price.
func lineTotal(item SaleItemPayload) (decimal.Decimal, error) {
	computed := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
	if item.Total == nil {
		return computed, nil
	}
	if item.Total.IsNegative() {
		return decimal.Zero, errors.New("total cannot be negative")
	}
	if !PricesAgree(item.UnitPrice, item.Quantity, *item.Total) {
		return decimal.Zero, fmt.Errorf("total %s does not match %d x %s",
			item.Total.StringFixed(2), item.Quantity, item.UnitPrice.StringFixed(2))
	}
	return item.Total.Round(2), nil
}

// itemName falls back to the catalog name, then the SKU itself.
func itemName(ctx context.Context, q db.Querier, userID uuid.UUID, item SaleItemPayload) (string, error) {
	if name := strings.TrimSpace(item.Name); name != "" {
		return name, nil
	}
	product, err := q.GetProductBySKU(ctx, db.GetProductBySKUParams{UserID: userID, Sku: strings.TrimSpace(item.SKU)})
	if err != nil {
		if isNoRows(err) {
			return strings.TrimSpace(item.SKU), nil
		}
		return "", apperr.External("RegisterSale", err)
	}
	return product.Name, nil
}

func (s *SalesService) List(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]SaleRecord, error) {
	const op = "ListSales"

	sales, err := s.store.ListSales(ctx, db.ListSalesParams{UserID: userID, From: from, To: to})
	if err != nil {
		return nil, apperr.External(op, err)
	}
	records := make([]SaleRecord, 0, len(sales))
	for _, sale := range sales {
		items, err := s.store.ListSaleItems(ctx, sale.ID)
		if err != nil {
			return nil, apperr.External(op, err)
		}
		records = append(records, SaleRecord{Sale: sale, Items: items})
	}
	return records, nil
}

// LookupProduct finds a product by SKU, ignoring case.
func (s *SalesService) LookupProduct(ctx context.Context, userID uuid.UUID, sku string) (db.Product, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return db.Product{}, apperr.Validation("LookupProduct", "sku is required")
	}
	product, err := s.store.GetProductBySKU(ctx, db.GetProductBySKUParams{UserID: userID, Sku: sku})
	if err != nil {
		return db.Product{}, lookupErr("LookupProduct", "product", err)
	}
	return product, nil
}

// LookupClient finds a client by name, ignoring case.
func (s *SalesService) LookupClient(ctx context.Context, userID uuid.UUID, name string) (db.Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return db.Client{}, apperr.Validation("LookupClient", "name is required")
	}
	client, err := s.store.GetClientByName(ctx, db.GetClientByNameParams{UserID: userID, Name: name})
	if err != nil {
		return db.Client{}, lookupErr("LookupClient", "client", err)
	}
	return client, nil
}
