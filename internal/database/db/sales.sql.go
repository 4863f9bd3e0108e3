package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const saleColumns = `id, user_id, sale_date, client_id, channel, idempotency_key, status, total, created_at`

func scanSale(row interface{ Scan(...any) error }) (Sale, error) {
	var i Sale
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.SaleDate,
		&i.ClientID,
		&i.Channel,
		&i.IdempotencyKey,
		&i.Status,
		&i.Total,
		&i.CreatedAt,
	)
	return i, err
}

const createSale = `-- name: CreateSale :one
INSERT INTO sales (id, user_id, sale_date, client_id, channel, idempotency_key, status, total)
VALUES ($1, $2, $3, $4, $5, $6, 'registered', $7)
ON CONFLICT (user_id, idempotency_key) DO NOTHING
RETURNING ` + saleColumns + `
`

type CreateSaleParams struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	SaleDate       time.Time
	ClientID       uuid.UUID
	Channel        string
	IdempotencyKey string
	Total          decimal.Decimal
}

// CreateSale returns pgx.ErrNoRows when the idempotency key was already used.
func (q *Queries) CreateSale(ctx context.Context, arg CreateSaleParams) (Sale, error) {
	return scanSale(q.db.QueryRow(ctx, createSale,
		arg.ID,
		arg.UserID,
		arg.SaleDate,
		arg.ClientID,
		arg.Channel,
		arg.IdempotencyKey,
		arg.Total,
	))
}

const getSaleByKey = `-- name: GetSaleByKey :one
SELECT ` + saleColumns + `
FROM sales
WHERE user_id = $1 AND idempotency_key = $2
`

type GetSaleByKeyParams struct {
	UserID         uuid.UUID
	IdempotencyKey string
}

func (q *Queries) GetSaleByKey(ctx context.Context, arg GetSaleByKeyParams) (Sale, error) {
	return scanSale(q.db.QueryRow(ctx, getSaleByKey, arg.UserID, arg.IdempotencyKey))
}

const listSales = `-- name: ListSales :many
SELECT ` + saleColumns + `
FROM sales
WHERE user_id = $1 AND sale_date BETWEEN $2 AND $3
ORDER BY sale_date, created_at
`

type ListSalesParams struct {
	UserID uuid.UUID
	From   time.Time
	To     time.Time
}

func (q *Queries) ListSales(ctx context.Context, arg ListSalesParams) ([]Sale, error) {
	rows, err := q.db.Query(ctx, listSales, arg.UserID, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Sale
	for rows.Next() {
		i, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createSaleItem = `-- name: CreateSaleItem :one
INSERT INTO sale_items (id, sale_id, sku, name, quantity, unit_price, total)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, sale_id, sku, name, quantity, unit_price, total
`

type CreateSaleItemParams struct {
	ID        uuid.UUID
	SaleID    uuid.UUID
	Sku       string
	Name      string
	Quantity  int32
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

func (q *Queries) CreateSaleItem(ctx context.Context, arg CreateSaleItemParams) (SaleItem, error) {
	row := q.db.QueryRow(ctx, createSaleItem,
		arg.ID,
		arg.SaleID,
		arg.Sku,
		arg.Name,
		arg.Quantity,
		arg.UnitPrice,
		arg.Total,
	)
	var i SaleItem
	err := row.Scan(
		&i.ID,
		&i.SaleID,
		&i.Sku,
		&i.Name,
		&i.Quantity,
		&i.UnitPrice,
		&i.Total,
	)
	return i, err
}

const listSaleItems = `-- name: ListSaleItems :many
SELECT id, sale_id, sku, name, quantity, unit_price, total
FROM sale_items
WHERE sale_id = $1
`

func (q *Queries) ListSaleItems(ctx context.Context, saleID uuid.UUID) ([]SaleItem, error) {
	rows, err := q.db.Query(ctx, listSaleItems, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SaleItem
	for rows.Next() {
		var i SaleItem
		if err := rows.Scan(
			&i.ID,
			&i.SaleID,
			&i.Sku,
			&i.Name,
			&i.Quantity,
			&i.UnitPrice,
			&i.Total,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
