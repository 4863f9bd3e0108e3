package db

import (
	"context"

	"github.com/google/uuid"
)

const productColumns = `id, user_id, sku, name, stock_quantity, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (Product, error) {
	var i Product
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Sku,
		&i.Name,
		&i.StockQuantity,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createProduct = `-- name: CreateProduct :one
INSERT INTO products (id, user_id, sku, name, stock_quantity)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + productColumns + `
`

type CreateProductParams struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Sku           string
	Name          string
	StockQuantity int32
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, createProduct,
		arg.ID,
		arg.UserID,
		arg.Sku,
		arg.Name,
		arg.StockQuantity,
	))
}

const listProducts = `-- name: ListProducts :many
SELECT ` + productColumns + `
FROM products
WHERE user_id = $1
ORDER BY sku
`

func (q *Queries) ListProducts(ctx context.Context, userID uuid.UUID) ([]Product, error) {
	rows, err := q.db.Query(ctx, listProducts, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Product
	for rows.Next() {
		i, err := scanProduct(rows)
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

const getProductBySKU = `-- name: GetProductBySKU :one
SELECT ` + productColumns + `
FROM products
WHERE user_id = $1 AND LOWER(sku) = LOWER($2)
ORDER BY (sku = $2) DESC
LIMIT 1
`

type GetProductBySKUParams struct {
	UserID uuid.UUID
	Sku    string
}

// GetProductBySKU matches case-insensitively and prefers the exact spelling
// when the catalog holds case variants.
func (q *Queries) GetProductBySKU(ctx context.Context, arg GetProductBySKUParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, getProductBySKU, arg.UserID, arg.Sku))
}

const setProductStock = `-- name: SetProductStock :execrows
UPDATE products
SET stock_quantity = $3,
    updated_at = NOW()
WHERE id = $1 AND user_id = $2
`

type SetProductStockParams struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	StockQuantity int32
}

func (q *Queries) SetProductStock(ctx context.Context, arg SetProductStockParams) (int64, error) {
	result, err := q.db.Exec(ctx, setProductStock, arg.ID, arg.UserID, arg.StockQuantity)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const createClient = `-- name: CreateClient :one
INSERT INTO clients (id, user_id, name)
VALUES ($1, $2, $3)
RETURNING id, user_id, name, created_at
`

type CreateClientParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Name   string
}

func (q *Queries) CreateClient(ctx context.Context, arg CreateClientParams) (Client, error) {
	row := q.db.QueryRow(ctx, createClient, arg.ID, arg.UserID, arg.Name)
	var i Client
	err := row.Scan(&i.ID, &i.UserID, &i.Name, &i.CreatedAt)
	return i, err
}

const listClients = `-- name: ListClients :many
SELECT id, user_id, name, created_at
FROM clients
WHERE user_id = $1
ORDER BY name
`

func (q *Queries) ListClients(ctx context.Context, userID uuid.UUID) ([]Client, error) {
	rows, err := q.db.Query(ctx, listClients, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Client
	for rows.Next() {
		var i Client
		if err := rows.Scan(&i.ID, &i.UserID, &i.Name, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getClientByName = `-- name: GetClientByName :one
SELECT id, user_id, name, created_at
FROM clients
WHERE user_id = $1 AND LOWER(name) = LOWER($2)
ORDER BY created_at
LIMIT 1
`

type GetClientByNameParams struct {
	UserID uuid.UUID
	Name   string
}

func (q *Queries) GetClientByName(ctx context.Context, arg GetClientByNameParams) (Client, error) {
	row := q.db.QueryRow(ctx, getClientByName, arg.UserID, arg.Name)
	var i Client
	err := row.Scan(&i.ID, &i.UserID, &i.Name, &i.CreatedAt)
	return i, err
}

const getClient = `-- name: GetClient :one
SELECT id, user_id, name, created_at
FROM clients
WHERE id = $1 AND user_id = $2
`

type GetClientParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) GetClient(ctx context.Context, arg GetClientParams) (Client, error) {
	row := q.db.QueryRow(ctx, getClient, arg.ID, arg.UserID)
	var i Client
	err := row.Scan(&i.ID, &i.UserID, &i.Name, &i.CreatedAt)
	return i, err
}
