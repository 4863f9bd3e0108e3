package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const invoiceItemColumns = `id, invoice_id, description, amount, purchase_date, installment_index, installment_count, group_id, category_id, created_at`

func scanInvoiceItem(row interface{ Scan(...any) error }) (InvoiceItem, error) {
	var i InvoiceItem
	err := row.Scan(
		&i.ID,
		&i.InvoiceID,
		&i.Description,
		&i.Amount,
		&i.PurchaseDate,
		&i.InstallmentIndex,
		&i.InstallmentCount,
		&i.GroupID,
		&i.CategoryID,
		&i.CreatedAt,
	)
	return i, err
}

const createInvoiceItem = `-- name: CreateInvoiceItem :one
INSERT INTO invoice_items (id, invoice_id, description, amount, purchase_date, installment_index, installment_count, group_id, category_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + invoiceItemColumns + `
`

type CreateInvoiceItemParams struct {
	ID               uuid.UUID
	InvoiceID        uuid.UUID
	Description      string
	Amount           decimal.Decimal
	PurchaseDate     time.Time
	InstallmentIndex *int16
	InstallmentCount *int16
	GroupID          *uuid.UUID
	CategoryID       *uuid.UUID
}

func (q *Queries) CreateInvoiceItem(ctx context.Context, arg CreateInvoiceItemParams) (InvoiceItem, error) {
	return scanInvoiceItem(q.db.QueryRow(ctx, createInvoiceItem,
		arg.ID,
		arg.InvoiceID,
		arg.Description,
		arg.Amount,
		arg.PurchaseDate,
		arg.InstallmentIndex,
		arg.InstallmentCount,
		arg.GroupID,
		arg.CategoryID,
	))
}

const listInvoiceItems = `-- name: ListInvoiceItems :many
SELECT ` + invoiceItemColumns + `
FROM invoice_items
WHERE invoice_id = $1
ORDER BY purchase_date, created_at
`

func (q *Queries) ListInvoiceItems(ctx context.Context, invoiceID uuid.UUID) ([]InvoiceItem, error) {
	return q.listItems(ctx, listInvoiceItems, invoiceID)
}

const listItemsByGroup = `-- name: ListItemsByGroup :many
SELECT ` + invoiceItemColumns + `
FROM invoice_items
WHERE group_id = $1
ORDER BY installment_index
`

func (q *Queries) ListItemsByGroup(ctx context.Context, groupID uuid.UUID) ([]InvoiceItem, error) {
	return q.listItems(ctx, listItemsByGroup, groupID)
}

func (q *Queries) listItems(ctx context.Context, query string, id uuid.UUID) ([]InvoiceItem, error) {
	rows, err := q.db.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []InvoiceItem
	for rows.Next() {
		i, err := scanInvoiceItem(rows)
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

const deleteInvoiceItem = `-- name: DeleteInvoiceItem :execrows
DELETE FROM invoice_items
WHERE id = $1
`

func (q *Queries) DeleteInvoiceItem(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deleteInvoiceItem, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
