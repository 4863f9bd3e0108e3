package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const invoiceColumns = `id, user_id, card_id, cycle, closing_date, due_date, total_amount, paid_amount, status, created_at, updated_at`

func scanInvoice(row interface{ Scan(...any) error }) (Invoice, error) {
	var i Invoice
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.CardID,
		&i.Cycle,
		&i.ClosingDate,
		&i.DueDate,
		&i.TotalAmount,
		&i.PaidAmount,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const ensureInvoice = `-- name: EnsureInvoice :exec
INSERT INTO invoices (id, user_id, card_id, cycle, closing_date, due_date, status)
VALUES ($1, $2, $3, $4, $5, $6, 'open')
ON CONFLICT (card_id, cycle) DO NOTHING
`

type EnsureInvoiceParams struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	CardID      uuid.UUID
	Cycle       string
	ClosingDate time.Time
	DueDate     time.Time
}

// EnsureInvoice creates the (card, cycle) invoice unless it already exists.
func (q *Queries) EnsureInvoice(ctx context.Context, arg EnsureInvoiceParams) error {
	_, err := q.db.Exec(ctx, ensureInvoice,
		arg.ID,
		arg.UserID,
		arg.CardID,
		arg.Cycle,
		arg.ClosingDate,
		arg.DueDate,
	)
	return err
}

const getInvoiceByCycle = `-- name: GetInvoiceByCycle :one
SELECT ` + invoiceColumns + `
FROM invoices
WHERE card_id = $1 AND cycle = $2
FOR UPDATE
`

type GetInvoiceByCycleParams struct {
	CardID uuid.UUID
	Cycle  string
}

func (q *Queries) GetInvoiceByCycle(ctx context.Context, arg GetInvoiceByCycleParams) (Invoice, error) {
	return scanInvoice(q.db.QueryRow(ctx, getInvoiceByCycle, arg.CardID, arg.Cycle))
}

const getInvoice = `-- name: GetInvoice :one
SELECT ` + invoiceColumns + `
FROM invoices
WHERE id = $1 AND user_id = $2
`

type GetInvoiceParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) GetInvoice(ctx context.Context, arg GetInvoiceParams) (Invoice, error) {
	return scanInvoice(q.db.QueryRow(ctx, getInvoice, arg.ID, arg.UserID))
}

const getInvoiceForUpdate = `-- name: GetInvoiceForUpdate :one
SELECT ` + invoiceColumns + `
FROM invoices
WHERE id = $1 AND user_id = $2
FOR UPDATE
`

type GetInvoiceForUpdateParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) GetInvoiceForUpdate(ctx context.Context, arg GetInvoiceForUpdateParams) (Invoice, error) {
	return scanInvoice(q.db.QueryRow(ctx, getInvoiceForUpdate, arg.ID, arg.UserID))
}

const listInvoicesByCard = `-- name: ListInvoicesByCard :many
SELECT ` + invoiceColumns + `
FROM invoices
WHERE card_id = $1 AND user_id = $2
ORDER BY cycle
`

type ListInvoicesByCardParams struct {
	CardID uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) ListInvoicesByCard(ctx context.Context, arg ListInvoicesByCardParams) ([]Invoice, error) {
	rows, err := q.db.Query(ctx, listInvoicesByCard, arg.CardID, arg.UserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Invoice
	for rows.Next() {
		i, err := scanInvoice(rows)
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

const addInvoiceTotal = `-- name: AddInvoiceTotal :execrows
UPDATE invoices
SET total_amount = total_amount + $2,
    updated_at = NOW()
WHERE id = $1
`

type AddInvoiceTotalParams struct {
	ID    uuid.UUID
	Delta decimal.Decimal
}

func (q *Queries) AddInvoiceTotal(ctx context.Context, arg AddInvoiceTotalParams) (int64, error) {
	result, err := q.db.Exec(ctx, addInvoiceTotal, arg.ID, arg.Delta)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const applyInvoicePayment = `-- name: ApplyInvoicePayment :one
UPDATE invoices
SET paid_amount = paid_amount + $2,
    status = $3,
    updated_at = NOW()
WHERE id = $1
RETURNING ` + invoiceColumns + `
`

type ApplyInvoicePaymentParams struct {
	ID     uuid.UUID
	Amount decimal.Decimal
	Status string
}

func (q *Queries) ApplyInvoicePayment(ctx context.Context, arg ApplyInvoicePaymentParams) (Invoice, error) {
	return scanInvoice(q.db.QueryRow(ctx, applyInvoicePayment, arg.ID, arg.Amount, arg.Status))
}

const closeDueInvoices = `-- name: CloseDueInvoices :execrows
UPDATE invoices
SET status = 'closed',
    updated_at = NOW()
WHERE user_id = $1 AND status = 'open' AND closing_date < $2
`

type CloseDueInvoicesParams struct {
	UserID uuid.UUID
	Today  time.Time
}

func (q *Queries) CloseDueInvoices(ctx context.Context, arg CloseDueInvoicesParams) (int64, error) {
	result, err := q.db.Exec(ctx, closeDueInvoices, arg.UserID, arg.Today)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const markOverdueInvoices = `-- name: MarkOverdueInvoices :execrows
UPDATE invoices
SET status = 'overdue',
    updated_at = NOW()
WHERE user_id = $1 AND status = 'closed' AND due_date < $2 AND paid_amount < total_amount
`

type MarkOverdueInvoicesParams struct {
	UserID uuid.UUID
	Today  time.Time
}

func (q *Queries) MarkOverdueInvoices(ctx context.Context, arg MarkOverdueInvoicesParams) (int64, error) {
	result, err := q.db.Exec(ctx, markOverdueInvoices, arg.UserID, arg.Today)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
