package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, user_id, description, amount, kind, txn_date, settled_date, status, account_id, destination_account_id, category_id, invoice_id, created_at, updated_at`

func scanTransaction(row interface{ Scan(...any) error }) (Transaction, error) {
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Description,
		&i.Amount,
		&i.Kind,
		&i.TxnDate,
		&i.SettledDate,
		&i.Status,
		&i.AccountID,
		&i.DestinationAccountID,
		&i.CategoryID,
		&i.InvoiceID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createTransaction = `-- name: CreateTransaction :one
INSERT INTO transactions (id, user_id, description, amount, kind, txn_date, settled_date, status, account_id, destination_account_id, category_id, invoice_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING ` + transactionColumns + `
`

type CreateTransactionParams struct {
	ID                   uuid.UUID
	UserID               uuid.UUID
	Description          string
	Amount               decimal.Decimal
	Kind                 string
	TxnDate              time.Time
	SettledDate          *time.Time
	Status               string
	AccountID            uuid.UUID
	DestinationAccountID *uuid.UUID
	CategoryID           *uuid.UUID
	InvoiceID            *uuid.UUID
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	return scanTransaction(q.db.QueryRow(ctx, createTransaction,
		arg.ID,
		arg.UserID,
		arg.Description,
		arg.Amount,
		arg.Kind,
		arg.TxnDate,
		arg.SettledDate,
		arg.Status,
		arg.AccountID,
		arg.DestinationAccountID,
		arg.CategoryID,
		arg.InvoiceID,
	))
}

const getTransaction = `-- name: GetTransaction :one
SELECT ` + transactionColumns + `
FROM transactions
WHERE id = $1 AND user_id = $2
`

type GetTransactionParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) GetTransaction(ctx context.Context, arg GetTransactionParams) (Transaction, error) {
	return scanTransaction(q.db.QueryRow(ctx, getTransaction, arg.ID, arg.UserID))
}

const listTransactions = `-- name: ListTransactions :many
SELECT ` + transactionColumns + `
FROM transactions
WHERE user_id = $1 AND txn_date BETWEEN $2 AND $3
ORDER BY txn_date DESC, created_at DESC
LIMIT $4 OFFSET $5
`

type ListTransactionsParams struct {
	UserID uuid.UUID
	From   time.Time
	To     time.Time
	Limit  int32
	Offset int32
}

func (q *Queries) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, listTransactions, arg.UserID, arg.From, arg.To, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		i, err := scanTransaction(rows)
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

const updateForecastTransaction = `-- name: UpdateForecastTransaction :one
UPDATE transactions
SET description = $3,
    amount = $4,
    txn_date = $5,
    category_id = $6,
    updated_at = NOW()
WHERE id = $1 AND user_id = $2 AND status = 'forecast'
RETURNING ` + transactionColumns + `
`

type UpdateForecastTransactionParams struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Description string
	Amount      decimal.Decimal
	TxnDate     time.Time
	CategoryID  *uuid.UUID
}

// UpdateForecastTransaction returns pgx.ErrNoRows when the row is not a
// forecast.
func (q *Queries) UpdateForecastTransaction(ctx context.Context, arg UpdateForecastTransactionParams) (Transaction, error) {
	return scanTransaction(q.db.QueryRow(ctx, updateForecastTransaction,
		arg.ID,
		arg.UserID,
		arg.Description,
		arg.Amount,
		arg.TxnDate,
		arg.CategoryID,
	))
}

const settleTransaction = `-- name: SettleTransaction :one
UPDATE transactions
SET status = 'settled',
    settled_date = $3,
    updated_at = NOW()
WHERE id = $1 AND user_id = $2 AND status = 'forecast'
RETURNING ` + transactionColumns + `
`

type SettleTransactionParams struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	SettledDate time.Time
}

func (q *Queries) SettleTransaction(ctx context.Context, arg SettleTransactionParams) (Transaction, error) {
	return scanTransaction(q.db.QueryRow(ctx, settleTransaction, arg.ID, arg.UserID, arg.SettledDate))
}

const cancelTransaction = `-- name: CancelTransaction :one
UPDATE transactions
SET status = 'cancelled',
    updated_at = NOW()
WHERE id = $1 AND user_id = $2 AND status = 'forecast'
RETURNING ` + transactionColumns + `
`

type CancelTransactionParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) CancelTransaction(ctx context.Context, arg CancelTransactionParams) (Transaction, error) {
	return scanTransaction(q.db.QueryRow(ctx, cancelTransaction, arg.ID, arg.UserID))
}

const getTransactionStats = `-- name: GetTransactionStats :one
SELECT
    COALESCE(SUM(amount) FILTER (WHERE kind = 'credit'), 0)::NUMERIC(14,2) AS income,
    COALESCE(SUM(-amount) FILTER (WHERE kind = 'debit'), 0)::NUMERIC(14,2) AS expense,
    COUNT(*) AS count
FROM transactions
WHERE user_id = $1
  AND status = 'settled'
  AND txn_date BETWEEN $2 AND $3
`

type GetTransactionStatsParams struct {
	UserID uuid.UUID
	From   time.Time
	To     time.Time
}

type GetTransactionStatsRow struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Count   int64
}

func (q *Queries) GetTransactionStats(ctx context.Context, arg GetTransactionStatsParams) (GetTransactionStatsRow, error) {
	row := q.db.QueryRow(ctx, getTransactionStats, arg.UserID, arg.From, arg.To)
	var i GetTransactionStatsRow
	err := row.Scan(&i.Income, &i.Expense, &i.Count)
	return i, err
}
