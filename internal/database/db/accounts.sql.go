package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const createAccount = `-- name: CreateAccount :one
INSERT INTO accounts (id, user_id, name, type, opening_balance, current_balance, active)
VALUES ($1, $2, $3, $4, $5, $5, TRUE)
RETURNING id, user_id, name, type, opening_balance, current_balance, active, created_at, updated_at
`

type CreateAccountParams struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Name           string
	Type           string
	OpeningBalance decimal.Decimal
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (Account, error) {
	row := q.db.QueryRow(ctx, createAccount,
		arg.ID,
		arg.UserID,
		arg.Name,
		arg.Type,
		arg.OpeningBalance,
	)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Name,
		&i.Type,
		&i.OpeningBalance,
		&i.CurrentBalance,
		&i.Active,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAccount = `-- name: GetAccount :one
SELECT id, user_id, name, type, opening_balance, current_balance, active, created_at, updated_at
FROM accounts
WHERE id = $1 AND user_id = $2
`

type GetAccountParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) GetAccount(ctx context.Context, arg GetAccountParams) (Account, error) {
	row := q.db.QueryRow(ctx, getAccount, arg.ID, arg.UserID)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Name,
		&i.Type,
		&i.OpeningBalance,
		&i.CurrentBalance,
		&i.Active,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listAccounts = `-- name: ListAccounts :many
SELECT id, user_id, name, type, opening_balance, current_balance, active, created_at, updated_at
FROM accounts
WHERE user_id = $1
ORDER BY name
`

func (q *Queries) ListAccounts(ctx context.Context, userID uuid.UUID) ([]Account, error) {
	rows, err := q.db.Query(ctx, listAccounts, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		var i Account
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Name,
			&i.Type,
			&i.OpeningBalance,
			&i.CurrentBalance,
			&i.Active,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const adjustAccountBalance = `-- name: AdjustAccountBalance :execrows
UPDATE accounts
SET current_balance = current_balance + $2,
    updated_at = NOW()
WHERE id = $1
`

type AdjustAccountBalanceParams struct {
	ID    uuid.UUID
	Delta decimal.Decimal
}

func (q *Queries) AdjustAccountBalance(ctx context.Context, arg AdjustAccountBalanceParams) (int64, error) {
	result, err := q.db.Exec(ctx, adjustAccountBalance, arg.ID, arg.Delta)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const setAccountActive = `-- name: SetAccountActive :execrows
UPDATE accounts
SET active = $3,
    updated_at = NOW()
WHERE id = $1 AND user_id = $2
`

type SetAccountActiveParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Active bool
}

func (q *Queries) SetAccountActive(ctx context.Context, arg SetAccountActiveParams) (int64, error) {
	result, err := q.db.Exec(ctx, setAccountActive, arg.ID, arg.UserID, arg.Active)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
