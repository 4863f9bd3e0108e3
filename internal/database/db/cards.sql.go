package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const createCard = `-- name: CreateCard :one
INSERT INTO cards (id, user_id, nickname, brand, last4, credit_limit, closing_day, due_day, payment_account_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, user_id, nickname, brand, last4, credit_limit, closing_day, due_day, payment_account_id, created_at
`

type CreateCardParams struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	Nickname         string
	Brand            string
	Last4            string
	CreditLimit      decimal.Decimal
	ClosingDay       int16
	DueDay           int16
	PaymentAccountID *uuid.UUID
}

func (q *Queries) CreateCard(ctx context.Context, arg CreateCardParams) (Card, error) {
	row := q.db.QueryRow(ctx, createCard,
		arg.ID,
		arg.UserID,
		arg.Nickname,
		arg.Brand,
		arg.Last4,
		arg.CreditLimit,
		arg.ClosingDay,
		arg.DueDay,
		arg.PaymentAccountID,
	)
	var i Card
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Nickname,
		&i.Brand,
		&i.Last4,
		&i.CreditLimit,
		&i.ClosingDay,
		&i.DueDay,
		&i.PaymentAccountID,
		&i.CreatedAt,
	)
	return i, err
}

const getCard = `-- name: GetCard :one
SELECT id, user_id, nickname, brand, last4, credit_limit, closing_day, due_day, payment_account_id, created_at
FROM cards
WHERE id = $1 AND user_id = $2
`

type GetCardParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) GetCard(ctx context.Context, arg GetCardParams) (Card, error) {
	row := q.db.QueryRow(ctx, getCard, arg.ID, arg.UserID)
	var i Card
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Nickname,
		&i.Brand,
		&i.Last4,
		&i.CreditLimit,
		&i.ClosingDay,
		&i.DueDay,
		&i.PaymentAccountID,
		&i.CreatedAt,
	)
	return i, err
}

const listCards = `-- name: ListCards :many
SELECT id, user_id, nickname, brand, last4, credit_limit, closing_day, due_day, payment_account_id, created_at
FROM cards
WHERE user_id = $1
ORDER BY nickname
`

func (q *Queries) ListCards(ctx context.Context, userID uuid.UUID) ([]Card, error) {
	rows, err := q.db.Query(ctx, listCards, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Card
	for rows.Next() {
		var i Card
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Nickname,
			&i.Brand,
			&i.Last4,
			&i.CreditLimit,
			&i.ClosingDay,
			&i.DueDay,
			&i.PaymentAccountID,
			&i.CreatedAt,
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
