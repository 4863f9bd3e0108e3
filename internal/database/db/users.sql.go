package db

import (
	"context"

	"github.com/google/uuid"
)

const upsertUser = `-- name: UpsertUser :one
INSERT INTO users (id, clerk_user_id, email, full_name, is_admin)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (clerk_user_id) DO UPDATE
SET email = EXCLUDED.email,
    full_name = EXCLUDED.full_name,
    is_admin = users.is_admin OR EXCLUDED.is_admin,
    updated_at = NOW()
RETURNING id, clerk_user_id, email, full_name, is_admin, created_at, updated_at
`

type UpsertUserParams struct {
	ID          uuid.UUID
	ClerkUserID string
	Email       string
	FullName    *string
	IsAdmin     bool
}

func (q *Queries) UpsertUser(ctx context.Context, arg UpsertUserParams) (User, error) {
	row := q.db.QueryRow(ctx, upsertUser,
		arg.ID,
		arg.ClerkUserID,
		arg.Email,
		arg.FullName,
		arg.IsAdmin,
	)
	var i User
	err := row.Scan(
		&i.ID,
		&i.ClerkUserID,
		&i.Email,
		&i.FullName,
		&i.IsAdmin,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getUserByClerkID = `-- name: GetUserByClerkID :one
SELECT id, clerk_user_id, email, full_name, is_admin, created_at, updated_at
FROM users
WHERE clerk_user_id = $1
`

func (q *Queries) GetUserByClerkID(ctx context.Context, clerkUserID string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByClerkID, clerkUserID)
	var i User
	err := row.Scan(
		&i.ID,
		&i.ClerkUserID,
		&i.Email,
		&i.FullName,
		&i.IsAdmin,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateUserByClerkID = `-- name: UpdateUserByClerkID :one
UPDATE users
SET email = $2,
    full_name = $3,
    updated_at = NOW()
WHERE clerk_user_id = $1
RETURNING id, clerk_user_id, email, full_name, is_admin, created_at, updated_at
`

type UpdateUserByClerkIDParams struct {
	ClerkUserID string
	Email       string
	FullName    *string
}

func (q *Queries) UpdateUserByClerkID(ctx context.Context, arg UpdateUserByClerkIDParams) (User, error) {
	row := q.db.QueryRow(ctx, updateUserByClerkID, arg.ClerkUserID, arg.Email, arg.FullName)
	var i User
	err := row.Scan(
		&i.ID,
		&i.ClerkUserID,
		&i.Email,
		&i.FullName,
		&i.IsAdmin,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
