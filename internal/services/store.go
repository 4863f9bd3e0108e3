package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ashmitsharp/erp-api/internal/apperr"
	"github.com/ashmitsharp/erp-api/internal/database/db"
)

// Store is the persistence surface the services need. *database.Store
// satisfies it; tests use in-memory fakes.
type Store interface {
	db.Querier
	ExecTx(ctx context.Context, fn func(q db.Querier) error) error
}

const uniqueViolation = "23505"

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// lookupErr turns a single-row lookup failure into NotFound or External.
func lookupErr(op, resource string, err error) error {
	if isNoRows(err) {
		return apperr.NotFound(op, resource)
	}
	return apperr.External(op, err)
}

// passThrough keeps already classified errors intact and wraps the rest as
// External.
func passThrough(op string, err error) error {
	if err == nil || apperr.KindOf(err) != "" {
		return err
	}
	return apperr.External(op, err)
}
