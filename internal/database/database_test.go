package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashmitsharp/erp-api/internal/database/db"
)

// testPool connects to TEST_DATABASE_URL and applies the schema. Tests that
// need it are skipped when the variable is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool))
	return pool
}

// testQueries runs every statement in a transaction that is rolled back at
// the end of the test.
func testQueries(t *testing.T) (*db.Queries, db.User) {
	t.Helper()

	pool := testPool(t)
	ctx := context.Background()
	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })

	q := db.New(tx)
	user, err := q.UpsertUser(ctx, db.UpsertUserParams{
		ID:          uuid.New(),
		ClerkUserID: "user_" + uuid.NewString(),
		Email:       "loja@example.com",
	})
	require.NoError(t, err)
	return q, user
}

func TestQueries_InvoiceCycleIsUniquePerCard(t *testing.T) {
	q, user := testQueries(t)
	ctx := context.Background()

	card, err := q.CreateCard(ctx, db.CreateCardParams{
		ID:          uuid.New(),
		UserID:      user.ID,
		Nickname:    "Nubank",
		Brand:       "mastercard",
		Last4:       "1234",
		CreditLimit: decimal.RequireFromString("5000"),
		ClosingDay:  3,
		DueDay:      10,
	})
	require.NoError(t, err)

	closing := time.Date(2024, time.November, 3, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		err := q.EnsureInvoice(ctx, db.EnsureInvoiceParams{
			ID:          uuid.New(),
			UserID:      user.ID,
			CardID:      card.ID,
			Cycle:       "2024-11",
			ClosingDate: closing,
			DueDate:     closing.AddDate(0, 0, 7),
		})
		require.NoError(t, err, "second ensure is a no-op")
	}

	invoice, err := q.GetInvoiceByCycle(ctx, db.GetInvoiceByCycleParams{CardID: card.ID, Cycle: "2024-11"})
	require.NoError(t, err)
	assert.Equal(t, "open", invoice.Status)
	assert.True(t, invoice.TotalAmount.IsZero())

	for _, delta := range []string{"120.50", "79.50"} {
		n, err := q.AddInvoiceTotal(ctx, db.AddInvoiceTotalParams{ID: invoice.ID, Delta: decimal.RequireFromString(delta)})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	}

	invoice, err = q.GetInvoiceByCycle(ctx, db.GetInvoiceByCycleParams{CardID: card.ID, Cycle: "2024-11"})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("200").Equal(invoice.TotalAmount), "got %s", invoice.TotalAmount)
}

func TestQueries_CreateSaleIgnoresRepeatedKey(t *testing.T) {
	q, user := testQueries(t)
	ctx := context.Background()

	client, err := q.CreateClient(ctx, db.CreateClientParams{ID: uuid.New(), UserID: user.ID, Name: "Loja Centro"})
	require.NoError(t, err)

	params := db.CreateSaleParams{
		ID:             uuid.New(),
		UserID:         user.ID,
		SaleDate:       time.Date(2024, time.November, 5, 0, 0, 0, 0, time.UTC),
		ClientID:       client.ID,
		Channel:        "whatsapp",
		IdempotencyKey: "VENDAS-20241105-CH206-4",
		Total:          decimal.RequireFromString("100"),
	}
	first, err := q.CreateSale(ctx, params)
	require.NoError(t, err)

	params.ID = uuid.New()
	params.Total = decimal.RequireFromString("999")
	_, err = q.CreateSale(ctx, params)
	assert.True(t, errors.Is(err, pgx.ErrNoRows), "a repeated key inserts nothing: %v", err)

	stored, err := q.GetSaleByKey(ctx, db.GetSaleByKeyParams{UserID: user.ID, IdempotencyKey: params.IdempotencyKey})
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
	assert.True(t, decimal.RequireFromString("100").Equal(stored.Total))
}

func TestQueries_TransactionStatsCountsSettledOnly(t *testing.T) {
	q, user := testQueries(t)
	ctx := context.Background()

	account, err := q.CreateAccount(ctx, db.CreateAccountParams{
		ID:             uuid.New(),
		UserID:         user.ID,
		Name:           "Conta Corrente",
		Type:           "checking",
		OpeningBalance: decimal.Zero,
	})
	require.NoError(t, err)

	day := time.Date(2024, time.November, 5, 0, 0, 0, 0, time.UTC)
	create := func(kind, amount, status string) db.Transaction {
		var settled *time.Time
		if status == "settled" {
			settled = &day
		}
		txn, err := q.CreateTransaction(ctx, db.CreateTransactionParams{
			ID:          uuid.New(),
			UserID:      user.ID,
			Description: kind + " " + amount,
			Amount:      decimal.RequireFromString(amount),
			Kind:        kind,
			TxnDate:     day,
			SettledDate: settled,
			Status:      status,
			AccountID:   account.ID,
		})
		require.NoError(t, err)
		return txn
	}

	create("credit", "300", "settled")
	create("debit", "-40", "settled")
	pending := create("debit", "-25", "forecast")
	create("credit", "1000", "forecast")

	stats, err := q.GetTransactionStats(ctx, db.GetTransactionStatsParams{UserID: user.ID, From: day, To: day})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("300").Equal(stats.Income), "income %s", stats.Income)
	assert.True(t, decimal.RequireFromString("40").Equal(stats.Expense), "expense %s", stats.Expense)
	assert.Equal(t, int64(2), stats.Count)

	_, err = q.SettleTransaction(ctx, db.SettleTransactionParams{ID: pending.ID, UserID: user.ID, SettledDate: day})
	require.NoError(t, err)

	stats, err = q.GetTransactionStats(ctx, db.GetTransactionStatsParams{UserID: user.ID, From: day, To: day})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("65").Equal(stats.Expense), "expense %s", stats.Expense)
	assert.Equal(t, int64(3), stats.Count)
}

func TestStore_ExecTxRollsBack(t *testing.T) {
	pool := testPool(t)
	store := NewStore(pool)
	ctx := context.Background()
	clerkID := "user_" + uuid.NewString()
	errAbort := errors.New("abort")

	err := store.ExecTx(ctx, func(q db.Querier) error {
		if _, err := q.UpsertUser(ctx, db.UpsertUserParams{ID: uuid.New(), ClerkUserID: clerkID, Email: "x@example.com"}); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	_, err = store.GetUserByClerkID(ctx, clerkID)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}
