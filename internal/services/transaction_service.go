package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ashmitsharp/erp-api/internal/apperr"
	"github.com/ashmitsharp/erp-api/internal/database/db"
)

// Transaction kinds and statuses.
const (
	KindCredit   = "credit"
	KindDebit    = "debit"
	KindTransfer = "transfer"

	StatusForecast  = "forecast"
	StatusSettled   = "settled"
	StatusCancelled = "cancelled"
)

var accountTypes = map[string]bool{
	"checking":   true,
	"savings":    true,
	"investment": true,
	"cash":       true,
	"wallet":     true,
}

var categoryKinds = map[string]bool{
	"expense":  true,
	"income":   true,
	"transfer": true,
}

// TransactionService manages accounts, categories and account transactions.
type TransactionService struct {
	store Store
	log   zerolog.Logger
}

func NewTransactionService(store Store, log zerolog.Logger) *TransactionService {
	return &TransactionService{
		store: store,
		log:   log.With().Str("component", "transactions").Logger(),
	}
}

type AccountInput struct {
	Name           string
	Type           string
	OpeningBalance decimal.Decimal
}

func (s *TransactionService) CreateAccount(ctx context.Context, userID uuid.UUID, in AccountInput) (db.Account, error) {
	const op = "CreateAccount"

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return db.Account{}, apperr.Validation(op, "name is required")
	}
	if !accountTypes[in.Type] {
		return db.Account{}, apperr.Validation(op, "invalid account type %q", in.Type)
	}

	account, err := s.store.CreateAccount(ctx, db.CreateAccountParams{
		ID:             uuid.New(),
		UserID:         userID,
		Name:           in.Name,
		Type:           in.Type,
		OpeningBalance: in.OpeningBalance.Round(2),
	})
	if err != nil {
		return db.Account{}, apperr.External(op, err)
	}
	return account, nil
}

func (s *TransactionService) GetAccount(ctx context.Context, userID, accountID uuid.UUID) (db.Account, error) {
	account, err := s.store.GetAccount(ctx, db.GetAccountParams{ID: accountID, UserID: userID})
	if err != nil {
		return db.Account{}, lookupErr("GetAccount", "account", err)
	}
	return account, nil
}

func (s *TransactionService) ListAccounts(ctx context.Context, userID uuid.UUID) ([]db.Account, error) {
	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, apperr.External("ListAccounts", err)
	}
	return accounts, nil
}

func (s *TransactionService) SetAccountActive(ctx context.Context, userID, accountID uuid.UUID, active bool) error {
	n, err := s.store.SetAccountActive(ctx, db.SetAccountActiveParams{ID: accountID, UserID: userID, Active: active})
	if err != nil {
		return apperr.External("SetAccountActive", err)
	}
	if n == 0 {
		return apperr.NotFound("SetAccountActive", "account")
	}
	return nil
}

type CategoryInput struct {
	Name     string
	Kind     string
	ParentID *uuid.UUID
}

// CreateCategory enforces a single level of nesting: a parent cannot itself
// have a parent.
func (s *TransactionService) CreateCategory(ctx context.Context, userID uuid.UUID, in CategoryInput) (db.Category, error) {
	const op = "CreateCategory"

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return db.Category{}, apperr.Validation(op, "name is required")
	}
	if !categoryKinds[in.Kind] {
		return db.Category{}, apperr.Validation(op, "invalid category kind %q", in.Kind)
	}
	if in.ParentID != nil {
		parent, err := s.store.GetCategory(ctx, db.GetCategoryParams{ID: *in.ParentID, UserID: userID})
		if err != nil {
			return db.Category{}, lookupErr(op, "parent category", err)
		}
		if parent.ParentID != nil {
			return db.Category{}, apperr.Validation(op, "categories support a single level of nesting")
		}
		if parent.Kind != in.Kind {
			return db.Category{}, apperr.Validation(op, "category kind must match its parent (%s)", parent.Kind)
		}
	}

	owner := userID
	category, err := s.store.CreateCategory(ctx, db.CreateCategoryParams{
		ID:       uuid.New(),
		UserID:   &owner,
		Name:     in.Name,
		Kind:     in.Kind,
		ParentID: in.ParentID,
	})
	if err != nil {
		return db.Category{}, apperr.External(op, err)
	}
	return category, nil
}

func (s *TransactionService) ListCategories(ctx context.Context, userID uuid.UUID) ([]db.Category, error) {
	categories, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, apperr.External("ListCategories", err)
	}
	return categories, nil
}

// DeleteCategory removes a user category. Global categories are read-only.
func (s *TransactionService) DeleteCategory(ctx context.Context, userID, categoryID uuid.UUID) error {
	n, err := s.store.DeleteCategory(ctx, db.DeleteCategoryParams{ID: categoryID, UserID: userID})
	if err != nil {
		return apperr.External("DeleteCategory", err)
	}
	if n == 0 {
		return apperr.NotFound("DeleteCategory", "category")
	}
	return nil
}

type TransactionInput struct {
	Description          string
	Amount               decimal.Decimal
	Kind                 string
	TxnDate              time.Time
	AccountID            uuid.UUID
	DestinationAccountID *uuid.UUID
	CategoryID           *uuid.UUID
}

// signedAmount stores credits positive and debits/transfers negative on the
// source account.
func signedAmount(kind string, amount decimal.Decimal) decimal.Decimal {
	if kind == KindCredit {
		return amount.Abs()
	}
	return amount.Abs().Neg()
}

// Create records a forecast transaction. Balances move only on Settle.
func (s *TransactionService) Create(ctx context.Context, userID uuid.UUID, in TransactionInput) (db.Transaction, error) {
	const op = "CreateTransaction"

	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		return db.Transaction{}, apperr.Validation(op, "description is required")
	}
	if in.Amount.IsZero() {
		return db.Transaction{}, apperr.Validation(op, "amount cannot be zero")
	}
	if in.TxnDate.IsZero() {
		return db.Transaction{}, apperr.Validation(op, "transaction date is required")
	}
	switch in.Kind {
	case KindCredit, KindDebit:
		if in.DestinationAccountID != nil {
			return db.Transaction{}, apperr.Validation(op, "only transfers take a destination account")
		}
	case KindTransfer:
		if in.DestinationAccountID == nil {
			return db.Transaction{}, apperr.Validation(op, "transfer requires a destination account")
		}
		if *in.DestinationAccountID == in.AccountID {
			return db.Transaction{}, apperr.Validation(op, "transfer destination must differ from source")
		}
	default:
		return db.Transaction{}, apperr.Validation(op, "invalid transaction kind %q", in.Kind)
	}

	if err := s.requireActiveAccount(ctx, op, userID, in.AccountID); err != nil {
		return db.Transaction{}, err
	}
	if in.DestinationAccountID != nil {
		if err := s.requireActiveAccount(ctx, op, userID, *in.DestinationAccountID); err != nil {
			return db.Transaction{}, err
		}
	}
	if in.CategoryID != nil {
		if _, err := s.store.GetCategory(ctx, db.GetCategoryParams{ID: *in.CategoryID, UserID: userID}); err != nil {
			return db.Transaction{}, lookupErr(op, "category", err)
		}
	}

	txn, err := s.store.CreateTransaction(ctx, db.CreateTransactionParams{
		ID:                   uuid.New(),
		UserID:               userID,
		Description:          in.Description,
		Amount:               signedAmount(in.Kind, in.Amount).Round(2),
		Kind:                 in.Kind,
		TxnDate:              in.TxnDate,
		Status:               StatusForecast,
		AccountID:            in.AccountID,
		DestinationAccountID: in.DestinationAccountID,
		CategoryID:           in.CategoryID,
	})
	if err != nil {
		return db.Transaction{}, apperr.External(op, err)
	}
	return txn, nil
}

func (s *TransactionService) requireActiveAccount(ctx context.Context, op string, userID, accountID uuid.UUID) error {
	account, err := s.store.GetAccount(ctx, db.GetAccountParams{ID: accountID, UserID: userID})
	if err != nil {
		return lookupErr(op, "account", err)
	}
	if !account.Active {
		return apperr.Validation(op, "account %s is inactive", account.Name)
	}
	return nil
}

func (s *TransactionService) Get(ctx context.Context, userID, txnID uuid.UUID) (db.Transaction, error) {
	txn, err := s.store.GetTransaction(ctx, db.GetTransactionParams{ID: txnID, UserID: userID})
	if err != nil {
		return db.Transaction{}, lookupErr("GetTransaction", "transaction", err)
	}
	return txn, nil
}

type ListFilter struct {
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

func (s *TransactionService) List(ctx context.Context, userID uuid.UUID, f ListFilter) ([]db.Transaction, error) {
	txns, err := s.store.ListTransactions(ctx, db.ListTransactionsParams{
		UserID: userID,
		From:   f.From,
		To:     f.To,
		Limit:  int32(f.Limit),
		Offset: int32(f.Offset),
	})
	if err != nil {
		return nil, apperr.External("ListTransactions", err)
	}
	return txns, nil
}

type TransactionUpdate struct {
	Description string
	Amount      decimal.Decimal
	TxnDate     time.Time
	CategoryID  *uuid.UUID
}

// Update edits a forecast transaction. Settled and cancelled rows are
// immutable.
func (s *TransactionService) Update(ctx context.Context, userID, txnID uuid.UUID, in TransactionUpdate) (db.Transaction, error) {
	const op = "UpdateTransaction"

	current, err := s.Get(ctx, userID, txnID)
	if err != nil {
		return db.Transaction{}, err
	}
	if current.Status != StatusForecast {
		return db.Transaction{}, apperr.Conflict(op, "only forecast transactions can be changed (status %s)", current.Status)
	}

	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		in.Description = current.Description
	}
	if in.Amount.IsZero() {
		in.Amount = current.Amount
	}
	if in.TxnDate.IsZero() {
		in.TxnDate = current.TxnDate
	}
	if in.CategoryID == nil {
		in.CategoryID = current.CategoryID
	}

	txn, err := s.store.UpdateForecastTransaction(ctx, db.UpdateForecastTransactionParams{
		ID:          txnID,
		UserID:      userID,
		Description: in.Description,
		Amount:      signedAmount(current.Kind, in.Amount).Round(2),
		TxnDate:     in.TxnDate,
		CategoryID:  in.CategoryID,
	})
	if err != nil {
		if isNoRows(err) {
			return db.Transaction{}, apperr.Conflict(op, "transaction is no longer a forecast")
		}
		return db.Transaction{}, apperr.External(op, err)
	}
	return txn, nil
}

// Settle is one-way: the status flip and the balance adjustment commit
// together. Transfers move |amount| from the source to the destination.
func (s *TransactionService) Settle(ctx context.Context, userID, txnID uuid.UUID, settledDate time.Time) (db.Transaction, error) {
	const op = "SettleTransaction"

	var settled db.Transaction
	err := s.store.ExecTx(ctx, func(q db.Querier) error {
		txn, err := q.SettleTransaction(ctx, db.SettleTransactionParams{ID: txnID, UserID: userID, SettledDate: settledDate})
		if err != nil {
			if isNoRows(err) {
				return s.notForecast(ctx, q, op, userID, txnID)
			}
			return apperr.External(op, err)
		}

		if _, err := q.AdjustAccountBalance(ctx, db.AdjustAccountBalanceParams{ID: txn.AccountID, Delta: txn.Amount}); err != nil {
			return apperr.External(op, err)
		}
		if txn.Kind == KindTransfer && txn.DestinationAccountID != nil {
			if _, err := q.AdjustAccountBalance(ctx, db.AdjustAccountBalanceParams{ID: *txn.DestinationAccountID, Delta: txn.Amount.Abs()}); err != nil {
				return apperr.External(op, err)
			}
		}
		settled = txn
		return nil
	})
	if err != nil {
		return db.Transaction{}, passThrough(op, err)
	}

	s.log.Info().Str("transaction_id", settled.ID.String()).Str("amount", settled.Amount.StringFixed(2)).Msg("transaction settled")
	return settled, nil
}

func (s *TransactionService) Cancel(ctx context.Context, userID, txnID uuid.UUID) (db.Transaction, error) {
	const op = "CancelTransaction"

	txn, err := s.store.CancelTransaction(ctx, db.CancelTransactionParams{ID: txnID, UserID: userID})
	if err != nil {
		if isNoRows(err) {
			return db.Transaction{}, s.notForecast(ctx, s.store, op, userID, txnID)
		}
		return db.Transaction{}, apperr.External(op, err)
	}
	return txn, nil
}

// notForecast tells a missing transaction apart from one that already left
// the forecast state.
func (s *TransactionService) notForecast(ctx context.Context, q db.Querier, op string, userID, txnID uuid.UUID) error {
	txn, err := q.GetTransaction(ctx, db.GetTransactionParams{ID: txnID, UserID: userID})
	if err != nil {
		return lookupErr(op, "transaction", err)
	}
	return apperr.Conflict(op, "transaction is %s", txn.Status)
}

type Stats struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
	Count   int64           `json:"count"`
}

// Stats aggregates settled transactions between from and to inclusive.
// Expense is reported as a positive number.
func (s *TransactionService) Stats(ctx context.Context, userID uuid.UUID, from, to time.Time) (Stats, error) {
	const op = "TransactionStats"

	if to.Before(from) {
		return Stats{}, apperr.Validation(op, "to must not be before from")
	}
	row, err := s.store.GetTransactionStats(ctx, db.GetTransactionStatsParams{UserID: userID, From: from, To: to})
	if err != nil {
		return Stats{}, apperr.External(op, err)
	}
	return Stats{
		Income:  row.Income,
		Expense: row.Expense,
		Net:     row.Income.Sub(row.Expense),
		Count:   row.Count,
	}, nil
}
