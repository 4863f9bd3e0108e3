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
	"github.com/ashmitsharp/erp-api/internal/ledger"
)

// Invoice statuses.
const (
	InvoiceOpen    = "open"
	InvoiceClosed  = "closed"
	InvoicePaid    = "paid"
	InvoiceOverdue = "overdue"
)

// LedgerService owns cards, invoices and installment purchases.
type LedgerService struct {
	store           Store
	maxInstallments int
	log             zerolog.Logger
}

func NewLedgerService(store Store, maxInstallments int, log zerolog.Logger) *LedgerService {
	if maxInstallments < 1 {
		maxInstallments = ledger.DefaultMaxInstallments
	}
	return &LedgerService{
		store:           store,
		maxInstallments: maxInstallments,
		log:             log.With().Str("component", "ledger").Logger(),
	}
}

type CardInput struct {
	Nickname         string
	Brand            string
	Last4            string
	CreditLimit      decimal.Decimal
	ClosingDay       int
	DueDay           int
	PaymentAccountID *uuid.UUID
}

func (s *LedgerService) CreateCard(ctx context.Context, userID uuid.UUID, in CardInput) (db.Card, error) {
	const op = "CreateCard"

	in.Nickname = strings.TrimSpace(in.Nickname)
	if in.Nickname == "" {
		return db.Card{}, apperr.Validation(op, "nickname is required")
	}
	if !isLast4(in.Last4) {
		return db.Card{}, apperr.Validation(op, "last4 must be exactly 4 digits")
	}
	if in.CreditLimit.IsNegative() {
		return db.Card{}, apperr.Validation(op, "credit limit cannot be negative")
	}
	if err := ledger.ValidateCardDays(in.ClosingDay, in.DueDay); err != nil {
		return db.Card{}, err
	}
	if in.DueDay <= in.ClosingDay {
		return db.Card{}, apperr.Validation(op, "due day must be after closing day")
	}
	if in.PaymentAccountID != nil {
		if _, err := s.store.GetAccount(ctx, db.GetAccountParams{ID: *in.PaymentAccountID, UserID: userID}); err != nil {
			return db.Card{}, lookupErr(op, "payment account", err)
		}
	}

	card, err := s.store.CreateCard(ctx, db.CreateCardParams{
		ID:               uuid.New(),
		UserID:           userID,
		Nickname:         in.Nickname,
		Brand:            strings.TrimSpace(in.Brand),
		Last4:            in.Last4,
		CreditLimit:      in.CreditLimit,
		ClosingDay:       int16(in.ClosingDay),
		DueDay:           int16(in.DueDay),
		PaymentAccountID: in.PaymentAccountID,
	})
	if err != nil {
		return db.Card{}, apperr.External(op, err)
	}
	return card, nil
}

func (s *LedgerService) GetCard(ctx context.Context, userID, cardID uuid.UUID) (db.Card, error) {
	card, err := s.store.GetCard(ctx, db.GetCardParams{ID: cardID, UserID: userID})
	if err != nil {
		return db.Card{}, lookupErr("GetCard", "card", err)
	}
	return card, nil
}

func (s *LedgerService) ListCards(ctx context.Context, userID uuid.UUID) ([]db.Card, error) {
	cards, err := s.store.ListCards(ctx, userID)
	if err != nil {
		return nil, apperr.External("ListCards", err)
	}
	return cards, nil
}

type PurchaseInput struct {
	CardID       uuid.UUID
	Description  string
	Amount       decimal.Decimal
	PurchaseDate time.Time
	Installments int
	CategoryID   *uuid.UUID
}

type PurchaseResult struct {
	GroupID uuid.UUID        `json:"group_id"`
	Items   []db.InvoiceItem `json:"items"`
}

// RegisterPurchase spreads a card purchase over consecutive invoices. Every
// installment is inserted and added to its invoice total in one transaction.
func (s *LedgerService) RegisterPurchase(ctx context.Context, userID uuid.UUID, in PurchaseInput) (PurchaseResult, error) {
	const op = "RegisterPurchase"

	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		return PurchaseResult{}, apperr.Validation(op, "description is required")
	}

	card, err := s.store.GetCard(ctx, db.GetCardParams{ID: in.CardID, UserID: userID})
	if err != nil {
		return PurchaseResult{}, lookupErr(op, "card", err)
	}

	plan, err := ledger.PlanPurchase(
		ledger.CardTerms{ClosingDay: int(card.ClosingDay), DueDay: int(card.DueDay)},
		in.PurchaseDate, in.Amount, in.Installments, s.maxInstallments,
	)
	if err != nil {
		return PurchaseResult{}, err
	}

	result := PurchaseResult{GroupID: uuid.New()}
	count := int16(len(plan))

	err = s.store.ExecTx(ctx, func(q db.Querier) error {
		for _, inst := range plan {
			invoice, err := ensureInvoice(ctx, q, userID, card.ID, inst)
			if err != nil {
				return err
			}

			index := int16(inst.Index)
			item, err := q.CreateInvoiceItem(ctx, db.CreateInvoiceItemParams{
				ID:               uuid.New(),
				InvoiceID:        invoice.ID,
				Description:      in.Description,
				Amount:           inst.Amount,
				PurchaseDate:     in.PurchaseDate,
				InstallmentIndex: &index,
				InstallmentCount: &count,
				GroupID:          &result.GroupID,
				CategoryID:       in.CategoryID,
			})
			if err != nil {
				return apperr.External(op, err)
			}
			if _, err := q.AddInvoiceTotal(ctx, db.AddInvoiceTotalParams{ID: invoice.ID, Delta: inst.Amount}); err != nil {
				return apperr.External(op, err)
			}
			result.Items = append(result.Items, item)
		}
		return nil
	})
	if err != nil {
		return PurchaseResult{}, passThrough(op, err)
	}

	s.log.Info().
		Str("card_id", card.ID.String()).
		Str("group_id", result.GroupID.String()).
		Int("installments", len(plan)).
		Str("amount", in.Amount.StringFixed(2)).
		Msg("purchase registered")

	return result, nil
}

// ensureInvoice returns the (card, cycle) invoice, creating it on first use.
// A paid invoice cannot take new charges.
func ensureInvoice(ctx context.Context, q db.Querier, userID, cardID uuid.UUID, inst ledger.Installment) (db.Invoice, error) {
	const op = "RegisterPurchase"
	cycle := inst.Cycle.String()

	if err := q.EnsureInvoice(ctx, db.EnsureInvoiceParams{
		ID:          uuid.New(),
		UserID:      userID,
		CardID:      cardID,
		Cycle:       cycle,
		ClosingDate: inst.ClosingDate,
		DueDate:     inst.DueDate,
	}); err != nil {
		return db.Invoice{}, apperr.External(op, err)
	}

	invoice, err := q.GetInvoiceByCycle(ctx, db.GetInvoiceByCycleParams{CardID: cardID, Cycle: cycle})
	if err != nil {
		return db.Invoice{}, apperr.External(op, err)
	}
	if invoice.Status == InvoicePaid {
		return db.Invoice{}, apperr.Conflict(op, "invoice %s is already paid", cycle)
	}
	return invoice, nil
}

// DeletePurchase removes every installment of a purchase and takes the
// amounts back out of their invoices.
func (s *LedgerService) DeletePurchase(ctx context.Context, userID, groupID uuid.UUID) error {
	const op = "DeletePurchase"

	return passThrough(op, s.store.ExecTx(ctx, func(q db.Querier) error {
		items, err := q.ListItemsByGroup(ctx, groupID)
		if err != nil {
			return apperr.External(op, err)
		}
		if len(items) == 0 {
			return apperr.NotFound(op, "purchase")
		}

		for _, item := range items {
			invoice, err := q.GetInvoiceForUpdate(ctx, db.GetInvoiceForUpdateParams{ID: item.InvoiceID, UserID: userID})
			if err != nil {
				return lookupErr(op, "purchase", err)
			}
			if invoice.Status == InvoicePaid {
				return apperr.Conflict(op, "invoice %s is already paid", invoice.Cycle)
			}
			if _, err := q.DeleteInvoiceItem(ctx, item.ID); err != nil {
				return apperr.External(op, err)
			}
			if _, err := q.AddInvoiceTotal(ctx, db.AddInvoiceTotalParams{ID: invoice.ID, Delta: item.Amount.Neg()}); err != nil {
				return apperr.External(op, err)
			}
		}
		return nil
	}))
}

func (s *LedgerService) ListInvoices(ctx context.Context, userID, cardID uuid.UUID) ([]db.Invoice, error) {
	const op = "ListInvoices"

	if _, err := s.store.GetCard(ctx, db.GetCardParams{ID: cardID, UserID: userID}); err != nil {
		return nil, lookupErr(op, "card", err)
	}
	invoices, err := s.store.ListInvoicesByCard(ctx, db.ListInvoicesByCardParams{CardID: cardID, UserID: userID})
	if err != nil {
		return nil, apperr.External(op, err)
	}
	return invoices, nil
}

type InvoiceDetail struct {
	db.Invoice
	Outstanding decimal.Decimal  `json:"outstanding"`
	Items       []db.InvoiceItem `json:"items"`
}

func (s *LedgerService) GetInvoice(ctx context.Context, userID, invoiceID uuid.UUID) (InvoiceDetail, error) {
	const op = "GetInvoice"

	invoice, err := s.store.GetInvoice(ctx, db.GetInvoiceParams{ID: invoiceID, UserID: userID})
	if err != nil {
		return InvoiceDetail{}, lookupErr(op, "invoice", err)
	}
	items, err := s.store.ListInvoiceItems(ctx, invoice.ID)
	if err != nil {
		return InvoiceDetail{}, apperr.External(op, err)
	}
	return InvoiceDetail{
		Invoice:     invoice,
		Outstanding: invoice.TotalAmount.Sub(invoice.PaidAmount),
		Items:       items,
	}, nil
}

type PaymentInput struct {
	InvoiceID   uuid.UUID
	Amount      *decimal.Decimal
	PaymentDate time.Time
	AccountID   *uuid.UUID
}

type PaymentResult struct {
	Invoice     db.Invoice     `json:"invoice"`
	Transaction db.Transaction `json:"transaction"`
}

// PayInvoice records a payment against an invoice. The settled debit, the
// account balance and the invoice update commit together or not at all.
func (s *LedgerService) PayInvoice(ctx context.Context, userID uuid.UUID, in PaymentInput) (PaymentResult, error) {
	const op = "PayInvoice"

	var result PaymentResult
	err := s.store.ExecTx(ctx, func(q db.Querier) error {
		invoice, err := q.GetInvoiceForUpdate(ctx, db.GetInvoiceForUpdateParams{ID: in.InvoiceID, UserID: userID})
		if err != nil {
			return lookupErr(op, "invoice", err)
		}
		if invoice.Status == InvoicePaid {
			return apperr.Conflict(op, "invoice is already paid")
		}

		outstanding := invoice.TotalAmount.Sub(invoice.PaidAmount)
		amount := outstanding
		if in.Amount != nil {
			amount = *in.Amount
		}
		if !amount.IsPositive() {
			return apperr.Validation(op, "payment amount must be positive")
		}
		if amount.GreaterThan(outstanding) {
			return apperr.Validation(op, "payment amount %s exceeds outstanding %s", amount.StringFixed(2), outstanding.StringFixed(2))
		}

		accountID, err := paymentAccount(ctx, q, userID, invoice.CardID, in.AccountID)
		if err != nil {
			return err
		}

		paid := in.PaymentDate
		txn, err := q.CreateTransaction(ctx, db.CreateTransactionParams{
			ID:          uuid.New(),
			UserID:      userID,
			Description: "Card invoice payment " + invoice.Cycle,
			Amount:      amount.Neg(),
			Kind:        KindDebit,
			TxnDate:     paid,
			SettledDate: &paid,
			Status:      StatusSettled,
			AccountID:   accountID,
			InvoiceID:   &invoice.ID,
		})
		if err != nil {
			return apperr.External(op, err)
		}
		if _, err := q.AdjustAccountBalance(ctx, db.AdjustAccountBalanceParams{ID: accountID, Delta: amount.Neg()}); err != nil {
			return apperr.External(op, err)
		}

		updated, err := q.ApplyInvoicePayment(ctx, db.ApplyInvoicePaymentParams{
			ID:     invoice.ID,
			Amount: amount,
			Status: statusAfterPayment(invoice, amount),
		})
		if err != nil {
			return apperr.External(op, err)
		}

		result = PaymentResult{Invoice: updated, Transaction: txn}
		return nil
	})
	if err != nil {
		return PaymentResult{}, passThrough(op, err)
	}

	s.log.Info().
		Str("invoice_id", result.Invoice.ID.String()).
		Str("amount", result.Transaction.Amount.Neg().StringFixed(2)).
		Str("status", result.Invoice.Status).
		Msg("invoice payment recorded")

	return result, nil
}

// statusAfterPayment: fully paid invoices become paid; a partial payment
// leaves an overdue invoice overdue and anything else closed.
func statusAfterPayment(invoice db.Invoice, amount decimal.Decimal) string {
	if invoice.PaidAmount.Add(amount).GreaterThanOrEqual(invoice.TotalAmount) {
		return InvoicePaid
	}
	if invoice.Status == InvoiceOverdue {
		return InvoiceOverdue
	}
	return InvoiceClosed
}

func paymentAccount(ctx context.Context, q db.Querier, userID, cardID uuid.UUID, supplied *uuid.UUID) (uuid.UUID, error) {
	const op = "PayInvoice"

	accountID := supplied
	if accountID == nil {
		card, err := q.GetCard(ctx, db.GetCardParams{ID: cardID, UserID: userID})
		if err != nil {
			return uuid.Nil, lookupErr(op, "card", err)
		}
		accountID = card.PaymentAccountID
	}
	if accountID == nil {
		return uuid.Nil, apperr.Validation(op, "no payment account supplied and the card has none linked")
	}

	account, err := q.GetAccount(ctx, db.GetAccountParams{ID: *accountID, UserID: userID})
	if err != nil {
		return uuid.Nil, lookupErr(op, "account", err)
	}
	if !account.Active {
		return uuid.Nil, apperr.Validation(op, "account %s is inactive", account.Name)
	}
	return account.ID, nil
}

type RefreshResult struct {
	Closed  int64 `json:"closed"`
	Overdue int64 `json:"overdue"`
}

// RefreshInvoiceStatuses moves open invoices past their closing date to
// closed, then closed invoices past their due date to overdue.
func (s *LedgerService) RefreshInvoiceStatuses(ctx context.Context, userID uuid.UUID, today time.Time) (RefreshResult, error) {
	const op = "RefreshInvoiceStatuses"

	var result RefreshResult
	err := s.store.ExecTx(ctx, func(q db.Querier) error {
		closed, err := q.CloseDueInvoices(ctx, db.CloseDueInvoicesParams{UserID: userID, Today: today})
		if err != nil {
			return apperr.External(op, err)
		}
		overdue, err := q.MarkOverdueInvoices(ctx, db.MarkOverdueInvoicesParams{UserID: userID, Today: today})
		if err != nil {
			return apperr.External(op, err)
		}
		result = RefreshResult{Closed: closed, Overdue: overdue}
		return nil
	})
	if err != nil {
		return RefreshResult{}, passThrough(op, err)
	}
	return result, nil
}

func isLast4(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
