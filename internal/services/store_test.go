package services

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/ashmitsharp/erp-api/internal/database/db"
)

// memStore is an in-memory Store. ExecTx restores the previous state when fn
// fails, so tests can check that nothing leaked out of a failed transaction.
// Methods the services never call are left to the nil embedded Querier.
type memStore struct {
	db.Querier

	accounts   []db.Account
	cards      []db.Card
	categories []db.Category
	invoices   []db.Invoice
	items      []db.InvoiceItem
	txns       []db.Transaction
	products   []db.Product
	clients    []db.Client
	sales      []db.Sale
	saleItems  []db.SaleItem

	// failOn makes the named method return the error.
	failOn map[string]error
}

func newMemStore() *memStore {
	return &memStore{failOn: make(map[string]error)}
}

func (m *memStore) fail(method string) error {
	return m.failOn[method]
}

func (m *memStore) ExecTx(ctx context.Context, fn func(q db.Querier) error) error {
	saved := *m
	saved.accounts = slices.Clone(m.accounts)
	saved.cards = slices.Clone(m.cards)
	saved.categories = slices.Clone(m.categories)
	saved.invoices = slices.Clone(m.invoices)
	saved.items = slices.Clone(m.items)
	saved.txns = slices.Clone(m.txns)
	saved.products = slices.Clone(m.products)
	saved.clients = slices.Clone(m.clients)
	saved.sales = slices.Clone(m.sales)
	saved.saleItems = slices.Clone(m.saleItems)

	if err := fn(m); err != nil {
		*m = saved
		return err
	}
	return nil
}

// fixtures

func (m *memStore) addAccount(userID uuid.UUID, name string, balance decimal.Decimal) db.Account {
	a := db.Account{
		ID:             uuid.New(),
		UserID:         userID,
		Name:           name,
		Type:           "checking",
		OpeningBalance: balance,
		CurrentBalance: balance,
		Active:         true,
	}
	m.accounts = append(m.accounts, a)
	return a
}

func (m *memStore) addCard(userID uuid.UUID, closingDay, dueDay int16, paymentAccount *uuid.UUID) db.Card {
	c := db.Card{
		ID:               uuid.New(),
		UserID:           userID,
		Nickname:         "Visa",
		Last4:            "1234",
		CreditLimit:      decimal.NewFromInt(5000),
		ClosingDay:       closingDay,
		DueDay:           dueDay,
		PaymentAccountID: paymentAccount,
	}
	m.cards = append(m.cards, c)
	return c
}

func (m *memStore) addClient(userID uuid.UUID, name string) db.Client {
	c := db.Client{ID: uuid.New(), UserID: userID, Name: name}
	m.clients = append(m.clients, c)
	return c
}

func (m *memStore) addProduct(userID uuid.UUID, sku, name string, stock int32) db.Product {
	p := db.Product{ID: uuid.New(), UserID: userID, Sku: sku, Name: name, StockQuantity: stock}
	m.products = append(m.products, p)
	return p
}

func (m *memStore) account(id uuid.UUID) db.Account {
	for _, a := range m.accounts {
		if a.ID == id {
			return a
		}
	}
	return db.Account{}
}

func (m *memStore) invoice(id uuid.UUID) db.Invoice {
	for _, inv := range m.invoices {
		if inv.ID == id {
			return inv
		}
	}
	return db.Invoice{}
}

func (m *memStore) itemsOf(invoiceID uuid.UUID) []db.InvoiceItem {
	var out []db.InvoiceItem
	for _, it := range m.items {
		if it.InvoiceID == invoiceID {
			out = append(out, it)
		}
	}
	return out
}

// accounts

func (m *memStore) CreateAccount(_ context.Context, arg db.CreateAccountParams) (db.Account, error) {
	if err := m.fail("CreateAccount"); err != nil {
		return db.Account{}, err
	}
	a := db.Account{
		ID:             arg.ID,
		UserID:         arg.UserID,
		Name:           arg.Name,
		Type:           arg.Type,
		OpeningBalance: arg.OpeningBalance,
		CurrentBalance: arg.OpeningBalance,
		Active:         true,
	}
	m.accounts = append(m.accounts, a)
	return a, nil
}

func (m *memStore) GetAccount(_ context.Context, arg db.GetAccountParams) (db.Account, error) {
	for _, a := range m.accounts {
		if a.ID == arg.ID && a.UserID == arg.UserID {
			return a, nil
		}
	}
	return db.Account{}, pgx.ErrNoRows
}

func (m *memStore) ListAccounts(_ context.Context, userID uuid.UUID) ([]db.Account, error) {
	var out []db.Account
	for _, a := range m.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) AdjustAccountBalance(_ context.Context, arg db.AdjustAccountBalanceParams) (int64, error) {
	if err := m.fail("AdjustAccountBalance"); err != nil {
		return 0, err
	}
	for i := range m.accounts {
		if m.accounts[i].ID == arg.ID {
			m.accounts[i].CurrentBalance = m.accounts[i].CurrentBalance.Add(arg.Delta)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *memStore) SetAccountActive(_ context.Context, arg db.SetAccountActiveParams) (int64, error) {
	for i := range m.accounts {
		if m.accounts[i].ID == arg.ID && m.accounts[i].UserID == arg.UserID {
			m.accounts[i].Active = arg.Active
			return 1, nil
		}
	}
	return 0, nil
}

// cards

func (m *memStore) CreateCard(_ context.Context, arg db.CreateCardParams) (db.Card, error) {
	c := db.Card{
		ID:               arg.ID,
		UserID:           arg.UserID,
		Nickname:         arg.Nickname,
		Brand:            arg.Brand,
		Last4:            arg.Last4,
		CreditLimit:      arg.CreditLimit,
		ClosingDay:       arg.ClosingDay,
		DueDay:           arg.DueDay,
		PaymentAccountID: arg.PaymentAccountID,
	}
	m.cards = append(m.cards, c)
	return c, nil
}

func (m *memStore) GetCard(_ context.Context, arg db.GetCardParams) (db.Card, error) {
	for _, c := range m.cards {
		if c.ID == arg.ID && c.UserID == arg.UserID {
			return c, nil
		}
	}
	return db.Card{}, pgx.ErrNoRows
}

func (m *memStore) ListCards(_ context.Context, userID uuid.UUID) ([]db.Card, error) {
	var out []db.Card
	for _, c := range m.cards {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

// categories

func (m *memStore) CreateCategory(_ context.Context, arg db.CreateCategoryParams) (db.Category, error) {
	c := db.Category{
		ID:       arg.ID,
		UserID:   arg.UserID,
		Name:     arg.Name,
		Kind:     arg.Kind,
		ParentID: arg.ParentID,
		IsGlobal: arg.IsGlobal,
	}
	m.categories = append(m.categories, c)
	return c, nil
}

func (m *memStore) visibleCategory(c db.Category, userID uuid.UUID) bool {
	return c.IsGlobal || (c.UserID != nil && *c.UserID == userID)
}

func (m *memStore) GetCategory(_ context.Context, arg db.GetCategoryParams) (db.Category, error) {
	for _, c := range m.categories {
		if c.ID == arg.ID && m.visibleCategory(c, arg.UserID) {
			return c, nil
		}
	}
	return db.Category{}, pgx.ErrNoRows
}

func (m *memStore) ListCategories(_ context.Context, userID uuid.UUID) ([]db.Category, error) {
	var out []db.Category
	for _, c := range m.categories {
		if m.visibleCategory(c, userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) DeleteCategory(_ context.Context, arg db.DeleteCategoryParams) (int64, error) {
	for i, c := range m.categories {
		if c.ID == arg.ID && !c.IsGlobal && c.UserID != nil && *c.UserID == arg.UserID {
			m.categories = slices.Delete(m.categories, i, i+1)
			return 1, nil
		}
	}
	return 0, nil
}

// invoices

func (m *memStore) EnsureInvoice(_ context.Context, arg db.EnsureInvoiceParams) error {
	for _, inv := range m.invoices {
		if inv.CardID == arg.CardID && inv.Cycle == arg.Cycle {
			return nil
		}
	}
	m.invoices = append(m.invoices, db.Invoice{
		ID:          arg.ID,
		UserID:      arg.UserID,
		CardID:      arg.CardID,
		Cycle:       arg.Cycle,
		ClosingDate: arg.ClosingDate,
		DueDate:     arg.DueDate,
		Status:      InvoiceOpen,
	})
	return nil
}

func (m *memStore) GetInvoiceByCycle(_ context.Context, arg db.GetInvoiceByCycleParams) (db.Invoice, error) {
	for _, inv := range m.invoices {
		if inv.CardID == arg.CardID && inv.Cycle == arg.Cycle {
			return inv, nil
		}
	}
	return db.Invoice{}, pgx.ErrNoRows
}

func (m *memStore) GetInvoice(_ context.Context, arg db.GetInvoiceParams) (db.Invoice, error) {
	for _, inv := range m.invoices {
		if inv.ID == arg.ID && inv.UserID == arg.UserID {
			return inv, nil
		}
	}
	return db.Invoice{}, pgx.ErrNoRows
}

func (m *memStore) GetInvoiceForUpdate(ctx context.Context, arg db.GetInvoiceForUpdateParams) (db.Invoice, error) {
	return m.GetInvoice(ctx, db.GetInvoiceParams(arg))
}

func (m *memStore) ListInvoicesByCard(_ context.Context, arg db.ListInvoicesByCardParams) ([]db.Invoice, error) {
	var out []db.Invoice
	for _, inv := range m.invoices {
		if inv.CardID == arg.CardID && inv.UserID == arg.UserID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cycle < out[j].Cycle })
	return out, nil
}

func (m *memStore) AddInvoiceTotal(_ context.Context, arg db.AddInvoiceTotalParams) (int64, error) {
	if err := m.fail("AddInvoiceTotal"); err != nil {
		return 0, err
	}
	for i := range m.invoices {
		if m.invoices[i].ID == arg.ID {
			m.invoices[i].TotalAmount = m.invoices[i].TotalAmount.Add(arg.Delta)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *memStore) ApplyInvoicePayment(_ context.Context, arg db.ApplyInvoicePaymentParams) (db.Invoice, error) {
	if err := m.fail("ApplyInvoicePayment"); err != nil {
		return db.Invoice{}, err
	}
	for i := range m.invoices {
		if m.invoices[i].ID == arg.ID {
			m.invoices[i].PaidAmount = m.invoices[i].PaidAmount.Add(arg.Amount)
			m.invoices[i].Status = arg.Status
			return m.invoices[i], nil
		}
	}
	return db.Invoice{}, pgx.ErrNoRows
}

func (m *memStore) CloseDueInvoices(_ context.Context, arg db.CloseDueInvoicesParams) (int64, error) {
	var n int64
	for i, inv := range m.invoices {
		if inv.UserID == arg.UserID && inv.Status == InvoiceOpen && inv.ClosingDate.Before(arg.Today) {
			m.invoices[i].Status = InvoiceClosed
			n++
		}
	}
	return n, nil
}

func (m *memStore) MarkOverdueInvoices(_ context.Context, arg db.MarkOverdueInvoicesParams) (int64, error) {
	var n int64
	for i, inv := range m.invoices {
		if inv.UserID == arg.UserID && inv.Status == InvoiceClosed && inv.DueDate.Before(arg.Today) && inv.PaidAmount.LessThan(inv.TotalAmount) {
			m.invoices[i].Status = InvoiceOverdue
			n++
		}
	}
	return n, nil
}

func (m *memStore) CreateInvoiceItem(_ context.Context, arg db.CreateInvoiceItemParams) (db.InvoiceItem, error) {
	it := db.InvoiceItem{
		ID:               arg.ID,
		InvoiceID:        arg.InvoiceID,
		Description:      arg.Description,
		Amount:           arg.Amount,
		PurchaseDate:     arg.PurchaseDate,
		InstallmentIndex: arg.InstallmentIndex,
		InstallmentCount: arg.InstallmentCount,
		GroupID:          arg.GroupID,
		CategoryID:       arg.CategoryID,
	}
	m.items = append(m.items, it)
	return it, nil
}

func (m *memStore) ListInvoiceItems(_ context.Context, invoiceID uuid.UUID) ([]db.InvoiceItem, error) {
	return m.itemsOf(invoiceID), nil
}

func (m *memStore) ListItemsByGroup(_ context.Context, groupID uuid.UUID) ([]db.InvoiceItem, error) {
	var out []db.InvoiceItem
	for _, it := range m.items {
		if it.GroupID != nil && *it.GroupID == groupID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memStore) DeleteInvoiceItem(_ context.Context, id uuid.UUID) (int64, error) {
	for i, it := range m.items {
		if it.ID == id {
			m.items = slices.Delete(m.items, i, i+1)
			return 1, nil
		}
	}
	return 0, nil
}

// transactions

func (m *memStore) CreateTransaction(_ context.Context, arg db.CreateTransactionParams) (db.Transaction, error) {
	if err := m.fail("CreateTransaction"); err != nil {
		return db.Transaction{}, err
	}
	t := db.Transaction{
		ID:                   arg.ID,
		UserID:               arg.UserID,
		Description:          arg.Description,
		Amount:               arg.Amount,
		Kind:                 arg.Kind,
		TxnDate:              arg.TxnDate,
		SettledDate:          arg.SettledDate,
		Status:               arg.Status,
		AccountID:            arg.AccountID,
		DestinationAccountID: arg.DestinationAccountID,
		CategoryID:           arg.CategoryID,
		InvoiceID:            arg.InvoiceID,
	}
	m.txns = append(m.txns, t)
	return t, nil
}

func (m *memStore) GetTransaction(_ context.Context, arg db.GetTransactionParams) (db.Transaction, error) {
	for _, t := range m.txns {
		if t.ID == arg.ID && t.UserID == arg.UserID {
			return t, nil
		}
	}
	return db.Transaction{}, pgx.ErrNoRows
}

func inRange(d, from, to time.Time) bool {
	return !d.Before(from) && !d.After(to)
}

func (m *memStore) ListTransactions(_ context.Context, arg db.ListTransactionsParams) ([]db.Transaction, error) {
	var out []db.Transaction
	for _, t := range m.txns {
		if t.UserID == arg.UserID && inRange(t.TxnDate, arg.From, arg.To) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TxnDate.After(out[j].TxnDate) })

	start := min(int(arg.Offset), len(out))
	end := min(start+int(arg.Limit), len(out))
	return out[start:end], nil
}

// forecastIndex mirrors the "status = 'forecast'" guard of the update queries.
func (m *memStore) forecastIndex(id, userID uuid.UUID) int {
	for i, t := range m.txns {
		if t.ID == id && t.UserID == userID && t.Status == StatusForecast {
			return i
		}
	}
	return -1
}

func (m *memStore) UpdateForecastTransaction(_ context.Context, arg db.UpdateForecastTransactionParams) (db.Transaction, error) {
	i := m.forecastIndex(arg.ID, arg.UserID)
	if i < 0 {
		return db.Transaction{}, pgx.ErrNoRows
	}
	m.txns[i].Description = arg.Description
	m.txns[i].Amount = arg.Amount
	m.txns[i].TxnDate = arg.TxnDate
	m.txns[i].CategoryID = arg.CategoryID
	return m.txns[i], nil
}

func (m *memStore) SettleTransaction(_ context.Context, arg db.SettleTransactionParams) (db.Transaction, error) {
	i := m.forecastIndex(arg.ID, arg.UserID)
	if i < 0 {
		return db.Transaction{}, pgx.ErrNoRows
	}
	settled := arg.SettledDate
	m.txns[i].Status = StatusSettled
	m.txns[i].SettledDate = &settled
	return m.txns[i], nil
}

func (m *memStore) CancelTransaction(_ context.Context, arg db.CancelTransactionParams) (db.Transaction, error) {
	i := m.forecastIndex(arg.ID, arg.UserID)
	if i < 0 {
		return db.Transaction{}, pgx.ErrNoRows
	}
	m.txns[i].Status = StatusCancelled
	return m.txns[i], nil
}

func (m *memStore) GetTransactionStats(_ context.Context, arg db.GetTransactionStatsParams) (db.GetTransactionStatsRow, error) {
	row := db.GetTransactionStatsRow{Income: decimal.Zero, Expense: decimal.Zero}
	for _, t := range m.txns {
		if t.UserID != arg.UserID || t.Status != StatusSettled || !inRange(t.TxnDate, arg.From, arg.To) {
			continue
		}
		row.Count++
		switch t.Kind {
		case KindCredit:
			row.Income = row.Income.Add(t.Amount)
		case KindDebit:
			row.Expense = row.Expense.Sub(t.Amount)
		}
	}
	return row, nil
}

// catalog

func (m *memStore) ListProducts(_ context.Context, userID uuid.UUID) ([]db.Product, error) {
	if err := m.fail("ListProducts"); err != nil {
		return nil, err
	}
	var out []db.Product
	for _, p := range m.products {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) GetProductBySKU(_ context.Context, arg db.GetProductBySKUParams) (db.Product, error) {
	if err := m.fail("GetProductBySKU"); err != nil {
		return db.Product{}, err
	}
	var fold *db.Product
	for i, p := range m.products {
		if p.UserID != arg.UserID {
			continue
		}
		if p.Sku == arg.Sku {
			return p, nil
		}
		if fold == nil && strings.EqualFold(p.Sku, arg.Sku) {
			fold = &m.products[i]
		}
	}
	if fold != nil {
		return *fold, nil
	}
	return db.Product{}, pgx.ErrNoRows
}

func (m *memStore) CreateProduct(_ context.Context, arg db.CreateProductParams) (db.Product, error) {
	for _, p := range m.products {
		if p.UserID == arg.UserID && p.Sku == arg.Sku {
			return db.Product{}, &pgconn.PgError{Code: uniqueViolation}
		}
	}
	p := db.Product{ID: arg.ID, UserID: arg.UserID, Sku: arg.Sku, Name: arg.Name, StockQuantity: arg.StockQuantity}
	m.products = append(m.products, p)
	return p, nil
}

func (m *memStore) SetProductStock(_ context.Context, arg db.SetProductStockParams) (int64, error) {
	if err := m.fail("SetProductStock"); err != nil {
		return 0, err
	}
	for i := range m.products {
		if m.products[i].ID == arg.ID && m.products[i].UserID == arg.UserID {
			m.products[i].StockQuantity = arg.StockQuantity
			return 1, nil
		}
	}
	return 0, nil
}

func (m *memStore) ListClients(_ context.Context, userID uuid.UUID) ([]db.Client, error) {
	if err := m.fail("ListClients"); err != nil {
		return nil, err
	}
	var out []db.Client
	for _, c := range m.clients {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) CreateClient(_ context.Context, arg db.CreateClientParams) (db.Client, error) {
	if err := m.fail("CreateClient"); err != nil {
		return db.Client{}, err
	}
	c := db.Client{ID: arg.ID, UserID: arg.UserID, Name: arg.Name, CreatedAt: time.Now()}
	m.clients = append(m.clients, c)
	return c, nil
}

func (m *memStore) GetClient(_ context.Context, arg db.GetClientParams) (db.Client, error) {
	for _, c := range m.clients {
		if c.ID == arg.ID && c.UserID == arg.UserID {
			return c, nil
		}
	}
	return db.Client{}, pgx.ErrNoRows
}

func (m *memStore) GetClientByName(_ context.Context, arg db.GetClientByNameParams) (db.Client, error) {
	for _, c := range m.clients {
		if c.UserID == arg.UserID && strings.EqualFold(c.Name, arg.Name) {
			return c, nil
		}
	}
	return db.Client{}, pgx.ErrNoRows
}

// sales

func (m *memStore) CreateSale(_ context.Context, arg db.CreateSaleParams) (db.Sale, error) {
	for _, s := range m.sales {
		if s.UserID == arg.UserID && s.IdempotencyKey == arg.IdempotencyKey {
			return db.Sale{}, pgx.ErrNoRows
		}
	}
	s := db.Sale{
		ID:             arg.ID,
		UserID:         arg.UserID,
		SaleDate:       arg.SaleDate,
		ClientID:       arg.ClientID,
		Channel:        arg.Channel,
		IdempotencyKey: arg.IdempotencyKey,
		Status:         "registered",
		Total:          arg.Total,
	}
	m.sales = append(m.sales, s)
	return s, nil
}

func (m *memStore) CreateSaleItem(_ context.Context, arg db.CreateSaleItemParams) (db.SaleItem, error) {
	if err := m.fail("CreateSaleItem"); err != nil {
		return db.SaleItem{}, err
	}
	it := db.SaleItem(arg)
	m.saleItems = append(m.saleItems, it)
	return it, nil
}

func (m *memStore) GetSaleByKey(_ context.Context, arg db.GetSaleByKeyParams) (db.Sale, error) {
	for _, s := range m.sales {
		if s.UserID == arg.UserID && s.IdempotencyKey == arg.IdempotencyKey {
			return s, nil
		}
	}
	return db.Sale{}, pgx.ErrNoRows
}

func (m *memStore) ListSales(_ context.Context, arg db.ListSalesParams) ([]db.Sale, error) {
	var out []db.Sale
	for _, s := range m.sales {
		if s.UserID == arg.UserID && inRange(s.SaleDate, arg.From, arg.To) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) ListSaleItems(_ context.Context, saleID uuid.UUID) ([]db.SaleItem, error) {
	var out []db.SaleItem
	for _, it := range m.saleItems {
		if it.SaleID == saleID {
			out = append(out, it)
		}
	}
	return out, nil
}

var errBoom = errors.New("boom")
