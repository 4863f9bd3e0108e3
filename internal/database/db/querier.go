package db

import (
	"context"

	"github.com/google/uuid"
)

type Querier interface {
	AddInvoiceTotal(ctx context.Context, arg AddInvoiceTotalParams) (int64, error)
	AdjustAccountBalance(ctx context.Context, arg AdjustAccountBalanceParams) (int64, error)
	ApplyInvoicePayment(ctx context.Context, arg ApplyInvoicePaymentParams) (Invoice, error)
	CancelTransaction(ctx context.Context, arg CancelTransactionParams) (Transaction, error)
	CloseDueInvoices(ctx context.Context, arg CloseDueInvoicesParams) (int64, error)
	CreateAccount(ctx context.Context, arg CreateAccountParams) (Account, error)
	CreateCard(ctx context.Context, arg CreateCardParams) (Card, error)
	CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error)
	CreateClient(ctx context.Context, arg CreateClientParams) (Client, error)
	CreateInvoiceItem(ctx context.Context, arg CreateInvoiceItemParams) (InvoiceItem, error)
	CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error)
	CreateSale(ctx context.Context, arg CreateSaleParams) (Sale, error)
	CreateSaleItem(ctx context.Context, arg CreateSaleItemParams) (SaleItem, error)
	CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error)
	DeleteCategory(ctx context.Context, arg DeleteCategoryParams) (int64, error)
	DeleteInvoiceItem(ctx context.Context, id uuid.UUID) (int64, error)
	EnsureInvoice(ctx context.Context, arg EnsureInvoiceParams) error
	GetAccount(ctx context.Context, arg GetAccountParams) (Account, error)
	GetCard(ctx context.Context, arg GetCardParams) (Card, error)
	GetCategory(ctx context.Context, arg GetCategoryParams) (Category, error)
	GetClient(ctx context.Context, arg GetClientParams) (Client, error)
	GetClientByName(ctx context.Context, arg GetClientByNameParams) (Client, error)
	GetInvoice(ctx context.Context, arg GetInvoiceParams) (Invoice, error)
	GetInvoiceByCycle(ctx context.Context, arg GetInvoiceByCycleParams) (Invoice, error)
	GetInvoiceForUpdate(ctx context.Context, arg GetInvoiceForUpdateParams) (Invoice, error)
	GetProductBySKU(ctx context.Context, arg GetProductBySKUParams) (Product, error)
	GetSaleByKey(ctx context.Context, arg GetSaleByKeyParams) (Sale, error)
	GetTransaction(ctx context.Context, arg GetTransactionParams) (Transaction, error)
	GetTransactionStats(ctx context.Context, arg GetTransactionStatsParams) (GetTransactionStatsRow, error)
	GetUserByClerkID(ctx context.Context, clerkUserID string) (User, error)
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]Account, error)
	ListCards(ctx context.Context, userID uuid.UUID) ([]Card, error)
	ListCategories(ctx context.Context, userID uuid.UUID) ([]Category, error)
	ListClients(ctx context.Context, userID uuid.UUID) ([]Client, error)
	ListInvoiceItems(ctx context.Context, invoiceID uuid.UUID) ([]InvoiceItem, error)
	ListInvoicesByCard(ctx context.Context, arg ListInvoicesByCardParams) ([]Invoice, error)
	ListItemsByGroup(ctx context.Context, groupID uuid.UUID) ([]InvoiceItem, error)
	ListProducts(ctx context.Context, userID uuid.UUID) ([]Product, error)
	ListSaleItems(ctx context.Context, saleID uuid.UUID) ([]SaleItem, error)
	ListSales(ctx context.Context, arg ListSalesParams) ([]Sale, error)
	ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]Transaction, error)
	MarkOverdueInvoices(ctx context.Context, arg MarkOverdueInvoicesParams) (int64, error)
	SetAccountActive(ctx context.Context, arg SetAccountActiveParams) (int64, error)
	SetProductStock(ctx context.Context, arg SetProductStockParams) (int64, error)
	SettleTransaction(ctx context.Context, arg SettleTransactionParams) (Transaction, error)
	UpdateForecastTransaction(ctx context.Context, arg UpdateForecastTransactionParams) (Transaction, error)
	UpdateUserByClerkID(ctx context.Context, arg UpdateUserByClerkIDParams) (User, error)
	UpsertUser(ctx context.Context, arg UpsertUserParams) (User, error)
}

var _ Querier = (*Queries)(nil)
