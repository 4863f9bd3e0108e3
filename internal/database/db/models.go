package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type User struct {
	ID          uuid.UUID `json:"id"`
	ClerkUserID string    `json:"clerk_user_id"`
	Email       string    `json:"email"`
	FullName    *string   `json:"full_name"`
	IsAdmin     bool      `json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Account struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type Card struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	Nickname         string          `json:"nickname"`
	Brand            string          `json:"brand"`
	Last4            string          `json:"last4"`
	CreditLimit      decimal.Decimal `json:"credit_limit"`
	ClosingDay       int16           `json:"closing_day"`
	DueDay           int16           `json:"due_day"`
	PaymentAccountID *uuid.UUID      `json:"payment_account_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

type Category struct {
	ID        uuid.UUID  `json:"id"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	Name      string     `json:"name"`
	Kind      string     `json:"kind"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	IsGlobal  bool       `json:"is_global"`
	CreatedAt time.Time  `json:"created_at"`
}

type Invoice struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	CardID      uuid.UUID       `json:"card_id"`
	Cycle       string          `json:"cycle"`
	ClosingDate time.Time       `json:"closing_date"`
	DueDate     time.Time       `json:"due_date"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type InvoiceItem struct {
	ID               uuid.UUID       `json:"id"`
	InvoiceID        uuid.UUID       `json:"invoice_id"`
	Description      string          `json:"description"`
	Amount           decimal.Decimal `json:"amount"`
	PurchaseDate     time.Time       `json:"purchase_date"`
	InstallmentIndex *int16          `json:"installment_index,omitempty"`
	InstallmentCount *int16          `json:"installment_count,omitempty"`
	GroupID          *uuid.UUID      `json:"group_id,omitempty"`
	CategoryID       *uuid.UUID      `json:"category_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

type Transaction struct {
	ID                   uuid.UUID       `json:"id"`
	UserID               uuid.UUID       `json:"user_id"`
	Description          string          `json:"description"`
	Amount               decimal.Decimal `json:"amount"`
	Kind                 string          `json:"kind"`
	TxnDate              time.Time       `json:"txn_date"`
	SettledDate          *time.Time      `json:"settled_date,omitempty"`
	Status               string          `json:"status"`
	AccountID            uuid.UUID       `json:"account_id"`
	DestinationAccountID *uuid.UUID      `json:"destination_account_id,omitempty"`
	CategoryID           *uuid.UUID      `json:"category_id,omitempty"`
	InvoiceID            *uuid.UUID      `json:"invoice_id,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

type Product struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Sku           string    `json:"sku"`
	Name          string    `json:"name"`
	StockQuantity int32     `json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Client struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Sale struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	SaleDate       time.Time       `json:"sale_date"`
	ClientID       uuid.UUID       `json:"client_id"`
	Channel        string          `json:"channel"`
	IdempotencyKey string          `json:"idempotency_key"`
	Status         string          `json:"status"`
	Total          decimal.Decimal `json:"total"`
	CreatedAt      time.Time       `json:"created_at"`
}

type SaleItem struct {
	ID        uuid.UUID       `json:"id"`
	SaleID    uuid.UUID       `json:"sale_id"`
	Sku       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}
