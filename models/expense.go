package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category tags an expense with a fixed spending category.
type Category string

const (
	CategoryFood          Category = "FOOD"
	CategoryTransport     Category = "TRANSPORT"
	CategoryUtilities     Category = "UTILITIES"
	CategoryEntertainment Category = "ENTERTAINMENT"
	CategoryHealthcare    Category = "HEALTHCARE"
	CategoryShopping      Category = "SHOPPING"
	CategoryOther         Category = "OTHER"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryFood, CategoryTransport, CategoryUtilities,
		CategoryEntertainment, CategoryHealthcare, CategoryShopping, CategoryOther:
		return true
	}
	return false
}

// PaymentMethod records how the creator paid the expense.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "CASH"
	PaymentCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentDebitCard    PaymentMethod = "DEBIT_CARD"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentOther        PaymentMethod = "OTHER"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentCreditCard, PaymentDebitCard, PaymentBankTransfer, PaymentOther:
		return true
	}
	return false
}

// ShareStatus is the payment state of a single share. The only transition is
// UNPAID -> PAID; there is no way back.
type ShareStatus string

const (
	ShareUnpaid ShareStatus = "UNPAID"
	SharePaid   ShareStatus = "PAID"
)

// Expense is a single recorded cost event owned by its creator. Shares are
// the per-user obligations carved out of Amount; they live and die with the
// expense.
type Expense struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Amount        decimal.Decimal `json:"amount"`
	Category      Category        `json:"category"`
	CreatorID     string          `json:"creator_id"`
	Date          time.Time       `json:"-"`
	Description   string          `json:"description,omitempty"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Shares        []Share         `json:"shares"`
}

// Share is one user's obligation against an expense. Username is joined in
// from the users table for responses and is not stored on the row.
type Share struct {
	ID         string          `json:"share_id"`
	ExpenseID  string          `json:"-"`
	UserID     string          `json:"user_id"`
	Username   string          `json:"username"`
	AmountOwed decimal.Decimal `json:"amount_owed"`
	Status     ShareStatus     `json:"status"`
}

// DateFormat is the wire format for expense dates.
const DateFormat = "2006-01-02"

// ============================================================================
// EXPENSE REQUESTS / RESPONSES
// ============================================================================

// ShareRequest is one explicit allocation entry: the obligated user and the
// portion of the total they owe.
type ShareRequest struct {
	UserID     string          `json:"user_id" binding:"required"`
	AmountOwed decimal.Decimal `json:"amount_owed"`
}

// ExpenseRequest is the payload for both create and update. An empty Shares
// list means the creator paid for themselves; entries mean the amount is
// split across the referenced users.
type ExpenseRequest struct {
	Title         string          `json:"title" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Category      Category        `json:"category" binding:"required"`
	Date          string          `json:"date" binding:"required"`
	Description   string          `json:"description"`
	PaymentMethod PaymentMethod   `json:"payment_method" binding:"required"`
	Shares        []ShareRequest  `json:"shares"`
}

// ExpenseResponse is the transport shape of an expense. Date is rendered in
// DateFormat rather than RFC 3339.
type ExpenseResponse struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Amount        decimal.Decimal `json:"amount"`
	Category      Category        `json:"category"`
	CreatorID     string          `json:"creator_id"`
	Date          string          `json:"date"`
	Description   string          `json:"description,omitempty"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Shares        []Share         `json:"shares"`
}

// Response converts an expense to its transport shape.
func (e *Expense) Response() ExpenseResponse {
	shares := e.Shares
	if shares == nil {
		shares = []Share{}
	}
	return ExpenseResponse{
		ID:            e.ID,
		Title:         e.Title,
		Amount:        e.Amount,
		Category:      e.Category,
		CreatorID:     e.CreatorID,
		Date:          e.Date.Format(DateFormat),
		Description:   e.Description,
		PaymentMethod: e.PaymentMethod,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
		Shares:        shares,
	}
}
