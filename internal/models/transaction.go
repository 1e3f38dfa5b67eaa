package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types.
const (
	TypeIncome   = "INCOME"
	TypeExpense  = "EXPENSE"
	TypeTransfer = "TRANSFER"
)

// ValidType reports whether s is one of the transaction type enum values.
func ValidType(s string) bool {
	return s == TypeIncome || s == TypeExpense || s == TypeTransfer
}

// Transaction is the wire and service representation of a financial
// record. CategoryID/CategoryName are flattened from the optional
// category reference; UserID never appears on the wire.
type Transaction struct {
	ID           int64           `json:"id"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	Type         string          `json:"type"`
	CategoryID   *int64          `json:"categoryId,omitempty"`
	CategoryName *string         `json:"categoryName,omitempty"`
	Notes        string          `json:"notes,omitempty"`
}

// TransactionRequest is the create/update payload. Amounts are
// fixed-point decimal; the validator treats the decimal as a float for
// the gt=0 check (see handlers.NewValidator).
type TransactionRequest struct {
	Description string          `json:"description" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Date        *time.Time      `json:"date" validate:"required"`
	Type        string          `json:"type" validate:"required,oneof=INCOME EXPENSE TRANSFER"`
	CategoryID  *int64          `json:"categoryId"`
	Notes       string          `json:"notes" validate:"max=500"`
}
