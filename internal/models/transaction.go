package models

import "time"

// Currency is one of the two currencies the finance record tracks
type Currency string

const (
	CurrencyARS Currency = "ARS"
	CurrencyUSD Currency = "USD"
)

// TransactionType conveys the sign of a transaction amount
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Transaction represents a financial transaction appended to the finance record.
// Amount is always non-negative; Type carries the sign.
type Transaction struct {
	ID          string          `json:"id"`
	Amount      float64         `json:"amount"`
	Currency    Currency        `json:"currency"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	Timestamp   time.Time       `json:"timestamp"`
	Status      string          `json:"status,omitempty"`
	Source      string          `json:"source,omitempty"`
}
