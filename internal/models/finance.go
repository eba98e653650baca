package models

import "time"

// FinanceRecord is the per-user remote finance row
type FinanceRecord struct {
	UserID            string        `json:"user_id"`
	CurrentBalanceARS float64       `json:"current_balance_ars"`
	CurrentBalanceUSD float64       `json:"current_balance_usd"`
	ExchangeRate      float64       `json:"exchange_rate"`
	EmergencyBuffer   float64       `json:"emergency_buffer"`
	PendingExpenses   []Transaction `json:"pending_expenses"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// FinanceUpdate carries the fields written back after a command adjusts the balance
type FinanceUpdate struct {
	CurrentBalanceARS float64
	CurrentBalanceUSD float64
	PendingExpenses   []Transaction
	UpdatedAt         time.Time
}

// Expense is a locally recorded expense inside the finance document
type Expense struct {
	ID          string   `json:"id"`
	Amount      float64  `json:"amount"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Date        string   `json:"date"`
	Currency    Currency `json:"currency"`
}

// Income is a locally recorded income inside the finance document
type Income struct {
	ID          string   `json:"id"`
	Amount      float64  `json:"amount"`
	Description string   `json:"description"`
	Date        string   `json:"date"`
	Currency    Currency `json:"currency"`
}

// FinanceDocument is the local singleton finance document, synced whole
type FinanceDocument struct {
	Balance       float64   `json:"balance"`
	Currency      Currency  `json:"currency"`
	ExchangeRate  float64   `json:"exchangeRate"`
	MonthlyBudget float64   `json:"monthlyBudget"`
	Expenses      []Expense `json:"expenses"`
	Income        []Income  `json:"income"`
}

// DefaultFinanceDocument returns the document a fresh device starts with
func DefaultFinanceDocument() FinanceDocument {
	return FinanceDocument{
		Currency:     CurrencyARS,
		ExchangeRate: 1000,
		Expenses:     []Expense{},
		Income:       []Income{},
	}
}

// RemoteFinanceDocument is the finances row holding the synced document
type RemoteFinanceDocument struct {
	UserID    string
	Data      FinanceDocument
	UpdatedAt time.Time
}
