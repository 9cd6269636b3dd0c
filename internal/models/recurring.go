package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType selects which ledger a recurring template materializes into.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// RecurringTransaction is a template that materializes an Income or Expense
// every Interval, starting at NextDate.
type RecurringTransaction struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Type        TransactionType `gorm:"size:16;not null" json:"type"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Interval    Frequency       `gorm:"size:16;not null" json:"interval"`
	NextDate    time.Time       `gorm:"not null;index" json:"next_date"`
	// AnchorDay is the day-of-month monthly advances aim for before clamping.
	AnchorDay int `gorm:"not null;default:0" json:"anchor_day"`
}
