package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency describes how often a transaction repeats.
type Frequency string

const (
	FrequencyNone    Frequency = "none"
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyNone, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// IsInterval reports whether f can drive a recurring schedule.
func (f Frequency) IsInterval() bool {
	return f == FrequencyDaily || f == FrequencyWeekly || f == FrequencyMonthly
}

// Entry holds the columns shared by incomes and expenses.
type Entry struct {
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	IsRecurring bool            `gorm:"default:false" json:"is_recurring"`
	Frequency   Frequency       `gorm:"size:16;default:none" json:"frequency"`
	RecurringID *string         `gorm:"type:uuid;index" json:"recurring_id,omitempty"`
}

// Income is money received by a user.
type Income struct {
	Base
	Entry
	Source string `gorm:"not null" json:"source"`
}

// Expense is money spent by a user.
type Expense struct {
	Base
	Entry
	Category string `gorm:"not null;index" json:"category"`
}
