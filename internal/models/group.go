package models

import "github.com/shopspring/decimal"

// Group is a set of users sharing expenses.
type Group struct {
	Record
	Name          string `gorm:"not null" json:"name"`
	CreatorUserID string `gorm:"type:uuid;not null;index" json:"creator_user_id"`
}

// GroupMember links a user to a group. A user appears at most once per group.
type GroupMember struct {
	Record
	GroupID string `gorm:"type:uuid;not null;uniqueIndex:idx_group_member" json:"group_id"`
	UserID  string `gorm:"type:uuid;not null;uniqueIndex:idx_group_member;index" json:"user_id"`
}

// SharedExpense is a payment made by one member on behalf of the group.
type SharedExpense struct {
	Record
	GroupID      string          `gorm:"type:uuid;not null;index" json:"group_id"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	PaidByUserID string          `gorm:"type:uuid;not null;index" json:"paid_by_user_id"`
	Shares       []ExpenseShare  `gorm:"foreignKey:SharedExpenseID;constraint:OnDelete:CASCADE" json:"shares,omitempty"`
}

// ExpenseShare is one participant's portion of a SharedExpense.
type ExpenseShare struct {
	Record
	SharedExpenseID string          `gorm:"type:uuid;not null;index" json:"shared_expense_id"`
	UserID          string          `gorm:"type:uuid;not null;index" json:"user_id"`
	AmountOwed      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount_owed"`
}

// Settlement records a payment from one member to another inside a group.
type Settlement struct {
	Record
	GroupID    string          `gorm:"type:uuid;not null;index" json:"group_id"`
	FromUserID string          `gorm:"type:uuid;not null;index" json:"from_user_id"`
	ToUserID   string          `gorm:"type:uuid;not null;index" json:"to_user_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Note       string          `json:"note,omitempty"`
}
