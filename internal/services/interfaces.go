package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"budgeteer/internal/models"
	"budgeteer/internal/pagination"
)

// ProfileUpdate holds the optional profile fields a user may change.
type ProfileUpdate struct {
	DisplayName *string
	AvatarRef   *string
	Currency    *string
	Theme       *models.Theme
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(username, email, password, displayName string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(identifier, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
	UpdateProfile(userID string, update ProfileUpdate) (*models.User, error)
	ToggleTheme(userID string) (*models.User, error)
}

// EntryInput holds the fields for creating an income or expense. Label is
// the source of an income or the category of an expense.
type EntryInput struct {
	Amount      decimal.Decimal
	Label       string
	Description string
	Date        time.Time
	IsRecurring bool
	Frequency   models.Frequency
}

// EntryUpdate holds the optional fields for editing an income or expense.
type EntryUpdate struct {
	Amount      *decimal.Decimal
	Label       *string
	Description *string
	Date        *time.Time
	IsRecurring *bool
	Frequency   *models.Frequency
}

// EntryFilter holds optional filter parameters for listing incomes or expenses.
type EntryFilter struct {
	FromDate  *time.Time
	ToDate    *time.Time
	Label     *string
	Recurring *bool
}

// IncomeServicer defines the contract for income records.
type IncomeServicer interface {
	CreateIncome(userID string, input EntryInput) (*models.Income, error)
	GetUserIncomes(userID string, page pagination.PageRequest, filter EntryFilter) (*pagination.PageResponse[models.Income], error)
	GetIncomeByID(userID, incomeID string) (*models.Income, error)
	UpdateIncome(userID, incomeID string, update EntryUpdate) (*models.Income, error)
	DeleteIncome(userID, incomeID string) error
}

// ExpenseServicer defines the contract for expense records.
type ExpenseServicer interface {
	CreateExpense(ctx context.Context, userID string, input EntryInput) (*models.Expense, error)
	GetUserExpenses(userID string, page pagination.PageRequest, filter EntryFilter) (*pagination.PageResponse[models.Expense], error)
	GetExpenseByID(userID, expenseID string) (*models.Expense, error)
	UpdateExpense(userID, expenseID string, update EntryUpdate) (*models.Expense, error)
	DeleteExpense(userID, expenseID string) error
}

// MemberInfo describes a current group member.
type MemberInfo struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joined_at"`
}

// GroupDetail is a group together with its current members.
type GroupDetail struct {
	models.Group
	Members []MemberInfo `json:"members"`
}

// GroupServicer defines the contract for groups and their membership.
type GroupServicer interface {
	CreateGroup(userID, name string) (*models.Group, error)
	GetUserGroups(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Group], error)
	GetGroup(userID, groupID string) (*GroupDetail, error)
	AddMember(userID, groupID, username string) (*models.GroupMember, error)
	RemoveMember(userID, groupID, memberUserID string) error
	DeleteGroup(userID, groupID string) error
}

// SharedExpenseInput holds the fields for splitting a new shared expense.
// PaidBy defaults to the acting user; ParticipantIDs defaults to every
// current member.
type SharedExpenseInput struct {
	Description    string
	Amount         decimal.Decimal
	PaidBy         string
	ParticipantIDs []string
}

// SplitServicer defines the contract for shared expenses and settlements.
type SplitServicer interface {
	CreateSharedExpense(userID, groupID string, input SharedExpenseInput) (*models.SharedExpense, error)
	GetSharedExpenses(userID, groupID string, page pagination.PageRequest) (*pagination.PageResponse[models.SharedExpense], error)
	GetSharedExpense(userID, groupID, expenseID string) (*models.SharedExpense, error)
	DeleteSharedExpense(userID, groupID, expenseID string) error
	RecordSettlement(userID, groupID, toUserID string, amount decimal.Decimal, note string) (*models.Settlement, error)
	GetSettlements(userID, groupID string, page pagination.PageRequest) (*pagination.PageResponse[models.Settlement], error)
}

// MemberBalance is one user's position in a group.
type MemberBalance struct {
	UserID   string          `json:"user_id"`
	Username string          `json:"username"`
	Paid     decimal.Decimal `json:"paid"`
	Owed     decimal.Decimal `json:"owed"`
	Balance  decimal.Decimal `json:"balance"`
	IsMember bool            `json:"is_member"`
}

// GroupBalances lists every member's balance. Total is zero for a
// consistent ledger.
type GroupBalances struct {
	GroupID  string          `json:"group_id"`
	Balances []MemberBalance `json:"balances"`
	Total    decimal.Decimal `json:"total"`
}

// BalanceServicer defines the contract for computing group balances.
type BalanceServicer interface {
	GetGroupBalances(userID, groupID string) (*GroupBalances, error)
}

// RecurringInput holds the fields for creating a recurring transaction.
// A zero NextDate means today.
type RecurringInput struct {
	Type        models.TransactionType
	Amount      decimal.Decimal
	Category    string
	Description string
	Interval    models.Frequency
	NextDate    time.Time
}

// RecurringUpdate holds the optional fields for editing a recurring transaction.
type RecurringUpdate struct {
	Amount      *decimal.Decimal
	Category    *string
	Description *string
	Interval    *models.Frequency
	NextDate    *time.Time
}

// SkippedEntry explains why a due recurring transaction was not processed.
type SkippedEntry struct {
	RecurringID string `json:"recurring_id"`
	Reason      string `json:"reason"`
}

// ProcessResult lists what a scheduler pass created for one user.
type ProcessResult struct {
	Incomes  []models.Income  `json:"incomes"`
	Expenses []models.Expense `json:"expenses"`
	Skipped  []SkippedEntry   `json:"skipped"`
}

// Created returns how many ledger entries were materialized.
func (r *ProcessResult) Created() int {
	return len(r.Incomes) + len(r.Expenses)
}

// RecurringServicer defines the contract for recurring transactions and
// the scheduler that materializes them.
type RecurringServicer interface {
	CreateRecurring(userID string, input RecurringInput) (*models.RecurringTransaction, error)
	GetUserRecurring(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringTransaction], error)
	GetRecurringByID(userID, recurringID string) (*models.RecurringTransaction, error)
	UpdateRecurring(userID, recurringID string, update RecurringUpdate) (*models.RecurringTransaction, error)
	DeleteRecurring(userID, recurringID string) error
	ProcessDueEntries(ctx context.Context, userID string, asOf time.Time) (*ProcessResult, error)
	DueUserIDs(ctx context.Context, asOf time.Time) ([]string, error)
}

// CategoryTotal is the amount spent or earned under one label.
type CategoryTotal struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// Conversion statuses reported on dashboards.
const (
	ConversionNotRequired = "not_required"
	ConversionOK          = "ok"
	ConversionUnavailable = "unavailable"
)

// ConvertedTotals are the dashboard totals in the requested currency.
type ConvertedTotals struct {
	Currency     string          `json:"currency"`
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Balance      decimal.Decimal `json:"balance"`
}

// Dashboard summarises a user's incomes and expenses over a period.
type Dashboard struct {
	Currency          string           `json:"currency"`
	TotalIncome       decimal.Decimal  `json:"total_income"`
	TotalExpense      decimal.Decimal  `json:"total_expense"`
	Balance           decimal.Decimal  `json:"balance"`
	ExpenseByCategory []CategoryTotal  `json:"expense_by_category"`
	IncomeBySource    []CategoryTotal  `json:"income_by_source"`
	TopCategory       string           `json:"top_category"`
	ConversionStatus  string           `json:"conversion_status"`
	Converted         *ConvertedTotals `json:"converted,omitempty"`
}

// DashboardQuery selects the period and display currency of a dashboard.
type DashboardQuery struct {
	FromDate *time.Time
	ToDate   *time.Time
	Currency string
}

// DashboardServicer defines the contract for dashboard aggregation.
type DashboardServicer interface {
	GetDashboard(ctx context.Context, userID string, query DashboardQuery) (*Dashboard, error)
}

// Export formats.
const (
	ExportCSV = "csv"
	ExportPDF = "pdf"
)

// ExportFile is a rendered export ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportServicer defines the contract for exporting financial records.
type ExportServicer interface {
	Export(userID string, from, to time.Time, format string) (*ExportFile, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
