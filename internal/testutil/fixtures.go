package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"budgeteer/internal/ledger"
	"budgeteer/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique username and email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithUsername(t, db, fmt.Sprintf("user%d", nextID()))
}

// CreateTestUserWithUsername creates a user with the given username.
func CreateTestUserWithUsername(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username:    username,
		Email:       username + "@test.com",
		Password:    string(hash),
		DisplayName: username,
		Currency:    "USD",
		Theme:       models.ThemeLight,
		IsActive:    true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestGroup creates a group owned by creator with creator and the
// given users as members, in that order.
func CreateTestGroup(t *testing.T, db *gorm.DB, creator *models.User, members ...*models.User) *models.Group {
	t.Helper()

	group := &models.Group{
		Name:          fmt.Sprintf("Test Group %d", nextID()),
		CreatorUserID: creator.ID,
	}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("failed to create test group: %v", err)
	}

	for _, u := range append([]*models.User{creator}, members...) {
		AddTestMember(t, db, group, u)
	}
	return group
}

// AddTestMember adds user to group.
func AddTestMember(t *testing.T, db *gorm.DB, group *models.Group, user *models.User) *models.GroupMember {
	t.Helper()

	member := &models.GroupMember{GroupID: group.ID, UserID: user.ID}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to add test member: %v", err)
	}
	return member
}

// CreateTestSharedExpense inserts a shared expense paid by payer and split
// equally between participants, bypassing the service layer.
func CreateTestSharedExpense(t *testing.T, db *gorm.DB, group *models.Group, payer *models.User, amount string, participants ...*models.User) *models.SharedExpense {
	t.Helper()

	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
	}
	shares, err := ledger.SplitEqually(decimal.RequireFromString(amount), ids, payer.ID)
	if err != nil {
		t.Fatalf("failed to split test expense: %v", err)
	}

	expense := &models.SharedExpense{
		GroupID:      group.ID,
		Description:  fmt.Sprintf("Test Shared Expense %d", nextID()),
		Amount:       decimal.RequireFromString(amount),
		PaidByUserID: payer.ID,
	}
	for _, s := range shares {
		expense.Shares = append(expense.Shares, models.ExpenseShare{UserID: s.UserID, AmountOwed: s.Amount})
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test shared expense: %v", err)
	}
	return expense
}

// CreateTestExpense creates an expense of the given amount for userID.
func CreateTestExpense(t *testing.T, db *gorm.DB, userID, category, amount string, date time.Time) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		Entry: models.Entry{
			UserID:    userID,
			Amount:    decimal.RequireFromString(amount),
			Date:      date,
			Frequency: models.FrequencyNone,
		},
		Category: category,
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}

// CreateTestIncome creates an income of the given amount for userID.
func CreateTestIncome(t *testing.T, db *gorm.DB, userID, source, amount string, date time.Time) *models.Income {
	t.Helper()

	income := &models.Income{
		Entry: models.Entry{
			UserID:    userID,
			Amount:    decimal.RequireFromString(amount),
			Date:      date,
			Frequency: models.FrequencyNone,
		},
		Source: source,
	}
	if err := db.Create(income).Error; err != nil {
		t.Fatalf("failed to create test income: %v", err)
	}
	return income
}

// CreateTestRecurring creates a recurring template due on nextDate.
func CreateTestRecurring(t *testing.T, db *gorm.DB, userID string, txType models.TransactionType, interval models.Frequency, amount string, nextDate time.Time) *models.RecurringTransaction {
	t.Helper()

	next := ledger.DateOnly(nextDate)
	rt := &models.RecurringTransaction{
		UserID:    userID,
		Type:      txType,
		Amount:    decimal.RequireFromString(amount),
		Category:  "Rent",
		Interval:  interval,
		NextDate:  next,
		AnchorDay: next.Day(),
	}
	if err := db.Create(rt).Error; err != nil {
		t.Fatalf("failed to create test recurring transaction: %v", err)
	}
	return rt
}

// Date parses a YYYY-MM-DD string as midnight UTC.
func Date(t *testing.T, s string) time.Time {
	t.Helper()

	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("invalid test date %q: %v", s, err)
	}
	return d
}
