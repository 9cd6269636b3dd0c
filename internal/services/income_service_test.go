package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"budgeteer/internal/models"
	"budgeteer/internal/pagination"
	"budgeteer/internal/testutil"
)

func TestCreateIncome(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIncomeService(db)

		user := testutil.CreateTestUser(t, db)
		income, err := svc.CreateIncome(user.ID, EntryInput{
			Amount: decimal.RequireFromString("2500.00"),
			Label:  "Salary",
			Date:   testutil.Date(t, "2025-03-01"),
		})
		testutil.AssertNoError(t, err)

		if income.Source != "Salary" {
			t.Errorf("expected source Salary, got %s", income.Source)
		}
		if income.Frequency != models.FrequencyNone {
			t.Errorf("expected frequency none, got %s", income.Frequency)
		}
		testutil.AssertDecimal(t, income.Amount, "2500")
	})

	t.Run("recurring_keeps_frequency", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIncomeService(db)

		user := testutil.CreateTestUser(t, db)
		income, err := svc.CreateIncome(user.ID, EntryInput{
			Amount:      decimal.NewFromInt(100),
			Label:       "Rent",
			IsRecurring: true,
			Frequency:   models.FrequencyMonthly,
		})
		testutil.AssertNoError(t, err)
		if income.Frequency != models.FrequencyMonthly || !income.IsRecurring {
			t.Errorf("expected recurring monthly, got %v/%s", income.IsRecurring, income.Frequency)
		}
		if income.Date.IsZero() {
			t.Error("expected date to default to today")
		}
	})

	t.Run("non_recurring_drops_frequency", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIncomeService(db)

		user := testutil.CreateTestUser(t, db)
		income, err := svc.CreateIncome(user.ID, EntryInput{
			Amount:    decimal.NewFromInt(100),
			Label:     "Gift",
			Frequency: models.FrequencyWeekly,
		})
		testutil.AssertNoError(t, err)
		if income.Frequency != models.FrequencyNone {
			t.Errorf("expected frequency none, got %s", income.Frequency)
		}
	})

	t.Run("invalid_inputs", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIncomeService(db)
		user := testutil.CreateTestUser(t, db)

		tests := []struct {
			name  string
			input EntryInput
			code  string
		}{
			{"zero_amount", EntryInput{Amount: decimal.Zero, Label: "x"}, "INVALID_AMOUNT"},
			{"negative_amount", EntryInput{Amount: decimal.NewFromInt(-5), Label: "x"}, "INVALID_AMOUNT"},
			{"sub_cent_amount", EntryInput{Amount: decimal.RequireFromString("1.005"), Label: "x"}, "INVALID_AMOUNT"},
			{"missing_source", EntryInput{Amount: decimal.NewFromInt(5)}, "INVALID_INPUT"},
			{"recurring_without_frequency", EntryInput{Amount: decimal.NewFromInt(5), Label: "x", IsRecurring: true}, "INVALID_FREQUENCY"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.CreateIncome(user.ID, tt.input)
				testutil.AssertAppError(t, err, tt.code)
			})
		}
		testutil.AssertRowCount(t, db, &models.Income{}, 0)
	})
}

func TestGetUserIncomes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewIncomeService(db)

	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	testutil.CreateTestIncome(t, db, user.ID, "Salary", "1000", testutil.Date(t, "2025-01-15"))
	testutil.CreateTestIncome(t, db, user.ID, "Bonus", "200", testutil.Date(t, "2025-02-15"))
	testutil.CreateTestIncome(t, db, user.ID, "Salary", "1000", testutil.Date(t, "2025-03-15"))
	testutil.CreateTestIncome(t, db, other.ID, "Salary", "9999", testutil.Date(t, "2025-03-15"))

	t.Run("newest_first", func(t *testing.T) {
		page, err := svc.GetUserIncomes(user.ID, pagination.PageRequest{}, EntryFilter{})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 3 {
			t.Fatalf("expected 3 incomes, got %d", page.TotalItems)
		}
		if page.Data[0].Date.Month() != 3 {
			t.Errorf("expected March first, got %s", page.Data[0].Date)
		}
	})

	t.Run("filter_by_source_and_date", func(t *testing.T) {
		source := "Salary"
		from := testutil.Date(t, "2025-02-01")
		page, err := svc.GetUserIncomes(user.ID, pagination.PageRequest{}, EntryFilter{Label: &source, FromDate: &from})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 1 {
			t.Errorf("expected 1 income, got %d", page.TotalItems)
		}
	})

	t.Run("pagination", func(t *testing.T) {
		page, err := svc.GetUserIncomes(user.ID, pagination.PageRequest{Page: 2, PageSize: 2}, EntryFilter{})
		testutil.AssertNoError(t, err)
		if len(page.Data) != 1 || page.TotalPages != 2 {
			t.Errorf("expected 1 item on page 2 of 2, got %d items of %d pages", len(page.Data), page.TotalPages)
		}
	})
}

func TestIncomeOwnership(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewIncomeService(db)

	owner := testutil.CreateTestUser(t, db)
	intruder := testutil.CreateTestUser(t, db)
	income := testutil.CreateTestIncome(t, db, owner.ID, "Salary", "1000", testutil.Date(t, "2025-01-15"))

	_, err := svc.GetIncomeByID(intruder.ID, income.ID)
	testutil.AssertAppError(t, err, "NOT_OWNER")

	amount := decimal.NewFromInt(1)
	_, err = svc.UpdateIncome(intruder.ID, income.ID, EntryUpdate{Amount: &amount})
	testutil.AssertAppError(t, err, "NOT_OWNER")

	err = svc.DeleteIncome(intruder.ID, income.ID)
	testutil.AssertAppError(t, err, "NOT_OWNER")

	_, err = svc.GetIncomeByID(owner.ID, "0190a3f0-0000-7000-8000-000000000000")
	testutil.AssertAppError(t, err, "INCOME_NOT_FOUND")

	got, err := svc.GetIncomeByID(owner.ID, income.ID)
	testutil.AssertNoError(t, err)
	testutil.AssertDecimal(t, got.Amount, "1000")
}

func TestUpdateIncome(t *testing.T) {
	t.Run("partial_update", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIncomeService(db)

		user := testutil.CreateTestUser(t, db)
		income := testutil.CreateTestIncome(t, db, user.ID, "Salary", "1000", testutil.Date(t, "2025-01-15"))

		amount := decimal.RequireFromString("1200.50")
		recurring := true
		freq := models.FrequencyMonthly
		updated, err := svc.UpdateIncome(user.ID, income.ID, EntryUpdate{Amount: &amount, IsRecurring: &recurring, Frequency: &freq})
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, updated.Amount, "1200.50")
		if updated.Source != "Salary" {
			t.Errorf("source should be untouched, got %s", updated.Source)
		}
		if !updated.IsRecurring || updated.Frequency != models.FrequencyMonthly {
			t.Errorf("expected recurring monthly, got %v/%s", updated.IsRecurring, updated.Frequency)
		}
	})

	t.Run("invalid_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewIncomeService(db)

		user := testutil.CreateTestUser(t, db)
		income := testutil.CreateTestIncome(t, db, user.ID, "Salary", "1000", testutil.Date(t, "2025-01-15"))

		amount := decimal.Zero
		_, err := svc.UpdateIncome(user.ID, income.ID, EntryUpdate{Amount: &amount})
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
	})
}

func TestDeleteIncome(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewIncomeService(db)

	user := testutil.CreateTestUser(t, db)
	income := testutil.CreateTestIncome(t, db, user.ID, "Salary", "1000", testutil.Date(t, "2025-01-15"))

	testutil.AssertNoError(t, svc.DeleteIncome(user.ID, income.ID))

	_, err := svc.GetIncomeByID(user.ID, income.ID)
	testutil.AssertAppError(t, err, "INCOME_NOT_FOUND")
}
