package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/models"
	"budgeteer/internal/pagination"
	"budgeteer/internal/services"
)

// --- mock services ---

type mockIncomeService struct {
	createIncomeFn   func(userID string, input services.EntryInput) (*models.Income, error)
	getUserIncomesFn func(userID string, page pagination.PageRequest, filter services.EntryFilter) (*pagination.PageResponse[models.Income], error)
	getIncomeByIDFn  func(userID, incomeID string) (*models.Income, error)
	updateIncomeFn   func(userID, incomeID string, update services.EntryUpdate) (*models.Income, error)
	deleteIncomeFn   func(userID, incomeID string) error
}

var _ services.IncomeServicer = (*mockIncomeService)(nil)

func (m *mockIncomeService) CreateIncome(userID string, input services.EntryInput) (*models.Income, error) {
	if m.createIncomeFn != nil {
		return m.createIncomeFn(userID, input)
	}
	return &models.Income{Base: models.Base{ID: testItemID}, Source: input.Label}, nil
}

func (m *mockIncomeService) GetUserIncomes(userID string, page pagination.PageRequest, filter services.EntryFilter) (*pagination.PageResponse[models.Income], error) {
	if m.getUserIncomesFn != nil {
		return m.getUserIncomesFn(userID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Income{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockIncomeService) GetIncomeByID(userID, incomeID string) (*models.Income, error) {
	if m.getIncomeByIDFn != nil {
		return m.getIncomeByIDFn(userID, incomeID)
	}
	return &models.Income{Base: models.Base{ID: incomeID}}, nil
}

func (m *mockIncomeService) UpdateIncome(userID, incomeID string, update services.EntryUpdate) (*models.Income, error) {
	if m.updateIncomeFn != nil {
		return m.updateIncomeFn(userID, incomeID, update)
	}
	return &models.Income{Base: models.Base{ID: incomeID}}, nil
}

func (m *mockIncomeService) DeleteIncome(userID, incomeID string) error {
	if m.deleteIncomeFn != nil {
		return m.deleteIncomeFn(userID, incomeID)
	}
	return nil
}

type mockExpenseService struct {
	createExpenseFn   func(ctx context.Context, userID string, input services.EntryInput) (*models.Expense, error)
	getUserExpensesFn func(userID string, page pagination.PageRequest, filter services.EntryFilter) (*pagination.PageResponse[models.Expense], error)
	getExpenseByIDFn  func(userID, expenseID string) (*models.Expense, error)
	updateExpenseFn   func(userID, expenseID string, update services.EntryUpdate) (*models.Expense, error)
	deleteExpenseFn   func(userID, expenseID string) error
}

var _ services.ExpenseServicer = (*mockExpenseService)(nil)

func (m *mockExpenseService) CreateExpense(ctx context.Context, userID string, input services.EntryInput) (*models.Expense, error) {
	if m.createExpenseFn != nil {
		return m.createExpenseFn(ctx, userID, input)
	}
	return &models.Expense{Base: models.Base{ID: testItemID}, Category: input.Label}, nil
}

func (m *mockExpenseService) GetUserExpenses(userID string, page pagination.PageRequest, filter services.EntryFilter) (*pagination.PageResponse[models.Expense], error) {
	if m.getUserExpensesFn != nil {
		return m.getUserExpensesFn(userID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Expense{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockExpenseService) GetExpenseByID(userID, expenseID string) (*models.Expense, error) {
	if m.getExpenseByIDFn != nil {
		return m.getExpenseByIDFn(userID, expenseID)
	}
	return &models.Expense{Base: models.Base{ID: expenseID}}, nil
}

func (m *mockExpenseService) UpdateExpense(userID, expenseID string, update services.EntryUpdate) (*models.Expense, error) {
	if m.updateExpenseFn != nil {
		return m.updateExpenseFn(userID, expenseID, update)
	}
	return &models.Expense{Base: models.Base{ID: expenseID}}, nil
}

func (m *mockExpenseService) DeleteExpense(userID, expenseID string) error {
	if m.deleteExpenseFn != nil {
		return m.deleteExpenseFn(userID, expenseID)
	}
	return nil
}

func setupIncomeRouter(handler *IncomeHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/incomes", handler.CreateIncome)
	auth.GET("/incomes", handler.GetIncomes)
	auth.GET("/incomes/:id", handler.GetIncomeByID)
	auth.PUT("/incomes/:id", handler.UpdateIncome)
	auth.DELETE("/incomes/:id", handler.DeleteIncome)
	return r
}

func setupExpenseRouter(handler *ExpenseHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/expenses", handler.CreateExpense)
	auth.GET("/expenses", handler.GetExpenses)
	auth.GET("/expenses/:id", handler.GetExpenseByID)
	auth.PUT("/expenses/:id", handler.UpdateExpense)
	auth.DELETE("/expenses/:id", handler.DeleteExpense)
	return r
}

// --- tests ---

func TestIncomeHandler_CreateIncome(t *testing.T) {
	t.Run("returns 201 and maps fields", func(t *testing.T) {
		var got services.EntryInput
		svc := &mockIncomeService{
			createIncomeFn: func(userID string, input services.EntryInput) (*models.Income, error) {
				got = input
				return &models.Income{Base: models.Base{ID: testItemID}, Entry: models.Entry{UserID: userID, Amount: input.Amount}, Source: input.Label}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupIncomeRouter(NewIncomeHandler(svc, audit))

		rec := doRequest(r, "POST", "/incomes",
			`{"amount":"2500.00","source":"Salary","date":"2025-01-31","is_recurring":true,"frequency":"monthly"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !got.Amount.Equal(decimal.RequireFromString("2500")) || got.Label != "Salary" {
			t.Errorf("unexpected input %+v", got)
		}
		if got.Date.Format("2006-01-02") != "2025-01-31" || !got.IsRecurring || got.Frequency != models.FrequencyMonthly {
			t.Errorf("unexpected date/recurrence %+v", got)
		}
		if len(audit.actions) != 1 || audit.actions[0] != "CREATE_INCOME" {
			t.Errorf("expected CREATE_INCOME audit, got %v", audit.actions)
		}
	})

	t.Run("returns 400 on missing source", func(t *testing.T) {
		r := setupIncomeRouter(NewIncomeHandler(&mockIncomeService{}, &mockAuditService{}))
		rec := doRequest(r, "POST", "/incomes", `{"amount":"10"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on bad date and frequency", func(t *testing.T) {
		r := setupIncomeRouter(NewIncomeHandler(&mockIncomeService{}, &mockAuditService{}))
		for _, body := range []string{
			`{"amount":"10","source":"Gift","date":"31/01/2025"}`,
			`{"amount":"10","source":"Gift","frequency":"yearly"}`,
		} {
			rec := doRequest(r, "POST", "/incomes", body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400 for %s, got %d", body, rec.Code)
			}
		}
	})

	t.Run("passes service amount error through", func(t *testing.T) {
		svc := &mockIncomeService{
			createIncomeFn: func(string, services.EntryInput) (*models.Income, error) {
				return nil, apperrors.ErrInvalidAmount
			},
		}
		r := setupIncomeRouter(NewIncomeHandler(svc, &mockAuditService{}))
		rec := doRequest(r, "POST", "/incomes", `{"amount":"-5","source":"Gift"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_AMOUNT")
	})
}

func TestIncomeHandler_GetIncomes(t *testing.T) {
	t.Run("parses filters", func(t *testing.T) {
		var gotFilter services.EntryFilter
		var gotPage pagination.PageRequest
		svc := &mockIncomeService{
			getUserIncomesFn: func(_ string, page pagination.PageRequest, filter services.EntryFilter) (*pagination.PageResponse[models.Income], error) {
				gotPage, gotFilter = page, filter
				resp := pagination.NewPageResponse([]models.Income{}, 2, 10, 0)
				return &resp, nil
			},
		}
		r := setupIncomeRouter(NewIncomeHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/incomes?page=2&page_size=10&from_date=2025-01-01&source=Salary&recurring=true", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotPage.Page != 2 || gotPage.PageSize != 10 {
			t.Errorf("unexpected page %+v", gotPage)
		}
		if gotFilter.FromDate == nil || gotFilter.ToDate != nil {
			t.Errorf("unexpected dates %+v", gotFilter)
		}
		if gotFilter.Label == nil || *gotFilter.Label != "Salary" || gotFilter.Recurring == nil || !*gotFilter.Recurring {
			t.Errorf("unexpected filter %+v", gotFilter)
		}
	})

	t.Run("rejects bad recurring flag", func(t *testing.T) {
		r := setupIncomeRouter(NewIncomeHandler(&mockIncomeService{}, &mockAuditService{}))
		rec := doRequest(r, "GET", "/incomes?recurring=maybe", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects page_size over 100", func(t *testing.T) {
		r := setupIncomeRouter(NewIncomeHandler(&mockIncomeService{}, &mockAuditService{}))
		rec := doRequest(r, "GET", "/incomes?page_size=500", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestIncomeHandler_ByID(t *testing.T) {
	t.Run("invalid id returns 400", func(t *testing.T) {
		r := setupIncomeRouter(NewIncomeHandler(&mockIncomeService{}, &mockAuditService{}))
		rec := doRequest(r, "GET", "/incomes/42", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("not owner returns 403", func(t *testing.T) {
		svc := &mockIncomeService{
			getIncomeByIDFn: func(string, string) (*models.Income, error) { return nil, apperrors.ErrNotOwner },
		}
		r := setupIncomeRouter(NewIncomeHandler(svc, &mockAuditService{}))
		rec := doRequest(r, "GET", "/incomes/"+testItemID, "")
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "NOT_OWNER")
	})

	t.Run("update passes source as label", func(t *testing.T) {
		var got services.EntryUpdate
		svc := &mockIncomeService{
			updateIncomeFn: func(_, id string, update services.EntryUpdate) (*models.Income, error) {
				got = update
				return &models.Income{Base: models.Base{ID: id}}, nil
			},
		}
		r := setupIncomeRouter(NewIncomeHandler(svc, &mockAuditService{}))
		rec := doRequest(r, "PUT", "/incomes/"+testItemID, `{"source":"Bonus","date":"2025-02-01"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Label == nil || *got.Label != "Bonus" || got.Date == nil || got.Amount != nil {
			t.Errorf("unexpected update %+v", got)
		}
	})

	t.Run("delete returns 200", func(t *testing.T) {
		var deleted string
		svc := &mockIncomeService{
			deleteIncomeFn: func(_, id string) error {
				deleted = id
				return nil
			},
		}
		r := setupIncomeRouter(NewIncomeHandler(svc, &mockAuditService{}))
		rec := doRequest(r, "DELETE", "/incomes/"+testItemID, "")
		if rec.Code != http.StatusOK || deleted != testItemID {
			t.Fatalf("expected 200 deleting %s, got %d (%s)", testItemID, rec.Code, deleted)
		}
	})

	t.Run("delete not found returns 404", func(t *testing.T) {
		svc := &mockIncomeService{
			deleteIncomeFn: func(string, string) error { return apperrors.ErrIncomeNotFound },
		}
		r := setupIncomeRouter(NewIncomeHandler(svc, &mockAuditService{}))
		rec := doRequest(r, "DELETE", "/incomes/"+testItemID, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INCOME_NOT_FOUND")
	})
}

func TestExpenseHandler(t *testing.T) {
	t.Run("create without category", func(t *testing.T) {
		var got services.EntryInput
		svc := &mockExpenseService{
			createExpenseFn: func(_ context.Context, _ string, input services.EntryInput) (*models.Expense, error) {
				got = input
				return &models.Expense{Base: models.Base{ID: testItemID}, Category: "Food"}, nil
			},
		}
		r := setupExpenseRouter(NewExpenseHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/expenses", `{"amount":12.5,"description":"lunch with team"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Label != "" || got.Description != "lunch with team" || !got.Amount.Equal(decimal.RequireFromString("12.5")) {
			t.Errorf("unexpected input %+v", got)
		}
		expense := parseJSON(t, rec)["expense"].(map[string]interface{})
		if expense["category"] != "Food" {
			t.Errorf("expected classified category, got %v", expense["category"])
		}
	})

	t.Run("list parses category filter", func(t *testing.T) {
		var gotFilter services.EntryFilter
		svc := &mockExpenseService{
			getUserExpensesFn: func(_ string, _ pagination.PageRequest, filter services.EntryFilter) (*pagination.PageResponse[models.Expense], error) {
				gotFilter = filter
				resp := pagination.NewPageResponse([]models.Expense{}, 1, 20, 0)
				return &resp, nil
			},
		}
		r := setupExpenseRouter(NewExpenseHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/expenses?category=Rent&to_date=2025-01-31T00:00:00Z", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotFilter.Label == nil || *gotFilter.Label != "Rent" || gotFilter.ToDate == nil {
			t.Errorf("unexpected filter %+v", gotFilter)
		}
	})

	t.Run("update rejects empty date", func(t *testing.T) {
		r := setupExpenseRouter(NewExpenseHandler(&mockExpenseService{}, &mockAuditService{}))
		rec := doRequest(r, "PUT", "/expenses/"+testItemID, `{"date":""}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("get not found", func(t *testing.T) {
		svc := &mockExpenseService{
			getExpenseByIDFn: func(string, string) (*models.Expense, error) { return nil, apperrors.ErrExpenseNotFound },
		}
		r := setupExpenseRouter(NewExpenseHandler(svc, &mockAuditService{}))
		rec := doRequest(r, "GET", "/expenses/"+testItemID, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("delete audits", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupExpenseRouter(NewExpenseHandler(&mockExpenseService{}, audit))
		rec := doRequest(r, "DELETE", "/expenses/"+testItemID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if len(audit.actions) != 1 || audit.actions[0] != "DELETE_EXPENSE" {
			t.Errorf("expected DELETE_EXPENSE audit, got %v", audit.actions)
		}
	})
}
