package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"budgeteer/internal/scheduler"
)

type mockRunner struct {
	runOnceFn func(ctx context.Context, asOf time.Time) (*scheduler.RunResult, error)
}

var _ SchedulerRunner = (*mockRunner)(nil)
var _ SchedulerRunner = (*scheduler.Runner)(nil)

func (m *mockRunner) RunOnce(ctx context.Context, asOf time.Time) (*scheduler.RunResult, error) {
	if m.runOnceFn != nil {
		return m.runOnceFn(ctx, asOf)
	}
	return &scheduler.RunResult{AsOf: asOf, Errors: []scheduler.UserError{}}, nil
}

func setupSchedulerRouter(handler *SchedulerHandler) *gin.Engine {
	r := gin.New()
	r.POST("/internal/scheduler/run", handler.Run)
	return r
}

func TestSchedulerHandler_Run(t *testing.T) {
	t.Run("returns run summary", func(t *testing.T) {
		var gotAsOf time.Time
		runner := &mockRunner{
			runOnceFn: func(_ context.Context, asOf time.Time) (*scheduler.RunResult, error) {
				gotAsOf = asOf
				return &scheduler.RunResult{
					AsOf:           time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
					UsersProcessed: 2,
					Created:        5,
					Errors:         []scheduler.UserError{{UserID: testOtherID, Error: "boom"}},
				}, nil
			},
		}
		r := setupSchedulerRouter(NewSchedulerHandler(runner))

		rec := doRequest(r, "POST", "/internal/scheduler/run?as_of=2025-03-01", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotAsOf.Format("2006-01-02") != "2025-03-01" {
			t.Errorf("unexpected as_of %v", gotAsOf)
		}
		body := parseJSON(t, rec)
		if body["created"] != float64(5) || body["users_processed"] != float64(2) {
			t.Errorf("unexpected body %v", body)
		}
		if errs := body["errors"].([]interface{}); len(errs) != 1 {
			t.Errorf("expected 1 user error, got %d", len(errs))
		}
	})

	t.Run("omitted as_of is zero", func(t *testing.T) {
		var gotAsOf time.Time
		runner := &mockRunner{
			runOnceFn: func(_ context.Context, asOf time.Time) (*scheduler.RunResult, error) {
				gotAsOf = asOf
				return &scheduler.RunResult{Errors: []scheduler.UserError{}}, nil
			},
		}
		r := setupSchedulerRouter(NewSchedulerHandler(runner))
		rec := doRequest(r, "POST", "/internal/scheduler/run", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !gotAsOf.IsZero() {
			t.Errorf("expected zero as_of, got %v", gotAsOf)
		}
	})

	t.Run("overlapping run returns 409", func(t *testing.T) {
		runner := &mockRunner{
			runOnceFn: func(context.Context, time.Time) (*scheduler.RunResult, error) {
				return nil, scheduler.ErrAlreadyRunning
			},
		}
		r := setupSchedulerRouter(NewSchedulerHandler(runner))
		rec := doRequest(r, "POST", "/internal/scheduler/run", "")
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "SCHEDULER_BUSY")
	})

	t.Run("lookup failure returns 500", func(t *testing.T) {
		runner := &mockRunner{
			runOnceFn: func(context.Context, time.Time) (*scheduler.RunResult, error) {
				return nil, errors.New("db down")
			},
		}
		r := setupSchedulerRouter(NewSchedulerHandler(runner))
		rec := doRequest(r, "POST", "/internal/scheduler/run", "")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INTERNAL_ERROR")
	})

	t.Run("rejects bad as_of", func(t *testing.T) {
		r := setupSchedulerRouter(NewSchedulerHandler(&mockRunner{}))
		rec := doRequest(r, "POST", "/internal/scheduler/run?as_of=yesterday", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
