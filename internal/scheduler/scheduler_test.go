package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"budgeteer/internal/metrics"
	"budgeteer/internal/models"
	"budgeteer/internal/services"
	"budgeteer/internal/testutil"
)

// mockProcessor implements DueProcessor for testing.
type mockProcessor struct {
	dueUserIDsFn func(ctx context.Context, asOf time.Time) ([]string, error)
	processFn    func(ctx context.Context, userID string, asOf time.Time) (*services.ProcessResult, error)
}

func (m *mockProcessor) DueUserIDs(ctx context.Context, asOf time.Time) ([]string, error) {
	return m.dueUserIDsFn(ctx, asOf)
}

func (m *mockProcessor) ProcessDueEntries(ctx context.Context, userID string, asOf time.Time) (*services.ProcessResult, error) {
	return m.processFn(ctx, userID, asOf)
}

var _ DueProcessor = (*mockProcessor)(nil)
var _ DueProcessor = services.RecurringServicer(nil)

func TestRunOnce(t *testing.T) {
	t.Run("aggregates_users_and_continues_past_failures", func(t *testing.T) {
		var seen []string
		p := &mockProcessor{
			dueUserIDsFn: func(_ context.Context, _ time.Time) ([]string, error) {
				return []string{"u1", "u2", "u3"}, nil
			},
			processFn: func(_ context.Context, userID string, _ time.Time) (*services.ProcessResult, error) {
				seen = append(seen, userID)
				if userID == "u2" {
					return nil, errors.New("db down")
				}
				return &services.ProcessResult{
					Incomes:  make([]models.Income, 1),
					Expenses: make([]models.Expense, 2),
					Skipped:  []services.SkippedEntry{{RecurringID: "r", Reason: services.SkipConcurrentUpdate}},
				}, nil
			},
		}

		result, err := NewRunner(p).RunOnce(context.Background(), testutil.Date(t, "2025-02-01"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(seen) != 3 {
			t.Errorf("expected all users attempted, got %v", seen)
		}
		if result.UsersProcessed != 2 || result.Created != 6 || result.Skipped != 2 {
			t.Errorf("unexpected result %+v", result)
		}
		if len(result.Errors) != 1 || result.Errors[0].UserID != "u2" {
			t.Errorf("expected u2 error, got %+v", result.Errors)
		}
	})

	t.Run("zero_as_of_uses_today", func(t *testing.T) {
		var got time.Time
		p := &mockProcessor{
			dueUserIDsFn: func(_ context.Context, asOf time.Time) ([]string, error) {
				got = asOf
				return nil, nil
			},
		}
		r := NewRunner(p)
		r.now = func() time.Time { return time.Date(2025, 6, 1, 18, 45, 0, 0, time.UTC) }

		_, err := r.RunOnce(context.Background(), time.Time{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("expected midnight of today, got %v", got)
		}
	})

	t.Run("due_lookup_failure", func(t *testing.T) {
		p := &mockProcessor{
			dueUserIDsFn: func(_ context.Context, _ time.Time) ([]string, error) {
				return nil, errors.New("boom")
			},
		}
		if _, err := NewRunner(p).RunOnce(context.Background(), time.Time{}); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("cancelled_context_stops", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		p := &mockProcessor{
			dueUserIDsFn: func(_ context.Context, _ time.Time) ([]string, error) {
				return []string{"u1", "u2"}, nil
			},
			processFn: func(_ context.Context, _ string, _ time.Time) (*services.ProcessResult, error) {
				cancel()
				return &services.ProcessResult{}, nil
			},
		}
		_, err := NewRunner(p).RunOnce(ctx, time.Time{})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("overlapping_runs_rejected", func(t *testing.T) {
		release := make(chan struct{})
		entered := make(chan struct{})
		p := &mockProcessor{
			dueUserIDsFn: func(_ context.Context, _ time.Time) ([]string, error) {
				close(entered)
				<-release
				return nil, nil
			},
		}
		r := NewRunner(p)
		skipped := metrics.SchedulerRuns.WithLabelValues(OutcomeSkipped)
		before := promtestutil.ToFloat64(skipped)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.RunOnce(context.Background(), time.Time{})
		}()
		<-entered

		_, err := r.RunOnce(context.Background(), time.Time{})
		close(release)
		wg.Wait()

		if !errors.Is(err, ErrAlreadyRunning) {
			t.Errorf("expected ErrAlreadyRunning, got %v", err)
		}
		if got := promtestutil.ToFloat64(skipped) - before; got != 1 {
			t.Errorf("expected one skipped run recorded, got %v", got)
		}
	})
}

func TestRunOnce_WithRecurringService(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := services.NewRecurringService(db, services.RecurringOptions{})

	alice := testutil.CreateTestUser(t, db)
	bob := testutil.CreateTestUser(t, db)
	testutil.CreateTestRecurring(t, db, alice.ID, models.TransactionTypeExpense, models.FrequencyMonthly, "800", testutil.Date(t, "2025-01-31"))
	testutil.CreateTestRecurring(t, db, bob.ID, models.TransactionTypeIncome, models.FrequencyWeekly, "100", testutil.Date(t, "2025-01-20"))

	r := NewRunner(svc)
	asOf := testutil.Date(t, "2025-02-01")

	result, err := r.RunOnce(context.Background(), asOf)
	testutil.AssertNoError(t, err)
	if result.UsersProcessed != 2 || result.Created != 3 {
		t.Errorf("expected 2 users and 3 entries, got %+v", result)
	}

	again, err := r.RunOnce(context.Background(), asOf)
	testutil.AssertNoError(t, err)
	if again.Created != 0 || again.UsersProcessed != 0 {
		t.Errorf("second pass must be a no-op, got %+v", again)
	}
	testutil.AssertRowCount(t, db, &models.Expense{}, 1)
	testutil.AssertRowCount(t, db, &models.Income{}, 2)
}

func TestStart_StopsOnCancel(t *testing.T) {
	ran := make(chan struct{}, 4)
	p := &mockProcessor{
		dueUserIDsFn: func(_ context.Context, _ time.Time) ([]string, error) {
			ran <- struct{}{}
			return nil, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewRunner(p).Start(ctx, time.Hour)
		close(done)
	}()

	<-ran
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
