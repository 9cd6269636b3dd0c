// Package scheduler runs the recurring-transaction scheduler over every user
// with due entries, either once or on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"budgeteer/internal/ledger"
	"budgeteer/internal/logger"
	"budgeteer/internal/metrics"
	"budgeteer/internal/services"
)

// ErrAlreadyRunning is returned when a pass is requested while another is in progress.
var ErrAlreadyRunning = errors.New("scheduler run already in progress")

// Run outcomes recorded in metrics.
const (
	OutcomeOK      = "ok"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// DueProcessor is the part of the recurring service the runner needs.
type DueProcessor interface {
	DueUserIDs(ctx context.Context, asOf time.Time) ([]string, error)
	ProcessDueEntries(ctx context.Context, userID string, asOf time.Time) (*services.ProcessResult, error)
}

// UserError records a user whose entries could not be processed.
type UserError struct {
	UserID string `json:"user_id"`
	Error  string `json:"error"`
}

// RunResult contains the outcome of one pass over all users.
type RunResult struct {
	AsOf           time.Time     `json:"as_of"`
	UsersProcessed int           `json:"users_processed"`
	Created        int           `json:"created"`
	Skipped        int           `json:"skipped"`
	Errors         []UserError   `json:"errors"`
	Duration       time.Duration `json:"duration_ns"`
}

// Runner materializes due recurring transactions for all users. At most one
// pass runs at a time.
type Runner struct {
	processor DueProcessor
	now       func() time.Time
	mu        sync.Mutex
}

// NewRunner creates a new Runner.
func NewRunner(processor DueProcessor) *Runner {
	return &Runner{processor: processor, now: time.Now}
}

// RunOnce processes every user with entries due on or before asOf. A zero
// asOf means today. A failure for one user is recorded and the pass moves on.
func (r *Runner) RunOnce(ctx context.Context, asOf time.Time) (*RunResult, error) {
	if !r.mu.TryLock() {
		metrics.SchedulerRuns.WithLabelValues(OutcomeSkipped).Inc()
		return nil, ErrAlreadyRunning
	}
	defer r.mu.Unlock()

	start := time.Now()
	if asOf.IsZero() {
		asOf = r.now()
	}
	asOf = ledger.DateOnly(asOf)
	result := &RunResult{AsOf: asOf, Errors: []UserError{}}
	log := logger.Get()

	userIDs, err := r.processor.DueUserIDs(ctx, asOf)
	if err != nil {
		metrics.SchedulerRuns.WithLabelValues(OutcomeFailed).Inc()
		return nil, err
	}

	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			metrics.SchedulerRuns.WithLabelValues(OutcomeFailed).Inc()
			return nil, err
		}

		processed, err := r.processor.ProcessDueEntries(ctx, userID, asOf)
		if err != nil {
			log.Errorw("recurring processing failed", "error", err, "user_id", userID)
			result.Errors = append(result.Errors, UserError{UserID: userID, Error: err.Error()})
			continue
		}
		result.UsersProcessed++
		result.Created += processed.Created()
		result.Skipped += len(processed.Skipped)
	}

	result.Duration = time.Since(start)
	outcome := OutcomeOK
	if len(result.Errors) > 0 {
		outcome = OutcomePartial
	}
	metrics.SchedulerRuns.WithLabelValues(outcome).Inc()

	log.Infow("scheduler run completed",
		"as_of", asOf.Format("2006-01-02"),
		"users_processed", result.UsersProcessed,
		"created", result.Created,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
		"duration", result.Duration.String(),
	)
	return result, nil
}

// Start runs a pass immediately and then every interval until ctx is done.
func (r *Runner) Start(ctx context.Context, interval time.Duration) {
	log := logger.Get()
	log.Infow("scheduler started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := r.RunOnce(ctx, time.Time{}); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorw("scheduler run failed", "error", err)
		}
		select {
		case <-ctx.Done():
			log.Info("scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}
