// Package metrics exposes Prometheus collectors for the HTTP layer, the
// shared-expense ledger and the recurring scheduler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "budgeteer_http_requests_total",
		Help: "HTTP requests handled, by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "budgeteer_http_request_duration_seconds",
		Help:    "HTTP request latency, by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	SharedExpensesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "budgeteer_shared_expenses_created_total",
		Help: "Shared expenses split and persisted.",
	})

	RecurringMaterialized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "budgeteer_recurring_materialized_total",
		Help: "Ledger entries created by the recurring scheduler, by type.",
	}, []string{"type"})

	RecurringSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "budgeteer_recurring_skipped_total",
		Help: "Recurring transactions skipped by the scheduler, by reason.",
	}, []string{"reason"})

	SchedulerRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "budgeteer_scheduler_runs_total",
		Help: "Scheduler passes over all users, by outcome.",
	}, []string{"outcome"})

	FXConversions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "budgeteer_fx_conversions_total",
		Help: "Currency conversions attempted, by status.",
	}, []string{"status"})
)
