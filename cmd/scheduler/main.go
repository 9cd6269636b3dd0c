// Command scheduler materializes due recurring transactions outside the API
// process, either once (for cron) or on an interval.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"budgeteer/internal/config"
	"budgeteer/internal/database"
	"budgeteer/internal/ledger"
	"budgeteer/internal/logger"
	"budgeteer/internal/scheduler"
	"budgeteer/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()

	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "scheduler",
		Short:        "Materialize due recurring transactions",
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.Init(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
		},
	}
	root.AddCommand(runCmd(), serveCmd(), userCmd())
	return root
}

func runCmd() *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process every user once and print the summary as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			date, err := parseAsOf(asOf)
			if err != nil {
				return err
			}
			return withRunner(func(_ services.RecurringServicer, runner *scheduler.Runner) error {
				result, err := runner.RunOnce(cmd.Context(), date)
				if err != nil {
					return fmt.Errorf("scheduler run failed: %w", err)
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "process entries due on or before this date (YYYY-MM-DD, default today)")
	return cmd
}

func serveCmd() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Process due entries now and then on every interval until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRunner(func(_ services.RecurringServicer, runner *scheduler.Runner) error {
				if interval <= 0 {
					interval = config.Get().SchedulerInterval
				}
				if interval <= 0 {
					return fmt.Errorf("interval must be positive")
				}
				runner.Start(cmd.Context(), interval)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "time between runs (default: SCHEDULER_INTERVAL)")
	return cmd
}

func userCmd() *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "user <user-id>",
		Short: "Process one user's due entries and print what was created",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := parseAsOf(asOf)
			if err != nil {
				return err
			}
			if date.IsZero() {
				date = ledger.DateOnly(time.Now())
			}
			return withRunner(func(recurring services.RecurringServicer, _ *scheduler.Runner) error {
				result, err := recurring.ProcessDueEntries(cmd.Context(), args[0], date)
				if err != nil {
					return fmt.Errorf("processing user %s failed: %w", args[0], err)
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "process entries due on or before this date (YYYY-MM-DD, default today)")
	return cmd
}

// parseAsOf parses an optional YYYY-MM-DD date. Empty means today.
func parseAsOf(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q: expected YYYY-MM-DD", s)
	}
	return ledger.DateOnly(t), nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func withRunner(fn func(services.RecurringServicer, *scheduler.Runner) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			logger.Get().Warnf("database close error: %v", err)
		}
	}()

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	recurring := services.NewRecurringService(dbManager.DB(), services.RecurringOptionsFromConfig(cfg))
	return fn(recurring, scheduler.NewRunner(recurring))
}
