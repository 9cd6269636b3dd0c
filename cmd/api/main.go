package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"budgeteer/internal/classifier"
	"budgeteer/internal/config"
	"budgeteer/internal/currency"
	"budgeteer/internal/database"
	"budgeteer/internal/logger"
	"budgeteer/internal/scheduler"
	"budgeteer/internal/server"
	"budgeteer/internal/services"
	"budgeteer/internal/validator"
)

// @title           Budgeteer API
// @version         1.0
// @description     Budgeteer tracks personal income and expenses, splits shared group expenses and materializes recurring transactions.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey APIKeyAuth
// @in header
// @name X-API-Key

const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	db := dbManager.DB()
	categoryClassifier := newClassifier(ctx, appConfig)
	converter := currency.NewYahooConverter(&http.Client{}, appConfig.FXBaseURL, appConfig.FXTimeout, appConfig.FXCacheTTL)
	recurringService := services.NewRecurringService(db, services.RecurringOptionsFromConfig(appConfig))
	runner := scheduler.NewRunner(recurringService)

	router := server.NewRouter(server.Dependencies{
		Users:           services.NewUserService(db),
		Incomes:         services.NewIncomeService(db),
		Expenses:        services.NewExpenseService(db, categoryClassifier),
		Recurring:       recurringService,
		Groups:          services.NewGroupService(db),
		Splits:          services.NewSplitService(db),
		Balances:        services.NewBalanceService(db),
		Dashboard:       services.NewDashboardService(db, converter),
		Export:          services.NewExportService(db),
		Audit:           services.NewAuditService(db),
		Scheduler:       runner,
		SchedulerAPIKey: appConfig.SchedulerAPIKey,
	})

	if appConfig.SchedulerInterval > 0 {
		go runner.Start(ctx, appConfig.SchedulerInterval)
	} else {
		log.Info("Background scheduler disabled; use POST /api/v1/internal/scheduler/run")
	}

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Budgeteer server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// newClassifier uses Gemini when an API key is configured and the keyword
// matcher otherwise.
func newClassifier(ctx context.Context, cfg *config.Config) classifier.Classifier {
	keywords := classifier.NewKeywordClassifier()
	if cfg.GeminiAPIKey == "" {
		return keywords
	}
	gemini, err := classifier.NewGeminiClassifier(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ClassifierTimeout, keywords)
	if err != nil {
		logger.Get().Warnw("gemini classifier unavailable, using keywords", "error", err)
		return keywords
	}
	return gemini
}
