package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"budgeteer/internal/config"
	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/ledger"
	"budgeteer/internal/logger"
	"budgeteer/internal/metrics"
	"budgeteer/internal/models"
	"budgeteer/internal/pagination"
)

// Reasons a due recurring transaction is skipped.
const (
	SkipSchedulerSkew    = "scheduler_skew"
	SkipConcurrentUpdate = "concurrent_update"
	SkipInvalidInterval  = "invalid_interval"
)

// defaultRecurringLabel is used when a template has no category.
const defaultRecurringLabel = "Recurring"

// RecurringOptions tune how the scheduler catches up.
type RecurringOptions struct {
	// CatchUp is config.CatchUpAll or config.CatchUpSingle.
	CatchUp string
	// MaxCatchUp bounds how many periods one entry may materialize per run.
	MaxCatchUp int
	// MaxSkew is how far next_date may lag behind the entry's creation
	// before it is treated as corrupt. Zero disables the check.
	MaxSkew time.Duration
}

// RecurringOptionsFromConfig reads scheduler options from cfg.
func RecurringOptionsFromConfig(cfg *config.Config) RecurringOptions {
	return RecurringOptions{
		CatchUp:    cfg.SchedulerCatchUp,
		MaxCatchUp: cfg.SchedulerMaxCatchUp,
		MaxSkew:    cfg.SchedulerMaxSkew,
	}
}

// recurringService handles recurring templates and materializes them.
type recurringService struct {
	db   *gorm.DB
	opts RecurringOptions
	now  func() time.Time
}

// NewRecurringService creates a new RecurringServicer.
func NewRecurringService(db *gorm.DB, opts RecurringOptions) RecurringServicer {
	if opts.MaxCatchUp <= 0 {
		opts.MaxCatchUp = 366
	}
	if opts.CatchUp == "" {
		opts.CatchUp = config.CatchUpAll
	}
	return &recurringService{db: db, opts: opts, now: time.Now}
}

// CreateRecurring stores a new template. A zero NextDate means today.
func (s *recurringService) CreateRecurring(userID string, input RecurringInput) (*models.RecurringTransaction, error) {
	if input.Type != models.TransactionTypeIncome && input.Type != models.TransactionTypeExpense {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be income or expense")
	}
	if err := validateAmount(input.Amount); err != nil {
		return nil, err
	}
	if !input.Interval.IsInterval() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidFrequency, "interval must be daily, weekly or monthly")
	}

	today := ledger.DateOnly(s.now())
	next := today
	if !input.NextDate.IsZero() {
		next = ledger.DateOnly(input.NextDate)
	}
	if s.opts.MaxSkew > 0 && today.Sub(next) > s.opts.MaxSkew {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "next_date is too far in the past")
	}

	rt := &models.RecurringTransaction{
		UserID:      userID,
		Type:        input.Type,
		Amount:      input.Amount,
		Category:    strings.TrimSpace(input.Category),
		Description: strings.TrimSpace(input.Description),
		Interval:    input.Interval,
		NextDate:    next,
		AnchorDay:   next.Day(),
	}
	if err := s.db.Create(rt).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rt, nil
}

// GetUserRecurring lists the user's templates by next due date.
func (s *recurringService) GetUserRecurring(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringTransaction], error) {
	page.Defaults()

	base := s.db.Model(&models.RecurringTransaction{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var items []models.RecurringTransaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("next_date, id").
		Find(&items).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(items, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetRecurringByID retrieves a template owned by userID.
func (s *recurringService) GetRecurringByID(userID, recurringID string) (*models.RecurringTransaction, error) {
	var rt models.RecurringTransaction
	err := loadOwned(s.db, &rt, recurringID, userID, func(r *models.RecurringTransaction) string { return r.UserID }, apperrors.ErrRecurringNotFound)
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// UpdateRecurring applies the non-nil fields of update. next_date may only
// move forward; moving it resets the monthly anchor day.
func (s *recurringService) UpdateRecurring(userID, recurringID string, update RecurringUpdate) (*models.RecurringTransaction, error) {
	rt, err := s.GetRecurringByID(userID, recurringID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if update.Amount != nil {
		if err := validateAmount(*update.Amount); err != nil {
			return nil, err
		}
		updates["amount"] = *update.Amount
	}
	if update.Category != nil {
		updates["category"] = strings.TrimSpace(*update.Category)
	}
	if update.Description != nil {
		updates["description"] = strings.TrimSpace(*update.Description)
	}
	if update.Interval != nil {
		if !update.Interval.IsInterval() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidFrequency, "interval must be daily, weekly or monthly")
		}
		updates["interval"] = *update.Interval
	}
	if update.NextDate != nil {
		next := ledger.DateOnly(*update.NextDate)
		if next.Before(rt.NextDate) {
			return nil, apperrors.ErrNextDateBackward
		}
		if !next.Equal(rt.NextDate) {
			updates["next_date"] = next
			updates["anchor_day"] = next.Day()
		}
	}

	if len(updates) > 0 {
		if err := s.db.Model(rt).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetRecurringByID(userID, recurringID)
}

// DeleteRecurring soft-deletes a template. Entries it already created stay.
func (s *recurringService) DeleteRecurring(userID, recurringID string) error {
	rt, err := s.GetRecurringByID(userID, recurringID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(rt).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ProcessDueEntries materializes every template of userID due on or before
// asOf and advances its next_date, in one transaction.
//
// Under the "all" policy each template emits one entry per elapsed period
// (at most MaxCatchUp); under "single" it emits one and advances one
// period. next_date is advanced with a compare-and-swap so a concurrent run
// that got there first causes a skip rather than a duplicate.
func (s *recurringService) ProcessDueEntries(ctx context.Context, userID string, asOf time.Time) (*ProcessResult, error) {
	asOf = asOf.UTC()
	result := &ProcessResult{
		Incomes:  []models.Income{},
		Expenses: []models.Expense{},
		Skipped:  []SkippedEntry{},
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var due []models.RecurringTransaction
		if err := tx.Where("user_id = ? AND next_date <= ?", userID, asOf).
			Order("next_date, id").
			Find(&due).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		for i := range due {
			if err := s.processOne(tx, &due[i], asOf, result); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for range result.Incomes {
		metrics.RecurringMaterialized.WithLabelValues(string(models.TransactionTypeIncome)).Inc()
	}
	for range result.Expenses {
		metrics.RecurringMaterialized.WithLabelValues(string(models.TransactionTypeExpense)).Inc()
	}
	for _, sk := range result.Skipped {
		metrics.RecurringSkipped.WithLabelValues(sk.Reason).Inc()
	}
	return result, nil
}

func (s *recurringService) processOne(tx *gorm.DB, rt *models.RecurringTransaction, asOf time.Time, result *ProcessResult) error {
	log := logger.Get()

	if s.opts.MaxSkew > 0 && rt.CreatedAt.Sub(rt.NextDate) > s.opts.MaxSkew {
		log.Warnw("skipping recurring transaction with implausible next_date",
			"error", apperrors.ErrSchedulerSkew,
			"recurring_id", rt.ID,
			"user_id", rt.UserID,
			"next_date", rt.NextDate.Format("2006-01-02"),
			"created_at", rt.CreatedAt,
		)
		result.Skipped = append(result.Skipped, SkippedEntry{RecurringID: rt.ID, Reason: SkipSchedulerSkew})
		return nil
	}

	limit := s.opts.MaxCatchUp
	if s.opts.CatchUp == config.CatchUpSingle {
		limit = 1
	}
	dates, next, err := ledger.DueDates(rt.NextDate, asOf, rt.Interval, rt.AnchorDay, limit)
	if err != nil {
		log.Warnw("skipping recurring transaction with invalid interval", "error", err, "recurring_id", rt.ID)
		result.Skipped = append(result.Skipped, SkippedEntry{RecurringID: rt.ID, Reason: SkipInvalidInterval})
		return nil
	}
	if len(dates) == 0 {
		return nil
	}

	cas := tx.Model(&models.RecurringTransaction{}).
		Where("id = ? AND next_date = ?", rt.ID, rt.NextDate).
		Update("next_date", next)
	if cas.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, cas.Error)
	}
	if cas.RowsAffected == 0 {
		log.Infow("recurring transaction advanced concurrently, skipping", "recurring_id", rt.ID)
		result.Skipped = append(result.Skipped, SkippedEntry{RecurringID: rt.ID, Reason: SkipConcurrentUpdate})
		return nil
	}

	label := rt.Category
	if label == "" {
		label = defaultRecurringLabel
	}
	for _, d := range dates {
		entry := models.Entry{
			UserID:      rt.UserID,
			Amount:      rt.Amount,
			Description: materializedDescription(rt, label, d),
			Date:        asOf,
			IsRecurring: true,
			Frequency:   rt.Interval,
			RecurringID: &rt.ID,
		}

		switch rt.Type {
		case models.TransactionTypeIncome:
			income := models.Income{Entry: entry, Source: label}
			if err := tx.Create(&income).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			result.Incomes = append(result.Incomes, income)
		default:
			expense := models.Expense{Entry: entry, Category: label}
			if err := tx.Create(&expense).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			result.Expenses = append(result.Expenses, expense)
		}
	}

	rt.NextDate = next
	return nil
}

func materializedDescription(rt *models.RecurringTransaction, label string, due time.Time) string {
	desc := rt.Description
	if desc == "" {
		desc = label
	}
	return fmt.Sprintf("%s (due %s)", desc, due.Format("2006-01-02"))
}

// DueUserIDs lists users with at least one template due on or before asOf.
func (s *recurringService) DueUserIDs(ctx context.Context, asOf time.Time) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).
		Model(&models.RecurringTransaction{}).
		Where("next_date <= ?", asOf.UTC()).
		Distinct().
		Order("user_id").
		Pluck("user_id", &ids).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return ids, nil
}
