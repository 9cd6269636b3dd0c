package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"budgeteer/internal/classifier"
	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/logger"
	"budgeteer/internal/models"
	"budgeteer/internal/pagination"
)

// expenseService handles expense records.
type expenseService struct {
	db         *gorm.DB
	classifier classifier.Classifier
}

// NewExpenseService creates a new ExpenseServicer. cls guesses a category
// for expenses created without one; nil means every such expense is "Other".
func NewExpenseService(db *gorm.DB, cls classifier.Classifier) ExpenseServicer {
	return &expenseService{db: db, classifier: cls}
}

// CreateExpense records money spent by userID. Label is the category.
func (s *expenseService) CreateExpense(ctx context.Context, userID string, input EntryInput) (*models.Expense, error) {
	entry, err := newEntry(userID, input)
	if err != nil {
		return nil, err
	}

	category := strings.TrimSpace(input.Label)
	if category == "" {
		category = s.guessCategory(ctx, entry.Description)
	}

	expense := &models.Expense{Entry: entry, Category: category}
	if err := s.db.Create(expense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expense, nil
}

func (s *expenseService) guessCategory(ctx context.Context, description string) string {
	if description == "" || s.classifier == nil {
		return classifier.DefaultCategory
	}
	category, err := s.classifier.Classify(ctx, description)
	if err != nil || category == "" {
		logger.Get().Warnw("category classification failed", "error", err)
		return classifier.DefaultCategory
	}
	return category
}

// GetUserExpenses retrieves a paginated, filtered list of the user's expenses, newest first.
func (s *expenseService) GetUserExpenses(userID string, page pagination.PageRequest, filter EntryFilter) (*pagination.PageResponse[models.Expense], error) {
	page.Defaults()

	base := s.db.Model(&models.Expense{}).Where("user_id = ?", userID)
	base = applyEntryFilters(base, filter, "category")

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	if err := base.Scopes(pagination.Paginate(page), pagination.NewestFirst("date")).
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(expenses, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetExpenseByID retrieves an expense owned by userID.
func (s *expenseService) GetExpenseByID(userID, expenseID string) (*models.Expense, error) {
	var expense models.Expense
	err := loadOwned(s.db, &expense, expenseID, userID, func(e *models.Expense) string { return e.UserID }, apperrors.ErrExpenseNotFound)
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

// UpdateExpense applies the non-nil fields of update.
func (s *expenseService) UpdateExpense(userID, expenseID string, update EntryUpdate) (*models.Expense, error) {
	expense, err := s.GetExpenseByID(userID, expenseID)
	if err != nil {
		return nil, err
	}

	updates, err := entryUpdates(expense.Entry, update, "category")
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := s.db.Model(expense).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetExpenseByID(userID, expenseID)
}

// DeleteExpense soft-deletes an expense owned by userID.
func (s *expenseService) DeleteExpense(userID, expenseID string) error {
	expense, err := s.GetExpenseByID(userID, expenseID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(expense).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
