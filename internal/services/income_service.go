package services

import (
	"strings"

	"gorm.io/gorm"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/models"
	"budgeteer/internal/pagination"
)

// incomeService handles income records.
type incomeService struct {
	db *gorm.DB
}

// NewIncomeService creates a new IncomeServicer.
func NewIncomeService(db *gorm.DB) IncomeServicer {
	return &incomeService{db: db}
}

// CreateIncome records money received by userID. Label is the source.
func (s *incomeService) CreateIncome(userID string, input EntryInput) (*models.Income, error) {
	entry, err := newEntry(userID, input)
	if err != nil {
		return nil, err
	}
	source := strings.TrimSpace(input.Label)
	if source == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "source is required")
	}

	income := &models.Income{Entry: entry, Source: source}
	if err := s.db.Create(income).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return income, nil
}

// GetUserIncomes retrieves a paginated, filtered list of the user's incomes, newest first.
func (s *incomeService) GetUserIncomes(userID string, page pagination.PageRequest, filter EntryFilter) (*pagination.PageResponse[models.Income], error) {
	page.Defaults()

	base := s.db.Model(&models.Income{}).Where("user_id = ?", userID)
	base = applyEntryFilters(base, filter, "source")

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var incomes []models.Income
	if err := base.Scopes(pagination.Paginate(page), pagination.NewestFirst("date")).
		Find(&incomes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(incomes, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetIncomeByID retrieves an income owned by userID.
func (s *incomeService) GetIncomeByID(userID, incomeID string) (*models.Income, error) {
	var income models.Income
	err := loadOwned(s.db, &income, incomeID, userID, func(i *models.Income) string { return i.UserID }, apperrors.ErrIncomeNotFound)
	if err != nil {
		return nil, err
	}
	return &income, nil
}

// UpdateIncome applies the non-nil fields of update.
func (s *incomeService) UpdateIncome(userID, incomeID string, update EntryUpdate) (*models.Income, error) {
	income, err := s.GetIncomeByID(userID, incomeID)
	if err != nil {
		return nil, err
	}

	updates, err := entryUpdates(income.Entry, update, "source")
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := s.db.Model(income).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetIncomeByID(userID, incomeID)
}

// DeleteIncome soft-deletes an income owned by userID.
func (s *incomeService) DeleteIncome(userID, incomeID string) error {
	income, err := s.GetIncomeByID(userID, incomeID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(income).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
