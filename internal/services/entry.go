package services

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/ledger"
	"budgeteer/internal/models"
)

// validateAmount maps ledger amount errors onto INVALID_AMOUNT.
func validateAmount(amount decimal.Decimal) error {
	if err := ledger.ValidateAmount(amount); err != nil {
		if errors.Is(err, ledger.ErrTooPrecise) {
			return apperrors.WithMessage(apperrors.ErrInvalidAmount, err.Error())
		}
		return apperrors.ErrInvalidAmount
	}
	return nil
}

// normalizeFrequency returns the frequency stored for an entry. Non-recurring
// entries are always "none"; recurring ones need a real interval.
func normalizeFrequency(isRecurring bool, f models.Frequency) (models.Frequency, error) {
	if !isRecurring {
		return models.FrequencyNone, nil
	}
	if !f.IsInterval() {
		return "", apperrors.WithMessage(apperrors.ErrInvalidFrequency, "recurring entries need a daily, weekly or monthly frequency")
	}
	return f, nil
}

// newEntry validates input and builds the shared columns of an income or expense.
func newEntry(userID string, input EntryInput) (models.Entry, error) {
	if err := validateAmount(input.Amount); err != nil {
		return models.Entry{}, err
	}
	freq, err := normalizeFrequency(input.IsRecurring, input.Frequency)
	if err != nil {
		return models.Entry{}, err
	}
	date := input.Date
	if date.IsZero() {
		date = ledger.DateOnly(time.Now())
	}
	return models.Entry{
		UserID:      userID,
		Amount:      input.Amount,
		Description: strings.TrimSpace(input.Description),
		Date:        date,
		IsRecurring: input.IsRecurring,
		Frequency:   freq,
	}, nil
}

// entryUpdates turns an EntryUpdate into a column map, checked against the
// current row. labelColumn is "source" or "category".
func entryUpdates(current models.Entry, update EntryUpdate, labelColumn string) (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	if update.Amount != nil {
		if err := validateAmount(*update.Amount); err != nil {
			return nil, err
		}
		updates["amount"] = *update.Amount
	}
	if update.Label != nil {
		label := strings.TrimSpace(*update.Label)
		if label == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, labelColumn+" cannot be empty")
		}
		updates[labelColumn] = label
	}
	if update.Description != nil {
		updates["description"] = strings.TrimSpace(*update.Description)
	}
	if update.Date != nil {
		updates["date"] = *update.Date
	}

	if update.IsRecurring != nil || update.Frequency != nil {
		isRecurring := current.IsRecurring
		if update.IsRecurring != nil {
			isRecurring = *update.IsRecurring
		}
		freq := current.Frequency
		if update.Frequency != nil {
			freq = *update.Frequency
		}
		freq, err := normalizeFrequency(isRecurring, freq)
		if err != nil {
			return nil, err
		}
		updates["is_recurring"] = isRecurring
		updates["frequency"] = freq
	}
	return updates, nil
}

// applyEntryFilters narrows an income or expense query.
func applyEntryFilters(q *gorm.DB, f EntryFilter, labelColumn string) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	if f.Label != nil {
		q = q.Where(labelColumn+" = ?", *f.Label)
	}
	if f.Recurring != nil {
		q = q.Where("is_recurring = ?", *f.Recurring)
	}
	return q
}

// loadOwned fetches a record by id and checks it belongs to userID.
func loadOwned[T any](db *gorm.DB, dest *T, id, userID string, ownerOf func(*T) string, notFound *apperrors.AppError) error {
	if err := db.Where("id = ?", id).First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if ownerOf(dest) != userID {
		return apperrors.ErrNotOwner
	}
	return nil
}
