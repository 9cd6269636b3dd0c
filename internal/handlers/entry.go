package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/ledger"
	"budgeteer/internal/models"
	"budgeteer/internal/services"
)

// entryFields are the request fields shared by incomes and expenses.
type entryFields struct {
	Amount      decimal.Decimal  `json:"amount" swaggertype:"string" example:"12.50"`
	Description string           `json:"description" binding:"max=500"`
	Date        string           `json:"date" example:"2025-01-31"`
	IsRecurring bool             `json:"is_recurring"`
	Frequency   models.Frequency `json:"frequency" binding:"omitempty,frequency"`
}

func (f entryFields) toInput(label string) (services.EntryInput, error) {
	input := services.EntryInput{
		Amount:      f.Amount,
		Label:       label,
		Description: f.Description,
		IsRecurring: f.IsRecurring,
		Frequency:   f.Frequency,
	}
	date, err := parseOptionalDate(f.Date, "date")
	if err != nil {
		return input, err
	}
	if date != nil {
		input.Date = ledger.DateOnly(*date)
	}
	return input, nil
}

// entryUpdateFields are the optional fields of an income or expense edit.
type entryUpdateFields struct {
	Amount      *decimal.Decimal  `json:"amount" swaggertype:"string" example:"12.50"`
	Description *string           `json:"description" binding:"omitempty,max=500"`
	Date        *string           `json:"date" example:"2025-01-31"`
	IsRecurring *bool             `json:"is_recurring"`
	Frequency   *models.Frequency `json:"frequency" binding:"omitempty,frequency"`
}

func (f entryUpdateFields) toUpdate(label *string) (services.EntryUpdate, error) {
	update := services.EntryUpdate{
		Amount:      f.Amount,
		Label:       label,
		Description: f.Description,
		IsRecurring: f.IsRecurring,
		Frequency:   f.Frequency,
	}
	if f.Date != nil {
		date, err := parseOptionalDate(*f.Date, "date")
		if err != nil {
			return update, err
		}
		if date == nil {
			return update, apperrors.WithMessage(apperrors.ErrInvalidInput, "date cannot be empty")
		}
		d := ledger.DateOnly(*date)
		update.Date = &d
	}
	return update, nil
}

// parseEntryFilter reads from_date, to_date, labelParam and recurring.
func parseEntryFilter(c *gin.Context, labelParam string) (services.EntryFilter, error) {
	var filter services.EntryFilter
	var err error

	if filter.FromDate, err = parseOptionalDate(c.Query("from_date"), "from_date"); err != nil {
		return filter, err
	}
	if filter.ToDate, err = parseOptionalDate(c.Query("to_date"), "to_date"); err != nil {
		return filter, err
	}
	if v := c.Query(labelParam); v != "" {
		filter.Label = &v
	}
	if v := c.Query("recurring"); v != "" {
		b, parseErr := strconv.ParseBool(v)
		if parseErr != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid recurring, must be true or false")
		}
		filter.Recurring = &b
	}
	return filter, nil
}
