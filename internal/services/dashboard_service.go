package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"budgeteer/internal/currency"
	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/logger"
	"budgeteer/internal/models"
)

// noTopCategory is reported when the period has no expenses.
const noTopCategory = "N/A"

// dashboardService aggregates a user's incomes and expenses.
type dashboardService struct {
	db        *gorm.DB
	converter currency.Converter
}

// NewDashboardService creates a new DashboardServicer. conv may be nil, in
// which case foreign-currency requests report conversion as unavailable.
func NewDashboardService(db *gorm.DB, conv currency.Converter) DashboardServicer {
	return &dashboardService{db: db, converter: conv}
}

type labelledAmount struct {
	Label  string
	Amount decimal.Decimal
}

// GetDashboard totals the user's records in the requested period. Totals are
// in the user's currency; when another display currency is requested they
// are also converted, and a failed conversion degrades to the native totals.
func (s *dashboardService) GetDashboard(ctx context.Context, userID string, query DashboardQuery) (*Dashboard, error) {
	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []labelledAmount
	if err := s.periodScope(query, userID).Model(&models.Expense{}).
		Select("category AS label, amount").
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	var incomes []labelledAmount
	if err := s.periodScope(query, userID).Model(&models.Income{}).
		Select("source AS label, amount").
		Find(&incomes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	byCategory, totalExpense := totalsByLabel(expenses)
	bySource, totalIncome := totalsByLabel(incomes)

	dash := &Dashboard{
		Currency:          strings.ToUpper(user.Currency),
		TotalIncome:       totalIncome,
		TotalExpense:      totalExpense,
		Balance:           totalIncome.Sub(totalExpense),
		ExpenseByCategory: byCategory,
		IncomeBySource:    bySource,
		TopCategory:       noTopCategory,
		ConversionStatus:  ConversionNotRequired,
	}
	if len(byCategory) > 0 {
		dash.TopCategory = byCategory[0].Label
	}

	target := strings.ToUpper(strings.TrimSpace(query.Currency))
	if target == "" || target == dash.Currency {
		return dash, nil
	}

	converted, err := s.convert(ctx, dash, target)
	if err != nil {
		logger.Get().Warnw("dashboard currency conversion failed",
			"error", err,
			"user_id", userID,
			"from", dash.Currency,
			"to", target,
		)
		dash.ConversionStatus = ConversionUnavailable
		return dash, nil
	}
	dash.ConversionStatus = ConversionOK
	dash.Converted = converted
	return dash, nil
}

func (s *dashboardService) periodScope(query DashboardQuery, userID string) *gorm.DB {
	q := s.db.Where("user_id = ?", userID)
	if query.FromDate != nil {
		q = q.Where("date >= ?", *query.FromDate)
	}
	if query.ToDate != nil {
		q = q.Where("date <= ?", *query.ToDate)
	}
	return q
}

func (s *dashboardService) convert(ctx context.Context, dash *Dashboard, target string) (*ConvertedTotals, error) {
	if s.converter == nil {
		return nil, currency.ErrUnavailable
	}
	income, err := s.converter.Convert(ctx, dash.TotalIncome, dash.Currency, target)
	if err != nil {
		return nil, err
	}
	expense, err := s.converter.Convert(ctx, dash.TotalExpense, dash.Currency, target)
	if err != nil {
		return nil, err
	}
	return &ConvertedTotals{
		Currency:     target,
		TotalIncome:  income,
		TotalExpense: expense,
		Balance:      income.Sub(expense),
	}, nil
}

// totalsByLabel groups rows by label, largest total first, ties by label.
func totalsByLabel(rows []labelledAmount) ([]CategoryTotal, decimal.Decimal) {
	sums := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, r := range rows {
		sums[r.Label] = sums[r.Label].Add(r.Amount)
		total = total.Add(r.Amount)
	}

	out := make([]CategoryTotal, 0, len(sums))
	for label, amount := range sums {
		out = append(out, CategoryTotal{Label: label, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Label < out[j].Label
	})
	return out, total
}
