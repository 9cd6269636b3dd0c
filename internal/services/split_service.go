package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/ledger"
	"budgeteer/internal/metrics"
	"budgeteer/internal/models"
	"budgeteer/internal/pagination"
)

// splitService handles shared expenses and settlements inside groups.
type splitService struct {
	db *gorm.DB
}

// NewSplitService creates a new SplitServicer.
func NewSplitService(db *gorm.DB) SplitServicer {
	return &splitService{db: db}
}

// CreateSharedExpense splits amount equally between the participants and
// persists the expense with one share per participant, all or nothing.
//
// Checks run in order: amount, group exists, group has members, actor is a
// member, payer is a member, participants are members.
func (s *splitService) CreateSharedExpense(userID, groupID string, input SharedExpenseInput) (*models.SharedExpense, error) {
	if err := validateAmount(input.Amount); err != nil {
		return nil, err
	}

	var expense *models.SharedExpense
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := loadGroup(tx, groupID); err != nil {
			return err
		}

		members, err := groupMemberIDs(tx, groupID)
		if err != nil {
			return err
		}
		if len(members) == 0 {
			return apperrors.ErrEmptyGroup
		}
		isMember := make(map[string]bool, len(members))
		for _, id := range members {
			isMember[id] = true
		}
		if !isMember[userID] {
			return apperrors.ErrNotGroupMember
		}

		payer := input.PaidBy
		if payer == "" {
			payer = userID
		}
		if !isMember[payer] {
			return apperrors.ErrPayerNotMember
		}

		participants, err := selectParticipants(members, isMember, input.ParticipantIDs)
		if err != nil {
			return err
		}

		shares, err := ledger.SplitEqually(input.Amount, participants, payer)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		expense = &models.SharedExpense{
			GroupID:      groupID,
			Description:  strings.TrimSpace(input.Description),
			Amount:       input.Amount,
			PaidByUserID: payer,
		}
		if err := tx.Create(expense).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		rows := make([]models.ExpenseShare, len(shares))
		for i, sh := range shares {
			rows[i] = models.ExpenseShare{SharedExpenseID: expense.ID, UserID: sh.UserID, AmountOwed: sh.Amount}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		expense.Shares = rows
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.SharedExpensesCreated.Inc()
	return expense, nil
}

// selectParticipants returns the requested participants in membership order,
// or every member when none are requested.
func selectParticipants(members []string, isMember map[string]bool, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return members, nil
	}
	wanted := make(map[string]bool, len(requested))
	for _, id := range requested {
		if !isMember[id] {
			return nil, apperrors.ErrInvalidParticipant
		}
		wanted[id] = true
	}
	participants := make([]string, 0, len(wanted))
	for _, id := range members {
		if wanted[id] {
			participants = append(participants, id)
		}
	}
	return participants, nil
}

// GetSharedExpenses lists a group's shared expenses with their shares, newest first.
func (s *splitService) GetSharedExpenses(userID, groupID string, page pagination.PageRequest) (*pagination.PageResponse[models.SharedExpense], error) {
	page.Defaults()

	var result pagination.PageResponse[models.SharedExpense]
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := loadAccessibleGroup(tx, groupID, userID); err != nil {
			return err
		}

		base := tx.Model(&models.SharedExpense{}).Where("group_id = ?", groupID)
		var totalItems int64
		if err := base.Count(&totalItems).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var expenses []models.SharedExpense
		if err := tx.Where("group_id = ?", groupID).
			Preload("Shares", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
			Scopes(pagination.Paginate(page), pagination.NewestFirst("created_at")).
			Find(&expenses).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		result = pagination.NewPageResponse(expenses, page.Page, page.PageSize, totalItems)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetSharedExpense returns one shared expense with its shares.
func (s *splitService) GetSharedExpense(userID, groupID, expenseID string) (*models.SharedExpense, error) {
	var expense *models.SharedExpense
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := loadAccessibleGroup(tx, groupID, userID); err != nil {
			return err
		}
		var err error
		expense, err = loadSharedExpense(tx, groupID, expenseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// DeleteSharedExpense removes a shared expense and its shares. Only the
// payer or the group creator may delete it.
func (s *splitService) DeleteSharedExpense(userID, groupID, expenseID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		group, err := loadAccessibleGroup(tx, groupID, userID)
		if err != nil {
			return err
		}
		expense, err := loadSharedExpense(tx, groupID, expenseID)
		if err != nil {
			return err
		}
		if expense.PaidByUserID != userID && group.CreatorUserID != userID {
			return apperrors.WithMessage(apperrors.ErrForbidden, "only the payer or the group creator can delete a shared expense")
		}

		if err := tx.Where("shared_expense_id = ?", expense.ID).Delete(&models.ExpenseShare{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("id = ?", expense.ID).Delete(&models.SharedExpense{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

func loadSharedExpense(tx *gorm.DB, groupID, expenseID string) (*models.SharedExpense, error) {
	var expense models.SharedExpense
	err := tx.Where("id = ? AND group_id = ?", expenseID, groupID).
		Preload("Shares", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		First(&expense).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSharedExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}

// RecordSettlement records that userID paid amount to toUserID. Both must be
// current members.
func (s *splitService) RecordSettlement(userID, groupID, toUserID string, amount decimal.Decimal, note string) (*models.Settlement, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if userID == toUserID {
		return nil, apperrors.ErrSelfSettlement
	}

	var settlement *models.Settlement
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := loadGroup(tx, groupID); err != nil {
			return err
		}
		ok, err := isGroupMember(tx, groupID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrNotGroupMember
		}
		ok, err = isGroupMember(tx, groupID, toUserID)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.WithMessage(apperrors.ErrInvalidParticipant, "Recipient must be a member of the group")
		}

		settlement = &models.Settlement{
			GroupID:    groupID,
			FromUserID: userID,
			ToUserID:   toUserID,
			Amount:     amount,
			Note:       strings.TrimSpace(note),
		}
		if err := tx.Create(settlement).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settlement, nil
}

// GetSettlements lists a group's settlements, newest first.
func (s *splitService) GetSettlements(userID, groupID string, page pagination.PageRequest) (*pagination.PageResponse[models.Settlement], error) {
	page.Defaults()

	var result pagination.PageResponse[models.Settlement]
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := loadAccessibleGroup(tx, groupID, userID); err != nil {
			return err
		}

		base := tx.Model(&models.Settlement{}).Where("group_id = ?", groupID)
		var totalItems int64
		if err := base.Count(&totalItems).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var settlements []models.Settlement
		if err := tx.Where("group_id = ?", groupID).
			Scopes(pagination.Paginate(page), pagination.NewestFirst("created_at")).
			Find(&settlements).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		result = pagination.NewPageResponse(settlements, page.Page, page.PageSize, totalItems)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
