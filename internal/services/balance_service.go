package services

import (
	"sort"

	"gorm.io/gorm"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/ledger"
	"budgeteer/internal/models"
)

// balanceService computes per-member balances inside a group.
type balanceService struct {
	db *gorm.DB
}

// NewBalanceService creates a new BalanceServicer.
func NewBalanceService(db *gorm.DB) BalanceServicer {
	return &balanceService{db: db}
}

// GetGroupBalances aggregates what every member paid and owes in a group.
//
// Users who paid, owe a share, or took part in a settlement are included
// even after leaving the group, flagged with IsMember=false. A settlement
// counts as a payment by its sender and an obligation of its recipient.
func (s *balanceService) GetGroupBalances(userID, groupID string) (*GroupBalances, error) {
	var result *GroupBalances
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := loadAccessibleGroup(tx, groupID, userID); err != nil {
			return err
		}

		members, err := groupMemberIDs(tx, groupID)
		if err != nil {
			return err
		}

		var expenses []models.SharedExpense
		if err := tx.Select("id", "paid_by_user_id", "amount").Where("group_id = ?", groupID).Find(&expenses).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var shares []models.ExpenseShare
		expenseIDs := tx.Model(&models.SharedExpense{}).Select("id").Where("group_id = ?", groupID)
		if err := tx.Select("user_id", "amount_owed").Where("shared_expense_id IN (?)", expenseIDs).Find(&shares).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var settlements []models.Settlement
		if err := tx.Select("from_user_id", "to_user_id", "amount").Where("group_id = ?", groupID).Find(&settlements).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		payments := make([]ledger.Payment, 0, len(expenses)+len(settlements))
		obligations := make([]ledger.Obligation, 0, len(shares)+len(settlements))
		for _, e := range expenses {
			payments = append(payments, ledger.Payment{UserID: e.PaidByUserID, Amount: e.Amount})
		}
		for _, sh := range shares {
			obligations = append(obligations, ledger.Obligation{UserID: sh.UserID, Amount: sh.AmountOwed})
		}
		for _, st := range settlements {
			payments = append(payments, ledger.Payment{UserID: st.FromUserID, Amount: st.Amount})
			obligations = append(obligations, ledger.Obligation{UserID: st.ToUserID, Amount: st.Amount})
		}

		balances := ledger.Balances(members, payments, obligations)

		ids := make([]string, len(balances))
		for i, b := range balances {
			ids[i] = b.UserID
		}
		names, err := usernames(tx, ids)
		if err != nil {
			return err
		}
		current := make(map[string]bool, len(members))
		for _, id := range members {
			current[id] = true
		}

		out := make([]MemberBalance, len(balances))
		for i, b := range balances {
			out[i] = MemberBalance{
				UserID:   b.UserID,
				Username: names[b.UserID],
				Paid:     b.Paid,
				Owed:     b.Owed,
				Balance:  b.Net,
				IsMember: current[b.UserID],
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Username != out[j].Username {
				return out[i].Username < out[j].Username
			}
			return out[i].UserID < out[j].UserID
		})

		result = &GroupBalances{
			GroupID:  groupID,
			Balances: out,
			Total:    ledger.NetTotal(balances),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
