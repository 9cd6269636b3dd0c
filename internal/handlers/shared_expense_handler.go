package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/pagination"
	"budgeteer/internal/services"
)

// SharedExpenseHandler handles shared expenses, settlements and balances
// inside a group.
type SharedExpenseHandler struct {
	splitService   services.SplitServicer
	balanceService services.BalanceServicer
	auditService   services.AuditServicer
}

// NewSharedExpenseHandler creates a new SharedExpenseHandler.
func NewSharedExpenseHandler(splitService services.SplitServicer, balanceService services.BalanceServicer, auditService services.AuditServicer) *SharedExpenseHandler {
	return &SharedExpenseHandler{splitService: splitService, balanceService: balanceService, auditService: auditService}
}

// CreateSharedExpenseRequest represents the request payload for splitting an expense.
// paid_by defaults to the caller and participant_ids to every current member.
type CreateSharedExpenseRequest struct {
	Description    string          `json:"description" binding:"max=500" example:"Groceries"`
	Amount         decimal.Decimal `json:"amount" swaggertype:"string" example:"100.00"`
	PaidBy         string          `json:"paid_by" binding:"omitempty,uuid"`
	ParticipantIDs []string        `json:"participant_ids" binding:"omitempty,dive,uuid"`
}

// CreateSettlementRequest represents the request payload for recording a repayment
type CreateSettlementRequest struct {
	ToUserID string          `json:"to_user_id" binding:"required,uuid"`
	Amount   decimal.Decimal `json:"amount" swaggertype:"string" example:"25.00"`
	Note     string          `json:"note" binding:"max=255"`
}

// CreateSharedExpense splits a payment equally among participants
// @Summary     Create shared expense
// @Description Split amount equally in cents among participants. Any rounding remainder goes to the payer.
// @Tags        shared-expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                     true "Group ID"
// @Param       request body CreateSharedExpenseRequest true "Expense details"
// @Success     201 {object} models.SharedExpense "Expense with shares"
// @Failure     400 {object} ErrorResponse "Invalid amount, payer or participants"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Failure     422 {object} ErrorResponse "Group has no members"
// @Router      /groups/{id}/expenses [post]
func (h *SharedExpenseHandler) CreateSharedExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	groupID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateSharedExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	expense, err := h.splitService.CreateSharedExpense(userID, groupID, services.SharedExpenseInput{
		Description:    req.Description,
		Amount:         req.Amount,
		PaidBy:         req.PaidBy,
		ParticipantIDs: req.ParticipantIDs,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_SHARED_EXPENSE", "shared_expense", expense.ID, c.ClientIP(),
		map[string]interface{}{"group_id": groupID, "amount": expense.Amount.String(), "shares": len(expense.Shares)})

	c.JSON(http.StatusCreated, gin.H{"expense": expense})
}

// GetSharedExpenses lists a group's shared expenses
// @Summary     List shared expenses
// @Tags        shared-expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Group ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.SharedExpense] "Paginated expenses"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Router      /groups/{id}/expenses [get]
func (h *SharedExpenseHandler) GetSharedExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	groupID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.splitService.GetSharedExpenses(userID, groupID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSharedExpense returns one shared expense with its shares
// @Summary     Get shared expense
// @Tags        shared-expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id         path string true "Group ID"
// @Param       expense_id path string true "Shared expense ID"
// @Success     200 {object} models.SharedExpense "Expense with shares"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Failure     404 {object} ErrorResponse "Group or expense not found"
// @Router      /groups/{id}/expenses/{expense_id} [get]
func (h *SharedExpenseHandler) GetSharedExpense(c *gin.Context) {
	userID, groupID, expenseID, ok := h.expenseParams(c)
	if !ok {
		return
	}

	expense, err := h.splitService.GetSharedExpense(userID, groupID, expenseID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// DeleteSharedExpense removes a shared expense and its shares
// @Summary     Delete shared expense
// @Description Only the payer or the group creator may delete.
// @Tags        shared-expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id         path string true "Group ID"
// @Param       expense_id path string true "Shared expense ID"
// @Success     200 {object} map[string]string "Expense deleted"
// @Failure     403 {object} ErrorResponse "Not allowed"
// @Failure     404 {object} ErrorResponse "Group or expense not found"
// @Router      /groups/{id}/expenses/{expense_id} [delete]
func (h *SharedExpenseHandler) DeleteSharedExpense(c *gin.Context) {
	userID, groupID, expenseID, ok := h.expenseParams(c)
	if !ok {
		return
	}

	if err := h.splitService.DeleteSharedExpense(userID, groupID, expenseID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_SHARED_EXPENSE", "shared_expense", expenseID, c.ClientIP(),
		map[string]interface{}{"group_id": groupID})

	c.JSON(http.StatusOK, gin.H{"message": "Shared expense deleted successfully"})
}

func (h *SharedExpenseHandler) expenseParams(c *gin.Context) (userID, groupID, expenseID string, ok bool) {
	var err error
	if userID, err = getUserID(c); err != nil {
		respondWithError(c, err)
		return "", "", "", false
	}
	if groupID, err = parsePathID(c, "id"); err != nil {
		respondWithError(c, err)
		return "", "", "", false
	}
	if expenseID, err = parsePathID(c, "expense_id"); err != nil {
		respondWithError(c, err)
		return "", "", "", false
	}
	return userID, groupID, expenseID, true
}

// CreateSettlement records a repayment from the caller to another member
// @Summary     Record settlement
// @Tags        settlements
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                  true "Group ID"
// @Param       request body CreateSettlementRequest true "Settlement details"
// @Success     201 {object} models.Settlement "Settlement recorded"
// @Failure     400 {object} ErrorResponse "Invalid amount or recipient"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Router      /groups/{id}/settlements [post]
func (h *SharedExpenseHandler) CreateSettlement(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	groupID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	settlement, err := h.splitService.RecordSettlement(userID, groupID, req.ToUserID, req.Amount, req.Note)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_SETTLEMENT", "settlement", settlement.ID, c.ClientIP(),
		map[string]interface{}{"group_id": groupID, "to_user_id": req.ToUserID, "amount": settlement.Amount.String()})

	c.JSON(http.StatusCreated, gin.H{"settlement": settlement})
}

// GetSettlements lists a group's settlements
// @Summary     List settlements
// @Tags        settlements
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Group ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Settlement] "Paginated settlements"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Router      /groups/{id}/settlements [get]
func (h *SharedExpenseHandler) GetSettlements(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	groupID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.splitService.GetSettlements(userID, groupID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetBalances returns every participant's net position in a group
// @Summary     Group balances
// @Description Positive balance means the member is owed money. Balances sum to zero.
// @Tags        groups
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Group ID"
// @Success     200 {object} services.GroupBalances "Balances"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Router      /groups/{id}/balances [get]
func (h *SharedExpenseHandler) GetBalances(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	groupID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	balances, err := h.balanceService.GetGroupBalances(userID, groupID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, balances)
}
