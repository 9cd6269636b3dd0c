package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/ledger"
	"budgeteer/internal/models"
	"budgeteer/internal/pagination"
	"budgeteer/internal/services"
)

// RecurringHandler handles recurring transaction requests.
type RecurringHandler struct {
	recurringService services.RecurringServicer
	auditService     services.AuditServicer
	now              func() time.Time
}

// NewRecurringHandler creates a new RecurringHandler.
func NewRecurringHandler(recurringService services.RecurringServicer, auditService services.AuditServicer) *RecurringHandler {
	return &RecurringHandler{recurringService: recurringService, auditService: auditService, now: time.Now}
}

// CreateRecurringRequest represents the request payload for a recurring template
type CreateRecurringRequest struct {
	Type        models.TransactionType `json:"type" binding:"required,transaction_type" example:"expense"`
	Amount      decimal.Decimal        `json:"amount" swaggertype:"string" example:"1200.00"`
	Category    string                 `json:"category" binding:"max=100"`
	Description string                 `json:"description" binding:"max=500"`
	Interval    models.Frequency       `json:"interval" binding:"required,interval" example:"monthly"`
	NextDate    string                 `json:"next_date" example:"2025-01-31"`
}

// UpdateRecurringRequest represents the request payload for editing a recurring template
type UpdateRecurringRequest struct {
	Amount      *decimal.Decimal  `json:"amount" swaggertype:"string" example:"1250.00"`
	Category    *string           `json:"category" binding:"omitempty,max=100"`
	Description *string           `json:"description" binding:"omitempty,max=500"`
	Interval    *models.Frequency `json:"interval" binding:"omitempty,interval"`
	NextDate    *string           `json:"next_date" example:"2025-02-28"`
}

// CreateRecurring stores a recurring transaction template
// @Summary     Create recurring transaction
// @Description Schedule an income or expense to repeat daily, weekly or monthly. next_date defaults to today.
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateRecurringRequest true "Template details"
// @Success     201 {object} models.RecurringTransaction "Template created"
// @Failure     400 {object} ErrorResponse "Invalid input, amount or interval"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /recurring [post]
func (h *RecurringHandler) CreateRecurring(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	nextDate, err := parseOptionalDate(req.NextDate, "next_date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	input := services.RecurringInput{
		Type:        req.Type,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Interval:    req.Interval,
	}
	if nextDate != nil {
		input.NextDate = *nextDate
	}

	rt, err := h.recurringService.CreateRecurring(userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_RECURRING", "recurring_transaction", rt.ID, c.ClientIP(),
		map[string]interface{}{"type": rt.Type, "amount": rt.Amount.String(), "interval": rt.Interval})

	c.JSON(http.StatusCreated, gin.H{"recurring": rt})
}

// GetRecurring lists recurring templates
// @Summary     List recurring transactions
// @Description Paginated templates ordered by next due date
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.RecurringTransaction] "Paginated templates"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /recurring [get]
func (h *RecurringHandler) GetRecurring(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.recurringService.GetUserRecurring(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRecurringByID returns one recurring template
// @Summary     Get recurring transaction
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Recurring transaction ID"
// @Success     200 {object} models.RecurringTransaction "Template"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Template not found"
// @Router      /recurring/{id} [get]
func (h *RecurringHandler) GetRecurringByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	recurringID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	rt, err := h.recurringService.GetRecurringByID(userID, recurringID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recurring": rt})
}

// UpdateRecurring edits a recurring template
// @Summary     Update recurring transaction
// @Description next_date may move forward but never backward.
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                 true "Recurring transaction ID"
// @Param       request body UpdateRecurringRequest true "Fields to change"
// @Success     200 {object} models.RecurringTransaction "Updated template"
// @Failure     400 {object} ErrorResponse "Invalid input or next_date moved backward"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Template not found"
// @Router      /recurring/{id} [put]
func (h *RecurringHandler) UpdateRecurring(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	recurringID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	update := services.RecurringUpdate{
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Interval:    req.Interval,
	}
	if req.NextDate != nil {
		nextDate, err := parseOptionalDate(*req.NextDate, "next_date")
		if err != nil {
			respondWithError(c, err)
			return
		}
		if nextDate == nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "next_date cannot be empty"))
			return
		}
		update.NextDate = nextDate
	}

	rt, err := h.recurringService.UpdateRecurring(userID, recurringID, update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_RECURRING", "recurring_transaction", recurringID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"recurring": rt})
}

// DeleteRecurring removes a recurring template. Entries it already created are kept.
// @Summary     Delete recurring transaction
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Recurring transaction ID"
// @Success     200 {object} map[string]string "Template deleted"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Template not found"
// @Router      /recurring/{id} [delete]
func (h *RecurringHandler) DeleteRecurring(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	recurringID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.recurringService.DeleteRecurring(userID, recurringID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_RECURRING", "recurring_transaction", recurringID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"message": "Recurring transaction deleted successfully"})
}

// ProcessDue materializes the caller's due recurring transactions
// @Summary     Process due recurring transactions
// @Description Create the incomes and expenses due on or before as_of (default today) and advance each template. as_of may not be in the future.
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Param       as_of query string false "Process entries due on or before this date (YYYY-MM-DD, not after today)"
// @Success     200 {object} services.ProcessResult "Created entries and skipped templates"
// @Failure     400 {object} ErrorResponse "Invalid or future as_of"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /recurring/process [post]
func (h *RecurringHandler) ProcessDue(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	today := ledger.DateOnly(h.now())
	asOf := today
	parsed, err := parseOptionalDate(c.Query("as_of"), "as_of")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if parsed != nil {
		asOf = ledger.DateOnly(*parsed)
	}
	// Processing ahead of today would advance next_date irreversibly.
	if asOf.After(today) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "as_of cannot be in the future"))
		return
	}

	result, err := h.recurringService.ProcessDueEntries(c.Request.Context(), userID, asOf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if result.Created() > 0 {
		h.auditService.Log(userID, "PROCESS_RECURRING", "recurring_transaction", "", c.ClientIP(),
			map[string]interface{}{"created": result.Created(), "skipped": len(result.Skipped)})
	}
	c.JSON(http.StatusOK, result)
}
