package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/ledger"
	"budgeteer/internal/services"
)

// DashboardHandler serves the dashboard summary and data exports.
type DashboardHandler struct {
	dashboardService services.DashboardServicer
	exportService    services.ExportServicer
	auditService     services.AuditServicer
	now              func() time.Time
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService services.DashboardServicer, exportService services.ExportServicer, auditService services.AuditServicer) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		exportService:    exportService,
		auditService:     auditService,
		now:              time.Now,
	}
}

// DashboardQuery represents the dashboard query parameters
type DashboardQuery struct {
	FromDate string `form:"from_date"`
	ToDate   string `form:"to_date"`
	Currency string `form:"currency" binding:"omitempty,iso4217"`
}

// ExportQuery represents the export query parameters
type ExportQuery struct {
	Format string `form:"format" binding:"omitempty,export_format"`
	From   string `form:"from"`
	To     string `form:"to"`
}

// GetDashboard summarises the caller's incomes and expenses
// @Summary     Dashboard
// @Description Totals, balance and per-category breakdown. With currency, totals are also converted when a rate is available.
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Param       from_date query string false "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date   query string false "End date (RFC3339 or YYYY-MM-DD)"
// @Param       currency  query string false "Display currency (ISO 4217)"
// @Success     200 {object} services.Dashboard "Dashboard"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q DashboardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	query := services.DashboardQuery{Currency: strings.ToUpper(q.Currency)}
	if query.FromDate, err = parseOptionalDate(q.FromDate, "from_date"); err != nil {
		respondWithError(c, err)
		return
	}
	if query.ToDate, err = parseOptionalDate(q.ToDate, "to_date"); err != nil {
		respondWithError(c, err)
		return
	}
	if query.FromDate != nil && query.ToDate != nil && query.ToDate.Before(*query.FromDate) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "to_date must not be before from_date"))
		return
	}

	dash, err := h.dashboardService.GetDashboard(c.Request.Context(), userID, query)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dash)
}

// Export downloads the caller's incomes and expenses for a date range
// @Summary     Export data
// @Description CSV or PDF of every income and expense between from and to, inclusive. Defaults to the current month as CSV.
// @Tags        dashboard
// @Produce     text/csv
// @Produce     application/pdf
// @Security    BearerAuth
// @Param       format query string false "csv or pdf (default csv)"
// @Param       from   query string false "Start date (YYYY-MM-DD, default first of this month)"
// @Param       to     query string false "End date (YYYY-MM-DD, default today)"
// @Success     200 {file} file "Export attachment"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /export [get]
func (h *DashboardHandler) Export(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q ExportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	format := strings.ToLower(q.Format)
	if format == "" {
		format = services.ExportCSV
	}

	today := ledger.DateOnly(h.now())
	from := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := today
	if d, err := parseOptionalDate(q.From, "from"); err != nil {
		respondWithError(c, err)
		return
	} else if d != nil {
		from = ledger.DateOnly(*d)
	}
	if d, err := parseOptionalDate(q.To, "to"); err != nil {
		respondWithError(c, err)
		return
	} else if d != nil {
		to = ledger.DateOnly(*d)
	}

	file, err := h.exportService.Export(userID, from, to, format)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "EXPORT_DATA", "export", "", c.ClientIP(),
		map[string]interface{}{"format": format, "from": from.Format("2006-01-02"), "to": to.Format("2006-01-02")})

	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
