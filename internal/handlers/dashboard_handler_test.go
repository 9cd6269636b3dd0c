package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/services"
)

type mockDashboardService struct {
	getDashboardFn func(ctx context.Context, userID string, query services.DashboardQuery) (*services.Dashboard, error)
}

var _ services.DashboardServicer = (*mockDashboardService)(nil)

func (m *mockDashboardService) GetDashboard(ctx context.Context, userID string, query services.DashboardQuery) (*services.Dashboard, error) {
	if m.getDashboardFn != nil {
		return m.getDashboardFn(ctx, userID, query)
	}
	return &services.Dashboard{Currency: "USD", TopCategory: "N/A", ConversionStatus: services.ConversionNotRequired}, nil
}

type mockExportService struct {
	exportFn func(userID string, from, to time.Time, format string) (*services.ExportFile, error)
}

var _ services.ExportServicer = (*mockExportService)(nil)

func (m *mockExportService) Export(userID string, from, to time.Time, format string) (*services.ExportFile, error) {
	if m.exportFn != nil {
		return m.exportFn(userID, from, to, format)
	}
	return &services.ExportFile{Filename: "export.csv", ContentType: "text/csv", Data: []byte("type\n")}, nil
}

func setupDashboardRouter(handler *DashboardHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.GET("/dashboard", handler.GetDashboard)
	auth.GET("/export", handler.Export)
	return r
}

func TestDashboardHandler_GetDashboard(t *testing.T) {
	t.Run("passes period and currency", func(t *testing.T) {
		var got services.DashboardQuery
		svc := &mockDashboardService{
			getDashboardFn: func(_ context.Context, _ string, query services.DashboardQuery) (*services.Dashboard, error) {
				got = query
				return &services.Dashboard{
					Currency:         "USD",
					TotalIncome:      decimal.RequireFromString("3000"),
					TotalExpense:     decimal.RequireFromString("1200"),
					Balance:          decimal.RequireFromString("1800"),
					TopCategory:      "Rent",
					ConversionStatus: services.ConversionOK,
					Converted:        &services.ConvertedTotals{Currency: "EUR", Balance: decimal.RequireFromString("1650")},
				}, nil
			},
		}
		r := setupDashboardRouter(NewDashboardHandler(svc, &mockExportService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/dashboard?from_date=2025-01-01&to_date=2025-01-31&currency=eur", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Currency != "EUR" || got.FromDate == nil || got.ToDate == nil {
			t.Errorf("unexpected query %+v", got)
		}
		body := parseJSON(t, rec)
		if body["top_category"] != "Rent" || body["conversion_status"] != "ok" {
			t.Errorf("unexpected body %v", body)
		}
		if converted := body["converted"].(map[string]interface{}); converted["currency"] != "EUR" {
			t.Errorf("unexpected converted %v", converted)
		}
	})

	t.Run("rejects unknown currency", func(t *testing.T) {
		r := setupDashboardRouter(NewDashboardHandler(&mockDashboardService{}, &mockExportService{}, &mockAuditService{}))
		rec := doRequest(r, "GET", "/dashboard?currency=ZZZ", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("rejects inverted period", func(t *testing.T) {
		r := setupDashboardRouter(NewDashboardHandler(&mockDashboardService{}, &mockExportService{}, &mockAuditService{}))
		rec := doRequest(r, "GET", "/dashboard?from_date=2025-02-01&to_date=2025-01-01", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("unknown user returns 404", func(t *testing.T) {
		svc := &mockDashboardService{
			getDashboardFn: func(context.Context, string, services.DashboardQuery) (*services.Dashboard, error) {
				return nil, apperrors.ErrUserNotFound
			},
		}
		r := setupDashboardRouter(NewDashboardHandler(svc, &mockExportService{}, &mockAuditService{}))
		rec := doRequest(r, "GET", "/dashboard", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestDashboardHandler_Export(t *testing.T) {
	t.Run("defaults to csv for the current month", func(t *testing.T) {
		var gotFrom, gotTo time.Time
		var gotFormat string
		svc := &mockExportService{
			exportFn: func(_ string, from, to time.Time, format string) (*services.ExportFile, error) {
				gotFrom, gotTo, gotFormat = from, to, format
				return &services.ExportFile{
					Filename:    "financial_data_2025-03-01_to_2025-03-15.csv",
					ContentType: "text/csv",
					Data:        []byte("type,category,description,amount,date\n"),
				}, nil
			},
		}
		audit := &mockAuditService{}
		h := NewDashboardHandler(&mockDashboardService{}, svc, audit)
		h.now = func() time.Time { return time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC) }
		r := setupDashboardRouter(h)

		rec := doRequest(r, "GET", "/export", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotFormat != "csv" {
			t.Errorf("expected csv, got %q", gotFormat)
		}
		if gotFrom.Format("2006-01-02") != "2025-03-01" || gotTo.Format("2006-01-02") != "2025-03-15" {
			t.Errorf("unexpected range %v..%v", gotFrom, gotTo)
		}
		if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="financial_data_2025-03-01_to_2025-03-15.csv"` {
			t.Errorf("unexpected Content-Disposition %q", cd)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
			t.Errorf("unexpected Content-Type %q", ct)
		}
		if len(audit.actions) != 1 || audit.actions[0] != "EXPORT_DATA" {
			t.Errorf("expected EXPORT_DATA audit, got %v", audit.actions)
		}
	})

	t.Run("explicit pdf range", func(t *testing.T) {
		var gotFormat string
		var gotTo time.Time
		svc := &mockExportService{
			exportFn: func(_ string, _, to time.Time, format string) (*services.ExportFile, error) {
				gotFormat, gotTo = format, to
				return &services.ExportFile{Filename: "x.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.3")}, nil
			},
		}
		r := setupDashboardRouter(NewDashboardHandler(&mockDashboardService{}, svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/export?format=PDF&from=2025-01-01&to=2025-01-31", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotFormat != "pdf" || gotTo.Format("2006-01-02") != "2025-01-31" {
			t.Errorf("unexpected format %q to %v", gotFormat, gotTo)
		}
	})

	t.Run("rejects unsupported format", func(t *testing.T) {
		r := setupDashboardRouter(NewDashboardHandler(&mockDashboardService{}, &mockExportService{}, &mockAuditService{}))
		rec := doRequest(r, "GET", "/export?format=xlsx", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("service range error passes through", func(t *testing.T) {
		svc := &mockExportService{
			exportFn: func(string, time.Time, time.Time, string) (*services.ExportFile, error) {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "to must not be before from")
			},
		}
		r := setupDashboardRouter(NewDashboardHandler(&mockDashboardService{}, svc, &mockAuditService{}))
		rec := doRequest(r, "GET", "/export?from=2025-02-01&to=2025-01-01", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
