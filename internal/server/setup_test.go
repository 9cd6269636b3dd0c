package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"budgeteer/internal/classifier"
	"budgeteer/internal/config"
	"budgeteer/internal/logger"
	"budgeteer/internal/scheduler"
	"budgeteer/internal/services"
	"budgeteer/internal/testutil"
	"budgeteer/internal/validator"
)

const testAPIKey = "flow-test-api-key"

// testApp holds the full application stack for flow tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test", "error")
	validator.Register()
	config.Set(&config.Config{JWTSecret: "flow-test-secret", JWTExpirationDur: 15 * time.Minute})
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	recurring := services.NewRecurringService(db, services.RecurringOptions{})
	router := NewRouter(Dependencies{
		Users:           services.NewUserService(db),
		Incomes:         services.NewIncomeService(db),
		Expenses:        services.NewExpenseService(db, classifier.NewKeywordClassifier()),
		Recurring:       recurring,
		Groups:          services.NewGroupService(db),
		Splits:          services.NewSplitService(db),
		Balances:        services.NewBalanceService(db),
		Dashboard:       services.NewDashboardService(db, nil),
		Export:          services.NewExportService(db),
		Audit:           services.NewAuditService(db),
		Scheduler:       scheduler.NewRunner(recurring),
		SchedulerAPIKey: testAPIKey,
	})

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseJSON(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %s", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, username, password string) (accessToken, refreshToken, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"email":"%s@test.com","password":%q}`, username, username, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(string)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, identifier, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"identifier":%q,"password":%q}`, identifier, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// mustCreate posts body to path and returns the object stored under key.
func (app *testApp) mustCreate(t *testing.T, path, body, token, key string) map[string]interface{} {
	t.Helper()
	rec := app.request("POST", path, body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST %s failed: %d %s", path, rec.Code, rec.Body.String())
	}
	obj, ok := parseJSON(t, rec)[key].(map[string]interface{})
	if !ok {
		t.Fatalf("expected %q in response, got %s", key, rec.Body.String())
	}
	return obj
}

// requestWithHeader makes an unauthenticated request carrying one extra header.
func (app *testApp) requestWithHeader(method, path, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(header, value)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}
