package server

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAuthFlow_RegisterLoginProfileRefresh(t *testing.T) {
	app := setupApp(t)

	accessToken, _, userID := app.registerUser(t, "alice", "password123")
	if accessToken == "" || userID == "" {
		t.Fatal("expected token and user ID from registration")
	}

	// Login by username and by email
	app.loginUser(t, "alice", "password123")
	loginAccess, loginRefresh := app.loginUser(t, "alice@test.com", "password123")

	rec := app.request("GET", "/api/v1/profile", "", loginAccess)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	user := parseJSON(t, rec)["user"].(map[string]interface{})
	if user["username"] != "alice" || user["id"] != userID {
		t.Errorf("unexpected profile %v", user)
	}

	rec = app.request("POST", "/api/v1/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, loginRefresh), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh failed: %d %s", rec.Code, rec.Body.String())
	}
	newAccess := parseJSON(t, rec)["access_token"].(string)

	rec = app.request("GET", "/api/v1/profile", "", newAccess)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with new token, got %d", rec.Code)
	}

	// The used refresh token was rotated out
	rec = app.request("POST", "/api/v1/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, loginRefresh), "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 reusing a rotated refresh token, got %d", rec.Code)
	}
}

func TestAuthFlow_RefreshTokenCannotAuthenticate(t *testing.T) {
	app := setupApp(t)
	_, refreshToken, _ := app.registerUser(t, "alice", "password123")

	rec := app.request("GET", "/api/v1/profile", "", refreshToken)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthFlow_RegisterDuplicates(t *testing.T) {
	app := setupApp(t)
	app.registerUser(t, "dup", "password123")

	rec := app.request("POST", "/api/v1/auth/register",
		`{"username":"dup","email":"other@test.com","password":"password123"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "DUPLICATE_USERNAME" {
		t.Errorf("expected DUPLICATE_USERNAME, got %s", code)
	}

	rec = app.request("POST", "/api/v1/auth/register",
		`{"username":"another","email":"dup@test.com","password":"password123"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "DUPLICATE_EMAIL" {
		t.Errorf("expected DUPLICATE_EMAIL, got %s", code)
	}
}

func TestAuthFlow_AccountLockout(t *testing.T) {
	app := setupApp(t)
	app.registerUser(t, "lockout", "password123")

	for i := 0; i < 5; i++ {
		rec := app.request("POST", "/api/v1/auth/login", `{"identifier":"lockout","password":"wrong"}`, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
		}
	}

	rec := app.request("POST", "/api/v1/auth/login", `{"identifier":"lockout","password":"password123"}`, "")
	if rec.Code != http.StatusLocked {
		t.Fatalf("expected 423, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "ACCOUNT_LOCKED" {
		t.Errorf("expected ACCOUNT_LOCKED, got %s", code)
	}
}

func TestAuthFlow_ProfilePreferences(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "alice", "password123")

	rec := app.request("PUT", "/api/v1/profile", `{"currency":"eur","display_name":"Alice"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	user := parseJSON(t, rec)["user"].(map[string]interface{})
	if user["currency"] != "EUR" || user["display_name"] != "Alice" {
		t.Errorf("unexpected profile %v", user)
	}

	rec = app.request("POST", "/api/v1/profile/theme/toggle", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if theme := parseJSON(t, rec)["user"].(map[string]interface{})["theme"]; theme != "dark" {
		t.Errorf("expected dark theme, got %v", theme)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/api/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = app.request("GET", "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rec.Code)
	}
}
