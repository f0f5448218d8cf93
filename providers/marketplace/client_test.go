package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-marketplace-accounts/core"
)

func TestClient_CreateTestUser(t *testing.T) {
	var body map[string]any
	var authorization string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/users/test_user" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		authorization = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1234567890,"nickname":"TEST_USER_1","password":"qatest123","site_status":"active","email":"test_user_1@testuser.com"}`))
	}))
	defer server.Close()

	account, err := NewClient(Config{APIURL: server.URL}).CreateTestUser(context.Background(), "APP_USR-dev", "MLA")
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	if authorization != "Bearer APP_USR-dev" {
		t.Fatalf("expected developer token, got %q", authorization)
	}
	if body["site_id"] != "MLA" {
		t.Fatalf("expected site_id in body, got %#v", body)
	}
	if account.UserID != "1234567890" || account.Nickname != "TEST_USER_1" || account.Password != "qatest123" {
		t.Fatalf("unexpected test account %+v", account)
	}
	if account.SiteID != "MLA" {
		t.Fatalf("expected requested site to fill the missing site id, got %q", account.SiteID)
	}
}

func TestClient_GetApplication(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/applications/app-123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":"app-123","name":"Onboarding","owner_id":987654321,"site_id":"MLA"}`))
	}))
	defer server.Close()

	app, err := NewClient(Config{APIURL: server.URL}).GetApplication(context.Background(), "APP_USR-1", "app-123")
	if err != nil {
		t.Fatalf("get application: %v", err)
	}
	if app.OwnerID != "987654321" {
		t.Fatalf("expected owner id, got %q", app.OwnerID)
	}
}

func TestClient_APIErrorIsMapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid access token","error":"not_found","status":401}`))
	}))
	defer server.Close()

	_, err := NewClient(Config{APIURL: server.URL}).GetApplication(context.Background(), "expired", "app-123")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "invalid access token" {
		t.Fatalf("expected message, got %q", apiErr.Message)
	}
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized")
	}
	mapped := core.MapError(err)
	if mapped.Category != goerrors.CategoryAuth || mapped.TextCode != core.ErrorCollaboratorFailure {
		t.Fatalf("unexpected mapping %+v", mapped)
	}
}

func TestClient_RequiresAccessToken(t *testing.T) {
	_, err := NewClient(Config{APIURL: "http://127.0.0.1:1"}).CreateTestUser(context.Background(), "", "MLA")
	if !errors.Is(err, core.ErrAccessTokenRequired) {
		t.Fatalf("expected ErrAccessTokenRequired, got %v", err)
	}
}
