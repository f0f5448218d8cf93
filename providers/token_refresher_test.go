package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goliatone/go-marketplace-accounts/core"
)

type recordingRegistry struct {
	registers []core.RegisterAccountInput
}

func (r *recordingRegistry) Register(_ context.Context, in core.RegisterAccountInput) (core.AccountRecord, error) {
	r.registers = append(r.registers, in)
	return core.AccountRecord{Nickname: in.Profile.Nickname, Tokens: in.Tokens}, nil
}

func (r *recordingRegistry) FindAnyAuthorized(context.Context) (*core.AccountRecord, error) {
	return nil, nil
}

func expiredAccount(at time.Time) core.AccountRecord {
	return core.AccountRecord{
		Nickname:      "TEST_USER_1",
		UserID:        "77",
		SiteID:        "MLA",
		Authorized:    true,
		IsTestAccount: true,
		Tokens:        core.TokenPair{AccessToken: "APP_USR-1", RefreshToken: "TG-1", ExpiresAt: &at},
	}
}

func TestTokenRefresher_KeepsValidTokens(t *testing.T) {
	expiry := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	registry := &recordingRegistry{}
	refresher := &TokenRefresher{Registry: registry, Now: func() time.Time { return expiry.Add(-time.Minute) }}

	tokens, err := refresher.Usable(context.Background(), expiredAccount(expiry))
	if err != nil {
		t.Fatalf("usable: %v", err)
	}
	if tokens.AccessToken != "APP_USR-1" || len(registry.registers) != 0 {
		t.Fatalf("expected stored tokens untouched, got %+v (%d writes)", tokens, len(registry.registers))
	}
}

func TestTokenRefresher_RefreshesAndStoresExpiredTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"APP_USR-2","token_type":"bearer","expires_in":21600,"refresh_token":"TG-2"}`))
	}))
	defer server.Close()

	oauthCfg, err := NewOAuth2Config(testMarketplaceConfig(server.URL), "")
	if err != nil {
		t.Fatalf("oauth config: %v", err)
	}
	expiry := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	registry := &recordingRegistry{}
	refresher := NewTokenRefresher(oauthCfg, server.Client(), registry)
	refresher.Now = func() time.Time { return expiry.Add(time.Hour) }

	tokens, err := refresher.Usable(context.Background(), expiredAccount(expiry))
	if err != nil {
		t.Fatalf("usable: %v", err)
	}
	if tokens.AccessToken != "APP_USR-2" {
		t.Fatalf("expected refreshed access token, got %q", tokens.AccessToken)
	}
	if len(registry.registers) != 1 {
		t.Fatalf("expected one write, got %d", len(registry.registers))
	}
	stored := registry.registers[0]
	if stored.Tokens.RefreshToken != "TG-2" || !stored.IsTestAccount || stored.Profile.UserID != "77" {
		t.Fatalf("unexpected stored registration %+v", stored)
	}
}

func TestTokenRefresher_ExpiredWithoutRefreshToken(t *testing.T) {
	expiry := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	account := expiredAccount(expiry)
	account.Tokens.RefreshToken = ""
	refresher := &TokenRefresher{Now: func() time.Time { return expiry }}

	if _, err := refresher.Usable(context.Background(), account); !errors.Is(err, core.ErrTokenExpired) {
		t.Fatalf("expected expired token error, got %v", err)
	}
}
