package owner

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goliatone/go-marketplace-accounts/core"
	"github.com/goliatone/go-marketplace-accounts/providers"
	"github.com/goliatone/go-marketplace-accounts/providers/marketplace"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

type memoryAccounts struct {
	records   []core.AccountRecord
	registers []core.RegisterAccountInput
}

func (m *memoryAccounts) Register(_ context.Context, in core.RegisterAccountInput) (core.AccountRecord, error) {
	m.registers = append(m.registers, in)
	for i := range m.records {
		if m.records[i].Nickname == in.Profile.Nickname {
			m.records[i].Tokens = in.Tokens
			return m.records[i].MarkNew(false), nil
		}
	}
	record := core.AccountRecord{ID: "acct-" + in.Profile.Nickname, Nickname: in.Profile.Nickname, UserID: in.Profile.UserID, Authorized: true, Tokens: in.Tokens}
	m.records = append(m.records, record)
	return record.MarkNew(true), nil
}

func (m *memoryAccounts) FindAnyAuthorized(context.Context) (*core.AccountRecord, error) {
	for _, record := range m.records {
		if record.Authorized {
			found := record
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memoryAccounts) FindByNickname(_ context.Context, nickname string) (*core.AccountRecord, error) {
	for _, record := range m.records {
		if record.Nickname == nickname {
			found := record
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memoryAccounts) FindByUserID(_ context.Context, userID string) (*core.AccountRecord, error) {
	for _, record := range m.records {
		if record.UserID == userID {
			found := record
			return &found, nil
		}
	}
	return nil, nil
}

type stubApps struct {
	ownerID string
	err     error
	calls   int
	tokens  []string
}

func (s *stubApps) GetApplication(_ context.Context, accessToken string, clientID string) (marketplace.Application, error) {
	s.calls++
	s.tokens = append(s.tokens, accessToken)
	if s.err != nil {
		return marketplace.Application{}, s.err
	}
	return marketplace.Application{ID: clientID, OwnerID: s.ownerID, SiteID: "MLA"}, nil
}

func newTestCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}

func sellerAccounts() *memoryAccounts {
	return &memoryAccounts{records: []core.AccountRecord{{
		ID:         "acct-seller123",
		Nickname:   "seller123",
		UserID:     "42",
		SiteID:     "MLM",
		Authorized: true,
		Tokens:     core.TokenPair{AccessToken: "APP_USR-1", RefreshToken: "TG-1"},
	}}}
}

func TestResolver_GetResolvesOwnerFromApplication(t *testing.T) {
	apps := &stubApps{ownerID: "42"}
	resolver, err := NewResolver(sellerAccounts(), apps, Config{ClientID: "app-123"})
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	owner, err := resolver.Get(context.Background())
	if err != nil {
		t.Fatalf("get owner: %v", err)
	}
	want := core.OwnerData{ClientID: "app-123", OwnerUserID: "42", Nickname: "seller123", SiteID: "MLM", AccountID: "acct-seller123"}
	if owner.ClientOwnerData != want {
		t.Fatalf("expected %+v, got %+v", want, owner.ClientOwnerData)
	}
	if apps.tokens[0] != "APP_USR-1" {
		t.Fatalf("expected authorized account token, got %q", apps.tokens[0])
	}
}

func TestResolver_GetReportsUnregisteredOwner(t *testing.T) {
	resolver, _ := NewResolver(sellerAccounts(), &stubApps{ownerID: "999"}, Config{ClientID: "app-123"})
	_, err := resolver.Get(context.Background())
	if !errors.Is(err, core.ErrOwnerNotFound) {
		t.Fatalf("expected ErrOwnerNotFound, got %v", err)
	}
}

func TestResolver_GetRequiresAuthorizedAccount(t *testing.T) {
	apps := &stubApps{ownerID: "42"}
	resolver, _ := NewResolver(&memoryAccounts{}, apps, Config{ClientID: "app-123"})
	_, err := resolver.Get(context.Background())
	if !errors.Is(err, core.ErrNoAuthorizedAccount) {
		t.Fatalf("expected ErrNoAuthorizedAccount, got %v", err)
	}
	if apps.calls != 0 {
		t.Fatalf("expected no api call without a token")
	}
}

func TestResolver_CachesUntilInvalidated(t *testing.T) {
	apps := &stubApps{ownerID: "42"}
	resolver, _ := NewResolver(sellerAccounts(), apps, Config{ClientID: "app-123", Cache: newTestCacheService(t)})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := resolver.Get(ctx); err != nil {
			t.Fatalf("get owner: %v", err)
		}
	}
	if apps.calls != 1 {
		t.Fatalf("expected a single api call while cached, got %d", apps.calls)
	}

	if err := resolver.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := resolver.Get(ctx); err != nil {
		t.Fatalf("get owner after invalidate: %v", err)
	}
	if apps.calls != 2 {
		t.Fatalf("expected invalidation to force a lookup, got %d calls", apps.calls)
	}
}

func TestResolver_RefreshesExpiredTokenAndStoresIt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"APP_USR-2","token_type":"bearer","expires_in":21600,"refresh_token":"TG-2"}`))
	}))
	defer server.Close()

	marketplaceCfg := core.DefaultConfig().Marketplace
	marketplaceCfg.ClientID = "app-123"
	marketplaceCfg.TokenURL = server.URL + "/oauth/token"
	oauthCfg, err := providers.NewOAuth2Config(marketplaceCfg, "")
	if err != nil {
		t.Fatalf("oauth config: %v", err)
	}

	accounts := sellerAccounts()
	expired := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	accounts.records[0].Tokens.ExpiresAt = &expired
	apps := &stubApps{ownerID: "42"}
	refresher := providers.NewTokenRefresher(oauthCfg, server.Client(), accounts)
	refresher.Now = func() time.Time { return expired.Add(time.Hour) }
	resolver, _ := NewResolver(accounts, apps, Config{
		ClientID: "app-123",
		Tokens:   refresher,
	})

	if _, err := resolver.Get(context.Background()); err != nil {
		t.Fatalf("get owner: %v", err)
	}
	if apps.tokens[0] != "APP_USR-2" {
		t.Fatalf("expected refreshed token to be used, got %q", apps.tokens[0])
	}
	if len(accounts.registers) != 1 || accounts.registers[0].Tokens.RefreshToken != "TG-2" {
		t.Fatalf("expected refreshed pair to be stored, got %+v", accounts.registers)
	}
}

func TestNewResolver_RequiresClientID(t *testing.T) {
	if _, err := NewResolver(&memoryAccounts{}, &stubApps{}, Config{}); err == nil {
		t.Fatalf("expected missing client id error")
	}
}
