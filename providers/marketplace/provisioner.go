package marketplace

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-marketplace-accounts/core"
)

// TestUserCreator is the API surface the provisioner needs.
type TestUserCreator interface {
	CreateTestUser(ctx context.Context, accessToken string, siteID string) (core.TestAccount, error)
}

// TestAccountProvisioner creates sandbox users with the token of an already
// registered developer account.
type TestAccountProvisioner struct {
	accounts      core.AccountFinder
	api           TestUserCreator
	tokens        core.TokenRefresher
	defaultSiteID string
}

type ProvisionerOption func(*TestAccountProvisioner)

// WithTokenRefresher refreshes an expired developer token before the API
// call. Without one an expired token is reported as unusable.
func WithTokenRefresher(tokens core.TokenRefresher) ProvisionerOption {
	return func(p *TestAccountProvisioner) {
		if tokens != nil {
			p.tokens = tokens
		}
	}
}

func NewTestAccountProvisioner(accounts core.AccountFinder, api TestUserCreator, defaultSiteID string, opts ...ProvisionerOption) (*TestAccountProvisioner, error) {
	if accounts == nil {
		return nil, fmt.Errorf("marketplace: account finder is required")
	}
	if api == nil {
		return nil, fmt.Errorf("marketplace: test user api is required")
	}
	p := &TestAccountProvisioner{
		accounts:      accounts,
		api:           api,
		tokens:        expiryCheck{now: time.Now},
		defaultSiteID: strings.TrimSpace(defaultSiteID),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

func (p *TestAccountProvisioner) Create(ctx context.Context, developerNickname string) (core.TestAccount, error) {
	developerNickname = strings.TrimSpace(developerNickname)
	if developerNickname == "" {
		return core.TestAccount{}, core.ErrNicknameRequired
	}
	developer, err := p.accounts.FindByNickname(ctx, developerNickname)
	if err != nil {
		return core.TestAccount{}, err
	}
	if developer == nil {
		return core.TestAccount{}, fmt.Errorf("%w: %q", core.ErrDeveloperNotFound, developerNickname)
	}
	if !developer.Authorized || strings.TrimSpace(developer.Tokens.AccessToken) == "" {
		return core.TestAccount{}, fmt.Errorf("%w: %q", core.ErrDeveloperUnavailable, developerNickname)
	}

	tokens, err := p.tokens.Usable(ctx, *developer)
	if err != nil {
		return core.TestAccount{}, fmt.Errorf("%w: %q: %w", core.ErrDeveloperUnavailable, developerNickname, err)
	}

	siteID := strings.TrimSpace(developer.SiteID)
	if siteID == "" {
		siteID = p.defaultSiteID
	}
	return p.api.CreateTestUser(ctx, tokens.AccessToken, siteID)
}

// expiryCheck hands back stored tokens until they expire.
type expiryCheck struct {
	now func() time.Time
}

func (c expiryCheck) Usable(_ context.Context, account core.AccountRecord) (core.TokenPair, error) {
	if account.Tokens.Expired(c.now()) {
		return core.TokenPair{}, core.ErrTokenExpired
	}
	return account.Tokens, nil
}
