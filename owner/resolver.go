// Package owner resolves the account that owns the marketplace application
// the tool is configured with.
package owner

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-marketplace-accounts/core"
	"github.com/goliatone/go-marketplace-accounts/providers"
	"github.com/goliatone/go-marketplace-accounts/providers/marketplace"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const ownerCacheKeyPrefix = "marketplace-accounts::owner::v1"

type ApplicationReader interface {
	GetApplication(ctx context.Context, accessToken string, clientID string) (marketplace.Application, error)
}

type Accounts interface {
	core.AccountRegistry
	core.AccountFinder
}

type Config struct {
	ClientID string
	// Cache memoizes lookups when set. Invalidate drops the entry.
	Cache repositorycache.CacheService
	// Tokens refreshes expired tokens before calling the API. Without it an
	// expired token fails the lookup.
	Tokens core.TokenRefresher
}

type Resolver struct {
	accounts Accounts
	apps     ApplicationReader
	clientID string
	cache    repositorycache.CacheService
	tokens   core.TokenRefresher
}

func NewResolver(accounts Accounts, apps ApplicationReader, cfg Config) (*Resolver, error) {
	if accounts == nil {
		return nil, fmt.Errorf("owner: account registry is required")
	}
	if apps == nil {
		return nil, fmt.Errorf("owner: application reader is required")
	}
	clientID := strings.TrimSpace(cfg.ClientID)
	if clientID == "" {
		return nil, fmt.Errorf("owner: client id is required")
	}
	tokens := cfg.Tokens
	if tokens == nil {
		tokens = &providers.TokenRefresher{}
	}
	return &Resolver{
		accounts: accounts,
		apps:     apps,
		clientID: clientID,
		cache:    cfg.Cache,
		tokens:   tokens,
	}, nil
}

// CacheKey returns the owner cache key for clientID:
// marketplace-accounts::owner::v1::<client_id>.
func CacheKey(clientID string) string {
	return ownerCacheKeyPrefix + "::" + url.PathEscape(strings.TrimSpace(clientID))
}

func (r *Resolver) Get(ctx context.Context) (core.OwnerRecord, error) {
	if r == nil {
		return core.OwnerRecord{}, fmt.Errorf("owner: resolver is not configured")
	}
	if r.cache == nil {
		return r.fetch(ctx)
	}
	return repositorycache.GetOrFetch(ctx, r.cache, CacheKey(r.clientID), r.fetch)
}

func (r *Resolver) Invalidate(ctx context.Context) error {
	if r == nil || r.cache == nil {
		return nil
	}
	return r.cache.Delete(ctx, CacheKey(r.clientID))
}

func (r *Resolver) fetch(ctx context.Context) (core.OwnerRecord, error) {
	account, err := r.accounts.FindAnyAuthorized(ctx)
	if err != nil {
		return core.OwnerRecord{}, err
	}
	if account == nil {
		return core.OwnerRecord{}, core.ErrNoAuthorizedAccount
	}
	tokens, err := r.tokens.Usable(ctx, *account)
	if err != nil {
		return core.OwnerRecord{}, err
	}

	app, err := r.apps.GetApplication(ctx, tokens.AccessToken, r.clientID)
	if err != nil {
		return core.OwnerRecord{}, err
	}
	owner, err := r.accounts.FindByUserID(ctx, app.OwnerID)
	if err != nil {
		return core.OwnerRecord{}, err
	}
	if owner == nil {
		return core.OwnerRecord{}, fmt.Errorf("%w: user %s is not registered", core.ErrOwnerNotFound, app.OwnerID)
	}

	siteID := strings.TrimSpace(owner.SiteID)
	if siteID == "" {
		siteID = app.SiteID
	}
	return core.OwnerRecord{
		Account: *owner,
		ClientOwnerData: core.OwnerData{
			ClientID:    r.clientID,
			OwnerUserID: app.OwnerID,
			Nickname:    owner.Nickname,
			SiteID:      siteID,
			AccountID:   owner.ID,
		},
	}, nil
}
