package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-marketplace-accounts/core"
	"golang.org/x/oauth2"
)

// TokenRefresher keeps stored account tokens usable. An expired pair is
// exchanged through the refresh token grant and written back to Registry so
// the next caller starts from the fresh pair.
type TokenRefresher struct {
	OAuth      *oauth2.Config
	HTTPClient *http.Client
	// Registry stores refreshed pairs. Nil skips the write.
	Registry core.AccountRegistry
	Now      func() time.Time
}

func NewTokenRefresher(oauthCfg *oauth2.Config, httpClient *http.Client, registry core.AccountRegistry) *TokenRefresher {
	return &TokenRefresher{
		OAuth:      oauthCfg,
		HTTPClient: httpClient,
		Registry:   registry,
	}
}

func (r *TokenRefresher) Usable(ctx context.Context, account core.AccountRecord) (core.TokenPair, error) {
	if !account.Tokens.Expired(r.now()) {
		return account.Tokens, nil
	}
	if r == nil || r.OAuth == nil || strings.TrimSpace(account.Tokens.RefreshToken) == "" {
		return core.TokenPair{}, fmt.Errorf("%w: %q cannot be refreshed", core.ErrTokenExpired, account.Nickname)
	}
	refreshed, err := RefreshTokenPair(ctx, r.OAuth, r.HTTPClient, account.Tokens)
	if err != nil {
		return core.TokenPair{}, fmt.Errorf("providers: refresh token of %q: %w", account.Nickname, err)
	}
	if r.Registry == nil {
		return refreshed, nil
	}
	_, err = r.Registry.Register(ctx, core.RegisterAccountInput{
		Profile: core.Profile{
			UserID:   account.UserID,
			Nickname: account.Nickname,
			Email:    account.Email,
			SiteID:   account.SiteID,
		},
		Tokens:        refreshed,
		IsTestAccount: account.IsTestAccount,
	})
	if err != nil {
		return core.TokenPair{}, fmt.Errorf("providers: store refreshed token of %q: %w", account.Nickname, err)
	}
	return refreshed, nil
}

func (r *TokenRefresher) now() time.Time {
	if r == nil || r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now()
}
