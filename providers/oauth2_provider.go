package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-marketplace-accounts/core"
	"golang.org/x/oauth2"
)

const defaultTokenRequestTimeout = 30 * time.Second

// NewOAuth2Config builds the authorization code configuration for the
// marketplace application. Client credentials travel in the request body,
// which is what the marketplace token endpoint expects.
func NewOAuth2Config(cfg core.MarketplaceConfig, redirectURI string) (*oauth2.Config, error) {
	clientID := strings.TrimSpace(cfg.ClientID)
	if clientID == "" {
		return nil, fmt.Errorf("providers: client id is required for provider %q", cfg.ProviderID)
	}
	if strings.TrimSpace(cfg.AuthURL) == "" {
		return nil, fmt.Errorf("providers: auth url is required for provider %q", cfg.ProviderID)
	}
	if strings.TrimSpace(cfg.TokenURL) == "" {
		return nil, fmt.Errorf("providers: token url is required for provider %q", cfg.ProviderID)
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: strings.TrimSpace(cfg.ClientSecret),
		RedirectURL:  strings.TrimSpace(redirectURI),
		Scopes:       normalizeScopes(cfg.Scopes),
		Endpoint: oauth2.Endpoint{
			AuthURL:   strings.TrimSpace(cfg.AuthURL),
			TokenURL:  strings.TrimSpace(cfg.TokenURL),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}, nil
}

// TokenPairFromOAuth2 converts a token endpoint response into the stored pair.
func TokenPairFromOAuth2(token *oauth2.Token) core.TokenPair {
	if token == nil {
		return core.TokenPair{}
	}
	pair := core.TokenPair{
		AccessToken:  strings.TrimSpace(token.AccessToken),
		RefreshToken: strings.TrimSpace(token.RefreshToken),
		TokenType:    strings.TrimSpace(token.TokenType),
	}
	if scope, ok := token.Extra("scope").(string); ok {
		pair.Scope = strings.TrimSpace(scope)
	}
	if !token.Expiry.IsZero() {
		expiresAt := token.Expiry.UTC()
		pair.ExpiresAt = &expiresAt
	}
	return pair
}

func OAuth2TokenFromPair(pair core.TokenPair) *oauth2.Token {
	token := &oauth2.Token{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
	}
	if pair.ExpiresAt != nil {
		token.Expiry = pair.ExpiresAt.UTC()
	}
	return token
}

// RefreshTokenPair exchanges the refresh token of pair for a new pair. The
// refresh token is kept when the endpoint does not rotate it.
func RefreshTokenPair(ctx context.Context, cfg *oauth2.Config, httpClient *http.Client, pair core.TokenPair) (core.TokenPair, error) {
	if cfg == nil {
		return core.TokenPair{}, fmt.Errorf("providers: oauth2 config is required")
	}
	if strings.TrimSpace(pair.RefreshToken) == "" {
		return core.TokenPair{}, fmt.Errorf("providers: refresh token is required")
	}
	expired := OAuth2TokenFromPair(pair)
	// Force the token source to hit the endpoint.
	expired.AccessToken = ""
	token, err := cfg.TokenSource(withHTTPClient(ctx, httpClient), expired).Token()
	if err != nil {
		return core.TokenPair{}, describeTokenError(err)
	}
	refreshed := TokenPairFromOAuth2(token)
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = pair.RefreshToken
	}
	return refreshed, nil
}

func withHTTPClient(ctx context.Context, httpClient *http.Client) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTokenRequestTimeout}
	}
	return context.WithValue(ctx, oauth2.HTTPClient, httpClient)
}

func describeTokenError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr != nil {
		description := strings.TrimSpace(retrieveErr.ErrorDescription)
		if description == "" {
			description = strings.TrimSpace(retrieveErr.ErrorCode)
		}
		if description != "" {
			status := 0
			if retrieveErr.Response != nil {
				status = retrieveErr.Response.StatusCode
			}
			return fmt.Errorf("providers: token endpoint returned status %d: %s", status, description)
		}
	}
	return fmt.Errorf("providers: token request failed: %w", err)
}

func normalizeScopes(scopes []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		scope = strings.TrimSpace(scope)
		if scope == "" {
			continue
		}
		if _, ok := seen[scope]; ok {
			continue
		}
		seen[scope] = struct{}{}
		out = append(out, scope)
	}
	return out
}
