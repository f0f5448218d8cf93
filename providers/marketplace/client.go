package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-marketplace-accounts/core"
)

const (
	defaultRequestTimeout = 15 * time.Second
	maxResponseBodyBytes  = 1 << 20 // 1 MiB
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// APIError is a non-2xx answer from the marketplace REST API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	detail := strings.TrimSpace(e.Message)
	if detail == "" {
		detail = strings.TrimSpace(e.Code)
	}
	if detail == "" {
		return fmt.Sprintf("marketplace: api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("marketplace: api returned status %d: %s", e.StatusCode, detail)
}

func (e *APIError) ToServiceError() *goerrors.Error {
	category := goerrors.CategoryExternal
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		category = goerrors.CategoryAuth
	case http.StatusNotFound:
		category = goerrors.CategoryNotFound
	}
	return goerrors.New(e.Error(), category).
		WithCode(http.StatusBadGateway).
		WithTextCode(core.ErrorCollaboratorFailure).
		WithMetadata(map[string]any{"status": e.StatusCode, "code": e.Code})
}

// Application is the subset of the application resource the onboarding flow
// needs.
type Application struct {
	ID      string
	Name    string
	OwnerID string
	SiteID  string
}

type Config struct {
	HTTPClient     HTTPDoer
	APIURL         string
	RequestTimeout time.Duration
}

// Client talks to the marketplace REST API on behalf of an account token.
type Client struct {
	httpClient     HTTPDoer
	apiURL         string
	requestTimeout time.Duration
}

func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	apiURL := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if apiURL == "" {
		apiURL = core.DefaultConfig().Marketplace.APIURL
	}
	return &Client{httpClient: httpClient, apiURL: apiURL, requestTimeout: requestTimeout}
}

// CreateTestUser creates a sandbox user on siteID. The token decides which
// developer account owns it.
func (c *Client) CreateTestUser(ctx context.Context, accessToken string, siteID string) (core.TestAccount, error) {
	siteID = strings.TrimSpace(siteID)
	if siteID == "" {
		return core.TestAccount{}, fmt.Errorf("marketplace: site id is required")
	}
	payload, err := c.do(ctx, http.MethodPost, "/users/test_user", accessToken, map[string]any{"site_id": siteID})
	if err != nil {
		return core.TestAccount{}, err
	}
	account := core.TestAccount{
		UserID:   readString(payload["id"]),
		Nickname: readString(payload["nickname"]),
		Password: readString(payload["password"]),
		Email:    readString(payload["email"]),
		SiteID:   readString(payload["site_id"]),
	}
	if account.SiteID == "" {
		account.SiteID = siteID
	}
	if account.Nickname == "" {
		return core.TestAccount{}, fmt.Errorf("marketplace: test user response is missing a nickname")
	}
	return account, nil
}

func (c *Client) GetApplication(ctx context.Context, accessToken string, clientID string) (Application, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return Application{}, fmt.Errorf("marketplace: client id is required")
	}
	payload, err := c.do(ctx, http.MethodGet, "/applications/"+url.PathEscape(clientID), accessToken, nil)
	if err != nil {
		return Application{}, err
	}
	app := Application{
		ID:      readString(payload["id"]),
		Name:    readString(payload["name"]),
		OwnerID: readString(payload["owner_id"]),
		SiteID:  readString(payload["site_id"]),
	}
	if app.OwnerID == "" {
		return Application{}, fmt.Errorf("marketplace: application %s has no owner", clientID)
	}
	return app, nil
}

func (c *Client) do(ctx context.Context, method string, path string, accessToken string, body any) (map[string]any, error) {
	if c == nil {
		return nil, fmt.Errorf("marketplace: client is nil")
	}
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, core.ErrAccessTokenRequired
	}
	if ctx == nil {
		ctx = context.Background()
	}
	requestCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marketplace: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(requestCtx, method, c.apiURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("marketplace: %s %s: %w", method, path, err)
	}
	defer res.Body.Close()
	raw, readErr := io.ReadAll(io.LimitReader(res.Body, maxResponseBodyBytes+1))
	if readErr != nil {
		return nil, fmt.Errorf("marketplace: read response: %w", readErr)
	}
	if int64(len(raw)) > maxResponseBodyBytes {
		return nil, fmt.Errorf("marketplace: response exceeds %d bytes", maxResponseBodyBytes)
	}

	payload := map[string]any{}
	if len(bytes.TrimSpace(raw)) > 0 {
		decoder := json.NewDecoder(bytes.NewReader(raw))
		decoder.UseNumber()
		if err := decoder.Decode(&payload); err != nil && res.StatusCode < http.StatusMultipleChoices {
			return nil, fmt.Errorf("marketplace: decode response: %w", err)
		}
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return nil, &APIError{
			StatusCode: res.StatusCode,
			Code:       readString(payload["error"]),
			Message:    readString(payload["message"]),
		}
	}
	return payload, nil
}

// IsUnauthorized reports whether err is an API rejection of the token.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr != nil && apiErr.StatusCode == http.StatusUnauthorized
}

func readString(value any) string {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return typed.String()
	case float64:
		return strconv.FormatInt(int64(typed), 10)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(value))
	}
}
