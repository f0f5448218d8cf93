package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-marketplace-accounts/core"
)

const (
	defaultRequestTimeout   = 10 * time.Second
	maxProfileResponseBytes = 1 << 20 // 1 MiB
	profilePath             = "/users/me"
)

var ErrProfileNotFound = errors.New("identity: profile not found")

type ProfileNotFoundError struct {
	Cause error
}

func (e *ProfileNotFoundError) Error() string {
	if e == nil || e.Cause == nil {
		return ErrProfileNotFound.Error()
	}
	return ErrProfileNotFound.Error() + ": " + e.Cause.Error()
}

func (e *ProfileNotFoundError) Unwrap() error {
	if e == nil {
		return nil
	}
	if e.Cause == nil {
		return ErrProfileNotFound
	}
	return errors.Join(ErrProfileNotFound, e.Cause)
}

func (e *ProfileNotFoundError) ToServiceError() *goerrors.Error {
	message := ErrProfileNotFound.Error()
	if e != nil && e.Cause != nil {
		message = e.Error()
	}
	return goerrors.New(message, goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(core.ErrorProfileNotFound)
}

func profileNotFound(cause error) error {
	return &ProfileNotFoundError{Cause: cause}
}

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ProfileResolver loads the profile of the user an access token was issued
// for.
type ProfileResolver interface {
	Resolve(ctx context.Context, accessToken string) (core.Profile, error)
}

type Config struct {
	HTTPClient     HTTPDoer
	APIURL         string
	RequestTimeout time.Duration
}

type Resolver struct {
	httpClient     HTTPDoer
	apiURL         string
	requestTimeout time.Duration
}

func NewResolver(cfg Config) *Resolver {
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
	return &Resolver{
		httpClient:     httpClient,
		apiURL:         apiURL,
		requestTimeout: requestTimeout,
	}
}

func (r *Resolver) Resolve(ctx context.Context, accessToken string) (core.Profile, error) {
	if r == nil {
		return core.Profile{}, profileNotFound(nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	payload, err := r.fetchProfile(ctx, strings.TrimSpace(accessToken))
	if err != nil {
		return core.Profile{}, profileNotFound(err)
	}
	profile := normalizeProfile(payload)
	if err := profile.Validate(); err != nil {
		return core.Profile{}, profileNotFound(err)
	}
	return profile, nil
}

func (r *Resolver) fetchProfile(ctx context.Context, accessToken string) (map[string]any, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("identity: access token is required")
	}
	requestCtx := ctx
	cancel := func() {}
	if r.requestTimeout > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, r.requestTimeout)
	}
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, r.apiURL+profilePath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	res, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	body, readErr := io.ReadAll(io.LimitReader(res.Body, maxProfileResponseBytes+1))
	if readErr != nil {
		return nil, fmt.Errorf("identity: read profile response: %w", readErr)
	}
	if int64(len(body)) > maxProfileResponseBytes {
		return nil, fmt.Errorf("identity: profile response exceeds %d bytes", maxProfileResponseBytes)
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("identity: profile endpoint returned status %d", res.StatusCode)
	}
	var payload map[string]any
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("identity: decode profile response: %w", err)
	}
	return payload, nil
}

func normalizeProfile(payload map[string]any) core.Profile {
	return core.Profile{
		UserID:    readString(payload["id"]),
		Nickname:  readString(payload["nickname"]),
		Email:     readString(payload["email"]),
		FirstName: readString(payload["first_name"]),
		LastName:  readString(payload["last_name"]),
		SiteID:    readString(payload["site_id"]),
		Raw:       copyMap(payload),
	}
}

func copyMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return map[string]any{}
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}

func readString(value any) string {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return strings.TrimSpace(typed.String())
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case float64:
		return strconv.FormatInt(int64(typed), 10)
	default:
		if value == nil {
			return ""
		}
		return strings.TrimSpace(fmt.Sprint(value))
	}
}
