package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNicknameRequired     = errors.New("core: account nickname is required")
	ErrAccessTokenRequired  = errors.New("core: access token is required")
	ErrDeveloperNotFound    = errors.New("core: developer account not found")
	ErrDeveloperUnavailable = errors.New("core: developer account is not authorized")
	ErrOwnerNotFound        = errors.New("core: owner account not found")
	ErrNoAuthorizedAccount  = errors.New("core: no authorized account found")
	ErrTokenExpired         = errors.New("core: access token expired")
)

// Profile is the marketplace user profile returned after a login. The
// orchestrator never inspects it; it is handed to the account registry as is.
type Profile struct {
	UserID    string
	Nickname  string
	Email     string
	FirstName string
	LastName  string
	SiteID    string
	Raw       map[string]any
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.Nickname) == "" {
		return ErrNicknameRequired
	}
	return nil
}

func (p Profile) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
	if name == "" {
		return strings.TrimSpace(p.Nickname)
	}
	return name
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	ExpiresAt    *time.Time
}

func (t TokenPair) Validate() error {
	if strings.TrimSpace(t.AccessToken) == "" {
		return ErrAccessTokenRequired
	}
	return nil
}

func (t TokenPair) Expired(now time.Time) bool {
	if t.ExpiresAt == nil {
		return false
	}
	return !now.Before(*t.ExpiresAt)
}

// Credentials is the result of a successful login: a profile plus the token
// pair issued for it.
type Credentials struct {
	Profile Profile
	Tokens  TokenPair
}

type RegisterAccountInput struct {
	Profile       Profile
	Tokens        TokenPair
	IsTestAccount bool
}

func (in RegisterAccountInput) Validate() error {
	if err := in.Profile.Validate(); err != nil {
		return err
	}
	return in.Tokens.Validate()
}

type AccountRecord struct {
	ID            string
	Nickname      string
	UserID        string
	SiteID        string
	Email         string
	IsTestAccount bool
	Authorized    bool
	Tokens        TokenPair
	CreatedAt     time.Time
	UpdatedAt     time.Time

	newAccount bool
}

// MarkNew flags the record as created by the registering call. Only account
// registries should call it.
func (r AccountRecord) MarkNew(isNew bool) AccountRecord {
	r.newAccount = isNew
	return r
}

// IsNewAccount reports whether no record existed for the nickname before the
// registration that produced this value.
func (r AccountRecord) IsNewAccount() bool {
	return r.newAccount
}

func (r AccountRecord) Kind() string {
	if r.IsTestAccount {
		return "test account"
	}
	return "account"
}

// OwnerData is the derived metadata about the account that owns the
// marketplace application (clientOwnerData).
type OwnerData struct {
	ClientID    string
	OwnerUserID string
	Nickname    string
	SiteID      string
	AccountID   string
}

func (o OwnerData) String() string {
	return fmt.Sprintf("%s (user %s, site %s)", o.Nickname, o.OwnerUserID, o.SiteID)
}

type OwnerRecord struct {
	Account         AccountRecord
	ClientOwnerData OwnerData
}

// TestAccount describes a sandbox account created under a developer account.
type TestAccount struct {
	UserID   string
	Nickname string
	Password string
	SiteID   string
	Email    string
}

type MenuState struct {
	Connected  bool
	FirstLogin bool
}
