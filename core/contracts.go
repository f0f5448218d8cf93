package core

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
)

// LoginProvider performs the interactive authorization dance. Setup and Clean
// bracket the session-level resources (the local callback listener).
type LoginProvider interface {
	Setup(ctx context.Context) error
	Run(ctx context.Context) (Credentials, error)
	Clean(ctx context.Context) error
}

type TestAccountProvisioner interface {
	Create(ctx context.Context, developerNickname string) (TestAccount, error)
}

type AccountRegistry interface {
	Register(ctx context.Context, in RegisterAccountInput) (AccountRecord, error)
	// FindAnyAuthorized returns nil without error when no authorized account
	// is registered.
	FindAnyAuthorized(ctx context.Context) (*AccountRecord, error)
}

type AccountLister interface {
	List(ctx context.Context) ([]AccountRecord, error)
}

type AccountFinder interface {
	FindByNickname(ctx context.Context, nickname string) (*AccountRecord, error)
	FindByUserID(ctx context.Context, userID string) (*AccountRecord, error)
}

// TokenRefresher returns a token pair for account that is valid now,
// refreshing and storing it when the stored pair has expired.
type TokenRefresher interface {
	Usable(ctx context.Context, account AccountRecord) (TokenPair, error)
}

type OwnerResolver interface {
	Get(ctx context.Context) (OwnerRecord, error)
}

// OwnerCacheInvalidator is implemented by owner resolvers that memoize lookups.
type OwnerCacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type BackingStore interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool
}

// Notifier writes human-facing messages. It is distinct from the Logger, which
// records structured operational events.
type Notifier interface {
	Info(message string)
	Success(message string)
	Warn(message string)
	Error(message string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type NopNotifier struct{}

func (NopNotifier) Info(string)    {}
func (NopNotifier) Success(string) {}
func (NopNotifier) Warn(string)    {}
func (NopNotifier) Error(string)   {}
