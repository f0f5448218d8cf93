package accounts

import "github.com/goliatone/go-marketplace-accounts/core"

type Config = core.Config

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies
type Session = core.Session
type Notifier = core.Notifier
type BackingStore = core.BackingStore
type LoginProvider = core.LoginProvider
type AccountRegistry = core.AccountRegistry
type OwnerResolver = core.OwnerResolver
type TestAccountProvisioner = core.TestAccountProvisioner

type AccountRecord = core.AccountRecord
type OwnerData = core.OwnerData
type MenuState = core.MenuState

var (
	WithLogger                 = core.WithLogger
	WithLoggerProvider         = core.WithLoggerProvider
	WithErrorMapper            = core.WithErrorMapper
	WithConfigProvider         = core.WithConfigProvider
	WithOptionsResolver        = core.WithOptionsResolver
	WithNotifier               = core.WithNotifier
	WithSession                = core.WithSession
	WithBackingStore           = core.WithBackingStore
	WithLoginProvider          = core.WithLoginProvider
	WithAccountRegistry        = core.WithAccountRegistry
	WithOwnerResolver          = core.WithOwnerResolver
	WithTestAccountProvisioner = core.WithTestAccountProvisioner
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewSession(developerNickname string) (*Session, error) {
	return core.NewSession(developerNickname)
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}
