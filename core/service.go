package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Service sequences the onboarding actions against the external
// collaborators and keeps the Session consistent between them.
type Service struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	notifier        Notifier
	session         *Session
	store           BackingStore
	login           LoginProvider
	registry        AccountRegistry
	ownerResolver   OwnerResolver
	provisioner     TestAccountProvisioner
}

type ServiceDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	ErrorMapper     ErrorMapper
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
	Notifier        Notifier
	Session         *Session
	Store           BackingStore
	Login           LoginProvider
	Registry        AccountRegistry
	OwnerResolver   OwnerResolver
	Provisioner     TestAccountProvisioner
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("onboarding", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("onboarding"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorMapper == nil {
		builder.errorMapper = MapError
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.notifier == nil {
		builder.notifier = NopNotifier{}
	}
	if builder.session == nil {
		builder.session = &Session{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, builder.errorMapper(err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, builder.errorMapper(err)
	}

	missing := []string{}
	if builder.store == nil {
		missing = append(missing, "backing store")
	}
	if builder.login == nil {
		missing = append(missing, "login provider")
	}
	if builder.registry == nil {
		missing = append(missing, "account registry")
	}
	if builder.ownerResolver == nil {
		missing = append(missing, "owner resolver")
	}
	if builder.provisioner == nil {
		missing = append(missing, "test account provisioner")
	}
	if len(missing) > 0 {
		return nil, builder.errorMapper(fmt.Errorf("core: missing required collaborators: %s", strings.Join(missing, ", ")))
	}

	return &Service{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		notifier:        builder.notifier,
		session:         builder.session,
		store:           builder.store,
		login:           builder.login,
		registry:        builder.registry,
		ownerResolver:   builder.ownerResolver,
		provisioner:     builder.provisioner,
	}, nil
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Session() *Session {
	if s == nil {
		return nil
	}
	return s.session
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:          s.logger,
		LoggerProvider:  s.loggerProvider,
		ErrorMapper:     s.errorMapper,
		ConfigProvider:  s.configProvider,
		OptionsResolver: s.optionsResolver,
		Notifier:        s.notifier,
		Session:         s.session,
		Store:           s.store,
		Login:           s.login,
		Registry:        s.registry,
		OwnerResolver:   s.ownerResolver,
		Provisioner:     s.provisioner,
	}
}

func (s *Service) MapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return MapError(err)
	}
	if mapped := s.errorMapper(err); mapped != nil {
		return mapped
	}
	return err
}

// ProvisionNewTestAccount creates a sandbox account under developerNickname,
// logs in as it and registers it as a test account. The first failing step
// aborts the rest.
func (s *Service) ProvisionNewTestAccount(ctx context.Context, developerNickname string) (record AccountRecord, err error) {
	startedAt := time.Now().UTC()
	developerNickname = strings.TrimSpace(developerNickname)
	defer func() {
		s.observeOperation(ctx, startedAt, "provision_test_account", err, map[string]any{
			"developer": developerNickname,
			"nickname":  record.Nickname,
		})
	}()

	if developerNickname == "" {
		return AccountRecord{}, NewStageError(StageCreateTestAccount, ErrNicknameRequired)
	}

	testAccount, err := s.provisioner.Create(ctx, developerNickname)
	if err != nil {
		return AccountRecord{}, NewStageError(StageCreateTestAccount, err)
	}
	s.notifier.Info(fmt.Sprintf(
		"Created test account %q (password %s). Log in with it to complete the registration.",
		testAccount.Nickname,
		testAccount.Password,
	))

	return s.loginAndRegister(ctx, true)
}

// ProvisionExistingAccount logs in with an account that already exists in the
// marketplace and registers it as a regular account.
func (s *Service) ProvisionExistingAccount(ctx context.Context) (record AccountRecord, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observeOperation(ctx, startedAt, "provision_existing_account", err, map[string]any{
			"nickname": record.Nickname,
		})
	}()
	return s.loginAndRegister(ctx, false)
}

func (s *Service) loginAndRegister(ctx context.Context, isTestAccount bool) (AccountRecord, error) {
	credentials, err := s.login.Run(ctx)
	if err != nil {
		return AccountRecord{}, NewStageError(StageAuthenticate, err)
	}

	record, err := s.registry.Register(ctx, RegisterAccountInput{
		Profile:       credentials.Profile,
		Tokens:        credentials.Tokens,
		IsTestAccount: isTestAccount,
	})
	if err != nil {
		return AccountRecord{}, NewStageError(StageRegister, err)
	}

	s.notifier.Success(confirmationMessage(record))
	s.invalidateOwnerData(ctx)
	return record, nil
}

func confirmationMessage(record AccountRecord) string {
	verb := "Updated existing"
	if record.IsNewAccount() {
		verb = "Registered new"
	}
	return fmt.Sprintf("%s %s %q", verb, record.Kind(), record.Nickname)
}

func (s *Service) invalidateOwnerData(ctx context.Context) {
	s.session.clearOwnerData()
	if invalidator, ok := s.ownerResolver.(OwnerCacheInvalidator); ok {
		if err := invalidator.Invalidate(ctx); err != nil {
			s.logWarn(ctx, "owner cache invalidation failed", map[string]any{"error": err.Error()})
		}
	}
}

// RefreshOwnerData makes a single owner lookup without recovery. It is used
// after registrations, where a failure only leaves the owner data unset.
func (s *Service) RefreshOwnerData(ctx context.Context) (*OwnerData, error) {
	owner, err := s.ownerResolver.Get(ctx)
	if err != nil {
		return nil, NewStageError(StageResolveOwner, err)
	}
	s.session.setOwnerData(owner.ClientOwnerData)
	return s.session.OwnerData(), nil
}

// ResolveOwnerData runs the owner lookup with a single recovery round: when
// the first lookup fails the user logs in with any account, that account is
// registered, and the lookup is repeated exactly once. The second outcome is
// final.
func (s *Service) ResolveOwnerData(ctx context.Context) (data OwnerData, err error) {
	startedAt := time.Now().UTC()
	attempts := 0
	defer func() {
		s.observeOperation(ctx, startedAt, "resolve_owner_data", err, map[string]any{
			"attempts": attempts,
			"owner":    data.Nickname,
		})
	}()

	attempts++
	owner, firstErr := s.ownerResolver.Get(ctx)
	if firstErr == nil {
		s.session.setOwnerData(owner.ClientOwnerData)
		return owner.ClientOwnerData, nil
	}

	s.notifier.Warn(fmt.Sprintf(
		"Owner data is not available (%v). Log in with any account to continue.",
		firstErr,
	))

	credentials, err := s.login.Run(ctx)
	if err != nil {
		return OwnerData{}, NewStageError(StageAuthenticate, err)
	}
	record, err := s.registry.Register(ctx, RegisterAccountInput{
		Profile: credentials.Profile,
		Tokens:  credentials.Tokens,
	})
	if err != nil {
		return OwnerData{}, NewStageError(StageRegister, err)
	}
	s.notifier.Success(confirmationMessage(record))
	s.invalidateOwnerData(ctx)

	attempts++
	owner, err = s.ownerResolver.Get(ctx)
	if err != nil {
		return OwnerData{}, NewStageError(StageResolveOwner, err)
	}
	s.session.setOwnerData(owner.ClientOwnerData)
	return owner.ClientOwnerData, nil
}

// AfterRegistration refreshes owner data once a menu action registered an
// account. Failures are reported as warnings.
func (s *Service) AfterRegistration(ctx context.Context) {
	if s.session.HasOwnerData() {
		return
	}
	if _, err := s.RefreshOwnerData(ctx); err != nil {
		s.notifier.Warn(fmt.Sprintf("Owner data could not be refreshed: %v", err))
		s.logWarn(ctx, "owner data refresh failed", map[string]any{"error": err.Error()})
	}
}

func (s *Service) ListAccounts(ctx context.Context) ([]AccountRecord, error) {
	lister, ok := s.registry.(AccountLister)
	if !ok {
		return nil, NewStageError(StageListAccounts, fmt.Errorf("core: account registry does not support listing"))
	}
	records, err := lister.List(ctx)
	if err != nil {
		return nil, NewStageError(StageListAccounts, err)
	}
	return records, nil
}

// MenuState reports the flags the menu renderer uses: store liveness and
// whether no owner data and no authorized account exist yet.
func (s *Service) MenuState(ctx context.Context) MenuState {
	state := MenuState{Connected: s.store.IsConnected()}
	if s.session.HasOwnerData() {
		return state
	}
	if !state.Connected {
		state.FirstLogin = true
		return state
	}
	account, err := s.registry.FindAnyAuthorized(ctx)
	if err != nil {
		s.logWarn(ctx, "authorized account probe failed", map[string]any{"error": err.Error()})
		return state
	}
	state.FirstLogin = account == nil
	return state
}
