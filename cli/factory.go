package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gocmd "github.com/goliatone/go-command"
	accounts "github.com/goliatone/go-marketplace-accounts"
	"github.com/goliatone/go-marketplace-accounts/adapters/gocommand"
	"github.com/goliatone/go-marketplace-accounts/adapters/gologger"
	"github.com/goliatone/go-marketplace-accounts/command"
	"github.com/goliatone/go-marketplace-accounts/core"
	"github.com/goliatone/go-marketplace-accounts/identity"
	"github.com/goliatone/go-marketplace-accounts/interactive"
	"github.com/goliatone/go-marketplace-accounts/owner"
	"github.com/goliatone/go-marketplace-accounts/providers"
	"github.com/goliatone/go-marketplace-accounts/providers/marketplace"
	"github.com/goliatone/go-marketplace-accounts/query"
	sqlstore "github.com/goliatone/go-marketplace-accounts/store/sql"
	"github.com/goliatone/go-marketplace-accounts/ui"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const defaultHTTPTimeout = 30 * time.Second

// DefaultFactory wires the production collaborators: env configuration,
// logrus logging, the SQL account store, the loopback OAuth login and the
// marketplace API client. Nothing is connected until Setup runs.
func DefaultFactory(ctx context.Context, opts Options, streams IOStreams) (*App, error) {
	rootLogger, err := gologger.NewLogrusLogger(gologger.Options{
		Output: streams.Err,
		Level:  opts.LogLevel,
		JSON:   opts.LogJSON,
	})
	if err != nil {
		return nil, core.ConfigurationError("log_level", err.Error())
	}
	loggers := gologger.NewProvider(rootLogger)

	session, err := core.NewSession(opts.Developer)
	if err != nil {
		return nil, err
	}

	var envFiles []string
	if opts.EnvFile != "" {
		envFiles = append(envFiles, opts.EnvFile)
	}
	cfg, err := core.ResolveConfig(ctx, core.NewCfgxConfigProvider(core.NewEnvConfigLoader(envFiles...)), core.Config{})
	if err != nil {
		return nil, err
	}

	notifier := ui.NewConsoleNotifier(streams.Out)
	httpClient := &http.Client{Timeout: defaultHTTPTimeout}

	store := sqlstore.NewClient(
		cfg.Store,
		sqlstore.WithLogger(loggers.GetLogger("store")),
		sqlstore.WithServiceName(cfg.ServiceName),
	)

	login, err := providers.NewLoopbackLogin(providers.LoopbackLoginConfig{
		Marketplace: cfg.Marketplace,
		Login:       cfg.Login,
		Profiles: identity.NewResolver(identity.Config{
			HTTPClient: httpClient,
			APIURL:     cfg.Marketplace.APIURL,
		}),
		States:      core.NewMemoryLoginStateStore(cfg.Login.Timeout),
		Notifier:    notifier,
		Logger:      loggers.GetLogger("login"),
		OpenBrowser: OpenBrowser,
		HTTPClient:  httpClient,
	})
	if err != nil {
		return nil, err
	}

	api := marketplace.NewClient(marketplace.Config{
		HTTPClient: httpClient,
		APIURL:     cfg.Marketplace.APIURL,
	})
	oauthConfig, err := providers.NewOAuth2Config(cfg.Marketplace, cfg.Login.RedirectURI())
	if err != nil {
		return nil, err
	}
	tokens := providers.NewTokenRefresher(oauthConfig, httpClient, store)

	provisioner, err := marketplace.NewTestAccountProvisioner(store, api, cfg.Marketplace.SiteID,
		marketplace.WithTokenRefresher(tokens),
	)
	if err != nil {
		return nil, err
	}

	cacheConfig := repositorycache.DefaultConfig()
	if cfg.Owner.CacheTTL > 0 {
		cacheConfig.TTL = cfg.Owner.CacheTTL
	}
	ownerCache, err := repositorycache.NewCacheService(cacheConfig)
	if err != nil {
		return nil, fmt.Errorf("cli: owner cache: %w", err)
	}
	ownerResolver, err := owner.NewResolver(store, api, owner.Config{
		ClientID: cfg.Marketplace.ClientID,
		Cache:    ownerCache,
		Tokens:   tokens,
	})
	if err != nil {
		return nil, err
	}

	service, err := core.NewService(cfg,
		core.WithLoggerProvider(loggers),
		core.WithNotifier(notifier),
		core.WithSession(session),
		core.WithBackingStore(store),
		core.WithLoginProvider(login),
		core.WithAccountRegistry(store),
		core.WithOwnerResolver(ownerResolver),
		core.WithTestAccountProvisioner(provisioner),
	)
	if err != nil {
		return nil, err
	}

	bus, err := subscribeHandlers(service, loggers.GetLogger("commands"))
	if err != nil {
		return nil, err
	}
	actions := newActionTable(session.DeveloperNickname(), notifier)

	loopLogger := loggers.GetLogger("interactive")
	loop, err := interactive.NewLoop(interactive.LoopConfig{
		Prompter: ui.NewHuhPrompter(ui.WithIO(streams.In, streams.Out)),
		State: interactive.MenuStateFunc(func(ctx context.Context) core.MenuState {
			state, err := gocommand.Query[query.MenuStateMessage, core.MenuState](ctx, query.MenuStateMessage{})
			if err != nil {
				loopLogger.Warn("menu state query failed", "error", err.Error())
				return service.MenuState(ctx)
			}
			return state
		}),
		Actions:           actions,
		Notifier:          notifier,
		Logger:            loopLogger,
		MaxPromptFailures: cfg.Loop.MaxPromptFailures,
	})
	if err != nil {
		bus.Close()
		return nil, err
	}

	return &App{
		Lifecycle: service,
		Loop:      loop,
		Logger:    loggers.GetLogger("cli"),
		Close:     bus.Close,
	}, nil
}

// subscribeHandlers registers the onboarding commands and queries with a
// fresh bus and the global dispatcher.
func subscribeHandlers(service *core.Service, logger core.Logger) (*gocommand.Bus, error) {
	facade, err := accounts.NewFacade(service)
	if err != nil {
		return nil, err
	}
	commands, queries := facade.Commands(), facade.Queries()
	bus := gocommand.NewBus(logger)

	register := []func() error{
		func() error {
			return gocommand.RegisterCommand[command.CreateTestAccountMessage](bus, commands.CreateTestAccount)
		},
		func() error {
			return gocommand.RegisterCommand[command.RegisterExistingAccountMessage](bus, commands.RegisterExistingAccount)
		},
		func() error {
			return gocommand.RegisterQuery[query.ListAccountsMessage, []core.AccountRecord](bus, queries.ListAccounts)
		},
		func() error {
			return gocommand.RegisterQuery[query.MenuStateMessage, core.MenuState](bus, queries.MenuState)
		},
		bus.Initialize,
	}
	for _, step := range register {
		if err := step(); err != nil {
			bus.Close()
			return nil, err
		}
	}
	return bus, nil
}

// newActionTable binds the menu entries to the dispatcher.
func newActionTable(developer string, notifier core.Notifier) interactive.ActionTable {
	return interactive.NewActionTable(developer, interactive.ActionHandlers{
		CreateTestAccount:       gocmd.CommandFunc[command.CreateTestAccountMessage](gocommand.Dispatch[command.CreateTestAccountMessage]),
		RegisterExistingAccount: gocmd.CommandFunc[command.RegisterExistingAccountMessage](gocommand.Dispatch[command.RegisterExistingAccountMessage]),
		ListAccounts:            gocmd.QueryFunc[query.ListAccountsMessage, []core.AccountRecord](gocommand.Query[query.ListAccountsMessage, []core.AccountRecord]),
	}, notifier)
}
