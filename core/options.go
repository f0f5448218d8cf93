package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	opts "github.com/goliatone/go-options"
)

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type serviceBuilder struct {
	runtimeConfig   Config
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

type Option func(*serviceBuilder)

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *serviceBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

func WithNotifier(notifier Notifier) Option {
	return func(b *serviceBuilder) {
		b.notifier = notifier
	}
}

func WithSession(session *Session) Option {
	return func(b *serviceBuilder) {
		b.session = session
	}
}

func WithBackingStore(store BackingStore) Option {
	return func(b *serviceBuilder) {
		b.store = store
	}
}

func WithLoginProvider(provider LoginProvider) Option {
	return func(b *serviceBuilder) {
		b.login = provider
	}
}

func WithAccountRegistry(registry AccountRegistry) Option {
	return func(b *serviceBuilder) {
		b.registry = registry
	}
}

func WithOwnerResolver(resolver OwnerResolver) Option {
	return func(b *serviceBuilder) {
		b.ownerResolver = resolver
	}
}

func WithTestAccountProvisioner(provisioner TestAccountProvisioner) Option {
	return func(b *serviceBuilder) {
		b.provisioner = provisioner
	}
}

func defaultServiceBuilder(runtime Config) serviceBuilder {
	// Logger and provider stay nil so NewService can tell which one was
	// supplied; glog.Resolve picks the nop logger when neither was.
	return serviceBuilder{
		runtimeConfig:   runtime,
		errorMapper:     MapError,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
		notifier:        NopNotifier{},
	}
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

func NewStaticConfigLoader(values map[string]any) RawConfigLoader {
	return staticRawConfigLoader{Values: values}
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("environment", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("environment"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

// ResolveConfig runs the provider and resolver the same way NewService does,
// for callers that need the final configuration before building collaborators.
func ResolveConfig(ctx context.Context, provider ConfigProvider, runtime Config) (Config, error) {
	if provider == nil {
		provider = NewCfgxConfigProvider(nil)
	}
	defaults := DefaultConfig()
	loaded, err := provider.Load(ctx, defaults)
	if err != nil {
		return Config{}, err
	}
	return GoOptionsResolver{}.Resolve(defaults, loaded, runtime)
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	setString := func(target map[string]any, key string, value string) {
		if includeZero || strings.TrimSpace(value) != "" {
			target[key] = value
		}
	}

	setString(layer, "service_name", cfg.ServiceName)

	store := map[string]any{}
	setString(store, "driver", cfg.Store.Driver)
	setString(store, "dsn", cfg.Store.DSN)
	if includeZero || cfg.Store.Debug {
		store["debug"] = cfg.Store.Debug
	}
	if includeZero || cfg.Store.PingTimeout > 0 {
		store["ping_timeout"] = cfg.Store.PingTimeout
	}
	if len(store) > 0 {
		layer["store"] = store
	}

	marketplace := map[string]any{}
	setString(marketplace, "provider_id", cfg.Marketplace.ProviderID)
	setString(marketplace, "client_id", cfg.Marketplace.ClientID)
	setString(marketplace, "client_secret", cfg.Marketplace.ClientSecret)
	setString(marketplace, "auth_url", cfg.Marketplace.AuthURL)
	setString(marketplace, "token_url", cfg.Marketplace.TokenURL)
	setString(marketplace, "api_url", cfg.Marketplace.APIURL)
	setString(marketplace, "site_id", cfg.Marketplace.SiteID)
	if includeZero || len(cfg.Marketplace.Scopes) > 0 {
		marketplace["scopes"] = append([]string(nil), cfg.Marketplace.Scopes...)
	}
	if len(marketplace) > 0 {
		layer["marketplace"] = marketplace
	}

	login := map[string]any{}
	setString(login, "callback_addr", cfg.Login.CallbackAddr)
	setString(login, "callback_path", cfg.Login.CallbackPath)
	if includeZero || cfg.Login.Timeout > 0 {
		login["timeout"] = cfg.Login.Timeout
	}
	if len(login) > 0 {
		layer["login"] = login
	}

	if includeZero || cfg.Owner.CacheTTL > 0 {
		layer["owner"] = map[string]any{"cache_ttl": cfg.Owner.CacheTTL}
	}
	if includeZero || cfg.Loop.MaxPromptFailures > 0 {
		layer["loop"] = map[string]any{"max_prompt_failures": cfg.Loop.MaxPromptFailures}
	}
	return layer
}
