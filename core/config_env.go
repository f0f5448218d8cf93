package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type environmentConfig struct {
	ServiceName       string        `env:"MARKETPLACE_ACCOUNTS_SERVICE_NAME"`
	StoreDriver       string        `env:"MARKETPLACE_ACCOUNTS_STORE_DRIVER"`
	StoreDSN          string        `env:"MARKETPLACE_ACCOUNTS_STORE_DSN"`
	StoreDebug        bool          `env:"MARKETPLACE_ACCOUNTS_STORE_DEBUG"`
	StorePingTimeout  time.Duration `env:"MARKETPLACE_ACCOUNTS_STORE_PING_TIMEOUT"`
	ProviderID        string        `env:"MARKETPLACE_PROVIDER_ID"`
	ClientID          string        `env:"MARKETPLACE_CLIENT_ID"`
	ClientSecret      string        `env:"MARKETPLACE_CLIENT_SECRET"`
	AuthURL           string        `env:"MARKETPLACE_AUTH_URL"`
	TokenURL          string        `env:"MARKETPLACE_TOKEN_URL"`
	APIURL            string        `env:"MARKETPLACE_API_URL"`
	SiteID            string        `env:"MARKETPLACE_SITE_ID"`
	Scopes            []string      `env:"MARKETPLACE_SCOPES" envSeparator:","`
	CallbackAddr      string        `env:"MARKETPLACE_LOGIN_CALLBACK_ADDR"`
	CallbackPath      string        `env:"MARKETPLACE_LOGIN_CALLBACK_PATH"`
	LoginTimeout      time.Duration `env:"MARKETPLACE_LOGIN_TIMEOUT"`
	OwnerCacheTTL     time.Duration `env:"MARKETPLACE_OWNER_CACHE_TTL"`
	MaxPromptFailures int           `env:"MARKETPLACE_ACCOUNTS_MAX_PROMPT_FAILURES"`
}

// EnvConfigLoader reads MARKETPLACE_* variables, optionally seeded from a
// dotenv file, into the raw map consumed by CfgxConfigProvider. Unset values
// are omitted so defaults survive the merge.
type EnvConfigLoader struct {
	DotenvFiles []string
	Environ     func() []string
}

func NewEnvConfigLoader(dotenvFiles ...string) *EnvConfigLoader {
	return &EnvConfigLoader{DotenvFiles: dotenvFiles}
}

func (l *EnvConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if l == nil {
		return map[string]any{}, nil
	}
	for _, file := range l.DotenvFiles {
		file = strings.TrimSpace(file)
		if file == "" {
			continue
		}
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("core: load dotenv %s: %w", file, err)
		}
	}

	var raw environmentConfig
	options := env.Options{}
	if l.Environ != nil {
		options.Environment = env.ToMap(l.Environ())
	}
	if err := env.ParseWithOptions(&raw, options); err != nil {
		return nil, fmt.Errorf("core: parse env: %w", err)
	}
	return configToLayerMap(raw.toConfig(), false), nil
}

func (e environmentConfig) toConfig() Config {
	return Config{
		ServiceName: strings.TrimSpace(e.ServiceName),
		Store: StoreConfig{
			Driver:      strings.TrimSpace(e.StoreDriver),
			DSN:         strings.TrimSpace(e.StoreDSN),
			Debug:       e.StoreDebug,
			PingTimeout: e.StorePingTimeout,
		},
		Marketplace: MarketplaceConfig{
			ProviderID:   strings.TrimSpace(e.ProviderID),
			ClientID:     strings.TrimSpace(e.ClientID),
			ClientSecret: strings.TrimSpace(e.ClientSecret),
			AuthURL:      strings.TrimSpace(e.AuthURL),
			TokenURL:     strings.TrimSpace(e.TokenURL),
			APIURL:       strings.TrimSpace(e.APIURL),
			SiteID:       strings.TrimSpace(e.SiteID),
			Scopes:       e.Scopes,
		},
		Login: LoginConfig{
			CallbackAddr: strings.TrimSpace(e.CallbackAddr),
			CallbackPath: strings.TrimSpace(e.CallbackPath),
			Timeout:      e.LoginTimeout,
		},
		Owner: OwnerConfig{CacheTTL: e.OwnerCacheTTL},
		Loop:  LoopConfig{MaxPromptFailures: e.MaxPromptFailures},
	}
}
