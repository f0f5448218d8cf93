package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	StoreDriverSQLite   = "sqlite3"
	StoreDriverPostgres = "postgres"
)

type StoreConfig struct {
	Driver      string        `koanf:"driver" mapstructure:"driver"`
	DSN         string        `koanf:"dsn" mapstructure:"dsn"`
	Debug       bool          `koanf:"debug" mapstructure:"debug"`
	PingTimeout time.Duration `koanf:"ping_timeout" mapstructure:"ping_timeout"`
}

type MarketplaceConfig struct {
	ProviderID   string   `koanf:"provider_id" mapstructure:"provider_id"`
	ClientID     string   `koanf:"client_id" mapstructure:"client_id"`
	ClientSecret string   `koanf:"client_secret" mapstructure:"client_secret"`
	AuthURL      string   `koanf:"auth_url" mapstructure:"auth_url"`
	TokenURL     string   `koanf:"token_url" mapstructure:"token_url"`
	APIURL       string   `koanf:"api_url" mapstructure:"api_url"`
	SiteID       string   `koanf:"site_id" mapstructure:"site_id"`
	Scopes       []string `koanf:"scopes" mapstructure:"scopes"`
}

type LoginConfig struct {
	CallbackAddr string        `koanf:"callback_addr" mapstructure:"callback_addr"`
	CallbackPath string        `koanf:"callback_path" mapstructure:"callback_path"`
	Timeout      time.Duration `koanf:"timeout" mapstructure:"timeout"`
}

type OwnerConfig struct {
	CacheTTL time.Duration `koanf:"cache_ttl" mapstructure:"cache_ttl"`
}

type LoopConfig struct {
	MaxPromptFailures int `koanf:"max_prompt_failures" mapstructure:"max_prompt_failures"`
}

type Config struct {
	ServiceName string            `koanf:"service_name" mapstructure:"service_name"`
	Store       StoreConfig       `koanf:"store" mapstructure:"store"`
	Marketplace MarketplaceConfig `koanf:"marketplace" mapstructure:"marketplace"`
	Login       LoginConfig       `koanf:"login" mapstructure:"login"`
	Owner       OwnerConfig       `koanf:"owner" mapstructure:"owner"`
	Loop        LoopConfig        `koanf:"loop" mapstructure:"loop"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "marketplace-accounts",
		Store: StoreConfig{
			Driver:      StoreDriverSQLite,
			DSN:         "file:marketplace-accounts.db?cache=shared&_foreign_keys=on",
			PingTimeout: 5 * time.Second,
		},
		Marketplace: MarketplaceConfig{
			ProviderID: "mercadolibre",
			AuthURL:    "https://auth.mercadolibre.com.ar/authorization",
			TokenURL:   "https://api.mercadolibre.com/oauth/token",
			APIURL:     "https://api.mercadolibre.com",
			SiteID:     "MLA",
			Scopes:     []string{"offline_access", "read", "write"},
		},
		Login: LoginConfig{
			CallbackAddr: "127.0.0.1:8085",
			CallbackPath: "/callback",
			Timeout:      5 * time.Minute,
		},
		Owner: OwnerConfig{
			CacheTTL: 10 * time.Minute,
		},
		Loop: LoopConfig{
			MaxPromptFailures: 3,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return ConfigurationError("service_name", "service name is required")
	}
	switch strings.TrimSpace(c.Store.Driver) {
	case StoreDriverSQLite, StoreDriverPostgres:
	default:
		return ConfigurationError("store.driver", fmt.Sprintf("driver %q is not supported", c.Store.Driver))
	}
	if strings.TrimSpace(c.Store.DSN) == "" {
		return ConfigurationError("store.dsn", "dsn is required")
	}
	if strings.TrimSpace(c.Marketplace.ClientID) == "" {
		return ConfigurationError("marketplace.client_id", "client id is required (MARKETPLACE_CLIENT_ID)")
	}
	if strings.TrimSpace(c.Marketplace.APIURL) == "" {
		return ConfigurationError("marketplace.api_url", "api url is required")
	}
	if strings.TrimSpace(c.Login.CallbackAddr) == "" {
		return ConfigurationError("login.callback_addr", "callback address is required")
	}
	if c.Loop.MaxPromptFailures < 0 {
		return ConfigurationError("loop.max_prompt_failures", "must not be negative")
	}
	return nil
}

// RedirectURI is the loopback address the marketplace redirects to after the
// user grants access.
func (c LoginConfig) RedirectURI() string {
	path := strings.TrimSpace(c.CallbackPath)
	if path == "" {
		path = "/callback"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "http://" + strings.TrimSpace(c.CallbackAddr) + path
}
