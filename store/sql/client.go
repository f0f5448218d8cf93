package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-marketplace-accounts/core"
	"github.com/goliatone/go-marketplace-accounts/migrations"
	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

var ErrNotConnected = errors.New("sqlstore: backing store is not connected")

type persistenceConfig struct {
	driver      string
	server      string
	debug       bool
	pingTimeout time.Duration
	identifier  string
}

func (c persistenceConfig) GetDebug() bool                { return c.debug }
func (c persistenceConfig) GetDriver() string             { return c.driver }
func (c persistenceConfig) GetServer() string             { return c.server }
func (c persistenceConfig) GetPingTimeout() time.Duration { return c.pingTimeout }
func (c persistenceConfig) GetOtelIdentifier() string     { return c.identifier }

type ClientOption func(*Client)

func WithLogger(logger glog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = glog.Ensure(logger)
	}
}

// WithServiceName sets the identifier reported to the persistence layer.
func WithServiceName(name string) ClientOption {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			c.identifier = trimmed
		}
	}
}

// Client owns the database connection behind the account registry. The
// registry methods fail with ErrNotConnected until Connect succeeds.
type Client struct {
	cfg        core.StoreConfig
	identifier string
	logger     glog.Logger

	mu          sync.RWMutex
	persistence *persistence.Client
	factory     *RepositoryFactory
}

func NewClient(cfg core.StoreConfig, opts ...ClientOption) *Client {
	client := &Client{
		cfg:        cfg,
		identifier: "marketplace-accounts",
		logger:     glog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// Connect opens the database, applies the account migrations and builds the
// repositories. Calling it on a connected client is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("sqlstore: client is nil")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.persistence != nil {
		return nil
	}

	driver := strings.TrimSpace(c.cfg.Driver)
	if driver != core.StoreDriverSQLite && driver != core.StoreDriverPostgres {
		return fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
	sqlDB, err := sql.Open(driver, c.cfg.DSN)
	if err != nil {
		return fmt.Errorf("sqlstore: open %s: %w", driver, err)
	}
	if driver == core.StoreDriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	pingTimeout := c.cfg.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	client, err := newPersistenceClient(persistenceConfig{
		driver:      driver,
		server:      c.cfg.DSN,
		debug:       c.cfg.Debug,
		pingTimeout: pingTimeout,
		identifier:  c.identifier,
	}, sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("sqlstore: new persistence client: %w", err)
	}

	schema, err := migrations.ForDriver(driver)
	if err != nil {
		_ = client.Close()
		return err
	}
	client.RegisterSQLMigrations(schema)
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return fmt.Errorf("sqlstore: migrate: %w", err)
	}

	factory, err := NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		_ = client.Close()
		return err
	}

	c.persistence = client
	c.factory = factory
	c.logger.Info("backing store connected", "driver", driver)
	return nil
}

func (c *Client) Disconnect(context.Context) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.persistence == nil {
		return nil
	}
	err := c.persistence.Close()
	c.persistence = nil
	c.factory = nil
	if err != nil {
		return fmt.Errorf("sqlstore: close: %w", err)
	}
	c.logger.Info("backing store disconnected")
	return nil
}

func (c *Client) IsConnected() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.persistence != nil
}

func (c *Client) Register(ctx context.Context, in core.RegisterAccountInput) (core.AccountRecord, error) {
	store, err := c.accounts()
	if err != nil {
		return core.AccountRecord{}, err
	}
	return store.Register(ctx, in)
}

func (c *Client) FindAnyAuthorized(ctx context.Context) (*core.AccountRecord, error) {
	store, err := c.accounts()
	if err != nil {
		return nil, err
	}
	return store.FindAnyAuthorized(ctx)
}

func (c *Client) FindByNickname(ctx context.Context, nickname string) (*core.AccountRecord, error) {
	store, err := c.accounts()
	if err != nil {
		return nil, err
	}
	return store.FindByNickname(ctx, nickname)
}

func (c *Client) FindByUserID(ctx context.Context, userID string) (*core.AccountRecord, error) {
	store, err := c.accounts()
	if err != nil {
		return nil, err
	}
	return store.FindByUserID(ctx, userID)
}

func (c *Client) List(ctx context.Context) ([]core.AccountRecord, error) {
	store, err := c.accounts()
	if err != nil {
		return nil, err
	}
	return store.List(ctx)
}

func (c *Client) accounts() (*AccountStore, error) {
	if c == nil {
		return nil, ErrNotConnected
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.factory == nil || c.factory.AccountStore() == nil {
		return nil, ErrNotConnected
	}
	return c.factory.AccountStore(), nil
}

func newPersistenceClient(cfg persistenceConfig, sqlDB *sql.DB) (*persistence.Client, error) {
	if cfg.driver == core.StoreDriverPostgres {
		return persistence.New(cfg, sqlDB, pgdialect.New())
	}
	return persistence.New(cfg, sqlDB, sqlitedialect.New())
}
