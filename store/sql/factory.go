package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-flaghooks/core"
	"github.com/goliatone/go-flaghooks/migrations"
)

// Config selects the endpoint registry database. The driver must already be
// registered with database/sql by the caller.
type Config struct {
	Driver      string        `koanf:"driver" json:"driver" yaml:"driver" mapstructure:"driver"`
	DSN         string        `koanf:"dsn" json:"dsn" yaml:"dsn" mapstructure:"dsn"`
	Debug       bool          `koanf:"debug" json:"debug" yaml:"debug" mapstructure:"debug"`
	PingTimeout time.Duration `koanf:"ping_timeout" json:"ping_timeout" yaml:"ping_timeout" mapstructure:"ping_timeout"`
	Migrate     bool          `koanf:"migrate" json:"migrate" yaml:"migrate" mapstructure:"migrate"`
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Driver) != "" && strings.TrimSpace(c.DSN) != ""
}

func (c Config) GetDebug() bool {
	return c.Debug
}

func (c Config) GetDriver() string {
	return c.driverName()
}

func (c Config) GetServer() string {
	return c.DSN
}

func (c Config) GetPingTimeout() time.Duration {
	if c.PingTimeout <= 0 {
		return 5 * time.Second
	}
	return c.PingTimeout
}

func (c Config) GetOtelIdentifier() string {
	return "go-flaghooks"
}

func (c Config) driverName() string {
	switch strings.TrimSpace(strings.ToLower(c.Driver)) {
	case "sqlite", "sqlite3":
		return "sqlite3"
	case "postgres", "postgresql", "pq":
		return "postgres"
	default:
		return strings.TrimSpace(c.Driver)
	}
}

// Open connects a go-persistence-bun client, registers the endpoint
// migrations for the driver's dialect and applies them when cfg.Migrate is set.
func Open(ctx context.Context, cfg Config) (*persistence.Client, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("sqlstore: driver and dsn are required")
	}
	dialect, err := migrations.DialectForDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}
	sqlDB, err := sql.Open(cfg.driverName(), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", cfg.driverName(), err)
	}

	var client *persistence.Client
	switch dialect {
	case migrations.DialectSQLite:
		sqlDB.SetMaxOpenConns(1)
		client, err = persistence.New(cfg, sqlDB, sqlitedialect.New())
	default:
		client, err = persistence.New(cfg, sqlDB, pgdialect.New())
	}
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlstore: new persistence client: %w", err)
	}

	if _, err := migrations.Register(ctx, func(_ context.Context, _ string, _ string, fsys fs.FS) error {
		client.RegisterSQLMigrations(fsys)
		return nil
	}, migrations.WithDialects(dialect)); err != nil {
		_ = client.Close()
		return nil, err
	}
	if cfg.Migrate {
		if err := client.Migrate(ctx); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("sqlstore: migrate: %w", err)
		}
	}
	return client, nil
}

// NewEndpointStoreFromPersistence accepts a *bun.DB or anything exposing
// DB() *bun.DB, such as a go-persistence-bun client.
func NewEndpointStoreFromPersistence(client any) (*EndpointStore, error) {
	db, err := resolveBunDB(client)
	if err != nil {
		return nil, err
	}
	return NewEndpointStore(db)
}

// LoadListenerOptions reads every stored endpoint and returns the options
// that seed a listener with them.
func LoadListenerOptions(ctx context.Context, registry EndpointRegistry) ([]core.Option, error) {
	if registry == nil {
		return nil, fmt.Errorf("sqlstore: endpoint registry is required")
	}
	set, err := registry.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return set.ListenerOptions(), nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
