package pg

import (
	"context"
	"fmt"
	"time"

	infraconfig "fxconvert-service/internal/infrastructure/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

const appName = "fxconvert-service"

// PoolOptions sizes the account store pool. Zero values fall back to the
// defaults in infrastructure/config.
type PoolOptions struct {
	MaxConns int32
	MinConns int32
}

type DB struct{ Pool *pgxpool.Pool }

func Connect(ctx context.Context, url string, opts PoolOptions) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	if opts.MaxConns <= 0 {
		opts.MaxConns = infraconfig.DefaultPGMaxConns
	}
	if opts.MinConns <= 0 {
		opts.MinConns = infraconfig.DefaultPGMinConns
	}
	// A submission holds its connection until commit.
	cfg.MaxConns, cfg.MinConns = opts.MaxConns, min(opts.MinConns, opts.MaxConns)
	cfg.MaxConnIdleTime = 2 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = appName
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &DB{Pool: pool}, nil
}

func (d *DB) Close()                         { d.Pool.Close() }
func (d *DB) Ping(ctx context.Context) error { return d.Pool.Ping(ctx) }
