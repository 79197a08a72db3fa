package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"whisky-collection/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// ApplicationName identifies whiskyd connections in pg_stat_activity.
const ApplicationName = "whiskyd"

// Handle is an open connection to the configured store. SQL is set for
// sqlite and Pool for postgres.
type Handle struct {
	Driver string
	SQL    *sql.DB
	Pool   *pgxpool.Pool

	logger zerolog.Logger
}

// Open connects to the driver named in cfg and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*Handle, error) {
	h := &Handle{Driver: cfg.Driver, logger: logger}

	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := OpenSQLite(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		h.SQL = db
	case config.DriverPostgres:
		pool, err := NewPool(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		h.Pool = pool
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	return h, nil
}

// Close releases the underlying connections. Calling it again is a no-op.
func (h *Handle) Close() {
	if h == nil {
		return
	}
	if h.SQL != nil {
		if err := h.SQL.Close(); err != nil {
			h.logger.Error().Err(err).Msg("failed to close sqlite database")
		}
		h.SQL = nil
	}
	if h.Pool != nil {
		h.Pool.Close()
		h.Pool = nil
	}
}

// NewPool creates a PostgreSQL connection pool and pings it.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	pg := cfg.Postgres

	poolConfig, err := pgxpool.ParseConfig(pg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Second
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute
	if _, ok := poolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = ApplicationName
	}

	logger.Info().
		Str("driver", config.DriverPostgres).
		Str("host", pg.Host).
		Int("port", pg.Port).
		Str("database", pg.Database).
		Int("max_connections", cfg.MaxConnections).
		Int("min_connections", cfg.MinConnections).
		Msg("opening whisky store")

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().Str("driver", config.DriverPostgres).Msg("whisky store reachable")

	return pool, nil
}
