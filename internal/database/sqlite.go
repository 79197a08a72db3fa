package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"whisky-collection/internal/config"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// MemoryPath selects a private in-memory SQLite database.
const MemoryPath = ":memory:"

// sqlitePragmas are applied to every new connection.
var sqlitePragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"foreign_keys(1)",
}

// OpenSQLite opens the embedded SQLite database and verifies it can be used.
// An in-memory database is limited to a single connection so that every
// caller sees the same data.
func OpenSQLite(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*sql.DB, error) {
	path := cfg.SQLite.Path
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	maxConns := cfg.MaxConnections
	if path == MemoryPath {
		maxConns = 1
	}

	logger.Info().
		Str("driver", config.DriverSQLite).
		Str("path", path).
		Int("max_connections", maxConns).
		Msg("opening embedded database")

	db, err := sql.Open("sqlite", SQLiteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	if path != MemoryPath {
		db.SetConnMaxLifetime(time.Duration(cfg.MaxConnLifetime) * time.Second)
	}

	// Verify connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info().Msg("embedded database opened successfully")

	return db, nil
}

// SQLiteDSN builds the driver DSN for path including connection pragmas.
func SQLiteDSN(path string) string {
	params := url.Values{}
	for _, p := range sqlitePragmas {
		if path == MemoryPath && strings.HasPrefix(p, "journal_mode") {
			continue
		}
		params.Add("_pragma", p)
	}

	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + params.Encode()
}
