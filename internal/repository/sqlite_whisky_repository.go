package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"whisky-collection/internal/model"

	"github.com/rs/zerolog"
)

const (
	sqliteCreateTable = `
		CREATE TABLE IF NOT EXISTS Whisky (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name VARCHAR(100),
			origin VARCHAR(100)
		)
	`
	sqliteSelectAll  = `SELECT id, COALESCE(name, ''), COALESCE(origin, '') FROM Whisky ORDER BY id`
	sqliteSelectByID = `SELECT id, COALESCE(name, ''), COALESCE(origin, '') FROM Whisky WHERE id = ?`
	sqliteInsert     = `INSERT INTO Whisky (name, origin) VALUES (?, ?)`
	sqliteUpdate     = `UPDATE Whisky SET name = ?, origin = ? WHERE id = ?`
	sqliteDelete     = `DELETE FROM Whisky WHERE id = ?`
	sqliteCount      = `SELECT COUNT(*) FROM Whisky`

	sqliteBeginImmediate = `BEGIN IMMEDIATE`
	sqliteCommit         = `COMMIT`
	sqliteRollback       = `ROLLBACK`
)

// sqliteWhiskyRepository implements WhiskyRepository on the embedded SQLite database.
type sqliteWhiskyRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLiteWhiskyRepository creates a new SQLite-backed whisky repository.
func NewSQLiteWhiskyRepository(db *sql.DB, logger zerolog.Logger) WhiskyRepository {
	return &sqliteWhiskyRepository{
		db:     db,
		logger: logger.With().Str("repository", "whisky").Str("driver", "sqlite").Logger(),
	}
}

// acquire takes one connection out of the pool. Callers must Close it.
func (r *sqliteWhiskyRepository) acquire(ctx context.Context) (*sql.Conn, error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to acquire connection")
		return nil, storeError("failed to acquire connection", err)
	}
	return conn, nil
}

// GetAll retrieves every whisky in storage order.
func (r *sqliteWhiskyRepository) GetAll(ctx context.Context) ([]model.Whisky, error) {
	conn, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, sqliteSelectAll)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query whiskies")
		return nil, storeError("failed to query whiskies", err)
	}
	defer rows.Close()

	whiskies := make([]model.Whisky, 0)
	for rows.Next() {
		var w model.Whisky
		if err := rows.Scan(&w.ID, &w.Name, &w.Origin); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan whisky row")
			return nil, storeError("failed to scan whisky", err)
		}
		whiskies = append(whiskies, w)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating whisky rows")
		return nil, storeError("error iterating whiskies", err)
	}

	return whiskies, nil
}

// GetByID retrieves a single whisky by its ID.
func (r *sqliteWhiskyRepository) GetByID(ctx context.Context, id int64) (*model.Whisky, error) {
	conn, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var w model.Whisky
	err = conn.QueryRowContext(ctx, sqliteSelectByID, id).Scan(&w.ID, &w.Name, &w.Origin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug().Int64("whisky_id", id).Msg("whisky not found")
			return nil, model.ErrWhiskyNotFound
		}
		r.logger.Error().Err(err).Int64("whisky_id", id).Msg("failed to query whisky")
		return nil, storeError("failed to query whisky", err)
	}

	return &w, nil
}

// Create inserts a whisky and returns it with the generated ID.
func (r *sqliteWhiskyRepository) Create(ctx context.Context, name, origin string) (*model.Whisky, error) {
	conn, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return r.insert(ctx, conn, name, origin)
}

// execer is satisfied by both *sql.Conn and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *sqliteWhiskyRepository) insert(ctx context.Context, ex execer, name, origin string) (*model.Whisky, error) {
	result, err := ex.ExecContext(ctx, sqliteInsert, name, origin)
	if err != nil {
		r.logger.Error().Err(err).Str("name", name).Msg("failed to insert whisky")
		return nil, storeError("failed to insert whisky", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error().Err(err).Str("name", name).Msg("failed to read generated whisky ID")
		return nil, storeError("failed to read generated whisky ID", err)
	}

	w := model.NewWhisky(name, origin)
	w.ID = id
	return w, nil
}

// Update overwrites name and origin of an existing whisky.
func (r *sqliteWhiskyRepository) Update(ctx context.Context, id int64, name, origin string) (*model.Whisky, error) {
	conn, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	result, err := conn.ExecContext(ctx, sqliteUpdate, name, origin, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("whisky_id", id).Msg("failed to update whisky")
		return nil, storeError("failed to update whisky", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error().Err(err).Int64("whisky_id", id).Msg("failed to read affected rows")
		return nil, storeError("failed to read affected rows", err)
	}

	if affected == 0 {
		r.logger.Debug().Int64("whisky_id", id).Msg("whisky to update not found")
		return nil, model.ErrWhiskyNotFound
	}

	return &model.Whisky{ID: id, Name: name, Origin: origin}, nil
}

// Delete removes a whisky by ID.
func (r *sqliteWhiskyRepository) Delete(ctx context.Context, id int64) error {
	conn, err := r.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, sqliteDelete, id); err != nil {
		r.logger.Error().Err(err).Int64("whisky_id", id).Msg("failed to delete whisky")
		return storeError("failed to delete whisky", err)
	}

	return nil
}

// EnsureSchema creates the Whisky table and seeds it when empty.
func (r *sqliteWhiskyRepository) EnsureSchema(ctx context.Context) (int, error) {
	conn, err := r.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	// The write lock is taken at BEGIN; concurrent startups wait on busy_timeout.
	if _, err := conn.ExecContext(ctx, sqliteBeginImmediate); err != nil {
		r.logger.Error().Err(err).Msg("failed to begin schema transaction")
		return 0, storeError("failed to begin schema transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			if _, err := conn.ExecContext(context.WithoutCancel(ctx), sqliteRollback); err != nil {
				r.logger.Warn().Err(err).Msg("failed to roll back schema transaction")
			}
		}
	}()

	if _, err := conn.ExecContext(ctx, sqliteCreateTable); err != nil {
		r.logger.Error().Err(err).Msg("failed to create whisky table")
		return 0, storeError("failed to create whisky table", err)
	}

	var count int
	if err := conn.QueryRowContext(ctx, sqliteCount).Scan(&count); err != nil {
		r.logger.Error().Err(err).Msg("failed to count whiskies")
		return 0, storeError("failed to count whiskies", err)
	}

	seeded := 0
	if count == 0 {
		for _, seed := range model.SeedWhiskies {
			if _, err := r.insert(ctx, conn, seed.Name, seed.Origin); err != nil {
				return 0, fmt.Errorf("failed to seed whisky %q: %w", seed.Name, err)
			}
			seeded++
		}
	}

	if _, err := conn.ExecContext(ctx, sqliteCommit); err != nil {
		r.logger.Error().Err(err).Msg("failed to commit schema transaction")
		return 0, storeError("failed to commit schema transaction", err)
	}
	committed = true

	r.logger.Info().
		Int("existing", count).
		Int("seeded", seeded).
		Msg("whisky schema ready")

	return seeded, nil
}

// Count returns the number of stored whiskies.
func (r *sqliteWhiskyRepository) Count(ctx context.Context) (int, error) {
	conn, err := r.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	var count int
	if err := conn.QueryRowContext(ctx, sqliteCount).Scan(&count); err != nil {
		r.logger.Error().Err(err).Msg("failed to count whiskies")
		return 0, storeError("failed to count whiskies", err)
	}

	return count, nil
}
