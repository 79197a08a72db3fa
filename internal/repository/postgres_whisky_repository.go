package repository

import (
	"context"
	"errors"
	"fmt"

	"whisky-collection/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	// Held until commit: concurrent CREATE TABLE IF NOT EXISTS can collide on
	// the catalog, and two empty-table checks must not both seed.
	postgresSchemaLock  = `SELECT pg_advisory_xact_lock(7438291)`
	postgresCreateTable = `
		CREATE TABLE IF NOT EXISTS Whisky (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100),
			origin VARCHAR(100)
		)
	`
	postgresSelectAll  = `SELECT id, COALESCE(name, ''), COALESCE(origin, '') FROM Whisky ORDER BY id`
	postgresSelectByID = `SELECT id, COALESCE(name, ''), COALESCE(origin, '') FROM Whisky WHERE id = $1`
	postgresInsert     = `INSERT INTO Whisky (name, origin) VALUES ($1, $2) RETURNING id`
	postgresUpdate     = `UPDATE Whisky SET name = $1, origin = $2 WHERE id = $3`
	postgresDelete     = `DELETE FROM Whisky WHERE id = $1`
	postgresCount      = `SELECT COUNT(*) FROM Whisky`
)

// postgresWhiskyRepository implements WhiskyRepository using PostgreSQL.
type postgresWhiskyRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresWhiskyRepository creates a new PostgreSQL-backed whisky repository.
func NewPostgresWhiskyRepository(pool *pgxpool.Pool, logger zerolog.Logger) WhiskyRepository {
	return &postgresWhiskyRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "whisky").Str("driver", "postgres").Logger(),
	}
}

// acquire takes one connection out of the pool. Callers must Release it.
func (r *postgresWhiskyRepository) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to acquire connection")
		return nil, storeError("failed to acquire connection", err)
	}
	return conn, nil
}

// GetAll retrieves every whisky in storage order.
func (r *postgresWhiskyRepository) GetAll(ctx context.Context) ([]model.Whisky, error) {
	conn, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, postgresSelectAll)
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
func (r *postgresWhiskyRepository) GetByID(ctx context.Context, id int64) (*model.Whisky, error) {
	conn, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	var w model.Whisky
	err = conn.QueryRow(ctx, postgresSelectByID, id).Scan(&w.ID, &w.Name, &w.Origin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("whisky_id", id).Msg("whisky not found")
			return nil, model.ErrWhiskyNotFound
		}
		r.logger.Error().Err(err).Int64("whisky_id", id).Msg("failed to query whisky")
		return nil, storeError("failed to query whisky", err)
	}

	return &w, nil
}

// Create inserts a whisky and returns it with the generated ID.
func (r *postgresWhiskyRepository) Create(ctx context.Context, name, origin string) (*model.Whisky, error) {
	conn, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return r.insert(ctx, conn, name, origin)
}

// rowQuerier is satisfied by both *pgxpool.Conn and pgx.Tx.
// pgStringDataRightTruncation is raised when a value exceeds VARCHAR(100).
const pgStringDataRightTruncation = "22001"

// writeError maps a rejected value to ErrFieldTooLong and anything else to a
// store failure.
func writeError(msg string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgStringDataRightTruncation {
		return fmt.Errorf("%s: %w: %w", msg, model.ErrFieldTooLong, err)
	}
	return storeError(msg, err)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *postgresWhiskyRepository) insert(ctx context.Context, q rowQuerier, name, origin string) (*model.Whisky, error) {
	w := model.NewWhisky(name, origin)
	if err := q.QueryRow(ctx, postgresInsert, name, origin).Scan(&w.ID); err != nil {
		r.logger.Error().Err(err).Str("name", name).Msg("failed to insert whisky")
		return nil, writeError("failed to insert whisky", err)
	}
	return w, nil
}

// Update overwrites name and origin of an existing whisky.
func (r *postgresWhiskyRepository) Update(ctx context.Context, id int64, name, origin string) (*model.Whisky, error) {
	conn, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, postgresUpdate, name, origin, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("whisky_id", id).Msg("failed to update whisky")
		return nil, writeError("failed to update whisky", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Debug().Int64("whisky_id", id).Msg("whisky to update not found")
		return nil, model.ErrWhiskyNotFound
	}

	return &model.Whisky{ID: id, Name: name, Origin: origin}, nil
}

// Delete removes a whisky by ID.
func (r *postgresWhiskyRepository) Delete(ctx context.Context, id int64) error {
	conn, err := r.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, postgresDelete, id); err != nil {
		r.logger.Error().Err(err).Int64("whisky_id", id).Msg("failed to delete whisky")
		return storeError("failed to delete whisky", err)
	}

	return nil
}

// EnsureSchema creates the Whisky table and seeds it when empty.
func (r *postgresWhiskyRepository) EnsureSchema(ctx context.Context) (int, error) {
	conn, err := r.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin schema transaction")
		return 0, storeError("failed to begin schema transaction", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, postgresSchemaLock); err != nil {
		r.logger.Error().Err(err).Msg("failed to take schema lock")
		return 0, storeError("failed to take schema lock", err)
	}

	if _, err := tx.Exec(ctx, postgresCreateTable); err != nil {
		r.logger.Error().Err(err).Msg("failed to create whisky table")
		return 0, storeError("failed to create whisky table", err)
	}

	var count int
	if err := tx.QueryRow(ctx, postgresCount).Scan(&count); err != nil {
		r.logger.Error().Err(err).Msg("failed to count whiskies")
		return 0, storeError("failed to count whiskies", err)
	}

	seeded := 0
	if count == 0 {
		for _, seed := range model.SeedWhiskies {
			if _, err := r.insert(ctx, tx, seed.Name, seed.Origin); err != nil {
				return 0, fmt.Errorf("failed to seed whisky %q: %w", seed.Name, err)
			}
			seeded++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Msg("failed to commit schema transaction")
		return 0, storeError("failed to commit schema transaction", err)
	}

	r.logger.Info().
		Int("existing", count).
		Int("seeded", seeded).
		Msg("whisky schema ready")

	return seeded, nil
}

// Count returns the number of stored whiskies.
func (r *postgresWhiskyRepository) Count(ctx context.Context) (int, error) {
	conn, err := r.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	var count int
	if err := conn.QueryRow(ctx, postgresCount).Scan(&count); err != nil {
		r.logger.Error().Err(err).Msg("failed to count whiskies")
		return 0, storeError("failed to count whiskies", err)
	}

	return count, nil
}
