package app

import (
	"context"

	"whisky-collection/internal/config"
	"whisky-collection/internal/database"
	"whisky-collection/internal/repository"

	"github.com/rs/zerolog"
)

// Store is an open whisky repository together with the handle it owns.
type Store struct {
	Repository repository.WhiskyRepository
	close      func()
}

// Close releases the underlying database handle.
func (s *Store) Close() {
	if s != nil && s.close != nil {
		s.close()
		s.close = nil
	}
}

// OpenStore connects to the configured driver and returns a ready repository.
// When recorder is non-nil every repository call is reported to it.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, recorder repository.OperationRecorder, logger zerolog.Logger) (*Store, error) {
	handle, err := database.Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var repo repository.WhiskyRepository
	if handle.Pool != nil {
		repo = repository.NewPostgresWhiskyRepository(handle.Pool, logger)
	} else {
		repo = repository.NewSQLiteWhiskyRepository(handle.SQL, logger)
	}

	return &Store{
		Repository: repository.NewInstrumentedWhiskyRepository(repo, recorder),
		close:      handle.Close,
	}, nil
}
