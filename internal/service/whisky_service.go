package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"whisky-collection/internal/model"
	"whisky-collection/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// whiskyService implements WhiskyService.
type whiskyService struct {
	repo     repository.WhiskyRepository
	validate *validator.Validate
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewWhiskyService creates a new whisky service. A positive timeout bounds
// each store round trip, connection acquisition included.
func NewWhiskyService(repo repository.WhiskyRepository, timeout time.Duration, logger zerolog.Logger) WhiskyService {
	return &whiskyService{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		timeout:  timeout,
		logger:   logger.With().Str("service", "whisky").Logger(),
	}
}

func (s *whiskyService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// GetAll retrieves every whisky.
func (s *whiskyService) GetAll(ctx context.Context) ([]model.Whisky, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	whiskies, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to get all whiskies")
		return nil, fmt.Errorf("failed to get whiskies: %w", err)
	}

	s.logger.Debug().Int("count", len(whiskies)).Msg("retrieved whiskies")

	return whiskies, nil
}

// GetByID retrieves a single whisky by ID.
func (s *whiskyService) GetByID(ctx context.Context, id int64) (*model.Whisky, error) {
	if id <= model.UnassignedID {
		s.logger.Warn().Int64("whisky_id", id).Msg("invalid whisky ID")
		return nil, model.ErrInvalidID
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	whisky, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.wrap(err, id, "failed to get whisky")
	}

	return whisky, nil
}

// Create validates the request and stores a new whisky.
func (s *whiskyService) Create(ctx context.Context, req *model.WhiskyRequest) (*model.Whisky, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	whisky, err := s.repo.Create(ctx, req.Name, req.Origin)
	if err != nil {
		s.logger.Error().Err(err).Str("name", req.Name).Msg("failed to create whisky")
		return nil, fmt.Errorf("failed to create whisky: %w", err)
	}

	s.logger.Info().
		Int64("whisky_id", whisky.ID).
		Str("name", whisky.Name).
		Msg("whisky created")

	return whisky, nil
}

// Update validates the request and overwrites an existing whisky.
func (s *whiskyService) Update(ctx context.Context, id int64, req *model.WhiskyRequest) (*model.Whisky, error) {
	if id <= model.UnassignedID {
		s.logger.Warn().Int64("whisky_id", id).Msg("invalid whisky ID")
		return nil, model.ErrInvalidID
	}

	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	whisky, err := s.repo.Update(ctx, id, req.Name, req.Origin)
	if err != nil {
		return nil, s.wrap(err, id, "failed to update whisky")
	}

	s.logger.Info().Int64("whisky_id", id).Msg("whisky updated")

	return whisky, nil
}

// Delete removes a whisky. Unknown IDs are not an error.
func (s *whiskyService) Delete(ctx context.Context, id int64) error {
	if id <= model.UnassignedID {
		s.logger.Warn().Int64("whisky_id", id).Msg("invalid whisky ID")
		return model.ErrInvalidID
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error().Err(err).Int64("whisky_id", id).Msg("failed to delete whisky")
		return fmt.Errorf("failed to delete whisky: %w", err)
	}

	s.logger.Info().Int64("whisky_id", id).Msg("whisky deleted")

	return nil
}

// validateRequest performs the presence checks on a create/update payload.
func (s *whiskyService) validateRequest(req *model.WhiskyRequest) error {
	if req == nil {
		s.logger.Warn().Msg("whisky request is nil")
		return model.ErrInvalidJSON
	}

	if err := s.validate.Struct(req); err != nil {
		s.logger.Warn().Err(err).Msg("whisky request failed validation")

		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Tag() == "required" {
					return model.ErrMissingField
				}
			}
			return model.ErrFieldTooLong
		}
		return model.ErrMissingField
	}

	return nil
}

// wrap logs err and adds context; not-found stays at debug level.
func (s *whiskyService) wrap(err error, id int64, msg string) error {
	if errors.Is(err, model.ErrWhiskyNotFound) {
		s.logger.Debug().Int64("whisky_id", id).Msg("whisky not found")
		return err
	}
	s.logger.Error().Err(err).Int64("whisky_id", id).Msg(msg)
	return fmt.Errorf("%s: %w", msg, err)
}
