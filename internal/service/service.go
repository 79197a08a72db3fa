package service

import (
	"context"

	"whisky-collection/internal/model"
)

// WhiskyService defines operations for managing the whisky collection.
type WhiskyService interface {
	// GetAll retrieves every whisky.
	GetAll(ctx context.Context) ([]model.Whisky, error)

	// GetByID retrieves a single whisky by ID.
	GetByID(ctx context.Context, id int64) (*model.Whisky, error)

	// Create validates the request and stores a new whisky.
	Create(ctx context.Context, req *model.WhiskyRequest) (*model.Whisky, error)

	// Update validates the request and overwrites an existing whisky.
	Update(ctx context.Context, id int64, req *model.WhiskyRequest) (*model.Whisky, error)

	// Delete removes a whisky; unknown IDs are not an error.
	Delete(ctx context.Context, id int64) error
}
