package repository

import (
	"context"
	"fmt"

	"whisky-collection/internal/model"
)

// WhiskyRepository defines the interface for whisky data access operations.
// Every call acquires one connection from the shared handle and releases it
// before returning.
type WhiskyRepository interface {
	// GetAll retrieves every whisky in storage order.
	GetAll(ctx context.Context) ([]model.Whisky, error)

	// GetByID retrieves a single whisky.
	// Returns model.ErrWhiskyNotFound when no row matches.
	GetByID(ctx context.Context, id int64) (*model.Whisky, error)

	// Create inserts a whisky and returns it with its generated ID.
	Create(ctx context.Context, name, origin string) (*model.Whisky, error)

	// Update overwrites name and origin of an existing whisky.
	// Returns model.ErrWhiskyNotFound when no row was affected. The returned
	// record is rebuilt from the arguments, not re-read from storage.
	Update(ctx context.Context, id int64, name, origin string) (*model.Whisky, error)

	// Delete removes a whisky. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id int64) error

	// EnsureSchema creates the table when absent and seeds it when empty.
	// It returns the number of rows seeded.
	EnsureSchema(ctx context.Context) (int, error)

	// Count returns the number of stored whiskies.
	Count(ctx context.Context) (int, error)
}

// storeError marks err as a store failure while keeping the cause.
func storeError(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, model.ErrStoreUnavailable, err)
}
