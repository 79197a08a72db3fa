package repository

import (
	"context"
	"time"

	"whisky-collection/internal/model"
)

// Operation names reported to an OperationRecorder.
const (
	OpGetAll       = "get_all"
	OpGetByID      = "get_by_id"
	OpCreate       = "create"
	OpUpdate       = "update"
	OpDelete       = "delete"
	OpEnsureSchema = "ensure_schema"
	OpCount        = "count"
)

// OperationRecorder receives the outcome of every store operation.
type OperationRecorder interface {
	ObserveStoreOperation(operation string, duration time.Duration, err error)
}

// instrumentedWhiskyRepository reports each call of the wrapped repository.
type instrumentedWhiskyRepository struct {
	next     WhiskyRepository
	recorder OperationRecorder
}

// NewInstrumentedWhiskyRepository wraps next so that every operation is
// reported to recorder. A nil recorder returns next unchanged.
func NewInstrumentedWhiskyRepository(next WhiskyRepository, recorder OperationRecorder) WhiskyRepository {
	if recorder == nil {
		return next
	}
	return &instrumentedWhiskyRepository{
		next:     next,
		recorder: recorder,
	}
}

func (r *instrumentedWhiskyRepository) observe(operation string, start time.Time, err error) {
	r.recorder.ObserveStoreOperation(operation, time.Since(start), err)
}

func (r *instrumentedWhiskyRepository) GetAll(ctx context.Context) ([]model.Whisky, error) {
	start := time.Now()
	whiskies, err := r.next.GetAll(ctx)
	r.observe(OpGetAll, start, err)
	return whiskies, err
}

func (r *instrumentedWhiskyRepository) GetByID(ctx context.Context, id int64) (*model.Whisky, error) {
	start := time.Now()
	whisky, err := r.next.GetByID(ctx, id)
	r.observe(OpGetByID, start, err)
	return whisky, err
}

func (r *instrumentedWhiskyRepository) Create(ctx context.Context, name, origin string) (*model.Whisky, error) {
	start := time.Now()
	whisky, err := r.next.Create(ctx, name, origin)
	r.observe(OpCreate, start, err)
	return whisky, err
}

func (r *instrumentedWhiskyRepository) Update(ctx context.Context, id int64, name, origin string) (*model.Whisky, error) {
	start := time.Now()
	whisky, err := r.next.Update(ctx, id, name, origin)
	r.observe(OpUpdate, start, err)
	return whisky, err
}

func (r *instrumentedWhiskyRepository) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	err := r.next.Delete(ctx, id)
	r.observe(OpDelete, start, err)
	return err
}

func (r *instrumentedWhiskyRepository) EnsureSchema(ctx context.Context) (int, error) {
	start := time.Now()
	seeded, err := r.next.EnsureSchema(ctx)
	r.observe(OpEnsureSchema, start, err)
	return seeded, err
}

func (r *instrumentedWhiskyRepository) Count(ctx context.Context) (int, error) {
	start := time.Now()
	count, err := r.next.Count(ctx)
	r.observe(OpCount, start, err)
	return count, err
}
