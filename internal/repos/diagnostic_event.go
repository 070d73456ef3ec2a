package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type DiagnosticEventRepo interface {
	Create(ctx context.Context, tx *gorm.DB, events []*types.DiagnosticEvent) ([]*types.DiagnosticEvent, error)
	// CreateOrGetByIdempotencyKey inserts the event; when the idempotency key
	// already exists it returns the stored row instead. The bool reports
	// whether a new row was inserted.
	CreateOrGetByIdempotencyKey(ctx context.Context, tx *gorm.DB, event *types.DiagnosticEvent) (*types.DiagnosticEvent, bool, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.DiagnosticEvent, error)
	GetByIdempotencyKey(ctx context.Context, tx *gorm.DB, key string) (*types.DiagnosticEvent, error)
	GetByVehicleID(ctx context.Context, tx *gorm.DB, vehicleID uuid.UUID, limit int) ([]*types.DiagnosticEvent, error)
	GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.DiagnosticEvent, error)
}

type diagnosticEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDiagnosticEventRepo(db *gorm.DB, baseLog *logger.Logger) DiagnosticEventRepo {
	repoLog := baseLog.With("repo", "DiagnosticEventRepo")
	return &diagnosticEventRepo{db: db, log: repoLog}
}

func (r *diagnosticEventRepo) Create(ctx context.Context, tx *gorm.DB, events []*types.DiagnosticEvent) ([]*types.DiagnosticEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(events) == 0 {
		return []*types.DiagnosticEvent{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *diagnosticEventRepo) CreateOrGetByIdempotencyKey(ctx context.Context, tx *gorm.DB, event *types.DiagnosticEvent) (*types.DiagnosticEvent, bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	err := transaction.WithContext(ctx).Create(event).Error
	if err == nil {
		return event, true, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, false, err
	}
	if event.IdempotencyKey == nil {
		return nil, false, err
	}

	// Lost the insert race (or this is a retried upload); the stored row is
	// the answer.
	existing, getErr := r.GetByIdempotencyKey(ctx, tx, *event.IdempotencyKey)
	if getErr != nil {
		return nil, false, getErr
	}
	if existing == nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *diagnosticEventRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.DiagnosticEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.DiagnosticEvent
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *diagnosticEventRepo) GetByIdempotencyKey(ctx context.Context, tx *gorm.DB, key string) (*types.DiagnosticEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.DiagnosticEvent
	err := transaction.WithContext(ctx).
		Where("idempotency_key = ?", key).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *diagnosticEventRepo) GetByVehicleID(ctx context.Context, tx *gorm.DB, vehicleID uuid.UUID, limit int) ([]*types.DiagnosticEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.DiagnosticEvent
	if vehicleID == uuid.Nil {
		return results, nil
	}

	q := transaction.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Order("occurred_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *diagnosticEventRepo) GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.DiagnosticEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.DiagnosticEvent
	if sessionID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("scan_session_id = ?", sessionID).
		Order("ingested_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
