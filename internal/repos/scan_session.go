package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type ScanSessionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, session *types.ScanSession) (*types.ScanSession, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ScanSession, error)
	// GetByIDForUser resolves a session only when its vehicle belongs to the
	// given user; unknown and non-owned sessions are indistinguishable.
	GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.ScanSession, error)
	Close(ctx context.Context, tx *gorm.DB, id uuid.UUID, closedAt time.Time) error
	GetActiveByVehicleID(ctx context.Context, tx *gorm.DB, vehicleID uuid.UUID) ([]*types.ScanSession, error)
}

type scanSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScanSessionRepo(db *gorm.DB, baseLog *logger.Logger) ScanSessionRepo {
	repoLog := baseLog.With("repo", "ScanSessionRepo")
	return &scanSessionRepo{db: db, log: repoLog}
}

func (r *scanSessionRepo) Create(ctx context.Context, tx *gorm.DB, session *types.ScanSession) (*types.ScanSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (r *scanSessionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ScanSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.ScanSession
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

func (r *scanSessionRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.ScanSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.ScanSession
	err := transaction.WithContext(ctx).
		Joins("JOIN vehicle ON vehicle.id = scan_session.vehicle_id").
		Where("scan_session.id = ? AND vehicle.user_id = ?", id, userID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *scanSessionRepo) Close(ctx context.Context, tx *gorm.DB, id uuid.UUID, closedAt time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.ScanSession{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":    types.ScanSessionStatusClosed,
			"closed_at": closedAt,
		}).Error
}

func (r *scanSessionRepo) GetActiveByVehicleID(ctx context.Context, tx *gorm.DB, vehicleID uuid.UUID) ([]*types.ScanSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ScanSession
	if vehicleID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("vehicle_id = ? AND status = ?", vehicleID, types.ScanSessionStatusActive).
		Order("started_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
