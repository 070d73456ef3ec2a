package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type VehicleEventRepo interface {
	Create(ctx context.Context, tx *gorm.DB, events []*types.VehicleEvent) ([]*types.VehicleEvent, error)
	GetByVehicleID(ctx context.Context, tx *gorm.DB, vehicleID uuid.UUID, limit int) ([]*types.VehicleEvent, error)
}

type vehicleEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVehicleEventRepo(db *gorm.DB, baseLog *logger.Logger) VehicleEventRepo {
	repoLog := baseLog.With("repo", "VehicleEventRepo")
	return &vehicleEventRepo{db: db, log: repoLog}
}

func (r *vehicleEventRepo) Create(ctx context.Context, tx *gorm.DB, events []*types.VehicleEvent) ([]*types.VehicleEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(events) == 0 {
		return []*types.VehicleEvent{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *vehicleEventRepo) GetByVehicleID(ctx context.Context, tx *gorm.DB, vehicleID uuid.UUID, limit int) ([]*types.VehicleEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.VehicleEvent
	if vehicleID == uuid.Nil {
		return results, nil
	}

	q := transaction.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
