package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type VehicleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, vehicle *types.Vehicle) (*types.Vehicle, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Vehicle, error)
	GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Vehicle, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Vehicle, error)
}

type vehicleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVehicleRepo(db *gorm.DB, baseLog *logger.Logger) VehicleRepo {
	repoLog := baseLog.With("repo", "VehicleRepo")
	return &vehicleRepo{db: db, log: repoLog}
}

func (r *vehicleRepo) Create(ctx context.Context, tx *gorm.DB, vehicle *types.Vehicle) (*types.Vehicle, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(vehicle).Error; err != nil {
		return nil, err
	}
	return vehicle, nil
}

func (r *vehicleRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Vehicle, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Vehicle
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

func (r *vehicleRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Vehicle, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Vehicle
	err := transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *vehicleRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Vehicle, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Vehicle
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
