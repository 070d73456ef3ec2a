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

type BookingRepo interface {
	Create(ctx context.Context, tx *gorm.DB, booking *types.Booking) (*types.Booking, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Booking, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Booking, error)
	GetByPartnerID(ctx context.Context, tx *gorm.DB, partnerID uuid.UUID) ([]*types.Booking, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, resolvedAt *time.Time) error
}

type bookingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBookingRepo(db *gorm.DB, baseLog *logger.Logger) BookingRepo {
	repoLog := baseLog.With("repo", "BookingRepo")
	return &bookingRepo{db: db, log: repoLog}
}

func (r *bookingRepo) Create(ctx context.Context, tx *gorm.DB, booking *types.Booking) (*types.Booking, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(booking).Error; err != nil {
		return nil, err
	}
	return booking, nil
}

func (r *bookingRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Booking, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Booking
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

func (r *bookingRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Booking, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Booking
	if userID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("requested_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *bookingRepo) GetByPartnerID(ctx context.Context, tx *gorm.DB, partnerID uuid.UUID) ([]*types.Booking, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Booking
	if partnerID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("partner_id = ?", partnerID).
		Order("requested_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *bookingRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, resolvedAt *time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	updates := map[string]any{"status": status}
	if resolvedAt != nil {
		updates["resolved_at"] = *resolvedAt
	}
	return transaction.WithContext(ctx).
		Model(&types.Booking{}).
		Where("id = ?", id).
		Updates(updates).Error
}
