package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type SubscriptionRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Subscription, error)
	Upsert(ctx context.Context, tx *gorm.DB, sub *types.Subscription) error
}

type subscriptionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubscriptionRepo(db *gorm.DB, baseLog *logger.Logger) SubscriptionRepo {
	repoLog := baseLog.With("repo", "SubscriptionRepo")
	return &subscriptionRepo{db: db, log: repoLog}
}

func (r *subscriptionRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Subscription, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Subscription
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *subscriptionRepo) Upsert(ctx context.Context, tx *gorm.DB, sub *types.Subscription) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	existing, err := r.GetByUserID(ctx, tx, sub.UserID)
	if err != nil {
		return err
	}
	if existing == nil {
		return transaction.WithContext(ctx).Create(sub).Error
	}
	return transaction.WithContext(ctx).
		Model(&types.Subscription{}).
		Where("user_id = ?", sub.UserID).
		Updates(map[string]any{
			"tier":               sub.Tier,
			"status":             sub.Status,
			"current_period_end": sub.CurrentPeriodEnd,
		}).Error
}
