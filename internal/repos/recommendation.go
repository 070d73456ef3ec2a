package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type RecommendationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rec *types.Recommendation) (*types.Recommendation, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Recommendation, error)
	GetLatestActiveByEventID(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) (*types.Recommendation, error)
	SetActive(ctx context.Context, tx *gorm.DB, id uuid.UUID, active bool) error
}

type recommendationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationRepo {
	repoLog := baseLog.With("repo", "RecommendationRepo")
	return &recommendationRepo{db: db, log: repoLog}
}

func (r *recommendationRepo) Create(ctx context.Context, tx *gorm.DB, rec *types.Recommendation) (*types.Recommendation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *recommendationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Recommendation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Recommendation
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

func (r *recommendationRepo) GetLatestActiveByEventID(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) (*types.Recommendation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Recommendation
	err := transaction.WithContext(ctx).
		Where("diagnostic_event_id = ? AND is_active = ?", eventID, true).
		Order("created_at DESC").
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *recommendationRepo) SetActive(ctx context.Context, tx *gorm.DB, id uuid.UUID, active bool) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Recommendation{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}
