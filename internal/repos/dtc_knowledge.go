package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type DtcKnowledgeRepo interface {
	GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.DtcKnowledge, error)
	UpsertByCode(ctx context.Context, tx *gorm.DB, row *types.DtcKnowledge) error
	ListCodes(ctx context.Context, tx *gorm.DB) ([]string, error)
}

type dtcKnowledgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDtcKnowledgeRepo(db *gorm.DB, baseLog *logger.Logger) DtcKnowledgeRepo {
	repoLog := baseLog.With("repo", "DtcKnowledgeRepo")
	return &dtcKnowledgeRepo{db: db, log: repoLog}
}

func (r *dtcKnowledgeRepo) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.DtcKnowledge, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.DtcKnowledge
	err := transaction.WithContext(ctx).
		Where("code = ?", code).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *dtcKnowledgeRepo) UpsertByCode(ctx context.Context, tx *gorm.DB, row *types.DtcKnowledge) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"category",
				"default_severity",
				"default_driveability",
				"safety_critical",
				"diy_allowed",
				"summary_template",
				"source",
				"source_version",
				"effective_from",
				"effective_to",
				"updated_at",
			}),
		}).
		Create(row).Error
}

func (r *dtcKnowledgeRepo) ListCodes(ctx context.Context, tx *gorm.DB) ([]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var codes []string
	if err := transaction.WithContext(ctx).
		Model(&types.DtcKnowledge{}).
		Order("code ASC").
		Pluck("code", &codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}
