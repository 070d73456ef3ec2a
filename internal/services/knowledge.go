package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/cache"
	"github.com/drivewise/drivewise-backend/internal/modules/diagnosis"
	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/platform/apierr"
	"github.com/drivewise/drivewise-backend/internal/repos"
	"github.com/drivewise/drivewise-backend/internal/types"
)

const knowledgeCacheTTL = 10 * time.Minute

type KnowledgeService interface {
	// Lookup returns the active knowledge entry for a normalized code, or
	// nil when the engine should fall back to the unmatched path.
	Lookup(ctx context.Context, tx *gorm.DB, code string) (*types.DtcKnowledge, error)
	Upsert(ctx context.Context, tx *gorm.DB, row *types.DtcKnowledge) (*types.DtcKnowledge, error)
	ListCodes(ctx context.Context, tx *gorm.DB) ([]string, error)
}

type knowledgeService struct {
	log   *logger.Logger
	repo  repos.DtcKnowledgeRepo
	cache *cache.TTL[*types.DtcKnowledge]
	now   func() time.Time
}

func NewKnowledgeService(baseLog *logger.Logger, repo repos.DtcKnowledgeRepo) KnowledgeService {
	now := time.Now
	return &knowledgeService{
		log:   baseLog.With("service", "KnowledgeService"),
		repo:  repo,
		cache: cache.NewTTL[*types.DtcKnowledge](knowledgeCacheTTL, now),
		now:   now,
	}
}

// effective reports whether the entry's validity window covers ts. An entry
// outside its window is treated exactly like a missing entry.
func effective(k *types.DtcKnowledge, ts time.Time) bool {
	if k == nil {
		return false
	}
	if k.EffectiveFrom != nil && ts.Before(*k.EffectiveFrom) {
		return false
	}
	if k.EffectiveTo != nil && !ts.Before(*k.EffectiveTo) {
		return false
	}
	return true
}

func (s *knowledgeService) Lookup(ctx context.Context, tx *gorm.DB, code string) (*types.DtcKnowledge, error) {
	normalized := diagnosis.NormalizeDTC(code)
	if !diagnosis.ValidDTCCode(normalized) {
		return nil, apierr.New(http.StatusBadRequest, "invalid_dtc_code", fmt.Errorf("malformed dtc code %q", code))
	}

	if row, ok := s.cache.Get(normalized); ok {
		if !effective(row, s.now().UTC()) {
			return nil, nil
		}
		return row, nil
	}

	row, err := s.repo.GetByCode(ctx, tx, normalized)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	s.cache.Set(normalized, row)
	if !effective(row, s.now().UTC()) {
		return nil, nil
	}
	return row, nil
}

func (s *knowledgeService) Upsert(ctx context.Context, tx *gorm.DB, row *types.DtcKnowledge) (*types.DtcKnowledge, error) {
	row.Code = diagnosis.NormalizeDTC(row.Code)
	if !diagnosis.ValidDTCCode(row.Code) {
		return nil, apierr.New(http.StatusBadRequest, "invalid_dtc_code", fmt.Errorf("malformed dtc code %q", row.Code))
	}
	switch row.DefaultSeverity {
	case diagnosis.ClassSafe, diagnosis.ClassServiceSoon, diagnosis.ClassServiceNow:
	default:
		return nil, apierr.New(http.StatusBadRequest, "invalid_severity", fmt.Errorf("unsupported default severity %q", row.DefaultSeverity))
	}
	switch row.DefaultDriveability {
	case diagnosis.DriveabilityDrivable, diagnosis.DriveabilityLimited, diagnosis.DriveabilityDoNotDrive:
	default:
		return nil, apierr.New(http.StatusBadRequest, "invalid_driveability", fmt.Errorf("unsupported driveability %q", row.DefaultDriveability))
	}

	if err := s.repo.UpsertByCode(ctx, tx, row); err != nil {
		return nil, err
	}
	s.cache.Invalidate(row.Code)
	s.log.Info("knowledge entry upserted", "code", row.Code, "source_version", row.SourceVersion)

	stored, err := s.repo.GetByCode(ctx, tx, row.Code)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *knowledgeService) ListCodes(ctx context.Context, tx *gorm.DB) ([]string, error) {
	return s.repo.ListCodes(ctx, tx)
}
