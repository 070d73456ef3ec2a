package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	rediscache "github.com/drivewise/drivewise-backend/internal/clients/redis"
	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/repos"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type EntitlementService interface {
	// HasPro answers the pro-tier gate for a user. Cache misses and cache
	// errors both fall through to the subscription row; the cache is an
	// optimization, never the source of truth.
	HasPro(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (bool, error)
	// SetSubscription records a tier change and drops the cached answer.
	SetSubscription(ctx context.Context, tx *gorm.DB, sub *types.Subscription) error
}

type entitlementService struct {
	log   *logger.Logger
	subs  repos.SubscriptionRepo
	cache rediscache.EntitlementCache
	now   func() time.Time
}

func NewEntitlementService(baseLog *logger.Logger, subs repos.SubscriptionRepo, cache rediscache.EntitlementCache) EntitlementService {
	return &entitlementService{
		log:   baseLog.With("service", "EntitlementService"),
		subs:  subs,
		cache: cache,
		now:   time.Now,
	}
}

func (s *entitlementService) proFromRow(sub *types.Subscription) bool {
	if sub == nil || sub.Tier != types.SubscriptionTierPro || sub.Status != "active" {
		return false
	}
	if sub.CurrentPeriodEnd != nil && s.now().After(*sub.CurrentPeriodEnd) {
		return false
	}
	return true
}

func (s *entitlementService) HasPro(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (bool, error) {
	if s.cache != nil {
		pro, found, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.log.Warn("entitlement cache read failed", "user_id", userID.String(), "error", err.Error())
		} else if found {
			return pro, nil
		}
	}

	sub, err := s.subs.GetByUserID(ctx, tx, userID)
	if err != nil {
		return false, err
	}
	pro := s.proFromRow(sub)

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, pro); err != nil {
			s.log.Warn("entitlement cache write failed", "user_id", userID.String(), "error", err.Error())
		}
	}
	return pro, nil
}

func (s *entitlementService) SetSubscription(ctx context.Context, tx *gorm.DB, sub *types.Subscription) error {
	if err := s.subs.Upsert(ctx, tx, sub); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, sub.UserID); err != nil {
			s.log.Warn("entitlement cache invalidate failed", "user_id", sub.UserID.String(), "error", err.Error())
		}
	}
	return nil
}
