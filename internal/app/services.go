package app

import (
	"gorm.io/gorm"

	rediscache "github.com/drivewise/drivewise-backend/internal/clients/redis"
	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/services"
)

type Services struct {
	Auth           services.AuthService
	Knowledge      services.KnowledgeService
	Triage         services.TriageService
	Causes         services.CausesService
	Ingestion      services.ScanIngestionService
	Recommendation services.RecommendationService
	Booking        services.BookingService
	Entitlement    services.EntitlementService
	Vehicle        services.VehicleService
	Session        services.SessionService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos) (Services, error) {
	var entCache rediscache.EntitlementCache
	if cfg.RedisEnabled {
		cache, err := rediscache.NewEntitlementCache(log)
		if err != nil {
			// The gate falls back to Postgres lookups without the cache.
			log.Warn("redis entitlement cache unavailable", "error", err.Error())
		} else {
			entCache = cache
		}
	}

	auth := services.NewAuthService(db, log, r.User, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.AdminEmails)
	knowledge := services.NewKnowledgeService(log, r.DtcKnowledge)
	triage := services.NewTriageService(log, r.DiagnosticEvent, r.Vehicle, knowledge)
	entitlement := services.NewEntitlementService(log, r.Subscription, entCache)
	causes := services.NewCausesService(log, r.DiagnosticEvent, r.Vehicle, entitlement)
	ingestion := services.NewScanIngestionService(log, r.ScanSession, r.DiagnosticEvent, r.VehicleEvent)
	recommendation := services.NewRecommendationService(log, r.DiagnosticEvent, r.Vehicle, r.Recommendation, r.VehicleEvent, triage)
	booking := services.NewBookingService(log, r.Booking, r.Vehicle, r.VehicleEvent)
	vehicle := services.NewVehicleService(log, r.Vehicle, r.DiagnosticEvent, r.VehicleEvent)
	session := services.NewSessionService(log, r.ScanSession, r.Vehicle, r.DiagnosticEvent)

	return Services{
		Auth:           auth,
		Knowledge:      knowledge,
		Triage:         triage,
		Causes:         causes,
		Ingestion:      ingestion,
		Recommendation: recommendation,
		Booking:        booking,
		Entitlement:    entitlement,
		Vehicle:        vehicle,
		Session:        session,
	}, nil
}
