package app

import (
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/repos"
)

type Repos struct {
	User            repos.UserRepo
	Vehicle         repos.VehicleRepo
	ScanSession     repos.ScanSessionRepo
	DiagnosticEvent repos.DiagnosticEventRepo
	DtcKnowledge    repos.DtcKnowledgeRepo
	Recommendation  repos.RecommendationRepo
	Booking         repos.BookingRepo
	VehicleEvent    repos.VehicleEventRepo
	Subscription    repos.SubscriptionRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		User:            repos.NewUserRepo(db, log),
		Vehicle:         repos.NewVehicleRepo(db, log),
		ScanSession:     repos.NewScanSessionRepo(db, log),
		DiagnosticEvent: repos.NewDiagnosticEventRepo(db, log),
		DtcKnowledge:    repos.NewDtcKnowledgeRepo(db, log),
		Recommendation:  repos.NewRecommendationRepo(db, log),
		Booking:         repos.NewBookingRepo(db, log),
		VehicleEvent:    repos.NewVehicleEventRepo(db, log),
		Subscription:    repos.NewSubscriptionRepo(db, log),
	}
}
