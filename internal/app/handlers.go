package app

import (
	"github.com/drivewise/drivewise-backend/internal/handlers"
)

type Handlers struct {
	Auth           *handlers.AuthHandler
	Vehicle        *handlers.VehicleHandler
	Session        *handlers.SessionHandler
	Scan           *handlers.ScanHandler
	Triage         *handlers.TriageHandler
	Recommendation *handlers.RecommendationHandler
	Booking        *handlers.BookingHandler
	Knowledge      *handlers.KnowledgeHandler
}

func wireHandlers(s Services) Handlers {
	return Handlers{
		Auth:           handlers.NewAuthHandler(s.Auth),
		Vehicle:        handlers.NewVehicleHandler(s.Vehicle),
		Session:        handlers.NewSessionHandler(s.Session),
		Scan:           handlers.NewScanHandler(s.Ingestion),
		Triage:         handlers.NewTriageHandler(s.Triage, s.Causes),
		Recommendation: handlers.NewRecommendationHandler(s.Recommendation),
		Booking:        handlers.NewBookingHandler(s.Booking),
		Knowledge:      handlers.NewKnowledgeHandler(s.Knowledge),
	}
}
