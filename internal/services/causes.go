package services

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/modules/diagnosis"
	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/platform/apierr"
	"github.com/drivewise/drivewise-backend/internal/repos"
	"github.com/drivewise/drivewise-backend/internal/requestdata"
)

type CausesService interface {
	// RankForEvent is a pro-tier feature: callers without the entitlement
	// get a distinct upgrade-required business error.
	RankForEvent(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) ([]diagnosis.LikelyCause, error)
}

type causesService struct {
	log          *logger.Logger
	events       repos.DiagnosticEventRepo
	vehicles     repos.VehicleRepo
	entitlements EntitlementService
}

func NewCausesService(baseLog *logger.Logger, events repos.DiagnosticEventRepo, vehicles repos.VehicleRepo, entitlements EntitlementService) CausesService {
	return &causesService{
		log:          baseLog.With("service", "CausesService"),
		events:       events,
		vehicles:     vehicles,
		entitlements: entitlements,
	}
}

func (s *causesService) RankForEvent(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) ([]diagnosis.LikelyCause, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}

	pro, err := s.entitlements.HasPro(ctx, tx, rd.UserID)
	if err != nil {
		return nil, err
	}
	if !pro {
		return nil, apierr.New(http.StatusPaymentRequired, "pro_required", nil)
	}

	event, err := s.events.GetByID(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, apierr.New(http.StatusNotFound, "event_not_found", nil)
	}
	vehicle, err := s.vehicles.GetByIDForUser(ctx, tx, event.VehicleID, rd.UserID)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, apierr.New(http.StatusNotFound, "event_not_found", nil)
	}

	return diagnosis.RankLikelyCauses(
		event.DTCCode,
		event.Severity,
		len(event.FreezeFrame) > 0,
		len(event.SensorSnapshot) > 0,
	), nil
}
