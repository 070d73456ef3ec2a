package services

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/platform/apierr"
	"github.com/drivewise/drivewise-backend/internal/repos"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type SessionService interface {
	Open(ctx context.Context, tx *gorm.DB, vehicleID uuid.UUID) (*types.ScanSession, error)
	// Close is idempotent-ish in outcome but signals a distinct business
	// error when the session is already closed.
	Close(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.ScanSession, error)
	Get(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.ScanSession, error)
	Events(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.DiagnosticEvent, error)
}

type sessionService struct {
	log      *logger.Logger
	sessions repos.ScanSessionRepo
	vehicles repos.VehicleRepo
	events   repos.DiagnosticEventRepo
}

func NewSessionService(baseLog *logger.Logger, sessions repos.ScanSessionRepo, vehicles repos.VehicleRepo, events repos.DiagnosticEventRepo) SessionService {
	return &sessionService{
		log:      baseLog.With("service", "SessionService"),
		sessions: sessions,
		vehicles: vehicles,
		events:   events,
	}
}

func (s *sessionService) Open(ctx context.Context, tx *gorm.DB, vehicleID uuid.UUID) (*types.ScanSession, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.vehicles.GetByIDForUser(ctx, tx, vehicleID, userID)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, apierr.New(http.StatusNotFound, "vehicle_not_found", nil)
	}

	session, err := s.sessions.Create(ctx, tx, &types.ScanSession{
		VehicleID: vehicle.ID,
		Status:    types.ScanSessionStatusActive,
		StartedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("scan session opened", "session_id", session.ID.String(), "vehicle_id", vehicle.ID.String())
	return session, nil
}

func (s *sessionService) Get(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.ScanSession, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.GetByIDForUser(ctx, tx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apierr.New(http.StatusNotFound, "session_not_found", nil)
	}
	return session, nil
}

func (s *sessionService) Close(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.ScanSession, error) {
	session, err := s.Get(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != types.ScanSessionStatusActive {
		return nil, apierr.New(http.StatusConflict, "session_closed", nil)
	}

	closedAt := time.Now().UTC()
	if err := s.sessions.Close(ctx, tx, session.ID, closedAt); err != nil {
		return nil, err
	}
	session.Status = types.ScanSessionStatusClosed
	session.ClosedAt = &closedAt
	return session, nil
}

func (s *sessionService) Events(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.DiagnosticEvent, error) {
	session, err := s.Get(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.events.GetBySessionID(ctx, tx, session.ID)
}
