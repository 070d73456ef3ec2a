package services

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/modules/diagnosis"
	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/platform/apierr"
	"github.com/drivewise/drivewise-backend/internal/repos"
	"github.com/drivewise/drivewise-backend/internal/requestdata"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type TriagePreviewInput struct {
	DTCCode        string          `json:"dtc_code"`
	SeverityHint   string          `json:"severity_hint,omitempty"`
	FreezeFrame    json.RawMessage `json:"freeze_frame,omitempty"`
	SensorSnapshot json.RawMessage `json:"sensor_snapshot,omitempty"`
}

type TriageService interface {
	// Preview resolves a decision from raw inputs without touching any event
	// row. Used by clients to show triage before committing a scan.
	Preview(ctx context.Context, tx *gorm.DB, in TriagePreviewInput) (*diagnosis.TriageDecision, error)
	// ResolveForEvent loads a stored event owned by the caller and resolves
	// its decision from the event's own captured context.
	ResolveForEvent(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) (*diagnosis.TriageDecision, *types.DiagnosticEvent, error)
}

type triageService struct {
	log       *logger.Logger
	events    repos.DiagnosticEventRepo
	vehicles  repos.VehicleRepo
	knowledge KnowledgeService
}

func NewTriageService(baseLog *logger.Logger, events repos.DiagnosticEventRepo, vehicles repos.VehicleRepo, knowledge KnowledgeService) TriageService {
	return &triageService{
		log:       baseLog.With("service", "TriageService"),
		events:    events,
		vehicles:  vehicles,
		knowledge: knowledge,
	}
}

func (s *triageService) resolve(ctx context.Context, tx *gorm.DB, code, hint string, freezeFrame, sensorRaw json.RawMessage) (*diagnosis.TriageDecision, error) {
	k, err := s.knowledge.Lookup(ctx, tx, code)
	if err != nil {
		return nil, err
	}
	decision := diagnosis.ResolveTriage(diagnosis.TriageInput{
		DTCCode:        code,
		SeverityHint:   hint,
		FreezeFrame:    freezeFrame,
		SensorSnapshot: diagnosis.ParseSensorSnapshot(sensorRaw),
	}, k)
	return &decision, nil
}

func (s *triageService) Preview(ctx context.Context, tx *gorm.DB, in TriagePreviewInput) (*diagnosis.TriageDecision, error) {
	return s.resolve(ctx, tx, in.DTCCode, in.SeverityHint, in.FreezeFrame, in.SensorSnapshot)
}

func (s *triageService) ResolveForEvent(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) (*diagnosis.TriageDecision, *types.DiagnosticEvent, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, nil, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}

	event, err := s.events.GetByID(ctx, tx, eventID)
	if err != nil {
		return nil, nil, err
	}
	if event == nil {
		return nil, nil, apierr.New(http.StatusNotFound, "event_not_found", nil)
	}
	vehicle, err := s.vehicles.GetByIDForUser(ctx, tx, event.VehicleID, rd.UserID)
	if err != nil {
		return nil, nil, err
	}
	if vehicle == nil {
		// Ownership failures look like missing events on purpose.
		return nil, nil, apierr.New(http.StatusNotFound, "event_not_found", nil)
	}

	decision, err := s.resolve(ctx, tx, event.DTCCode, event.Severity,
		json.RawMessage(event.FreezeFrame), json.RawMessage(event.SensorSnapshot))
	if err != nil {
		return nil, nil, err
	}
	return decision, event, nil
}
