package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/modules/policy"
	"github.com/drivewise/drivewise-backend/internal/platform/apierr"
	"github.com/drivewise/drivewise-backend/internal/requestdata"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type stubVehicleRepo struct {
	vehicle *types.Vehicle
}

func (r *stubVehicleRepo) Create(ctx context.Context, tx *gorm.DB, vehicle *types.Vehicle) (*types.Vehicle, error) {
	vehicle.ID = uuid.New()
	return vehicle, nil
}

func (r *stubVehicleRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Vehicle, error) {
	if r.vehicle != nil && r.vehicle.ID == id {
		return r.vehicle, nil
	}
	return nil, nil
}

func (r *stubVehicleRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Vehicle, error) {
	if r.vehicle != nil && r.vehicle.ID == id && r.vehicle.UserID == userID {
		return r.vehicle, nil
	}
	return nil, nil
}

func (r *stubVehicleRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Vehicle, error) {
	if r.vehicle != nil && r.vehicle.UserID == userID {
		return []*types.Vehicle{r.vehicle}, nil
	}
	return nil, nil
}

type stubRecommendationRepo struct {
	rows []*types.Recommendation
}

func (r *stubRecommendationRepo) Create(ctx context.Context, tx *gorm.DB, rec *types.Recommendation) (*types.Recommendation, error) {
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now()
	r.rows = append(r.rows, rec)
	return rec, nil
}

func (r *stubRecommendationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Recommendation, error) {
	for _, rec := range r.rows {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, nil
}

func (r *stubRecommendationRepo) GetLatestActiveByEventID(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) (*types.Recommendation, error) {
	for i := len(r.rows) - 1; i >= 0; i-- {
		if r.rows[i].DiagnosticEventID == eventID && r.rows[i].IsActive {
			return r.rows[i], nil
		}
	}
	return nil, nil
}

func (r *stubRecommendationRepo) SetActive(ctx context.Context, tx *gorm.DB, id uuid.UUID, active bool) error {
	for _, rec := range r.rows {
		if rec.ID == id {
			rec.IsActive = active
		}
	}
	return nil
}

type recFixture struct {
	svc      RecommendationService
	events   *stubEventRepo
	recs     *stubRecommendationRepo
	timeline *stubTimelineRepo
	event    *types.DiagnosticEvent
	ctx      context.Context
}

func newRecFixture(t *testing.T, knowledge *types.DtcKnowledge, event *types.DiagnosticEvent) *recFixture {
	t.Helper()
	log := testLogger(t)
	userID := uuid.New()
	vehicle := &types.Vehicle{ID: uuid.New(), UserID: userID, Make: "Subaru", Model: "Outback"}
	event.VehicleID = vehicle.ID

	events := newStubEventRepo()
	key := "fixture:" + event.DTCCode
	event.ID = uuid.New()
	event.IdempotencyKey = &key
	events.byKey[key] = event

	vehicles := &stubVehicleRepo{vehicle: vehicle}
	var krepo *stubKnowledgeRepo
	if knowledge != nil {
		krepo = newStubKnowledgeRepo(knowledge)
	} else {
		krepo = newStubKnowledgeRepo()
	}
	recs := &stubRecommendationRepo{}
	timeline := &stubTimelineRepo{}

	triage := NewTriageService(log, events, vehicles, NewKnowledgeService(log, krepo))
	svc := NewRecommendationService(log, events, vehicles, recs, timeline, triage)
	ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: userID})

	return &recFixture{svc: svc, events: events, recs: recs, timeline: timeline, event: event, ctx: ctx}
}

func TestGenerateForSafetyCriticalEvent(t *testing.T) {
	fx := newRecFixture(t,
		&types.DtcKnowledge{
			Code:                "P0117",
			DefaultSeverity:     "service_now",
			DefaultDriveability: "do_not_drive",
			SafetyCritical:      true,
			SourceVersion:       "2024.1",
		},
		&types.DiagnosticEvent{DTCCode: "P0117", Source: types.DiagnosticSourceOBDScan, OccurredAt: time.Now()},
	)

	rec, err := fx.svc.GenerateForEvent(fx.ctx, nil, fx.event.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if rec.Type != types.RecommendationTypeServiceShop {
		t.Fatalf("type=%q, want service_shop", rec.Type)
	}
	if rec.Urgency != "do_not_drive" {
		t.Fatalf("urgency=%q, want do_not_drive", rec.Urgency)
	}
	if rec.Confidence != 88 {
		t.Fatalf("confidence=%d, want 88", rec.Confidence)
	}

	var details recommendationDetails
	if err := json.Unmarshal(rec.Details, &details); err != nil {
		t.Fatalf("details blob: %v", err)
	}
	if details.Triage.Class != "service_now" || details.Triage.Driveability != "do_not_drive" || details.Triage.DIYEligible {
		t.Fatalf("triage block wrong: %+v", details.Triage)
	}
	if len(details.NextSteps) == 0 || details.NextSteps[0] != policy.MandatoryDirective {
		t.Fatalf("directive must lead next steps, got %v", details.NextSteps)
	}
	if details.KnowledgeRef != "P0117@2024.1" {
		t.Fatalf("knowledgeRef=%q", details.KnowledgeRef)
	}
	if details.GeneratorType != "rule_based_v1" || details.Disclaimer == "" {
		t.Fatalf("provenance fields missing: %+v", details)
	}
	if len(details.Limitations) == 0 {
		t.Fatal("limitations must not be empty")
	}
	if len(details.Evidence) < 2 {
		t.Fatalf("expected dtc fact plus knowledge-match fact, got %v", details.Evidence)
	}
	if len(fx.timeline.created) != 1 || fx.timeline.created[0].Type != "recommendation_generated" {
		t.Fatalf("timeline: %+v", fx.timeline.created)
	}
}

func TestGenerateForUnmatchedEventIsMonitorOrPlanned(t *testing.T) {
	fx := newRecFixture(t, nil,
		&types.DiagnosticEvent{DTCCode: "U3000", Source: types.DiagnosticSourceManual, OccurredAt: time.Now()},
	)

	rec, err := fx.svc.GenerateForEvent(fx.ctx, nil, fx.event.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// Unmatched with no hint defaults to service_soon.
	if rec.Type != types.RecommendationTypeServicePlanned {
		t.Fatalf("type=%q, want service_planned", rec.Type)
	}
	if rec.Confidence != 35 {
		t.Fatalf("confidence=%d, want 35", rec.Confidence)
	}

	var details recommendationDetails
	if err := json.Unmarshal(rec.Details, &details); err != nil {
		t.Fatalf("details blob: %v", err)
	}
	if details.KnowledgeRef != "unmatched" {
		t.Fatalf("knowledgeRef=%q, want unmatched", details.KnowledgeRef)
	}
}

func TestGetLatestActiveFollowsToggle(t *testing.T) {
	fx := newRecFixture(t,
		&types.DtcKnowledge{Code: "P0420", DefaultSeverity: "service_soon", DefaultDriveability: "drivable"},
		&types.DiagnosticEvent{DTCCode: "P0420", Source: types.DiagnosticSourceOBDScan, OccurredAt: time.Now()},
	)

	rec, err := fx.svc.GenerateForEvent(fx.ctx, nil, fx.event.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	got, err := fx.svc.GetLatestActiveForEvent(fx.ctx, nil, fx.event.ID)
	if err != nil || got.ID != rec.ID {
		t.Fatalf("latest active: %v %+v", err, got)
	}

	// Non-admin toggle is rejected.
	if _, err := fx.svc.SetActive(fx.ctx, nil, rec.ID, false); err == nil {
		t.Fatal("non-admin SetActive must fail")
	}

	admin := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: uuid.New(), IsAdmin: true})
	if _, err := fx.svc.SetActive(admin, nil, rec.ID, false); err != nil {
		t.Fatalf("admin SetActive: %v", err)
	}

	_, err = fx.svc.GetLatestActiveForEvent(fx.ctx, nil, fx.event.ID)
	var appErr *apierr.Error
	if !errors.As(err, &appErr) || appErr.Code != "recommendation_not_found" {
		t.Fatalf("after deactivation got %v, want recommendation_not_found", err)
	}
}
