package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/modules/diagnosis"
	"github.com/drivewise/drivewise-backend/internal/modules/policy"
	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/platform/apierr"
	"github.com/drivewise/drivewise-backend/internal/repos"
	"github.com/drivewise/drivewise-backend/internal/requestdata"
	"github.com/drivewise/drivewise-backend/internal/types"
)

const generatorType = "rule_based_v1"

const noGuaranteeDisclaimer = "This guidance is informational and is not a warranty, legal advice, or a guaranteed outcome."

// recommendationDetails is the persisted jsonb shape. Renaming or removing a
// field here breaks stored rows; only additions are allowed.
type recommendationDetails struct {
	Summary        string                   `json:"summary"`
	Rationale      string                   `json:"rationale"`
	Confidence     int                      `json:"confidence"`
	Evidence       []string                 `json:"evidence"`
	Limitations    []string                 `json:"limitations"`
	NextSteps      []string                 `json:"nextSteps"`
	Triage         recommendationTriage     `json:"triage"`
	PolicyDecision diagnosis.PolicyDecision `json:"policyDecision"`
	KnowledgeRef   string                   `json:"knowledgeRef"`
	GeneratedAt    time.Time                `json:"generatedAt"`
	GeneratorType  string                   `json:"generatorType"`
	Disclaimer     string                   `json:"disclaimer"`
}

type recommendationTriage struct {
	Class        string `json:"class"`
	Driveability string `json:"driveability"`
	DIYEligible  bool   `json:"diyEligible"`
}

type RecommendationService interface {
	GenerateForEvent(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) (*types.Recommendation, error)
	GetLatestActiveForEvent(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) (*types.Recommendation, error)
	SetActive(ctx context.Context, tx *gorm.DB, id uuid.UUID, active bool) (*types.Recommendation, error)
}

type recommendationService struct {
	log      *logger.Logger
	events   repos.DiagnosticEventRepo
	vehicles repos.VehicleRepo
	recs     repos.RecommendationRepo
	timeline repos.VehicleEventRepo
	triage   TriageService
}

func NewRecommendationService(baseLog *logger.Logger, events repos.DiagnosticEventRepo, vehicles repos.VehicleRepo, recs repos.RecommendationRepo, timeline repos.VehicleEventRepo, triage TriageService) RecommendationService {
	return &recommendationService{
		log:      baseLog.With("service", "RecommendationService"),
		events:   events,
		vehicles: vehicles,
		recs:     recs,
		timeline: timeline,
		triage:   triage,
	}
}

func recommendationType(d *diagnosis.TriageDecision) string {
	switch {
	case d.TriageClass == diagnosis.ClassServiceNow:
		return types.RecommendationTypeServiceShop
	case d.DIYEligible:
		return types.RecommendationTypeDIY
	case d.TriageClass == diagnosis.ClassServiceSoon:
		return types.RecommendationTypeServicePlanned
	default:
		return types.RecommendationTypeMonitor
	}
}

func draftTitle(code string, d *diagnosis.TriageDecision) string {
	switch d.TriageClass {
	case diagnosis.ClassServiceNow:
		return fmt.Sprintf("Immediate service needed for %s", code)
	case diagnosis.ClassServiceSoon:
		return fmt.Sprintf("Schedule service for %s", code)
	default:
		return fmt.Sprintf("Monitor condition reported by %s", code)
	}
}

func draftSummary(code string, d *diagnosis.TriageDecision) string {
	switch d.TriageClass {
	case diagnosis.ClassServiceNow:
		return fmt.Sprintf("Fault code %s indicates a condition that needs prompt professional attention.", code)
	case diagnosis.ClassServiceSoon:
		return fmt.Sprintf("Fault code %s indicates a condition worth addressing at your next service visit.", code)
	default:
		return fmt.Sprintf("Fault code %s does not currently indicate an urgent condition.", code)
	}
}

func draftNextSteps(d *diagnosis.TriageDecision) []string {
	switch d.TriageClass {
	case diagnosis.ClassServiceNow:
		steps := []string{
			"Book a service appointment as soon as possible.",
			"Avoid towing loads or extended trips until inspected.",
		}
		if d.Driveability == diagnosis.DriveabilityDoNotDrive {
			steps = append([]string{"Do not drive the vehicle; arrange towing to a service location."}, steps...)
		}
		return steps
	case diagnosis.ClassServiceSoon:
		return []string{
			"Schedule a service appointment within the next few weeks.",
			"Note any changes in vehicle behavior and report them at the visit.",
		}
	default:
		steps := []string{
			"Keep an eye on the condition and rescan if the code returns.",
		}
		if d.DIYEligible {
			steps = append(steps, "This item is suitable for a careful at-home fix if you are comfortable with basic maintenance.")
		}
		return steps
	}
}

func draftEvidence(event *types.DiagnosticEvent, d *diagnosis.TriageDecision) []string {
	evidence := []string{
		fmt.Sprintf("Code %s reported via %s at %s.", d.DTCCode, event.Source, event.OccurredAt.UTC().Format(time.RFC3339)),
	}
	if d.KnowledgeRef != "" && d.KnowledgeRef != "unmatched" {
		evidence = append(evidence, fmt.Sprintf("Matched knowledge entry %s.", d.KnowledgeRef))
	}
	if d.Policy.SensorEscalated {
		evidence = append(evidence, "Sensor escalation: "+d.Policy.EscalationReason+".")
	}
	return evidence
}

func (s *recommendationService) GenerateForEvent(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) (*types.Recommendation, error) {
	decision, event, err := s.triage.ResolveForEvent(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}

	confidence := clamp(decision.Confidence, 0, 100)
	draft := policy.Draft{
		Title:     draftTitle(decision.DTCCode, decision),
		Summary:   draftSummary(decision.DTCCode, decision),
		Rationale: fmt.Sprintf("Triage classified %s as %s: %s.", decision.DTCCode, decision.TriageClass, decision.Reason),
		NextSteps: draftNextSteps(decision),
		Limitations: []string{
			noGuaranteeDisclaimer,
		},
	}

	urgency := decision.TriageClass
	if decision.Driveability == diagnosis.DriveabilityDoNotDrive {
		urgency = diagnosis.DriveabilityDoNotDrive
	}
	filtered := policy.Apply(draft, urgency, confidence)

	details := recommendationDetails{
		Summary:     filtered.Summary,
		Rationale:   filtered.Rationale,
		Confidence:  confidence,
		Evidence:    draftEvidence(event, decision),
		Limitations: filtered.Limitations,
		NextSteps:   filtered.NextSteps,
		Triage: recommendationTriage{
			Class:        decision.TriageClass,
			Driveability: decision.Driveability,
			DIYEligible:  decision.DIYEligible,
		},
		PolicyDecision: decision.Policy,
		KnowledgeRef:   decision.KnowledgeRef,
		GeneratedAt:    time.Now().UTC(),
		GeneratorType:  generatorType,
		Disclaimer:     noGuaranteeDisclaimer,
	}
	blob, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}

	rec := &types.Recommendation{
		DiagnosticEventID: event.ID,
		Type:              recommendationType(decision),
		Urgency:           urgency,
		Confidence:        confidence,
		Title:             filtered.SanitizedTitle,
		Details:           datatypes.JSON(blob),
		IsActive:          true,
	}
	stored, err := s.recs.Create(ctx, tx, rec)
	if err != nil {
		return nil, err
	}

	data, _ := json.Marshal(map[string]any{
		"recommendation_id": stored.ID,
		"event_id":          event.ID,
		"dtc_code":          decision.DTCCode,
		"type":              stored.Type,
		"blocked":           filtered.Blocked,
	})
	if _, err := s.timeline.Create(ctx, tx, []*types.VehicleEvent{{
		VehicleID: event.VehicleID,
		Type:      "recommendation_generated",
		Data:      datatypes.JSON(data),
	}}); err != nil {
		return nil, err
	}

	if filtered.Blocked {
		s.log.Warn("recommendation blocked by policy",
			"event_id", event.ID.String(),
			"reasons", fmt.Sprintf("%v", filtered.BlockedReasons),
		)
	}
	return stored, nil
}

func (s *recommendationService) GetLatestActiveForEvent(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) (*types.Recommendation, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
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

	rec, err := s.recs.GetLatestActiveByEventID(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apierr.New(http.StatusNotFound, "recommendation_not_found", nil)
	}
	return rec, nil
}

func (s *recommendationService) SetActive(ctx context.Context, tx *gorm.DB, id uuid.UUID, active bool) (*types.Recommendation, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || !rd.IsAdmin {
		return nil, apierr.New(http.StatusForbidden, "admin_only", nil)
	}
	rec, err := s.recs.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apierr.New(http.StatusNotFound, "recommendation_not_found", nil)
	}
	if err := s.recs.SetActive(ctx, tx, id, active); err != nil {
		return nil, err
	}
	rec.IsActive = active
	return rec, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
