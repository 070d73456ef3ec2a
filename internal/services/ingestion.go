package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/modules/diagnosis"
	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/platform/apierr"
	"github.com/drivewise/drivewise-backend/internal/repos"
	"github.com/drivewise/drivewise-backend/internal/requestdata"
	"github.com/drivewise/drivewise-backend/internal/types"
)

var uploadIDRe = regexp.MustCompile(`^[A-Za-z0-9:_-]{8,64}$`)

const maxBatchSize = 100

type ScanReading struct {
	DTCCode        string          `json:"dtc_code"`
	Severity       string          `json:"severity,omitempty"`
	FreezeFrame    json.RawMessage `json:"freeze_frame,omitempty"`
	SensorSnapshot json.RawMessage `json:"sensor_snapshot,omitempty"`
	OccurredAt     *time.Time      `json:"occurred_at,omitempty"`
}

type IngestScanInput struct {
	SessionID  uuid.UUID
	UploadID   string
	Readings   []ScanReading
	CapturedAt *time.Time
	Source     string
}

type IngestScanResult struct {
	Events        []*types.DiagnosticEvent `json:"events"`
	Deduplicated  bool                     `json:"deduplicated"`
	InsertedCount int                      `json:"inserted_count"`
}

type ScanIngestionService interface {
	IngestScan(ctx context.Context, tx *gorm.DB, in IngestScanInput) (*IngestScanResult, error)
}

type scanIngestionService struct {
	log      *logger.Logger
	sessions repos.ScanSessionRepo
	events   repos.DiagnosticEventRepo
	timeline repos.VehicleEventRepo
}

func NewScanIngestionService(baseLog *logger.Logger, sessions repos.ScanSessionRepo, events repos.DiagnosticEventRepo, timeline repos.VehicleEventRepo) ScanIngestionService {
	return &scanIngestionService{
		log:      baseLog.With("service", "ScanIngestionService"),
		sessions: sessions,
		events:   events,
		timeline: timeline,
	}
}

// validate rejects the whole batch before any write happens.
func (s *scanIngestionService) validate(in IngestScanInput) error {
	if !uploadIDRe.MatchString(in.UploadID) {
		return apierr.New(http.StatusBadRequest, "invalid_upload_id", fmt.Errorf("upload id must match %s", uploadIDRe.String()))
	}
	if len(in.Readings) == 0 || len(in.Readings) > maxBatchSize {
		return apierr.New(http.StatusBadRequest, "batch_size", fmt.Errorf("readings must be 1..%d, got %d", maxBatchSize, len(in.Readings)))
	}
	for i, r := range in.Readings {
		code := diagnosis.NormalizeDTC(r.DTCCode)
		if !diagnosis.ValidDTCCode(code) {
			return apierr.New(http.StatusBadRequest, "invalid_dtc_code", fmt.Errorf("reading %d: malformed dtc code %q", i, r.DTCCode))
		}
	}
	switch in.Source {
	case "", types.DiagnosticSourceOBDScan, types.DiagnosticSourceDTCClear, types.DiagnosticSourceManual:
	default:
		return apierr.New(http.StatusBadRequest, "invalid_source", fmt.Errorf("unsupported source %q", in.Source))
	}
	return nil
}

func (s *scanIngestionService) IngestScan(ctx context.Context, tx *gorm.DB, in IngestScanInput) (*IngestScanResult, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	if err := s.validate(in); err != nil {
		return nil, err
	}

	session, err := s.sessions.GetByIDForUser(ctx, tx, in.SessionID, rd.UserID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apierr.New(http.StatusNotFound, "session_not_found", nil)
	}
	if session.Status != types.ScanSessionStatusActive {
		// Soft, non-retryable outcome: the client should stop resending.
		return nil, apierr.New(http.StatusConflict, "session_closed", fmt.Errorf("session %s is not active", session.ID))
	}

	source := in.Source
	if source == "" {
		source = types.DiagnosticSourceOBDScan
	}
	now := time.Now().UTC()
	capturedAt := now
	if in.CapturedAt != nil && !in.CapturedAt.IsZero() {
		capturedAt = in.CapturedAt.UTC()
	}

	result := &IngestScanResult{Events: make([]*types.DiagnosticEvent, 0, len(in.Readings))}
	codes := make([]string, 0, len(in.Readings))
	for i := range in.Readings {
		r := in.Readings[i]
		key := fmt.Sprintf("%s:%d", in.UploadID, i)
		occurredAt := capturedAt
		if r.OccurredAt != nil && !r.OccurredAt.IsZero() {
			occurredAt = r.OccurredAt.UTC()
		}
		ev := &types.DiagnosticEvent{
			VehicleID:      session.VehicleID,
			ScanSessionID:  &session.ID,
			Source:         source,
			DTCCode:        diagnosis.NormalizeDTC(r.DTCCode),
			Severity:       strings.TrimSpace(r.Severity),
			IdempotencyKey: &key,
			OccurredAt:     occurredAt,
			CapturedAt:     capturedAt,
			IngestedAt:     now,
		}
		if len(r.FreezeFrame) > 0 {
			ev.FreezeFrame = datatypes.JSON(r.FreezeFrame)
		}
		if len(r.SensorSnapshot) > 0 {
			ev.SensorSnapshot = datatypes.JSON(r.SensorSnapshot)
		}

		stored, inserted, err := s.events.CreateOrGetByIdempotencyKey(ctx, tx, ev)
		if err != nil {
			return nil, err
		}
		if inserted {
			result.InsertedCount++
		}
		result.Events = append(result.Events, stored)
		codes = append(codes, stored.DTCCode)
	}
	result.Deduplicated = result.InsertedCount == 0

	// One timeline entry per batch with fresh inserts, never one per reading.
	if result.InsertedCount > 0 {
		data, _ := json.Marshal(map[string]any{
			"upload_id":      in.UploadID,
			"session_id":     session.ID,
			"dtc_codes":      codes,
			"inserted_count": result.InsertedCount,
		})
		if _, err := s.timeline.Create(ctx, tx, []*types.VehicleEvent{{
			VehicleID: session.VehicleID,
			Type:      "scan_ingested",
			Data:      datatypes.JSON(data),
		}}); err != nil {
			return nil, err
		}
	}

	s.log.Info("scan batch ingested",
		"session_id", session.ID.String(),
		"vehicle_id", session.VehicleID.String(),
		"readings", len(in.Readings),
		"inserted", result.InsertedCount,
	)
	return result, nil
}
