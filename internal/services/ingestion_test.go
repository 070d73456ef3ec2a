package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/platform/apierr"
	"github.com/drivewise/drivewise-backend/internal/requestdata"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type stubSessionRepo struct {
	session *types.ScanSession
	ownerID uuid.UUID
}

func (s *stubSessionRepo) Create(ctx context.Context, tx *gorm.DB, session *types.ScanSession) (*types.ScanSession, error) {
	return session, nil
}

func (s *stubSessionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ScanSession, error) {
	if s.session != nil && s.session.ID == id {
		return s.session, nil
	}
	return nil, nil
}

func (s *stubSessionRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.ScanSession, error) {
	if s.session != nil && s.session.ID == id && s.ownerID == userID {
		return s.session, nil
	}
	return nil, nil
}

func (s *stubSessionRepo) Close(ctx context.Context, tx *gorm.DB, id uuid.UUID, closedAt time.Time) error {
	s.session.Status = types.ScanSessionStatusClosed
	return nil
}

func (s *stubSessionRepo) GetActiveByVehicleID(ctx context.Context, tx *gorm.DB, vehicleID uuid.UUID) ([]*types.ScanSession, error) {
	return nil, nil
}

type stubEventRepo struct {
	byKey map[string]*types.DiagnosticEvent
}

func newStubEventRepo() *stubEventRepo {
	return &stubEventRepo{byKey: map[string]*types.DiagnosticEvent{}}
}

func (r *stubEventRepo) Create(ctx context.Context, tx *gorm.DB, events []*types.DiagnosticEvent) ([]*types.DiagnosticEvent, error) {
	for _, ev := range events {
		ev.ID = uuid.New()
	}
	return events, nil
}

func (r *stubEventRepo) CreateOrGetByIdempotencyKey(ctx context.Context, tx *gorm.DB, event *types.DiagnosticEvent) (*types.DiagnosticEvent, bool, error) {
	if event.IdempotencyKey == nil {
		event.ID = uuid.New()
		return event, true, nil
	}
	if existing, ok := r.byKey[*event.IdempotencyKey]; ok {
		return existing, false, nil
	}
	event.ID = uuid.New()
	r.byKey[*event.IdempotencyKey] = event
	return event, true, nil
}

func (r *stubEventRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.DiagnosticEvent, error) {
	for _, ev := range r.byKey {
		if ev.ID == id {
			return ev, nil
		}
	}
	return nil, nil
}

func (r *stubEventRepo) GetByIdempotencyKey(ctx context.Context, tx *gorm.DB, key string) (*types.DiagnosticEvent, error) {
	return r.byKey[key], nil
}

func (r *stubEventRepo) GetByVehicleID(ctx context.Context, tx *gorm.DB, vehicleID uuid.UUID, limit int) ([]*types.DiagnosticEvent, error) {
	return nil, nil
}

func (r *stubEventRepo) GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.DiagnosticEvent, error) {
	return nil, nil
}

type stubTimelineRepo struct {
	created []*types.VehicleEvent
}

func (r *stubTimelineRepo) Create(ctx context.Context, tx *gorm.DB, events []*types.VehicleEvent) ([]*types.VehicleEvent, error) {
	r.created = append(r.created, events...)
	return events, nil
}

func (r *stubTimelineRepo) GetByVehicleID(ctx context.Context, tx *gorm.DB, vehicleID uuid.UUID, limit int) ([]*types.VehicleEvent, error) {
	return r.created, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func ingestionFixture(t *testing.T) (ScanIngestionService, *stubSessionRepo, *stubEventRepo, *stubTimelineRepo, context.Context) {
	t.Helper()
	userID := uuid.New()
	sessions := &stubSessionRepo{
		session: &types.ScanSession{
			ID:        uuid.New(),
			VehicleID: uuid.New(),
			Status:    types.ScanSessionStatusActive,
		},
		ownerID: userID,
	}
	events := newStubEventRepo()
	timeline := &stubTimelineRepo{}
	svc := NewScanIngestionService(testLogger(t), sessions, events, timeline)
	ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: userID})
	return svc, sessions, events, timeline, ctx
}

func batchInput(sessionID uuid.UUID, uploadID string, codes ...string) IngestScanInput {
	readings := make([]ScanReading, 0, len(codes))
	for _, c := range codes {
		readings = append(readings, ScanReading{DTCCode: c})
	}
	return IngestScanInput{SessionID: sessionID, UploadID: uploadID, Readings: readings}
}

func TestIngestScanReplayIsDeduplicated(t *testing.T) {
	svc, sessions, _, timeline, ctx := ingestionFixture(t)
	in := batchInput(sessions.session.ID, "upload-0001", "p0420", "P0171")

	first, err := svc.IngestScan(ctx, nil, in)
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	if first.InsertedCount != 2 || first.Deduplicated {
		t.Fatalf("first ingest: insertedCount=%d deduplicated=%v", first.InsertedCount, first.Deduplicated)
	}
	if got := first.Events[0].DTCCode; got != "P0420" {
		t.Fatalf("code not normalized: %q", got)
	}
	if len(timeline.created) != 1 {
		t.Fatalf("expected one timeline event, got %d", len(timeline.created))
	}

	second, err := svc.IngestScan(ctx, nil, in)
	if err != nil {
		t.Fatalf("replay ingest: %v", err)
	}
	if second.InsertedCount != 0 || !second.Deduplicated {
		t.Fatalf("replay: insertedCount=%d deduplicated=%v", second.InsertedCount, second.Deduplicated)
	}
	for i := range first.Events {
		if first.Events[i].ID != second.Events[i].ID {
			t.Fatalf("reading %d: replay returned a different row", i)
		}
	}
	if len(timeline.created) != 1 {
		t.Fatalf("replay must not append a timeline event, got %d", len(timeline.created))
	}
}

func TestIngestScanIdempotencyKeysFollowOrder(t *testing.T) {
	svc, sessions, events, _, ctx := ingestionFixture(t)
	in := batchInput(sessions.session.ID, "order-check-01", "P0100", "P0101", "P0102")

	if _, err := svc.IngestScan(ctx, nil, in); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	for i, code := range []string{"P0100", "P0101", "P0102"} {
		key := fmt.Sprintf("order-check-01:%d", i)
		ev := events.byKey[key]
		if ev == nil || ev.DTCCode != code {
			t.Fatalf("key %q: got %+v, want code %s", key, ev, code)
		}
	}
}

func TestIngestScanValidationRejectsWholeBatch(t *testing.T) {
	svc, sessions, events, _, ctx := ingestionFixture(t)

	cases := []struct {
		name string
		in   IngestScanInput
		code string
	}{
		{"bad upload id", batchInput(sessions.session.ID, "no spaces!", "P0420"), "invalid_upload_id"},
		{"short upload id", batchInput(sessions.session.ID, "short", "P0420"), "invalid_upload_id"},
		{"empty batch", batchInput(sessions.session.ID, "upload-0002"), "batch_size"},
		{"bad code mid-batch", batchInput(sessions.session.ID, "upload-0003", "P0420", "??"), "invalid_dtc_code"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.IngestScan(ctx, nil, tc.in)
			var appErr *apierr.Error
			if !errors.As(err, &appErr) || appErr.Code != tc.code {
				t.Fatalf("got err=%v, want business code %s", err, tc.code)
			}
		})
	}
	if len(events.byKey) != 0 {
		t.Fatalf("validation failures must not write events, got %d", len(events.byKey))
	}

	over := make([]ScanReading, 101)
	for i := range over {
		over[i] = ScanReading{DTCCode: "P0420"}
	}
	_, err := svc.IngestScan(ctx, nil, IngestScanInput{SessionID: sessions.session.ID, UploadID: "upload-0004", Readings: over})
	var appErr *apierr.Error
	if !errors.As(err, &appErr) || appErr.Code != "batch_size" {
		t.Fatalf("101 readings: got %v, want batch_size", err)
	}
}

func TestIngestScanClosedSession(t *testing.T) {
	svc, sessions, _, _, ctx := ingestionFixture(t)
	sessions.session.Status = types.ScanSessionStatusClosed

	_, err := svc.IngestScan(ctx, nil, batchInput(sessions.session.ID, "upload-0005", "P0420"))
	var appErr *apierr.Error
	if !errors.As(err, &appErr) || appErr.Code != "session_closed" {
		t.Fatalf("got %v, want session_closed", err)
	}
}

func TestIngestScanUnknownSessionIsNotFound(t *testing.T) {
	svc, _, _, _, ctx := ingestionFixture(t)

	_, err := svc.IngestScan(ctx, nil, batchInput(uuid.New(), "upload-0006", "P0420"))
	var appErr *apierr.Error
	if !errors.As(err, &appErr) || appErr.Code != "session_not_found" {
		t.Fatalf("got %v, want session_not_found", err)
	}
}

func TestIngestScanOwnershipLooksLikeNotFound(t *testing.T) {
	svc, sessions, _, _, _ := ingestionFixture(t)
	stranger := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: uuid.New()})

	_, err := svc.IngestScan(stranger, nil, batchInput(sessions.session.ID, "upload-0007", "P0420"))
	var appErr *apierr.Error
	if !errors.As(err, &appErr) || appErr.Code != "session_not_found" {
		t.Fatalf("got %v, want session_not_found", err)
	}
}
