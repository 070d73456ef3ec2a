package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
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

const timelineDefaultLimit = 50

type CreateVehicleInput struct {
	VIN      string `json:"vin,omitempty"`
	Make     string `json:"make"`
	Model    string `json:"model"`
	Year     int    `json:"year,omitempty"`
	Nickname string `json:"nickname,omitempty"`
}

type VehicleService interface {
	Create(ctx context.Context, tx *gorm.DB, in CreateVehicleInput) (*types.Vehicle, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Vehicle, error)
	Get(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Vehicle, error)
	Timeline(ctx context.Context, tx *gorm.DB, id uuid.UUID, limit int) ([]*types.VehicleEvent, error)
	// ClearDTCs appends dtc_clear events for the given codes. Existing scan
	// events are never touched; history stays intact.
	ClearDTCs(ctx context.Context, tx *gorm.DB, id uuid.UUID, codes []string) ([]*types.DiagnosticEvent, error)
}

type vehicleService struct {
	log      *logger.Logger
	vehicles repos.VehicleRepo
	events   repos.DiagnosticEventRepo
	timeline repos.VehicleEventRepo
}

func NewVehicleService(baseLog *logger.Logger, vehicles repos.VehicleRepo, events repos.DiagnosticEventRepo, timeline repos.VehicleEventRepo) VehicleService {
	return &vehicleService{
		log:      baseLog.With("service", "VehicleService"),
		vehicles: vehicles,
		events:   events,
		timeline: timeline,
	}
}

func callerID(ctx context.Context) (uuid.UUID, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	return rd.UserID, nil
}

func (s *vehicleService) Create(ctx context.Context, tx *gorm.DB, in CreateVehicleInput) (*types.Vehicle, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Make) == "" || strings.TrimSpace(in.Model) == "" {
		return nil, apierr.New(http.StatusBadRequest, "invalid_vehicle", fmt.Errorf("make and model are required"))
	}

	row := &types.Vehicle{
		UserID:   userID,
		Make:     strings.TrimSpace(in.Make),
		Model:    strings.TrimSpace(in.Model),
		Year:     in.Year,
		Nickname: strings.TrimSpace(in.Nickname),
	}
	if vin := strings.ToUpper(strings.TrimSpace(in.VIN)); vin != "" {
		row.VIN = &vin
	}
	return s.vehicles.Create(ctx, tx, row)
}

func (s *vehicleService) List(ctx context.Context, tx *gorm.DB) ([]*types.Vehicle, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	return s.vehicles.GetByUserID(ctx, tx, userID)
}

func (s *vehicleService) Get(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Vehicle, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	vehicle, err := s.vehicles.GetByIDForUser(ctx, tx, id, userID)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, apierr.New(http.StatusNotFound, "vehicle_not_found", nil)
	}
	return vehicle, nil
}

func (s *vehicleService) Timeline(ctx context.Context, tx *gorm.DB, id uuid.UUID, limit int) ([]*types.VehicleEvent, error) {
	vehicle, err := s.Get(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = timelineDefaultLimit
	}
	return s.timeline.GetByVehicleID(ctx, tx, vehicle.ID, limit)
}

func (s *vehicleService) ClearDTCs(ctx context.Context, tx *gorm.DB, id uuid.UUID, codes []string) ([]*types.DiagnosticEvent, error) {
	vehicle, err := s.Get(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return nil, apierr.New(http.StatusBadRequest, "no_codes", fmt.Errorf("at least one code required"))
	}

	now := time.Now().UTC()
	rows := make([]*types.DiagnosticEvent, 0, len(codes))
	for i, raw := range codes {
		code := diagnosis.NormalizeDTC(raw)
		if !diagnosis.ValidDTCCode(code) {
			return nil, apierr.New(http.StatusBadRequest, "invalid_dtc_code", fmt.Errorf("code %d: malformed dtc code %q", i, raw))
		}
		rows = append(rows, &types.DiagnosticEvent{
			VehicleID:  vehicle.ID,
			Source:     types.DiagnosticSourceDTCClear,
			DTCCode:    code,
			OccurredAt: now,
			CapturedAt: now,
			IngestedAt: now,
		})
	}

	created, err := s.events.Create(ctx, tx, rows)
	if err != nil {
		return nil, err
	}

	cleared := make([]string, 0, len(created))
	for _, ev := range created {
		cleared = append(cleared, ev.DTCCode)
	}
	data, _ := json.Marshal(map[string]any{"dtc_codes": cleared})
	if _, err := s.timeline.Create(ctx, tx, []*types.VehicleEvent{{
		VehicleID: vehicle.ID,
		Type:      "dtc_cleared",
		Data:      datatypes.JSON(data),
	}}); err != nil {
		return nil, err
	}
	return created, nil
}
