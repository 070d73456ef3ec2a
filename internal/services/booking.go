package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/modules/booking"
	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/platform/apierr"
	"github.com/drivewise/drivewise-backend/internal/repos"
	"github.com/drivewise/drivewise-backend/internal/requestdata"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type CreateBookingInput struct {
	VehicleID uuid.UUID `json:"vehicle_id"`
	PartnerID uuid.UUID `json:"partner_id"`
	Notes     string    `json:"notes,omitempty"`
}

type TransitionBookingInput struct {
	BookingID uuid.UUID
	ToStatus  string
	Actor     string
}

type BookingService interface {
	Create(ctx context.Context, tx *gorm.DB, in CreateBookingInput) (*types.Booking, error)
	Transition(ctx context.Context, tx *gorm.DB, in TransitionBookingInput) (*types.Booking, error)
	ListForUser(ctx context.Context, tx *gorm.DB) ([]*types.Booking, error)
}

type bookingService struct {
	log      *logger.Logger
	bookings repos.BookingRepo
	vehicles repos.VehicleRepo
	timeline repos.VehicleEventRepo
}

func NewBookingService(baseLog *logger.Logger, bookings repos.BookingRepo, vehicles repos.VehicleRepo, timeline repos.VehicleEventRepo) BookingService {
	return &bookingService{
		log:      baseLog.With("service", "BookingService"),
		bookings: bookings,
		vehicles: vehicles,
		timeline: timeline,
	}
}

func (s *bookingService) Create(ctx context.Context, tx *gorm.DB, in CreateBookingInput) (*types.Booking, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	if in.PartnerID == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, "invalid_partner", nil)
	}
	vehicle, err := s.vehicles.GetByIDForUser(ctx, tx, in.VehicleID, rd.UserID)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, apierr.New(http.StatusNotFound, "vehicle_not_found", nil)
	}

	row := &types.Booking{
		VehicleID:   vehicle.ID,
		UserID:      rd.UserID,
		PartnerID:   in.PartnerID,
		Status:      types.BookingStatusRequested,
		Notes:       strings.TrimSpace(in.Notes),
		RequestedAt: time.Now().UTC(),
	}
	stored, err := s.bookings.Create(ctx, tx, row)
	if err != nil {
		return nil, err
	}
	s.appendTimeline(ctx, tx, stored, "booking_requested")
	return stored, nil
}

func (s *bookingService) Transition(ctx context.Context, tx *gorm.DB, in TransitionBookingInput) (*types.Booking, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}

	row, err := s.bookings.GetByID(ctx, tx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apierr.New(http.StatusNotFound, "booking_not_found", nil)
	}

	// Customers may only act on their own bookings; partners only on
	// bookings addressed to them.
	switch in.Actor {
	case booking.ActorCustomer:
		if row.UserID != rd.UserID {
			return nil, apierr.New(http.StatusNotFound, "booking_not_found", nil)
		}
	case booking.ActorPartner:
		if row.PartnerID != rd.UserID {
			return nil, apierr.New(http.StatusForbidden, "not_booking_partner", nil)
		}
	}

	terminal, err := booking.AssertTransition(row.Status, in.ToStatus, in.Actor)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrNoopTransition):
			return nil, apierr.New(http.StatusConflict, "booking_noop_transition", err)
		case errors.Is(err, booking.ErrInvalidTransition):
			return nil, apierr.New(http.StatusConflict, "booking_invalid_transition", err)
		case errors.Is(err, booking.ErrUnknownActor):
			return nil, apierr.New(http.StatusBadRequest, "booking_unknown_actor", err)
		default:
			return nil, err
		}
	}

	var resolvedAt *time.Time
	if terminal {
		now := time.Now().UTC()
		resolvedAt = &now
	}
	if err := s.bookings.UpdateStatus(ctx, tx, row.ID, in.ToStatus, resolvedAt); err != nil {
		return nil, err
	}
	row.Status = in.ToStatus
	row.ResolvedAt = resolvedAt

	s.appendTimeline(ctx, tx, row, "booking_"+in.ToStatus)
	s.log.Info("booking transitioned",
		"booking_id", row.ID.String(),
		"to", in.ToStatus,
		"actor", in.Actor,
		"terminal", terminal,
	)
	return row, nil
}

func (s *bookingService) ListForUser(ctx context.Context, tx *gorm.DB) ([]*types.Booking, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	return s.bookings.GetByUserID(ctx, tx, rd.UserID)
}

func (s *bookingService) appendTimeline(ctx context.Context, tx *gorm.DB, row *types.Booking, eventType string) {
	data, _ := json.Marshal(map[string]any{
		"booking_id": row.ID,
		"partner_id": row.PartnerID,
		"status":     row.Status,
	})
	if _, err := s.timeline.Create(ctx, tx, []*types.VehicleEvent{{
		VehicleID: row.VehicleID,
		Type:      eventType,
		Data:      datatypes.JSON(data),
	}}); err != nil {
		s.log.Warn("booking timeline append failed", "booking_id", row.ID.String(), "error", err.Error())
	}
}
