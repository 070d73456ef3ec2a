package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/modules/booking"
	"github.com/drivewise/drivewise-backend/internal/platform/apierr"
	"github.com/drivewise/drivewise-backend/internal/requestdata"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type stubBookingRepo struct {
	rows map[uuid.UUID]*types.Booking
}

func newStubBookingRepo() *stubBookingRepo {
	return &stubBookingRepo{rows: map[uuid.UUID]*types.Booking{}}
}

func (r *stubBookingRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Booking) (*types.Booking, error) {
	row.ID = uuid.New()
	r.rows[row.ID] = row
	return row, nil
}

func (r *stubBookingRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Booking, error) {
	return r.rows[id], nil
}

func (r *stubBookingRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Booking, error) {
	var out []*types.Booking
	for _, b := range r.rows {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *stubBookingRepo) GetByPartnerID(ctx context.Context, tx *gorm.DB, partnerID uuid.UUID) ([]*types.Booking, error) {
	var out []*types.Booking
	for _, b := range r.rows {
		if b.PartnerID == partnerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *stubBookingRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, resolvedAt *time.Time) error {
	b := r.rows[id]
	if b == nil {
		return gorm.ErrRecordNotFound
	}
	b.Status = status
	b.ResolvedAt = resolvedAt
	return nil
}

type bookingFixture struct {
	svc       BookingService
	repo      *stubBookingRepo
	timeline  *stubTimelineRepo
	customer  context.Context
	partner   context.Context
	partnerID uuid.UUID
	vehicleID uuid.UUID
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	userID := uuid.New()
	partnerID := uuid.New()
	vehicle := &types.Vehicle{ID: uuid.New(), UserID: userID, Make: "Honda", Model: "Civic"}

	repo := newStubBookingRepo()
	timeline := &stubTimelineRepo{}
	svc := NewBookingService(testLogger(t), repo, &stubVehicleRepo{vehicle: vehicle}, timeline)

	return &bookingFixture{
		svc:       svc,
		repo:      repo,
		timeline:  timeline,
		customer:  requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: userID}),
		partner:   requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: partnerID}),
		partnerID: partnerID,
		vehicleID: vehicle.ID,
	}
}

func (fx *bookingFixture) create(t *testing.T) *types.Booking {
	t.Helper()
	row, err := fx.svc.Create(fx.customer, nil, CreateBookingInput{VehicleID: fx.vehicleID, PartnerID: fx.partnerID})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if row.Status != types.BookingStatusRequested {
		t.Fatalf("new booking status=%q", row.Status)
	}
	return row
}

func businessCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *apierr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected business error, got %v", err)
	}
	return appErr.Code
}

func TestBookingAcceptThenConfirm(t *testing.T) {
	fx := newBookingFixture(t)
	row := fx.create(t)

	accepted, err := fx.svc.Transition(fx.partner, nil, TransitionBookingInput{
		BookingID: row.ID, ToStatus: types.BookingStatusAccepted, Actor: booking.ActorPartner,
	})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.ResolvedAt != nil {
		t.Fatal("accepted is not terminal, resolved_at must stay nil")
	}

	confirmed, err := fx.svc.Transition(fx.customer, nil, TransitionBookingInput{
		BookingID: row.ID, ToStatus: types.BookingStatusConfirmed, Actor: booking.ActorCustomer,
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.ResolvedAt == nil {
		t.Fatal("confirmed is terminal, resolved_at must be set")
	}
}

func TestBookingRejectSetsResolvedAt(t *testing.T) {
	fx := newBookingFixture(t)
	row := fx.create(t)

	rejected, err := fx.svc.Transition(fx.partner, nil, TransitionBookingInput{
		BookingID: row.ID, ToStatus: types.BookingStatusRejected, Actor: booking.ActorPartner,
	})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.ResolvedAt == nil {
		t.Fatal("rejected is terminal, resolved_at must be set")
	}
}

func TestBookingTransitionErrorsAreDistinct(t *testing.T) {
	fx := newBookingFixture(t)
	row := fx.create(t)

	_, err := fx.svc.Transition(fx.partner, nil, TransitionBookingInput{
		BookingID: row.ID, ToStatus: types.BookingStatusRequested, Actor: booking.ActorPartner,
	})
	if code := businessCode(t, err); code != "booking_noop_transition" {
		t.Fatalf("same-state: got %s", code)
	}

	_, err = fx.svc.Transition(fx.partner, nil, TransitionBookingInput{
		BookingID: row.ID, ToStatus: types.BookingStatusConfirmed, Actor: booking.ActorPartner,
	})
	if code := businessCode(t, err); code != "booking_invalid_transition" {
		t.Fatalf("partner confirm: got %s", code)
	}
}

func TestBookingActorChecks(t *testing.T) {
	fx := newBookingFixture(t)
	row := fx.create(t)

	// A stranger posing as the partner.
	stranger := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: uuid.New()})
	_, err := fx.svc.Transition(stranger, nil, TransitionBookingInput{
		BookingID: row.ID, ToStatus: types.BookingStatusAccepted, Actor: booking.ActorPartner,
	})
	if code := businessCode(t, err); code != "not_booking_partner" {
		t.Fatalf("stranger as partner: got %s", code)
	}

	// A stranger posing as the customer sees nothing.
	_, err = fx.svc.Transition(stranger, nil, TransitionBookingInput{
		BookingID: row.ID, ToStatus: types.BookingStatusConfirmed, Actor: booking.ActorCustomer,
	})
	if code := businessCode(t, err); code != "booking_not_found" {
		t.Fatalf("stranger as customer: got %s", code)
	}
}
