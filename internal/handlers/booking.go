package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drivewise/drivewise-backend/internal/modules/booking"
	"github.com/drivewise/drivewise-backend/internal/services"
)

type BookingHandler struct {
	bookingService services.BookingService
}

func NewBookingHandler(bookingService services.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

func (bh *BookingHandler) Create(c *gin.Context) {
	var req services.CreateBookingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	row, err := bh.bookingService.Create(c.Request.Context(), nil, req)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, row)
}

func (bh *BookingHandler) List(c *gin.Context) {
	rows, err := bh.bookingService.ListForUser(c.Request.Context(), nil)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"bookings": rows})
}

func (bh *BookingHandler) transition(c *gin.Context, actor string) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	row, err := bh.bookingService.Transition(c.Request.Context(), nil, services.TransitionBookingInput{
		BookingID: id,
		ToStatus:  req.Status,
		Actor:     actor,
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, row)
}

// CustomerTransition handles confirm-type moves by the booking owner.
func (bh *BookingHandler) CustomerTransition(c *gin.Context) {
	bh.transition(c, booking.ActorCustomer)
}

// PartnerTransition handles accept/alternate/reject moves by the shop.
func (bh *BookingHandler) PartnerTransition(c *gin.Context) {
	bh.transition(c, booking.ActorPartner)
}
