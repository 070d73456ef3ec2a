package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/drivewise/drivewise-backend/internal/services"
)

type SessionHandler struct {
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

func (sh *SessionHandler) Open(c *gin.Context) {
	var req struct {
		VehicleID uuid.UUID `json:"vehicle_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	session, err := sh.sessionService.Open(c.Request.Context(), nil, req.VehicleID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, session)
}

func (sh *SessionHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	session, err := sh.sessionService.Get(c.Request.Context(), nil, id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, session)
}

func (sh *SessionHandler) Close(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	session, err := sh.sessionService.Close(c.Request.Context(), nil, id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, session)
}

func (sh *SessionHandler) Events(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	events, err := sh.sessionService.Events(c.Request.Context(), nil, id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"events": events})
}
