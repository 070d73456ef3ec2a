package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/drivewise/drivewise-backend/internal/services"
)

type VehicleHandler struct {
	vehicleService services.VehicleService
}

func NewVehicleHandler(vehicleService services.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService}
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return uuid.Nil, false
	}
	return id, true
}

func (vh *VehicleHandler) Create(c *gin.Context) {
	var req services.CreateVehicleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	vehicle, err := vh.vehicleService.Create(c.Request.Context(), nil, req)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, vehicle)
}

func (vh *VehicleHandler) List(c *gin.Context) {
	vehicles, err := vh.vehicleService.List(c.Request.Context(), nil)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"vehicles": vehicles})
}

func (vh *VehicleHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	vehicle, err := vh.vehicleService.Get(c.Request.Context(), nil, id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, vehicle)
}

func (vh *VehicleHandler) Timeline(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	events, err := vh.vehicleService.Timeline(c.Request.Context(), nil, id, limit)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"events": events})
}

func (vh *VehicleHandler) ClearDTCs(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Codes []string `json:"codes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	events, err := vh.vehicleService.ClearDTCs(c.Request.Context(), nil, id, req.Codes)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"events": events})
}
