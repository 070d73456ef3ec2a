package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drivewise/drivewise-backend/internal/services"
)

type RecommendationHandler struct {
	recommendationService services.RecommendationService
}

func NewRecommendationHandler(recommendationService services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recommendationService: recommendationService}
}

func (rh *RecommendationHandler) Generate(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	rec, err := rh.recommendationService.GenerateForEvent(c.Request.Context(), nil, id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, rec)
}

func (rh *RecommendationHandler) GetLatest(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	rec, err := rh.recommendationService.GetLatestActiveForEvent(c.Request.Context(), nil, id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, rec)
}

// SetActive is admin-only; the service enforces the gate.
func (rh *RecommendationHandler) SetActive(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	rec, err := rh.recommendationService.SetActive(c.Request.Context(), nil, id, *req.IsActive)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, rec)
}
