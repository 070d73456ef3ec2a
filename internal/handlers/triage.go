package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/drivewise/drivewise-backend/internal/services"
)

type TriageHandler struct {
	triageService services.TriageService
	causesService services.CausesService
}

func NewTriageHandler(triageService services.TriageService, causesService services.CausesService) *TriageHandler {
	return &TriageHandler{triageService: triageService, causesService: causesService}
}

// Preview lets clients see the decision for an arbitrary code without
// persisting anything.
func (th *TriageHandler) Preview(c *gin.Context) {
	var req services.TriagePreviewInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	decision, err := th.triageService.Preview(c.Request.Context(), nil, req)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, decision)
}

func (th *TriageHandler) ResolveForEvent(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	decision, _, err := th.triageService.ResolveForEvent(c.Request.Context(), nil, id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, decision)
}

func (th *TriageHandler) LikelyCauses(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	causes, err := th.causesService.RankForEvent(c.Request.Context(), nil, id)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"causes": causes})
}
