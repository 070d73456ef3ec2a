package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/drivewise/drivewise-backend/internal/services"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type KnowledgeHandler struct {
	knowledgeService services.KnowledgeService
}

func NewKnowledgeHandler(knowledgeService services.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{knowledgeService: knowledgeService}
}

// Upsert seeds or replaces a knowledge row. Routed behind the admin gate.
func (kh *KnowledgeHandler) Upsert(c *gin.Context) {
	var req struct {
		Code                string     `json:"code"`
		Category            string     `json:"category,omitempty"`
		DefaultSeverity     string     `json:"default_severity"`
		DefaultDriveability string     `json:"default_driveability"`
		SafetyCritical      bool       `json:"safety_critical"`
		DIYAllowed          bool       `json:"diy_allowed"`
		SummaryTemplate     string     `json:"summary_template,omitempty"`
		Source              string     `json:"source,omitempty"`
		SourceVersion       string     `json:"source_version,omitempty"`
		EffectiveFrom       *time.Time `json:"effective_from,omitempty"`
		EffectiveTo         *time.Time `json:"effective_to,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	row, err := kh.knowledgeService.Upsert(c.Request.Context(), nil, &types.DtcKnowledge{
		Code:                req.Code,
		Category:            req.Category,
		DefaultSeverity:     req.DefaultSeverity,
		DefaultDriveability: req.DefaultDriveability,
		SafetyCritical:      req.SafetyCritical,
		DIYAllowed:          req.DIYAllowed,
		SummaryTemplate:     req.SummaryTemplate,
		Source:              req.Source,
		SourceVersion:       req.SourceVersion,
		EffectiveFrom:       req.EffectiveFrom,
		EffectiveTo:         req.EffectiveTo,
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, row)
}

func (kh *KnowledgeHandler) ListCodes(c *gin.Context) {
	codes, err := kh.knowledgeService.ListCodes(c.Request.Context(), nil)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"codes": codes})
}
