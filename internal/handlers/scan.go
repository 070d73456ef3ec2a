package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/drivewise/drivewise-backend/internal/services"
)

type ScanHandler struct {
	ingestionService services.ScanIngestionService
}

func NewScanHandler(ingestionService services.ScanIngestionService) *ScanHandler {
	return &ScanHandler{ingestionService: ingestionService}
}

func (sh *ScanHandler) Ingest(c *gin.Context) {
	sessionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		UploadID   string                 `json:"upload_id"`
		Readings   []services.ScanReading `json:"readings"`
		CapturedAt *time.Time             `json:"captured_at,omitempty"`
		Source     string                 `json:"source,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	result, err := sh.ingestionService.IngestScan(c.Request.Context(), nil, services.IngestScanInput{
		SessionID:  sessionID,
		UploadID:   req.UploadID,
		Readings:   req.Readings,
		CapturedAt: req.CapturedAt,
		Source:     req.Source,
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, result)
}
