package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/healthmate/internal/pdf"
	"github.com/vcscsvcscs/healthmate/internal/service"
	"github.com/vcscsvcscs/healthmate/pkg/api"
)

// ReportHandler implements the PDF report endpoint
type ReportHandler struct {
	metrics   *service.MetricStore
	engine    *service.MedicationEngine
	sessions  *service.SessionManager
	generator *pdf.PDFGenerator
	now       func() time.Time
	logger    *zap.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(
	metrics *service.MetricStore,
	engine *service.MedicationEngine,
	sessions *service.SessionManager,
	generator *pdf.PDFGenerator,
	logger *zap.Logger,
) *ReportHandler {
	return &ReportHandler{
		metrics:   metrics,
		engine:    engine,
		sessions:  sessions,
		generator: generator,
		now:       time.Now,
		logger:    logger,
	}
}

// GetApiV1Report renders metrics and medication courses as a PDF
func (h *ReportHandler) GetApiV1Report(c *gin.Context) {
	userName := "Guest"
	if current := h.sessions.Current(); current.User != nil {
		userName = current.User.Username
	}

	views := h.engine.Views()
	generatedAt := h.now()

	data, err := h.generator.Generate(&pdf.ReportData{
		UserName:    userName,
		GeneratedAt: generatedAt,
		Metrics:     h.metrics.Metrics(),
		Active:      views.Active,
		Completed:   views.Completed,
	})
	if err != nil {
		h.logger.Error("failed to generate report", zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Code:    api.CodeInternal,
			Message: "Failed to generate report",
			Details: stringPtr(err.Error()),
		})
		return
	}

	filename := fmt.Sprintf("health-report-%s.pdf", generatedAt.Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}
