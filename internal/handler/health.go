package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/healthmate/internal/service"
	"github.com/vcscsvcscs/healthmate/pkg/api"
	"github.com/vcscsvcscs/healthmate/pkg/model"
)

// HealthHandler implements service health and backend status endpoints
type HealthHandler struct {
	status *service.StatusService
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(status *service.StatusService, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		status: status,
		logger: logger,
	}
}

// GetHealth reports liveness together with the last known backend status.
// A degraded backend does not make this service unhealthy.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, api.ServiceHealthResponse{
		Status:  "healthy",
		Backend: h.status.Last().Status,
	})
}

// GetOpenapiYaml serves the embedded API document
func (h *HealthHandler) GetOpenapiYaml(c *gin.Context) {
	c.Data(http.StatusOK, "application/yaml", api.Document())
}

// GetApiV1Status probes the backend and returns its status with the banner text
func (h *HealthHandler) GetApiV1Status(c *gin.Context) {
	report := h.status.Check(c.Request.Context())

	resp := api.StatusResponse{
		Status:    report.Status,
		CheckedAt: report.CheckedAt,
	}
	if report.Status != model.BackendOK && report.Banner != "" {
		resp.Banner = stringPtr(report.Banner)
	}

	c.JSON(http.StatusOK, resp)
}
