package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/healthmate/internal/service"
	"github.com/vcscsvcscs/healthmate/pkg/api"
	"github.com/vcscsvcscs/healthmate/pkg/model"
)

// MetricsHandler implements health metric API endpoints
type MetricsHandler struct {
	metrics *service.MetricStore
	logger  *zap.Logger
}

// NewMetricsHandler creates a new MetricsHandler
func NewMetricsHandler(metrics *service.MetricStore, logger *zap.Logger) *MetricsHandler {
	return &MetricsHandler{
		metrics: metrics,
		logger:  logger,
	}
}

// GetApiV1Metrics lists the metric collection
func (h *MetricsHandler) GetApiV1Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Metrics())
}

// PutApiV1MetricsIdValue sets a metric value
func (h *MetricsHandler) PutApiV1MetricsIdValue(c *gin.Context, id string) {
	var req api.MetricValueRequest
	if !bindJSON(c, h.logger, "MetricValueRequest", &req) {
		return
	}

	if !h.metrics.UpdateMetric(c.Request.Context(), id, req.Value) {
		h.notFound(c, id)
		return
	}
	h.respondMetric(c, id)
}

// PutApiV1MetricsIdTarget sets or clears a metric target
func (h *MetricsHandler) PutApiV1MetricsIdTarget(c *gin.Context, id string) {
	var req api.MetricTargetRequest
	if !bindJSON(c, h.logger, "MetricTargetRequest", &req) {
		return
	}

	if !h.metrics.UpdateTarget(c.Request.Context(), id, req.Target) {
		h.notFound(c, id)
		return
	}
	h.respondMetric(c, id)
}

// PostApiV1MetricsHydrationIncrement adds a glass of water
func (h *MetricsHandler) PostApiV1MetricsHydrationIncrement(c *gin.Context) {
	h.byName(c, model.MetricHydration, h.metrics.IncrementHydration(c.Request.Context()))
}

// PostApiV1MetricsHydrationDecrement removes a glass of water
func (h *MetricsHandler) PostApiV1MetricsHydrationDecrement(c *gin.Context) {
	h.byName(c, model.MetricHydration, h.metrics.DecrementHydration(c.Request.Context()))
}

// PostApiV1MetricsSymptomChecksIncrement counts a symptom check
func (h *MetricsHandler) PostApiV1MetricsSymptomChecksIncrement(c *gin.Context) {
	h.byName(c, model.MetricSymptomChecks, h.metrics.IncrementSymptomChecks(c.Request.Context()))
}

// PutApiV1MetricsSleepQuality sets the sleep quality value
func (h *MetricsHandler) PutApiV1MetricsSleepQuality(c *gin.Context) {
	var req api.MetricValueRequest
	if !bindJSON(c, h.logger, "MetricValueRequest", &req) {
		return
	}
	h.byName(c, model.MetricSleepQuality, h.metrics.UpdateSleepQuality(c.Request.Context(), req.Value))
}

// GetApiV1Achievements lists recent target achievements
func (h *MetricsHandler) GetApiV1Achievements(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Achievements())
}

func (h *MetricsHandler) respondMetric(c *gin.Context, id string) {
	m, ok := h.metrics.Metric(id)
	if !ok {
		h.notFound(c, id)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *MetricsHandler) byName(c *gin.Context, name string, found bool) {
	if found {
		for _, m := range h.metrics.Metrics() {
			if m.Name == name {
				c.JSON(http.StatusOK, m)
				return
			}
		}
	}
	h.notFound(c, name)
}

func (h *MetricsHandler) notFound(c *gin.Context, metric string) {
	c.JSON(http.StatusNotFound, api.ErrorResponse{
		Code:    api.CodeNotFound,
		Message: "Metric not found",
		Details: stringPtr(metric),
	})
}
