package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/healthmate/internal/service"
	"github.com/vcscsvcscs/healthmate/pkg/api"
	"github.com/vcscsvcscs/healthmate/pkg/model"
)

// PreferenceHandler implements display preference endpoints
type PreferenceHandler struct {
	prefs  *service.PreferenceService
	logger *zap.Logger
}

// NewPreferenceHandler creates a new PreferenceHandler
func NewPreferenceHandler(prefs *service.PreferenceService, logger *zap.Logger) *PreferenceHandler {
	return &PreferenceHandler{
		prefs:  prefs,
		logger: logger,
	}
}

func (h *PreferenceHandler) GetApiV1PreferencesTheme(c *gin.Context) {
	c.JSON(http.StatusOK, api.ThemeResponse{Theme: h.prefs.Theme()})
}

func (h *PreferenceHandler) PutApiV1PreferencesTheme(c *gin.Context) {
	var req api.ThemeRequest
	if !bindJSON(c, h.logger, "ThemeRequest", &req) {
		return
	}

	if err := h.prefs.SetTheme(c.Request.Context(), model.Theme(req.Theme)); err != nil {
		respondError(c, "Invalid theme", err)
		return
	}
	c.JSON(http.StatusOK, api.ThemeResponse{Theme: h.prefs.Theme()})
}

func (h *PreferenceHandler) PostApiV1PreferencesThemeToggle(c *gin.Context) {
	var req api.ToggleThemeRequest
	if !bindOptionalJSON(c, h.logger, "ToggleThemeRequest", &req) {
		return
	}
	c.JSON(http.StatusOK, api.ThemeResponse{Theme: h.prefs.ToggleTheme(c.Request.Context(), req.SystemDark)})
}
