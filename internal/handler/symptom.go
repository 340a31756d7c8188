package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/healthmate/internal/service"
	"github.com/vcscsvcscs/healthmate/pkg/api"
	"github.com/vcscsvcscs/healthmate/pkg/model"
)

// SymptomHandler implements symptom checker API endpoints
type SymptomHandler struct {
	checker *service.SymptomChecker
	logger  *zap.Logger
}

// NewSymptomHandler creates a new SymptomHandler
func NewSymptomHandler(checker *service.SymptomChecker, logger *zap.Logger) *SymptomHandler {
	return &SymptomHandler{
		checker: checker,
		logger:  logger,
	}
}

// GetApiV1SymptomsCatalogue returns the symptom catalogue, filtered by q when given
func (h *SymptomHandler) GetApiV1SymptomsCatalogue(c *gin.Context, params api.GetApiV1SymptomsCatalogueParams) {
	matches := service.SearchSymptoms(derefString(params.Q))
	if matches == nil {
		matches = []string{}
	}
	c.JSON(http.StatusOK, api.SymptomCatalogueResponse{
		Common:    service.CommonSymptoms,
		Matches:   matches,
		BodyParts: service.BodyParts,
	})
}

// PostApiV1SymptomsAssess runs a symptom analysis
func (h *SymptomHandler) PostApiV1SymptomsAssess(c *gin.Context) {
	var req api.AssessSymptomsRequest
	if !bindJSON(c, h.logger, "AssessSymptomsRequest", &req) {
		return
	}

	symptoms := make([]model.Symptom, 0, len(req.Symptoms))
	for _, entry := range req.Symptoms {
		s := service.SelectSymptom(entry.Name)
		if entry.Severity != nil {
			s.Severity = model.Severity(*entry.Severity)
		}
		if entry.BodyPart != nil {
			s.BodyPart = *entry.BodyPart
		}
		symptoms = append(symptoms, s)
	}

	result, err := h.checker.Analyze(c.Request.Context(), symptoms)
	if err != nil {
		respondError(c, service.AnalysisFailureMessage(err), err)
		return
	}

	c.JSON(http.StatusOK, result)
}
