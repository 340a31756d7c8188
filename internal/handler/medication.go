package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/healthmate/internal/service"
	"github.com/vcscsvcscs/healthmate/pkg/api"
	"github.com/vcscsvcscs/healthmate/pkg/model"
)

// MedicationHandler implements medication API endpoints
type MedicationHandler struct {
	engine *service.MedicationEngine
	logger *zap.Logger
}

// NewMedicationHandler creates a new MedicationHandler
func NewMedicationHandler(engine *service.MedicationEngine, logger *zap.Logger) *MedicationHandler {
	return &MedicationHandler{
		engine: engine,
		logger: logger,
	}
}

// GetApiV1Medications lists medications split into active and completed
func (h *MedicationHandler) GetApiV1Medications(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Views())
}

// PostApiV1Medications adds a medication
func (h *MedicationHandler) PostApiV1Medications(c *gin.Context) {
	var req api.CreateMedicationRequest
	if !bindJSON(c, h.logger, "CreateMedicationRequest", &req) {
		return
	}

	med, err := h.engine.AddMedication(c.Request.Context(), service.MedicationInput{
		Name:         req.Name,
		Dosage:       req.Dosage,
		Frequency:    model.Frequency(req.Frequency),
		PrescribedBy: req.PrescribedBy,
		StartDate:    datePtrToModel(req.StartDate),
		EndDate:      datePtrToModel(req.EndDate),
		Instructions: req.Instructions,
	})
	if err != nil {
		respondError(c, "Failed to add medication", err)
		return
	}

	c.JSON(http.StatusCreated, med)
}

// PostApiV1MedicationsRefresh reloads medications from the backend
func (h *MedicationHandler) PostApiV1MedicationsRefresh(c *gin.Context) {
	if err := h.engine.Refresh(c.Request.Context()); err != nil {
		respondError(c, "Failed to load medications", err)
		return
	}
	c.JSON(http.StatusOK, h.engine.Views())
}

// DeleteApiV1MedicationsId deletes a medication
func (h *MedicationHandler) DeleteApiV1MedicationsId(c *gin.Context, id string) {
	if err := h.engine.DeleteMedication(c.Request.Context(), id); err != nil {
		respondError(c, "Failed to delete medication", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PostApiV1MedicationsIdDoses records one dose
func (h *MedicationHandler) PostApiV1MedicationsIdDoses(c *gin.Context, id string) {
	taken, err := h.engine.MarkDoseTaken(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Failed to record dose", err)
		return
	}
	c.JSON(http.StatusOK, api.DoseResponse{MedicationID: id, DosesTaken: taken})
}

// DeleteApiV1MedicationsIdDoses undoes one dose
func (h *MedicationHandler) DeleteApiV1MedicationsIdDoses(c *gin.Context, id string) {
	taken, err := h.engine.MarkDoseUntaken(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Failed to undo dose", err)
		return
	}
	c.JSON(http.StatusOK, api.DoseResponse{MedicationID: id, DosesTaken: taken})
}
