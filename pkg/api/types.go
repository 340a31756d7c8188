package api

import (
	"time"

	"github.com/oapi-codegen/runtime/types"

	"github.com/vcscsvcscs/healthmate/pkg/model"
)

// ErrorResponse is the standard error body
type ErrorResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Details *string `json:"details,omitempty"`
}

// Error codes
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeSessionExpired = "SESSION_EXPIRED"
	CodeNotFound       = "NOT_FOUND"
	CodeCourseComplete = "COURSE_COMPLETE"
	CodeBackend        = "BACKEND_ERROR"
	CodeInternal       = "INTERNAL_ERROR"
)

// ServiceHealthResponse is the body of GET /health
type ServiceHealthResponse struct {
	Status  string              `json:"status"`
	Backend model.BackendStatus `json:"backend"`
}

// SignInRequest defines model for SignInRequest
type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignUpRequest defines model for SignUpRequest
type SignUpRequest struct {
	FullName        string     `json:"fullName"`
	Email           string     `json:"email"`
	Password        string     `json:"password"`
	ConfirmPassword string     `json:"confirmPassword"`
	DateOfBirth     types.Date `json:"dateOfBirth"`
}

// UpdateProfileRequest defines model for UpdateProfileRequest
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// SessionResponse defines model for SessionResponse
type SessionResponse struct {
	IsAuthenticated bool            `json:"isAuthenticated"`
	User            *model.AuthUser `json:"user"`
}

// MetricValueRequest defines model for MetricValueRequest
type MetricValueRequest struct {
	Value float64 `json:"value"`
}

// MetricTargetRequest defines model for MetricTargetRequest. A null target clears the goal.
type MetricTargetRequest struct {
	Target *float64 `json:"target"`
}

// CreateMedicationRequest defines model for CreateMedicationRequest
type CreateMedicationRequest struct {
	Name         string      `json:"name"`
	Dosage       string      `json:"dosage"`
	Frequency    string      `json:"frequency"`
	PrescribedBy string      `json:"prescribedBy"`
	StartDate    *types.Date `json:"startDate,omitempty"`
	EndDate      *types.Date `json:"endDate,omitempty"`
	Instructions *string     `json:"instructions,omitempty"`
}

// DoseResponse defines model for DoseResponse
type DoseResponse struct {
	MedicationID string `json:"medicationId"`
	DosesTaken   int    `json:"dosesTaken"`
}

// SymptomEntry defines model for SymptomEntry
type SymptomEntry struct {
	Name     string  `json:"name"`
	Severity *string `json:"severity,omitempty"`
	BodyPart *string `json:"bodyPart,omitempty"`
}

// AssessSymptomsRequest defines model for AssessSymptomsRequest
type AssessSymptomsRequest struct {
	Symptoms []SymptomEntry `json:"symptoms"`
}

// SymptomCatalogueResponse defines model for SymptomCatalogueResponse
type SymptomCatalogueResponse struct {
	Common    []string `json:"common"`
	Matches   []string `json:"matches"`
	BodyParts []string `json:"bodyParts"`
}

// ChatRequest defines model for ChatRequest
type ChatRequest struct {
	Message       string  `json:"message"`
	AgentType     *string `json:"agentType,omitempty"`
	ResponseStyle *string `json:"responseStyle,omitempty"`
}

// Agent defines model for Agent
type Agent struct {
	ID   model.AgentType `json:"id"`
	Name string          `json:"name"`
}

// ChatHistoryResponse defines model for ChatHistoryResponse
type ChatHistoryResponse struct {
	Messages []model.ChatMessage `json:"messages"`
	Agents   []Agent             `json:"agents"`
}

// ThemeRequest defines model for ThemeRequest
type ThemeRequest struct {
	Theme string `json:"theme"`
}

// ToggleThemeRequest defines model for ToggleThemeRequest
type ToggleThemeRequest struct {
	SystemDark bool `json:"systemDark"`
}

// ThemeResponse defines model for ThemeResponse
type ThemeResponse struct {
	Theme model.Theme `json:"theme"`
}

// StatusResponse defines model for StatusResponse
type StatusResponse struct {
	Status    model.BackendStatus `json:"status"`
	CheckedAt *time.Time          `json:"checkedAt,omitempty"`
	Banner    *string             `json:"banner,omitempty"`
}

// GetApiV1SymptomsCatalogueParams defines parameters for GetApiV1SymptomsCatalogue
type GetApiV1SymptomsCatalogueParams struct {
	Q *string `form:"q,omitempty" json:"q,omitempty"`
}
