package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime/types"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/healthmate/internal/backend"
	"github.com/vcscsvcscs/healthmate/internal/service"
	"github.com/vcscsvcscs/healthmate/pkg/api"
	"github.com/vcscsvcscs/healthmate/pkg/model"
)

// stringPtr creates a pointer to a string
func stringPtr(s string) *string {
	return &s
}

// derefString safely dereferences a string pointer, returning empty string if nil
func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// dateToModel converts types.Date to a calendar date
func dateToModel(d types.Date) model.Date {
	return model.DateOf(d.Time)
}

// datePtrToModel converts *types.Date to *model.Date
func datePtrToModel(d *types.Date) *model.Date {
	if d == nil {
		return nil
	}
	date := dateToModel(*d)
	return &date
}

// bindJSON validates the body against a schema of the API document and
// decodes it into dst. It answers 400 and returns false on failure.
func bindJSON(c *gin.Context, logger *zap.Logger, schema string, dst any) bool {
	body, err := io.ReadAll(c.Request.Body)
	if err == nil {
		err = api.ValidateBody(schema, body)
	}
	if err == nil {
		err = json.Unmarshal(body, dst)
	}
	if err != nil {
		logger.Warn("invalid request body", zap.Error(err), zap.String("schema", schema))
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Code:    api.CodeValidation,
			Message: "Invalid request body",
			Details: stringPtr(err.Error()),
		})
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for bodies that may be left out
func bindOptionalJSON(c *gin.Context, logger *zap.Logger, schema string, dst any) bool {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		return true
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	return bindJSON(c, logger, schema, dst)
}

// classify maps an error to its HTTP status and error code
func classify(err error) (int, string) {
	var validationErr *service.ValidationError
	var apiErr *backend.APIError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, api.CodeValidation
	case errors.Is(err, service.ErrNotAuthenticated):
		return http.StatusUnauthorized, api.CodeUnauthorized
	case errors.Is(err, backend.ErrUnauthorized):
		return http.StatusUnauthorized, api.CodeSessionExpired
	case errors.Is(err, service.ErrNoDosesRemaining):
		return http.StatusConflict, api.CodeCourseComplete
	case errors.As(err, &apiErr):
		switch apiErr.StatusCode {
		case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
			return http.StatusBadRequest, api.CodeValidation
		case http.StatusUnauthorized, http.StatusForbidden:
			return http.StatusUnauthorized, api.CodeUnauthorized
		case http.StatusNotFound:
			return http.StatusNotFound, api.CodeNotFound
		}
		return http.StatusBadGateway, api.CodeBackend
	case errors.Is(err, backend.ErrUnavailable):
		return http.StatusBadGateway, api.CodeBackend
	default:
		return http.StatusInternalServerError, api.CodeInternal
	}
}

// respondError writes the standard error body for err. Validation failures
// use their own message.
func respondError(c *gin.Context, message string, err error) {
	status, code := classify(err)

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		message = validationErr.Message
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}

	c.JSON(status, api.ErrorResponse{
		Code:    code,
		Message: message,
		Details: stringPtr(err.Error()),
	})
}
