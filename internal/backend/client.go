package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vcscsvcscs/healthmate/pkg/model"
)

// ErrUnauthorized is wrapped by errors for 401 and 403 responses on
// bearer-protected routes. The caller must invalidate the local session.
var ErrUnauthorized = errors.New("backend rejected the session credential")

// ErrUnavailable is wrapped by transport failures and unreadable responses
var ErrUnavailable = errors.New("backend unavailable")

// APIError is a non-2xx response from the backend
type APIError struct {
	StatusCode int
	Detail     string

	// sessionRejected is set for 401/403 on bearer-protected routes
	sessionRejected bool
}

func (e *APIError) Error() string {
	return e.Detail
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match authorization failures
func (e *APIError) Unwrap() error {
	if e.sessionRejected {
		return ErrUnauthorized
	}
	return nil
}

// TokenSource provides the bearer credential for protected routes
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Client talks to the remote HealthMate backend over HTTP/JSON
type Client struct {
	baseURL       string
	authPrefix    string
	httpClient    *http.Client
	healthTimeout time.Duration
	tokens        TokenSource
	logger        *zap.Logger
}

// NewClient creates a backend client. authPrefix is the path under which the
// signin and signup routes are mounted.
func NewClient(baseURL, authPrefix string, healthTimeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		authPrefix:    "/" + strings.Trim(authPrefix, "/"),
		httpClient:    &http.Client{},
		healthTimeout: healthTimeout,
		tokens:        TokenFunc(func() string { return "" }),
		logger:        logger,
	}
}

// SetTokenSource sets where bearer credentials come from
func (c *Client) SetTokenSource(tokens TokenSource) {
	c.tokens = tokens
}

// SignInRequest is the body of POST /signin
type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignInResponse is returned by POST /signin
type SignInResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
}

// SignUpRequest is the body of POST /signup
type SignUpRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth"`
}

// SignUpResponse is returned by POST /signup
type SignUpResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
	UserID      int64  `json:"user_id"`
	AccessToken string `json:"access_token,omitempty"`
}

// CreateMedicationRequest is the body of POST /api/medications
type CreateMedicationRequest struct {
	Name         string          `json:"name"`
	Dosage       string          `json:"dosage"`
	Frequency    model.Frequency `json:"frequency"`
	PrescribedBy string          `json:"prescribedBy"`
	StartDate    model.Date      `json:"startDate"`
	EndDate      *model.Date     `json:"endDate,omitempty"`
	TotalDoses   int             `json:"totalDoses"`
	Instructions *string         `json:"instructions,omitempty"`
}

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	Message       string              `json:"message"`
	AgentType     model.AgentType     `json:"agent_type"`
	ResponseStyle model.ResponseStyle `json:"response_style"`
}

// ChatResponse is returned by POST /api/chat
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id,omitempty"`
}

type medicationsResponse struct {
	Medications []model.Medication `json:"medications"`
}

type createMedicationResponse struct {
	Success    bool             `json:"success"`
	Medication model.Medication `json:"medication"`
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type assessRequest struct {
	Symptoms []model.Symptom `json:"symptoms"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// SignIn exchanges credentials for an access token. Failures are never retried.
func (c *Client) SignIn(ctx context.Context, req SignInRequest) (*SignInResponse, error) {
	var resp SignInResponse
	if err := c.do(ctx, http.MethodPost, c.authPrefix+"/signin", req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SignUp registers a new account
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*SignUpResponse, error) {
	var resp SignUpResponse
	if err := c.do(ctx, http.MethodPost, c.authPrefix+"/signup", req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListMedications returns the medications of the signed-in user
func (c *Client) ListMedications(ctx context.Context) ([]model.Medication, error) {
	var resp medicationsResponse
	if err := c.do(ctx, http.MethodGet, "/api/medications", nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Medications, nil
}

// CreateMedication stores a new medication and returns the server copy
func (c *Client) CreateMedication(ctx context.Context, req CreateMedicationRequest) (*model.Medication, error) {
	var resp createMedicationResponse
	if err := c.do(ctx, http.MethodPost, "/api/medications", req, &resp, true); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &APIError{StatusCode: http.StatusOK, Detail: "Failed to add medication"}
	}
	return &resp.Medication, nil
}

// DeleteMedication removes a medication
func (c *Client) DeleteMedication(ctx context.Context, id string) error {
	var resp deleteResponse
	path := "/api/medications/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodDelete, path, nil, &resp, true); err != nil {
		return err
	}
	if !resp.Success {
		return &APIError{StatusCode: http.StatusOK, Detail: "Failed to delete medication"}
	}
	return nil
}

// AssessSymptoms sends symptoms for analysis. Every section of the result is optional.
func (c *Client) AssessSymptoms(ctx context.Context, symptoms []model.Symptom) (*model.Assessment, error) {
	var resp model.Assessment
	if err := c.do(ctx, http.MethodPost, "/api/assess-symptoms", assessRequest{Symptoms: symptoms}, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Chat sends a message to the chat agent
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var resp ChatResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat", req, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health probes GET /health, bounded by the configured health timeout
func (c *Client) Health(ctx context.Context) model.BackendStatus {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	var resp healthResponse
	err := c.do(ctx, http.MethodGet, "/health", nil, &resp, false)
	switch {
	case err == nil && resp.Status == string(model.BackendOK):
		return model.BackendOK
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		c.logger.Warn("backend health check timed out", zap.Duration("timeout", c.healthTimeout))
		return model.BackendTimeout
	default:
		c.logger.Warn("backend unavailable", zap.Error(err), zap.String("status", resp.Status))
		return model.BackendUnavailable
	}
}

// do performs a JSON request and decodes a 2xx response into out
func (c *Client) do(ctx context.Context, method, path string, body, out any, authenticated bool) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("backend request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", ErrUnavailable, err)
	}

	c.logger.Debug("backend request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode:      resp.StatusCode,
			Detail:          errorDetail(resp, data),
			sessionRejected: authenticated && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", ErrUnavailable, err)
	}
	return nil
}

// errorDetail extracts the backend's detail message, falling back to the status line
func errorDetail(resp *http.Response, data []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err == nil && len(body.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(body.Detail, &detail); err == nil && detail != "" {
			return detail
		}
		// Validation errors carry a structured detail
		return string(body.Detail)
	}
	return fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}
