package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/healthmate/internal/service"
	"github.com/vcscsvcscs/healthmate/pkg/api"
)

// AuthHandler implements session API endpoints
type AuthHandler struct {
	sessions *service.SessionManager
	logger   *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(sessions *service.SessionManager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// PostApiV1AuthSignin signs in against the backend
func (h *AuthHandler) PostApiV1AuthSignin(c *gin.Context) {
	var req api.SignInRequest
	if !bindJSON(c, h.logger, "SignInRequest", &req) {
		return
	}

	user, err := h.sessions.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, "Sign in failed", err)
		return
	}

	c.JSON(http.StatusOK, api.SessionResponse{IsAuthenticated: true, User: user})
}

// PostApiV1AuthSignup registers and signs in
func (h *AuthHandler) PostApiV1AuthSignup(c *gin.Context) {
	var req api.SignUpRequest
	if !bindJSON(c, h.logger, "SignUpRequest", &req) {
		return
	}

	user, err := h.sessions.Register(c.Request.Context(), service.SignUpInput{
		FullName:        req.FullName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		DateOfBirth:     dateToModel(req.DateOfBirth).String(),
	})
	if err != nil {
		respondError(c, "Sign up failed", err)
		return
	}

	c.JSON(http.StatusCreated, api.SessionResponse{IsAuthenticated: true, User: user})
}

// PostApiV1AuthSignout clears the session
func (h *AuthHandler) PostApiV1AuthSignout(c *gin.Context) {
	h.sessions.Logout(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// GetApiV1AuthMe returns the current session without its token
func (h *AuthHandler) GetApiV1AuthMe(c *gin.Context) {
	current := h.sessions.Current()
	c.JSON(http.StatusOK, api.SessionResponse{IsAuthenticated: current.IsAuthenticated, User: current.User})
}

// PutApiV1AuthMe updates the signed-in user's profile fields
func (h *AuthHandler) PutApiV1AuthMe(c *gin.Context) {
	var req api.UpdateProfileRequest
	if !bindJSON(c, h.logger, "UpdateProfileRequest", &req) {
		return
	}

	user, err := h.sessions.UpdateProfile(c.Request.Context(), service.ProfileUpdate{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		respondError(c, "Failed to update profile", err)
		return
	}

	c.JSON(http.StatusOK, user)
}
