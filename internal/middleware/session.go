package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/healthmate/pkg/api"
	"github.com/vcscsvcscs/healthmate/pkg/model"
)

// Sessions is the part of the session manager the guard needs
type Sessions interface {
	Current() model.AuthSession
	Valid(now time.Time) bool
	Invalidate(ctx context.Context, reason string)
}

// RequireSession rejects requests without a usable session. An expired
// token clears the session before answering.
func RequireSession(sessions Sessions, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		current := sessions.Current()
		if !current.IsAuthenticated || current.User == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{
				Code:    api.CodeUnauthorized,
				Message: "Sign in required",
			})
			return
		}

		if !sessions.Valid(time.Now()) {
			sessions.Invalidate(c.Request.Context(), "access token expired")
			logger.Info("rejected request with expired session",
				zap.Int64("user_id", current.User.ID),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{
				Code:    api.CodeSessionExpired,
				Message: "Your session has expired. Please sign in again.",
			})
			return
		}

		c.Set(ContextUserID, strconv.FormatInt(current.User.ID, 10))
		c.Next()
	}
}
