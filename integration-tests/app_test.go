package integration_tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/healthmate/internal/backend"
	"github.com/vcscsvcscs/healthmate/internal/handler"
	"github.com/vcscsvcscs/healthmate/internal/middleware"
	"github.com/vcscsvcscs/healthmate/internal/pdf"
	"github.com/vcscsvcscs/healthmate/internal/repository"
	"github.com/vcscsvcscs/healthmate/internal/security"
	"github.com/vcscsvcscs/healthmate/internal/service"
	"github.com/vcscsvcscs/healthmate/pkg/api"
)

const (
	testUser     = "alice"
	testPassword = "password123"
)

// app is the full HTTP stack over a given state backend
type app struct {
	router *gin.Engine
}

func newApp(t *testing.T, kv repository.KV, backendURL string) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx := context.Background()
	logger := zap.NewNop()

	enc, err := security.NewEncryptor([]byte(strings.Repeat("s", 32)))
	require.NoError(t, err)

	store := repository.NewStore(kv, logger)
	client := backend.NewClient(backendURL, "/api", time.Second, logger)

	sessions := service.NewSessionManager(ctx, client, store, enc, logger)
	client.SetTokenSource(sessions)

	metrics := service.NewMetricStore(ctx, store, logger)
	engine := service.NewMedicationEngine(ctx, client, store, logger)
	engine.SetSessionInvalidator(sessions)
	checker := service.NewSymptomChecker(client, metrics, sessions, logger)
	chat := service.NewChatService(service.NewBackendChatProvider(client), sessions, logger)
	prefs := service.NewPreferenceService(ctx, store, logger)
	status := service.NewStatusService(client, logger)
	sessions.OnChange(service.SessionSync(engine, chat, logger))

	apiHandler := &handler.APIHandler{
		HealthHandler:     handler.NewHealthHandler(status, logger),
		AuthHandler:       handler.NewAuthHandler(sessions, logger),
		MetricsHandler:    handler.NewMetricsHandler(metrics, logger),
		MedicationHandler: handler.NewMedicationHandler(engine, logger),
		SymptomHandler:    handler.NewSymptomHandler(checker, logger),
		ChatHandler:       handler.NewChatHandler(chat, logger),
		PreferenceHandler: handler.NewPreferenceHandler(prefs, logger),
		ReportHandler:     handler.NewReportHandler(metrics, engine, sessions, pdf.NewPDFGenerator(logger), logger),
	}

	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.ErrorLoggingMiddleware(logger))
	api.RegisterHandlersWithOptions(router, apiHandler, api.Options{
		Authenticated: middleware.RequireSession(sessions, logger),
	})

	return &app{router: router}
}

func (a *app) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *app) signIn(t *testing.T) {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/auth/signin", map[string]string{
		"username": testUser,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
