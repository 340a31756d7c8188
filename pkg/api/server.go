package api

import (
	"github.com/gin-gonic/gin"
)

// ServerInterface represents all server handlers
type ServerInterface interface {
	// (GET /health)
	GetHealth(c *gin.Context)
	// (GET /openapi.yaml)
	GetOpenapiYaml(c *gin.Context)
	// (GET /api/v1/status)
	GetApiV1Status(c *gin.Context)

	// (POST /api/v1/auth/signin)
	PostApiV1AuthSignin(c *gin.Context)
	// (POST /api/v1/auth/signup)
	PostApiV1AuthSignup(c *gin.Context)
	// (POST /api/v1/auth/signout)
	PostApiV1AuthSignout(c *gin.Context)
	// (GET /api/v1/auth/me)
	GetApiV1AuthMe(c *gin.Context)
	// (PUT /api/v1/auth/me)
	PutApiV1AuthMe(c *gin.Context)

	// (GET /api/v1/metrics)
	GetApiV1Metrics(c *gin.Context)
	// (PUT /api/v1/metrics/{id}/value)
	PutApiV1MetricsIdValue(c *gin.Context, id string)
	// (PUT /api/v1/metrics/{id}/target)
	PutApiV1MetricsIdTarget(c *gin.Context, id string)
	// (POST /api/v1/metrics/hydration/increment)
	PostApiV1MetricsHydrationIncrement(c *gin.Context)
	// (POST /api/v1/metrics/hydration/decrement)
	PostApiV1MetricsHydrationDecrement(c *gin.Context)
	// (POST /api/v1/metrics/symptom-checks/increment)
	PostApiV1MetricsSymptomChecksIncrement(c *gin.Context)
	// (PUT /api/v1/metrics/sleep-quality)
	PutApiV1MetricsSleepQuality(c *gin.Context)
	// (GET /api/v1/achievements)
	GetApiV1Achievements(c *gin.Context)

	// (GET /api/v1/medications)
	GetApiV1Medications(c *gin.Context)
	// (POST /api/v1/medications)
	PostApiV1Medications(c *gin.Context)
	// (POST /api/v1/medications/refresh)
	PostApiV1MedicationsRefresh(c *gin.Context)
	// (DELETE /api/v1/medications/{id})
	DeleteApiV1MedicationsId(c *gin.Context, id string)
	// (POST /api/v1/medications/{id}/doses)
	PostApiV1MedicationsIdDoses(c *gin.Context, id string)
	// (DELETE /api/v1/medications/{id}/doses)
	DeleteApiV1MedicationsIdDoses(c *gin.Context, id string)

	// (GET /api/v1/symptoms/catalogue)
	GetApiV1SymptomsCatalogue(c *gin.Context, params GetApiV1SymptomsCatalogueParams)
	// (POST /api/v1/symptoms/assess)
	PostApiV1SymptomsAssess(c *gin.Context)

	// (GET /api/v1/chat)
	GetApiV1Chat(c *gin.Context)
	// (POST /api/v1/chat)
	PostApiV1Chat(c *gin.Context)
	// (DELETE /api/v1/chat)
	DeleteApiV1Chat(c *gin.Context)

	// (GET /api/v1/preferences/theme)
	GetApiV1PreferencesTheme(c *gin.Context)
	// (PUT /api/v1/preferences/theme)
	PutApiV1PreferencesTheme(c *gin.Context)
	// (POST /api/v1/preferences/theme/toggle)
	PostApiV1PreferencesThemeToggle(c *gin.Context)

	// (GET /api/v1/report)
	GetApiV1Report(c *gin.Context)
}

// Options customizes route registration
type Options struct {
	// Authenticated runs in front of the routes that need a signed-in user
	Authenticated gin.HandlerFunc
}

// RegisterHandlers creates http.Handler with routing matching the API document
func RegisterHandlers(router gin.IRouter, si ServerInterface) {
	RegisterHandlersWithOptions(router, si, Options{})
}

// RegisterHandlersWithOptions registers every route, guarding the protected
// ones with opts.Authenticated when set
func RegisterHandlersWithOptions(router gin.IRouter, si ServerInterface, opts Options) {
	router.GET("/health", si.GetHealth)
	router.GET("/openapi.yaml", si.GetOpenapiYaml)

	v1 := router.Group("/api/v1")
	v1.GET("/status", si.GetApiV1Status)

	v1.POST("/auth/signin", si.PostApiV1AuthSignin)
	v1.POST("/auth/signup", si.PostApiV1AuthSignup)
	v1.POST("/auth/signout", si.PostApiV1AuthSignout)
	v1.GET("/auth/me", si.GetApiV1AuthMe)

	v1.GET("/metrics", si.GetApiV1Metrics)
	v1.PUT("/metrics/:id/value", func(c *gin.Context) { si.PutApiV1MetricsIdValue(c, c.Param("id")) })
	v1.PUT("/metrics/:id/target", func(c *gin.Context) { si.PutApiV1MetricsIdTarget(c, c.Param("id")) })
	v1.POST("/metrics/hydration/increment", si.PostApiV1MetricsHydrationIncrement)
	v1.POST("/metrics/hydration/decrement", si.PostApiV1MetricsHydrationDecrement)
	v1.POST("/metrics/symptom-checks/increment", si.PostApiV1MetricsSymptomChecksIncrement)
	v1.PUT("/metrics/sleep-quality", si.PutApiV1MetricsSleepQuality)
	v1.GET("/achievements", si.GetApiV1Achievements)

	v1.GET("/symptoms/catalogue", func(c *gin.Context) {
		var params GetApiV1SymptomsCatalogueParams
		if q, ok := c.GetQuery("q"); ok {
			params.Q = &q
		}
		si.GetApiV1SymptomsCatalogue(c, params)
	})

	v1.GET("/preferences/theme", si.GetApiV1PreferencesTheme)
	v1.PUT("/preferences/theme", si.PutApiV1PreferencesTheme)
	v1.POST("/preferences/theme/toggle", si.PostApiV1PreferencesThemeToggle)

	// Dose marks and the report only touch local state
	v1.POST("/medications/:id/doses", func(c *gin.Context) { si.PostApiV1MedicationsIdDoses(c, c.Param("id")) })
	v1.DELETE("/medications/:id/doses", func(c *gin.Context) { si.DeleteApiV1MedicationsIdDoses(c, c.Param("id")) })
	v1.GET("/report", si.GetApiV1Report)

	protected := v1.Group("")
	if opts.Authenticated != nil {
		protected.Use(opts.Authenticated)
	}
	protected.PUT("/auth/me", si.PutApiV1AuthMe)
	protected.GET("/medications", si.GetApiV1Medications)
	protected.POST("/medications", si.PostApiV1Medications)
	protected.POST("/medications/refresh", si.PostApiV1MedicationsRefresh)
	protected.DELETE("/medications/:id", func(c *gin.Context) { si.DeleteApiV1MedicationsId(c, c.Param("id")) })
	protected.POST("/symptoms/assess", si.PostApiV1SymptomsAssess)
	protected.GET("/chat", si.GetApiV1Chat)
	protected.POST("/chat", si.PostApiV1Chat)
	protected.DELETE("/chat", si.DeleteApiV1Chat)
}
