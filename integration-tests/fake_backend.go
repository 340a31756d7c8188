package integration_tests

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/vcscsvcscs/healthmate/pkg/model"
)

// FakeBackend is an in-process stand-in for the remote HealthMate backend
type FakeBackend struct {
	Server *httptest.Server

	mu          sync.Mutex
	users       map[string]string
	medications []model.Medication
	nextID      int
	tokenTTL    time.Duration
	revoked     bool
	healthy     bool
	chatReplies int
}

var fakeSigningKey = []byte("integration-secret")

// NewFakeBackend starts a fake backend with one registered user
func NewFakeBackend(username, password string) *FakeBackend {
	gin.SetMode(gin.TestMode)

	f := &FakeBackend{
		users:    map[string]string{username: password},
		tokenTTL: time.Hour,
		healthy:  true,
	}

	r := gin.New()
	r.GET("/health", f.health)
	r.POST("/api/signin", f.signIn)
	r.POST("/api/signup", f.signUp)

	protected := r.Group("/api", f.authenticate)
	protected.GET("/medications", f.listMedications)
	protected.POST("/medications", f.createMedication)
	protected.DELETE("/medications/:id", f.deleteMedication)
	protected.POST("/assess-symptoms", f.assessSymptoms)
	protected.POST("/chat", f.chat)

	f.Server = httptest.NewServer(r)
	return f
}

// Close shuts the server down
func (f *FakeBackend) Close() {
	f.Server.Close()
}

// URL is the base URL of the fake backend
func (f *FakeBackend) URL() string {
	return f.Server.URL
}

// RevokeTokens makes every bearer credential fail from now on
func (f *FakeBackend) RevokeTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = true
}

// SetHealthy toggles the /health answer
func (f *FakeBackend) SetHealthy(healthy bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.healthy = healthy
}

// Medications returns a copy of the stored medications
func (f *FakeBackend) Medications() []model.Medication {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Medication(nil), f.medications...)
}

func (f *FakeBackend) issueToken(username string) string {
	claims := jwt.MapClaims{
		"sub": username,
		"exp": time.Now().Add(f.tokenTTL).Unix(),
	}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(fakeSigningKey)
	return token
}

func (f *FakeBackend) authenticate(c *gin.Context) {
	raw := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	_, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return fakeSigningKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	f.mu.Lock()
	revoked := f.revoked
	f.mu.Unlock()

	if err != nil || revoked {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
		return
	}
	c.Next()
}

func (f *FakeBackend) health(c *gin.Context) {
	f.mu.Lock()
	healthy := f.healthy
	f.mu.Unlock()

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (f *FakeBackend) signIn(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	f.mu.Lock()
	password, ok := f.users[req.Username]
	f.mu.Unlock()

	if !ok || password != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect username or password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": f.issueToken(req.Username),
		"token_type":   "bearer",
		"user_id":      1,
		"username":     req.Username,
	})
}

func (f *FakeBackend) signUp(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[req.Username]; exists {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Email already registered"})
		return
	}
	f.users[req.Username] = req.Password

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"user_id":      len(f.users),
		"access_token": f.issueToken(req.Username),
	})
}

func (f *FakeBackend) listMedications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"medications": f.Medications()})
}

func (f *FakeBackend) createMedication(c *gin.Context) {
	var med model.Medication
	if err := c.ShouldBindJSON(&med); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	f.mu.Lock()
	f.nextID++
	med.ID = strconv.Itoa(f.nextID)
	f.medications = append(f.medications, med)
	f.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"success": true, "medication": med})
}

func (f *FakeBackend) deleteMedication(c *gin.Context) {
	id := c.Param("id")

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, m := range f.medications {
		if m.ID == id {
			f.medications = append(f.medications[:i], f.medications[i+1:]...)
			c.JSON(http.StatusOK, gin.H{"success": true, "message": "Medication deleted"})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"detail": "Medication not found"})
}

func (f *FakeBackend) assessSymptoms(c *gin.Context) {
	var req struct {
		Symptoms []model.Symptom `json:"symptoms"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Symptoms) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "symptoms are required"})
		return
	}

	c.JSON(http.StatusOK, model.Assessment{
		RiskLevel:   "low",
		Conditions:  []model.Condition{{Name: "Common cold", Probability: 0.6}},
		Precautions: []string{"Rest", "Stay hydrated"},
	})
}

func (f *FakeBackend) chat(c *gin.Context) {
	var req struct {
		Message   string `json:"message"`
		AgentType string `json:"agent_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	f.mu.Lock()
	f.chatReplies++
	n := f.chatReplies
	f.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"response":   "[" + req.AgentType + "] " + req.Message,
		"session_id": "session-" + strconv.Itoa(n),
	})
}
