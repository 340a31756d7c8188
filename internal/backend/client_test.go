package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/healthmate/pkg/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(server.URL+"/", "/api", 5*time.Second, zap.NewNop())
	client.SetTokenSource(TokenFunc(func() string { return "header.payload.signature" }))
	return client
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestClient_SignIn(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/signin", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var req SignInRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "correct horse" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect username or password"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": "a.b.c",
			"token_type":   "bearer",
			"user_id":      7,
			"username":     req.Username,
			"email":        "jane@example.com",
		})
	})

	resp, err := client.SignIn(context.Background(), SignInRequest{Username: "jane", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", resp.AccessToken)
	assert.Equal(t, int64(7), resp.UserID)
	assert.Equal(t, "jane@example.com", resp.Email)

	_, err = client.SignIn(context.Background(), SignInRequest{Username: "jane", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, "Incorrect username or password", err.Error())
	assert.False(t, errors.Is(err, ErrUnauthorized), "bad credentials are not a session failure")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestClient_SignUp(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/signup", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Jane Doe", req["full_name"])
		assert.Equal(t, "1990-05-01", req["date_of_birth"])

		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "User created successfully", "user_id": 9})
	})

	resp, err := client.SignUp(context.Background(), SignUpRequest{
		Username:    "Jane Doe",
		Email:       "jane@example.com",
		Password:    "long enough",
		FullName:    "Jane Doe",
		DateOfBirth: "1990-05-01",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(9), resp.UserID)
}

func TestClient_ListMedications(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer header.payload.signature", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"medications": [{
			"id": "m1", "name": "Amoxicillin", "dosage": "500mg", "frequency": "Twice daily",
			"prescribedBy": "Dr. Smith", "startDate": "2024-01-01T00:00:00", "endDate": "2024-01-05T00:00:00",
			"totalDoses": 10, "instructions": null
		}]}`))
	})

	meds, err := client.ListMedications(context.Background())
	require.NoError(t, err)
	require.Len(t, meds, 1)
	assert.Equal(t, "m1", meds[0].ID)
	assert.Equal(t, model.FrequencyTwiceDaily, meds[0].Frequency)
	assert.Equal(t, model.NewDate(2024, time.January, 1), meds[0].StartDate)
	require.NotNil(t, meds[0].EndDate)
	assert.Equal(t, model.NewDate(2024, time.January, 5), *meds[0].EndDate)
	assert.Equal(t, 10, meds[0].TotalDoses)
	assert.Nil(t, meds[0].Instructions)
}

func TestClient_Unauthorized(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, status, map[string]string{"detail": "Could not validate credentials"})
			})

			_, err := client.ListMedications(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func TestClient_CreateMedication(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, float64(10), req["totalDoses"])
		assert.Equal(t, "2024-01-01T00:00:00Z", req["startDate"])

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"medication": map[string]any{
				"id": "new-id", "name": req["name"], "dosage": req["dosage"], "frequency": req["frequency"],
				"prescribedBy": req["prescribedBy"], "startDate": req["startDate"], "endDate": req["endDate"],
				"totalDoses": req["totalDoses"],
			},
		})
	})

	end := model.NewDate(2024, time.January, 5)
	med, err := client.CreateMedication(context.Background(), CreateMedicationRequest{
		Name:         "Amoxicillin",
		Dosage:       "500mg",
		Frequency:    model.FrequencyTwiceDaily,
		PrescribedBy: "Dr. Smith",
		StartDate:    model.NewDate(2024, time.January, 1),
		EndDate:      &end,
		TotalDoses:   10,
	})
	require.NoError(t, err)
	assert.Equal(t, "new-id", med.ID)
	assert.Equal(t, 10, med.TotalDoses)
}

func TestClient_CreateMedication_NotSuccessful(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false})
	})

	_, err := client.CreateMedication(context.Background(), CreateMedicationRequest{Name: "x"})
	assert.Error(t, err)
}

func TestClient_DeleteMedication(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		if r.URL.Path != "/api/medications/m1" {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Medication not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Medication deleted successfully"})
	})

	require.NoError(t, client.DeleteMedication(context.Background(), "m1"))

	err := client.DeleteMedication(context.Background(), "missing")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Medication not found", apiErr.Detail)
}

func TestClient_AssessSymptoms_PartialResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/assess-symptoms", r.URL.Path)

		var req struct {
			Symptoms []map[string]string `json:"symptoms"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Symptoms, 2)
		assert.Equal(t, "mild", req.Symptoms[0]["severity"])
		assert.Equal(t, "Head", req.Symptoms[1]["bodyPart"])

		writeJSON(w, http.StatusOK, map[string]any{"riskLevel": "low"})
	})

	assessment, err := client.AssessSymptoms(context.Background(), []model.Symptom{
		{Name: "Fatigue", Severity: model.SeverityMild},
		{Name: "Headache", BodyPart: "Head"},
	})
	require.NoError(t, err)
	assert.Equal(t, "low", assessment.RiskLevel)
	assert.Empty(t, assessment.Conditions)
	assert.Empty(t, assessment.FollowUp)
}

func TestClient_Chat(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nutrition", req["agent_type"])
		assert.Equal(t, "detailed", req["response_style"])
		writeJSON(w, http.StatusOK, map[string]string{"response": "Eat vegetables.", "session_id": "s1"})
	})

	resp, err := client.Chat(context.Background(), ChatRequest{
		Message:       "What should I eat?",
		AgentType:     model.AgentNutrition,
		ResponseStyle: model.StyleDetailed,
	})
	require.NoError(t, err)
	assert.Equal(t, "Eat vegetables.", resp.Response)
	assert.Equal(t, "s1", resp.SessionID)
}

func TestClient_ErrorWithoutDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Chat(context.Background(), ChatRequest{Message: "hi"})
	require.Error(t, err)
	assert.Equal(t, "HTTP 500: Internal Server Error", err.Error())
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestClient_Health(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		timeout time.Duration
		want    model.BackendStatus
	}{
		{
			name: "ok",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			},
			timeout: time.Second,
			want:    model.BackendOK,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			timeout: time.Second,
			want:    model.BackendUnavailable,
		},
		{
			name: "unexpected status value",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]string{"status": "degraded"})
			},
			timeout: time.Second,
			want:    model.BackendUnavailable,
		},
		{
			name: "slow backend",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			timeout: 50 * time.Millisecond,
			want:    model.BackendTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := NewClient(server.URL, "/api", tt.timeout, zap.NewNop())
			assert.Equal(t, tt.want, client.Health(context.Background()))
		})
	}
}

func TestClient_Health_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(url, "/api", time.Second, zap.NewNop())
	assert.Equal(t, model.BackendUnavailable, client.Health(context.Background()))
}

func TestClient_TransportFailureIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(url, "/api", time.Second, zap.NewNop())
	_, err := client.ListMedications(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestClient_MalformedResponseIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"medications": "nope"`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "/api", time.Second, zap.NewNop())
	_, err := client.ListMedications(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}
