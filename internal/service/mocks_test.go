package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/healthmate/internal/backend"
	"github.com/vcscsvcscs/healthmate/internal/repository"
	"github.com/vcscsvcscs/healthmate/pkg/model"
)

// Mock implementations for testing

type MockMedicationBackend struct {
	mock.Mock
}

func (m *MockMedicationBackend) ListMedications(ctx context.Context) ([]model.Medication, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Medication), args.Error(1)
}

func (m *MockMedicationBackend) CreateMedication(ctx context.Context, req backend.CreateMedicationRequest) (*model.Medication, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Medication), args.Error(1)
}

func (m *MockMedicationBackend) DeleteMedication(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockAuthBackend struct {
	mock.Mock
}

func (m *MockAuthBackend) SignIn(ctx context.Context, req backend.SignInRequest) (*backend.SignInResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.SignInResponse), args.Error(1)
}

func (m *MockAuthBackend) SignUp(ctx context.Context, req backend.SignUpRequest) (*backend.SignUpResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.SignUpResponse), args.Error(1)
}

type MockSymptomBackend struct {
	mock.Mock
}

func (m *MockSymptomBackend) AssessSymptoms(ctx context.Context, symptoms []model.Symptom) (*model.Assessment, error) {
	args := m.Called(ctx, symptoms)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Assessment), args.Error(1)
}

type MockChatBackend struct {
	mock.Mock
}

func (m *MockChatBackend) Chat(ctx context.Context, req backend.ChatRequest) (*backend.ChatResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.ChatResponse), args.Error(1)
}

type MockConversational struct {
	mock.Mock
}

func (m *MockConversational) Converse(ctx context.Context, systemPrompt string, history []model.ChatMessage, message string) (string, error) {
	args := m.Called(ctx, systemPrompt, history, message)
	return args.String(0), args.Error(1)
}

type MockSessionInvalidator struct {
	mock.Mock
}

func (m *MockSessionInvalidator) Invalidate(ctx context.Context, reason string) {
	m.Called(ctx, reason)
}

type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) Health(ctx context.Context) model.BackendStatus {
	args := m.Called(ctx)
	return args.Get(0).(model.BackendStatus)
}

// fakeClock is a settable time source
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newMemoryStore() *repository.Store {
	return repository.NewStore(repository.NewMemoryKV(), zap.NewNop())
}

func datePtr(y int, m time.Month, d int) *model.Date {
	date := model.NewDate(y, m, d)
	return &date
}

func floatPtr(f float64) *float64 {
	return &f
}
