package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vcscsvcscs/healthmate/internal/backend"
	"github.com/vcscsvcscs/healthmate/internal/service"
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

type MockChatProvider struct {
	mock.Mock
}

func (m *MockChatProvider) Reply(ctx context.Context, turn service.ChatTurn) (string, error) {
	args := m.Called(ctx, turn)
	return args.String(0), args.Error(1)
}

type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) Health(ctx context.Context) model.BackendStatus {
	args := m.Called(ctx)
	return args.Get(0).(model.BackendStatus)
}
