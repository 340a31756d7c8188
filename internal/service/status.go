package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vcscsvcscs/healthmate/pkg/model"
)

// HealthChecker probes the remote backend
type HealthChecker interface {
	Health(ctx context.Context) model.BackendStatus
}

// StatusReport is the last known backend status
type StatusReport struct {
	Status    model.BackendStatus `json:"status"`
	CheckedAt *time.Time          `json:"checkedAt,omitempty"`
	Banner    string              `json:"banner,omitempty"`
}

// StatusService caches backend health for the degraded-mode banner
type StatusService struct {
	mu   sync.Mutex
	last StatusReport

	checker HealthChecker
	now     func() time.Time
	logger  *zap.Logger
}

// NewStatusService creates a new StatusService
func NewStatusService(checker HealthChecker, logger *zap.Logger) *StatusService {
	return &StatusService{
		last:    StatusReport{Status: model.BackendUnknown},
		checker: checker,
		now:     time.Now,
		logger:  logger,
	}
}

// Check probes the backend and records the result. It never blocks longer
// than the checker's timeout.
func (s *StatusService) Check(ctx context.Context) StatusReport {
	status := s.checker.Health(ctx)
	at := s.now()

	report := StatusReport{Status: status, CheckedAt: &at, Banner: BannerFor(status)}

	s.mu.Lock()
	previous := s.last.Status
	s.last = report
	s.mu.Unlock()

	if previous != status {
		s.logger.Info("backend status changed",
			zap.String("from", string(previous)),
			zap.String("to", string(status)),
		)
	}
	return report
}

// Last returns the most recent result without probing
func (s *StatusService) Last() StatusReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// BannerFor returns the degraded-mode banner text for a status
func BannerFor(status model.BackendStatus) string {
	switch status {
	case model.BackendUnavailable:
		return "Backend unavailable"
	case model.BackendTimeout:
		return "Backend is not responding"
	default:
		return ""
	}
}
