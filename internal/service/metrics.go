package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vcscsvcscs/healthmate/internal/repository"
	"github.com/vcscsvcscs/healthmate/pkg/model"
)

// maxRecentAchievements bounds the achievement history kept for the API
const maxRecentAchievements = 20

// AchievementEvent is emitted when a metric value reaches its target
type AchievementEvent struct {
	MetricID   string    `json:"metricId"`
	MetricName string    `json:"metricName"`
	Value      float64   `json:"value"`
	Target     float64   `json:"target"`
	At         time.Time `json:"at"`
}

// AchievementListener receives achievement events. Listeners run after the
// store lock is released and may call back into the store.
type AchievementListener func(AchievementEvent)

// SeedMetrics returns the initial metric collection
func SeedMetrics(now time.Time) []model.HealthMetric {
	target := func(v float64) *float64 { return &v }
	return []model.HealthMetric{
		{ID: "1", Name: model.MetricWellnessScore, Value: 85, Unit: "%", Target: target(90), Trend: model.TrendUp, LastUpdated: now},
		{ID: "2", Name: model.MetricSymptomChecks, Value: 0, Unit: "today", Trend: model.TrendStable, LastUpdated: now},
		{ID: "3", Name: model.MetricSleepQuality, Value: 85, Unit: "%", Target: target(80), Trend: model.TrendUp, LastUpdated: now},
		{ID: "4", Name: model.MetricHydration, Value: 0, Unit: "glasses", Target: target(8), Trend: model.TrendUp, LastUpdated: now},
	}
}

// TrendOf compares a new value with the previous one
func TrendOf(previous, current float64) model.Trend {
	switch {
	case current > previous:
		return model.TrendUp
	case current < previous:
		return model.TrendDown
	default:
		return model.TrendStable
	}
}

// MetricStore is the single source of truth for health metrics. Every
// mutation is persisted immediately and re-evaluates target achievement.
type MetricStore struct {
	mu        sync.Mutex
	metrics   []model.HealthMetric
	achieved  map[string]bool
	recent    []AchievementEvent
	listeners []AchievementListener

	store  *repository.Store
	now    func() time.Time
	logger *zap.Logger
}

// NewMetricStore loads the metric collection, falling back to the seed set
// when nothing usable is stored
func NewMetricStore(ctx context.Context, store *repository.Store, logger *zap.Logger) *MetricStore {
	return newMetricStore(ctx, store, time.Now, logger)
}

func newMetricStore(ctx context.Context, store *repository.Store, now func() time.Time, logger *zap.Logger) *MetricStore {
	s := &MetricStore{
		store:  store,
		now:    now,
		logger: logger,
	}

	var loaded []model.HealthMetric
	if store.Load(ctx, repository.KeyMetrics, &loaded) && validMetrics(loaded) {
		s.metrics = loaded
	} else {
		logger.Info("using initial metric set")
		s.metrics = SeedMetrics(now())
	}

	// Metrics already at target on startup are not celebrated
	s.achieved = make(map[string]bool, len(s.metrics))
	for _, m := range s.metrics {
		s.achieved[m.ID] = m.TargetReached()
	}

	return s
}

// validMetrics rejects empty collections and duplicate ids
func validMetrics(metrics []model.HealthMetric) bool {
	if len(metrics) == 0 {
		return false
	}
	seen := make(map[string]bool, len(metrics))
	for _, m := range metrics {
		if m.ID == "" || seen[m.ID] {
			return false
		}
		seen[m.ID] = true
	}
	return true
}

// OnAchievement registers a listener for achievement events
func (s *MetricStore) OnAchievement(l AchievementListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Metrics returns a copy of the collection
func (s *MetricStore) Metrics() []model.HealthMetric {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneMetrics(s.metrics)
}

// Metric returns the metric with the given id
func (s *MetricStore) Metric(id string) (model.HealthMetric, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.metrics {
		if m.ID == id {
			return cloneMetric(m), true
		}
	}
	return model.HealthMetric{}, false
}

// Achievements returns the most recent achievement events, oldest first
func (s *MetricStore) Achievements() []AchievementEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AchievementEvent(nil), s.recent...)
}

// UpdateMetric sets the value of metric id and recomputes its trend. It
// returns false when id is unknown.
func (s *MetricStore) UpdateMetric(ctx context.Context, id string, value float64) bool {
	return s.mutate(ctx, "update_metric", byID(id), func(m *model.HealthMetric, now time.Time) bool {
		m.Trend = TrendOf(m.Value, value)
		m.Value = value
		m.LastUpdated = now
		return true
	})
}

// UpdateTarget replaces the goal of metric id. A nil target clears it.
// Trend and lastUpdated are left alone.
func (s *MetricStore) UpdateTarget(ctx context.Context, id string, target *float64) bool {
	return s.mutate(ctx, "update_target", byID(id), func(m *model.HealthMetric, _ time.Time) bool {
		if target == nil {
			m.Target = nil
		} else {
			t := *target
			m.Target = &t
		}
		return true
	})
}

// IncrementHydration adds one glass to the Hydration metric
func (s *MetricStore) IncrementHydration(ctx context.Context) bool {
	return s.mutate(ctx, "increment_hydration", byName(model.MetricHydration), increment(1))
}

// DecrementHydration removes one glass from the Hydration metric. It does
// nothing when the value is already 0.
func (s *MetricStore) DecrementHydration(ctx context.Context) bool {
	return s.mutate(ctx, "decrement_hydration", byName(model.MetricHydration), func(m *model.HealthMetric, now time.Time) bool {
		if m.Value <= 0 {
			return false
		}
		m.Value = max(0, m.Value-1)
		m.LastUpdated = now
		return true
	})
}

// IncrementSymptomChecks counts one more symptom check today
func (s *MetricStore) IncrementSymptomChecks(ctx context.Context) bool {
	return s.mutate(ctx, "increment_symptom_checks", byName(model.MetricSymptomChecks), increment(1))
}

// UpdateSleepQuality behaves like UpdateMetric for the Sleep Quality metric
func (s *MetricStore) UpdateSleepQuality(ctx context.Context, value float64) bool {
	return s.mutate(ctx, "update_sleep_quality", byName(model.MetricSleepQuality), func(m *model.HealthMetric, now time.Time) bool {
		m.Trend = TrendOf(m.Value, value)
		m.Value = value
		m.LastUpdated = now
		return true
	})
}

// ResetDaily zeroes the per-day counters
func (s *MetricStore) ResetDaily(ctx context.Context) bool {
	match := func(m model.HealthMetric) bool {
		return m.Name == model.MetricSymptomChecks || m.Name == model.MetricHydration
	}
	return s.mutate(ctx, "daily_reset", match, func(m *model.HealthMetric, now time.Time) bool {
		m.Value = 0
		m.LastUpdated = now
		return true
	})
}

func byID(id string) func(model.HealthMetric) bool {
	return func(m model.HealthMetric) bool { return m.ID == id }
}

func byName(name string) func(model.HealthMetric) bool {
	return func(m model.HealthMetric) bool { return m.Name == name }
}

func increment(delta float64) func(*model.HealthMetric, time.Time) bool {
	return func(m *model.HealthMetric, now time.Time) bool {
		m.Value += delta
		m.LastUpdated = now
		return true
	}
}

// mutate applies fn to every matching metric, persists the collection and
// emits achievement events for false to true transitions
func (s *MetricStore) mutate(ctx context.Context, op string, match func(model.HealthMetric) bool, fn func(*model.HealthMetric, time.Time) bool) bool {
	s.mu.Lock()

	now := s.now()
	found, changed := false, false
	for i := range s.metrics {
		if !match(s.metrics[i]) {
			continue
		}
		found = true
		if fn(&s.metrics[i], now) {
			changed = true
		}
	}

	if !found {
		s.mu.Unlock()
		s.logger.Debug("metric not found", zap.String("operation", op))
		return false
	}
	if !changed {
		s.mu.Unlock()
		return true
	}

	events := s.detectAchievements(now)

	// Saved under the lock so writes reach storage in mutation order
	if err := s.store.Save(ctx, repository.KeyMetrics, s.metrics); err != nil {
		s.logger.Warn("failed to persist metrics", zap.Error(err), zap.String("operation", op))
	}

	listeners := append([]AchievementListener(nil), s.listeners...)
	s.mu.Unlock()

	for _, e := range events {
		s.logger.Info("metric target reached",
			zap.String("metric_id", e.MetricID),
			zap.String("metric_name", e.MetricName),
			zap.Float64("value", e.Value),
			zap.Float64("target", e.Target),
		)
		for _, l := range listeners {
			l(e)
		}
	}

	return true
}

// detectAchievements must be called with s.mu held
func (s *MetricStore) detectAchievements(now time.Time) []AchievementEvent {
	var events []AchievementEvent
	for _, m := range s.metrics {
		reached := m.TargetReached()
		if reached && !s.achieved[m.ID] {
			e := AchievementEvent{
				MetricID:   m.ID,
				MetricName: m.Name,
				Value:      m.Value,
				Target:     *m.Target,
				At:         now,
			}
			events = append(events, e)
			s.recent = append(s.recent, e)
		}
		s.achieved[m.ID] = reached
	}
	if over := len(s.recent) - maxRecentAchievements; over > 0 {
		s.recent = append([]AchievementEvent(nil), s.recent[over:]...)
	}
	return events
}

func cloneMetric(m model.HealthMetric) model.HealthMetric {
	if m.Target != nil {
		t := *m.Target
		m.Target = &t
	}
	return m
}

func cloneMetrics(metrics []model.HealthMetric) []model.HealthMetric {
	out := make([]model.HealthMetric, len(metrics))
	for i, m := range metrics {
		out[i] = cloneMetric(m)
	}
	return out
}

// timer is the part of *time.Timer the scheduler needs
type timer interface {
	Stop() bool
}

// DailyResetScheduler resets the per-day counters at every local midnight.
// Missed midnights are not caught up.
type DailyResetScheduler struct {
	metrics   *MetricStore
	now       func() time.Time
	afterFunc func(time.Duration, func()) timer
	logger    *zap.Logger

	mu      sync.Mutex
	pending timer
	stopped bool
	ctx     context.Context
}

// NewDailyResetScheduler creates a scheduler for the given store
func NewDailyResetScheduler(metrics *MetricStore, logger *zap.Logger) *DailyResetScheduler {
	return &DailyResetScheduler{
		metrics: metrics,
		now:     time.Now,
		afterFunc: func(d time.Duration, f func()) timer {
			return time.AfterFunc(d, f)
		},
		logger: logger,
	}
}

// NextMidnight returns the start of the day after now, in now's location
func NextMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}

// Start arms the timer for the next midnight
func (s *DailyResetScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ctx = context.WithoutCancel(ctx)
	s.stopped = false
	s.armLocked()
}

// Stop cancels the pending reset
func (s *DailyResetScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

func (s *DailyResetScheduler) armLocked() {
	now := s.now()
	wait := NextMidnight(now).Sub(now)
	s.pending = s.afterFunc(wait, s.fire)
	s.logger.Debug("daily reset scheduled", zap.Duration("in", wait))
}

func (s *DailyResetScheduler) fire() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	ctx := s.ctx
	s.mu.Unlock()

	s.logger.Info("resetting daily metrics")
	s.metrics.ResetDaily(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.armLocked()
	}
}
