package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/vcscsvcscs/healthmate/internal/repository"
	"github.com/vcscsvcscs/healthmate/pkg/model"
)

// PreferenceService holds the display theme preference
type PreferenceService struct {
	mu    sync.Mutex
	theme model.Theme

	store  *repository.Store
	logger *zap.Logger
}

// NewPreferenceService loads the stored theme, defaulting to system
func NewPreferenceService(ctx context.Context, store *repository.Store, logger *zap.Logger) *PreferenceService {
	p := &PreferenceService{
		theme:  model.ThemeSystem,
		store:  store,
		logger: logger,
	}

	var saved model.Theme
	if store.Load(ctx, repository.KeyTheme, &saved) && ValidTheme(saved) {
		p.theme = saved
	}
	return p
}

// ValidTheme reports whether t is a known theme
func ValidTheme(t model.Theme) bool {
	switch t {
	case model.ThemeLight, model.ThemeDark, model.ThemeSystem:
		return true
	}
	return false
}

// Theme returns the current preference
func (p *PreferenceService) Theme() model.Theme {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.theme
}

// SetTheme stores a new preference
func (p *PreferenceService) SetTheme(ctx context.Context, t model.Theme) error {
	if !ValidTheme(t) {
		return newValidationError("theme", "theme must be light, dark or system")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.theme = t
	if err := p.store.Save(ctx, repository.KeyTheme, t); err != nil {
		p.logger.Warn("failed to persist theme", zap.Error(err))
	}
	return nil
}

// ToggleTheme flips between light and dark. A system preference resolves
// against systemDark first.
func (p *PreferenceService) ToggleTheme(ctx context.Context, systemDark bool) model.Theme {
	current := p.Theme()
	if current == model.ThemeSystem {
		current = model.ThemeLight
		if systemDark {
			current = model.ThemeDark
		}
	}

	next := model.ThemeDark
	if current == model.ThemeDark {
		next = model.ThemeLight
	}
	_ = p.SetTheme(ctx, next)
	return next
}
