package rotation

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/imobflow/leadrotor/pkg/db/models"
	pkgerrors "github.com/imobflow/leadrotor/pkg/errors"
)

var hhmmRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// SettingsRepository persists the singleton rotation settings row.
type SettingsRepository interface {
	Get(ctx context.Context) (*models.RotationSettings, error)
	Save(ctx context.Context, settings *models.RotationSettings) error
}

type settingsRepositoryImpl struct {
	db *gorm.DB
}

// NewSettingsRepository returns a settings repository bound to the provided database.
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepositoryImpl{db: db}
}

func (r *settingsRepositoryImpl) Get(ctx context.Context) (*models.RotationSettings, error) {
	var settings models.RotationSettings
	err := r.db.WithContext(ctx).First(&settings, "id = ?", models.RotationSettingsID).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepositoryImpl) Save(ctx context.Context, settings *models.RotationSettings) error {
	settings.ID = models.RotationSettingsID
	return r.db.WithContext(ctx).Save(settings).Error
}

// UpdateSettingsParams carries the writable rotation settings fields.
type UpdateSettingsParams struct {
	TimeLimitMinutes int    `json:"timeLimitMinutes" validate:"required,min=1,max=1440"`
	StartTime        string `json:"startTime" validate:"required"`
	EndTime          string `json:"endTime" validate:"required"`
	NextUserEnabled  bool   `json:"nextUserEnabled"`
}

// SettingsService serves the cached rotation settings. Every scheduling tick
// reads the cache; writes and explicit reloads refresh it.
type SettingsService struct {
	repo SettingsRepository

	mu     sync.RWMutex
	cached models.RotationSettings
	loaded bool
}

// NewSettingsService wires the settings cache.
func NewSettingsService(repo SettingsRepository) (*SettingsService, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "settings repository required")
	}
	return &SettingsService{repo: repo}, nil
}

// Get returns the cached settings, loading them on first use.
func (s *SettingsService) Get(ctx context.Context) (models.RotationSettings, error) {
	s.mu.RLock()
	if s.loaded {
		cached := s.cached
		s.mu.RUnlock()
		return cached, nil
	}
	s.mu.RUnlock()
	return s.Reload(ctx)
}

// Reload refreshes the cache from storage.
func (s *SettingsService) Reload(ctx context.Context) (models.RotationSettings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		return models.RotationSettings{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rotation settings")
	}

	s.mu.Lock()
	s.cached = *settings
	s.loaded = true
	s.mu.Unlock()
	return *settings, nil
}

// Update validates and persists new settings, then refreshes the cache.
func (s *SettingsService) Update(ctx context.Context, params UpdateSettingsParams) (models.RotationSettings, error) {
	if err := validateWindow(params.StartTime, params.EndTime); err != nil {
		return models.RotationSettings{}, err
	}
	if params.TimeLimitMinutes <= 0 {
		return models.RotationSettings{}, pkgerrors.New(pkgerrors.CodeValidation, "timeLimitMinutes must be positive")
	}

	settings := models.RotationSettings{
		ID:               models.RotationSettingsID,
		TimeLimitMinutes: params.TimeLimitMinutes,
		StartTime:        params.StartTime,
		EndTime:          params.EndTime,
		NextUserEnabled:  params.NextUserEnabled,
	}
	if err := s.repo.Save(ctx, &settings); err != nil {
		return models.RotationSettings{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save rotation settings")
	}

	s.mu.Lock()
	s.cached = settings
	s.loaded = true
	s.mu.Unlock()
	return settings, nil
}

func validateWindow(start, end string) error {
	if !hhmmRe.MatchString(start) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("startTime %q is not HH:MM", start))
	}
	if !hhmmRe.MatchString(end) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("endTime %q is not HH:MM", end))
	}
	if start >= end {
		return pkgerrors.New(pkgerrors.CodeValidation, "startTime must be before endTime")
	}
	return nil
}

// WithinBusinessHours reports whether the wall-clock time in loc falls inside
// [start, end). HH:MM strings compare lexically once zero-padded.
func WithinBusinessHours(now time.Time, start, end string, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	clock := now.In(loc).Format("15:04")
	return clock >= start && clock < end
}
