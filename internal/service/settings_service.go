package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fypdesk/fyp-api/internal/models"
	"github.com/fypdesk/fyp-api/internal/repository"
)

// Setting keys understood by the workflow services.
const (
	SettingRegistrationOpen     = "registration_open"
	SettingCurrentSession       = "current_session"
	SettingSupervisorMaxDefault = "supervisor_max_groups"
)

// Settings is a plain value snapshot of the system settings table. It is
// loaded explicitly at the start of a request path and passed by value;
// there is no hidden singleton to mutate behind a caller's back.
type Settings struct {
	values map[string]string
}

// Get returns the raw value for key, or fallback when unset.
func (s Settings) Get(key, fallback string) string {
	if value, ok := s.values[key]; ok && value != "" {
		return value
	}
	return fallback
}

// GetBool parses a boolean setting; unset or malformed values yield fallback.
func (s Settings) GetBool(key string, fallback bool) bool {
	value, ok := s.values[key]
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

// GetInt parses an integer setting; unset or malformed values yield fallback.
func (s Settings) GetInt(key string, fallback int) int {
	value, ok := s.values[key]
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

// SettingsLoader is the read-side settings surface workflow services
// depend on.
type SettingsLoader interface {
	Load(ctx context.Context) (Settings, error)
}

// SettingsService loads and updates system settings.
type SettingsService interface {
	SettingsLoader
	All(ctx context.Context) ([]models.SystemSetting, error)
	Set(ctx context.Context, actor Actor, key, value string) error
}

type settingsService struct {
	repo   repository.SettingRepository
	audit  AuditRecorder
	logger zerolog.Logger
}

// NewSettingsService constructs the settings service.
func NewSettingsService(repo repository.SettingRepository, audit AuditRecorder, logger zerolog.Logger) SettingsService {
	return &settingsService{
		repo:   repo,
		audit:  audit,
		logger: logger.With().Str("component", "settings_service").Logger(),
	}
}

// Load snapshots all settings into a value object.
func (s *settingsService) Load(ctx context.Context) (Settings, error) {
	rows, err := s.repo.All(ctx)
	if err != nil {
		return Settings{}, err
	}
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	return Settings{values: values}, nil
}

func (s *settingsService) All(ctx context.Context) ([]models.SystemSetting, error) {
	return s.repo.All(ctx)
}

// Set upserts one setting row.
func (s *settingsService) Set(ctx context.Context, actor Actor, key, value string) error {
	setting := models.SystemSetting{
		Key:       strings.TrimSpace(key),
		Value:     strings.TrimSpace(value),
		UpdatedBy: actor.UserID,
	}
	if err := s.repo.Upsert(ctx, &setting); err != nil {
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "update_setting",
		EntityType: "system_setting",
		EntityID:   &setting.ID,
		Details:    map[string]interface{}{"key": setting.Key},
	})
	return nil
}
