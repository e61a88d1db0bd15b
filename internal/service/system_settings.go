package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/esareynor/ffws-jatim-sub001/internal/models"
	"github.com/esareynor/ffws-jatim-sub001/internal/repository"
)

const (
	FeatureIngest             = "feature.ingest"
	FeatureDischarge          = "feature.discharge"
	FeatureAutoProvision      = "feature.auto_provision"
	FeatureAlerts             = "feature.alerts"
	FeatureRecalculatePending = "feature.recalculate_pending"
)

func DefaultFeatureSwitches() map[string]bool {
	return map[string]bool{
		FeatureIngest:             true,
		FeatureDischarge:          true,
		FeatureAutoProvision:      true,
		FeatureAlerts:             true,
		FeatureRecalculatePending: true,
	}
}

type SystemSettingsService struct {
	Repo repository.SettingsRepository
}

func (s *SystemSettingsService) EnsureDefaultSwitches(ctx context.Context) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	now := time.Now().UTC()
	for key, enabled := range DefaultFeatureSwitches() {
		existing, err := s.Repo.GetSystemSettingByKey(ctx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		raw, _ := json.Marshal(enabled)
		item := &models.SystemSetting{
			Key:         key,
			Value:       datatypes.JSON(raw),
			Description: "feature switch",
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.Repo.UpsertSystemSetting(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// IsEnabled reads a boolean switch. Missing or malformed values yield fallback.
func (s *SystemSettingsService) IsEnabled(ctx context.Context, key string, fallback bool) bool {
	if s == nil || s.Repo == nil {
		return fallback
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}
	item, err := s.Repo.GetSystemSettingByKey(ctx, key)
	if err != nil || item == nil || len(item.Value) == 0 {
		return fallback
	}
	var enabled bool
	if err := json.Unmarshal(item.Value, &enabled); err != nil {
		return fallback
	}
	return enabled
}

func (s *SystemSettingsService) SetEnabled(ctx context.Context, key string, enabled bool) error {
	raw, _ := json.Marshal(enabled)
	return s.Set(ctx, key, raw, "feature switch")
}

// Set stores any JSON value under key.
func (s *SystemSettingsService) Set(ctx context.Context, key string, value json.RawMessage, description string) error {
	if s == nil || s.Repo == nil {
		return ErrUnavailable
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return validationError("key is required")
	}
	if !json.Valid(value) {
		return validationError("value must be valid JSON")
	}
	item := &models.SystemSetting{
		Key:         key,
		Value:       datatypes.JSON(value),
		Description: strings.TrimSpace(description),
		UpdatedAt:   time.Now().UTC(),
	}
	return s.Repo.UpsertSystemSetting(ctx, item)
}

func (s *SystemSettingsService) List(ctx context.Context, params repository.ListSystemSettingsParams) ([]models.SystemSetting, int64, error) {
	if s == nil || s.Repo == nil {
		return nil, 0, ErrUnavailable
	}
	items, err := s.Repo.ListSystemSettings(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountSystemSettings(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
