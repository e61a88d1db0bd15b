package gormrepository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/esareynor/ffws-jatim-sub001/internal/models"
	"github.com/esareynor/ffws-jatim-sub001/internal/repository"
)

var sourceEditableColumns = []string{
	"name",
	"code",
	"api_url",
	"api_method",
	"api_headers",
	"api_params",
	"api_body",
	"auth_type",
	"auth_credentials",
	"response_format",
	"data_mapping",
	"fetch_interval_minutes",
	"is_active",
	"description",
	"updated_at",
}

func (s *Store) CreateSource(ctx context.Context, item *models.Source) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

// UpdateSource writes the operator-editable columns only; health columns are
// owned by UpdateSourceHealth.
func (s *Store) UpdateSource(ctx context.Context, item *models.Source) error {
	if s == nil || s.db == nil || item == nil || item.ID == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(item).Select(sourceEditableColumns).Updates(item).Error
}

// DeleteSource removes the source together with its mappings and fetch log.
func (s *Store) DeleteSource(ctx context.Context, id uint64) error {
	if s == nil || s.db == nil || id == 0 {
		return nil
	}
	return s.InTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("api_data_source_id = ?", id).Delete(&models.SensorMapping{}).Error; err != nil {
			return err
		}
		if err := tx.Where("api_data_source_id = ?", id).Delete(&models.FetchAttempt{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Source{}, id).Error
	})
}

func (s *Store) GetSourceByCode(ctx context.Context, code string) (*models.Source, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	return first[models.Source](s.db.WithContext(ctx).Model(&models.Source{}).Where("code = ?", code))
}

func (s *Store) sourceQuery(ctx context.Context, params repository.ListSourcesParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Source{})
	if params.Active != nil {
		query = query.Where("is_active = ?", *params.Active)
	}
	if params.Query != nil && strings.TrimSpace(*params.Query) != "" {
		pattern := "%" + strings.TrimSpace(*params.Query) + "%"
		query = query.Where("(name ILIKE ? OR code ILIKE ?)", pattern, pattern)
	}
	return query
}

func (s *Store) ListSources(ctx context.Context, params repository.ListSourcesParams) ([]models.Source, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyOrder(s.sourceQuery(ctx, params), params.OrderBy, params.Asc, "id")
	limit := normalizeLimit(params.Limit, 500)
	offset := normalizeOffset(params.Offset)
	var items []models.Source
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountSources(ctx context.Context, params repository.ListSourcesParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.sourceQuery(ctx, params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) UpdateSourceHealth(ctx context.Context, id uint64, health repository.SourceHealth) error {
	if s == nil || s.db == nil || id == 0 {
		return nil
	}
	updates := map[string]any{
		"last_fetch_at":        health.LastFetchAt.UTC(),
		"last_error":           health.LastError,
		"consecutive_failures": 0,
	}
	if health.Failed {
		updates["consecutive_failures"] = gorm.Expr("consecutive_failures + 1")
	}
	if health.LastSuccessAt != nil {
		updates["last_success_at"] = health.LastSuccessAt.UTC()
	}
	return s.db.WithContext(ctx).Model(&models.Source{}).Where("id = ?", id).Updates(updates).Error
}

func (s *Store) InsertFetchAttempt(ctx context.Context, item *models.FetchAttempt) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) fetchAttemptQuery(ctx context.Context, params repository.ListFetchAttemptsParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.FetchAttempt{}).Where("api_data_source_id = ?", params.SourceID)
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	return query
}

func (s *Store) ListFetchAttempts(ctx context.Context, params repository.ListFetchAttemptsParams) ([]models.FetchAttempt, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit := normalizeLimit(params.Limit, 50)
	offset := normalizeOffset(params.Offset)
	var items []models.FetchAttempt
	err := s.fetchAttemptQuery(ctx, params).Order("fetched_at desc").Limit(limit).Offset(offset).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountFetchAttempts(ctx context.Context, params repository.ListFetchAttemptsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.fetchAttemptQuery(ctx, params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) FetchStatistics(ctx context.Context, sourceID uint64) (repository.FetchStats, error) {
	var out repository.FetchStats
	if s == nil || s.db == nil {
		return out, nil
	}
	err := s.db.WithContext(ctx).Model(&models.FetchAttempt{}).
		Select(`COUNT(*) AS total_fetches,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS successful_fetches,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS failed_fetches,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS partial_fetches,
			COALESCE(SUM(records_fetched), 0) AS total_records_fetched,
			COALESCE(SUM(records_saved), 0) AS total_records_saved`,
			models.FetchSuccess, models.FetchFailed, models.FetchPartial).
		Where("api_data_source_id = ?", sourceID).
		Scan(&out).Error
	return out, err
}

func (s *Store) CountActiveMappings(ctx context.Context, sourceID uint64) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := s.db.WithContext(ctx).Model(&models.SensorMapping{}).
		Where("api_data_source_id = ? AND is_active = ?", sourceID, true).
		Count(&total).Error
	return total, err
}
