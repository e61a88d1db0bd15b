package gormrepository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/esareynor/ffws-jatim-sub001/internal/models"
	"github.com/esareynor/ffws-jatim-sub001/internal/repository"
)

func (s *Store) FindActiveMappingBySensorTx(ctx context.Context, tx *gorm.DB, sourceID uint64, sensorCode string) (*models.SensorMapping, error) {
	if s == nil || (s.db == nil && tx == nil) {
		return nil, nil
	}
	sensorCode = strings.TrimSpace(sensorCode)
	if sensorCode == "" {
		return nil, nil
	}
	query := s.conn(ctx, tx).Model(&models.SensorMapping{}).
		Where("api_data_source_id = ? AND mas_sensor_code = ? AND is_active = ?", sourceID, sensorCode, true)
	return first[models.SensorMapping](query)
}

func (s *Store) FindActiveMappingByExternalIDTx(ctx context.Context, tx *gorm.DB, sourceID uint64, externalID string) (*models.SensorMapping, error) {
	if s == nil || (s.db == nil && tx == nil) {
		return nil, nil
	}
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, nil
	}
	query := s.conn(ctx, tx).Model(&models.SensorMapping{}).
		Where("api_data_source_id = ? AND external_sensor_id = ? AND is_active = ?", sourceID, externalID, true).
		Order("id asc")
	return first[models.SensorMapping](query)
}

// FindMappingByExternalIDTx ignores the active flag; active rows come first.
func (s *Store) FindMappingByExternalIDTx(ctx context.Context, tx *gorm.DB, sourceID uint64, externalID string) (*models.SensorMapping, error) {
	if s == nil || (s.db == nil && tx == nil) {
		return nil, nil
	}
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, nil
	}
	query := s.conn(ctx, tx).Model(&models.SensorMapping{}).
		Where("api_data_source_id = ? AND external_sensor_id = ?", sourceID, externalID).
		Order("is_active desc").Order("id asc")
	return first[models.SensorMapping](query)
}

func (s *Store) SaveMappingTx(ctx context.Context, tx *gorm.DB, item *models.SensorMapping) error {
	if s == nil || (s.db == nil && tx == nil) || item == nil {
		return nil
	}
	return s.conn(ctx, tx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "api_data_source_id"}, {Name: "mas_sensor_code"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"mas_device_code",
			"external_sensor_id",
			"is_active",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetMappingByID(ctx context.Context, id uint64) (*models.SensorMapping, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	return first[models.SensorMapping](s.db.WithContext(ctx).Model(&models.SensorMapping{}).Where("id = ?", id))
}

func (s *Store) mappingQuery(ctx context.Context, params repository.ListMappingsParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.SensorMapping{})
	if params.SourceID != nil {
		query = query.Where("api_data_source_id = ?", *params.SourceID)
	}
	if params.SensorCode != nil && strings.TrimSpace(*params.SensorCode) != "" {
		query = query.Where("mas_sensor_code = ?", strings.TrimSpace(*params.SensorCode))
	}
	if params.Active != nil {
		query = query.Where("is_active = ?", *params.Active)
	}
	return query
}

func (s *Store) ListMappings(ctx context.Context, params repository.ListMappingsParams) ([]models.SensorMapping, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	var items []models.SensorMapping
	if err := s.mappingQuery(ctx, params).Order("id asc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountMappings(ctx context.Context, params repository.ListMappingsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.mappingQuery(ctx, params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) CreateMapping(ctx context.Context, item *models.SensorMapping) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) UpdateMapping(ctx context.Context, item *models.SensorMapping) error {
	if s == nil || s.db == nil || item == nil || item.ID == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(item).Select(
		"mas_sensor_code",
		"mas_device_code",
		"external_sensor_id",
		"field_mapping",
		"is_active",
		"updated_at",
	).Updates(item).Error
}

func (s *Store) DeleteMapping(ctx context.Context, id uint64) error {
	if s == nil || s.db == nil || id == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Delete(&models.SensorMapping{}, id).Error
}
