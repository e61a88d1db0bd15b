package gormrepository

import (
	"context"
	"strings"

	"github.com/esareynor/ffws-jatim-sub001/internal/models"
)

// layerRangeCondition is the inclusive range rule with null bounds open.
const layerRangeCondition = `((value_min IS NOT NULL AND value_max IS NOT NULL AND value_min <= ? AND value_max >= ?)
	OR (value_min IS NOT NULL AND value_max IS NULL AND value_min <= ?)
	OR (value_min IS NULL AND value_max IS NOT NULL AND value_max >= ?)
	OR (value_min IS NULL AND value_max IS NULL))`

func (s *Store) ListLayersForValue(ctx context.Context, deviceCode string, value float64) ([]models.GeojsonMapping, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.GeojsonMapping
	err := s.db.WithContext(ctx).Model(&models.GeojsonMapping{}).
		Where("mas_device_code = ?", strings.TrimSpace(deviceCode)).
		Where(layerRangeCondition, value, value, value, value).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
