package gormrepository

import (
	"context"
	"strings"

	"github.com/esareynor/ffws-jatim-sub001/internal/models"
)

func (s *Store) ListRatingCurves(ctx context.Context, sensorCode string) ([]models.RatingCurve, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.RatingCurve
	err := s.db.WithContext(ctx).Model(&models.RatingCurve{}).
		Where("mas_sensor_code = ?", strings.TrimSpace(sensorCode)).
		Order("effective_date desc").Order("id desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetRatingCurveByCode(ctx context.Context, code string) (*models.RatingCurve, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	return first[models.RatingCurve](s.db.WithContext(ctx).Model(&models.RatingCurve{}).Where("code = ?", code))
}

func (s *Store) CreateRatingCurve(ctx context.Context, item *models.RatingCurve) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) UpdateRatingCurve(ctx context.Context, item *models.RatingCurve) error {
	if s == nil || s.db == nil || item == nil || item.ID == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(item).Select(
		"formula_type",
		"a",
		"b",
		"c",
		"effective_date",
		"updated_at",
	).Updates(item).Error
}

type curveUsageRow struct {
	Code  string
	Total int64
}

func (s *Store) CountCurveUsage(ctx context.Context, codes []string) (map[string]int64, error) {
	out := map[string]int64{}
	codes = cleanStrings(codes)
	if s == nil || s.db == nil || len(codes) == 0 {
		return out, nil
	}
	for _, model := range []any{&models.CalculatedDischarge{}, &models.PredictedCalculatedDischarge{}} {
		var rows []curveUsageRow
		err := s.db.WithContext(ctx).Model(model).
			Select("rating_curve_code AS code, COUNT(*) AS total").
			Where("rating_curve_code IN ?", codes).
			Group("rating_curve_code").
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			out[row.Code] += row.Total
		}
	}
	return out, nil
}
