package gormrepository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/esareynor/ffws-jatim-sub001/internal/models"
	"github.com/esareynor/ffws-jatim-sub001/internal/repository"
)

func (s *Store) UpsertCalculatedDischargeTx(ctx context.Context, tx *gorm.DB, item *models.CalculatedDischarge) error {
	if s == nil || (s.db == nil && tx == nil) || item == nil {
		return nil
	}
	item.ID = 0
	item.CalculatedAt = item.CalculatedAt.UTC()
	return s.conn(ctx, tx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "mas_sensor_code"}, {Name: "calculated_at"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"sensor_value",
				"sensor_discharge",
				"rating_curve_code",
				"updated_at",
			}),
		},
		clause.Returning{Columns: []clause.Column{{Name: "id"}}},
	).Create(item).Error
}

func (s *Store) UpsertPredictedDischargeTx(ctx context.Context, tx *gorm.DB, item *models.PredictedCalculatedDischarge) error {
	if s == nil || (s.db == nil && tx == nil) || item == nil {
		return nil
	}
	item.ID = 0
	item.CalculatedAt = item.CalculatedAt.UTC()
	return s.conn(ctx, tx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "mas_sensor_code"}, {Name: "calculated_at"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"predicted_value",
				"predicted_discharge",
				"rating_curve_code",
				"updated_at",
			}),
		},
		clause.Returning{Columns: []clause.Column{{Name: "id"}}},
	).Create(item).Error
}

func (s *Store) DeleteCalculatedDischargesTx(ctx context.Context, tx *gorm.DB, sensorCode string, from, to *time.Time) (int64, error) {
	if s == nil || (s.db == nil && tx == nil) {
		return 0, nil
	}
	query := s.conn(ctx, tx).Where("mas_sensor_code = ?", strings.TrimSpace(sensorCode))
	res := applyRange(query, "calculated_at", from, to).Delete(&models.CalculatedDischarge{})
	return res.RowsAffected, res.Error
}

func (s *Store) DeletePredictedDischargesTx(ctx context.Context, tx *gorm.DB, sensorCode string, from, to *time.Time) (int64, error) {
	if s == nil || (s.db == nil && tx == nil) {
		return 0, nil
	}
	query := s.conn(ctx, tx).Where("mas_sensor_code = ?", strings.TrimSpace(sensorCode))
	res := applyRange(query, "calculated_at", from, to).Delete(&models.PredictedCalculatedDischarge{})
	return res.RowsAffected, res.Error
}

func (s *Store) GetCalculatedDischargeByID(ctx context.Context, id uint64) (*models.CalculatedDischarge, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	return first[models.CalculatedDischarge](s.db.WithContext(ctx).Model(&models.CalculatedDischarge{}).Where("id = ?", id))
}

func (s *Store) GetPredictedDischargeByID(ctx context.Context, id uint64) (*models.PredictedCalculatedDischarge, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	return first[models.PredictedCalculatedDischarge](s.db.WithContext(ctx).Model(&models.PredictedCalculatedDischarge{}).Where("id = ?", id))
}

func (s *Store) ListCalculatedDischarges(ctx context.Context, params repository.ListSeriesParams) ([]models.CalculatedDischarge, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applySeries(s.db.WithContext(ctx).Model(&models.CalculatedDischarge{}), "calculated_at", params)
	query = applyOrder(query, "calculated_at", params.Asc, "calculated_at")
	var items []models.CalculatedDischarge
	if err := query.Limit(normalizeLimit(params.Limit, 500)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListPredictedDischarges(ctx context.Context, params repository.ListSeriesParams) ([]models.PredictedCalculatedDischarge, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applySeries(s.db.WithContext(ctx).Model(&models.PredictedCalculatedDischarge{}), "calculated_at", params)
	query = applyOrder(query, "calculated_at", params.Asc, "calculated_at")
	var items []models.PredictedCalculatedDischarge
	if err := query.Limit(normalizeLimit(params.Limit, 500)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

const seriesAggregateSelect = `COUNT(*) AS count,
	MAX(%[1]s) AS max_value,
	MIN(%[1]s) AS min_value,
	AVG(%[1]s) AS avg_value,
	MAX(%[2]s) AS max_level,
	MIN(%[2]s) AS min_level,
	MIN(calculated_at) AS oldest_at,
	MAX(calculated_at) AS newest_at`

func (s *Store) SummarizeCalculatedDischarges(ctx context.Context, params repository.ListSeriesParams) (repository.SeriesAggregate, error) {
	var out repository.SeriesAggregate
	if s == nil || s.db == nil {
		return out, nil
	}
	query := applySeries(s.db.WithContext(ctx).Model(&models.CalculatedDischarge{}), "calculated_at", params)
	err := query.Select(aggregateSelect("sensor_discharge", "sensor_value")).Scan(&out).Error
	return out, err
}

func (s *Store) SummarizePredictedDischarges(ctx context.Context, params repository.ListSeriesParams) (repository.SeriesAggregate, error) {
	var out repository.SeriesAggregate
	if s == nil || s.db == nil {
		return out, nil
	}
	query := applySeries(s.db.WithContext(ctx).Model(&models.PredictedCalculatedDischarge{}), "calculated_at", params)
	err := query.Select(aggregateSelect("predicted_discharge", "predicted_value")).Scan(&out).Error
	return out, err
}

func aggregateSelect(valueColumn, levelColumn string) string {
	return fmt.Sprintf(seriesAggregateSelect, valueColumn, levelColumn)
}
