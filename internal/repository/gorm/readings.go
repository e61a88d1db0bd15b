package gormrepository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/esareynor/ffws-jatim-sub001/internal/models"
	"github.com/esareynor/ffws-jatim-sub001/internal/repository"
)

func (s *Store) UpsertReadingTx(ctx context.Context, tx *gorm.DB, item *models.Reading) error {
	if s == nil || (s.db == nil && tx == nil) || item == nil {
		return nil
	}
	item.ID = 0
	item.ReceivedAt = item.ReceivedAt.UTC()
	item.DischargeError = nil
	if item.SourceStatus == "" {
		item.SourceStatus = "normal"
	}
	return s.conn(ctx, tx).Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "mas_sensor_code"}, {Name: "received_at"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"value",
				"threshold_status",
				"status",
				"source",
				"discharge_error",
				"updated_at",
			}),
		},
		clause.Returning{Columns: []clause.Column{{Name: "id"}}},
	).Create(item).Error
}

func (s *Store) GetReadingByID(ctx context.Context, id uint64) (*models.Reading, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	return first[models.Reading](s.db.WithContext(ctx).Model(&models.Reading{}).Where("id = ?", id))
}

func (s *Store) ListReadings(ctx context.Context, params repository.ListSeriesParams) ([]models.Reading, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applySeries(s.db.WithContext(ctx).Model(&models.Reading{}), "received_at", params)
	query = applyOrder(query, "received_at", params.Asc, "received_at")
	var items []models.Reading
	if err := query.Limit(normalizeLimit(params.Limit, 500)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListReadingsWithoutDischarge(ctx context.Context, parameter string, limit int) ([]models.Reading, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Reading
	err := s.db.WithContext(ctx).Table("data_actuals AS a").
		Select("a.*").
		Joins("JOIN mas_sensors AS s ON s.code = a.mas_sensor_code").
		Joins("LEFT JOIN calculated_discharges AS d ON d.mas_sensor_code = a.mas_sensor_code AND d.calculated_at = a.received_at").
		Where("s.parameter = ? AND a.value IS NOT NULL AND a.discharge_error IS NULL AND d.id IS NULL", parameter).
		Where("EXISTS (SELECT 1 FROM rating_curves AS r WHERE r.mas_sensor_code = a.mas_sensor_code AND r.effective_date <= a.received_at)").
		Order("a.received_at asc").
		Limit(normalizeLimit(limit, 500)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) SetDischargeErrorTx(ctx context.Context, tx *gorm.DB, id uint64, message *string) error {
	if s == nil || (s.db == nil && tx == nil) || id == 0 {
		return nil
	}
	return s.conn(ctx, tx).Model(&models.Reading{}).Where("id = ?", id).
		UpdateColumn("discharge_error", message).Error
}

// ClearDischargeErrors makes the sensor's failed readings eligible for the
// pending sweep again.
func (s *Store) ClearDischargeErrors(ctx context.Context, sensorCode string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Model(&models.Reading{}).
		Where("mas_sensor_code = ? AND discharge_error IS NOT NULL", sensorCode).
		UpdateColumn("discharge_error", nil)
	return res.RowsAffected, res.Error
}

func (s *Store) UpsertPrediction(ctx context.Context, item *models.Prediction) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	item.ID = 0
	item.PredictionFor = item.PredictionFor.UTC()
	if item.PredictionRunAt == nil {
		now := time.Now().UTC()
		item.PredictionRunAt = &now
	}
	return s.db.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "mas_sensor_code"}, {Name: "prediction_for_ts"}},
			DoUpdates: clause.AssignmentColumns([]string{"predicted_value", "prediction_run_at"}),
		},
		clause.Returning{Columns: []clause.Column{{Name: "id"}}},
	).Create(item).Error
}

func (s *Store) GetPredictionByID(ctx context.Context, id uint64) (*models.Prediction, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	return first[models.Prediction](s.db.WithContext(ctx).Model(&models.Prediction{}).Where("id = ?", id))
}

func (s *Store) ListPredictions(ctx context.Context, params repository.ListSeriesParams) ([]models.Prediction, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applySeries(s.db.WithContext(ctx).Model(&models.Prediction{}), "prediction_for_ts", params)
	query = applyOrder(query, "prediction_for_ts", params.Asc, "prediction_for_ts")
	var items []models.Prediction
	if err := query.Limit(normalizeLimit(params.Limit, 500)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
