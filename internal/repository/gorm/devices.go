package gormrepository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/esareynor/ffws-jatim-sub001/internal/models"
)

func (s *Store) GetDeviceByCodeTx(ctx context.Context, tx *gorm.DB, code string) (*models.Device, error) {
	if s == nil || (s.db == nil && tx == nil) {
		return nil, nil
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	return first[models.Device](s.conn(ctx, tx).Model(&models.Device{}).Where("code = ?", code))
}

// CreateDeviceTx inserts the device unless the code already exists; in both
// cases item is loaded with the stored row.
func (s *Store) CreateDeviceTx(ctx context.Context, tx *gorm.DB, item *models.Device) error {
	if s == nil || (s.db == nil && tx == nil) || item == nil {
		return nil
	}
	db := s.conn(ctx, tx)
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(item)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return db.Model(&models.Device{}).Where("code = ?", item.Code).First(item).Error
}

func (s *Store) UpdateDeviceCoordinatesTx(ctx context.Context, tx *gorm.DB, code string, lat, lon float64) error {
	if s == nil || (s.db == nil && tx == nil) {
		return nil
	}
	return s.conn(ctx, tx).Model(&models.Device{}).Where("code = ?", code).Updates(map[string]any{
		"latitude":   lat,
		"longitude":  lon,
		"updated_at": time.Now().UTC(),
	}).Error
}

func (s *Store) GetSensorByCode(ctx context.Context, code string) (*models.Sensor, error) {
	return s.GetSensorByCodeTx(ctx, nil, code)
}

func (s *Store) GetSensorByCodeTx(ctx context.Context, tx *gorm.DB, code string) (*models.Sensor, error) {
	if s == nil || (s.db == nil && tx == nil) {
		return nil, nil
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	return first[models.Sensor](s.conn(ctx, tx).Model(&models.Sensor{}).Where("code = ?", code))
}

func (s *Store) CreateSensorTx(ctx context.Context, tx *gorm.DB, item *models.Sensor) error {
	if s == nil || (s.db == nil && tx == nil) || item == nil {
		return nil
	}
	db := s.conn(ctx, tx)
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(item)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return db.Model(&models.Sensor{}).Where("code = ?", item.Code).First(item).Error
}

// TouchSensorTx moves last_seen_at forward, never back.
func (s *Store) TouchSensorTx(ctx context.Context, tx *gorm.DB, code string, seenAt time.Time) error {
	if s == nil || (s.db == nil && tx == nil) {
		return nil
	}
	return s.conn(ctx, tx).Model(&models.Sensor{}).
		Where("code = ? AND (last_seen_at IS NULL OR last_seen_at < ?)", code, seenAt.UTC()).
		Update("last_seen_at", seenAt.UTC()).Error
}
