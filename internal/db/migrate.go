package db

import (
	"github.com/esareynor/ffws-jatim-sub001/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Source{},
		&models.FetchAttempt{},
		&models.Device{},
		&models.Sensor{},
		&models.SensorMapping{},
		&models.Reading{},
		&models.Prediction{},
		&models.RatingCurve{},
		&models.CalculatedDischarge{},
		&models.PredictedCalculatedDischarge{},
		&models.GeojsonMapping{},
		&models.SystemSetting{},
	)
}
