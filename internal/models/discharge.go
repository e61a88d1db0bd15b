package models

import "time"

// CalculatedDischarge is unique per (sensor_code, calculated_at).
type CalculatedDischarge struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SensorCode      string    `gorm:"column:mas_sensor_code;type:varchar(100);not null;uniqueIndex:uq_calc_discharge_sensor_time,priority:1" json:"mas_sensor_code"`
	SensorValue     float64   `gorm:"not null" json:"sensor_value"`
	SensorDischarge float64   `gorm:"not null" json:"sensor_discharge"`
	RatingCurveCode string    `gorm:"type:varchar(100);not null;index" json:"rating_curve_code"`
	CalculatedAt    time.Time `gorm:"type:timestamptz;not null;uniqueIndex:uq_calc_discharge_sensor_time,priority:2;index" json:"calculated_at"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (CalculatedDischarge) TableName() string {
	return "calculated_discharges"
}

// PredictedCalculatedDischarge is the forecast series; CalculatedAt holds the
// prediction_for_ts of the source prediction.
type PredictedCalculatedDischarge struct {
	ID                 uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SensorCode         string    `gorm:"column:mas_sensor_code;type:varchar(100);not null;uniqueIndex:uq_pred_discharge_sensor_time,priority:1" json:"mas_sensor_code"`
	PredictedValue     float64   `gorm:"not null" json:"predicted_value"`
	PredictedDischarge float64   `gorm:"not null" json:"predicted_discharge"`
	RatingCurveCode    string    `gorm:"type:varchar(100);not null;index" json:"rating_curve_code"`
	CalculatedAt       time.Time `gorm:"type:timestamptz;not null;uniqueIndex:uq_pred_discharge_sensor_time,priority:2" json:"calculated_at"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (PredictedCalculatedDischarge) TableName() string {
	return "predicted_calculated_discharges"
}
