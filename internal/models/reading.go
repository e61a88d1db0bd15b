package models

import "time"

// Reading is one observed value of a sensor. (sensor_code, received_at) is unique.
// Status is derived from the sensor thresholds; SourceStatus is the status the
// telemetry source reported, stored as received.
type Reading struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SensorCode   string    `gorm:"column:mas_sensor_code;type:varchar(100);not null;uniqueIndex:uq_data_actuals_sensor_time,priority:1" json:"mas_sensor_code"`
	Value        *float64  `json:"value"`
	Status       *string   `gorm:"column:threshold_status;type:varchar(20)" json:"threshold_status"`
	SourceStatus string    `gorm:"column:status;type:varchar(50);not null;default:'normal'" json:"status"`
	ReceivedAt   time.Time `gorm:"type:timestamptz;not null;uniqueIndex:uq_data_actuals_sensor_time,priority:2;index" json:"received_at"`
	Origin       string    `gorm:"column:source;type:varchar(120)" json:"source"`
	// DischargeError holds why the last discharge calculation failed. The
	// pending sweep skips such readings until a new value or curve clears it.
	DischargeError *string `gorm:"column:discharge_error;type:text" json:"discharge_error,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (Reading) TableName() string {
	return "data_actuals"
}

// Prediction is an externally supplied forecast value.
type Prediction struct {
	ID              uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SensorCode      string     `gorm:"column:mas_sensor_code;type:varchar(100);not null;uniqueIndex:uq_data_predictions_sensor_ts,priority:1" json:"mas_sensor_code"`
	PredictedValue  float64    `gorm:"not null" json:"predicted_value"`
	PredictionRunAt *time.Time `gorm:"type:timestamptz" json:"prediction_run_at"`
	PredictionFor   time.Time  `gorm:"column:prediction_for_ts;type:timestamptz;not null;uniqueIndex:uq_data_predictions_sensor_ts,priority:2" json:"prediction_for_ts"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
}

func (Prediction) TableName() string {
	return "data_predictions"
}
