package models

import (
	"time"

	"gorm.io/datatypes"
)

// SensorMapping links an external sensor id of one source to an internal sensor.
type SensorMapping struct {
	ID               uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	SourceID         uint64         `gorm:"column:api_data_source_id;not null;uniqueIndex:uq_mapping_source_sensor,priority:1;index:idx_mapping_source_external,priority:1" json:"api_data_source_id"`
	SensorCode       string         `gorm:"column:mas_sensor_code;type:varchar(100);not null;uniqueIndex:uq_mapping_source_sensor,priority:2" json:"mas_sensor_code"`
	DeviceCode       string         `gorm:"column:mas_device_code;type:varchar(100);not null" json:"mas_device_code"`
	ExternalSensorID *string        `gorm:"type:varchar(255);index:idx_mapping_source_external,priority:2" json:"external_sensor_id"`
	FieldMapping     datatypes.JSON `gorm:"type:jsonb" json:"field_mapping,omitempty" swaggertype:"object"`
	IsActive         bool           `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (SensorMapping) TableName() string {
	return "sensor_api_mappings"
}
