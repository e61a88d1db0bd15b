package models

import (
	"time"

	"gorm.io/datatypes"
)

// GeojsonMapping is a flood-extent layer shown when a device's discharge lies
// within [ValueMin, ValueMax]. A nil bound is open on that side.
type GeojsonMapping struct {
	ID          uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Code        string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	DeviceCode  string         `gorm:"column:mas_device_code;type:varchar(100);not null;index" json:"mas_device_code"`
	ValueMin    *float64       `json:"value_min"`
	ValueMax    *float64       `json:"value_max"`
	FilePath    string         `gorm:"type:text" json:"file_path"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	Properties  datatypes.JSON `gorm:"column:properties_content;type:jsonb" json:"properties,omitempty" swaggertype:"object"`
	Metadata    datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty" swaggertype:"object"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (GeojsonMapping) TableName() string {
	return "geojson_mappings"
}
