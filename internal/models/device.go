package models

import "time"

type Device struct {
	ID             uint64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Code           string   `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	Name           string   `gorm:"type:varchar(255);not null" json:"name"`
	RiverBasinCode string   `gorm:"column:mas_river_basin_code;type:varchar(100)" json:"mas_river_basin_code"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	Elevation      float64  `gorm:"not null;default:0" json:"elevation"`
	Status         string   `gorm:"type:varchar(20);not null;default:'active'" json:"status"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (Device) TableName() string {
	return "mas_devices"
}
