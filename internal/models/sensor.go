package models

import (
	"errors"
	"time"
)

const (
	StatusSafe    = "safe"
	StatusWarning = "warning"
	StatusDanger  = "danger"
)

var ErrThresholdOrder = errors.New("thresholds must satisfy safe < warning < danger")

type Sensor struct {
	ID              uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Code            string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	DeviceCode      string     `gorm:"column:mas_device_code;type:varchar(100);not null;index" json:"mas_device_code"`
	Parameter       string     `gorm:"type:varchar(50);not null" json:"parameter"`
	Unit            string     `gorm:"type:varchar(20)" json:"unit"`
	Description     string     `gorm:"type:text" json:"description,omitempty"`
	ThresholdSafe   *float64   `json:"threshold_safe"`
	ThresholdWarn   *float64   `gorm:"column:threshold_warning" json:"threshold_warning"`
	ThresholdDanger *float64   `json:"threshold_danger"`
	Status          string     `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	LastSeenAt      *time.Time `gorm:"type:timestamptz" json:"last_seen_at"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (Sensor) TableName() string {
	return "mas_sensors"
}

// ValidateThresholds enforces safe < warning < danger among the bounds that are set.
func (s *Sensor) ValidateThresholds() error {
	if s == nil {
		return nil
	}
	bounds := []*float64{s.ThresholdSafe, s.ThresholdWarn, s.ThresholdDanger}
	var prev *float64
	for _, b := range bounds {
		if b == nil {
			continue
		}
		if prev != nil && !(*prev < *b) {
			return ErrThresholdOrder
		}
		prev = b
	}
	return nil
}

// StatusFor derives the reading status from the current thresholds.
// A nil value has no status.
func (s *Sensor) StatusFor(value *float64) *string {
	if value == nil {
		return nil
	}
	status := StatusSafe
	if s == nil || (s.ThresholdWarn == nil && s.ThresholdDanger == nil) {
		return &status
	}
	switch {
	case s.ThresholdDanger != nil && *value >= *s.ThresholdDanger:
		status = StatusDanger
	case s.ThresholdWarn != nil && *value >= *s.ThresholdWarn:
		status = StatusWarning
	}
	return &status
}
