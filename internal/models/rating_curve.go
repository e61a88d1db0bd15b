package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	FormulaTipe01      = "tipe-01"
	FormulaTipe02      = "tipe-02"
	FormulaTipe03      = "tipe-03"
	FormulaPower       = "power"
	FormulaPolynomial  = "polynomial"
	FormulaExponential = "exponential"
	FormulaCustom      = "custom"
)

// RatingCurve converts water level to discharge from EffectiveDate onward.
type RatingCurve struct {
	ID            uint64              `gorm:"primaryKey;autoIncrement" json:"id"`
	Code          string              `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"`
	SensorCode    string              `gorm:"column:mas_sensor_code;type:varchar(100);not null;index:idx_curves_sensor_date,priority:1" json:"mas_sensor_code"`
	FormulaType   string              `gorm:"type:varchar(30);not null" json:"formula_type"`
	A             decimal.NullDecimal `gorm:"type:numeric(18,6)" json:"a" swaggertype:"number"`
	B             decimal.NullDecimal `gorm:"type:numeric(18,6)" json:"b" swaggertype:"number"`
	C             decimal.NullDecimal `gorm:"type:numeric(18,6)" json:"c" swaggertype:"number"`
	EffectiveDate time.Time           `gorm:"type:timestamptz;not null;index:idx_curves_sensor_date,priority:2,sort:desc" json:"effective_date"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (RatingCurve) TableName() string {
	return "rating_curves"
}
