package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	AuthNone   = "none"
	AuthBearer = "bearer"
	AuthBasic  = "basic"
	AuthAPIKey = "api_key"

	FormatJSON = "json"
	FormatXML  = "xml"
)

// Source describes one external telemetry API and carries its health state.
// Health columns are written only by the ingestion engine.
type Source struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Code string `gorm:"type:varchar(255);uniqueIndex;not null" json:"code"`

	APIURL    string         `gorm:"column:api_url;type:text;not null" json:"api_url"`
	APIMethod string         `gorm:"column:api_method;type:varchar(10);not null;default:'GET'" json:"api_method"`
	Headers   datatypes.JSON `gorm:"column:api_headers;type:jsonb" json:"api_headers,omitempty" swaggertype:"object"`
	Params    datatypes.JSON `gorm:"column:api_params;type:jsonb" json:"api_params,omitempty" swaggertype:"object"`
	Body      datatypes.JSON `gorm:"column:api_body;type:jsonb" json:"api_body,omitempty" swaggertype:"object"`

	AuthType string `gorm:"type:varchar(20);not null;default:'none'" json:"auth_type"`
	// Sealed credential bundle, never serialized to API clients.
	AuthCredentials string `gorm:"type:text" json:"-"`

	ResponseFormat string         `gorm:"type:varchar(10);not null;default:'json'" json:"response_format"`
	DataMapping    datatypes.JSON `gorm:"type:jsonb;not null" json:"data_mapping" swaggertype:"object"`

	FetchIntervalMinutes int    `gorm:"not null;default:60" json:"fetch_interval_minutes"`
	IsActive             bool   `gorm:"not null;default:true;index" json:"is_active"`
	Description          string `gorm:"type:text" json:"description,omitempty"`

	LastFetchAt         *time.Time `gorm:"type:timestamptz" json:"last_fetch_at"`
	LastSuccessAt       *time.Time `gorm:"type:timestamptz" json:"last_success_at"`
	LastError           *string    `gorm:"type:text" json:"last_error"`
	ConsecutiveFailures int        `gorm:"not null;default:0" json:"consecutive_failures"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (Source) TableName() string {
	return "api_data_sources"
}

// IsDue reports whether the polling interval has elapsed at now.
func (s *Source) IsDue(now time.Time) bool {
	if s == nil || !s.IsActive {
		return false
	}
	if s.LastFetchAt == nil {
		return true
	}
	interval := time.Duration(s.FetchIntervalMinutes) * time.Minute
	return now.Sub(*s.LastFetchAt) >= interval
}
