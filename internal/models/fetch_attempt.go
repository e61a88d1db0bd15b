package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	FetchSuccess = "success"
	FetchFailed  = "failed"
	FetchPartial = "partial"
)

// FetchAttempt is the append-only log row written once per fetch cycle.
type FetchAttempt struct {
	ID             uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	SourceID       uint64         `gorm:"column:api_data_source_id;not null;index:idx_fetch_logs_source_time,priority:1" json:"api_data_source_id"`
	CycleID        string         `gorm:"type:varchar(36);index" json:"cycle_id"`
	FetchedAt      time.Time      `gorm:"type:timestamptz;not null;index:idx_fetch_logs_source_time,priority:2,sort:desc" json:"fetched_at"`
	Status         string         `gorm:"type:varchar(20);not null" json:"status"`
	RecordsFetched int            `gorm:"not null;default:0" json:"records_fetched"`
	RecordsSaved   int            `gorm:"not null;default:0" json:"records_saved"`
	RecordsFailed  int            `gorm:"not null;default:0" json:"records_failed"`
	ErrorMessage   *string        `gorm:"type:text" json:"error_message"`
	Summary        datatypes.JSON `gorm:"column:response_summary;type:jsonb" json:"response_summary,omitempty" swaggertype:"object"`
	DurationMs     int64          `gorm:"not null;default:0" json:"duration_ms"`
}

func (FetchAttempt) TableName() string {
	return "api_data_fetch_logs"
}
