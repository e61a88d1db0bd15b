package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/esareynor/ffws-jatim-sub001/internal/models"
)

// Transactor runs fn in a transaction. SavepointTx nests fn inside tx so a
// failure rolls back only the work done by fn.
type Transactor interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error
	SavepointTx(ctx context.Context, tx *gorm.DB, fn func(tx *gorm.DB) error) error
}

type SourceRepository interface {
	CreateSource(ctx context.Context, item *models.Source) error
	UpdateSource(ctx context.Context, item *models.Source) error
	DeleteSource(ctx context.Context, id uint64) error
	GetSourceByCode(ctx context.Context, code string) (*models.Source, error)
	ListSources(ctx context.Context, params ListSourcesParams) ([]models.Source, error)
	CountSources(ctx context.Context, params ListSourcesParams) (int64, error)
	UpdateSourceHealth(ctx context.Context, id uint64, health SourceHealth) error

	InsertFetchAttempt(ctx context.Context, item *models.FetchAttempt) error
	ListFetchAttempts(ctx context.Context, params ListFetchAttemptsParams) ([]models.FetchAttempt, error)
	CountFetchAttempts(ctx context.Context, params ListFetchAttemptsParams) (int64, error)
	FetchStatistics(ctx context.Context, sourceID uint64) (FetchStats, error)
	CountActiveMappings(ctx context.Context, sourceID uint64) (int64, error)
}

type MappingRepository interface {
	FindActiveMappingBySensorTx(ctx context.Context, tx *gorm.DB, sourceID uint64, sensorCode string) (*models.SensorMapping, error)
	FindActiveMappingByExternalIDTx(ctx context.Context, tx *gorm.DB, sourceID uint64, externalID string) (*models.SensorMapping, error)
	FindMappingByExternalIDTx(ctx context.Context, tx *gorm.DB, sourceID uint64, externalID string) (*models.SensorMapping, error)
	// SaveMappingTx upserts on (source, sensor) and always stores the row as given.
	SaveMappingTx(ctx context.Context, tx *gorm.DB, item *models.SensorMapping) error

	GetMappingByID(ctx context.Context, id uint64) (*models.SensorMapping, error)
	ListMappings(ctx context.Context, params ListMappingsParams) ([]models.SensorMapping, error)
	CountMappings(ctx context.Context, params ListMappingsParams) (int64, error)
	CreateMapping(ctx context.Context, item *models.SensorMapping) error
	UpdateMapping(ctx context.Context, item *models.SensorMapping) error
	DeleteMapping(ctx context.Context, id uint64) error
}

type DeviceRepository interface {
	GetDeviceByCodeTx(ctx context.Context, tx *gorm.DB, code string) (*models.Device, error)
	CreateDeviceTx(ctx context.Context, tx *gorm.DB, item *models.Device) error
	UpdateDeviceCoordinatesTx(ctx context.Context, tx *gorm.DB, code string, lat, lon float64) error

	GetSensorByCode(ctx context.Context, code string) (*models.Sensor, error)
	GetSensorByCodeTx(ctx context.Context, tx *gorm.DB, code string) (*models.Sensor, error)
	CreateSensorTx(ctx context.Context, tx *gorm.DB, item *models.Sensor) error
	TouchSensorTx(ctx context.Context, tx *gorm.DB, code string, seenAt time.Time) error
}

// ProvisionRepository is what the provisioning resolver needs.
type ProvisionRepository interface {
	Transactor
	DeviceRepository
	FindMappingByExternalIDTx(ctx context.Context, tx *gorm.DB, sourceID uint64, externalID string) (*models.SensorMapping, error)
	SaveMappingTx(ctx context.Context, tx *gorm.DB, item *models.SensorMapping) error
}

type ReadingRepository interface {
	// UpsertReadingTx inserts or overwrites value/status on (sensor, received_at),
	// clears any discharge error and sets item.ID to the stored row.
	UpsertReadingTx(ctx context.Context, tx *gorm.DB, item *models.Reading) error
	GetReadingByID(ctx context.Context, id uint64) (*models.Reading, error)
	ListReadings(ctx context.Context, params ListSeriesParams) ([]models.Reading, error)
	// ListReadingsWithoutDischarge returns readings of sensors with the given
	// parameter that have a value and an applicable curve but no discharge row
	// and no recorded discharge error.
	ListReadingsWithoutDischarge(ctx context.Context, parameter string, limit int) ([]models.Reading, error)
	// SetDischargeErrorTx records (or clears, when message is nil) the last
	// discharge failure of a reading.
	SetDischargeErrorTx(ctx context.Context, tx *gorm.DB, id uint64, message *string) error
	ClearDischargeErrors(ctx context.Context, sensorCode string) (int64, error)

	UpsertPrediction(ctx context.Context, item *models.Prediction) error
	GetPredictionByID(ctx context.Context, id uint64) (*models.Prediction, error)
	ListPredictions(ctx context.Context, params ListSeriesParams) ([]models.Prediction, error)
}

type CurveRepository interface {
	// ListRatingCurves returns the sensor's curves, newest effective date first.
	ListRatingCurves(ctx context.Context, sensorCode string) ([]models.RatingCurve, error)
	GetRatingCurveByCode(ctx context.Context, code string) (*models.RatingCurve, error)
	CreateRatingCurve(ctx context.Context, item *models.RatingCurve) error
	UpdateRatingCurve(ctx context.Context, item *models.RatingCurve) error
	// CountCurveUsage counts actual and predicted discharges per curve code.
	CountCurveUsage(ctx context.Context, codes []string) (map[string]int64, error)
}

type DischargeRepository interface {
	UpsertCalculatedDischargeTx(ctx context.Context, tx *gorm.DB, item *models.CalculatedDischarge) error
	UpsertPredictedDischargeTx(ctx context.Context, tx *gorm.DB, item *models.PredictedCalculatedDischarge) error
	DeleteCalculatedDischargesTx(ctx context.Context, tx *gorm.DB, sensorCode string, from, to *time.Time) (int64, error)
	DeletePredictedDischargesTx(ctx context.Context, tx *gorm.DB, sensorCode string, from, to *time.Time) (int64, error)

	GetCalculatedDischargeByID(ctx context.Context, id uint64) (*models.CalculatedDischarge, error)
	GetPredictedDischargeByID(ctx context.Context, id uint64) (*models.PredictedCalculatedDischarge, error)
	ListCalculatedDischarges(ctx context.Context, params ListSeriesParams) ([]models.CalculatedDischarge, error)
	ListPredictedDischarges(ctx context.Context, params ListSeriesParams) ([]models.PredictedCalculatedDischarge, error)
	SummarizeCalculatedDischarges(ctx context.Context, params ListSeriesParams) (SeriesAggregate, error)
	SummarizePredictedDischarges(ctx context.Context, params ListSeriesParams) (SeriesAggregate, error)
}

type LayerRepository interface {
	// ListLayersForValue returns the device's layers whose inclusive range
	// contains value; a null bound is open on that side.
	ListLayersForValue(ctx context.Context, deviceCode string, value float64) ([]models.GeojsonMapping, error)
}

type SettingsRepository interface {
	UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error
	GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error)
	ListSystemSettings(ctx context.Context, params ListSystemSettingsParams) ([]models.SystemSetting, error)
	CountSystemSettings(ctx context.Context, params ListSystemSettingsParams) (int64, error)
}

// Repository is implemented by the gorm store.
type Repository interface {
	Transactor
	SourceRepository
	MappingRepository
	DeviceRepository
	ReadingRepository
	CurveRepository
	DischargeRepository
	LayerRepository
	SettingsRepository
}

// SourceHealth is written after every fetch cycle. LastSuccessAt nil leaves
// the stored value untouched. Failed increments consecutive_failures in place;
// otherwise the counter is reset.
type SourceHealth struct {
	LastFetchAt   time.Time
	LastSuccessAt *time.Time
	LastError     *string
	Failed        bool
}

type FetchStats struct {
	TotalFetches        int64
	SuccessfulFetches   int64
	FailedFetches       int64
	PartialFetches      int64
	TotalRecordsFetched int64
	TotalRecordsSaved   int64
}

type SeriesAggregate struct {
	Count    int64
	MaxValue *float64
	MinValue *float64
	AvgValue *float64
	// MaxLevel/MinLevel are the water level columns of the same rows.
	MaxLevel *float64
	MinLevel *float64
	OldestAt *time.Time
	NewestAt *time.Time
}

type ListSourcesParams struct {
	Limit   int
	Offset  int
	Active  *bool
	Query   *string
	OrderBy string
	Asc     *bool
}

type ListFetchAttemptsParams struct {
	Limit    int
	Offset   int
	SourceID uint64
	Status   *string
}

type ListMappingsParams struct {
	Limit      int
	Offset     int
	SourceID   *uint64
	SensorCode *string
	Active     *bool
}

// ListSeriesParams filters a per-sensor time series. An empty SensorCode
// spans all sensors. From/To are inclusive.
type ListSeriesParams struct {
	Limit      int
	Offset     int
	SensorCode string
	From       *time.Time
	To         *time.Time
	Asc        *bool
}

type ListSystemSettingsParams struct {
	Limit   int
	Offset  int
	Prefix  *string
	OrderBy string
	Asc     *bool
}
