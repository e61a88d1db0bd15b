package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/esareynor/ffws-jatim-sub001/internal/client/telemetry"
	"github.com/esareynor/ffws-jatim-sub001/internal/config"
	"github.com/esareynor/ffws-jatim-sub001/internal/mapping"
	"github.com/esareynor/ffws-jatim-sub001/internal/metrics"
	"github.com/esareynor/ffws-jatim-sub001/internal/models"
	"github.com/esareynor/ffws-jatim-sub001/internal/notify"
	"github.com/esareynor/ffws-jatim-sub001/internal/provision"
	"github.com/esareynor/ffws-jatim-sub001/internal/repository"
)

const (
	maxStoredErrors = 10
	sampleSize      = 3
	sourcePageSize  = 200
)

// IngestService runs fetch cycles: request, decode, route, store and
// bookkeeping for each due source.
type IngestService struct {
	Repo      repository.Repository
	Fetcher   telemetry.Fetcher
	Resolver  *provision.Resolver
	Discharge *DischargeService
	Settings  *SystemSettingsService
	Notifier  notify.Publisher
	Metrics   *metrics.Metrics
	Clock     clockwork.Clock
	Config    config.IngestConfig
	// AutoDischarge hands stored readings of WaterLevelParameter sensors to
	// the discharge engine after each cycle.
	AutoDischarge       bool
	WaterLevelParameter string
	// Location interprets timestamps without a zone.
	Location *time.Location
	Logger   *zap.Logger
}

type FetchOptions struct {
	// Force fetches every active source regardless of its interval.
	Force bool
}

type FetchResult struct {
	Source         string   `json:"source"`
	CycleID        string   `json:"cycle_id"`
	Status         string   `json:"status"`
	Message        string   `json:"message"`
	RecordsFetched int      `json:"records_fetched"`
	RecordsSaved   int      `json:"records_saved"`
	RecordsFailed  int      `json:"records_failed"`
	Provisioned    int      `json:"provisioned"`
	DurationMs     int64    `json:"duration_ms"`
	Errors         []string `json:"errors"`

	Discharge *BatchSummary `json:"discharge,omitempty"`
}

func (r FetchResult) Success() bool {
	return r.Status != models.FetchFailed
}

type FetchAllResult struct {
	Total   int           `json:"total"`
	Success int           `json:"success"`
	Failed  int           `json:"failed"`
	Skipped int           `json:"skipped"`
	Results []FetchResult `json:"results"`
}

type ConnectionTestResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	Status       int    `json:"http_status,omitempty"`
	TotalRecords int    `json:"total_records"`
	Sample       []any  `json:"sample_records"`
	DurationMs   int64  `json:"duration_ms"`
}

type SourceStatistics struct {
	Source              string     `json:"source"`
	TotalFetches        int64      `json:"total_fetches"`
	SuccessfulFetches   int64      `json:"successful_fetches"`
	FailedFetches       int64      `json:"failed_fetches"`
	PartialFetches      int64      `json:"partial_fetches"`
	TotalRecordsFetched int64      `json:"total_records_fetched"`
	TotalRecordsSaved   int64      `json:"total_records_saved"`
	LastFetchAt         *time.Time `json:"last_fetch_at"`
	LastSuccessAt       *time.Time `json:"last_success_at"`
	LastError           *string    `json:"last_error"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	ActiveMappings      int64      `json:"active_mappings"`
}

// FetchDue runs one cycle for every due source, bounded by Config.Workers.
// A failing source never stops the others.
func (s *IngestService) FetchDue(ctx context.Context, opts FetchOptions) (FetchAllResult, error) {
	out := FetchAllResult{Results: []FetchResult{}}
	if s == nil || s.Repo == nil {
		return out, ErrUnavailable
	}
	sources, err := s.activeSources(ctx)
	if err != nil {
		return out, err
	}
	now := s.now()
	due := make([]models.Source, 0, len(sources))
	for i := range sources {
		if opts.Force || sources[i].IsDue(now) {
			due = append(due, sources[i])
		} else {
			out.Skipped++
		}
	}
	s.Metrics.SetSourcesDue(len(due))

	workers := s.Config.Workers
	if workers <= 0 {
		workers = 1
	}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range due {
		source := &due[i]
		g.Go(func() error {
			res := s.FetchOne(gctx, source)
			mu.Lock()
			out.Results = append(out.Results, res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	out.Total = len(out.Results)
	for _, r := range out.Results {
		if r.Success() {
			out.Success++
		} else {
			out.Failed++
		}
	}
	s.logger().Info("fetch due finished",
		zap.Int("total", out.Total),
		zap.Int("success", out.Success),
		zap.Int("failed", out.Failed),
		zap.Int("skipped", out.Skipped),
	)
	return out, ctx.Err()
}

func (s *IngestService) activeSources(ctx context.Context) ([]models.Source, error) {
	active := true
	var out []models.Source
	for offset := 0; ; offset += sourcePageSize {
		page, err := s.Repo.ListSources(ctx, repository.ListSourcesParams{
			Limit:  sourcePageSize,
			Offset: offset,
			Active: &active,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < sourcePageSize {
			return out, nil
		}
	}
}

func (s *IngestService) FetchSource(ctx context.Context, code string) (FetchResult, error) {
	source, err := s.source(ctx, code)
	if err != nil {
		return FetchResult{}, err
	}
	return s.FetchOne(ctx, source), nil
}

type savedReading struct {
	reading   models.Reading
	parameter string
}

type cycleState struct {
	cycleID    string
	fetched    int
	saved      int
	failed     int
	provisions int
	errors     []string
	summary    map[string]any
	stored     []savedReading
}

// FetchOne performs one complete cycle for source and always records the
// attempt and the health fields, even when the cycle fails outright.
func (s *IngestService) FetchOne(ctx context.Context, source *models.Source) FetchResult {
	start := s.now()
	st := &cycleState{cycleID: uuid.NewString(), errors: []string{}}
	cycleErr := s.runCycle(ctx, source, st)

	status := models.FetchSuccess
	message := "Data fetched successfully"
	switch {
	case cycleErr != nil:
		status = models.FetchFailed
		message = cycleErr.Error()
	case st.failed > 0 && st.saved > 0:
		status = models.FetchPartial
		message = fmt.Sprintf("%d of %d records failed", st.failed, st.fetched)
	case st.failed > 0:
		status = models.FetchFailed
		message = st.errors[0]
	}
	duration := s.now().Sub(start)

	s.record(context.WithoutCancel(ctx), source, st, status, message, start, duration)
	s.Metrics.ObserveFetch(source.Code, status, duration, st.saved, st.failed)

	res := FetchResult{
		Source:         source.Code,
		CycleID:        st.cycleID,
		Status:         status,
		Message:        message,
		RecordsFetched: st.fetched,
		RecordsSaved:   st.saved,
		RecordsFailed:  st.failed,
		Provisioned:    st.provisions,
		DurationMs:     duration.Milliseconds(),
		Errors:         st.errors,
	}
	if cycleErr == nil {
		res.Discharge = s.afterCommit(ctx, source, st.stored)
	}

	fields := []zap.Field{
		zap.String("source", source.Code),
		zap.String("cycle", st.cycleID),
		zap.String("status", status),
		zap.Int("fetched", st.fetched),
		zap.Int("saved", st.saved),
		zap.Int("failed", st.failed),
		zap.Duration("took", duration),
	}
	if status == models.FetchFailed {
		s.logger().Warn("fetch cycle failed", append(fields, zap.String("error", message))...)
	} else {
		s.logger().Info("fetch cycle finished", fields...)
	}
	return res
}

func (s *IngestService) runCycle(ctx context.Context, source *models.Source, st *cycleState) error {
	if !source.IsActive {
		return errors.New("API data source is not active")
	}
	spec, err := mapping.ParseSpec(source.DataMapping)
	if err != nil {
		return err
	}
	if s.Fetcher == nil {
		return ErrUnavailable
	}
	resp, err := s.Fetcher.Fetch(ctx, source)
	if err != nil {
		return err
	}
	records, err := mapping.Parse(resp.Body, source.ResponseFormat, spec.DataPath)
	if err != nil {
		return err
	}
	st.fetched = len(records)
	st.summary = map[string]any{"total_records": len(records), "sample_record": nil}
	if len(records) > 0 {
		st.summary["sample_record"] = records[0]
	}

	extractor := s.extractor(spec)
	provisionEnabled := s.Settings.IsEnabled(ctx, FeatureAutoProvision, true)
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		for i, raw := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			saved, provisioned, err := s.ingestRecord(ctx, tx, source, spec, extractor, raw, provisionEnabled)
			if provisioned {
				st.provisions++
			}
			if err != nil {
				st.failed++
				st.errors = append(st.errors, fmt.Sprintf("record %d: %v", i, err))
				continue
			}
			st.saved++
			st.stored = append(st.stored, *saved)
		}
		return nil
	})
	if err != nil {
		st.saved = 0
		st.stored = nil
		return fmt.Errorf("store records: %w", err)
	}
	return nil
}

// ingestRecord routes and stores one record. Lookups and the write run in
// savepoints of the cycle transaction; provisioning uses its own savepoints so
// entities it creates survive a later failure of the same record.
func (s *IngestService) ingestRecord(ctx context.Context, tx *gorm.DB, source *models.Source, spec mapping.Spec, extractor mapping.Extractor, raw any, provisionEnabled bool) (*savedReading, bool, error) {
	rec, err := extractor.Extract(raw)
	if err != nil {
		return nil, false, err
	}

	var route *models.SensorMapping
	err = s.Repo.SavepointTx(ctx, tx, func(tx *gorm.DB) error {
		route, err = s.route(ctx, tx, source, rec)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("route: %w", err)
	}

	provisioned := false
	sensorCode := ""
	switch {
	case route != nil:
		sensorCode = route.SensorCode
		if override := fieldOverride(route); len(override) > 0 {
			rec, err = s.extractor(mapping.Spec{
				DataPath:        spec.DataPath,
				Fields:          spec.Fields.With(override),
				TimestampFormat: spec.TimestampFormat,
			}).Extract(raw)
			if err != nil {
				return nil, false, err
			}
		}
	case !provisionEnabled:
		return nil, false, errors.New("no active sensor mapping")
	default:
		if s.Resolver == nil {
			return nil, false, errors.New("no active sensor mapping and provisioning is not configured")
		}
		result, err := s.Resolver.Resolve(ctx, tx, source, rec)
		if result != nil && (result.DeviceCreated || result.SensorCreated) {
			provisioned = true
			s.Metrics.IncProvisioned()
		}
		if err != nil {
			return nil, provisioned, fmt.Errorf("provision: %w", err)
		}
		switch {
		case result.Sensor != nil:
			sensorCode = result.Sensor.Code
		case result.Mapping != nil:
			sensorCode = result.Mapping.SensorCode
		}
	}

	var saved *savedReading
	err = s.Repo.SavepointTx(ctx, tx, func(tx *gorm.DB) error {
		sensor, err := s.Repo.GetSensorByCodeTx(ctx, tx, sensorCode)
		if err != nil {
			return err
		}
		if sensor == nil {
			return fmt.Errorf("%w: %s", ErrSensorNotFound, sensorCode)
		}
		reading := models.Reading{
			SensorCode:   sensor.Code,
			Value:        rec.Value,
			Status:       sensor.StatusFor(rec.Value),
			SourceStatus: rec.Status,
			ReceivedAt:   rec.Timestamp,
			Origin:       "api:" + source.Code,
		}
		if err := s.Repo.UpsertReadingTx(ctx, tx, &reading); err != nil {
			return err
		}
		if err := s.Repo.TouchSensorTx(ctx, tx, sensor.Code, reading.ReceivedAt); err != nil {
			return err
		}
		saved = &savedReading{reading: reading, parameter: sensor.Parameter}
		return nil
	})
	if err != nil {
		return nil, provisioned, err
	}
	return saved, provisioned, nil
}

// route finds the active mapping by internal sensor code first, then by
// external id. A nil mapping means the record needs provisioning.
func (s *IngestService) route(ctx context.Context, tx *gorm.DB, source *models.Source, rec mapping.Record) (*models.SensorMapping, error) {
	if rec.SensorCode != nil {
		m, err := s.Repo.FindActiveMappingBySensorTx(ctx, tx, source.ID, *rec.SensorCode)
		if err != nil || m != nil {
			return m, err
		}
	}
	if rec.ExternalID != nil {
		return s.Repo.FindActiveMappingByExternalIDTx(ctx, tx, source.ID, *rec.ExternalID)
	}
	return nil, nil
}

func fieldOverride(m *models.SensorMapping) mapping.FieldRules {
	if m == nil || len(m.FieldMapping) == 0 {
		return nil
	}
	var rules mapping.FieldRules
	if err := json.Unmarshal(m.FieldMapping, &rules); err != nil {
		return nil
	}
	return rules
}

func (s *IngestService) extractor(spec mapping.Spec) mapping.Extractor {
	return mapping.Extractor{
		Spec:          spec,
		DefaultLayout: s.Config.DefaultTimestampFormat,
		Location:      s.Location,
		Now:           s.now,
	}
}

// record writes the FetchAttempt row and the source health fields. Failures
// here are logged; they never change the cycle outcome.
func (s *IngestService) record(ctx context.Context, source *models.Source, st *cycleState, status, message string, start time.Time, duration time.Duration) {
	attempt := &models.FetchAttempt{
		SourceID:       source.ID,
		CycleID:        st.cycleID,
		FetchedAt:      start,
		Status:         status,
		RecordsFetched: st.fetched,
		RecordsSaved:   st.saved,
		RecordsFailed:  st.failed,
		DurationMs:     duration.Milliseconds(),
	}
	if status != models.FetchSuccess {
		msg := message
		if len(st.errors) > 0 {
			shown := st.errors
			if len(shown) > maxStoredErrors {
				shown = shown[:maxStoredErrors]
			}
			msg = strings.Join(shown, "; ")
		}
		attempt.ErrorMessage = &msg
	}
	if st.summary != nil {
		if raw, err := json.Marshal(st.summary); err == nil {
			attempt.Summary = datatypes.JSON(raw)
		}
	}
	if err := s.Repo.InsertFetchAttempt(ctx, attempt); err != nil {
		s.logger().Error("insert fetch attempt failed", zap.String("source", source.Code), zap.Error(err))
	}

	now := s.now()
	health := repository.SourceHealth{LastFetchAt: now}
	if status == models.FetchFailed {
		msg := message
		health.LastError = &msg
		health.Failed = true
	} else {
		health.LastSuccessAt = &now
	}
	if err := s.Repo.UpdateSourceHealth(ctx, source.ID, health); err != nil {
		s.logger().Error("update source health failed", zap.String("source", source.Code), zap.Error(err))
		return
	}
	source.LastFetchAt = &now
	source.LastError = health.LastError
	if health.Failed {
		source.ConsecutiveFailures++
	} else {
		source.ConsecutiveFailures = 0
	}
	if health.LastSuccessAt != nil {
		source.LastSuccessAt = health.LastSuccessAt
	}
}

// afterCommit hands water-level readings to the discharge engine and
// publishes alerts for readings in warning or danger.
func (s *IngestService) afterCommit(ctx context.Context, source *models.Source, stored []savedReading) *BatchSummary {
	if len(stored) == 0 {
		return nil
	}
	if s.Notifier != nil && s.Settings.IsEnabled(ctx, FeatureAlerts, true) {
		for _, sr := range stored {
			if !notify.ShouldAlert(sr.reading.Status) || sr.reading.Value == nil {
				continue
			}
			alert := notify.Alert{
				SensorCode: sr.reading.SensorCode,
				Status:     *sr.reading.Status,
				Value:      *sr.reading.Value,
				ReceivedAt: sr.reading.ReceivedAt,
				Source:     sr.reading.Origin,
			}
			if err := s.Notifier.Publish(ctx, alert); err != nil {
				s.logger().Warn("publish alert failed", zap.String("sensor", alert.SensorCode), zap.Error(err))
				continue
			}
			s.Metrics.IncAlert(alert.Status)
		}
	}

	if !s.AutoDischarge || s.Discharge == nil || !s.Settings.IsEnabled(ctx, FeatureDischarge, true) {
		return nil
	}
	parameter := strings.TrimSpace(s.WaterLevelParameter)
	if parameter == "" {
		parameter = string(provision.ParamWaterLevel)
	}
	readings := make([]models.Reading, 0, len(stored))
	for _, sr := range stored {
		if sr.parameter == parameter && sr.reading.Value != nil {
			readings = append(readings, sr.reading)
		}
	}
	if len(readings) == 0 {
		return nil
	}
	summary, err := s.Discharge.ProcessReadings(ctx, readings)
	if err != nil {
		s.logger().Warn("auto discharge failed", zap.String("source", source.Code), zap.Error(err))
	}
	return &summary
}

// TestConnection requests and decodes the source without storing anything.
func (s *IngestService) TestConnection(ctx context.Context, code string) (ConnectionTestResult, error) {
	source, err := s.source(ctx, code)
	if err != nil {
		return ConnectionTestResult{}, err
	}
	return s.TestSource(ctx, source), nil
}

func (s *IngestService) TestSource(ctx context.Context, source *models.Source) (out ConnectionTestResult) {
	start := s.now()
	out.Sample = []any{}
	defer func() { out.DurationMs = s.now().Sub(start).Milliseconds() }()

	spec, err := mapping.ParseSpec(source.DataMapping)
	if err != nil {
		out.Message = err.Error()
		return out
	}
	if s.Fetcher == nil {
		out.Message = ErrUnavailable.Error()
		return out
	}
	resp, err := s.Fetcher.Fetch(ctx, source)
	if resp != nil {
		out.Status = resp.Status
	}
	if err != nil {
		out.Message = err.Error()
		return out
	}
	records, err := mapping.Parse(resp.Body, source.ResponseFormat, spec.DataPath)
	if err != nil {
		out.Message = err.Error()
		return out
	}
	out.Success = true
	out.Message = "Connection successful"
	out.TotalRecords = len(records)
	n := len(records)
	if n > sampleSize {
		n = sampleSize
	}
	out.Sample = append(out.Sample, records[:n]...)
	return out
}

// Records fetches and extracts the source's records without storing them,
// for batch provisioning.
func (s *IngestService) Records(ctx context.Context, source *models.Source) ([]mapping.Record, []string, error) {
	spec, err := mapping.ParseSpec(source.DataMapping)
	if err != nil {
		return nil, nil, err
	}
	if s.Fetcher == nil {
		return nil, nil, ErrUnavailable
	}
	resp, err := s.Fetcher.Fetch(ctx, source)
	if err != nil {
		return nil, nil, err
	}
	raws, err := mapping.Parse(resp.Body, source.ResponseFormat, spec.DataPath)
	if err != nil {
		return nil, nil, err
	}
	extractor := s.extractor(spec)
	out := make([]mapping.Record, 0, len(raws))
	var problems []string
	for i, raw := range raws {
		rec, err := extractor.Extract(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("record %d: %v", i, err))
			continue
		}
		out = append(out, rec)
	}
	return out, problems, nil
}

// Provision runs the provisioning resolver over every record of the source.
func (s *IngestService) Provision(ctx context.Context, code string) (provision.BatchResult, error) {
	source, err := s.source(ctx, code)
	if err != nil {
		return provision.BatchResult{}, err
	}
	if s.Resolver == nil {
		return provision.BatchResult{}, ErrUnavailable
	}
	records, problems, err := s.Records(ctx, source)
	if err != nil {
		return provision.BatchResult{}, err
	}
	out := s.Resolver.ProvisionSource(ctx, source, records)
	out.Failed += len(problems)
	out.Errors = append(out.Errors, problems...)
	return out, nil
}

func (s *IngestService) Statistics(ctx context.Context, code string) (*SourceStatistics, error) {
	source, err := s.source(ctx, code)
	if err != nil {
		return nil, err
	}
	stats, err := s.Repo.FetchStatistics(ctx, source.ID)
	if err != nil {
		return nil, err
	}
	mappings, err := s.Repo.CountActiveMappings(ctx, source.ID)
	if err != nil {
		return nil, err
	}
	return &SourceStatistics{
		Source:              source.Code,
		TotalFetches:        stats.TotalFetches,
		SuccessfulFetches:   stats.SuccessfulFetches,
		FailedFetches:       stats.FailedFetches,
		PartialFetches:      stats.PartialFetches,
		TotalRecordsFetched: stats.TotalRecordsFetched,
		TotalRecordsSaved:   stats.TotalRecordsSaved,
		LastFetchAt:         source.LastFetchAt,
		LastSuccessAt:       source.LastSuccessAt,
		LastError:           source.LastError,
		ConsecutiveFailures: source.ConsecutiveFailures,
		ActiveMappings:      mappings,
	}, nil
}

func (s *IngestService) source(ctx context.Context, code string) (*models.Source, error) {
	if s == nil || s.Repo == nil {
		return nil, ErrUnavailable
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, validationError("source code is required")
	}
	source, err := s.Repo.GetSourceByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, ErrSourceNotFound
	}
	return source, nil
}

func (s *IngestService) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s *IngestService) logger() *zap.Logger {
	if s == nil || s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
