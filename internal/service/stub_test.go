package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/esareynor/ffws-jatim-sub001/internal/layer"
	"github.com/esareynor/ffws-jatim-sub001/internal/models"
	"github.com/esareynor/ffws-jatim-sub001/internal/repository"
)

type readingKey struct {
	sensor string
	at     int64
}

// stubRepo keeps every table in memory. Transactions are pass-through.
type stubRepo struct {
	mu sync.Mutex

	sources    map[string]*models.Source
	attempts   []models.FetchAttempt
	mappings   []models.SensorMapping
	devices    map[string]*models.Device
	sensors    map[string]*models.Sensor
	readings   map[readingKey]*models.Reading
	preds      map[readingKey]*models.Prediction
	curves     []models.RatingCurve
	calculated map[readingKey]*models.CalculatedDischarge
	predicted  map[readingKey]*models.PredictedCalculatedDischarge
	layers     []models.GeojsonMapping
	settings   map[string]*models.SystemSetting

	nextID uint64
}

var _ repository.Repository = (*stubRepo)(nil)

func newStubRepo() *stubRepo {
	return &stubRepo{
		sources:    map[string]*models.Source{},
		devices:    map[string]*models.Device{},
		sensors:    map[string]*models.Sensor{},
		readings:   map[readingKey]*models.Reading{},
		preds:      map[readingKey]*models.Prediction{},
		calculated: map[readingKey]*models.CalculatedDischarge{},
		predicted:  map[readingKey]*models.PredictedCalculatedDischarge{},
		settings:   map[string]*models.SystemSetting{},
	}
}

func (r *stubRepo) id() uint64 {
	r.nextID++
	return r.nextID
}

func seriesKey(sensor string, at time.Time) readingKey {
	return readingKey{sensor: sensor, at: at.UTC().UnixNano()}
}

func inRange(at time.Time, from, to *time.Time) bool {
	if from != nil && at.Before(*from) {
		return false
	}
	if to != nil && at.After(*to) {
		return false
	}
	return true
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (r *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (r *stubRepo) SavepointTx(ctx context.Context, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	return fn(tx)
}

func (r *stubRepo) CreateSource(ctx context.Context, item *models.Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item.ID = r.id()
	cp := *item
	r.sources[item.Code] = &cp
	return nil
}

func (r *stubRepo) UpdateSource(ctx context.Context, item *models.Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for code, s := range r.sources {
		if s.ID == item.ID {
			delete(r.sources, code)
		}
	}
	cp := *item
	r.sources[item.Code] = &cp
	return nil
}

func (r *stubRepo) DeleteSource(ctx context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for code, s := range r.sources {
		if s.ID == id {
			delete(r.sources, code)
		}
	}
	kept := r.mappings[:0]
	for _, m := range r.mappings {
		if m.SourceID != id {
			kept = append(kept, m)
		}
	}
	r.mappings = kept
	return nil
}

func (r *stubRepo) GetSourceByCode(ctx context.Context, code string) (*models.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sources[code]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *stubRepo) ListSources(ctx context.Context, params repository.ListSourcesParams) ([]models.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Source{}
	for _, s := range r.sources {
		if params.Active != nil && s.IsActive != *params.Active {
			continue
		}
		if params.Query != nil && !strings.Contains(s.Code, *params.Query) && !strings.Contains(s.Name, *params.Query) {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, params.Limit, params.Offset), nil
}

func (r *stubRepo) CountSources(ctx context.Context, params repository.ListSourcesParams) (int64, error) {
	params.Limit, params.Offset = 0, 0
	items, _ := r.ListSources(ctx, params)
	return int64(len(items)), nil
}

func (r *stubRepo) UpdateSourceHealth(ctx context.Context, id uint64, health repository.SourceHealth) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sources {
		if s.ID != id {
			continue
		}
		at := health.LastFetchAt
		s.LastFetchAt = &at
		s.LastError = health.LastError
		if health.Failed {
			s.ConsecutiveFailures++
		} else {
			s.ConsecutiveFailures = 0
		}
		if health.LastSuccessAt != nil {
			ok := *health.LastSuccessAt
			s.LastSuccessAt = &ok
		}
	}
	return nil
}

func (r *stubRepo) InsertFetchAttempt(ctx context.Context, item *models.FetchAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item.ID = r.id()
	r.attempts = append(r.attempts, *item)
	return nil
}

func (r *stubRepo) ListFetchAttempts(ctx context.Context, params repository.ListFetchAttemptsParams) ([]models.FetchAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.FetchAttempt{}
	for i := len(r.attempts) - 1; i >= 0; i-- {
		a := r.attempts[i]
		if a.SourceID != params.SourceID {
			continue
		}
		if params.Status != nil && a.Status != *params.Status {
			continue
		}
		out = append(out, a)
	}
	return paginate(out, params.Limit, params.Offset), nil
}

func (r *stubRepo) CountFetchAttempts(ctx context.Context, params repository.ListFetchAttemptsParams) (int64, error) {
	params.Limit, params.Offset = 0, 0
	items, _ := r.ListFetchAttempts(ctx, params)
	return int64(len(items)), nil
}

func (r *stubRepo) FetchStatistics(ctx context.Context, sourceID uint64) (repository.FetchStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out repository.FetchStats
	for _, a := range r.attempts {
		if a.SourceID != sourceID {
			continue
		}
		out.TotalFetches++
		switch a.Status {
		case models.FetchSuccess:
			out.SuccessfulFetches++
		case models.FetchFailed:
			out.FailedFetches++
		case models.FetchPartial:
			out.PartialFetches++
		}
		out.TotalRecordsFetched += int64(a.RecordsFetched)
		out.TotalRecordsSaved += int64(a.RecordsSaved)
	}
	return out, nil
}

func (r *stubRepo) CountActiveMappings(ctx context.Context, sourceID uint64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.mappings {
		if m.SourceID == sourceID && m.IsActive {
			n++
		}
	}
	return n, nil
}

func (r *stubRepo) findMapping(match func(m *models.SensorMapping) bool) *models.SensorMapping {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.mappings {
		if match(&r.mappings[i]) {
			cp := r.mappings[i]
			return &cp
		}
	}
	return nil
}

func (r *stubRepo) FindActiveMappingBySensorTx(ctx context.Context, tx *gorm.DB, sourceID uint64, sensorCode string) (*models.SensorMapping, error) {
	return r.findMapping(func(m *models.SensorMapping) bool {
		return m.SourceID == sourceID && m.SensorCode == sensorCode && m.IsActive
	}), nil
}

func (r *stubRepo) FindActiveMappingByExternalIDTx(ctx context.Context, tx *gorm.DB, sourceID uint64, externalID string) (*models.SensorMapping, error) {
	return r.findMapping(func(m *models.SensorMapping) bool {
		return m.SourceID == sourceID && m.ExternalSensorID != nil && *m.ExternalSensorID == externalID && m.IsActive
	}), nil
}

func (r *stubRepo) FindMappingByExternalIDTx(ctx context.Context, tx *gorm.DB, sourceID uint64, externalID string) (*models.SensorMapping, error) {
	return r.findMapping(func(m *models.SensorMapping) bool {
		return m.SourceID == sourceID && m.ExternalSensorID != nil && *m.ExternalSensorID == externalID
	}), nil
}

func (r *stubRepo) SaveMappingTx(ctx context.Context, tx *gorm.DB, item *models.SensorMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.mappings {
		m := &r.mappings[i]
		if m.SourceID == item.SourceID && m.SensorCode == item.SensorCode {
			item.ID = m.ID
			*m = *item
			return nil
		}
	}
	item.ID = r.id()
	r.mappings = append(r.mappings, *item)
	return nil
}

func (r *stubRepo) GetMappingByID(ctx context.Context, id uint64) (*models.SensorMapping, error) {
	return r.findMapping(func(m *models.SensorMapping) bool { return m.ID == id }), nil
}

func (r *stubRepo) ListMappings(ctx context.Context, params repository.ListMappingsParams) ([]models.SensorMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.SensorMapping{}
	for _, m := range r.mappings {
		if params.SourceID != nil && m.SourceID != *params.SourceID {
			continue
		}
		if params.SensorCode != nil && m.SensorCode != *params.SensorCode {
			continue
		}
		if params.Active != nil && m.IsActive != *params.Active {
			continue
		}
		out = append(out, m)
	}
	return paginate(out, params.Limit, params.Offset), nil
}

func (r *stubRepo) CountMappings(ctx context.Context, params repository.ListMappingsParams) (int64, error) {
	params.Limit, params.Offset = 0, 0
	items, _ := r.ListMappings(ctx, params)
	return int64(len(items)), nil
}

func (r *stubRepo) CreateMapping(ctx context.Context, item *models.SensorMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item.ID = r.id()
	r.mappings = append(r.mappings, *item)
	return nil
}

func (r *stubRepo) UpdateMapping(ctx context.Context, item *models.SensorMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.mappings {
		if r.mappings[i].ID == item.ID {
			r.mappings[i] = *item
		}
	}
	return nil
}

func (r *stubRepo) DeleteMapping(ctx context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.mappings[:0]
	for _, m := range r.mappings {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	r.mappings = kept
	return nil
}

func (r *stubRepo) GetDeviceByCodeTx(ctx context.Context, tx *gorm.DB, code string) (*models.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[code]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r *stubRepo) CreateDeviceTx(ctx context.Context, tx *gorm.DB, item *models.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.devices[item.Code]; ok {
		*item = *existing
		return nil
	}
	item.ID = r.id()
	cp := *item
	r.devices[item.Code] = &cp
	return nil
}

func (r *stubRepo) UpdateDeviceCoordinatesTx(ctx context.Context, tx *gorm.DB, code string, lat, lon float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.devices[code]; ok {
		d.Latitude, d.Longitude = &lat, &lon
	}
	return nil
}

func (r *stubRepo) GetSensorByCode(ctx context.Context, code string) (*models.Sensor, error) {
	return r.GetSensorByCodeTx(ctx, nil, code)
}

func (r *stubRepo) GetSensorByCodeTx(ctx context.Context, tx *gorm.DB, code string) (*models.Sensor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sensors[code]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *stubRepo) CreateSensorTx(ctx context.Context, tx *gorm.DB, item *models.Sensor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sensors[item.Code]; ok {
		*item = *existing
		return nil
	}
	item.ID = r.id()
	cp := *item
	r.sensors[item.Code] = &cp
	return nil
}

func (r *stubRepo) TouchSensorTx(ctx context.Context, tx *gorm.DB, code string, seenAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sensors[code]; ok && (s.LastSeenAt == nil || seenAt.After(*s.LastSeenAt)) {
		at := seenAt
		s.LastSeenAt = &at
	}
	return nil
}

func (r *stubRepo) UpsertReadingTx(ctx context.Context, tx *gorm.DB, item *models.Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item.ReceivedAt = item.ReceivedAt.UTC()
	item.DischargeError = nil
	if item.SourceStatus == "" {
		item.SourceStatus = "normal"
	}
	k := seriesKey(item.SensorCode, item.ReceivedAt)
	if existing, ok := r.readings[k]; ok {
		existing.Value = item.Value
		existing.Status = item.Status
		existing.SourceStatus = item.SourceStatus
		existing.Origin = item.Origin
		existing.DischargeError = nil
		item.ID = existing.ID
		return nil
	}
	item.ID = r.id()
	cp := *item
	r.readings[k] = &cp
	return nil
}

func (r *stubRepo) GetReadingByID(ctx context.Context, id uint64) (*models.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rd := range r.readings {
		if rd.ID == id {
			cp := *rd
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *stubRepo) ListReadings(ctx context.Context, params repository.ListSeriesParams) ([]models.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Reading{}
	for _, rd := range r.readings {
		if params.SensorCode != "" && rd.SensorCode != params.SensorCode {
			continue
		}
		if !inRange(rd.ReceivedAt, params.From, params.To) {
			continue
		}
		out = append(out, *rd)
	}
	asc := params.Asc != nil && *params.Asc
	sort.Slice(out, func(i, j int) bool {
		if asc {
			return out[i].ReceivedAt.Before(out[j].ReceivedAt)
		}
		return out[i].ReceivedAt.After(out[j].ReceivedAt)
	})
	return paginate(out, params.Limit, params.Offset), nil
}

func (r *stubRepo) ListReadingsWithoutDischarge(ctx context.Context, parameter string, limit int) ([]models.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Reading{}
	for k, rd := range r.readings {
		s, ok := r.sensors[rd.SensorCode]
		if !ok || s.Parameter != parameter || rd.Value == nil || rd.DischargeError != nil {
			continue
		}
		if _, done := r.calculated[k]; done {
			continue
		}
		hasCurve := false
		for _, c := range r.curves {
			if c.SensorCode == rd.SensorCode && !c.EffectiveDate.After(rd.ReceivedAt) {
				hasCurve = true
			}
		}
		if hasCurve {
			out = append(out, *rd)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.Before(out[j].ReceivedAt) })
	return paginate(out, limit, 0), nil
}

func (r *stubRepo) SetDischargeErrorTx(ctx context.Context, tx *gorm.DB, id uint64, message *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rd := range r.readings {
		if rd.ID == id {
			rd.DischargeError = message
		}
	}
	return nil
}

func (r *stubRepo) ClearDischargeErrors(ctx context.Context, sensorCode string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, rd := range r.readings {
		if rd.SensorCode == sensorCode && rd.DischargeError != nil {
			rd.DischargeError = nil
			n++
		}
	}
	return n, nil
}

func (r *stubRepo) UpsertPrediction(ctx context.Context, item *models.Prediction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := seriesKey(item.SensorCode, item.PredictionFor)
	if existing, ok := r.preds[k]; ok {
		existing.PredictedValue = item.PredictedValue
		existing.PredictionRunAt = item.PredictionRunAt
		item.ID = existing.ID
		return nil
	}
	item.ID = r.id()
	cp := *item
	r.preds[k] = &cp
	return nil
}

func (r *stubRepo) GetPredictionByID(ctx context.Context, id uint64) (*models.Prediction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.preds {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *stubRepo) ListPredictions(ctx context.Context, params repository.ListSeriesParams) ([]models.Prediction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Prediction{}
	for _, p := range r.preds {
		if params.SensorCode != "" && p.SensorCode != params.SensorCode {
			continue
		}
		if !inRange(p.PredictionFor, params.From, params.To) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PredictionFor.Before(out[j].PredictionFor) })
	return paginate(out, params.Limit, params.Offset), nil
}

func (r *stubRepo) ListRatingCurves(ctx context.Context, sensorCode string) ([]models.RatingCurve, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.RatingCurve{}
	for _, c := range r.curves {
		if c.SensorCode == sensorCode {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EffectiveDate.After(out[j].EffectiveDate) })
	return out, nil
}

func (r *stubRepo) GetRatingCurveByCode(ctx context.Context, code string) (*models.RatingCurve, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.curves {
		if c.Code == code {
			cp := c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *stubRepo) CreateRatingCurve(ctx context.Context, item *models.RatingCurve) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item.ID = r.id()
	r.curves = append(r.curves, *item)
	return nil
}

func (r *stubRepo) UpdateRatingCurve(ctx context.Context, item *models.RatingCurve) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.curves {
		if r.curves[i].ID == item.ID {
			r.curves[i] = *item
		}
	}
	return nil
}

func (r *stubRepo) CountCurveUsage(ctx context.Context, codes []string) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]int64{}
	for _, d := range r.calculated {
		out[d.RatingCurveCode]++
	}
	for _, d := range r.predicted {
		out[d.RatingCurveCode]++
	}
	return out, nil
}

func (r *stubRepo) UpsertCalculatedDischargeTx(ctx context.Context, tx *gorm.DB, item *models.CalculatedDischarge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := seriesKey(item.SensorCode, item.CalculatedAt)
	if existing, ok := r.calculated[k]; ok {
		item.ID = existing.ID
	} else {
		item.ID = r.id()
	}
	cp := *item
	r.calculated[k] = &cp
	return nil
}

func (r *stubRepo) UpsertPredictedDischargeTx(ctx context.Context, tx *gorm.DB, item *models.PredictedCalculatedDischarge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := seriesKey(item.SensorCode, item.CalculatedAt)
	if existing, ok := r.predicted[k]; ok {
		item.ID = existing.ID
	} else {
		item.ID = r.id()
	}
	cp := *item
	r.predicted[k] = &cp
	return nil
}

func (r *stubRepo) DeleteCalculatedDischargesTx(ctx context.Context, tx *gorm.DB, sensorCode string, from, to *time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, d := range r.calculated {
		if d.SensorCode == sensorCode && inRange(d.CalculatedAt, from, to) {
			delete(r.calculated, k)
			n++
		}
	}
	return n, nil
}

func (r *stubRepo) DeletePredictedDischargesTx(ctx context.Context, tx *gorm.DB, sensorCode string, from, to *time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, d := range r.predicted {
		if d.SensorCode == sensorCode && inRange(d.CalculatedAt, from, to) {
			delete(r.predicted, k)
			n++
		}
	}
	return n, nil
}

func (r *stubRepo) GetCalculatedDischargeByID(ctx context.Context, id uint64) (*models.CalculatedDischarge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.calculated {
		if d.ID == id {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *stubRepo) GetPredictedDischargeByID(ctx context.Context, id uint64) (*models.PredictedCalculatedDischarge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.predicted {
		if d.ID == id {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *stubRepo) ListCalculatedDischarges(ctx context.Context, params repository.ListSeriesParams) ([]models.CalculatedDischarge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.CalculatedDischarge{}
	for _, d := range r.calculated {
		if params.SensorCode != "" && d.SensorCode != params.SensorCode {
			continue
		}
		if !inRange(d.CalculatedAt, params.From, params.To) {
			continue
		}
		out = append(out, *d)
	}
	asc := params.Asc != nil && *params.Asc
	sort.Slice(out, func(i, j int) bool {
		if asc {
			return out[i].CalculatedAt.Before(out[j].CalculatedAt)
		}
		return out[i].CalculatedAt.After(out[j].CalculatedAt)
	})
	return paginate(out, params.Limit, params.Offset), nil
}

func (r *stubRepo) ListPredictedDischarges(ctx context.Context, params repository.ListSeriesParams) ([]models.PredictedCalculatedDischarge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.PredictedCalculatedDischarge{}
	for _, d := range r.predicted {
		if params.SensorCode != "" && d.SensorCode != params.SensorCode {
			continue
		}
		if !inRange(d.CalculatedAt, params.From, params.To) {
			continue
		}
		out = append(out, *d)
	}
	asc := params.Asc != nil && *params.Asc
	sort.Slice(out, func(i, j int) bool {
		if asc {
			return out[i].CalculatedAt.Before(out[j].CalculatedAt)
		}
		return out[i].CalculatedAt.After(out[j].CalculatedAt)
	})
	return paginate(out, params.Limit, params.Offset), nil
}

func aggregate(values, levels []float64, times []time.Time) repository.SeriesAggregate {
	out := repository.SeriesAggregate{Count: int64(len(values))}
	if len(values) == 0 {
		return out
	}
	maxV, minV, sum := values[0], values[0], 0.0
	maxL, minL := levels[0], levels[0]
	oldest, newest := times[0], times[0]
	for i, v := range values {
		sum += v
		if v > maxV {
			maxV = v
		}
		if v < minV {
			minV = v
		}
		if levels[i] > maxL {
			maxL = levels[i]
		}
		if levels[i] < minL {
			minL = levels[i]
		}
		if times[i].Before(oldest) {
			oldest = times[i]
		}
		if times[i].After(newest) {
			newest = times[i]
		}
	}
	avg := sum / float64(len(values))
	out.MaxValue, out.MinValue, out.AvgValue = &maxV, &minV, &avg
	out.MaxLevel, out.MinLevel = &maxL, &minL
	out.OldestAt, out.NewestAt = &oldest, &newest
	return out
}

func (r *stubRepo) SummarizeCalculatedDischarges(ctx context.Context, params repository.ListSeriesParams) (repository.SeriesAggregate, error) {
	params.Limit, params.Offset = 0, 0
	items, _ := r.ListCalculatedDischarges(ctx, params)
	var values, levels []float64
	var times []time.Time
	for _, d := range items {
		values = append(values, d.SensorDischarge)
		levels = append(levels, d.SensorValue)
		times = append(times, d.CalculatedAt)
	}
	return aggregate(values, levels, times), nil
}

func (r *stubRepo) SummarizePredictedDischarges(ctx context.Context, params repository.ListSeriesParams) (repository.SeriesAggregate, error) {
	params.Limit, params.Offset = 0, 0
	items, _ := r.ListPredictedDischarges(ctx, params)
	var values, levels []float64
	var times []time.Time
	for _, d := range items {
		values = append(values, d.PredictedDischarge)
		levels = append(levels, d.PredictedValue)
		times = append(times, d.CalculatedAt)
	}
	return aggregate(values, levels, times), nil
}

func (r *stubRepo) ListLayersForValue(ctx context.Context, deviceCode string, value float64) ([]models.GeojsonMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return layer.Filter(r.layers, deviceCode, value), nil
}

func (r *stubRepo) UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *item
	r.settings[item.Key] = &cp
	return nil
}

func (r *stubRepo) GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[key]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *stubRepo) ListSystemSettings(ctx context.Context, params repository.ListSystemSettingsParams) ([]models.SystemSetting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.SystemSetting{}
	for _, s := range r.settings {
		if params.Prefix != nil && !strings.HasPrefix(s.Key, *params.Prefix) {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return paginate(out, params.Limit, params.Offset), nil
}

func (r *stubRepo) CountSystemSettings(ctx context.Context, params repository.ListSystemSettingsParams) (int64, error) {
	params.Limit, params.Offset = 0, 0
	items, _ := r.ListSystemSettings(ctx, params)
	return int64(len(items)), nil
}

func (r *stubRepo) readingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.readings)
}

func (r *stubRepo) source(code string) models.Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.sources[code]
}
