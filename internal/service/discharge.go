package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/esareynor/ffws-jatim-sub001/internal/discharge"
	"github.com/esareynor/ffws-jatim-sub001/internal/export"
	"github.com/esareynor/ffws-jatim-sub001/internal/metrics"
	"github.com/esareynor/ffws-jatim-sub001/internal/models"
	"github.com/esareynor/ffws-jatim-sub001/internal/provision"
	"github.com/esareynor/ffws-jatim-sub001/internal/repository"
)

const (
	SeriesActual    = "actual"
	SeriesPredicted = "predicted"

	OutcomeCalculated = "calculated"
	OutcomeSkipped    = "skipped"
	OutcomeFailed     = "failed"

	seriesPageSize = 500
)

var errNoValue = errors.New("reading has no value")

type DischargeService struct {
	Repo    repository.Repository
	Layers  *LayerService
	Metrics *metrics.Metrics
	Clock   clockwork.Clock
	// Location renders export timestamps; UTC when nil.
	Location *time.Location
	Logger   *zap.Logger
}

// Calculation is the outcome of one reading or prediction.
type Calculation struct {
	Status          string                               `json:"status"`
	Message         string                               `json:"message,omitempty"`
	Discharge       *models.CalculatedDischarge          `json:"discharge,omitempty"`
	Predicted       *models.PredictedCalculatedDischarge `json:"predicted_discharge,omitempty"`
	RatingCurveCode string                               `json:"rating_curve_code,omitempty"`
	Formula         string                               `json:"formula,omitempty"`
}

type BatchSummary struct {
	Total   int      `json:"total"`
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

func (b *BatchSummary) add(id uint64, err error) {
	b.Total++
	switch outcomeOf(err) {
	case OutcomeCalculated:
		b.Success++
	case OutcomeSkipped:
		b.Skipped++
	default:
		b.Failed++
		b.Errors = append(b.Errors, fmt.Sprintf("%d: %v", id, err))
	}
}

type RecalculateResult struct {
	SensorCode string     `json:"mas_sensor_code"`
	From       *time.Time `json:"from"`
	To         *time.Time `json:"to"`
	Deleted    int64      `json:"deleted"`
	BatchSummary
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeCalculated
	case errors.Is(err, discharge.ErrNoActiveCurve), errors.Is(err, errNoValue):
		return OutcomeSkipped
	default:
		return OutcomeFailed
	}
}

// curveSet memoizes the curves of each sensor for the duration of one batch.
type curveSet struct {
	repo   repository.CurveRepository
	curves map[string][]models.RatingCurve
}

func (c *curveSet) selectFor(ctx context.Context, sensorCode string, at time.Time) (*models.RatingCurve, error) {
	if c.curves == nil {
		c.curves = map[string][]models.RatingCurve{}
	}
	curves, ok := c.curves[sensorCode]
	if !ok {
		var err error
		curves, err = c.repo.ListRatingCurves(ctx, sensorCode)
		if err != nil {
			return nil, err
		}
		c.curves[sensorCode] = curves
	}
	return discharge.SelectCurve(curves, at)
}

func (s *DischargeService) calculateReadingTx(ctx context.Context, tx *gorm.DB, curves *curveSet, r *models.Reading) (*models.CalculatedDischarge, *models.RatingCurve, error) {
	if r.Value == nil {
		return nil, nil, errNoValue
	}
	curve, err := curves.selectFor(ctx, r.SensorCode, r.ReceivedAt)
	if err != nil {
		return nil, nil, err
	}
	q, err := discharge.EvaluateCurve(curve, *r.Value)
	if err != nil {
		return nil, curve, err
	}
	item := &models.CalculatedDischarge{
		SensorCode:      r.SensorCode,
		SensorValue:     *r.Value,
		SensorDischarge: q,
		RatingCurveCode: curve.Code,
		CalculatedAt:    r.ReceivedAt,
	}
	if err := s.Repo.UpsertCalculatedDischargeTx(ctx, tx, item); err != nil {
		return nil, curve, err
	}
	return item, curve, nil
}

func (s *DischargeService) calculatePredictionTx(ctx context.Context, tx *gorm.DB, curves *curveSet, p *models.Prediction) (*models.PredictedCalculatedDischarge, *models.RatingCurve, error) {
	curve, err := curves.selectFor(ctx, p.SensorCode, p.PredictionFor)
	if err != nil {
		return nil, nil, err
	}
	q, err := discharge.EvaluateCurve(curve, p.PredictedValue)
	if err != nil {
		return nil, curve, err
	}
	item := &models.PredictedCalculatedDischarge{
		SensorCode:         p.SensorCode,
		PredictedValue:     p.PredictedValue,
		PredictedDischarge: q,
		RatingCurveCode:    curve.Code,
		CalculatedAt:       p.PredictionFor,
	}
	if err := s.Repo.UpsertPredictedDischargeTx(ctx, tx, item); err != nil {
		return nil, curve, err
	}
	return item, curve, nil
}

// ProcessReading computes and stores the discharge of one reading. A missing
// curve is reported as a skip, not an error.
func (s *DischargeService) ProcessReading(ctx context.Context, readingID uint64) (*Calculation, error) {
	if s == nil || s.Repo == nil {
		return nil, ErrUnavailable
	}
	r, err := s.Repo.GetReadingByID(ctx, readingID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrReadingNotFound
	}
	curves := &curveSet{repo: s.Repo}
	var (
		item  *models.CalculatedDischarge
		curve *models.RatingCurve
		calc  error
	)
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		item, curve, calc = s.calculateReadingTx(ctx, tx, curves, r)
		if outcomeOf(calc) == OutcomeFailed {
			return calc
		}
		return nil
	})
	if err != nil && calc == nil {
		return nil, err
	}
	s.observe(SeriesActual, r.SensorCode, r.ID, calc)
	out := &Calculation{Status: outcomeOf(calc), Discharge: item}
	describe(out, curve, calc)
	return out, nil
}

func (s *DischargeService) ProcessPrediction(ctx context.Context, predictionID uint64) (*Calculation, error) {
	if s == nil || s.Repo == nil {
		return nil, ErrUnavailable
	}
	p, err := s.Repo.GetPredictionByID(ctx, predictionID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPredictionNotFound
	}
	curves := &curveSet{repo: s.Repo}
	var (
		item  *models.PredictedCalculatedDischarge
		curve *models.RatingCurve
		calc  error
	)
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		item, curve, calc = s.calculatePredictionTx(ctx, tx, curves, p)
		if outcomeOf(calc) == OutcomeFailed {
			return calc
		}
		return nil
	})
	if err != nil && calc == nil {
		return nil, err
	}
	s.observe(SeriesPredicted, p.SensorCode, p.ID, calc)
	out := &Calculation{Status: outcomeOf(calc), Predicted: item}
	describe(out, curve, calc)
	return out, nil
}

func describe(out *Calculation, curve *models.RatingCurve, err error) {
	if curve != nil {
		out.RatingCurveCode = curve.Code
		out.Formula = discharge.FormulaString(curve)
	}
	if err != nil {
		out.Message = err.Error()
	}
}

// ProcessReadings computes discharges for many readings in one transaction,
// one savepoint per reading.
func (s *DischargeService) ProcessReadings(ctx context.Context, readings []models.Reading) (BatchSummary, error) {
	summary := BatchSummary{Errors: []string{}}
	if s == nil || s.Repo == nil {
		return summary, ErrUnavailable
	}
	if len(readings) == 0 {
		return summary, nil
	}
	curves := &curveSet{repo: s.Repo}
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		s.processReadingsTx(ctx, tx, curves, readings, &summary)
		return nil
	})
	return summary, err
}

func (s *DischargeService) processReadingsTx(ctx context.Context, tx *gorm.DB, curves *curveSet, readings []models.Reading, summary *BatchSummary) {
	for i := range readings {
		r := &readings[i]
		var calc error
		_ = s.Repo.SavepointTx(ctx, tx, func(tx *gorm.DB) error {
			_, _, calc = s.calculateReadingTx(ctx, tx, curves, r)
			return calc
		})
		summary.add(r.ID, calc)
		s.observe(SeriesActual, r.SensorCode, r.ID, calc)
		s.trackFailure(ctx, tx, r, calc)
	}
}

// trackFailure records a failed calculation on the reading so the pending
// sweep moves past it, and clears the mark once the reading succeeds.
func (s *DischargeService) trackFailure(ctx context.Context, tx *gorm.DB, r *models.Reading, calc error) {
	var message *string
	switch outcomeOf(calc) {
	case OutcomeFailed:
		msg := calc.Error()
		message = &msg
	case OutcomeCalculated:
		if r.DischargeError == nil {
			return
		}
	default:
		return
	}
	if err := s.Repo.SetDischargeErrorTx(ctx, tx, r.ID, message); err != nil {
		s.logger().Warn("record discharge error failed", zap.Uint64("reading", r.ID), zap.Error(err))
		return
	}
	r.DischargeError = message
}

func (s *DischargeService) ProcessPredictions(ctx context.Context, predictions []models.Prediction) (BatchSummary, error) {
	summary := BatchSummary{Errors: []string{}}
	if s == nil || s.Repo == nil {
		return summary, ErrUnavailable
	}
	if len(predictions) == 0 {
		return summary, nil
	}
	curves := &curveSet{repo: s.Repo}
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		s.processPredictionsTx(ctx, tx, curves, predictions, &summary)
		return nil
	})
	return summary, err
}

func (s *DischargeService) processPredictionsTx(ctx context.Context, tx *gorm.DB, curves *curveSet, predictions []models.Prediction, summary *BatchSummary) {
	for i := range predictions {
		p := &predictions[i]
		var calc error
		_ = s.Repo.SavepointTx(ctx, tx, func(tx *gorm.DB) error {
			_, _, calc = s.calculatePredictionTx(ctx, tx, curves, p)
			return calc
		})
		summary.add(p.ID, calc)
		s.observe(SeriesPredicted, p.SensorCode, p.ID, calc)
	}
}

// ProcessReadingIDs loads and processes readings by id; unknown ids count as failed.
func (s *DischargeService) ProcessReadingIDs(ctx context.Context, ids []uint64) (BatchSummary, error) {
	summary := BatchSummary{Errors: []string{}}
	if s == nil || s.Repo == nil {
		return summary, ErrUnavailable
	}
	readings := make([]models.Reading, 0, len(ids))
	for _, id := range ids {
		r, err := s.Repo.GetReadingByID(ctx, id)
		if err != nil {
			return summary, err
		}
		if r == nil {
			summary.add(id, ErrReadingNotFound)
			continue
		}
		readings = append(readings, *r)
	}
	batch, err := s.ProcessReadings(ctx, readings)
	merge(&summary, batch)
	return summary, err
}

func (s *DischargeService) ProcessPredictionIDs(ctx context.Context, ids []uint64) (BatchSummary, error) {
	summary := BatchSummary{Errors: []string{}}
	if s == nil || s.Repo == nil {
		return summary, ErrUnavailable
	}
	predictions := make([]models.Prediction, 0, len(ids))
	for _, id := range ids {
		p, err := s.Repo.GetPredictionByID(ctx, id)
		if err != nil {
			return summary, err
		}
		if p == nil {
			summary.add(id, ErrPredictionNotFound)
			continue
		}
		predictions = append(predictions, *p)
	}
	batch, err := s.ProcessPredictions(ctx, predictions)
	merge(&summary, batch)
	return summary, err
}

func merge(dst *BatchSummary, src BatchSummary) {
	dst.Total += src.Total
	dst.Success += src.Success
	dst.Failed += src.Failed
	dst.Skipped += src.Skipped
	dst.Errors = append(dst.Errors, src.Errors...)
}

// ProcessPending computes discharges for water-level readings that have an
// applicable curve but no discharge yet.
func (s *DischargeService) ProcessPending(ctx context.Context, parameter string, limit int) (BatchSummary, error) {
	if s == nil || s.Repo == nil {
		return BatchSummary{Errors: []string{}}, ErrUnavailable
	}
	parameter = strings.TrimSpace(parameter)
	if parameter == "" {
		parameter = string(provision.ParamWaterLevel)
	}
	readings, err := s.Repo.ListReadingsWithoutDischarge(ctx, parameter, limit)
	if err != nil {
		return BatchSummary{Errors: []string{}}, err
	}
	return s.ProcessReadings(ctx, readings)
}

// Recalculate removes the sensor's discharges within [from, to] and computes
// them again from the readings in the same range, in one transaction.
func (s *DischargeService) Recalculate(ctx context.Context, sensorCode string, from, to *time.Time) (RecalculateResult, error) {
	out := RecalculateResult{SensorCode: sensorCode, From: from, To: to, BatchSummary: BatchSummary{Errors: []string{}}}
	if err := s.checkSensor(ctx, sensorCode, from, to); err != nil {
		return out, err
	}
	readings, err := s.allReadings(ctx, sensorCode, from, to)
	if err != nil {
		return out, err
	}
	curves := &curveSet{repo: s.Repo}
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		deleted, err := s.Repo.DeleteCalculatedDischargesTx(ctx, tx, sensorCode, from, to)
		if err != nil {
			return err
		}
		out.Deleted = deleted
		s.processReadingsTx(ctx, tx, curves, readings, &out.BatchSummary)
		return nil
	})
	if err != nil {
		return RecalculateResult{SensorCode: sensorCode, From: from, To: to, BatchSummary: BatchSummary{Errors: []string{}}}, err
	}
	s.logger().Info("discharges recalculated",
		zap.String("sensor", sensorCode),
		zap.Int64("deleted", out.Deleted),
		zap.Int("success", out.Success),
		zap.Int("failed", out.Failed),
		zap.Int("skipped", out.Skipped),
	)
	return out, nil
}

func (s *DischargeService) RecalculatePredicted(ctx context.Context, sensorCode string, from, to *time.Time) (RecalculateResult, error) {
	out := RecalculateResult{SensorCode: sensorCode, From: from, To: to, BatchSummary: BatchSummary{Errors: []string{}}}
	if err := s.checkSensor(ctx, sensorCode, from, to); err != nil {
		return out, err
	}
	predictions, err := s.allPredictions(ctx, sensorCode, from, to)
	if err != nil {
		return out, err
	}
	curves := &curveSet{repo: s.Repo}
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		deleted, err := s.Repo.DeletePredictedDischargesTx(ctx, tx, sensorCode, from, to)
		if err != nil {
			return err
		}
		out.Deleted = deleted
		s.processPredictionsTx(ctx, tx, curves, predictions, &out.BatchSummary)
		return nil
	})
	if err != nil {
		return RecalculateResult{SensorCode: sensorCode, From: from, To: to, BatchSummary: BatchSummary{Errors: []string{}}}, err
	}
	return out, nil
}

func (s *DischargeService) checkSensor(ctx context.Context, sensorCode string, from, to *time.Time) error {
	if s == nil || s.Repo == nil {
		return ErrUnavailable
	}
	if strings.TrimSpace(sensorCode) == "" {
		return validationError("sensor code is required")
	}
	if from != nil && to != nil && from.After(*to) {
		return validationError("from must not be after to")
	}
	sensor, err := s.Repo.GetSensorByCode(ctx, sensorCode)
	if err != nil {
		return err
	}
	if sensor == nil {
		return ErrSensorNotFound
	}
	return nil
}

func (s *DischargeService) allReadings(ctx context.Context, sensorCode string, from, to *time.Time) ([]models.Reading, error) {
	asc := true
	var out []models.Reading
	for offset := 0; ; offset += seriesPageSize {
		page, err := s.Repo.ListReadings(ctx, repository.ListSeriesParams{
			Limit: seriesPageSize, Offset: offset, SensorCode: sensorCode, From: from, To: to, Asc: &asc,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < seriesPageSize {
			return out, nil
		}
	}
}

func (s *DischargeService) allPredictions(ctx context.Context, sensorCode string, from, to *time.Time) ([]models.Prediction, error) {
	asc := true
	var out []models.Prediction
	for offset := 0; ; offset += seriesPageSize {
		page, err := s.Repo.ListPredictions(ctx, repository.ListSeriesParams{
			Limit: seriesPageSize, Offset: offset, SensorCode: sensorCode, From: from, To: to, Asc: &asc,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < seriesPageSize {
			return out, nil
		}
	}
}

type DateRange struct {
	From *time.Time `json:"from"`
	To   *time.Time `json:"to"`
}

type DischargeSummary struct {
	SensorCode         string     `json:"mas_sensor_code"`
	Predicted          bool       `json:"predicted"`
	Total              int64      `json:"total_records"`
	LatestDischarge    *float64   `json:"latest_discharge"`
	LatestWaterLevel   *float64   `json:"latest_water_level"`
	LatestCalculatedAt *time.Time `json:"latest_calculated_at"`
	MaxDischarge       *float64   `json:"max_discharge"`
	MinDischarge       *float64   `json:"min_discharge"`
	AvgDischarge       *float64   `json:"avg_discharge"`
	MaxWaterLevel      *float64   `json:"max_water_level"`
	MinWaterLevel      *float64   `json:"min_water_level"`
	DateRange          DateRange  `json:"date_range"`
}

func (s *DischargeService) Summary(ctx context.Context, sensorCode string, from, to *time.Time) (*DischargeSummary, error) {
	if err := s.checkSensor(ctx, sensorCode, from, to); err != nil {
		return nil, err
	}
	params := repository.ListSeriesParams{SensorCode: sensorCode, From: from, To: to}
	agg, err := s.Repo.SummarizeCalculatedDischarges(ctx, params)
	if err != nil {
		return nil, err
	}
	out := summaryFrom(sensorCode, agg)
	params.Limit = 1
	latest, err := s.Repo.ListCalculatedDischarges(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(latest) > 0 {
		l := latest[0]
		out.LatestDischarge = &l.SensorDischarge
		out.LatestWaterLevel = &l.SensorValue
		out.LatestCalculatedAt = &l.CalculatedAt
	}
	return out, nil
}

func (s *DischargeService) PredictionSummary(ctx context.Context, sensorCode string, from, to *time.Time) (*DischargeSummary, error) {
	if err := s.checkSensor(ctx, sensorCode, from, to); err != nil {
		return nil, err
	}
	params := repository.ListSeriesParams{SensorCode: sensorCode, From: from, To: to}
	agg, err := s.Repo.SummarizePredictedDischarges(ctx, params)
	if err != nil {
		return nil, err
	}
	out := summaryFrom(sensorCode, agg)
	out.Predicted = true
	params.Limit = 1
	latest, err := s.Repo.ListPredictedDischarges(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(latest) > 0 {
		l := latest[0]
		out.LatestDischarge = &l.PredictedDischarge
		out.LatestWaterLevel = &l.PredictedValue
		out.LatestCalculatedAt = &l.CalculatedAt
	}
	return out, nil
}

func summaryFrom(sensorCode string, agg repository.SeriesAggregate) *DischargeSummary {
	out := &DischargeSummary{
		SensorCode:    sensorCode,
		Total:         agg.Count,
		MaxDischarge:  agg.MaxValue,
		MinDischarge:  agg.MinValue,
		MaxWaterLevel: agg.MaxLevel,
		MinWaterLevel: agg.MinLevel,
		DateRange:     DateRange{From: agg.OldestAt, To: agg.NewestAt},
	}
	if agg.AvgValue != nil {
		avg := round2(*agg.AvgValue)
		out.AvgDischarge = &avg
	}
	return out
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

type LatestDischarge struct {
	models.CalculatedDischarge
	DeviceCode string   `json:"mas_device_code"`
	Formula    string   `json:"formula,omitempty"`
	Layers     []string `json:"layers"`
}

// Latest returns the newest discharges across sensors with the codes of the
// layers each one selects.
func (s *DischargeService) Latest(ctx context.Context, limit int) ([]LatestDischarge, error) {
	if s == nil || s.Repo == nil {
		return nil, ErrUnavailable
	}
	if limit <= 0 {
		limit = 10
	}
	items, err := s.Repo.ListCalculatedDischarges(ctx, repository.ListSeriesParams{Limit: limit})
	if err != nil {
		return nil, err
	}
	devices := map[string]string{}
	curves := map[string]*models.RatingCurve{}
	out := make([]LatestDischarge, 0, len(items))
	for _, d := range items {
		row := LatestDischarge{CalculatedDischarge: d, Layers: []string{}}
		device, ok := devices[d.SensorCode]
		if !ok {
			sensor, err := s.Repo.GetSensorByCode(ctx, d.SensorCode)
			if err != nil {
				return nil, err
			}
			if sensor != nil {
				device = sensor.DeviceCode
			}
			devices[d.SensorCode] = device
		}
		row.DeviceCode = device
		curve, ok := curves[d.RatingCurveCode]
		if !ok {
			curve, err = s.Repo.GetRatingCurveByCode(ctx, d.RatingCurveCode)
			if err != nil {
				return nil, err
			}
			curves[d.RatingCurveCode] = curve
		}
		if curve != nil {
			row.Formula = discharge.FormulaString(curve)
		}
		if device != "" && s.Layers != nil {
			codes, err := s.Layers.Codes(ctx, device, d.SensorDischarge)
			if err != nil {
				return nil, err
			}
			row.Layers = codes
		}
		out = append(out, row)
	}
	return out, nil
}

// Export renders the sensor's discharge series in [from, to] as xlsx.
func (s *DischargeService) Export(ctx context.Context, sensorCode string, from, to *time.Time, predicted bool) ([]byte, error) {
	if err := s.checkSensor(ctx, sensorCode, from, to); err != nil {
		return nil, err
	}
	asc := true
	var rows []export.Row
	for offset := 0; ; offset += seriesPageSize {
		params := repository.ListSeriesParams{Limit: seriesPageSize, Offset: offset, SensorCode: sensorCode, From: from, To: to, Asc: &asc}
		n := 0
		if predicted {
			page, err := s.Repo.ListPredictedDischarges(ctx, params)
			if err != nil {
				return nil, err
			}
			for _, d := range page {
				rows = append(rows, export.Row{At: d.CalculatedAt, Level: d.PredictedValue, Discharge: d.PredictedDischarge, CurveCode: d.RatingCurveCode})
			}
			n = len(page)
		} else {
			page, err := s.Repo.ListCalculatedDischarges(ctx, params)
			if err != nil {
				return nil, err
			}
			for _, d := range page {
				rows = append(rows, export.Row{At: d.CalculatedAt, Level: d.SensorValue, Discharge: d.SensorDischarge, CurveCode: d.RatingCurveCode})
			}
			n = len(page)
		}
		if n < seriesPageSize {
			break
		}
	}
	return export.DischargeSeries(sensorCode, rows, s.Location)
}

func (s *DischargeService) observe(series, sensorCode string, id uint64, err error) {
	outcome := outcomeOf(err)
	s.Metrics.ObserveDischarge(series, outcome)
	switch outcome {
	case OutcomeSkipped:
		s.logger().Debug("discharge skipped", zap.String("series", series), zap.String("sensor", sensorCode), zap.Uint64("id", id), zap.Error(err))
	case OutcomeFailed:
		s.logger().Warn("discharge failed", zap.String("series", series), zap.String("sensor", sensorCode), zap.Uint64("id", id), zap.Error(err))
	}
}

func (s *DischargeService) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s *DischargeService) logger() *zap.Logger {
	if s == nil || s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
