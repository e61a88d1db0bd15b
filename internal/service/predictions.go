package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/esareynor/ffws-jatim-sub001/internal/models"
)

// PredictionInput is one externally produced forecast value.
type PredictionInput struct {
	SensorCode      string     `json:"mas_sensor_code"`
	PredictedValue  float64    `json:"predicted_value"`
	PredictionRunAt *time.Time `json:"prediction_run_at"`
	PredictionFor   time.Time  `json:"prediction_for_ts"`
}

type PredictionSubmitResult struct {
	Stored    int           `json:"stored"`
	Rejected  int           `json:"rejected"`
	Errors    []string      `json:"errors"`
	Discharge *BatchSummary `json:"discharge,omitempty"`
}

// SubmitPredictions stores forecast values, replacing earlier values for the
// same (sensor, prediction_for_ts), and optionally computes their discharges.
func (s *DischargeService) SubmitPredictions(ctx context.Context, inputs []PredictionInput, calculate bool) (PredictionSubmitResult, error) {
	out := PredictionSubmitResult{Errors: []string{}}
	if s == nil || s.Repo == nil {
		return out, ErrUnavailable
	}
	stored := make([]models.Prediction, 0, len(inputs))
	sensors := map[string]bool{}
	for i, in := range inputs {
		code := strings.TrimSpace(in.SensorCode)
		if err := s.validatePrediction(ctx, code, in, sensors); err != nil {
			out.Rejected++
			out.Errors = append(out.Errors, fmt.Sprintf("%d: %v", i, err))
			continue
		}
		item := &models.Prediction{
			SensorCode:      code,
			PredictedValue:  in.PredictedValue,
			PredictionRunAt: in.PredictionRunAt,
			PredictionFor:   in.PredictionFor.UTC(),
		}
		if item.PredictionRunAt == nil {
			now := s.now()
			item.PredictionRunAt = &now
		}
		if err := s.Repo.UpsertPrediction(ctx, item); err != nil {
			return out, err
		}
		out.Stored++
		stored = append(stored, *item)
	}
	if calculate && len(stored) > 0 {
		summary, err := s.ProcessPredictions(ctx, stored)
		if err != nil {
			return out, err
		}
		out.Discharge = &summary
	}
	return out, nil
}

func (s *DischargeService) validatePrediction(ctx context.Context, code string, in PredictionInput, known map[string]bool) error {
	if code == "" {
		return validationError("mas_sensor_code is required")
	}
	if in.PredictionFor.IsZero() {
		return validationError("prediction_for_ts is required")
	}
	if math.IsNaN(in.PredictedValue) || math.IsInf(in.PredictedValue, 0) {
		return validationError("predicted_value must be finite")
	}
	if ok, seen := known[code]; seen {
		if !ok {
			return ErrSensorNotFound
		}
		return nil
	}
	sensor, err := s.Repo.GetSensorByCode(ctx, code)
	if err != nil {
		return err
	}
	known[code] = sensor != nil
	if sensor == nil {
		return ErrSensorNotFound
	}
	return nil
}
