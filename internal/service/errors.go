package service

import (
	"errors"
	"fmt"
)

var (
	ErrSourceNotFound     = errors.New("api data source not found")
	ErrSensorNotFound     = errors.New("sensor not found")
	ErrReadingNotFound    = errors.New("reading not found")
	ErrPredictionNotFound = errors.New("prediction not found")
	ErrDischargeNotFound  = errors.New("discharge not found")
	ErrCurveNotFound      = errors.New("rating curve not found")
	ErrMappingNotFound    = errors.New("sensor mapping not found")
	// ErrCurveInUse rejects edits of a curve that discharges were computed from.
	ErrCurveInUse         = errors.New("rating curve is referenced by calculated discharges")
	ErrValidation         = errors.New("validation failed")
	ErrUnavailable        = errors.New("service not configured")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
