package service

import (
	"context"
	"strings"
	"time"

	"github.com/esareynor/ffws-jatim-sub001/internal/layer"
	"github.com/esareynor/ffws-jatim-sub001/internal/models"
	"github.com/esareynor/ffws-jatim-sub001/internal/repository"
)

type LayerService struct {
	Repo      repository.Repository
	Assembler *layer.Assembler
}

// LayerResponse is the map view of one discharge value.
type LayerResponse struct {
	DischargeID  uint64          `json:"discharge_id"`
	SensorCode   string          `json:"mas_sensor_code"`
	DeviceCode   string          `json:"mas_device_code"`
	Discharge    float64         `json:"discharge"`
	WaterLevel   float64         `json:"water_level"`
	CalculatedAt time.Time       `json:"calculated_at"`
	Predicted    bool            `json:"predicted"`
	Layers       []layer.Payload `json:"layers"`
}

func (s *LayerService) ForDischarge(ctx context.Context, id uint64) (*LayerResponse, error) {
	if s == nil || s.Repo == nil {
		return nil, ErrUnavailable
	}
	d, err := s.Repo.GetCalculatedDischargeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDischargeNotFound
	}
	out := &LayerResponse{
		DischargeID:  d.ID,
		SensorCode:   d.SensorCode,
		Discharge:    d.SensorDischarge,
		WaterLevel:   d.SensorValue,
		CalculatedAt: d.CalculatedAt,
	}
	return s.fill(ctx, out)
}

func (s *LayerService) ForPredictedDischarge(ctx context.Context, id uint64) (*LayerResponse, error) {
	if s == nil || s.Repo == nil {
		return nil, ErrUnavailable
	}
	d, err := s.Repo.GetPredictedDischargeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDischargeNotFound
	}
	out := &LayerResponse{
		DischargeID:  d.ID,
		SensorCode:   d.SensorCode,
		Discharge:    d.PredictedDischarge,
		WaterLevel:   d.PredictedValue,
		CalculatedAt: d.CalculatedAt,
		Predicted:    true,
	}
	return s.fill(ctx, out)
}

func (s *LayerService) fill(ctx context.Context, out *LayerResponse) (*LayerResponse, error) {
	sensor, err := s.Repo.GetSensorByCode(ctx, out.SensorCode)
	if err != nil {
		return nil, err
	}
	if sensor == nil {
		return nil, ErrSensorNotFound
	}
	out.DeviceCode = sensor.DeviceCode
	out.Layers, err = s.ByValue(ctx, sensor.DeviceCode, out.Discharge)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ByValue returns the payloads of the device's layers containing value.
func (s *LayerService) ByValue(ctx context.Context, deviceCode string, value float64) ([]layer.Payload, error) {
	mappings, err := s.matching(ctx, deviceCode, value)
	if err != nil {
		return nil, err
	}
	if s.Assembler == nil {
		return []layer.Payload{}, nil
	}
	return s.Assembler.Build(ctx, value, mappings), nil
}

// Codes returns only the codes of the matching layers.
func (s *LayerService) Codes(ctx context.Context, deviceCode string, value float64) ([]string, error) {
	mappings, err := s.matching(ctx, deviceCode, value)
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(mappings))
	for _, m := range mappings {
		codes = append(codes, m.Code)
	}
	return codes, nil
}

func (s *LayerService) matching(ctx context.Context, deviceCode string, value float64) ([]models.GeojsonMapping, error) {
	if s == nil || s.Repo == nil {
		return nil, ErrUnavailable
	}
	deviceCode = strings.TrimSpace(deviceCode)
	if deviceCode == "" {
		return nil, validationError("device code is required")
	}
	mappings, err := s.Repo.ListLayersForValue(ctx, deviceCode, value)
	if err != nil {
		return nil, err
	}
	return layer.Filter(mappings, deviceCode, value), nil
}
