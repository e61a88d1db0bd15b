package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/esareynor/ffws-jatim-sub001/internal/mapping"
	"github.com/esareynor/ffws-jatim-sub001/internal/models"
	"github.com/esareynor/ffws-jatim-sub001/internal/repository"
)

// Placeholders written on auto-created devices; operators correct them later.
const (
	PlaceholderRiverBasin = "API-SOURCE"
	StatusActive          = "active"
)

var (
	ErrMissingExternalID = errors.New("provision: record has no external id")
	ErrMissingName       = errors.New("provision: record has no name")
)

type Resolver struct {
	Repo   repository.ProvisionRepository
	Logger *zap.Logger
}

// Result is the routed sensor of a provisioned record.
type Result struct {
	Device  *models.Device
	Sensor  *models.Sensor
	Mapping *models.SensorMapping

	DeviceCreated bool
	SensorCreated bool
}

// Resolve looks up or creates the device, sensor and mapping for rec. Each
// entity is written in its own savepoint of tx, so entities created before a
// failure stay in place; repeating the call converges on the same rows.
func (r *Resolver) Resolve(ctx context.Context, tx *gorm.DB, source *models.Source, rec mapping.Record) (*Result, error) {
	if r == nil || r.Repo == nil {
		return nil, errors.New("provision: resolver not configured")
	}
	if source == nil {
		return nil, errors.New("provision: source is required")
	}
	if rec.ExternalID == nil || strings.TrimSpace(*rec.ExternalID) == "" {
		return nil, ErrMissingExternalID
	}
	if rec.Name == nil || CleanName(*rec.Name) == "" {
		return nil, ErrMissingName
	}
	externalID := strings.TrimSpace(*rec.ExternalID)
	name := CleanName(*rec.Name)

	existing, err := r.Repo.FindMappingByExternalIDTx(ctx, tx, source.ID, externalID)
	if err != nil {
		return nil, fmt.Errorf("lookup mapping: %w", err)
	}
	if existing != nil {
		return r.reactivate(ctx, tx, existing)
	}

	param := InferParameter(source.Code)
	deviceCode := DeviceCode(source.Code, externalID)
	sensorCode := SensorCode(deviceCode, param)
	out := &Result{}

	err = r.Repo.SavepointTx(ctx, tx, func(tx *gorm.DB) error {
		device, created, err := r.ensureDevice(ctx, tx, deviceCode, name, rec)
		out.Device, out.DeviceCreated = device, created
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("device %s: %w", deviceCode, err)
	}

	err = r.Repo.SavepointTx(ctx, tx, func(tx *gorm.DB) error {
		sensor, created, err := r.ensureSensor(ctx, tx, sensorCode, deviceCode, param, source.Name)
		out.Sensor, out.SensorCreated = sensor, created
		return err
	})
	if err != nil {
		return out, fmt.Errorf("sensor %s: %w", sensorCode, err)
	}

	err = r.Repo.SavepointTx(ctx, tx, func(tx *gorm.DB) error {
		m := &models.SensorMapping{
			SourceID:         source.ID,
			SensorCode:       sensorCode,
			DeviceCode:       deviceCode,
			ExternalSensorID: &externalID,
			IsActive:         true,
		}
		if err := r.Repo.SaveMappingTx(ctx, tx, m); err != nil {
			return err
		}
		out.Mapping = m
		return nil
	})
	if err != nil {
		return out, fmt.Errorf("mapping %s: %w", externalID, err)
	}

	if out.DeviceCreated || out.SensorCreated {
		r.logger().Info("auto-provisioned sensor",
			zap.String("source", source.Code),
			zap.String("external_id", externalID),
			zap.String("device", deviceCode),
			zap.String("sensor", sensorCode),
			zap.Bool("device_created", out.DeviceCreated),
			zap.Bool("sensor_created", out.SensorCreated),
		)
	}
	return out, nil
}

func (r *Resolver) reactivate(ctx context.Context, tx *gorm.DB, m *models.SensorMapping) (*Result, error) {
	out := &Result{Mapping: m}
	if !m.IsActive {
		m.IsActive = true
		err := r.Repo.SavepointTx(ctx, tx, func(tx *gorm.DB) error {
			return r.Repo.SaveMappingTx(ctx, tx, m)
		})
		if err != nil {
			return nil, fmt.Errorf("reactivate mapping %d: %w", m.ID, err)
		}
	}
	sensor, err := r.Repo.GetSensorByCodeTx(ctx, tx, m.SensorCode)
	if err != nil {
		return nil, fmt.Errorf("lookup sensor %s: %w", m.SensorCode, err)
	}
	if sensor == nil {
		return nil, fmt.Errorf("mapping %d references missing sensor %s", m.ID, m.SensorCode)
	}
	out.Sensor = sensor
	return out, nil
}

func (r *Resolver) ensureDevice(ctx context.Context, tx *gorm.DB, code, name string, rec mapping.Record) (*models.Device, bool, error) {
	device, err := r.Repo.GetDeviceByCodeTx(ctx, tx, code)
	if err != nil {
		return nil, false, err
	}
	hasCoords := rec.Latitude != nil && rec.Longitude != nil
	if device != nil {
		if hasCoords {
			if err := r.Repo.UpdateDeviceCoordinatesTx(ctx, tx, code, *rec.Latitude, *rec.Longitude); err != nil {
				return device, false, err
			}
			device.Latitude, device.Longitude = rec.Latitude, rec.Longitude
		}
		return device, false, nil
	}
	device = &models.Device{
		Code:           code,
		Name:           name,
		RiverBasinCode: PlaceholderRiverBasin,
		Elevation:      0,
		Status:         StatusActive,
	}
	if hasCoords {
		device.Latitude, device.Longitude = rec.Latitude, rec.Longitude
	}
	if err := r.Repo.CreateDeviceTx(ctx, tx, device); err != nil {
		return nil, false, err
	}
	return device, true, nil
}

func (r *Resolver) ensureSensor(ctx context.Context, tx *gorm.DB, code, deviceCode string, param Parameter, sourceName string) (*models.Sensor, bool, error) {
	sensor, err := r.Repo.GetSensorByCodeTx(ctx, tx, code)
	if err != nil {
		return nil, false, err
	}
	if sensor != nil {
		return sensor, false, nil
	}
	sensor = &models.Sensor{
		Code:        code,
		DeviceCode:  deviceCode,
		Parameter:   string(param),
		Unit:        UnitFor(param),
		Description: "Auto-created from API: " + sourceName,
		Status:      StatusActive,
	}
	if err := r.Repo.CreateSensorTx(ctx, tx, sensor); err != nil {
		return nil, false, err
	}
	return sensor, true, nil
}

// BatchResult summarises ProvisionSource.
type BatchResult struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

// ProvisionSource provisions every record, each in its own transaction. The
// transaction commits even when Resolve fails so partially created entities
// are kept.
func (r *Resolver) ProvisionSource(ctx context.Context, source *models.Source, records []mapping.Record) BatchResult {
	out := BatchResult{Errors: []string{}}
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			out.Failed += len(records) - i
			out.Errors = append(out.Errors, err.Error())
			break
		}
		var resolveErr error
		err := r.Repo.InTx(ctx, func(tx *gorm.DB) error {
			_, resolveErr = r.Resolve(ctx, tx, source, rec)
			return nil
		})
		if err == nil {
			err = resolveErr
		}
		if err != nil {
			out.Failed++
			out.Errors = append(out.Errors, fmt.Sprintf("record %d: %v", i, err))
			continue
		}
		out.Success++
	}
	return out
}

func (r *Resolver) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
