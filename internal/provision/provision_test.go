package provision

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/esareynor/ffws-jatim-sub001/internal/mapping"
	"github.com/esareynor/ffws-jatim-sub001/internal/models"
)

type stubRepo struct {
	devices  map[string]*models.Device
	sensors  map[string]*models.Sensor
	mappings []*models.SensorMapping

	failSensor   bool
	savepoints   int
	coordUpdates int
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		devices: map[string]*models.Device{},
		sensors: map[string]*models.Sensor{},
	}
}

func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func (s *stubRepo) SavepointTx(ctx context.Context, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	s.savepoints++
	return fn(tx)
}

func (s *stubRepo) GetDeviceByCodeTx(ctx context.Context, tx *gorm.DB, code string) (*models.Device, error) {
	if d, ok := s.devices[code]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (s *stubRepo) CreateDeviceTx(ctx context.Context, tx *gorm.DB, item *models.Device) error {
	item.ID = uint64(len(s.devices) + 1)
	cp := *item
	s.devices[item.Code] = &cp
	return nil
}

func (s *stubRepo) UpdateDeviceCoordinatesTx(ctx context.Context, tx *gorm.DB, code string, lat, lon float64) error {
	s.coordUpdates++
	d := s.devices[code]
	d.Latitude, d.Longitude = &lat, &lon
	return nil
}

func (s *stubRepo) GetSensorByCode(ctx context.Context, code string) (*models.Sensor, error) {
	return s.GetSensorByCodeTx(ctx, nil, code)
}

func (s *stubRepo) GetSensorByCodeTx(ctx context.Context, tx *gorm.DB, code string) (*models.Sensor, error) {
	if v, ok := s.sensors[code]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, nil
}

func (s *stubRepo) CreateSensorTx(ctx context.Context, tx *gorm.DB, item *models.Sensor) error {
	if s.failSensor {
		return errors.New("sensor insert failed")
	}
	item.ID = uint64(len(s.sensors) + 1)
	cp := *item
	s.sensors[item.Code] = &cp
	return nil
}

func (s *stubRepo) TouchSensorTx(ctx context.Context, tx *gorm.DB, code string, seenAt time.Time) error {
	return nil
}

func (s *stubRepo) FindMappingByExternalIDTx(ctx context.Context, tx *gorm.DB, sourceID uint64, externalID string) (*models.SensorMapping, error) {
	for _, m := range s.mappings {
		if m.SourceID == sourceID && m.ExternalSensorID != nil && *m.ExternalSensorID == externalID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) SaveMappingTx(ctx context.Context, tx *gorm.DB, item *models.SensorMapping) error {
	for _, m := range s.mappings {
		if m.SourceID == item.SourceID && m.SensorCode == item.SensorCode {
			m.DeviceCode = item.DeviceCode
			m.ExternalSensorID = item.ExternalSensorID
			m.IsActive = item.IsActive
			item.ID = m.ID
			return nil
		}
	}
	item.ID = uint64(len(s.mappings) + 1)
	cp := *item
	s.mappings = append(s.mappings, &cp)
	return nil
}

func strp(v string) *string { return &v }
func f64p(v float64) *float64 { return &v }

func TestInferParameter(t *testing.T) {
	tests := []struct {
		in   string
		want Parameter
	}{
		{"awlr_pusda", ParamWaterLevel},
		{"WATER-JATIM", ParamWaterLevel},
		{"arr_bbws", ParamRainfall},
		{"curah_hujan", ParamRainfall},
		{"meteorologi_juanda", ParamRainfall},
		{"suhu_udara", ParamTemperature},
		{"kelembaban", ParamHumidity},
		{"humidity_station", ParamHumidity},
		{"generic", ParamUnknown},
	}
	for _, tt := range tests {
		if got := InferParameter(tt.in); got != tt.want {
			t.Fatalf("InferParameter(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCodeDerivation(t *testing.T) {
	tests := []struct {
		source   string
		external string
		device   string
		sensor   string
	}{
		{"awlr_pusda", "X1", "AWLR-X1", "AWLR-X1-WL"},
		{"arr_bbws", "17", "ARR-17", "ARR-17-RF"},
		{"meteo_temp", "M2", "METEO-M2", "METEO-M2-TEMP"},
		{"partner", " P9 ", "API-P9", "API-P9-SENSOR"},
	}
	for _, tt := range tests {
		device := DeviceCode(tt.source, tt.external)
		if device != tt.device {
			t.Fatalf("DeviceCode(%q, %q) = %q, want %q", tt.source, tt.external, device, tt.device)
		}
		if got := SensorCode(device, InferParameter(tt.source)); got != tt.sensor {
			t.Fatalf("SensorCode(%q) = %q, want %q", device, got, tt.sensor)
		}
	}
	if UnitFor(ParamRainfall) != "mm" || UnitFor(ParamUnknown) != "unit" {
		t.Fatalf("unexpected unit table")
	}
	if got := CleanName("  Sta \t  1 "); got != "Sta 1" {
		t.Fatalf("CleanName = %q", got)
	}
}

func TestResolveCreatesEntitiesOnce(t *testing.T) {
	repo := newStubRepo()
	r := &Resolver{Repo: repo}
	source := &models.Source{ID: 3, Code: "awlr_pusda", Name: "AWLR PUSDA"}
	rec := mapping.Record{ExternalID: strp("X1"), Name: strp("Sta 1"), Latitude: f64p(-7.2), Longitude: f64p(112.7)}

	res, err := r.Resolve(context.Background(), nil, source, rec)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !res.DeviceCreated || !res.SensorCreated {
		t.Fatalf("expected device and sensor to be created")
	}
	if res.Sensor.Code != "AWLR-X1-WL" || res.Sensor.Unit != "m" {
		t.Fatalf("unexpected sensor %+v", res.Sensor)
	}
	if res.Sensor.Description != "Auto-created from API: AWLR PUSDA" {
		t.Fatalf("unexpected description %q", res.Sensor.Description)
	}
	dev := repo.devices["AWLR-X1"]
	if dev.RiverBasinCode != PlaceholderRiverBasin || dev.Status != StatusActive || dev.Elevation != 0 {
		t.Fatalf("unexpected placeholders %+v", dev)
	}
	if dev.Latitude == nil || *dev.Latitude != -7.2 {
		t.Fatalf("coordinates not set")
	}

	again, err := r.Resolve(context.Background(), nil, source, mapping.Record{ExternalID: strp("X1"), Name: strp("Sta 1")})
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if again.DeviceCreated || again.SensorCreated {
		t.Fatalf("second resolve must not create")
	}
	if len(repo.devices) != 1 || len(repo.sensors) != 1 || len(repo.mappings) != 1 {
		t.Fatalf("duplicates created: %d devices, %d sensors, %d mappings", len(repo.devices), len(repo.sensors), len(repo.mappings))
	}
	if repo.devices["AWLR-X1"].Latitude == nil {
		t.Fatalf("coordinates must not be cleared by a record without them")
	}
}

func TestResolveUpdatesCoordinatesOnlyWhenBothPresent(t *testing.T) {
	repo := newStubRepo()
	repo.devices["AWLR-X1"] = &models.Device{Code: "AWLR-X1", Latitude: f64p(1), Longitude: f64p(2)}
	r := &Resolver{Repo: repo}
	source := &models.Source{ID: 3, Code: "awlr_pusda"}

	if _, err := r.Resolve(context.Background(), nil, source, mapping.Record{ExternalID: strp("X1"), Name: strp("Sta"), Latitude: f64p(9)}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if repo.coordUpdates != 0 {
		t.Fatalf("latitude alone must not update coordinates")
	}
	repo.mappings = nil
	if _, err := r.Resolve(context.Background(), nil, source, mapping.Record{ExternalID: strp("X1"), Name: strp("Sta"), Latitude: f64p(9), Longitude: f64p(8)}); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if repo.coordUpdates != 1 || *repo.devices["AWLR-X1"].Latitude != 9 {
		t.Fatalf("expected coordinate update")
	}
}

func TestResolveRequiresIdentity(t *testing.T) {
	r := &Resolver{Repo: newStubRepo()}
	source := &models.Source{ID: 1, Code: "arr"}
	if _, err := r.Resolve(context.Background(), nil, source, mapping.Record{Name: strp("x")}); !errors.Is(err, ErrMissingExternalID) {
		t.Fatalf("expected ErrMissingExternalID, got %v", err)
	}
	if _, err := r.Resolve(context.Background(), nil, source, mapping.Record{ExternalID: strp("1"), Name: strp("   ")}); !errors.Is(err, ErrMissingName) {
		t.Fatalf("expected ErrMissingName, got %v", err)
	}
}

func TestResolveKeepsDeviceWhenSensorFails(t *testing.T) {
	repo := newStubRepo()
	repo.failSensor = true
	r := &Resolver{Repo: repo}
	source := &models.Source{ID: 1, Code: "arr_bbws"}

	if _, err := r.Resolve(context.Background(), nil, source, mapping.Record{ExternalID: strp("17"), Name: strp("Pos 17")}); err == nil {
		t.Fatalf("expected sensor failure")
	}
	if _, ok := repo.devices["ARR-17"]; !ok {
		t.Fatalf("device must persist after sensor failure")
	}
	if len(repo.mappings) != 0 {
		t.Fatalf("mapping must not be created")
	}

	repo.failSensor = false
	res, err := r.Resolve(context.Background(), nil, source, mapping.Record{ExternalID: strp("17"), Name: strp("Pos 17")})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if res.DeviceCreated || !res.SensorCreated {
		t.Fatalf("retry should reuse device and create sensor")
	}
}

func TestResolveReactivatesMapping(t *testing.T) {
	repo := newStubRepo()
	repo.sensors["CUSTOM-1"] = &models.Sensor{Code: "CUSTOM-1", DeviceCode: "DEV"}
	repo.mappings = []*models.SensorMapping{{ID: 4, SourceID: 1, SensorCode: "CUSTOM-1", DeviceCode: "DEV", ExternalSensorID: strp("E1"), IsActive: false}}
	r := &Resolver{Repo: repo}

	res, err := r.Resolve(context.Background(), nil, &models.Source{ID: 1, Code: "awlr"}, mapping.Record{ExternalID: strp("E1"), Name: strp("n")})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Sensor.Code != "CUSTOM-1" || !repo.mappings[0].IsActive {
		t.Fatalf("expected reactivated mapping to CUSTOM-1, got %+v", res.Sensor)
	}
	if len(repo.devices) != 0 {
		t.Fatalf("no device should be derived for an existing mapping")
	}
}

func TestProvisionSourceCounts(t *testing.T) {
	r := &Resolver{Repo: newStubRepo()}
	records := []mapping.Record{
		{ExternalID: strp("1"), Name: strp("a")},
		{ExternalID: strp("2")},
		{ExternalID: strp("3"), Name: strp("c")},
	}
	out := r.ProvisionSource(context.Background(), &models.Source{ID: 1, Code: "arr"}, records)
	if out.Success != 2 || out.Failed != 1 || len(out.Errors) != 1 {
		t.Fatalf("unexpected batch result %+v", out)
	}
}
