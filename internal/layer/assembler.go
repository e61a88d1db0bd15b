package layer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/esareynor/ffws-jatim-sub001/internal/cache"
	"github.com/esareynor/ffws-jatim-sub001/internal/geostore"
	"github.com/esareynor/ffws-jatim-sub001/internal/models"
)

type ValueRange struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

type Metadata struct {
	RiverBasin *string `json:"river_basin"`
	City       *string `json:"city"`
	Regency    *string `json:"regency"`
	Village    *string `json:"village"`
	UPT        *string `json:"upt"`
	UPTD       *string `json:"uptd"`
}

type Payload struct {
	MappingID        uint64          `json:"mapping_id"`
	MappingCode      string          `json:"mapping_code"`
	Label            string          `json:"label"`
	DeviceCode       string          `json:"mas_device_code"`
	ValueRange       ValueRange      `json:"value_range"`
	CurrentDischarge float64         `json:"current_discharge"`
	GeoJSON          json.RawMessage `json:"geojson" swaggertype:"object"`
	Properties       json.RawMessage `json:"properties,omitempty" swaggertype:"object"`
	Metadata         Metadata        `json:"metadata"`
}

// Assembler reads geometry through the store, with the cache in front.
type Assembler struct {
	Files    *geostore.Store
	Cache    cache.Store
	CacheTTL time.Duration
	Logger   *zap.Logger
}

// Build projects mappings into payloads. Mappings whose file is missing or is
// not valid JSON are left out.
func (a *Assembler) Build(ctx context.Context, discharge float64, mappings []models.GeojsonMapping) []Payload {
	out := make([]Payload, 0, len(mappings))
	for _, m := range mappings {
		content, err := a.geometry(ctx, m.FilePath)
		if err != nil {
			if !errors.Is(err, geostore.ErrNotFound) {
				a.logger().Warn("layer geometry unreadable", zap.String("mapping", m.Code), zap.String("file", m.FilePath), zap.Error(err))
			}
			continue
		}
		label := m.Description
		if label == "" {
			label = "Layer " + m.Code
		}
		p := Payload{
			MappingID:        m.ID,
			MappingCode:      m.Code,
			Label:            label,
			DeviceCode:       m.DeviceCode,
			ValueRange:       ValueRange{Min: m.ValueMin, Max: m.ValueMax},
			CurrentDischarge: discharge,
			GeoJSON:          content,
			Metadata:         decodeMetadata(m.Metadata),
		}
		if len(m.Properties) > 0 {
			p.Properties = json.RawMessage(m.Properties)
		}
		out = append(out, p)
	}
	return out
}

func (a *Assembler) geometry(ctx context.Context, filePath string) (json.RawMessage, error) {
	key := "geojson:" + filePath
	if a.Cache != nil {
		if b, ok, err := a.Cache.Get(ctx, key); err == nil && ok {
			return json.RawMessage(b), nil
		} else if err != nil {
			a.logger().Debug("geometry cache get failed", zap.String("key", key), zap.Error(err))
		}
	}
	if a.Files == nil {
		return nil, geostore.ErrNotFound
	}
	b, err := a.Files.Read(filePath)
	if err != nil {
		return nil, err
	}
	if !json.Valid(b) {
		return nil, errors.New("geometry file is not valid JSON")
	}
	if a.Cache != nil {
		if err := a.Cache.Set(ctx, key, b, a.CacheTTL); err != nil {
			a.logger().Debug("geometry cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return json.RawMessage(b), nil
}

func decodeMetadata(raw []byte) Metadata {
	var md Metadata
	if len(raw) == 0 {
		return md
	}
	_ = json.Unmarshal(raw, &md)
	return md
}

func (a *Assembler) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}
