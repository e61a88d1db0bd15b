package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/esareynor/ffws-jatim-sub001/internal/credentials"
	"github.com/esareynor/ffws-jatim-sub001/internal/mapping"
	"github.com/esareynor/ffws-jatim-sub001/internal/models"
	"github.com/esareynor/ffws-jatim-sub001/internal/repository"
)

// SourceService administers API data sources and their sensor mappings.
type SourceService struct {
	Repo   repository.Repository
	Vault  *credentials.Vault
	Logger *zap.Logger
}

type SourceInput struct {
	Name                 string              `json:"name"`
	Code                 string              `json:"code"`
	APIURL               string              `json:"api_url"`
	APIMethod            string              `json:"api_method"`
	Headers              json.RawMessage     `json:"api_headers" swaggertype:"object"`
	Params               json.RawMessage     `json:"api_params" swaggertype:"object"`
	Body                 json.RawMessage     `json:"api_body" swaggertype:"object"`
	AuthType             string              `json:"auth_type"`
	Credentials          *credentials.Bundle `json:"auth_credentials"`
	ResponseFormat       string              `json:"response_format"`
	DataMapping          json.RawMessage     `json:"data_mapping" swaggertype:"object"`
	FetchIntervalMinutes int                 `json:"fetch_interval_minutes"`
	IsActive             *bool               `json:"is_active"`
	Description          string              `json:"description"`
}

var (
	allowedMethods   = map[string]bool{"GET": true, "POST": true, "PUT": true}
	allowedFormats   = map[string]bool{models.FormatJSON: true, models.FormatXML: true}
	allowedAuthTypes = map[string]bool{models.AuthNone: true, models.AuthBearer: true, models.AuthBasic: true, models.AuthAPIKey: true}
)

func (in *SourceInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Code = strings.TrimSpace(in.Code)
	in.APIURL = strings.TrimSpace(in.APIURL)
	in.APIMethod = strings.ToUpper(strings.TrimSpace(in.APIMethod))
	if in.APIMethod == "" {
		in.APIMethod = "GET"
	}
	in.AuthType = strings.ToLower(strings.TrimSpace(in.AuthType))
	if in.AuthType == "" {
		in.AuthType = models.AuthNone
	}
	in.ResponseFormat = strings.ToLower(strings.TrimSpace(in.ResponseFormat))
	if in.ResponseFormat == "" {
		in.ResponseFormat = models.FormatJSON
	}
	if in.FetchIntervalMinutes == 0 {
		in.FetchIntervalMinutes = 60
	}
}

// Validate checks the required fields and the data_mapping document.
func (in SourceInput) Validate() error {
	if in.Name == "" {
		return validationError("name is required")
	}
	if in.Code == "" {
		return validationError("code is required")
	}
	if in.APIURL == "" {
		return validationError("api_url is required")
	}
	if u, err := url.Parse(in.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		return validationError("api_url must be an absolute URL")
	}
	if !allowedMethods[in.APIMethod] {
		return validationError("api_method must be one of GET, POST, PUT")
	}
	if !allowedFormats[in.ResponseFormat] {
		return validationError("response_format must be json or xml")
	}
	if !allowedAuthTypes[in.AuthType] {
		return validationError("auth_type must be one of none, bearer, basic, api_key")
	}
	if in.FetchIntervalMinutes <= 0 {
		return validationError("fetch_interval_minutes must be a positive integer")
	}
	for name, raw := range map[string]json.RawMessage{"api_headers": in.Headers, "api_params": in.Params, "api_body": in.Body} {
		if !isObjectOrEmpty(raw) {
			return validationError("%s must be a JSON object", name)
		}
	}
	spec, err := mapping.ParseSpec(in.DataMapping)
	if err != nil {
		return validationError("%v", err)
	}
	if err := spec.Validate(); err != nil {
		return validationError("%v", err)
	}
	return nil
}

func isObjectOrEmpty(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return true
	}
	var m map[string]any
	return json.Unmarshal(raw, &m) == nil
}

func jsonColumn(raw json.RawMessage) datatypes.JSON {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return datatypes.JSON(raw)
}

func (s *SourceService) apply(item *models.Source, in SourceInput) error {
	item.Name = in.Name
	item.Code = in.Code
	item.APIURL = in.APIURL
	item.APIMethod = in.APIMethod
	item.Headers = jsonColumn(in.Headers)
	item.Params = jsonColumn(in.Params)
	item.Body = jsonColumn(in.Body)
	item.AuthType = in.AuthType
	item.ResponseFormat = in.ResponseFormat
	item.DataMapping = datatypes.JSON(bytes.TrimSpace(in.DataMapping))
	item.FetchIntervalMinutes = in.FetchIntervalMinutes
	item.Description = strings.TrimSpace(in.Description)
	if in.IsActive != nil {
		item.IsActive = *in.IsActive
	}
	if in.AuthType == models.AuthNone {
		item.AuthCredentials = ""
		return nil
	}
	if in.Credentials != nil {
		sealed, err := s.Vault.Seal(*in.Credentials)
		if err != nil {
			return err
		}
		item.AuthCredentials = sealed
	}
	return nil
}

func (s *SourceService) Create(ctx context.Context, in SourceInput) (*models.Source, error) {
	if s == nil || s.Repo == nil {
		return nil, ErrUnavailable
	}
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.Repo.GetSourceByCode(ctx, in.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, validationError("source %s already exists", in.Code)
	}
	item := &models.Source{IsActive: true}
	if err := s.apply(item, in); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateSource(ctx, item); err != nil {
		return nil, err
	}
	s.logger().Info("api data source created", zap.String("source", item.Code))
	return item, nil
}

// Update replaces the editable fields. Stored credentials are kept unless
// new ones are supplied.
func (s *SourceService) Update(ctx context.Context, code string, in SourceInput) (*models.Source, error) {
	item, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Code != item.Code {
		other, err := s.Repo.GetSourceByCode(ctx, in.Code)
		if err != nil {
			return nil, err
		}
		if other != nil {
			return nil, validationError("source %s already exists", in.Code)
		}
	}
	if err := s.apply(item, in); err != nil {
		return nil, err
	}
	if err := s.Repo.UpdateSource(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *SourceService) Delete(ctx context.Context, code string) error {
	item, err := s.Get(ctx, code)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteSource(ctx, item.ID); err != nil {
		return err
	}
	s.logger().Info("api data source deleted", zap.String("source", item.Code))
	return nil
}

func (s *SourceService) Get(ctx context.Context, code string) (*models.Source, error) {
	if s == nil || s.Repo == nil {
		return nil, ErrUnavailable
	}
	item, err := s.Repo.GetSourceByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrSourceNotFound
	}
	return item, nil
}

func (s *SourceService) List(ctx context.Context, params repository.ListSourcesParams) ([]models.Source, int64, error) {
	if s == nil || s.Repo == nil {
		return nil, 0, ErrUnavailable
	}
	items, err := s.Repo.ListSources(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountSources(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *SourceService) Logs(ctx context.Context, code string, params repository.ListFetchAttemptsParams) ([]models.FetchAttempt, int64, error) {
	source, err := s.Get(ctx, code)
	if err != nil {
		return nil, 0, err
	}
	params.SourceID = source.ID
	items, err := s.Repo.ListFetchAttempts(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountFetchAttempts(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

type MappingInput struct {
	SourceCode       string          `json:"source_code"`
	SensorCode       string          `json:"mas_sensor_code"`
	ExternalSensorID *string         `json:"external_sensor_id"`
	FieldMapping     json.RawMessage `json:"field_mapping" swaggertype:"object"`
	IsActive         *bool           `json:"is_active"`
}

func (s *SourceService) mappingFields(ctx context.Context, item *models.SensorMapping, in MappingInput) error {
	sensorCode := strings.TrimSpace(in.SensorCode)
	if sensorCode == "" {
		return validationError("mas_sensor_code is required")
	}
	sensor, err := s.Repo.GetSensorByCode(ctx, sensorCode)
	if err != nil {
		return err
	}
	if sensor == nil {
		return ErrSensorNotFound
	}
	if raw := bytes.TrimSpace(in.FieldMapping); len(raw) > 0 && string(raw) != "null" {
		var rules mapping.FieldRules
		if err := json.Unmarshal(raw, &rules); err != nil {
			return validationError("field_mapping: %v", err)
		}
		item.FieldMapping = datatypes.JSON(raw)
	} else {
		item.FieldMapping = nil
	}
	item.SensorCode = sensor.Code
	item.DeviceCode = sensor.DeviceCode
	if in.ExternalSensorID != nil {
		ext := strings.TrimSpace(*in.ExternalSensorID)
		item.ExternalSensorID = &ext
		if ext == "" {
			item.ExternalSensorID = nil
		}
	}
	if in.IsActive != nil {
		item.IsActive = *in.IsActive
	}
	return nil
}

func (s *SourceService) CreateMapping(ctx context.Context, in MappingInput) (*models.SensorMapping, error) {
	source, err := s.Get(ctx, in.SourceCode)
	if err != nil {
		return nil, err
	}
	item := &models.SensorMapping{SourceID: source.ID, IsActive: true}
	if err := s.mappingFields(ctx, item, in); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateMapping(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *SourceService) UpdateMapping(ctx context.Context, id uint64, in MappingInput) (*models.SensorMapping, error) {
	if s == nil || s.Repo == nil {
		return nil, ErrUnavailable
	}
	item, err := s.Repo.GetMappingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrMappingNotFound
	}
	if err := s.mappingFields(ctx, item, in); err != nil {
		return nil, err
	}
	if err := s.Repo.UpdateMapping(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *SourceService) DeleteMapping(ctx context.Context, id uint64) error {
	if s == nil || s.Repo == nil {
		return ErrUnavailable
	}
	item, err := s.Repo.GetMappingByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrMappingNotFound
	}
	return s.Repo.DeleteMapping(ctx, id)
}

func (s *SourceService) ListMappings(ctx context.Context, params repository.ListMappingsParams) ([]models.SensorMapping, int64, error) {
	if s == nil || s.Repo == nil {
		return nil, 0, ErrUnavailable
	}
	items, err := s.Repo.ListMappings(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountMappings(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *SourceService) logger() *zap.Logger {
	if s == nil || s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
