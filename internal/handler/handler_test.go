package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/esareynor/ffws-jatim-sub001/internal/config"
	"github.com/esareynor/ffws-jatim-sub001/internal/db"
	"github.com/esareynor/ffws-jatim-sub001/internal/discharge"
	"github.com/esareynor/ffws-jatim-sub001/internal/models"
	"github.com/esareynor/ffws-jatim-sub001/internal/repository"
	"github.com/esareynor/ffws-jatim-sub001/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
}

func call(t *testing.T, r http.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out envelope
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, w.Body.String())
		}
	}
	return w.Code, out
}

type settingsStub struct {
	mu    sync.Mutex
	items map[string]models.SystemSetting
}

func (s *settingsStub) UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.items == nil {
		s.items = map[string]models.SystemSetting{}
	}
	s.items[item.Key] = *item
	return nil
}

func (s *settingsStub) GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[key]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (s *settingsStub) ListSystemSettings(ctx context.Context, params repository.ListSystemSettingsParams) ([]models.SystemSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.SystemSetting{}
	for _, it := range s.items {
		if params.Prefix != nil && !strings.HasPrefix(it.Key, *params.Prefix) {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *settingsStub) CountSystemSettings(ctx context.Context, params repository.ListSystemSettingsParams) (int64, error) {
	items, _ := s.ListSystemSettings(ctx, params)
	return int64(len(items)), nil
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: name is required", service.ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("curve: %w", discharge.ErrUnknownFormula), http.StatusBadRequest},
		{service.ErrSourceNotFound, http.StatusNotFound},
		{service.ErrSensorNotFound, http.StatusNotFound},
		{service.ErrReadingNotFound, http.StatusNotFound},
		{service.ErrPredictionNotFound, http.StatusNotFound},
		{service.ErrDischargeNotFound, http.StatusNotFound},
		{service.ErrCurveNotFound, http.StatusNotFound},
		{service.ErrMappingNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: RC-1 (3 rows)", service.ErrCurveInUse), http.StatusConflict},
		{service.ErrUnavailable, http.StatusServiceUnavailable},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusOf(tc.err); got != tc.want {
			t.Fatalf("statusOf(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestSettingsRoutes(t *testing.T) {
	stub := &settingsStub{}
	r := gin.New()
	(&SettingsHandler{Settings: &service.SystemSettingsService{Repo: stub}}).Register(r)

	status, _ := call(t, r, http.MethodPut, "/api/system-settings/ingest.batch_size", `{"value":250,"description":"rows per page"}`)
	if status != http.StatusOK {
		t.Fatalf("put setting: %d", status)
	}
	status, _ = call(t, r, http.MethodPut, "/api/system-settings/switches/ingest", `{"enabled":false}`)
	if status != http.StatusOK {
		t.Fatalf("put switch: %d", status)
	}

	status, body := call(t, r, http.MethodGet, "/api/system-settings", "")
	if status != http.StatusOK {
		t.Fatalf("list: %d", status)
	}
	var items []models.SystemSetting
	if err := json.Unmarshal(body.Data, &items); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(items) != 2 || items[0].Key != "feature.ingest" || items[1].Key != "ingest.batch_size" {
		t.Fatalf("unexpected settings: %+v", items)
	}
	if body.Meta["total"] != float64(2) {
		t.Fatalf("unexpected meta: %+v", body.Meta)
	}

	status, body = call(t, r, http.MethodGet, "/api/system-settings/switches", "")
	if status != http.StatusOK {
		t.Fatalf("switches: %d", status)
	}
	var switches []map[string]any
	if err := json.Unmarshal(body.Data, &switches); err != nil {
		t.Fatalf("decode switches: %v", err)
	}
	if len(switches) != 1 || switches[0]["name"] != "ingest" || switches[0]["enabled"] != false {
		t.Fatalf("unexpected switches: %+v", switches)
	}

	settings := &service.SystemSettingsService{Repo: stub}
	if settings.IsEnabled(context.Background(), service.FeatureIngest, true) {
		t.Fatalf("expected ingest switch to be off")
	}

	status, _ = call(t, r, http.MethodPut, "/api/system-settings/switches/ingest", `not json`)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid body, got %d", status)
	}
}

func TestRequestValidationAndUnavailableServices(t *testing.T) {
	r := gin.New()
	(&SourceHandler{}).Register(r)
	(&MappingHandler{}).Register(r)
	(&CurveHandler{}).Register(r)
	(&DischargeHandler{}).Register(r)
	(&PredictionHandler{}).Register(r)
	(&LayerHandler{}).Register(r)

	cases := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/api/api-data-sources", "", http.StatusServiceUnavailable},
		{http.MethodPost, "/api/api-data-sources", `[`, http.StatusBadRequest},
		{http.MethodPost, "/api/api-data-sources/fetch-due?force=true", "", http.StatusServiceUnavailable},
		{http.MethodPut, "/api/sensor-api-mappings/abc", `{}`, http.StatusBadRequest},
		{http.MethodDelete, "/api/sensor-api-mappings/7", "", http.StatusServiceUnavailable},
		{http.MethodPost, "/api/rating-curves", `{"code":"RC-1","effective_date":"%%%"}`, http.StatusBadRequest},
		{http.MethodPost, "/api/discharge-calculation/calculate/abc", "", http.StatusBadRequest},
		{http.MethodPost, "/api/discharge-calculation/calculate-batch", `{"ids":[]}`, http.StatusBadRequest},
		{http.MethodGet, "/api/discharge-calculation/latest", "", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/discharge-calculation/summary/S1?from=%25%25%25", "", http.StatusBadRequest},
		{http.MethodGet, "/api/prediction-discharge-calculation/7/geojson", "", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/discharges/S1/export?to=%25%25%25", "", http.StatusBadRequest},
		{http.MethodPost, "/api/predictions", `{"items":[]}`, http.StatusBadRequest},
		{http.MethodGet, "/api/geojson-mappings/by-discharge?value=1", "", http.StatusBadRequest},
		{http.MethodGet, "/api/geojson-mappings/by-discharge?device=D1&value=abc", "", http.StatusBadRequest},
		{http.MethodGet, "/api/geojson-mappings/by-discharge?device=D1&value=12.5", "", http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		status, body := call(t, r, tc.method, tc.path, tc.body)
		if status != tc.want {
			t.Fatalf("%s %s: status %d, want %d (%s)", tc.method, tc.path, status, tc.want, body.Message)
		}
		if body.Code != tc.want {
			t.Fatalf("%s %s: envelope code %d, want %d", tc.method, tc.path, body.Code, tc.want)
		}
	}
}

type pingStub struct{ err error }

func (p pingStub) Ping(ctx context.Context) error { return p.err }

func TestReadiness(t *testing.T) {
	r := gin.New()
	(&HealthHandler{}).Register(r)
	if status, _ := call(t, r, http.MethodGet, "/readyz", ""); status != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without db, got %d", status)
	}
	if status, _ := call(t, r, http.MethodGet, "/healthz", ""); status != http.StatusOK {
		t.Fatalf("expected 200 from healthz, got %d", status)
	}

	conn, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer conn.Close()
	dbConn, err := db.OpenConn(conn, config.DBConfig{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	r = gin.New()
	(&HealthHandler{DB: dbConn.Gorm}).Register(r)
	if status, _ := call(t, r, http.MethodGet, "/readyz", ""); status != http.StatusOK {
		t.Fatalf("expected ready, got %d", status)
	}

	r = gin.New()
	(&HealthHandler{DB: dbConn.Gorm, Cache: pingStub{err: errors.New("redis down")}}).Register(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "cache_unreachable") {
		t.Fatalf("expected cache failure, got %d %s", w.Code, w.Body.String())
	}
}

func TestDocsAndCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	RegisterDocs(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("docs: %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/markdown") {
		t.Fatalf("unexpected content type: %s", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), "/api/discharge-calculation/latest") {
		t.Fatalf("docs missing discharge routes")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/api-data-sources", nil))
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight: %d %v", w.Code, w.Header())
	}
}

func TestQueryHelpers(t *testing.T) {
	meta := paginationMeta(10, 20, 31)
	if meta["has_next"] != true {
		t.Fatalf("expected next page: %+v", meta)
	}
	meta = paginationMeta(10, 30, 31)
	if meta["has_next"] != false {
		t.Fatalf("expected last page: %+v", meta)
	}
	if parseUint64("42") != 42 || parseUint64("4x") != 0 || parseUint64("") != 0 {
		t.Fatalf("parseUint64 mismatch")
	}
	if got := parseOrder(" Name ", sourceOrderFields); got != "name" {
		t.Fatalf("parseOrder = %q", got)
	}
	if got := parseOrder("api_url", sourceOrderFields); got != "" {
		t.Fatalf("expected unknown order to be dropped, got %q", got)
	}
}
