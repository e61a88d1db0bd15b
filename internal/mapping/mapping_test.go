package mapping

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestFieldRulesKeepObjectOrder(t *testing.T) {
	var spec Spec
	raw := []byte(`{"data_path":"items","fields":{"value":"v","external_id":"kode","timestamp":"created_at"}}`)
	if err := json.Unmarshal(raw, &spec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []string{"value", "external_id", "timestamp"}
	if len(spec.Fields) != len(want) {
		t.Fatalf("expected %d rules, got %d", len(want), len(spec.Fields))
	}
	for i, target := range want {
		if spec.Fields[i].Target != target {
			t.Fatalf("rule %d: expected %s, got %s", i, target, spec.Fields[i].Target)
		}
	}
	out, err := json.Marshal(spec.Fields)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"value":"v","external_id":"kode","timestamp":"created_at"}` {
		t.Fatalf("unexpected marshal output %s", out)
	}
}

func TestFieldRulesFromList(t *testing.T) {
	var rules FieldRules
	if err := json.Unmarshal([]byte(`[{"target":"value","path":"a.b"},{"target":"value","path":"c"}]`), &rules); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p, ok := rules.Path("value"); !ok || p != "c" {
		t.Fatalf("expected last rule to win, got %q %v", p, ok)
	}
}

func TestSpecDefaults(t *testing.T) {
	spec := Spec{Fields: FieldRules{{Target: "value", Path: "v"}}}
	if p, ok := spec.PathFor(FieldExternalID); !ok || p != "kode" {
		t.Fatalf("expected kode default, got %q", p)
	}
	if p, ok := spec.PathFor(FieldName); !ok || p != "judul" {
		t.Fatalf("expected judul default, got %q", p)
	}
	if _, ok := spec.PathFor(FieldSensorCode); ok {
		t.Fatalf("sensor_code has no default")
	}
	if err := (Spec{}).Validate(); !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("expected invalid spec, got %v", err)
	}
}

func TestRecords(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		path  string
		count int
		err   error
	}{
		{"list", `{"items":[{"a":1},{"a":2}]}`, "items", 2, nil},
		{"nested", `{"data":{"rows":[{"a":1}]}}`, "data.rows", 1, nil},
		{"missing segment", `{"items":[{"a":1}]}`, "data.rows", 0, nil},
		{"single object wrapped", `{"item":{"a":1}}`, "item", 1, nil},
		{"root list", `[{"a":1},{"a":2},{"a":3}]`, "", 3, nil},
		{"root object", `{"a":1}`, "", 1, nil},
		{"null", `{"items":null}`, "items", 0, nil},
		{"scalar", `{"items":"nope"}`, "items", 0, ErrNotRecords},
		{"list index", `{"pages":[{"items":[{"a":1}]}]}`, "pages.0.items", 1, nil},
	}
	for _, tc := range cases {
		got, err := Parse([]byte(tc.body), "json", tc.path)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%s: expected %v, got %v", tc.name, tc.err, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if len(got) != tc.count {
			t.Fatalf("%s: expected %d records, got %d", tc.name, tc.count, len(got))
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode([]byte("{"), "json"); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if _, err := Decode([]byte("a,b"), "csv"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestXMLRecords(t *testing.T) {
	body := []byte(`<response><items><item><kode>X1</kode><judul>Sta 1</judul><value>1.2</value></item><item><kode>X2</kode><judul>Sta 2</judul><value>3.4</value></item></items></response>`)
	recs, err := Parse(body, "xml", "response.items.item")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	ex := Extractor{Spec: Spec{Fields: FieldRules{{Target: "value", Path: "value"}}}}
	rec, err := ex.Extract(recs[1])
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if rec.ExternalID == nil || *rec.ExternalID != "X2" {
		t.Fatalf("unexpected external id %v", rec.ExternalID)
	}
	if rec.Value == nil || *rec.Value != 3.4 {
		t.Fatalf("unexpected value %v", rec.Value)
	}
}

func TestExtractReferenceRecord(t *testing.T) {
	body := []byte(`{"items":[{"kode":"X1","judul":"Sta 1","value":"1.2","created_at":"2025-01-01 00:00:00"}]}`)
	var spec Spec
	if err := json.Unmarshal([]byte(`{"data_path":"items","fields":{"external_id":"kode","value":"value","timestamp":"created_at"}}`), &spec); err != nil {
		t.Fatalf("spec: %v", err)
	}
	recs, err := Parse(body, "json", spec.DataPath)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ex := Extractor{Spec: spec, DefaultLayout: "2006-01-02 15:04:05", Location: time.UTC}
	rec, err := ex.Extract(recs[0])
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if rec.Value == nil || *rec.Value != 1.2 {
		t.Fatalf("expected 1.2, got %v", rec.Value)
	}
	want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if !rec.Timestamp.Equal(want) {
		t.Fatalf("expected %s, got %s", want, rec.Timestamp)
	}
	if rec.Name == nil || *rec.Name != "Sta 1" {
		t.Fatalf("expected default name path, got %v", rec.Name)
	}
	if rec.SensorCode != nil {
		t.Fatalf("sensor code must be nil without a rule")
	}
	if rec.Status != "normal" {
		t.Fatalf("expected default status, got %q", rec.Status)
	}
}

func TestExtractMissingAndBadValues(t *testing.T) {
	fixed := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	ex := Extractor{
		Spec: Spec{Fields: FieldRules{{Target: "value", Path: "reading.v"}, {Target: "timestamp", Path: "ts"}}},
		Now:  func() time.Time { return fixed },
	}
	rec, err := ex.Extract(map[string]any{"kode": "A"})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if rec.Value != nil {
		t.Fatalf("missing path must give nil value")
	}
	if !rec.TimestampDefaulted || !rec.Timestamp.Equal(fixed) {
		t.Fatalf("expected defaulted now timestamp, got %s", rec.Timestamp)
	}
	if _, err := ex.Extract(map[string]any{"reading": map[string]any{"v": "abc"}}); err == nil {
		t.Fatalf("expected error for non-numeric value")
	}
	if _, err := ex.Extract(map[string]any{"ts": "not a date"}); !errors.Is(err, ErrTimestamp) {
		t.Fatalf("expected ErrTimestamp, got %v", err)
	}
	if _, err := ex.Extract("scalar record"); err != nil {
		t.Fatalf("scalar record should extract to empty fields, got %v", err)
	}
}

func TestParseTimestamp(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	cases := []struct {
		raw    string
		layout string
		want   time.Time
	}{
		{"2025-01-01 07:30:00", "Y-m-d H:i:s", time.Date(2025, 1, 1, 7, 30, 0, 0, loc)},
		{"01/02/2025 08:00", "d/m/Y H:i", time.Date(2025, 2, 1, 8, 0, 0, 0, loc)},
		{"2025-01-01 07:30:00", "2006-01-02 15:04:05", time.Date(2025, 1, 1, 7, 30, 0, 0, loc)},
		{"2025-01-01T00:00:00Z", "Y-m-d H:i:s", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := ParseTimestamp(tc.raw, tc.layout, loc)
		if err != nil {
			t.Fatalf("%s: %v", tc.raw, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("%s: expected %s, got %s", tc.raw, tc.want, got)
		}
	}
}

func TestPHPLayout(t *testing.T) {
	cases := map[string]string{
		"Y-m-d H:i:s":   "2006-01-02 15:04:05",
		"d/m/Y":         "02/01/2006",
		"Y-m-d\\TH:i:s": "2006-01-02T15:04:05",
		"Y-m-d H:i:s.v": "2006-01-02 15:04:05.000",
	}
	for in, want := range cases {
		if got := PHPLayout(in); got != want {
			t.Fatalf("%s: expected %s, got %s", in, want, got)
		}
	}
}
