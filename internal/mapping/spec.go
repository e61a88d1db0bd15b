// Package mapping turns arbitrary external JSON/XML bodies into records with a
// fixed internal shape. The translation is data: an ordered list of
// (target field, source dot-path) rules stored on the source.
package mapping

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Target field names understood by the extractor.
const (
	FieldSensorCode = "sensor_code"
	FieldDeviceCode = "device_code"
	FieldExternalID = "external_id"
	FieldValue      = "value"
	FieldTimestamp  = "timestamp"
	FieldStatus     = "status"
	FieldName       = "name"
	FieldLatitude   = "latitude"
	FieldLongitude  = "longitude"
)

// Paths used when a rule for the field is not configured.
var defaultPaths = map[string]string{
	FieldExternalID: "kode",
	FieldName:       "judul",
	FieldLatitude:   "latitude",
	FieldLongitude:  "longitude",
}

type FieldRule struct {
	Target string `json:"target"`
	Path   string `json:"path"`
}

// FieldRules keeps rule order. It unmarshals from either an object
// {"value":"data.v"} (document order preserved) or a list of rules.
type FieldRules []FieldRule

func (r *FieldRules) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = nil
		return nil
	}
	if data[0] == '[' {
		var list []FieldRule
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*r = FieldRules(list)
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("fields: expected object or array")
	}
	var out FieldRules
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var path string
		if err := dec.Decode(&path); err != nil {
			return fmt.Errorf("fields.%s: %w", key, err)
		}
		out = append(out, FieldRule{Target: key, Path: path})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}

func (r FieldRules) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, rule := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(rule.Target)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(rule.Path)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Path returns the configured path for target. The last rule wins.
func (r FieldRules) Path(target string) (string, bool) {
	path, ok := "", false
	for _, rule := range r {
		if rule.Target == target {
			path, ok = strings.TrimSpace(rule.Path), true
		}
	}
	return path, ok && path != ""
}

// With returns a copy of r with override rules appended.
func (r FieldRules) With(override FieldRules) FieldRules {
	out := make(FieldRules, 0, len(r)+len(override))
	out = append(out, r...)
	out = append(out, override...)
	return out
}

// Spec is the data_mapping document of a source.
type Spec struct {
	DataPath        string     `json:"data_path,omitempty"`
	Fields          FieldRules `json:"fields"`
	TimestampFormat string     `json:"timestamp_format,omitempty"`
}

var ErrInvalidSpec = errors.New("mapping: invalid data_mapping")

func ParseSpec(raw []byte) (Spec, error) {
	var spec Spec
	if len(bytes.TrimSpace(raw)) == 0 {
		return spec, fmt.Errorf("%w: empty", ErrInvalidSpec)
	}
	if err := json.Unmarshal(raw, &spec); err != nil {
		return spec, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	spec.DataPath = strings.TrimSpace(spec.DataPath)
	return spec, nil
}

func (s Spec) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("%w: fields are required", ErrInvalidSpec)
	}
	for _, rule := range s.Fields {
		if strings.TrimSpace(rule.Target) == "" {
			return fmt.Errorf("%w: field rule without target", ErrInvalidSpec)
		}
	}
	return nil
}

// PathFor resolves the path for a target including built-in defaults.
func (s Spec) PathFor(target string) (string, bool) {
	if p, ok := s.Fields.Path(target); ok {
		return p, true
	}
	p, ok := defaultPaths[target]
	return p, ok
}
