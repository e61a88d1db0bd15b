package mapping

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cast"
)

var ErrTimestamp = errors.New("mapping: unparsable timestamp")

// Record is one external record projected onto the internal fields.
// Absent paths leave pointer fields nil.
type Record struct {
	SensorCode *string
	DeviceCode *string
	ExternalID *string
	Name       *string
	Value      *float64
	Status     string
	Timestamp  time.Time
	// TimestampDefaulted is set when the record carried no timestamp.
	TimestampDefaulted bool
	Latitude           *float64
	Longitude          *float64
	Raw                any
}

// Extractor applies a Spec to raw records.
type Extractor struct {
	Spec Spec
	// DefaultLayout is used when the mapping has no timestamp_format.
	DefaultLayout string
	Location      *time.Location
	Now           func() time.Time
}

func (e Extractor) Extract(raw any) (Record, error) {
	rec := Record{Raw: raw, Status: "normal"}
	rec.SensorCode = e.stringField(raw, FieldSensorCode)
	rec.DeviceCode = e.stringField(raw, FieldDeviceCode)
	rec.ExternalID = e.stringField(raw, FieldExternalID)
	rec.Name = e.stringField(raw, FieldName)
	if s := e.stringField(raw, FieldStatus); s != nil {
		rec.Status = *s
	}

	var err error
	if rec.Value, err = e.floatField(raw, FieldValue); err != nil {
		return rec, err
	}
	rec.Latitude, _ = e.floatField(raw, FieldLatitude)
	rec.Longitude, _ = e.floatField(raw, FieldLongitude)

	tsRaw := e.stringField(raw, FieldTimestamp)
	if tsRaw == nil {
		rec.Timestamp = e.now()
		rec.TimestampDefaulted = true
		return rec, nil
	}
	layout := strings.TrimSpace(e.Spec.TimestampFormat)
	if layout == "" {
		layout = e.DefaultLayout
	}
	ts, err := ParseTimestamp(*tsRaw, layout, e.location())
	if err != nil {
		return rec, err
	}
	rec.Timestamp = ts
	return rec, nil
}

func (e Extractor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Extractor) location() *time.Location {
	if e.Location != nil {
		return e.Location
	}
	return time.UTC
}

func (e Extractor) stringField(raw any, target string) *string {
	path, ok := e.Spec.PathFor(target)
	if !ok {
		return nil
	}
	v, ok := Lookup(raw, path)
	if !ok {
		return nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (e Extractor) floatField(raw any, target string) (*float64, error) {
	path, ok := e.Spec.PathFor(target)
	if !ok {
		return nil, nil
	}
	v, ok := Lookup(raw, path)
	if !ok {
		return nil, nil
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil, fmt.Errorf("mapping: %s is not numeric: %v", target, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("mapping: %s is not finite", target)
	}
	return &f, nil
}

// ParseTimestamp parses raw with layout first and falls back to free-form
// parsing. layout may be a Go reference layout or a PHP date() format.
func ParseTimestamp(raw, layout string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if loc == nil {
		loc = time.UTC
	}
	if layout = strings.TrimSpace(layout); layout != "" {
		goLayout := layout
		if !strings.Contains(layout, "2006") && !strings.Contains(layout, "15") {
			goLayout = PHPLayout(layout)
		}
		if ts, err := time.ParseInLocation(goLayout, raw, loc); err == nil {
			return ts, nil
		}
	}
	ts, err := dateparse.ParseIn(raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrTimestamp, raw)
	}
	return ts, nil
}

var phpTokens = map[rune]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'n': "1",
	'd': "02",
	'j': "2",
	'H': "15",
	'G': "15",
	'h': "03",
	'g': "3",
	'i': "04",
	's': "05",
	'A': "PM",
	'a': "pm",
	'M': "Jan",
	'F': "January",
	'D': "Mon",
	'l': "Monday",
	'P': "-07:00",
	'O': "-0700",
	'T': "MST",
	'v': "000",
	'u': "000000",
}

// PHPLayout converts a PHP date() format such as "Y-m-d H:i:s" into a Go layout.
// A backslash escapes the next character.
func PHPLayout(format string) string {
	var b strings.Builder
	escaped := false
	for _, r := range format {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		if tok, ok := phpTokens[r]; ok {
			b.WriteString(tok)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
