package models

import (
	"testing"
	"time"
)

func f64(v float64) *float64 { return &v }

func TestSensorStatusFor(t *testing.T) {
	withBoth := &Sensor{ThresholdWarn: f64(2), ThresholdDanger: f64(3)}
	dangerOnly := &Sensor{ThresholdDanger: f64(5)}
	cases := []struct {
		name   string
		sensor *Sensor
		value  *float64
		want   string
	}{
		{"no thresholds", &Sensor{}, f64(100), StatusSafe},
		{"below warning", withBoth, f64(1.99), StatusSafe},
		{"at warning", withBoth, f64(2), StatusWarning},
		{"between", withBoth, f64(2.5), StatusWarning},
		{"at danger", withBoth, f64(3), StatusDanger},
		{"above danger", withBoth, f64(10), StatusDanger},
		{"danger only below", dangerOnly, f64(4), StatusSafe},
		{"danger only above", dangerOnly, f64(5), StatusDanger},
		{"nil sensor", nil, f64(1), StatusSafe},
	}
	for _, tc := range cases {
		got := tc.sensor.StatusFor(tc.value)
		if got == nil || *got != tc.want {
			t.Fatalf("%s: expected %s, got %v", tc.name, tc.want, got)
		}
	}
	if got := withBoth.StatusFor(nil); got != nil {
		t.Fatalf("expected nil status for nil value, got %s", *got)
	}
}

func TestSensorValidateThresholds(t *testing.T) {
	ok := []*Sensor{
		{},
		{ThresholdSafe: f64(1), ThresholdWarn: f64(2), ThresholdDanger: f64(3)},
		{ThresholdSafe: f64(1), ThresholdDanger: f64(3)},
		{ThresholdWarn: f64(2)},
	}
	for i, s := range ok {
		if err := s.ValidateThresholds(); err != nil {
			t.Fatalf("case %d: unexpected error %v", i, err)
		}
	}
	bad := []*Sensor{
		{ThresholdSafe: f64(2), ThresholdWarn: f64(2)},
		{ThresholdWarn: f64(3), ThresholdDanger: f64(2)},
		{ThresholdSafe: f64(4), ThresholdDanger: f64(3)},
	}
	for i, s := range bad {
		if err := s.ValidateThresholds(); err != ErrThresholdOrder {
			t.Fatalf("case %d: expected ErrThresholdOrder, got %v", i, err)
		}
	}
}

func TestSourceIsDue(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-10 * time.Minute)
	old := now.Add(-60 * time.Minute)

	cases := []struct {
		name string
		src  *Source
		want bool
	}{
		{"never fetched", &Source{IsActive: true, FetchIntervalMinutes: 15}, true},
		{"inactive", &Source{IsActive: false, FetchIntervalMinutes: 15}, false},
		{"recent", &Source{IsActive: true, FetchIntervalMinutes: 15, LastFetchAt: &recent}, false},
		{"exactly elapsed", &Source{IsActive: true, FetchIntervalMinutes: 10, LastFetchAt: &recent}, true},
		{"old", &Source{IsActive: true, FetchIntervalMinutes: 15, LastFetchAt: &old}, true},
	}
	for _, tc := range cases {
		if got := tc.src.IsDue(now); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
