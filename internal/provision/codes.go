// Package provision derives stable device and sensor identities for records
// that no mapping routes yet, and creates the missing entities.
package provision

import (
	"strings"
)

type Parameter string

const (
	ParamWaterLevel  Parameter = "water_level"
	ParamRainfall    Parameter = "rainfall"
	ParamTemperature Parameter = "temperature"
	ParamHumidity    Parameter = "humidity"
	ParamDischarge   Parameter = "discharge"
	ParamUnknown     Parameter = "unknown"
)

type keywordRule struct {
	keywords []string
	param    Parameter
}

// Checked in order; the first keyword contained in the source code wins.
var parameterRules = []keywordRule{
	{keywords: []string{"awlr", "water", "level"}, param: ParamWaterLevel},
	{keywords: []string{"arr", "rain", "hujan", "meteorologi"}, param: ParamRainfall},
	{keywords: []string{"temp", "suhu"}, param: ParamTemperature},
	{keywords: []string{"hum", "kelembaban"}, param: ParamHumidity},
}

var units = map[Parameter]string{
	ParamWaterLevel:  "m",
	ParamRainfall:    "mm",
	ParamTemperature: "°C",
	ParamHumidity:    "%",
	ParamDischarge:   "m³/s",
}

var suffixes = map[Parameter]string{
	ParamWaterLevel:  "WL",
	ParamRainfall:    "RF",
	ParamTemperature: "TEMP",
	ParamHumidity:    "HUM",
}

var prefixRules = []struct {
	keywords []string
	prefix   string
}{
	{keywords: []string{"awlr"}, prefix: "AWLR"},
	{keywords: []string{"arr"}, prefix: "ARR"},
	{keywords: []string{"meteorologi", "meteo"}, prefix: "METEO"},
}

func InferParameter(sourceCode string) Parameter {
	code := strings.ToLower(sourceCode)
	for _, rule := range parameterRules {
		for _, kw := range rule.keywords {
			if strings.Contains(code, kw) {
				return rule.param
			}
		}
	}
	return ParamUnknown
}

func UnitFor(p Parameter) string {
	if u, ok := units[p]; ok {
		return u
	}
	return "unit"
}

func DevicePrefix(sourceCode string) string {
	code := strings.ToLower(sourceCode)
	for _, rule := range prefixRules {
		for _, kw := range rule.keywords {
			if strings.Contains(code, kw) {
				return rule.prefix
			}
		}
	}
	return "API"
}

func DeviceCode(sourceCode, externalID string) string {
	return DevicePrefix(sourceCode) + "-" + strings.TrimSpace(externalID)
}

func SensorCode(deviceCode string, p Parameter) string {
	suffix, ok := suffixes[p]
	if !ok {
		suffix = "SENSOR"
	}
	return deviceCode + "-" + suffix
}

// CleanName trims and collapses internal whitespace.
func CleanName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
