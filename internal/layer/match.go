// Package layer selects flood-extent layers for a discharge value and builds
// their visualization payloads.
package layer

import "github.com/esareynor/ffws-jatim-sub001/internal/models"

// Matches applies the inclusive range rule. A nil bound is open on that side,
// so a mapping without bounds matches every discharge.
func Matches(min, max *float64, discharge float64) bool {
	switch {
	case min != nil && max != nil:
		return *min <= discharge && discharge <= *max
	case min != nil:
		return *min <= discharge
	case max != nil:
		return discharge <= *max
	default:
		return true
	}
}

// Filter keeps the mappings of deviceCode whose range contains discharge.
func Filter(mappings []models.GeojsonMapping, deviceCode string, discharge float64) []models.GeojsonMapping {
	out := make([]models.GeojsonMapping, 0, len(mappings))
	for _, m := range mappings {
		if m.DeviceCode != deviceCode {
			continue
		}
		if Matches(m.ValueMin, m.ValueMax, discharge) {
			out = append(out, m)
		}
	}
	return out
}
