package discharge

import (
	"sort"
	"time"

	"github.com/esareynor/ffws-jatim-sub001/internal/models"
)

// SelectCurve returns the curve with the greatest effective date not after
// at. Ties on the date go to the highest id.
func SelectCurve(curves []models.RatingCurve, at time.Time) (*models.RatingCurve, error) {
	var best *models.RatingCurve
	for i := range curves {
		c := &curves[i]
		if c.EffectiveDate.After(at) {
			continue
		}
		if best == nil || c.EffectiveDate.After(best.EffectiveDate) ||
			(c.EffectiveDate.Equal(best.EffectiveDate) && c.ID > best.ID) {
			best = c
		}
	}
	if best == nil {
		return nil, ErrNoActiveCurve
	}
	return best, nil
}

const presentLabel = "Present"

type HistoryEntry struct {
	Code          string    `json:"code"`
	FormulaType   string    `json:"formula_type"`
	Formula       string    `json:"formula"`
	A             *float64  `json:"a"`
	B             *float64  `json:"b"`
	C             *float64  `json:"c"`
	EffectiveFrom time.Time `json:"effective_from"`
	// EffectiveTo is the day before the next curve starts, or "Present".
	EffectiveTo string `json:"effective_to"`
	IsCurrent   bool   `json:"is_current"`
	UsageCount  int64  `json:"usage_count"`
}

// History orders curves newest first and derives each validity window.
func History(curves []models.RatingCurve, usage map[string]int64, now time.Time) []HistoryEntry {
	sorted := make([]models.RatingCurve, len(curves))
	copy(sorted, curves)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].EffectiveDate.Equal(sorted[j].EffectiveDate) {
			return sorted[i].ID > sorted[j].ID
		}
		return sorted[i].EffectiveDate.After(sorted[j].EffectiveDate)
	})

	var currentCode string
	if cur, err := SelectCurve(sorted, now); err == nil {
		currentCode = cur.Code
	}

	out := make([]HistoryEntry, 0, len(sorted))
	for i := range sorted {
		c := &sorted[i]
		k := CoefficientsOf(c)
		entry := HistoryEntry{
			Code:          c.Code,
			FormulaType:   c.FormulaType,
			Formula:       FormulaString(c),
			A:             k.A,
			B:             k.B,
			C:             k.C,
			EffectiveFrom: c.EffectiveDate,
			EffectiveTo:   presentLabel,
			IsCurrent:     c.Code == currentCode,
			UsageCount:    usage[c.Code],
		}
		if i > 0 {
			entry.EffectiveTo = sorted[i-1].EffectiveDate.AddDate(0, 0, -1).Format("2006-01-02")
		}
		out = append(out, entry)
	}
	return out
}
