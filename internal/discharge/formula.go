// Package discharge evaluates rating-curve formulas and selects the curve in
// force at a point in time. It performs no I/O.
package discharge

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/esareynor/ffws-jatim-sub001/internal/models"
)

var (
	ErrNoActiveCurve  = errors.New("discharge: no active rating curve")
	ErrNonFinite      = errors.New("discharge: non-finite result")
	ErrUnknownFormula = errors.New("discharge: unknown formula type")
)

// FormulaType describes one supported formula for operators.
type FormulaType struct {
	Value       string   `json:"value"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Parameters  []string `json:"parameters"`
}

var formulaTypes = []FormulaType{
	{Value: models.FormulaTipe01, Label: "Tipe-01 (C x (H-A)^B)", Description: "Q = C × (H - A)^B", Parameters: []string{"C", "A", "B"}},
	{Value: models.FormulaTipe02, Label: "Tipe-02 (C x B x H^3/2)", Description: "Q = C × B × H^(3/2)", Parameters: []string{"C", "B"}},
	{Value: models.FormulaTipe03, Label: "Tipe-03 (C x (H+A)^B)", Description: "Q = C × (H + A)^B", Parameters: []string{"C", "A", "B"}},
	{Value: models.FormulaPower, Label: "Power Formula", Description: "Q = C × (H - A)^B", Parameters: []string{"C", "A", "B"}},
	{Value: models.FormulaPolynomial, Label: "Polynomial Formula", Description: "Q = A + B×H + C×H²", Parameters: []string{"A", "B", "C"}},
	{Value: models.FormulaExponential, Label: "Exponential Formula", Description: "Q = A × e^(B×H)", Parameters: []string{"A", "B"}},
	{Value: models.FormulaCustom, Label: "Custom Linear Formula", Description: "Q = A × H", Parameters: []string{"A"}},
}

func FormulaTypes() []FormulaType {
	out := make([]FormulaType, len(formulaTypes))
	copy(out, formulaTypes)
	return out
}

func IsKnownFormula(formula string) bool {
	for _, ft := range formulaTypes {
		if ft.Value == formula {
			return true
		}
	}
	return false
}

// Coefficients are the float values of a curve; nil means not configured.
type Coefficients struct {
	A, B, C *float64
}

func CoefficientsOf(curve *models.RatingCurve) Coefficients {
	if curve == nil {
		return Coefficients{}
	}
	return Coefficients{A: toFloat(curve.A), B: toFloat(curve.B), C: toFloat(curve.C)}
}

func toFloat(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}

func or(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// Evaluate computes the discharge for water level h.
func Evaluate(formula string, k Coefficients, h float64) (float64, error) {
	a := or(k.A, 0)
	c := or(k.C, 0)
	var q float64
	switch strings.TrimSpace(formula) {
	case models.FormulaTipe01, models.FormulaPower:
		q = c * math.Pow(math.Max(0, h-a), or(k.B, 1))
	case models.FormulaTipe02:
		q = c * or(k.B, 1) * math.Pow(h, 1.5)
	case models.FormulaTipe03:
		q = c * math.Pow(h+a, or(k.B, 1))
	case models.FormulaPolynomial:
		q = a + or(k.B, 0)*h + or(k.C, 0)*h*h
	case models.FormulaExponential:
		q = a * math.Exp(or(k.B, 1)*h)
	case models.FormulaCustom:
		q = a * h
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormula, formula)
	}
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 0, fmt.Errorf("%w: %s at H=%g", ErrNonFinite, formula, h)
	}
	return q, nil
}

// EvaluateCurve is Evaluate with the curve's own formula and coefficients.
func EvaluateCurve(curve *models.RatingCurve, h float64) (float64, error) {
	if curve == nil {
		return 0, ErrNoActiveCurve
	}
	return Evaluate(curve.FormulaType, CoefficientsOf(curve), h)
}

// FormulaString renders the curve with its coefficients substituted.
func FormulaString(curve *models.RatingCurve) string {
	if curve == nil {
		return "Unknown formula"
	}
	a, b, c := coefString(curve.A), coefString(curve.B), coefString(curve.C)
	switch curve.FormulaType {
	case models.FormulaTipe01, models.FormulaPower:
		return fmt.Sprintf("Q = %s × (H - %s)^%s", c, a, b)
	case models.FormulaTipe02:
		return fmt.Sprintf("Q = %s × %s × H^(3/2)", c, b)
	case models.FormulaTipe03:
		return fmt.Sprintf("Q = %s × (H + %s)^%s", c, a, b)
	case models.FormulaPolynomial:
		return fmt.Sprintf("Q = %s + %sH + %sH²", a, b, c)
	case models.FormulaExponential:
		return fmt.Sprintf("Q = %s × e^(%sH)", a, b)
	case models.FormulaCustom:
		return fmt.Sprintf("Q = %s × H", a)
	default:
		return "Unknown formula"
	}
}

func coefString(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.String()
}
