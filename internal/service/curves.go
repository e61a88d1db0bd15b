package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/esareynor/ffws-jatim-sub001/internal/discharge"
	"github.com/esareynor/ffws-jatim-sub001/internal/models"
)

// CurveInput carries operator-supplied curve fields. Nil coefficients are
// stored as NULL.
type CurveInput struct {
	Code          string    `json:"code"`
	SensorCode    string    `json:"mas_sensor_code"`
	FormulaType   string    `json:"formula_type"`
	A             *float64  `json:"a"`
	B             *float64  `json:"b"`
	C             *float64  `json:"c"`
	EffectiveDate time.Time `json:"effective_date"`
}

type CurveView struct {
	models.RatingCurve
	Formula    string `json:"formula"`
	UsageCount int64  `json:"usage_count"`
}

var revisionSuffix = regexp.MustCompile(`-r\d+$`)

func (s *DischargeService) ListCurves(ctx context.Context, sensorCode string) ([]CurveView, error) {
	if s == nil || s.Repo == nil {
		return nil, ErrUnavailable
	}
	sensorCode = strings.TrimSpace(sensorCode)
	if sensorCode == "" {
		return nil, validationError("sensor code is required")
	}
	curves, err := s.Repo.ListRatingCurves(ctx, sensorCode)
	if err != nil {
		return nil, err
	}
	usage, err := s.Repo.CountCurveUsage(ctx, curveCodes(curves))
	if err != nil {
		return nil, err
	}
	out := make([]CurveView, 0, len(curves))
	for i := range curves {
		out = append(out, CurveView{
			RatingCurve: curves[i],
			Formula:     discharge.FormulaString(&curves[i]),
			UsageCount:  usage[curves[i].Code],
		})
	}
	return out, nil
}

func (s *DischargeService) CurveHistory(ctx context.Context, sensorCode string) ([]discharge.HistoryEntry, error) {
	if s == nil || s.Repo == nil {
		return nil, ErrUnavailable
	}
	curves, err := s.Repo.ListRatingCurves(ctx, strings.TrimSpace(sensorCode))
	if err != nil {
		return nil, err
	}
	usage, err := s.Repo.CountCurveUsage(ctx, curveCodes(curves))
	if err != nil {
		return nil, err
	}
	return discharge.History(curves, usage, s.now()), nil
}

func (s *DischargeService) CreateCurve(ctx context.Context, in CurveInput) (*models.RatingCurve, error) {
	if s == nil || s.Repo == nil {
		return nil, ErrUnavailable
	}
	in.Code = strings.TrimSpace(in.Code)
	in.SensorCode = strings.TrimSpace(in.SensorCode)
	if in.Code == "" {
		return nil, validationError("code is required")
	}
	if err := validateCurve(in); err != nil {
		return nil, err
	}
	sensor, err := s.Repo.GetSensorByCode(ctx, in.SensorCode)
	if err != nil {
		return nil, err
	}
	if sensor == nil {
		return nil, ErrSensorNotFound
	}
	existing, err := s.Repo.GetRatingCurveByCode(ctx, in.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, validationError("rating curve %s already exists", in.Code)
	}
	item := &models.RatingCurve{Code: in.Code, SensorCode: in.SensorCode}
	applyCurve(item, in)
	if err := s.Repo.CreateRatingCurve(ctx, item); err != nil {
		return nil, err
	}
	s.retryFailed(ctx, item.SensorCode)
	return item, nil
}

// UpdateCurve edits a curve in place. Curves that discharges were already
// computed from are immutable; use ReviseCurve for those.
func (s *DischargeService) UpdateCurve(ctx context.Context, code string, in CurveInput) (*models.RatingCurve, error) {
	if s == nil || s.Repo == nil {
		return nil, ErrUnavailable
	}
	item, err := s.Repo.GetRatingCurveByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrCurveNotFound
	}
	in.SensorCode = item.SensorCode
	if err := validateCurve(in); err != nil {
		return nil, err
	}
	usage, err := s.Repo.CountCurveUsage(ctx, []string{item.Code})
	if err != nil {
		return nil, err
	}
	if usage[item.Code] > 0 {
		return nil, fmt.Errorf("%w: %s (%d rows)", ErrCurveInUse, item.Code, usage[item.Code])
	}
	applyCurve(item, in)
	if err := s.Repo.UpdateRatingCurve(ctx, item); err != nil {
		return nil, err
	}
	s.retryFailed(ctx, item.SensorCode)
	return item, nil
}

// retryFailed lets the pending sweep pick up readings that failed under the
// sensor's previous curves.
func (s *DischargeService) retryFailed(ctx context.Context, sensorCode string) {
	n, err := s.Repo.ClearDischargeErrors(ctx, sensorCode)
	if err != nil {
		s.logger().Warn("clear discharge errors failed", zap.String("sensor", sensorCode), zap.Error(err))
		return
	}
	if n > 0 {
		s.logger().Info("discharge errors cleared", zap.String("sensor", sensorCode), zap.Int64("readings", n))
	}
}

// ReviseCurve stores a new version {base}-r{n} of the curve for the same
// sensor. Missing formula type defaults to the revised curve's.
func (s *DischargeService) ReviseCurve(ctx context.Context, code string, in CurveInput) (*models.RatingCurve, error) {
	if s == nil || s.Repo == nil {
		return nil, ErrUnavailable
	}
	base, err := s.Repo.GetRatingCurveByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if base == nil {
		return nil, ErrCurveNotFound
	}
	in.SensorCode = base.SensorCode
	if strings.TrimSpace(in.FormulaType) == "" {
		in.FormulaType = base.FormulaType
	}
	if err := validateCurve(in); err != nil {
		return nil, err
	}
	prefix := revisionSuffix.ReplaceAllString(base.Code, "")
	var next string
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s-r%d", prefix, n)
		existing, err := s.Repo.GetRatingCurveByCode(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			next = candidate
			break
		}
	}
	item := &models.RatingCurve{Code: next, SensorCode: base.SensorCode}
	applyCurve(item, in)
	if err := s.Repo.CreateRatingCurve(ctx, item); err != nil {
		return nil, err
	}
	s.retryFailed(ctx, item.SensorCode)
	return item, nil
}

func validateCurve(in CurveInput) error {
	if strings.TrimSpace(in.SensorCode) == "" {
		return validationError("mas_sensor_code is required")
	}
	formula := strings.TrimSpace(in.FormulaType)
	if !discharge.IsKnownFormula(formula) {
		return validationError("unknown formula_type %q", in.FormulaType)
	}
	if in.EffectiveDate.IsZero() {
		return validationError("effective_date is required")
	}
	switch required := requiredCoefficient(formula); required {
	case "C":
		if in.C == nil {
			return validationError("coefficient c is required for %s", formula)
		}
	case "A":
		if in.A == nil {
			return validationError("coefficient a is required for %s", formula)
		}
	}
	return nil
}

// requiredCoefficient is the leading parameter of the formula's description.
func requiredCoefficient(formula string) string {
	for _, ft := range discharge.FormulaTypes() {
		if ft.Value == formula && len(ft.Parameters) > 0 {
			return ft.Parameters[0]
		}
	}
	return ""
}

func applyCurve(item *models.RatingCurve, in CurveInput) {
	item.FormulaType = strings.TrimSpace(in.FormulaType)
	item.A = nullDecimal(in.A)
	item.B = nullDecimal(in.B)
	item.C = nullDecimal(in.C)
	item.EffectiveDate = in.EffectiveDate.UTC()
}

func nullDecimal(v *float64) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*v))
}

func curveCodes(curves []models.RatingCurve) []string {
	codes := make([]string, 0, len(curves))
	for _, c := range curves {
		codes = append(codes, c.Code)
	}
	return codes
}
