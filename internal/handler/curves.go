package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/esareynor/ffws-jatim-sub001/internal/service"
)

type CurveHandler struct {
	Discharge *service.DischargeService
	// Location interprets effective dates without a zone.
	Location *time.Location
}

func (h *CurveHandler) Register(r *gin.Engine) {
	g := r.Group("/api/rating-curves")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/history/:sensor", h.history)
	g.PUT("/:code", h.update)
	g.POST("/:code/revise", h.revise)
}

type curveRequest struct {
	Code          string   `json:"code"`
	SensorCode    string   `json:"mas_sensor_code"`
	FormulaType   string   `json:"formula_type"`
	A             *float64 `json:"a"`
	B             *float64 `json:"b"`
	C             *float64 `json:"c"`
	EffectiveDate string   `json:"effective_date" example:"2024-01-01"`
}

func (h *CurveHandler) bind(c *gin.Context) (service.CurveInput, bool) {
	var req curveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return service.CurveInput{}, false
	}
	in := service.CurveInput{
		Code:        req.Code,
		SensorCode:  req.SensorCode,
		FormulaType: req.FormulaType,
		A:           req.A,
		B:           req.B,
		C:           req.C,
	}
	if strings.TrimSpace(req.EffectiveDate) != "" {
		t, err := parseTime(req.EffectiveDate, h.Location)
		if err != nil {
			Error(c, http.StatusBadRequest, "invalid effective_date", nil)
			return service.CurveInput{}, false
		}
		in.EffectiveDate = t
	}
	return in, true
}

// @Summary List rating curves of a sensor
// @Tags rating-curves
// @Param sensor query string true "sensor code"
// @Success 200 {object} apiResponse
// @Router /api/rating-curves [get]
func (h *CurveHandler) list(c *gin.Context) {
	items, err := h.Discharge.ListCurves(c.Request.Context(), c.Query("sensor"))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, nil)
}

// @Summary Create a rating curve
// @Tags rating-curves
// @Param body body curveRequest true "curve"
// @Success 200 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Router /api/rating-curves [post]
func (h *CurveHandler) create(c *gin.Context) {
	in, ok := h.bind(c)
	if !ok {
		return
	}
	item, err := h.Discharge.CreateCurve(c.Request.Context(), in)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, item, nil)
}

// @Summary Update an unused rating curve
// @Tags rating-curves
// @Param code path string true "curve code"
// @Param body body curveRequest true "curve"
// @Success 200 {object} apiResponse
// @Failure 409 {object} apiResponse
// @Router /api/rating-curves/{code} [put]
func (h *CurveHandler) update(c *gin.Context) {
	in, ok := h.bind(c)
	if !ok {
		return
	}
	item, err := h.Discharge.UpdateCurve(c.Request.Context(), c.Param("code"), in)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, item, nil)
}

// @Summary Store a new revision of a rating curve
// @Tags rating-curves
// @Param code path string true "curve code"
// @Param body body curveRequest true "curve"
// @Success 200 {object} apiResponse
// @Router /api/rating-curves/{code}/revise [post]
func (h *CurveHandler) revise(c *gin.Context) {
	in, ok := h.bind(c)
	if !ok {
		return
	}
	item, err := h.Discharge.ReviseCurve(c.Request.Context(), c.Param("code"), in)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, item, nil)
}

// @Summary Rating curve history of a sensor
// @Tags rating-curves
// @Param sensor path string true "sensor code"
// @Success 200 {object} apiResponse
// @Router /api/rating-curves/history/{sensor} [get]
func (h *CurveHandler) history(c *gin.Context) {
	items, err := h.Discharge.CurveHistory(c.Request.Context(), c.Param("sensor"))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, nil)
}
