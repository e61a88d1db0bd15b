package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/esareynor/ffws-jatim-sub001/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type DischargeHandler struct {
	Discharge *service.DischargeService
	Layers    *service.LayerService
	// Location interprets from/to query values without a zone.
	Location *time.Location
}

// series binds one route family to either the actual or the predicted
// discharge operations.
type series struct {
	calculate   func(ctx context.Context, id uint64) (*service.Calculation, error)
	batch       func(ctx context.Context, ids []uint64) (service.BatchSummary, error)
	layers      func(ctx context.Context, id uint64) (*service.LayerResponse, error)
	summary     func(ctx context.Context, sensor string, from, to *time.Time) (*service.DischargeSummary, error)
	recalculate func(ctx context.Context, sensor string, from, to *time.Time) (service.RecalculateResult, error)
}

func (h *DischargeHandler) Register(r *gin.Engine) {
	actual := series{
		calculate:   h.Discharge.ProcessReading,
		batch:       h.Discharge.ProcessReadingIDs,
		layers:      h.Layers.ForDischarge,
		summary:     h.Discharge.Summary,
		recalculate: h.Discharge.Recalculate,
	}
	predicted := series{
		calculate:   h.Discharge.ProcessPrediction,
		batch:       h.Discharge.ProcessPredictionIDs,
		layers:      h.Layers.ForPredictedDischarge,
		summary:     h.Discharge.PredictionSummary,
		recalculate: h.Discharge.RecalculatePredicted,
	}

	g := r.Group("/api/discharge-calculation")
	g.POST("/calculate/:id", h.calculate(actual))
	g.POST("/calculate-batch", h.calculateBatch(actual))
	g.GET("/latest", h.latest)
	g.GET("/summary/:sensor", h.summary(actual))
	g.POST("/recalculate/:sensor", h.recalculate(actual))
	g.GET("/:id/geojson", h.geojson(actual))

	p := r.Group("/api/prediction-discharge-calculation")
	p.POST("/calculate/:id", h.calculate(predicted))
	p.POST("/calculate-batch", h.calculateBatch(predicted))
	p.GET("/summary/:sensor", h.summary(predicted))
	p.POST("/recalculate/:sensor", h.recalculate(predicted))
	p.GET("/:id/geojson", h.geojson(predicted))

	r.GET("/api/discharges/:sensor/export", h.export)
}

func (h *DischargeHandler) dateRange(c *gin.Context) (from, to *time.Time, ok bool) {
	from, ok = timeQuery(c, "from", h.Location)
	if !ok {
		Error(c, http.StatusBadRequest, "invalid from", nil)
		return nil, nil, false
	}
	to, ok = timeQuery(c, "to", h.Location)
	if !ok {
		Error(c, http.StatusBadRequest, "invalid to", nil)
		return nil, nil, false
	}
	return from, to, true
}

// @Summary Calculate the discharge of one reading
// @Tags discharge
// @Param id path int true "reading id"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/discharge-calculation/calculate/{id} [post]
// @Router /api/prediction-discharge-calculation/calculate/{id} [post]
func (h *DischargeHandler) calculate(s series) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := parseUint64(c.Param("id"))
		if id == 0 {
			Error(c, http.StatusBadRequest, "invalid id", nil)
			return
		}
		out, err := s.calculate(c.Request.Context(), id)
		if err != nil {
			Fail(c, err)
			return
		}
		Ok(c, out, nil)
	}
}

type batchRequest struct {
	IDs           []uint64 `json:"ids"`
	ReadingIDs    []uint64 `json:"data_actual_ids"`
	PredictionIDs []uint64 `json:"data_prediction_ids"`
}

func (r batchRequest) all() []uint64 {
	out := make([]uint64, 0, len(r.IDs)+len(r.ReadingIDs)+len(r.PredictionIDs))
	out = append(out, r.IDs...)
	out = append(out, r.ReadingIDs...)
	out = append(out, r.PredictionIDs...)
	return out
}

// @Summary Calculate discharges for a list of ids
// @Tags discharge
// @Param body body batchRequest true "ids"
// @Success 200 {object} apiResponse
// @Router /api/discharge-calculation/calculate-batch [post]
// @Router /api/prediction-discharge-calculation/calculate-batch [post]
func (h *DischargeHandler) calculateBatch(s series) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req batchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			Error(c, http.StatusBadRequest, "invalid body", nil)
			return
		}
		ids := req.all()
		if len(ids) == 0 {
			Error(c, http.StatusBadRequest, "ids are required", nil)
			return
		}
		out, err := s.batch(c.Request.Context(), ids)
		if err != nil {
			Fail(c, err)
			return
		}
		Ok(c, out, nil)
	}
}

// @Summary Flood layers selected by a stored discharge
// @Tags discharge
// @Param id path int true "discharge id"
// @Success 200 {object} apiResponse
// @Router /api/discharge-calculation/{id}/geojson [get]
// @Router /api/prediction-discharge-calculation/{id}/geojson [get]
func (h *DischargeHandler) geojson(s series) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := parseUint64(c.Param("id"))
		if id == 0 {
			Error(c, http.StatusBadRequest, "invalid id", nil)
			return
		}
		out, err := s.layers(c.Request.Context(), id)
		if err != nil {
			Fail(c, err)
			return
		}
		Ok(c, out, nil)
	}
}

// @Summary Discharge statistics of a sensor
// @Tags discharge
// @Param sensor path string true "sensor code"
// @Param from query string false "range start"
// @Param to query string false "range end"
// @Success 200 {object} apiResponse
// @Router /api/discharge-calculation/summary/{sensor} [get]
// @Router /api/prediction-discharge-calculation/summary/{sensor} [get]
func (h *DischargeHandler) summary(s series) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, ok := h.dateRange(c)
		if !ok {
			return
		}
		out, err := s.summary(c.Request.Context(), c.Param("sensor"), from, to)
		if err != nil {
			Fail(c, err)
			return
		}
		Ok(c, out, nil)
	}
}

// @Summary Recalculate the discharges of a sensor
// @Description Replaces stored discharges in the range with values from the curves now in force.
// @Tags discharge
// @Param sensor path string true "sensor code"
// @Param from query string false "range start"
// @Param to query string false "range end"
// @Success 200 {object} apiResponse
// @Router /api/discharge-calculation/recalculate/{sensor} [post]
// @Router /api/prediction-discharge-calculation/recalculate/{sensor} [post]
func (h *DischargeHandler) recalculate(s series) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, ok := h.dateRange(c)
		if !ok {
			return
		}
		out, err := s.recalculate(c.Request.Context(), c.Param("sensor"), from, to)
		if err != nil {
			Fail(c, err)
			return
		}
		Ok(c, out, nil)
	}
}

// @Summary Latest discharges across sensors
// @Tags discharge
// @Param limit query int false "limit" default(10)
// @Success 200 {object} apiResponse
// @Router /api/discharge-calculation/latest [get]
func (h *DischargeHandler) latest(c *gin.Context) {
	out, err := h.Discharge.Latest(c.Request.Context(), intQuery(c, "limit", 10))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, out, nil)
}

// @Summary Export the discharge series of a sensor
// @Tags discharge
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param sensor path string true "sensor code"
// @Param from query string false "range start"
// @Param to query string false "range end"
// @Param predicted query bool false "export predicted discharges"
// @Success 200 {file} file
// @Router /api/discharges/{sensor}/export [get]
func (h *DischargeHandler) export(c *gin.Context) {
	from, to, ok := h.dateRange(c)
	if !ok {
		return
	}
	sensor := c.Param("sensor")
	predicted := boolQueryDefault(c, "predicted", false)
	body, err := h.Discharge.Export(c.Request.Context(), sensor, from, to, predicted)
	if err != nil {
		Fail(c, err)
		return
	}
	kind := service.SeriesActual
	if predicted {
		kind = service.SeriesPredicted
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="discharge-%s-%s.xlsx"`, sensor, kind))
	c.Data(http.StatusOK, xlsxContentType, body)
}
