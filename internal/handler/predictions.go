package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/esareynor/ffws-jatim-sub001/internal/service"
)

type PredictionHandler struct {
	Discharge *service.DischargeService
	Location  *time.Location
}

func (h *PredictionHandler) Register(r *gin.Engine) {
	r.POST("/api/predictions", h.submit)
}

type predictionItem struct {
	SensorCode      string  `json:"mas_sensor_code"`
	PredictedValue  float64 `json:"predicted_value"`
	PredictionRunAt string  `json:"prediction_run_at" example:"2025-01-01 06:00:00"`
	PredictionFor   string  `json:"prediction_for_ts" example:"2025-01-01 12:00:00"`
}

type submitPredictionsRequest struct {
	// Calculate computes discharges for the stored values right away.
	Calculate *bool            `json:"calculate"`
	Items     []predictionItem `json:"items"`
}

// @Summary Submit externally produced prediction values
// @Description Values replace earlier ones for the same sensor and target time. Invalid items are rejected individually.
// @Tags predictions
// @Param body body submitPredictionsRequest true "predictions"
// @Success 200 {object} apiResponse
// @Router /api/predictions [post]
func (h *PredictionHandler) submit(c *gin.Context) {
	var req submitPredictionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if len(req.Items) == 0 {
		Error(c, http.StatusBadRequest, "items are required", nil)
		return
	}
	inputs := make([]service.PredictionInput, 0, len(req.Items))
	for _, it := range req.Items {
		in := service.PredictionInput{
			SensorCode:     it.SensorCode,
			PredictedValue: it.PredictedValue,
		}
		// Unparseable target times stay zero and are rejected by the service.
		if t, err := parseTime(it.PredictionFor, h.Location); err == nil {
			in.PredictionFor = t
		}
		if strings.TrimSpace(it.PredictionRunAt) != "" {
			if t, err := parseTime(it.PredictionRunAt, h.Location); err == nil {
				in.PredictionRunAt = &t
			}
		}
		inputs = append(inputs, in)
	}
	calculate := true
	if req.Calculate != nil {
		calculate = *req.Calculate
	}
	out, err := h.Discharge.SubmitPredictions(c.Request.Context(), inputs, calculate)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, out, nil)
}
