package handler

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/esareynor/ffws-jatim-sub001/internal/service"
)

type LayerHandler struct {
	Layers *service.LayerService
}

func (h *LayerHandler) Register(r *gin.Engine) {
	r.GET("/api/geojson-mappings/by-discharge", h.byDischarge)
}

// @Summary Flood layers of a device containing a discharge value
// @Tags layers
// @Param device query string true "device code"
// @Param value query number true "discharge in m3/s"
// @Success 200 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Router /api/geojson-mappings/by-discharge [get]
func (h *LayerHandler) byDischarge(c *gin.Context) {
	device := strings.TrimSpace(c.Query("device"))
	if device == "" {
		Error(c, http.StatusBadRequest, "device is required", nil)
		return
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(c.Query("value")), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		Error(c, http.StatusBadRequest, "invalid value", nil)
		return
	}
	items, err := h.Layers.ByValue(c.Request.Context(), device, value)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, map[string]any{"device": device, "value": value, "total": len(items)})
}
