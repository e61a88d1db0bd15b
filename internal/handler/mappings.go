package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/esareynor/ffws-jatim-sub001/internal/repository"
	"github.com/esareynor/ffws-jatim-sub001/internal/service"
)

type MappingHandler struct {
	Sources *service.SourceService
}

func (h *MappingHandler) Register(r *gin.Engine) {
	g := r.Group("/api/sensor-api-mappings")
	g.GET("", h.list)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

// @Summary List sensor API mappings
// @Tags mappings
// @Param source query string false "source code"
// @Param sensor query string false "sensor code"
// @Param active query bool false "active flag"
// @Param limit query int false "limit" default(100)
// @Param offset query int false "offset" default(0)
// @Success 200 {object} apiResponse
// @Router /api/sensor-api-mappings [get]
func (h *MappingHandler) list(c *gin.Context) {
	limit := intQuery(c, "limit", 100)
	offset := intQuery(c, "offset", 0)
	params := repository.ListMappingsParams{
		Limit:      limit,
		Offset:     offset,
		SensorCode: stringQueryPtr(c, "sensor"),
		Active:     boolQueryPtr(c, "active"),
	}
	if code := stringQueryPtr(c, "source"); code != nil {
		source, err := h.Sources.Get(c.Request.Context(), *code)
		if err != nil {
			Fail(c, err)
			return
		}
		params.SourceID = &source.ID
	}
	items, total, err := h.Sources.ListMappings(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Create a sensor API mapping
// @Tags mappings
// @Param body body service.MappingInput true "mapping"
// @Success 200 {object} apiResponse
// @Router /api/sensor-api-mappings [post]
func (h *MappingHandler) create(c *gin.Context) {
	var in service.MappingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, err := h.Sources.CreateMapping(c.Request.Context(), in)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, item, nil)
}

// @Summary Update a sensor API mapping
// @Tags mappings
// @Param id path int true "mapping id"
// @Param body body service.MappingInput true "mapping"
// @Success 200 {object} apiResponse
// @Router /api/sensor-api-mappings/{id} [put]
func (h *MappingHandler) update(c *gin.Context) {
	id := parseUint64(c.Param("id"))
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	var in service.MappingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, err := h.Sources.UpdateMapping(c.Request.Context(), id, in)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, item, nil)
}

// @Summary Delete a sensor API mapping
// @Tags mappings
// @Param id path int true "mapping id"
// @Success 200 {object} apiResponse
// @Router /api/sensor-api-mappings/{id} [delete]
func (h *MappingHandler) delete(c *gin.Context) {
	id := parseUint64(c.Param("id"))
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	if err := h.Sources.DeleteMapping(c.Request.Context(), id); err != nil {
		Fail(c, err)
		return
	}
	Ok(c, map[string]any{"id": id, "deleted": true}, nil)
}
