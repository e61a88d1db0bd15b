package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/esareynor/ffws-jatim-sub001/internal/repository"
	"github.com/esareynor/ffws-jatim-sub001/internal/service"
)

type SourceHandler struct {
	Sources *service.SourceService
	Ingest  *service.IngestService
}

func (h *SourceHandler) Register(r *gin.Engine) {
	g := r.Group("/api/api-data-sources")
	g.GET("", h.list)
	g.POST("", h.create)
	g.POST("/fetch-due", h.fetchDue)
	g.GET("/:code", h.get)
	g.PUT("/:code", h.update)
	g.DELETE("/:code", h.delete)
	g.POST("/:code/test", h.test)
	g.POST("/:code/fetch", h.fetch)
	g.POST("/:code/provision", h.provision)
	g.GET("/:code/logs", h.logs)
	g.GET("/:code/statistics", h.statistics)
}

var sourceOrderFields = map[string]string{
	"name":          "name",
	"code":          "code",
	"created_at":    "created_at",
	"last_fetch_at": "last_fetch_at",
}

// @Summary List API data sources
// @Tags sources
// @Param limit query int false "limit" default(50)
// @Param offset query int false "offset" default(0)
// @Param active query bool false "only active or inactive sources"
// @Param q query string false "name or code contains"
// @Param order query string false "name|code|created_at|last_fetch_at"
// @Param asc query bool false "ascending order"
// @Success 200 {object} apiResponse
// @Router /api/api-data-sources [get]
func (h *SourceHandler) list(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListSourcesParams{
		Limit:   limit,
		Offset:  offset,
		Active:  boolQueryPtr(c, "active"),
		Query:   stringQueryPtr(c, "q"),
		OrderBy: parseOrder(c.Query("order"), sourceOrderFields),
		Asc:     boolQueryPtr(c, "asc"),
	}
	items, total, err := h.Sources.List(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Create an API data source
// @Tags sources
// @Param body body service.SourceInput true "source"
// @Success 200 {object} apiResponse
// @Failure 400 {object} apiResponse
// @Router /api/api-data-sources [post]
func (h *SourceHandler) create(c *gin.Context) {
	var in service.SourceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, err := h.Sources.Create(c.Request.Context(), in)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, item, nil)
}

// @Summary Get an API data source
// @Tags sources
// @Param code path string true "source code"
// @Success 200 {object} apiResponse
// @Failure 404 {object} apiResponse
// @Router /api/api-data-sources/{code} [get]
func (h *SourceHandler) get(c *gin.Context) {
	item, err := h.Sources.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, item, nil)
}

// @Summary Update an API data source
// @Description Omitted credentials keep the stored ones.
// @Tags sources
// @Param code path string true "source code"
// @Param body body service.SourceInput true "source"
// @Success 200 {object} apiResponse
// @Router /api/api-data-sources/{code} [put]
func (h *SourceHandler) update(c *gin.Context) {
	var in service.SourceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	item, err := h.Sources.Update(c.Request.Context(), c.Param("code"), in)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, item, nil)
}

// @Summary Delete an API data source
// @Tags sources
// @Param code path string true "source code"
// @Success 200 {object} apiResponse
// @Router /api/api-data-sources/{code} [delete]
func (h *SourceHandler) delete(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if err := h.Sources.Delete(c.Request.Context(), code); err != nil {
		Fail(c, err)
		return
	}
	Ok(c, map[string]any{"code": code, "deleted": true}, nil)
}

// @Summary Test the connection of a source
// @Description Fetches and decodes without storing anything.
// @Tags sources
// @Param code path string true "source code"
// @Success 200 {object} apiResponse
// @Router /api/api-data-sources/{code}/test [post]
func (h *SourceHandler) test(c *gin.Context) {
	out, err := h.Ingest.TestConnection(c.Request.Context(), c.Param("code"))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, out, nil)
}

// @Summary Run one fetch cycle for a source
// @Tags sources
// @Param code path string true "source code"
// @Success 200 {object} apiResponse
// @Router /api/api-data-sources/{code}/fetch [post]
func (h *SourceHandler) fetch(c *gin.Context) {
	out, err := h.Ingest.FetchSource(c.Request.Context(), c.Param("code"))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, out, nil)
}

// @Summary Fetch every due source
// @Tags sources
// @Param force query bool false "ignore fetch intervals"
// @Success 200 {object} apiResponse
// @Router /api/api-data-sources/fetch-due [post]
func (h *SourceHandler) fetchDue(c *gin.Context) {
	opts := service.FetchOptions{Force: boolQueryDefault(c, "force", false)}
	out, err := h.Ingest.FetchDue(c.Request.Context(), opts)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, out, nil)
}

// @Summary Provision devices, sensors and mappings for a source
// @Tags sources
// @Param code path string true "source code"
// @Success 200 {object} apiResponse
// @Router /api/api-data-sources/{code}/provision [post]
func (h *SourceHandler) provision(c *gin.Context) {
	out, err := h.Ingest.Provision(c.Request.Context(), c.Param("code"))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, out, nil)
}

// @Summary List fetch attempts of a source
// @Tags sources
// @Param code path string true "source code"
// @Param status query string false "success|failed|partial"
// @Param limit query int false "limit" default(50)
// @Param offset query int false "offset" default(0)
// @Success 200 {object} apiResponse
// @Router /api/api-data-sources/{code}/logs [get]
func (h *SourceHandler) logs(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListFetchAttemptsParams{
		Limit:  limit,
		Offset: offset,
		Status: stringQueryPtr(c, "status"),
	}
	items, total, err := h.Sources.Logs(c.Request.Context(), c.Param("code"), params)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Fetch statistics of a source
// @Tags sources
// @Param code path string true "source code"
// @Success 200 {object} apiResponse
// @Router /api/api-data-sources/{code}/statistics [get]
func (h *SourceHandler) statistics(c *gin.Context) {
	out, err := h.Ingest.Statistics(c.Request.Context(), c.Param("code"))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, out, nil)
}
