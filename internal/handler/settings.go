package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/esareynor/ffws-jatim-sub001/internal/repository"
	"github.com/esareynor/ffws-jatim-sub001/internal/service"
)

const featurePrefix = "feature."

type SettingsHandler struct {
	Settings *service.SystemSettingsService
}

func (h *SettingsHandler) Register(r *gin.Engine) {
	g := r.Group("/api/system-settings")
	g.GET("", h.list)
	g.GET("/switches", h.listSwitches)
	g.PUT("/switches/:name", h.putSwitch)
	g.PUT("/:key", h.put)
}

// @Summary List system settings
// @Tags settings
// @Param prefix query string false "key prefix"
// @Param limit query int false "limit" default(200)
// @Param offset query int false "offset" default(0)
// @Success 200 {object} apiResponse
// @Router /api/system-settings [get]
func (h *SettingsHandler) list(c *gin.Context) {
	limit := intQuery(c, "limit", 200)
	offset := intQuery(c, "offset", 0)
	params := repository.ListSystemSettingsParams{
		Limit:   limit,
		Offset:  offset,
		Prefix:  stringQueryPtr(c, "prefix"),
		OrderBy: "key",
		Asc:     boolPtr(true),
	}
	items, total, err := h.Settings.List(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

type putSystemSettingRequest struct {
	Value       any    `json:"value"`
	Description string `json:"description"`
}

// @Summary Store a system setting
// @Tags settings
// @Param key path string true "setting key"
// @Param body body putSystemSettingRequest true "value"
// @Success 200 {object} apiResponse
// @Router /api/system-settings/{key} [put]
func (h *SettingsHandler) put(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		Error(c, http.StatusBadRequest, "invalid key", nil)
		return
	}
	var req putSystemSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	raw, err := json.Marshal(req.Value)
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid value", nil)
		return
	}
	if err := h.Settings.Set(c.Request.Context(), key, raw, req.Description); err != nil {
		Fail(c, err)
		return
	}
	Ok(c, map[string]any{
		"key":         key,
		"value":       json.RawMessage(raw),
		"description": strings.TrimSpace(req.Description),
	}, nil)
}

// @Summary List feature switches
// @Tags settings
// @Success 200 {object} apiResponse
// @Router /api/system-settings/switches [get]
func (h *SettingsHandler) listSwitches(c *gin.Context) {
	prefix := featurePrefix
	params := repository.ListSystemSettingsParams{
		Limit:   intQuery(c, "limit", 200),
		Offset:  intQuery(c, "offset", 0),
		Prefix:  &prefix,
		OrderBy: "key",
		Asc:     boolPtr(true),
	}
	items, _, err := h.Settings.List(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		enabled := false
		_ = json.Unmarshal(it.Value, &enabled)
		out = append(out, map[string]any{
			"name":        strings.TrimPrefix(it.Key, featurePrefix),
			"key":         it.Key,
			"enabled":     enabled,
			"description": it.Description,
			"updated_at":  it.UpdatedAt,
		})
	}
	Ok(c, out, nil)
}

type putSwitchRequest struct {
	Enabled bool `json:"enabled"`
}

// @Summary Turn a feature switch on or off
// @Tags settings
// @Param name path string true "switch name without the feature. prefix"
// @Param body body putSwitchRequest true "state"
// @Success 200 {object} apiResponse
// @Router /api/system-settings/switches/{name} [put]
func (h *SettingsHandler) putSwitch(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		Error(c, http.StatusBadRequest, "invalid switch name", nil)
		return
	}
	var req putSwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	key := featurePrefix + name
	if err := h.Settings.SetEnabled(c.Request.Context(), key, req.Enabled); err != nil {
		Fail(c, err)
		return
	}
	Ok(c, map[string]any{
		"name":    name,
		"key":     key,
		"enabled": req.Enabled,
	}, nil)
}
