package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/esareynor/ffws-jatim-sub001/internal/discharge"
	"github.com/esareynor/ffws-jatim-sub001/internal/service"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// Fail writes err with the status its kind maps to.
func Fail(c *gin.Context, err error) {
	Error(c, statusOf(err), err.Error(), nil)
}

func statusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, discharge.ErrUnknownFormula):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSourceNotFound),
		errors.Is(err, service.ErrSensorNotFound),
		errors.Is(err, service.ErrReadingNotFound),
		errors.Is(err, service.ErrPredictionNotFound),
		errors.Is(err, service.ErrDischargeNotFound),
		errors.Is(err, service.ErrCurveNotFound),
		errors.Is(err, service.ErrMappingNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrCurveInUse):
		return http.StatusConflict
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
