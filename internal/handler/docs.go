package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const routeSummary = `# FFWS Ingestion Service

Pulls water-level and rainfall telemetry from external APIs, computes river
discharge from rating curves and selects the flood layers each discharge falls in.

## Auth

When auth is enabled, /api/*, /swagger and /docs require a Bearer token.
Health and metrics endpoints are public.

## Routes

Infra
- GET /healthz
- GET /readyz
- GET /metrics
- GET /swagger/index.html

Sources
- GET|POST /api/api-data-sources
- GET|PUT|DELETE /api/api-data-sources/{code}
- POST /api/api-data-sources/{code}/test
- POST /api/api-data-sources/{code}/fetch
- POST /api/api-data-sources/{code}/provision
- GET /api/api-data-sources/{code}/logs
- GET /api/api-data-sources/{code}/statistics
- POST /api/api-data-sources/fetch-due?force=true

Mappings
- GET|POST /api/sensor-api-mappings
- PUT|DELETE /api/sensor-api-mappings/{id}

Rating curves
- GET /api/rating-curves?sensor=
- POST /api/rating-curves
- PUT /api/rating-curves/{code}
- POST /api/rating-curves/{code}/revise
- GET /api/rating-curves/history/{sensor}

Discharge
- POST /api/discharge-calculation/calculate/{readingID}
- POST /api/discharge-calculation/calculate-batch
- GET /api/discharge-calculation/{id}/geojson
- GET /api/discharge-calculation/summary/{sensor}?from=&to=
- POST /api/discharge-calculation/recalculate/{sensor}?from=&to=
- GET /api/discharge-calculation/latest?limit=
- GET /api/discharges/{sensor}/export?from=&to=&predicted=

Predictions
- POST /api/predictions
- POST /api/prediction-discharge-calculation/calculate/{predictionID}
- POST /api/prediction-discharge-calculation/calculate-batch
- GET /api/prediction-discharge-calculation/{id}/geojson
- GET /api/prediction-discharge-calculation/summary/{sensor}
- POST /api/prediction-discharge-calculation/recalculate/{sensor}

Layers
- GET /api/geojson-mappings/by-discharge?device=&value=

Settings
- GET /api/system-settings
- PUT /api/system-settings/{key}
- GET /api/system-settings/switches
- PUT /api/system-settings/switches/{name}
`

func RegisterDocs(r *gin.Engine) {
	r.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/markdown; charset=utf-8")
		c.String(http.StatusOK, routeSummary)
	})
}
