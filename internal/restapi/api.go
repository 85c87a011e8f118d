// Package restapi serves the public HTTP API: reconciled arrivals, network
// listings, alerts, and diagnostics.
package restapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"paradero.urbanbus.org/internal/app"
)

// RestAPI wires the application dependencies into HTTP handlers.
type RestAPI struct {
	*app.Application
}

func NewRestAPI(application *app.Application) *RestAPI {
	return &RestAPI{Application: application}
}

// Cache-Control tiers in seconds. Schedule-derived data can be cached for
// minutes; anything carrying realtime evidence only briefly.
const (
	staticCacheSeconds   = 300
	realtimeCacheSeconds = 10
	noCacheSeconds       = 0
)

// SetRoutes registers all handlers on the mux.
func (api *RestAPI) SetRoutes(mux *http.ServeMux) {
	cached := func(seconds int, h http.HandlerFunc) http.Handler {
		return CacheControlMiddleware(seconds, h)
	}

	mux.Handle("GET /v2/stops/{stopCode}/arrivals", cached(realtimeCacheSeconds, api.arrivalsForStopHandler))
	mux.Handle("GET /v2/stops", cached(staticCacheSeconds, api.stopsHandler))
	mux.Handle("GET /v2/stops-near", cached(staticCacheSeconds, api.stopsNearHandler))
	mux.Handle("GET /v2/routes", cached(staticCacheSeconds, api.routesHandler))
	mux.Handle("GET /v2/trips/{tripID}/sequence", cached(staticCacheSeconds, api.tripSequenceHandler))
	mux.Handle("GET /v2/trips/{tripID}/shape", cached(staticCacheSeconds, api.tripShapeHandler))
	mux.Handle("GET /v2/trips/{tripID}/vehicle", cached(realtimeCacheSeconds, api.tripVehicleHandler))
	mux.Handle("GET /v2/alerts", cached(realtimeCacheSeconds, api.alertsHandler))
	mux.Handle("GET /v2/alerts/suspended-stops", cached(realtimeCacheSeconds, api.suspendedStopsHandler))
	mux.Handle("GET /v2/cache", cached(noCacheSeconds, api.cacheDumpHandler))
	mux.Handle("GET /v2/current-time", cached(noCacheSeconds, api.currentTimeHandler))
	mux.Handle("GET /health", http.HandlerFunc(api.healthHandler))

	if api.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(api.Metrics.Registry, promhttp.HandlerOpts{}))
	}
}
