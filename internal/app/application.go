package app

import (
	"log/slog"

	"paradero.urbanbus.org/internal/appconf"
	"paradero.urbanbus.org/internal/clock"
	"paradero.urbanbus.org/internal/gtfs"
	"paradero.urbanbus.org/internal/metrics"
)

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware.
type Application struct {
	Config      appconf.Config
	GtfsConfig  gtfs.Config
	Logger      *slog.Logger
	GtfsManager *gtfs.Manager
	Clock       clock.Clock
	Metrics     *metrics.Metrics
}
