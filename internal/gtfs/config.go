package gtfs

import (
	"time"

	"paradero.urbanbus.org/internal/appconf"
)

// Config holds GTFS configuration for the manager.
type Config struct {
	// StaticURL is the static feed source, either an http(s) URL or a
	// path to a local zip.
	StaticURL             string
	StaticAuthHeaderKey   string
	StaticAuthHeaderValue string

	TripUpdatesURL          string
	VehiclePositionsURL     string
	ServiceAlertsURL        string
	RealTimeAuthHeaderKey   string
	RealTimeAuthHeaderValue string

	// GTFSDataPath is where the SQLite snapshot lives.
	GTFSDataPath string

	// Timezone is the IANA zone service times are interpreted in. Empty
	// falls back to the host zone.
	Timezone string

	PollInterval          time.Duration
	StaticRefreshInterval time.Duration
	CacheTTL              time.Duration

	Env     appconf.Environment
	Verbose bool
}

const (
	defaultPollInterval          = 10 * time.Second
	defaultStaticRefreshInterval = 12 * time.Hour
)

func (config Config) pollInterval() time.Duration {
	if config.PollInterval > 0 {
		return config.PollInterval
	}
	return defaultPollInterval
}

func (config Config) staticRefreshInterval() time.Duration {
	if config.StaticRefreshInterval > 0 {
		return config.StaticRefreshInterval
	}
	return defaultStaticRefreshInterval
}

func (config Config) location() (*time.Location, error) {
	if config.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(config.Timezone)
}

// hasRealtimeFeeds reports whether any realtime URL is configured. With no
// feeds the manager serves schedule data only.
func (config Config) hasRealtimeFeeds() bool {
	return config.TripUpdatesURL != "" || config.VehiclePositionsURL != "" || config.ServiceAlertsURL != ""
}
