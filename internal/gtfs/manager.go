package gtfs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/OneBusAway/go-gtfs"

	"paradero.urbanbus.org/gtfsdb"
	"paradero.urbanbus.org/internal/clock"
	"paradero.urbanbus.org/internal/logging"
	"paradero.urbanbus.org/internal/metrics"
	"paradero.urbanbus.org/internal/rtcache"
)

// Manager owns the GTFS snapshot database, the realtime update cache, and
// the background loops that keep both fresh. All read paths go through it.
type Manager struct {
	config   Config
	clock    clock.Clock
	metrics  *metrics.Metrics
	location *time.Location

	// staticMutex guards GtfsDB and the derived indices during hot swaps.
	staticMutex sync.RWMutex
	// staticUpdateMutex serializes refresh attempts.
	staticUpdateMutex sync.Mutex
	GtfsDB            *gtfsdb.Client
	stopIndex         *stopSpatialIndex
	lastUpdated       time.Time
	isHealthy         bool

	Cache *rtcache.Cache

	realTimeMutex  sync.RWMutex
	realTimeAlerts []gtfs.Alert
	lastPoll       time.Time

	serviceMutex  sync.Mutex
	serviceMemo   map[string][]string
	serviceExpiry time.Time

	isLocalFile  bool
	shutdownChan chan struct{}
	wg           sync.WaitGroup
}

// NewManager loads the static feed into the snapshot database and returns
// a manager ready to serve. Call Start to begin the background loops.
func NewManager(config Config, clk clock.Clock, m *metrics.Metrics) (*Manager, error) {
	if clk == nil {
		clk = clock.RealClock{}
	}

	loc, err := config.location()
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", config.Timezone, err)
	}

	isLocalFile := !strings.HasPrefix(config.StaticURL, "http")

	db, err := buildGtfsDB(config, isLocalFile, "")
	if err != nil {
		return nil, fmt.Errorf("loading static feed: %w", err)
	}

	manager := &Manager{
		config:       config,
		clock:        clk,
		metrics:      m,
		location:     loc,
		GtfsDB:       db,
		Cache:        rtcache.New(config.CacheTTL, clk),
		serviceMemo:  make(map[string][]string),
		isLocalFile:  isLocalFile,
		shutdownChan: make(chan struct{}),
	}

	index, err := buildStopSpatialIndex(context.Background(), db.Queries)
	if err != nil {
		logging.SafeCloseWithLogging(db, slog.Default(), "gtfs_db")
		return nil, fmt.Errorf("building stop spatial index: %w", err)
	}
	manager.stopIndex = index
	manager.lastUpdated = clk.Now()
	manager.isHealthy = true

	if m != nil {
		m.StaticImportTimestamp.Set(float64(clk.Now().Unix()))
	}

	return manager, nil
}

// Start launches the realtime poll loop and the static refresh loop.
func (manager *Manager) Start() {
	if manager.config.hasRealtimeFeeds() {
		manager.wg.Add(1)
		go manager.pollRealtimePeriodically()
	}

	manager.wg.Add(1)
	go manager.refreshStaticPeriodically()
}

// Shutdown stops the background loops and closes the snapshot database.
func (manager *Manager) Shutdown() {
	close(manager.shutdownChan)
	manager.wg.Wait()

	manager.staticMutex.Lock()
	defer manager.staticMutex.Unlock()
	if manager.GtfsDB != nil {
		logger := slog.Default().With(slog.String("component", "gtfs_manager"))
		logging.SafeCloseWithLogging(manager.GtfsDB, logger, "gtfs_db")
		manager.GtfsDB = nil
	}
}

// queries returns the current snapshot's query layer. The pointer stays
// valid across hot swaps; callers just see the new snapshot on their next
// call.
func (manager *Manager) queries() *gtfsdb.Queries {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	return manager.GtfsDB.Queries
}

// Location returns the zone service times are interpreted in.
func (manager *Manager) Location() *time.Location {
	return manager.location
}

// IsHealthy reports whether the manager is serving a usable snapshot.
func (manager *Manager) IsHealthy() bool {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	return manager.isHealthy && manager.GtfsDB != nil
}

// LastUpdated returns when the static snapshot was last replaced.
func (manager *Manager) LastUpdated() time.Time {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	return manager.lastUpdated
}

// LastPoll returns when realtime data was last refreshed successfully.
func (manager *Manager) LastPoll() time.Time {
	manager.realTimeMutex.RLock()
	defer manager.realTimeMutex.RUnlock()
	return manager.lastPoll
}

// DumpCache exposes the realtime cache contents for diagnostics. The
// filter, when non-empty, limits the dump to one route.
func (manager *Manager) DumpCache(routeID string) []rtcache.DumpEntry {
	return manager.Cache.Dump(routeID)
}
