package gtfs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/OneBusAway/go-gtfs"

	"paradero.urbanbus.org/internal/logging"
	"paradero.urbanbus.org/internal/rtcache"
)

// realtimeHTTPClient is a dedicated HTTP client for GTFS-RT feed fetching,
// configured with explicit timeouts and transport limits to avoid the pitfalls
// of http.DefaultClient (no timeout, shared global state).
// The transport is cloned from http.DefaultTransport to preserve important
// defaults (ProxyFromEnvironment, DialContext, HTTP/2, keepalives).
var realtimeHTTPClient = newRealtimeHTTPClient()

func newRealtimeHTTPClient() *http.Client {
	var transport *http.Transport
	if t, ok := http.DefaultTransport.(*http.Transport); ok {
		transport = t.Clone()
	} else {
		transport = &http.Transport{}
	}
	transport.MaxIdleConns = 50
	transport.MaxIdleConnsPerHost = 10
	transport.IdleConnTimeout = 90 * time.Second
	transport.TLSHandshakeTimeout = 10 * time.Second
	transport.ExpectContinueTimeout = 1 * time.Second

	return &http.Client{
		// Timeout acts as an absolute safety net per request. The poll
		// loop also sets a per-cycle context timeout; the stricter of the
		// two wins.
		Timeout:   10 * time.Second,
		Transport: transport,
	}
}

func loadRealtimeData(ctx context.Context, source string, headers map[string]string) (*gtfs.Realtime, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", source, nil)
	if err != nil {
		return nil, err
	}

	for key, value := range headers {
		req.Header.Add(key, value)
	}

	resp, err := realtimeHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute GTFS-RT request: %w", err)
	}

	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "gtfs_realtime_downloader")),
		"http_response_body")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gtfs-rt fetch failed: %s returned %s", source, resp.Status)
	}

	const maxBodySize = 25 * 1024 * 1024
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(body)) > maxBodySize {
		return nil, fmt.Errorf("GTFS-RT response exceeds size limit of %d bytes", maxBodySize)
	}

	return gtfs.ParseRealtime(body, &gtfs.ParseRealtimeOptions{})
}

// GetAlerts returns the current service alerts.
func (manager *Manager) GetAlerts() []gtfs.Alert {
	manager.realTimeMutex.RLock()
	defer manager.realTimeMutex.RUnlock()
	return manager.realTimeAlerts
}

func (manager *Manager) pollRealtime(ctx context.Context) {
	logger := logging.FromContext(ctx).With(slog.String("component", "gtfs_realtime"))

	headers := map[string]string{}
	if manager.config.RealTimeAuthHeaderKey != "" && manager.config.RealTimeAuthHeaderValue != "" {
		headers[manager.config.RealTimeAuthHeaderKey] = manager.config.RealTimeAuthHeaderValue
	}

	type feedResult struct {
		data *gtfs.Realtime
		err  error
	}

	fetch := func(name, url string, out *feedResult, wg *sync.WaitGroup) {
		defer wg.Done()
		started := manager.clock.Now()
		out.data, out.err = loadRealtimeData(ctx, url, headers)
		if manager.metrics != nil {
			manager.metrics.RealtimePollDuration.WithLabelValues(name).
				Observe(manager.clock.Now().Sub(started).Seconds())
			if out.err != nil {
				manager.metrics.RealtimePollFailures.WithLabelValues(name).Inc()
			}
		}
		if out.err != nil {
			logging.LogError(logger, "Error loading GTFS-RT feed", out.err,
				slog.String("feed", name), slog.String("url", url))
		}
	}

	var wg sync.WaitGroup
	var trips, vehicles, alerts feedResult

	if manager.config.TripUpdatesURL != "" {
		wg.Add(1)
		go fetch("trip_updates", manager.config.TripUpdatesURL, &trips, &wg)
	}
	if manager.config.VehiclePositionsURL != "" {
		wg.Add(1)
		go fetch("vehicle_positions", manager.config.VehiclePositionsURL, &vehicles, &wg)
	}
	if manager.config.ServiceAlertsURL != "" {
		wg.Add(1)
		go fetch("service_alerts", manager.config.ServiceAlertsURL, &alerts, &wg)
	}

	wg.Wait()

	if ctx.Err() != nil {
		return
	}

	// A failed fetch leaves the previous data serving; TTL expiry handles
	// feeds that stay down.
	if trips.data != nil && trips.err == nil {
		var vehicleTrips []gtfs.Vehicle
		if vehicles.data != nil && vehicles.err == nil {
			vehicleTrips = vehicles.data.Vehicles
		}
		manager.ingestTripUpdates(ctx, trips.data.Trips, vehicleTrips)
	}

	if alerts.data != nil && alerts.err == nil {
		manager.realTimeMutex.Lock()
		manager.realTimeAlerts = alerts.data.Alerts
		manager.realTimeMutex.Unlock()
	}

	if trips.err == nil && vehicles.err == nil && alerts.err == nil {
		manager.realTimeMutex.Lock()
		manager.lastPoll = manager.clock.Now()
		manager.realTimeMutex.Unlock()
	}
}

// ingestTripUpdates folds one decoded trip updates message into the cache,
// joining each trip with its vehicle position when one was reported.
func (manager *Manager) ingestTripUpdates(ctx context.Context, trips []gtfs.Trip, vehicles []gtfs.Vehicle) {
	vehiclesByTrip := make(map[string]*rtcache.Vehicle, len(vehicles))
	for i := range vehicles {
		v := &vehicles[i]
		if v.Trip == nil || v.Trip.ID.ID == "" || v.Position == nil {
			continue
		}
		if v.Position.Latitude == nil || v.Position.Longitude == nil {
			continue
		}
		pos := &rtcache.Vehicle{
			Latitude:  float64(*v.Position.Latitude),
			Longitude: float64(*v.Position.Longitude),
		}
		if v.ID != nil {
			pos.ID = v.ID.ID
			pos.Label = v.ID.Label
		}
		if v.Position.Speed != nil {
			speed := float64(*v.Position.Speed)
			pos.Speed = &speed
		}
		if v.OccupancyStatus != nil {
			pos.Occupancy = v.OccupancyStatus.String()
		}
		vehiclesByTrip[v.Trip.ID.ID] = pos
	}

	updatesBefore := manager.Cache.Updates()

	for i := range trips {
		trip := &trips[i]
		tripID := trip.ID.ID
		if tripID == "" {
			continue
		}

		routeID := trip.ID.RouteID
		if routeID == "" {
			if row, err := manager.queries().GetTrip(ctx, tripID); err == nil {
				routeID = row.RouteID
			}
		}

		relationship := trip.ID.ScheduleRelationship.String()
		vehicle := vehiclesByTrip[tripID]

		for _, update := range trip.StopTimeUpdates {
			obs := rtcache.Observation{
				TripID:               tripID,
				RouteID:              routeID,
				ScheduleRelationship: relationship,
				Vehicle:              vehicle,
			}

			switch {
			case update.StopSequence != nil:
				obs.StopSequence = *update.StopSequence
				if update.StopID != nil {
					obs.StopID = *update.StopID
				}
			case update.StopID != nil:
				// Feeds that omit stop_sequence still identify the
				// stop; resolve the sequence from the schedule.
				seq, err := manager.queries().GetStopSequence(ctx, tripID, *update.StopID)
				if err != nil {
					continue
				}
				obs.StopSequence = uint32(seq)
				obs.StopID = *update.StopID
			default:
				continue
			}

			if update.Arrival != nil {
				obs.ArrivalTime = update.Arrival.Time
				obs.Delay = update.Arrival.Delay
			}
			if obs.ArrivalTime == nil && obs.Delay == nil && update.Departure != nil {
				obs.ArrivalTime = update.Departure.Time
				obs.Delay = update.Departure.Delay
			}

			manager.Cache.Put(obs)
		}
	}

	if manager.metrics != nil {
		manager.metrics.CacheEntries.Set(float64(manager.Cache.Len()))
		manager.metrics.CacheUpdatesTotal.Add(float64(manager.Cache.Updates() - updatesBefore))
	}
}

func (manager *Manager) pollRealtimePeriodically() {
	defer manager.wg.Done()

	logger := slog.Default().With(slog.String("component", "gtfs_realtime_updater"))

	runOnce := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		ctx = logging.WithLogger(ctx, logger)
		manager.pollRealtime(ctx)
		cancel()
	}

	// Prime the cache before the first tick.
	runOnce()

	ticker := time.NewTicker(manager.config.pollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Ticks dropped while a slow poll runs are simply missed;
			// cycles never overlap.
			runOnce()
		case <-manager.shutdownChan:
			logging.LogOperation(logger, "shutting_down_realtime_updates")
			return
		}
	}
}
