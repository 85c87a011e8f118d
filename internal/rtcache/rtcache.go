// Package rtcache holds the most recent realtime observation for each
// (trip, stop sequence) pair. Entries expire on a TTL so that a stalled
// feed degrades back to schedule data instead of serving stale updates.
package rtcache

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"paradero.urbanbus.org/internal/clock"
)

// DefaultTTL is how long an observation stays usable without being
// re-asserted by the feed.
const DefaultTTL = 600 * time.Second

// Vehicle is the position report attached to an observation, when the
// vehicle positions feed had one for the trip.
type Vehicle struct {
	ID        string
	Label     string
	Latitude  float64
	Longitude float64
	Speed     *float64
	Occupancy string
}

// Observation is one stop time update taken from the trip updates feed,
// joined with the vehicle position for the same trip if present.
type Observation struct {
	TripID               string
	RouteID              string
	StopSequence         uint32
	StopID               string
	ArrivalTime          *time.Time
	Delay                *time.Duration
	ScheduleRelationship string
	Vehicle              *Vehicle
}

// Key returns the cache key for this observation.
func (o Observation) Key() string {
	return o.TripID + "-" + strconv.FormatUint(uint64(o.StopSequence), 10)
}

type entry struct {
	obs       Observation
	expiresAt time.Time
}

// Cache is a TTL map of observations keyed by trip and stop sequence.
// It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   clock.Clock
	entries map[string]entry
	updates uint64
}

// New returns an empty cache. A non-positive ttl falls back to DefaultTTL.
func New(ttl time.Duration, clk clock.Clock) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Cache{
		ttl:     ttl,
		clock:   clk,
		entries: make(map[string]entry),
	}
}

// Put stores an observation and returns true when it changed the cached
// value. Re-asserting an identical observation is a no-op: the entry keeps
// its original deadline, so a feed repeating itself every poll still ages
// out TTL seconds after the last real change.
func (c *Cache) Put(obs Observation) bool {
	key := obs.Key()
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	prev, ok := c.entries[key]
	if ok && !now.After(prev.expiresAt) && equalObservations(prev.obs, obs) {
		return false
	}
	c.entries[key] = entry{obs: obs, expiresAt: now.Add(c.ttl)}
	c.updates++
	return true
}

// Get returns the live observation for a trip and stop sequence. Expired
// entries are deleted on access and reported as a miss.
func (c *Cache) Get(tripID string, stopSequence uint32) (Observation, bool) {
	key := Observation{TripID: tripID, StopSequence: stopSequence}.Key()
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Observation{}, false
	}
	if now.After(e.expiresAt) {
		delete(c.entries, key)
		return Observation{}, false
	}
	return e.obs, true
}

// ForTrip returns all live observations for a trip, ordered by stop
// sequence.
func (c *Cache) ForTrip(tripID string) []Observation {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Observation
	for key, e := range c.entries {
		if e.obs.TripID != tripID {
			continue
		}
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			continue
		}
		out = append(out, e.obs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StopSequence < out[j].StopSequence })
	return out
}

// AllForRoute returns all live observations whose trip belongs to the
// given route.
func (c *Cache) AllForRoute(routeID string) []Observation {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Observation
	for key, e := range c.entries {
		if e.obs.RouteID != routeID {
			continue
		}
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			continue
		}
		out = append(out, e.obs)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TripID != out[j].TripID {
			return out[i].TripID < out[j].TripID
		}
		return out[i].StopSequence < out[j].StopSequence
	})
	return out
}

// DumpEntry is one cache entry as exposed by the diagnostics endpoint.
type DumpEntry struct {
	Key         string      `json:"key"`
	Observation Observation `json:"observation"`
	TTLSeconds  int         `json:"ttlSeconds"`
}

// Dump returns a snapshot of live entries with their remaining TTL in
// seconds. An empty routeFilter returns everything.
func (c *Cache) Dump(routeFilter string) []DumpEntry {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	var out []DumpEntry
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			continue
		}
		if routeFilter != "" && e.obs.RouteID != routeFilter {
			continue
		}
		out = append(out, DumpEntry{
			Key:         key,
			Observation: e.obs,
			TTLSeconds:  int(e.expiresAt.Sub(now) / time.Second),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Len reports the number of entries currently stored, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Updates reports how many Put calls changed the cached value since the
// cache was created.
func (c *Cache) Updates() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updates
}

func equalObservations(a, b Observation) bool {
	if a.TripID != b.TripID || a.RouteID != b.RouteID ||
		a.StopSequence != b.StopSequence || a.StopID != b.StopID ||
		a.ScheduleRelationship != b.ScheduleRelationship {
		return false
	}
	if !equalTimePtr(a.ArrivalTime, b.ArrivalTime) {
		return false
	}
	if (a.Delay == nil) != (b.Delay == nil) {
		return false
	}
	if a.Delay != nil && *a.Delay != *b.Delay {
		return false
	}
	return equalVehicles(a.Vehicle, b.Vehicle)
}

func equalTimePtr(a, b *time.Time) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || a.Equal(*b)
}

func equalVehicles(a, b *Vehicle) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	if a.ID != b.ID || a.Label != b.Label ||
		a.Latitude != b.Latitude || a.Longitude != b.Longitude ||
		a.Occupancy != b.Occupancy {
		return false
	}
	if (a.Speed == nil) != (b.Speed == nil) {
		return false
	}
	return a.Speed == nil || *a.Speed == *b.Speed
}
