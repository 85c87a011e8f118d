package gtfs

import (
	"strings"
	"time"

	"paradero.urbanbus.org/internal/rtcache"
)

// chooseObservation picks the observation that applies to a stop of a trip.
// A direct observation at the target sequence wins when it carries a time,
// a delay, or a cancellation. Otherwise the delay is propagated from the
// nearest earlier stop (the bus has already passed it, so its delay is the
// best estimate), and failing that from the nearest later stop. A dataless
// direct match is only returned when nothing can be propagated, so that
// its relationship and vehicle still surface.
//
// The observations slice must be sorted by stop sequence ascending, as
// returned by the cache.
func chooseObservation(observations []rtcache.Observation, target uint32) (obs rtcache.Observation, propagated bool, ok bool) {
	var direct, earlier, later *rtcache.Observation

	for i := range observations {
		o := &observations[i]
		if o.StopSequence == target {
			if o.ArrivalTime != nil || o.Delay != nil || strings.EqualFold(o.ScheduleRelationship, "CANCELED") {
				return *o, false, true
			}
			direct = o
			continue
		}
		if o.ArrivalTime == nil && o.Delay == nil {
			continue
		}
		if o.StopSequence < target {
			earlier = o
		} else if later == nil {
			later = o
		}
	}

	if earlier != nil {
		return *earlier, true, true
	}
	if later != nil {
		return *later, true, true
	}
	if direct != nil {
		return *direct, false, true
	}
	return rtcache.Observation{}, false, false
}

// observedShift turns an observation into a delay relative to the schedule.
// A reported delay is used as-is; otherwise the shift is the reported
// arrival against the scheduled arrival at the observed stop, which the
// caller supplies. Returns false when neither is computable.
func observedShift(obs rtcache.Observation, scheduledAtObserved *time.Time) (time.Duration, bool) {
	if obs.Delay != nil {
		return *obs.Delay, true
	}
	if obs.ArrivalTime != nil && scheduledAtObserved != nil {
		return obs.ArrivalTime.Sub(*scheduledAtObserved), true
	}
	return 0, false
}
