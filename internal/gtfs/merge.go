package gtfs

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"paradero.urbanbus.org/gtfsdb"
	"paradero.urbanbus.org/internal/gtfstime"
	"paradero.urbanbus.org/internal/models"
	"paradero.urbanbus.org/internal/rtcache"
)

// ArrivalsForStop reconciles the schedule for a stop on a date with the
// realtime cache and returns the arrivals grouped by route.
//
// Realtime evidence is only applied when the date is the current service
// day; for other dates the response is schedule-only and the live fields
// stay nil. lineFilter, when non-empty, limits the response to the route
// with that short name.
func (manager *Manager) ArrivalsForStop(ctx context.Context, stopCode string, date time.Time, lineFilter string) (models.StopArrivals, error) {
	stop, err := manager.queries().GetStopByCode(ctx, stopCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.StopArrivals{}, ErrStopNotFound
		}
		return models.StopArrivals{}, err
	}

	services, err := manager.ActiveServicesForDate(ctx, date)
	if err != nil {
		return models.StopArrivals{}, err
	}
	activeServices := make(map[string]bool, len(services))
	for _, id := range services {
		activeServices[id] = true
	}

	rows, err := manager.queries().GetScheduleForStop(ctx, stop.ID)
	if err != nil {
		return models.StopArrivals{}, err
	}

	routes, err := manager.queries().GetRoutes(ctx)
	if err != nil {
		return models.StopArrivals{}, err
	}
	routesByID := make(map[string]gtfsdb.Route, len(routes))
	for _, r := range routes {
		routesByID[r.ID] = r
	}

	now := manager.clock.Now().In(manager.location)
	isToday := sameLocalDay(date, now, manager.location)

	type pendingArrival struct {
		routeID   string
		effective time.Time
		arrival   models.ReconciledArrival
	}
	var pending []pendingArrival

	for _, row := range rows {
		if !activeServices[row.ServiceID] {
			continue
		}
		if lineFilter != "" {
			route, ok := routesByID[row.RouteID]
			if !ok || (route.ShortName.String != lineFilter && route.ID != lineFilter) {
				continue
			}
		}

		scheduled, err := gtfstime.AbsoluteInstant(row.ArrivalTime, date, manager.location)
		if err != nil {
			// A malformed stop time poisons one row, not the response.
			continue
		}

		arrival := models.ReconciledArrival{
			TripID:           row.TripID,
			Headsign:         row.TripHeadsign.String,
			ScheduledArrival: gtfstime.FormatISO(scheduled),
		}
		effective := scheduled
		canceled := false

		if isToday {
			if obs, propagated, ok := chooseObservation(manager.Cache.ForTrip(row.TripID), uint32(row.StopSequence)); ok {
				canceled = manager.applyObservation(ctx, &arrival, obs, propagated, scheduled, date)
				if arrival.UpdatedArrival != nil {
					effective = effectiveInstant(obs, scheduled, arrival)
				}
			}
		}

		if isToday && !canceled {
			remaining := gtfstime.RemainingMinutes(effective, now)
			if remaining < 0 {
				continue
			}
			arrival.RemainingMinutes = &remaining
		}

		pending = append(pending, pendingArrival{routeID: row.RouteID, effective: effective, arrival: arrival})
	}

	sort.SliceStable(pending, func(i, j int) bool { return pending[i].effective.Before(pending[j].effective) })

	grouped := make(map[string]*models.RouteArrivals)
	var order []string
	for _, p := range pending {
		group, ok := grouped[p.routeID]
		if !ok {
			route := routesByID[p.routeID]
			group = &models.RouteArrivals{
				RouteID:   p.routeID,
				ShortName: route.ShortName.String,
				LongName:  route.LongName.String,
				Color:     route.Color.String,
			}
			grouped[p.routeID] = group
			order = append(order, p.routeID)
		}
		group.Arrivals = append(group.Arrivals, p.arrival)
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := grouped[order[i]], grouped[order[j]]
		if a.ShortName != b.ShortName {
			return a.ShortName < b.ShortName
		}
		return a.RouteID < b.RouteID
	})

	result := models.StopArrivals{
		Stop: models.StopRef{
			StopID:    stop.ID,
			StopCode:  stop.Code.String,
			Name:      stop.Name.String,
			Latitude:  stop.Lat,
			Longitude: stop.Lon,
		},
		Routes: make([]models.RouteArrivals, 0, len(order)),
	}
	for _, id := range order {
		result.Routes = append(result.Routes, *grouped[id])
	}
	return result, nil
}

// applyObservation folds a realtime observation into an arrival. Returns
// true when the trip is canceled, in which case no updated time is set.
func (manager *Manager) applyObservation(ctx context.Context, arrival *models.ReconciledArrival, obs rtcache.Observation, propagated bool, scheduled time.Time, date time.Time) bool {
	if rel := obs.ScheduleRelationship; rel != "" && !strings.EqualFold(rel, "SCHEDULED") {
		relCopy := rel
		arrival.ScheduleRelationship = &relCopy
	}
	if obs.Vehicle != nil {
		arrival.Vehicle = &models.VehiclePosition{
			VehicleID: obs.Vehicle.ID,
			Label:     obs.Vehicle.Label,
			Latitude:  obs.Vehicle.Latitude,
			Longitude: obs.Vehicle.Longitude,
			Speed:     obs.Vehicle.Speed,
			Occupancy: obs.Vehicle.Occupancy,
		}
	}
	if arrival.ScheduleRelationship != nil && strings.EqualFold(*arrival.ScheduleRelationship, "CANCELED") {
		return true
	}

	var updated time.Time
	if !propagated && obs.ArrivalTime != nil {
		updated = *obs.ArrivalTime
	} else {
		shift, ok := observedShift(obs, manager.scheduledAtObservation(ctx, obs, date))
		if !ok {
			return false
		}
		updated = scheduled.Add(shift)
	}

	iso := gtfstime.FormatISO(updated)
	delay := gtfstime.TimeShiftMinutes(scheduled, updated)
	arrival.UpdatedArrival = &iso
	arrival.DelayMinutes = &delay
	arrival.IsPropagated = propagated
	return false
}

// scheduledAtObservation resolves the scheduled instant at the stop an
// observation was made at, for observations that report a time but no
// delay.
func (manager *Manager) scheduledAtObservation(ctx context.Context, obs rtcache.Observation, date time.Time) *time.Time {
	if obs.Delay != nil {
		return nil
	}
	stopTimes, err := manager.queries().GetStopTimesForTrip(ctx, obs.TripID)
	if err != nil {
		return nil
	}
	for _, st := range stopTimes {
		if uint32(st.StopSequence) != obs.StopSequence {
			continue
		}
		instant, err := gtfstime.AbsoluteInstant(st.ArrivalTime, date, manager.location)
		if err != nil {
			return nil
		}
		return &instant
	}
	return nil
}

// effectiveInstant reconstructs the exact updated instant an observation
// produced for sorting purposes.
func effectiveInstant(obs rtcache.Observation, scheduled time.Time, arrival models.ReconciledArrival) time.Time {
	if !arrival.IsPropagated && obs.ArrivalTime != nil {
		return *obs.ArrivalTime
	}
	if obs.Delay != nil {
		return scheduled.Add(*obs.Delay)
	}
	if arrival.UpdatedArrival != nil {
		if t, err := time.Parse("2006-01-02T15:04:05-07:00", *arrival.UpdatedArrival); err == nil {
			return t
		}
	}
	return scheduled
}

func sameLocalDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
