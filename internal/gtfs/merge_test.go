package gtfs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paradero.urbanbus.org/internal/models"
	"paradero.urbanbus.org/internal/rtcache"
)

func routeByLine(t *testing.T, arrivals models.StopArrivals, line string) models.RouteArrivals {
	t.Helper()
	for _, r := range arrivals.Routes {
		if r.ShortName == line {
			return r
		}
	}
	t.Fatalf("no route with line %q in response", line)
	return models.RouteArrivals{}
}

func arrivalByTrip(t *testing.T, route models.RouteArrivals, tripID string) models.ReconciledArrival {
	t.Helper()
	for _, a := range route.Arrivals {
		if a.TripID == tripID {
			return a
		}
	}
	t.Fatalf("no arrival for trip %q on line %q", tripID, route.ShortName)
	return models.ReconciledArrival{}
}

func TestArrivalsForStop_UnknownStop(t *testing.T) {
	manager, clk := newTestManager(t)

	_, err := manager.ArrivalsForStop(context.Background(), "9999", clk.Now(), "")
	assert.ErrorIs(t, err, ErrStopNotFound)
}

func TestArrivalsForStop_ScheduleOnly(t *testing.T) {
	manager, clk := newTestManager(t)

	arrivals, err := manager.ArrivalsForStop(context.Background(), "811", clk.Now(), "")
	require.NoError(t, err)

	assert.Equal(t, "811", arrivals.Stop.StopCode)
	assert.Equal(t, "Avenida Segovia 10", arrivals.Stop.Name)

	line3 := routeByLine(t, arrivals, "3")
	first := arrivalByTrip(t, line3, "3A1")
	assert.Nil(t, first.UpdatedArrival)
	assert.Nil(t, first.DelayMinutes)
	assert.False(t, first.IsPropagated)
	require.NotNil(t, first.RemainingMinutes)
	assert.Equal(t, 5, *first.RemainingMinutes)

	second := arrivalByTrip(t, line3, "3A2")
	require.NotNil(t, second.RemainingMinutes)
	assert.Equal(t, 20, *second.RemainingMinutes)

	line1 := routeByLine(t, arrivals, "1")
	next := arrivalByTrip(t, line1, "1A1")
	require.NotNil(t, next.RemainingMinutes)
	assert.Equal(t, 7, *next.RemainingMinutes)
}

func TestArrivalsForStop_DirectObservation(t *testing.T) {
	manager, clk := newTestManager(t)

	updated := localTime(t, 13, 7, 0)
	manager.Cache.Put(rtcache.Observation{
		TripID:       "3A1",
		RouteID:      "L3",
		StopSequence: 5,
		StopID:       "811",
		ArrivalTime:  &updated,
	})

	arrivals, err := manager.ArrivalsForStop(context.Background(), "811", clk.Now(), "3")
	require.NoError(t, err)

	first := arrivalByTrip(t, routeByLine(t, arrivals, "3"), "3A1")
	require.NotNil(t, first.UpdatedArrival)
	assert.Equal(t, "2024-06-17T13:07:00+02:00", *first.UpdatedArrival)
	require.NotNil(t, first.DelayMinutes)
	assert.Equal(t, 2, *first.DelayMinutes)
	require.NotNil(t, first.RemainingMinutes)
	assert.Equal(t, 7, *first.RemainingMinutes)
	assert.False(t, first.IsPropagated)
}

func TestArrivalsForStop_PropagatedFromEarlierStop(t *testing.T) {
	manager, clk := newTestManager(t)

	delay := 3 * time.Minute
	manager.Cache.Put(rtcache.Observation{
		TripID:       "3A1",
		RouteID:      "L3",
		StopSequence: 3,
		StopID:       "803",
		Delay:        &delay,
	})

	arrivals, err := manager.ArrivalsForStop(context.Background(), "811", clk.Now(), "3")
	require.NoError(t, err)

	first := arrivalByTrip(t, routeByLine(t, arrivals, "3"), "3A1")
	require.NotNil(t, first.UpdatedArrival)
	assert.Equal(t, "2024-06-17T13:08:00+02:00", *first.UpdatedArrival)
	require.NotNil(t, first.DelayMinutes)
	assert.Equal(t, 3, *first.DelayMinutes)
	assert.True(t, first.IsPropagated)
	require.NotNil(t, first.RemainingMinutes)
	assert.Equal(t, 8, *first.RemainingMinutes)
}

func TestArrivalsForStop_PropagationPrefersNearestEarlier(t *testing.T) {
	manager, clk := newTestManager(t)

	twoMin := 2 * time.Minute
	fiveMin := 5 * time.Minute
	manager.Cache.Put(rtcache.Observation{TripID: "3A1", RouteID: "L3", StopSequence: 2, Delay: &fiveMin})
	manager.Cache.Put(rtcache.Observation{TripID: "3A1", RouteID: "L3", StopSequence: 4, Delay: &twoMin})
	manager.Cache.Put(rtcache.Observation{TripID: "3A1", RouteID: "L3", StopSequence: 6, Delay: &fiveMin})

	arrivals, err := manager.ArrivalsForStop(context.Background(), "811", clk.Now(), "3")
	require.NoError(t, err)

	first := arrivalByTrip(t, routeByLine(t, arrivals, "3"), "3A1")
	require.NotNil(t, first.DelayMinutes)
	assert.Equal(t, 2, *first.DelayMinutes, "nearest earlier stop (seq 4) should win")
	assert.True(t, first.IsPropagated)
}

func TestArrivalsForStop_PropagatedFromLaterStopWhenNoEarlier(t *testing.T) {
	manager, clk := newTestManager(t)

	fourMin := 4 * time.Minute
	manager.Cache.Put(rtcache.Observation{TripID: "3A1", RouteID: "L3", StopSequence: 6, Delay: &fourMin})

	arrivals, err := manager.ArrivalsForStop(context.Background(), "811", clk.Now(), "3")
	require.NoError(t, err)

	first := arrivalByTrip(t, routeByLine(t, arrivals, "3"), "3A1")
	require.NotNil(t, first.DelayMinutes)
	assert.Equal(t, 4, *first.DelayMinutes)
	assert.True(t, first.IsPropagated)
}

func TestArrivalsForStop_DatalessDirectMatchStillPropagates(t *testing.T) {
	manager, clk := newTestManager(t)

	fourMin := 4 * time.Minute
	manager.Cache.Put(rtcache.Observation{TripID: "3A1", RouteID: "L3", StopSequence: 3, StopID: "803", Delay: &fourMin})
	manager.Cache.Put(rtcache.Observation{TripID: "3A1", RouteID: "L3", StopSequence: 5, StopID: "811", ScheduleRelationship: "SCHEDULED"})

	arrivals, err := manager.ArrivalsForStop(context.Background(), "811", clk.Now(), "3")
	require.NoError(t, err)

	first := arrivalByTrip(t, routeByLine(t, arrivals, "3"), "3A1")
	require.NotNil(t, first.DelayMinutes)
	assert.Equal(t, 4, *first.DelayMinutes)
	assert.True(t, first.IsPropagated)
	require.NotNil(t, first.UpdatedArrival)
	assert.Equal(t, "2024-06-17T13:09:00+02:00", *first.UpdatedArrival)
}

func TestArrivalsForStop_ObservedTimeWithoutDelayPropagates(t *testing.T) {
	manager, clk := newTestManager(t)

	// Seen at stop 803 (scheduled 13:00) at 13:02: two minutes late.
	seen := localTime(t, 13, 2, 0)
	manager.Cache.Put(rtcache.Observation{
		TripID:       "3A1",
		RouteID:      "L3",
		StopSequence: 3,
		StopID:       "803",
		ArrivalTime:  &seen,
	})

	arrivals, err := manager.ArrivalsForStop(context.Background(), "811", clk.Now(), "3")
	require.NoError(t, err)

	first := arrivalByTrip(t, routeByLine(t, arrivals, "3"), "3A1")
	require.NotNil(t, first.UpdatedArrival)
	assert.Equal(t, "2024-06-17T13:07:00+02:00", *first.UpdatedArrival)
	require.NotNil(t, first.DelayMinutes)
	assert.Equal(t, 2, *first.DelayMinutes)
	assert.True(t, first.IsPropagated)
}

func TestArrivalsForStop_NoiseFloorSuppressesSmallShift(t *testing.T) {
	manager, clk := newTestManager(t)

	updated := localTime(t, 13, 5, 30)
	manager.Cache.Put(rtcache.Observation{
		TripID:       "3A1",
		RouteID:      "L3",
		StopSequence: 5,
		ArrivalTime:  &updated,
	})

	arrivals, err := manager.ArrivalsForStop(context.Background(), "811", clk.Now(), "3")
	require.NoError(t, err)

	first := arrivalByTrip(t, routeByLine(t, arrivals, "3"), "3A1")
	require.NotNil(t, first.DelayMinutes)
	assert.Equal(t, 0, *first.DelayMinutes, "30s of drift is noise, not a delay")
	require.NotNil(t, first.UpdatedArrival)
	assert.Equal(t, "2024-06-17T13:05:30+02:00", *first.UpdatedArrival)
}

func TestArrivalsForStop_EarlyArrivalNegativeDelay(t *testing.T) {
	manager, clk := newTestManager(t)

	updated := localTime(t, 13, 3, 0)
	manager.Cache.Put(rtcache.Observation{
		TripID:       "3A1",
		RouteID:      "L3",
		StopSequence: 5,
		ArrivalTime:  &updated,
	})

	arrivals, err := manager.ArrivalsForStop(context.Background(), "811", clk.Now(), "3")
	require.NoError(t, err)

	first := arrivalByTrip(t, routeByLine(t, arrivals, "3"), "3A1")
	require.NotNil(t, first.DelayMinutes)
	assert.Equal(t, -2, *first.DelayMinutes)
	require.NotNil(t, first.RemainingMinutes)
	assert.Equal(t, 3, *first.RemainingMinutes)
}

func TestArrivalsForStop_CanceledTrip(t *testing.T) {
	manager, clk := newTestManager(t)

	manager.Cache.Put(rtcache.Observation{
		TripID:               "3A1",
		RouteID:              "L3",
		StopSequence:         5,
		ScheduleRelationship: "CANCELED",
	})

	arrivals, err := manager.ArrivalsForStop(context.Background(), "811", clk.Now(), "3")
	require.NoError(t, err)

	first := arrivalByTrip(t, routeByLine(t, arrivals, "3"), "3A1")
	require.NotNil(t, first.ScheduleRelationship)
	assert.Equal(t, "CANCELED", *first.ScheduleRelationship)
	assert.Nil(t, first.UpdatedArrival)
	assert.Nil(t, first.RemainingMinutes)
}

func TestArrivalsForStop_VehicleAttached(t *testing.T) {
	manager, clk := newTestManager(t)

	updated := localTime(t, 13, 6, 0)
	speed := 8.3
	manager.Cache.Put(rtcache.Observation{
		TripID:       "3A1",
		RouteID:      "L3",
		StopSequence: 5,
		ArrivalTime:  &updated,
		Vehicle: &rtcache.Vehicle{
			ID:        "bus-42",
			Latitude:  41.64,
			Longitude: -4.73,
			Speed:     &speed,
		},
	})

	arrivals, err := manager.ArrivalsForStop(context.Background(), "811", clk.Now(), "3")
	require.NoError(t, err)

	first := arrivalByTrip(t, routeByLine(t, arrivals, "3"), "3A1")
	require.NotNil(t, first.Vehicle)
	assert.Equal(t, "bus-42", first.Vehicle.VehicleID)
	assert.Equal(t, 41.64, first.Vehicle.Latitude)
	require.NotNil(t, first.Vehicle.Speed)
	assert.Equal(t, 8.3, *first.Vehicle.Speed)
}

func TestArrivalsForStop_PastArrivalsDropped(t *testing.T) {
	manager, clk := newTestManager(t)

	clk.Set(localTime(t, 13, 10, 0))

	arrivals, err := manager.ArrivalsForStop(context.Background(), "811", clk.Now(), "3")
	require.NoError(t, err)

	line3 := routeByLine(t, arrivals, "3")
	for _, a := range line3.Arrivals {
		assert.NotEqual(t, "3A1", a.TripID, "13:05 arrival should be gone by 13:10")
	}
}

func TestArrivalsForStop_NonTodayDateIsScheduleOnly(t *testing.T) {
	manager, clk := newTestManager(t)

	updated := localTime(t, 13, 7, 0)
	manager.Cache.Put(rtcache.Observation{
		TripID:       "3A1",
		RouteID:      "L3",
		StopSequence: 5,
		ArrivalTime:  &updated,
	})

	tomorrow := clk.Now().AddDate(0, 0, 1)
	arrivals, err := manager.ArrivalsForStop(context.Background(), "811", tomorrow, "3")
	require.NoError(t, err)

	first := arrivalByTrip(t, routeByLine(t, arrivals, "3"), "3A1")
	assert.Nil(t, first.UpdatedArrival, "realtime only applies to the current service day")
	assert.Nil(t, first.DelayMinutes)
	assert.Nil(t, first.RemainingMinutes)
	assert.Equal(t, "2024-06-18T13:05:00+02:00", first.ScheduledArrival)
}

func TestArrivalsForStop_AddedServiceException(t *testing.T) {
	manager, clk := newTestManager(t)

	arrivals, err := manager.ArrivalsForStop(context.Background(), "811", clk.Now(), "3")
	require.NoError(t, err)

	// 3N1 runs on service XN, which exists only as an added calendar
	// date on 2024-06-17.
	night := arrivalByTrip(t, routeByLine(t, arrivals, "3"), "3N1")
	assert.Equal(t, "2024-06-17T23:45:00+02:00", night.ScheduledArrival)
}

func TestArrivalsForStop_RemovedExceptionDoesNotRemoveService(t *testing.T) {
	manager, clk := newTestManager(t)

	// The fixture removes service WD on 2024-06-17; active services are
	// resolved as a union, so WD trips still appear.
	arrivals, err := manager.ArrivalsForStop(context.Background(), "811", clk.Now(), "3")
	require.NoError(t, err)

	line3 := routeByLine(t, arrivals, "3")
	arrivalByTrip(t, line3, "3A1")
	arrivalByTrip(t, line3, "3A2")
}

func TestArrivalsForStop_AfterMidnightTripBelongsToServiceDay(t *testing.T) {
	manager, clk := newTestManager(t)

	arrivals, err := manager.ArrivalsForStop(context.Background(), "811", clk.Now(), "3")
	require.NoError(t, err)

	// 25:10 on the 17th is 01:10 on the 18th, wall clock.
	owl := arrivalByTrip(t, routeByLine(t, arrivals, "3"), "3L1")
	assert.Equal(t, "2024-06-18T01:10:00+02:00", owl.ScheduledArrival)
}

func TestArrivalsForStop_LineFilter(t *testing.T) {
	manager, clk := newTestManager(t)

	arrivals, err := manager.ArrivalsForStop(context.Background(), "811", clk.Now(), "1")
	require.NoError(t, err)

	require.Len(t, arrivals.Routes, 1)
	assert.Equal(t, "1", arrivals.Routes[0].ShortName)
}

func TestArrivalsForStop_ArrivalsSortedByEffectiveTime(t *testing.T) {
	manager, clk := newTestManager(t)

	// Push 3A1 (scheduled 13:05) past 3A2 (scheduled 13:20).
	updated := localTime(t, 13, 25, 0)
	manager.Cache.Put(rtcache.Observation{
		TripID:       "3A1",
		RouteID:      "L3",
		StopSequence: 5,
		ArrivalTime:  &updated,
	})

	arrivals, err := manager.ArrivalsForStop(context.Background(), "811", clk.Now(), "3")
	require.NoError(t, err)

	line3 := routeByLine(t, arrivals, "3")
	require.GreaterOrEqual(t, len(line3.Arrivals), 2)
	assert.Equal(t, "3A2", line3.Arrivals[0].TripID)
	assert.Equal(t, "3A1", line3.Arrivals[1].TripID)
}
