package gtfs

import (
	"context"
	"database/sql"
	"errors"

	"paradero.urbanbus.org/internal/models"
)

// TripStopSequence returns the ordered stops of a trip with their
// scheduled arrival times as raw service times.
func (manager *Manager) TripStopSequence(ctx context.Context, tripID string) (models.TripSequence, error) {
	trip, err := manager.queries().GetTrip(ctx, tripID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.TripSequence{}, ErrTripNotFound
		}
		return models.TripSequence{}, err
	}

	stopTimes, err := manager.queries().GetStopTimesForTrip(ctx, tripID)
	if err != nil {
		return models.TripSequence{}, err
	}

	stops, err := manager.queries().GetStops(ctx)
	if err != nil {
		return models.TripSequence{}, err
	}
	names := make(map[string]struct{ code, name string }, len(stops))
	for _, s := range stops {
		names[s.ID] = struct{ code, name string }{s.Code.String, s.Name.String}
	}

	sequence := models.TripSequence{
		TripID:   trip.ID,
		RouteID:  trip.RouteID,
		Headsign: trip.TripHeadsign.String,
		Stops:    make([]models.TripStop, 0, len(stopTimes)),
	}
	for _, st := range stopTimes {
		stop := names[st.StopID]
		sequence.Stops = append(sequence.Stops, models.TripStop{
			StopSequence: uint32(st.StopSequence),
			StopID:       st.StopID,
			StopCode:     stop.code,
			Name:         stop.name,
			ArrivalTime:  st.ArrivalTime,
		})
	}
	return sequence, nil
}
