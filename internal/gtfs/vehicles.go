package gtfs

import (
	"context"
	"database/sql"
	"errors"

	"paradero.urbanbus.org/internal/models"
)

// VehicleForTrip returns the last known position of the vehicle serving a
// trip, taken from the live observation cache. ErrVehicleNotFound means the
// trip exists but no position report is currently live for it.
func (manager *Manager) VehicleForTrip(ctx context.Context, tripID string) (models.TripVehicle, error) {
	trip, err := manager.queries().GetTrip(ctx, tripID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.TripVehicle{}, ErrTripNotFound
		}
		return models.TripVehicle{}, err
	}

	for _, obs := range manager.Cache.ForTrip(tripID) {
		if obs.Vehicle == nil {
			continue
		}
		v := obs.Vehicle
		return models.TripVehicle{
			TripID:  trip.ID,
			RouteID: trip.RouteID,
			Vehicle: models.VehiclePosition{
				VehicleID: v.ID,
				Label:     v.Label,
				Latitude:  v.Latitude,
				Longitude: v.Longitude,
				Speed:     v.Speed,
				Occupancy: v.Occupancy,
			},
		}, nil
	}
	return models.TripVehicle{}, ErrVehicleNotFound
}
