package restapi

import (
	"errors"
	"net/http"

	"paradero.urbanbus.org/internal/gtfs"
)

// tripSequenceHandler returns the ordered stop sequence of a trip.
func (api *RestAPI) tripSequenceHandler(w http.ResponseWriter, r *http.Request) {
	tripID := r.PathValue("tripID")

	sequence, err := api.GtfsManager.TripStopSequence(r.Context(), tripID)
	if err != nil {
		if errors.Is(err, gtfs.ErrTripNotFound) {
			api.sendNotFound(w, r)
			return
		}
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendData(w, r, sequence)
}

// tripVehicleHandler returns the live position of the vehicle serving a
// trip. 404 covers both an unknown trip and a trip with no current report.
func (api *RestAPI) tripVehicleHandler(w http.ResponseWriter, r *http.Request) {
	tripID := r.PathValue("tripID")

	vehicle, err := api.GtfsManager.VehicleForTrip(r.Context(), tripID)
	if err != nil {
		if errors.Is(err, gtfs.ErrTripNotFound) || errors.Is(err, gtfs.ErrVehicleNotFound) {
			api.sendNotFound(w, r)
			return
		}
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendData(w, r, vehicle)
}

// tripShapeHandler returns the trip's shape as an encoded polyline.
func (api *RestAPI) tripShapeHandler(w http.ResponseWriter, r *http.Request) {
	tripID := r.PathValue("tripID")

	shape, err := api.GtfsManager.TripShape(r.Context(), tripID)
	if err != nil {
		if errors.Is(err, gtfs.ErrTripNotFound) || errors.Is(err, gtfs.ErrShapeNotFound) {
			api.sendNotFound(w, r)
			return
		}
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendData(w, r, shape)
}
