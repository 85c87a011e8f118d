package restapi

import (
	"net/http"
	"strconv"
)

const (
	defaultNearbyRadiusMeters = 500.0
	maxNearbyRadiusMeters     = 5000.0
	defaultNearbyLimit        = 20
)

// stopsNearHandler returns stops within a radius of a coordinate, sorted by
// distance. Query parameters: lat, lon (required), radius in meters and
// limit (optional).
func (api *RestAPI) stopsNearHandler(w http.ResponseWriter, r *http.Request) {
	fieldErrors := map[string][]string{}

	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		fieldErrors["lat"] = []string{"a latitude between -90 and 90 is required"}
	}

	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		fieldErrors["lon"] = []string{"a longitude between -180 and 180 is required"}
	}

	radius := defaultNearbyRadiusMeters
	if raw := r.URL.Query().Get("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil || radius <= 0 || radius > maxNearbyRadiusMeters {
			fieldErrors["radius"] = []string{"radius must be between 1 and 5000 meters"}
		}
	}

	limit := defaultNearbyLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			fieldErrors["limit"] = []string{"limit must be a positive integer"}
		}
	}

	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	api.sendData(w, r, api.GtfsManager.StopsNear(lat, lon, radius, limit))
}
