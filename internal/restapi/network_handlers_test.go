package restapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paradero.urbanbus.org/internal/rtcache"
)

func TestStopsHandler(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/v2/stops")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", model.Text)

	stops := dataAsList(t, model)
	assert.Len(t, stops, 6)

	var segovia map[string]any
	for _, raw := range stops {
		stop, ok := raw.(map[string]any)
		require.True(t, ok)
		if stop["stopId"] == "811" {
			segovia = stop
		}
	}
	require.NotNil(t, segovia, "stop 811 should be listed")
	assert.Equal(t, "Avenida Segovia 10", segovia["name"])

	lines, ok := segovia["lines"].([]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []any{"1", "3"}, lines)
}

func TestStopsNearHandler(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/v2/stops-near?lat=41.6350&lon=-4.7200&radius=300")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	stops := dataAsList(t, model)
	require.NotEmpty(t, stops)

	nearest, ok := stops[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "811", nearest["stopId"])
	assert.InDelta(t, 0, nearest["distanceMeters"].(float64), 1)
}

func TestStopsNearHandlerValidation(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/v2/stops-near?lat=91&lon=-4.7200")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation error", model.Text)

	data := dataAsMap(t, model)
	fieldErrors, ok := data["fieldErrors"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fieldErrors, "lat")
	assert.NotContains(t, fieldErrors, "lon")
}

func TestRoutesHandler(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/v2/routes")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	routes := dataAsList(t, model)
	assert.Len(t, routes, 2)
}

func TestRoutesHandlerByLine(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/v2/routes?line=3")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	route := dataAsMap(t, model)
	assert.Equal(t, "L3", route["routeId"])
	assert.Equal(t, "3", route["line"])
	assert.Equal(t, "Las Flores - Giron", route["destination"])
}

func TestRoutesHandlerUnknownLine(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/v2/routes?line=9")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, http.StatusNotFound, model.Code)
}

func TestTripSequenceHandler(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/v2/trips/3A1/sequence")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	data := dataAsMap(t, model)
	assert.Equal(t, "3A1", data["tripId"])
	assert.Equal(t, "L3", data["routeId"])

	stops, ok := data["stops"].([]any)
	require.True(t, ok)
	require.Len(t, stops, 6)

	first, ok := stops[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), first["stopSequence"])
	assert.Equal(t, "Plaza Mayor 1", first["name"])
	assert.Equal(t, "12:50:00", first["arrivalTime"])
}

func TestTripSequenceHandlerUnknownTrip(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/v2/trips/nope/sequence")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, http.StatusNotFound, model.Code)
}

func TestTripShapeHandler(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/v2/trips/3A1/shape")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	data := dataAsMap(t, model)
	assert.Equal(t, "3A1", data["tripId"])
	assert.Equal(t, "sh3", data["shapeId"])
	assert.Equal(t, float64(4), data["points"])
	assert.NotEmpty(t, data["polyline"])
}

func TestTripShapeHandlerTripWithoutShape(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/v2/trips/3L1/shape")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, http.StatusNotFound, model.Code)
}

func TestTripVehicleHandler(t *testing.T) {
	api := createTestApi(t)

	speed := 6.9
	api.GtfsManager.Cache.Put(rtcache.Observation{
		TripID:       "3A1",
		RouteID:      "L3",
		StopSequence: 4,
		Vehicle: &rtcache.Vehicle{
			ID:        "bus-42",
			Label:     "42",
			Latitude:  41.64,
			Longitude: -4.73,
			Speed:     &speed,
		},
	})

	resp, model := serveApiAndRetrieveEndpoint(t, api, "/v2/trips/3A1/vehicle")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	data := dataAsMap(t, model)
	assert.Equal(t, "3A1", data["tripId"])
	assert.Equal(t, "L3", data["routeId"])

	vehicle, ok := data["vehicle"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "bus-42", vehicle["vehicleId"])
	assert.Equal(t, 41.64, vehicle["latitude"])
	assert.Equal(t, -4.73, vehicle["longitude"])
	assert.Equal(t, 6.9, vehicle["speed"])
}

func TestTripVehicleHandlerNoReport(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/v2/trips/3A1/vehicle")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, http.StatusNotFound, model.Code)
}

func TestTripVehicleHandlerUnknownTrip(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/v2/trips/nope/vehicle")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, http.StatusNotFound, model.Code)
}
