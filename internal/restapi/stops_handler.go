package restapi

import "net/http"

// stopsHandler lists every stop in the network, each annotated with the
// short names of the lines serving it.
func (api *RestAPI) stopsHandler(w http.ResponseWriter, r *http.Request) {
	stops, err := api.GtfsManager.Stops(r.Context())
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendData(w, r, stops)
}
