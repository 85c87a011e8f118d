package restapi

import (
	"errors"
	"net/http"

	"paradero.urbanbus.org/internal/gtfs"
)

// routesHandler lists all routes. With ?line=<short name> it returns the
// single matching route instead.
func (api *RestAPI) routesHandler(w http.ResponseWriter, r *http.Request) {
	if shortName := r.URL.Query().Get("line"); shortName != "" {
		route, err := api.GtfsManager.RouteByShortName(r.Context(), shortName)
		if err != nil {
			if errors.Is(err, gtfs.ErrRouteNotFound) {
				api.sendNotFound(w, r)
				return
			}
			api.serverErrorResponse(w, r, err)
			return
		}
		api.sendData(w, r, route)
		return
	}

	routes, err := api.GtfsManager.Routes(r.Context())
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendData(w, r, routes)
}
