package restapi

import "net/http"

// cacheDumpHandler exposes the realtime observation cache for diagnostics.
// With ?route=<routeID> the dump is limited to one route.
func (api *RestAPI) cacheDumpHandler(w http.ResponseWriter, r *http.Request) {
	api.sendData(w, r, api.GtfsManager.DumpCache(r.URL.Query().Get("route")))
}
