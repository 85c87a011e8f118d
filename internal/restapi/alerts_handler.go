package restapi

import "net/http"

// alertsHandler returns the current service alerts with route and stop
// references resolved to rider-facing names.
func (api *RestAPI) alertsHandler(w http.ResponseWriter, r *http.Request) {
	alerts, err := api.GtfsManager.FormattedAlerts(r.Context())
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendData(w, r, alerts)
}

// suspendedStopsHandler returns stops currently out of service according to
// the active alerts.
func (api *RestAPI) suspendedStopsHandler(w http.ResponseWriter, r *http.Request) {
	suspended, err := api.GtfsManager.SuspendedStops(r.Context())
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendData(w, r, suspended)
}
