package restapi

import (
	"errors"
	"net/http"
	"regexp"

	"paradero.urbanbus.org/internal/gtfs"
	"paradero.urbanbus.org/internal/gtfstime"
)

var validStopCode = regexp.MustCompile(`^[0-9]{1,6}$`)

// arrivalsForStopHandler serves reconciled arrivals for a stop code.
// Optional query parameters: date=YYYYMMDD (defaults to today) and
// line=<route short name or route id> to filter a single line.
func (api *RestAPI) arrivalsForStopHandler(w http.ResponseWriter, r *http.Request) {
	stopCode := r.PathValue("stopCode")
	if !validStopCode.MatchString(stopCode) {
		api.validationErrorResponse(w, r, map[string][]string{
			"stopCode": {"stop code must be numeric"},
		})
		return
	}

	date := api.Clock.Now().In(api.GtfsManager.Location())
	if dateParam := r.URL.Query().Get("date"); dateParam != "" {
		parsed, err := gtfstime.ParseServiceDate(dateParam, api.GtfsManager.Location())
		if err != nil {
			api.validationErrorResponse(w, r, map[string][]string{
				"date": {"invalid date format, use YYYYMMDD"},
			})
			return
		}
		date = parsed
	}

	lineFilter := r.URL.Query().Get("line")

	arrivals, err := api.GtfsManager.ArrivalsForStop(r.Context(), stopCode, date, lineFilter)
	if err != nil {
		if errors.Is(err, gtfs.ErrStopNotFound) {
			api.sendNotFound(w, r)
			return
		}
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendData(w, r, arrivals)
}
