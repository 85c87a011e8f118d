package restapi

import (
	"net/http"

	"paradero.urbanbus.org/internal/gtfstime"
)

// CurrentTimeData reports the server clock in the feed's timezone.
type CurrentTimeData struct {
	ReadableTime string `json:"readableTime"`
	Time         int64  `json:"time"`
}

func (api *RestAPI) currentTimeHandler(w http.ResponseWriter, r *http.Request) {
	now := api.Clock.Now().In(api.GtfsManager.Location())

	api.sendData(w, r, CurrentTimeData{
		ReadableTime: gtfstime.FormatISO(now),
		Time:         now.UnixMilli(),
	})
}
