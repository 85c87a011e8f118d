package models

// Alert is a service alert formatted for API consumers, entity references
// already resolved to route and stop names where possible.
type Alert struct {
	ID          string   `json:"id"`
	Header      string   `json:"header"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url,omitempty"`
	Cause       string   `json:"cause,omitempty"`
	Effect      string   `json:"effect,omitempty"`
	Routes      []string `json:"lines,omitempty"`
	Stops       []string `json:"stops,omitempty"`
	ActiveFrom  *string  `json:"activeFrom,omitempty"`
	ActiveUntil *string  `json:"activeUntil,omitempty"`
}

// SuspendedStop is a stop inferred from alert text to be out of service,
// along with the alert that mentioned it.
type SuspendedStop struct {
	StopID   string `json:"stopId"`
	StopCode string `json:"stopCode"`
	Name     string `json:"name"`
	AlertID  string `json:"alertId"`
	Header   string `json:"header"`
}
