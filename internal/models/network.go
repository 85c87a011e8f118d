package models

// Route is a transit line as served by the routes endpoint.
type Route struct {
	RouteID   string `json:"routeId"`
	ShortName string `json:"line"`
	LongName  string `json:"destination,omitempty"`
	Color     string `json:"color,omitempty"`
	TextColor string `json:"textColor,omitempty"`
}

// Stop is one stop of the network, with the lines that serve it.
type Stop struct {
	StopID    string   `json:"stopId"`
	StopCode  string   `json:"stopCode"`
	Name      string   `json:"name"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Lines     []string `json:"lines,omitempty"`
}

// NearbyStop is a stop returned by the proximity search, annotated with
// its straight-line distance from the query point in meters.
type NearbyStop struct {
	Stop
	DistanceMeters float64 `json:"distanceMeters"`
}

// TripStop is one scheduled stop of a trip in sequence order.
type TripStop struct {
	StopSequence uint32 `json:"stopSequence"`
	StopID       string `json:"stopId"`
	StopCode     string `json:"stopCode"`
	Name         string `json:"name"`
	ArrivalTime  string `json:"arrivalTime"`
}

// TripSequence is the payload of the trip stop sequence endpoint.
type TripSequence struct {
	TripID   string     `json:"tripId"`
	RouteID  string     `json:"routeId"`
	Headsign string     `json:"headsign,omitempty"`
	Stops    []TripStop `json:"stops"`
}

// TripShape carries a trip's geometry as an encoded polyline.
type TripShape struct {
	TripID   string `json:"tripId"`
	ShapeID  string `json:"shapeId"`
	Polyline string `json:"polyline"`
	Points   int    `json:"points"`
}
