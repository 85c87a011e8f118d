package models

// VehiclePosition is the last known position of the vehicle serving a trip.
type VehiclePosition struct {
	VehicleID string   `json:"vehicleId,omitempty"`
	Label     string   `json:"label,omitempty"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Speed     *float64 `json:"speed,omitempty"`
	Occupancy string   `json:"occupancy,omitempty"`
}

// TripVehicle is the payload of the per-trip vehicle endpoint.
type TripVehicle struct {
	TripID  string          `json:"tripId"`
	RouteID string          `json:"routeId,omitempty"`
	Vehicle VehiclePosition `json:"vehicle"`
}

// ReconciledArrival is one upcoming arrival at a stop, schedule data merged
// with whatever realtime evidence was available for the trip.
type ReconciledArrival struct {
	TripID           string `json:"tripId"`
	Headsign         string `json:"headsign,omitempty"`
	ScheduledArrival string `json:"scheduledArrival"`

	// UpdatedArrival and the delay fields are nil when no realtime
	// observation applied to this trip, directly or by propagation.
	UpdatedArrival   *string `json:"updatedArrival,omitempty"`
	DelayMinutes     *int    `json:"delayMinutes,omitempty"`
	RemainingMinutes *int    `json:"remainingMinutes,omitempty"`

	// IsPropagated marks delays inferred from another stop of the same
	// trip rather than observed at this one.
	IsPropagated bool `json:"isPropagated"`

	ScheduleRelationship *string          `json:"scheduleRelationship,omitempty"`
	Vehicle              *VehiclePosition `json:"vehicle,omitempty"`
}

// RouteArrivals groups a stop's arrivals by route.
type RouteArrivals struct {
	RouteID   string              `json:"routeId"`
	ShortName string              `json:"line"`
	LongName  string              `json:"destination,omitempty"`
	Color     string              `json:"color,omitempty"`
	Arrivals  []ReconciledArrival `json:"arrivals"`
}

// StopRef identifies the stop the arrivals belong to.
type StopRef struct {
	StopID    string  `json:"stopId"`
	StopCode  string  `json:"stopCode"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// StopArrivals is the payload of the arrivals endpoint.
type StopArrivals struct {
	Stop   StopRef         `json:"stop"`
	Routes []RouteArrivals `json:"routes"`
}
