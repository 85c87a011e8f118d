package gtfs

import "errors"

// Lookup failures callers are expected to branch on. Anything else coming
// out of the manager is an internal error.
var (
	ErrStopNotFound    = errors.New("stop not found")
	ErrTripNotFound    = errors.New("trip not found")
	ErrRouteNotFound   = errors.New("route not found")
	ErrShapeNotFound   = errors.New("shape not found")
	ErrVehicleNotFound = errors.New("vehicle position not found")
)
