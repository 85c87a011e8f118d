package gtfsdb

import "database/sql"

// Row types returned by Queries. Optional GTFS fields use database/sql null
// wrappers so absence survives the round trip instead of turning into "".

type Agency struct {
	ID       string
	Name     string
	Url      string
	Timezone string
}

type Route struct {
	ID        string
	AgencyID  string
	ShortName sql.NullString
	LongName  sql.NullString
	Desc      sql.NullString
	Type      int64
	Color     sql.NullString
	TextColor sql.NullString
}

type Stop struct {
	ID     string
	Code   sql.NullString
	Name   sql.NullString
	Desc   sql.NullString
	Lat    float64
	Lon    float64
	ZoneID sql.NullString
	Url    sql.NullString
}

type Trip struct {
	ID           string
	RouteID      string
	ServiceID    string
	TripHeadsign sql.NullString
	DirectionID  sql.NullInt64
	ShapeID      sql.NullString
}

// StopTime keeps the arrival and departure as the raw GTFS "HH:MM:SS"
// strings, hours 24+ included. Conversion to instants is the gtfstime
// package's job, not the store's.
type StopTime struct {
	TripID        string
	ArrivalTime   string
	DepartureTime string
	StopID        string
	StopSequence  int64
	StopHeadsign  sql.NullString
}

type Calendar struct {
	ServiceID string
	Monday    int64
	Tuesday   int64
	Wednesday int64
	Thursday  int64
	Friday    int64
	Saturday  int64
	Sunday    int64
	StartDate string
	EndDate   string
}

type CalendarDate struct {
	ServiceID     string
	Date          string
	ExceptionType int64
}

type ShapePoint struct {
	ShapeID         string
	Lat             float64
	Lon             float64
	ShapePtSequence int64
}

type ImportMetadata struct {
	FileHash   string
	ImportTime int64
	FileSource string
}
