package gtfsdb

import (
	"context"
	"database/sql"
)

// Queries bundles the hand-written lookups used by the engine. Each method
// is a single statement; batch shaping happens in the callers.
type Queries struct {
	db *sql.DB
}

func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

const getAgency = `SELECT id, name, url, timezone FROM agencies LIMIT 1`

// GetAgency returns the feed's agency. The networks this serves are
// single-agency feeds; the first row is the agency.
func (q *Queries) GetAgency(ctx context.Context) (Agency, error) {
	var a Agency
	err := q.db.QueryRowContext(ctx, getAgency).Scan(&a.ID, &a.Name, &a.Url, &a.Timezone)
	return a, err
}

const getStopByCode = `
SELECT id, code, name, "desc", lat, lon, zone_id, url
FROM stops
WHERE code = ? OR id = ?
LIMIT 1
`

// GetStopByCode looks a stop up by its rider-facing code, falling back to
// the internal stop_id for feeds that leave stop_code empty.
func (q *Queries) GetStopByCode(ctx context.Context, code string) (Stop, error) {
	var s Stop
	err := q.db.QueryRowContext(ctx, getStopByCode, code, code).
		Scan(&s.ID, &s.Code, &s.Name, &s.Desc, &s.Lat, &s.Lon, &s.ZoneID, &s.Url)
	return s, err
}

const getStops = `
SELECT id, code, name, "desc", lat, lon, zone_id, url
FROM stops
ORDER BY id
`

func (q *Queries) GetStops(ctx context.Context) ([]Stop, error) {
	rows, err := q.db.QueryContext(ctx, getStops)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var stops []Stop
	for rows.Next() {
		var s Stop
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.Desc, &s.Lat, &s.Lon, &s.ZoneID, &s.Url); err != nil {
			return nil, err
		}
		stops = append(stops, s)
	}
	return stops, rows.Err()
}

const getRoutes = `
SELECT id, agency_id, short_name, long_name, "desc", type, color, text_color
FROM routes
ORDER BY id
`

func (q *Queries) GetRoutes(ctx context.Context) ([]Route, error) {
	rows, err := q.db.QueryContext(ctx, getRoutes)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanRoutes(rows)
}

const getRoute = `
SELECT id, agency_id, short_name, long_name, "desc", type, color, text_color
FROM routes
WHERE id = ?
`

func (q *Queries) GetRoute(ctx context.Context, id string) (Route, error) {
	var r Route
	err := q.db.QueryRowContext(ctx, getRoute, id).
		Scan(&r.ID, &r.AgencyID, &r.ShortName, &r.LongName, &r.Desc, &r.Type, &r.Color, &r.TextColor)
	return r, err
}

const getRouteByShortName = `
SELECT id, agency_id, short_name, long_name, "desc", type, color, text_color
FROM routes
WHERE short_name = ?
LIMIT 1
`

func (q *Queries) GetRouteByShortName(ctx context.Context, shortName string) (Route, error) {
	var r Route
	err := q.db.QueryRowContext(ctx, getRouteByShortName, shortName).
		Scan(&r.ID, &r.AgencyID, &r.ShortName, &r.LongName, &r.Desc, &r.Type, &r.Color, &r.TextColor)
	return r, err
}

const getRoutesForStop = `
SELECT DISTINCT r.id, r.agency_id, r.short_name, r.long_name, r."desc", r.type, r.color, r.text_color
FROM routes r
JOIN trips t ON t.route_id = r.id
JOIN stop_times st ON st.trip_id = t.id
WHERE st.stop_id = ?
ORDER BY r.id
`

// GetRoutesForStop returns every route with at least one trip calling at
// the stop, regardless of service date.
func (q *Queries) GetRoutesForStop(ctx context.Context, stopID string) ([]Route, error) {
	rows, err := q.db.QueryContext(ctx, getRoutesForStop, stopID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanRoutes(rows)
}

const getTrip = `
SELECT id, route_id, service_id, trip_headsign, direction_id, shape_id
FROM trips
WHERE id = ?
`

func (q *Queries) GetTrip(ctx context.Context, id string) (Trip, error) {
	var t Trip
	err := q.db.QueryRowContext(ctx, getTrip, id).
		Scan(&t.ID, &t.RouteID, &t.ServiceID, &t.TripHeadsign, &t.DirectionID, &t.ShapeID)
	return t, err
}

const getTripsForRoute = `
SELECT id, route_id, service_id, trip_headsign, direction_id, shape_id
FROM trips
WHERE route_id = ?
ORDER BY id
`

func (q *Queries) GetTripsForRoute(ctx context.Context, routeID string) ([]Trip, error) {
	rows, err := q.db.QueryContext(ctx, getTripsForRoute, routeID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var trips []Trip
	for rows.Next() {
		var t Trip
		if err := rows.Scan(&t.ID, &t.RouteID, &t.ServiceID, &t.TripHeadsign, &t.DirectionID, &t.ShapeID); err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

const getStopTimesForStop = `
SELECT trip_id, arrival_time, departure_time, stop_id, stop_sequence, stop_headsign
FROM stop_times
WHERE stop_id = ?
ORDER BY trip_id, stop_sequence
`

func (q *Queries) GetStopTimesForStop(ctx context.Context, stopID string) ([]StopTime, error) {
	rows, err := q.db.QueryContext(ctx, getStopTimesForStop, stopID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanStopTimes(rows)
}

const getStopTimesForTrip = `
SELECT trip_id, arrival_time, departure_time, stop_id, stop_sequence, stop_headsign
FROM stop_times
WHERE trip_id = ?
ORDER BY stop_sequence
`

// GetStopTimesForTrip returns the trip's stop times in stop_sequence order,
// which delay propagation depends on.
func (q *Queries) GetStopTimesForTrip(ctx context.Context, tripID string) ([]StopTime, error) {
	rows, err := q.db.QueryContext(ctx, getStopTimesForTrip, tripID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanStopTimes(rows)
}

const getCalendars = `
SELECT service_id, monday, tuesday, wednesday, thursday, friday, saturday, sunday, start_date, end_date
FROM calendar
`

func (q *Queries) GetCalendars(ctx context.Context) ([]Calendar, error) {
	rows, err := q.db.QueryContext(ctx, getCalendars)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var cals []Calendar
	for rows.Next() {
		var c Calendar
		if err := rows.Scan(&c.ServiceID, &c.Monday, &c.Tuesday, &c.Wednesday, &c.Thursday,
			&c.Friday, &c.Saturday, &c.Sunday, &c.StartDate, &c.EndDate); err != nil {
			return nil, err
		}
		cals = append(cals, c)
	}
	return cals, rows.Err()
}

const getCalendarDatesForDate = `
SELECT service_id, date, exception_type
FROM calendar_dates
WHERE date = ?
`

func (q *Queries) GetCalendarDatesForDate(ctx context.Context, date string) ([]CalendarDate, error) {
	rows, err := q.db.QueryContext(ctx, getCalendarDatesForDate, date)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var dates []CalendarDate
	for rows.Next() {
		var cd CalendarDate
		if err := rows.Scan(&cd.ServiceID, &cd.Date, &cd.ExceptionType); err != nil {
			return nil, err
		}
		dates = append(dates, cd)
	}
	return dates, rows.Err()
}

const getShapePointsForTrip = `
SELECT s.shape_id, s.lat, s.lon, s.shape_pt_sequence
FROM shapes s
JOIN trips t ON t.shape_id = s.shape_id
WHERE t.id = ?
ORDER BY s.shape_pt_sequence
`

func (q *Queries) GetShapePointsForTrip(ctx context.Context, tripID string) ([]ShapePoint, error) {
	rows, err := q.db.QueryContext(ctx, getShapePointsForTrip, tripID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var points []ShapePoint
	for rows.Next() {
		var p ShapePoint
		if err := rows.Scan(&p.ShapeID, &p.Lat, &p.Lon, &p.ShapePtSequence); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

const getScheduleForStop = `
SELECT st.trip_id, t.route_id, t.service_id, t.trip_headsign, st.arrival_time, st.stop_sequence
FROM stop_times st
JOIN trips t ON t.id = st.trip_id
WHERE st.stop_id = ?
ORDER BY st.arrival_time, st.trip_id
`

// ScheduleRow is one scheduled call at a stop with its trip context.
type ScheduleRow struct {
	TripID       string
	RouteID      string
	ServiceID    string
	TripHeadsign sql.NullString
	ArrivalTime  string
	StopSequence int64
}

// GetScheduleForStop returns every scheduled call at the stop across all
// services. Filtering to the services active on a date is the caller's job.
func (q *Queries) GetScheduleForStop(ctx context.Context, stopID string) ([]ScheduleRow, error) {
	rows, err := q.db.QueryContext(ctx, getScheduleForStop, stopID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []ScheduleRow
	for rows.Next() {
		var r ScheduleRow
		if err := rows.Scan(&r.TripID, &r.RouteID, &r.ServiceID, &r.TripHeadsign, &r.ArrivalTime, &r.StopSequence); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const getStopSequence = `
SELECT stop_sequence
FROM stop_times
WHERE trip_id = ? AND stop_id = ?
ORDER BY stop_sequence
LIMIT 1
`

// GetStopSequence resolves a (trip, stop) pair to its stop_sequence, for
// realtime updates that reference stops by id only.
func (q *Queries) GetStopSequence(ctx context.Context, tripID, stopID string) (int64, error) {
	var seq int64
	err := q.db.QueryRowContext(ctx, getStopSequence, tripID, stopID).Scan(&seq)
	return seq, err
}

const getStopLines = `
SELECT DISTINCT st.stop_id, r.short_name
FROM stop_times st
JOIN trips t ON t.id = st.trip_id
JOIN routes r ON r.id = t.route_id
WHERE r.short_name IS NOT NULL
ORDER BY st.stop_id, r.short_name
`

// GetStopLines returns the route short names serving each stop, keyed by
// stop id. One query instead of one per stop when listing the network.
func (q *Queries) GetStopLines(ctx context.Context) (map[string][]string, error) {
	rows, err := q.db.QueryContext(ctx, getStopLines)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	lines := make(map[string][]string)
	for rows.Next() {
		var stopID, shortName string
		if err := rows.Scan(&stopID, &shortName); err != nil {
			return nil, err
		}
		lines[stopID] = append(lines[stopID], shortName)
	}
	return lines, rows.Err()
}

const getImportMetadata = `SELECT file_hash, import_time, file_source FROM import_metadata WHERE id = 1`

func (q *Queries) GetImportMetadata(ctx context.Context) (ImportMetadata, error) {
	var m ImportMetadata
	err := q.db.QueryRowContext(ctx, getImportMetadata).Scan(&m.FileHash, &m.ImportTime, &m.FileSource)
	return m, err
}

func scanRoutes(rows *sql.Rows) ([]Route, error) {
	var routes []Route
	for rows.Next() {
		var r Route
		if err := rows.Scan(&r.ID, &r.AgencyID, &r.ShortName, &r.LongName, &r.Desc, &r.Type, &r.Color, &r.TextColor); err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	return routes, rows.Err()
}

func scanStopTimes(rows *sql.Rows) ([]StopTime, error) {
	var stopTimes []StopTime
	for rows.Next() {
		var st StopTime
		if err := rows.Scan(&st.TripID, &st.ArrivalTime, &st.DepartureTime, &st.StopID, &st.StopSequence, &st.StopHeadsign); err != nil {
			return nil, err
		}
		stopTimes = append(stopTimes, st)
	}
	return stopTimes, rows.Err()
}
