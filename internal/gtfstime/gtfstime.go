// Package gtfstime is the single authority for interpreting GTFS service
// times. A GTFS stop time is a wall-clock string "HH:MM:SS" relative to the
// service date, where the hour may be 24 or greater to denote "after
// midnight on the next calendar day". Every conversion from a service time
// to an absolute instant must go through AbsoluteInstant; mixing this with
// naive date arithmetic is how off-by-one-day bugs happen.
package gtfstime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NoiseFloor is the threshold below which a schedule deviation is treated
// as on time. Upstream feeds jitter by tens of seconds; reporting that as a
// delay would flap between -1 and 1 minute on every poll.
const NoiseFloor = 60 * time.Second

// ParseServiceTime parses a GTFS "HH:MM:SS" time. The hour component may be
// 24 or greater. Minutes and seconds must be in [0, 60).
func ParseServiceTime(raw string) (hour, minute, second int, err error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("malformed service time %q: expected HH:MM:SS", raw)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 {
		return 0, 0, 0, fmt.Errorf("malformed service time %q: bad hour", raw)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, 0, fmt.Errorf("malformed service time %q: bad minute", raw)
	}
	second, err = strconv.Atoi(parts[2])
	if err != nil || second < 0 || second > 59 {
		return 0, 0, 0, fmt.Errorf("malformed service time %q: bad second", raw)
	}
	return hour, minute, second, nil
}

// AbsoluteInstant converts a GTFS service time on the given service date to
// an absolute, timezone-aware instant. Hours of 24 or more roll over into
// the following calendar day. serviceDate's year/month/day are interpreted
// in loc regardless of serviceDate's own location.
func AbsoluteInstant(raw string, serviceDate time.Time, loc *time.Location) (time.Time, error) {
	hour, minute, second, err := ParseServiceTime(raw)
	if err != nil {
		return time.Time{}, err
	}

	days := 0
	for hour >= 24 {
		hour -= 24
		days++
	}

	y, m, d := serviceDate.Date()
	instant := time.Date(y, m, d, hour, minute, second, 0, loc)
	if days > 0 {
		instant = instant.AddDate(0, 0, days)
	}
	return instant, nil
}

// FormatServiceTime renders a duration since service midnight as a GTFS
// "HH:MM:SS" string. Durations of a day or more produce hours >= 24, which
// is the GTFS convention for trips running past midnight.
func FormatServiceTime(sinceMidnight time.Duration) string {
	total := int(sinceMidnight / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

// RemainingMinutes returns floor((instant - now) / 1 minute). Negative for
// instants in the past; the caller decides whether departed arrivals are
// filtered out.
func RemainingMinutes(instant, now time.Time) int {
	return floorDiv(int(instant.Sub(now)/time.Second), 60)
}

// TimeShiftMinutes computes the signed delay of actual versus scheduled in
// whole minutes, positive meaning later than scheduled. Shifts smaller than
// NoiseFloor in either direction are reported as 0.
func TimeShiftMinutes(scheduled, actual time.Time) int {
	shift := actual.Sub(scheduled)
	if shift < NoiseFloor && shift > -NoiseFloor {
		return 0
	}
	return floorDiv(int(shift/time.Second), 60)
}

// FormatISO formats an instant as ISO-8601 with an explicit UTC offset.
// This is the only timestamp format that crosses the API boundary.
func FormatISO(t time.Time) string {
	return t.Format("2006-01-02T15:04:05-07:00")
}

// ParseServiceDate parses a GTFS calendar date (YYYYMMDD) at midnight in loc.
func ParseServiceDate(date string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("20060102", date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed service date %q: expected YYYYMMDD", date)
	}
	return t, nil
}

// floorDiv divides rounding toward negative infinity, unlike Go's
// truncating integer division.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
