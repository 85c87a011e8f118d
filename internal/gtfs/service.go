package gtfs

import (
	"context"
	"sort"
	"time"

	"paradero.urbanbus.org/gtfsdb"
)

const serviceDateLayout = "20060102"

// ActiveServicesForDate returns the service ids running on the given date:
// the union of calendar rows whose weekday flag and date range match, and
// calendar_dates rows adding service on that date.
//
// Removed-service exceptions (exception_type 2) are deliberately not
// subtracted. The upstream feed ships them alongside replacement services
// and subtracting them has historically dropped real trips; overlaps are
// counted in a metric instead so the policy stays observable.
func (manager *Manager) ActiveServicesForDate(ctx context.Context, date time.Time) ([]string, error) {
	dateStr := date.In(manager.location).Format(serviceDateLayout)

	manager.serviceMutex.Lock()
	now := manager.clock.Now().In(manager.location)
	if !now.Before(manager.serviceExpiry) {
		// The answer for "today" changes at local midnight; drop the
		// whole memo rather than tracking staleness per date.
		manager.serviceMemo = make(map[string][]string)
		manager.serviceExpiry = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, manager.location).AddDate(0, 0, 1)
	}
	if cached, ok := manager.serviceMemo[dateStr]; ok {
		manager.serviceMutex.Unlock()
		return cached, nil
	}
	manager.serviceMutex.Unlock()

	active := make(map[string]bool)

	calendars, err := manager.queries().GetCalendars(ctx)
	if err != nil {
		return nil, err
	}
	weekday := date.In(manager.location).Weekday()
	for _, cal := range calendars {
		if !weekdayFlag(cal, weekday) {
			continue
		}
		// YYYYMMDD strings order the same as the dates they encode.
		if dateStr < cal.StartDate || dateStr > cal.EndDate {
			continue
		}
		active[cal.ServiceID] = true
	}

	exceptions, err := manager.queries().GetCalendarDatesForDate(ctx, dateStr)
	if err != nil {
		return nil, err
	}
	for _, exc := range exceptions {
		switch exc.ExceptionType {
		case 1:
			active[exc.ServiceID] = true
		case 2:
			if active[exc.ServiceID] && manager.metrics != nil {
				manager.metrics.RemovedExceptionOverlaps.Inc()
			}
		}
	}

	services := make([]string, 0, len(active))
	for id := range active {
		services = append(services, id)
	}
	sort.Strings(services)

	manager.serviceMutex.Lock()
	manager.serviceMemo[dateStr] = services
	manager.serviceMutex.Unlock()

	return services, nil
}

func weekdayFlag(cal gtfsdb.Calendar, day time.Weekday) bool {
	switch day {
	case time.Monday:
		return cal.Monday == 1
	case time.Tuesday:
		return cal.Tuesday == 1
	case time.Wednesday:
		return cal.Wednesday == 1
	case time.Thursday:
		return cal.Thursday == 1
	case time.Friday:
		return cal.Friday == 1
	case time.Saturday:
		return cal.Saturday == 1
	default:
		return cal.Sunday == 1
	}
}
