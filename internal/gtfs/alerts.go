package gtfs

import (
	"context"

	"github.com/OneBusAway/go-gtfs"

	"paradero.urbanbus.org/internal/gtfstime"
	"paradero.urbanbus.org/internal/models"
)

// FormattedAlerts returns the current service alerts with entity
// references resolved to line numbers and stop names.
func (manager *Manager) FormattedAlerts(ctx context.Context) ([]models.Alert, error) {
	alerts := manager.GetAlerts()
	if len(alerts) == 0 {
		return []models.Alert{}, nil
	}

	routes, err := manager.queries().GetRoutes(ctx)
	if err != nil {
		return nil, err
	}
	lineByRouteID := make(map[string]string, len(routes))
	for _, r := range routes {
		lineByRouteID[r.ID] = r.ShortName.String
	}

	stops, err := manager.queries().GetStops(ctx)
	if err != nil {
		return nil, err
	}
	nameByStopID := make(map[string]string, len(stops))
	for _, s := range stops {
		nameByStopID[s.ID] = s.Name.String
	}

	formatted := make([]models.Alert, 0, len(alerts))
	for i := range alerts {
		formatted = append(formatted, manager.formatAlert(&alerts[i], lineByRouteID, nameByStopID))
	}
	return formatted, nil
}

func (manager *Manager) formatAlert(alert *gtfs.Alert, lineByRouteID, nameByStopID map[string]string) models.Alert {
	out := models.Alert{
		ID:          alert.ID,
		Header:      firstAlertText(alert.Header),
		Description: firstAlertText(alert.Description),
		URL:         firstAlertText(alert.URL),
		Cause:       alert.Cause.String(),
		Effect:      alert.Effect.String(),
	}

	for _, entity := range alert.InformedEntities {
		if entity.RouteID != nil {
			line := lineByRouteID[*entity.RouteID]
			if line == "" {
				line = *entity.RouteID
			}
			out.Routes = appendUnique(out.Routes, line)
		}
		if entity.StopID != nil {
			name := nameByStopID[*entity.StopID]
			if name == "" {
				name = *entity.StopID
			}
			out.Stops = appendUnique(out.Stops, name)
		}
	}

	if len(alert.ActivePeriods) > 0 {
		period := alert.ActivePeriods[0]
		if period.StartsAt != nil {
			from := gtfstime.FormatISO(period.StartsAt.In(manager.location))
			out.ActiveFrom = &from
		}
		if period.EndsAt != nil {
			until := gtfstime.FormatISO(period.EndsAt.In(manager.location))
			out.ActiveUntil = &until
		}
	}

	return out
}

// firstAlertText prefers a Spanish translation and falls back to the first
// entry. Feeds here are effectively monolingual but the language tag is
// not always set.
func firstAlertText(texts []gtfs.AlertText) string {
	for _, t := range texts {
		if t.Language == "es" {
			return t.Text
		}
	}
	if len(texts) > 0 {
		return texts[0].Text
	}
	return ""
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
