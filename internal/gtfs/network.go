package gtfs

import (
	"context"
	"database/sql"
	"errors"

	"paradero.urbanbus.org/internal/models"
)

// Routes returns every route of the network.
func (manager *Manager) Routes(ctx context.Context) ([]models.Route, error) {
	rows, err := manager.queries().GetRoutes(ctx)
	if err != nil {
		return nil, err
	}

	routes := make([]models.Route, 0, len(rows))
	for _, r := range rows {
		routes = append(routes, models.Route{
			RouteID:   r.ID,
			ShortName: r.ShortName.String,
			LongName:  r.LongName.String,
			Color:     r.Color.String,
			TextColor: r.TextColor.String,
		})
	}
	return routes, nil
}

// Stops returns every stop of the network, each annotated with the route
// short names serving it.
func (manager *Manager) Stops(ctx context.Context) ([]models.Stop, error) {
	rows, err := manager.queries().GetStops(ctx)
	if err != nil {
		return nil, err
	}
	lines, err := manager.queries().GetStopLines(ctx)
	if err != nil {
		return nil, err
	}

	stops := make([]models.Stop, 0, len(rows))
	for _, s := range rows {
		stops = append(stops, models.Stop{
			StopID:    s.ID,
			StopCode:  s.Code.String,
			Name:      s.Name.String,
			Latitude:  s.Lat,
			Longitude: s.Lon,
			Lines:     lines[s.ID],
		})
	}
	return stops, nil
}

// RouteByShortName resolves a rider-facing line number to its route.
func (manager *Manager) RouteByShortName(ctx context.Context, shortName string) (models.Route, error) {
	r, err := manager.queries().GetRouteByShortName(ctx, shortName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Route{}, ErrRouteNotFound
		}
		return models.Route{}, err
	}
	return models.Route{
		RouteID:   r.ID,
		ShortName: r.ShortName.String,
		LongName:  r.LongName.String,
		Color:     r.Color.String,
		TextColor: r.TextColor.String,
	}, nil
}
