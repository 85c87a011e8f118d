package gtfs

import (
	"context"
	"database/sql"
	"errors"

	"github.com/twpayne/go-polyline"

	"paradero.urbanbus.org/internal/models"
)

// TripShape returns a trip's geometry as a Google encoded polyline.
func (manager *Manager) TripShape(ctx context.Context, tripID string) (models.TripShape, error) {
	if _, err := manager.queries().GetTrip(ctx, tripID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.TripShape{}, ErrTripNotFound
		}
		return models.TripShape{}, err
	}

	points, err := manager.queries().GetShapePointsForTrip(ctx, tripID)
	if err != nil {
		return models.TripShape{}, err
	}
	if len(points) == 0 {
		return models.TripShape{}, ErrShapeNotFound
	}

	coords := make([][]float64, 0, len(points))
	for _, p := range points {
		coords = append(coords, []float64{p.Lat, p.Lon})
	}

	return models.TripShape{
		TripID:   tripID,
		ShapeID:  points[0].ShapeID,
		Polyline: string(polyline.EncodeCoords(coords)),
		Points:   len(points),
	}, nil
}
