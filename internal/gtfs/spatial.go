package gtfs

import (
	"context"
	"sort"

	"github.com/tidwall/rtree"

	"paradero.urbanbus.org/gtfsdb"
	"paradero.urbanbus.org/internal/models"
	"paradero.urbanbus.org/internal/utils"
)

// stopSpatialIndex answers "stops near a point" queries without scanning
// the whole network. It is rebuilt whenever the snapshot is swapped.
type stopSpatialIndex struct {
	tree  rtree.RTreeG[gtfsdb.Stop]
	lines map[string][]string
}

func buildStopSpatialIndex(ctx context.Context, queries *gtfsdb.Queries) (*stopSpatialIndex, error) {
	stops, err := queries.GetStops(ctx)
	if err != nil {
		return nil, err
	}
	lines, err := queries.GetStopLines(ctx)
	if err != nil {
		return nil, err
	}

	index := &stopSpatialIndex{lines: lines}
	for _, stop := range stops {
		point := [2]float64{stop.Lon, stop.Lat}
		index.tree.Insert(point, point, stop)
	}
	return index, nil
}

// StopsNear returns the stops within radiusMeters of a point, nearest
// first, capped at limit. A non-positive limit means no cap.
func (manager *Manager) StopsNear(lat, lon, radiusMeters float64, limit int) []models.NearbyStop {
	manager.staticMutex.RLock()
	index := manager.stopIndex
	manager.staticMutex.RUnlock()

	if index == nil {
		return nil
	}

	bounds := utils.CalculateBounds(lat, lon, radiusMeters)

	var nearby []models.NearbyStop
	index.tree.Search(
		[2]float64{bounds.MinLon, bounds.MinLat},
		[2]float64{bounds.MaxLon, bounds.MaxLat},
		func(_, _ [2]float64, stop gtfsdb.Stop) bool {
			distance := utils.Distance(lat, lon, stop.Lat, stop.Lon)
			if distance > radiusMeters {
				// Bounding box corner; outside the circle.
				return true
			}
			nearby = append(nearby, models.NearbyStop{
				Stop: models.Stop{
					StopID:    stop.ID,
					StopCode:  stop.Code.String,
					Name:      stop.Name.String,
					Latitude:  stop.Lat,
					Longitude: stop.Lon,
					Lines:     index.lines[stop.ID],
				},
				DistanceMeters: distance,
			})
			return true
		},
	)

	sort.Slice(nearby, func(i, j int) bool { return nearby[i].DistanceMeters < nearby[j].DistanceMeters })
	if limit > 0 && len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby
}
