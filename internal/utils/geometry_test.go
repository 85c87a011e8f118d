package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateBounds(t *testing.T) {
	lat := 41.6523
	lon := -4.7245
	radius := 500.0

	bounds := CalculateBounds(lat, lon, radius)

	latDiff := bounds.MaxLat - bounds.MinLat
	lonDiff := bounds.MaxLon - bounds.MinLon

	// 500m in each direction at this latitude.
	assert.InDelta(t, 0.00898, latDiff, 0.0001)
	assert.InDelta(t, 0.01202, lonDiff, 0.0002)

	assert.Less(t, bounds.MinLat, lat)
	assert.Greater(t, bounds.MaxLat, lat)
	assert.Less(t, bounds.MinLon, lon)
	assert.Greater(t, bounds.MaxLon, lon)
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name      string
		lat1      float64
		lon1      float64
		lat2      float64
		lon2      float64
		expected  float64
		tolerance float64
	}{
		{
			name:      "same point",
			lat1:      41.6523,
			lon1:      -4.7245,
			lat2:      41.6523,
			lon2:      -4.7245,
			expected:  0,
			tolerance: 0.001,
		},
		{
			name: "across the city center",
			// Plaza Mayor to the railway station, roughly 1.2 km.
			lat1:      41.6523,
			lon1:      -4.7286,
			lat2:      41.6420,
			lon2:      -4.7275,
			expected:  1150,
			tolerance: 50,
		},
		{
			name: "between nearby stops",
			lat1:      41.6350,
			lon1:      -4.7200,
			lat2:      41.6400,
			lon2:      -4.7360,
			expected:  1440,
			tolerance: 60,
		},
		{
			name: "long distance falls back to the exact formula",
			// Valladolid to Madrid, roughly 162 km.
			lat1:      41.6523,
			lon1:      -4.7245,
			lat2:      40.4168,
			lon2:      -3.7038,
			expected:  162000,
			tolerance: 3000,
		},
		{
			name:      "quarter of the Earth's circumference",
			lat1:      0,
			lon1:      0,
			lat2:      0,
			lon2:      90,
			expected:  10007543,
			tolerance: 10000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.expected, got, tt.tolerance)
		})
	}
}

func TestDistance_Symmetry(t *testing.T) {
	forward := Distance(41.6523, -4.7245, 41.6350, -4.7200)
	backward := Distance(41.6350, -4.7200, 41.6523, -4.7245)
	assert.InDelta(t, forward, backward, 0.001)
}

func TestDistance_NonNegative(t *testing.T) {
	coords := [][2]float64{
		{41.6523, -4.7245},
		{-33.8688, 151.2093},
		{90, 0},
		{-90, 180},
	}
	for _, a := range coords {
		for _, b := range coords {
			assert.GreaterOrEqual(t, Distance(a[0], a[1], b[0], b[1]), 0.0)
		}
	}
}
