package store

import (
	"math"

	"github.com/caregraph/caregraph/pkg/model"
)

const earthRadiusMeters = 6371000.0

// HaversineMeters returns the great-circle distance between two points.
// The Postgres backend computes the same formula in SQL; both sides must
// agree so the inclusive radius boundary behaves identically.
func HaversineMeters(a, b model.GeoPoint) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}
