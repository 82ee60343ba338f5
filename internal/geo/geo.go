// Package geo holds the coordinate helpers used to enrich places with distances.
package geo

import (
	"fmt"
	"math"

	"github.com/FACorreiaa/local-guide/internal/types"
)

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371

// DefaultMoveThresholdKm is the distance a device has to travel before
// distances are recomputed.
const DefaultMoveThresholdKm = 0.05

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }

// Haversine returns the great-circle distance between a and b in kilometers.
func Haversine(a, b types.Coordinate) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dlat := lat2 - lat1
	dlon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	// rounding can push h past 1 for antipodal points
	h = math.Min(1, math.Max(0, h))
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// Bearing returns the initial bearing from a to b in degrees, in [0, 360).
func Bearing(a, b types.Coordinate) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dlon := toRadians(b.Longitude - a.Longitude)

	y := math.Sin(dlon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dlon)

	deg := math.Mod(toDegrees(math.Atan2(y, x))+360, 360)
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// WithinRadius reports whether p lies within radiusKm of center.
func WithinRadius(center, p types.Coordinate, radiusKm float64) bool {
	return Haversine(center, p) <= radiusKm
}

// FormatDistance renders km for display: metres below one kilometer, one decimal above.
func FormatDistance(km float64) string {
	if math.IsNaN(km) || math.IsInf(km, 0) || km < 0 {
		return ""
	}
	if km < 1 {
		return fmt.Sprintf("%d m", int(math.Round(km*1000)))
	}
	return fmt.Sprintf("%.1f km", km)
}

// Valid reports whether c is inside the WGS84 ranges.
func Valid(c types.Coordinate) bool {
	return c.Valid()
}

// Round rounds both components of c to the given number of decimals.
func Round(c types.Coordinate, decimals int) types.Coordinate {
	p := math.Pow(10, float64(decimals))
	return types.Coordinate{
		Latitude:  math.Round(c.Latitude*p) / p,
		Longitude: math.Round(c.Longitude*p) / p,
	}
}

// MovedBeyond reports whether next is more than thresholdKm away from prev.
func MovedBeyond(prev, next types.Coordinate, thresholdKm float64) bool {
	return Haversine(prev, next) > thresholdKm
}
