package geomath

import (
	"math"

	"github.com/rapidride/prediction-service/pkg/models"
)

const (
	earthRadiusKm = 6371.0

	// roadCircuityFactor scales great-circle distance up to an estimated
	// road distance. Urban road networks do not follow geodesics, and the
	// fare and ETA contracts are quoted in road kilometres.
	roadCircuityFactor = 1.376
)

// DistanceKm estimates the road distance in kilometres between two
// coordinates: haversine great-circle distance scaled by a fixed circuity
// factor. The result is rounded to three decimal places; it is symmetric
// and zero iff both coordinates are equal.
func DistanceKm(a, b models.Coordinate) float64 {
	return math.Round(roadCircuityFactor*GreatCircleKm(a, b)*1000) / 1000
}

// GreatCircleKm calculates the great-circle distance in kilometres between
// two coordinates using the haversine formula.
func GreatCircleKm(a, b models.Coordinate) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// BearingDegrees calculates the initial bearing from a to b in degrees,
// normalized to [0, 360) and rounded to two decimal places.
func BearingDegrees(a, b models.Coordinate) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)

	bearing := math.Mod(toDegrees(math.Atan2(y, x))+360, 360)
	return math.Round(bearing*100) / 100
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

func toDegrees(radians float64) float64 {
	return radians * 180 / math.Pi
}
