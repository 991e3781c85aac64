// Package geo provides great-circle distance math for the discovery
// distance filter.
package geo

import "math"

// earthRadiusKM is the mean Earth radius used by the haversine formula.
const earthRadiusKM = 6371.0

// kmPerMile converts kilometers to statute miles.
const kmPerMile = 1.60934

// DistanceKM returns the great-circle distance in kilometers between two
// coordinate pairs, computed with the haversine formula.
//
// The function is total: any pair of float64 inputs yields a result.
// Callers with absent coordinates must skip distance filtering instead of
// passing sentinel values.
func DistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

// KMToMiles converts a distance in kilometers to miles.
func KMToMiles(km float64) float64 {
	return km / kmPerMile
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
