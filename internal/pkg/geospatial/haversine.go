package geospatial

import "math"

// Mean Earth radius per the WGS 84 spherical approximation.
const earthRadiusKm = 6371.0

// Kilometres per statute mile.
const kmPerMile = 1.60934

// DistanceKm calculates the great-circle distance in kilometres between two
// points using the haversine formula. DistanceKm(a, a) is 0 and the result
// is symmetric in its arguments. No range validation is performed here;
// callers validate coordinates upstream.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	return DistanceKm(lat1, lng1, lat2, lng2) * 1000
}

// KmToMiles converts kilometres to statute miles.
func KmToMiles(km float64) float64 {
	return km / kmPerMile
}

// BoundingBox returns a bounding box around a point with the given radius in meters.
func BoundingBox(lat, lng, radiusMeters float64) (minLat, minLng, maxLat, maxLng float64) {
	latDelta := radiusMeters / 111320.0
	lngDelta := radiusMeters / (111320.0 * math.Cos(toRad(lat)))

	return lat - latDelta, lng - lngDelta, lat + latDelta, lng + lngDelta
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
