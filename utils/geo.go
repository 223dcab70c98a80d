package utils

import "math"

const earthRadiusKm = 6371.0

// HaversineDistance returns the great-circle distance in kilometers.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// BoundingBox returns the lat/lng rectangle enclosing a radius around a
// point. It is a cheap SQL prefilter; callers still apply the exact distance.
func BoundingBox(lat, lng, radiusKm float64) (minLat, maxLat, minLng, maxLng float64) {
	dLat := radiusKm / earthRadiusKm * 180 / math.Pi
	cosLat := math.Cos(lat * math.Pi / 180)
	dLng := 180.0
	if cosLat > 1e-6 {
		dLng = math.Min(180, dLat/cosLat)
	}
	return lat - dLat, lat + dLat, lng - dLng, lng + dLng
}

// LongitudeRanges splits a box's longitude span into ranges inside
// [-180, 180], two when the box crosses the antimeridian.
func LongitudeRanges(minLng, maxLng float64) [][2]float64 {
	switch {
	case maxLng-minLng >= 360:
		return [][2]float64{{-180, 180}}
	case minLng < -180:
		return [][2]float64{{minLng + 360, 180}, {-180, maxLng}}
	case maxLng > 180:
		return [][2]float64{{minLng, 180}, {-180, maxLng - 360}}
	}
	return [][2]float64{{minLng, maxLng}}
}

func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
