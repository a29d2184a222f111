package geospatial

import "math"

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// BoundingBox returns the smallest box holding every point within
// radiusMeters of (lat, lon) on the Haversine sphere. When the circle reaches
// a pole the box spans all longitudes. Longitudes may fall outside ±180 when
// the circle crosses the antimeridian.
func BoundingBox(lat, lon, radiusMeters float64) (minLat, minLon, maxLat, maxLon float64) {
	d := radiusMeters / (earthRadiusKm * 1000)
	latR := toRad(lat)
	minLatR, maxLatR := latR-d, latR+d

	if minLatR <= -math.Pi/2 || maxLatR >= math.Pi/2 {
		return math.Max(toDeg(minLatR), -90), -180, math.Min(toDeg(maxLatR), 90), 180
	}

	dLon := toDeg(math.Asin(math.Sin(d) / math.Cos(latR)))
	return toDeg(minLatR), lon - dLon, toDeg(maxLatR), lon + dLon
}

// InBox reports whether (lat, lon) lies inside a box from BoundingBox.
func InBox(lat, lon, minLat, minLon, maxLat, maxLon float64) bool {
	if lat < minLat || lat > maxLat {
		return false
	}
	switch {
	case minLon < -180:
		return lon >= minLon+360 || lon <= maxLon
	case maxLon > 180:
		return lon >= minLon || lon <= maxLon-360
	default:
		return lon >= minLon && lon <= maxLon
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
