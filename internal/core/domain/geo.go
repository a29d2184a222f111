package domain

import (
	"strconv"
	"strings"
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point lies within latitude/longitude bounds.
func (g GeoPoint) Valid() bool {
	return g.Lat >= -90 && g.Lat <= 90 && g.Lon >= -180 && g.Lon <= 180
}

// ParseGeoPoint converts two decimal strings into a GeoPoint.
func ParseGeoPoint(lat, lon string) (GeoPoint, bool) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return GeoPoint{}, false
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return GeoPoint{}, false
	}
	p := GeoPoint{Lat: la, Lon: lo}
	if !p.Valid() {
		return GeoPoint{}, false
	}
	return p, true
}
