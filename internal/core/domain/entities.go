package domain

import (
	"time"
)

// Photo is one entry in the metadata store. Coordinates are kept exactly as
// the client sent them.
type Photo struct {
	Filename  string `json:"filename"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// Point parses the stored coordinates. ok is false when either value is not a
// decimal number inside WGS 84 bounds.
func (p Photo) Point() (GeoPoint, bool) {
	return ParseGeoPoint(p.Latitude, p.Longitude)
}

// NearbyPhoto is a Photo annotated with its distance from a query point.
type NearbyPhoto struct {
	Photo
	Distance float64 `json:"distance"` // meters
}

// PhotoUploaded is published after an upload has been persisted.
type PhotoUploaded struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Latitude   string    `json:"latitude"`
	Longitude  string    `json:"longitude"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
}
