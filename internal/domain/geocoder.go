package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// PlaceGeocoder resolves free-text place names for reports that carry neither
// a coordinate nor a place with a bounding box.
type PlaceGeocoder interface {
	// ForwardGeocode converts a place name to coordinates.
	ForwardGeocode(ctx context.Context, name string) (GeocodingResult, error)
}
