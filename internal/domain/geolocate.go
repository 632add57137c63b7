package domain

import (
	"context"
	"log/slog"
)

// ResolvePosition picks a single point for a raw report: its direct
// coordinate when valid, else the centroid of its inline place, else the
// centroid of the referenced place in places. It reports false when none
// of those resolve.
func ResolvePosition(raw RawReport, places map[string]Place) (Position, bool) {
	if raw.Coordinates != nil && raw.Coordinates.Valid() {
		return *raw.Coordinates, true
	}
	if raw.Place != nil {
		if pos, ok := raw.Place.Centroid(); ok {
			return pos, true
		}
	}
	if raw.PlaceID != "" {
		if place, ok := places[raw.PlaceID]; ok {
			return place.Centroid()
		}
	}
	return Position{}, false
}

// Geolocator resolves report positions, falling back to forward geocoding
// of the report's place name when a geocoder is configured.
type Geolocator struct {
	geocoder PlaceGeocoder
	logger   *slog.Logger
}

// NewGeolocator creates a Geolocator. Pass a nil geocoder to resolve from
// coordinates and bounding boxes only.
func NewGeolocator(geocoder PlaceGeocoder, logger *slog.Logger) *Geolocator {
	return &Geolocator{geocoder: geocoder, logger: logger}
}

// Locate resolves raw to a position. Geocoding failures degrade to
// "unresolvable" rather than an error.
func (g *Geolocator) Locate(ctx context.Context, raw RawReport, places map[string]Place) (Position, bool) {
	if pos, ok := ResolvePosition(raw, places); ok {
		return pos, true
	}
	if g == nil || g.geocoder == nil || raw.PlaceName == "" {
		return Position{}, false
	}

	result, err := g.geocoder.ForwardGeocode(ctx, raw.PlaceName)
	if err != nil {
		g.logger.Warn("forward geocoding failed",
			"report_id", raw.ID,
			"place_name", raw.PlaceName,
			"error", err,
		)
		return Position{}, false
	}
	if result.Lat == 0 && result.Lon == 0 {
		return Position{}, false
	}
	pos := Position{Lat: result.Lat, Lng: result.Lon}
	if !pos.Valid() {
		return Position{}, false
	}
	return pos, true
}
