package domain

import (
	"context"
	"math"
	"time"
)

// Severity is the coarse urgency tier of a report or hotspot.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Position is a WGS-84 latitude/longitude pair in degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the position is finite and within
// [-90, 90] latitude and [-180, 180] longitude.
func (p Position) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Place is a named geographic extent referenced by feed records.
type Place struct {
	ID       string    `json:"id"`
	FullName string    `json:"full_name,omitempty"`
	BBox     []float64 `json:"bbox,omitempty"` // [west, south, east, north]
}

// Centroid returns the center of the place's bounding box. It reports false
// when the box is not exactly four finite numbers or the center is out of range.
func (p Place) Centroid() (Position, bool) {
	if len(p.BBox) != 4 {
		return Position{}, false
	}
	west, south, east, north := p.BBox[0], p.BBox[1], p.BBox[2], p.BBox[3]
	pos := Position{
		Lat: (south + north) / 2,
		Lng: (west + east) / 2,
	}
	if !pos.Valid() {
		return Position{}, false
	}
	return pos, true
}

// RawReport is a report as delivered by a feed source, before classification.
type RawReport struct {
	ID          string    `json:"id,omitempty"`
	Text        string    `json:"text"`
	Coordinates *Position `json:"coordinates,omitempty"`
	PlaceID     string    `json:"place_id,omitempty"`
	Place       *Place    `json:"place,omitempty"`
	PlaceName   string    `json:"place_name,omitempty"`
	Source      string    `json:"source,omitempty"`
}

// Batch is one set of raw reports with the place table they reference.
type Batch struct {
	Reports []RawReport      `json:"reports"`
	Places  map[string]Place `json:"places,omitempty"`
}

// Report is a hazard-positive, geolocated, severity-tagged report.
type Report struct {
	ID       string
	Text     string
	Position Position
	Severity Severity
}

// Hotspot is the aggregate of one cluster of reports, or of a single
// unclustered report.
type Hotspot struct {
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Severity Severity `json:"severity"`
	Count    int      `json:"count"`
	Cell     string   `json:"cell,omitempty"` // H3 index of the center
}

// Sentiment is the label and confidence returned by a text classifier.
type Sentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// RawMessage is an unparsed message from the source topic.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}
