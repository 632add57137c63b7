package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ParseRawMessage decodes a source-topic message into a RawReport. Reports
// without an ID take the message key, or a hash of their content.
func ParseRawMessage(msg RawMessage) (RawReport, error) {
	var rec RawReport
	if err := json.Unmarshal(msg.Value, &rec); err != nil {
		return RawReport{}, fmt.Errorf("parse raw report: %w", err)
	}
	if strings.TrimSpace(rec.Text) == "" {
		return RawReport{}, errors.New("parse raw report: empty text")
	}
	if rec.ID == "" {
		if len(msg.Key) > 0 {
			rec.ID = string(msg.Key)
		} else {
			rec.ID = generateID(rec)
		}
	}
	if rec.Source == "" {
		rec.Source = msg.Headers["source"]
	}
	return rec, nil
}

// NewBatch groups reports into a Batch whose place table holds every inline
// place that carries an ID.
func NewBatch(reports []RawReport) Batch {
	batch := Batch{Reports: reports, Places: make(map[string]Place)}
	for _, r := range reports {
		if r.Place != nil && r.Place.ID != "" {
			batch.Places[r.Place.ID] = *r.Place
		}
	}
	return batch
}

// generateID hashes the report's text and positional hints so replays of the
// same report map to the same ID.
func generateID(rec RawReport) string {
	var b strings.Builder
	b.WriteString(rec.Text)
	if rec.Coordinates != nil {
		fmt.Fprintf(&b, "|%.4f|%.4f", rec.Coordinates.Lat, rec.Coordinates.Lng)
	}
	b.WriteString("|" + rec.PlaceID + "|" + rec.PlaceName)
	hash := sha256.Sum256([]byte(b.String()))
	return "report-" + hex.EncodeToString(hash[:8])
}

// Flatten returns the batch's reports with each referenced place inlined,
// so every report can travel as a self-contained message. It is the
// inverse of NewBatch.
func (b Batch) Flatten() []RawReport {
	out := make([]RawReport, len(b.Reports))
	for i, r := range b.Reports {
		if r.Place == nil && r.PlaceID != "" {
			if place, ok := b.Places[r.PlaceID]; ok {
				r.Place = &place
			}
		}
		out[i] = r
	}
	return out
}
