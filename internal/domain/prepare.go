package domain

import (
	"context"
	"time"
)

// Detection is the outcome of one detection run over a batch.
type Detection struct {
	Hotspots    []Hotspot
	Received    int // raw reports in the batch
	NotHazard   int // dropped by the hazard filter
	Unlocated   int // dropped for lack of a position
	GeneratedAt time.Time
}

// PrepareReports filters a batch down to hazard reports, tags each with a
// severity, and resolves its position. Reports that fail either step are
// counted in the returned Detection and dropped; Hotspots is left empty.
func PrepareReports(ctx context.Context, batch Batch, vocab Vocabulary, locator *Geolocator) ([]Report, Detection) {
	det := Detection{
		Received:    len(batch.Reports),
		GeneratedAt: clock.Now().UTC(),
	}

	reports := make([]Report, 0, len(batch.Reports))
	for _, raw := range batch.Reports {
		if !vocab.IsHazard(raw.Text) {
			det.NotHazard++
			continue
		}
		pos, ok := locator.Locate(ctx, raw, batch.Places)
		if !ok {
			det.Unlocated++
			continue
		}
		reports = append(reports, Report{
			ID:       raw.ID,
			Text:     raw.Text,
			Position: pos,
			Severity: vocab.Severity(raw.Text),
		})
	}
	return reports, det
}
