package main

import (
	"strconv"
	"strings"
	"testing"

	"github.com/couchcryptid/hazard-hotspot-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBatch_Document(t *testing.T) {
	batch, err := readBatch(strings.NewReader(`{
		"reports": [
			{"id": "a", "text": "flood", "place_id": "mum"},
			{"id": "b", "text": "storm", "place": {"id": "che", "bbox": [80.1, 12.9, 80.3, 13.2]}}
		],
		"places": {"mum": {"id": "mum", "bbox": [72.77, 18.89, 72.98, 19.27]}}
	}`))
	require.NoError(t, err)

	assert.Len(t, batch.Reports, 2)
	assert.Contains(t, batch.Places, "mum")
	assert.Contains(t, batch.Places, "che", "inline places join the place table")
}

func TestReadBatch_ReportArray(t *testing.T) {
	batch, err := readBatch(strings.NewReader(`[{"text":"flood","coordinates":{"lat":1,"lng":2}}]`))
	require.NoError(t, err)
	require.Len(t, batch.Reports, 1)
	assert.Equal(t, "flood", batch.Reports[0].Text)
}

func TestReadBatch_Invalid(t *testing.T) {
	_, err := readBatch(strings.NewReader(`{"reports":`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode batch")
}

func TestDetectFlags_Defaults(t *testing.T) {
	flags := detectCmd.Flags()
	assert.Equal(t, strconv.Itoa(domain.DefaultCellResolution), flags.Lookup("cell-resolution").DefValue)
	assert.Equal(t, strconv.Itoa(domain.DefaultMinSamples), flags.Lookup("min-samples").DefValue)
	assert.Equal(t, strconv.FormatFloat(domain.DefaultEps, 'g', -1, 64), flags.Lookup("eps").DefValue)
}
