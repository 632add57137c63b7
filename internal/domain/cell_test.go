package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellFor(t *testing.T) {
	cell, err := CellFor(Position{Lat: 19.07, Lng: 72.87}, 5)
	require.NoError(t, err)
	assert.Len(t, cell, 15)

	again, err := CellFor(Position{Lat: 19.07, Lng: 72.87}, 5)
	require.NoError(t, err)
	assert.Equal(t, cell, again)
}

func TestCellFor_ResolutionOutOfRange(t *testing.T) {
	_, err := CellFor(Position{}, 16)
	require.Error(t, err)
	_, err = CellFor(Position{}, -1)
	require.Error(t, err)
}

func TestAssignCells(t *testing.T) {
	hotspots := []Hotspot{
		{Lat: 19.07, Lng: 72.87, Severity: SeverityHigh, Count: 2},
		{Lat: -33.9, Lng: 151.2, Severity: SeverityLow, Count: 1},
	}

	require.NoError(t, AssignCells(hotspots, 4))
	assert.NotEmpty(t, hotspots[0].Cell)
	assert.NotEmpty(t, hotspots[1].Cell)
	assert.NotEqual(t, hotspots[0].Cell, hotspots[1].Cell)
}

func TestAssignCells_Disabled(t *testing.T) {
	hotspots := []Hotspot{{Lat: 1, Lng: 1, Count: 1}}
	require.NoError(t, AssignCells(hotspots, -1))
	assert.Empty(t, hotspots[0].Cell)
}
