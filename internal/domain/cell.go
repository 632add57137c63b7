package domain

import (
	"fmt"

	"github.com/uber/h3-go/v4"
)

// H3 resolutions for hotspot cells. NoCellResolution disables tagging.
const (
	DefaultCellResolution = 5
	MaxCellResolution     = 15
	NoCellResolution      = -1
)

// CellFor returns the hex H3 index of the cell containing pos at resolution res.
func CellFor(pos Position, res int) (string, error) {
	if res < 0 || res > MaxCellResolution {
		return "", fmt.Errorf("h3 resolution %d out of range [0, %d]", res, MaxCellResolution)
	}
	cell, err := h3.LatLngToCell(h3.NewLatLng(pos.Lat, pos.Lng), res)
	if err != nil {
		return "", fmt.Errorf("convert to h3 cell at res %d: %w", res, err)
	}
	return cell.String(), nil
}

// AssignCells tags each hotspot with the H3 cell of its center. A negative
// resolution leaves hotspots untagged.
func AssignCells(hotspots []Hotspot, res int) error {
	if res < 0 {
		return nil
	}
	for i := range hotspots {
		cell, err := CellFor(Position{Lat: hotspots[i].Lat, Lng: hotspots[i].Lng}, res)
		if err != nil {
			return err
		}
		hotspots[i].Cell = cell
	}
	return nil
}
