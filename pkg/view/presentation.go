// Package view computes the per-node and per-edge visual attribute
// arrays consumed by the rendering collaborator. Everything here is a
// pure function of the track table and the interaction state, recomputed
// on every change notification; nothing in this package holds state.
package view

import (
	"github.com/AnniekStok/track-curator/pkg/edits"
	"github.com/AnniekStok/track-curator/pkg/model"
)

// Marker sizes and the highlight color for user edits, matching the
// tree plot conventions.
const (
	baseSize     = 8
	editSize     = 13
	selectedGrow = 5
)

var editColor = model.RGBA{R: 255, G: 0, B: 0, A: 255}

// DisplayMode selects which nodes the visibility filter keeps.
type DisplayMode string

const (
	ModeAll       DisplayMode = "all"
	ModeSelection DisplayMode = "selection"
	ModeTrack     DisplayMode = "track"
	ModeLineage   DisplayMode = "lineage"
	ModeEdits     DisplayMode = "edits"
)

// Presentation holds the draw arrays, all ordered by table row order.
type Presentation struct {
	// SpatialCoords is (t, y, x) or (t, z, y, x) per row, for the
	// points layer.
	SpatialCoords [][]float64 `json:"spatial_coords"`
	// TreeCoords is (column, t) per row, for the lineage tree plot.
	TreeCoords [][2]float64 `json:"tree_coords"`

	Colors  []model.RGBA   `json:"colors"`
	Symbols []model.Symbol `json:"symbols"`
	Sizes   []float64      `json:"sizes"`

	// Edges are (parent_row_index, child_row_index) pairs.
	Edges      [][2]int     `json:"edges"`
	EdgeColors []model.RGBA `json:"edge_colors"`
}

// Build computes the full presentation for the given rows. Pins are the
// recovered true-pinned edges of the current solution; their edges are
// drawn in the edit color.
func Build(rows []model.TrackNode, pins [][2]string) *Presentation {
	pinned := make(map[[2]string]bool, len(pins))
	for _, pin := range pins {
		pinned[pin] = true
	}
	rowIndex := make(map[string]int, len(rows))
	for i, row := range rows {
		rowIndex[row.NodeID] = i
	}

	p := &Presentation{
		SpatialCoords: make([][]float64, len(rows)),
		TreeCoords:    make([][2]float64, len(rows)),
		Colors:        make([]model.RGBA, len(rows)),
		Symbols:       make([]model.Symbol, len(rows)),
		Sizes:         make([]float64, len(rows)),
	}

	for i, row := range rows {
		coords := make([]float64, 0, len(row.Position)+1)
		coords = append(coords, float64(row.T))
		coords = append(coords, row.Position...)
		p.SpatialCoords[i] = coords
		p.TreeCoords[i] = [2]float64{float64(row.XAxisPos), float64(row.T)}

		p.Symbols[i] = row.Symbol
		if row.Annotated {
			p.Colors[i] = editColor
			p.Sizes[i] = editSize
		} else {
			p.Colors[i] = row.Color
			p.Sizes[i] = baseSize
		}

		if row.IsRoot() {
			continue
		}
		parent, ok := rowIndex[row.ParentID]
		if !ok {
			continue
		}
		p.Edges = append(p.Edges, [2]int{parent, i})
		if pinned[[2]string{row.ParentID, row.NodeID}] {
			p.EdgeColors = append(p.EdgeColors, editColor)
		} else {
			p.EdgeColors = append(p.EdgeColors, rows[parent].Color)
		}
	}

	return p
}

// GrowSelected returns a copy of sizes with the selected rows enlarged.
func GrowSelected(sizes []float64, selectedRows []int) []float64 {
	out := make([]float64, len(sizes))
	copy(out, sizes)
	for _, i := range selectedRows {
		if i >= 0 && i < len(out) {
			out[i] += selectedGrow
		}
	}
	return out
}

// Visibility computes the per-row visibility mask for a display mode.
//
//   - selection: only the selected nodes
//   - track: every node sharing the first selected node's track
//   - lineage: the descendant closure of the first selected node, as
//     returned by the descendants function
//   - edits: annotated nodes plus the endpoints of pending edge edits
//   - all (and unknown modes): everything
//
// An empty selection in a selection-driven mode hides everything, which
// matches clicking on empty space.
func Visibility(rows []model.TrackNode, mode DisplayMode, selected []model.TrackNode,
	descendants func(nodeID string) []string, pending []edits.Entry) []bool {

	mask := make([]bool, len(rows))

	switch mode {
	case ModeSelection:
		keep := make(map[string]bool, len(selected))
		for _, node := range selected {
			keep[node.NodeID] = true
		}
		for i, row := range rows {
			mask[i] = keep[row.NodeID]
		}

	case ModeTrack:
		if len(selected) == 0 {
			return mask
		}
		trackID := selected[0].TrackID
		for i, row := range rows {
			mask[i] = row.TrackID == trackID
		}

	case ModeLineage:
		if len(selected) == 0 || descendants == nil {
			return mask
		}
		keep := make(map[string]bool)
		for _, id := range descendants(selected[0].NodeID) {
			keep[id] = true
		}
		for i, row := range rows {
			mask[i] = keep[row.NodeID]
		}

	case ModeEdits:
		keep := make(map[string]bool)
		for _, entry := range pending {
			keep[entry.Source] = true
			keep[entry.Target] = true
		}
		for i, row := range rows {
			mask[i] = row.Annotated || keep[row.NodeID]
		}

	default:
		for i := range mask {
			mask[i] = true
		}
	}

	return mask
}

// EdgeVisibility derives the per-edge mask from a node mask: an edge is
// visible when either endpoint is.
func EdgeVisibility(edges [][2]int, nodeMask []bool) []bool {
	mask := make([]bool, len(edges))
	for i, edge := range edges {
		mask[i] = nodeMask[edge[0]] || nodeMask[edge[1]]
	}
	return mask
}
