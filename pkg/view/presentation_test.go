package view

import (
	"testing"

	"github.com/AnniekStok/track-curator/pkg/edits"
	"github.com/AnniekStok/track-curator/pkg/model"
)

func sampleRows() []model.TrackNode {
	blue := model.RGBA{R: 0, G: 0, B: 255, A: 255}
	green := model.RGBA{R: 0, G: 255, B: 0, A: 255}
	return []model.TrackNode{
		{NodeID: "a", T: 0, Position: []float64{10, 10}, TrackID: 1, ParentID: model.NoParent, XAxisPos: 0, Color: blue, Symbol: model.SymbolTriangle, State: model.StateFork},
		{NodeID: "b", T: 1, Position: []float64{9, 11}, TrackID: 2, ParentID: "a", ParentTrackID: 1, XAxisPos: 1, Color: green, Symbol: model.SymbolCircle},
		{NodeID: "c", T: 1, Position: []float64{11, 11}, TrackID: 3, ParentID: "a", ParentTrackID: 1, XAxisPos: 2, Color: blue, Symbol: model.SymbolCircle, Annotated: true},
	}
}

func TestBuildCoordinatesAndEdges(t *testing.T) {
	p := Build(sampleRows(), nil)

	if len(p.SpatialCoords) != 3 {
		t.Fatalf("expected 3 coordinate rows, got %d", len(p.SpatialCoords))
	}
	want := []float64{0, 10, 10}
	for i, v := range want {
		if p.SpatialCoords[0][i] != v {
			t.Errorf("spatial coords for a = %v, want %v", p.SpatialCoords[0], want)
			break
		}
	}
	if p.TreeCoords[1] != [2]float64{1, 1} {
		t.Errorf("tree coords for b = %v, want [1 1]", p.TreeCoords[1])
	}

	if len(p.Edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(p.Edges))
	}
	for _, edge := range p.Edges {
		if edge[0] != 0 {
			t.Errorf("edge parent row = %d, want 0", edge[0])
		}
	}
}

func TestBuildHighlightsAnnotations(t *testing.T) {
	p := Build(sampleRows(), nil)

	if p.Colors[2] != editColor {
		t.Errorf("annotated node color = %v, want %v", p.Colors[2], editColor)
	}
	if p.Sizes[2] != editSize {
		t.Errorf("annotated node size = %v, want %d", p.Sizes[2], editSize)
	}
	if p.Sizes[1] != baseSize {
		t.Errorf("plain node size = %v, want %d", p.Sizes[1], baseSize)
	}
	if p.Symbols[0] != model.SymbolTriangle {
		t.Errorf("fork symbol = %q, want triangle", p.Symbols[0])
	}
}

func TestBuildPinnedEdgeColor(t *testing.T) {
	p := Build(sampleRows(), [][2]string{{"a", "b"}})

	if p.EdgeColors[0] != editColor {
		t.Errorf("pinned edge color = %v, want %v", p.EdgeColors[0], editColor)
	}
	if p.EdgeColors[1] == editColor {
		t.Error("unpinned edge should keep the parent track color")
	}
}

func TestGrowSelected(t *testing.T) {
	sizes := GrowSelected([]float64{8, 8, 13}, []int{1})
	if sizes[1] != 8+selectedGrow {
		t.Errorf("selected size = %v, want %v", sizes[1], 8+selectedGrow)
	}
	if sizes[0] != 8 || sizes[2] != 13 {
		t.Errorf("unselected sizes changed: %v", sizes)
	}
}

func TestVisibilityModes(t *testing.T) {
	rows := sampleRows()
	descendants := func(nodeID string) []string {
		if nodeID == "a" {
			return []string{"a", "b", "c"}
		}
		return []string{nodeID}
	}

	tests := []struct {
		name     string
		mode     DisplayMode
		selected []model.TrackNode
		pending  []edits.Entry
		want     []bool
	}{
		{"all shows everything", ModeAll, nil, nil, []bool{true, true, true}},
		{"selection shows selected only", ModeSelection, rows[1:2], nil, []bool{false, true, false}},
		{"selection empty hides all", ModeSelection, nil, nil, []bool{false, false, false}},
		{"track follows first selected", ModeTrack, rows[0:1], nil, []bool{true, false, false}},
		{"lineage follows descendants", ModeLineage, rows[0:1], nil, []bool{true, true, true}},
		{"lineage of leaf is the leaf", ModeLineage, rows[1:2], nil, []bool{false, true, false}},
		{"edits shows annotated and pending", ModeEdits, nil,
			[]edits.Entry{{Source: "a", Target: "b", Action: model.ActionBreak}},
			[]bool{true, true, true}},
		{"edits without pending shows annotated", ModeEdits, nil, nil, []bool{false, false, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Visibility(rows, tt.mode, tt.selected, descendants, tt.pending)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("mask = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestEdgeVisibility(t *testing.T) {
	edges := [][2]int{{0, 1}, {0, 2}}
	mask := EdgeVisibility(edges, []bool{false, true, false})
	if !mask[0] || mask[1] {
		t.Errorf("edge mask = %v, want [true false]", mask)
	}
}
