package graph

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Detection is a single detected object used to build a candidate graph.
type Detection struct {
	ID       string    `json:"id"`
	T        int       `json:"t"`
	Position []float64 `json:"position"`
}

// BuildCandidateGraph links every detection to all detections in the
// next frame whose center lies within maxEdgeDistance, storing the
// Euclidean distance on each edge. The result is the search space handed
// to the solver; candidate nodes may have many predecessors, the
// in-degree limit only applies to solved graphs.
func BuildCandidateGraph(detections []Detection, maxEdgeDistance float64) (*TrackingGraph, error) {
	tg := NewTrackingGraph()

	byFrame := make(map[int][]Detection)
	dims := 0
	for _, det := range detections {
		if dims == 0 {
			dims = len(det.Position)
		}
		if len(det.Position) != dims || dims < 2 || dims > 3 {
			return nil, fmt.Errorf("detection %q: position must have 2 or 3 coordinates, all alike", det.ID)
		}
		tg.AddNode(det.ID, NodeAttrs{T: det.T, Position: det.Position})
		byFrame[det.T] = append(byFrame[det.T], det)
	}

	frames := make([]int, 0, len(byFrame))
	for t := range byFrame {
		frames = append(frames, t)
	}
	sort.Ints(frames)

	for _, t := range frames {
		next, ok := byFrame[t+1]
		if !ok {
			continue
		}
		for _, src := range byFrame[t] {
			for _, dst := range next {
				dist := floats.Distance(src.Position, dst.Position, 2)
				if dist <= maxEdgeDistance {
					tg.AddEdge(src.ID, dst.ID, EdgeAttrs{Distance: dist})
				}
			}
		}
	}

	return tg, nil
}
