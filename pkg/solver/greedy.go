package solver

import (
	"context"
	"fmt"
	"sort"

	"github.com/AnniekStok/track-curator/pkg/graph"
)

// Greedy is a baseline edge selector, not an optimizer. It honors the
// hard constraints (pins, forced forks and endpoints, max children, max
// parents = 1) and picks the cheapest remaining edges, which is good
// enough to produce plausible lineages on clean data and to exercise the
// full curation cycle without an external ILP.
type Greedy struct{}

// NewGreedy creates the baseline selector.
func NewGreedy() *Greedy {
	return &Greedy{}
}

type scoredEdge struct {
	source, target string
	cost           float64
}

// Solve implements Solver.
func (g *Greedy) Solve(ctx context.Context, req Request, onProgress ProgressFunc) (*graph.TrackingGraph, error) {
	ApplyAnnotations(req)

	if onProgress != nil {
		onProgress(fmt.Sprintf("scoring %d candidate edges", len(req.Graph.Edges())))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	maxChildren := req.Params.MaxChildren
	if maxChildren < 1 {
		maxChildren = 1
	}

	endpoint := make(map[string]bool)
	for _, id := range req.ForcedEndpoints {
		endpoint[id] = true
	}

	// Partition edges: forced-in pins go first unconditionally, the
	// rest are ranked by cost and only taken while profitable.
	var forced, open []scoredEdge
	for _, edge := range req.Graph.Edges() {
		attrs, _ := req.Graph.Edge(edge[0], edge[1])
		if attrs.Pinned != nil {
			if *attrs.Pinned {
				forced = append(forced, scoredEdge{source: edge[0], target: edge[1]})
			}
			continue
		}
		if endpoint[edge[0]] {
			continue
		}
		open = append(open, scoredEdge{
			source: edge[0],
			target: edge[1],
			cost:   edgeCost(req.Params, attrs.Distance, attrs.IOU),
		})
	}
	sort.Slice(open, func(i, j int) bool { return open[i].cost < open[j].cost })

	if onProgress != nil {
		onProgress("selecting edges")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outDegree := make(map[string]int)
	hasParent := make(map[string]bool)
	var selected []scoredEdge

	take := func(e scoredEdge) {
		selected = append(selected, e)
		outDegree[e.source]++
		hasParent[e.target] = true
	}

	// Pins that cannot all hold make the problem infeasible; report
	// that instead of handing extraction a malformed solution.
	for _, e := range forced {
		if hasParent[e.target] {
			return nil, fmt.Errorf("infeasible pins: node %s has more than one pinned parent", e.target)
		}
		if outDegree[e.source] >= maxChildren {
			return nil, fmt.Errorf("infeasible pins: node %s exceeds %d children", e.source, maxChildren)
		}
		take(e)
	}
	for _, e := range open {
		if e.cost > 0 {
			break
		}
		if hasParent[e.target] || outDegree[e.source] >= maxChildren {
			continue
		}
		// A second child means a division; without a forced fork it must
		// pay the division cost.
		if outDegree[e.source] == 1 {
			fork, _ := req.Graph.Node(e.source)
			if !fork.Fork && req.Params.DivisionCost != nil && e.cost+*req.Params.DivisionCost > 0 {
				continue
			}
		}
		take(e)
	}

	if onProgress != nil {
		onProgress(fmt.Sprintf("selected %d edges", len(selected)))
	}

	// All detections are kept; the selected subgraph carries the
	// original annotations so they survive re-extraction.
	solution := graph.NewTrackingGraph()
	for _, id := range req.Graph.NodeIDs() {
		attrs, _ := req.Graph.Node(id)
		solution.AddNode(id, *attrs)
	}
	for _, e := range selected {
		attrs, _ := req.Graph.Edge(e.source, e.target)
		solution.AddEdge(e.source, e.target, *attrs)
	}

	return solution, nil
}

// edgeCost mirrors the cost terms the external solver would use for a
// single edge: weighted distance plus weighted overlap, each term
// disabled when its weight is nil.
func edgeCost(params Params, distance, iou float64) float64 {
	cost := 0.0
	if params.DistanceWeight != nil {
		cost += distance * *params.DistanceWeight
		if params.DistanceOffset != nil {
			cost += *params.DistanceOffset
		}
	}
	if params.IOUWeight != nil && iou > 0 {
		cost += iou * *params.IOUWeight
		if params.IOUOffset != nil {
			cost += *params.IOUOffset
		}
	}
	return cost
}
