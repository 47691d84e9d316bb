package graph

import (
	"github.com/AnniekStok/track-curator/pkg/model"
)

// Validate checks the preconditions a solved graph must satisfy before
// lineage extraction: every node carries time and position attributes,
// no node has more than one predecessor, and the link structure is
// acyclic. The first violation found is returned as an
// InvalidGraphError; a nil return means the graph is safe to extract.
func (tg *TrackingGraph) Validate() error {
	for _, id := range tg.order {
		attrs := tg.nodes[id]
		if attrs == nil || len(attrs.Position) < 2 || len(attrs.Position) > 3 {
			return &model.InvalidGraphError{NodeID: id, Reason: "missing or malformed position attribute"}
		}
		if attrs.T < 0 {
			return &model.InvalidGraphError{NodeID: id, Reason: "negative time attribute"}
		}
		if d := tg.InDegree(id); d > 1 {
			return &model.InvalidGraphError{NodeID: id, Reason: "more than one predecessor"}
		}
	}
	if id, cyclic := tg.findCycle(); cyclic {
		return &model.InvalidGraphError{NodeID: id, Reason: "cycle in temporal links"}
	}
	// Links must move forward in time; chain sorting and parent
	// assignment during extraction rely on it.
	for _, edge := range tg.Edges() {
		if tg.nodes[edge[0]].T >= tg.nodes[edge[1]].T {
			return &model.InvalidGraphError{NodeID: edge[0], Reason: "link does not move forward in time"}
		}
	}
	return nil
}

const (
	colorWhite = iota // unvisited
	colorGray         // on the current DFS path
	colorBlack        // fully explored
)

// findCycle runs an iterative three-color DFS over the whole graph and
// returns a node on the first back edge found.
func (tg *TrackingGraph) findCycle() (string, bool) {
	colors := make(map[string]int, len(tg.order))

	for _, start := range tg.order {
		if colors[start] != colorWhite {
			continue
		}

		type frame struct {
			id   string
			next int
		}
		stack := []frame{{id: start}}
		colors[start] = colorGray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			succs := tg.Successors(top.id)
			if top.next < len(succs) {
				succ := succs[top.next]
				top.next++
				switch colors[succ] {
				case colorGray:
					return succ, true
				case colorWhite:
					colors[succ] = colorGray
					stack = append(stack, frame{id: succ})
				}
				continue
			}
			colors[top.id] = colorBlack
			stack = stack[:len(stack)-1]
		}
	}
	return "", false
}
