package lineage

import (
	"github.com/AnniekStok/track-curator/pkg/graph"
)

// ExistingPins returns the edges of a solved graph that carry a true pin
// attribute. False pins are not recoverable: an edge pinned false is
// excluded by the solver and therefore absent from the solved graph.
func ExistingPins(g *graph.TrackingGraph) [][2]string {
	var pinned [][2]string
	for _, edge := range g.Edges() {
		attrs, ok := g.Edge(edge[0], edge[1])
		if ok && attrs.Pinned != nil && *attrs.Pinned {
			pinned = append(pinned, edge)
		}
	}
	return pinned
}

// ExistingForksEndpoints returns the node ids of a solved graph that
// carry a fork or endpoint annotation from a previous session.
func ExistingForksEndpoints(g *graph.TrackingGraph) (forks, endpoints []string) {
	for _, id := range g.NodeIDs() {
		attrs, _ := g.Node(id)
		if attrs.Fork {
			forks = append(forks, id)
		}
		if attrs.Endpoint {
			endpoints = append(endpoints, id)
		}
	}
	return forks, endpoints
}

// LineageTree returns every node reachable from start via forward edges,
// including start itself. This is the descendant set used by the lineage
// display filter.
func LineageTree(g *graph.TrackingGraph, start string) []string {
	if _, ok := g.Node(start); !ok {
		return nil
	}
	var descendants []string
	visited := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		descendants = append(descendants, id)
		for _, succ := range g.Successors(id) {
			if !visited[succ] {
				visited[succ] = true
				queue = append(queue, succ)
			}
		}
	}
	return descendants
}
