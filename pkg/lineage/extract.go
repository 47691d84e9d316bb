// Package lineage turns a solved tracking graph into the ordered row set
// of the track table: chains split at divisions, track ids, parent
// links, and the left-first column layout of the lineage tree plot.
package lineage

import (
	"sort"

	"github.com/AnniekStok/track-curator/pkg/graph"
	"github.com/AnniekStok/track-curator/pkg/model"
)

// ColorFunc maps a track id to its display color.
type ColorFunc func(trackID int) model.RGBA

// trackRelation records the parent track of each chain, in discovery
// order, for the column layout.
type trackRelation struct {
	trackID       int
	parentTrackID int
}

// ExtractSortedTracks converts a solved graph into track table rows.
//
// Chains are the weakly connected components left after removing the
// outgoing edges of every division node (out-degree > 1 is the sole
// division criterion; a "division" with one child is an ordinary chain
// member). Track ids are assigned 1..K in component discovery order,
// which follows node insertion order; the order is deterministic here
// but implementation-defined, only uniqueness may be relied upon.
//
// Extraction is all-or-nothing: a precondition violation returns an
// InvalidGraphError and no rows.
func ExtractSortedTracks(g *graph.TrackingGraph, colorFn ColorFunc) ([]*model.TrackNode, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if g.Len() == 0 {
		return []*model.TrackNode{}, nil
	}

	// Reduced adjacency: sever every division from its children.
	reducedSucc := make(map[string][]string)
	reducedPred := make(map[string][]string)
	for _, id := range g.NodeIDs() {
		succs := g.Successors(id)
		if len(succs) > 1 {
			continue
		}
		for _, succ := range succs {
			reducedSucc[id] = append(reducedSucc[id], succ)
			reducedPred[succ] = append(reducedPred[succ], id)
		}
	}

	// Collect chains as weakly connected components of the reduced graph
	// and assign track ids in discovery order.
	var chains [][]string
	nodeTrack := make(map[string]int)
	visited := make(map[string]bool)
	for _, start := range g.NodeIDs() {
		if visited[start] {
			continue
		}
		chain := collectComponent(start, reducedSucc, reducedPred, visited)
		sort.Slice(chain, func(i, j int) bool {
			ti, _ := g.Node(chain[i])
			tj, _ := g.Node(chain[j])
			return ti.T < tj.T
		})
		trackID := len(chains) + 1
		for _, id := range chain {
			nodeTrack[id] = trackID
		}
		chains = append(chains, chain)
	}

	// Build rows. Parent track ids resolve against the full assignment,
	// so chain discovery order does not matter here.
	var rows []*model.TrackNode
	var relations []trackRelation
	for i, chain := range chains {
		trackID := i + 1
		parentTrackID := model.RootTrackID
		for j, id := range chain {
			attrs, _ := g.Node(id)
			node := &model.TrackNode{
				NodeID:   id,
				T:        attrs.T,
				Position: attrs.Position,
				TrackID:  trackID,
				Color:    colorFn(trackID),
				State:    model.StateNone,
				Symbol:   model.SymbolCircle,
			}
			if j > 0 {
				node.ParentID = chain[j-1]
				node.ParentTrackID = trackID
			} else if preds := g.Predecessors(id); len(preds) == 1 {
				node.ParentID = preds[0]
				node.ParentTrackID = nodeTrack[preds[0]]
				parentTrackID = node.ParentTrackID
			} else {
				node.ParentID = model.NoParent
				node.ParentTrackID = model.RootTrackID
			}
			rows = append(rows, node)
		}
		relations = append(relations, trackRelation{trackID: trackID, parentTrackID: parentTrackID})
	}

	// Column layout: every node takes its track's column.
	columns := make(map[int]int)
	for col, trackID := range sortTrackIDs(relations) {
		columns[trackID] = col
	}
	for _, node := range rows {
		node.XAxisPos = columns[node.TrackID]
	}

	return rows, nil
}

// collectComponent gathers the weakly connected component containing
// start, walking the reduced adjacency in both directions.
func collectComponent(start string, succ, pred map[string][]string, visited map[string]bool) []string {
	var component []string
	queue := []string{start}
	visited[start] = true
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		component = append(component, id)
		for _, next := range succ[id] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
		for _, next := range pred[id] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return component
}

// sortTrackIDs orders tracks left to right for the tree plot. Roots keep
// their discovery order; each track's children are inserted immediately
// after it, preserving discovery order among siblings, so a parent and
// its subtrees always occupy adjacent columns.
func sortTrackIDs(relations []trackRelation) []int {
	children := make(map[int][]int)
	var order, frontier []int
	for _, rel := range relations {
		if rel.parentTrackID == model.RootTrackID {
			order = append(order, rel.trackID)
			frontier = append(frontier, rel.trackID)
		} else {
			children[rel.parentTrackID] = append(children[rel.parentTrackID], rel.trackID)
		}
	}

	for len(frontier) > 0 {
		var next []int
		for _, trackID := range frontier {
			kids := children[trackID]
			if len(kids) == 0 {
				continue
			}
			pos := indexOf(order, trackID)
			order = append(order[:pos+1], append(append([]int{}, kids...), order[pos+1:]...)...)
			next = append(next, kids...)
		}
		frontier = next
	}
	return order
}

func indexOf(order []int, trackID int) int {
	for i, id := range order {
		if id == trackID {
			return i
		}
	}
	return -1
}
