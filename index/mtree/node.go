package mtree

import (
	"github.com/hupe1980/metrigo/point"
)

// nodeID addresses a node within the tree's arena. Nodes form a strict
// tree; they are referenced by stable indices instead of pointers because
// splits restructure nodes destructively.
type nodeID int32

// nilNode marks the absence of a node (empty tree, root parent).
const nilNode nodeID = -1

type nodeKind uint8

const (
	leafKind nodeKind = iota
	routingKind
)

// routingRecord is an entry of a routing node: a pivot with the covering
// radius of its child subtree.
//
// Nesting condition: every point in the subtree rooted at Child lies within
// Radius of Pivot.
type routingRecord struct {
	Pivot      point.Point
	Radius     float64
	Child      nodeID
	ParentDist float64 // distance from Pivot to the parent routing pivot; -1 at the root
}

// leafRecord is an entry of a leaf node.
type leafRecord struct {
	Point      point.Point
	ParentDist float64 // distance from Point to the parent routing pivot; -1 at the root
}

// node is an arena slot. A node exclusively owns its records and,
// transitively, its child nodes.
type node struct {
	kind    nodeKind
	parent  nodeID
	routing []routingRecord // kind == routingKind
	leaves  []leafRecord    // kind == leafKind
}

// newNode appends a fresh node to the arena and returns its ID.
// Arena slots must always be re-addressed by ID after a call, since the
// backing slice may have been reallocated.
func (t *MTree) newNode(kind nodeKind, parent nodeID) nodeID {
	t.nodes = append(t.nodes, node{kind: kind, parent: parent})
	return nodeID(len(t.nodes) - 1)
}

// subtreePoints collects every data point stored in the subtree rooted at id.
func (t *MTree) subtreePoints(id nodeID) []point.Point {
	var out []point.Point
	t.walkPoints(id, func(p point.Point) {
		out = append(out, p)
	})
	return out
}

// subtreeIDs collects every data point ID stored in the subtree rooted at id.
func (t *MTree) subtreeIDs(id nodeID) []uint32 {
	var out []uint32
	t.walkPoints(id, func(p point.Point) {
		out = append(out, p.ID)
	})
	return out
}

func (t *MTree) walkPoints(id nodeID, visit func(p point.Point)) {
	if id == nilNode {
		return
	}
	n := &t.nodes[id]
	if n.kind == leafKind {
		for _, lr := range n.leaves {
			visit(lr.Point)
		}
		return
	}
	for _, rr := range n.routing {
		t.walkPoints(rr.Child, visit)
	}
}

// refreshParentDist recomputes every parentDistance field in the subtree
// rooted at id. parentPivot is nil at the root.
func (t *MTree) refreshParentDist(id nodeID, parentPivot *point.Point) {
	if id == nilNode {
		return
	}
	n := &t.nodes[id]
	if n.kind == leafKind {
		for i := range n.leaves {
			if parentPivot == nil {
				n.leaves[i].ParentDist = -1
			} else {
				n.leaves[i].ParentDist = t.fn(n.leaves[i].Point, *parentPivot)
			}
		}
		return
	}
	for i := range n.routing {
		if parentPivot == nil {
			n.routing[i].ParentDist = -1
		} else {
			n.routing[i].ParentDist = t.fn(n.routing[i].Pivot, *parentPivot)
		}
		pivot := n.routing[i].Pivot
		t.refreshParentDist(n.routing[i].Child, &pivot)
	}
}

// coveringRadius returns the true maximum distance from pivot to any point
// in the subtree rooted at id.
func (t *MTree) coveringRadius(pivot point.Point, id nodeID) float64 {
	radius := 0.0
	t.walkPoints(id, func(p point.Point) {
		if d := t.fn(pivot, p); d > radius {
			radius = d
		}
	})
	return radius
}
