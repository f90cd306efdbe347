package mtree

import (
	"math"

	"github.com/hupe1980/metrigo/point"
	"github.com/hupe1980/metrigo/step"
)

// Insert adds p to the tree, splitting nodes as needed, and reclassifies p
// as a regular object in the backing store.
func (t *MTree) Insert(p point.Point, rec *step.Recorder) error {
	p.Kind = point.KindObject
	rec.Activate(t.PointIDs()...)

	if t.root == nilNode {
		t.root = t.newLeaf([]point.Point{p})
	} else {
		leaf, parentDist := t.findLeaf(p, rec)
		n := &t.nodes[leaf]
		if len(n.leaves) < t.capacity {
			n.leaves = append(n.leaves, leafRecord{Point: p, ParentDist: parentDist})
		} else {
			t.splitLeaf(leaf, p, rec)
			// Splits replace pivots; every parent distance is recomputed
			// before returning.
			t.refreshParentDist(t.root, nil)
		}
	}

	if t.store != nil {
		if err := t.store.Update(p); err != nil {
			if addErr := t.store.Add(p); addErr != nil {
				return addErr
			}
		}
	}

	rec.Include(p.ID)
	rec.Commit()
	return nil
}

// findLeaf descends from the root to the leaf that should receive p.
//
// At each routing node the new point's distance to every routing pivot is
// computed. If any region already covers the point, the covering pivot with
// minimum distance is chosen; otherwise the pivot requiring the smallest
// radius increase is chosen and its radius enlarged to cover the point.
// The returned float is the distance from p to the chosen leaf's parent
// pivot (-1 when the leaf is the root).
func (t *MTree) findLeaf(p point.Point, rec *step.Recorder) (nodeID, float64) {
	cur := t.root
	parentDist := -1.0

	for t.nodes[cur].kind == routingKind {
		n := &t.nodes[cur]

		coverIdx := -1
		coverDist := math.Inf(1)
		growIdx := -1
		growDist := math.Inf(1)
		growInc := math.Inf(1)

		for i := range n.routing {
			rr := &n.routing[i]
			d := t.fn(p, rr.Pivot)
			rec.Edge(p, rr.Pivot, d, step.DecisionKnownDistance)
			if d <= rr.Radius {
				if d < coverDist {
					coverDist = d
					coverIdx = i
				}
			} else if inc := d - rr.Radius; inc < growInc {
				growInc = inc
				growDist = d
				growIdx = i
			}
		}

		var idx int
		if coverIdx >= 0 {
			idx = coverIdx
			parentDist = coverDist
		} else {
			idx = growIdx
			parentDist = growDist
			rr := &n.routing[idx]
			rr.Radius = math.Max(rr.Radius, growDist)
		}

		rec.Circle(n.routing[idx].Pivot, n.routing[idx].Radius, step.DecisionInclusion)
		cur = n.routing[idx].Child
		rec.Commit()
	}

	return cur, parentDist
}

// splitLeaf splits a full leaf holding the extra point: two pivots are
// promoted, the points partitioned, the original node keeps group one and a
// fresh sibling receives group two. The split pair then propagates upward.
func (t *MTree) splitLeaf(id nodeID, extra point.Point, rec *step.Recorder) {
	pts := make([]point.Point, 0, len(t.nodes[id].leaves)+1)
	for _, lr := range t.nodes[id].leaves {
		pts = append(pts, lr.Point)
	}
	pts = append(pts, extra)

	p1, p2 := t.promote(pts)
	g1, g2 := t.partition(pts, p1, p2)
	if len(g2) == 0 {
		// Coincident promoted pivots; keep both halves non-empty.
		g1, g2 = g1[:len(g1)-1], g1[len(g1)-1:]
	}

	sib := t.newNode(leafKind, nilNode)
	t.nodes[id].leaves = leafRecords(t.fn, g1, p1)
	t.nodes[sib].leaves = leafRecords(t.fn, g2, p2)

	r1 := maxDist(t.fn, p1, g1)
	r2 := maxDist(t.fn, p2, g2)
	rec.Circle(p1, r1, step.DecisionInclusion)
	rec.Circle(p2, r2, step.DecisionInclusion)

	t.insertSplit(id, p1, r1, sib, p2, r2, rec)
}

// insertSplit installs a freshly split node pair into the parent of orig,
// recursively splitting each ancestor that is full until one with spare
// capacity is found or a new root is created.
func (t *MTree) insertSplit(orig nodeID, p1 point.Point, r1 float64, sib nodeID, p2 point.Point, r2 float64, rec *step.Recorder) {
	parent := t.nodes[orig].parent

	if parent == nilNode {
		root := t.newNode(routingKind, nilNode)
		t.nodes[root].routing = []routingRecord{
			{Pivot: p1, Radius: r1, Child: orig},
			{Pivot: p2, Radius: r2, Child: sib},
		}
		t.nodes[orig].parent = root
		t.nodes[sib].parent = root
		t.root = root
		return
	}

	pn := &t.nodes[parent]
	idx := recordIndexOf(pn, orig)
	pn.routing[idx] = routingRecord{Pivot: p1, Radius: r1, Child: orig}

	if len(pn.routing) < t.capacity {
		pn.routing = append(pn.routing, routingRecord{Pivot: p2, Radius: r2, Child: sib})
		t.nodes[sib].parent = parent
		return
	}

	t.splitRouting(parent, routingRecord{Pivot: p2, Radius: r2, Child: sib}, rec)
}

// splitRouting splits a full routing node holding the extra record, then
// propagates the resulting pair further upward through insertSplit.
func (t *MTree) splitRouting(id nodeID, extra routingRecord, rec *step.Recorder) {
	records := make([]routingRecord, 0, len(t.nodes[id].routing)+1)
	records = append(records, t.nodes[id].routing...)
	records = append(records, extra)

	pivots := make([]point.Point, len(records))
	for i, rr := range records {
		pivots[i] = rr.Pivot
	}
	p1, p2 := t.promote(pivots)

	var g1, g2 []routingRecord
	for _, rr := range records {
		if t.fn(rr.Pivot, p1) <= t.fn(rr.Pivot, p2) {
			g1 = append(g1, rr)
		} else {
			g2 = append(g2, rr)
		}
	}
	if len(g2) == 0 {
		g1, g2 = g1[:len(g1)-1], g1[len(g1)-1:]
	}

	sib := t.newNode(routingKind, nilNode)
	t.nodes[id].routing = g1
	t.nodes[sib].routing = g2
	for _, rr := range g1 {
		t.nodes[rr.Child].parent = id
	}
	for _, rr := range g2 {
		t.nodes[rr.Child].parent = sib
	}

	r1 := t.coveringRadius(p1, id)
	r2 := t.coveringRadius(p2, sib)

	t.insertSplit(id, p1, r1, sib, p2, r2, rec)
}

// recordIndexOf returns the index of the routing record pointing at child.
func recordIndexOf(n *node, child nodeID) int {
	for i := range n.routing {
		if n.routing[i].Child == child {
			return i
		}
	}
	return -1
}

func leafRecords(fn func(a, b point.Point) float64, pts []point.Point, pivot point.Point) []leafRecord {
	out := make([]leafRecord, 0, len(pts))
	for _, p := range pts {
		out = append(out, leafRecord{Point: p, ParentDist: fn(p, pivot)})
	}
	return out
}

func maxDist(fn func(a, b point.Point) float64, pivot point.Point, pts []point.Point) float64 {
	radius := 0.0
	for _, p := range pts {
		if d := fn(pivot, p); d > radius {
			radius = d
		}
	}
	return radius
}
