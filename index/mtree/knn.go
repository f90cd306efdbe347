package mtree

import (
	"math"

	"github.com/hupe1980/metrigo/index"
	"github.com/hupe1980/metrigo/internal/queue"
	"github.com/hupe1980/metrigo/point"
	"github.com/hupe1980/metrigo/step"
)

// KNN performs a best-first k-nearest-neighbor search.
//
// A frontier of (node, dmin) pairs is processed in ascending dmin order
// while the collector bound r shrinks. Routing records are skipped without
// a distance computation when the parent-distance lower bound exceeds
// r + radius; subtrees whose dmin exceeds r are eliminated wholesale, and
// pivots whose dmax is within r are provisionally admitted at that upper
// bound.
func (t *MTree) KNN(q point.Point, k int, rec *step.Recorder) ([]index.Result, error) {
	if k <= 0 {
		return nil, index.ErrInvalidK
	}

	rec.Activate(t.PointIDs()...)
	col := index.NewCollector(k)

	if t.root == nilNode {
		rec.Commit()
		return nil, nil
	}

	frontier := queue.NewMin(16)
	frontier.PushItem(queue.Item{Node: int32(t.root), Distance: 0})

	// queryDist[n] is the distance from q to node n's parent pivot,
	// established when n is pushed; -1 for the root (no parent pivot).
	queryDist := map[nodeID]float64{t.root: -1}

	for frontier.Len() > 0 {
		item, _ := frontier.PopItem()
		id := nodeID(item.Node)
		dp := queryDist[id]
		n := &t.nodes[id]

		if n.kind == routingKind {
			for i := range n.routing {
				rr := n.routing[i]
				r := col.Bound()

				if dp >= 0 {
					lb := math.Abs(dp - rr.ParentDist)
					if lb > r+rr.Radius {
						rec.Edge(q, rr.Pivot, lb, step.DecisionLowerBound)
						rec.Circle(rr.Pivot, rr.Radius, step.DecisionElimination)
						rec.Eliminate(t.subtreeIDs(rr.Child)...)
						continue
					}
				}

				d := t.fn(q, rr.Pivot)
				rec.Edge(q, rr.Pivot, d, step.DecisionKnownDistance)

				dmin := math.Max(0, d-rr.Radius)
				dmax := d + rr.Radius

				if dmin <= r {
					frontier.PushItem(queue.Item{Node: int32(rr.Child), Distance: dmin})
					queryDist[rr.Child] = d
					rec.Circle(rr.Pivot, rr.Radius, step.DecisionInclusion)
				} else {
					rec.Circle(rr.Pivot, rr.Radius, step.DecisionElimination)
					rec.Eliminate(t.subtreeIDs(rr.Child)...)
				}

				if dmax <= r {
					rec.Edge(q, rr.Pivot, dmax, step.DecisionEstimatedDistance)
					t.offer(col, q, index.Result{Point: rr.Pivot, Distance: dmax}, frontier, rec)
				}
			}
		} else {
			for _, lr := range n.leaves {
				r := col.Bound()

				if dp >= 0 {
					lb := math.Abs(dp - lr.ParentDist)
					if lb > r {
						rec.Edge(q, lr.Point, lb, step.DecisionElimination)
						rec.Eliminate(lr.Point.ID)
						continue
					}
				}

				d := t.fn(q, lr.Point)
				rec.Edge(q, lr.Point, d, step.DecisionKnownDistance)
				if !t.offer(col, q, index.Result{Point: lr.Point, Distance: d}, frontier, rec) {
					rec.Eliminate(lr.Point.ID)
				}
			}
		}

		rec.Commit()
	}

	// Provisional dmax admissions that were displaced have already been
	// excluded; align the terminal result set with the collector.
	results := col.Results()
	for _, r := range results {
		rec.Include(r.Point.ID)
	}
	rec.Commit()

	return results, nil
}

// offer admits a candidate into the collector and, when the bound shrinks,
// drops every frontier entry whose dmin now exceeds it, eliminating the
// corresponding subtrees.
func (t *MTree) offer(col *index.Collector, q point.Point, r index.Result, frontier *queue.PriorityQueue, rec *step.Recorder) bool {
	evicted, changed := col.Offer(r)
	if !changed {
		return false
	}

	rec.Include(r.Point.ID)
	rec.Edge(q, r.Point, r.Distance, step.DecisionInclusion)
	if evicted != nil {
		rec.Exclude(evicted.Point.ID)
	}

	bound := col.Bound()
	if !math.IsInf(bound, 1) {
		rec.Circle(q, bound, step.DecisionKthBoundary)
		for _, dropped := range frontier.Prune(bound) {
			rec.Eliminate(t.subtreeIDs(nodeID(dropped.Node))...)
		}
	}
	return true
}
