package mtree

import (
	"math"
	"sort"

	"github.com/hupe1980/metrigo/index"
	"github.com/hupe1980/metrigo/point"
	"github.com/hupe1980/metrigo/step"
)

// Range returns all points within radius r of q.
//
// The search descends recursively with the (parent pivot, parent distance)
// context: routing records whose parent-distance lower bound exceeds
// r + radius are skipped without a distance computation, subtrees farther
// than r + radius are eliminated wholesale, and leaf records are tested
// exactly only when their lower bound is within r.
func (t *MTree) Range(q point.Point, r float64, rec *step.Recorder) ([]index.Result, error) {
	if r < 0 {
		return nil, index.ErrInvalidRadius
	}

	rec.Activate(t.PointIDs()...)
	rec.Circle(q, r, step.DecisionQueryBoundary)

	if t.root == nilNode {
		rec.Commit()
		return nil, nil
	}

	var results []index.Result
	t.rangeNode(t.root, q, r, -1, rec, &results)

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Point.ID < results[j].Point.ID
	})
	return results, nil
}

// rangeNode visits one node; dp is the distance from q to the node's parent
// pivot (-1 at the root).
func (t *MTree) rangeNode(id nodeID, q point.Point, r, dp float64, rec *step.Recorder, results *[]index.Result) {
	n := &t.nodes[id]

	if n.kind == routingKind {
		for i := range n.routing {
			rr := n.routing[i]

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
			if d <= r+rr.Radius {
				rec.Circle(rr.Pivot, rr.Radius, step.DecisionInclusion)
				t.rangeNode(rr.Child, q, r, d, rec, results)
			} else {
				rec.Circle(rr.Pivot, rr.Radius, step.DecisionElimination)
				rec.Eliminate(t.subtreeIDs(rr.Child)...)
			}
		}
	} else {
		for _, lr := range n.leaves {
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
			if d <= r {
				*results = append(*results, index.Result{Point: lr.Point, Distance: d})
				rec.Include(lr.Point.ID)
				rec.Edge(q, lr.Point, d, step.DecisionInclusion)
			} else {
				rec.Eliminate(lr.Point.ID)
			}
		}
	}

	rec.Commit()
}
