// Package step provides the decision records emitted by the indexing
// algorithms.
//
// Every algorithm run is expressed as a finite sequence of Step snapshots.
// Each snapshot captures the candidate sets and the distance edges and
// boundary circles the algorithm produced since the previous suspension
// point, tagged with the decision kind that produced them. The tagging is
// part of the algorithm's semantic contract, not a rendering hint.
package step

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/metrigo/point"
)

// Decision classifies why an edge or circle was produced.
type Decision int

// Constants representing the decision kinds.
const (
	// DecisionKnownDistance tags an exactly computed distance.
	DecisionKnownDistance Decision = iota

	// DecisionEstimatedDistance tags a distance known only as a bound,
	// such as an M-Tree pivot admitted at its dmax upper bound.
	DecisionEstimatedDistance

	// DecisionElimination tags a candidate (or whole subtree) discarded
	// without computing its exact distance to the query.
	DecisionElimination

	// DecisionInclusion tags a candidate admitted into the result set or
	// the bounded nearest-neighbor collector.
	DecisionInclusion

	// DecisionQueryBoundary tags the query radius circle of a range search.
	DecisionQueryBoundary

	// DecisionKthBoundary tags the current k-th nearest distance circle.
	DecisionKthBoundary

	// DecisionLowerBound tags a triangle-inequality lower bound.
	DecisionLowerBound
)

// String returns a string representation of the Decision.
func (d Decision) String() string {
	switch d {
	case DecisionKnownDistance:
		return "KnownDistance"
	case DecisionEstimatedDistance:
		return "EstimatedDistance"
	case DecisionElimination:
		return "Elimination"
	case DecisionInclusion:
		return "Inclusion"
	case DecisionQueryBoundary:
		return "QueryBoundary"
	case DecisionKthBoundary:
		return "KthBoundary"
	case DecisionLowerBound:
		return "LowerBound"
	default:
		return fmt.Sprintf("Unknown(%d)", int(d))
	}
}

// Edge is a distance edge between two points, tagged with the decision that
// produced it.
type Edge struct {
	From     point.Point
	To       point.Point
	Distance float64
	Decision Decision
}

// Circle is a boundary circle, tagged with the decision that produced it.
type Circle struct {
	Center   point.Point
	Radius   float64
	Decision Decision
}

// Step is an immutable snapshot emitted at a suspension point. It is never
// mutated after creation.
type Step struct {
	// Index is the position of the step within its run, starting at 0.
	Index int

	// Active holds the IDs of candidates still under consideration.
	Active *roaring.Bitmap

	// Eliminated holds the IDs of candidates discarded by pruning or
	// rejection.
	Eliminated *roaring.Bitmap

	// Result holds the IDs of the currently admitted result points. In the
	// terminal step this is the answer set.
	Result *roaring.Bitmap

	// Edges are the distance edges produced since the previous step.
	Edges []Edge

	// Circles are the boundary circles produced since the previous step.
	Circles []Circle
}
