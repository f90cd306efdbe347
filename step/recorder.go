package step

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/metrigo/point"
)

// Recorder accumulates the decision records of a single algorithm run and
// snapshots them into Steps at each suspension point.
//
// A Recorder is exclusively owned by its run and is not safe for concurrent
// use.
type Recorder struct {
	active     *roaring.Bitmap
	eliminated *roaring.Bitmap
	result     *roaring.Bitmap

	edges   []Edge
	circles []Circle

	steps []Step
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		active:     roaring.New(),
		eliminated: roaring.New(),
		result:     roaring.New(),
	}
}

// Activate marks the given point IDs as active candidates.
func (r *Recorder) Activate(ids ...uint32) {
	r.active.AddMany(ids)
}

// Eliminate moves the given point IDs from the active set to the eliminated
// set.
func (r *Recorder) Eliminate(ids ...uint32) {
	for _, id := range ids {
		r.active.Remove(id)
		r.result.Remove(id)
		r.eliminated.Add(id)
	}
}

// Include moves a point ID from the active set into the result set.
func (r *Recorder) Include(id uint32) {
	r.active.Remove(id)
	r.eliminated.Remove(id)
	r.result.Add(id)
}

// Exclude evicts a previously included point ID, marking it eliminated.
// Used when a better candidate displaces a collector entry.
func (r *Recorder) Exclude(id uint32) {
	r.result.Remove(id)
	r.eliminated.Add(id)
}

// Edge records a distance edge for the pending step.
func (r *Recorder) Edge(from, to point.Point, d float64, decision Decision) {
	r.edges = append(r.edges, Edge{From: from, To: to, Distance: d, Decision: decision})
}

// Circle records a boundary circle for the pending step.
func (r *Recorder) Circle(center point.Point, radius float64, decision Decision) {
	r.circles = append(r.circles, Circle{Center: center, Radius: radius, Decision: decision})
}

// Commit snapshots the current sets and the pending edges and circles into
// a new immutable Step and clears the pending records.
func (r *Recorder) Commit() {
	s := Step{
		Index:      len(r.steps),
		Active:     r.active.Clone(),
		Eliminated: r.eliminated.Clone(),
		Result:     r.result.Clone(),
		Edges:      r.edges,
		Circles:    r.circles,
	}
	r.edges = nil
	r.circles = nil
	r.steps = append(r.steps, s)
}

// Trace seals the recorder into a Trace. If pending records remain, a final
// terminal step is committed first.
func (r *Recorder) Trace() *Trace {
	if len(r.edges) > 0 || len(r.circles) > 0 || len(r.steps) == 0 {
		r.Commit()
	}
	return &Trace{steps: r.steps}
}
