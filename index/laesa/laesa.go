// Package laesa implements the LAESA indexing method: a pivot-reduced
// distance cache with a two-phase pruning search.
//
// LAESA stores only the distances from a small set of designated pivots to
// every point, reducing the cache from O(n^2) to O(k*n) entries. Insertion
// computes exactly |pivots| distances. Search computes the exact distance
// to every pivot first, then processes the remaining points in ascending
// order of their pivot-derived lower bounds, stopping as soon as the bound
// proves the rest unreachable.
package laesa

import (
	"errors"
	"math"
	"sort"

	"github.com/hupe1980/metrigo/distance"
	"github.com/hupe1980/metrigo/index"
	"github.com/hupe1980/metrigo/point"
	"github.com/hupe1980/metrigo/step"
)

// Compile-time check to ensure LAESA satisfies the index interface.
var _ index.Index = (*LAESA)(nil)

var (
	// ErrNilStore is returned when no point store is supplied.
	ErrNilStore = errors.New("laesa: nil point store")

	// ErrNoPivots is returned when the store has no designated pivots.
	ErrNoPivots = errors.New("laesa: store has no designated pivots")
)

// LAESA is the pivot-reduced indexing method.
type LAESA struct {
	store *point.Store
	cache *distance.Cache
	fn    distance.Func
}

// New creates a LAESA index over the given store and precomputes the
// distances from every designated pivot to every other point.
func New(store *point.Store, fn distance.Func) (*LAESA, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if len(store.Pivots()) == 0 {
		return nil, ErrNoPivots
	}

	cache := distance.NewCache(fn)
	cache.Initialize(store)

	return &LAESA{
		store: store,
		cache: cache,
		fn:    fn,
	}, nil
}

// Cache exposes the backing distance cache for diagnostics and tests.
func (l *LAESA) Cache() *distance.Cache {
	return l.cache
}

// Clone returns a deep copy of the index bound to the given cloned store.
func (l *LAESA) Clone(store *point.Store) index.Index {
	return &LAESA{
		store: store,
		cache: l.cache.Clone(),
		fn:    l.fn,
	}
}

// Insert adds p to the index by computing its distance to every pivot only,
// then reclassifies p as a regular object.
func (l *LAESA) Insert(p point.Point, rec *step.Recorder) error {
	for _, o := range l.store.NonQuery() {
		rec.Activate(o.ID)
	}

	for _, pv := range l.store.Pivots() {
		d := l.cache.Request(p, pv)
		rec.Edge(p, pv, d, step.DecisionKnownDistance)
		rec.Commit()
	}

	p.Kind = point.KindObject
	if err := l.store.Update(p); err != nil {
		if addErr := l.store.Add(p); addErr != nil {
			return addErr
		}
	}
	rec.Include(p.ID)
	rec.Commit()
	return nil
}

// candidate is a non-pivot point with its pivot-derived lower bound.
type candidate struct {
	point point.Point
	lb    float64
}

// KNN performs a two-phase k-nearest-neighbor search.
func (l *LAESA) KNN(q point.Point, k int, rec *step.Recorder) ([]index.Result, error) {
	if k <= 0 {
		return nil, index.ErrInvalidK
	}

	col := index.NewCollector(k)
	pivotDist := l.pivotPhase(q, rec, func(p point.Point, d float64) bool {
		return l.offer(col, q, p, d, rec)
	}, col.Bound)

	cands := l.lowerBounds(q, pivotDist, rec)

	for i, cd := range cands {
		// Candidates are sorted ascending by lower bound: once the k-th
		// distance is within the next bound, the whole tail is
		// unreachable.
		if col.Full() && col.Bound() <= cd.lb {
			for _, rest := range cands[i:] {
				rec.Edge(q, rest.point, rest.lb, step.DecisionElimination)
				rec.Eliminate(rest.point.ID)
			}
			rec.Commit()
			break
		}

		d := l.cache.Request(q, cd.point)
		rec.Edge(q, cd.point, d, step.DecisionKnownDistance)
		if !l.offer(col, q, cd.point, d, rec) {
			rec.Eliminate(cd.point.ID)
		}
		if b := col.Bound(); !math.IsInf(b, 1) {
			rec.Circle(q, b, step.DecisionKthBoundary)
		}
		rec.Commit()
	}

	return col.Results(), nil
}

// Range returns all points within radius r of q.
func (l *LAESA) Range(q point.Point, r float64, rec *step.Recorder) ([]index.Result, error) {
	if r < 0 {
		return nil, index.ErrInvalidRadius
	}

	var results []index.Result
	admit := func(p point.Point, d float64) bool {
		if d > r {
			return false
		}
		results = append(results, index.Result{Point: p, Distance: d})
		rec.Include(p.ID)
		rec.Edge(q, p, d, step.DecisionInclusion)
		return true
	}

	rec.Circle(q, r, step.DecisionQueryBoundary)
	pivotDist := l.pivotPhase(q, rec, admit, func() float64 { return r })

	for _, cd := range l.lowerBounds(q, pivotDist, rec) {
		if cd.lb > r {
			rec.Edge(q, cd.point, cd.lb, step.DecisionElimination)
			rec.Eliminate(cd.point.ID)
			rec.Commit()
			continue
		}

		d := l.cache.Request(q, cd.point)
		rec.Edge(q, cd.point, d, step.DecisionKnownDistance)
		if !admit(cd.point, d) {
			rec.Eliminate(cd.point.ID)
		}
		rec.Commit()
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Point.ID < results[j].Point.ID
	})
	return results, nil
}

// pivotPhase computes the exact distance from q to every pivot, admitting
// each through admit. It returns the distances keyed by pivot ID.
func (l *LAESA) pivotPhase(q point.Point, rec *step.Recorder, admit func(p point.Point, d float64) bool, bound func() float64) map[uint32]float64 {
	for _, p := range l.store.NonQuery() {
		rec.Activate(p.ID)
	}

	pivotDist := make(map[uint32]float64)
	for _, pv := range l.store.Pivots() {
		d := l.cache.Request(q, pv)
		pivotDist[pv.ID] = d
		rec.Edge(q, pv, d, step.DecisionKnownDistance)
		if !admit(pv, d) {
			rec.Eliminate(pv.ID)
		}
		if b := bound(); !math.IsInf(b, 1) {
			rec.Circle(q, b, step.DecisionKthBoundary)
		}
		rec.Commit()
	}
	return pivotDist
}

// lowerBounds derives the best lower bound for every non-pivot point from
// the cached pivot rows and returns the candidates sorted ascending by
// bound (ties broken by ID for determinism).
func (l *LAESA) lowerBounds(q point.Point, pivotDist map[uint32]float64, rec *step.Recorder) []candidate {
	pivots := l.store.Pivots()

	var cands []candidate
	for _, o := range l.store.Objects() {
		lb := 0.0
		for _, pv := range pivots {
			cached := l.cache.Lookup(o.ID, pv.ID)
			if cached == distance.Unknown {
				continue
			}
			if v := math.Abs(pivotDist[pv.ID] - cached); v > lb {
				lb = v
			}
		}
		cands = append(cands, candidate{point: o, lb: lb})
		rec.Edge(q, o, lb, step.DecisionLowerBound)
	}

	sort.Slice(cands, func(i, j int) bool {
		if cands[i].lb != cands[j].lb {
			return cands[i].lb < cands[j].lb
		}
		return cands[i].point.ID < cands[j].point.ID
	})

	rec.Commit()
	return cands
}

// offer admits a point into the collector, recording the decision.
func (l *LAESA) offer(col *index.Collector, q, p point.Point, d float64, rec *step.Recorder) bool {
	evicted, changed := col.Offer(index.Result{Point: p, Distance: d})
	if changed {
		rec.Include(p.ID)
		rec.Edge(q, p, d, step.DecisionInclusion)
		if evicted != nil {
			rec.Exclude(evicted.Point.ID)
		}
	}
	return changed
}
