// Package aesa implements the AESA indexing method: a full pairwise
// distance cache combined with a pivot-chaining pruning search.
//
// AESA answers queries with very few distance computations at the price of
// an O(n^2) distance matrix. Insertion computes exactly n distances; search
// eliminates candidates through triangle-inequality lower bounds derived
// from already-cached distances.
package aesa

import (
	"errors"
	"math"
	"math/rand"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/metrigo/distance"
	"github.com/hupe1980/metrigo/index"
	"github.com/hupe1980/metrigo/point"
	"github.com/hupe1980/metrigo/step"
)

// Compile-time check to ensure AESA satisfies the index interface.
var _ index.Index = (*AESA)(nil)

// ErrNilStore is returned when no point store is supplied.
var ErrNilStore = errors.New("aesa: nil point store")

// Options contains configuration options for the AESA index.
type Options struct {
	// Seed seeds the random source used for next-pivot selection when no
	// lower-bound candidate survives a scan. Runs with the same seed and
	// the same data produce identical step sequences.
	Seed int64
}

// DefaultOptions contains the default configuration options for the AESA
// index.
var DefaultOptions = Options{
	Seed: 1,
}

// AESA is the full-matrix indexing method.
type AESA struct {
	store *point.Store
	cache *distance.Cache
	fn    distance.Func
	opts  Options
}

// New creates an AESA index over the given store and precomputes all
// pairwise distances among its non-query points.
func New(store *point.Store, fn distance.Func, optFns ...func(o *Options)) (*AESA, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	cache := distance.NewCache(fn)
	cache.Initialize(store)

	return &AESA{
		store: store,
		cache: cache,
		fn:    fn,
		opts:  opts,
	}, nil
}

// Cache exposes the backing distance cache for diagnostics and tests.
func (a *AESA) Cache() *distance.Cache {
	return a.cache
}

// Clone returns a deep copy of the index bound to the given cloned store.
func (a *AESA) Clone(store *point.Store) index.Index {
	return &AESA{
		store: store,
		cache: a.cache.Clone(),
		fn:    a.fn,
		opts:  a.opts,
	}
}

// Insert adds p to the index by computing its distance to every existing
// point, then reclassifies p as a regular object.
func (a *AESA) Insert(p point.Point, rec *step.Recorder) error {
	existing := a.store.NonQuery()
	for _, o := range existing {
		rec.Activate(o.ID)
	}

	for _, o := range existing {
		d := a.cache.Request(p, o)
		rec.Edge(p, o, d, step.DecisionKnownDistance)
		rec.Commit()
	}

	p.Kind = point.KindObject
	if err := a.store.Update(p); err != nil {
		// Not yet stored: insertion of an external point.
		if addErr := a.store.Add(p); addErr != nil {
			return addErr
		}
	}
	rec.Include(p.ID)
	rec.Commit()
	return nil
}

// KNN performs a k-nearest-neighbor search using pivot chaining.
func (a *AESA) KNN(q point.Point, k int, rec *step.Recorder) ([]index.Result, error) {
	if k <= 0 {
		return nil, index.ErrInvalidK
	}
	col := index.NewCollector(k)
	if err := a.chain(q, rec, func(p point.Point, d float64) bool {
		evicted, changed := col.Offer(index.Result{Point: p, Distance: d})
		if changed {
			rec.Include(p.ID)
			rec.Edge(q, p, d, step.DecisionInclusion)
			if evicted != nil {
				rec.Exclude(evicted.Point.ID)
			}
		}
		return changed
	}, col.Bound); err != nil {
		return nil, err
	}
	return col.Results(), nil
}

// Range returns all points within radius r of q.
func (a *AESA) Range(q point.Point, r float64, rec *step.Recorder) ([]index.Result, error) {
	if r < 0 {
		return nil, index.ErrInvalidRadius
	}
	var results []index.Result
	rec.Circle(q, r, step.DecisionQueryBoundary)
	if err := a.chain(q, rec, func(p point.Point, d float64) bool {
		if d > r {
			return false
		}
		results = append(results, index.Result{Point: p, Distance: d})
		rec.Include(p.ID)
		rec.Edge(q, p, d, step.DecisionInclusion)
		return true
	}, func() float64 { return r }); err != nil {
		return nil, err
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Point.ID < results[j].Point.ID
	})
	return results, nil
}

// chain runs the shared pivot-chaining strategy. admit attempts to accept a
// point at its exact distance and reports whether it was kept; bound yields
// the current pruning bound.
func (a *AESA) chain(q point.Point, rec *step.Recorder, admit func(p point.Point, d float64) bool, bound func() float64) error {
	rng := rand.New(rand.NewSource(a.opts.Seed))

	working := roaring.New()
	for _, p := range a.store.NonQuery() {
		working.Add(p.ID)
		rec.Activate(p.ID)
	}
	if working.IsEmpty() {
		rec.Commit()
		return nil
	}

	next := randomFrom(working, rng)

	for !working.IsEmpty() {
		pivotID := next
		working.Remove(pivotID)

		pivot, ok := a.store.Get(pivotID)
		if !ok {
			return &point.ErrNotFound{ID: pivotID}
		}

		d := a.cache.Request(q, pivot)
		rec.Edge(q, pivot, d, step.DecisionKnownDistance)
		if !admit(pivot, d) {
			rec.Eliminate(pivotID)
		}

		b := bound()
		if !math.IsInf(b, 1) {
			rec.Circle(q, b, step.DecisionKthBoundary)
		}

		// Scan the survivors: eliminate by lower bound, track the
		// smallest-lb candidate as the next pivot.
		bestLB := math.Inf(1)
		haveNext := false
		var removed []uint32

		it := working.Iterator()
		for it.HasNext() {
			candID := it.Next()
			cand, ok := a.store.Get(candID)
			if !ok {
				return &point.ErrNotFound{ID: candID}
			}

			cached := a.cache.Lookup(candID, pivotID)
			lb := 0.0
			if cached != distance.Unknown {
				lb = math.Abs(d - cached)
			}

			if lb > b {
				removed = append(removed, candID)
				rec.Edge(pivot, cand, lb, step.DecisionElimination)
				continue
			}

			rec.Edge(pivot, cand, lb, step.DecisionLowerBound)
			if lb < bestLB {
				bestLB = lb
				next = candID
				haveNext = true
			}
		}

		for _, id := range removed {
			working.Remove(id)
		}
		rec.Eliminate(removed...)

		if !haveNext && !working.IsEmpty() {
			next = randomFrom(working, rng)
		}

		rec.Commit()
	}
	return nil
}

// randomFrom picks a uniformly random element of a non-empty bitmap.
func randomFrom(bm *roaring.Bitmap, rng *rand.Rand) uint32 {
	n := int(bm.GetCardinality())
	id, _ := bm.Select(uint32(rng.Intn(n)))
	return id
}
