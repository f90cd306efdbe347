package distance

import (
	"github.com/hupe1980/metrigo/point"
)

// Unknown is the sentinel returned by Lookup for a pair whose distance has
// never been computed. It is negative so it can never collide with a real
// distance.
const Unknown = -1.0

// pairKey is an unordered point-ID pair.
type pairKey struct {
	lo, hi uint32
}

func keyOf(id1, id2 uint32) pairKey {
	if id1 > id2 {
		id1, id2 = id2, id1
	}
	return pairKey{lo: id1, hi: id2}
}

// Cache is a symmetric sparse map from unordered point-ID pairs to computed
// distances. Once written, an entry never changes.
type Cache struct {
	fn      Func
	entries map[pairKey]float64
}

// NewCache creates an empty cache backed by the given metric.
func NewCache(fn Func) *Cache {
	return &Cache{
		fn:      fn,
		entries: make(map[pairKey]float64),
	}
}

// Request returns the distance between a and b, computing and storing it on
// first use. Re-requesting a cached pair never recomputes.
func (c *Cache) Request(a, b point.Point) float64 {
	key := keyOf(a.ID, b.ID)
	if d, ok := c.entries[key]; ok {
		return d
	}
	d := c.fn(a, b)
	c.entries[key] = d
	return d
}

// Lookup returns the cached distance for the given ID pair, or Unknown when
// the pair has never been computed. Lookup never computes.
func (c *Cache) Lookup(id1, id2 uint32) float64 {
	if d, ok := c.entries[keyOf(id1, id2)]; ok {
		return d
	}
	return Unknown
}

// Known reports whether the distance for the given ID pair is cached.
func (c *Cache) Known(id1, id2 uint32) bool {
	_, ok := c.entries[keyOf(id1, id2)]
	return ok
}

// Len returns the number of cached pairs.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Initialize precomputes the cache for the given store.
//
// With no designated pivots, all pairwise distances among non-query points
// are computed (full-matrix mode, O(n^2) entries). With pivots present,
// only the distances from every pivot to every other non-query point are
// computed (pivot-row mode, O(k*n) entries).
func (c *Cache) Initialize(store *point.Store) {
	pivots := store.Pivots()
	points := store.NonQuery()

	if len(pivots) == 0 {
		for i := 0; i < len(points); i++ {
			for j := i + 1; j < len(points); j++ {
				c.Request(points[i], points[j])
			}
		}
		return
	}

	for _, pv := range pivots {
		for _, p := range points {
			if p.ID == pv.ID {
				continue
			}
			c.Request(pv, p)
		}
	}
}

// Clone returns an independent copy of the cache sharing the metric.
func (c *Cache) Clone() *Cache {
	clone := &Cache{
		fn:      c.fn,
		entries: make(map[pairKey]float64, len(c.entries)),
	}
	for k, v := range c.entries {
		clone.entries[k] = v
	}
	return clone
}
