package index

import (
	"math"
	"sort"
)

// Collector maintains the current best-k candidates of a nearest-neighbor
// search, sorted ascending by distance.
//
// Its Bound is +Inf while fewer than k candidates are held, otherwise the
// distance of the worst kept candidate; the bound is the pruning radius of
// the search. Offers de-duplicate by point ID so a candidate first admitted
// at an upper-bound distance can later be re-admitted at its exact
// distance.
type Collector struct {
	k     int
	items []Result
}

// NewCollector creates a collector holding at most k candidates.
func NewCollector(k int) *Collector {
	return &Collector{
		k:     k,
		items: make([]Result, 0, k),
	}
}

// Len returns the number of held candidates.
func (c *Collector) Len() int {
	return len(c.items)
}

// Full reports whether k candidates are held.
func (c *Collector) Full() bool {
	return len(c.items) >= c.k
}

// Bound returns the current pruning bound: +Inf while underfull, otherwise
// the distance of the worst kept candidate.
func (c *Collector) Bound() float64 {
	if len(c.items) < c.k {
		return math.Inf(1)
	}
	return c.items[len(c.items)-1].Distance
}

// Offer attempts to admit a candidate. It returns the evicted candidate
// (nil when none was displaced) and whether the collector changed.
//
// Admission follows the strict rule: a full collector only evicts when the
// offered distance is strictly smaller than the worst kept distance; an
// equal distance does not evict. An offer for an already-held point ID
// replaces its entry when the new distance is smaller.
func (c *Collector) Offer(r Result) (evicted *Result, changed bool) {
	for i, held := range c.items {
		if held.Point.ID != r.Point.ID {
			continue
		}
		if r.Distance >= held.Distance {
			return nil, false
		}
		c.items[i] = r
		c.sort()
		return nil, true
	}

	if len(c.items) < c.k {
		c.items = append(c.items, r)
		c.sort()
		return nil, true
	}

	worst := c.items[len(c.items)-1]
	if r.Distance >= worst.Distance {
		return nil, false
	}
	c.items[len(c.items)-1] = r
	c.sort()
	return &worst, true
}

func (c *Collector) sort() {
	sort.SliceStable(c.items, func(i, j int) bool {
		if c.items[i].Distance != c.items[j].Distance {
			return c.items[i].Distance < c.items[j].Distance
		}
		return c.items[i].Point.ID < c.items[j].Point.ID
	})
}

// Results returns the held candidates ascending by distance.
func (c *Collector) Results() []Result {
	out := make([]Result, len(c.items))
	copy(out, c.items)
	return out
}
