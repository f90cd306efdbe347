// Package distance provides metric functions and the shared distance cache
// used by the cache-based indexing methods.
package distance

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/hupe1980/metrigo/point"
)

// Func is a pluggable metric. Implementations must be deterministic,
// symmetric and satisfy the triangle inequality.
type Func func(a, b point.Point) float64

// Euclidean calculates the Euclidean (L2) distance between two points.
func Euclidean(a, b point.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Metric represents the distance metric used for point comparison.
type Metric int

const (
	MetricEuclidean Metric = iota
)

func (m Metric) String() string {
	switch m {
	case MetricEuclidean:
		return "Euclidean"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricEuclidean:
		return Euclidean, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}

// Counting wraps a metric and counts invocations. It is primarily used by
// tests asserting that cached distances are never recomputed.
type Counting struct {
	fn    Func
	calls atomic.Int64
}

// NewCounting creates a counting wrapper around fn.
func NewCounting(fn Func) *Counting {
	return &Counting{fn: fn}
}

// Distance computes the wrapped metric and increments the call counter.
func (c *Counting) Distance(a, b point.Point) float64 {
	c.calls.Add(1)
	return c.fn(a, b)
}

// Count returns the number of metric invocations so far.
func (c *Counting) Count() int64 {
	return c.calls.Load()
}
