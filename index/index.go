// Package index provides interfaces and types shared by the metric-space
// indexing methods.
package index

import (
	"errors"

	"github.com/hupe1980/metrigo/point"
	"github.com/hupe1980/metrigo/step"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrInvalidRadius is returned when a range radius is negative.
	ErrInvalidRadius = errors.New("radius must be non-negative")
)

// Result represents a search result.
type Result struct {
	// Point is the admitted point.
	Point point.Point

	// Distance is the distance between the query point and the result point.
	Distance float64
}

// Index represents a metric-space index supporting dynamic insertion,
// k-nearest-neighbor search and range search.
//
// Every operation records its pruning decisions into the given step
// recorder. Implementations are single-threaded; concurrent runs must
// operate on independent clones.
type Index interface {
	// Insert adds a point to the index.
	Insert(p point.Point, rec *step.Recorder) error

	// KNN performs a k-nearest-neighbor search.
	KNN(q point.Point, k int, rec *step.Recorder) ([]Result, error)

	// Range returns all points within radius r of q.
	Range(q point.Point, r float64, rec *step.Recorder) ([]Result, error)

	// Clone returns a deep, independent copy of the index bound to the
	// given cloned store.
	Clone(store *point.Store) Index
}
