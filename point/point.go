// Package point provides the point model and the point store used by the
// metric-space indexes.
package point

import "fmt"

// Kind represents the role of a point within a store.
type Kind int

// Constants representing the different point roles.
const (
	// KindObject is a regular indexed point.
	KindObject Kind = iota

	// KindPivot is a designated reference point used to bound distances
	// via the triangle inequality. A pivot is still an indexed point.
	KindPivot

	// KindQuery is the single query point of a store.
	KindQuery
)

// String returns a string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "Object"
	case KindPivot:
		return "Pivot"
	case KindQuery:
		return "Query"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Point is a 2-dimensional point with a stable identity.
//
// Identity is the ID; coordinates are mutable only via Store.Update.
type Point struct {
	ID   uint32
	Kind Kind
	X, Y float64
}

// String returns a string representation of the point.
func (p Point) String() string {
	return fmt.Sprintf("%s#%d(%g,%g)", p.Kind, p.ID, p.X, p.Y)
}
