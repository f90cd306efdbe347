package point

import (
	"fmt"
	"math/rand"
)

// ErrDuplicateID indicates an attempt to add a point whose ID is already
// present in the store.
type ErrDuplicateID struct {
	ID uint32
}

func (e *ErrDuplicateID) Error() string {
	return fmt.Sprintf("duplicate point id: %d", e.ID)
}

// ErrNotFound indicates that no point with the given ID exists.
type ErrNotFound struct {
	ID uint32
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("point not found: %d", e.ID)
}

// Store owns a collection of points keyed by ID.
//
// IDs are unique and monotonically issued. At most one query point exists
// at a time; Query lazily creates one when absent.
type Store struct {
	points map[uint32]Point
	order  []uint32 // insertion order, for deterministic iteration
	nextID uint32
}

// NewStore creates an empty point store.
func NewStore() *Store {
	return &Store{
		points: make(map[uint32]Point),
	}
}

// Create creates a point with a freshly issued ID and adds it to the store.
func (s *Store) Create(kind Kind, x, y float64) Point {
	p := Point{ID: s.nextID, Kind: kind, X: x, Y: y}
	s.nextID++
	s.points[p.ID] = p
	s.order = append(s.order, p.ID)
	return p
}

// Add adds an explicitly constructed point. The next issued ID is advanced
// past p.ID so IDs stay unique and monotone.
func (s *Store) Add(p Point) error {
	if _, ok := s.points[p.ID]; ok {
		return &ErrDuplicateID{ID: p.ID}
	}
	s.points[p.ID] = p
	s.order = append(s.order, p.ID)
	if p.ID >= s.nextID {
		s.nextID = p.ID + 1
	}
	return nil
}

// Get returns the point with the given ID.
func (s *Store) Get(id uint32) (Point, bool) {
	p, ok := s.points[id]
	return p, ok
}

// Update replaces the stored point with the same ID.
func (s *Store) Update(p Point) error {
	if _, ok := s.points[p.ID]; !ok {
		return &ErrNotFound{ID: p.ID}
	}
	s.points[p.ID] = p
	return nil
}

// Len returns the number of points in the store, the query point included.
func (s *Store) Len() int {
	return len(s.points)
}

// Points returns all points in insertion order.
func (s *Store) Points() []Point {
	out := make([]Point, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.points[id])
	}
	return out
}

// Objects returns the regular object points in insertion order.
func (s *Store) Objects() []Point {
	return s.filter(func(p Point) bool { return p.Kind == KindObject })
}

// Pivots returns the designated pivot points in insertion order.
func (s *Store) Pivots() []Point {
	return s.filter(func(p Point) bool { return p.Kind == KindPivot })
}

// NonQuery returns all indexed points (objects and pivots) in insertion
// order, excluding the query point.
func (s *Store) NonQuery() []Point {
	return s.filter(func(p Point) bool { return p.Kind != KindQuery })
}

func (s *Store) filter(keep func(Point) bool) []Point {
	var out []Point
	for _, id := range s.order {
		if p := s.points[id]; keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// Query returns the query point, lazily creating one at the origin when
// absent. There is exactly one query point per store.
func (s *Store) Query() Point {
	for _, id := range s.order {
		if p := s.points[id]; p.Kind == KindQuery {
			return p
		}
	}
	return s.Create(KindQuery, 0, 0)
}

// RandomDataset creates n object points with coordinates drawn uniformly
// from [0, maxX) x [0, maxY) using the given random source.
func (s *Store) RandomDataset(n int, maxX, maxY float64, rng *rand.Rand) []Point {
	out := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, s.Create(KindObject, rng.Float64()*maxX, rng.Float64()*maxY))
	}
	return out
}

// DesignatePivots marks k object points as pivots using farthest-first
// selection: the first pivot is the lowest-ID object, each following pivot
// is the object maximizing the distance to its nearest already-chosen
// pivot. Selection is deterministic for a fixed store.
func (s *Store) DesignatePivots(k int, dist func(a, b Point) float64) []Point {
	objects := s.Objects()
	if k > len(objects) {
		k = len(objects)
	}
	if k <= 0 {
		return nil
	}

	chosen := make([]Point, 0, k)
	chosen = append(chosen, objects[0])

	for len(chosen) < k {
		best := -1.0
		var next Point
		for _, o := range objects {
			if containsID(chosen, o.ID) {
				continue
			}
			nearest := dist(o, chosen[0])
			for _, c := range chosen[1:] {
				if d := dist(o, c); d < nearest {
					nearest = d
				}
			}
			if nearest > best {
				best = nearest
				next = o
			}
		}
		chosen = append(chosen, next)
	}

	for i, c := range chosen {
		c.Kind = KindPivot
		s.points[c.ID] = c
		chosen[i] = c
	}
	return chosen
}

func containsID(pts []Point, id uint32) bool {
	for _, p := range pts {
		if p.ID == id {
			return true
		}
	}
	return false
}

// Clone returns a deep, independent copy of the store.
func (s *Store) Clone() *Store {
	clone := &Store{
		points: make(map[uint32]Point, len(s.points)),
		order:  make([]uint32, len(s.order)),
		nextID: s.nextID,
	}
	for id, p := range s.points {
		clone.points[id] = p
	}
	copy(clone.order, s.order)
	return clone
}
