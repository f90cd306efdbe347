package point

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func euclidean(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func TestStore(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		s := NewStore()

		p1 := s.Create(KindObject, 1, 2)
		p2 := s.Create(KindObject, 3, 4)

		assert.Equal(t, uint32(0), p1.ID)
		assert.Equal(t, uint32(1), p2.ID)
		assert.Equal(t, 2, s.Len())
	})

	t.Run("AddAdvancesIDs", func(t *testing.T) {
		s := NewStore()

		require.NoError(t, s.Add(Point{ID: 7, Kind: KindObject, X: 1, Y: 1}))
		p := s.Create(KindObject, 0, 0)

		assert.Equal(t, uint32(8), p.ID)

		err := s.Add(Point{ID: 7, Kind: KindObject})
		assert.Error(t, err)
		assert.IsType(t, &ErrDuplicateID{}, err)
	})

	t.Run("Update", func(t *testing.T) {
		s := NewStore()
		p := s.Create(KindObject, 1, 1)

		p.X = 9
		require.NoError(t, s.Update(p))

		got, ok := s.Get(p.ID)
		require.True(t, ok)
		assert.Equal(t, 9.0, got.X)

		err := s.Update(Point{ID: 99})
		assert.Error(t, err)
		assert.IsType(t, &ErrNotFound{}, err)
	})

	t.Run("QueryLazilyCreated", func(t *testing.T) {
		s := NewStore()
		s.Create(KindObject, 1, 1)

		q := s.Query()
		assert.Equal(t, KindQuery, q.Kind)

		// A second call returns the same query point.
		assert.Equal(t, q.ID, s.Query().ID)
		assert.Len(t, s.NonQuery(), 1)
	})

	t.Run("Filters", func(t *testing.T) {
		s := NewStore()
		s.Create(KindObject, 0, 0)
		s.Create(KindPivot, 1, 1)
		s.Create(KindObject, 2, 2)
		s.Query()

		assert.Len(t, s.Objects(), 2)
		assert.Len(t, s.Pivots(), 1)
		assert.Len(t, s.NonQuery(), 3)
		assert.Len(t, s.Points(), 4)
	})

	t.Run("RandomDataset", func(t *testing.T) {
		s := NewStore()
		rng := rand.New(rand.NewSource(42))

		pts := s.RandomDataset(10, 100, 50, rng)
		require.Len(t, pts, 10)
		for _, p := range pts {
			assert.Equal(t, KindObject, p.Kind)
			assert.Less(t, p.X, 100.0)
			assert.Less(t, p.Y, 50.0)
		}

		// Same seed, same dataset.
		s2 := NewStore()
		pts2 := s2.RandomDataset(10, 100, 50, rand.New(rand.NewSource(42)))
		assert.Equal(t, pts, pts2)
	})

	t.Run("DesignatePivots", func(t *testing.T) {
		s := NewStore()
		s.Create(KindObject, 0, 0)
		s.Create(KindObject, 10, 0)
		s.Create(KindObject, 0, 10)
		s.Create(KindObject, 1, 1)

		pivots := s.DesignatePivots(2, euclidean)
		require.Len(t, pivots, 2)
		assert.Len(t, s.Pivots(), 2)
		assert.Len(t, s.Objects(), 2)

		// Farthest-first: lowest-ID object first, then the farthest point.
		assert.Equal(t, uint32(0), pivots[0].ID)
	})

	t.Run("CloneIndependence", func(t *testing.T) {
		s := NewStore()
		p := s.Create(KindObject, 1, 1)

		clone := s.Clone()
		moved := p
		moved.X = 99
		require.NoError(t, clone.Update(moved))
		clone.Create(KindObject, 5, 5)

		got, ok := s.Get(p.ID)
		require.True(t, ok)
		assert.Equal(t, 1.0, got.X)
		assert.Equal(t, 1, s.Len())
		assert.Equal(t, 2, clone.Len())
	})
}
