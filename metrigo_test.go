package metrigo

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/metrigo/distance"
	"github.com/hupe1980/metrigo/index"
	"github.com/hupe1980/metrigo/index/aesa"
	"github.com/hupe1980/metrigo/index/laesa"
	"github.com/hupe1980/metrigo/index/mtree"
	"github.com/hupe1980/metrigo/point"
	"github.com/hupe1980/metrigo/step"
)

// rectangleStore holds (0,0),(3,0),(0,4),(3,4) with two designated pivots.
func rectangleStore() *point.Store {
	s := point.NewStore()
	s.Create(point.KindObject, 0, 0)
	s.Create(point.KindObject, 3, 0)
	s.Create(point.KindObject, 0, 4)
	s.Create(point.KindObject, 3, 4)
	s.DesignatePivots(2, distance.Euclidean)
	return s
}

func newAESA(t *testing.T, s *point.Store) *aesa.AESA {
	t.Helper()
	a, err := aesa.New(s, distance.Euclidean)
	require.NoError(t, err)
	return a
}

func newLAESA(t *testing.T, s *point.Store) *laesa.LAESA {
	t.Helper()
	l, err := laesa.New(s, distance.Euclidean)
	require.NoError(t, err)
	return l
}

func newMTree(t *testing.T, s *point.Store) *mtree.MTree {
	t.Helper()
	m, err := mtree.New(s, distance.Euclidean)
	require.NoError(t, err)
	return m
}

func TestRunValidation(t *testing.T) {
	s := rectangleStore()
	a := newAESA(t, s)
	q := s.Query()

	t.Run("NilStore", func(t *testing.T) {
		_, err := Run(MethodAESA, AlgorithmKNN, nil, a, q)
		assert.ErrorIs(t, err, ErrNilStore)
	})

	t.Run("NilIndex", func(t *testing.T) {
		_, err := Run(MethodAESA, AlgorithmKNN, s, nil, q)
		assert.ErrorIs(t, err, ErrNilIndex)
	})

	t.Run("MethodMismatch", func(t *testing.T) {
		_, err := Run(MethodMTree, AlgorithmKNN, s, a, q)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnsupportedCombination)

		var mismatch *ErrMethodMismatch
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, MethodMTree, mismatch.Method)
	})

	t.Run("UnknownMethod", func(t *testing.T) {
		_, err := Run(Method(99), AlgorithmKNN, s, a, q)
		assert.ErrorIs(t, err, ErrUnsupportedCombination)
	})

	t.Run("UnknownAlgorithm", func(t *testing.T) {
		_, err := Run(MethodAESA, Algorithm(99), s, a, q)
		assert.ErrorIs(t, err, ErrUnsupportedCombination)
	})

	t.Run("InvalidK", func(t *testing.T) {
		_, err := Run(MethodAESA, AlgorithmKNN, s, a, q, WithK(0))
		assert.ErrorIs(t, err, ErrInvalidK)
	})

	t.Run("InvalidRadius", func(t *testing.T) {
		_, err := Run(MethodAESA, AlgorithmRange, s, a, q, WithRadius(-1))
		assert.ErrorIs(t, err, ErrInvalidRadius)
	})
}

func TestRunKNN(t *testing.T) {
	// Nearest neighbor of (4,3) among the rectangle corners is (3,4).
	run := func(t *testing.T, method Method, idx index.Index, s *point.Store) {
		t.Helper()
		q := s.Query()
		q.X, q.Y = 4, 3

		trace, err := Run(method, AlgorithmKNN, s, idx, q, WithK(1))
		require.NoError(t, err)
		require.Positive(t, trace.Len())

		ids := trace.ResultIDs()
		require.Len(t, ids, 1)
		p, ok := s.Get(ids[0])
		require.True(t, ok)
		assert.Equal(t, 3.0, p.X)
		assert.Equal(t, 4.0, p.Y)
	}

	t.Run("AESA", func(t *testing.T) {
		s := rectangleStore()
		run(t, MethodAESA, newAESA(t, s), s)
	})

	t.Run("LAESA", func(t *testing.T) {
		s := rectangleStore()
		run(t, MethodLAESA, newLAESA(t, s), s)
	})

	t.Run("MTree", func(t *testing.T) {
		s := rectangleStore()
		run(t, MethodMTree, newMTree(t, s), s)
	})
}

func TestRunRange(t *testing.T) {
	// Radius 3 around (4,3) captures only (3,4); the rest sit at >= 3.16.
	run := func(t *testing.T, method Method, idx index.Index, s *point.Store) {
		t.Helper()
		q := s.Query()
		q.X, q.Y = 4, 3

		trace, err := Run(method, AlgorithmRange, s, idx, q, WithRadius(3.0))
		require.NoError(t, err)

		ids := trace.ResultIDs()
		require.Len(t, ids, 1)
		p, ok := s.Get(ids[0])
		require.True(t, ok)
		assert.Equal(t, 3.0, p.X)
		assert.Equal(t, 4.0, p.Y)
	}

	t.Run("AESA", func(t *testing.T) {
		s := rectangleStore()
		run(t, MethodAESA, newAESA(t, s), s)
	})

	t.Run("LAESA", func(t *testing.T) {
		s := rectangleStore()
		run(t, MethodLAESA, newLAESA(t, s), s)
	})

	t.Run("MTree", func(t *testing.T) {
		s := rectangleStore()
		run(t, MethodMTree, newMTree(t, s), s)
	})

	t.Run("RadiusZero", func(t *testing.T) {
		s := rectangleStore()
		q := s.Query()
		q.X, q.Y = 4, 3

		trace, err := Run(MethodAESA, AlgorithmRange, s, newAESA(t, s), q, WithRadius(0))
		require.NoError(t, err)

		assert.Empty(t, trace.ResultIDs())
		last, ok := trace.Terminal()
		require.True(t, ok)
		assert.Equal(t, uint64(4), last.Eliminated.GetCardinality())
	})
}

func TestRunInsertLeavesOriginalUntouched(t *testing.T) {
	s := rectangleStore()
	a := newAESA(t, s)

	p := point.Point{ID: 100, Kind: point.KindObject, X: 1, Y: 1}
	trace, err := Run(MethodAESA, AlgorithmInsert, s, a, p)
	require.NoError(t, err)

	assert.Equal(t, []uint32{100}, trace.ResultIDs())

	// The run mutated only clones.
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, 5, a.Cache().Len())
	_, ok := s.Get(100)
	assert.False(t, ok)
}

func TestRunStepDecisions(t *testing.T) {
	s := rectangleStore()
	q := s.Query()
	q.X, q.Y = 4, 3

	trace, err := Run(MethodAESA, AlgorithmKNN, s, newAESA(t, s), q, WithK(2))
	require.NoError(t, err)

	var sawKnown, sawKth bool
	for _, st := range trace.All() {
		for _, e := range st.Edges {
			if e.Decision == step.DecisionKnownDistance {
				sawKnown = true
			}
		}
		for _, c := range st.Circles {
			if c.Decision == step.DecisionKthBoundary {
				sawKth = true
				assert.Greater(t, c.Radius, 0.0)
			}
		}
	}
	assert.True(t, sawKnown)
	assert.True(t, sawKth)
}

func TestCrossCheck(t *testing.T) {
	build := func(t *testing.T, n int, seed int64) (*point.Store, map[Method]index.Index) {
		t.Helper()
		s := point.NewStore()
		s.RandomDataset(n, 100, 100, rand.New(rand.NewSource(seed)))
		s.DesignatePivots(5, distance.Euclidean)

		return s, map[Method]index.Index{
			MethodAESA:  newAESA(t, s),
			MethodLAESA: newLAESA(t, s),
			MethodMTree: newMTree(t, s),
		}
	}

	ids := func(results []index.Result) []uint32 {
		out := make([]uint32, 0, len(results))
		for _, r := range results {
			out = append(out, r.Point.ID)
		}
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
		return out
	}

	t.Run("KNNEquivalence", func(t *testing.T) {
		s, indexes := build(t, 80, 51)
		q := s.Query()
		q.X, q.Y = 50, 50

		out, err := CrossCheck(AlgorithmKNN, s, indexes, q, WithK(7))
		require.NoError(t, err)
		require.Len(t, out, 3)

		want := ids(out[MethodAESA])
		require.Len(t, want, 7)
		assert.Equal(t, want, ids(out[MethodLAESA]))
		assert.Equal(t, want, ids(out[MethodMTree]))
	})

	t.Run("RangeEquivalence", func(t *testing.T) {
		s, indexes := build(t, 80, 53)
		q := s.Query()
		q.X, q.Y = 50, 50

		out, err := CrossCheck(AlgorithmRange, s, indexes, q, WithRadius(22))
		require.NoError(t, err)

		want := ids(out[MethodAESA])
		assert.Equal(t, want, ids(out[MethodLAESA]))
		assert.Equal(t, want, ids(out[MethodMTree]))

		// Every reported distance is within the radius.
		for _, results := range out {
			for _, r := range results {
				assert.LessOrEqual(t, r.Distance, 22.0)
			}
		}
	})

	t.Run("MismatchRejected", func(t *testing.T) {
		s, _ := build(t, 10, 57)
		_, err := CrossCheck(AlgorithmKNN, s, map[Method]index.Index{
			MethodMTree: newAESA(t, s),
		}, s.Query())
		assert.ErrorIs(t, err, ErrUnsupportedCombination)
	})
}

func TestMethodAndAlgorithmStrings(t *testing.T) {
	assert.Equal(t, "AESA", MethodAESA.String())
	assert.Equal(t, "LAESA", MethodLAESA.String())
	assert.Equal(t, "MTree", MethodMTree.String())
	assert.Equal(t, "Insert", AlgorithmInsert.String())
	assert.Equal(t, "KNN", AlgorithmKNN.String())
	assert.Equal(t, "Range", AlgorithmRange.String())
}

func TestScenarioDistances(t *testing.T) {
	// Sanity anchors for the rectangle fixture used throughout.
	q := point.Point{X: 4, Y: 3}
	assert.InDelta(t, math.Sqrt2, distance.Euclidean(q, point.Point{X: 3, Y: 4}), 1e-9)
	assert.Greater(t, distance.Euclidean(q, point.Point{X: 3, Y: 0}), 3.0)
	assert.Greater(t, distance.Euclidean(q, point.Point{X: 0, Y: 4}), 3.0)
	assert.Greater(t, distance.Euclidean(q, point.Point{X: 0, Y: 0}), 3.0)
}
