package step

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/metrigo/point"
)

func TestRecorder(t *testing.T) {
	t.Run("SetTransitions", func(t *testing.T) {
		r := NewRecorder()
		r.Activate(1, 2, 3)
		r.Commit()

		r.Eliminate(2)
		r.Include(1)
		r.Commit()

		tr := r.Trace()
		require.Equal(t, 2, tr.Len())

		first, ok := tr.Next()
		require.True(t, ok)
		assert.Equal(t, uint64(3), first.Active.GetCardinality())
		assert.True(t, first.Eliminated.IsEmpty())

		second, ok := tr.Next()
		require.True(t, ok)
		assert.True(t, second.Active.Contains(3))
		assert.True(t, second.Eliminated.Contains(2))
		assert.True(t, second.Result.Contains(1))
		assert.False(t, second.Active.Contains(1))
	})

	t.Run("SnapshotsAreImmutable", func(t *testing.T) {
		r := NewRecorder()
		r.Activate(1, 2)
		r.Commit()

		// Mutations after a commit must not show up in the snapshot.
		r.Eliminate(1)
		r.Commit()

		tr := r.Trace()
		first, _ := tr.Next()
		assert.True(t, first.Active.Contains(1))
		assert.True(t, first.Eliminated.IsEmpty())
	})

	t.Run("PendingClearedOnCommit", func(t *testing.T) {
		r := NewRecorder()
		p := point.Point{ID: 1}
		q := point.Point{ID: 2}

		r.Edge(p, q, 5, DecisionKnownDistance)
		r.Circle(q, 5, DecisionKthBoundary)
		r.Commit()
		r.Commit()

		tr := r.Trace()
		first, _ := tr.Next()
		require.Len(t, first.Edges, 1)
		require.Len(t, first.Circles, 1)
		assert.Equal(t, DecisionKnownDistance, first.Edges[0].Decision)

		second, _ := tr.Next()
		assert.Empty(t, second.Edges)
		assert.Empty(t, second.Circles)
	})

	t.Run("ExcludeEvictsFromResult", func(t *testing.T) {
		r := NewRecorder()
		r.Activate(1)
		r.Include(1)
		r.Exclude(1)
		r.Commit()

		tr := r.Trace()
		s, _ := tr.Next()
		assert.True(t, s.Result.IsEmpty())
		assert.True(t, s.Eliminated.Contains(1))
	})

	t.Run("TraceCommitsLeftovers", func(t *testing.T) {
		r := NewRecorder()
		r.Edge(point.Point{ID: 1}, point.Point{ID: 2}, 1, DecisionLowerBound)

		tr := r.Trace()
		assert.Equal(t, 1, tr.Len())
	})

	t.Run("EmptyRecorderYieldsOneStep", func(t *testing.T) {
		tr := NewRecorder().Trace()
		assert.Equal(t, 1, tr.Len())
	})
}

func TestTrace(t *testing.T) {
	build := func(n int) *Trace {
		r := NewRecorder()
		for i := 0; i < n; i++ {
			r.Activate(uint32(i))
			r.Commit()
		}
		return r.Trace()
	}

	t.Run("NextAdvances", func(t *testing.T) {
		tr := build(3)

		for i := 0; i < 3; i++ {
			s, ok := tr.Next()
			require.True(t, ok)
			assert.Equal(t, i, s.Index)
		}
		_, ok := tr.Next()
		assert.False(t, ok)
	})

	t.Run("AllStopsOnBreak", func(t *testing.T) {
		tr := build(5)

		var seen int
		for _, s := range tr.All() {
			seen++
			if s.Index == 1 {
				break
			}
		}
		assert.Equal(t, 2, seen)

		// Breaking closes the trace; no rewind.
		_, ok := tr.Next()
		assert.False(t, ok)
	})

	t.Run("CloseTerminates", func(t *testing.T) {
		tr := build(3)
		tr.Close()

		_, ok := tr.Next()
		assert.False(t, ok)
		assert.Equal(t, 3, tr.Len())
	})

	t.Run("TerminalAndResultIDs", func(t *testing.T) {
		r := NewRecorder()
		r.Activate(1, 2, 3)
		r.Commit()
		r.Include(2)
		r.Include(3)
		r.Commit()
		tr := r.Trace()

		last, ok := tr.Terminal()
		require.True(t, ok)
		assert.Equal(t, 1, last.Index)
		assert.Equal(t, []uint32{2, 3}, tr.ResultIDs())

		// Terminal does not advance the cursor.
		s, ok := tr.Next()
		require.True(t, ok)
		assert.Equal(t, 0, s.Index)
	})
}
