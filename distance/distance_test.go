package distance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/metrigo/point"
)

func TestEuclidean(t *testing.T) {
	a := point.Point{ID: 0, X: 0, Y: 0}
	b := point.Point{ID: 1, X: 3, Y: 4}

	assert.Equal(t, 5.0, Euclidean(a, b))
	assert.Equal(t, 5.0, Euclidean(b, a))
	assert.Equal(t, 0.0, Euclidean(a, a))
}

func TestProvider(t *testing.T) {
	fn, err := Provider(MetricEuclidean)
	require.NoError(t, err)
	require.NotNil(t, fn)

	_, err = Provider(Metric(99))
	assert.Error(t, err)
}

func TestCounting(t *testing.T) {
	c := NewCounting(Euclidean)
	a := point.Point{ID: 0, X: 0, Y: 0}
	b := point.Point{ID: 1, X: 1, Y: 1}

	assert.Equal(t, int64(0), c.Count())
	assert.InDelta(t, math.Sqrt2, c.Distance(a, b), 1e-12)
	c.Distance(a, b)
	assert.Equal(t, int64(2), c.Count())
}
