package recommendation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentile(t *testing.T) {
	s := []float64{10, 20, 30, 40}
	assert.Equal(t, 10.0, Percentile(s, 0))
	assert.Equal(t, 40.0, Percentile(s, 100))
	assert.InDelta(t, 25.0, Percentile(s, 50), 1e-12)
	assert.InDelta(t, 38.5, Percentile(s, 95), 1e-12)
	assert.Equal(t, 7.0, Percentile([]float64{7}, 95))
	assert.True(t, math.IsNaN(Percentile(nil, 50)))
}

func TestPercentileOddLength(t *testing.T) {
	s := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 3.0, Percentile(s, 50))
	assert.InDelta(t, 4.8, Percentile(s, 95), 1e-12)
}

func TestSortedCopyDoesNotMutate(t *testing.T) {
	in := []float64{3, 1, 2}
	out := sortedCopy(in)
	assert.Equal(t, []float64{1, 2, 3}, out)
	assert.Equal(t, []float64{3, 1, 2}, in)
}
