package find

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSolutionBetter(t *testing.T) {
	t.Run("positive beats negative regardless of magnitude", func(t *testing.T) {
		assert.True(t, solutionBetter(Solution{Time: 100.0}, Solution{Time: -0.001}))
		assert.False(t, solutionBetter(Solution{Time: -0.001}, Solution{Time: 100.0}))
	})

	t.Run("among negatives closer to zero wins", func(t *testing.T) {
		assert.True(t, solutionBetter(Solution{Time: -1}, Solution{Time: -5}))
		assert.False(t, solutionBetter(Solution{Time: -5}, Solution{Time: -1}))
	})

	t.Run("among positives smaller wins", func(t *testing.T) {
		assert.True(t, solutionBetter(Solution{Time: 0.5}, Solution{Time: 0.6}))
		assert.False(t, solutionBetter(Solution{Time: 0.6}, Solution{Time: 0.5}))
	})
}

func TestSortSolutions(t *testing.T) {
	sols := []Solution{
		{Time: -3},
		{Time: 7},
		{Time: -1},
		{Time: 2},
	}
	sortSolutions(sols)
	assert.Equal(t, []float64{2, 7, -1, -3},
		[]float64{sols[0].Time, sols[1].Time, sols[2].Time, sols[3].Time})
}

func TestWtiDerivedOrdering(t *testing.T) {
	// WTI 2.0 converts to 5 ms, WTI 0.5 to 20 ms; the higher-WTI solver
	// must rank first.
	a := Solution{Time: 10.0 / 0.5, Estimated: true}
	b := Solution{Time: 10.0 / 2.0, Estimated: true}
	sols := []Solution{a, b}
	sortSolutions(sols)
	assert.Equal(t, 5.0, sols[0].Time)
	assert.Equal(t, 20.0, sols[1].Time)
}
