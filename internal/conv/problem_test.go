package conv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solaiys/MIOpen/internal/tensor"
)

func testProblem(t *testing.T, dir Direction) Problem {
	t.Helper()
	x := tensor.New(tensor.Float, tensor.NCHW, 64, 256, 56, 56)
	w := tensor.New(tensor.Float, tensor.NCHW, 128, 256, 1, 1)
	y := tensor.New(tensor.Float, tensor.NCHW, 64, 128, 56, 56)
	cd, err := NewDescriptor([]int{0, 0}, []int{1, 1}, []int{1, 1}, 1)
	require.NoError(t, err)
	return NewProblem(x, w, y, cd, dir)
}

func TestNetworkConfig(t *testing.T) {
	t.Run("canonical key", func(t *testing.T) {
		p := testProblem(t, Forward)
		assert.Equal(t,
			NetworkConfig("64x256x56x56-128x256x1x1-1x1p0x0d1x1-F-g1-fp32-NCHW"),
			p.NetworkConfig())
	})

	t.Run("direction changes the key", func(t *testing.T) {
		fwd := testProblem(t, Forward)
		bwd := testProblem(t, BackwardData)
		assert.NotEqual(t, fwd.NetworkConfig(), bwd.NetworkConfig())
	})

	t.Run("identical problems share a key", func(t *testing.T) {
		assert.Equal(t, testProblem(t, Forward).NetworkConfig(), testProblem(t, Forward).NetworkConfig())
	})
}

func TestProblemHelpers(t *testing.T) {
	p := testProblem(t, Forward)
	assert.Equal(t, 64, p.Batch())
	assert.Equal(t, 256, p.InChannels())
	assert.Equal(t, 128, p.OutChannels())
	assert.Equal(t, []int{1, 1}, p.FilterSpatial())
	assert.Equal(t, 56*56, p.SpatialSize())
}

func TestParseFindMode(t *testing.T) {
	m, err := ParseFindMode("dynamicHybrid")
	require.NoError(t, err)
	assert.Equal(t, FindModeDynamicHybrid, m)

	m, err = ParseFindMode("")
	require.NoError(t, err)
	assert.Equal(t, FindModeNormal, m)

	_, err = ParseFindMode("bogus")
	assert.Error(t, err)
}

func TestNewDescriptor(t *testing.T) {
	t.Run("rank mismatch", func(t *testing.T) {
		_, err := NewDescriptor([]int{0}, []int{1, 1}, []int{1, 1}, 1)
		assert.Error(t, err)
	})

	t.Run("zero stride", func(t *testing.T) {
		_, err := NewDescriptor([]int{0, 0}, []int{0, 1}, []int{1, 1}, 1)
		assert.Error(t, err)
	})

	t.Run("zero group count", func(t *testing.T) {
		_, err := NewDescriptor([]int{0, 0}, []int{1, 1}, []int{1, 1}, 0)
		assert.Error(t, err)
	})
}
