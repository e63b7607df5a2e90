package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conv1x1() ConvForwardOp {
	return ConvForwardOp{FilterH: 1, FilterW: 1, AlgoName: "Direct"}
}

func conv3x3() ConvForwardOp {
	return ConvForwardOp{FilterH: 3, FilterW: 3, AlgoName: "Direct"}
}

func TestConvGraph(t *testing.T) {
	t.Run("1x1 conv bias activ prefers the assembly kernel", func(t *testing.T) {
		g, err := InitGraph(OpConvForward)
		require.NoError(t, err)

		ok, err := g.Advance([]Op{conv1x1(), BiasForwardOp{}, ActivForwardOp{}})
		require.NoError(t, err)
		require.True(t, ok)

		// Both the assembly and the generic path stay alive; the
		// weighted assembly edge must win the tie.
		kern, err := g.GetKernelName()
		require.NoError(t, err)
		assert.Equal(t, "gcnAsmConv1x1U", kern)

		algo, err := g.GetAlgoName()
		require.NoError(t, err)
		assert.Equal(t, "ConvolutionDirectBiasActivAsm", algo)
	})

	t.Run("3x3 conv bias activ matches the generic kernel", func(t *testing.T) {
		g, err := InitGraph(OpConvForward)
		require.NoError(t, err)

		ok, err := g.Advance([]Op{conv3x3(), BiasForwardOp{}, ActivForwardOp{}})
		require.NoError(t, err)
		require.True(t, ok)

		kern, err := g.GetKernelName()
		require.NoError(t, err)
		assert.Equal(t, "MIOpenConvUniBatchNormActiv", kern)
	})

	t.Run("conv bias bn activ walks the batchnorm branch", func(t *testing.T) {
		g, err := InitGraph(OpConvForward)
		require.NoError(t, err)

		ok, err := g.Advance([]Op{
			conv3x3(),
			BiasForwardOp{},
			BatchNormInferenceOp{Mode: BNSpatial},
			ActivForwardOp{},
		})
		require.NoError(t, err)
		require.True(t, ok)

		algo, err := g.GetAlgoName()
		require.NoError(t, err)
		assert.Equal(t, "MIOpenConvUniBatchNormActiv", algo)
	})

	t.Run("even filter size matches nothing", func(t *testing.T) {
		g, err := InitGraph(OpConvForward)
		require.NoError(t, err)

		ok, err := g.Advance([]Op{ConvForwardOp{FilterH: 4, FilterW: 4, AlgoName: "Direct"}})
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, g.GetCurVertex())
	})

	t.Run("reset revives a dead walk", func(t *testing.T) {
		g, err := InitGraph(OpConvForward)
		require.NoError(t, err)

		ok, err := g.Advance([]Op{ConvForwardOp{FilterH: 2, FilterW: 2, AlgoName: "Direct"}})
		require.NoError(t, err)
		require.False(t, ok)

		g.Reset()
		ok, err = g.Advance([]Op{conv1x1()})
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestBNGraph(t *testing.T) {
	t.Run("per-activation mode", func(t *testing.T) {
		g, err := InitGraph(OpBatchNormInference)
		require.NoError(t, err)

		ok, err := g.Advance([]Op{BatchNormInferenceOp{Mode: BNPerActivation}, ActivForwardOp{}})
		require.NoError(t, err)
		require.True(t, ok)

		kern, err := g.GetKernelName()
		require.NoError(t, err)
		assert.Equal(t, "MIOpenBatchNormActivInferPerActEst", kern)
	})

	t.Run("spatial mode selects the spatial kernel", func(t *testing.T) {
		g, err := InitGraph(OpBatchNormInference)
		require.NoError(t, err)

		ok, err := g.Advance([]Op{BatchNormInferenceOp{Mode: BNSpatial}})
		require.NoError(t, err)
		require.True(t, ok)

		kern, err := g.GetKernelName()
		require.NoError(t, err)
		assert.Equal(t, "MIOpenBatchNormActivInferSpatialEst", kern)
	})
}

func TestInitGraph(t *testing.T) {
	_, err := InitGraph(OpBiasForward)
	assert.Error(t, err)
	_, err = InitGraph(OpActivForward)
	assert.Error(t, err)
}

func TestGettersWithoutMatch(t *testing.T) {
	g := NewGraph()
	_, err := g.GetProgramName()
	assert.Error(t, err)
}

func TestAddEdgeMerge(t *testing.T) {
	g := NewGraph()
	a := newVertex(OpConvForward, "pa", "ka", "aa", true)
	b := newVertex(OpConvForward, "pb", "kb", "ab", true)
	g.AddEdge(nil, a, []string{conv1x1().GraphKey()}, 0)
	g.AddEdge(nil, b, nil, 1)

	// A second edge for the same pair folds into the first: the keys
	// accumulate and the larger weight sticks.
	g.AddEdge(nil, a, []string{conv3x3().GraphKey()}, 5)

	ok, err := g.Advance([]Op{conv3x3()})
	require.NoError(t, err)
	require.True(t, ok)

	kern, err := g.GetKernelName()
	require.NoError(t, err)
	assert.Equal(t, "ka", kern)
}

func TestVertexIDsAreUnique(t *testing.T) {
	a := newVertex(OpConvForward, "p", "k", "a", false)
	b := newVertex(OpConvForward, "p", "k", "a", false)
	assert.NotEqual(t, a.ID, b.ID)
}
