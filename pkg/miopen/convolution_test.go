package miopen

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solaiys/MIOpen/internal/solver"
	"github.com/solaiys/MIOpen/internal/status"
	"github.com/solaiys/MIOpen/internal/tensor"
)

type testShapes struct {
	xDesc, wDesc, yDesc TensorDescriptor
	x, w, y             []byte
	cd                  ConvolutionDescriptor
}

// newTestShapes builds a 1x8x8x8 input against a 4x8x3x3 filter, the
// shape most solver families are applicable to.
func newTestShapes(t *testing.T) testShapes {
	t.Helper()
	s := testShapes{
		xDesc: NewTensorDescriptor(Float, NCHW, 1, 8, 8, 8),
		wDesc: NewTensorDescriptor(Float, NCHW, 4, 8, 3, 3),
		yDesc: NewTensorDescriptor(Float, NCHW, 1, 4, 6, 6),
	}
	cd, err := NewConvolutionDescriptor([]int{0, 0}, []int{1, 1}, []int{1, 1}, 1)
	require.NoError(t, err)
	s.cd = cd
	s.x = make([]byte, s.xDesc.NumBytes())
	s.w = make([]byte, s.wDesc.NumBytes())
	s.y = make([]byte, s.yDesc.NumBytes())
	return s
}

func putF32(buf []byte, vals ...float32) {
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
}

func getF32(buf []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
}

func TestFindThenExecute(t *testing.T) {
	t.Run("forward", func(t *testing.T) {
		c := NewHostContext("gfx908", Options{})
		s := newTestShapes(t)
		ws := make([]byte, 1<<22)

		results, err := c.FindConvolutionForwardAlgorithm(
			s.xDesc, s.x, s.wDesc, s.w, s.cd, s.yDesc, s.y, 10, ws, false)
		require.NoError(t, err)
		require.NotEmpty(t, results)

		algo, err := solver.AlgorithmFromDirectionalString(results[0].Algorithm)
		require.NoError(t, err)
		require.NoError(t, c.ConvolutionForward(
			1.0, s.xDesc, s.x, s.wDesc, s.w, s.cd, algo, 0.0, s.yDesc, s.y, ws))
	})

	t.Run("backward data", func(t *testing.T) {
		c := NewHostContext("gfx908", Options{})
		s := newTestShapes(t)
		ws := make([]byte, 1<<22)

		results, err := c.FindConvolutionBackwardDataAlgorithm(
			s.yDesc, s.y, s.wDesc, s.w, s.cd, s.xDesc, s.x, 10, ws, false)
		require.NoError(t, err)
		require.NotEmpty(t, results)

		algo, err := solver.AlgorithmFromDirectionalString(results[0].Algorithm)
		require.NoError(t, err)
		require.NoError(t, c.ConvolutionBackwardData(
			1.0, s.yDesc, s.y, s.wDesc, s.w, s.cd, algo, 0.0, s.xDesc, s.x, ws))
	})

	t.Run("backward weights", func(t *testing.T) {
		c := NewHostContext("gfx908", Options{})
		s := newTestShapes(t)
		ws := make([]byte, 1<<22)

		results, err := c.FindConvolutionBackwardWeightsAlgorithm(
			s.yDesc, s.y, s.xDesc, s.x, s.cd, s.wDesc, s.w, 10, ws, false)
		require.NoError(t, err)
		require.NotEmpty(t, results)

		algo, err := solver.AlgorithmFromDirectionalString(results[0].Algorithm)
		require.NoError(t, err)
		require.NoError(t, c.ConvolutionBackwardWeights(
			1.0, s.yDesc, s.y, s.xDesc, s.x, s.cd, algo, 0.0, s.wDesc, s.w, ws))
	})

	t.Run("backward data channel mismatch", func(t *testing.T) {
		c := NewHostContext("gfx908", Options{})
		s := newTestShapes(t)
		bad := NewTensorDescriptor(Float, NCHW, 1, 3, 6, 6)

		_, err := c.FindConvolutionBackwardDataAlgorithm(
			bad, make([]byte, bad.NumBytes()), s.wDesc, s.w, s.cd, s.xDesc, s.x, 10, nil, false)
		require.Error(t, err)
		assert.Equal(t, status.BadParm, status.CodeOf(err))
	})

	t.Run("backward data 1x1", func(t *testing.T) {
		// A 1x1 filter rules out the Winograd family; the search must
		// still succeed through gemm and the naive solvers even though
		// the output-gradient carries 4 channels against 8 data channels.
		c := NewHostContext("gfx908", Options{})
		xDesc := NewTensorDescriptor(Float, NCHW, 1, 8, 8, 8)
		wDesc := NewTensorDescriptor(Float, NCHW, 4, 8, 1, 1)
		dyDesc := NewTensorDescriptor(Float, NCHW, 1, 4, 8, 8)
		cd, err := NewConvolutionDescriptor([]int{0, 0}, []int{1, 1}, []int{1, 1}, 1)
		require.NoError(t, err)
		dx := make([]byte, xDesc.NumBytes())
		w := make([]byte, wDesc.NumBytes())
		dy := make([]byte, dyDesc.NumBytes())
		ws := make([]byte, 1<<22)

		results, err := c.FindConvolutionBackwardDataAlgorithm(
			dyDesc, dy, wDesc, w, cd, xDesc, dx, 10, ws, false)
		require.NoError(t, err)
		require.NotEmpty(t, results)

		algo, err := solver.AlgorithmFromDirectionalString(results[0].Algorithm)
		require.NoError(t, err)
		require.NoError(t, c.ConvolutionBackwardData(
			1.0, dyDesc, dy, wDesc, w, cd, algo, 0.0, xDesc, dx, ws))
	})
}

func TestConvolutionForwardValidation(t *testing.T) {
	t.Run("execution without find", func(t *testing.T) {
		c := NewHostContext("gfx908", Options{})
		s := newTestShapes(t)

		err := c.ConvolutionForward(
			1.0, s.xDesc, s.x, s.wDesc, s.w, s.cd, AlgoWinograd, 0.0, s.yDesc, s.y, nil)
		require.Error(t, err)
		assert.Equal(t, status.BadParm, status.CodeOf(err))
		assert.Contains(t, err.Error(), "no invoker was registered")
	})

	t.Run("alpha beta are rejected before any kernel runs", func(t *testing.T) {
		c := NewHostContext("gfx908", Options{})
		s := newTestShapes(t)
		putF32(s.y, 42)

		err := c.ConvolutionForward(
			0.999999, s.xDesc, s.x, s.wDesc, s.w, s.cd, AlgoWinograd, 0.0, s.yDesc, s.y, nil)
		require.Error(t, err)
		assert.Equal(t, status.NotImplemented, status.CodeOf(err))
		assert.Equal(t, float32(42), getF32(s.y, 0), "output must be untouched")
	})

	t.Run("nil buffers", func(t *testing.T) {
		c := NewHostContext("gfx908", Options{})
		s := newTestShapes(t)

		err := c.ConvolutionForward(
			1.0, s.xDesc, nil, s.wDesc, s.w, s.cd, AlgoWinograd, 0.0, s.yDesc, s.y, nil)
		require.Error(t, err)
		assert.Equal(t, status.BadParm, status.CodeOf(err))
	})

	t.Run("strided tensors", func(t *testing.T) {
		c := NewHostContext("gfx908", Options{})
		s := newTestShapes(t)
		strided := NewTensorDescriptorWithStrides(Float, NCHW,
			[]int{1, 8, 8, 8}, []int{1024, 128, 16, 2})

		err := c.ConvolutionForward(
			1.0, strided, s.x, s.wDesc, s.w, s.cd, AlgoWinograd, 0.0, s.yDesc, s.y, nil)
		require.Error(t, err)
		assert.Equal(t, status.NotImplemented, status.CodeOf(err))
	})
}

func TestInt8Restrictions(t *testing.T) {
	cd, err := NewConvolutionDescriptor([]int{0, 0}, []int{1, 1}, []int{1, 1}, 1)
	require.NoError(t, err)
	xDesc := NewTensorDescriptor(Int8x4, NCHW, 1, 8, 8, 8)
	wDesc := NewTensorDescriptor(Int8x4, NCHW, 4, 8, 3, 3)
	yDesc := NewTensorDescriptor(Int32, NCHW, 1, 4, 6, 6)
	x := make([]byte, xDesc.NumBytes())
	w := make([]byte, wDesc.NumBytes())
	y := make([]byte, yDesc.NumBytes())

	t.Run("packed int8 requires gemm", func(t *testing.T) {
		c := NewHostContext("gfx908", Options{})
		err := c.ConvolutionForward(
			1.0, xDesc, x, wDesc, w, cd, AlgoWinograd, 0.0, yDesc, y, nil)
		require.Error(t, err)
		assert.Equal(t, status.NotImplemented, status.CodeOf(err))
		assert.Contains(t, err.Error(), "GEMM")
	})

	t.Run("backward weights takes no int8", func(t *testing.T) {
		c := NewHostContext("gfx908", Options{})
		dwDesc := NewTensorDescriptor(tensor.Int8, NCHW, 4, 8, 3, 3)
		xf := NewTensorDescriptor(tensor.Int8, NCHW, 1, 8, 8, 8)

		_, err := c.FindConvolutionBackwardWeightsAlgorithm(
			yDesc, y, xf, make([]byte, xf.NumBytes()), cd,
			dwDesc, make([]byte, dwDesc.NumBytes()), 10, nil, false)
		require.Error(t, err)
		assert.Equal(t, status.NotImplemented, status.CodeOf(err))
	})
}

func TestImmediateMode(t *testing.T) {
	t.Run("naive forward computes the convolution", func(t *testing.T) {
		c := NewHostContext("gfx908", Options{})
		xDesc := NewTensorDescriptor(Float, NCHW, 1, 1, 2, 2)
		wDesc := NewTensorDescriptor(Float, NCHW, 1, 1, 1, 1)
		yDesc := NewTensorDescriptor(Float, NCHW, 1, 1, 2, 2)
		cd, err := NewConvolutionDescriptor([]int{0, 0}, []int{1, 1}, []int{1, 1}, 1)
		require.NoError(t, err)

		x := make([]byte, xDesc.NumBytes())
		w := make([]byte, wDesc.NumBytes())
		y := make([]byte, yDesc.NumBytes())
		putF32(x, 1, 2, 3, 4)
		putF32(w, 1)

		id := solver.FromName("ConvDirectNaiveConvFwd")
		require.True(t, id.Valid())
		require.NoError(t, c.ConvolutionForwardImmediate(
			xDesc, x, wDesc, w, cd, yDesc, y, nil, id))

		for i, want := range []float32{1, 2, 3, 4} {
			assert.Equal(t, want, getF32(y, i))
		}
	})

	t.Run("invalid solver id", func(t *testing.T) {
		c := NewHostContext("gfx908", Options{})
		s := newTestShapes(t)
		err := c.ConvolutionForwardImmediate(
			s.xDesc, s.x, s.wDesc, s.w, s.cd, s.yDesc, s.y, nil, solver.InvalidID)
		require.Error(t, err)
		assert.Equal(t, status.BadParm, status.CodeOf(err))
	})

	t.Run("backward data channel mismatch", func(t *testing.T) {
		c := NewHostContext("gfx908", Options{})
		s := newTestShapes(t)
		bad := NewTensorDescriptor(Float, NCHW, 1, 3, 6, 6)
		err := c.ConvolutionBackwardDataImmediate(
			bad, make([]byte, bad.NumBytes()), s.wDesc, s.w, s.cd, s.xDesc, s.x,
			nil, solver.FromName("ConvDirectNaiveConvBwd"))
		require.Error(t, err)
		assert.Equal(t, status.BadParm, status.CodeOf(err))
	})
}

func TestSolutionQueries(t *testing.T) {
	t.Run("count is positive", func(t *testing.T) {
		c := NewHostContext("gfx908", Options{})
		s := newTestShapes(t)
		n, err := c.ConvolutionForwardGetSolutionCount(s.xDesc, s.wDesc, s.cd, s.yDesc)
		require.NoError(t, err)
		assert.Greater(t, n, 0)
	})

	t.Run("solutions are ranked", func(t *testing.T) {
		c := NewHostContext("gfx908", Options{})
		s := newTestShapes(t)
		sols, err := c.ConvolutionForwardGetSolution(s.xDesc, s.wDesc, s.cd, s.yDesc, 10)
		require.NoError(t, err)
		require.NotEmpty(t, sols)
		for i, sol := range sols {
			assert.True(t, sol.ID.Valid())
			if i > 0 {
				assert.LessOrEqual(t, sols[i-1].Time, sol.Time)
			}
		}
	})

	t.Run("zero max count", func(t *testing.T) {
		c := NewHostContext("gfx908", Options{})
		s := newTestShapes(t)
		_, err := c.ConvolutionForwardGetSolution(s.xDesc, s.wDesc, s.cd, s.yDesc, 0)
		require.Error(t, err)
		assert.Equal(t, status.BadParm, status.CodeOf(err))
	})

	t.Run("gemm workspace size", func(t *testing.T) {
		c := NewHostContext("gfx908", Options{})
		s := newTestShapes(t)
		ws, err := c.ConvolutionForwardGetSolutionWorkspaceSize(
			s.xDesc, s.wDesc, s.cd, s.yDesc, solver.FromName("GemmFwdRest"))
		require.NoError(t, err)
		assert.Greater(t, ws, uint64(0))
	})

	t.Run("compile then execute immediately", func(t *testing.T) {
		c := NewHostContext("gfx908", Options{})
		s := newTestShapes(t)
		id := solver.FromName("ConvDirectNaiveConvFwd")

		require.NoError(t, c.ConvolutionForwardCompileSolution(s.xDesc, s.wDesc, s.cd, s.yDesc, id))
		require.NoError(t, c.ConvolutionForwardImmediate(
			s.xDesc, s.x, s.wDesc, s.w, s.cd, s.yDesc, s.y, nil, id))
	})
}
