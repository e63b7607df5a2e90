package miopen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solaiys/MIOpen/internal/status"
)

func TestConvolutionBackwardBias(t *testing.T) {
	t.Run("reduces over batch and spatial dimensions", func(t *testing.T) {
		c := NewHostContext("gfx908", Options{})
		dyDesc := NewTensorDescriptor(Float, NCHW, 2, 3, 2, 2)
		dbDesc := NewTensorDescriptor(Float, NCHW, 1, 3, 1, 1)

		dy := make([]byte, dyDesc.NumBytes())
		db := make([]byte, dbDesc.NumBytes())
		vals := make([]float32, dyDesc.Elements())
		for i := range vals {
			vals[i] = float32(i + 1)
		}
		putF32(dy, vals...)

		require.NoError(t, c.ConvolutionBackwardBias(1.0, dyDesc, dy, 0.0, dbDesc, db))

		// Channel c of batch b holds the 4 values starting at (b*3+c)*4.
		assert.Equal(t, float32(10+58), getF32(db, 0))
		assert.Equal(t, float32(26+74), getF32(db, 1))
		assert.Equal(t, float32(42+90), getF32(db, 2))
	})

	t.Run("second call reuses the cached kernel", func(t *testing.T) {
		c := NewHostContext("gfx908", Options{})
		dyDesc := NewTensorDescriptor(Float, NCHW, 1, 2, 2, 2)
		dbDesc := NewTensorDescriptor(Float, NCHW, 1, 2, 1, 1)
		dy := make([]byte, dyDesc.NumBytes())
		db := make([]byte, dbDesc.NumBytes())

		require.NoError(t, c.ConvolutionBackwardBias(1.0, dyDesc, dy, 0.0, dbDesc, db))
		require.NoError(t, c.ConvolutionBackwardBias(1.0, dyDesc, dy, 0.0, dbDesc, db))
		assert.Len(t, c.Handle().GetKernels("ConvolutionBwdBias", "convbwdbias-fp32"), 1)
	})

	t.Run("channel mismatch", func(t *testing.T) {
		c := NewHostContext("gfx908", Options{})
		dyDesc := NewTensorDescriptor(Float, NCHW, 1, 3, 2, 2)
		dbDesc := NewTensorDescriptor(Float, NCHW, 1, 2, 1, 1)

		err := c.ConvolutionBackwardBias(1.0, dyDesc,
			make([]byte, dyDesc.NumBytes()), 0.0, dbDesc, make([]byte, dbDesc.NumBytes()))
		require.Error(t, err)
		assert.Equal(t, status.BadParm, status.CodeOf(err))
	})

	t.Run("nil buffers", func(t *testing.T) {
		c := NewHostContext("gfx908", Options{})
		dyDesc := NewTensorDescriptor(Float, NCHW, 1, 2, 2, 2)
		dbDesc := NewTensorDescriptor(Float, NCHW, 1, 2, 1, 1)

		err := c.ConvolutionBackwardBias(1.0, dyDesc, nil, 0.0, dbDesc, make([]byte, dbDesc.NumBytes()))
		require.Error(t, err)
		assert.Equal(t, status.BadParm, status.CodeOf(err))
	})

	t.Run("scaling is not supported", func(t *testing.T) {
		c := NewHostContext("gfx908", Options{})
		dyDesc := NewTensorDescriptor(Float, NCHW, 1, 2, 2, 2)
		dbDesc := NewTensorDescriptor(Float, NCHW, 1, 2, 1, 1)

		err := c.ConvolutionBackwardBias(2.0, dyDesc,
			make([]byte, dyDesc.NumBytes()), 0.0, dbDesc, make([]byte, dbDesc.NumBytes()))
		require.Error(t, err)
		assert.Equal(t, status.NotImplemented, status.CodeOf(err))
	})
}
