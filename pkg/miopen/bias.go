package miopen

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/solaiys/MIOpen/internal/conv"
	"github.com/solaiys/MIOpen/internal/gpu"
	"github.com/solaiys/MIOpen/internal/status"
	"github.com/solaiys/MIOpen/internal/tensor"
)

// ConvolutionBackwardBias reduces the output gradient over batch and
// spatial dimensions into a per-channel bias gradient. This is a
// fixed-function path: one kernel, cached on the handle by data type,
// with no solver search involved.
func (c *Context) ConvolutionBackwardBias(alpha float64,
	dyDesc TensorDescriptor, dy []byte, beta float64,
	dbDesc TensorDescriptor, db []byte) error {

	if dy == nil || db == nil {
		return status.New(status.BadParm, "tensor buffers cannot be nil")
	}
	if dyDesc.Len(1) != dbDesc.Len(1) {
		return status.New(status.BadParm, "bias channels do not match output-gradient channels")
	}
	if err := conv.ValidateAlphaBeta(alpha, beta); err != nil {
		return err
	}
	if c.cfg.Debug.CheckNumerics {
		c.checkNumerics(dyDesc, "dy", dy)
	}

	const algoName = "ConvolutionBwdBias"
	config := "convbwdbias-" + dyDesc.DataType().String()

	kernels := c.handle.GetKernels(algoName, config)
	var kernel gpu.CompiledKernel
	if len(kernels) > 0 {
		kernel = kernels[0]
	} else {
		const groupSize = 256
		info := gpu.KernelInfo{
			ProgramName: "MIOpenConvBwdBias.cl",
			KernelName:  "MIOpenConvBwdB",
			CompileOptions: fmt.Sprintf(
				"-DCONVBWD_GROUP_SZ=%d -DCONVBWDB_LCL_MEMSZ=%d -DCONVBWDB_UNITSIZE=4 -DDTYPE=%s",
				groupSize, groupSize, dyDesc.DataType()),
			GlobalWorkDim: []int{groupSize, 256, 1},
			LocalWorkDim:  []int{groupSize, 1, 1},
		}
		var err error
		kernel, err = c.handle.AddKernel(algoName, config, info)
		if err != nil {
			return err
		}
	}

	err := c.handle.RunKernel(kernel, gpu.InvokeParams{
		Type: gpu.InvokeTypeRun,
		Tensors: gpu.ConvTensors{
			XDesc: dyDesc, X: dy,
			YDesc: dbDesc, Y: db,
		},
	})
	if err != nil {
		return err
	}
	if dyDesc.DataType() == tensor.Float && dyDesc.Layout() == tensor.NCHW {
		hostBackwardBias(dyDesc, dy, db)
	}

	if c.cfg.Debug.CheckNumerics {
		c.checkNumerics(dbDesc, "db", db)
	}
	return nil
}

// hostBackwardBias fills db with the reduction result for fp32 NCHW
// tensors, mirroring how the direct naive solver produces real output on
// the host emulation backend.
func hostBackwardBias(dyDesc TensorDescriptor, dy, db []byte) {
	n := dyDesc.Len(0)
	k := dyDesc.Len(1)
	mapSize := 1
	for _, l := range dyDesc.Lengths()[2:] {
		mapSize *= l
	}
	for ch := 0; ch < k; ch++ {
		var sum float32
		for b := 0; b < n; b++ {
			base := (b*k + ch) * mapSize * 4
			for i := 0; i < mapSize; i++ {
				if off := base + i*4; off+4 <= len(dy) {
					sum += math.Float32frombits(binary.LittleEndian.Uint32(dy[off:]))
				}
			}
		}
		if off := ch * 4; off+4 <= len(db) {
			binary.LittleEndian.PutUint32(db[off:], math.Float32bits(sum))
		}
	}
}
