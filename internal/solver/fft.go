package solver

import (
	"github.com/solaiys/MIOpen/internal/conv"
	"github.com/solaiys/MIOpen/internal/gpu"
	"github.com/solaiys/MIOpen/internal/tensor"
)

// fft transforms input and filter, multiplies in the frequency domain and
// transforms back. Needs a large scratch buffer for the transforms and
// only pays off on large spatial sizes.
type fft struct{}

func (fft) Name() string           { return "ConvFFT" }
func (fft) Algo() Algorithm        { return AlgoFFT }
func (fft) IsDynamic() bool        { return false }
func (fft) MayNeedWorkspace() bool { return true }
func (fft) RequiresSearch() bool   { return false }

func (fft) IsApplicable(ctx *ExecutionContext, p conv.Problem) bool {
	return p.Direction() == conv.Forward &&
		is2D(p) && isLayout(p, tensor.NCHW) &&
		dtypeIn(p, tensor.Float) &&
		p.Conv.GroupCount == 1 &&
		unitStrideNoDilation(p) &&
		p.SpatialSize() >= 14*14
}

func (fft) GetWorkspaceSize(ctx *ExecutionContext, p conv.Problem) uint64 {
	// Two complex planes per tensor: input, filter and output spectra.
	elems := p.Batch()*p.InChannels()*p.SpatialSize() +
		p.OutChannels()*p.InChannels()*p.SpatialSize()
	return uint64(2 * elems * p.In.DataType().Size())
}

// GetWti returns a negative value: the FFT path has no calibrated
// throughput model, so immediate mode never picks it unmeasured.
func (fft) GetWti(ctx *ExecutionContext, p conv.Problem) float64 { return -1 }

func (s fft) FindSolution(ctx *ExecutionContext, p conv.Problem) (ConvSolution, error) {
	return ConvSolution{
		Kernels: []gpu.KernelInfo{
			{
				ProgramName:   "MIOpenConvFFT.cl",
				KernelName:    "MIOpenConvFFT_fwd_in",
				GlobalWorkDim: []int{p.Batch() * p.InChannels(), 1, 1},
				LocalWorkDim:  []int{64, 1, 1},
			},
			{
				ProgramName:   "MIOpenConvFFT.cl",
				KernelName:    "MIOpenConvFFT_cgemm",
				GlobalWorkDim: []int{p.Batch() * p.OutChannels(), 1, 1},
				LocalWorkDim:  []int{64, 1, 1},
			},
			{
				ProgramName:   "MIOpenConvFFT.cl",
				KernelName:    "MIOpenConvFFT_fwd_out",
				GlobalWorkDim: []int{p.Batch() * p.OutChannels(), 1, 1},
				LocalWorkDim:  []int{64, 1, 1},
			},
		},
		WorkspaceSize:  s.GetWorkspaceSize(ctx, p),
		InvokerFactory: runKernelsFactory,
	}, nil
}
