package solver

import (
	"github.com/solaiys/MIOpen/internal/conv"
	"github.com/solaiys/MIOpen/internal/gpu"
	"github.com/solaiys/MIOpen/internal/tensor"
)

// gemmSolver lowers convolution to matrix multiplication through an
// im2col/col2im transform. One registration per direction. This is the
// only family accepting Int8x4 input, and only forward.
type gemmSolver struct {
	name string
	dir  conv.Direction
}

func (s gemmSolver) Name() string         { return s.name }
func (gemmSolver) Algo() Algorithm        { return AlgoGEMM }
func (gemmSolver) IsDynamic() bool        { return true }
func (gemmSolver) MayNeedWorkspace() bool { return true }
func (gemmSolver) RequiresSearch() bool   { return false }

func (s gemmSolver) IsApplicable(ctx *ExecutionContext, p conv.Problem) bool {
	if p.Direction() != s.dir || !is2D(p) || !groupValid(p) {
		return false
	}
	switch p.In.DataType() {
	case tensor.Float, tensor.Half, tensor.BFloat16:
		return true
	case tensor.Int8, tensor.Int8x4:
		// Int8 paths exist for inference only.
		return s.dir == conv.Forward
	}
	return false
}

func (s gemmSolver) GetWorkspaceSize(ctx *ExecutionContext, p conv.Problem) uint64 {
	fs := p.FilterSpatial()
	if len(fs) != 2 {
		return 0
	}
	if fs[0] == 1 && fs[1] == 1 && unitStrideNoDilation(p) && noPadding(p) {
		// 1x1 maps straight onto GEMM, no im2col buffer.
		return 0
	}
	outLens := p.Out.Lengths()
	outSpatial := 1
	for i := 2; i < len(outLens); i++ {
		outSpatial *= outLens[i]
	}
	cols := (p.InChannels() / p.Conv.GroupCount) * fs[0] * fs[1]
	return uint64(cols * outSpatial * p.In.DataType().Size())
}

func (gemmSolver) GetWti(ctx *ExecutionContext, p conv.Problem) float64 {
	if filterIs(p, 1, 1) {
		return 0.6
	}
	return 0.4
}

func (s gemmSolver) FindSolution(ctx *ExecutionContext, p conv.Problem) (ConvSolution, error) {
	kernels := []gpu.KernelInfo{}
	if s.GetWorkspaceSize(ctx, p) > 0 {
		transform := "MIOpenIm2Col"
		if s.dir == conv.BackwardData {
			transform = "MIOpenCol2Im"
		}
		kernels = append(kernels, gpu.KernelInfo{
			ProgramName:   "MIOpenUtilKernels.cl",
			KernelName:    transform,
			GlobalWorkDim: []int{p.Batch() * p.SpatialSize(), 1, 1},
			LocalWorkDim:  []int{256, 1, 1},
		})
	}
	kernels = append(kernels, gpu.KernelInfo{
		ProgramName:   "rocblas",
		KernelName:    "gemm_" + s.dir.String(),
		GlobalWorkDim: []int{p.Batch() * p.OutChannels(), 1, 1},
		LocalWorkDim:  []int{256, 1, 1},
	})
	return ConvSolution{
		Kernels:        kernels,
		WorkspaceSize:  s.GetWorkspaceSize(ctx, p),
		InvokerFactory: runKernelsFactory,
	}, nil
}
