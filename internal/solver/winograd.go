package solver

import (
	"github.com/solaiys/MIOpen/internal/conv"
	"github.com/solaiys/MIOpen/internal/gpu"
	"github.com/solaiys/MIOpen/internal/tensor"
)

// winogradRxS is the shape-flexible Winograd kernel. Dynamic: one binary
// serves many shapes, so it is safe for immediate-mode selection.
type winogradRxS struct{}

func (winogradRxS) Name() string           { return "ConvBinWinogradRxS" }
func (winogradRxS) Algo() Algorithm        { return AlgoWinograd }
func (winogradRxS) IsDynamic() bool        { return true }
func (winogradRxS) MayNeedWorkspace() bool { return false }
func (winogradRxS) RequiresSearch() bool   { return false }

func (winogradRxS) IsApplicable(ctx *ExecutionContext, p conv.Problem) bool {
	if p.Direction() == conv.BackwardWeights {
		return false
	}
	fs := p.FilterSpatial()
	return is2D(p) && isLayout(p, tensor.NCHW) &&
		dtypeIn(p, tensor.Float, tensor.Half) &&
		p.Conv.GroupCount == 1 &&
		unitStrideNoDilation(p) &&
		len(fs) == 2 && fs[0] >= 2 && fs[0] <= 12 && fs[1] >= 2 && fs[1] <= 12
}

func (winogradRxS) GetWorkspaceSize(*ExecutionContext, conv.Problem) uint64 { return 0 }

func (winogradRxS) GetWti(ctx *ExecutionContext, p conv.Problem) float64 {
	if filterIs(p, 3, 3) {
		return 0.9
	}
	return 0.6
}

func (s winogradRxS) FindSolution(ctx *ExecutionContext, p conv.Problem) (ConvSolution, error) {
	return winogradSolution(s.Name(), "conv_winograd_rxs.s", "miopenSp3AsmConvRxSU", p), nil
}

// winogradRxSf3x2 is the F(3,2) variant specialized for 3x3 filters,
// forward only.
type winogradRxSf3x2 struct{}

func (winogradRxSf3x2) Name() string           { return "ConvBinWinogradRxSf3x2" }
func (winogradRxSf3x2) Algo() Algorithm        { return AlgoWinograd }
func (winogradRxSf3x2) IsDynamic() bool        { return true }
func (winogradRxSf3x2) MayNeedWorkspace() bool { return false }
func (winogradRxSf3x2) RequiresSearch() bool   { return false }

func (winogradRxSf3x2) IsApplicable(ctx *ExecutionContext, p conv.Problem) bool {
	return p.Direction() == conv.Forward &&
		is2D(p) && isLayout(p, tensor.NCHW) &&
		dtypeIn(p, tensor.Float) &&
		p.Conv.GroupCount == 1 &&
		filterIs(p, 3, 3) && unitStrideNoDilation(p)
}

func (winogradRxSf3x2) GetWorkspaceSize(*ExecutionContext, conv.Problem) uint64 { return 0 }

func (winogradRxSf3x2) GetWti(ctx *ExecutionContext, p conv.Problem) float64 {
	// Best-in-class on 3x3 once channels saturate the CUs.
	if p.InChannels() >= 32 && p.OutChannels() >= 32 {
		return 0.95
	}
	return 0.7
}

func (s winogradRxSf3x2) FindSolution(ctx *ExecutionContext, p conv.Problem) (ConvSolution, error) {
	return winogradSolution(s.Name(), "conv_winograd_f3x2.s", "miopenSp3AsmConvF3x2", p), nil
}

func winogradSolution(solverName, program, kernel string, p conv.Problem) ConvSolution {
	return ConvSolution{
		Kernels: []gpu.KernelInfo{{
			ProgramName:   program,
			KernelName:    kernel,
			GlobalWorkDim: []int{512 * 64, 1, 1},
			LocalWorkDim:  []int{512, 1, 1},
		}},
		InvokerFactory: runKernelsFactory,
	}
}
