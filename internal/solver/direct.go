package solver

import (
	"fmt"

	"github.com/solaiys/MIOpen/internal/conv"
	"github.com/solaiys/MIOpen/internal/gpu"
	"github.com/solaiys/MIOpen/internal/tensor"
)

// asm3x3u is the hand-written assembly kernel for 3x3 unit-stride forward
// convolution. Perf-tunable: it only participates when exhaustive search
// is allowed.
type asm3x3u struct{}

func (asm3x3u) Name() string           { return "ConvAsm3x3U" }
func (asm3x3u) Algo() Algorithm        { return AlgoDirect }
func (asm3x3u) IsDynamic() bool        { return false }
func (asm3x3u) MayNeedWorkspace() bool { return false }
func (asm3x3u) RequiresSearch() bool   { return true }

func (asm3x3u) IsApplicable(ctx *ExecutionContext, p conv.Problem) bool {
	return p.Direction() == conv.Forward &&
		is2D(p) && isLayout(p, tensor.NCHW) &&
		dtypeIn(p, tensor.Float) &&
		p.Conv.GroupCount == 1 &&
		filterIs(p, 3, 3) && unitStrideNoDilation(p)
}

func (asm3x3u) GetWorkspaceSize(*ExecutionContext, conv.Problem) uint64 { return 0 }

func (asm3x3u) GetWti(ctx *ExecutionContext, p conv.Problem) float64 {
	// Tuned assembly; strong on deep layers, weaker on tiny channel
	// counts where launch overhead dominates.
	if p.InChannels() < 16 {
		return 0.5
	}
	return 0.8
}

func (s asm3x3u) FindSolution(ctx *ExecutionContext, p conv.Problem) (ConvSolution, error) {
	return directSolution(s.Name(), "conv3x3.s", "miopenSp3AsmConv3x3F", p), nil
}

// asm1x1u handles 1x1 unit-stride forward convolution in assembly.
type asm1x1u struct{}

func (asm1x1u) Name() string           { return "ConvAsm1x1U" }
func (asm1x1u) Algo() Algorithm        { return AlgoDirect }
func (asm1x1u) IsDynamic() bool        { return false }
func (asm1x1u) MayNeedWorkspace() bool { return false }
func (asm1x1u) RequiresSearch() bool   { return false }

func (asm1x1u) IsApplicable(ctx *ExecutionContext, p conv.Problem) bool {
	return p.Direction() == conv.Forward &&
		is2D(p) && isLayout(p, tensor.NCHW) &&
		dtypeIn(p, tensor.Float) &&
		p.Conv.GroupCount == 1 &&
		filterIs(p, 1, 1) && unitStrideNoDilation(p) && noPadding(p)
}

func (asm1x1u) GetWorkspaceSize(*ExecutionContext, conv.Problem) uint64 { return 0 }

func (asm1x1u) GetWti(ctx *ExecutionContext, p conv.Problem) float64 {
	if p.InChannels()%4 != 0 {
		return 0.4
	}
	return 0.84
}

func (s asm1x1u) FindSolution(ctx *ExecutionContext, p conv.Problem) (ConvSolution, error) {
	return directSolution(s.Name(), "conv1x1u.s", "miopenGcnAsmConv1x1U", p), nil
}

// oclDirectFwd is the generic OpenCL direct kernel: slow but widely
// applicable.
type oclDirectFwd struct{}

func (oclDirectFwd) Name() string           { return "ConvOclDirectFwd" }
func (oclDirectFwd) Algo() Algorithm        { return AlgoDirect }
func (oclDirectFwd) IsDynamic() bool        { return false }
func (oclDirectFwd) MayNeedWorkspace() bool { return false }
func (oclDirectFwd) RequiresSearch() bool   { return false }

func (oclDirectFwd) IsApplicable(ctx *ExecutionContext, p conv.Problem) bool {
	return p.Direction() == conv.Forward &&
		is2D(p) && isLayout(p, tensor.NCHW) &&
		dtypeIn(p, tensor.Float, tensor.Half) &&
		groupValid(p)
}

func (oclDirectFwd) GetWorkspaceSize(*ExecutionContext, conv.Problem) uint64 { return 0 }

func (oclDirectFwd) GetWti(ctx *ExecutionContext, p conv.Problem) float64 { return 0.3 }

func (s oclDirectFwd) FindSolution(ctx *ExecutionContext, p conv.Problem) (ConvSolution, error) {
	return directSolution(s.Name(), "MIOpenConvDirUni.cl", "MIOpenConvUni", p), nil
}

func directSolution(solverName, program, kernel string, p conv.Problem) ConvSolution {
	outSpatial := p.Out.Lengths()
	gwd := []int{p.OutChannels(), p.Batch(), 1}
	if len(outSpatial) == 4 {
		gwd[2] = outSpatial[2] * outSpatial[3]
	}
	return ConvSolution{
		Kernels: []gpu.KernelInfo{{
			ProgramName:    program,
			KernelName:     kernel,
			CompileOptions: fmt.Sprintf("-DMLO_DIR=%s -DMLO_GRP=%d", p.Direction(), p.Conv.GroupCount),
			GlobalWorkDim:  gwd,
			LocalWorkDim:   []int{256, 1, 1},
		}},
		InvokerFactory: runKernelsFactory,
	}
}
