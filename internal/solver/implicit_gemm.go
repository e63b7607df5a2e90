package solver

import (
	"github.com/solaiys/MIOpen/internal/conv"
	"github.com/solaiys/MIOpen/internal/gpu"
	"github.com/solaiys/MIOpen/internal/tensor"
)

// implicitGemm covers the dynamic implicit-GEMM kernels, one registration
// per direction. They want channel counts aligned to the vector width.
type implicitGemm struct {
	name string
	dir  conv.Direction
}

func (s implicitGemm) Name() string         { return s.name }
func (implicitGemm) Algo() Algorithm        { return AlgoImplicitGEMM }
func (implicitGemm) IsDynamic() bool        { return true }
func (implicitGemm) MayNeedWorkspace() bool { return false }
func (implicitGemm) RequiresSearch() bool   { return false }

func (s implicitGemm) IsApplicable(ctx *ExecutionContext, p conv.Problem) bool {
	return p.Direction() == s.dir &&
		is2D(p) && isLayout(p, tensor.NCHW) &&
		dtypeIn(p, tensor.Float, tensor.Half) &&
		p.Conv.GroupCount == 1 &&
		p.InChannels()%8 == 0 && p.OutChannels()%8 == 0
}

func (implicitGemm) GetWorkspaceSize(*ExecutionContext, conv.Problem) uint64 { return 0 }

func (implicitGemm) GetWti(ctx *ExecutionContext, p conv.Problem) float64 {
	if p.InChannels()%32 == 0 && p.OutChannels()%32 == 0 {
		return 0.75
	}
	return 0.55
}

func (s implicitGemm) FindSolution(ctx *ExecutionContext, p conv.Problem) (ConvSolution, error) {
	return ConvSolution{
		Kernels: []gpu.KernelInfo{{
			ProgramName:   "igemm_v4r1_dynamic.s",
			KernelName:    "igemm_v4r1_dynamic_" + s.dir.String(),
			GlobalWorkDim: []int{p.Batch() * p.OutChannels(), 1, 1},
			LocalWorkDim:  []int{256, 1, 1},
		}},
		InvokerFactory: runKernelsFactory,
	}, nil
}
