package solver

import (
	"go.uber.org/zap"

	"github.com/solaiys/MIOpen/internal/config"
	"github.com/solaiys/MIOpen/internal/conv"
	"github.com/solaiys/MIOpen/internal/gpu"
)

// ExecutionContext is the per-call configuration every solver query
// receives: the target handle, search-enable flags and the effective
// library configuration.
type ExecutionContext struct {
	Handle *gpu.Handle
	Cfg    *config.Config
	Log    *zap.Logger

	// DoSearch permits exhaustive/brute-force benchmarking. Solvers that
	// require a search pass are skipped entirely when it is off.
	DoSearch bool
	// DisableSearchEnforce is set for one-off compiles (immediate mode);
	// it overrides DoSearch.
	DisableSearchEnforce bool
	// UseDynamicOnly restricts the search pipeline to dynamic solvers
	// (DynamicHybrid find mode).
	UseDynamicOnly bool
}

// ArchName returns the device architecture the context targets.
func (c *ExecutionContext) ArchName() string {
	if c.Handle == nil {
		return ""
	}
	return c.Handle.DeviceName()
}

// SearchAllowed reports whether brute-force solvers may run their search
// pass under this context.
func (c *ExecutionContext) SearchAllowed() bool {
	return c.DoSearch && !c.DisableSearchEnforce
}

// ConvSolution is what a solver produces for a concrete problem: the
// kernels to compile, the workspace requirement and the factory that
// binds compiled kernels into a runnable invoker.
type ConvSolution struct {
	Kernels        []gpu.KernelInfo
	WorkspaceSize  uint64
	InvokerFactory gpu.InvokerFactory
}

// Solver is one concrete algorithm implementation for convolution.
// Implementations are stateless, constructed once at process start as
// part of the static registry, and every query is a pure function of
// (ctx, problem).
type Solver interface {
	// Name is the stable registry name, also used in find-db records.
	Name() string
	// Algo is the algorithm family the solver implements.
	Algo() Algorithm
	// IsApplicable reports whether the solver can handle the problem.
	// Must be side-effect free.
	IsApplicable(ctx *ExecutionContext, p conv.Problem) bool
	// IsDynamic reports whether the produced kernels adapt to shapes at
	// launch time, making the solver safe to pick without recompiling.
	IsDynamic() bool
	// MayNeedWorkspace reports whether GetWorkspaceSize can be nonzero.
	MayNeedWorkspace() bool
	// GetWorkspaceSize returns the scratch requirement in bytes.
	GetWorkspaceSize(ctx *ExecutionContext, p conv.Problem) uint64
	// GetWti returns the Workload Throughput Index: a normalized
	// efficiency estimate used to rank without measurement. Negative
	// means unknown.
	GetWti(ctx *ExecutionContext, p conv.Problem) float64
	// RequiresSearch marks brute-force solvers that may only run when
	// the context permits exhaustive search.
	RequiresSearch() bool
	// FindSolution produces the compiled-kernel plan for the problem.
	FindSolution(ctx *ExecutionContext, p conv.Problem) (ConvSolution, error)
}

// runKernelsFactory is the common invoker factory: launch each compiled
// kernel in order on the handle's stream.
func runKernelsFactory(kernels []gpu.CompiledKernel) gpu.InvokeHandler {
	return func(h *gpu.Handle, p gpu.InvokeParams) error {
		for _, k := range kernels {
			if err := h.RunKernel(k, p); err != nil {
				return err
			}
		}
		return nil
	}
}
