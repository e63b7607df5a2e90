package find

import (
	"go.uber.org/zap"

	"github.com/solaiys/MIOpen/internal/conv"
	"github.com/solaiys/MIOpen/internal/gpu"
	"github.com/solaiys/MIOpen/internal/solver"
	"github.com/solaiys/MIOpen/internal/status"
)

// LoadOrPrepareInvoker returns the invoker cached on the handle for
// (network config, solver), preparing and registering one on a miss.
// This is how immediate-mode execution acquires invokers without a prior
// Find in this process.
func (e *Engine) LoadOrPrepareInvoker(ctx *solver.ExecutionContext, p conv.Problem, id solver.ID) (*gpu.Invoker, error) {
	config := string(p.NetworkConfig())
	if inv, ok := ctx.Handle.GetInvoker(config, id.String()); ok {
		return inv, nil
	}
	return e.prepareInvoker(ctx, p, id)
}

// prepareInvoker compiles the solver's kernels for the problem and
// registers the resulting invoker under both its solver id and algorithm
// name. One-off preparation never runs a search pass, whatever the
// context says.
func (e *Engine) prepareInvoker(ctx *solver.ExecutionContext, p conv.Problem, id solver.ID) (*gpu.Invoker, error) {
	s, err := id.Solver()
	if err != nil {
		return nil, err
	}
	prep := *ctx
	prep.DoSearch = false

	sol, err := s.FindSolution(&prep, p)
	if err != nil {
		return nil, err
	}
	inv, err := ctx.Handle.PrepareInvoker(s.Name(), sol.InvokerFactory, sol.Kernels)
	if err != nil {
		return nil, err
	}
	if ctx.Cfg.Debug.CompileOnly {
		return nil, status.New(status.GpuOperationsSkipped,
			"invoker preparation aborted after compilation: GPU operations are disabled")
	}
	config := string(p.NetworkConfig())
	ctx.Handle.RegisterInvoker(inv, config, s.Name(), s.Algo().DirectionalString(p.Direction()))
	e.logger.Debug("prepared invoker",
		zap.String("network_config", config), zap.String("solver", s.Name()))
	return inv, nil
}

// CompileSolution compiles a specific solution's kernels ahead of time so
// the first execution pays no compilation cost. The solution id usually
// comes from GetSolutions.
func (e *Engine) CompileSolution(ctx *solver.ExecutionContext, p conv.Problem, id solver.ID) error {
	if !id.Valid() {
		return status.Errorf(status.BadParm, "invalid solution id %d", id.Value())
	}
	// Ahead-of-time compiles are allowed for search-requiring solvers
	// too; the search gate only applies to the find pipeline.
	prep := *ctx
	prep.DisableSearchEnforce = true
	_, err := e.LoadOrPrepareInvoker(&prep, p, id)
	return err
}
