package find

import (
	"time"

	"go.uber.org/zap"

	"github.com/solaiys/MIOpen/internal/conv"
	"github.com/solaiys/MIOpen/internal/finddb"
	"github.com/solaiys/MIOpen/internal/gpu"
	"github.com/solaiys/MIOpen/internal/metrics"
	"github.com/solaiys/MIOpen/internal/solver"
	"github.com/solaiys/MIOpen/internal/status"
)

// FindConvolution runs solver search for the problem and returns up to
// requestCount performance fields, best first, at most one per algorithm
// family. The tensors are live buffers the benchmarked solvers execute
// against; workspace must be large enough for any solver that may run.
//
// The find mode on the convolution descriptor decides how much work
// happens: Fast and the Hybrid variants consult the immediate-mode
// engine first and only fall through to the full benchmarking pipeline
// when it cannot answer.
func (e *Engine) FindConvolution(ctx *solver.ExecutionContext, p conv.Problem,
	tensors gpu.ConvTensors, workspace []byte, requestCount int) ([]PerfField, error) {

	if requestCount < 1 {
		return nil, status.New(status.BadParm, "requested algorithm count must be at least 1")
	}

	start := time.Now()
	defer func() {
		metrics.FindDuration.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	// The descriptor's zero value means "use the configured default".
	mode := p.Conv.FindMode
	if mode == conv.FindModeNormal {
		mode = FindModeOfConfig(ctx)
	}

	if mode != conv.FindModeNormal {
		sols, fallbackTaken, err := e.GetSolutions(ctx, p, requestCount)
		if err != nil {
			return nil, err
		}
		// Hybrid trusts the find-db but not the heuristic fallback: a
		// fallback answer means no record exists, so run a real search
		// instead. Fast takes whatever it can get.
		hybrid := mode == conv.FindModeHybrid || mode == conv.FindModeDynamicHybrid
		useImmediate := len(sols) > 0 &&
			(!(hybrid && fallbackTaken) || ctx.Cfg.Debug.ForceImmedFallback)
		if useImmediate {
			return e.adoptImmediateSolutions(ctx, p, sols)
		}
		if mode == conv.FindModeDynamicHybrid {
			ctx.UseDynamicOnly = true
		}
	}

	rec, err := e.db.TryLoad(string(p.NetworkConfig()), func(r finddb.Record) error {
		return e.findCore(ctx, p, tensors, workspace, r)
	})
	if err != nil {
		return nil, err
	}
	if err := e.ensureInvokers(ctx, p, rec); err != nil {
		return nil, err
	}

	found := make([]PerfField, 0, len(rec))
	for name, entry := range rec {
		found = append(found, PerfField{
			Algorithm: entry.Algorithm,
			SolverID:  name,
			Time:      entry.Time,
			Workspace: entry.Workspace,
		})
	}
	found = ShrinkToFind10Results(found)
	if len(found) > requestCount {
		found = found[:requestCount]
	}
	if len(found) == 0 {
		return nil, status.New(status.NotImplemented, "no solver succeeded for this convolution")
	}
	e.logger.Info("find complete",
		zap.String("network_config", string(p.NetworkConfig())),
		zap.Int("results", len(found)),
		zap.String("best", found[0].SolverID),
		zap.Float64("best_time_ms", found[0].Time))
	return found, nil
}

// FindModeOfConfig resolves the configured default find mode. A malformed
// configuration value degrades to Normal rather than failing the call.
func FindModeOfConfig(ctx *solver.ExecutionContext) conv.FindMode {
	m, err := conv.ParseFindMode(ctx.Cfg.Find.Mode)
	if err != nil {
		return conv.FindModeNormal
	}
	return m
}

// adoptImmediateSolutions turns immediate-mode solutions into find
// results, preparing an invoker for each so the subsequent execution call
// finds one registered.
func (e *Engine) adoptImmediateSolutions(ctx *solver.ExecutionContext, p conv.Problem, sols []Solution) ([]PerfField, error) {
	found := make([]PerfField, 0, len(sols))
	for _, sol := range sols {
		if _, err := e.LoadOrPrepareInvoker(ctx, p, sol.ID); err != nil {
			e.logger.Info("skipping immediate solution",
				zap.String("solver", sol.ID.String()), zap.Error(err))
			continue
		}
		found = append(found, PerfField{
			Algorithm: sol.Algo.DirectionalString(p.Direction()),
			SolverID:  sol.ID.String(),
			Time:      sol.Time,
			Workspace: sol.Workspace,
			Estimated: sol.Estimated,
		})
	}
	if len(found) == 0 {
		return nil, status.New(status.NotImplemented, immFallbackFailed)
	}
	return ShrinkToFind10Results(found), nil
}

// findCore is the benchmarking pipeline behind a find-db miss: compile
// every viable solver, run each once with profiling on, and fill the
// record with measured times. Invokers are registered as a side effect so
// execution right after Find needs no recompilation.
func (e *Engine) findCore(ctx *solver.ExecutionContext, p conv.Problem,
	tensors gpu.ConvTensors, workspace []byte, rec finddb.Record) error {

	h := ctx.Handle
	config := string(p.NetworkConfig())

	type candidate struct {
		s   solver.Solver
		sol solver.ConvSolution
		inv *gpu.Invoker
	}
	var candidates []candidate

	for _, id := range solver.GetSolversByPrimitive(solver.PrimitiveConvolution) {
		s, err := id.Solver()
		if err != nil {
			continue
		}
		if ctx.Cfg.AlgorithmDisabled(s.Algo().String()) || ctx.Cfg.SolverDisabled(s.Name()) {
			continue
		}
		if s.RequiresSearch() && !ctx.SearchAllowed() {
			continue
		}
		if ctx.UseDynamicOnly && !s.IsDynamic() {
			continue
		}
		if !s.IsApplicable(ctx, p) {
			continue
		}
		sol, err := s.FindSolution(ctx, p)
		if err != nil {
			e.logger.Info("solver failed to produce a solution",
				zap.String("solver", s.Name()), zap.Error(err))
			continue
		}
		if sol.WorkspaceSize > uint64(len(workspace)) {
			e.logger.Debug("skipping solver, workspace too small",
				zap.String("solver", s.Name()),
				zap.Uint64("required", sol.WorkspaceSize),
				zap.Int("available", len(workspace)))
			continue
		}
		inv, err := h.PrepareInvoker(s.Name(), sol.InvokerFactory, sol.Kernels)
		if err != nil {
			// Compile failures demote the solver to inapplicable for
			// this problem rather than failing the whole search.
			e.logger.Info("solver failed to compile",
				zap.String("solver", s.Name()), zap.Error(err))
			continue
		}
		h.RegisterInvoker(inv, config, s.Name(), s.Algo().DirectionalString(p.Direction()))
		candidates = append(candidates, candidate{s: s, sol: sol, inv: inv})
	}

	if ctx.Cfg.Debug.CompileOnly {
		return status.New(status.GpuOperationsSkipped,
			"find aborted after compilation: GPU operations are disabled")
	}

	params := gpu.InvokeParams{
		Type:      gpu.InvokeTypeEvaluate,
		Tensors:   tensors,
		Workspace: workspace,
	}
	h.EnableProfiling(true)
	defer h.EnableProfiling(false)

	for _, c := range candidates {
		h.ResetAccumKernelTime()
		wall := time.Now()
		if err := c.inv.Invoke(h, params); err != nil {
			e.logger.Info("solver failed during evaluation",
				zap.String("solver", c.s.Name()), zap.Error(err))
			continue
		}
		metrics.SolverBenchmarks.Inc()
		elapsed := h.AccumKernelTime()
		if elapsed <= 0 {
			elapsed = float64(time.Since(wall).Microseconds()) / 1000.0
		}
		e.logger.Debug("benchmarked solver",
			zap.String("solver", c.s.Name()), zap.Float64("time_ms", elapsed))
		rec[c.s.Name()] = finddb.Entry{
			Algorithm: c.s.Algo().DirectionalString(p.Direction()),
			Time:      elapsed,
			Workspace: c.sol.WorkspaceSize,
		}
	}

	if len(rec) == 0 {
		return status.New(status.NotImplemented, "no solver succeeded for this convolution")
	}
	return nil
}

// ensureInvokers makes sure each record entry has a registered invoker on
// the handle. Entries loaded from a find-db written by an earlier process
// have none yet; stale entries that can no longer be prepared are
// dropped from the returned record but kept on disk.
func (e *Engine) ensureInvokers(ctx *solver.ExecutionContext, p conv.Problem, rec finddb.Record) error {
	config := string(p.NetworkConfig())
	for name := range rec {
		if _, ok := ctx.Handle.GetInvoker(config, name); ok {
			continue
		}
		id := solver.FromName(name)
		if !id.Valid() {
			e.logger.Info("dropping find-db entry with unknown solver", zap.String("solver", name))
			delete(rec, name)
			continue
		}
		if _, err := e.LoadOrPrepareInvoker(ctx, p, id); err != nil {
			if status.CodeOf(err) == status.GpuOperationsSkipped {
				return err
			}
			e.logger.Info("dropping find-db entry that no longer compiles",
				zap.String("solver", name), zap.Error(err))
			delete(rec, name)
		}
	}
	return nil
}
