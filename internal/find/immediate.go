package find

import (
	"go.uber.org/zap"

	"github.com/solaiys/MIOpen/internal/conv"
	"github.com/solaiys/MIOpen/internal/metrics"
	"github.com/solaiys/MIOpen/internal/solver"
	"github.com/solaiys/MIOpen/internal/status"
)

const immFallbackFailed = "requested convolution is not supported or immediate mode fallback unsuccessful"

// GetSolutionCount returns how many solutions the immediate-mode path can
// offer for the problem: find-db entries when a record exists, fallback
// candidates otherwise. Zero candidates is a NotImplemented error.
func (e *Engine) GetSolutionCount(ctx *solver.ExecutionContext, p conv.Problem) (int, error) {
	if rec, ok := e.db.Lookup(string(p.NetworkConfig())); ok {
		return len(rec), nil
	}
	// Simple and guarantees to provide enough space.
	maxCount := len(solver.GetSolversByPrimitive(solver.PrimitiveConvolution))
	sols, err := e.GetSolutionsFallback(ctx, p, maxCount)
	if err != nil {
		return 0, err
	}
	if n := len(sols); n > 0 {
		return n, nil
	}
	e.logger.Info(immFallbackFailed)
	// Zero can mean the convolution is not implemented at all, that
	// every implementation is disabled or unavailable in this build, or
	// that the fallback simply found nothing for this shape. The three
	// cases are indistinguishable here, so report like Find does.
	return 0, status.New(status.NotImplemented, immFallbackFailed)
}

// GetSolutions returns the ranked immediate-mode solutions for the
// problem, up to maxCount. The second return reports whether the fallback
// path was taken (no find-db record existed).
func (e *Engine) GetSolutions(ctx *solver.ExecutionContext, p conv.Problem, maxCount int) ([]Solution, bool, error) {
	sols, err := e.getDbSolutions(ctx, p, maxCount)
	if err != nil {
		return nil, false, err
	}
	if len(sols) > 0 {
		return sols, false, nil
	}
	fallback, err := e.GetSolutionsFallback(ctx, p, maxCount)
	return fallback, true, err
}

// getDbSolutions builds solutions from the find-db record for the
// problem, if any. Entries with obsolete solver ids or disabled
// algorithms are dropped; applicability of the survivors is re-checked,
// but only within the first maxCount to avoid needless expensive checks.
func (e *Engine) getDbSolutions(ctx *solver.ExecutionContext, p conv.Problem, maxCount int) ([]Solution, error) {
	rec, ok := e.db.Lookup(string(p.NetworkConfig()))
	if !ok {
		return nil, nil
	}

	interim := make([]Solution, 0, len(rec))
	for name, entry := range rec {
		algo, err := solver.AlgorithmFromDirectionalString(entry.Algorithm)
		if err != nil {
			e.logger.Info("ignoring find-db entry with unknown algorithm",
				zap.String("algorithm", entry.Algorithm))
			continue
		}
		if ctx.Cfg.AlgorithmDisabled(algo.String()) {
			continue
		}
		id := solver.FromName(name)
		// Obsolete or invalid ids read from the find-db cannot be used
		// to call IsApplicable, so drop them first.
		if !id.Valid() {
			e.logger.Info("ignoring find-db entry with incorrect solver", zap.String("solver", name))
			continue
		}
		if ctx.Cfg.SolverDisabled(name) {
			continue
		}
		interim = append(interim, Solution{
			Time:      entry.Time,
			Workspace: entry.Workspace,
			ID:        id,
			Algo:      algo,
		})
	}

	sortSolutions(interim)
	if len(interim) > maxCount {
		interim = interim[:maxCount]
	}
	out := interim[:0]
	for _, sol := range interim {
		s, err := sol.ID.Solver()
		if err != nil {
			return nil, err
		}
		if !s.IsApplicable(ctx, p) {
			continue
		}
		out = append(out, sol)
	}
	return out, nil
}

// GetSolutionsFallback ranks candidate solutions without benchmarking,
// for problems the find-db has never seen. First non-empty tier wins:
// the learned predictor, then the WTI heuristic.
func (e *Engine) GetSolutionsFallback(ctx *solver.ExecutionContext, p conv.Problem, maxCount int) ([]Solution, error) {
	if ctx.Cfg.Debug.DisableImmedFallback {
		e.logger.Info("immediate-mode fallback disabled via configuration")
		return nil, nil
	}

	// The regular path checked this during Find; the fallback path must
	// do it itself.
	if err := conv.ValidateGroupCount(p.DataInput(), p.Weights, p.Conv); err != nil {
		return nil, err
	}

	interim := e.predictorTier(ctx, p)
	if len(interim) == 0 {
		interim = e.wtiTier(ctx, p)
	}

	sortSolutions(interim)
	if len(interim) > maxCount {
		interim = interim[:maxCount]
	}
	return interim, nil
}

// predictorTier queries the learned model for ranked solver names and
// assigns synthetic times by rank: time(rank) = 10 * rank. Purely
// ordinal, never a measurement.
func (e *Engine) predictorTier(ctx *solver.ExecutionContext, p conv.Problem) []Solution {
	if !ctx.Cfg.Debug.EnableAIFallback || e.predictor == nil {
		return nil
	}
	names := e.predictor.PredictSolver(p, ctx.ArchName())
	if len(names) == 0 {
		return nil
	}
	e.logger.Debug("using predictor fallback", zap.String("arch", ctx.ArchName()))
	metrics.ImmediateFallback.WithLabelValues("predictor").Inc()

	interim := make([]Solution, 0, len(names))
	rank := 1
	for _, name := range names {
		id := solver.FromName(name)
		if !id.Valid() {
			continue
		}
		s, err := id.Solver()
		if err != nil {
			continue
		}
		if ctx.Cfg.AlgorithmDisabled(s.Algo().String()) || ctx.Cfg.SolverDisabled(name) {
			continue
		}
		// Only dynamic solvers are safe to pick without recompiling.
		if !s.IsDynamic() {
			continue
		}
		if !s.IsApplicable(ctx, p) {
			continue
		}
		interim = append(interim, Solution{
			Time:      10.0 * float64(rank),
			Workspace: s.GetWorkspaceSize(ctx, p),
			ID:        id,
			Algo:      s.Algo(),
			Estimated: true,
		})
		rank++
	}
	return interim
}

// wtiTier ranks every applicable dynamic solver by its Workload
// Throughput Index, converting WTI to a synthetic time. WTI == 1.0 is
// assumed to be 10 ms; negative WTI means unknown and is skipped.
func (e *Engine) wtiTier(ctx *solver.ExecutionContext, p conv.Problem) []Solution {
	e.logger.Debug("using WTI fallback")
	metrics.ImmediateFallback.WithLabelValues("wti").Inc()

	wti2time := func(wti float64) float64 {
		if wti <= 0 {
			// Keep non-positive values as-is; avoids DIV/0.
			return wti
		}
		return 10.0 / wti
	}

	var interim []Solution
	for _, id := range solver.GetSolversByPrimitive(solver.PrimitiveConvolution) {
		// Ids from the registry are valid by construction.
		s, err := id.Solver()
		if err != nil {
			continue
		}
		if ctx.Cfg.AlgorithmDisabled(s.Algo().String()) || ctx.Cfg.SolverDisabled(s.Name()) {
			continue
		}
		if !s.IsDynamic() || !s.IsApplicable(ctx, p) {
			continue
		}
		wti := s.GetWti(ctx, p)
		e.logger.Debug("estimated WTI", zap.String("solver", s.Name()), zap.Float64("wti", wti))
		if wti < 0 {
			continue
		}
		interim = append(interim, Solution{
			Time:      wti2time(wti),
			Workspace: s.GetWorkspaceSize(ctx, p),
			ID:        id,
			Algo:      s.Algo(),
			Estimated: true,
		})
	}
	return interim
}

// SolutionWorkspace returns the workspace a specific solver needs for a
// problem. Invalid ids and inapplicable solvers are BadParm errors.
func SolutionWorkspace(ctx *solver.ExecutionContext, p conv.Problem, id solver.ID) (uint64, error) {
	if !id.Valid() {
		return 0, status.Errorf(status.BadParm, "invalid solution id %q", id.String())
	}
	s, err := id.Solver()
	if err != nil {
		return 0, err
	}
	if !s.MayNeedWorkspace() {
		return 0, nil
	}
	if !s.IsApplicable(ctx, p) {
		return 0, status.Errorf(status.BadParm,
			"the supplied solution id %q is not applicable to the current problem", id.String())
	}
	return s.GetWorkspaceSize(ctx, p), nil
}
