package find

import (
	"sort"

	"github.com/solaiys/MIOpen/internal/solver"
)

// Solution is the externally visible "a solver and its cost estimate"
// unit returned by the immediate-mode queries.
type Solution struct {
	// Time is in milliseconds. When Estimated is set the value is a
	// synthetic ranking signal (predictor rank or WTI derived), not a
	// measurement, and is only meaningful relative to other estimates.
	Time      float64
	Workspace uint64
	ID        solver.ID
	Algo      solver.Algorithm
	Estimated bool
}

// solutionBetter is the solution time comparator: a total order that lets
// heuristic placeholders and real measurements coexist in one list.
//
// Negative times are coarse estimations whose magnitude encodes relative
// badness, so among negatives the one closer to zero wins. Any positive
// (real) time beats any negative one regardless of magnitude. Among
// positives, smaller is better.
func solutionBetter(lhs, rhs Solution) bool {
	if lhs.Time < 0 && rhs.Time < 0 {
		return lhs.Time > rhs.Time
	}
	if lhs.Time > 0 && rhs.Time < 0 {
		return true
	}
	if lhs.Time < 0 && rhs.Time > 0 {
		return false
	}
	return lhs.Time < rhs.Time
}

func sortSolutions(sols []Solution) {
	sort.SliceStable(sols, func(i, j int) bool { return solutionBetter(sols[i], sols[j]) })
}
