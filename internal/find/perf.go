package find

import "sort"

// PerfField is one search result: an algorithm, the solver that produced
// it, its time and workspace requirement. Ephemeral: produced per Find
// call, ordered and pruned before being returned.
type PerfField struct {
	Algorithm string
	SolverID  string
	// Time is in milliseconds. Estimated marks synthetic ranking times
	// (predictor rank or WTI derived) that must never be read as
	// wall-clock measurements.
	Time      float64
	Workspace uint64
	Estimated bool
}

func sortPerfFields(found []PerfField) {
	sort.SliceStable(found, func(i, j int) bool { return found[i].Time < found[j].Time })
}

// ShrinkToFind10Results keeps only the best-timed entry per distinct
// algorithm, removing all others: sort ascending by time, then keep the
// first occurrence of each algorithm name. Caps result diversity to one
// candidate per algorithm family, not per solver.
func ShrinkToFind10Results(found []PerfField) []PerfField {
	sortPerfFields(found)
	out := found[:0:0]
	for _, f := range found {
		seen := false
		for _, o := range out {
			if o.Algorithm == f.Algorithm {
				seen = true
				break
			}
		}
		if seen {
			continue
		}
		out = append(out, f)
	}
	return out
}
