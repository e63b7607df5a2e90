package solver

import (
	"github.com/solaiys/MIOpen/internal/conv"
	"github.com/solaiys/MIOpen/internal/tensor"
)

// Shared shape predicates used by the per-family applicability checks.

func is2D(p conv.Problem) bool {
	return p.In.NumDims() == 4 && p.Conv.SpatialDims() == 2
}

func isLayout(p conv.Problem, l tensor.Layout) bool {
	return p.In.Layout() == l && p.Out.Layout() == l
}

func dtypeIn(p conv.Problem, types ...tensor.DataType) bool {
	for _, t := range types {
		if p.In.DataType() == t {
			return true
		}
	}
	return false
}

func allStridesAre(vals []int, want int) bool {
	for _, v := range vals {
		if v != want {
			return false
		}
	}
	return true
}

func filterIs(p conv.Problem, r, s int) bool {
	fs := p.FilterSpatial()
	return len(fs) == 2 && fs[0] == r && fs[1] == s
}

func unitStrideNoDilation(p conv.Problem) bool {
	return allStridesAre(p.Conv.Strides, 1) && allStridesAre(p.Conv.Dilations, 1)
}

func noPadding(p conv.Problem) bool {
	return allStridesAre(p.Conv.Pads, 0)
}

// groupValid mirrors the group-count invariant solvers rely on; solvers
// reject problems the entry-point validation would reject anyway.
func groupValid(p conv.Problem) bool {
	return conv.ValidateGroupCount(p.DataInput(), p.Weights, p.Conv) == nil
}
