package miopen

import (
	"github.com/solaiys/MIOpen/internal/fusion"
	"github.com/solaiys/MIOpen/internal/status"
)

// Fusion-plan types re-exported for callers.
type (
	FusionOp             = fusion.Op
	ConvForwardOp        = fusion.ConvForwardOp
	BiasForwardOp        = fusion.BiasForwardOp
	ActivForwardOp       = fusion.ActivForwardOp
	BatchNormInferenceOp = fusion.BatchNormInferenceOp
	BNMode               = fusion.BNMode
)

const (
	BNPerActivation = fusion.BNPerActivation
	BNSpatial       = fusion.BNSpatial
)

// FusionPlan is a chain of fusible operations being matched against the
// specialized fused kernels. Operations are appended one at a time; the
// plan stays valid as long as some fused kernel implements the whole
// chain so far.
type FusionPlan struct {
	graph *fusion.Graph
}

// NewFusionPlan opens a plan with its first operation. Only convolution
// and batch-norm inference may start a plan.
func NewFusionPlan(first FusionOp) (*FusionPlan, error) {
	g, err := fusion.InitGraph(first.Kind())
	if err != nil {
		return nil, err
	}
	p := &FusionPlan{graph: g}
	if err := p.AddOp(first); err != nil {
		return nil, err
	}
	return p, nil
}

// AddOp appends one operation to the plan. It fails when no fused kernel
// implements the extended chain; the plan is then dead until Reset.
func (p *FusionPlan) AddOp(op FusionOp) error {
	ok, err := p.graph.Advance([]FusionOp{op})
	if err != nil {
		return err
	}
	if !ok {
		return status.Errorf(status.NotImplemented,
			"no fused kernel implements the plan after %s", op.Kind())
	}
	return nil
}

// Reset empties the plan so operations can be appended again.
func (p *FusionPlan) Reset() { p.graph.Reset() }

// ProgramName returns the matched fused kernel's program.
func (p *FusionPlan) ProgramName() (string, error) { return p.graph.GetProgramName() }

// KernelName returns the matched fused kernel's entry point.
func (p *FusionPlan) KernelName() (string, error) { return p.graph.GetKernelName() }

// AlgoName returns the matched fused kernel's algorithm name.
func (p *FusionPlan) AlgoName() (string, error) { return p.graph.GetAlgoName() }
