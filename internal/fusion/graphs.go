package fusion

import (
	"fmt"

	"github.com/solaiys/MIOpen/internal/status"
)

// InitGraph builds the matcher graph for a fusion plan whose first
// operation is firstOp. Only convolution and batch-norm inference may
// open a plan.
func InitGraph(firstOp OpKind) (*Graph, error) {
	switch firstOp {
	case OpConvForward:
		return convGraph(), nil
	case OpBatchNormInference:
		return bnGraph(), nil
	case OpActivForward, OpBiasForward:
		return nil, status.Errorf(status.BadParm,
			"operator %s cannot open a fusion plan", firstOp)
	}
	return nil, status.Errorf(status.BadParm, "unknown fusion operator %s", firstOp)
}

func convKey(algo string, filter int) string {
	return ConvForwardOp{FilterH: filter, FilterW: filter, AlgoName: algo}.GraphKey()
}

// convGraph encodes the conv-led fusion variants. The assembly 1x1 path
// carries weight so it outranks the generic OpenCL path whenever both
// stay reachable for the same chain.
func convGraph() *Graph {
	g := NewGraph()

	// Conv(1x1) -> Bias -> Activ, specialized assembly kernel.
	{
		const prog, kern, algo = "conv1x1u_bias_activ.s", "gcnAsmConv1x1U", "ConvolutionDirectBiasActivAsm"
		convV := newVertex(OpConvForward, prog, kern, algo, false)
		biasV := newVertex(OpBiasForward, prog, kern, algo, false)
		activV := newVertex(OpActivForward, prog, kern, algo, true)

		g.AddEdge(nil, convV, []string{convKey("Direct", 1)}, 1)
		g.AddEdge(convV, biasV, nil, 0)
		g.AddEdge(biasV, activV, nil, 0)
	}

	// Generic direct kernel: accepts the odd filter sizes the direct
	// algorithm supports and fuses bias, batch-norm and activation in
	// any of the supported orders.
	{
		const prog, kern = "MIOpenConvDirBatchNormActiv.cl", "MIOpenConvUniBatchNormActiv"
		const algoConv = "ConvolutionDirectBiasActiv"
		const algoBN = "MIOpenConvUniBatchNormActiv"

		convV := newVertex(OpConvForward, prog, kern, algoConv, false)
		for _, f := range []int{1, 3, 5, 7, 9, 11} {
			g.AddEdge(nil, convV, []string{convKey("Direct", f)}, 0)
		}

		bnKeys := []string{
			BatchNormInferenceOp{Mode: BNPerActivation}.GraphKey(),
			BatchNormInferenceOp{Mode: BNSpatial}.GraphKey(),
		}

		// Conv -> Bias -> [Activ | BN -> Activ]
		biasV := newVertex(OpBiasForward, prog, kern, algoConv, false)
		g.AddEdge(convV, biasV, nil, 0)

		activV := newVertex(OpActivForward, prog, kern, algoConv, true)
		g.AddEdge(biasV, activV, nil, 0)

		bnV := newVertex(OpBatchNormInference, prog, kern, algoBN, false)
		g.AddEdge(biasV, bnV, bnKeys, 0)
		bnActivV := newVertex(OpActivForward, prog, kern, algoBN, false)
		g.AddEdge(bnV, bnActivV, nil, 0)

		// Conv -> BN -> Activ
		bn2V := newVertex(OpBatchNormInference, prog, kern, algoBN, false)
		g.AddEdge(convV, bn2V, bnKeys, 0)
		bn2ActivV := newVertex(OpActivForward, prog, kern, algoBN, false)
		g.AddEdge(bn2V, bn2ActivV, nil, 0)
	}

	return g
}

// bnGraph encodes the batch-norm-led variants: BN -> Activ with one
// kernel per statistics mode.
func bnGraph() *Graph {
	g := NewGraph()
	for _, mode := range []BNMode{BNPerActivation, BNSpatial} {
		kern := fmt.Sprintf("MIOpenBatchNormActivInfer%sEst", estSuffix(mode))
		bnV := newVertex(OpBatchNormInference, "MIOpenBatchNormActivInfer.cl", kern, kern, false)
		g.AddEdge(nil, bnV, []string{BatchNormInferenceOp{Mode: mode}.GraphKey()}, 0)

		activV := newVertex(OpActivForward, "MIOpenBatchNormActivInfer.cl", kern, kern, true)
		g.AddEdge(bnV, activV, nil, 0)
	}
	return g
}

func estSuffix(mode BNMode) string {
	if mode == BNSpatial {
		return "Spatial"
	}
	return "PerAct"
}
