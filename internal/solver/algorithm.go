package solver

import (
	"fmt"

	"github.com/solaiys/MIOpen/internal/conv"
	"github.com/solaiys/MIOpen/internal/status"
)

// Algorithm is the algorithm family a solver belongs to. Find results are
// pruned to one entry per family.
type Algorithm int

const (
	AlgoGEMM Algorithm = iota
	AlgoDirect
	AlgoFFT
	AlgoWinograd
	AlgoImplicitGEMM
)

func (a Algorithm) String() string {
	switch a {
	case AlgoGEMM:
		return "GEMM"
	case AlgoDirect:
		return "Direct"
	case AlgoFFT:
		return "FFT"
	case AlgoWinograd:
		return "Winograd"
	case AlgoImplicitGEMM:
		return "ImplicitGEMM"
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// DirectionalString renders the external algorithm name for a direction,
// e.g. "ConvolutionFwdAlgoWinograd". These strings key the invoker cache
// on the normal execution path and appear in find-db records.
func (a Algorithm) DirectionalString(dir conv.Direction) string {
	var prefix string
	switch dir {
	case conv.Forward:
		prefix = "ConvolutionFwdAlgo"
	case conv.BackwardData:
		prefix = "ConvolutionBwdDataAlgo"
	case conv.BackwardWeights:
		prefix = "ConvolutionBwdWeightsAlgo"
	}
	return prefix + a.String()
}

// AlgorithmFromDirectionalString inverts DirectionalString for any of the
// three directions. Unknown names are a BadParm error; find-db files can
// carry records written by newer builds.
func AlgorithmFromDirectionalString(s string) (Algorithm, error) {
	for _, a := range []Algorithm{AlgoGEMM, AlgoDirect, AlgoFFT, AlgoWinograd, AlgoImplicitGEMM} {
		for _, dir := range []conv.Direction{conv.Forward, conv.BackwardData, conv.BackwardWeights} {
			if a.DirectionalString(dir) == s {
				return a, nil
			}
		}
	}
	return 0, status.Errorf(status.BadParm, "unknown algorithm %q", s)
}
