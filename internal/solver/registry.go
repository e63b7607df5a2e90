package solver

import "github.com/solaiys/MIOpen/internal/conv"

// The static solver catalog. Ids are stable and serialized into find-db
// records; never renumber or reuse them. Registration order fixes the
// search order of the find pipeline.
func init() {
	register(1, PrimitiveConvolution, asm3x3u{})
	register(2, PrimitiveConvolution, asm1x1u{})
	register(3, PrimitiveConvolution, oclDirectFwd{})
	register(4, PrimitiveConvolution, winogradRxS{})
	register(5, PrimitiveConvolution, winogradRxSf3x2{})
	register(6, PrimitiveConvolution, implicitGemm{name: "ConvAsmImplicitGemmV4R1DynamicFwd", dir: conv.Forward})
	register(7, PrimitiveConvolution, implicitGemm{name: "ConvAsmImplicitGemmV4R1DynamicBwd", dir: conv.BackwardData})
	register(8, PrimitiveConvolution, implicitGemm{name: "ConvAsmImplicitGemmV4R1DynamicWrw", dir: conv.BackwardWeights})
	register(9, PrimitiveConvolution, fft{})
	register(10, PrimitiveConvolution, gemmSolver{name: "GemmFwdRest", dir: conv.Forward})
	register(11, PrimitiveConvolution, gemmSolver{name: "GemmBwdRest", dir: conv.BackwardData})
	register(12, PrimitiveConvolution, gemmSolver{name: "GemmWrwRest", dir: conv.BackwardWeights})
	register(13, PrimitiveConvolution, naiveConv{name: "ConvDirectNaiveConvFwd", dir: conv.Forward})
	register(14, PrimitiveConvolution, naiveConv{name: "ConvDirectNaiveConvBwd", dir: conv.BackwardData})
	register(15, PrimitiveConvolution, naiveConv{name: "ConvDirectNaiveConvWrw", dir: conv.BackwardWeights})
}
