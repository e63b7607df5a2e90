package solver

import (
	"encoding/binary"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/solaiys/MIOpen/internal/conv"
	"github.com/solaiys/MIOpen/internal/gpu"
	"github.com/solaiys/MIOpen/internal/tensor"
)

// naiveConv is the reference solver: one plain kernel per direction,
// always applicable for the common dtypes, never fast. It exists so every
// problem has at least one viable candidate and so results can be checked
// against a trusted implementation. On the host stream the forward fp32
// path computes the real result via an im2col GEMM.
type naiveConv struct {
	name string
	dir  conv.Direction
}

func (s naiveConv) Name() string         { return s.name }
func (naiveConv) Algo() Algorithm        { return AlgoDirect }
func (naiveConv) IsDynamic() bool        { return true }
func (naiveConv) MayNeedWorkspace() bool { return false }
func (naiveConv) RequiresSearch() bool   { return false }

func (s naiveConv) IsApplicable(ctx *ExecutionContext, p conv.Problem) bool {
	if p.Direction() != s.dir || !is2D(p) || !groupValid(p) {
		return false
	}
	return dtypeIn(p, tensor.Float, tensor.Half, tensor.BFloat16)
}

func (naiveConv) GetWorkspaceSize(*ExecutionContext, conv.Problem) uint64 { return 0 }

func (naiveConv) GetWti(ctx *ExecutionContext, p conv.Problem) float64 { return 0.02 }

func (s naiveConv) FindSolution(ctx *ExecutionContext, p conv.Problem) (ConvSolution, error) {
	info := gpu.KernelInfo{
		ProgramName:   "naive_conv.cpp",
		KernelName:    "naive_conv_" + s.dir.String(),
		GlobalWorkDim: []int{p.Batch() * p.OutChannels(), 1, 1},
		LocalWorkDim:  []int{256, 1, 1},
	}
	dir := s.dir
	problem := p
	factory := func(kernels []gpu.CompiledKernel) gpu.InvokeHandler {
		return func(h *gpu.Handle, params gpu.InvokeParams) error {
			for _, k := range kernels {
				if err := h.RunKernel(k, params); err != nil {
					return err
				}
			}
			if dir == conv.Forward && problem.In.DataType() == tensor.Float &&
				problem.In.Layout() == tensor.NCHW {
				return hostConvForward(problem, params.Tensors)
			}
			return nil
		}
	}
	return ConvSolution{Kernels: []gpu.KernelInfo{info}, InvokerFactory: factory}, nil
}

// hostConvForward computes y = conv(x, w) for packed NCHW fp32 tensors
// with an im2col transform and a dense matrix product per (batch, group).
func hostConvForward(p conv.Problem, t gpu.ConvTensors) error {
	x := bytesToFloat32(t.X)
	w := bytesToFloat32(t.W)
	y := make([]float32, t.YDesc.Elements())

	n := p.Batch()
	c := p.InChannels()
	k := p.OutChannels()
	inLens := p.In.Lengths()
	outLens := p.Out.Lengths()
	fs := p.FilterSpatial()
	hIn, wIn := inLens[2], inLens[3]
	hOut, wOut := outLens[2], outLens[3]
	r, sDim := fs[0], fs[1]
	g := p.Conv.GroupCount
	cg, kg := c/g, k/g
	padH, padW := p.Conv.Pads[0], p.Conv.Pads[1]
	strH, strW := p.Conv.Strides[0], p.Conv.Strides[1]
	dilH, dilW := p.Conv.Dilations[0], p.Conv.Dilations[1]

	cols := mat.NewDense(cg*r*sDim, hOut*wOut, nil)
	filt := mat.NewDense(kg, cg*r*sDim, nil)
	var out mat.Dense

	for b := 0; b < n; b++ {
		for gi := 0; gi < g; gi++ {
			for kk := 0; kk < kg; kk++ {
				for idx := 0; idx < cg*r*sDim; idx++ {
					filt.Set(kk, idx, float64(w[((gi*kg+kk)*cg*r*sDim)+idx]))
				}
			}
			for ci := 0; ci < cg; ci++ {
				for fy := 0; fy < r; fy++ {
					for fx := 0; fx < sDim; fx++ {
						row := (ci*r+fy)*sDim + fx
						for oy := 0; oy < hOut; oy++ {
							for ox := 0; ox < wOut; ox++ {
								iy := oy*strH - padH + fy*dilH
								ix := ox*strW - padW + fx*dilW
								var v float64
								if iy >= 0 && iy < hIn && ix >= 0 && ix < wIn {
									v = float64(x[((b*c+gi*cg+ci)*hIn+iy)*wIn+ix])
								}
								cols.Set(row, oy*wOut+ox, v)
							}
						}
					}
				}
			}
			out.Mul(filt, cols)
			for kk := 0; kk < kg; kk++ {
				for o := 0; o < hOut*wOut; o++ {
					y[((b*k+gi*kg+kk)*hOut*wOut)+o] = float32(out.At(kk, o))
				}
			}
		}
	}

	float32ToBytes(y, t.Y)
	return nil
}

func bytesToFloat32(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

func float32ToBytes(f []float32, dst []byte) {
	for i, v := range f {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}
