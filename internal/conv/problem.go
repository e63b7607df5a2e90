package conv

import (
	"fmt"
	"strings"

	"github.com/solaiys/MIOpen/internal/tensor"
)

// NetworkConfig is the canonical cache key derived from everything that
// affects kernel choice for a problem. Two problems with identical
// NetworkConfig are interchangeable for invoker-cache purposes.
type NetworkConfig string

// Problem is an immutable description of one convolution problem. It is
// used as a value and never mutated after construction.
type Problem struct {
	In      tensor.Descriptor
	Weights tensor.Descriptor
	Out     tensor.Descriptor
	Conv    Descriptor
	Dir     Direction
}

// NewProblem builds a problem description. For BackwardData and
// BackwardWeights the first descriptor is the top-diff tensor, matching
// how the directional entry points hand tensors over.
func NewProblem(in, weights, out tensor.Descriptor, conv Descriptor, dir Direction) Problem {
	return Problem{In: in, Weights: weights, Out: out, Conv: conv, Dir: dir}
}

func (p Problem) Direction() Direction { return p.Dir }

// DataInput returns the descriptor holding the convolution's data input
// (the x tensor). In the backward directions the In slot carries the
// top-diff, so the data input lives in Out.
func (p Problem) DataInput() tensor.Descriptor {
	if p.Dir == Forward {
		return p.In
	}
	return p.Out
}

// InChannels returns the channel count of the data-input tensor, which is
// what group-count validation divides.
func (p Problem) InChannels() int {
	d := p.DataInput()
	if d.NumDims() < 2 {
		return 0
	}
	return d.Len(1)
}

// Batch returns the mini-batch size.
func (p Problem) Batch() int {
	if p.In.NumDims() < 1 {
		return 0
	}
	return p.In.Len(0)
}

// OutChannels returns the filter-output channel count.
func (p Problem) OutChannels() int {
	if p.Weights.NumDims() < 1 {
		return 0
	}
	if p.Weights.Layout().ChannelsLast() {
		return p.Weights.Len(p.Weights.NumDims() - 1)
	}
	return p.Weights.Len(0)
}

// FilterSpatial returns the filter's spatial lengths (e.g. [3 3]).
func (p Problem) FilterSpatial() []int {
	lens := p.Weights.Lengths()
	if len(lens) <= 2 {
		return nil
	}
	return lens[2:]
}

// SpatialSize returns the product of the input's spatial lengths.
func (p Problem) SpatialSize() int {
	n := 1
	lens := p.In.Lengths()
	for i := 2; i < len(lens); i++ {
		n *= lens[i]
	}
	return n
}

// NetworkConfig encodes the problem into its canonical cache key, e.g.
//
//	64x256x56x56-128x1x1-1x1p0x0d1x1-F-g1-fp32-NCHW
//
// Everything that affects kernel choice is included; nothing else is.
func (p Problem) NetworkConfig() NetworkConfig {
	var b strings.Builder

	b.WriteString(p.In.String())
	b.WriteByte('-')
	b.WriteString(p.Weights.String())
	b.WriteByte('-')

	join := func(vals []int, sep string) {
		for i, v := range vals {
			if i > 0 {
				b.WriteString(sep)
			}
			fmt.Fprintf(&b, "%d", v)
		}
	}
	join(p.Conv.Strides, "x")
	b.WriteByte('p')
	join(p.Conv.Pads, "x")
	b.WriteByte('d')
	join(p.Conv.Dilations, "x")

	fmt.Fprintf(&b, "-%s-g%d-%s-%s",
		p.Dir, p.Conv.GroupCount, p.In.DataType(), p.In.Layout())
	if p.Weights.Layout() != p.In.Layout() {
		fmt.Fprintf(&b, "-w%s", p.Weights.Layout())
	}
	return NetworkConfig(b.String())
}
