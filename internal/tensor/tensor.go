package tensor

import (
	"fmt"
	"sort"
	"strings"
)

// DataType is the element type of a tensor.
type DataType int

const (
	Float DataType = iota
	Half
	BFloat16
	Int8
	// Int8x4 packs four int8 values per element. Only the GEMM algorithm
	// accepts it, and only on the forward path.
	Int8x4
	Int32
)

func (t DataType) String() string {
	switch t {
	case Float:
		return "fp32"
	case Half:
		return "fp16"
	case BFloat16:
		return "bfloat16"
	case Int8:
		return "int8"
	case Int8x4:
		return "int8x4"
	case Int32:
		return "int32"
	}
	return fmt.Sprintf("DataType(%d)", int(t))
}

// Size returns the storage size of one element in bytes.
func (t DataType) Size() int {
	switch t {
	case Half, BFloat16:
		return 2
	case Int8:
		return 1
	default:
		return 4
	}
}

// Layout is the memory-layout tag of a tensor.
type Layout int

const (
	NCHW Layout = iota
	NHWC
	NCHWc4
	NCHWc8
	CHWNc4
	CHWNc8
)

func (l Layout) String() string {
	switch l {
	case NCHW:
		return "NCHW"
	case NHWC:
		return "NHWC"
	case NCHWc4:
		return "NCHWc4"
	case NCHWc8:
		return "NCHWc8"
	case CHWNc4:
		return "CHWNc4"
	case CHWNc8:
		return "CHWNc8"
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

// ChannelsLast reports whether the filter layout keeps the batch/output
// dimension last (CHWNc-style vectorized layouts). Group-count validation
// checks such filters differently from channel-first ones.
func (l Layout) ChannelsLast() bool {
	return l == CHWNc4 || l == CHWNc8
}

// Descriptor describes the shape, strides, element type and layout of a
// tensor. It is a value type and is never mutated after construction.
//
// Lengths are kept in semantic NCHW order regardless of layout; strides
// describe the actual memory order.
type Descriptor struct {
	dtype   DataType
	layout  Layout
	lens    []int
	strides []int
}

// New builds a packed descriptor with strides derived from the lengths.
func New(dtype DataType, layout Layout, lens ...int) Descriptor {
	strides := make([]int, len(lens))
	s := 1
	for i := len(lens) - 1; i >= 0; i-- {
		strides[i] = s
		s *= lens[i]
	}
	return Descriptor{dtype: dtype, layout: layout, lens: append([]int(nil), lens...), strides: strides}
}

// NewWithStrides builds a descriptor with explicit strides. Used for
// unpacked (strided) tensors, which the execution paths reject.
func NewWithStrides(dtype DataType, layout Layout, lens, strides []int) Descriptor {
	return Descriptor{
		dtype:   dtype,
		layout:  layout,
		lens:    append([]int(nil), lens...),
		strides: append([]int(nil), strides...),
	}
}

func (d Descriptor) DataType() DataType { return d.dtype }
func (d Descriptor) Layout() Layout     { return d.layout }
func (d Descriptor) NumDims() int       { return len(d.lens) }

// Len returns the length of dimension i in semantic order.
func (d Descriptor) Len(i int) int { return d.lens[i] }

// Lengths returns a copy of the dimension lengths.
func (d Descriptor) Lengths() []int { return append([]int(nil), d.lens...) }

// Strides returns a copy of the strides.
func (d Descriptor) Strides() []int { return append([]int(nil), d.strides...) }

// Elements returns the number of elements addressed by the descriptor.
func (d Descriptor) Elements() int {
	n := 1
	for _, l := range d.lens {
		n *= l
	}
	return n
}

// NumBytes returns the storage footprint of the tensor.
func (d Descriptor) NumBytes() int {
	if len(d.lens) == 0 {
		return 0
	}
	// Strided tensors may address a larger span than Elements().
	span := 1
	for i, l := range d.lens {
		span += (l - 1) * d.strides[i]
	}
	return span * d.dtype.Size()
}

// IsPacked reports whether the tensor occupies a contiguous region with
// no gaps: sorted by stride, each stride equals the product of the
// lengths of all faster-varying dimensions.
func (d Descriptor) IsPacked() bool {
	type dim struct{ len, stride int }
	dims := make([]dim, len(d.lens))
	for i := range d.lens {
		dims[i] = dim{d.lens[i], d.strides[i]}
	}
	sort.Slice(dims, func(i, j int) bool { return dims[i].stride > dims[j].stride })
	expect := 1
	for i := len(dims) - 1; i >= 0; i-- {
		if dims[i].stride != expect {
			return false
		}
		expect *= dims[i].len
	}
	return true
}

// String renders the descriptor in cache-key form, e.g. "64x256x56x56".
func (d Descriptor) String() string {
	parts := make([]string, len(d.lens))
	for i, l := range d.lens {
		parts[i] = fmt.Sprintf("%d", l)
	}
	return strings.Join(parts, "x")
}
