package gpu

import "github.com/solaiys/MIOpen/internal/tensor"

// InvokeType tells an invoker whether it is being timed by Find or run
// for real.
type InvokeType int

const (
	InvokeTypeRun InvokeType = iota
	InvokeTypeEvaluate
)

// ConvTensors carries the three live buffers of a convolution call
// together with their descriptors. For the backward directions the X
// slot holds the top-diff tensor, mirroring the entry-point order.
type ConvTensors struct {
	XDesc tensor.Descriptor
	X     []byte
	WDesc tensor.Descriptor
	W     []byte
	YDesc tensor.Descriptor
	Y     []byte
}

// InvokeParams is everything an invoker needs at launch time: buffers,
// workspace and the invoke type.
type InvokeParams struct {
	Type      InvokeType
	Tensors   ConvTensors
	Workspace []byte
}
