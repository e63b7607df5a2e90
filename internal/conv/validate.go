package conv

import (
	"github.com/solaiys/MIOpen/internal/status"
	"github.com/solaiys/MIOpen/internal/tensor"
)

func channelFirstFilter(l tensor.Layout) bool {
	return l == tensor.NCHW || l == tensor.NCHWc4 || l == tensor.NCHWc8
}

// ValidateGroupCount checks the input/filter channel arithmetic for the
// configured group count. Filter layouts are checked differently for
// channel-first and channel-last vectorized layouts.
func ValidateGroupCount(xDesc, wDesc tensor.Descriptor, c Descriptor) error {
	wLens := wDesc.Lengths()
	xChannels := xDesc.Len(1)

	if c.GroupCount == 1 {
		if (channelFirstFilter(wDesc.Layout()) && xChannels != wLens[1]) ||
			(wDesc.Layout().ChannelsLast() && xChannels != wLens[0]) {
			return status.New(status.BadParm, "invalid filter channel number")
		}
	}
	if c.GroupCount > 1 {
		if xChannels%c.GroupCount != 0 || c.GroupCount > xChannels ||
			(channelFirstFilter(wDesc.Layout()) &&
				(wLens[0]%c.GroupCount != 0 || c.GroupCount > wLens[0])) ||
			(wDesc.Layout().ChannelsLast() &&
				(wLens[3]%c.GroupCount != 0 || c.GroupCount > wLens[3])) {
			return status.New(status.BadParm, "invalid group number")
		}
		// Grouped convolution is not supported for channel-last
		// vectorized filter layouts.
		if (channelFirstFilter(wDesc.Layout()) && xChannels/c.GroupCount != wLens[1]) ||
			wDesc.Layout().ChannelsLast() {
			return status.New(status.BadParm, "invalid filter channel number")
		}
	}
	return nil
}

// ValidateProblemTensors applies the direction-independent descriptor
// checks shared by all execution entry points: matching ranks, matching
// element types (int8 inputs aside) and at least a 3-d data tensor.
func ValidateProblemTensors(xDesc, wDesc, yDesc tensor.Descriptor) error {
	if xDesc.NumDims() != yDesc.NumDims() || xDesc.NumDims() != wDesc.NumDims() {
		return status.New(status.BadParm, "tensor ranks do not match")
	}
	if xDesc.DataType() != yDesc.DataType() &&
		xDesc.DataType() != tensor.Int8 && xDesc.DataType() != tensor.Int8x4 {
		return status.New(status.BadParm, "tensor types do not match")
	}
	if xDesc.NumDims() < 3 {
		return status.New(status.BadParm, "data tensor must have at least 3 dimensions")
	}
	return nil
}

// ValidatePacked rejects any tensor with gaps. Unpacked tensors are not
// silently handled anywhere in the execution paths.
func ValidatePacked(descs ...tensor.Descriptor) error {
	for _, d := range descs {
		if !d.IsPacked() {
			return status.New(status.NotImplemented, "only fully packed tensors are supported")
		}
	}
	return nil
}

// ValidateAlphaBeta accepts exactly alpha=1.0 and beta=0.0, compared
// bit-for-bit. Scaling is not supported.
func ValidateAlphaBeta(alpha, beta float64) error {
	if alpha != 1.0 || beta != 0.0 {
		return status.New(status.NotImplemented, "only alpha=1 and beta=0 is supported")
	}
	return nil
}
