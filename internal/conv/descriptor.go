package conv

import (
	"fmt"

	"github.com/solaiys/MIOpen/internal/status"
)

// Direction distinguishes the three convolution problems.
type Direction int

const (
	Forward Direction = iota
	BackwardData
	BackwardWeights
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "F"
	case BackwardData:
		return "B"
	case BackwardWeights:
		return "W"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// FindMode controls how much work Find is allowed to do.
type FindMode int

const (
	// FindModeNormal always runs the full search pipeline on a find-db
	// miss.
	FindModeNormal FindMode = iota
	// FindModeFast answers from the immediate-mode fallback whenever it
	// produces anything, never benchmarking.
	FindModeFast
	// FindModeHybrid answers from the find-db when a record exists and
	// falls through to a Normal find otherwise.
	FindModeHybrid
	// FindModeDynamicHybrid is Hybrid restricted to dynamic solvers on
	// the search path.
	FindModeDynamicHybrid
)

func (m FindMode) String() string {
	switch m {
	case FindModeNormal:
		return "normal"
	case FindModeFast:
		return "fast"
	case FindModeHybrid:
		return "hybrid"
	case FindModeDynamicHybrid:
		return "dynamicHybrid"
	}
	return fmt.Sprintf("FindMode(%d)", int(m))
}

// ParseFindMode maps a configuration string to a FindMode.
func ParseFindMode(s string) (FindMode, error) {
	switch s {
	case "", "normal":
		return FindModeNormal, nil
	case "fast":
		return FindModeFast, nil
	case "hybrid":
		return FindModeHybrid, nil
	case "dynamicHybrid":
		return FindModeDynamicHybrid, nil
	}
	return FindModeNormal, status.Errorf(status.BadParm, "unknown find mode %q", s)
}

// Descriptor holds the convolution parameters. Immutable once built.
type Descriptor struct {
	Pads       []int
	Strides    []int
	Dilations  []int
	GroupCount int
	FindMode   FindMode
}

// NewDescriptor validates and builds a convolution descriptor. All three
// parameter slices must have the same spatial rank; strides and dilations
// must be positive, pads non-negative, group count at least one.
func NewDescriptor(pads, strides, dilations []int, groupCount int) (Descriptor, error) {
	if len(pads) != len(strides) || len(pads) != len(dilations) {
		return Descriptor{}, status.Errorf(status.BadParm,
			"mismatched spatial ranks: pads=%d strides=%d dilations=%d",
			len(pads), len(strides), len(dilations))
	}
	for _, p := range pads {
		if p < 0 {
			return Descriptor{}, status.New(status.BadParm, "padding cannot be negative")
		}
	}
	for _, s := range strides {
		if s < 1 {
			return Descriptor{}, status.New(status.BadParm, "stride must be positive")
		}
	}
	for _, d := range dilations {
		if d < 1 {
			return Descriptor{}, status.New(status.BadParm, "dilation must be positive")
		}
	}
	if groupCount < 1 {
		return Descriptor{}, status.New(status.BadParm, "group count must be at least 1")
	}
	return Descriptor{
		Pads:       append([]int(nil), pads...),
		Strides:    append([]int(nil), strides...),
		Dilations:  append([]int(nil), dilations...),
		GroupCount: groupCount,
	}, nil
}

// SpatialDims returns the number of spatial dimensions.
func (d Descriptor) SpatialDims() int { return len(d.Strides) }
