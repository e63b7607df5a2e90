package gpu

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// HostStream is a software stand-in for a device queue. It does not run
// device code; kernel launches are accounted with a deterministic
// synthetic duration derived from the kernel identity and launch size, so
// that Find benchmarking is reproducible in tooling and tests. Invokers
// that carry host-side math (the naive reference solver) still compute
// real results.
type HostStream struct {
	arch     string
	lastTime float64
}

// NewHostStream returns a host stream reporting the given architecture
// name (e.g. "gfx908"); the name feeds the predictor tier and cache keys.
func NewHostStream(arch string) *HostStream {
	if arch == "" {
		arch = "host"
	}
	return &HostStream{arch: arch}
}

func (s *HostStream) DeviceName() string { return s.arch }

func (s *HostStream) RunKernel(k CompiledKernel, p InvokeParams) error {
	work := 1
	for _, g := range k.Info.GlobalWorkDim {
		work *= g
	}
	sum := sha256.Sum256([]byte(k.Info.ProgramName + ":" + k.Info.KernelName))
	jitter := float64(binary.BigEndian.Uint16(sum[:2])) / 65535.0
	s.lastTime = 0.05 + jitter + float64(work)*1e-6
	return nil
}

func (s *HostStream) KernelTime() float64 { return s.lastTime }

// StubCompiler stands in for the excluded compiler toolchain: it
// fingerprints the source instead of building it. Rejects empty sources
// so that solver plumbing mistakes surface as build failures.
type StubCompiler struct{}

func (StubCompiler) Compile(info KernelInfo, arch string) ([]byte, error) {
	if info.Source == "" && info.ProgramName == "" {
		return nil, fmt.Errorf("no kernel source for %q", info.KernelName)
	}
	sum := sha256.Sum256([]byte(arch + "|" + info.ProgramName + "|" + info.KernelName + "|" + info.CompileOptions + "|" + info.Source))
	return sum[:], nil
}
