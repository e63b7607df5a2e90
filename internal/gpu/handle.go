package gpu

import (
	"sync"

	"go.uber.org/zap"

	"github.com/solaiys/MIOpen/internal/logger"
	"github.com/solaiys/MIOpen/internal/metrics"
	"github.com/solaiys/MIOpen/internal/status"
)

// Stream is the execution-stream collaborator: it runs a compiled kernel
// with its launch geometry and reports the elapsed kernel time when
// profiling is on. The real implementation wraps a device queue; the
// library ships a host emulation for tooling and tests.
type Stream interface {
	DeviceName() string
	RunKernel(k CompiledKernel, p InvokeParams) error
	// KernelTime returns the duration, in milliseconds, of the last
	// RunKernel call. Only meaningful while profiling is enabled.
	KernelTime() float64
}

type kernelKey struct {
	algo   string
	config string
}

// Handle represents one GPU execution context: a stream, a compiler and
// the caches layered on them. A handle is owned by one host thread;
// concurrent use of a single handle requires external locking, which is
// the caller's responsibility.
type Handle struct {
	stream   Stream
	compiler Compiler
	invokers *invokerCache
	logger   *zap.Logger

	kmu     sync.Mutex
	kernels map[kernelKey][]CompiledKernel

	profiling bool
	accumTime float64
}

// NewHandle wires a stream and a compiler into a handle. A nil logger is
// replaced with a no-op one.
func NewHandle(stream Stream, compiler Compiler, log *zap.Logger) *Handle {
	log = logger.OrNop(log).Named("handle")
	return &Handle{
		stream:   stream,
		compiler: compiler,
		invokers: newInvokerCache(log),
		logger:   log,
		kernels:  make(map[kernelKey][]CompiledKernel),
	}
}

func (h *Handle) DeviceName() string { return h.stream.DeviceName() }

// EnableProfiling toggles kernel timing on the stream.
func (h *Handle) EnableProfiling(on bool) { h.profiling = on }

// KernelTime returns the last measured kernel duration in milliseconds.
func (h *Handle) KernelTime() float64 { return h.stream.KernelTime() }

// ResetAccumKernelTime clears the profiling accumulator before timing an
// invoker that may launch several kernels.
func (h *Handle) ResetAccumKernelTime() { h.accumTime = 0 }

// AccumKernelTime returns the summed kernel durations, in milliseconds,
// since the last reset. Zero unless profiling is enabled.
func (h *Handle) AccumKernelTime() float64 { return h.accumTime }

// RunKernel launches one compiled kernel on the stream.
func (h *Handle) RunKernel(k CompiledKernel, p InvokeParams) error {
	if err := h.stream.RunKernel(k, p); err != nil {
		return err
	}
	if h.profiling {
		h.accumTime += h.stream.KernelTime()
	}
	return nil
}

// Compile builds one kernel for the handle's device.
func (h *Handle) Compile(info KernelInfo) (CompiledKernel, error) {
	bin, err := h.compiler.Compile(info, h.DeviceName())
	if err != nil {
		// Toolchain failures carry the diagnostic text up; callers on
		// the search path treat them like "solver inapplicable".
		return CompiledKernel{}, status.Errorf(status.InternalError,
			"compiling %s:%s: %v", info.ProgramName, info.KernelName, err)
	}
	return CompiledKernel{Info: info, Binary: bin}, nil
}

// PrepareInvoker compiles a solution's kernels and binds them through the
// solver-supplied factory into a runnable invoker. The solverID is used
// for logging and compile accounting only.
func (h *Handle) PrepareInvoker(solverID string, factory InvokerFactory, infos []KernelInfo) (*Invoker, error) {
	if factory == nil {
		return nil, status.New(status.InternalError, "solution has no invoker factory")
	}
	compiled := make([]CompiledKernel, 0, len(infos))
	for _, info := range infos {
		k, err := h.Compile(info)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, k)
	}
	metrics.KernelCompiles.WithLabelValues(solverID).Add(float64(len(infos)))
	return &Invoker{
		SolverID: solverID,
		Kernels:  compiled,
		run:      factory(compiled),
	}, nil
}

// RegisterInvoker publishes an invoker under both its solver id and its
// algorithm name for the given network config.
func (h *Handle) RegisterInvoker(inv *Invoker, config, solverID, algo string) {
	h.invokers.Register(inv, config, solverID, algo)
}

// GetInvoker returns the invoker registered under (config, ref) where ref
// is either a solver id string or an algorithm name.
func (h *Handle) GetInvoker(config, ref string) (*Invoker, bool) {
	return h.invokers.Get(config, ref)
}

// GetKernels returns kernels previously added under (algo, config).
// This small cache backs fixed-function paths such as backward bias, which
// bypass the solver machinery.
func (h *Handle) GetKernels(algo, config string) []CompiledKernel {
	h.kmu.Lock()
	defer h.kmu.Unlock()
	return h.kernels[kernelKey{algo, config}]
}

// AddKernel compiles info and caches it under (algo, config).
func (h *Handle) AddKernel(algo, config string, info KernelInfo) (CompiledKernel, error) {
	k, err := h.Compile(info)
	if err != nil {
		return CompiledKernel{}, err
	}
	h.kmu.Lock()
	defer h.kmu.Unlock()
	key := kernelKey{algo, config}
	h.kernels[key] = append(h.kernels[key], k)
	return k, nil
}
