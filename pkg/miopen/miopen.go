// Package miopen is the public surface of the convolution library: find,
// immediate-mode and execution entry points for the three convolution
// directions, layered over the internal solver, cache and search
// machinery.
package miopen

import (
	"go.uber.org/zap"

	"github.com/solaiys/MIOpen/internal/config"
	"github.com/solaiys/MIOpen/internal/conv"
	"github.com/solaiys/MIOpen/internal/find"
	"github.com/solaiys/MIOpen/internal/finddb"
	"github.com/solaiys/MIOpen/internal/gpu"
	"github.com/solaiys/MIOpen/internal/heur"
	"github.com/solaiys/MIOpen/internal/logger"
	"github.com/solaiys/MIOpen/internal/solver"
	"github.com/solaiys/MIOpen/internal/status"
	"github.com/solaiys/MIOpen/internal/tensor"
)

// Aliases for the types callers construct and consume directly, so the
// package is usable without importing internal paths.
type (
	TensorDescriptor      = tensor.Descriptor
	DataType              = tensor.DataType
	Layout                = tensor.Layout
	ConvolutionDescriptor = conv.Descriptor
	Direction             = conv.Direction
	FindMode              = conv.FindMode
	PerfField             = find.PerfField
	Solution              = find.Solution
	SolverID              = solver.ID
	Algorithm             = solver.Algorithm

	Config = config.Config
	Stream = gpu.Stream
	Handle = gpu.Handle
)

const (
	Float    = tensor.Float
	Half     = tensor.Half
	BFloat16 = tensor.BFloat16
	Int8     = tensor.Int8
	Int8x4   = tensor.Int8x4
	Int32    = tensor.Int32

	NCHW = tensor.NCHW
	NHWC = tensor.NHWC

	Forward         = conv.Forward
	BackwardData    = conv.BackwardData
	BackwardWeights = conv.BackwardWeights

	AlgoGEMM         = solver.AlgoGEMM
	AlgoDirect       = solver.AlgoDirect
	AlgoFFT          = solver.AlgoFFT
	AlgoWinograd     = solver.AlgoWinograd
	AlgoImplicitGEMM = solver.AlgoImplicitGEMM
)

// Constructors re-exported for callers.
var (
	NewTensorDescriptor            = tensor.New
	NewTensorDescriptorWithStrides = tensor.NewWithStrides
	NewConvolutionDescriptor       = conv.NewDescriptor
	DefaultConfig                  = config.Default
	LoadConfig                     = config.LoadConfig
)

// Context is one execution context: a handle to the device plus the
// caches, search engine and configuration scoped to it. Create one per
// host thread; a Context is not safe for concurrent use.
type Context struct {
	handle *gpu.Handle
	cfg    *config.Config
	log    *zap.Logger
	engine *find.Engine
}

// Options tunes context construction. The zero value is usable.
type Options struct {
	// Config overrides the default library configuration.
	Config *config.Config
	// Logger receives structured library logs; nil silences them.
	Logger *zap.Logger
	// Predictor is the learned model behind the immediate-mode
	// predictor tier. Nil disables that tier.
	Predictor heur.Predictor
}

// NewContext wires a stream and a compiler into a ready context.
func NewContext(stream gpu.Stream, compiler gpu.Compiler, opts Options) *Context {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := logger.OrNop(opts.Logger)
	db := finddb.New(cfg.Find.DbPath, log)
	return &Context{
		handle: gpu.NewHandle(stream, compiler, log),
		cfg:    cfg,
		log:    log.Named("miopen"),
		engine: find.NewEngine(db, opts.Predictor, log),
	}
}

// Handle exposes the underlying device handle.
func (c *Context) Handle() *gpu.Handle { return c.handle }

// Compiler re-exports the kernel-compiler collaborator interface.
type Compiler = gpu.Compiler

// NewHostContext builds a context backed by the in-process host
// emulation, for tooling and tests.
func NewHostContext(arch string, opts Options) *Context {
	return NewContext(gpu.NewHostStream(arch), gpu.StubCompiler{}, opts)
}

func (c *Context) execCtx(exhaustiveSearch bool) *solver.ExecutionContext {
	return &solver.ExecutionContext{
		Handle:   c.handle,
		Cfg:      c.cfg,
		Log:      c.log,
		DoSearch: exhaustiveSearch,
	}
}

// problemFor assembles the problem for a direction. The backward
// directions receive the top-diff tensor in the first slot.
func problemFor(dir conv.Direction, aDesc, wDesc, bDesc tensor.Descriptor, cd conv.Descriptor) conv.Problem {
	return conv.NewProblem(aDesc, wDesc, bDesc, cd, dir)
}

// validateBuffers is the shared non-nil check on the three live buffers.
func validateBuffers(bufs ...[]byte) error {
	for _, b := range bufs {
		if b == nil {
			return status.New(status.BadParm, "tensor buffers cannot be nil")
		}
	}
	return nil
}
