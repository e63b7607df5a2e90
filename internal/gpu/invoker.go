package gpu

// InvokeHandler is the body of an invoker: it launches the solver's
// compiled kernels on the handle for one set of buffers.
type InvokeHandler func(h *Handle, p InvokeParams) error

// InvokerFactory binds compiled kernels into an InvokeHandler. Solvers
// return one from FindSolution; the handle calls it once, at invoker
// preparation time.
type InvokerFactory func(kernels []CompiledKernel) InvokeHandler

// Invoker is a prepared, runnable closure over a specific set of compiled
// kernels and their launch parameters. Invokers are owned exclusively by
// the per-handle cache and shared only through it, so cache hits return
// the same *Invoker.
type Invoker struct {
	SolverID string
	Kernels  []CompiledKernel

	run InvokeHandler
}

// Invoke runs the bound kernels.
func (i *Invoker) Invoke(h *Handle, p InvokeParams) error {
	return i.run(h, p)
}
