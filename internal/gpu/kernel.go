package gpu

// KernelInfo describes one kernel a solver wants compiled: the program it
// lives in, the entry point, launch geometry and build options. The core
// never inspects kernel sources; they are opaque text handed to the
// compiler collaborator.
type KernelInfo struct {
	ProgramName    string
	KernelName     string
	Source         string
	CompileOptions string
	GlobalWorkDim  []int
	LocalWorkDim   []int
}

// CompiledKernel is a compiled kernel blob bound to its launch geometry.
type CompiledKernel struct {
	Info   KernelInfo
	Binary []byte
}

// Compiler is the GPU compiler toolchain collaborator. It turns kernel
// source (or assembly) into a binary blob for the target architecture.
// The core only consumes "compiled or not" plus the bytes.
type Compiler interface {
	Compile(info KernelInfo, arch string) ([]byte, error)
}
