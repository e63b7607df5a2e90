package miopen

import (
	"github.com/solaiys/MIOpen/internal/conv"
	"github.com/solaiys/MIOpen/internal/gpu"
	"github.com/solaiys/MIOpen/internal/numerics"
	"github.com/solaiys/MIOpen/internal/solver"
	"github.com/solaiys/MIOpen/internal/status"
	"github.com/solaiys/MIOpen/internal/tensor"
)

// FindConvolutionForwardAlgorithm benchmarks the applicable solvers for a
// forward convolution and returns up to requestCount ranked results, one
// per algorithm family. It registers invokers as a side effect but does
// not produce output in y beyond what benchmarking writes.
func (c *Context) FindConvolutionForwardAlgorithm(
	xDesc TensorDescriptor, x []byte,
	wDesc TensorDescriptor, w []byte,
	cd ConvolutionDescriptor,
	yDesc TensorDescriptor, y []byte,
	requestCount int, workspace []byte, exhaustiveSearch bool) ([]PerfField, error) {

	p := problemFor(conv.Forward, xDesc, wDesc, yDesc, cd)
	return c.findAlgorithm(p, x, w, y, requestCount, workspace, exhaustiveSearch)
}

// FindConvolutionBackwardDataAlgorithm is the data-gradient counterpart:
// dy and w are inputs, dx is the output being searched for.
func (c *Context) FindConvolutionBackwardDataAlgorithm(
	dyDesc TensorDescriptor, dy []byte,
	wDesc TensorDescriptor, w []byte,
	cd ConvolutionDescriptor,
	dxDesc TensorDescriptor, dx []byte,
	requestCount int, workspace []byte, exhaustiveSearch bool) ([]PerfField, error) {

	if dyDesc.Len(1) != wDesc.Len(0) {
		return nil, status.New(status.BadParm, "output-gradient channels do not match filter count")
	}
	p := problemFor(conv.BackwardData, dyDesc, wDesc, dxDesc, cd)
	return c.findAlgorithm(p, dy, w, dx, requestCount, workspace, exhaustiveSearch)
}

// FindConvolutionBackwardWeightsAlgorithm searches for the
// weights-gradient: dy and x are inputs, dw is the output.
func (c *Context) FindConvolutionBackwardWeightsAlgorithm(
	dyDesc TensorDescriptor, dy []byte,
	xDesc TensorDescriptor, x []byte,
	cd ConvolutionDescriptor,
	dwDesc TensorDescriptor, dw []byte,
	requestCount int, workspace []byte, exhaustiveSearch bool) ([]PerfField, error) {

	p := problemFor(conv.BackwardWeights, dyDesc, dwDesc, xDesc, cd)
	return c.findAlgorithm(p, dy, dw, x, requestCount, workspace, exhaustiveSearch)
}

func (c *Context) findAlgorithm(p conv.Problem, a, b, d []byte,
	requestCount int, workspace []byte, exhaustiveSearch bool) ([]PerfField, error) {

	if err := c.validateProblem(p, a, b, d); err != nil {
		return nil, err
	}
	if err := validateInt8(p, nil); err != nil {
		return nil, err
	}
	ctx := c.execCtx(exhaustiveSearch)
	tensors := gpu.ConvTensors{
		XDesc: p.In, X: a,
		WDesc: p.Weights, W: b,
		YDesc: p.Out, Y: d,
	}
	return c.engine.FindConvolution(ctx, p, tensors, workspace, requestCount)
}

// ConvolutionForward executes a forward convolution with the invoker a
// prior Find registered for the chosen algorithm.
func (c *Context) ConvolutionForward(alpha float64,
	xDesc TensorDescriptor, x []byte,
	wDesc TensorDescriptor, w []byte,
	cd ConvolutionDescriptor, algo Algorithm, beta float64,
	yDesc TensorDescriptor, y []byte, workspace []byte) error {

	p := problemFor(conv.Forward, xDesc, wDesc, yDesc, cd)
	return c.execute(p, alpha, beta, &algo, x, w, y, workspace, "convolution forward")
}

// ConvolutionBackwardData computes the data gradient with a previously
// found algorithm.
func (c *Context) ConvolutionBackwardData(alpha float64,
	dyDesc TensorDescriptor, dy []byte,
	wDesc TensorDescriptor, w []byte,
	cd ConvolutionDescriptor, algo Algorithm, beta float64,
	dxDesc TensorDescriptor, dx []byte, workspace []byte) error {

	if dyDesc.Len(1) != wDesc.Len(0) {
		return status.New(status.BadParm, "output-gradient channels do not match filter count")
	}
	p := problemFor(conv.BackwardData, dyDesc, wDesc, dxDesc, cd)
	return c.execute(p, alpha, beta, &algo, dy, w, dx, workspace, "convolution backward data")
}

// ConvolutionBackwardWeights computes the weights gradient with a
// previously found algorithm.
func (c *Context) ConvolutionBackwardWeights(alpha float64,
	dyDesc TensorDescriptor, dy []byte,
	xDesc TensorDescriptor, x []byte,
	cd ConvolutionDescriptor, algo Algorithm, beta float64,
	dwDesc TensorDescriptor, dw []byte, workspace []byte) error {

	p := problemFor(conv.BackwardWeights, dyDesc, dwDesc, xDesc, cd)
	return c.execute(p, alpha, beta, &algo, dy, dw, x, workspace, "convolution backward weights")
}

// execute is the common execution path: full validation, invoker lookup
// by directional algorithm name, optional numerics checks around the run.
func (c *Context) execute(p conv.Problem, alpha, beta float64, algo *Algorithm,
	a, b, d []byte, workspace []byte, what string) error {

	if err := c.validateProblem(p, a, b, d); err != nil {
		return err
	}
	if err := conv.ValidateAlphaBeta(alpha, beta); err != nil {
		return err
	}
	if err := validateInt8(p, algo); err != nil {
		return err
	}

	config := string(p.NetworkConfig())
	inv, ok := c.handle.GetInvoker(config, algo.DirectionalString(p.Direction()))
	if !ok {
		return status.Errorf(status.BadParm,
			"no invoker was registered for %s, was find executed?", what)
	}
	return c.invoke(inv, p, a, b, d, workspace)
}

// ConvolutionForwardImmediate executes a forward convolution by solver
// id, compiling on first use. No prior Find call is needed.
func (c *Context) ConvolutionForwardImmediate(
	xDesc TensorDescriptor, x []byte,
	wDesc TensorDescriptor, w []byte,
	cd ConvolutionDescriptor,
	yDesc TensorDescriptor, y []byte,
	workspace []byte, id SolverID) error {

	p := problemFor(conv.Forward, xDesc, wDesc, yDesc, cd)
	return c.executeImmediate(p, x, w, y, workspace, id)
}

// ConvolutionBackwardDataImmediate is the immediate-mode data gradient.
func (c *Context) ConvolutionBackwardDataImmediate(
	dyDesc TensorDescriptor, dy []byte,
	wDesc TensorDescriptor, w []byte,
	cd ConvolutionDescriptor,
	dxDesc TensorDescriptor, dx []byte,
	workspace []byte, id SolverID) error {

	if dyDesc.Len(1) != wDesc.Len(0) {
		return status.New(status.BadParm, "output-gradient channels do not match filter count")
	}
	p := problemFor(conv.BackwardData, dyDesc, wDesc, dxDesc, cd)
	return c.executeImmediate(p, dy, w, dx, workspace, id)
}

// ConvolutionBackwardWeightsImmediate is the immediate-mode weights
// gradient.
func (c *Context) ConvolutionBackwardWeightsImmediate(
	dyDesc TensorDescriptor, dy []byte,
	xDesc TensorDescriptor, x []byte,
	cd ConvolutionDescriptor,
	dwDesc TensorDescriptor, dw []byte,
	workspace []byte, id SolverID) error {

	p := problemFor(conv.BackwardWeights, dyDesc, dwDesc, xDesc, cd)
	return c.executeImmediate(p, dy, dw, x, workspace, id)
}

func (c *Context) executeImmediate(p conv.Problem, a, b, d []byte, workspace []byte, id SolverID) error {
	if err := c.validateProblem(p, a, b, d); err != nil {
		return err
	}
	if !id.Valid() {
		return status.Errorf(status.BadParm, "invalid solution id %d", id.Value())
	}
	s, err := id.Solver()
	if err != nil {
		return err
	}
	algo := s.Algo()
	if err := validateInt8(p, &algo); err != nil {
		return err
	}
	inv, err := c.engine.LoadOrPrepareInvoker(c.execCtx(false), p, id)
	if err != nil {
		return err
	}
	return c.invoke(inv, p, a, b, d, workspace)
}

func (c *Context) invoke(inv *gpu.Invoker, p conv.Problem, a, b, d []byte, workspace []byte) error {
	if c.cfg.Debug.CheckNumerics {
		c.checkNumerics(p.In, "in", a)
		c.checkNumerics(p.Weights, "weights", b)
	}
	err := inv.Invoke(c.handle, gpu.InvokeParams{
		Type: gpu.InvokeTypeRun,
		Tensors: gpu.ConvTensors{
			XDesc: p.In, X: a,
			WDesc: p.Weights, W: b,
			YDesc: p.Out, Y: d,
		},
		Workspace: workspace,
	})
	if err != nil {
		return err
	}
	if c.cfg.Debug.CheckNumerics {
		c.checkNumerics(p.Out, "out", d)
	}
	return nil
}

// checkNumerics is diagnostic only: it logs and optionally dumps but
// never changes the nominal result.
func (c *Context) checkNumerics(desc tensor.Descriptor, name string, buf []byte) {
	_ = numerics.CheckBuffer(c.log, name, desc, buf, c.cfg.Debug.DumpTensorPath)
}

// validateProblem runs the direction-independent validation contract
// shared by every entry point.
func (c *Context) validateProblem(p conv.Problem, bufs ...[]byte) error {
	if err := validateBuffers(bufs...); err != nil {
		return err
	}
	x, y := p.In, p.Out
	if p.Direction() != conv.Forward {
		x, y = p.Out, p.In
	}
	if err := conv.ValidateProblemTensors(x, p.Weights, y); err != nil {
		return err
	}
	if err := conv.ValidatePacked(p.In, p.Weights, p.Out); err != nil {
		return err
	}
	return conv.ValidateGroupCount(p.DataInput(), p.Weights, p.Conv)
}

// validateInt8 enforces the vectorized-int8 restrictions: Int8x4 runs
// only through the GEMM algorithm and only forward; backward weights
// takes no int8 input at all. algo is nil on the find paths, where the
// algorithm is not chosen yet.
func validateInt8(p conv.Problem, algo *Algorithm) error {
	in := p.DataInput().DataType()
	wt := p.Weights.DataType()

	if p.Direction() == conv.BackwardWeights &&
		(in == tensor.Int8 || in == tensor.Int8x4 || wt == tensor.Int8 || wt == tensor.Int8x4) {
		return status.New(status.NotImplemented, "int8 is not supported for backward weights")
	}
	if in == tensor.Int8x4 || wt == tensor.Int8x4 {
		if p.Direction() != conv.Forward {
			return status.New(status.NotImplemented, "packed int8 is only supported for forward convolution")
		}
		if algo != nil && *algo != solver.AlgoGEMM {
			return status.New(status.NotImplemented, "packed int8 is only supported with the GEMM algorithm")
		}
	}
	return nil
}
