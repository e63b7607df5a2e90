package miopen

import (
	"github.com/solaiys/MIOpen/internal/conv"
	"github.com/solaiys/MIOpen/internal/find"
	"github.com/solaiys/MIOpen/internal/status"
)

// The solution queries are the descriptor-only half of immediate mode:
// they rank, size and compile solutions without touching live buffers.

// ConvolutionForwardGetSolutionCount returns how many forward solutions
// immediate mode can offer for the shapes.
func (c *Context) ConvolutionForwardGetSolutionCount(
	xDesc, wDesc TensorDescriptor, cd ConvolutionDescriptor, yDesc TensorDescriptor) (int, error) {

	p := problemFor(conv.Forward, xDesc, wDesc, yDesc, cd)
	return c.solutionCount(p)
}

// ConvolutionForwardGetSolution returns up to maxCount ranked forward
// solutions, best first.
func (c *Context) ConvolutionForwardGetSolution(
	xDesc, wDesc TensorDescriptor, cd ConvolutionDescriptor, yDesc TensorDescriptor,
	maxCount int) ([]Solution, error) {

	p := problemFor(conv.Forward, xDesc, wDesc, yDesc, cd)
	return c.solutions(p, maxCount)
}

// ConvolutionForwardGetSolutionWorkspaceSize returns the workspace bytes
// solver id needs for the forward problem.
func (c *Context) ConvolutionForwardGetSolutionWorkspaceSize(
	xDesc, wDesc TensorDescriptor, cd ConvolutionDescriptor, yDesc TensorDescriptor,
	id SolverID) (uint64, error) {

	p := problemFor(conv.Forward, xDesc, wDesc, yDesc, cd)
	return c.solutionWorkspace(p, id)
}

// ConvolutionForwardCompileSolution compiles solver id's kernels for the
// forward problem ahead of the first execution.
func (c *Context) ConvolutionForwardCompileSolution(
	xDesc, wDesc TensorDescriptor, cd ConvolutionDescriptor, yDesc TensorDescriptor,
	id SolverID) error {

	p := problemFor(conv.Forward, xDesc, wDesc, yDesc, cd)
	return c.compileSolution(p, id)
}

func (c *Context) ConvolutionBackwardDataGetSolutionCount(
	dyDesc, wDesc TensorDescriptor, cd ConvolutionDescriptor, dxDesc TensorDescriptor) (int, error) {

	if err := bwdDataShapesMatch(dyDesc, wDesc); err != nil {
		return 0, err
	}
	p := problemFor(conv.BackwardData, dyDesc, wDesc, dxDesc, cd)
	return c.solutionCount(p)
}

func (c *Context) ConvolutionBackwardDataGetSolution(
	dyDesc, wDesc TensorDescriptor, cd ConvolutionDescriptor, dxDesc TensorDescriptor,
	maxCount int) ([]Solution, error) {

	if err := bwdDataShapesMatch(dyDesc, wDesc); err != nil {
		return nil, err
	}
	p := problemFor(conv.BackwardData, dyDesc, wDesc, dxDesc, cd)
	return c.solutions(p, maxCount)
}

func (c *Context) ConvolutionBackwardDataGetSolutionWorkspaceSize(
	dyDesc, wDesc TensorDescriptor, cd ConvolutionDescriptor, dxDesc TensorDescriptor,
	id SolverID) (uint64, error) {

	p := problemFor(conv.BackwardData, dyDesc, wDesc, dxDesc, cd)
	return c.solutionWorkspace(p, id)
}

func (c *Context) ConvolutionBackwardDataCompileSolution(
	dyDesc, wDesc TensorDescriptor, cd ConvolutionDescriptor, dxDesc TensorDescriptor,
	id SolverID) error {

	p := problemFor(conv.BackwardData, dyDesc, wDesc, dxDesc, cd)
	return c.compileSolution(p, id)
}

func (c *Context) ConvolutionBackwardWeightsGetSolutionCount(
	dyDesc, xDesc TensorDescriptor, cd ConvolutionDescriptor, dwDesc TensorDescriptor) (int, error) {

	p := problemFor(conv.BackwardWeights, dyDesc, dwDesc, xDesc, cd)
	return c.solutionCount(p)
}

func (c *Context) ConvolutionBackwardWeightsGetSolution(
	dyDesc, xDesc TensorDescriptor, cd ConvolutionDescriptor, dwDesc TensorDescriptor,
	maxCount int) ([]Solution, error) {

	p := problemFor(conv.BackwardWeights, dyDesc, dwDesc, xDesc, cd)
	return c.solutions(p, maxCount)
}

func (c *Context) ConvolutionBackwardWeightsGetSolutionWorkspaceSize(
	dyDesc, xDesc TensorDescriptor, cd ConvolutionDescriptor, dwDesc TensorDescriptor,
	id SolverID) (uint64, error) {

	p := problemFor(conv.BackwardWeights, dyDesc, dwDesc, xDesc, cd)
	return c.solutionWorkspace(p, id)
}

func (c *Context) ConvolutionBackwardWeightsCompileSolution(
	dyDesc, xDesc TensorDescriptor, cd ConvolutionDescriptor, dwDesc TensorDescriptor,
	id SolverID) error {

	p := problemFor(conv.BackwardWeights, dyDesc, dwDesc, xDesc, cd)
	return c.compileSolution(p, id)
}

func (c *Context) solutionCount(p conv.Problem) (int, error) {
	if err := c.validateSolutionProblem(p); err != nil {
		return 0, err
	}
	return c.engine.GetSolutionCount(c.execCtx(false), p)
}

func (c *Context) solutions(p conv.Problem, maxCount int) ([]Solution, error) {
	if maxCount < 1 {
		return nil, status.New(status.BadParm, "requested solution count must be at least 1")
	}
	if err := c.validateSolutionProblem(p); err != nil {
		return nil, err
	}
	sols, _, err := c.engine.GetSolutions(c.execCtx(false), p, maxCount)
	return sols, err
}

func (c *Context) solutionWorkspace(p conv.Problem, id SolverID) (uint64, error) {
	if err := c.validateSolutionProblem(p); err != nil {
		return 0, err
	}
	return find.SolutionWorkspace(c.execCtx(false), p, id)
}

func (c *Context) compileSolution(p conv.Problem, id SolverID) error {
	if err := c.validateSolutionProblem(p); err != nil {
		return err
	}
	return c.engine.CompileSolution(c.execCtx(false), p, id)
}

func (c *Context) validateSolutionProblem(p conv.Problem) error {
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
	return validateInt8(p, nil)
}

func bwdDataShapesMatch(dyDesc, wDesc TensorDescriptor) error {
	if dyDesc.Len(1) != wDesc.Len(0) {
		return status.New(status.BadParm, "output-gradient channels do not match filter count")
	}
	return nil
}
