// Package fusion implements the fusion-plan matcher: a small directed
// graph whose vertices are fused kernel variants and whose edges carry
// structural keys. Walking the graph with a chain of operations selects
// the specialized kernel that implements the whole chain, if one exists.
package fusion

import (
	"fmt"
	"sync/atomic"

	"github.com/solaiys/MIOpen/internal/status"
)

// OpKind identifies a fusible operation.
type OpKind int

const (
	OpConvForward OpKind = iota
	OpBiasForward
	OpActivForward
	OpBatchNormInference
)

func (k OpKind) String() string {
	switch k {
	case OpConvForward:
		return "ConvForward"
	case OpBiasForward:
		return "BiasForward"
	case OpActivForward:
		return "ActivForward"
	case OpBatchNormInference:
		return "BatchNormInference"
	}
	return fmt.Sprintf("OpKind(%d)", int(k))
}

// Op is one operation in a fusion plan. GraphKey is the structural key
// matched against edge keys during the walk; an empty key matches only
// edges that accept anything.
type Op interface {
	Kind() OpKind
	GraphKey() string
}

// BNMode distinguishes the two batch-norm statistics layouts.
type BNMode int

const (
	BNPerActivation BNMode = iota
	BNSpatial
)

func (m BNMode) String() string {
	if m == BNSpatial {
		return "spatial"
	}
	return "perActivation"
}

// ConvForwardOp is a forward convolution inside a fusion plan. Only
// unit-stride, undilated, unpadded convolutions have fused kernels, so
// the key encodes just the filter size and algorithm family.
type ConvForwardOp struct {
	FilterH, FilterW int
	AlgoName         string
}

func (ConvForwardOp) Kind() OpKind { return OpConvForward }
func (o ConvForwardOp) GraphKey() string {
	return fmt.Sprintf("conv-%s-%dx%d", o.AlgoName, o.FilterH, o.FilterW)
}

// BiasForwardOp adds a per-channel bias.
type BiasForwardOp struct{}

func (BiasForwardOp) Kind() OpKind     { return OpBiasForward }
func (BiasForwardOp) GraphKey() string { return "" }

// ActivForwardOp applies an activation function.
type ActivForwardOp struct{}

func (ActivForwardOp) Kind() OpKind     { return OpActivForward }
func (ActivForwardOp) GraphKey() string { return "" }

// BatchNormInferenceOp applies inference-mode batch normalization.
type BatchNormInferenceOp struct {
	Mode BNMode
}

func (BatchNormInferenceOp) Kind() OpKind { return OpBatchNormInference }
func (o BatchNormInferenceOp) GraphKey() string {
	return "bn-" + o.Mode.String()
}

var vertexID atomic.Int64

// Vertex is one fused kernel variant. The id is unique within the
// process; nothing depends on specific values.
type Vertex struct {
	ID          int64
	Op          OpKind
	ProgramName string
	KernelName  string
	AlgoName    string
	Leaf        bool
}

func newVertex(op OpKind, program, kernel, algo string, leaf bool) *Vertex {
	return &Vertex{
		ID:          vertexID.Add(1),
		Op:          op,
		ProgramName: program,
		KernelName:  kernel,
		AlgoName:    algo,
		Leaf:        leaf,
	}
}

// edge is one labeled transition. Empty keys accept any op key; a
// non-empty key set requires the op's key to be present. The weight
// accumulates along the walk and breaks ties between parallel matches.
type edge struct {
	dst    *Vertex
	keys   []string
	weight int
}

type frontierEntry struct {
	v      *Vertex
	weight int
}

// Graph is the matcher state: a static adjacency list plus the walk
// frontier. The nil vertex is the root. Not safe for concurrent use; a
// graph belongs to one fusion plan.
type Graph struct {
	edges    map[*Vertex][]edge
	frontier []frontierEntry
}

// NewGraph returns an empty graph with the frontier at the root.
func NewGraph() *Graph {
	g := &Graph{edges: make(map[*Vertex][]edge)}
	g.Reset()
	return g
}

// AddEdge links src (nil for the root) to dst. Repeated calls for the
// same pair accumulate keys, widening what the transition accepts, and
// the edge keeps the largest weight seen.
func (g *Graph) AddEdge(src, dst *Vertex, keys []string, weight int) {
	for i, e := range g.edges[src] {
		if e.dst == dst {
			g.edges[src][i].keys = append(e.keys, keys...)
			if weight > e.weight {
				g.edges[src][i].weight = weight
			}
			return
		}
	}
	g.edges[src] = append(g.edges[src], edge{dst: dst, keys: keys, weight: weight})
}

// Reset returns the frontier to the root with zero accumulated weight.
func (g *Graph) Reset() {
	g.frontier = []frontierEntry{{v: nil, weight: 0}}
}

// Advance walks the graph following ops in order. Each op moves every
// frontier vertex across the matching outgoing edges at once; the walk
// keeps all simultaneously reachable vertices alive. It returns false,
// leaving the frontier empty, when some op matches no edge. An op whose
// kind the matcher does not know is a hard error.
func (g *Graph) Advance(ops []Op) (bool, error) {
	for _, op := range ops {
		switch op.Kind() {
		case OpConvForward, OpBiasForward, OpActivForward, OpBatchNormInference:
		default:
			return false, status.Errorf(status.BadParm, "unsupported fusion operator %s", op.Kind())
		}

		var next []frontierEntry
		for _, cur := range g.frontier {
			for _, e := range g.edges[cur.v] {
				if e.dst.Op != op.Kind() {
					continue
				}
				if !keyMatches(e.keys, op.GraphKey()) {
					continue
				}
				next = append(next, frontierEntry{v: e.dst, weight: cur.weight + e.weight})
			}
		}
		g.frontier = next
		if len(next) == 0 {
			return false, nil
		}
	}
	return true, nil
}

// keyMatches implements edge-key comparison: an edge with no keys (or
// only the empty key) accepts anything, otherwise the op's key must be
// listed.
func keyMatches(keys []string, opKey string) bool {
	if len(keys) == 0 {
		return true
	}
	for _, k := range keys {
		if k == "" || k == opKey {
			return true
		}
	}
	return false
}

// GetCurVertex returns the highest-weight vertex on the frontier, or nil
// when the walk is at the root or dead.
func (g *Graph) GetCurVertex() *Vertex {
	if len(g.frontier) == 0 {
		return nil
	}
	best := g.frontier[0]
	for _, cur := range g.frontier[1:] {
		if cur.weight > best.weight {
			best = cur
		}
	}
	return best.v
}

// GetProgramName returns the matched kernel's program name. Calling any
// of the three getters with no live match is a usage error.
func (g *Graph) GetProgramName() (string, error) {
	v := g.GetCurVertex()
	if v == nil {
		return "", status.New(status.BadParm, "invalid fusion plan")
	}
	return v.ProgramName, nil
}

func (g *Graph) GetKernelName() (string, error) {
	v := g.GetCurVertex()
	if v == nil {
		return "", status.New(status.BadParm, "invalid fusion plan")
	}
	return v.KernelName, nil
}

func (g *Graph) GetAlgoName() (string, error) {
	v := g.GetCurVertex()
	if v == nil {
		return "", status.New(status.BadParm, "invalid fusion plan")
	}
	return v.AlgoName, nil
}
