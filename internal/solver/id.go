package solver

import (
	"sort"
	"sync"

	"github.com/solaiys/MIOpen/internal/conv"
	"github.com/solaiys/MIOpen/internal/status"
)

// Primitive groups solvers by the operation family they implement.
type Primitive int

const (
	PrimitiveConvolution Primitive = iota
)

// ID is a stable, serializable identifier for a registered solver. Zero
// is never a valid id. Validity is structural: an id is valid exactly
// when it is present in the registry, and invalid ids must never reach
// IsApplicable or Solver().
type ID uint64

const InvalidID ID = 0

var registry = struct {
	mu      sync.RWMutex
	byID    map[ID]Solver
	byName  map[string]ID
	byPrim  map[Primitive][]ID
	primOf  map[ID]Primitive
}{
	byID:   make(map[ID]Solver),
	byName: make(map[string]ID),
	byPrim: make(map[Primitive][]ID),
	primOf: make(map[ID]Primitive),
}

// register adds a solver to the static catalog. Called from package init
// only; the table is read-only afterwards. Duplicate ids or names are a
// programming error.
func register(id ID, prim Primitive, s Solver) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if id == InvalidID {
		panic("solver: cannot register the invalid id")
	}
	if _, dup := registry.byID[id]; dup {
		panic("solver: duplicate id " + s.Name())
	}
	if _, dup := registry.byName[s.Name()]; dup {
		panic("solver: duplicate name " + s.Name())
	}
	registry.byID[id] = s
	registry.byName[s.Name()] = id
	registry.byPrim[prim] = append(registry.byPrim[prim], id)
	registry.primOf[id] = prim
}

// GetSolversByPrimitive returns the ordered set of solver ids registered
// for a primitive. The order is the registration order, which fixes the
// search order of the find pipeline.
func GetSolversByPrimitive(p Primitive) []ID {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return append([]ID(nil), registry.byPrim[p]...)
}

// AllNames returns the registered solver names, sorted, for tooling.
func AllNames() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	names := make([]string, 0, len(registry.byName))
	for n := range registry.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FromName resolves a solver name to its id, or InvalidID.
func FromName(name string) ID {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return registry.byName[name]
}

// Valid reports whether the id exists in the registry.
func (id ID) Valid() bool {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	_, ok := registry.byID[id]
	return ok
}

// Value returns the numeric value for serialization.
func (id ID) Value() uint64 { return uint64(id) }

// String returns the registered solver name, or "INVALID".
func (id ID) String() string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	if s, ok := registry.byID[id]; ok {
		return s.Name()
	}
	return "INVALID"
}

// Solver returns the registered implementation. Callers must check
// Valid() first; an unknown id is a BadParm error here.
func (id ID) Solver() (Solver, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	s, ok := registry.byID[id]
	if !ok {
		return nil, status.Errorf(status.BadParm, "invalid solver id %d", uint64(id))
	}
	return s, nil
}

// Algo returns the solver's algorithm family, or an error for unknown
// ids.
func (id ID) Algo() (Algorithm, error) {
	s, err := id.Solver()
	if err != nil {
		return 0, err
	}
	return s.Algo(), nil
}

// AlgoName returns the directional algorithm name for the solver, e.g.
// "ConvolutionFwdAlgoWinograd".
func (id ID) AlgoName(dir conv.Direction) (string, error) {
	a, err := id.Algo()
	if err != nil {
		return "", err
	}
	return a.DirectionalString(dir), nil
}
