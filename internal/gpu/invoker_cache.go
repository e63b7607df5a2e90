package gpu

import (
	"sync"

	"go.uber.org/zap"

	"github.com/solaiys/MIOpen/internal/metrics"
)

type invokerKey struct {
	config string
	// ref is either a solver id string or an algorithm name; both must
	// resolve to the same cached invoker.
	ref string
}

// invokerCache maps (network config, solver id) and (network config,
// algorithm name) to prepared invokers. One instance lives per handle and
// is guarded by an explicit mutex; there is no eviction, entries live for
// the handle lifetime. Growth is bounded by the variety of problems the
// process actually runs.
type invokerCache struct {
	mu     sync.RWMutex
	cache  map[invokerKey]*Invoker
	logger *zap.Logger
}

func newInvokerCache(logger *zap.Logger) *invokerCache {
	return &invokerCache{
		cache:  make(map[invokerKey]*Invoker),
		logger: logger.Named("invoker_cache"),
	}
}

// Register stores inv under the solver-id key and, when algo is
// non-empty, under the algorithm-name key as well. Normal execution paths
// look invokers up by algorithm; immediate-mode paths look up by solver.
func (c *invokerCache) Register(inv *Invoker, config, solverID, algo string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[invokerKey{config, solverID}] = inv
	if algo != "" {
		c.cache[invokerKey{config, algo}] = inv
	}
	metrics.InvokerCacheSize.Set(float64(len(c.cache)))
	c.logger.Debug("invoker registered",
		zap.String("network_config", config),
		zap.String("solver", solverID),
		zap.String("algorithm", algo))
}

// Get returns the invoker registered under (config, ref), where ref is a
// solver id string or an algorithm name.
func (c *invokerCache) Get(config, ref string) (*Invoker, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	inv, ok := c.cache[invokerKey{config, ref}]
	return inv, ok
}
