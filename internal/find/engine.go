package find

import (
	"go.uber.org/zap"

	"github.com/solaiys/MIOpen/internal/finddb"
	"github.com/solaiys/MIOpen/internal/heur"
	"github.com/solaiys/MIOpen/internal/logger"
)

// Engine owns the find-database and the optional learned predictor and
// orchestrates solver search for all three convolution directions.
type Engine struct {
	db        *finddb.DB
	predictor heur.Predictor
	logger    *zap.Logger
}

// NewEngine builds a search engine. The predictor may be nil; the
// predictor tier is then skipped regardless of configuration.
func NewEngine(db *finddb.DB, predictor heur.Predictor, log *zap.Logger) *Engine {
	return &Engine{
		db:        db,
		predictor: predictor,
		logger:    logger.OrNop(log).Named("find"),
	}
}

// DB exposes the engine's find-database for tooling.
func (e *Engine) DB() *finddb.DB { return e.db }
