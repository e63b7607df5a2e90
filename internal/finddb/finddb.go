// Package finddb implements the persisted find-database: a mapping from a
// problem's network config to the (solver, performance) tuples a previous
// Find benchmarked. It is the only bridge for search results across
// process runs.
//
// Concurrent writers to the same file from independent processes are not
// synchronized; the last writer wins. Within a process the database is
// mutex-guarded.
package finddb

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/solaiys/MIOpen/internal/logger"
	"github.com/solaiys/MIOpen/internal/metrics"
)

// Entry is one benchmarked result for a (network config, solver) pair.
type Entry struct {
	Algorithm string  `yaml:"algorithm"`
	Time      float64 `yaml:"time"`
	Workspace uint64  `yaml:"workspace"`
}

// Record holds all entries for one network config, keyed by solver name.
type Record map[string]Entry

// DB is the user find-database: an in-memory map backed by an optional
// yaml file. Entries for a key are created only by running Find and are
// overwritten only by re-running Find for the same key.
type DB struct {
	mu      sync.Mutex
	path    string
	records map[string]Record
	loaded  bool
	logger  *zap.Logger
}

// New opens a database backed by the yaml file at path. An empty path
// keeps the database in memory only. The file is read lazily on first
// access; a missing file is an empty database.
func New(path string, log *zap.Logger) *DB {
	return &DB{
		path:    path,
		records: make(map[string]Record),
		logger:  logger.OrNop(log).Named("finddb"),
	}
}

// TryLoad returns the record for config, or invokes populate to build,
// store and persist one when the key is absent or empty. This is the only
// way entries are created.
func (db *DB) TryLoad(config string, populate func(Record) error) (Record, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.load()

	if rec, ok := db.records[config]; ok && len(rec) > 0 {
		metrics.FindDbHits.Inc()
		db.logger.Debug("find-db hit", zap.String("network_config", config))
		return cloneRecord(rec), nil
	}

	metrics.FindDbMisses.Inc()
	rec := make(Record)
	if err := populate(rec); err != nil {
		return nil, err
	}
	db.records[config] = cloneRecord(rec)
	db.save()
	return rec, nil
}

// Lookup returns the stored record for config without populating.
func (db *DB) Lookup(config string) (Record, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.load()
	rec, ok := db.records[config]
	if !ok || len(rec) == 0 {
		return nil, false
	}
	return cloneRecord(rec), true
}

// Keys returns all network configs present, for tooling.
func (db *DB) Keys() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.load()
	keys := make([]string, 0, len(db.records))
	for k := range db.records {
		keys = append(keys, k)
	}
	return keys
}

// load reads the backing file once. Callers hold db.mu.
func (db *DB) load() {
	if db.loaded || db.path == "" {
		db.loaded = true
		return
	}
	db.loaded = true
	data, err := os.ReadFile(db.path)
	if err != nil {
		if !os.IsNotExist(err) {
			db.logger.Warn("failed to read find-db", zap.String("path", db.path), zap.Error(err))
		}
		return
	}
	if err := yaml.Unmarshal(data, &db.records); err != nil {
		db.logger.Warn("failed to parse find-db, starting empty",
			zap.String("path", db.path), zap.Error(err))
		db.records = make(map[string]Record)
	}
}

// save persists the whole database. Best effort: a failed write keeps the
// in-memory state authoritative for this process. Callers hold db.mu.
func (db *DB) save() {
	if db.path == "" {
		return
	}
	data, err := yaml.Marshal(db.records)
	if err != nil {
		db.logger.Error("failed to encode find-db", zap.Error(err))
		return
	}
	if dir := filepath.Dir(db.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			db.logger.Error("failed to create find-db directory", zap.Error(err))
			return
		}
	}
	if err := os.WriteFile(db.path, data, 0o644); err != nil {
		db.logger.Error("failed to write find-db", zap.String("path", db.path), zap.Error(err))
	}
}

func cloneRecord(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
