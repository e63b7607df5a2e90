package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Logger struct {
		Verbosity string `yaml:"verbosity"`
	} `yaml:"logger"`
	Find struct {
		// Mode selects the default find mode: normal, fast, hybrid or
		// dynamicHybrid. A convolution descriptor may override it.
		Mode string `yaml:"mode"`
		// DbPath is the location of the user find-db file. Empty keeps
		// the database in memory only.
		DbPath string `yaml:"dbPath"`
	} `yaml:"find"`
	Debug struct {
		// CompileOnly aborts Find right after kernel compilation with
		// GpuOperationsSkipped, never running anything.
		CompileOnly bool `yaml:"compileOnly"`
		// DisableImmedFallback turns the immediate-mode fallback engine
		// off entirely.
		DisableImmedFallback bool `yaml:"disableImmedFallback"`
		// EnableAIFallback enables the learned-predictor tier of the
		// immediate-mode fallback.
		EnableAIFallback bool `yaml:"enableAIFallback"`
		// ForceImmedFallback makes Hybrid find use the fallback result
		// even when it would normally run a Normal find instead.
		ForceImmedFallback bool `yaml:"forceImmedFallback"`
		// CheckNumerics scans input/output buffers for NaN/Inf around
		// kernel execution. Diagnostic only.
		CheckNumerics bool `yaml:"checkNumerics"`
		// DumpTensorPath, when set together with CheckNumerics, dumps
		// raw tensor bytes to files under this prefix on detection.
		DumpTensorPath string `yaml:"dumpTensorPath"`
	} `yaml:"debug"`
	// DisabledAlgorithms lists algorithm names (e.g. "Winograd") that are
	// skipped everywhere applicability is consulted.
	DisabledAlgorithms []string `yaml:"disabledAlgorithms"`
	// DisabledSolvers lists solver names that are skipped the same way.
	DisabledSolvers []string `yaml:"disabledSolvers"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := Default()
	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, err
	}

	return config, nil
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	cfg := &Config{}
	cfg.Logger.Verbosity = "info"
	cfg.Find.Mode = "normal"
	return cfg
}

// AlgorithmDisabled reports whether the named algorithm is globally
// disabled.
func (c *Config) AlgorithmDisabled(name string) bool {
	return contains(c.DisabledAlgorithms, name)
}

// SolverDisabled reports whether the named solver is globally disabled.
func (c *Config) SolverDisabled(name string) bool {
	return contains(c.DisabledSolvers, name)
}

func contains(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}
