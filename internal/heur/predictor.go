// Package heur hosts the learned-predictor tier of immediate-mode solver
// selection: a model maps a problem and a device architecture to an
// ordered list of candidate solver names, without running anything.
package heur

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/solaiys/MIOpen/internal/conv"
)

// Predictor is the external model collaborator. An empty return means "no
// prediction" and sends the caller to the WTI tier.
type Predictor interface {
	PredictSolver(p conv.Problem, arch string) []string
}

//go:embed model.yaml
var embeddedModel []byte

type rule struct {
	Match struct {
		Direction string `yaml:"direction"`
		Filter    string `yaml:"filter"`
		DataType  string `yaml:"dtype"`
	} `yaml:"match"`
	Solvers []string `yaml:"solvers"`
}

// TableModel is a distilled, table-form classifier: per-architecture rule
// lists matched first to last. It stands in for the shipped model
// artifact; the interface is what matters to the fallback engine.
type TableModel struct {
	rules map[string][]rule
}

// NewTableModel loads the model artifact embedded in the library.
func NewTableModel() (*TableModel, error) {
	return parseModel(embeddedModel)
}

// LoadTableModel loads a model artifact from disk, overriding the
// embedded one.
func LoadTableModel(path string) (*TableModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseModel(data)
}

func parseModel(data []byte) (*TableModel, error) {
	m := &TableModel{rules: make(map[string][]rule)}
	if err := yaml.Unmarshal(data, &m.rules); err != nil {
		return nil, fmt.Errorf("parsing predictor model: %w", err)
	}
	return m, nil
}

// PredictSolver returns the ranked candidate solver names for the
// problem, best first. Rules for the exact architecture are consulted
// first, then the "default" section.
func (m *TableModel) PredictSolver(p conv.Problem, arch string) []string {
	for _, section := range []string{arch, "default"} {
		for _, r := range m.rules[section] {
			if r.matches(p) {
				return append([]string(nil), r.Solvers...)
			}
		}
	}
	return nil
}

func (r rule) matches(p conv.Problem) bool {
	if r.Match.Direction != "" && r.Match.Direction != p.Direction().String() {
		return false
	}
	if r.Match.DataType != "" && r.Match.DataType != p.In.DataType().String() {
		return false
	}
	if r.Match.Filter != "" {
		fs := p.FilterSpatial()
		if len(fs) != 2 {
			return false
		}
		if fmt.Sprintf("%dx%d", fs[0], fs[1]) != r.Match.Filter {
			return false
		}
	}
	return true
}
