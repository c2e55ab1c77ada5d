// Package models provides ready-made demo systems for the CLI and the
// live view.
package models

import (
	"fmt"
	"sort"

	"github.com/san-kum/blocksim/internal/model"
	"github.com/san-kum/blocksim/internal/sim"
)

// Demo is a built demo system plus the scalar series shown when plotting
// it.
type Demo struct {
	Name   string
	System *model.System
	Label  string
	Trace  func(*sim.Result) []float64
}

// Registry maps demo names to builders.
type Registry struct {
	builders map[string]func() (*Demo, error)
}

// NewRegistry returns the registry of built-in demo systems.
func NewRegistry() *Registry {
	return &Registry{builders: map[string]func() (*Demo, error){
		"ball":      BouncingBall,
		"sampler":   SampledSine,
		"propeller": PropellerRig,
	}}
}

// Get builds the named demo.
func (r *Registry) Get(name string) (*Demo, error) {
	build, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return build()
}

// List returns the available demo names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
