package fields

import (
	"fmt"
	"sort"
)

// Registry maps field names to model constructors with default parameters.
type Registry struct {
	models map[string]func() Model
}

func NewRegistry() *Registry {
	r := &Registry{models: make(map[string]func() Model)}

	r.models["decay"] = func() Model { return NewDecay(1.0, 1) }
	r.models["oscillator"] = func() Model { return NewOscillator() }
	r.models["vanderpol"] = func() Model { return NewVanDerPol() }
	r.models["lorenz"] = func() Model { return NewLorenz() }
	r.models["duffing"] = func() Model { return NewDuffing() }
	r.models["rossler"] = func() Model { return NewRossler() }

	return r
}

func (r *Registry) Get(name string) (Model, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown field: %s (available: %v)", name, r.List())
	}
	return fn(), nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
