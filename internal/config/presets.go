package config

import (
	"sort"

	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/integrators"
)

// Presets are named solver settings.
var Presets = map[string]SolverConfig{
	"default": {
		Method: "dopri5", RTol: integrators.DefaultRTol, ATol: integrators.DefaultATol,
		MaxSteps: integrators.DefaultMaxSteps,
	},
	"accurate": {
		Method: "dopri5", RTol: 1e-9, ATol: 1e-10, MaxSteps: 1000000,
	},
	"fast": {
		Method: "bosh3", RTol: 1e-3, ATol: 1e-4, MaxSteps: integrators.DefaultMaxSteps,
	},
	"fixed": {
		Method: "rk4", StepSize: 0.01, MaxSteps: 1000000,
	},
}

// GetPreset returns a copy of the named preset, or nil if there is none.
func GetPreset(name string) *SolverConfig {
	preset, ok := Presets[name]
	if !ok {
		return nil
	}
	return &preset
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
