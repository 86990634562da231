package integrators

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/dynamo"
)

// ErrUnknownMethod is returned when a solver method name is not registered.
var ErrUnknownMethod = errors.New("integrators: unknown method")

var methods = map[string]func() dynamo.Integrator{
	"euler":    func() dynamo.Integrator { return NewEuler() },
	"midpoint": func() dynamo.Integrator { return NewMidpoint() },
	"rk4":      func() dynamo.Integrator { return NewRK4() },
	"bosh3":    func() dynamo.Integrator { return NewBogackiShampine() },
	"dopri5":   func() dynamo.Integrator { return NewDormandPrince() },
}

// Lookup returns a fresh stepper for the named method. "rk45" is accepted
// as an alias of "dopri5".
func Lookup(name string) (dynamo.Integrator, error) {
	if name == "rk45" {
		name = "dopri5"
	}
	fn, ok := methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownMethod, name, Methods())
	}
	return fn(), nil
}

// Methods returns the registered method names in sorted order.
func Methods() []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsAdaptive reports whether the named method controls its own step size.
func IsAdaptive(name string) bool {
	integ, err := Lookup(name)
	if err != nil {
		return false
	}
	_, ok := integ.(dynamo.AdaptiveIntegrator)
	return ok
}
