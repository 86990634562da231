package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/dynamo"
)

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }
func (e *Euler) Order() int   { return 1 }

func (e *Euler) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	dx := sys.Derive(t, x)
	return floats.AddScaledTo(make(dynamo.State, len(x)), x, dt, dx)
}

// Midpoint is the explicit midpoint rule (RK2).
type Midpoint struct {
	scratch dynamo.State
}

func NewMidpoint() *Midpoint {
	return &Midpoint{}
}

func (m *Midpoint) Name() string { return "midpoint" }
func (m *Midpoint) Order() int   { return 2 }

func (m *Midpoint) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	if len(m.scratch) != n {
		m.scratch = make(dynamo.State, n)
	}

	k1 := sys.Derive(t, x)
	floats.AddScaledTo(m.scratch, x, 0.5*dt, k1)
	k2 := sys.Derive(t+0.5*dt, m.scratch)

	return floats.AddScaledTo(make(dynamo.State, n), x, dt, k2)
}
