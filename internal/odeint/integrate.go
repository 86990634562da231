package odeint

import (
	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/dynamo"
	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/integrators"
)

// Config selects the number of replicated fields and the solver used by
// IntegrateL. Zero values select the defaults, so a tolerance of exactly zero
// cannot be requested; use a tiny positive value such as 1e-300 for a pure
// relative or pure absolute test.
type Config struct {
	L      int
	Method string
	RTol   float64
	ATol   float64
	// Solver replaces integrators.Solve when set.
	Solver SolveFunc
}

func DefaultConfig() Config {
	return Config{
		L:      1,
		Method: integrators.DefaultMethod,
		RTol:   integrators.DefaultRTol,
		ATol:   integrators.DefaultATol,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.L == 0 {
		c.L = d.L
	}
	if c.Method == "" {
		c.Method = d.Method
	}
	if c.RTol == 0 {
		c.RTol = d.RTol
	}
	if c.ATol == 0 {
		c.ATol = d.ATol
	}
	if c.Solver == nil {
		c.Solver = integrators.Solve
	}
	return c
}

// SolveFunc is the calling contract of the time-major solver. Any adaptive
// solver with this shape can stand in for integrators.Solve.
type SolveFunc func(sys dynamo.System, y0 dynamo.State, ts []float64, opts integrators.Options) ([]dynamo.State, integrators.Stats, error)

// Integrate solves ds/dt = f(t, s) from x0 [N,d] over t with dopri5
// (rtol 1e-6, atol 1e-7) and returns the trajectory [N,T,d]. Solver errors
// are returned unmodified.
func Integrate(f dynamo.Field, x0 *dynamo.Tensor, t []float64) (*dynamo.Tensor, error) {
	opts := integrators.Options{
		Method: integrators.DefaultMethod,
		RTol:   integrators.DefaultRTol,
		ATol:   integrators.DefaultATol,
	}
	raw, err := solve(integrators.Solve, f, x0, t, opts)
	if err != nil {
		return nil, err
	}
	return raw.Permute(1, 0, 2)
}

// IntegrateL replicates x0 [N,d] cfg.L times, solves f over the resulting
// [L,N,d] state and returns the trajectories [L,N,T,d].
func IntegrateL(f dynamo.Field, x0 *dynamo.Tensor, t []float64, cfg Config) (*dynamo.Tensor, error) {
	cfg = cfg.withDefaults()
	if cfg.L < 0 {
		return nil, dynamo.Bounds("L must be positive, got %d", cfg.L)
	}

	opts := integrators.Options{
		Method: cfg.Method,
		RTol:   cfg.RTol,
		ATol:   cfg.ATol,
	}
	raw, err := solve(cfg.Solver, f, x0.Repeat(cfg.L), t, opts)
	if err != nil {
		return nil, err
	}
	return raw.Permute(1, 2, 0, 3)
}

// solve runs the solver on the flattened state and stacks the output into a
// time-major tensor [T, x0.Shape...].
func solve(solver SolveFunc, f dynamo.Field, x0 *dynamo.Tensor, t []float64, opts integrators.Options) (*dynamo.Tensor, error) {
	states, _, err := solver(dynamo.FieldSystem(f, x0.Shape), dynamo.State(x0.Data).Clone(), t, opts)
	if err != nil {
		return nil, err
	}

	out := dynamo.NewTensor(append([]int{len(states)}, x0.Shape...)...)
	n := x0.Size()
	for k, s := range states {
		copy(out.Data[k*n:(k+1)*n], s)
	}
	return out, nil
}
