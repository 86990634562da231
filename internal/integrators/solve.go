package integrators

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/dynamo"
)

const (
	DefaultMethod   = "dopri5"
	DefaultRTol     = 1e-6
	DefaultATol     = 1e-7
	DefaultMaxSteps = 100000

	safety   = 0.9
	minScale = 0.2
	maxScale = 10.0
)

// Options configures Solve. Zero values select the defaults; RTol and ATol
// of exactly zero are therefore unavailable, pass a tiny positive value to
// disable one of the two terms.
type Options struct {
	Method   string
	RTol     float64
	ATol     float64
	MaxSteps int
	// StepSize bounds the substep of fixed-step methods; zero steps once per
	// output interval.
	StepSize float64
	// FirstStep overrides the automatic initial step of adaptive methods.
	FirstStep float64
}

func DefaultOptions() Options {
	return Options{
		Method:   DefaultMethod,
		RTol:     DefaultRTol,
		ATol:     DefaultATol,
		MaxSteps: DefaultMaxSteps,
	}
}

func (o Options) withDefaults() Options {
	if o.Method == "" {
		o.Method = DefaultMethod
	}
	if o.RTol == 0 {
		o.RTol = DefaultRTol
	}
	if o.ATol == 0 {
		o.ATol = DefaultATol
	}
	if o.MaxSteps == 0 {
		o.MaxSteps = DefaultMaxSteps
	}
	return o
}

func (o Options) validate() error {
	if o.RTol < 0 {
		return dynamo.Bounds("rtol must be non-negative, got %g", o.RTol)
	}
	if o.ATol < 0 {
		return dynamo.Bounds("atol must be non-negative, got %g", o.ATol)
	}
	if o.MaxSteps < 0 {
		return dynamo.Bounds("max steps must be non-negative, got %d", o.MaxSteps)
	}
	if o.StepSize < 0 {
		return dynamo.Bounds("step size must be non-negative, got %g", o.StepSize)
	}
	if o.FirstStep < 0 {
		return dynamo.Bounds("first step must be non-negative, got %g", o.FirstStep)
	}
	return nil
}

// Stats reports the work done by a solve.
type Stats struct {
	Steps       int
	Rejected    int
	Evaluations int
}

// Solve integrates sys from y0 at ts[0] and returns the state at every time
// in ts, time-major.
func Solve(sys dynamo.System, y0 dynamo.State, ts []float64, opts Options) ([]dynamo.State, Stats, error) {
	return SolveContext(context.Background(), sys, y0, ts, opts)
}

// SolveContext is Solve with cancellation checked between steps.
func SolveContext(ctx context.Context, sys dynamo.System, y0 dynamo.State, ts []float64, opts Options) ([]dynamo.State, Stats, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, Stats{}, err
	}
	if err := validateGrid(ts); err != nil {
		return nil, Stats{}, err
	}

	integ, err := Lookup(opts.Method)
	if err != nil {
		return nil, Stats{}, err
	}

	cs := &checkedSystem{sys: sys, n: len(y0), mismatch: -1}
	s := &solver{ctx: ctx, sys: cs, opts: opts}

	if adaptive, ok := integ.(dynamo.AdaptiveIntegrator); ok {
		return s.adaptive(adaptive, y0, ts)
	}
	return s.fixed(integ, y0, ts)
}

func validateGrid(ts []float64) error {
	if len(ts) == 0 {
		return dynamo.ErrTimeGrid
	}
	for i := 1; i < len(ts); i++ {
		if !(ts[i] > ts[i-1]) {
			return &dynamo.SimulationError{Step: i, Time: ts[i], Wrapped: dynamo.ErrTimeGrid}
		}
	}
	return nil
}

// checkedSystem counts evaluations and replaces a derivative of the wrong
// length with zeros so steppers never index out of range; the mismatch is
// reported once the step returns. mismatch is -1 until one is seen.
type checkedSystem struct {
	sys      dynamo.System
	n        int
	evals    int
	mismatch int
}

func (c *checkedSystem) Derive(t float64, x dynamo.State) dynamo.State {
	c.evals++
	dx := c.sys.Derive(t, x)
	if len(dx) != c.n {
		c.mismatch = len(dx)
		return make(dynamo.State, c.n)
	}
	return dx
}

func (c *checkedSystem) err(step int, t float64) error {
	if c.mismatch < 0 {
		return nil
	}
	return &dynamo.SimulationError{
		Step:    step,
		Time:    t,
		Wrapped: dynamo.Mismatch("derivative has %d values, state has %d", c.mismatch, c.n),
	}
}

type solver struct {
	ctx   context.Context
	sys   *checkedSystem
	opts  Options
	stats Stats
}

func (s *solver) checkpoint(step int, t float64) error {
	if err := s.sys.err(step, t); err != nil {
		return err
	}
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}
	if step >= s.opts.MaxSteps {
		return &dynamo.SimulationError{Step: step, Time: t, Wrapped: dynamo.ErrMaxSteps}
	}
	return nil
}

func (s *solver) finish(out []dynamo.State, err error) ([]dynamo.State, Stats, error) {
	s.stats.Evaluations = s.sys.evals
	if err != nil {
		return nil, s.stats, err
	}
	return out, s.stats, nil
}

func (s *solver) fixed(integ dynamo.Integrator, y0 dynamo.State, ts []float64) ([]dynamo.State, Stats, error) {
	out := make([]dynamo.State, 0, len(ts))
	out = append(out, y0.Clone())

	x := y0.Clone()
	for k := 1; k < len(ts); k++ {
		span := ts[k] - ts[k-1]
		substeps := 1
		if s.opts.StepSize > 0 {
			substeps = int(math.Ceil(span/s.opts.StepSize - 1e-12))
			if substeps < 1 {
				substeps = 1
			}
		}
		dt := span / float64(substeps)

		for j := 0; j < substeps; j++ {
			t := ts[k-1] + float64(j)*dt
			if err := s.checkpoint(s.stats.Steps, t); err != nil {
				return s.finish(nil, err)
			}
			x = integ.Step(s.sys, x, t, dt)
			s.stats.Steps++
			if err := s.sys.err(s.stats.Steps, t); err != nil {
				return s.finish(nil, err)
			}
			if !x.IsValid() {
				return s.finish(nil, &dynamo.SimulationError{Step: s.stats.Steps, Time: t + dt, Wrapped: dynamo.ErrInvalidState})
			}
		}
		out = append(out, x.Clone())
	}
	return s.finish(out, nil)
}

func (s *solver) adaptive(integ dynamo.AdaptiveIntegrator, y0 dynamo.State, ts []float64) ([]dynamo.State, Stats, error) {
	out := make([]dynamo.State, 0, len(ts))
	out = append(out, y0.Clone())
	if len(ts) == 1 {
		return s.finish(out, nil)
	}

	t := ts[0]
	x := y0.Clone()
	f0 := s.sys.Derive(t, x)
	if err := s.sys.err(0, t); err != nil {
		return s.finish(nil, err)
	}

	dt := s.opts.FirstStep
	if dt == 0 {
		dt = s.initialStep(t, x, f0, integ.Order()-1)
	}
	exponent := 1.0 / float64(integ.Order())

	next := 1
	attempts := 0
	for next < len(ts) {
		if err := s.checkpoint(attempts, t); err != nil {
			return s.finish(nil, err)
		}
		if t+dt == t {
			return s.finish(nil, &dynamo.SimulationError{Step: attempts, Time: t, Wrapped: dynamo.ErrStepTooSmall})
		}

		xNew, errEst, f1 := integ.StepEmbedded(s.sys, x, f0, t, dt)
		attempts++
		if err := s.sys.err(attempts, t); err != nil {
			return s.finish(nil, err)
		}

		ratio := errorRatio(errEst, x, xNew, s.opts.RTol, s.opts.ATol)
		if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
			return s.finish(nil, &dynamo.SimulationError{Step: attempts, Time: t, Wrapped: dynamo.ErrUnstable})
		}

		if ratio <= 1 {
			dense := integ.Dense(x, xNew, dt)
			for next < len(ts) && ts[next] <= t+dt {
				out = append(out, dense((ts[next]-t)/dt))
				next++
			}
			t += dt
			x = xNew
			f0 = f1
			s.stats.Steps++
		} else {
			s.stats.Rejected++
		}

		dt = nextStep(dt, ratio, exponent)
	}
	return s.finish(out, nil)
}

// initialStep follows Hairer, Norsett & Wanner, Solving ODEs I, II.4.
func (s *solver) initialStep(t float64, x, f0 dynamo.State, order int) float64 {
	n := len(x)
	scale := make(dynamo.State, n)
	for i := range x {
		scale[i] = s.opts.ATol + math.Abs(x[i])*s.opts.RTol
	}

	d0 := rmsScaled(x, scale)
	d1 := rmsScaled(f0, scale)

	h0 := 1e-6
	if d0 >= 1e-5 && d1 >= 1e-5 {
		h0 = 0.01 * d0 / d1
	}

	x1 := floats.AddScaledTo(make(dynamo.State, n), x, h0, f0)
	f1 := s.sys.Derive(t+h0, x1)

	diff := floats.SubTo(make(dynamo.State, n), f1, f0)
	d2 := rmsScaled(diff, scale) / h0

	var h1 float64
	if math.Max(d1, d2) <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/math.Max(d1, d2), 1.0/float64(order+1))
	}
	return math.Min(100*h0, h1)
}

func errorRatio(errEst, x0, x1 dynamo.State, rtol, atol float64) float64 {
	if len(errEst) == 0 {
		return 0
	}
	scaled := make([]float64, len(errEst))
	for i := range errEst {
		scaled[i] = errEst[i] / (atol + rtol*math.Max(math.Abs(x0[i]), math.Abs(x1[i])))
	}
	return floats.Norm(scaled, 2) / math.Sqrt(float64(len(errEst)))
}

func rmsScaled(v, scale dynamo.State) float64 {
	if len(v) == 0 {
		return 0
	}
	scaled := floats.DivTo(make([]float64, len(v)), v, scale)
	return floats.Norm(scaled, 2) / math.Sqrt(float64(len(v)))
}

func nextStep(dt, ratio, exponent float64) float64 {
	if ratio == 0 {
		return dt * maxScale
	}
	lower := minScale
	if ratio < 1 {
		lower = 1
	}
	scale := math.Min(maxScale, math.Max(lower, safety*math.Pow(ratio, -exponent)))
	return dt * scale
}
