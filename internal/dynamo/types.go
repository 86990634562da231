package dynamo

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	return floats.Norm(s, 2)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	if len(other) == len(s) {
		return floats.SubTo(result, s, other)
	}
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Field is the right-hand side of ds/dt = f(t, s). The returned tensor must
// have the same shape as s.
type Field func(t float64, s *Tensor) *Tensor

// System is the right-hand side of dx/dt = f(t, x) over a flat state.
type System interface {
	Derive(t float64, x State) State
}

// SystemFunc adapts a plain function to System.
type SystemFunc func(t float64, x State) State

func (f SystemFunc) Derive(t float64, x State) State { return f(t, x) }

// FieldSystem exposes a Field as a System over the flattened tensor data.
// A derivative whose shape differs from the state is reported as an empty
// State so the solver raises ErrDimensionMismatch.
func FieldSystem(f Field, shape []int) System {
	shape = append([]int(nil), shape...)
	return SystemFunc(func(t float64, x State) State {
		out := f(t, &Tensor{Shape: shape, Data: x})
		if out == nil || !SameShape(out.Shape, shape) {
			return nil
		}
		return out.Data
	})
}

type Integrator interface {
	Name() string
	Order() int
	Step(sys System, x State, t, dt float64) State
}

// AdaptiveIntegrator is an embedded method with a local error estimate.
// f0 is the derivative at (t, x); f1 is the derivative at the new state,
// reused as f0 of the next step. Dense returns an interpolant over the last
// step taken by StepEmbedded, parameterized by theta in [0, 1].
type AdaptiveIntegrator interface {
	Integrator
	StepEmbedded(sys System, x, f0 State, t, dt float64) (xNew, errEst, f1 State)
	Dense(x0, x1 State, dt float64) func(theta float64) State
}
