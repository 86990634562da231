package fields

import (
	"fmt"

	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/dynamo"
)

// Model is a parameterized vector field of fixed state dimension.
type Model interface {
	Dim() int
	Field() dynamo.Field
	DefaultState() dynamo.State
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// rowwise applies derive to every length-d row of the state. States whose
// last axis is not d yield nil.
func rowwise(d int, derive func(x, dx []float64)) dynamo.Field {
	return func(_ float64, s *dynamo.Tensor) *dynamo.Tensor {
		if s.NDim() == 0 || s.Dim(s.NDim()-1) != d {
			return nil
		}
		out := dynamo.NewTensor(s.Shape...)
		for off := 0; off < len(s.Data); off += d {
			derive(s.Data[off:off+d], out.Data[off:off+d])
		}
		return out
	}
}

func unknownParam(model, name string) error {
	return fmt.Errorf("%w: %s has no parameter %q", dynamo.ErrParameterBounds, model, name)
}

// Decay is ds/dt = -Rate*s in any dimension.
type Decay struct {
	Rate float64
	D    int
}

func NewDecay(rate float64, dim int) *Decay { return &Decay{Rate: rate, D: dim} }

func (m *Decay) Dim() int { return m.D }

func (m *Decay) Field() dynamo.Field {
	rate := m.Rate
	return rowwise(m.D, func(x, dx []float64) {
		for i := range x {
			dx[i] = -rate * x[i]
		}
	})
}

func (m *Decay) DefaultState() dynamo.State {
	s := make(dynamo.State, m.D)
	for i := range s {
		s[i] = 1
	}
	return s
}

func (m *Decay) GetParams() map[string]float64 { return map[string]float64{"rate": m.Rate} }

func (m *Decay) SetParam(name string, value float64) error {
	if name != "rate" {
		return unknownParam("decay", name)
	}
	m.Rate = value
	return nil
}

// Oscillator is the harmonic oscillator x'' = -Omega^2 x with state [x, v].
type Oscillator struct {
	Omega float64
}

func NewOscillator() *Oscillator { return &Oscillator{Omega: 1.0} }

func (m *Oscillator) Dim() int { return 2 }

func (m *Oscillator) Field() dynamo.Field {
	w2 := m.Omega * m.Omega
	return rowwise(2, func(x, dx []float64) {
		dx[0] = x[1]
		dx[1] = -w2 * x[0]
	})
}

func (m *Oscillator) DefaultState() dynamo.State { return dynamo.State{1.0, 0.0} }

func (m *Oscillator) Energy(s dynamo.State) float64 {
	x, v := s[0], s[1]
	return 0.5*v*v + 0.5*m.Omega*m.Omega*x*x
}

func (m *Oscillator) GetParams() map[string]float64 { return map[string]float64{"omega": m.Omega} }

func (m *Oscillator) SetParam(name string, value float64) error {
	if name != "omega" {
		return unknownParam("oscillator", name)
	}
	m.Omega = value
	return nil
}

// VanDerPol implements the Van der Pol oscillator.
// State: [x, y] where y = dx/dt
// Equations:
//
//	dx/dt = y
//	dy/dt = μ(1 - x²)y - x
type VanDerPol struct {
	Mu float64
}

func NewVanDerPol() *VanDerPol { return &VanDerPol{Mu: 1.0} }

func (m *VanDerPol) Dim() int { return 2 }

func (m *VanDerPol) Field() dynamo.Field {
	mu := m.Mu
	return rowwise(2, func(x, dx []float64) {
		dx[0] = x[1]
		dx[1] = mu*(1-x[0]*x[0])*x[1] - x[0]
	})
}

func (m *VanDerPol) DefaultState() dynamo.State { return dynamo.State{2.0, 0.0} }

func (m *VanDerPol) GetParams() map[string]float64 { return map[string]float64{"mu": m.Mu} }

func (m *VanDerPol) SetParam(name string, value float64) error {
	if name != "mu" {
		return unknownParam("vanderpol", name)
	}
	m.Mu = value
	return nil
}

type Lorenz struct{ Sigma, Rho, Beta float64 }

func NewLorenz() *Lorenz { return &Lorenz{10.0, 28.0, 8.0 / 3.0} }

func (m *Lorenz) Dim() int { return 3 }

func (m *Lorenz) Field() dynamo.Field {
	sigma, rho, beta := m.Sigma, m.Rho, m.Beta
	return rowwise(3, func(s, dx []float64) {
		dx[0] = sigma * (s[1] - s[0])
		dx[1] = s[0]*(rho-s[2]) - s[1]
		dx[2] = s[0]*s[1] - beta*s[2]
	})
}

func (m *Lorenz) DefaultState() dynamo.State { return dynamo.State{1.0, 1.0, 1.0} }

func (m *Lorenz) GetParams() map[string]float64 {
	return map[string]float64{"sigma": m.Sigma, "rho": m.Rho, "beta": m.Beta}
}

func (m *Lorenz) SetParam(n string, v float64) error {
	switch n {
	case "sigma":
		m.Sigma = v
	case "rho":
		m.Rho = v
	case "beta":
		m.Beta = v
	default:
		return unknownParam("lorenz", n)
	}
	return nil
}

// Duffing is the unforced damped double-well oscillator
// x'' = -Delta x' - Alpha x - Beta x³.
type Duffing struct {
	Alpha, Beta, Delta float64
}

func NewDuffing() *Duffing { return &Duffing{-1.0, 1.0, 0.3} }

func (m *Duffing) Dim() int { return 2 }

func (m *Duffing) Field() dynamo.Field {
	alpha, beta, delta := m.Alpha, m.Beta, m.Delta
	return rowwise(2, func(s, dx []float64) {
		x, v := s[0], s[1]
		dx[0] = v
		dx[1] = -delta*v - alpha*x - beta*x*x*x
	})
}

func (m *Duffing) DefaultState() dynamo.State { return dynamo.State{1.0, 0.0} }

func (m *Duffing) Energy(s dynamo.State) float64 {
	x, v := s[0], s[1]
	return 0.5*v*v + 0.5*m.Alpha*x*x + 0.25*m.Beta*x*x*x*x
}

func (m *Duffing) GetParams() map[string]float64 {
	return map[string]float64{"alpha": m.Alpha, "beta": m.Beta, "delta": m.Delta}
}

func (m *Duffing) SetParam(n string, v float64) error {
	switch n {
	case "alpha":
		m.Alpha = v
	case "beta":
		m.Beta = v
	case "delta":
		m.Delta = v
	default:
		return unknownParam("duffing", n)
	}
	return nil
}

type Rossler struct{ A, B, C float64 }

func NewRossler() *Rossler { return &Rossler{0.2, 0.2, 5.7} }

func (m *Rossler) Dim() int { return 3 }

func (m *Rossler) Field() dynamo.Field {
	a, b, c := m.A, m.B, m.C
	return rowwise(3, func(s, dx []float64) {
		dx[0] = -s[1] - s[2]
		dx[1] = s[0] + a*s[1]
		dx[2] = b + s[2]*(s[0]-c)
	})
}

func (m *Rossler) DefaultState() dynamo.State { return dynamo.State{1.0, 1.0, 1.0} }

func (m *Rossler) GetParams() map[string]float64 {
	return map[string]float64{"a": m.A, "b": m.B, "c": m.C}
}

func (m *Rossler) SetParam(n string, v float64) error {
	switch n {
	case "a":
		m.A = v
	case "b":
		m.B = v
	case "c":
		m.C = v
	default:
		return unknownParam("rossler", n)
	}
	return nil
}

// SampledDecay returns a field over [L, ...] states in which slice l decays
// at rates[l]. A leading axis of any other length yields nil.
func SampledDecay(rates []float64) dynamo.Field {
	rates = append([]float64(nil), rates...)
	return func(_ float64, s *dynamo.Tensor) *dynamo.Tensor {
		if s.NDim() == 0 || s.Dim(0) != len(rates) {
			return nil
		}
		out := dynamo.NewTensor(s.Shape...)
		for l, k := range rates {
			in, dx := s.Sub(l), out.Sub(l)
			for i, v := range in.Data {
				dx.Data[i] = -k * v
			}
		}
		return out
	}
}
