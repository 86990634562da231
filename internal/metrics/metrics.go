// Package metrics summarizes solved trajectories.
package metrics

import (
	"math"

	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/dynamo"
)

// Metric observes the states of one trajectory in time order.
type Metric interface {
	Name() string
	Observe(x dynamo.State, t float64)
	Value() float64
	Reset()
}

// Summarize feeds every sequence of traj [L,N,T,d] through each metric and
// keeps the worst value per metric: the minimum for stability, the maximum
// for the rest.
func Summarize(traj *dynamo.Tensor, ts []float64, ms ...Metric) (map[string]float64, error) {
	if traj.NDim() != 4 {
		return nil, dynamo.Mismatch("trajectory must be [L,N,T,d], got %v", traj.Shape)
	}
	L, N, T, d := traj.Dim(0), traj.Dim(1), traj.Dim(2), traj.Dim(3)
	if len(ts) != T {
		return nil, dynamo.Mismatch("trajectory has %d time points, grid has %d", T, len(ts))
	}

	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		name := m.Name()
		first := true
		for l := 0; l < L; l++ {
			for n := 0; n < N; n++ {
				m.Reset()
				seq := traj.Sub(l).Sub(n)
				for k := 0; k < T; k++ {
					m.Observe(dynamo.State(seq.Data[k*d:(k+1)*d]), ts[k])
				}
				v := m.Value()
				if first || worse(name, v, out[name]) {
					out[name] = v
				}
				first = false
			}
		}
		m.Reset()
	}
	return out, nil
}

func worse(name string, v, prev float64) bool {
	if math.IsNaN(v) {
		return true
	}
	if name == "stability" {
		return v < prev
	}
	return v > prev
}

// Stability is the fraction of observed states whose components all stay
// within threshold in magnitude. Non-finite states count as violations.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x dynamo.State, t float64) {
	s.samples++
	for _, val := range x {
		if math.IsNaN(val) || math.Abs(val) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// FinalNorm is the Euclidean norm of the last observed state.
type FinalNorm struct {
	last float64
}

func NewFinalNorm() *FinalNorm { return &FinalNorm{} }

func (f *FinalNorm) Name() string                      { return "final_norm" }
func (f *FinalNorm) Observe(x dynamo.State, t float64) { f.last = x.Norm() }
func (f *FinalNorm) Value() float64                    { return f.last }
func (f *FinalNorm) Reset()                            { f.last = 0 }
