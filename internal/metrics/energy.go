package metrics

import (
	"math"

	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/dynamo"
)

// Hamiltonian is a field with a scalar energy along its trajectories.
type Hamiltonian interface {
	Energy(x dynamo.State) float64
}

// EnergyDrift is the largest relative change of the energy from its value at
// the first observed state. With a near-zero initial energy the change is
// absolute.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
	h             Hamiltonian
}

func NewEnergyDrift(h Hamiltonian) *EnergyDrift {
	return &EnergyDrift{
		name: "energy_drift",
		h:    h,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(x dynamo.State, t float64) {
	energy := e.h.Energy(x)
	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	drift := math.Abs(energy - e.initialEnergy)
	if math.Abs(e.initialEnergy) > 1e-10 {
		drift /= math.Abs(e.initialEnergy)
	}
	if drift > e.maxDrift || math.IsNaN(drift) {
		e.maxDrift = drift
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
