// Package odeint integrates batched tensor states forward in time.
//
// [Integrate] solves one vector field for an [N,d] batch of initial
// conditions. [IntegrateL] replicates the batch L times and solves a field
// that acts on [L,N,d] states, e.g. L posterior samples of a stochastic
// vector field evaluated in a single solver call. Both return batch-major
// trajectories; the solver itself is time-major.
package odeint
