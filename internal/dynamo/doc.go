// Package dynamo provides core numeric primitives for integrating ODEs over
// batches of states.
//
// The package defines the fundamental types shared by the solver, the
// integration wrappers and the minibatch sampler:
//
//   - [Tensor]: dense row-major array with an explicit shape
//   - [State]: flat vector the steppers operate on
//   - [Field]: right-hand side ds/dt = f(t, s) over a tensor state
//   - [System]: right-hand side over a flat state
//   - [Integrator]: one-step numerical method
//   - [AdaptiveIntegrator]: embedded method with an error estimate
//
// # Example
//
//	x0, _ := dynamo.FromRows([][]float64{{1.0}})
//	xt, err := odeint.Integrate(fields.Decay(1.0), x0, []float64{0, 1, 2})
//
// # Thread Safety
//
// Tensors are plain values with no internal locking. A Field may be called
// concurrently only if its author makes it safe to do so; [ParallelFor]
// hands each worker a disjoint index range.
package dynamo
