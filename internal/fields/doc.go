// Package fields provides built-in vector fields for exercising the
// integrators without a trained network.
//
// Each model exposes a batched [dynamo.Field] that acts on the last axis of
// any tensor [..., d], so the same field serves [N,d] and [L,N,d] states:
//
//   - [Decay]: linear decay ds/dt = -k s
//   - [Oscillator]: harmonic oscillator
//   - [VanDerPol]: limit cycle oscillator
//   - [Lorenz]: butterfly attractor
//   - [Duffing]: unforced double-well oscillator
//   - [Rossler]: spiral attractor
//
// [SampledDecay] gives each slice of an [L,N,d] state its own rate, standing
// in for L posterior samples of a stochastic field.
//
//	m, _ := fields.NewRegistry().Get("vanderpol")
//	xt, err := odeint.Integrate(m.Field(), x0, ts)
package fields
