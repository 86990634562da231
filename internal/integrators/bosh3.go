package integrators

import "github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/dynamo"

// BogackiShampine is the embedded 3(2) pair ("bosh3") with cubic Hermite
// dense output.
type BogackiShampine struct {
	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewBogackiShampine() *BogackiShampine {
	return &BogackiShampine{}
}

func (r *BogackiShampine) Name() string { return "bosh3" }
func (r *BogackiShampine) Order() int   { return 3 }

func (r *BogackiShampine) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

func (r *BogackiShampine) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	xNew, _, _ := r.StepEmbedded(sys, x, sys.Derive(t, x), t, dt)
	return xNew
}

func (r *BogackiShampine) StepEmbedded(sys dynamo.System, x, f0 dynamo.State, t, dt float64) (dynamo.State, dynamo.State, dynamo.State) {
	n := len(x)
	r.ensureScratch(n)
	copy(r.k1, f0)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	copy(r.k2, sys.Derive(t+0.5*dt, r.scratch))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.75*r.k2[i]
	}
	copy(r.k3, sys.Derive(t+0.75*dt, r.scratch))

	xNew := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + dt*(2.0/9.0*r.k1[i]+1.0/3.0*r.k2[i]+4.0/9.0*r.k3[i])
	}
	copy(r.k4, sys.Derive(t+dt, xNew))

	errEst := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		errEst[i] = dt * ((2.0/9.0-7.0/24.0)*r.k1[i] + (1.0/3.0-1.0/4.0)*r.k2[i] + (4.0/9.0-1.0/3.0)*r.k3[i] - 1.0/8.0*r.k4[i])
	}

	return xNew, errEst, r.k4.Clone()
}

func (r *BogackiShampine) Dense(x0, x1 dynamo.State, dt float64) func(theta float64) dynamo.State {
	f0, f1 := r.k1.Clone(), r.k4.Clone()
	return func(theta float64) dynamo.State {
		return hermite(x0, x1, f0, f1, dt, theta)
	}
}

func hermite(x0, x1, f0, f1 dynamo.State, dt, s float64) dynamo.State {
	s2, s3 := s*s, s*s*s
	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2

	out := make(dynamo.State, len(x0))
	for i := range x0 {
		out[i] = h00*x0[i] + h10*dt*f0[i] + h01*x1[i] + h11*dt*f1[i]
	}
	return out
}
