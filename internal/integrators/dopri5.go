package integrators

import "github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/dynamo"

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0

	// weights of the continuous extension at theta = 1/2
	m1 = 6025192743.0 / 30085553152.0 / 2
	m3 = 51252292925.0 / 65400821598.0 / 2
	m4 = -2691868925.0 / 45128329728.0 / 2
	m5 = 187940372067.0 / 1594534317056.0 / 2
	m6 = -1776094331.0 / 19743644256.0 / 2
	m7 = 11237099.0 / 235043384.0 / 2
)

// DormandPrince is the embedded 5(4) Runge-Kutta pair ("dopri5") with a
// quartic dense output. The stage buffers of the last step are kept for
// Dense, so a value must not be shared between concurrent solves.
type DormandPrince struct {
	k1, k2, k3, k4, k5, k6, k7 dynamo.State
	scratch                    dynamo.State
}

func NewDormandPrince() *DormandPrince {
	return &DormandPrince{}
}

func (r *DormandPrince) Name() string { return "dopri5" }
func (r *DormandPrince) Order() int   { return 5 }

func (r *DormandPrince) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.k5 = make(dynamo.State, n)
		r.k6 = make(dynamo.State, n)
		r.k7 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

func (r *DormandPrince) Step(sys dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	xNew, _, _ := r.StepEmbedded(sys, x, sys.Derive(t, x), t, dt)
	return xNew
}

func (r *DormandPrince) StepEmbedded(sys dynamo.System, x, f0 dynamo.State, t, dt float64) (dynamo.State, dynamo.State, dynamo.State) {
	n := len(x)
	r.ensureScratch(n)
	copy(r.k1, f0)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*b21*r.k1[i]
	}
	copy(r.k2, sys.Derive(t+a2*dt, r.scratch))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*(b31*r.k1[i]+b32*r.k2[i])
	}
	copy(r.k3, sys.Derive(t+a3*dt, r.scratch))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*(b41*r.k1[i]+b42*r.k2[i]+b43*r.k3[i])
	}
	copy(r.k4, sys.Derive(t+a4*dt, r.scratch))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*(b51*r.k1[i]+b52*r.k2[i]+b53*r.k3[i]+b54*r.k4[i])
	}
	copy(r.k5, sys.Derive(t+a5*dt, r.scratch))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*(b61*r.k1[i]+b62*r.k2[i]+b63*r.k3[i]+b64*r.k4[i]+b65*r.k5[i])
	}
	copy(r.k6, sys.Derive(t+dt, r.scratch))

	xNew := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + dt*(c1*r.k1[i]+c3*r.k3[i]+c4*r.k4[i]+c5*r.k5[i]+c6*r.k6[i])
	}

	copy(r.k7, sys.Derive(t+dt, xNew))

	errEst := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		errEst[i] = dt * (dc1*r.k1[i] + dc3*r.k3[i] + dc4*r.k4[i] + dc5*r.k5[i] + dc6*r.k6[i] + dc7*r.k7[i])
	}

	return xNew, errEst, r.k7.Clone()
}

// Dense fits a quartic through x0, x1, the mid-step estimate and the end
// point derivatives of the last step.
func (r *DormandPrince) Dense(x0, x1 dynamo.State, dt float64) func(theta float64) dynamo.State {
	n := len(x0)
	a := make(dynamo.State, n)
	b := make(dynamo.State, n)
	c := make(dynamo.State, n)
	d := make(dynamo.State, n)
	e := x0.Clone()

	for i := 0; i < n; i++ {
		f0, f1 := r.k1[i], r.k7[i]
		mid := x0[i] + dt*(m1*r.k1[i]+m3*r.k3[i]+m4*r.k4[i]+m5*r.k5[i]+m6*r.k6[i]+m7*r.k7[i])

		a[i] = -2*dt*f0 + 2*dt*f1 - 8*x0[i] - 8*x1[i] + 16*mid
		b[i] = 5*dt*f0 - 3*dt*f1 + 18*x0[i] + 14*x1[i] - 32*mid
		c[i] = -4*dt*f0 + dt*f1 - 11*x0[i] - 5*x1[i] + 16*mid
		d[i] = dt * f0
	}

	return func(theta float64) dynamo.State {
		out := make(dynamo.State, n)
		for i := 0; i < n; i++ {
			out[i] = e[i] + theta*(d[i]+theta*(c[i]+theta*(b[i]+theta*a[i])))
		}
		return out
	}
}
