package odeint

import (
	"errors"
	"math"
	"testing"

	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/dynamo"
	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/fields"
	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/integrators"
)

func grid(n int, dt float64) []float64 {
	ts := make([]float64, n)
	for i := range ts {
		ts[i] = float64(i) * dt
	}
	return ts
}

func TestIntegrateLinearDecay(t *testing.T) {
	x0, _ := dynamo.FromRows([][]float64{{1.0}})
	xt, err := Integrate(fields.NewDecay(1.0, 1).Field(), x0, []float64{0, 1, 2})
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}

	if !dynamo.SameShape(xt.Shape, []int{1, 3, 1}) {
		t.Fatalf("shape = %v, want [1 3 1]", xt.Shape)
	}
	want := []float64{1.0, math.Exp(-1), math.Exp(-2)}
	for k, v := range want {
		if math.Abs(xt.At(0, k, 0)-v) > 1e-5 {
			t.Errorf("x(t=%d) = %.6f, want %.6f", k, xt.At(0, k, 0), v)
		}
	}
}

func TestIntegrateStartsAtInitialState(t *testing.T) {
	x0, _ := dynamo.FromRows([][]float64{{1, 0}, {0.3, -2}, {-1.5, 0.7}, {0, 0}})
	ts := grid(20, 0.25)

	xt, err := Integrate(fields.NewVanDerPol().Field(), x0, ts)
	if err != nil {
		t.Fatal(err)
	}
	if !dynamo.SameShape(xt.Shape, []int{4, 20, 2}) {
		t.Fatalf("shape = %v, want [4 20 2]", xt.Shape)
	}
	for n := 0; n < 4; n++ {
		for d := 0; d < 2; d++ {
			if xt.At(n, 0, d) != x0.At(n, d) {
				t.Errorf("xt[%d,0,%d] = %v, want %v", n, d, xt.At(n, 0, d), x0.At(n, d))
			}
		}
	}
}

func TestIntegrateOscillatorClosedForm(t *testing.T) {
	x0, _ := dynamo.FromRows([][]float64{{1, 0}, {0, 1}})
	ts := grid(30, 0.2)

	xt, err := Integrate(fields.NewOscillator().Field(), x0, ts)
	if err != nil {
		t.Fatal(err)
	}
	for k, tk := range ts {
		c, s := math.Cos(tk), math.Sin(tk)
		if math.Abs(xt.At(0, k, 0)-c) > 1e-5 || math.Abs(xt.At(1, k, 0)-s) > 1e-5 {
			t.Fatalf("t=%.1f: got (%.6f, %.6f), want (%.6f, %.6f)", tk, xt.At(0, k, 0), xt.At(1, k, 0), c, s)
		}
	}
}

func TestIntegrateLMatchesIntegrate(t *testing.T) {
	x0, _ := dynamo.FromRows([][]float64{{1, 0}, {0.5, 0.5}, {-1, 2}})
	ts := grid(15, 0.3)
	f := fields.NewOscillator().Field()

	single, err := Integrate(f, x0, ts)
	if err != nil {
		t.Fatal(err)
	}

	for _, L := range []int{1, 2, 5} {
		multi, err := IntegrateL(f, x0, ts, Config{L: L})
		if err != nil {
			t.Fatalf("L=%d: %v", L, err)
		}
		if !dynamo.SameShape(multi.Shape, []int{L, 3, 15, 2}) {
			t.Fatalf("L=%d: shape = %v", L, multi.Shape)
		}
		for l := 0; l < L; l++ {
			if d := dynamo.MaxAbsDiff(multi.Sub(l), single); d > 1e-7 {
				t.Errorf("L=%d: field %d differs from single-field solve by %e", L, l, d)
			}
		}
	}
}

func TestIntegrateLSampledFields(t *testing.T) {
	rates := []float64{0.5, 1, 2}
	x0, _ := dynamo.FromRows([][]float64{{1}, {2}})
	ts := []float64{0, 0.5, 1, 2}

	xt, err := IntegrateL(fields.SampledDecay(rates), x0, ts, Config{L: len(rates)})
	if err != nil {
		t.Fatal(err)
	}
	for l, k := range rates {
		for n := 0; n < 2; n++ {
			for i, tk := range ts {
				want := x0.At(n, 0) * math.Exp(-k*tk)
				if math.Abs(xt.At(l, n, i, 0)-want) > 1e-5 {
					t.Errorf("xt[%d,%d,%d] = %.6f, want %.6f", l, n, i, xt.At(l, n, i, 0), want)
				}
			}
		}
	}
}

func TestIntegrateLDefaults(t *testing.T) {
	x0, _ := dynamo.FromRows([][]float64{{1, 2}})
	var got integrators.Options
	var gotY0 dynamo.State

	cfg := Config{
		Solver: func(sys dynamo.System, y0 dynamo.State, ts []float64, opts integrators.Options) ([]dynamo.State, integrators.Stats, error) {
			got, gotY0 = opts, y0
			return integrators.Solve(sys, y0, ts, opts)
		},
	}
	xt, err := IntegrateL(fields.NewDecay(1, 2).Field(), x0, []float64{0, 1}, cfg)
	if err != nil {
		t.Fatal(err)
	}

	if got.Method != "dopri5" || got.RTol != 1e-6 || got.ATol != 1e-7 {
		t.Errorf("solver options = %+v, want dopri5 1e-6 1e-7", got)
	}
	if len(gotY0) != 2 {
		t.Errorf("solver got %d initial values, want 2", len(gotY0))
	}
	if !dynamo.SameShape(xt.Shape, []int{1, 1, 2, 2}) {
		t.Errorf("shape = %v, want [1 1 2 2]", xt.Shape)
	}
}

func TestIntegrateLReplicatesInitialState(t *testing.T) {
	x0, _ := dynamo.FromRows([][]float64{{1, 2}, {3, 4}})
	var gotY0 dynamo.State

	cfg := Config{
		L:      3,
		Method: "rk4",
		Solver: func(sys dynamo.System, y0 dynamo.State, ts []float64, opts integrators.Options) ([]dynamo.State, integrators.Stats, error) {
			gotY0 = y0.Clone()
			return integrators.Solve(sys, y0, ts, opts)
		},
	}
	if _, err := IntegrateL(fields.NewOscillator().Field(), x0, []float64{0, 0.1}, cfg); err != nil {
		t.Fatal(err)
	}

	want := dynamo.State{1, 2, 3, 4, 1, 2, 3, 4, 1, 2, 3, 4}
	if gotY0.Sub(want).Norm() != 0 || len(gotY0) != len(want) {
		t.Errorf("replicated y0 = %v, want %v", gotY0, want)
	}
}

func TestIntegrateErrors(t *testing.T) {
	x0, _ := dynamo.FromRows([][]float64{{1, 0}})
	lorenz := fields.NewLorenz().Field()
	osc := fields.NewOscillator().Field()

	if _, err := Integrate(lorenz, x0, []float64{0, 1}); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("wrong field dim: got %v, want ErrDimensionMismatch", err)
	}
	if _, err := Integrate(osc, x0, []float64{1, 0}); !errors.Is(err, dynamo.ErrTimeGrid) {
		t.Errorf("decreasing grid: got %v, want ErrTimeGrid", err)
	}
	if _, err := IntegrateL(osc, x0, []float64{0, 1}, Config{L: -1}); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("negative L: got %v, want ErrParameterBounds", err)
	}
	if _, err := IntegrateL(osc, x0, []float64{0, 1}, Config{Method: "verlet"}); !errors.Is(err, integrators.ErrUnknownMethod) {
		t.Errorf("unknown method: got %v, want ErrUnknownMethod", err)
	}
	if _, err := IntegrateL(lorenz, x0, []float64{0, 1}, Config{L: 2}); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("wrong field dim with L=2: got %v, want ErrDimensionMismatch", err)
	}

	sentinel := errors.New("solver failed")
	cfg := Config{
		Solver: func(dynamo.System, dynamo.State, []float64, integrators.Options) ([]dynamo.State, integrators.Stats, error) {
			return nil, integrators.Stats{}, sentinel
		},
	}
	if _, err := IntegrateL(osc, x0, []float64{0, 1}, cfg); err != sentinel {
		t.Errorf("solver error was wrapped: %v", err)
	}
}
