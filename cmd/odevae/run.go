package main

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/config"
	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/dynamo"
	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/fields"
	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/metrics"
	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/minibatch"
	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/odeint"
	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/storage"
)

// resolveConfig layers the config file (or environment), the preset and the
// explicitly set flags, in that order.
func resolveConfig(cmd *cobra.Command, field string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		cfg, err = config.FromEnv()
		if err != nil {
			return nil, err
		}
	}

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg.Solver = *p
	}

	flags := cmd.Flags()
	cfg.Field = field
	if flags.Changed("method") {
		cfg.Solver.Method = method
	}
	if flags.Changed("rtol") {
		cfg.Solver.RTol = rtol
	}
	if flags.Changed("atol") {
		cfg.Solver.ATol = atol
	}
	if flags.Changed("first-step") {
		cfg.Solver.FirstStep = firstStep
	}
	if flags.Changed("t0") {
		cfg.Time.Start = t0
	}
	if flags.Changed("t1") {
		cfg.Time.End = t1
	}
	if flags.Changed("points") {
		cfg.Time.Points = points
	}
	if flags.Changed("batch") {
		cfg.Minibatch.Batch = batch
	}
	if flags.Changed("samples") {
		cfg.Samples = samples
	}
	if flags.Changed("nsub") {
		cfg.Minibatch.Nsub = nsub
	}
	if flags.Changed("tsub") {
		cfg.Minibatch.Tsub = tsub
	}
	if flags.Changed("seed") {
		cfg.Minibatch.Seed = seed
	}
	if cfg.Minibatch.Seed == 0 {
		cfg.Minibatch.Seed = time.Now().UnixNano()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildModel(registry *fields.Registry, name string, x0 dynamo.State) (fields.Model, error) {
	m, err := registry.Get(name)
	if err != nil {
		return nil, err
	}
	if d, ok := m.(*fields.Decay); ok && x0 != nil {
		d.D = len(x0)
	}
	for k, v := range fieldParams {
		val, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", k, err)
		}
		if err := m.SetParam(k, val); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func parseState(s string) (dynamo.State, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	x := make(dynamo.State, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("x0[%d]: %w", i, err)
		}
		x[i] = v
	}
	return x, nil
}

// initialBatch stacks n copies of x with independent gaussian offsets.
func initialBatch(rng *rand.Rand, x dynamo.State, n int, std float64) *dynamo.Tensor {
	out := dynamo.NewTensor(n, len(x))
	for i := 0; i < n; i++ {
		row := out.Data[i*len(x) : (i+1)*len(x)]
		for j, v := range x {
			row[j] = v + std*rng.NormFloat64()
		}
	}
	return out
}

// sampledField returns the field driving the [L,N,d] state. With a positive
// spread each sample gets its own copy of the model with every parameter
// scaled by 1+spread*eps.
func sampledField(registry *fields.Registry, name string, x0 dynamo.State, L int, rng *rand.Rand) (dynamo.Field, error) {
	base, err := buildModel(registry, name, x0)
	if err != nil {
		return nil, err
	}
	if spread <= 0 || L == 1 {
		return base.Field(), nil
	}

	fs := make([]dynamo.Field, L)
	for l := range fs {
		m, err := buildModel(registry, name, x0)
		if err != nil {
			return nil, err
		}
		for k, v := range base.GetParams() {
			if err := m.SetParam(k, v*(1+spread*rng.NormFloat64())); err != nil {
				return nil, err
			}
		}
		fs[l] = m.Field()
	}
	return odeint.PerSample(fs...), nil
}

func startState(registry *fields.Registry, name string) (dynamo.State, error) {
	x, err := parseState(x0Flag)
	if err != nil {
		return nil, err
	}
	if x != nil {
		return x, nil
	}
	m, err := registry.Get(name)
	if err != nil {
		return nil, err
	}
	return m.DefaultState(), nil
}

func runIntegrate(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	registry := fields.NewRegistry()
	x, err := startState(registry, cfg.Field)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(cfg.Minibatch.Seed))
	x0 := initialBatch(rng, x, cfg.Minibatch.Batch, jitter)
	f, err := sampledField(registry, cfg.Field, x, cfg.Samples, rng)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ts := cfg.Time.Grid()
	fmt.Println(titleStyle.Render(fmt.Sprintf("integrating %s", cfg.Field)))
	fmt.Printf("L=%d N=%d T=%d d=%d method=%s\n", cfg.Samples, cfg.Minibatch.Batch, len(ts), len(x), cfg.Solver.Method)

	start := time.Now()
	traj, err := odeint.IntegrateL(f, x0, ts, cfg.Solver.IntegrateConfig(cfg.Samples))
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	model, err := buildModel(registry, cfg.Field, x)
	if err != nil {
		return err
	}
	summary, err := metrics.Summarize(traj, ts, defaultMetrics(model)...)
	if err != nil {
		return err
	}
	runID, err := st.Save(storage.RunMetadata{
		Field:       cfg.Field,
		Method:      cfg.Solver.Method,
		RTol:        cfg.Solver.RTol,
		ATol:        cfg.Solver.ATol,
		Params:      model.GetParams(),
		Metrics:     summary,
		ElapsedSecs: elapsed.Seconds(),
	}, ts, traj)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", okStyle.Render(runID))
	fmt.Printf("shape: %v\n", traj.Shape)
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(summary))
	for name := range summary {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, summary[name])
	}
	return nil
}

func defaultMetrics(m fields.Model) []metrics.Metric {
	ms := []metrics.Metric{metrics.NewStability(1e6), metrics.NewFinalNorm()}
	if h, ok := m.(metrics.Hamiltonian); ok {
		ms = append(ms, metrics.NewEnergyDrift(h))
	}
	return ms
}

func runMinibatch(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	registry := fields.NewRegistry()
	x, err := startState(registry, cfg.Field)
	if err != nil {
		return err
	}
	model, err := buildModel(registry, cfg.Field, x)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(cfg.Minibatch.Seed))
	x0 := initialBatch(rng, x, cfg.Minibatch.Batch, jitter)
	ts := cfg.Time.Grid()

	traj, err := odeint.IntegrateL(model.Field(), x0, ts, cfg.Solver.IntegrateConfig(1))
	if err != nil {
		return err
	}
	Y := traj.Sub(0)

	tb, Yb, err := minibatch.Sample(rng, ts, Y, minibatch.Options{
		Nsub: cfg.Minibatch.Nsub,
		Tsub: cfg.Minibatch.Tsub,
	})
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("minibatch of %s", cfg.Field)))
	fmt.Printf("dataset: %v\n", Y.Shape)
	fmt.Printf("batch:   %v\n", Yb.Shape)
	fmt.Printf("window:  t=[%.4g, %.4g] (%d points)\n", tb[0], tb[len(tb)-1], len(tb))
	fmt.Printf("seed:    %s\n", dimStyle.Render(strconv.FormatInt(cfg.Minibatch.Seed, 10)))
	return nil
}
