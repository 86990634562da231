package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/dynamo"
	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/integrators"
	"github.com/cagatayyildiz/latent-bayesian-neural-ode-tutorial/internal/odeint"
)

const (
	DefaultField   = "decay"
	DefaultSamples = 1
	DefaultStart   = 0.0
	DefaultEnd     = 10.0
	DefaultPoints  = 101
	DefaultBatch   = 16

	// EnvPrefix namespaces environment overrides, e.g. ODEVAE_SOLVER_RTOL.
	EnvPrefix = "ODEVAE"
)

type Config struct {
	Field     string          `yaml:"field" mapstructure:"field"`
	Samples   int             `yaml:"samples" mapstructure:"samples"`
	Solver    SolverConfig    `yaml:"solver" mapstructure:"solver"`
	Time      TimeConfig      `yaml:"time" mapstructure:"time"`
	Minibatch MinibatchConfig `yaml:"minibatch" mapstructure:"minibatch"`
}

type SolverConfig struct {
	Method   string  `yaml:"method" mapstructure:"method"`
	RTol     float64 `yaml:"rtol" mapstructure:"rtol"`
	ATol     float64 `yaml:"atol" mapstructure:"atol"`
	MaxSteps int     `yaml:"max_steps" mapstructure:"max_steps"`
	StepSize float64 `yaml:"step_size" mapstructure:"step_size"`

	// FirstStep fixes the initial step of adaptive methods; zero picks it
	// automatically.
	FirstStep float64 `yaml:"first_step" mapstructure:"first_step"`
}

type TimeConfig struct {
	Start  float64 `yaml:"start" mapstructure:"start"`
	End    float64 `yaml:"end" mapstructure:"end"`
	Points int     `yaml:"points" mapstructure:"points"`
}

type MinibatchConfig struct {
	Batch int   `yaml:"batch" mapstructure:"batch"`
	Nsub  int   `yaml:"nsub" mapstructure:"nsub"`
	Tsub  int   `yaml:"tsub" mapstructure:"tsub"`
	Seed  int64 `yaml:"seed" mapstructure:"seed"`
}

func DefaultConfig() *Config {
	return &Config{
		Field:   DefaultField,
		Samples: DefaultSamples,
		Solver:  *GetPreset("default"),
		Time: TimeConfig{
			Start:  DefaultStart,
			End:    DefaultEnd,
			Points: DefaultPoints,
		},
		Minibatch: MinibatchConfig{
			Batch: DefaultBatch,
		},
	}
}

// Load reads a YAML config over the defaults. Every key can be overridden
// from the environment with the ODEVAE_ prefix and dots replaced by
// underscores.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return decode(v)
}

// FromEnv returns the defaults with environment overrides applied.
func FromEnv() (*Config, error) {
	return decode(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	d := DefaultConfig()

	v.SetDefault("field", d.Field)
	v.SetDefault("samples", d.Samples)
	v.SetDefault("solver.method", d.Solver.Method)
	v.SetDefault("solver.rtol", d.Solver.RTol)
	v.SetDefault("solver.atol", d.Solver.ATol)
	v.SetDefault("solver.max_steps", d.Solver.MaxSteps)
	v.SetDefault("solver.step_size", d.Solver.StepSize)
	v.SetDefault("solver.first_step", d.Solver.FirstStep)
	v.SetDefault("time.start", d.Time.Start)
	v.SetDefault("time.end", d.Time.End)
	v.SetDefault("time.points", d.Time.Points)
	v.SetDefault("minibatch.batch", d.Minibatch.Batch)
	v.SetDefault("minibatch.nsub", d.Minibatch.Nsub)
	v.SetDefault("minibatch.tsub", d.Minibatch.Tsub)
	v.SetDefault("minibatch.seed", d.Minibatch.Seed)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the values a run depends on.
func (c *Config) Validate() error {
	if _, err := integrators.Lookup(c.Solver.Method); err != nil {
		return err
	}
	if c.Samples < 1 {
		return dynamo.Bounds("samples must be at least 1, got %d", c.Samples)
	}
	if c.Time.Points < 1 {
		return dynamo.Bounds("time.points must be at least 1, got %d", c.Time.Points)
	}
	if c.Time.Points > 1 && !(c.Time.End > c.Time.Start) {
		return dynamo.Bounds("time.end (%g) must exceed time.start (%g)", c.Time.End, c.Time.Start)
	}
	if c.Minibatch.Batch < 1 {
		return dynamo.Bounds("minibatch.batch must be at least 1, got %d", c.Minibatch.Batch)
	}
	return nil
}

// Grid returns Points evenly spaced times from Start to End inclusive.
func (t TimeConfig) Grid() []float64 {
	if t.Points <= 0 {
		return nil
	}
	ts := make([]float64, t.Points)
	if t.Points == 1 {
		ts[0] = t.Start
		return ts
	}
	step := (t.End - t.Start) / float64(t.Points-1)
	for i := range ts {
		ts[i] = t.Start + float64(i)*step
	}
	ts[len(ts)-1] = t.End
	return ts
}

func (s SolverConfig) Options() integrators.Options {
	return integrators.Options{
		Method:    s.Method,
		RTol:      s.RTol,
		ATol:      s.ATol,
		MaxSteps:  s.MaxSteps,
		StepSize:  s.StepSize,
		FirstStep: s.FirstStep,
	}
}

// IntegrateConfig returns an odeint.Config for L field samples whose solver
// carries the step limits of s. Method and tolerances come from IntegrateL.
func (s SolverConfig) IntegrateConfig(L int) odeint.Config {
	base := s.Options()
	return odeint.Config{
		L:      L,
		Method: s.Method,
		RTol:   s.RTol,
		ATol:   s.ATol,
		Solver: func(sys dynamo.System, y0 dynamo.State, ts []float64, opts integrators.Options) ([]dynamo.State, integrators.Stats, error) {
			o := base
			o.Method, o.RTol, o.ATol = opts.Method, opts.RTol, opts.ATol
			return integrators.Solve(sys, y0, ts, o)
		},
	}
}
