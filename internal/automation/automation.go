// Package automation runs many variants of one scenario: parameter sweeps
// over config values and Monte Carlo trials over jittered frame timing.
package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/san-kum/grabsim/internal/config"
	"github.com/san-kum/grabsim/internal/scenario"
	"github.com/san-kum/grabsim/internal/sim"
	"go.uber.org/zap"
)

var ErrUnknownParam = errors.New("automation: unknown parameter")

var params = map[string]func(*config.Config) *float64{
	"frame_dt":                   func(c *config.Config) *float64 { return &c.FrameDt },
	"pointer.throw_scale":        func(c *config.Config) *float64 { return &c.Pointer.Scale },
	"pointer.max_throw_speed":    func(c *config.Config) *float64 { return &c.Pointer.MaxSpeed },
	"controller.throw_scale":     func(c *config.Config) *float64 { return &c.Controller.Throw.Scale },
	"controller.max_throw_speed": func(c *config.Config) *float64 { return &c.Controller.Throw.MaxSpeed },
	"controller.trigger_radius":  func(c *config.Config) *float64 { return &c.Controller.TriggerRadius },
	"physics.fixed_dt":           func(c *config.Config) *float64 { return &c.Physics.FixedDt },
	"physics.gravity":            func(c *config.Config) *float64 { return &c.Physics.Gravity },
	"physics.restitution":        func(c *config.Config) *float64 { return &c.Physics.Restitution },
	"physics.friction":           func(c *config.Config) *float64 { return &c.Physics.Friction },
}

// Params lists the config values a sweep can vary.
func Params() []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Set writes one named value into cfg.
func Set(cfg *config.Config, name string, v float64) error {
	field, ok := params[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	*field(cfg) = v
	return nil
}

// Linspace returns n evenly spaced values from min to max inclusive.
func Linspace(min, max float64, n int) []float64 {
	if n <= 1 {
		return []float64{min}
	}
	out := make([]float64, n)
	step := (max - min) / float64(n-1)
	for i := range out {
		out[i] = min + float64(i)*step
	}
	return out
}

// Grid expands per-parameter values into every combination, the last
// parameter varying fastest.
func Grid(names []string, values [][]float64) ([]map[string]float64, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("automation: %d parameters but %d value lists", len(names), len(values))
	}
	for _, name := range names {
		if _, ok := params[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParam, name)
		}
	}
	var out []map[string]float64
	grid(0, names, values, map[string]float64{}, &out)
	return out, nil
}

func grid(depth int, names []string, values [][]float64, current map[string]float64, out *[]map[string]float64) {
	if depth == len(names) {
		*out = append(*out, current)
		return
	}
	for _, v := range values[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, cv := range current {
			next[k] = cv
		}
		next[names[depth]] = v
		grid(depth+1, names, values, next, out)
	}
}

// Outcome is the result of one variant.
type Outcome struct {
	Trial  int
	Params map[string]float64
	// Schedule is the frame dt cycle used, for Monte Carlo trials.
	Schedule []float64
	Result   *sim.Result
	// Check holds the expectation mismatch, nil when the run passed.
	Check error
}

// Speed is the first release speed, or 0 when nothing was thrown.
func (o Outcome) Speed() float64 {
	if len(o.Result.Releases) == 0 {
		return 0
	}
	return o.Result.Releases[0].Speed()
}

// Runner builds and runs variants of a scenario concurrently.
type Runner struct {
	Scenario *scenario.Scenario
	Config   *config.Config
	Workers  int
	log      *zap.Logger
}

func NewRunner(sc *scenario.Scenario, cfg *config.Config, workers int, log *zap.Logger) *Runner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{Scenario: sc, Config: cfg, Workers: workers, log: log}
}

type variant struct {
	params   map[string]float64
	schedule []float64
}

// Sweep runs the scenario once per parameter combination.
func (r *Runner) Sweep(ctx context.Context, combos []map[string]float64) ([]Outcome, error) {
	vs := make([]variant, len(combos))
	for i, c := range combos {
		vs[i] = variant{params: c}
	}
	return r.run(ctx, vs)
}

// MonteCarloConfig describes randomized frame timing. Each trial cycles
// through Frames dts drawn uniformly within Jitter (a fraction) of the
// scenario's frame dt.
type MonteCarloConfig struct {
	Trials int
	Jitter float64
	Frames int
	Seed   int64
}

// MonteCarlo runs the scenario under randomized frame timing.
func (r *Runner) MonteCarlo(ctx context.Context, mc MonteCarloConfig) ([]Outcome, error) {
	if mc.Trials < 1 {
		return nil, fmt.Errorf("automation: trials must be at least 1")
	}
	if mc.Jitter < 0 || mc.Jitter >= 1 {
		return nil, fmt.Errorf("automation: jitter must be in [0, 1), got %f", mc.Jitter)
	}
	if mc.Frames < 1 {
		mc.Frames = 64
	}

	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	base := r.Scenario.FrameDt
	if base == 0 {
		base = r.Config.FrameDt
	}

	vs := make([]variant, mc.Trials)
	for i := range vs {
		schedule := make([]float64, mc.Frames)
		for j := range schedule {
			schedule[j] = base * (1 + (rng.Float64()*2-1)*mc.Jitter)
		}
		vs[i] = variant{schedule: schedule}
	}
	return r.run(ctx, vs)
}

func (r *Runner) run(ctx context.Context, vs []variant) ([]Outcome, error) {
	scenes := make([]*scenario.Scene, len(vs))
	ens := sim.NewEnsemble(r.Workers)

	for i, v := range vs {
		scene, err := r.build(v)
		if err != nil {
			return nil, fmt.Errorf("variant %d: %w", i, err)
		}
		scenes[i] = scene
		ens.Add(sim.Job{Name: fmt.Sprintf("%s#%d", r.Scenario.Name, i), Sim: scene.Sim, Config: scene.SimConfig()})
	}

	results, err := ens.Run(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Outcome, len(vs))
	for i, res := range results {
		out[i] = Outcome{
			Trial:    i,
			Params:   vs[i].params,
			Schedule: vs[i].schedule,
			Result:   res,
			Check:    scenes[i].Check(res),
		}
	}
	r.log.Info("variants finished", zap.String("scenario", r.Scenario.Name), zap.Int("runs", len(out)))
	return out, nil
}

// build applies a variant to private copies of the scenario and config.
func (r *Runner) build(v variant) (*scenario.Scene, error) {
	src, err := r.Scenario.Marshal()
	if err != nil {
		return nil, err
	}
	sc, err := scenario.Parse(src)
	if err != nil {
		return nil, err
	}

	cfg := *r.Config
	for name, val := range v.params {
		if err := Set(&cfg, name, val); err != nil {
			return nil, err
		}
		switch name {
		case "frame_dt":
			sc.FrameDt, sc.FrameSchedule = 0, nil
		case "physics.gravity":
			sc.Gravity = nil
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if v.schedule != nil {
		sc.FrameSchedule = v.schedule
	}
	return scenario.Build(sc, &cfg, r.log)
}

// Summary aggregates first-release speeds over outcomes that released.
type Summary struct {
	Runs     int
	Passed   int
	Released int
	Min      float64
	Max      float64
	Mean     float64
	StdDev   float64
}

func Summarize(outcomes []Outcome) Summary {
	s := Summary{Runs: len(outcomes)}
	var sum, sq float64
	for _, o := range outcomes {
		if o.Check == nil {
			s.Passed++
		}
		if len(o.Result.Releases) == 0 {
			continue
		}
		v := o.Speed()
		if s.Released == 0 || v < s.Min {
			s.Min = v
		}
		if s.Released == 0 || v > s.Max {
			s.Max = v
		}
		s.Released++
		sum += v
		sq += v * v
	}
	if s.Released > 0 {
		n := float64(s.Released)
		s.Mean = sum / n
		s.StdDev = math.Sqrt(math.Max(0, sq/n-s.Mean*s.Mean))
	}
	return s
}
