package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/grabsim/internal/grab"
	"github.com/san-kum/grabsim/internal/physics"
	"go.uber.org/zap"
)

// timeEps absorbs float drift when comparing accumulated time to steps.
const timeEps = 1e-9

// Simulator schedules a scene: input, then behaviour updates once per frame,
// then fixed physics steps with behaviour writes ahead of integration.
type Simulator struct {
	world      *physics.World
	registry   *grab.Registry
	input      Input
	behaviours []Behaviour
	volumes    []Volume
	metrics    []Metric
	observers  []Observer
	log        *zap.Logger

	cfg      Config
	time     float64
	accum    float64
	frame    int
	schedule int
	result   *Result
}

func New(world *physics.World, registry *grab.Registry, log *zap.Logger) *Simulator {
	if log == nil {
		log = zap.NewNop()
	}
	if registry == nil {
		registry = grab.NewRegistry(log)
	}
	return &Simulator{
		world:      world,
		registry:   registry,
		behaviours: make([]Behaviour, 0),
		volumes:    make([]Volume, 0),
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
		log:        log,
		result:     newResult(),
	}
}

func newResult() *Result {
	return &Result{Metrics: make(map[string]float64)}
}

func (s *Simulator) SetInput(in Input)        { s.input = in }
func (s *Simulator) AddBehaviour(b Behaviour) { s.behaviours = append(s.behaviours, b) }
func (s *Simulator) AddVolume(v Volume)       { s.volumes = append(s.volumes, v) }
func (s *Simulator) AddMetric(m Metric)       { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer)   { s.observers = append(s.observers, o) }

func (s *Simulator) World() *physics.World    { return s.world }
func (s *Simulator) Registry() *grab.Registry { return s.registry }
func (s *Simulator) Time() float64            { return s.time }
func (s *Simulator) Result() *Result          { return s.result }

// Watch records every release of g.
func (s *Simulator) Watch(g *grab.Grip) {
	g.OnRelease(s.RecordRelease)
}

// RecordRelease stamps r with the current frame time and forwards it to
// metrics and observers.
func (s *Simulator) RecordRelease(r grab.Release) {
	ev := ReleaseEvent{Time: s.time, Release: r}
	s.result.Releases = append(s.result.Releases, ev)
	for _, m := range s.metrics {
		if rm, ok := m.(ReleaseMetric); ok {
			rm.ObserveRelease(ev)
		}
	}
	for _, o := range s.observers {
		o.OnRelease(ev)
	}
}

// Start resets metrics and the result and syncs volumes so bodies that begin
// inside a volume are reported before the first frame.
func (s *Simulator) Start(cfg Config) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}
	s.cfg = cfg
	s.time, s.accum, s.frame, s.schedule = 0, 0, 0, 0
	s.result = newResult()
	for _, m := range s.metrics {
		m.Reset()
	}
	s.syncVolumes()
	return nil
}

// Run executes the scene until cfg.Duration has elapsed.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.Start(cfg); err != nil {
		return nil, err
	}

	for s.time < cfg.Duration-timeEps {
		select {
		case <-ctx.Done():
			return s.finish(), ctx.Err()
		default:
		}

		if err := s.Frame(s.nextDt()); err != nil {
			s.result.Errors = append(s.result.Errors, err)
			break
		}
	}

	return s.finish(), nil
}

func (s *Simulator) nextDt() float64 {
	if len(s.cfg.FrameSchedule) == 0 {
		return s.cfg.FrameDt
	}
	dt := s.cfg.FrameSchedule[s.schedule%len(s.cfg.FrameSchedule)]
	s.schedule++
	return dt
}

// Frame advances one rendered frame of length dt, running as many fixed
// steps as the accumulated time allows.
func (s *Simulator) Frame(dt float64) error {
	if s.input != nil {
		s.input.Advance(s.time)
	}
	for _, b := range s.behaviours {
		b.Update()
	}
	if s.input != nil {
		s.input.EndFrame()
	}
	for _, o := range s.observers {
		o.OnFrame(s.time, s.frame)
	}

	s.accum += dt
	steps := 0
	for s.accum >= s.cfg.FixedDt-timeEps {
		if steps == s.cfg.MaxStepsPerFrame {
			s.log.Debug("dropping physics time", zap.Float64("behind", s.accum))
			s.accum = 0
			break
		}
		if err := s.step(); err != nil {
			return err
		}
		s.accum -= s.cfg.FixedDt
		steps++
	}

	s.time += dt
	s.frame++
	s.result.Frames = s.frame
	s.result.Time = s.time
	return nil
}

func (s *Simulator) step() error {
	for _, b := range s.behaviours {
		b.FixedUpdate()
	}
	s.world.Step(s.cfg.FixedDt)
	s.syncVolumes()

	bodies := s.world.Bodies()
	samples := make([]Sample, 0, len(bodies))
	for _, b := range bodies {
		smp := Sample{
			Time:         s.world.Time(),
			Step:         s.world.Steps(),
			ID:           b.ID(),
			Body:         b.Name,
			Mass:         b.Mass,
			Position:     b.Position(),
			Velocity:     b.LinearVelocity(),
			AngularSpeed: b.AngularVelocity().Len(),
			Held:         s.registry.Held(b.ID()),
		}
		if s.cfg.ValidateState && !finite(smp) {
			return &StepError{Step: smp.Step, Time: smp.Time, Body: b.Name, Wrapped: ErrDiverged}
		}
		for _, m := range s.metrics {
			m.Observe(smp)
		}
		samples = append(samples, smp)
	}

	s.result.Samples = append(s.result.Samples, samples...)
	s.result.Steps++
	for _, o := range s.observers {
		o.OnStep(samples)
	}
	return nil
}

func (s *Simulator) syncVolumes() {
	for _, v := range s.volumes {
		v.Sync(s.world)
	}
}

func (s *Simulator) finish() *Result {
	for _, m := range s.metrics {
		s.result.Metrics[m.Name()] = m.Value()
	}
	return s.result
}

func validateConfig(cfg Config) error {
	if cfg.FixedDt <= 0 {
		return fmt.Errorf("%w: fixed dt must be positive, got %f", ErrInvalidConfig, cfg.FixedDt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, cfg.Duration)
	}
	if cfg.MaxStepsPerFrame < 1 {
		return fmt.Errorf("%w: max steps per frame must be at least 1", ErrInvalidConfig)
	}
	if len(cfg.FrameSchedule) == 0 && cfg.FrameDt <= 0 {
		return fmt.Errorf("%w: frame dt must be positive, got %f", ErrInvalidConfig, cfg.FrameDt)
	}
	for _, dt := range cfg.FrameSchedule {
		if dt <= 0 {
			return fmt.Errorf("%w: frame schedule entries must be positive", ErrInvalidConfig)
		}
	}
	return nil
}

func finite(s Sample) bool {
	for _, v := range s.Position {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
