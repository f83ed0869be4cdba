package sim

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/grabsim/internal/grab"
	"github.com/san-kum/grabsim/internal/physics"
)

// Behaviour is a scene participant ticked by the scheduler. Update runs once
// per rendered frame, FixedUpdate once per physics step before integration.
type Behaviour interface {
	Update()
	FixedUpdate()
}

// Input is advanced to the frame time before behaviours update and latched
// after, so button edges last exactly one frame.
type Input interface {
	Advance(t float64)
	EndFrame()
}

// Volume tracks overlaps against the world after every physics step.
type Volume interface {
	Sync(w *physics.World)
}

// Sample is one body's state after a physics step.
type Sample struct {
	Time         float64
	Step         int
	ID           string
	Body         string
	Mass         float64
	Position     mgl64.Vec3
	Velocity     mgl64.Vec3
	AngularSpeed float64
	Held         bool
}

func (s Sample) Speed() float64 { return s.Velocity.Len() }

// ReleaseEvent is a grab release stamped with the frame time it happened in.
type ReleaseEvent struct {
	Time float64
	grab.Release
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// ReleaseMetric is a Metric that also wants release events.
type ReleaseMetric interface {
	Metric
	ObserveRelease(r ReleaseEvent)
}

type Observer interface {
	OnFrame(t float64, frame int)
	OnStep(samples []Sample)
	OnRelease(r ReleaseEvent)
}

type Config struct {
	// FrameDt is the rendered frame interval. FrameSchedule, when set,
	// overrides it and is cycled to produce uneven frames.
	FrameDt       float64
	FrameSchedule []float64
	FixedDt       float64
	Duration      float64
	// MaxStepsPerFrame caps catch-up steps; leftover time is dropped.
	MaxStepsPerFrame int
	ValidateState    bool
}

type Result struct {
	Samples  []Sample
	Releases []ReleaseEvent
	Frames   int
	Steps    int
	Time     float64
	Metrics  map[string]float64
	Errors   []error
}

// BodySamples returns the samples of one body in step order.
func (r *Result) BodySamples(name string) []Sample {
	var out []Sample
	for _, s := range r.Samples {
		if s.Body == name {
			out = append(out, s)
		}
	}
	return out
}

// Last returns the final sample of a body.
func (r *Result) Last(name string) (Sample, bool) {
	for i := len(r.Samples) - 1; i >= 0; i-- {
		if r.Samples[i].Body == name {
			return r.Samples[i], true
		}
	}
	return Sample{}, false
}
