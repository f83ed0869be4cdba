package metrics

import (
	"math"

	"github.com/san-kum/grabsim/internal/sim"
)

// MaxThrowSpeed is the fastest release velocity seen.
type MaxThrowSpeed struct {
	max float64
}

func NewMaxThrowSpeed() *MaxThrowSpeed { return &MaxThrowSpeed{} }

func (m *MaxThrowSpeed) Name() string       { return "max_throw_speed" }
func (m *MaxThrowSpeed) Observe(sim.Sample) {}
func (m *MaxThrowSpeed) Value() float64     { return m.max }
func (m *MaxThrowSpeed) Reset()             { m.max = 0 }

func (m *MaxThrowSpeed) ObserveRelease(r sim.ReleaseEvent) {
	m.max = math.Max(m.max, r.Speed())
}

// Releases counts release events.
type Releases struct {
	count int
}

func NewReleases() *Releases { return &Releases{} }

func (m *Releases) Name() string                    { return "releases" }
func (m *Releases) Observe(sim.Sample)              {}
func (m *Releases) ObserveRelease(sim.ReleaseEvent) { m.count++ }
func (m *Releases) Value() float64                  { return float64(m.count) }
func (m *Releases) Reset()                          { m.count = 0 }

// HeldSteps counts body samples taken while held.
type HeldSteps struct {
	count int
}

func NewHeldSteps() *HeldSteps { return &HeldSteps{} }

func (m *HeldSteps) Name() string { return "held_steps" }

func (m *HeldSteps) Observe(s sim.Sample) {
	if s.Held {
		m.count++
	}
}

func (m *HeldSteps) Value() float64 { return float64(m.count) }
func (m *HeldSteps) Reset()         { m.count = 0 }

// AngularLeak is the largest angular speed observed on a held body. A grip
// zeroes angular velocity every step, so anything above zero is a leak.
type AngularLeak struct {
	max float64
}

func NewAngularLeak() *AngularLeak { return &AngularLeak{} }

func (m *AngularLeak) Name() string { return "angular_leak" }

func (m *AngularLeak) Observe(s sim.Sample) {
	if s.Held {
		m.max = math.Max(m.max, s.AngularSpeed)
	}
}

func (m *AngularLeak) Value() float64 { return m.max }
func (m *AngularLeak) Reset()         { m.max = 0 }

// Defaults returns the metrics recorded for every scenario run.
func Defaults() []sim.Metric {
	return []sim.Metric{
		NewMaxThrowSpeed(),
		NewReleases(),
		NewHeldSteps(),
		NewAngularLeak(),
		NewKineticEnergy(),
		NewRest(0.05),
	}
}
