package metrics

import "github.com/san-kum/grabsim/internal/sim"

// KineticEnergy is the mean translational kinetic energy of bodies that are
// not held.
type KineticEnergy struct {
	name    string
	total   float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(s sim.Sample) {
	if s.Held {
		return
	}
	v := s.Velocity
	e.total += 0.5 * s.Mass * v.Dot(v)
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *KineticEnergy) Reset() {
	e.total = 0
	e.samples = 0
}
