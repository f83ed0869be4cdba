package metrics

import "github.com/san-kum/grabsim/internal/sim"

// Rest is the fraction of free-body samples moving slower than threshold.
type Rest struct {
	name      string
	threshold float64
	resting   int
	samples   int
}

func NewRest(threshold float64) *Rest {
	return &Rest{
		name:      "rest_fraction",
		threshold: threshold,
	}
}

func (r *Rest) Name() string {
	return r.name
}

func (r *Rest) Observe(s sim.Sample) {
	if s.Held {
		return
	}
	r.samples++
	if s.Speed() < r.threshold {
		r.resting++
	}
}

func (r *Rest) Value() float64 {
	if r.samples == 0 {
		return 1.0
	}
	return float64(r.resting) / float64(r.samples)
}

func (r *Rest) Reset() {
	r.resting = 0
	r.samples = 0
}
