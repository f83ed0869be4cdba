package scenario

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/grabsim/internal/sim"
)

const defaultTolerance = 1e-6

// Expectation is what a run of the scenario should produce.
type Expectation struct {
	Releases  []ReleaseExpect `yaml:"releases"`
	NeverHeld []string        `yaml:"never_held,omitempty"`
	// Pulses is the number of haptic pulses per controller.
	Pulses map[string]int `yaml:"pulses,omitempty"`
}

type ReleaseExpect struct {
	Driver    string    `yaml:"driver,omitempty"`
	Body      string    `yaml:"body,omitempty"`
	Speed     float64   `yaml:"speed"`
	Direction []float64 `yaml:"direction,omitempty"`
	Tolerance float64   `yaml:"tolerance,omitempty"`
}

// Check compares a result of this scene against the scenario expectation.
// A scenario without one always passes.
func (s *Scene) Check(res *sim.Result) error {
	exp := s.Scenario.Expect
	if exp == nil {
		return nil
	}

	var errs []error
	if len(res.Releases) != len(exp.Releases) {
		errs = append(errs, fmt.Errorf("expected %d releases, got %d", len(exp.Releases), len(res.Releases)))
	}
	for i := 0; i < len(exp.Releases) && i < len(res.Releases); i++ {
		if err := s.checkRelease(i, exp.Releases[i], res.Releases[i]); err != nil {
			errs = append(errs, err)
		}
	}

	for _, name := range exp.NeverHeld {
		for _, smp := range res.BodySamples(name) {
			if smp.Held {
				errs = append(errs, fmt.Errorf("body %s held at t=%.3f", name, smp.Time))
				break
			}
		}
	}

	for name, want := range exp.Pulses {
		c, ok := s.Controllers[name]
		if !ok {
			errs = append(errs, fmt.Errorf("unknown controller %s", name))
			continue
		}
		if got := len(c.Device.Pulses()); got != want {
			errs = append(errs, fmt.Errorf("controller %s: expected %d pulses, got %d", name, want, got))
		}
	}

	return errors.Join(errs...)
}

func (s *Scene) checkRelease(i int, want ReleaseExpect, got sim.ReleaseEvent) error {
	tol := want.Tolerance
	if tol == 0 {
		tol = defaultTolerance
	}
	if want.Driver != "" && got.Driver != want.Driver {
		return fmt.Errorf("release %d: expected driver %s, got %s", i, want.Driver, got.Driver)
	}
	if name := s.BodyName(got.Body); want.Body != "" && name != want.Body {
		return fmt.Errorf("release %d: expected body %s, got %s", i, want.Body, name)
	}
	if math.Abs(got.Speed()-want.Speed) > tol {
		return fmt.Errorf("release %d: expected speed %.4f, got %.4f", i, want.Speed, got.Speed())
	}
	if len(want.Direction) == 3 && got.Speed() > 0 {
		dir := vec3(want.Direction).Normalize()
		if d := got.Velocity.Normalize().Dot(dir); d < 1-tol {
			return fmt.Errorf("release %d: direction off by %.4f", i, 1-d)
		}
	}
	return nil
}
