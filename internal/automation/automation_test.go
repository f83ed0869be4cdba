package automation

import (
	"context"
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/gomega"
	"github.com/san-kum/grabsim/internal/config"
	"github.com/san-kum/grabsim/internal/grab"
	"github.com/san-kum/grabsim/internal/scenario"
	"github.com/san-kum/grabsim/internal/sim"
)

func preset(t *testing.T, name string) *scenario.Scenario {
	t.Helper()
	sc, _, err := scenario.Preset(name)
	if err != nil {
		t.Fatal(err)
	}
	return sc
}

func TestLinspace(t *testing.T) {
	g := NewWithT(t)
	g.Expect(Linspace(0, 1, 5)).To(Equal([]float64{0, 0.25, 0.5, 0.75, 1}))
	g.Expect(Linspace(3, 9, 1)).To(Equal([]float64{3}))
}

func TestSet(t *testing.T) {
	g := NewWithT(t)
	cfg := config.DefaultConfig()

	g.Expect(Set(cfg, "controller.throw_scale", 7)).To(Succeed())
	g.Expect(cfg.Controller.Throw.Scale).To(Equal(7.0))
	g.Expect(cfg.Pointer.Scale).To(Equal(10.0))

	g.Expect(Set(cfg, "nope", 1)).To(MatchError(ErrUnknownParam))
	g.Expect(Params()).To(ContainElement("physics.fixed_dt"))
}

func TestGrid(t *testing.T) {
	g := NewWithT(t)

	combos, err := Grid(
		[]string{"pointer.throw_scale", "physics.gravity"},
		[][]float64{{1, 2}, {0, -1, -2}},
	)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(combos).To(HaveLen(6))
	g.Expect(combos[0]).To(Equal(map[string]float64{"pointer.throw_scale": 1, "physics.gravity": 0}))
	g.Expect(combos[5]).To(Equal(map[string]float64{"pointer.throw_scale": 2, "physics.gravity": -2}))

	_, err = Grid([]string{"bogus"}, [][]float64{{1}})
	g.Expect(err).To(MatchError(ErrUnknownParam))

	_, err = Grid([]string{"frame_dt"}, nil)
	g.Expect(err).To(HaveOccurred())
}

func TestSweepControllerThrowScale(t *testing.T) {
	g := NewWithT(t)
	r := NewRunner(preset(t, "controller-throw"), nil, 2, nil)

	combos, err := Grid([]string{"controller.throw_scale"}, [][]float64{{1, 2, 10}})
	g.Expect(err).NotTo(HaveOccurred())

	out, err := r.Sweep(context.Background(), combos)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(HaveLen(3))

	want := []float64{2, 4, 5}
	for i, o := range out {
		g.Expect(o.Trial).To(Equal(i))
		g.Expect(o.Speed()).To(BeNumerically("~", want[i], 1e-9))
		g.Expect(o.Result.Releases[0].Velocity[2]).To(BeNumerically("~", want[i], 1e-9))
	}
	g.Expect(out[0].Check).To(HaveOccurred())
	g.Expect(out[1].Check).To(HaveOccurred())
	g.Expect(out[2].Check).NotTo(HaveOccurred())
}

func TestSweepRejectsInvalidConfig(t *testing.T) {
	g := NewWithT(t)
	r := NewRunner(preset(t, "controller-throw"), nil, 1, nil)

	_, err := r.Sweep(context.Background(), []map[string]float64{{"physics.fixed_dt": 0}})
	g.Expect(err).To(MatchError(config.ErrInvalid))
}

func TestMonteCarloWithoutJitterMatchesPreset(t *testing.T) {
	g := NewWithT(t)
	r := NewRunner(preset(t, "pointer-drag"), nil, 0, nil)

	out, err := r.MonteCarlo(context.Background(), MonteCarloConfig{Trials: 3, Jitter: 0, Frames: 4, Seed: 1})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out).To(HaveLen(3))
	for _, o := range out {
		g.Expect(o.Schedule).To(Equal([]float64{0.016, 0.016, 0.016, 0.016}))
		g.Expect(o.Check).NotTo(HaveOccurred())
		g.Expect(o.Speed()).To(BeNumerically("~", 0.6415, 1e-3))
	}

	s := Summarize(out)
	g.Expect(s.Passed).To(Equal(3))
	g.Expect(s.Released).To(Equal(3))
	g.Expect(s.StdDev).To(BeNumerically("~", 0, 1e-6))
}

func TestMonteCarloIsSeeded(t *testing.T) {
	g := NewWithT(t)
	mc := MonteCarloConfig{Trials: 4, Jitter: 0.3, Frames: 8, Seed: 42}

	a, err := NewRunner(preset(t, "pointer-drag"), nil, 2, nil).MonteCarlo(context.Background(), mc)
	g.Expect(err).NotTo(HaveOccurred())
	b, err := NewRunner(preset(t, "pointer-drag"), nil, 2, nil).MonteCarlo(context.Background(), mc)
	g.Expect(err).NotTo(HaveOccurred())

	for i := range a {
		g.Expect(a[i].Schedule).To(Equal(b[i].Schedule))
		g.Expect(a[i].Speed()).To(Equal(b[i].Speed()))
		g.Expect(a[i].Speed()).To(BeNumerically("<=", 5+1e-9))
		for _, dt := range a[i].Schedule {
			g.Expect(dt).To(BeNumerically(">=", 0.016*0.7-1e-12))
			g.Expect(dt).To(BeNumerically("<=", 0.016*1.3+1e-12))
		}
	}
}

func TestMonteCarloRejects(t *testing.T) {
	g := NewWithT(t)
	r := NewRunner(preset(t, "pointer-drag"), nil, 1, nil)

	_, err := r.MonteCarlo(context.Background(), MonteCarloConfig{Trials: 0})
	g.Expect(err).To(HaveOccurred())
	_, err = r.MonteCarlo(context.Background(), MonteCarloConfig{Trials: 1, Jitter: 1})
	g.Expect(err).To(HaveOccurred())
}

func TestSummarize(t *testing.T) {
	g := NewWithT(t)
	released := func(v mgl64.Vec3) *sim.Result {
		return &sim.Result{Releases: []sim.ReleaseEvent{{Release: grab.Release{Velocity: v}}}}
	}

	s := Summarize([]Outcome{
		{Result: released(mgl64.Vec3{3, 4, 0})},
		{Result: released(mgl64.Vec3{1, 0, 0}), Check: errors.New("mismatch")},
		{Result: &sim.Result{}},
	})

	g.Expect(s.Runs).To(Equal(3))
	g.Expect(s.Passed).To(Equal(2))
	g.Expect(s.Released).To(Equal(2))
	g.Expect(s.Min).To(Equal(1.0))
	g.Expect(s.Max).To(Equal(5.0))
	g.Expect(s.Mean).To(Equal(3.0))
	g.Expect(s.StdDev).To(BeNumerically("~", 2, 1e-9))
}
