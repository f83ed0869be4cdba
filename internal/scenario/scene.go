package scenario

import (
	"context"

	"github.com/san-kum/grabsim/internal/camera"
	"github.com/san-kum/grabsim/internal/config"
	"github.com/san-kum/grabsim/internal/grab"
	"github.com/san-kum/grabsim/internal/metrics"
	"github.com/san-kum/grabsim/internal/physics"
	"github.com/san-kum/grabsim/internal/sim"
	"github.com/san-kum/grabsim/internal/spatial"
	"github.com/san-kum/grabsim/internal/xr"
	"go.uber.org/zap"
)

// DefaultPointer names the pointer driver when a scenario does not.
const DefaultPointer = "mouse"

// ControllerRig is a tracked controller with its hand, proximity volume
// and driver.
type ControllerRig struct {
	Device *xr.Controller
	Hand   *xr.Hand
	Volume *physics.Trigger
	Driver *grab.ControllerDriver
}

// Enable turns the driver back on and re-announces bodies already in reach.
func (c *ControllerRig) Enable() {
	c.Driver.Enable()
	c.Volume.Reset()
}

func (c *ControllerRig) Disable() { c.Driver.Disable() }

type PointerRig struct {
	Device *xr.Pointer
	Driver *grab.PointerDriver
}

// Scene is a built scenario ready to run.
type Scene struct {
	Scenario    *Scenario
	Config      *config.Config
	World       *physics.World
	Registry    *grab.Registry
	Rig         *camera.Rig
	Controllers map[string]*ControllerRig
	Pointer     *PointerRig
	Sim         *sim.Simulator
	Script      *Script

	order []string
	names map[string]string
	log   *zap.Logger
}

// Build wires the world, devices and drivers of sc into a simulator.
func Build(sc *Scenario, cfg *config.Config, log *zap.Logger) (*Scene, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("scenario", sc.Name))

	settings := cfg.PhysicsSettings()
	if sc.Gravity != nil {
		settings.Gravity = *sc.Gravity
	}
	if sc.Ground != nil {
		settings.Ground = *sc.Ground
	}

	s := &Scene{
		Scenario:    sc,
		Config:      cfg,
		World:       physics.NewWorld(settings, log),
		Registry:    grab.NewRegistry(log),
		Rig:         camera.NewRig(),
		Controllers: make(map[string]*ControllerRig),
		names:       make(map[string]string),
		log:         log,
	}
	s.Sim = sim.New(s.World, s.Registry, log)
	for _, m := range metrics.Defaults() {
		s.Sim.AddMetric(m)
	}

	for _, spec := range sc.Bodies {
		b := physics.NewRigidBody(spec.Name, spec.Tag, vec3(spec.Position))
		b.SetPose(b.Position(), euler(spec.Rotation))
		if spec.Radius > 0 {
			b.Radius = spec.Radius
		}
		if spec.Mass > 0 {
			b.Mass = spec.Mass
		}
		s.World.Add(b)
		s.names[b.ID()] = b.Name
	}

	for _, spec := range sc.Cameras {
		c := camera.New(spec.Name).LookAt(vec3(spec.Position), vec3(spec.LookAt))
		if spec.FOV > 0 {
			c.FOV = spec.FOV
		}
		c.Enabled = !spec.Disabled
		s.Rig.Add(c)
	}

	for _, spec := range sc.Controllers {
		s.addController(spec)
	}

	if name, ok := sc.pointerName(); ok {
		s.addPointer(name, sc.Pointer)
	}

	script, err := newScript(s, sc.SortedEvents())
	if err != nil {
		return nil, err
	}
	s.Script = script
	s.Sim.SetInput(script)

	return s, nil
}

func (s *Scene) addController(spec ControllerSpec) {
	dev := xr.NewController(spec.Name)
	dev.SetPose(spatial.Pose{Position: vec3(spec.Position), Rotation: euler(spec.Rotation)})
	hand := xr.NewHand()

	cc := s.Config.Controller
	pool := grab.NewPool(cc.InteractableTag, dev, cc.Pulse, s.log)
	driver := grab.NewControllerDriver(spec.Name, dev, pool, hand, s.Config.GrabController(), s.Registry, s.log)

	radius := spec.TriggerRadius
	if radius <= 0 {
		radius = cc.TriggerRadius
	}
	vol := physics.NewTrigger(radius, dev.Position)
	vol.OnEnter = func(b *physics.RigidBody) { driver.OnProximityEnter(b) }
	vol.OnExit = func(b *physics.RigidBody) { driver.OnProximityExit(b) }

	s.Controllers[spec.Name] = &ControllerRig{Device: dev, Hand: hand, Volume: vol, Driver: driver}
	s.order = append(s.order, spec.Name)

	s.Sim.AddBehaviour(driver)
	s.Sim.AddVolume(vol)
	s.Sim.Watch(driver.Grip())
}

func (s *Scene) addPointer(name string, spec *PointerSpec) {
	screen := []float64{camera.DefaultWidth / 2, camera.DefaultHeight / 2}
	if spec != nil && len(spec.Screen) == 2 {
		screen = spec.Screen
	}
	dev := xr.NewPointer(screen[0], screen[1])
	driver := grab.NewPointerDriver(name, s.Rig, dev, s.Config.Pointer, s.Registry, s.log)
	s.Pointer = &PointerRig{Device: dev, Driver: driver}

	s.Sim.AddBehaviour(driver)
	s.Sim.Watch(driver.Grip())
}

// Controller returns the named controller, or the only one when name is
// empty.
func (s *Scene) Controller(name string) (*ControllerRig, bool) {
	if name == "" && len(s.order) == 1 {
		name = s.order[0]
	}
	c, ok := s.Controllers[name]
	return c, ok
}

// ControllerNames lists controllers in scenario order.
func (s *Scene) ControllerNames() []string { return s.order }

// BodyName maps a body ID back to its scenario name.
func (s *Scene) BodyName(id string) string {
	if n, ok := s.names[id]; ok {
		return n
	}
	return id
}

func (s *Scene) SimConfig() sim.Config {
	frameDt := s.Scenario.FrameDt
	if frameDt == 0 {
		frameDt = s.Config.FrameDt
	}
	return sim.Config{
		FrameDt:          frameDt,
		FrameSchedule:    s.Scenario.FrameSchedule,
		FixedDt:          s.Config.Physics.FixedDt,
		Duration:         s.Scenario.Duration,
		MaxStepsPerFrame: s.Config.Physics.MaxStepsPerFrame,
		ValidateState:    true,
	}
}

// Run executes the scene for the scenario duration.
func (s *Scene) Run(ctx context.Context) (*sim.Result, error) {
	res, err := s.Sim.Run(ctx, s.SimConfig())
	if err != nil {
		return res, err
	}
	s.log.Info("scenario finished",
		zap.Int("frames", res.Frames),
		zap.Int("steps", res.Steps),
		zap.Int("releases", len(res.Releases)))
	return res, nil
}
