package grab

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// ControllerConfig names the controls a ControllerDriver reads.
type ControllerConfig struct {
	Throw     Throw
	Trigger   string
	Grip      string
	Animation string
}

func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		Throw:     ControllerThrow,
		Trigger:   "Trigger",
		Grip:      "Grip",
		Animation: "Take",
	}
}

type controllerFrame struct {
	input ControllerInput
}

func (f controllerFrame) Rotation() mgl64.Quat { return f.input.Pose().Rotation }
func (f controllerFrame) Origin() mgl64.Vec3   { return f.input.Pose().Position }

// ControllerDriver picks up the nearest body in proximity of a tracked
// controller and pins it to the controller pose.
type ControllerDriver struct {
	grip    *Grip
	pool    *Pool
	input   ControllerInput
	anim    AnimationSink
	cfg     ControllerConfig
	frame   controllerFrame
	enabled bool
	log     *zap.Logger
}

func NewControllerDriver(name string, input ControllerInput, pool *Pool, anim AnimationSink, cfg ControllerConfig, reg *Registry, log *zap.Logger) *ControllerDriver {
	if log == nil {
		log = zap.NewNop()
	}
	return &ControllerDriver{
		grip:    NewGrip(name, FollowPin, cfg.Throw, reg, log),
		pool:    pool,
		input:   input,
		anim:    anim,
		cfg:     cfg,
		frame:   controllerFrame{input: input},
		enabled: true,
		log:     log.With(zap.String("driver", name)),
	}
}

func (d *ControllerDriver) Grip() *Grip   { return d.grip }
func (d *ControllerDriver) Pool() *Pool   { return d.pool }
func (d *ControllerDriver) Enabled() bool { return d.enabled }

// Update reads the controller for the frame: button edges pick up and drop,
// the hand animation follows the trigger or grip, then the held body's
// target follows the controller pose.
func (d *ControllerDriver) Update() {
	if !d.enabled {
		return
	}
	in := d.input

	if in.ButtonDown(d.cfg.Trigger) || in.ButtonDown(d.cfg.Grip) {
		d.Pickup()
	}
	if in.ButtonUp(d.cfg.Trigger) || in.ButtonUp(d.cfg.Grip) {
		d.Drop()
	}

	if d.anim != nil {
		t := in.Axis(d.cfg.Grip)
		if in.Button(d.cfg.Trigger) {
			t = 1
		}
		d.anim.Play(d.cfg.Animation, clamp01(t))
	}

	d.OnPoseUpdate()
}

// OnPoseUpdate recomputes the held body's target from the controller pose.
func (d *ControllerDriver) OnPoseUpdate() {
	if d.grip.State() == Attached {
		d.grip.Update(d.frame)
	}
}

// FixedUpdate pins the held body to its target. Call once per physics step.
func (d *ControllerDriver) FixedUpdate() {
	d.grip.Apply()
}

// Pickup grabs the nearest body in reach that no other driver holds. It is a
// no-op when a body is already held or nothing free is in reach.
func (d *ControllerDriver) Pickup() bool {
	if !d.enabled || d.grip.State() == Attached {
		return false
	}
	free := func(b Body) bool { return !d.grip.registry.Held(b.ID()) }
	body := d.pool.NearestWhere(d.input.Pose().Position, free)
	if body == nil {
		d.log.Debug("pickup found nothing")
		return false
	}
	if err := d.grip.Begin(d.frame, body); err != nil {
		return false
	}
	d.grip.Update(d.frame)
	d.grip.ResetVelocity()
	return true
}

// Drop throws the held body, if any.
func (d *ControllerDriver) Drop() (Release, bool) {
	return d.grip.End()
}

// OnProximityEnter feeds the candidate pool. A disabled driver keeps no
// candidates and fires no pulse.
func (d *ControllerDriver) OnProximityEnter(body Body) {
	if !d.enabled {
		return
	}
	d.pool.Enter(body)
}

// OnProximityExit feeds the candidate pool. Losing proximity never drops a
// held body.
func (d *ControllerDriver) OnProximityExit(body Body) { d.pool.Exit(body) }

// Disable drops any held body, empties the candidate pool and stops reading
// input. Hosts re-announce bodies in reach after Enable.
func (d *ControllerDriver) Disable() {
	d.grip.End()
	d.pool.Clear()
	d.enabled = false
}

func (d *ControllerDriver) Enable() { d.enabled = true }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
