package grab

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// State is the attachment state of a Grip.
type State uint8

const (
	Idle State = iota
	Attached
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Attached:
		return "attached"
	default:
		return "unknown"
	}
}

// FollowMode selects how the target pose is written on each physics step.
type FollowMode uint8

const (
	// FollowChase writes the per-update displacement as linear velocity and
	// moves the body to the target pose.
	FollowChase FollowMode = iota
	// FollowPin zeroes linear velocity and moves the body to the target pose.
	FollowPin
)

func (m FollowMode) String() string {
	if m == FollowPin {
		return "pin"
	}
	return "chase"
}

// Attachment is the binding between a grip and the body it holds. Offsets
// are captured by Begin and never change until the next Begin.
type Attachment struct {
	Body           Body
	Frame          Frame
	PositionOffset mgl64.Vec3
	RotationOffset mgl64.Quat
	Target         mgl64.Vec3
	TargetRotation mgl64.Quat
	// Velocity is the displacement between the two latest targets. It is not
	// divided by elapsed time.
	Velocity mgl64.Vec3
}

// Grip is the Idle/Attached state machine. The attachment is only reachable
// while the state is Attached.
type Grip struct {
	name      string
	mode      FollowMode
	throw     Throw
	registry  *Registry
	log       *zap.Logger
	state     State
	att       Attachment
	onRelease func(Release)
}

func NewGrip(name string, mode FollowMode, throw Throw, reg *Registry, log *zap.Logger) *Grip {
	if log == nil {
		log = zap.NewNop()
	}
	if reg == nil {
		reg = NewRegistry(log)
	}
	return &Grip{
		name:     name,
		mode:     mode,
		throw:    throw,
		registry: reg,
		log:      log.With(zap.String("driver", name), zap.Stringer("mode", mode)),
	}
}

func (g *Grip) Name() string     { return g.name }
func (g *Grip) State() State     { return g.state }
func (g *Grip) Mode() FollowMode { return g.mode }
func (g *Grip) Throw() Throw     { return g.throw }

// OnRelease registers a callback invoked after every successful End.
func (g *Grip) OnRelease(fn func(Release)) { g.onRelease = fn }

// Attachment returns a copy of the current attachment.
func (g *Grip) Attachment() (Attachment, bool) {
	if g.state != Attached {
		return Attachment{}, false
	}
	return g.att, true
}

// Body returns the held body or nil.
func (g *Grip) Body() Body {
	if g.state != Attached {
		return nil
	}
	return g.att.Body
}

// Begin attaches body to frame, capturing the local offsets.
func (g *Grip) Begin(frame Frame, body Body) error {
	if body == nil {
		return g.refuse("", ErrNilBody)
	}
	if g.state == Attached {
		return g.refuse(body.ID(), ErrAlreadyAttached)
	}
	if !body.Valid() {
		return g.refuse(body.ID(), ErrStaleBody)
	}
	if !g.registry.Claim(body.ID(), g) {
		return g.refuse(body.ID(), ErrBodyHeld)
	}

	inv := frame.Rotation().Inverse()
	pos, rot := body.Position(), body.Rotation()
	g.att = Attachment{
		Body:           body,
		Frame:          frame,
		PositionOffset: inv.Rotate(pos.Sub(frame.Origin())),
		RotationOffset: inv.Mul(rot),
		Target:         pos,
		TargetRotation: rot,
	}
	g.state = Attached

	g.log.Debug("attached", zap.String("body", body.ID()))
	return nil
}

// Update recomputes the target pose from frame. A nil frame reuses the one
// given to Begin. It reports whether the grip is still attached.
func (g *Grip) Update(frame Frame) bool {
	if g.state != Attached {
		return false
	}
	if !g.att.Body.Valid() {
		g.abandon("body destroyed during update")
		return false
	}
	if frame == nil {
		frame = g.att.Frame
	}

	rot := frame.Rotation()
	target := rot.Rotate(g.att.PositionOffset).Add(frame.Origin())
	g.att.Velocity = target.Sub(g.att.Target)
	g.att.Target = target
	g.att.TargetRotation = rot.Mul(g.att.RotationOffset)
	return true
}

// ResetVelocity discards the current displacement sample.
func (g *Grip) ResetVelocity() {
	if g.state == Attached {
		g.att.Velocity = mgl64.Vec3{}
	}
}

// Apply writes the target pose to the body. Call once per physics step.
// Angular velocity is always zeroed.
func (g *Grip) Apply() bool {
	if g.state != Attached {
		return false
	}
	b := g.att.Body
	if !b.Valid() {
		g.abandon("body destroyed before physics step")
		return false
	}

	b.SetAngularVelocity(mgl64.Vec3{})
	switch g.mode {
	case FollowChase:
		b.SetLinearVelocity(g.att.Velocity)
	case FollowPin:
		b.SetLinearVelocity(mgl64.Vec3{})
	}
	b.MovePosition(g.att.Target)
	b.MoveRotation(g.att.TargetRotation)
	return true
}

// End releases the body with the clamped throw velocity. It is a no-op
// while Idle.
func (g *Grip) End() (Release, bool) {
	if g.state != Attached {
		return Release{}, false
	}
	b := g.att.Body
	if !b.Valid() {
		g.abandon("body destroyed before release")
		return Release{}, false
	}

	v := g.throw.Velocity(g.att.Velocity)
	b.SetLinearVelocity(v)
	rel := Release{Driver: g.name, Body: b.ID(), Velocity: v}
	g.clear()

	g.log.Debug("released", zap.String("body", rel.Body), zap.Float64("speed", rel.Speed()))
	if g.onRelease != nil {
		g.onRelease(rel)
	}
	return rel, true
}

func (g *Grip) abandon(reason string) {
	g.log.Warn("attachment dropped", zap.String("body", g.att.Body.ID()), zap.String("reason", reason))
	g.clear()
}

func (g *Grip) clear() {
	g.registry.Release(g.att.Body.ID(), g)
	g.att = Attachment{}
	g.state = Idle
}

func (g *Grip) refuse(body string, err error) error {
	g.log.Debug("grab refused", zap.String("body", body), zap.Error(err))
	return &RefusalError{Driver: g.name, Body: body, Wrapped: err}
}
