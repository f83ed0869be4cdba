package grab

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/grabsim/internal/spatial"
)

type fakeBody struct {
	id, tag   string
	pos       mgl64.Vec3
	rot       mgl64.Quat
	vel, ang  mgl64.Vec3
	angWrites []mgl64.Vec3
	velWrites []mgl64.Vec3
	moves     int
	destroyed bool
}

func newBody(id string, pos mgl64.Vec3) *fakeBody {
	return &fakeBody{id: id, tag: DefaultTag, pos: pos, rot: mgl64.QuatIdent()}
}

func (b *fakeBody) ID() string           { return b.id }
func (b *fakeBody) Tag() string          { return b.tag }
func (b *fakeBody) Position() mgl64.Vec3 { return b.pos }
func (b *fakeBody) Rotation() mgl64.Quat { return b.rot }
func (b *fakeBody) Valid() bool          { return !b.destroyed }

func (b *fakeBody) SetLinearVelocity(v mgl64.Vec3) {
	b.vel = v
	b.velWrites = append(b.velWrites, v)
}

func (b *fakeBody) SetAngularVelocity(w mgl64.Vec3) {
	b.ang = w
	b.angWrites = append(b.angWrites, w)
}

func (b *fakeBody) MovePosition(p mgl64.Vec3) {
	b.pos = p
	b.moves++
}

func (b *fakeBody) MoveRotation(q mgl64.Quat) { b.rot = q }

type fakeFrame struct {
	rot    mgl64.Quat
	origin mgl64.Vec3
}

func frameAt(origin mgl64.Vec3) *fakeFrame {
	return &fakeFrame{rot: mgl64.QuatIdent(), origin: origin}
}

func (f *fakeFrame) Rotation() mgl64.Quat { return f.rot }
func (f *fakeFrame) Origin() mgl64.Vec3   { return f.origin }

// fakeCamera looks down +Z from z=-10 with a linear screen mapping of 100
// pixels per unit; depth is distance along Z.
type fakeCamera struct{}

func (fakeCamera) Rotation() mgl64.Quat { return mgl64.QuatIdent() }

func (fakeCamera) WorldToScreen(p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{p[0] * 100, p[1] * 100, p[2] + 10}
}

func (fakeCamera) ScreenToWorld(s mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{s[0] / 100, s[1] / 100, s[2] - 10}
}

type fakeCameras []Camera

func (c fakeCameras) EnabledCameras() []Camera { return c }

type fakePointer struct{ pos mgl64.Vec2 }

func (p *fakePointer) PointerPosition() mgl64.Vec2 { return p.pos }

type pulse struct {
	amp float64
	ms  int
}

type fakeController struct {
	pose   spatial.Pose
	held   map[string]bool
	prev   map[string]bool
	axes   map[string]float64
	pulses []pulse
}

func newController() *fakeController {
	return &fakeController{
		pose: spatial.Identity(),
		held: map[string]bool{},
		prev: map[string]bool{},
		axes: map[string]float64{},
	}
}

func (c *fakeController) Button(n string) bool      { return c.held[n] }
func (c *fakeController) ButtonDown(n string) bool  { return c.held[n] && !c.prev[n] }
func (c *fakeController) ButtonUp(n string) bool    { return !c.held[n] && c.prev[n] }
func (c *fakeController) Axis(n string) float64     { return c.axes[n] }
func (c *fakeController) Pose() spatial.Pose        { return c.pose }
func (c *fakeController) Pulse(amp float64, ms int) { c.pulses = append(c.pulses, pulse{amp, ms}) }

// endFrame latches button state so the next frame sees no edges.
func (c *fakeController) endFrame() {
	for k, v := range c.held {
		c.prev[k] = v
	}
}

type fakeAnim struct {
	state string
	times []float64
}

func (a *fakeAnim) Play(state string, t float64) {
	a.state = state
	a.times = append(a.times, t)
}
