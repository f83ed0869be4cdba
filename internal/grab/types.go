package grab

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/grabsim/internal/spatial"
)

// Body is a rigid body owned by the scene. Drivers only ever hold a
// non-owning reference to it while attached.
type Body interface {
	ID() string
	Tag() string
	Position() mgl64.Vec3
	Rotation() mgl64.Quat
	SetLinearVelocity(v mgl64.Vec3)
	SetAngularVelocity(w mgl64.Vec3)
	MovePosition(p mgl64.Vec3)
	MoveRotation(q mgl64.Quat)
	// Valid reports false once the body has been destroyed.
	Valid() bool
}

// Frame is the reference whose pose drives a held body.
type Frame interface {
	Rotation() mgl64.Quat
	// Origin is the world point the position offset is measured from.
	Origin() mgl64.Vec3
}

// Camera projects between world space and screen space. Screen coordinates
// carry the depth along the view axis in Z.
type Camera interface {
	Rotation() mgl64.Quat
	WorldToScreen(p mgl64.Vec3) mgl64.Vec3
	ScreenToWorld(s mgl64.Vec3) mgl64.Vec3
}

// CameraSource enumerates the currently enabled cameras.
type CameraSource interface {
	EnabledCameras() []Camera
}

// PointerSource reports the live pointer position in screen space.
type PointerSource interface {
	PointerPosition() mgl64.Vec2
}

// ControllerInput is a tracked controller: named digital buttons with
// per-frame edges, named analog axes and a world pose.
type ControllerInput interface {
	Button(name string) bool
	ButtonDown(name string) bool
	ButtonUp(name string) bool
	Axis(name string) float64
	Pose() spatial.Pose
}

// HapticsSink accepts fire-and-forget vibration requests.
type HapticsSink interface {
	Pulse(amplitude float64, durationMs int)
}

// AnimationSink accepts a normalized playback time for a named state.
type AnimationSink interface {
	Play(state string, normalizedTime float64)
}

// Throw converts the per-update displacement into a release velocity.
type Throw struct {
	Scale    float64 `yaml:"throw_scale"`
	MaxSpeed float64 `yaml:"max_throw_speed"`
}

// Velocity returns the clamped release velocity for a displacement.
func (t Throw) Velocity(displacement mgl64.Vec3) mgl64.Vec3 {
	return spatial.ClampMagnitude(displacement.Mul(t.Scale), t.MaxSpeed)
}

var (
	PointerThrow    = Throw{Scale: 10, MaxSpeed: 5}
	ControllerThrow = Throw{Scale: 20, MaxSpeed: 5}
)

// Release describes a completed throw.
type Release struct {
	Driver   string
	Body     string
	Velocity mgl64.Vec3
}

// Speed is the magnitude of the release velocity.
func (r Release) Speed() float64 {
	return r.Velocity.Len()
}
