package physics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// RigidBody is a sphere with linear and angular state.
type RigidBody struct {
	id       string
	Name     string
	tag      string
	Mass     float64
	Radius   float64
	position mgl64.Vec3
	rotation mgl64.Quat
	velocity mgl64.Vec3
	angular  mgl64.Vec3

	movePos    mgl64.Vec3
	moveRot    mgl64.Quat
	hasMovePos bool
	hasMoveRot bool
	destroyed  bool
}

func NewRigidBody(name, tag string, pos mgl64.Vec3) *RigidBody {
	return &RigidBody{
		id:       uuid.NewString(),
		Name:     name,
		tag:      tag,
		Mass:     1,
		Radius:   0.25,
		position: pos,
		rotation: mgl64.QuatIdent(),
	}
}

func (b *RigidBody) ID() string           { return b.id }
func (b *RigidBody) Tag() string          { return b.tag }
func (b *RigidBody) Position() mgl64.Vec3 { return b.position }
func (b *RigidBody) Rotation() mgl64.Quat { return b.rotation }
func (b *RigidBody) Valid() bool          { return !b.destroyed }

func (b *RigidBody) LinearVelocity() mgl64.Vec3  { return b.velocity }
func (b *RigidBody) AngularVelocity() mgl64.Vec3 { return b.angular }

func (b *RigidBody) SetTag(tag string)               { b.tag = tag }
func (b *RigidBody) SetLinearVelocity(v mgl64.Vec3)  { b.velocity = v }
func (b *RigidBody) SetAngularVelocity(w mgl64.Vec3) { b.angular = w }

// SetPose teleports the body immediately. Used for scene setup.
func (b *RigidBody) SetPose(pos mgl64.Vec3, rot mgl64.Quat) {
	b.position = pos
	b.rotation = rot.Normalize()
}

// MovePosition queues a kinematic move applied by the next step.
func (b *RigidBody) MovePosition(p mgl64.Vec3) {
	b.movePos = p
	b.hasMovePos = true
}

// MoveRotation queues a kinematic rotation applied by the next step.
func (b *RigidBody) MoveRotation(q mgl64.Quat) {
	b.moveRot = q
	b.hasMoveRot = true
}

// Speed is the magnitude of the linear velocity.
func (b *RigidBody) Speed() float64 { return b.velocity.Len() }
