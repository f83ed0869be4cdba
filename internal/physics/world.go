package physics

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// Settings configures a World.
type Settings struct {
	Gravity     float64
	Restitution float64
	// Friction is the fraction of horizontal speed lost per second while a
	// body rests on the ground.
	Friction float64
	Ground   bool
}

func DefaultSettings() Settings {
	return Settings{Gravity: -9.81, Restitution: 0.3, Friction: 2.0, Ground: true}
}

// restSpeed is the bounce speed below which a grounded body stops bouncing.
const restSpeed = 0.05

// World owns the bodies of a scene, in insertion order.
type World struct {
	settings Settings
	bodies   []*RigidBody
	byID     map[string]*RigidBody
	time     float64
	steps    int
	log      *zap.Logger
}

func NewWorld(s Settings, log *zap.Logger) *World {
	if log == nil {
		log = zap.NewNop()
	}
	return &World{settings: s, byID: make(map[string]*RigidBody), log: log}
}

func (w *World) Settings() Settings { return w.settings }
func (w *World) Time() float64      { return w.time }
func (w *World) Steps() int         { return w.steps }

// Add registers b and returns it.
func (w *World) Add(b *RigidBody) *RigidBody {
	w.bodies = append(w.bodies, b)
	w.byID[b.id] = b
	return b
}

// Bodies returns the live bodies in insertion order.
func (w *World) Bodies() []*RigidBody {
	out := make([]*RigidBody, len(w.bodies))
	copy(out, w.bodies)
	return out
}

func (w *World) Body(id string) *RigidBody { return w.byID[id] }

// ByName returns the first live body named name.
func (w *World) ByName(name string) *RigidBody {
	for _, b := range w.bodies {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// Destroy removes the body and marks it invalid so stale references can
// detect it.
func (w *World) Destroy(id string) bool {
	b, ok := w.byID[id]
	if !ok {
		return false
	}
	b.destroyed = true
	delete(w.byID, id)
	for i, o := range w.bodies {
		if o == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			break
		}
	}
	w.log.Debug("body destroyed", zap.String("body", id), zap.String("name", b.Name))
	return true
}

// Step advances every body by dt.
func (w *World) Step(dt float64) {
	g := mgl64.Vec3{0, w.settings.Gravity, 0}
	for _, b := range w.bodies {
		w.stepBody(b, g, dt)
	}
	w.time += dt
	w.steps++
}

func (w *World) stepBody(b *RigidBody, g mgl64.Vec3, dt float64) {
	moved := b.hasMovePos || b.hasMoveRot
	if b.hasMovePos {
		b.position = b.movePos
		b.hasMovePos = false
	}
	if b.hasMoveRot {
		b.rotation = b.moveRot.Normalize()
		b.hasMoveRot = false
	}
	if moved {
		return
	}

	b.position, b.velocity = integrateLinear(b.position, b.velocity, g, dt)
	b.rotation = integrateAngular(b.rotation, b.angular, dt)

	if w.settings.Ground {
		w.collideGround(b, dt)
	}
}

func (w *World) collideGround(b *RigidBody, dt float64) {
	floor := b.Radius
	if b.position[1] > floor {
		return
	}
	b.position[1] = floor
	if b.velocity[1] < 0 {
		b.velocity[1] = -b.velocity[1] * w.settings.Restitution
		if b.velocity[1] < restSpeed {
			b.velocity[1] = 0
		}
	}
	k := 1 - w.settings.Friction*dt
	if k < 0 {
		k = 0
	}
	b.velocity[0] *= k
	b.velocity[2] *= k
}
