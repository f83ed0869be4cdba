package physics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/grabsim/internal/spatial"
)

// Trigger is a sphere volume that reports bodies entering and leaving it.
// The center is read from a function so the volume can follow a controller.
type Trigger struct {
	Radius  float64
	Center  func() mgl64.Vec3
	OnEnter func(*RigidBody)
	OnExit  func(*RigidBody)

	inside map[string]*RigidBody
	order  []string
}

func NewTrigger(radius float64, center func() mgl64.Vec3) *Trigger {
	return &Trigger{Radius: radius, Center: center, inside: make(map[string]*RigidBody)}
}

// Sync compares current overlaps against the previous call and fires
// OnEnter/OnExit. Bodies removed from the world count as exits.
func (t *Trigger) Sync(w *World) {
	c := t.Center()
	seen := make(map[string]bool, len(t.inside))

	for _, b := range w.bodies {
		r := t.Radius + b.Radius
		if spatial.SqrDistance(c, b.position) > r*r {
			continue
		}
		seen[b.id] = true
		if _, ok := t.inside[b.id]; ok {
			continue
		}
		t.inside[b.id] = b
		t.order = append(t.order, b.id)
		if t.OnEnter != nil {
			t.OnEnter(b)
		}
	}

	kept := t.order[:0]
	for _, id := range t.order {
		if seen[id] {
			kept = append(kept, id)
			continue
		}
		b := t.inside[id]
		delete(t.inside, id)
		if t.OnExit != nil {
			t.OnExit(b)
		}
	}
	t.order = kept
}

// Contains reports whether b overlapped the volume at the last Sync.
func (t *Trigger) Contains(b *RigidBody) bool {
	_, ok := t.inside[b.id]
	return ok
}

func (t *Trigger) Len() int { return len(t.inside) }

// Reset forgets current overlaps without firing exits. The next Sync
// reports every overlapping body as entering again.
func (t *Trigger) Reset() {
	clear(t.inside)
	t.order = t.order[:0]
}
