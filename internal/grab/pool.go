package grab

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/grabsim/internal/spatial"
	"go.uber.org/zap"
)

// DefaultTag is the classification a body needs to enter a Pool.
const DefaultTag = "Interactable"

// Pulse is the haptic request fired when an eligible body enters a Pool.
type Pulse struct {
	Amplitude  float64 `yaml:"haptic_amplitude"`
	DurationMs int     `yaml:"haptic_duration_ms"`
}

var DefaultPulse = Pulse{Amplitude: 0.5, DurationMs: 250}

// Pool is the set of eligible bodies in proximity of a controller, kept in
// insertion order.
type Pool struct {
	tag     string
	haptics HapticsSink
	pulse   Pulse
	bodies  []Body
	log     *zap.Logger
}

func NewPool(tag string, haptics HapticsSink, pulse Pulse, log *zap.Logger) *Pool {
	if log == nil {
		log = zap.NewNop()
	}
	if tag == "" {
		tag = DefaultTag
	}
	return &Pool{tag: tag, haptics: haptics, pulse: pulse, log: log}
}

// Enter adds body if it carries the pool's tag and pulses the haptics sink.
// A body already present is not added twice.
func (p *Pool) Enter(body Body) bool {
	if body == nil || body.Tag() != p.tag {
		return false
	}
	if p.index(body.ID()) < 0 {
		p.bodies = append(p.bodies, body)
	}
	if p.haptics != nil {
		p.haptics.Pulse(p.pulse.Amplitude, p.pulse.DurationMs)
	}
	p.log.Debug("proximity enter", zap.String("body", body.ID()), zap.Int("pool", len(p.bodies)))
	return true
}

// Exit removes body if present.
func (p *Pool) Exit(body Body) bool {
	if body == nil {
		return false
	}
	i := p.index(body.ID())
	if i < 0 {
		return false
	}
	p.bodies = append(p.bodies[:i], p.bodies[i+1:]...)
	p.log.Debug("proximity exit", zap.String("body", body.ID()), zap.Int("pool", len(p.bodies)))
	return true
}

// Nearest returns the valid body closest to origin, or nil when the pool is
// empty. Ties go to the body that entered first.
func (p *Pool) Nearest(origin mgl64.Vec3) Body { return p.NearestWhere(origin, nil) }

// NearestWhere is Nearest restricted to bodies for which keep returns true.
// A nil keep accepts every body.
func (p *Pool) NearestWhere(origin mgl64.Vec3, keep func(Body) bool) Body {
	var nearest Body
	min := math.MaxFloat64
	for _, b := range p.bodies {
		if !b.Valid() || (keep != nil && !keep(b)) {
			continue
		}
		if d := spatial.SqrDistance(b.Position(), origin); d < min {
			min = d
			nearest = b
		}
	}
	return nearest
}

func (p *Pool) Contains(body Body) bool {
	return body != nil && p.index(body.ID()) >= 0
}

func (p *Pool) Len() int { return len(p.bodies) }

// Bodies returns a copy of the pool contents in insertion order.
func (p *Pool) Bodies() []Body {
	out := make([]Body, len(p.bodies))
	copy(out, p.bodies)
	return out
}

// Clear empties the pool.
func (p *Pool) Clear() { p.bodies = nil }

func (p *Pool) index(id string) int {
	for i, b := range p.bodies {
		if b.ID() == id {
			return i
		}
	}
	return -1
}
