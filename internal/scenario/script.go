package scenario

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/grabsim/internal/spatial"
	"go.uber.org/zap"
)

const timeEps = 1e-9

type poseKey struct {
	at   float64
	pose spatial.Pose
}

type screenKey struct {
	at     float64
	screen mgl64.Vec2
}

// Script replays a scenario timeline as scene input. Discrete events fire
// once when their time is reached; controller poses and pointer positions
// are interpolated between keyframes.
type Script struct {
	scene   *Scene
	events  []Event
	next    int
	poses   map[string][]poseKey
	pointer []screenKey
	log     *zap.Logger
}

func newScript(s *Scene, events []Event) (*Script, error) {
	sc := &Script{
		scene:  s,
		poses:  make(map[string][]poseKey),
		log:    s.log,
		events: make([]Event, 0, len(events)),
	}

	for i, ev := range events {
		switch ev.Type {
		case ControllerPose:
			c, ok := s.Controller(ev.Target)
			if !ok {
				return nil, fmt.Errorf("%w: event %d: unknown controller %q", ErrInvalid, i, ev.Target)
			}
			pose := spatial.Pose{Position: vec3(ev.Position), Rotation: euler(ev.Rotation)}
			sc.poses[c.Device.Name] = append(sc.poses[c.Device.Name], poseKey{at: ev.At, pose: pose})
			continue
		case PointerMove:
			if s.Pointer == nil {
				return nil, fmt.Errorf("%w: event %d: scene has no pointer", ErrInvalid, i)
			}
			sc.pointer = append(sc.pointer, screenKey{at: ev.At, screen: vec2(ev.Screen)})
			continue
		case PointerDown, PointerUp:
			if s.Pointer == nil {
				return nil, fmt.Errorf("%w: event %d: scene has no pointer", ErrInvalid, i)
			}
		case Button, Axis:
			if _, ok := s.Controller(ev.Target); !ok {
				return nil, fmt.Errorf("%w: event %d: unknown controller %q", ErrInvalid, i, ev.Target)
			}
		case Disable, Enable:
			if _, ok := s.driver(ev.Target); !ok {
				return nil, fmt.Errorf("%w: event %d: unknown driver %q", ErrInvalid, i, ev.Target)
			}
		case CameraToggle:
			if s.Rig.Get(ev.Camera) == nil {
				return nil, fmt.Errorf("%w: event %d: unknown camera %q", ErrInvalid, i, ev.Camera)
			}
		}
		sc.events = append(sc.events, ev)
	}
	return sc, nil
}

type toggler interface {
	Enable()
	Disable()
}

func (s *Scene) driver(name string) (toggler, bool) {
	if s.Pointer != nil && name == s.Pointer.Driver.Grip().Name() {
		return s.Pointer.Driver, true
	}
	if c, ok := s.Controller(name); ok {
		return c, true
	}
	return nil, false
}

// Pending reports how many discrete events have not fired yet.
func (sc *Script) Pending() int { return len(sc.events) - sc.next }

// Advance applies tracks and due events for frame time t.
func (sc *Script) Advance(t float64) {
	for name, keys := range sc.poses {
		if pose, ok := samplePose(keys, t); ok {
			sc.scene.Controllers[name].Device.SetPose(pose)
		}
	}
	if p, ok := sampleScreen(sc.pointer, t); ok {
		sc.scene.Pointer.Device.SetPosition(p[0], p[1])
	}

	for sc.next < len(sc.events) && sc.events[sc.next].At <= t+timeEps {
		sc.apply(sc.events[sc.next])
		sc.next++
	}
}

// EndFrame latches device buttons so edges last one frame.
func (sc *Script) EndFrame() {
	for _, c := range sc.scene.Controllers {
		c.Device.EndFrame()
	}
	if sc.scene.Pointer != nil {
		sc.scene.Pointer.Device.EndFrame()
	}
}

func (sc *Script) apply(ev Event) {
	s := sc.scene
	sc.log.Debug("event", zap.Float64("at", ev.At), zap.String("type", ev.Type))

	switch ev.Type {
	case PointerDown:
		p := s.Pointer
		body := s.World.ByName(ev.Body)
		if len(ev.Screen) == 2 {
			p.Device.SetPosition(ev.Screen[0], ev.Screen[1])
		} else if cam := s.Rig.Main(); cam != nil && body != nil {
			at := cam.WorldToScreen(body.Position())
			p.Device.SetPosition(at[0], at[1])
		}
		p.Device.SetButton(true)
		if body == nil {
			sc.log.Debug("pointer down over nothing")
			return
		}
		p.Driver.PointerDown(body)
	case PointerUp:
		s.Pointer.Device.SetButton(false)
		s.Pointer.Driver.PointerUp()
	case Button:
		c, _ := s.Controller(ev.Target)
		c.Device.SetButton(ev.Control, ev.Pressed)
	case Axis:
		c, _ := s.Controller(ev.Target)
		c.Device.SetAxis(ev.Control, ev.Value)
	case Destroy:
		if b := s.World.ByName(ev.Body); b != nil {
			s.World.Destroy(b.ID())
		}
	case Disable:
		d, _ := s.driver(ev.Target)
		d.Disable()
	case Enable:
		d, _ := s.driver(ev.Target)
		d.Enable()
	case CameraToggle:
		s.Rig.Get(ev.Camera).Enabled = ev.Enabled
	}
}

// samplePose interpolates keyframes at t. Before the first keyframe there
// is nothing to apply.
func samplePose(keys []poseKey, t float64) (spatial.Pose, bool) {
	if len(keys) == 0 || t < keys[0].at-timeEps {
		return spatial.Pose{}, false
	}
	for i := 1; i < len(keys); i++ {
		a, b := keys[i-1], keys[i]
		if t >= b.at-timeEps {
			continue
		}
		span := b.at - a.at
		if span <= 0 {
			return b.pose, true
		}
		return a.pose.Lerp(b.pose, (t-a.at)/span), true
	}
	return keys[len(keys)-1].pose, true
}

func sampleScreen(keys []screenKey, t float64) (mgl64.Vec2, bool) {
	if len(keys) == 0 || t < keys[0].at-timeEps {
		return mgl64.Vec2{}, false
	}
	for i := 1; i < len(keys); i++ {
		a, b := keys[i-1], keys[i]
		if t >= b.at-timeEps {
			continue
		}
		span := b.at - a.at
		if span <= 0 {
			return b.screen, true
		}
		f := (t - a.at) / span
		return a.screen.Add(b.screen.Sub(a.screen).Mul(f)), true
	}
	return keys[len(keys)-1].screen, true
}
