// Package scenario describes grab scenes in YAML: the bodies, cameras and
// tracked devices in a scene, a timeline of input events and the releases
// the run is expected to produce. Build turns a Scenario into a runnable
// Scene.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/grabsim/internal/spatial"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalid       = errors.New("scenario: invalid")
	ErrUnknownPreset = errors.New("scenario: unknown preset")
)

// Event types.
const (
	PointerDown    = "pointer_down"
	PointerMove    = "pointer_move"
	PointerUp      = "pointer_up"
	ControllerPose = "controller_pose"
	Button         = "button"
	Axis           = "axis"
	Destroy        = "destroy"
	Disable        = "disable"
	Enable         = "enable"
	CameraToggle   = "camera"
)

var eventTypes = map[string]bool{
	PointerDown: true, PointerMove: true, PointerUp: true, ControllerPose: true,
	Button: true, Axis: true, Destroy: true, Disable: true, Enable: true, CameraToggle: true,
}

type Scenario struct {
	Name          string           `yaml:"name"`
	Description   string           `yaml:"description,omitempty"`
	Duration      float64          `yaml:"duration"`
	FrameDt       float64          `yaml:"frame_dt,omitempty"`
	FrameSchedule []float64        `yaml:"frame_schedule,omitempty"`
	Gravity       *float64         `yaml:"gravity,omitempty"`
	Ground        *bool            `yaml:"ground,omitempty"`
	Bodies        []BodySpec       `yaml:"bodies"`
	Cameras       []CameraSpec     `yaml:"cameras,omitempty"`
	Controllers   []ControllerSpec `yaml:"controllers,omitempty"`
	Pointer       *PointerSpec     `yaml:"pointer,omitempty"`
	Events        []Event          `yaml:"events,omitempty"`
	Expect        *Expectation     `yaml:"expect,omitempty"`
}

type BodySpec struct {
	Name     string    `yaml:"name"`
	Tag      string    `yaml:"tag,omitempty"`
	Position []float64 `yaml:"position"`
	Rotation []float64 `yaml:"rotation,omitempty"`
	Radius   float64   `yaml:"radius,omitempty"`
	Mass     float64   `yaml:"mass,omitempty"`
}

type CameraSpec struct {
	Name     string    `yaml:"name"`
	Position []float64 `yaml:"position"`
	LookAt   []float64 `yaml:"look_at"`
	FOV      float64   `yaml:"fov,omitempty"`
	Disabled bool      `yaml:"disabled,omitempty"`
}

type ControllerSpec struct {
	Name          string    `yaml:"name"`
	Position      []float64 `yaml:"position,omitempty"`
	Rotation      []float64 `yaml:"rotation,omitempty"`
	TriggerRadius float64   `yaml:"trigger_radius,omitempty"`
}

type PointerSpec struct {
	Name   string    `yaml:"name"`
	Screen []float64 `yaml:"screen,omitempty"`
}

// Event is one timeline entry. Which fields apply depends on Type.
type Event struct {
	At       float64   `yaml:"at"`
	Type     string    `yaml:"type"`
	Target   string    `yaml:"target,omitempty"`
	Body     string    `yaml:"body,omitempty"`
	Screen   []float64 `yaml:"screen,omitempty"`
	Position []float64 `yaml:"position,omitempty"`
	Rotation []float64 `yaml:"rotation,omitempty"`
	Control  string    `yaml:"control,omitempty"`
	Pressed  bool      `yaml:"pressed,omitempty"`
	Value    float64   `yaml:"value,omitempty"`
	Camera   string    `yaml:"camera,omitempty"`
	Enabled  bool      `yaml:"enabled,omitempty"`
}

func Load(path string) (*Scenario, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, data, nil
}

func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Marshal encodes the scenario as YAML.
func (sc *Scenario) Marshal() ([]byte, error) {
	return yaml.Marshal(sc)
}

func (sc *Scenario) Validate() error {
	if sc.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalid, sc.Duration)
	}
	if sc.FrameDt < 0 {
		return fmt.Errorf("%w: frame_dt must not be negative", ErrInvalid)
	}

	names := make(map[string]bool)
	for _, b := range sc.Bodies {
		if b.Name == "" {
			return fmt.Errorf("%w: body without a name", ErrInvalid)
		}
		if names[b.Name] {
			return fmt.Errorf("%w: duplicate body %q", ErrInvalid, b.Name)
		}
		names[b.Name] = true
		if err := checkVec(b.Position, 3, "body "+b.Name+" position"); err != nil {
			return err
		}
		if err := checkVec(b.Rotation, 3, "body "+b.Name+" rotation"); err != nil {
			return err
		}
	}
	for _, c := range sc.Cameras {
		if err := checkVec(c.Position, 3, "camera "+c.Name+" position"); err != nil {
			return err
		}
		if err := checkVec(c.LookAt, 3, "camera "+c.Name+" look_at"); err != nil {
			return err
		}
	}
	drivers := make(map[string]bool)
	for _, c := range sc.Controllers {
		if c.Name == "" {
			return fmt.Errorf("%w: controller without a name", ErrInvalid)
		}
		if drivers[c.Name] {
			return fmt.Errorf("%w: duplicate controller %q", ErrInvalid, c.Name)
		}
		drivers[c.Name] = true
		if err := checkVec(c.Position, 3, "controller "+c.Name+" position"); err != nil {
			return err
		}
	}
	if name, ok := sc.pointerName(); ok && drivers[name] {
		return fmt.Errorf("%w: pointer %q shares a controller's name", ErrInvalid, name)
	}

	for i, ev := range sc.Events {
		if !eventTypes[ev.Type] {
			return fmt.Errorf("%w: event %d: unknown type %q", ErrInvalid, i, ev.Type)
		}
		if ev.At < 0 {
			return fmt.Errorf("%w: event %d: negative time", ErrInvalid, i)
		}
		if err := checkVec(ev.Screen, 2, fmt.Sprintf("event %d screen", i)); err != nil {
			return err
		}
		if err := checkVec(ev.Position, 3, fmt.Sprintf("event %d position", i)); err != nil {
			return err
		}
		switch ev.Type {
		case PointerMove:
			if len(ev.Screen) == 0 {
				return fmt.Errorf("%w: event %d: pointer_move needs screen", ErrInvalid, i)
			}
		case Button, Axis:
			if ev.Control == "" {
				return fmt.Errorf("%w: event %d: %s needs control", ErrInvalid, i, ev.Type)
			}
		case Destroy:
			if !names[ev.Body] {
				return fmt.Errorf("%w: event %d: unknown body %q", ErrInvalid, i, ev.Body)
			}
		}
	}
	return nil
}

// pointerName is the name the scene's pointer driver will get, if the
// scenario has one.
func (sc *Scenario) pointerName() (string, bool) {
	if sc.Pointer == nil && len(sc.Cameras) == 0 {
		return "", false
	}
	if sc.Pointer != nil && sc.Pointer.Name != "" {
		return sc.Pointer.Name, true
	}
	return DefaultPointer, true
}

// SortedEvents returns the events ordered by time, keeping file order for
// equal times.
func (sc *Scenario) SortedEvents() []Event {
	out := make([]Event, len(sc.Events))
	copy(out, sc.Events)
	sort.SliceStable(out, func(i, j int) bool { return out[i].At < out[j].At })
	return out
}

func checkVec(v []float64, n int, what string) error {
	if len(v) != 0 && len(v) != n {
		return fmt.Errorf("%w: %s needs %d components, got %d", ErrInvalid, what, n, len(v))
	}
	return nil
}

func vec3(v []float64) mgl64.Vec3 {
	if len(v) != 3 {
		return mgl64.Vec3{}
	}
	return mgl64.Vec3{v[0], v[1], v[2]}
}

func vec2(v []float64) mgl64.Vec2 {
	if len(v) != 2 {
		return mgl64.Vec2{}
	}
	return mgl64.Vec2{v[0], v[1]}
}

func euler(v []float64) mgl64.Quat {
	if len(v) != 3 {
		return mgl64.QuatIdent()
	}
	return spatial.Euler(v[0], v[1], v[2])
}
