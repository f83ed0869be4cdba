package scenario

import (
	"fmt"
	"sort"
)

// Playground is an open scene with no script, meant for interactive use.
const Playground = "playground"

func f64(v float64) *float64 { return &v }

var Presets = map[string]*Scenario{
	"controller-throw": {
		Name:        "controller-throw",
		Description: "trigger grab, 2 m swing in one frame, release clamps 40 m/s to 5",
		Duration:    0.4,
		FrameDt:     0.02,
		Gravity:     f64(0),
		Bodies:      []BodySpec{{Name: "crate", Tag: "Interactable", Position: []float64{0, 1, 0}}},
		Controllers: []ControllerSpec{{Name: "right", Position: []float64{0, 1, 0}}},
		Events: []Event{
			{At: 0.02, Type: Button, Target: "right", Control: "Trigger", Pressed: true},
			{At: 0.04, Type: ControllerPose, Target: "right", Position: []float64{0, 1, 0}},
			{At: 0.06, Type: ControllerPose, Target: "right", Position: []float64{0, 1, 2}},
			{At: 0.08, Type: Button, Target: "right", Control: "Trigger", Pressed: false},
		},
		Expect: &Expectation{
			Releases: []ReleaseExpect{{Driver: "right", Body: "crate", Speed: 5, Direction: []float64{0, 0, 1}}},
			Pulses:   map[string]int{"right": 1},
		},
	},
	"pointer-drag": {
		Name:        "pointer-drag",
		Description: "mouse drag 100 px to the right at constant depth, then let go",
		Duration:    0.6,
		FrameDt:     0.016,
		Bodies:      []BodySpec{{Name: "crate", Tag: "Interactable", Position: []float64{0, 1, 0}}},
		Cameras:     []CameraSpec{{Name: "main", Position: []float64{0, 1, -5}, LookAt: []float64{0, 1, 0}}},
		Pointer:     &PointerSpec{Name: "mouse"},
		Events: []Event{
			{At: 0.1, Type: PointerDown, Body: "crate", Screen: []float64{640, 360}},
			{At: 0.1, Type: PointerMove, Screen: []float64{640, 360}},
			{At: 0.3, Type: PointerMove, Screen: []float64{740, 360}},
			{At: 0.3, Type: PointerUp},
		},
		Expect: &Expectation{
			Releases: []ReleaseExpect{{Driver: "mouse", Body: "crate", Speed: 0.6415, Direction: []float64{1, 0, 0}, Tolerance: 0.001}},
		},
	},
	"nearest-pick": {
		Name:        "nearest-pick",
		Description: "three tagged bodies and an untagged one in reach; grip picks the closest tagged",
		Duration:    0.3,
		FrameDt:     0.02,
		Gravity:     f64(0),
		Bodies: []BodySpec{
			{Name: "A", Tag: "Interactable", Position: []float64{0.12, 1, 0}, Radius: 0.05},
			{Name: "B", Tag: "Interactable", Position: []float64{0.04, 1, 0}, Radius: 0.05},
			{Name: "C", Tag: "Interactable", Position: []float64{0, 1, 0.08}, Radius: 0.05},
			{Name: "decor", Position: []float64{0.01, 1, 0}, Radius: 0.05},
		},
		Controllers: []ControllerSpec{{Name: "left", Position: []float64{0, 1, 0}, TriggerRadius: 0.1}},
		Events: []Event{
			{At: 0.02, Type: Axis, Target: "left", Control: "Grip", Value: 0.6},
			{At: 0.04, Type: Button, Target: "left", Control: "Grip", Pressed: true},
			{At: 0.06, Type: ControllerPose, Target: "left", Position: []float64{0, 1, 0}},
			{At: 0.08, Type: ControllerPose, Target: "left", Position: []float64{0, 1.05, 0}},
			{At: 0.1, Type: Button, Target: "left", Control: "Grip", Pressed: false},
		},
		Expect: &Expectation{
			Releases:  []ReleaseExpect{{Driver: "left", Body: "B", Speed: 1, Direction: []float64{0, 1, 0}}},
			NeverHeld: []string{"A", "C", "decor"},
			Pulses:    map[string]int{"left": 3},
		},
	},
	"ambiguous-camera": {
		Name:        "ambiguous-camera",
		Description: "two enabled cameras refuse the drag until one is switched off",
		Duration:    0.4,
		FrameDt:     0.02,
		Gravity:     f64(0),
		Bodies:      []BodySpec{{Name: "crate", Tag: "Interactable", Position: []float64{0, 1, 0}}},
		Cameras: []CameraSpec{
			{Name: "main", Position: []float64{0, 1, -5}, LookAt: []float64{0, 1, 0}},
			{Name: "side", Position: []float64{5, 1, 0}, LookAt: []float64{0, 1, 0}},
		},
		Pointer: &PointerSpec{Name: "mouse"},
		Events: []Event{
			{At: 0.04, Type: PointerDown, Body: "crate"},
			{At: 0.08, Type: PointerUp},
			{At: 0.1, Type: CameraToggle, Camera: "side", Enabled: false},
			{At: 0.14, Type: PointerDown, Body: "crate"},
			{At: 0.3, Type: PointerUp},
		},
		Expect: &Expectation{
			Releases: []ReleaseExpect{{Driver: "mouse", Body: "crate", Speed: 0}},
		},
	},
	"contested-body": {
		Name:        "contested-body",
		Description: "controller holds the crate; the mouse cannot take it",
		Duration:    0.3,
		FrameDt:     0.02,
		Gravity:     f64(0),
		Bodies:      []BodySpec{{Name: "crate", Tag: "Interactable", Position: []float64{0, 1, 0}}},
		Cameras:     []CameraSpec{{Name: "main", Position: []float64{0, 1, -5}, LookAt: []float64{0, 1, 0}}},
		Controllers: []ControllerSpec{{Name: "right", Position: []float64{0, 1, 0}}},
		Pointer:     &PointerSpec{Name: "mouse"},
		Events: []Event{
			{At: 0.02, Type: Button, Target: "right", Control: "Trigger", Pressed: true},
			{At: 0.1, Type: PointerDown, Body: "crate"},
			{At: 0.12, Type: PointerUp},
			{At: 0.2, Type: Button, Target: "right", Control: "Trigger", Pressed: false},
		},
		Expect: &Expectation{
			Releases: []ReleaseExpect{{Driver: "right", Body: "crate", Speed: 0}},
		},
	},
	"stale-body": {
		Name:        "stale-body",
		Description: "held crate is destroyed; the grip lets go without a throw",
		Duration:    0.3,
		FrameDt:     0.02,
		Gravity:     f64(0),
		Bodies: []BodySpec{
			{Name: "crate", Tag: "Interactable", Position: []float64{0, 1, 0}},
			{Name: "spare", Tag: "Interactable", Position: []float64{3, 1, 0}},
		},
		Controllers: []ControllerSpec{{Name: "right", Position: []float64{0, 1, 0}}},
		Events: []Event{
			{At: 0.02, Type: Button, Target: "right", Control: "Trigger", Pressed: true},
			{At: 0.1, Type: Destroy, Body: "crate"},
			{At: 0.2, Type: Button, Target: "right", Control: "Trigger", Pressed: false},
		},
		Expect: &Expectation{NeverHeld: []string{"spare"}},
	},
	"disable-drop": {
		Name:        "disable-drop",
		Description: "disabling the controller mid-swing throws the held body",
		Duration:    0.3,
		FrameDt:     0.02,
		Gravity:     f64(0),
		Bodies:      []BodySpec{{Name: "crate", Tag: "Interactable", Position: []float64{0, 1, 0}}},
		Controllers: []ControllerSpec{{Name: "right", Position: []float64{0, 1, 0}}},
		Events: []Event{
			{At: 0.02, Type: Button, Target: "right", Control: "Trigger", Pressed: true},
			{At: 0.04, Type: ControllerPose, Target: "right", Position: []float64{0, 1, 0}},
			{At: 0.06, Type: ControllerPose, Target: "right", Position: []float64{0.1, 1, 0}},
			{At: 0.08, Type: Disable, Target: "right"},
		},
		Expect: &Expectation{
			Releases: []ReleaseExpect{{Driver: "right", Body: "crate", Speed: 2, Direction: []float64{1, 0, 0}}},
		},
	},
	Playground: {
		Name:        Playground,
		Description: "a few crates on the ground, a mouse and a hand, no script",
		Duration:    60,
		Bodies: []BodySpec{
			{Name: "crate", Tag: "Interactable", Position: []float64{0, 0.15, 0}, Radius: 0.15},
			{Name: "ball", Tag: "Interactable", Position: []float64{0.6, 0.1, 0.4}, Radius: 0.1, Mass: 0.5},
			{Name: "block", Tag: "Interactable", Position: []float64{-0.6, 0.15, 0.5}, Radius: 0.15, Mass: 2},
			{Name: "pillar", Position: []float64{1.2, 0.3, 1}, Radius: 0.3},
		},
		Cameras:     []CameraSpec{{Name: "main", Position: []float64{0, 2, -6}, LookAt: []float64{0, 0.5, 0}}},
		Controllers: []ControllerSpec{{Name: "hand", Position: []float64{-1, 1, 0}}},
		Pointer:     &PointerSpec{Name: "mouse"},
	},
}

// Preset returns a fresh copy of a built-in scenario and its YAML source.
func Preset(name string) (*Scenario, []byte, error) {
	p, ok := Presets[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	src, err := p.Marshal()
	if err != nil {
		return nil, nil, err
	}
	sc, err := Parse(src)
	if err != nil {
		return nil, nil, fmt.Errorf("preset %s: %w", name, err)
	}
	return sc, src, nil
}

func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
