// Package xr models tracked input devices: a hand controller with named
// buttons, analog axes, a world pose and a haptic motor, the hand animation
// it drives, and a screen pointer.
package xr

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/grabsim/internal/spatial"
)

// Pulse is one haptic request received by a controller.
type Pulse struct {
	Amplitude  float64
	DurationMs int
}

// Controller keeps button state for the current and previous frame so edges
// can be queried until EndFrame is called.
type Controller struct {
	Name string

	held   map[string]bool
	prev   map[string]bool
	axes   map[string]float64
	pose   spatial.Pose
	pulses []Pulse
}

func NewController(name string) *Controller {
	return &Controller{
		Name: name,
		held: make(map[string]bool),
		prev: make(map[string]bool),
		axes: make(map[string]float64),
		pose: spatial.Identity(),
	}
}

func (c *Controller) SetButton(name string, down bool) { c.held[name] = down }
func (c *Controller) SetAxis(name string, v float64)   { c.axes[name] = v }
func (c *Controller) SetPose(p spatial.Pose)           { c.pose = p }

func (c *Controller) Button(name string) bool     { return c.held[name] }
func (c *Controller) ButtonDown(name string) bool { return c.held[name] && !c.prev[name] }
func (c *Controller) ButtonUp(name string) bool   { return !c.held[name] && c.prev[name] }
func (c *Controller) Axis(name string) float64    { return c.axes[name] }
func (c *Controller) Pose() spatial.Pose          { return c.pose }

// Position is the controller origin, used to place its proximity volume.
func (c *Controller) Position() mgl64.Vec3 { return c.pose.Position }

// Pulse records a haptic request.
func (c *Controller) Pulse(amplitude float64, durationMs int) {
	c.pulses = append(c.pulses, Pulse{Amplitude: amplitude, DurationMs: durationMs})
}

// Pulses returns every haptic request received so far.
func (c *Controller) Pulses() []Pulse {
	out := make([]Pulse, len(c.pulses))
	copy(out, c.pulses)
	return out
}

// EndFrame latches button state; edges reported during the next frame are
// relative to this one.
func (c *Controller) EndFrame() {
	for k := range c.prev {
		delete(c.prev, k)
	}
	for k, v := range c.held {
		c.prev[k] = v
	}
}

// Buttons lists the held buttons in name order.
func (c *Controller) Buttons() []string {
	var out []string
	for k, v := range c.held {
		if v {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
