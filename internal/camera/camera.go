// Package camera provides perspective cameras that project between world
// space and a pixel screen. Screen X grows right, Y grows down and Z carries
// the depth along the view axis.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/grabsim/internal/grab"
	"github.com/san-kum/grabsim/internal/spatial"
)

const (
	DefaultFOV    = 60.0
	DefaultWidth  = 1280
	DefaultHeight = 720
)

// Camera looks down its local +Z axis.
type Camera struct {
	Name    string
	Pose    spatial.Pose
	FOV     float64 // vertical, degrees
	Width   float64
	Height  float64
	Enabled bool
}

func New(name string) *Camera {
	return &Camera{
		Name:    name,
		Pose:    spatial.Identity(),
		FOV:     DefaultFOV,
		Width:   DefaultWidth,
		Height:  DefaultHeight,
		Enabled: true,
	}
}

// LookAt places the camera at eye facing target with +Y up.
func (c *Camera) LookAt(eye, target mgl64.Vec3) *Camera {
	c.Pose = spatial.Pose{
		Position: eye,
		Rotation: spatial.LookRotation(target.Sub(eye), mgl64.Vec3{0, 1, 0}),
	}
	return c
}

func (c *Camera) Rotation() mgl64.Quat { return c.Pose.Rotation }
func (c *Camera) Position() mgl64.Vec3 { return c.Pose.Position }

// Focal is the focal length in screen pixels.
func (c *Camera) Focal() float64 {
	return (c.Height / 2) / math.Tan(mgl64.DegToRad(c.FOV)/2)
}

// WorldToScreen projects p. Points behind the camera yield a non-positive
// depth and meaningless X/Y.
func (c *Camera) WorldToScreen(p mgl64.Vec3) mgl64.Vec3 {
	local := c.Pose.Rotation.Inverse().Rotate(p.Sub(c.Pose.Position))
	z := local[2]
	if z == 0 {
		return mgl64.Vec3{c.Width / 2, c.Height / 2, 0}
	}
	f := c.Focal()
	return mgl64.Vec3{
		c.Width/2 + local[0]*f/z,
		c.Height/2 - local[1]*f/z,
		z,
	}
}

// ScreenToWorld is the inverse of WorldToScreen for a positive depth.
func (c *Camera) ScreenToWorld(s mgl64.Vec3) mgl64.Vec3 {
	f := c.Focal()
	z := s[2]
	local := mgl64.Vec3{
		(s[0] - c.Width/2) * z / f,
		(c.Height/2 - s[1]) * z / f,
		z,
	}
	return c.Pose.Rotation.Rotate(local).Add(c.Pose.Position)
}

// Visible reports whether p lands inside the viewport in front of the camera.
func (c *Camera) Visible(p mgl64.Vec3) bool {
	s := c.WorldToScreen(p)
	return s[2] > 0 && s[0] >= 0 && s[0] < c.Width && s[1] >= 0 && s[1] < c.Height
}

// Rig holds the scene's cameras in the order they were added.
type Rig struct {
	cameras []*Camera
}

func NewRig(cams ...*Camera) *Rig {
	return &Rig{cameras: cams}
}

func (r *Rig) Add(c *Camera)      { r.cameras = append(r.cameras, c) }
func (r *Rig) Cameras() []*Camera { return r.cameras }

// Get returns the camera with the given name, or nil.
func (r *Rig) Get(name string) *Camera {
	for _, c := range r.cameras {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// EnabledCameras implements grab.CameraSource.
func (r *Rig) EnabledCameras() []grab.Camera {
	var out []grab.Camera
	for _, c := range r.cameras {
		if c.Enabled {
			out = append(out, c)
		}
	}
	return out
}

// Main returns the first enabled camera, or nil.
func (r *Rig) Main() *Camera {
	for _, c := range r.cameras {
		if c.Enabled {
			return c
		}
	}
	return nil
}
