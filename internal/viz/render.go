package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/grabsim/internal/camera"
)

// nearClip is the smallest depth drawn.
const nearClip = 0.1

// Viewport maps a camera's pixel screen onto a canvas.
type Viewport struct {
	Cam    *camera.Camera
	Canvas *Canvas
}

// Project returns the canvas pixel of world point p and whether it lies in
// front of the camera.
func (v Viewport) Project(p mgl64.Vec3) (int, int, bool) {
	s := v.Cam.WorldToScreen(p)
	if s[2] < nearClip {
		return 0, 0, false
	}
	x, y := v.ScreenToPixel(mgl64.Vec2{s[0], s[1]})
	return x, y, true
}

// Scale converts a world length at depth into canvas pixels.
func (v Viewport) Scale(length, depth float64) int {
	if depth < nearClip {
		return 0
	}
	px := length * v.Cam.Focal() / depth / v.Cam.Width * float64(v.Canvas.PixelWidth())
	return int(math.Round(px))
}

// ToScreen maps a terminal cell inside the canvas to camera screen
// coordinates at the cell center.
func (v Viewport) ToScreen(col, row int) mgl64.Vec2 {
	x := (float64(col) + 0.5) / float64(v.Canvas.Width) * v.Cam.Width
	y := (float64(row) + 0.5) / float64(v.Canvas.Height) * v.Cam.Height
	return mgl64.Vec2{x, y}
}

// ScreenToPixel maps camera screen coordinates to canvas pixels.
func (v Viewport) ScreenToPixel(s mgl64.Vec2) (int, int) {
	x := s[0] / v.Cam.Width * float64(v.Canvas.PixelWidth())
	y := s[1] / v.Cam.Height * float64(v.Canvas.PixelHeight())
	return int(math.Round(x)), int(math.Round(y))
}

// Segment draws a world-space line, skipping it when either end is behind
// the camera.
func (v Viewport) Segment(a, b mgl64.Vec3) {
	x0, y0, ok0 := v.Project(a)
	x1, y1, ok1 := v.Project(b)
	if ok0 && ok1 {
		v.Canvas.DrawLine(x0, y0, x1, y1)
	}
}

// Sphere draws a body of the given radius centered at p.
func (v Viewport) Sphere(p mgl64.Vec3, radius float64, fill bool) {
	x, y, ok := v.Project(p)
	if !ok {
		return
	}
	depth := v.Cam.WorldToScreen(p)[2]
	v.Canvas.DrawCircle(x, y, v.Scale(radius, depth), fill)
}

// Grid draws the ground plane lines from -half to half around center.
func (v Viewport) Grid(center mgl64.Vec3, half float64, step float64) {
	for d := -half; d <= half+1e-9; d += step {
		v.Segment(center.Add(mgl64.Vec3{d, 0, -half}), center.Add(mgl64.Vec3{d, 0, half}))
		v.Segment(center.Add(mgl64.Vec3{-half, 0, d}), center.Add(mgl64.Vec3{half, 0, d}))
	}
}

// Axes draws the three local axes of a pose.
func (v Viewport) Axes(p mgl64.Vec3, rot mgl64.Quat, length float64) {
	for _, axis := range []mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}} {
		v.Segment(p, p.Add(rot.Rotate(axis).Mul(length)))
	}
}

// Cross marks a screen point with a small plus.
func (v Viewport) Cross(s mgl64.Vec2, size int) {
	x, y := v.ScreenToPixel(s)
	v.Canvas.DrawLine(x-size, y, x+size, y)
	v.Canvas.DrawLine(x, y-size, x, y+size)
}
