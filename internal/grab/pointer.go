package grab

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// pointerFrame anchors a drag at a fixed screen depth: its origin is the
// live pointer unprojected at the depth the body had when grabbed.
type pointerFrame struct {
	cam     Camera
	pointer PointerSource
	depth   float64
}

func (f pointerFrame) Rotation() mgl64.Quat { return f.cam.Rotation() }

func (f pointerFrame) Origin() mgl64.Vec3 {
	p := f.pointer.PointerPosition()
	return f.cam.ScreenToWorld(mgl64.Vec3{p[0], p[1], f.depth})
}

// PointerDriver drags bodies with a screen pointer through the single
// enabled camera.
type PointerDriver struct {
	grip    *Grip
	cameras CameraSource
	pointer PointerSource
	frame   pointerFrame
	enabled bool
	log     *zap.Logger
}

func NewPointerDriver(name string, cameras CameraSource, pointer PointerSource, throw Throw, reg *Registry, log *zap.Logger) *PointerDriver {
	if log == nil {
		log = zap.NewNop()
	}
	return &PointerDriver{
		grip:    NewGrip(name, FollowChase, throw, reg, log),
		cameras: cameras,
		pointer: pointer,
		enabled: true,
		log:     log.With(zap.String("driver", name)),
	}
}

func (d *PointerDriver) Grip() *Grip   { return d.grip }
func (d *PointerDriver) Enabled() bool { return d.enabled }

// Camera resolves the single enabled camera. Zero or several enabled
// cameras is ambiguous and yields ErrNoCamera.
func (d *PointerDriver) Camera() (Camera, error) {
	cams := d.cameras.EnabledCameras()
	if len(cams) != 1 {
		return nil, ErrNoCamera
	}
	return cams[0], nil
}

// PointerDown starts dragging body, which the host found under the pointer.
// It reports whether the grab happened.
func (d *PointerDriver) PointerDown(body Body) bool {
	if !d.enabled || body == nil {
		return false
	}
	cam, err := d.Camera()
	if err != nil {
		d.log.Debug("pointer grab refused", zap.String("body", body.ID()), zap.Error(err))
		return false
	}

	screen := cam.WorldToScreen(body.Position())
	frame := pointerFrame{cam: cam, pointer: d.pointer, depth: screen[2]}
	if err := d.grip.Begin(frame, body); err != nil {
		return false
	}
	d.frame = frame
	return true
}

// PointerUp throws the dragged body, if any.
func (d *PointerDriver) PointerUp() (Release, bool) {
	return d.grip.End()
}

// Update follows the pointer. Call once per rendered frame.
func (d *PointerDriver) Update() {
	if d.grip.State() == Attached {
		d.grip.Update(d.frame)
	}
}

// FixedUpdate writes the target pose. Call once per physics step.
func (d *PointerDriver) FixedUpdate() {
	d.grip.Apply()
}

// Disable releases any held body and ignores further input.
func (d *PointerDriver) Disable() {
	d.grip.End()
	d.enabled = false
}

func (d *PointerDriver) Enable() { d.enabled = true }
