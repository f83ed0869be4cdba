package grab

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/gomega"
	"github.com/san-kum/grabsim/internal/spatial"
)

func TestPointerRefusesAmbiguousCamera(t *testing.T) {
	tests := []struct {
		name string
		cams fakeCameras
	}{
		{"no camera", fakeCameras{}},
		{"two cameras", fakeCameras{fakeCamera{}, fakeCamera{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			d := NewPointerDriver("mouse", tt.cams, &fakePointer{}, PointerThrow, nil, nil)
			g.Expect(d.PointerDown(newBody("crate", mgl64.Vec3{}))).To(BeFalse())
			g.Expect(d.Grip().State()).To(Equal(Idle))

			_, err := d.Camera()
			g.Expect(err).To(MatchError(ErrNoCamera))
		})
	}
}

func TestPointerDragAtConstantDepth(t *testing.T) {
	g := NewWithT(t)

	pointer := &fakePointer{pos: mgl64.Vec2{10, 20}}
	d := NewPointerDriver("mouse", fakeCameras{fakeCamera{}}, pointer, PointerThrow, nil, nil)
	body := newBody("crate", mgl64.Vec3{0.2, 0.2, 5})

	g.Expect(d.PointerDown(body)).To(BeTrue())
	att, _ := d.Grip().Attachment()
	// anchor is (0.1, 0.2, 5); offset is body minus anchor
	g.Expect(spatial.VecApproxEqual(att.PositionOffset, mgl64.Vec3{0.1, 0, 0}, 1e-12)).To(BeTrue())

	pointer.pos = mgl64.Vec2{60, 20}
	d.Update()
	att, _ = d.Grip().Attachment()
	g.Expect(spatial.VecApproxEqual(att.Target, mgl64.Vec3{0.7, 0.2, 5}, 1e-12)).To(BeTrue())
	g.Expect(spatial.VecApproxEqual(att.Velocity, mgl64.Vec3{0.5, 0, 0}, 1e-12)).To(BeTrue())

	d.FixedUpdate()
	g.Expect(body.ang).To(Equal(mgl64.Vec3{}))
	g.Expect(spatial.VecApproxEqual(body.vel, mgl64.Vec3{0.5, 0, 0}, 1e-12)).To(BeTrue())
	g.Expect(body.pos[2]).To(BeNumerically("~", 5, 1e-12))

	rel, ok := d.PointerUp()
	g.Expect(ok).To(BeTrue())
	g.Expect(rel.Speed()).To(BeNumerically("~", 5, 1e-12))
	g.Expect(spatial.VecApproxEqual(rel.Velocity, mgl64.Vec3{5, 0, 0}, 1e-9)).To(BeTrue())

	_, ok = d.PointerUp()
	g.Expect(ok).To(BeFalse())
}

func TestPointerSlowReleaseIsNotClamped(t *testing.T) {
	g := NewWithT(t)

	pointer := &fakePointer{}
	d := NewPointerDriver("mouse", fakeCameras{fakeCamera{}}, pointer, PointerThrow, nil, nil)
	body := newBody("crate", mgl64.Vec3{})
	g.Expect(d.PointerDown(body)).To(BeTrue())

	pointer.pos = mgl64.Vec2{0, 2}
	d.Update()
	rel, _ := d.PointerUp()
	g.Expect(spatial.VecApproxEqual(rel.Velocity, mgl64.Vec3{0, 0.2, 0}, 1e-12)).To(BeTrue())
}

func TestPointerDisableReleases(t *testing.T) {
	g := NewWithT(t)

	reg := NewRegistry(nil)
	d := NewPointerDriver("mouse", fakeCameras{fakeCamera{}}, &fakePointer{}, PointerThrow, reg, nil)
	body := newBody("crate", mgl64.Vec3{})
	g.Expect(d.PointerDown(body)).To(BeTrue())

	d.Disable()
	g.Expect(d.Grip().State()).To(Equal(Idle))
	g.Expect(reg.Held("crate")).To(BeFalse())
	g.Expect(d.PointerDown(body)).To(BeFalse())

	d.Enable()
	g.Expect(d.PointerDown(body)).To(BeTrue())
}
