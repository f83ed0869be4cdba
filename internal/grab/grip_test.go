package grab

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/gomega"
	"github.com/san-kum/grabsim/internal/spatial"
)

func TestGripBeginCapturesOffsets(t *testing.T) {
	g := NewWithT(t)

	rot := spatial.Euler(0, 90, 0)
	frame := &fakeFrame{rot: rot, origin: mgl64.Vec3{0, 1, 0}}
	body := newBody("crate", mgl64.Vec3{1, 1, 0})
	body.rot = spatial.Euler(0, 90, 0)

	grip := NewGrip("right", FollowPin, ControllerThrow, nil, nil)
	g.Expect(grip.Begin(frame, body)).To(Succeed())
	g.Expect(grip.State()).To(Equal(Attached))

	att, ok := grip.Attachment()
	g.Expect(ok).To(BeTrue())
	g.Expect(spatial.VecApproxEqual(att.PositionOffset, mgl64.Vec3{0, 0, 1}, 1e-9)).To(BeTrue())
	g.Expect(spatial.QuatApproxEqual(att.RotationOffset, mgl64.QuatIdent(), 1e-9)).To(BeTrue())
	g.Expect(att.Velocity).To(Equal(mgl64.Vec3{}))

	grip.Update(frame)
	att, _ = grip.Attachment()
	g.Expect(spatial.VecApproxEqual(att.Target, body.pos, 1e-9)).To(BeTrue())
	g.Expect(spatial.VecApproxEqual(att.Velocity, mgl64.Vec3{}, 1e-9)).To(BeTrue())
}

func TestGripControllerThrowScenario(t *testing.T) {
	g := NewWithT(t)

	frame := frameAt(mgl64.Vec3{0, 0, 0})
	body := newBody("crate", mgl64.Vec3{1, 0, 0})
	grip := NewGrip("right", FollowPin, ControllerThrow, nil, nil)

	g.Expect(grip.Begin(frame, body)).To(Succeed())
	grip.Update(frame)
	grip.ResetVelocity()

	att, _ := grip.Attachment()
	g.Expect(att.PositionOffset).To(Equal(mgl64.Vec3{1, 0, 0}))

	frame.origin = mgl64.Vec3{0, 0, 2}
	grip.Update(frame)
	att, _ = grip.Attachment()
	g.Expect(att.Target).To(Equal(mgl64.Vec3{1, 0, 2}))

	rel, ok := grip.End()
	g.Expect(ok).To(BeTrue())
	g.Expect(rel.Speed()).To(BeNumerically("~", 5, 1e-12))
	g.Expect(spatial.VecApproxEqual(rel.Velocity, mgl64.Vec3{0, 0, 5}, 1e-12)).To(BeTrue())
	g.Expect(body.vel).To(Equal(rel.Velocity))
	g.Expect(grip.State()).To(Equal(Idle))
	g.Expect(grip.Body()).To(BeNil())
}

func TestGripBeginRefusals(t *testing.T) {
	g := NewWithT(t)

	reg := NewRegistry(nil)
	a := NewGrip("a", FollowPin, ControllerThrow, reg, nil)
	b := NewGrip("b", FollowChase, PointerThrow, reg, nil)
	frame := frameAt(mgl64.Vec3{})
	crate := newBody("crate", mgl64.Vec3{1, 0, 0})

	err := a.Begin(frame, nil)
	g.Expect(errors.Is(err, ErrNilBody)).To(BeTrue())
	g.Expect(a.State()).To(Equal(Idle))

	g.Expect(a.Begin(frame, crate)).To(Succeed())
	err = a.Begin(frame, newBody("other", mgl64.Vec3{}))
	g.Expect(errors.Is(err, ErrAlreadyAttached)).To(BeTrue())

	err = b.Begin(frame, crate)
	g.Expect(errors.Is(err, ErrBodyHeld)).To(BeTrue())
	var refusal *RefusalError
	g.Expect(errors.As(err, &refusal)).To(BeTrue())
	g.Expect(refusal.Driver).To(Equal("b"))
	g.Expect(refusal.Body).To(Equal("crate"))
	g.Expect(b.State()).To(Equal(Idle))

	a.End()
	g.Expect(b.Begin(frame, crate)).To(Succeed())
	holder, _ := reg.Holder("crate")
	g.Expect(holder).To(Equal("b"))

	dead := newBody("dead", mgl64.Vec3{})
	dead.destroyed = true
	err = a.Begin(frame, dead)
	g.Expect(errors.Is(err, ErrStaleBody)).To(BeTrue())
}

func TestGripSameNameGripsExcludeEachOther(t *testing.T) {
	g := NewWithT(t)

	reg := NewRegistry(nil)
	a := NewGrip("mouse", FollowPin, ControllerThrow, reg, nil)
	b := NewGrip("mouse", FollowChase, PointerThrow, reg, nil)
	frame := frameAt(mgl64.Vec3{})
	crate := newBody("crate", mgl64.Vec3{1, 0, 0})

	g.Expect(a.Begin(frame, crate)).To(Succeed())
	err := b.Begin(frame, crate)
	g.Expect(errors.Is(err, ErrBodyHeld)).To(BeTrue())
	g.Expect(b.State()).To(Equal(Idle))
	g.Expect(reg.HeldBy("crate", a)).To(BeTrue())

	// ending the idle twin must not clear a's claim
	b.End()
	g.Expect(reg.Held("crate")).To(BeTrue())
	g.Expect(a.State()).To(Equal(Attached))

	a.End()
	g.Expect(reg.Held("crate")).To(BeFalse())
	g.Expect(b.Begin(frame, crate)).To(Succeed())
	g.Expect(reg.HeldBy("crate", b)).To(BeTrue())
}

func TestGripApplyModes(t *testing.T) {
	tests := []struct {
		name    string
		mode    FollowMode
		wantVel mgl64.Vec3
	}{
		{"chase writes displacement", FollowChase, mgl64.Vec3{0.5, 0, 0}},
		{"pin writes zero", FollowPin, mgl64.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			frame := frameAt(mgl64.Vec3{})
			body := newBody("crate", mgl64.Vec3{0, 0, 1})
			body.ang = mgl64.Vec3{3, 2, 1}
			grip := NewGrip("d", tt.mode, PointerThrow, nil, nil)
			g.Expect(grip.Begin(frame, body)).To(Succeed())

			frame.origin = mgl64.Vec3{0.5, 0, 0}
			grip.Update(frame)
			g.Expect(grip.Apply()).To(BeTrue())

			g.Expect(body.ang).To(Equal(mgl64.Vec3{}))
			g.Expect(body.vel).To(Equal(tt.wantVel))
			g.Expect(body.pos).To(Equal(mgl64.Vec3{0.5, 0, 1}))
			g.Expect(body.moves).To(Equal(1))
		})
	}
}

func TestGripEndIdleIsNoop(t *testing.T) {
	g := NewWithT(t)

	grip := NewGrip("d", FollowPin, ControllerThrow, nil, nil)
	_, ok := grip.End()
	g.Expect(ok).To(BeFalse())
	g.Expect(grip.Apply()).To(BeFalse())
	g.Expect(grip.Update(nil)).To(BeFalse())
	g.Expect(grip.State()).To(Equal(Idle))
}

func TestGripStaleBodyIsAbandoned(t *testing.T) {
	g := NewWithT(t)

	reg := NewRegistry(nil)
	grip := NewGrip("d", FollowPin, ControllerThrow, reg, nil)
	var releases []Release
	grip.OnRelease(func(r Release) { releases = append(releases, r) })

	body := newBody("crate", mgl64.Vec3{1, 0, 0})
	g.Expect(grip.Begin(frameAt(mgl64.Vec3{}), body)).To(Succeed())
	g.Expect(reg.Held("crate")).To(BeTrue())

	body.destroyed = true
	g.Expect(grip.Apply()).To(BeFalse())
	g.Expect(grip.State()).To(Equal(Idle))
	g.Expect(reg.Held("crate")).To(BeFalse())
	g.Expect(body.angWrites).To(BeEmpty())
	g.Expect(body.velWrites).To(BeEmpty())

	_, ok := grip.End()
	g.Expect(ok).To(BeFalse())
	g.Expect(releases).To(BeEmpty())
}

func TestGripUpdateKeepsStoredFrame(t *testing.T) {
	g := NewWithT(t)

	frame := frameAt(mgl64.Vec3{})
	body := newBody("crate", mgl64.Vec3{0, 1, 0})
	grip := NewGrip("d", FollowPin, ControllerThrow, nil, nil)
	g.Expect(grip.Begin(frame, body)).To(Succeed())

	frame.origin = mgl64.Vec3{0, 0, 1}
	g.Expect(grip.Update(nil)).To(BeTrue())
	att, _ := grip.Attachment()
	g.Expect(att.Target).To(Equal(mgl64.Vec3{0, 1, 1}))
}

func TestGripOnRelease(t *testing.T) {
	g := NewWithT(t)

	grip := NewGrip("mouse", FollowChase, PointerThrow, nil, nil)
	var got []Release
	grip.OnRelease(func(r Release) { got = append(got, r) })

	frame := frameAt(mgl64.Vec3{})
	g.Expect(grip.Begin(frame, newBody("ball", mgl64.Vec3{}))).To(Succeed())
	frame.origin = mgl64.Vec3{0.1, 0, 0}
	grip.Update(frame)
	grip.End()

	g.Expect(got).To(HaveLen(1))
	g.Expect(got[0].Driver).To(Equal("mouse"))
	g.Expect(got[0].Body).To(Equal("ball"))
	g.Expect(got[0].Speed()).To(BeNumerically("~", 1, 1e-12))
}
