package grab

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/grabsim/internal/spatial"
)

var _ = Describe("Grip", func() {
	var (
		rng   *rand.Rand
		frame *fakeFrame
		body  *fakeBody
		grip  *Grip
	)

	randVec := func(scale float64) mgl64.Vec3 {
		return mgl64.Vec3{
			(rng.Float64()*2 - 1) * scale,
			(rng.Float64()*2 - 1) * scale,
			(rng.Float64()*2 - 1) * scale,
		}
	}
	randRot := func() mgl64.Quat {
		return spatial.Euler(rng.Float64()*360, rng.Float64()*360, rng.Float64()*360)
	}

	BeforeEach(func() {
		rng = rand.New(rand.NewSource(42))
		frame = &fakeFrame{rot: randRot(), origin: randVec(2)}
		body = newBody("crate", randVec(3))
		body.rot = randRot()
		grip = NewGrip("right", FollowPin, ControllerThrow, nil, nil)
		Expect(grip.Begin(frame, body)).To(Succeed())
	})

	It("keeps offsets bit-identical across updates", func() {
		first, _ := grip.Attachment()
		for i := 0; i < 50; i++ {
			frame.rot = randRot()
			frame.origin = randVec(5)
			grip.Update(frame)
			grip.Apply()

			att, ok := grip.Attachment()
			Expect(ok).To(BeTrue())
			Expect(att.PositionOffset).To(Equal(first.PositionOffset))
			Expect(att.RotationOffset).To(Equal(first.RotationOffset))
		}
	})

	It("reproduces the grabbed pose when the frame has not moved", func() {
		start := body.pos
		grip.Update(frame)
		att, _ := grip.Attachment()
		Expect(spatial.VecApproxEqual(att.Target, start, 1e-9)).To(BeTrue())
		Expect(spatial.QuatApproxEqual(att.TargetRotation, body.rot, 1e-9)).To(BeTrue())
	})

	It("writes zero angular velocity on every physics step", func() {
		for i := 0; i < 20; i++ {
			body.ang = randVec(10)
			frame.origin = randVec(1)
			grip.Update(frame)
			Expect(grip.Apply()).To(BeTrue())
		}
		Expect(body.angWrites).To(HaveLen(20))
		for _, w := range body.angWrites {
			Expect(w).To(Equal(mgl64.Vec3{}))
		}
	})

	It("clamps every release to the max throw speed and keeps direction", func() {
		for i := 0; i < 100; i++ {
			g := NewGrip("right", FollowPin, ControllerThrow, nil, nil)
			f := frameAt(mgl64.Vec3{})
			b := newBody("b", randVec(1))
			Expect(g.Begin(f, b)).To(Succeed())

			f.origin = randVec(rng.Float64() * 2)
			g.Update(f)
			att, _ := g.Attachment()
			rel, ok := g.End()
			Expect(ok).To(BeTrue())

			Expect(rel.Speed()).To(BeNumerically("<=", 5+1e-9))
			scaled := att.Velocity.Mul(20)
			if scaled.Len() > 1e-9 {
				Expect(rel.Velocity.Normalize().Dot(scaled.Normalize())).To(BeNumerically("~", 1, 1e-9))
			}
		}
	})

	It("treats a second release as a no-op", func() {
		_, ok := grip.End()
		Expect(ok).To(BeTrue())
		writes := len(body.velWrites)

		_, ok = grip.End()
		Expect(ok).To(BeFalse())
		Expect(grip.State()).To(Equal(Idle))
		Expect(body.velWrites).To(HaveLen(writes))
	})
})

var _ = Describe("PointerDriver camera resolution", func() {
	DescribeTable("never leaves Idle without exactly one camera",
		func(cams fakeCameras, want State) {
			d := NewPointerDriver("mouse", cams, &fakePointer{}, PointerThrow, nil, nil)
			d.PointerDown(newBody("crate", mgl64.Vec3{}))
			Expect(d.Grip().State()).To(Equal(want))
		},
		Entry("zero cameras", fakeCameras{}, Idle),
		Entry("one camera", fakeCameras{fakeCamera{}}, Attached),
		Entry("two cameras", fakeCameras{fakeCamera{}, fakeCamera{}}, Idle),
		Entry("three cameras", fakeCameras{fakeCamera{}, fakeCamera{}, fakeCamera{}}, Idle),
	)
})

var _ = Describe("Pool", func() {
	var pool *Pool

	BeforeEach(func() {
		pool = NewPool(DefaultTag, nil, DefaultPulse, nil)
	})

	It("selects the nearest of A(3), B(1), C(5)", func() {
		pool.Enter(newBody("A", mgl64.Vec3{0, 0, 3}))
		pool.Enter(newBody("B", mgl64.Vec3{0, 1, 0}))
		pool.Enter(newBody("C", mgl64.Vec3{-5, 0, 0}))
		Expect(pool.Nearest(mgl64.Vec3{}).ID()).To(Equal("B"))
	})

	It("keeps membership symmetric across grabs of other bodies", func() {
		reg := NewRegistry(nil)
		ctrl := newController()
		drv := NewControllerDriver("right", ctrl, pool, nil, DefaultControllerConfig(), reg, nil)

		a := newBody("A", mgl64.Vec3{0.2, 0, 0})
		b := newBody("B", mgl64.Vec3{0.1, 0, 0})
		drv.OnProximityEnter(a)
		drv.OnProximityEnter(b)

		Expect(drv.Pickup()).To(BeTrue())
		Expect(drv.Grip().Body().ID()).To(Equal("B"))
		drv.Drop()
		Expect(pool.Contains(a)).To(BeTrue())

		drv.OnProximityExit(a)
		Expect(drv.Pickup()).To(BeTrue())
		drv.Drop()
		Expect(pool.Contains(a)).To(BeFalse())
		Expect(pool.Contains(b)).To(BeTrue())
	})
})

var _ = Describe("Ownership", func() {
	It("rejects a second driver grabbing a held body", func() {
		reg := NewRegistry(nil)
		ctrl := newController()
		drv := NewControllerDriver("right", ctrl, NewPool(DefaultTag, nil, DefaultPulse, nil), nil, DefaultControllerConfig(), reg, nil)
		mouse := NewPointerDriver("mouse", fakeCameras{fakeCamera{}}, &fakePointer{}, PointerThrow, reg, nil)

		body := newBody("crate", mgl64.Vec3{0.5, 0, 0})
		drv.OnProximityEnter(body)
		Expect(drv.Pickup()).To(BeTrue())

		Expect(mouse.PointerDown(body)).To(BeFalse())
		Expect(mouse.Grip().State()).To(Equal(Idle))
		holder, _ := reg.Holder("crate")
		Expect(holder).To(Equal("right"))

		drv.Drop()
		Expect(mouse.PointerDown(body)).To(BeTrue())
	})

	It("picks the nearest free body when the closest one is held", func() {
		reg := NewRegistry(nil)
		drv := NewControllerDriver("right", newController(), NewPool(DefaultTag, nil, DefaultPulse, nil), nil, DefaultControllerConfig(), reg, nil)
		mouse := NewPointerDriver("mouse", fakeCameras{fakeCamera{}}, &fakePointer{}, PointerThrow, reg, nil)

		held := newBody("held", mgl64.Vec3{0.1, 0, 0})
		spare := newBody("spare", mgl64.Vec3{0.3, 0, 0})
		drv.OnProximityEnter(held)
		drv.OnProximityEnter(spare)
		Expect(mouse.PointerDown(held)).To(BeTrue())

		Expect(drv.Pickup()).To(BeTrue())
		Expect(drv.Grip().Body().ID()).To(Equal("spare"))
		holder, _ := reg.Holder("held")
		Expect(holder).To(Equal("mouse"))
	})
})
