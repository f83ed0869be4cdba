package grab

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/gomega"
	"github.com/san-kum/grabsim/internal/spatial"
)

type controllerRig struct {
	ctrl   *fakeController
	anim   *fakeAnim
	driver *ControllerDriver
	reg    *Registry
}

func newControllerRig() *controllerRig {
	ctrl := newController()
	anim := &fakeAnim{}
	reg := NewRegistry(nil)
	pool := NewPool(DefaultTag, ctrl, DefaultPulse, nil)
	return &controllerRig{
		ctrl:   ctrl,
		anim:   anim,
		reg:    reg,
		driver: NewControllerDriver("right", ctrl, pool, anim, DefaultControllerConfig(), reg, nil),
	}
}

// frame runs one simulated frame: input edges, driver update, latch.
func (r *controllerRig) frame() {
	r.driver.Update()
	r.ctrl.endFrame()
}

func TestControllerPickupAndThrow(t *testing.T) {
	g := NewWithT(t)
	r := newControllerRig()

	body := newBody("crate", mgl64.Vec3{1, 0, 0})
	r.driver.OnProximityEnter(body)
	g.Expect(r.ctrl.pulses).To(HaveLen(1))

	r.ctrl.held["Trigger"] = true
	r.frame()
	g.Expect(r.driver.Grip().State()).To(Equal(Attached))
	att, _ := r.driver.Grip().Attachment()
	g.Expect(att.PositionOffset).To(Equal(mgl64.Vec3{1, 0, 0}))
	g.Expect(att.Target).To(Equal(mgl64.Vec3{1, 0, 0}))
	g.Expect(att.Velocity).To(Equal(mgl64.Vec3{}))

	r.driver.FixedUpdate()
	g.Expect(body.vel).To(Equal(mgl64.Vec3{}))
	g.Expect(body.ang).To(Equal(mgl64.Vec3{}))

	r.ctrl.pose = spatial.At(mgl64.Vec3{0, 0, 2})
	r.frame()
	att, _ = r.driver.Grip().Attachment()
	g.Expect(att.Target).To(Equal(mgl64.Vec3{1, 0, 2}))

	r.ctrl.held["Trigger"] = false
	r.frame()
	g.Expect(r.driver.Grip().State()).To(Equal(Idle))
	g.Expect(body.vel.Len()).To(BeNumerically("~", 5, 1e-12))
	g.Expect(spatial.VecApproxEqual(body.vel.Normalize(), mgl64.Vec3{0, 0, 1}, 1e-12)).To(BeTrue())
	g.Expect(r.reg.Held("crate")).To(BeFalse())
}

func TestControllerPickupNothingInReach(t *testing.T) {
	g := NewWithT(t)
	r := newControllerRig()

	g.Expect(r.driver.Pickup()).To(BeFalse())
	g.Expect(r.driver.Grip().State()).To(Equal(Idle))

	_, ok := r.driver.Drop()
	g.Expect(ok).To(BeFalse())
}

func TestControllerPicksNearest(t *testing.T) {
	g := NewWithT(t)
	r := newControllerRig()

	r.driver.OnProximityEnter(newBody("A", mgl64.Vec3{3, 0, 0}))
	r.driver.OnProximityEnter(newBody("B", mgl64.Vec3{1, 0, 0}))
	r.driver.OnProximityEnter(newBody("C", mgl64.Vec3{5, 0, 0}))

	g.Expect(r.driver.Pickup()).To(BeTrue())
	g.Expect(r.driver.Grip().Body().ID()).To(Equal("B"))

	// a second pickup while holding keeps the current body
	g.Expect(r.driver.Pickup()).To(BeFalse())
	g.Expect(r.driver.Grip().Body().ID()).To(Equal("B"))
}

func TestControllerProximityLossKeepsHold(t *testing.T) {
	g := NewWithT(t)
	r := newControllerRig()

	body := newBody("crate", mgl64.Vec3{0.5, 0, 0})
	r.driver.OnProximityEnter(body)
	g.Expect(r.driver.Pickup()).To(BeTrue())

	r.driver.OnProximityExit(body)
	g.Expect(r.driver.Pool().Contains(body)).To(BeFalse())
	g.Expect(r.driver.Grip().State()).To(Equal(Attached))
}

func TestControllerGripButtonAndAnimation(t *testing.T) {
	g := NewWithT(t)
	r := newControllerRig()
	r.driver.OnProximityEnter(newBody("crate", mgl64.Vec3{0.5, 0, 0}))

	r.ctrl.axes["Grip"] = 0.3
	r.frame()
	g.Expect(r.anim.state).To(Equal("Take"))
	g.Expect(r.anim.times).To(Equal([]float64{0.3}))

	r.ctrl.held["Grip"] = true
	r.ctrl.axes["Grip"] = 0.9
	r.frame()
	g.Expect(r.driver.Grip().State()).To(Equal(Attached))

	r.ctrl.held["Trigger"] = true
	r.frame()
	g.Expect(r.anim.times[len(r.anim.times)-1]).To(Equal(1.0))

	r.ctrl.held["Grip"] = false
	r.frame()
	g.Expect(r.driver.Grip().State()).To(Equal(Idle))
}

func TestControllerDisableDrops(t *testing.T) {
	g := NewWithT(t)
	r := newControllerRig()

	body := newBody("crate", mgl64.Vec3{0.5, 0, 0})
	r.driver.OnProximityEnter(body)
	g.Expect(r.driver.Pickup()).To(BeTrue())

	r.driver.Disable()
	g.Expect(r.driver.Grip().State()).To(Equal(Idle))
	g.Expect(r.reg.Held("crate")).To(BeFalse())

	r.ctrl.held["Trigger"] = true
	r.frame()
	g.Expect(r.driver.Grip().State()).To(Equal(Idle))
	g.Expect(r.anim.times).To(BeEmpty())
	g.Expect(r.driver.Pool().Len()).To(BeZero())

	r.driver.Enable()
	g.Expect(r.driver.Pickup()).To(BeFalse())
	r.driver.OnProximityEnter(body)
	g.Expect(r.driver.Pickup()).To(BeTrue())
}

func TestControllerDisabledIgnoresProximity(t *testing.T) {
	g := NewWithT(t)
	r := newControllerRig()

	r.driver.Disable()
	r.driver.OnProximityEnter(newBody("crate", mgl64.Vec3{0.5, 0, 0}))
	g.Expect(r.driver.Pool().Len()).To(BeZero())
	g.Expect(r.ctrl.pulses).To(BeEmpty())
}

func TestControllerPoseUpdateMovesTarget(t *testing.T) {
	g := NewWithT(t)
	r := newControllerRig()

	body := newBody("crate", mgl64.Vec3{0, 1, 0})
	r.driver.OnProximityEnter(body)
	g.Expect(r.driver.Pickup()).To(BeTrue())

	r.ctrl.pose = spatial.At(mgl64.Vec3{0, 0, 0.5})
	r.driver.OnPoseUpdate()
	att, _ := r.driver.Grip().Attachment()
	g.Expect(att.Target).To(Equal(mgl64.Vec3{0, 1, 0.5}))
	g.Expect(att.Velocity).To(Equal(mgl64.Vec3{0, 0, 0.5}))

	r.driver.Drop()
	r.driver.OnPoseUpdate()
	g.Expect(r.driver.Grip().State()).To(Equal(Idle))
}
