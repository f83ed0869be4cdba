package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/gomega"
	"github.com/san-kum/grabsim/internal/spatial"
)

func TestProjectCenter(t *testing.T) {
	g := NewWithT(t)

	c := New("main").LookAt(mgl64.Vec3{0, 1, -5}, mgl64.Vec3{0, 1, 0})
	s := c.WorldToScreen(mgl64.Vec3{0, 1, 0})

	g.Expect(s[0]).To(BeNumerically("~", DefaultWidth/2, 1e-9))
	g.Expect(s[1]).To(BeNumerically("~", DefaultHeight/2, 1e-9))
	g.Expect(s[2]).To(BeNumerically("~", 5, 1e-9))
}

func TestScreenAxes(t *testing.T) {
	g := NewWithT(t)

	c := New("main")
	right := c.WorldToScreen(mgl64.Vec3{1, 0, 5})
	up := c.WorldToScreen(mgl64.Vec3{0, 1, 5})

	g.Expect(right[0]).To(BeNumerically(">", DefaultWidth/2))
	g.Expect(up[1]).To(BeNumerically("<", DefaultHeight/2))
}

func TestRoundTrip(t *testing.T) {
	g := NewWithT(t)

	cams := []*Camera{
		New("front").LookAt(mgl64.Vec3{0, 2, -6}, mgl64.Vec3{}),
		New("side").LookAt(mgl64.Vec3{7, 3, 1}, mgl64.Vec3{0, 1, 0}),
		New("top").LookAt(mgl64.Vec3{0, 10, 0}, mgl64.Vec3{0, 0, 0}),
	}
	points := []mgl64.Vec3{{0, 0, 0}, {0.5, 1, -0.3}, {-1, 0.25, 2}}

	for _, c := range cams {
		for _, p := range points {
			s := c.WorldToScreen(p)
			g.Expect(s[2]).To(BeNumerically(">", 0), c.Name)
			back := c.ScreenToWorld(s)
			g.Expect(spatial.VecApproxEqual(back, p, 1e-9)).To(BeTrue(), c.Name)
		}
	}
}

func TestConstantDepthDrag(t *testing.T) {
	g := NewWithT(t)

	c := New("main").LookAt(mgl64.Vec3{0, 0, -10}, mgl64.Vec3{})
	s := c.WorldToScreen(mgl64.Vec3{})
	moved := c.ScreenToWorld(mgl64.Vec3{s[0] + 100, s[1], s[2]})

	g.Expect(moved[0]).To(BeNumerically(">", 0))
	g.Expect(moved[2]).To(BeNumerically("~", 0, 1e-9))
}

func TestVisible(t *testing.T) {
	g := NewWithT(t)

	c := New("main").LookAt(mgl64.Vec3{0, 0, -5}, mgl64.Vec3{})
	g.Expect(c.Visible(mgl64.Vec3{})).To(BeTrue())
	g.Expect(c.Visible(mgl64.Vec3{0, 0, -10})).To(BeFalse())
	g.Expect(c.Visible(mgl64.Vec3{100, 0, 0})).To(BeFalse())
}

func TestRigEnabledCameras(t *testing.T) {
	tests := []struct {
		name    string
		enabled []bool
		want    int
	}{
		{"none", []bool{false, false}, 0},
		{"one", []bool{true, false}, 1},
		{"two", []bool{true, true}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			r := NewRig()
			for i, on := range tt.enabled {
				c := New(string(rune('a' + i)))
				c.Enabled = on
				r.Add(c)
			}
			g.Expect(r.EnabledCameras()).To(HaveLen(tt.want))
			if tt.want > 0 {
				g.Expect(r.Main()).To(Equal(r.Cameras()[0]))
			} else {
				g.Expect(r.Main()).To(BeNil())
			}
		})
	}
}
