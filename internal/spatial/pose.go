// Package spatial holds the small amount of 3D math shared by the grab core
// and its collaborators. Vectors and quaternions are mgl64 values.
package spatial

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Pose is a world-space position and orientation.
type Pose struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// Identity returns a pose at the origin with no rotation.
func Identity() Pose {
	return Pose{Rotation: mgl64.QuatIdent()}
}

// At returns an unrotated pose at p.
func At(p mgl64.Vec3) Pose {
	return Pose{Position: p, Rotation: mgl64.QuatIdent()}
}

// Lerp interpolates position linearly and rotation spherically.
func (p Pose) Lerp(o Pose, t float64) Pose {
	if t <= 0 {
		return p
	}
	if t >= 1 {
		return o
	}
	return Pose{
		Position: p.Position.Add(o.Position.Sub(p.Position).Mul(t)),
		Rotation: mgl64.QuatSlerp(p.Rotation, o.Rotation, t),
	}
}

// SqrDistance is the squared Euclidean distance between a and b.
func SqrDistance(a, b mgl64.Vec3) float64 {
	d := a.Sub(b)
	return d.Dot(d)
}

// ClampMagnitude returns v scaled down so its length does not exceed max.
// Direction is preserved; a zero vector stays zero.
func ClampMagnitude(v mgl64.Vec3, max float64) mgl64.Vec3 {
	sq := v.Dot(v)
	if sq <= max*max {
		return v
	}
	return v.Mul(max / math.Sqrt(sq))
}

// Euler builds a rotation from angles in degrees applied in Z, X, Y order,
// the convention used by scene files.
func Euler(x, y, z float64) mgl64.Quat {
	qx := mgl64.QuatRotate(mgl64.DegToRad(x), mgl64.Vec3{1, 0, 0})
	qy := mgl64.QuatRotate(mgl64.DegToRad(y), mgl64.Vec3{0, 1, 0})
	qz := mgl64.QuatRotate(mgl64.DegToRad(z), mgl64.Vec3{0, 0, 1})
	return qy.Mul(qx).Mul(qz).Normalize()
}

// LookRotation returns the rotation whose +Z axis points along forward with
// +Y as close to up as possible.
func LookRotation(forward, up mgl64.Vec3) mgl64.Quat {
	if forward.Dot(forward) == 0 {
		return mgl64.QuatIdent()
	}
	f := forward.Normalize()
	r := up.Cross(f)
	if r.Dot(r) < 1e-12 {
		r = mgl64.Vec3{1, 0, 0}.Cross(f)
		if r.Dot(r) < 1e-12 {
			r = mgl64.Vec3{0, 0, 1}.Cross(f)
		}
	}
	r = r.Normalize()
	u := f.Cross(r)
	m := mgl64.Mat4{
		r[0], r[1], r[2], 0,
		u[0], u[1], u[2], 0,
		f[0], f[1], f[2], 0,
		0, 0, 0, 1,
	}
	return mgl64.Mat4ToQuat(m).Normalize()
}

// QuatApproxEqual reports whether a and b describe the same rotation within
// eps, treating q and -q as equal.
func QuatApproxEqual(a, b mgl64.Quat, eps float64) bool {
	d := math.Abs(a.Dot(b))
	return 1-d <= eps
}

// VecApproxEqual compares two vectors component-wise within eps.
func VecApproxEqual(a, b mgl64.Vec3, eps float64) bool {
	return a.ApproxEqualThreshold(b, eps)
}
