package physics

import "github.com/go-gl/mathgl/mgl64"

// integrateLinear advances position with semi-implicit Euler.
func integrateLinear(p, v, a mgl64.Vec3, dt float64) (mgl64.Vec3, mgl64.Vec3) {
	v = v.Add(a.Mul(dt))
	return p.Add(v.Mul(dt)), v
}

// integrateAngular advances an orientation by angular velocity w (rad/s)
// using the quaternion derivative dq/dt = 0.5 * w * q.
func integrateAngular(q mgl64.Quat, w mgl64.Vec3, dt float64) mgl64.Quat {
	if w.Dot(w) == 0 {
		return q
	}
	dq := mgl64.Quat{W: 0, V: w}.Mul(q).Scale(0.5 * dt)
	return q.Add(dq).Normalize()
}
