package core

import "math"

// Rotor is a quaternion used purely as a rotation operator: scalar part A and
// vector part (B, C, D). Rotation requires a unit rotor.
type Rotor struct {
	A, B, C, D float64
}

// NewRotor creates a rotor from its four components
func NewRotor(a, b, c, d float64) Rotor {
	return Rotor{A: a, B: b, C: c, D: d}
}

// RotorFromVec promotes a vector into rotor space with a zero scalar part
func RotorFromVec(v Vec3) Rotor {
	return Rotor{A: 0, B: v.X, C: v.Y, D: v.Z}
}

// NewRotation builds the rotor that rotates by angle around the unit axis:
// (cos(angle/2), axis*sin(angle/2)).
func NewRotation(axis Vec3, angle float64) Rotor {
	s, c := math.Sincos(angle / 2)
	return Rotor{A: c, B: axis.X * s, C: axis.Y * s, D: axis.Z * s}
}

// Multiply returns the Hamilton product r*o. It is not commutative.
func (r Rotor) Multiply(o Rotor) Rotor {
	return Rotor{
		A: r.A*o.A - r.B*o.B - r.C*o.C - r.D*o.D,
		B: r.A*o.B + r.B*o.A + r.C*o.D - r.D*o.C,
		C: r.A*o.C - r.B*o.D + r.C*o.A + r.D*o.B,
		D: r.A*o.D + r.B*o.C - r.C*o.B + r.D*o.A,
	}
}

// Complement returns the conjugate, which is the inverse of a unit rotor
func (r Rotor) Complement() Rotor {
	return Rotor{A: r.A, B: -r.B, C: -r.C, D: -r.D}
}

// Norm returns the Euclidean norm of the four components
func (r Rotor) Norm() float64 {
	return math.Sqrt(r.A*r.A + r.B*r.B + r.C*r.C + r.D*r.D)
}

// Normalize returns a unit rotor
func (r Rotor) Normalize() Rotor {
	n := 1.0 / r.Norm()
	return Rotor{A: r.A * n, B: r.B * n, C: r.C * n, D: r.D * n}
}

// Vec drops the scalar part and returns the vector part
func (r Rotor) Vec() Vec3 {
	return Vec3{X: r.B, Y: r.C, Z: r.D}
}
