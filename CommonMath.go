package dyn2d

import (
	"math"
)

///////////////////////////////////////////////////////////////////////////////
// Scalars
///////////////////////////////////////////////////////////////////////////////

/// This function is used to ensure that a floating point number is not a NaN or infinity.
func IsValid(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func FloatClamp(a, low, high float64) float64 {
	return math.Max(low, math.Min(a, high))
}

///////////////////////////////////////////////////////////////////////////////
/// A 2D column vector. Vec2 is a value: every operation returns a new vector
/// and never touches its operands.
///////////////////////////////////////////////////////////////////////////////
type Vec2 struct {
	X, Y float64
}

/// Useful constant
var Vec2Zero = Vec2{}

func MakeVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

func (v Vec2) Mul(s float64) Vec2 {
	return Vec2{s * v.X, s * v.Y}
}

func (v Vec2) Neg() Vec2 {
	return Vec2{-v.X, -v.Y}
}

func (v Vec2) Dot(o Vec2) float64 {
	return v.X*o.X + v.Y*o.Y
}

/// Perform the cross product on two vectors. In 2D this produces a scalar.
func (v Vec2) Cross(o Vec2) float64 {
	return v.X*o.Y - v.Y*o.X
}

/// Perform the cross product on a vector and a scalar. In 2D this produces
/// a vector.
func (v Vec2) CrossVS(s float64) Vec2 {
	return Vec2{s * v.Y, -s * v.X}
}

/// Perform the cross product on a scalar and a vector. In 2D this produces
/// a vector.
func CrossSV(s float64, v Vec2) Vec2 {
	return Vec2{-s * v.Y, s * v.X}
}

func (v Vec2) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

func (v Vec2) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

/// Normalized returns the unit vector along v and the original length. A
/// vector shorter than Epsilon comes back unchanged with length 0.
func (v Vec2) Normalized() (Vec2, float64) {
	length := v.Length()
	if length < Epsilon {
		return v, 0.0
	}
	inv := 1.0 / length
	return Vec2{v.X * inv, v.Y * inv}, length
}

/// Get the skew vector such that dot(skew_vec, other) == cross(vec, other)
func (v Vec2) Skew() Vec2 {
	return Vec2{-v.Y, v.X}
}

func (v Vec2) IsValid() bool {
	return IsValid(v.X) && IsValid(v.Y)
}

func (v Vec2) Abs() Vec2 {
	return Vec2{math.Abs(v.X), math.Abs(v.Y)}
}

func (v Vec2) Distance(o Vec2) float64 {
	return v.Sub(o).Length()
}

func (v Vec2) DistanceSquared(o Vec2) float64 {
	return v.Sub(o).LengthSquared()
}

func MinVec2(a, b Vec2) Vec2 {
	return Vec2{math.Min(a.X, b.X), math.Min(a.Y, b.Y)}
}

func MaxVec2(a, b Vec2) Vec2 {
	return Vec2{math.Max(a.X, b.X), math.Max(a.Y, b.Y)}
}

///////////////////////////////////////////////////////////////////////////////
/// A 2D column vector with 3 elements.
///////////////////////////////////////////////////////////////////////////////
type Vec3 struct {
	X, Y, Z float64
}

func MakeVec3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Mul(s float64) Vec3 {
	return Vec3{s * v.X, s * v.Y, s * v.Z}
}

func (v Vec3) Neg() Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{v.Y*o.Z - v.Z*o.Y, v.Z*o.X - v.X*o.Z, v.X*o.Y - v.Y*o.X}
}

///////////////////////////////////////////////////////////////////////////////
/// A 2-by-2 matrix. Stored in column-major order.
///////////////////////////////////////////////////////////////////////////////
type Mat22 struct {
	Ex, Ey Vec2
}

func MakeMat22(c1, c2 Vec2) Mat22 {
	return Mat22{Ex: c1, Ey: c2}
}

func (m Mat22) MulVec(v Vec2) Vec2 {
	return Vec2{m.Ex.X*v.X + m.Ey.X*v.Y, m.Ex.Y*v.X + m.Ey.Y*v.Y}
}

func (m Mat22) Inverse() Mat22 {
	a, b, c, d := m.Ex.X, m.Ey.X, m.Ex.Y, m.Ey.Y
	det := a*d - b*c
	if det != 0.0 {
		det = 1.0 / det
	}
	return Mat22{
		Ex: Vec2{det * d, -det * c},
		Ey: Vec2{-det * b, det * a},
	}
}

/// Solve A * x = b, where b is a column vector. This is more efficient
/// than computing the inverse in one-shot cases.
func (m Mat22) Solve(b Vec2) Vec2 {
	a11, a12, a21, a22 := m.Ex.X, m.Ey.X, m.Ex.Y, m.Ey.Y
	det := a11*a22 - a12*a21
	if det != 0.0 {
		det = 1.0 / det
	}
	return Vec2{det * (a22*b.X - a12*b.Y), det * (a11*b.Y - a21*b.X)}
}

///////////////////////////////////////////////////////////////////////////////
/// A 3-by-3 matrix. Stored in column-major order.
///////////////////////////////////////////////////////////////////////////////
type Mat33 struct {
	Ex, Ey, Ez Vec3
}

func (m Mat33) MulVec(v Vec3) Vec3 {
	return m.Ex.Mul(v.X).Add(m.Ey.Mul(v.Y)).Add(m.Ez.Mul(v.Z))
}

/// Multiply the upper 2-by-2 block times a vector.
func (m Mat33) MulVec22(v Vec2) Vec2 {
	return Vec2{m.Ex.X*v.X + m.Ey.X*v.Y, m.Ex.Y*v.X + m.Ey.Y*v.Y}
}

/// Solve A * x = b, where b is a column vector.
func (m Mat33) Solve33(b Vec3) Vec3 {
	det := m.Ex.Dot(m.Ey.Cross(m.Ez))
	if det != 0.0 {
		det = 1.0 / det
	}
	return Vec3{
		X: det * b.Dot(m.Ey.Cross(m.Ez)),
		Y: det * m.Ex.Dot(b.Cross(m.Ez)),
		Z: det * m.Ex.Dot(m.Ey.Cross(b)),
	}
}

/// Solve A * x = b using only the upper 2-by-2 block.
func (m Mat33) Solve22(b Vec2) Vec2 {
	return Mat22{Ex: Vec2{m.Ex.X, m.Ex.Y}, Ey: Vec2{m.Ey.X, m.Ey.Y}}.Solve(b)
}

/// Returns the zero matrix if singular.
func (m Mat33) SymInverse33() Mat33 {
	det := m.Ex.Dot(m.Ey.Cross(m.Ez))
	if det != 0.0 {
		det = 1.0 / det
	}

	a11, a12, a13 := m.Ex.X, m.Ey.X, m.Ez.X
	a22, a23 := m.Ey.Y, m.Ez.Y
	a33 := m.Ez.Z

	var r Mat33
	r.Ex.X = det * (a22*a33 - a23*a23)
	r.Ex.Y = det * (a13*a23 - a12*a33)
	r.Ex.Z = det * (a12*a23 - a13*a22)

	r.Ey.X = r.Ex.Y
	r.Ey.Y = det * (a11*a33 - a13*a13)
	r.Ey.Z = det * (a13*a12 - a11*a23)

	r.Ez.X = r.Ex.Z
	r.Ez.Y = r.Ey.Z
	r.Ez.Z = det * (a11*a22 - a12*a12)
	return r
}

///////////////////////////////////////////////////////////////////////////////
/// Rotation
///////////////////////////////////////////////////////////////////////////////
type Rot struct {
	/// Sine and cosine
	S, C float64
}

var RotIdentity = Rot{S: 0, C: 1}

func MakeRot(angle float64) Rot {
	s, c := math.Sincos(angle)
	return Rot{S: s, C: c}
}

func (q Rot) Angle() float64 {
	return math.Atan2(q.S, q.C)
}

/// Multiply two rotations: q * r
func (q Rot) Mul(r Rot) Rot {
	return Rot{
		S: q.S*r.C + q.C*r.S,
		C: q.C*r.C - q.S*r.S,
	}
}

/// Transpose multiply two rotations: qT * r
func (q Rot) MulT(r Rot) Rot {
	return Rot{
		S: q.C*r.S - q.S*r.C,
		C: q.C*r.C + q.S*r.S,
	}
}

/// Rotate a vector
func (q Rot) Apply(v Vec2) Vec2 {
	return Vec2{q.C*v.X - q.S*v.Y, q.S*v.X + q.C*v.Y}
}

/// Inverse rotate a vector
func (q Rot) ApplyT(v Vec2) Vec2 {
	return Vec2{q.C*v.X + q.S*v.Y, -q.S*v.X + q.C*v.Y}
}

///////////////////////////////////////////////////////////////////////////////
/// A transform contains translation and rotation. It is used to represent
/// the position and orientation of rigid frames.
///////////////////////////////////////////////////////////////////////////////
type Transform struct {
	P Vec2
	Q Rot
}

var TransformIdentity = Transform{Q: RotIdentity}

func MakeTransform(position Vec2, angle float64) Transform {
	return Transform{P: position, Q: MakeRot(angle)}
}

/// Apply maps a local point to world space.
func (t Transform) Apply(v Vec2) Vec2 {
	return Vec2{
		(t.Q.C*v.X - t.Q.S*v.Y) + t.P.X,
		(t.Q.S*v.X + t.Q.C*v.Y) + t.P.Y,
	}
}

/// ApplyT maps a world point to local space.
func (t Transform) ApplyT(v Vec2) Vec2 {
	px := v.X - t.P.X
	py := v.Y - t.P.Y
	return Vec2{t.Q.C*px + t.Q.S*py, -t.Q.S*px + t.Q.C*py}
}

// A * B
func (t Transform) Mul(b Transform) Transform {
	return Transform{P: t.Q.Apply(b.P).Add(t.P), Q: t.Q.Mul(b.Q)}
}

// A^T * B
func (t Transform) MulT(b Transform) Transform {
	return Transform{P: t.Q.ApplyT(b.P.Sub(t.P)), Q: t.Q.MulT(b.Q)}
}

///////////////////////////////////////////////////////////////////////////////
/// This describes the motion of a body over one time step. Shapes are
/// defined with respect to the body origin, which may not coincide with
/// the center of mass, so the sweep interpolates the center of mass.
///////////////////////////////////////////////////////////////////////////////
type Sweep struct {
	LocalCenter Vec2    ///< local center of mass position
	C0, C       Vec2    ///< center world positions
	A0, A       float64 ///< world angles
}

/// Transform at fraction beta of the step, beta in [0,1].
func (s Sweep) Transform(beta float64) Transform {
	var xf Transform
	xf.P = s.C0.Mul(1.0 - beta).Add(s.C.Mul(beta))
	xf.Q = MakeRot((1.0-beta)*s.A0 + beta*s.A)

	// Shift to origin
	xf.P = xf.P.Sub(xf.Q.Apply(s.LocalCenter))
	return xf
}
