package dyn2d

import (
	"math"

	"github.com/pkg/errors"
)

/// A circle shape.
type Circle struct {
	center Vec2
	radius float64
}

func NewCircle(radius float64) (*Circle, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return nil, errors.Wrapf(ErrInvalidRadius, "radius %v", radius)
	}
	return &Circle{radius: radius}, nil
}

func (c *Circle) sealed() {}

func (c *Circle) Kind() ShapeKind {
	return ShapeCircle
}

func (c *Circle) Radius() float64 {
	return c.radius
}

/// Center is the local position of the circle center.
func (c *Circle) Center() Vec2 {
	return c.center
}

func (c *Circle) Centroid() Vec2 {
	return c.center
}

func (c *Circle) Area() float64 {
	return Pi * c.radius * c.radius
}

func (c *Circle) Clone() Shape {
	clone := *c
	return &clone
}

func (c *Circle) Translate(v Vec2) {
	c.center = c.center.Add(v)
}

func (c *Circle) Rotate(angle float64) {
	c.center = MakeRot(angle).Apply(c.center)
}

func (c *Circle) TestPoint(xf Transform, p Vec2) bool {
	center := xf.Apply(c.center)
	return p.DistanceSquared(center) <= c.radius*c.radius
}

// Collision Detection in Interactive 3D Environments by Gino van den Bergen
// From Section 3.1.2
// x = s + a * r
// norm(x) = radius
func (c *Circle) RayCast(input RayCastInput, xf Transform) (RayCastOutput, bool) {
	position := xf.Apply(c.center)
	s := input.P1.Sub(position)
	b := s.Dot(s) - c.radius*c.radius

	// Solve quadratic equation.
	r := input.P2.Sub(input.P1)
	cc := s.Dot(r)
	rr := r.Dot(r)
	sigma := cc*cc - rr*b

	// Check for negative discriminant and short segment.
	if sigma < 0.0 || rr < Epsilon {
		return RayCastOutput{}, false
	}

	// Find the point of intersection of the line with the circle.
	a := -(cc + math.Sqrt(sigma))

	// Is the intersection point on the segment?
	if 0.0 <= a && a <= input.MaxFraction*rr {
		a /= rr
		normal, _ := s.Add(r.Mul(a)).Normalized()
		return RayCastOutput{Normal: normal, Fraction: a}, true
	}

	return RayCastOutput{}, false
}

func (c *Circle) ComputeAABB(xf Transform) AABB {
	p := xf.Apply(c.center)
	r := Vec2{c.radius, c.radius}
	return AABB{LowerBound: p.Sub(r), UpperBound: p.Add(r)}
}

func (c *Circle) ComputeMass(density float64) Mass {
	m := density * c.Area()
	return NewMass(c.center, m, 0.5*m*c.radius*c.radius)
}
