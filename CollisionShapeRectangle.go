package dyn2d

import (
	"math"

	"github.com/pkg/errors"
)

/// A rectangle is a four sided polygon that remembers its dimensions. It
/// collides as a polygon.
type Rectangle struct {
	Polygon
	width, height float64
}

/// NewRectangle returns a width by height rectangle centered on the local origin.
func NewRectangle(width, height float64) (*Rectangle, error) {
	if !(width > 0) || !(height > 0) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		return nil, errors.Wrapf(ErrInvalidSize, "%v x %v", width, height)
	}

	hx, hy := 0.5*width, 0.5*height

	r := &Rectangle{width: width, height: height}
	r.vertices = []Vec2{{-hx, -hy}, {hx, -hy}, {hx, hy}, {-hx, hy}}
	r.normals = []Vec2{{0.0, -1.0}, {1.0, 0.0}, {0.0, 1.0}, {-1.0, 0.0}}
	r.area = width * height
	return r, nil
}

func (r *Rectangle) Width() float64 {
	return r.width
}

func (r *Rectangle) Height() float64 {
	return r.height
}

/// Angle is the rotation of the rectangle in its local frame.
func (r *Rectangle) Angle() float64 {
	return math.Atan2(r.normals[1].Y, r.normals[1].X)
}

func (r *Rectangle) Clone() Shape {
	return &Rectangle{Polygon: r.Polygon.clone(), width: r.width, height: r.height}
}
