package dyn2d

import (
	"github.com/pkg/errors"
)

/// Bounds describes the region of space the world simulates. Bodies whose
/// AABB leaves the region are reported by the broad phase.
type Bounds interface {
	/// IsOutside reports whether aabb lies entirely outside the region.
	IsOutside(aabb AABB) bool

	/// Translate moves the region by v.
	Translate(v Vec2)
}

/// AxisAlignedBounds is a rectangular region centered on a point.
type AxisAlignedBounds struct {
	aabb AABB
}

/// NewAxisAlignedBounds creates a width x height region centered on the origin.
func NewAxisAlignedBounds(width, height float64) (*AxisAlignedBounds, error) {
	if !(width > 0) || !(height > 0) || !IsValid(width) || !IsValid(height) {
		return nil, errors.Wrapf(ErrInvalidSize, "bounds %v x %v", width, height)
	}

	half := MakeVec2(0.5*width, 0.5*height)
	return &AxisAlignedBounds{aabb: MakeAABB(half.Neg(), half)}, nil
}

func (b *AxisAlignedBounds) AABB() AABB {
	return b.aabb
}

func (b *AxisAlignedBounds) IsOutside(aabb AABB) bool {
	return !b.aabb.Overlaps(aabb)
}

func (b *AxisAlignedBounds) Translate(v Vec2) {
	b.aabb.LowerBound = b.aabb.LowerBound.Add(v)
	b.aabb.UpperBound = b.aabb.UpperBound.Add(v)
}

/// BoundsPolicy decides what the world does with a body that left the bounds.
type BoundsPolicy uint8

const (
	/// The body is deactivated and keeps its state.
	BoundsDeactivate BoundsPolicy = iota
	/// The body is removed from the world.
	BoundsRemove
	/// The body is only reported to the bounds listener.
	BoundsReport
)

func (p BoundsPolicy) String() string {
	switch p {
	case BoundsDeactivate:
		return "deactivate"
	case BoundsRemove:
		return "remove"
	case BoundsReport:
		return "report"
	}
	return "unknown"
}
