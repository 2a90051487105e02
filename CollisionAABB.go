package dyn2d

import (
	"math"
)

/// Ray-cast input data. The ray extends from P1 to P1 + MaxFraction * (P2 - P1).
type RayCastInput struct {
	P1, P2      Vec2
	MaxFraction float64
}

/// Ray-cast output data. The ray hits at P1 + Fraction * (P2 - P1), where P1 and P2
/// come from RayCastInput.
type RayCastOutput struct {
	Normal   Vec2
	Fraction float64
}

/// An axis aligned bounding box.
type AABB struct {
	LowerBound Vec2 ///< the lower vertex
	UpperBound Vec2 ///< the upper vertex
}

func MakeAABB(lower, upper Vec2) AABB {
	return AABB{LowerBound: lower, UpperBound: upper}
}

/// Get the center of the AABB.
func (bb AABB) Center() Vec2 {
	return bb.LowerBound.Add(bb.UpperBound).Mul(0.5)
}

/// Get the extents of the AABB (half-widths).
func (bb AABB) Extents() Vec2 {
	return bb.UpperBound.Sub(bb.LowerBound).Mul(0.5)
}

/// Get the perimeter length
func (bb AABB) Perimeter() float64 {
	wx := bb.UpperBound.X - bb.LowerBound.X
	wy := bb.UpperBound.Y - bb.LowerBound.Y
	return 2.0 * (wx + wy)
}

/// Union of two AABBs.
func (bb AABB) Combine(o AABB) AABB {
	return AABB{
		LowerBound: MinVec2(bb.LowerBound, o.LowerBound),
		UpperBound: MaxVec2(bb.UpperBound, o.UpperBound),
	}
}

/// Expanded returns the box grown by margin on every side.
func (bb AABB) Expanded(margin float64) AABB {
	r := Vec2{margin, margin}
	return AABB{LowerBound: bb.LowerBound.Sub(r), UpperBound: bb.UpperBound.Add(r)}
}

/// Does this aabb contain the provided AABB.
func (bb AABB) Contains(o AABB) bool {
	return bb.LowerBound.X <= o.LowerBound.X &&
		bb.LowerBound.Y <= o.LowerBound.Y &&
		o.UpperBound.X <= bb.UpperBound.X &&
		o.UpperBound.Y <= bb.UpperBound.Y
}

func (bb AABB) ContainsPoint(p Vec2) bool {
	return bb.LowerBound.X <= p.X && p.X <= bb.UpperBound.X &&
		bb.LowerBound.Y <= p.Y && p.Y <= bb.UpperBound.Y
}

func (bb AABB) IsValid() bool {
	d := bb.UpperBound.Sub(bb.LowerBound)
	return d.X >= 0.0 && d.Y >= 0.0 && bb.LowerBound.IsValid() && bb.UpperBound.IsValid()
}

func (bb AABB) Overlaps(o AABB) bool {
	d1 := o.LowerBound.Sub(bb.UpperBound)
	d2 := bb.LowerBound.Sub(o.UpperBound)

	if d1.X > 0.0 || d1.Y > 0.0 {
		return false
	}

	if d2.X > 0.0 || d2.Y > 0.0 {
		return false
	}

	return true
}

func component(v Vec2, i int) float64 {
	if i == 0 {
		return v.X
	}
	return v.Y
}

// From Real-time Collision Detection, p179.
func (bb AABB) RayCast(input RayCastInput) (RayCastOutput, bool) {
	tmin := -MaxFloat
	tmax := MaxFloat

	p := input.P1
	d := input.P2.Sub(input.P1)
	absD := d.Abs()

	var normal Vec2

	for i := 0; i < 2; i++ {
		pi := component(p, i)
		lower := component(bb.LowerBound, i)
		upper := component(bb.UpperBound, i)

		if component(absD, i) < Epsilon {
			// Parallel.
			if pi < lower || upper < pi {
				return RayCastOutput{}, false
			}
			continue
		}

		invD := 1.0 / component(d, i)
		t1 := (lower - pi) * invD
		t2 := (upper - pi) * invD

		// Sign of the normal vector.
		s := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			s = 1.0
		}

		// Push the min up
		if t1 > tmin {
			normal = Vec2{}
			if i == 0 {
				normal.X = s
			} else {
				normal.Y = s
			}
			tmin = t1
		}

		// Pull the max down
		tmax = math.Min(tmax, t2)

		if tmin > tmax {
			return RayCastOutput{}, false
		}
	}

	// Does the ray start inside the box?
	// Does the ray intersect beyond the max fraction?
	if tmin < 0.0 || input.MaxFraction < tmin {
		return RayCastOutput{}, false
	}

	return RayCastOutput{Normal: normal, Fraction: tmin}, true
}
