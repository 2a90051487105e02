package dyn2d

/// ShapeKind selects the collision routine for a pair of shapes. The set is
/// closed: a rectangle is a polygon as far as collision is concerned.
type ShapeKind uint8

const (
	ShapeCircle ShapeKind = iota
	ShapePolygon

	shapeKindCount
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeCircle:
		return "circle"
	case ShapePolygon:
		return "polygon"
	}
	return "unknown"
}

/// A shape is used for collision detection. Shapes live in the local space of
/// the body they are attached to (through a Fixture). Only the types of this
/// package implement Shape: *Circle, *Polygon and *Rectangle.
type Shape interface {
	/// Get the kind of this shape. You can use this to down cast to the concrete shape.
	Kind() ShapeKind

	/// The skin radius used by the collision routines. For circles this is
	/// the circle radius, for polygons PolygonRadius.
	Radius() float64

	/// Local space centroid.
	Centroid() Vec2

	Area() float64

	/// Compute the mass properties of this shape using its dimensions and density.
	/// The inertia is computed about the centroid.
	/// @param density the density in kilograms per meter squared.
	ComputeMass(density float64) Mass

	/// Given a transform, compute the associated axis aligned bounding box.
	ComputeAABB(xf Transform) AABB

	/// Test a point for containment in this shape.
	/// @param xf the shape world transform.
	/// @param p a point in world coordinates.
	TestPoint(xf Transform, p Vec2) bool

	/// Cast a ray against the shape.
	RayCast(input RayCastInput, xf Transform) (RayCastOutput, bool)

	/// Translate moves the local geometry by v.
	Translate(v Vec2)

	/// Rotate turns the local geometry by angle radians about the local origin.
	Rotate(angle float64)

	Clone() Shape

	sealed()
}

// polygonOf returns the polygon geometry of s, or nil when s is not polygonal.
func polygonOf(s Shape) *Polygon {
	switch t := s.(type) {
	case *Polygon:
		return t
	case *Rectangle:
		return &t.Polygon
	}
	return nil
}
