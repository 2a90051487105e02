package dyn2d

type collideFunc func(m *Manifold, a Shape, xfA Transform, b Shape, xfB Transform)

// collideTable holds one routine per ordered pair of shape kinds. Routines
// for the reversed order collide the pair swapped and flip the manifold, so
// the normal always points from the first shape to the second.
var collideTable = [shapeKindCount][shapeKindCount]collideFunc{
	ShapeCircle: {
		ShapeCircle: func(m *Manifold, a Shape, xfA Transform, b Shape, xfB Transform) {
			CollideCircles(m, a.(*Circle), xfA, b.(*Circle), xfB)
		},
		ShapePolygon: func(m *Manifold, a Shape, xfA Transform, b Shape, xfB Transform) {
			CollidePolygonAndCircle(m, polygonOf(b), xfB, a.(*Circle), xfA)
			flipManifold(m)
		},
	},
	ShapePolygon: {
		ShapeCircle: func(m *Manifold, a Shape, xfA Transform, b Shape, xfB Transform) {
			CollidePolygonAndCircle(m, polygonOf(a), xfA, b.(*Circle), xfB)
		},
		ShapePolygon: func(m *Manifold, a Shape, xfA Transform, b Shape, xfB Transform) {
			CollidePolygons(m, polygonOf(a), xfA, polygonOf(b), xfB)
		},
	},
}

// flipManifold rewrites a manifold computed for (B, A) so it describes (A, B).
func flipManifold(m *Manifold) {
	if m.PointCount == 0 {
		return
	}

	switch m.Type {
	case ManifoldCircles:
		m.LocalPoint, m.Points[0].LocalPoint = m.Points[0].LocalPoint, m.LocalPoint
	case ManifoldFaceA:
		m.Type = ManifoldFaceB
	case ManifoldFaceB:
		m.Type = ManifoldFaceA
	}

	for i := 0; i < m.PointCount; i++ {
		m.Points[i].ID = m.Points[i].ID.Swapped()
	}
}

/// Collide computes the contact manifold of two shapes placed by their
/// transforms. The manifold normal points from a to b. It reports false,
/// with an empty manifold, when the shapes do not touch.
func Collide(a Shape, xfA Transform, b Shape, xfB Transform) (Manifold, bool) {
	var m Manifold
	collideTable[a.Kind()][b.Kind()](&m, a, xfA, b, xfB)
	return m, m.PointCount > 0
}

/// TestOverlap reports whether two shapes touch, including their skins.
func TestOverlap(a Shape, xfA Transform, b Shape, xfB Transform) bool {
	_, ok := Collide(a, xfA, b, xfB)
	return ok
}
