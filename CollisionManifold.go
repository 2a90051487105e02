package dyn2d

import (
	"math"
)

const nullFeature uint8 = math.MaxUint8

type FeatureType uint8

const (
	FeatureVertex FeatureType = iota
	FeatureFace
)

/// The features that intersect to form the contact point.
type ContactFeature struct {
	IndexA uint8       ///< Feature index on shapeA
	IndexB uint8       ///< Feature index on shapeB
	TypeA  FeatureType ///< The feature type on shapeA
	TypeB  FeatureType ///< The feature type on shapeB
}

/// ContactID identifies a manifold point across steps. Points of consecutive
/// manifolds with the same key are the same physical point, and their
/// impulses are carried over for warm starting.
type ContactID ContactFeature

func (id ContactID) Key() uint32 {
	var key uint32
	key |= uint32(id.IndexA)
	key |= uint32(id.IndexB) << 8
	key |= uint32(id.TypeA) << 16
	key |= uint32(id.TypeB) << 24
	return key
}

/// Swapped exchanges the A and B halves of the feature. Used when a shape
/// pair is collided in reverse order.
func (id ContactID) Swapped() ContactID {
	return ContactID{IndexA: id.IndexB, IndexB: id.IndexA, TypeA: id.TypeB, TypeB: id.TypeA}
}

/// A manifold point is a contact point belonging to a contact
/// manifold. It holds details related to the geometry and dynamics
/// of the contact points.
/// The local point usage depends on the manifold type:
/// -ManifoldCircles: the local center of circleB
/// -ManifoldFaceA: the local center of circleB or the clip point of polygonB
/// -ManifoldFaceB: the clip point of polygonA
/// Note: the impulses are used for internal caching and may not
/// provide reliable contact forces, especially for high speed collisions.
type ManifoldPoint struct {
	LocalPoint     Vec2      ///< usage depends on manifold type
	NormalImpulse  float64   ///< the non-penetration impulse
	TangentImpulse float64   ///< the friction impulse
	ID             ContactID ///< uniquely identifies a contact point between two shapes
}

type ManifoldType uint8

const (
	ManifoldCircles ManifoldType = iota
	ManifoldFaceA
	ManifoldFaceB
)

/// A manifold for two touching convex shapes.
/// The local point usage depends on the manifold type:
/// -ManifoldCircles: the local center of circleA
/// -ManifoldFaceA: the center of faceA
/// -ManifoldFaceB: the center of faceB
/// Similarly the local normal usage:
/// -ManifoldCircles: not used
/// -ManifoldFaceA: the normal on polygonA
/// -ManifoldFaceB: the normal on polygonB
/// Contacts are stored in local space so that position correction can
/// account for movement during the position iterations.
type Manifold struct {
	Points      [MaxManifoldPoints]ManifoldPoint ///< the points of contact
	LocalNormal Vec2                             ///< not used for ManifoldCircles
	LocalPoint  Vec2                             ///< usage depends on manifold type
	Type        ManifoldType
	PointCount  int ///< the number of manifold points
}

/// This is used to compute the current state of a contact manifold.
type WorldManifold struct {
	Normal      Vec2                       ///< world vector pointing from A to B
	Points      [MaxManifoldPoints]Vec2    ///< world contact point (point of intersection)
	Separations [MaxManifoldPoints]float64 ///< a negative value indicates overlap, in meters
}

/// Evaluate the manifold with supplied transforms. This assumes
/// modest motion from the original state. The radii must come from
/// the shapes that generated the manifold.
func MakeWorldManifold(manifold *Manifold, xfA Transform, radiusA float64, xfB Transform, radiusB float64) WorldManifold {
	var wm WorldManifold
	if manifold.PointCount == 0 {
		return wm
	}

	switch manifold.Type {
	case ManifoldCircles:
		wm.Normal = Vec2{1.0, 0.0}
		pointA := xfA.Apply(manifold.LocalPoint)
		pointB := xfB.Apply(manifold.Points[0].LocalPoint)
		if pointA.DistanceSquared(pointB) > Epsilon*Epsilon {
			wm.Normal, _ = pointB.Sub(pointA).Normalized()
		}

		cA := pointA.Add(wm.Normal.Mul(radiusA))
		cB := pointB.Sub(wm.Normal.Mul(radiusB))
		wm.Points[0] = cA.Add(cB).Mul(0.5)
		wm.Separations[0] = cB.Sub(cA).Dot(wm.Normal)

	case ManifoldFaceA:
		wm.Normal = xfA.Q.Apply(manifold.LocalNormal)
		planePoint := xfA.Apply(manifold.LocalPoint)

		for i := 0; i < manifold.PointCount; i++ {
			clipPoint := xfB.Apply(manifold.Points[i].LocalPoint)
			cA := clipPoint.Add(wm.Normal.Mul(radiusA - clipPoint.Sub(planePoint).Dot(wm.Normal)))
			cB := clipPoint.Sub(wm.Normal.Mul(radiusB))
			wm.Points[i] = cA.Add(cB).Mul(0.5)
			wm.Separations[i] = cB.Sub(cA).Dot(wm.Normal)
		}

	case ManifoldFaceB:
		wm.Normal = xfB.Q.Apply(manifold.LocalNormal)
		planePoint := xfB.Apply(manifold.LocalPoint)

		for i := 0; i < manifold.PointCount; i++ {
			clipPoint := xfA.Apply(manifold.Points[i].LocalPoint)
			cB := clipPoint.Add(wm.Normal.Mul(radiusB - clipPoint.Sub(planePoint).Dot(wm.Normal)))
			cA := clipPoint.Sub(wm.Normal.Mul(radiusA))
			wm.Points[i] = cA.Add(cB).Mul(0.5)
			wm.Separations[i] = cA.Sub(cB).Dot(wm.Normal)
		}

		// Ensure normal points from A to B.
		wm.Normal = wm.Normal.Neg()
	}

	return wm
}

/// Used for computing contact manifolds.
type clipVertex struct {
	V  Vec2
	ID ContactID
}

// Sutherland-Hodgman clipping.
func clipSegmentToLine(vOut *[2]clipVertex, vIn [2]clipVertex, normal Vec2, offset float64, vertexIndexA int) int {
	// Start with no output points
	numOut := 0

	// Calculate the distance of end points to the line
	distance0 := normal.Dot(vIn[0].V) - offset
	distance1 := normal.Dot(vIn[1].V) - offset

	// If the points are behind the plane
	if distance0 <= 0.0 {
		vOut[numOut] = vIn[0]
		numOut++
	}

	if distance1 <= 0.0 {
		vOut[numOut] = vIn[1]
		numOut++
	}

	// If the points are on different sides of the plane
	if distance0*distance1 < 0.0 {
		// Find intersection point of edge and plane
		interp := distance0 / (distance0 - distance1)
		vOut[numOut].V = vIn[0].V.Add(vIn[1].V.Sub(vIn[0].V).Mul(interp))

		// VertexA is hitting edgeB.
		vOut[numOut].ID = ContactID{
			IndexA: uint8(vertexIndexA),
			IndexB: vIn[0].ID.IndexB,
			TypeA:  FeatureVertex,
			TypeB:  FeatureFace,
		}
		numOut++
	}

	return numOut
}
