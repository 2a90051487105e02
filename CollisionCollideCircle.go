package dyn2d

/// Compute the collision manifold between two circles.
func CollideCircles(manifold *Manifold, circleA *Circle, xfA Transform, circleB *Circle, xfB Transform) {
	manifold.PointCount = 0

	pA := xfA.Apply(circleA.center)
	pB := xfB.Apply(circleB.center)

	d := pB.Sub(pA)
	distSqr := d.Dot(d)
	radius := circleA.radius + circleB.radius
	if distSqr > radius*radius {
		return
	}

	manifold.Type = ManifoldCircles
	manifold.LocalPoint = circleA.center
	manifold.LocalNormal = Vec2{}
	manifold.PointCount = 1

	manifold.Points[0].LocalPoint = circleB.center
	manifold.Points[0].ID = ContactID{}
}

/// Compute the collision manifold between a polygon and a circle.
func CollidePolygonAndCircle(manifold *Manifold, polygonA *Polygon, xfA Transform, circleB *Circle, xfB Transform) {
	manifold.PointCount = 0

	// Compute circle position in the frame of the polygon.
	c := xfB.Apply(circleB.center)
	cLocal := xfA.ApplyT(c)

	// Find the min separating edge.
	normalIndex := 0
	separation := -MaxFloat
	radius := PolygonRadius + circleB.radius
	vertices := polygonA.vertices
	normals := polygonA.normals
	vertexCount := len(vertices)

	for i := 0; i < vertexCount; i++ {
		s := normals[i].Dot(cLocal.Sub(vertices[i]))

		if s > radius {
			// Early out.
			return
		}

		// Strictly greater keeps the first edge on ties.
		if s > separation {
			separation = s
			normalIndex = i
		}
	}

	// Vertices that subtend the incident face.
	vertIndex1 := normalIndex
	vertIndex2 := (vertIndex1 + 1) % vertexCount
	v1 := vertices[vertIndex1]
	v2 := vertices[vertIndex2]

	manifold.Type = ManifoldFaceA
	manifold.Points[0].LocalPoint = circleB.center
	manifold.Points[0].ID = ContactID{}

	// If the center is inside the polygon ...
	if separation < Epsilon {
		manifold.PointCount = 1
		manifold.LocalNormal = normals[normalIndex]
		manifold.LocalPoint = v1.Add(v2).Mul(0.5)
		return
	}

	// Compute barycentric coordinates
	u1 := cLocal.Sub(v1).Dot(v2.Sub(v1))
	u2 := cLocal.Sub(v2).Dot(v1.Sub(v2))

	switch {
	case u1 <= 0.0:
		if cLocal.DistanceSquared(v1) > radius*radius {
			return
		}

		manifold.PointCount = 1
		manifold.LocalNormal, _ = cLocal.Sub(v1).Normalized()
		manifold.LocalPoint = v1

	case u2 <= 0.0:
		if cLocal.DistanceSquared(v2) > radius*radius {
			return
		}

		manifold.PointCount = 1
		manifold.LocalNormal, _ = cLocal.Sub(v2).Normalized()
		manifold.LocalPoint = v2

	default:
		faceCenter := v1.Add(v2).Mul(0.5)
		s := cLocal.Sub(faceCenter).Dot(normals[vertIndex1])
		if s > radius {
			return
		}

		manifold.PointCount = 1
		manifold.LocalNormal = normals[vertIndex1]
		manifold.LocalPoint = faceCenter
	}
}
