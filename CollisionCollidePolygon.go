package dyn2d

/// Separations of the two polygons closer than this are treated as a tie,
/// and the tie goes to the first polygon of the pair.
const referenceFaceTolerance = 0.1 * DefaultLinearSlop

// Find the max separation between poly1 and poly2 using edge normals from poly1.
// On equal separations the lowest edge index wins.
func findMaxSeparation(poly1 *Polygon, xf1 Transform, poly2 *Polygon, xf2 Transform) (int, float64) {
	xf := xf2.MulT(xf1)

	bestIndex := 0
	maxSeparation := -MaxFloat
	for i, n1 := range poly1.normals {
		// Get poly1 normal in frame2.
		n := xf.Q.Apply(n1)
		v1 := xf.Apply(poly1.vertices[i])

		// Find deepest point for normal i.
		si := MaxFloat
		for _, v2 := range poly2.vertices {
			sij := n.Dot(v2.Sub(v1))
			if sij < si {
				si = sij
			}
		}

		if si > maxSeparation {
			maxSeparation = si
			bestIndex = i
		}
	}

	return bestIndex, maxSeparation
}

func findIncidentEdge(poly1 *Polygon, xf1 Transform, edge1 int, poly2 *Polygon, xf2 Transform) [2]clipVertex {
	Assert(0 <= edge1 && edge1 < len(poly1.normals))

	// Get the normal of the reference edge in poly2's frame.
	normal1 := xf2.Q.ApplyT(xf1.Q.Apply(poly1.normals[edge1]))

	// Find the incident edge on poly2.
	index := 0
	minDot := MaxFloat
	for i, n2 := range poly2.normals {
		dot := normal1.Dot(n2)
		if dot < minDot {
			minDot = dot
			index = i
		}
	}

	// Build the clip vertices for the incident edge.
	i1 := index
	i2 := (i1 + 1) % len(poly2.vertices)

	return [2]clipVertex{
		{
			V:  xf2.Apply(poly2.vertices[i1]),
			ID: ContactID{IndexA: uint8(edge1), IndexB: uint8(i1), TypeA: FeatureFace, TypeB: FeatureVertex},
		},
		{
			V:  xf2.Apply(poly2.vertices[i2]),
			ID: ContactID{IndexA: uint8(edge1), IndexB: uint8(i2), TypeA: FeatureFace, TypeB: FeatureVertex},
		},
	}
}

// Find edge normal of max separation on A - return if separating axis is found
// Find edge normal of max separation on B - return if separation axis is found
// Choose reference edge as min(minA, minB)
// Find incident edge
// Clip
// The normal points from 1 to 2
func CollidePolygons(manifold *Manifold, polyA *Polygon, xfA Transform, polyB *Polygon, xfB Transform) {
	manifold.PointCount = 0
	totalRadius := 2 * PolygonRadius

	edgeA, separationA := findMaxSeparation(polyA, xfA, polyB, xfB)
	if separationA > totalRadius {
		return
	}

	edgeB, separationB := findMaxSeparation(polyB, xfB, polyA, xfA)
	if separationB > totalRadius {
		return
	}

	poly1, poly2 := polyA, polyB // reference and incident polygon
	xf1, xf2 := xfA, xfB
	edge1 := edgeA // reference edge
	flip := false
	manifold.Type = ManifoldFaceA

	if separationB > separationA+referenceFaceTolerance {
		poly1, poly2 = polyB, polyA
		xf1, xf2 = xfB, xfA
		edge1 = edgeB
		manifold.Type = ManifoldFaceB
		flip = true
	}

	incidentEdge := findIncidentEdge(poly1, xf1, edge1, poly2, xf2)

	count1 := len(poly1.vertices)
	iv1 := edge1
	iv2 := (edge1 + 1) % count1

	v11 := poly1.vertices[iv1]
	v12 := poly1.vertices[iv2]

	localTangent, _ := v12.Sub(v11).Normalized()
	localNormal := localTangent.CrossVS(1.0)
	planePoint := v11.Add(v12).Mul(0.5)

	tangent := xf1.Q.Apply(localTangent)
	normal := tangent.CrossVS(1.0)

	v11 = xf1.Apply(v11)
	v12 = xf1.Apply(v12)

	// Face offset.
	frontOffset := normal.Dot(v11)

	// Side offsets, extended by polytope skin thickness.
	sideOffset1 := -tangent.Dot(v11) + totalRadius
	sideOffset2 := tangent.Dot(v12) + totalRadius

	// Clip incident edge against extruded edge1 side edges.
	var clipPoints1, clipPoints2 [2]clipVertex

	// Clip to box side 1
	if np := clipSegmentToLine(&clipPoints1, incidentEdge, tangent.Neg(), sideOffset1, iv1); np < 2 {
		return
	}

	// Clip to negative box side 1
	if np := clipSegmentToLine(&clipPoints2, clipPoints1, tangent, sideOffset2, iv2); np < 2 {
		return
	}

	// Now clipPoints2 contains the clipped points.
	manifold.LocalNormal = localNormal
	manifold.LocalPoint = planePoint

	pointCount := 0
	for i := 0; i < MaxManifoldPoints; i++ {
		separation := normal.Dot(clipPoints2[i].V) - frontOffset

		if separation <= totalRadius {
			cp := &manifold.Points[pointCount]
			cp.LocalPoint = xf2.ApplyT(clipPoints2[i].V)
			cp.ID = clipPoints2[i].ID
			if flip {
				cp.ID = cp.ID.Swapped()
			}
			pointCount++
		}
	}

	manifold.PointCount = pointCount
}
