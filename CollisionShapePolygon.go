package dyn2d

import (
	"github.com/pkg/errors"
)

/// A convex polygon. The interior of the polygon is to the left of each edge,
/// so vertices are kept in counter clockwise order.
type Polygon struct {
	vertices []Vec2
	normals  []Vec2
	centroid Vec2
	area     float64
}

/// NewPolygon builds a convex polygon from its vertices. Either winding is
/// accepted. Vertices closer than VertexWeldDistance are merged first.
/// Fewer than three distinct vertices, or vertices that are all collinear,
/// fail with ErrDegeneratePolygon. A concave or self intersecting outline
/// fails with ErrNonConvexPolygon; it is never silently replaced by its hull.
func NewPolygon(vertices ...Vec2) (*Polygon, error) {
	if len(vertices) > MaxPolygonVertices {
		return nil, errors.Wrapf(ErrTooManyVertices, "%d vertices, at most %d", len(vertices), MaxPolygonVertices)
	}

	// Perform welding and copy vertices into local buffer.
	ps := make([]Vec2, 0, len(vertices))
	for _, v := range vertices {
		if !v.IsValid() {
			return nil, errors.Wrapf(ErrDegeneratePolygon, "vertex %v", v)
		}

		unique := true
		for _, p := range ps {
			if v.DistanceSquared(p) < VertexWeldDistance*VertexWeldDistance {
				unique = false
				break
			}
		}

		if unique {
			ps = append(ps, v)
		}
	}

	if len(ps) < 3 {
		return nil, errors.Wrapf(ErrDegeneratePolygon, "%d distinct vertices", len(ps))
	}

	if collinear(ps) {
		return nil, errors.Wrap(ErrDegeneratePolygon, "vertices are collinear")
	}

	// A self intersecting outline can have a zero or negative area, the
	// convexity check rejects it after the reorder.
	area := signedArea(ps)
	if area < 0 {
		for i, j := 0, len(ps)-1; i < j; i, j = i+1, j-1 {
			ps[i], ps[j] = ps[j], ps[i]
		}
	}

	poly := &Polygon{vertices: ps}
	if err := poly.validate(); err != nil {
		return nil, err
	}

	if area > -Epsilon && area < Epsilon {
		return nil, errors.Wrap(ErrDegeneratePolygon, "zero area")
	}

	poly.update()
	return poly, nil
}

// collinear reports whether every vertex lies on the line through the
// first two.
func collinear(vs []Vec2) bool {
	e := vs[1].Sub(vs[0])
	for _, v := range vs[2:] {
		if c := e.Cross(v.Sub(vs[0])); c > Epsilon || c < -Epsilon {
			return false
		}
	}
	return true
}

func signedArea(vs []Vec2) float64 {
	area := 0.0
	for i := range vs {
		j := (i + 1) % len(vs)
		area += vs[i].Cross(vs[j])
	}
	return 0.5 * area
}

// validate checks that every vertex lies on or to the left of every edge.
// With a positive signed area this rejects concave and self intersecting
// outlines.
func (p *Polygon) validate() error {
	n := len(p.vertices)
	for i1 := 0; i1 < n; i1++ {
		i2 := (i1 + 1) % n
		v := p.vertices[i1]
		e := p.vertices[i2].Sub(v)

		for j := 0; j < n; j++ {
			if j == i1 || j == i2 {
				continue
			}

			c := e.Cross(p.vertices[j].Sub(v))
			if c < 0.0 {
				return errors.Wrapf(ErrNonConvexPolygon, "vertex %d lies right of edge %d", j, i1)
			}
		}
	}
	return nil
}

// update recomputes the normals, the area and the centroid from the vertices.
func (p *Polygon) update() {
	n := len(p.vertices)
	p.normals = make([]Vec2, n)

	// Compute normals. Welding guarantees non-zero edge lengths.
	for i := 0; i < n; i++ {
		edge := p.vertices[(i+1)%n].Sub(p.vertices[i])
		p.normals[i], _ = edge.CrossVS(1.0).Normalized()
	}

	p.centroid, p.area = computeCentroid(p.vertices)
}

func computeCentroid(vs []Vec2) (Vec2, float64) {
	Assert(len(vs) >= 3)

	c := Vec2{}
	area := 0.0

	// pRef is the reference point for forming triangles.
	// Its location doesn't change the result (except for rounding error).
	pRef := Vec2{}
	for _, v := range vs {
		pRef = pRef.Add(v)
	}
	pRef = pRef.Mul(1.0 / float64(len(vs)))

	inv3 := 1.0 / 3.0

	for i := range vs {
		// Triangle vertices.
		p1 := pRef
		p2 := vs[i]
		p3 := vs[(i+1)%len(vs)]

		e1 := p2.Sub(p1)
		e2 := p3.Sub(p1)

		triangleArea := 0.5 * e1.Cross(e2)
		area += triangleArea

		// Area weighted centroid
		c = c.Add(p1.Add(p2).Add(p3).Mul(triangleArea * inv3))
	}

	Assert(area > Epsilon)
	return c.Mul(1.0 / area), area
}

func (p *Polygon) sealed() {}

func (p *Polygon) Kind() ShapeKind {
	return ShapePolygon
}

func (p *Polygon) Radius() float64 {
	return PolygonRadius
}

func (p *Polygon) Centroid() Vec2 {
	return p.centroid
}

func (p *Polygon) Area() float64 {
	return p.area
}

func (p *Polygon) Count() int {
	return len(p.vertices)
}

/// Vertices returns the local vertices in counter clockwise order. The slice
/// is shared with the polygon and must not be modified.
func (p *Polygon) Vertices() []Vec2 {
	return p.vertices
}

/// Normals returns the outward edge normals; normal i belongs to the edge
/// from vertex i to vertex i+1. The slice must not be modified.
func (p *Polygon) Normals() []Vec2 {
	return p.normals
}

func (p *Polygon) clone() Polygon {
	return Polygon{
		vertices: append([]Vec2(nil), p.vertices...),
		normals:  append([]Vec2(nil), p.normals...),
		centroid: p.centroid,
		area:     p.area,
	}
}

func (p *Polygon) Clone() Shape {
	c := p.clone()
	return &c
}

func (p *Polygon) Translate(v Vec2) {
	for i := range p.vertices {
		p.vertices[i] = p.vertices[i].Add(v)
	}
	p.centroid = p.centroid.Add(v)
}

func (p *Polygon) Rotate(angle float64) {
	q := MakeRot(angle)
	for i := range p.vertices {
		p.vertices[i] = q.Apply(p.vertices[i])
		p.normals[i] = q.Apply(p.normals[i])
	}
	p.centroid = q.Apply(p.centroid)
}

func (p *Polygon) TestPoint(xf Transform, point Vec2) bool {
	pLocal := xf.ApplyT(point)

	for i, n := range p.normals {
		if n.Dot(pLocal.Sub(p.vertices[i])) > 0.0 {
			return false
		}
	}

	return true
}

func (p *Polygon) RayCast(input RayCastInput, xf Transform) (RayCastOutput, bool) {
	// Put the ray into the polygon's frame of reference.
	p1 := xf.Q.ApplyT(input.P1.Sub(xf.P))
	p2 := xf.Q.ApplyT(input.P2.Sub(xf.P))
	d := p2.Sub(p1)

	lower := 0.0
	upper := input.MaxFraction

	index := -1

	for i, n := range p.normals {
		// p = p1 + a * d
		// dot(normal, p - v) = 0
		// dot(normal, p1 - v) + a * dot(normal, d) = 0
		numerator := n.Dot(p.vertices[i].Sub(p1))
		denominator := n.Dot(d)

		if denominator == 0.0 {
			if numerator < 0.0 {
				return RayCastOutput{}, false
			}
		} else {
			// Since denominator < 0, we have to flip the inequality:
			// lower < numerator / denominator <==> denominator * lower > numerator.
			if denominator < 0.0 && numerator < lower*denominator {
				// The segment enters this half-space.
				lower = numerator / denominator
				index = i
			} else if denominator > 0.0 && numerator < upper*denominator {
				// The segment exits this half-space.
				upper = numerator / denominator
			}
		}

		if upper < lower {
			return RayCastOutput{}, false
		}
	}

	if index >= 0 {
		return RayCastOutput{Fraction: lower, Normal: xf.Q.Apply(p.normals[index])}, true
	}

	return RayCastOutput{}, false
}

func (p *Polygon) ComputeAABB(xf Transform) AABB {
	lower := xf.Apply(p.vertices[0])
	upper := lower

	for _, v := range p.vertices[1:] {
		w := xf.Apply(v)
		lower = MinVec2(lower, w)
		upper = MaxVec2(upper, w)
	}

	return AABB{LowerBound: lower, UpperBound: upper}.Expanded(PolygonRadius)
}

func (p *Polygon) ComputeMass(density float64) Mass {
	// Polygon mass, centroid, and inertia.
	// Let rho be the polygon density in mass per unit area.
	// Then:
	// mass = rho * int(dA)
	// centroid.x = (1/mass) * rho * int(x * dA)
	// centroid.y = (1/mass) * rho * int(y * dA)
	// I = rho * int((x*x + y*y) * dA)
	//
	// We can compute these integrals by summing all the integrals
	// for each triangle of the polygon. To evaluate the integral
	// for a single triangle, we make a change of variables to
	// the (u,v) coordinates of the triangle:
	// x = x0 + e1x * u + e2x * v
	// y = y0 + e1y * u + e2y * v
	// where 0 <= u && 0 <= v && u + v <= 1.
	//
	// We integrate u from [0,1-v] and then v from [0,1].
	// We also need to use the Jacobian of the transformation:
	// D = cross(e1, e2)
	//
	// Simplification: triangle centroid = (1/3) * (p1 + p2 + p3)
	n := len(p.vertices)
	Assert(n >= 3)

	center := Vec2{}
	area := 0.0
	I := 0.0

	// s is the reference point for forming triangles, placed inside the polygon.
	s := Vec2{}
	for _, v := range p.vertices {
		s = s.Add(v)
	}
	s = s.Mul(1.0 / float64(n))

	const inv3 = 1.0 / 3.0

	for i := 0; i < n; i++ {
		// Triangle vertices.
		e1 := p.vertices[i].Sub(s)
		e2 := p.vertices[(i+1)%n].Sub(s)

		D := e1.Cross(e2)

		triangleArea := 0.5 * D
		area += triangleArea

		// Area weighted centroid
		center = center.Add(e1.Add(e2).Mul(triangleArea * inv3))

		intx2 := e1.X*e1.X + e2.X*e1.X + e2.X*e2.X
		inty2 := e1.Y*e1.Y + e2.Y*e1.Y + e2.Y*e2.Y

		I += (0.25 * inv3 * D) * (intx2 + inty2)
	}

	Assert(area > Epsilon)

	mass := density * area
	center = center.Mul(1.0 / area)

	// I is about s; shift it to the centroid.
	inertia := density*I - mass*center.Dot(center)

	return NewMass(center.Add(s), mass, inertia)
}
