package dyn2d

import (
	"math"
	"testing"

	"github.com/pkg/errors"
)

func TestNewPolygonValidation(t *testing.T) {
	tooMany := make([]Vec2, MaxPolygonVertices+1)
	for i := range tooMany {
		a := 2.0 * Pi * float64(i) / float64(len(tooMany))
		tooMany[i] = MakeVec2(math.Cos(a), math.Sin(a))
	}

	tests := []struct {
		name     string
		vertices []Vec2
		err      error
	}{
		{"two points", []Vec2{{0, 0}, {1, 0}}, ErrDegeneratePolygon},
		{"welded", []Vec2{{0, 0}, {1, 0}, {1, 0.0001}}, ErrDegeneratePolygon},
		{"collinear", []Vec2{{0, 0}, {1, 0}, {2, 0}}, ErrDegeneratePolygon},
		{"nan", []Vec2{{0, 0}, {1, 0}, {math.NaN(), 1}}, ErrDegeneratePolygon},
		{"concave", []Vec2{{0, 0}, {2, 0}, {1, 0.5}, {2, 2}, {0, 2}}, ErrNonConvexPolygon},
		{"bowtie", []Vec2{{0, 0}, {1, 1}, {1, 0}, {0, 1}}, ErrNonConvexPolygon},
		{"crossed rectangle", []Vec2{{0, 0}, {2, 0}, {0, 1}, {2, 1}}, ErrNonConvexPolygon},
		{"clockwise bowtie", []Vec2{{0, 0}, {0, 1}, {1, 0}, {1, 1}}, ErrNonConvexPolygon},
		{"too many", tooMany, ErrTooManyVertices},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPolygon(tt.vertices...)
			if errors.Cause(err) != tt.err {
				t.Fatalf("NewPolygon() error = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestNewPolygonWinding(t *testing.T) {
	// clockwise input is reordered
	p, err := NewPolygon(MakeVec2(0, 0), MakeVec2(0, 1), MakeVec2(1, 1), MakeVec2(1, 0))
	if err != nil {
		t.Fatal(err)
	}

	if got := signedArea(p.Vertices()); got <= 0 {
		t.Fatalf("signed area = %v, want counter clockwise vertices", got)
	}

	if math.Abs(p.Area()-1.0) > 1e-12 {
		t.Fatalf("area = %v, want 1", p.Area())
	}

	c := p.Centroid()
	if math.Abs(c.X-0.5) > 1e-12 || math.Abs(c.Y-0.5) > 1e-12 {
		t.Fatalf("centroid = %v, want (0.5, 0.5)", c)
	}

	for i, n := range p.Normals() {
		if math.Abs(n.Length()-1.0) > 1e-12 {
			t.Fatalf("normal %d = %v is not unit length", i, n)
		}
	}
}

func TestShapeConstructors(t *testing.T) {
	if _, err := NewCircle(0); errors.Cause(err) != ErrInvalidRadius {
		t.Fatalf("NewCircle(0) error = %v", err)
	}
	if _, err := NewCircle(-1); errors.Cause(err) != ErrInvalidRadius {
		t.Fatalf("NewCircle(-1) error = %v", err)
	}
	if _, err := NewRectangle(1, 0); errors.Cause(err) != ErrInvalidSize {
		t.Fatalf("NewRectangle(1, 0) error = %v", err)
	}
	if _, err := NewRectangle(math.Inf(1), 1); errors.Cause(err) != ErrInvalidSize {
		t.Fatalf("NewRectangle(inf, 1) error = %v", err)
	}

	r, err := NewRectangle(2, 4)
	if err != nil {
		t.Fatal(err)
	}
	if r.Kind() != ShapePolygon {
		t.Fatalf("rectangle kind = %v", r.Kind())
	}
	if r.Width() != 2 || r.Height() != 4 || r.Area() != 8 {
		t.Fatalf("rectangle %v x %v area %v", r.Width(), r.Height(), r.Area())
	}
}

func TestShapeTestPoint(t *testing.T) {
	circle, _ := NewCircle(0.5)
	box, _ := NewRectangle(1, 1)
	xf := MakeTransform(MakeVec2(2, 0), 0.25*Pi)

	tests := []struct {
		shape Shape
		point Vec2
		want  bool
	}{
		{circle, MakeVec2(2, 0), true},
		{circle, MakeVec2(2.4, 0), true},
		{circle, MakeVec2(2.6, 0), false},
		{box, MakeVec2(2, 0.6), true}, // rotated corner
		{box, MakeVec2(2.6, 0.6), false},
	}

	for i, tt := range tests {
		if got := tt.shape.TestPoint(xf, tt.point); got != tt.want {
			t.Errorf("%d: %v.TestPoint(%v) = %v, want %v", i, tt.shape.Kind(), tt.point, got, tt.want)
		}
	}
}

func TestCollideNormalPointsFromAToB(t *testing.T) {
	circle, _ := NewCircle(1.0)
	box, _ := NewRectangle(2.0, 2.0)

	tests := []struct {
		name   string
		a, b   Shape
		xfB    Transform
		normal Vec2
	}{
		{"circles", circle, circle, MakeTransform(MakeVec2(1.5, 0), 0), MakeVec2(1, 0)},
		{"circle polygon", circle, box, MakeTransform(MakeVec2(0, 1.5), 0), MakeVec2(0, 1)},
		{"polygon circle", box, circle, MakeTransform(MakeVec2(-1.5, 0), 0), MakeVec2(-1, 0)},
		{"polygons", box, box, MakeTransform(MakeVec2(0, -1.9), 0), MakeVec2(0, -1)},
	}

	xfA := MakeTransform(Vec2{}, 0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, touching := Collide(tt.a, xfA, tt.b, tt.xfB)
			if !touching {
				t.Fatal("shapes do not touch")
			}
			if m.PointCount < 1 || m.PointCount > MaxManifoldPoints {
				t.Fatalf("point count = %d", m.PointCount)
			}

			wm := MakeWorldManifold(&m, xfA, tt.a.Radius(), tt.xfB, tt.b.Radius())
			if wm.Normal.Sub(tt.normal).Length() > 1e-9 {
				t.Fatalf("normal = %v, want %v", wm.Normal, tt.normal)
			}
			for i := 0; i < m.PointCount; i++ {
				if wm.Separations[i] > 0 {
					t.Fatalf("point %d separation = %v, want overlap", i, wm.Separations[i])
				}
			}
		})
	}
}

func TestCollideSeparated(t *testing.T) {
	circle, _ := NewCircle(1.0)
	box, _ := NewRectangle(2.0, 2.0)
	xfA := MakeTransform(Vec2{}, 0)
	xfB := MakeTransform(MakeVec2(3, 0), 0)

	for _, pair := range [][2]Shape{{circle, circle}, {circle, box}, {box, circle}, {box, box}} {
		if m, touching := Collide(pair[0], xfA, pair[1], xfB); touching || m.PointCount != 0 {
			t.Fatalf("%v/%v: touching with %d points", pair[0].Kind(), pair[1].Kind(), m.PointCount)
		}
	}
}

func TestCollidePolygonsTieUsesFirstShape(t *testing.T) {
	box, _ := NewRectangle(1.0, 1.0)
	xfA := MakeTransform(Vec2{}, 0)
	xfB := MakeTransform(MakeVec2(0.9, 0), 0)

	m, touching := Collide(box, xfA, box, xfB)
	if !touching {
		t.Fatal("boxes do not touch")
	}
	if m.Type != ManifoldFaceA {
		t.Fatalf("manifold type = %v, want reference face on the first shape", m.Type)
	}
	if m.PointCount != 2 {
		t.Fatalf("point count = %d, want 2", m.PointCount)
	}

	m, _ = Collide(box, xfB, box, xfA)
	if m.Type != ManifoldFaceA {
		t.Fatalf("swapped manifold type = %v, want reference face on the first shape", m.Type)
	}
}
