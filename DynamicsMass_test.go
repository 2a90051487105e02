package dyn2d

import (
	"math"
	"testing"

	"github.com/pkg/errors"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(1.0, math.Max(math.Abs(a), math.Abs(b)))
}

func TestNewMassCollapsesType(t *testing.T) {
	tests := []struct {
		mass, inertia float64
		want          MassType
	}{
		{1, 1, MassNormal},
		{0, 1, MassFixedLinearVelocity},
		{1, 0, MassFixedAngularVelocity},
		{0, 0, MassInfinite},
	}

	for _, tt := range tests {
		m := NewMass(Vec2{}, tt.mass, tt.inertia)
		if m.Type != tt.want {
			t.Errorf("NewMass(%v, %v).Type = %v, want %v", tt.mass, tt.inertia, m.Type, tt.want)
		}
	}

	inf := InfiniteMass()
	if inf.InvMass != 0 || inf.InvInertia != 0 {
		t.Fatalf("infinite mass has inverses %v %v", inf.InvMass, inf.InvInertia)
	}
}

func TestMassWithType(t *testing.T) {
	m := NewMass(Vec2{}, 2, 4)

	if got := m.WithType(MassFixedLinearVelocity); got.InvMass != 0 || got.InvInertia != 0.25 {
		t.Fatalf("fixed linear velocity inverses %v %v", got.InvMass, got.InvInertia)
	}
	if got := m.WithType(MassFixedAngularVelocity); got.InvMass != 0.5 || got.InvInertia != 0 {
		t.Fatalf("fixed angular velocity inverses %v %v", got.InvMass, got.InvInertia)
	}
	if got := m.WithType(MassInfinite); got.InvMass != 0 || got.InvInertia != 0 || got.Mass != 2 {
		t.Fatalf("infinite keeps mass %v, inverses %v %v", got.Mass, got.InvMass, got.InvInertia)
	}
}

func TestBodyMassAggregation(t *testing.T) {
	left, _ := NewRectangle(1, 1)
	left.Translate(MakeVec2(-1, 0))
	right, _ := NewRectangle(1, 1)
	right.Translate(MakeVec2(1, 0))
	circle, _ := NewCircle(0.5)
	circle.Translate(MakeVec2(0, 2))

	body := NewBody()
	var parts []Mass
	for _, shape := range []Shape{left, right, circle} {
		f, err := body.AddFixture(shape)
		if err != nil {
			t.Fatal(err)
		}
		parts = append(parts, f.ComputeMass())
	}

	total := 0.0
	center := Vec2{}
	for _, p := range parts {
		total += p.Mass
		center = center.Add(p.Center.Mul(p.Mass))
	}
	center = center.Mul(1.0 / total)

	inertia := 0.0
	for _, p := range parts {
		inertia += p.Inertia + p.Mass*p.Center.DistanceSquared(center)
	}

	m := body.Mass()
	if !almostEqual(m.Mass, total, 1e-12) {
		t.Fatalf("mass = %v, want %v", m.Mass, total)
	}
	if !almostEqual(m.Inertia, inertia, 1e-12) {
		t.Fatalf("inertia = %v, want %v", m.Inertia, inertia)
	}
	if m.Center.Sub(center).Length() > 1e-12 {
		t.Fatalf("center = %v, want %v", m.Center, center)
	}
	if m.Type != MassNormal || !almostEqual(m.InvMass, 1.0/total, 1e-12) {
		t.Fatalf("type %v inverse mass %v", m.Type, m.InvMass)
	}
	if body.WorldCenter().Sub(center).Length() > 1e-12 {
		t.Fatalf("world center = %v, want %v", body.WorldCenter(), center)
	}

	for _, f := range append([]*Fixture(nil), body.Fixtures()...) {
		if !body.RemoveFixture(f) {
			t.Fatal("RemoveFixture() = false")
		}
	}

	m = body.Mass()
	if m.Type != MassInfinite || m.InvMass != 0 || m.InvInertia != 0 {
		t.Fatalf("empty body mass %+v", m)
	}
	if !body.IsInfinite() {
		t.Fatal("empty body is not infinite")
	}
}

func TestBodyMassTypeSurvivesFixtureChanges(t *testing.T) {
	body := NewBody()
	body.SetMassFromShapes(MassFixedAngularVelocity)

	circle, _ := NewCircle(1)
	f, err := body.AddFixture(circle)
	if err != nil {
		t.Fatal(err)
	}
	if got := body.Mass(); got.Type != MassFixedAngularVelocity || got.InvInertia != 0 || got.InvMass == 0 {
		t.Fatalf("mass after add %+v", got)
	}

	body.RemoveFixture(f)
	if _, err := body.AddFixture(circle.Clone()); err != nil {
		t.Fatal(err)
	}
	if got := body.Mass().Type; got != MassFixedAngularVelocity {
		t.Fatalf("type after re-adding = %v", got)
	}
}

func TestBodyExplicitMass(t *testing.T) {
	body := NewBody()
	box, _ := NewRectangle(1, 1)
	if _, err := body.AddFixture(box); err != nil {
		t.Fatal(err)
	}

	if err := body.SetMass(NewMass(Vec2{}, -1, 1)); errors.Cause(err) != ErrInvalidMass {
		t.Fatalf("SetMass(negative) error = %v", err)
	}

	if err := body.SetMass(NewMass(Vec2{}, 10, 3)); err != nil {
		t.Fatal(err)
	}

	// fixture changes leave an explicit mass alone
	circle, _ := NewCircle(2)
	if _, err := body.AddFixture(circle); err != nil {
		t.Fatal(err)
	}
	if got := body.Mass(); got.Mass != 10 || got.Inertia != 3 || !body.MassExplicit() {
		t.Fatalf("explicit mass replaced: %+v", got)
	}

	body.SetMassFromShapes(MassNormal)
	if body.MassExplicit() || body.Mass().Mass == 10 {
		t.Fatalf("mass not recomputed: %+v", body.Mass())
	}
}

func TestFixtureValidation(t *testing.T) {
	circle, _ := NewCircle(1)
	f := NewFixture(circle)

	if err := f.SetDensity(0); errors.Cause(err) != ErrInvalidDensity {
		t.Fatalf("SetDensity(0) error = %v", err)
	}
	if err := f.SetFriction(-0.1); errors.Cause(err) != ErrInvalidFriction {
		t.Fatalf("SetFriction(-0.1) error = %v", err)
	}

	a, b := NewBody(), NewBody()
	if err := a.AttachFixture(f); err != nil {
		t.Fatal(err)
	}
	if err := b.AttachFixture(f); err != ErrFixtureAttached {
		t.Fatalf("second AttachFixture() error = %v", err)
	}
	if b.RemoveFixture(f) {
		t.Fatal("RemoveFixture() of a foreign fixture = true")
	}
}
