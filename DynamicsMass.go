package dyn2d

import (
	"github.com/pkg/errors"
)

/// MassType tells the solver which motions a body resists.
type MassType uint8

const (
	/// Finite mass and inertia, the body translates and rotates.
	MassNormal MassType = iota
	/// Immovable: zero inverse mass and inverse inertia.
	MassInfinite
	/// Only rotates; impulses never change the linear velocity.
	MassFixedLinearVelocity
	/// Only translates; impulses never change the angular velocity.
	MassFixedAngularVelocity
)

func (t MassType) String() string {
	switch t {
	case MassNormal:
		return "normal"
	case MassInfinite:
		return "infinite"
	case MassFixedLinearVelocity:
		return "fixed-linear-velocity"
	case MassFixedAngularVelocity:
		return "fixed-angular-velocity"
	}
	return "unknown"
}

/// Mass holds the mass properties of a shape or a body. Center is in local
/// coordinates and Inertia is about Center. InvMass and InvInertia are what
/// the solver uses; they are derived from the other fields by NewMass and
/// SetType and are exactly zero for MassInfinite.
type Mass struct {
	Center     Vec2
	Mass       float64
	Inertia    float64
	InvMass    float64
	InvInertia float64
	Type       MassType
}

/// NewMass returns a MassNormal record. A zero mass or inertia collapses to
/// the matching partial type, both zero to MassInfinite.
func NewMass(center Vec2, mass, inertia float64) Mass {
	m := Mass{Center: center, Mass: mass, Inertia: inertia}

	switch {
	case mass <= 0 && inertia <= 0:
		m.Type = MassInfinite
	case mass <= 0:
		m.Type = MassFixedLinearVelocity
	case inertia <= 0:
		m.Type = MassFixedAngularVelocity
	default:
		m.Type = MassNormal
	}

	m.updateInverse()
	return m
}

/// InfiniteMass is the mass of a body without fixtures.
func InfiniteMass() Mass {
	return Mass{Type: MassInfinite}
}

func (m Mass) validate() error {
	if m.Mass < 0 || m.Inertia < 0 || !IsValid(m.Mass) || !IsValid(m.Inertia) || !m.Center.IsValid() {
		return errors.Wrapf(ErrInvalidMass, "mass %v inertia %v", m.Mass, m.Inertia)
	}
	return nil
}

func (m *Mass) updateInverse() {
	m.InvMass = 0
	m.InvInertia = 0

	if m.Mass > 0 && (m.Type == MassNormal || m.Type == MassFixedAngularVelocity) {
		m.InvMass = 1.0 / m.Mass
	}
	if m.Inertia > 0 && (m.Type == MassNormal || m.Type == MassFixedLinearVelocity) {
		m.InvInertia = 1.0 / m.Inertia
	}
}

/// WithType returns a copy of m of the given type with the inverses recomputed.
func (m Mass) WithType(t MassType) Mass {
	m.Type = t
	m.updateInverse()
	return m
}

func (m Mass) IsInfinite() bool {
	return m.Type == MassInfinite
}

/// CreateMass aggregates the mass of several parts with the parallel axis
/// theorem. The center is the mass weighted mean of the part centers, and
/// each part contributes its own inertia plus mass times the squared
/// distance from its center to the aggregate center. No parts, or parts
/// with no mass at all, give an infinite mass.
func CreateMass(parts []Mass) Mass {
	if len(parts) == 0 {
		return InfiniteMass()
	}

	if len(parts) == 1 {
		return NewMass(parts[0].Center, parts[0].Mass, parts[0].Inertia)
	}

	total := 0.0
	center := Vec2{}
	for _, p := range parts {
		total += p.Mass
		center = center.Add(p.Center.Mul(p.Mass))
	}

	if total <= 0 {
		return InfiniteMass()
	}

	center = center.Mul(1.0 / total)

	inertia := 0.0
	for _, p := range parts {
		inertia += p.Inertia + p.Mass*p.Center.DistanceSquared(center)
	}

	return NewMass(center, total, inertia)
}
