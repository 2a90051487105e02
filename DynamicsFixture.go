package dyn2d

import (
	"github.com/pkg/errors"
)

/// This holds contact filtering data.
type Filter struct {
	/// The collision category bits. Normally you would just set one bit.
	CategoryBits uint16

	/// The collision mask bits. This states the categories that this
	/// shape would accept for collision.
	MaskBits uint16

	/// Collision groups allow a certain group of objects to never collide (negative)
	/// or always collide (positive). Zero means no collision group. Non-zero group
	/// filtering always wins against the mask bits.
	GroupIndex int16
}

func DefaultFilter() Filter {
	return Filter{
		CategoryBits: 0x0001,
		MaskBits:     0xFFFF,
		GroupIndex:   0,
	}
}

/// ShouldCollide reports whether fixtures with these two filters may touch.
func (f Filter) ShouldCollide(o Filter) bool {
	if f.GroupIndex == o.GroupIndex && f.GroupIndex != 0 {
		return f.GroupIndex > 0
	}

	return (f.MaskBits&o.CategoryBits) != 0 && (f.CategoryBits&o.MaskBits) != 0
}

/// A fixture is used to attach a shape to a body for collision detection. A fixture
/// inherits its transform from its parent. Fixtures hold additional non-geometric data
/// such as friction, collision filters, etc.
/// A fixture belongs to at most one body and its shape is never shared.
type Fixture struct {
	shape Shape
	body  *Body

	density     float64
	friction    float64
	restitution float64
	sensor      bool
	filter      Filter

	/// Use this to store application specific fixture data.
	UserData interface{}
}

/// NewFixture wraps shape with the default material: density 1, friction
/// 0.2, no restitution, not a sensor.
func NewFixture(shape Shape) *Fixture {
	Assert(shape != nil)
	return &Fixture{
		shape:       shape,
		density:     1.0,
		friction:    0.2,
		restitution: 0.0,
		filter:      DefaultFilter(),
	}
}

/// Get the child shape. The shape may be translated or rotated before the
/// fixture is attached; afterwards call Body.UpdateMass when changing it.
func (fix *Fixture) Shape() Shape {
	return fix.shape
}

/// Get the parent body of this fixture. This is nil if the fixture is not attached.
func (fix *Fixture) Body() *Body {
	return fix.body
}

func (fix *Fixture) Density() float64 {
	return fix.density
}

/// SetDensity changes the density and recomputes the mass of the body the
/// fixture is attached to.
func (fix *Fixture) SetDensity(density float64) error {
	if !(density > 0) || !IsValid(density) {
		return errors.Wrapf(ErrInvalidDensity, "density %v", density)
	}

	fix.density = density
	if fix.body != nil {
		fix.body.UpdateMass()
	}
	return nil
}

func (fix *Fixture) Friction() float64 {
	return fix.friction
}

/// SetFriction does not touch existing contacts; the mixed value is
/// refreshed on the next step.
func (fix *Fixture) SetFriction(friction float64) error {
	if friction < 0 || !IsValid(friction) {
		return errors.Wrapf(ErrInvalidFriction, "friction %v", friction)
	}

	fix.friction = friction
	return nil
}

func (fix *Fixture) Restitution() float64 {
	return fix.restitution
}

/// Restitution is usually in the range [0,1]; values outside are accepted.
func (fix *Fixture) SetRestitution(restitution float64) {
	fix.restitution = restitution
}

func (fix *Fixture) IsSensor() bool {
	return fix.sensor
}

/// A sensor shape collects contact information but never generates a collision
/// response.
func (fix *Fixture) SetSensor(sensor bool) {
	fix.sensor = sensor
}

func (fix *Fixture) Filter() Filter {
	return fix.filter
}

/// Set the contact filtering data. This takes effect on the next step.
func (fix *Fixture) SetFilter(filter Filter) {
	fix.filter = filter
}

/// Mass of the fixture computed from its shape and density.
func (fix *Fixture) ComputeMass() Mass {
	return fix.shape.ComputeMass(fix.density)
}

/// AABB of the shape under the given body transform.
func (fix *Fixture) ComputeAABB(xf Transform) AABB {
	return fix.shape.ComputeAABB(xf)
}

/// Test a world point for containment in this fixture. The fixture must be
/// attached to a body.
func (fix *Fixture) TestPoint(p Vec2) bool {
	if fix.body == nil {
		return false
	}
	return fix.shape.TestPoint(fix.body.xf, p)
}

/// Cast a ray against the shape of this fixture. The fixture must be
/// attached to a body.
func (fix *Fixture) RayCast(input RayCastInput) (RayCastOutput, bool) {
	if fix.body == nil {
		return RayCastOutput{}, false
	}
	return fix.shape.RayCast(input, fix.body.xf)
}
