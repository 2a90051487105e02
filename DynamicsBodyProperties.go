package dyn2d

import (
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

/// BodyProperties is a detached copy of the editable state of a body. Take a
/// snapshot with Body.Properties, edit it freely and write it back with
/// Body.ApplyProperties. A snapshot that is never applied changes nothing.
type BodyProperties struct {
	Name           string
	LinearDamping  float64
	AngularDamping float64
	GravityScale   float64

	Active    bool
	Asleep    bool
	AutoSleep bool
	Bullet    bool

	LinearVelocity  Vec2
	AngularVelocity float64

	/// Accumulated force and torque, applied on the next step.
	Force  Vec2
	Torque float64

	/// Mass is only applied as is when MassExplicit is set. Otherwise the
	/// mass is recomputed from the fixtures with Mass.Type.
	Mass         Mass
	MassExplicit bool

	Position Vec2
	Angle    float64
}

/// Properties returns a snapshot of the editable body state.
func (b *Body) Properties() BodyProperties {
	p := BodyProperties{
		Name:           b.bodyProps.Name,
		LinearDamping:  b.bodyProps.LinearDamping,
		AngularDamping: b.bodyProps.AngularDamping,
		GravityScale:   b.bodyProps.GravityScale,
	}
	p.Active = b.IsActive()
	p.Asleep = b.IsAsleep()
	p.AutoSleep = b.IsAutoSleep()
	p.Bullet = b.IsBullet()
	p.LinearVelocity = b.linearVelocity
	p.AngularVelocity = b.angularVelocity
	p.Force = b.force
	p.Torque = b.torque
	p.Mass = b.mass
	p.MassExplicit = b.MassExplicit()
	p.Position = b.xf.P
	p.Angle = b.sweep.A
	return p
}

/// Validate checks the values ApplyProperties would reject.
func (p BodyProperties) Validate() error {
	if p.LinearDamping < 0 || !IsValid(p.LinearDamping) {
		return errors.Wrapf(ErrInvalidDamping, "linear damping %v", p.LinearDamping)
	}
	if p.AngularDamping < 0 || !IsValid(p.AngularDamping) {
		return errors.Wrapf(ErrInvalidDamping, "angular damping %v", p.AngularDamping)
	}
	if !IsValid(p.GravityScale) || !IsValid(p.AngularVelocity) || !IsValid(p.Torque) || !IsValid(p.Angle) {
		return errors.New("dyn2d: body properties contain an invalid number")
	}
	if !p.LinearVelocity.IsValid() || !p.Force.IsValid() || !p.Position.IsValid() {
		return errors.New("dyn2d: body properties contain an invalid vector")
	}
	if p.MassExplicit {
		if err := p.Mass.validate(); err != nil {
			return err
		}
	}
	return nil
}

/// ApplyProperties validates p and writes it to the body. Nothing is
/// changed when validation fails. It cannot be used while the world steps.
func (b *Body) ApplyProperties(p BodyProperties) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if b.locked() {
		return ErrWorldLocked
	}

	if err := copier.Copy(&b.bodyProps, &p); err != nil {
		return errors.Wrap(err, "dyn2d: copy body properties")
	}

	if p.MassExplicit {
		if err := b.SetMass(p.Mass); err != nil {
			return err
		}
	} else {
		// Without fixtures the type is always infinite, keep the requested one.
		t := p.Mass.Type
		if len(b.fixtures) == 0 {
			t = b.massType
		}
		b.SetMassFromShapes(t)
	}

	b.SetTransform(p.Position, p.Angle)

	b.SetAutoSleep(p.AutoSleep)
	b.SetBullet(p.Bullet)

	if !b.IsInfinite() {
		b.linearVelocity = p.LinearVelocity
		b.angularVelocity = p.AngularVelocity
	}
	b.force = p.Force
	b.torque = p.Torque

	b.SetAsleep(p.Asleep)
	b.SetActive(p.Active)
	return nil
}
