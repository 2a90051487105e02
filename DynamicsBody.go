package dyn2d

import (
	"github.com/pkg/errors"
)

type bodyFlags uint32

const (
	bodyIslandFlag bodyFlags = 1 << iota
	bodyAwakeFlag
	bodyAutoSleepFlag
	bodyBulletFlag
	bodyActiveFlag
	bodyMassExplicitFlag
)

/// bodyProps is the part of the body state that is edited as a whole through
/// BodyProperties.
type bodyProps struct {
	Name           string
	LinearDamping  float64
	AngularDamping float64
	GravityScale   float64
}

/// A body edge connects bodies and contacts together in a contact graph where
/// each body is a node and each contact is an edge.
type ContactEdge struct {
	Other   *Body    ///< provides quick access to the other body attached.
	Contact *Contact ///< the contact
}

/// A joint edge connects bodies and joints together in a joint graph where
/// each body is a node and each joint is an edge.
type JointEdge struct {
	Other *Body ///< provides quick access to the other body attached.
	Joint Joint ///< the joint
}

/// A rigid body. Bodies are created detached with NewBody, built up with
/// fixtures and then added to exactly one World.
type Body struct {
	bodyProps

	flags bodyFlags

	id          int // insertion order in the world, -1 when detached
	islandIndex int
	proxyID     int
	aabb        AABB // tight AABB of the last broad phase

	xf    Transform // the body origin transform
	sweep Sweep     // the center of mass motion over the step

	linearVelocity  Vec2
	angularVelocity float64

	force  Vec2
	torque float64

	world *World

	fixtures []*Fixture
	joints   []JointEdge
	contacts []ContactEdge

	mass     Mass
	massType MassType

	sleepTime float64

	/// Use this to store application specific body data.
	UserData interface{}
}

/// NewBody creates a detached body at the origin. It has no fixtures and
/// therefore infinite mass until one is added.
func NewBody() *Body {
	b := &Body{
		bodyProps: bodyProps{GravityScale: 1.0},
		flags:     bodyAwakeFlag | bodyAutoSleepFlag | bodyActiveFlag,
		id:        -1,
		proxyID:   nullNode,
		xf:        TransformIdentity,
		mass:      InfiniteMass(),
		massType:  MassNormal,
	}
	return b
}

func (b *Body) Name() string {
	return b.bodyProps.Name
}

func (b *Body) SetName(name string) {
	b.bodyProps.Name = name
}

/// World returns the world the body was added to, or nil.
func (b *Body) World() *World {
	return b.world
}

func (b *Body) locked() bool {
	return b.world != nil && b.world.IsLocked()
}

///////////////////////////////////////////////////////////////////////////////
// Fixtures and mass
///////////////////////////////////////////////////////////////////////////////

/// AddFixture wraps shape in a fixture with the default material, attaches
/// it and updates the mass.
func (b *Body) AddFixture(shape Shape) (*Fixture, error) {
	fixture := NewFixture(shape)
	if err := b.AttachFixture(fixture); err != nil {
		return nil, err
	}
	return fixture, nil
}

/// AttachFixture adds an existing fixture to the body and updates the mass.
/// Contacts for the new fixture are created on the next step.
func (b *Body) AttachFixture(fixture *Fixture) error {
	if fixture.body != nil {
		return ErrFixtureAttached
	}
	if b.locked() {
		return ErrWorldLocked
	}

	fixture.body = b
	b.fixtures = append(b.fixtures, fixture)
	b.UpdateMass()
	return nil
}

/// RemoveFixture detaches fixture from the body, destroys its contacts and
/// updates the mass. It reports false when fixture does not belong to b or
/// the world is stepping.
func (b *Body) RemoveFixture(fixture *Fixture) bool {
	if fixture.body != b || b.locked() {
		return false
	}

	for i, f := range b.fixtures {
		if f == fixture {
			b.fixtures = append(b.fixtures[:i], b.fixtures[i+1:]...)
			break
		}
	}

	if b.world != nil {
		b.world.contactManager.destroyFixtureContacts(fixture)
		b.world.contactManager.notify(b.world.contactListener)
	}

	fixture.body = nil
	b.UpdateMass()
	return true
}

func (b *Body) Fixtures() []*Fixture {
	return b.fixtures
}

func (b *Body) FixtureCount() int {
	return len(b.fixtures)
}

/// UpdateMass recomputes the mass from the fixtures, keeping the mass type
/// last requested with SetMassFromShapes or SetMassType. It does nothing
/// when the mass was set explicitly with SetMass. A body without fixtures
/// has infinite mass.
func (b *Body) UpdateMass() {
	if b.flags&bodyMassExplicitFlag != 0 {
		return
	}

	parts := make([]Mass, 0, len(b.fixtures))
	for _, f := range b.fixtures {
		parts = append(parts, f.ComputeMass())
	}

	m := CreateMass(parts)
	if len(parts) > 0 && m.Type != MassInfinite {
		m = m.WithType(b.massType)
	}

	b.setMass(m)
}

/// SetMassFromShapes drops an explicit mass and recomputes it from the
/// fixtures with the given type.
func (b *Body) SetMassFromShapes(t MassType) {
	b.flags &^= bodyMassExplicitFlag
	b.massType = t
	b.UpdateMass()
}

/// SetMass overrides the mass computed from the fixtures. The inverses are
/// recomputed from m.Mass, m.Inertia and m.Type.
func (b *Body) SetMass(m Mass) error {
	if err := m.validate(); err != nil {
		return err
	}

	b.flags |= bodyMassExplicitFlag
	b.massType = m.Type
	b.setMass(m.WithType(m.Type))
	return nil
}

/// SetMassType changes which motions the body resists without touching the
/// mass and inertia values.
func (b *Body) SetMassType(t MassType) {
	b.massType = t
	if len(b.fixtures) == 0 && b.flags&bodyMassExplicitFlag == 0 {
		return
	}
	b.setMass(b.mass.WithType(t))
}

func (b *Body) setMass(m Mass) {
	b.mass = m

	if m.Type == MassInfinite {
		b.linearVelocity = Vec2{}
		b.angularVelocity = 0
	}

	// Move center of mass.
	oldCenter := b.sweep.C
	b.sweep.LocalCenter = m.Center
	b.sweep.C = b.xf.Apply(b.sweep.LocalCenter)
	b.sweep.C0 = b.sweep.C

	// Update center of mass velocity.
	b.linearVelocity = b.linearVelocity.Add(CrossSV(b.angularVelocity, b.sweep.C.Sub(oldCenter)))
}

func (b *Body) Mass() Mass {
	return b.mass
}

func (b *Body) MassExplicit() bool {
	return b.flags&bodyMassExplicitFlag != 0
}

func (b *Body) IsInfinite() bool {
	return b.mass.Type == MassInfinite
}

///////////////////////////////////////////////////////////////////////////////
// Pose
///////////////////////////////////////////////////////////////////////////////

/// Get the body transform for the body's origin.
func (b *Body) Transform() Transform {
	return b.xf
}

/// Get the world body origin position.
func (b *Body) Position() Vec2 {
	return b.xf.P
}

/// Get the angle in radians.
func (b *Body) Angle() float64 {
	return b.sweep.A
}

/// Get the world position of the center of mass.
func (b *Body) WorldCenter() Vec2 {
	return b.sweep.C
}

/// Get the local position of the center of mass.
func (b *Body) LocalCenter() Vec2 {
	return b.sweep.LocalCenter
}

/// Get the world coordinates of a point given the local coordinates.
func (b *Body) WorldPoint(localPoint Vec2) Vec2 {
	return b.xf.Apply(localPoint)
}

/// Get the world coordinates of a vector given the local coordinates.
func (b *Body) WorldVector(localVector Vec2) Vec2 {
	return b.xf.Q.Apply(localVector)
}

/// Gets a local point relative to the body's origin given a world point.
func (b *Body) LocalPoint(worldPoint Vec2) Vec2 {
	return b.xf.ApplyT(worldPoint)
}

/// Gets a local vector given a world vector.
func (b *Body) LocalVector(worldVector Vec2) Vec2 {
	return b.xf.Q.ApplyT(worldVector)
}

/// Set the position of the body's origin and rotation. Contacts are updated
/// on the next step.
func (b *Body) SetTransform(position Vec2, angle float64) {
	b.xf = MakeTransform(position, angle)

	b.sweep.C = b.xf.Apply(b.sweep.LocalCenter)
	b.sweep.A = angle

	b.sweep.C0 = b.sweep.C
	b.sweep.A0 = angle
}

/// Translate moves the body origin by v.
func (b *Body) Translate(v Vec2) {
	b.SetTransform(b.xf.P.Add(v), b.sweep.A)
}

/// TranslateToOrigin moves the body so its center of mass sits on the world origin.
func (b *Body) TranslateToOrigin() {
	b.Translate(b.sweep.C.Neg())
}

/// Rotate turns the body by angle radians about the world point about.
func (b *Body) Rotate(angle float64, about Vec2) {
	q := MakeRot(angle)
	p := about.Add(q.Apply(b.xf.P.Sub(about)))
	b.SetTransform(p, b.sweep.A+angle)
}

/// RotateAboutCenter turns the body about its center of mass.
func (b *Body) RotateAboutCenter(angle float64) {
	b.Rotate(angle, b.sweep.C)
}

/// The union of the fixture AABBs at the current transform. An empty body
/// reports a degenerate box at its origin.
func (b *Body) ComputeAABB() AABB {
	if len(b.fixtures) == 0 {
		return AABB{LowerBound: b.xf.P, UpperBound: b.xf.P}
	}

	aabb := b.fixtures[0].ComputeAABB(b.xf)
	for _, f := range b.fixtures[1:] {
		aabb = aabb.Combine(f.ComputeAABB(b.xf))
	}
	return aabb
}

///////////////////////////////////////////////////////////////////////////////
// Velocity and forces
///////////////////////////////////////////////////////////////////////////////

/// Get the linear velocity of the center of mass.
func (b *Body) LinearVelocity() Vec2 {
	return b.linearVelocity
}

/// Set the linear velocity of the center of mass. A non zero velocity wakes
/// the body.
func (b *Body) SetLinearVelocity(v Vec2) {
	if v.Dot(v) > 0.0 {
		b.SetAsleep(false)
	}
	b.linearVelocity = v
}

/// Get the angular velocity in radians/second.
func (b *Body) AngularVelocity() float64 {
	return b.angularVelocity
}

func (b *Body) SetAngularVelocity(w float64) {
	if w*w > 0.0 {
		b.SetAsleep(false)
	}
	b.angularVelocity = w
}

/// Get the world linear velocity of a world point attached to this body.
func (b *Body) LinearVelocityAt(worldPoint Vec2) Vec2 {
	return b.linearVelocity.Add(CrossSV(b.angularVelocity, worldPoint.Sub(b.sweep.C)))
}

/// The force accumulated since the last step.
func (b *Body) Force() Vec2 {
	return b.force
}

/// The torque accumulated since the last step.
func (b *Body) Torque() float64 {
	return b.torque
}

/// Apply a force at the center of mass. This wakes up the body.
func (b *Body) ApplyForce(force Vec2) {
	b.SetAsleep(false)
	b.force = b.force.Add(force)
}

/// Apply a force at a world point. If the force is not
/// applied at the center of mass, it will generate a torque and
/// affect the angular velocity. This wakes up the body.
func (b *Body) ApplyForceAt(force Vec2, point Vec2) {
	b.SetAsleep(false)
	b.force = b.force.Add(force)
	b.torque += point.Sub(b.sweep.C).Cross(force)
}

/// Apply a torque. This affects the angular velocity
/// without affecting the linear velocity of the center of mass.
/// This wakes up the body.
func (b *Body) ApplyTorque(torque float64) {
	b.SetAsleep(false)
	b.torque += torque
}

/// Apply an impulse at the center of mass. This immediately modifies the
/// velocity and wakes up the body.
func (b *Body) ApplyImpulse(impulse Vec2) {
	b.SetAsleep(false)
	b.linearVelocity = b.linearVelocity.Add(impulse.Mul(b.mass.InvMass))
}

/// Apply an impulse at a point. This immediately modifies the velocity.
/// It also modifies the angular velocity if the point of application
/// is not at the center of mass. This wakes up the body.
func (b *Body) ApplyImpulseAt(impulse Vec2, point Vec2) {
	b.SetAsleep(false)
	b.linearVelocity = b.linearVelocity.Add(impulse.Mul(b.mass.InvMass))
	b.angularVelocity += b.mass.InvInertia * point.Sub(b.sweep.C).Cross(impulse)
}

/// Apply an angular impulse. This wakes up the body.
func (b *Body) ApplyAngularImpulse(impulse float64) {
	b.SetAsleep(false)
	b.angularVelocity += b.mass.InvInertia * impulse
}

/// ClearForce drops the accumulated force and torque.
func (b *Body) ClearForce() {
	b.force = Vec2{}
	b.torque = 0
}

func (b *Body) LinearDamping() float64 {
	return b.bodyProps.LinearDamping
}

/// Linear damping reduces the linear velocity. Units are 1/time.
func (b *Body) SetLinearDamping(damping float64) error {
	if damping < 0 || !IsValid(damping) {
		return errors.Wrapf(ErrInvalidDamping, "linear damping %v", damping)
	}
	b.bodyProps.LinearDamping = damping
	return nil
}

func (b *Body) AngularDamping() float64 {
	return b.bodyProps.AngularDamping
}

/// Angular damping reduces the angular velocity. Units are 1/time.
func (b *Body) SetAngularDamping(damping float64) error {
	if damping < 0 || !IsValid(damping) {
		return errors.Wrapf(ErrInvalidDamping, "angular damping %v", damping)
	}
	b.bodyProps.AngularDamping = damping
	return nil
}

func (b *Body) GravityScale() float64 {
	return b.bodyProps.GravityScale
}

func (b *Body) SetGravityScale(scale float64) {
	b.bodyProps.GravityScale = scale
}

///////////////////////////////////////////////////////////////////////////////
// State flags
///////////////////////////////////////////////////////////////////////////////

func (b *Body) IsAsleep() bool {
	return b.flags&bodyAwakeFlag == 0
}

/// SetAsleep puts the body to sleep or wakes it up. A sleeping body has
/// zero velocity and no accumulated force.
func (b *Body) SetAsleep(flag bool) {
	if !flag {
		if b.flags&bodyAwakeFlag == 0 && b.world != nil {
			b.world.logger.Debug("body woke up", "body", b.id, "name", b.bodyProps.Name)
		}
		b.flags |= bodyAwakeFlag
		b.sleepTime = 0.0
		return
	}

	b.flags &^= bodyAwakeFlag
	b.sleepTime = 0.0
	b.linearVelocity = Vec2{}
	b.angularVelocity = 0.0
	b.force = Vec2{}
	b.torque = 0.0
}

func (b *Body) IsAutoSleep() bool {
	return b.flags&bodyAutoSleepFlag != 0
}

/// You can disable sleeping on this body. If you disable sleeping, the
/// body will be woken.
func (b *Body) SetAutoSleep(flag bool) {
	if flag {
		b.flags |= bodyAutoSleepFlag
		return
	}
	b.flags &^= bodyAutoSleepFlag
	b.SetAsleep(false)
}

func (b *Body) IsBullet() bool {
	return b.flags&bodyBulletFlag != 0
}

/// A bullet is a candidate for continuous collision and never falls asleep.
func (b *Body) SetBullet(flag bool) {
	if flag {
		b.flags |= bodyBulletFlag
		b.SetAsleep(false)
		return
	}
	b.flags &^= bodyBulletFlag
}

func (b *Body) IsActive() bool {
	return b.flags&bodyActiveFlag != 0
}

/// SetActive takes the body in or out of the simulation. An inactive body
/// keeps its state but is not integrated, collided or solved, and its
/// contacts are destroyed. While the world is stepping the change is
/// applied at the end of the step.
func (b *Body) SetActive(flag bool) {
	if b.locked() {
		b.world.deferMutation(func() { b.SetActive(flag) })
		return
	}

	if flag == b.IsActive() {
		return
	}

	if flag {
		b.flags |= bodyActiveFlag
		// Contacts are created the next time step.
		return
	}

	b.flags &^= bodyActiveFlag
	if b.world != nil {
		b.world.deactivateBody(b)
	}
}

///////////////////////////////////////////////////////////////////////////////
// Graph
///////////////////////////////////////////////////////////////////////////////

/// Joints returns the joint edges of this body. The slice must not be modified.
func (b *Body) Joints() []JointEdge {
	return b.joints
}

/// Contacts returns the contact edges of this body, touching or not. The
/// slice must not be modified.
func (b *Body) Contacts() []ContactEdge {
	return b.contacts
}

/// InContact reports whether some fixture of b touches some fixture of other.
func (b *Body) InContact(other *Body) bool {
	for _, ce := range b.contacts {
		if ce.Other == other && ce.Contact.IsTouching() {
			return true
		}
	}
	return false
}

/// ShouldCollide reports whether the two bodies may generate contacts. Two
/// infinite bodies never collide, and neither do bodies joined by a joint
/// that does not collide its bodies.
func (b *Body) ShouldCollide(other *Body) bool {
	if b == other {
		return false
	}

	if b.mass.Type == MassInfinite && other.mass.Type == MassInfinite {
		return false
	}

	// Does a joint prevent collision?
	for _, je := range b.joints {
		if je.Other == other && !je.Joint.CollideConnected() {
			return false
		}
	}

	return true
}

func (b *Body) removeContactEdge(c *Contact) {
	for i, ce := range b.contacts {
		if ce.Contact == c {
			b.contacts = append(b.contacts[:i], b.contacts[i+1:]...)
			return
		}
	}
}

func (b *Body) removeJointEdge(j Joint) {
	for i, je := range b.joints {
		if je.Joint == j {
			b.joints = append(b.joints[:i], b.joints[i+1:]...)
			return
		}
	}
}

func (b *Body) synchronizeTransform() {
	b.xf.Q = MakeRot(b.sweep.A)
	b.xf.P = b.sweep.C.Sub(b.xf.Q.Apply(b.sweep.LocalCenter))
}
