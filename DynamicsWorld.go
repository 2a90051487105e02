package dyn2d

import (
	"log/slog"
	"math"
	"time"

	"github.com/pkg/errors"
)

/// The world class manages all physics entities, dynamic simulation,
/// and asynchronous queries. It owns its bodies and joints once they are
/// added. A world is driven from a single goroutine.
type World struct {
	bodies []*Body
	joints []Joint

	gravity  Vec2
	settings Settings

	bounds       Bounds
	boundsPolicy BoundsPolicy

	logger *slog.Logger

	contactListener     ContactListener
	stepListener        StepListener
	boundsListener      BoundsListener
	destructionListener DestructionListener
	contactFilter       ContactFilter

	contactManager *contactManager

	island      island
	islandStack []*Body
	outside     []*Body

	locked   bool
	deferred []func()

	nextBodyID  int
	stepCount   uint64
	invDt0      float64
	accumulator float64

	profile Profile
}

/// WorldOption configures a world in NewWorld.
type WorldOption func(world *World)

/// WithSettings replaces DefaultSettings. The settings are validated by NewWorld.
func WithSettings(settings Settings) WorldOption {
	return func(world *World) {
		world.settings = settings
	}
}

/// WithBounds limits the simulated region. A world without bounds never
/// reports a body as outside.
func WithBounds(bounds Bounds) WorldOption {
	return func(world *World) {
		world.bounds = bounds
	}
}

/// WithBoundsPolicy chooses what happens to bodies outside the bounds.
func WithBoundsPolicy(policy BoundsPolicy) WorldOption {
	return func(world *World) {
		world.boundsPolicy = policy
	}
}

/// WithLogger sets the logger of the world. Records are written at the debug
/// level only; the default logger discards everything.
func WithLogger(logger *slog.Logger) WorldOption {
	return func(world *World) {
		world.logger = logger
	}
}

func WithContactListener(listener ContactListener) WorldOption {
	return func(world *World) {
		world.contactListener = listener
	}
}

func WithStepListener(listener StepListener) WorldOption {
	return func(world *World) {
		world.stepListener = listener
	}
}

func WithBoundsListener(listener BoundsListener) WorldOption {
	return func(world *World) {
		world.boundsListener = listener
	}
}

func WithDestructionListener(listener DestructionListener) WorldOption {
	return func(world *World) {
		world.destructionListener = listener
	}
}

func WithContactFilter(filter ContactFilter) WorldOption {
	return func(world *World) {
		world.contactFilter = filter
	}
}

/// NewWorld constructs a world object.
/// @param gravity the world gravity vector.
func NewWorld(gravity Vec2, opts ...WorldOption) (*World, error) {
	world := &World{
		gravity:      gravity,
		settings:     DefaultSettings(),
		boundsPolicy: BoundsDeactivate,
	}

	for _, opt := range opts {
		opt(world)
	}

	if err := world.settings.Validate(); err != nil {
		return nil, err
	}

	if !gravity.IsValid() {
		return nil, errors.Errorf("dyn2d: invalid gravity %v", gravity)
	}

	if world.logger == nil {
		world.logger = slog.New(slog.DiscardHandler)
	}

	world.contactManager = newContactManager(world, world.settings.AABBMargin)

	return world, nil
}

///////////////////////////////////////////////////////////////////////////////
// Accessors
///////////////////////////////////////////////////////////////////////////////

/// Bodies returns the bodies in insertion order. The slice must not be modified.
func (world *World) Bodies() []*Body {
	return world.bodies
}

/// Joints returns the joints in insertion order. The slice must not be modified.
func (world *World) Joints() []Joint {
	return world.joints
}

func (world *World) BodyCount() int {
	return len(world.bodies)
}

func (world *World) JointCount() int {
	return len(world.joints)
}

func (world *World) ContactCount() int {
	return len(world.contactManager.contacts)
}

func (world *World) Gravity() Vec2 {
	return world.gravity
}

func (world *World) SetGravity(gravity Vec2) {
	world.gravity = gravity
}

func (world *World) Settings() Settings {
	return world.settings
}

func (world *World) Bounds() Bounds {
	return world.bounds
}

func (world *World) Logger() *slog.Logger {
	return world.logger
}

/// IsLocked reports whether the world is in the middle of a step. Mutations
/// requested while locked are applied when the step returns.
func (world *World) IsLocked() bool {
	return world.locked
}

/// Get the current profile.
func (world *World) Profile() Profile {
	return world.profile
}

/// StepCount is the number of completed steps.
func (world *World) StepCount() uint64 {
	return world.stepCount
}

/// Contacts returns the touching contacts of body.
func (world *World) Contacts(body *Body) []*Contact {
	var contacts []*Contact
	for _, ce := range body.contacts {
		if ce.Contact.IsTouching() {
			contacts = append(contacts, ce.Contact)
		}
	}
	return contacts
}

///////////////////////////////////////////////////////////////////////////////
// Mutation
///////////////////////////////////////////////////////////////////////////////

func (world *World) deferMutation(fn func()) {
	world.deferred = append(world.deferred, fn)
}

// deferOrRun applies fn now, or queues it when the world is stepping.
func (world *World) deferOrRun(what string, fn func() error) error {
	if !world.locked {
		return fn()
	}

	world.deferMutation(func() {
		if err := fn(); err != nil {
			world.logger.Debug("deferred mutation failed", "op", what, "err", err)
		}
	})
	return nil
}

func (world *World) applyDeferred() {
	for len(world.deferred) > 0 {
		queue := world.deferred
		world.deferred = nil

		world.logger.Debug("applying deferred mutations", "count", len(queue))
		for _, fn := range queue {
			fn()
		}
	}
}

/// AddBody adds a detached body to the world. While the world is stepping
/// the body is added when the step returns.
func (world *World) AddBody(body *Body) error {
	if body == nil {
		return errors.New("dyn2d: nil body")
	}

	return world.deferOrRun("add body", func() error {
		if body.world != nil {
			return ErrBodyInWorld
		}

		body.world = world
		body.id = world.nextBodyID
		world.nextBodyID++
		body.proxyID = nullNode
		world.bodies = append(world.bodies, body)
		return nil
	})
}

/// RemoveBody removes body together with its joints and contacts. Touching
/// contacts report their end and removed joints are handed to the
/// destruction listener.
func (world *World) RemoveBody(body *Body) error {
	if body == nil || body.world != world {
		return ErrBodyNotInWorld
	}

	return world.deferOrRun("remove body", func() error {
		if body.world != world {
			return ErrBodyNotInWorld
		}

		world.removeBody(body)
		world.contactManager.notify(world.contactListener)
		return nil
	})
}

func (world *World) removeBody(body *Body) {
	// Delete the attached joints.
	for len(body.joints) > 0 {
		j := body.joints[0].Joint
		world.removeJoint(j)

		if world.destructionListener != nil {
			world.destructionListener.JointDestroyed(j)
		}
	}

	world.contactManager.destroyBodyContacts(body)
	world.contactManager.destroyProxy(body)

	for i, b := range world.bodies {
		if b == body {
			world.bodies = append(world.bodies[:i], world.bodies[i+1:]...)
			break
		}
	}

	body.world = nil
	body.id = -1
}

// deactivateBody takes an inactive body out of collision.
func (world *World) deactivateBody(body *Body) {
	world.contactManager.destroyBodyContacts(body)
	world.contactManager.destroyProxy(body)

	if !world.locked {
		world.contactManager.notify(world.contactListener)
	}
}

/// AddJoint adds joint to the world and wakes its bodies. Both bodies must
/// belong to the world when the joint is added, so inside a step a body
/// queued with AddBody can be joined right away.
func (world *World) AddJoint(joint Joint) error {
	if joint == nil {
		return errors.New("dyn2d: nil joint")
	}

	jb := joint.base()
	if jb.world != nil {
		return ErrJointInWorld
	}

	return world.deferOrRun("add joint", func() error {
		if jb.world != nil {
			return ErrJointInWorld
		}
		if jb.bodyA.world != world || jb.bodyB.world != world {
			return errors.Wrapf(ErrBodyNotInWorld, "%s joint", jb.kind)
		}

		jb.world = world
		world.joints = append(world.joints, joint)

		bodyA := jb.bodyA
		bodyB := jb.bodyB
		bodyA.joints = append(bodyA.joints, JointEdge{Other: bodyB, Joint: joint})
		bodyB.joints = append(bodyB.joints, JointEdge{Other: bodyA, Joint: joint})

		// If the joint prevents collisions, then drop any contacts between
		// the bodies.
		if !jb.collideConnected {
			world.contactManager.destroyWhere(func(c *Contact) bool {
				a, b := c.BodyA(), c.BodyB()
				return (a == bodyA && b == bodyB) || (a == bodyB && b == bodyA)
			})
			world.contactManager.notify(world.contactListener)
		}

		jb.wakeBodies()
		return nil
	})
}

/// RemoveJoint removes joint from the world and wakes its bodies.
func (world *World) RemoveJoint(joint Joint) error {
	if joint == nil || joint.base().world != world {
		return ErrJointNotInWorld
	}

	return world.deferOrRun("remove joint", func() error {
		if joint.base().world != world {
			return ErrJointNotInWorld
		}
		world.removeJoint(joint)
		return nil
	})
}

func (world *World) removeJoint(joint Joint) {
	jb := joint.base()

	for i, j := range world.joints {
		if j == joint {
			world.joints = append(world.joints[:i], world.joints[i+1:]...)
			break
		}
	}

	jb.bodyA.removeJointEdge(joint)
	jb.bodyB.removeJointEdge(joint)
	jb.world = nil

	// Contacts between the bodies are created again by the next broad phase.
	jb.wakeBodies()
}

/// Shift moves every body and the bounds by v. The simulation is not
/// otherwise affected.
func (world *World) Shift(v Vec2) {
	if world.locked {
		world.deferMutation(func() { world.Shift(v) })
		return
	}

	for _, b := range world.bodies {
		b.xf.P = b.xf.P.Add(v)
		b.sweep.C0 = b.sweep.C0.Add(v)
		b.sweep.C = b.sweep.C.Add(v)
		b.aabb.LowerBound = b.aabb.LowerBound.Add(v)
		b.aabb.UpperBound = b.aabb.UpperBound.Add(v)
	}

	if world.bounds != nil {
		world.bounds.Translate(v)
	}

	world.contactManager.broadPhase.ShiftOrigin(v.Neg())
}

///////////////////////////////////////////////////////////////////////////////
// Stepping
///////////////////////////////////////////////////////////////////////////////

/// Step takes one time step of dt seconds: forces are integrated, pairs are
/// found and collided, the islands are solved and put to sleep, and the
/// listeners are notified. A non positive dt does nothing.
func (world *World) Step(dt float64) {
	if !(dt > 0) || !IsValid(dt) {
		return
	}

	stepStart := time.Now()
	world.locked = true

	step := timeStep{
		Step: Step{
			Dt:      dt,
			InvDt:   1.0 / dt,
			DtRatio: world.invDt0 * dt,
			Count:   world.stepCount,
		},
		velocityIterations: world.settings.VelocityIterations,
		positionIterations: world.settings.PositionIterations,
		warmStarting:       world.settings.WarmStarting,
	}

	if world.stepListener != nil {
		world.stepListener.Begin(step.Step, world)
	}

	start := time.Now()
	world.integrateVelocities(dt)
	world.profile.Integrate = milliseconds(start)

	start = time.Now()
	world.contactManager.synchronize(world.bodies)
	world.checkBounds()
	pairs := world.contactManager.findPairs(world.bodies)
	world.contactManager.updateContacts(pairs)
	world.profile.BroadPhase = milliseconds(start)

	start = time.Now()
	world.contactManager.collide(&world.settings)
	world.profile.NarrowPhase = milliseconds(start)

	start = time.Now()
	world.solve(step)
	world.profile.Solve = milliseconds(start)

	world.invDt0 = step.InvDt
	world.stepCount++

	world.contactManager.notify(world.contactListener)

	if world.stepListener != nil {
		world.stepListener.End(step.Step, world)
	}

	world.locked = false
	world.applyDeferred()

	world.profile.Step = milliseconds(stepStart)
}

/// Update advances the world by elapsed seconds of real time in fixed steps
/// of Settings.StepFrequency. At most Settings.MaxSubSteps steps are taken,
/// time beyond that is dropped. It returns the number of steps taken.
func (world *World) Update(elapsed float64) int {
	if !(elapsed > 0) || !IsValid(elapsed) {
		return 0
	}

	frequency := world.settings.StepFrequency
	world.accumulator += elapsed

	steps := 0
	for world.accumulator >= frequency && steps < world.settings.MaxSubSteps {
		world.Step(frequency)
		world.accumulator -= frequency
		steps++
	}

	if world.accumulator >= frequency {
		world.logger.Debug("dropping simulation time", "seconds", world.accumulator)
		world.accumulator = math.Mod(world.accumulator, frequency)
	}

	return steps
}

// integrateVelocities applies gravity, forces and damping to every moving
// body and clears the accumulated forces.
func (world *World) integrateVelocities(h float64) {
	for _, b := range world.bodies {
		if !simulated(b) {
			continue
		}

		v := b.linearVelocity
		w := b.angularVelocity

		// Apply damping.
		// ODE: dv/dt + c * v = 0
		// Solution: v(t) = v0 * exp(-c * t)
		// Pade approximation:
		// v2 = v1 * 1 / (1 + c * dt)
		if b.mass.InvMass != 0.0 {
			v = v.Add(world.gravity.Mul(b.bodyProps.GravityScale).Add(b.force.Mul(b.mass.InvMass)).Mul(h))
			v = v.Mul(1.0 / (1.0 + h*b.bodyProps.LinearDamping))
		}

		if b.mass.InvInertia != 0.0 {
			w += h * b.mass.InvInertia * b.torque
			w *= 1.0 / (1.0 + h*b.bodyProps.AngularDamping)
		}

		b.linearVelocity = v
		b.angularVelocity = w
		b.force = Vec2{}
		b.torque = 0.0
	}
}

// checkBounds reports the bodies outside the bounds and applies the policy.
func (world *World) checkBounds() {
	if world.bounds == nil {
		return
	}

	world.outside = world.outside[:0]
	for _, b := range world.bodies {
		if b.proxyID == nullNode {
			continue
		}
		if world.bounds.IsOutside(b.aabb) {
			world.outside = append(world.outside, b)
		}
	}

	for _, b := range world.outside {
		world.logger.Debug("body left the bounds", "body", b.id, "name", b.bodyProps.Name, "policy", world.boundsPolicy)

		if world.boundsListener != nil {
			world.boundsListener.Outside(b)
		}

		switch world.boundsPolicy {
		case BoundsDeactivate:
			b.flags &^= bodyActiveFlag
			world.deactivateBody(b)
		case BoundsRemove:
			world.removeBody(b)
		}
	}
}

/// DetectPairs runs the broad phase alone and returns the candidate pairs
/// for the current poses. Contacts are left untouched. It returns nil while
/// the world is stepping.
func (world *World) DetectPairs() []BodyPair {
	if world.locked {
		return nil
	}

	world.contactManager.synchronize(world.bodies)
	pairs := world.contactManager.findPairs(world.bodies)
	return append([]BodyPair(nil), pairs...)
}

///////////////////////////////////////////////////////////////////////////////
// Queries
///////////////////////////////////////////////////////////////////////////////

/// QueryAABB calls fn for every active body whose AABB overlaps aabb, as of
/// the last step.
func (world *World) QueryAABB(aabb AABB, fn BodyQueryCallback) {
	bp := world.contactManager.broadPhase
	bp.Query(func(proxyID int) bool {
		b := bp.UserData(proxyID).(*Body)
		if !b.aabb.Overlaps(aabb) {
			return true
		}
		return fn(b)
	}, aabb)
}

/// RayCast calls fn for every fixture hit by the segment from p1 to p2. The
/// callback controls the cast with its return value, see RayCastCallback.
func (world *World) RayCast(fn RayCastCallback, p1, p2 Vec2) {
	bp := world.contactManager.broadPhase
	bp.RayCast(func(input RayCastInput, proxyID int) float64 {
		b := bp.UserData(proxyID).(*Body)

		result := -1.0
		for _, f := range b.fixtures {
			output, hit := f.RayCast(input)
			if !hit {
				continue
			}

			fraction := output.Fraction
			point := input.P1.Add(input.P2.Sub(input.P1).Mul(fraction))
			value := fn(f, point, output.Normal, fraction)

			if value == 0.0 {
				return 0.0
			}
			if value > 0.0 && (result < 0.0 || value < result) {
				result = value
			}
		}

		if result < 0.0 {
			return input.MaxFraction
		}
		return result
	}, RayCastInput{P1: p1, P2: p2, MaxFraction: 1.0})
}
