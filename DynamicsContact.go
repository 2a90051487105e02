package dyn2d

import (
	"math"
)

type contactFlags uint32

const (
	// Used when crawling contact graph when forming islands.
	contactIslandFlag contactFlags = 1 << iota

	// Set when the shapes are touching.
	contactTouchingFlag

	// This contact can be disabled (by user)
	contactEnabledFlag
)

/// contactTransition is what a narrow phase update did to a contact.
type contactTransition uint8

const (
	transitionNone contactTransition = iota
	transitionBegin
	transitionPersist
	transitionEnd
)

/// The class manages contact between two fixtures. A contact exists for each
/// pair of fixtures whose bodies overlap in the broad-phase (except if
/// filtered). Therefore a contact object may exist that has no contact points.
type Contact struct {
	flags contactFlags

	fixtureA *Fixture
	fixtureB *Fixture

	manifold Manifold

	// Result of the last evaluate, committed by update. Written by a single
	// goroutine per contact during a parallel narrow phase.
	pending         Manifold
	pendingTouching bool

	friction    float64
	restitution float64

	seq  uint64 // creation order
	seen uint64 // last broad phase that reported the body pair
}

func newContact(fA, fB *Fixture, seq uint64) *Contact {
	return &Contact{
		flags:       contactEnabledFlag,
		fixtureA:    fA,
		fixtureB:    fB,
		friction:    MixFriction(fA.friction, fB.friction),
		restitution: MixRestitution(fA.restitution, fB.restitution),
		seq:         seq,
	}
}

func (c *Contact) FixtureA() *Fixture {
	return c.fixtureA
}

func (c *Contact) FixtureB() *Fixture {
	return c.fixtureB
}

func (c *Contact) BodyA() *Body {
	return c.fixtureA.body
}

func (c *Contact) BodyB() *Body {
	return c.fixtureB.body
}

/// Get the contact manifold. Do not modify the manifold unless you understand the
/// internals of the solver.
func (c *Contact) Manifold() *Manifold {
	return &c.manifold
}

/// Get the world manifold.
func (c *Contact) WorldManifold() WorldManifold {
	bodyA := c.fixtureA.body
	bodyB := c.fixtureB.body
	return MakeWorldManifold(&c.manifold,
		bodyA.xf, c.fixtureA.shape.Radius(),
		bodyB.xf, c.fixtureB.shape.Radius())
}

/// Is this contact touching?
func (c *Contact) IsTouching() bool {
	return c.flags&contactTouchingFlag != 0
}

/// Is either fixture a sensor?
func (c *Contact) IsSensor() bool {
	return c.fixtureA.sensor || c.fixtureB.sensor
}

/// Enable/disable this contact. The contact is only disabled for the current
/// time step; the next narrow phase enables it again.
func (c *Contact) SetEnabled(flag bool) {
	if flag {
		c.flags |= contactEnabledFlag
	} else {
		c.flags &^= contactEnabledFlag
	}
}

func (c *Contact) IsEnabled() bool {
	return c.flags&contactEnabledFlag != 0
}

func (c *Contact) Friction() float64 {
	return c.friction
}

/// Override the default friction mixture. The value persists until the
/// contact is destroyed or ResetFriction is called.
func (c *Contact) SetFriction(friction float64) {
	c.friction = friction
}

func (c *Contact) ResetFriction() {
	c.friction = MixFriction(c.fixtureA.friction, c.fixtureB.friction)
}

func (c *Contact) Restitution() float64 {
	return c.restitution
}

func (c *Contact) SetRestitution(restitution float64) {
	c.restitution = restitution
}

func (c *Contact) ResetRestitution() {
	c.restitution = MixRestitution(c.fixtureA.restitution, c.fixtureB.restitution)
}

// evaluate runs the narrow phase for this contact and stores the result
// aside. It only reads shared state.
// Note: do not assume the fixture AABBs are overlapping or are valid.
func (c *Contact) evaluate() {
	shapeA := c.fixtureA.shape
	shapeB := c.fixtureB.shape
	xfA := c.fixtureA.body.xf
	xfB := c.fixtureB.body.xf

	if c.IsSensor() {
		// Sensors don't generate manifolds.
		c.pending = Manifold{}
		c.pendingTouching = TestOverlap(shapeA, xfA, shapeB, xfB)
		return
	}

	c.pending, c.pendingTouching = Collide(shapeA, xfA, shapeB, xfB)
}

// update commits the result of evaluate. Impulses of surviving points are
// carried over to warm start the solver, and both bodies are woken when the
// touching state changes.
func (c *Contact) update() contactTransition {
	oldManifold := c.manifold
	c.manifold = c.pending

	// Re-enable this contact.
	c.flags |= contactEnabledFlag

	wasTouching := c.flags&contactTouchingFlag != 0
	touching := c.pendingTouching

	if !c.IsSensor() {
		// Match old contact ids to new contact ids and copy the
		// stored impulses to warm start the solver.
		for i := 0; i < c.manifold.PointCount; i++ {
			mp2 := &c.manifold.Points[i]
			mp2.NormalImpulse = 0.0
			mp2.TangentImpulse = 0.0
			key := mp2.ID.Key()

			for j := 0; j < oldManifold.PointCount; j++ {
				mp1 := &oldManifold.Points[j]

				if mp1.ID.Key() == key {
					mp2.NormalImpulse = mp1.NormalImpulse
					mp2.TangentImpulse = mp1.TangentImpulse
					break
				}
			}
		}

		if touching != wasTouching {
			c.fixtureA.body.SetAsleep(false)
			c.fixtureB.body.SetAsleep(false)
		}
	}

	if touching {
		c.flags |= contactTouchingFlag
	} else {
		c.flags &^= contactTouchingFlag
	}

	switch {
	case !wasTouching && touching:
		return transitionBegin
	case wasTouching && touching:
		return transitionPersist
	case wasTouching && !touching:
		return transitionEnd
	}
	return transitionNone
}

// event summarizes the contact for listeners.
func (c *Contact) event() ContactEvent {
	e := ContactEvent{
		BodyA:    c.fixtureA.body,
		BodyB:    c.fixtureB.body,
		FixtureA: c.fixtureA,
		FixtureB: c.fixtureB,
		Sensor:   c.IsSensor(),
	}

	if c.manifold.PointCount == 0 {
		return e
	}

	wm := c.WorldManifold()
	e.Normal = wm.Normal
	e.PointCount = c.manifold.PointCount
	for i := 0; i < c.manifold.PointCount; i++ {
		e.Points[i] = wm.Points[i]
		e.Depths[i] = math.Max(0, -wm.Separations[i])
		e.NormalImpulses[i] = c.manifold.Points[i].NormalImpulse
		e.TangentImpulses[i] = c.manifold.Points[i].TangentImpulse
	}
	return e
}
