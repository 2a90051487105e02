package dyn2d

/// ContactEvent summarizes one fixture pair for listeners. Points, Depths
/// and the impulses are valid for the first PointCount entries. Sensor
/// contacts never carry points. The impulses are the ones the solver
/// accumulated during the step that produced the event.
type ContactEvent struct {
	BodyA    *Body
	BodyB    *Body
	FixtureA *Fixture
	FixtureB *Fixture
	Sensor   bool

	/// World normal pointing from A to B.
	Normal     Vec2
	PointCount int
	Points     [MaxManifoldPoints]Vec2
	Depths     [MaxManifoldPoints]float64

	NormalImpulses  [MaxManifoldPoints]float64
	TangentImpulses [MaxManifoldPoints]float64
}

/// Implement this interface to get contact information. Events are delivered
/// once per step after the solver ran, in the order the contacts were
/// created. Listeners observe only: world mutations made from a callback
/// are applied when the step returns.
type ContactListener interface {
	/// Called when two fixtures begin to touch.
	Begin(e ContactEvent)

	/// Called for every step two fixtures keep touching.
	Persist(e ContactEvent)

	/// Called when two fixtures cease to touch, including when one of
	/// them is removed.
	End(e ContactEvent)
}

/// ContactAdapter implements ContactListener with no-ops. Embed it to
/// override only the events you need.
type ContactAdapter struct{}

func (ContactAdapter) Begin(e ContactEvent)   {}
func (ContactAdapter) Persist(e ContactEvent) {}
func (ContactAdapter) End(e ContactEvent)     {}

/// StepListener is notified around every step.
type StepListener interface {
	/// Called before anything moves.
	Begin(step Step, world *World)

	/// Called after the contact events of the step.
	End(step Step, world *World)
}

/// BoundsListener is told about every body that left the world bounds, before
/// the bounds policy is applied.
type BoundsListener interface {
	Outside(body *Body)
}

/// Joints are destroyed implicitly when one of their bodies is removed. The
/// destruction listener is the place to drop references to them.
type DestructionListener interface {
	JointDestroyed(joint Joint)
}

/// Implement this to get fine grained control over contact creation. It is
/// consulted after the fixture filters accepted the pair.
type ContactFilter interface {
	ShouldCollide(fixtureA *Fixture, fixtureB *Fixture) bool
}

/// Called for each body found in a world AABB query. Return false to stop.
type BodyQueryCallback func(body *Body) bool

/// Called for each fixture hit by a ray cast. You control how the ray cast
/// proceeds by returning a float:
/// return -1: ignore this fixture and continue
/// return 0: terminate the ray cast
/// return fraction: clip the ray to this point
/// return 1: don't clip the ray and continue
type RayCastCallback func(fixture *Fixture, point Vec2, normal Vec2, fraction float64) float64
