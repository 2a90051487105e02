package dyn2d

import (
	"math"
	"sort"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func newTestWorld(t *testing.T, gravity Vec2, opts ...WorldOption) *World {
	t.Helper()
	world, err := NewWorld(gravity, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return world
}

func addBody(t *testing.T, world *World, shape Shape, position Vec2, massType MassType) *Body {
	t.Helper()
	body := NewBody()
	if _, err := body.AddFixture(shape); err != nil {
		t.Fatal(err)
	}
	body.SetMassFromShapes(massType)
	body.Translate(position)
	if err := world.AddBody(body); err != nil {
		t.Fatal(err)
	}
	return body
}

func addBox(t *testing.T, world *World, width, height float64, position Vec2, massType MassType) *Body {
	t.Helper()
	box, err := NewRectangle(width, height)
	if err != nil {
		t.Fatal(err)
	}
	return addBody(t, world, box, position, massType)
}

func addCircle(t *testing.T, world *World, radius float64, position Vec2, massType MassType) *Body {
	t.Helper()
	circle, err := NewCircle(radius)
	if err != nil {
		t.Fatal(err)
	}
	return addBody(t, world, circle, position, massType)
}

func kineticEnergy(bodies ...*Body) float64 {
	e := 0.0
	for _, b := range bodies {
		m := b.Mass()
		v := b.LinearVelocity()
		w := b.AngularVelocity()
		e += 0.5*m.Mass*v.LengthSquared() + 0.5*m.Inertia*w*w
	}
	return e
}

type eventLog struct {
	begin, persist, end []ContactEvent
}

func (l *eventLog) Begin(e ContactEvent)   { l.begin = append(l.begin, e) }
func (l *eventLog) Persist(e ContactEvent) { l.persist = append(l.persist, e) }
func (l *eventLog) End(e ContactEvent)     { l.end = append(l.end, e) }

func TestWorldAddRemove(t *testing.T) {
	world := newTestWorld(t, Vec2{})
	a := addBox(t, world, 1, 1, Vec2{}, MassNormal)
	b := addBox(t, world, 1, 1, MakeVec2(0.5, 0), MassNormal)

	if err := world.AddBody(a); err != ErrBodyInWorld {
		t.Fatalf("second AddBody() error = %v", err)
	}

	other := newTestWorld(t, Vec2{})
	if err := other.RemoveBody(a); err != ErrBodyNotInWorld {
		t.Fatalf("RemoveBody() from another world error = %v", err)
	}

	world.Step(1.0 / 60.0)
	if world.ContactCount() != 1 {
		t.Fatalf("contact count = %d, want 1", world.ContactCount())
	}

	if err := world.RemoveBody(b); err != nil {
		t.Fatal(err)
	}
	if world.BodyCount() != 1 || world.ContactCount() != 0 || len(a.Contacts()) != 0 {
		t.Fatalf("after remove: %d bodies, %d contacts, %d edges", world.BodyCount(), world.ContactCount(), len(a.Contacts()))
	}
	if b.World() != nil {
		t.Fatal("removed body still points at the world")
	}

	// a removed body can join again
	if err := other.AddBody(b); err != nil {
		t.Fatal(err)
	}
}

func TestWorldIgnoresNonPositiveStep(t *testing.T) {
	world := newTestWorld(t, MakeVec2(0, -10))
	body := addCircle(t, world, 0.5, Vec2{}, MassNormal)

	world.Step(0)
	world.Step(-1)
	world.Step(math.NaN())

	if world.StepCount() != 0 || body.LinearVelocity() != (Vec2{}) {
		t.Fatalf("step count %d velocity %v", world.StepCount(), body.LinearVelocity())
	}
}

func TestWorldGravityAndMassTypes(t *testing.T) {
	world := newTestWorld(t, MakeVec2(0, -10))
	normal := addCircle(t, world, 0.5, MakeVec2(-3, 0), MassNormal)
	infinite := addCircle(t, world, 0.5, MakeVec2(-1, 0), MassInfinite)
	fixedLinear := addCircle(t, world, 0.5, MakeVec2(1, 0), MassFixedLinearVelocity)
	fixedAngular := addCircle(t, world, 0.5, MakeVec2(3, 0), MassFixedAngularVelocity)

	fixedLinear.ApplyTorque(1)
	fixedAngular.ApplyTorque(1)

	dt := 1.0 / 60.0
	world.Step(dt)

	if v := normal.LinearVelocity(); !almostEqual(v.Y, -10*dt, 1e-12) {
		t.Fatalf("normal body velocity %v", v)
	}
	if infinite.LinearVelocity() != (Vec2{}) || infinite.Position() != MakeVec2(-1, 0) {
		t.Fatal("infinite body moved")
	}
	if fixedLinear.LinearVelocity() != (Vec2{}) || fixedLinear.AngularVelocity() == 0 {
		t.Fatalf("fixed linear velocity body: v %v w %v", fixedLinear.LinearVelocity(), fixedLinear.AngularVelocity())
	}
	if fixedAngular.AngularVelocity() != 0 || fixedAngular.LinearVelocity().Y >= 0 {
		t.Fatalf("fixed angular velocity body: v %v w %v", fixedAngular.LinearVelocity(), fixedAngular.AngularVelocity())
	}
}

func TestWorldDamping(t *testing.T) {
	world := newTestWorld(t, Vec2{})
	body := addCircle(t, world, 0.5, Vec2{}, MassNormal)
	if err := body.SetLinearDamping(1); err != nil {
		t.Fatal(err)
	}
	if err := body.SetAngularDamping(2); err != nil {
		t.Fatal(err)
	}
	if err := body.SetLinearDamping(-1); errors.Cause(err) != ErrInvalidDamping {
		t.Fatalf("SetLinearDamping(-1) error = %v", err)
	}

	body.SetLinearVelocity(MakeVec2(1, 0))
	body.SetAngularVelocity(1)

	dt := 0.1
	world.Step(dt)

	if v := body.LinearVelocity().X; !almostEqual(v, 1/(1+dt*1), 1e-12) {
		t.Fatalf("linear velocity = %v", v)
	}
	if w := body.AngularVelocity(); !almostEqual(w, 1/(1+dt*2), 1e-12) {
		t.Fatalf("angular velocity = %v", w)
	}
}

func TestEnergyIsNotCreated(t *testing.T) {
	world := newTestWorld(t, Vec2{})
	a := addCircle(t, world, 0.5, MakeVec2(-1, 0), MassNormal)
	b := addBox(t, world, 1, 1, MakeVec2(1, 0.2), MassNormal)

	a.SetLinearVelocity(MakeVec2(3, 0))
	b.SetLinearVelocity(MakeVec2(-2, 0))
	b.SetAngularVelocity(1)

	before := kineticEnergy(a, b)
	collided := false
	for i := 0; i < 120; i++ {
		world.Step(1.0 / 60.0)

		if after := kineticEnergy(a, b); after > before*(1+1e-3) {
			t.Fatalf("step %d: kinetic energy %v exceeds %v", i, after, before)
		}
		if a.InContact(b) {
			collided = true
		}
	}

	if !collided {
		t.Fatal("bodies never collided")
	}
}

func TestBroadPhaseSoundness(t *testing.T) {
	world := newTestWorld(t, Vec2{})
	a := addBox(t, world, 1, 1, Vec2{}, MassNormal)
	b := addBox(t, world, 1, 1, MakeVec2(0.9, 0.3), MassNormal)
	addBox(t, world, 1, 1, MakeVec2(5, 0), MassNormal)
	// within the AABB margin but not overlapping
	addBox(t, world, 1, 1, MakeVec2(-0.5, 1.15), MassNormal)
	// two overlapping infinite bodies never pair
	addBox(t, world, 1, 1, MakeVec2(-5, 0), MassInfinite)
	addBox(t, world, 1, 1, MakeVec2(-5.5, 0), MassInfinite)

	pairs := world.DetectPairs()
	if len(pairs) != 1 {
		t.Fatalf("pairs = %v, want exactly one", pairs)
	}
	if pairs[0].A != a || pairs[0].B != b {
		t.Fatalf("pair = (%s, %s)", pairs[0].A.Name(), pairs[0].B.Name())
	}

	// Checked against a brute force over all bodies.
	bodies := world.Bodies()
	for i := range bodies {
		for j := i + 1; j < len(bodies); j++ {
			bi, bj := bodies[i], bodies[j]
			overlap := bi.ComputeAABB().Overlaps(bj.ComputeAABB()) && !(bi.IsInfinite() && bj.IsInfinite())

			found := false
			for _, p := range pairs {
				if (p.A == bi && p.B == bj) || (p.A == bj && p.B == bi) {
					found = true
				}
			}
			if found != overlap {
				t.Fatalf("bodies %d and %d: overlap %v, candidate %v", i, j, overlap, found)
			}
		}
	}

	if world.ContactCount() != 0 {
		t.Fatal("DetectPairs created contacts")
	}
}

type rejectBody struct {
	body *Body
}

func (r rejectBody) ShouldCollide(fixtureA *Fixture, fixtureB *Fixture) bool {
	return fixtureA.Body() != r.body && fixtureB.Body() != r.body
}

func TestBroadPhaseSkipsFilteredPairs(t *testing.T) {
	reject := &rejectBody{}
	world := newTestWorld(t, Vec2{}, WithContactFilter(reject))

	masked := addBox(t, world, 1, 1, Vec2{}, MassNormal)
	addBox(t, world, 1, 1, MakeVec2(0.5, 0), MassNormal)
	filter := masked.Fixtures()[0].Filter()
	filter.MaskBits = 0
	masked.Fixtures()[0].SetFilter(filter)

	vetoed := addBox(t, world, 1, 1, MakeVec2(0, 5), MassNormal)
	addBox(t, world, 1, 1, MakeVec2(0.5, 5), MassNormal)
	reject.body = vetoed

	// one fixture of a body is enough for the pair
	a := addBox(t, world, 1, 1, MakeVec2(0, -5), MassNormal)
	b := addBox(t, world, 1, 1, MakeVec2(0.5, -5), MassNormal)
	circle, _ := NewCircle(0.25)
	if _, err := a.AddFixture(circle); err != nil {
		t.Fatal(err)
	}
	filter = a.Fixtures()[0].Filter()
	filter.MaskBits = 0
	a.Fixtures()[0].SetFilter(filter)

	pairs := world.DetectPairs()
	if len(pairs) != 1 || pairs[0].A != a || pairs[0].B != b {
		t.Fatalf("pairs = %v, want only the pair with an accepted fixture", pairs)
	}

	world.Step(1.0 / 60.0)
	if world.ContactCount() != 1 {
		t.Fatalf("contacts = %d, want 1", world.ContactCount())
	}
}

func TestBroadPhaseSkipsJointedBodies(t *testing.T) {
	world := newTestWorld(t, Vec2{})
	a := addBox(t, world, 1, 1, Vec2{}, MassNormal)
	b := addBox(t, world, 1, 1, MakeVec2(0.5, 0), MassNormal)

	j, err := NewRevoluteJoint(a, b, MakeVec2(0.25, 0))
	if err != nil {
		t.Fatal(err)
	}
	if err := world.AddJoint(j); err != nil {
		t.Fatal(err)
	}
	if pairs := world.DetectPairs(); len(pairs) != 0 {
		t.Fatalf("pairs = %v", pairs)
	}

	if err := world.RemoveJoint(j); err != nil {
		t.Fatal(err)
	}
	if pairs := world.DetectPairs(); len(pairs) != 1 {
		t.Fatalf("pairs = %v, want one without the joint", pairs)
	}
	if len(a.Joints()) != 0 || len(b.Joints()) != 0 {
		t.Fatal("joint edges left behind")
	}
}

func TestContactEvents(t *testing.T) {
	log := &eventLog{}
	world := newTestWorld(t, MakeVec2(0, -10), WithContactListener(log))
	floor := addBox(t, world, 10, 1, Vec2{}, MassInfinite)
	box := addBox(t, world, 1, 1, MakeVec2(0, 1.2), MassNormal)

	for i := 0; i < 60 && len(log.begin) == 0; i++ {
		world.Step(1.0 / 60.0)
	}
	if len(log.begin) != 1 {
		t.Fatalf("begin events = %d", len(log.begin))
	}

	e := log.begin[0]
	if e.BodyA != floor || e.BodyB != box {
		t.Fatal("begin event bodies out of order")
	}
	if e.Sensor || e.PointCount < 1 {
		t.Fatalf("begin event %+v", e)
	}
	if e.Normal.Sub(MakeVec2(0, 1)).Length() > 1e-6 {
		t.Fatalf("normal = %v, want from floor to box", e.Normal)
	}

	for i := 0; i < 10; i++ {
		world.Step(1.0 / 60.0)
	}
	if len(log.persist) == 0 {
		t.Fatal("no persist events")
	}
	last := log.persist[len(log.persist)-1]
	if last.NormalImpulses[0] <= 0 {
		t.Fatalf("persist event normal impulses %v", last.NormalImpulses)
	}

	// removal outside a step reports the end right away
	if err := world.RemoveBody(box); err != nil {
		t.Fatal(err)
	}
	if len(log.end) != 1 || log.end[0].BodyB != box {
		t.Fatalf("end events = %d", len(log.end))
	}
}

func TestSensorOnlyNotifies(t *testing.T) {
	log := &eventLog{}
	world := newTestWorld(t, MakeVec2(0, -10), WithContactListener(log))

	sensor := addBox(t, world, 10, 1, Vec2{}, MassInfinite)
	sensor.Fixtures()[0].SetSensor(true)
	box := addBox(t, world, 1, 1, MakeVec2(0, 1.2), MassNormal)

	for i := 0; i < 120; i++ {
		world.Step(1.0 / 60.0)
	}

	if box.Position().Y > -1.5 {
		t.Fatalf("box rests on a sensor at %v", box.Position())
	}
	if len(log.begin) != 1 || !log.begin[0].Sensor || log.begin[0].PointCount != 0 {
		t.Fatalf("sensor begin events %+v", log.begin)
	}
	if len(log.end) != 1 {
		t.Fatalf("sensor end events = %d", len(log.end))
	}
}

func TestContactFilter(t *testing.T) {
	world := newTestWorld(t, MakeVec2(0, -10))
	floor := addBox(t, world, 10, 1, Vec2{}, MassInfinite)
	box := addBox(t, world, 1, 1, MakeVec2(0, 1.2), MassNormal)

	filter := box.Fixtures()[0].Filter()
	filter.GroupIndex = -1
	box.Fixtures()[0].SetFilter(filter)
	floor.Fixtures()[0].SetFilter(filter)

	for i := 0; i < 60; i++ {
		world.Step(1.0 / 60.0)
	}
	if world.ContactCount() != 0 || box.Position().Y > 0 {
		t.Fatalf("filtered box collided: %d contacts, y %v", world.ContactCount(), box.Position().Y)
	}
}

type removeOnEnd struct {
	ContactAdapter
	t      *testing.T
	world  *World
	target *Body
	ended  []string
}

func (r *removeOnEnd) End(e ContactEvent) {
	names := []string{e.BodyA.Name(), e.BodyB.Name()}
	sort.Strings(names)
	r.ended = append(r.ended, names[0]+"/"+names[1])

	if r.target != nil {
		target := r.target
		r.target = nil
		if err := r.world.RemoveBody(target); err != nil {
			r.t.Errorf("RemoveBody() from End: %v", err)
		}
	}
}

func TestRemoveBodyFromEndListener(t *testing.T) {
	listener := &removeOnEnd{t: t}
	world := newTestWorld(t, Vec2{}, WithContactListener(listener))
	listener.world = world

	named := func(name string, position Vec2) *Body {
		b := addBox(t, world, 1, 1, position, MassNormal)
		b.SetName(name)
		return b
	}
	a := named("a", Vec2{})
	named("b", MakeVec2(0.9, 0))
	named("c", MakeVec2(-0.9, 0))
	d := named("d", MakeVec2(0, 5))
	named("e", MakeVec2(0.9, 5))
	named("f", MakeVec2(-0.9, 5))

	world.Step(1.0 / 60.0)
	if world.ContactCount() != 4 {
		t.Fatalf("contacts = %d, want 4", world.ContactCount())
	}

	// the first End removes d, which ends two more contacts
	listener.target = d
	if err := world.RemoveBody(a); err != nil {
		t.Fatal(err)
	}

	got := append([]string(nil), listener.ended...)
	sort.Strings(got)
	want := []string{"a/b", "a/c", "d/e", "d/f"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("ended %v, want each of %v once", listener.ended, want)
	}
	if world.ContactCount() != 0 || world.BodyCount() != 4 {
		t.Fatalf("%d contacts, %d bodies left", world.ContactCount(), world.BodyCount())
	}
}

func TestSleepAndWake(t *testing.T) {
	world := newTestWorld(t, MakeVec2(0, -10))
	addBox(t, world, 10, 1, Vec2{}, MassInfinite)
	box := addBox(t, world, 1, 1, MakeVec2(0, 1.0), MassNormal)

	steps := 0
	for ; steps < 600 && !box.IsAsleep(); steps++ {
		world.Step(1.0 / 60.0)
	}
	if !box.IsAsleep() {
		t.Fatalf("box still awake after %d steps, v %v", steps, box.LinearVelocity())
	}
	if steps < int(DefaultTimeToSleep*60) {
		t.Fatalf("box fell asleep after %d steps", steps)
	}
	if box.LinearVelocity() != (Vec2{}) || box.AngularVelocity() != 0 {
		t.Fatal("sleeping body has a velocity")
	}

	// a sleeping body does not move
	p := box.Position()
	world.Step(1.0 / 60.0)
	if box.Position() != p {
		t.Fatal("sleeping body moved")
	}

	box.ApplyForce(MakeVec2(0, 100))
	if box.IsAsleep() {
		t.Fatal("force did not wake the body")
	}
	world.Step(1.0 / 60.0)
	if box.IsAsleep() || box.Position().Y <= p.Y {
		t.Fatalf("woken body asleep %v at %v", box.IsAsleep(), box.Position())
	}
}

func TestAutoSleepDisabled(t *testing.T) {
	s := DefaultSettings()
	s.AutoSleep = false
	world := newTestWorld(t, MakeVec2(0, -10), WithSettings(s))
	addBox(t, world, 10, 1, Vec2{}, MassInfinite)
	box := addBox(t, world, 1, 1, MakeVec2(0, 1.0), MassNormal)

	for i := 0; i < 120; i++ {
		world.Step(1.0 / 60.0)
	}
	if box.IsAsleep() {
		t.Fatal("body fell asleep with auto sleep disabled")
	}
}

type removeOnBegin struct {
	ContactAdapter
	t      *testing.T
	world  *World
	target *Body
	count  int
}

func (r *removeOnBegin) Begin(e ContactEvent) {
	if err := r.world.RemoveBody(r.target); err != nil {
		r.t.Errorf("RemoveBody() during step: %v", err)
	}
	// nothing changes while the step runs
	r.count = r.world.BodyCount()

	circle, _ := NewCircle(1)
	if err := r.target.AttachFixture(NewFixture(circle)); err != ErrWorldLocked {
		r.t.Errorf("AttachFixture() during step error = %v", err)
	}
	if err := r.target.ApplyProperties(r.target.Properties()); err != ErrWorldLocked {
		r.t.Errorf("ApplyProperties() during step error = %v", err)
	}
	if r.world.DetectPairs() != nil {
		r.t.Error("DetectPairs() during step returned pairs")
	}
}

func TestMutationDuringStepIsDeferred(t *testing.T) {
	listener := &removeOnBegin{t: t}
	world := newTestWorld(t, MakeVec2(0, -10), WithContactListener(listener))
	listener.world = world

	addBox(t, world, 10, 1, Vec2{}, MassInfinite)
	listener.target = addBox(t, world, 1, 1, MakeVec2(0, 1.2), MassNormal)

	for i := 0; i < 60 && listener.count == 0; i++ {
		world.Step(1.0 / 60.0)
		if world.IsLocked() {
			t.Fatal("world locked after Step")
		}
	}

	if listener.count != 2 {
		t.Fatalf("body count during callback = %d, want 2", listener.count)
	}
	if world.BodyCount() != 1 || listener.target.World() != nil {
		t.Fatalf("body count after step = %d", world.BodyCount())
	}
}

type outsideLog struct {
	bodies []*Body
}

func (l *outsideLog) Outside(body *Body) {
	l.bodies = append(l.bodies, body)
}

func TestBoundsPolicy(t *testing.T) {
	tests := []struct {
		policy BoundsPolicy
		check  func(t *testing.T, world *World, body *Body)
	}{
		{BoundsDeactivate, func(t *testing.T, world *World, body *Body) {
			if body.IsActive() || body.World() != world {
				t.Fatal("body not deactivated")
			}
		}},
		{BoundsRemove, func(t *testing.T, world *World, body *Body) {
			if body.World() != nil || world.BodyCount() != 1 {
				t.Fatal("body not removed")
			}
		}},
		{BoundsReport, func(t *testing.T, world *World, body *Body) {
			if !body.IsActive() || body.World() != world {
				t.Fatal("body changed by report policy")
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			bounds, err := NewAxisAlignedBounds(10, 10)
			if err != nil {
				t.Fatal(err)
			}

			log := &outsideLog{}
			world := newTestWorld(t, Vec2{}, WithBounds(bounds), WithBoundsPolicy(tt.policy), WithBoundsListener(log))
			addBox(t, world, 1, 1, Vec2{}, MassNormal)
			body := addCircle(t, world, 0.5, MakeVec2(3, 0), MassNormal)
			body.SetLinearVelocity(MakeVec2(60, 0))

			for i := 0; i < 10; i++ {
				world.Step(1.0 / 60.0)
			}

			if len(log.bodies) == 0 || log.bodies[0] != body {
				t.Fatalf("outside reports %v", log.bodies)
			}
			tt.check(t, world, body)
		})
	}
}

func TestParallelNarrowPhaseMatchesSerial(t *testing.T) {
	build := func(parallel bool) (*World, []*Body) {
		s := DefaultSettings()
		s.ParallelNarrowPhase = parallel
		s.NarrowPhaseWorkers = 4

		world := newTestWorld(t, MakeVec2(0, -10), WithSettings(s))
		addBox(t, world, 40, 1, Vec2{}, MassInfinite)

		var bodies []*Body
		for row := 0; row < 6; row++ {
			for col := 0; col < 6-row; col++ {
				x := float64(col) - 0.5*float64(5-row)
				y := 1.0 + float64(row)*1.05
				if (row+col)%2 == 0 {
					bodies = append(bodies, addBox(t, world, 1, 1, MakeVec2(x, y), MassNormal))
				} else {
					bodies = append(bodies, addCircle(t, world, 0.5, MakeVec2(x, y), MassNormal))
				}
			}
		}
		return world, bodies
	}

	serial, a := build(false)
	parallel, b := build(true)

	for i := 0; i < 180; i++ {
		serial.Step(1.0 / 60.0)
		parallel.Step(1.0 / 60.0)
	}

	for i := range a {
		if a[i].Position() != b[i].Position() || a[i].Angle() != b[i].Angle() {
			t.Fatalf("body %d: serial %v %v, parallel %v %v", i, a[i].Position(), a[i].Angle(), b[i].Position(), b[i].Angle())
		}
	}
}

func TestContactUpdateMatchesPointsByID(t *testing.T) {
	boxA, _ := NewRectangle(1, 1)
	boxB, _ := NewRectangle(1, 1)
	a, b := NewBody(), NewBody()
	fA, _ := a.AddFixture(boxA)
	fB, _ := b.AddFixture(boxB)

	c := newContact(fA, fB, 0)
	c.manifold.PointCount = 2
	c.manifold.Points[0] = ManifoldPoint{ID: ContactID{IndexA: 1, TypeB: FeatureFace}, NormalImpulse: 3, TangentImpulse: 1}
	c.manifold.Points[1] = ManifoldPoint{ID: ContactID{IndexA: 2, TypeB: FeatureFace}, NormalImpulse: 5, TangentImpulse: -2}

	c.pending.PointCount = 2
	c.pending.Points[0] = ManifoldPoint{ID: ContactID{IndexA: 2, TypeB: FeatureFace}}
	c.pending.Points[1] = ManifoldPoint{ID: ContactID{IndexA: 3, TypeB: FeatureFace}, NormalImpulse: 7}
	c.pendingTouching = true

	if got := c.update(); got != transitionBegin {
		t.Fatalf("transition = %v, want begin", got)
	}

	p := c.Manifold().Points
	if p[0].NormalImpulse != 5 || p[0].TangentImpulse != -2 {
		t.Fatalf("matched point impulses %v %v", p[0].NormalImpulse, p[0].TangentImpulse)
	}
	if p[1].NormalImpulse != 0 || p[1].TangentImpulse != 0 {
		t.Fatalf("new point impulses %v %v", p[1].NormalImpulse, p[1].TangentImpulse)
	}

	c.pending = Manifold{}
	c.pendingTouching = false
	if got := c.update(); got != transitionEnd || c.IsTouching() {
		t.Fatalf("transition = %v, touching %v", got, c.IsTouching())
	}
}

func TestUpdateTakesFixedSteps(t *testing.T) {
	s := DefaultSettings()
	s.StepFrequency = 0.01
	s.MaxSubSteps = 3
	world := newTestWorld(t, Vec2{}, WithSettings(s))

	if n := world.Update(0.025); n != 2 {
		t.Fatalf("Update(0.025) = %d steps", n)
	}
	if n := world.Update(0.006); n != 1 {
		t.Fatalf("Update(0.006) = %d steps", n)
	}
	if n := world.Update(1); n != 3 {
		t.Fatalf("Update(1) = %d steps", n)
	}
	if n := world.Update(0); n != 0 || world.StepCount() != 6 {
		t.Fatalf("Update(0) = %d, step count %d", n, world.StepCount())
	}
}

func TestBodyProperties(t *testing.T) {
	world := newTestWorld(t, Vec2{})
	body := addBox(t, world, 1, 1, MakeVec2(1, 2), MassNormal)
	body.SetName("crate")
	if err := body.SetLinearDamping(0.5); err != nil {
		t.Fatal(err)
	}
	if err := body.SetAngularDamping(0.25); err != nil {
		t.Fatal(err)
	}
	body.SetGravityScale(0.75)

	p := body.Properties()
	if p.Name != "crate" || p.Position != MakeVec2(1, 2) || !p.Active {
		t.Fatalf("properties %+v", p)
	}
	if p.LinearDamping != 0.5 || p.AngularDamping != 0.25 || p.GravityScale != 0.75 {
		t.Fatalf("damping %v %v, gravity scale %v", p.LinearDamping, p.AngularDamping, p.GravityScale)
	}

	// an edited snapshot that is never applied changes nothing
	p.Name = "barrel"
	p.LinearVelocity = MakeVec2(5, 0)
	if body.Name() != "crate" || body.LinearVelocity() != (Vec2{}) {
		t.Fatal("snapshot aliases the body")
	}

	bad := p
	bad.AngularDamping = -1
	if err := body.ApplyProperties(bad); errors.Cause(err) != ErrInvalidDamping {
		t.Fatalf("ApplyProperties() error = %v", err)
	}
	if body.Name() != "crate" {
		t.Fatal("failed apply changed the body")
	}

	p.Position = MakeVec2(-1, 0)
	p.Angle = 0.5
	p.GravityScale = 2
	if err := body.ApplyProperties(p); err != nil {
		t.Fatal(err)
	}
	if body.Name() != "barrel" || body.LinearVelocity() != MakeVec2(5, 0) || body.GravityScale() != 2 {
		t.Fatalf("applied properties %+v", body.Properties())
	}
	if body.Position() != MakeVec2(-1, 0) || body.Angle() != 0.5 {
		t.Fatalf("pose %v %v", body.Position(), body.Angle())
	}
	if body.Mass().Type != MassNormal || body.IsInfinite() {
		t.Fatalf("mass %+v", body.Mass())
	}
}

func TestDeactivatedBodyLeavesCollision(t *testing.T) {
	log := &eventLog{}
	world := newTestWorld(t, MakeVec2(0, -10), WithContactListener(log))
	addBox(t, world, 10, 1, Vec2{}, MassInfinite)
	box := addBox(t, world, 1, 1, MakeVec2(0, 1.0), MassNormal)

	for i := 0; i < 10; i++ {
		world.Step(1.0 / 60.0)
	}
	if world.ContactCount() == 0 {
		t.Fatal("no contact")
	}

	box.SetActive(false)
	if world.ContactCount() != 0 || len(log.end) != 1 {
		t.Fatalf("%d contacts, %d end events after deactivation", world.ContactCount(), len(log.end))
	}

	p := box.Position()
	world.Step(1.0 / 60.0)
	if box.Position() != p {
		t.Fatal("inactive body moved")
	}

	box.SetActive(true)
	world.Step(1.0 / 60.0)
	if world.ContactCount() == 0 {
		t.Fatal("contact not recreated after activation")
	}
}

func TestQueryAndRayCast(t *testing.T) {
	world := newTestWorld(t, Vec2{})
	a := addBox(t, world, 1, 1, MakeVec2(2, 0), MassNormal)
	b := addCircle(t, world, 0.5, MakeVec2(5, 0), MassNormal)
	addBox(t, world, 1, 1, MakeVec2(0, 5), MassNormal)
	world.Step(1.0 / 60.0)

	var found []*Body
	world.QueryAABB(MakeAABB(MakeVec2(1, -1), MakeVec2(6, 1)), func(body *Body) bool {
		found = append(found, body)
		return true
	})
	if len(found) != 2 || !(found[0] == a || found[1] == a) || !(found[0] == b || found[1] == b) {
		t.Fatalf("query found %d bodies", len(found))
	}

	// closest hit
	var hit *Body
	var point Vec2
	world.RayCast(func(f *Fixture, p, n Vec2, fraction float64) float64 {
		hit = f.Body()
		point = p
		return fraction
	}, MakeVec2(0, 0), MakeVec2(10, 0))

	if hit != a {
		t.Fatalf("ray hit %v, want the box", hit)
	}
	if math.Abs(point.X-1.5) > 0.05 {
		t.Fatalf("hit point %v", point)
	}
}

func TestShift(t *testing.T) {
	bounds, _ := NewAxisAlignedBounds(10, 10)
	world := newTestWorld(t, Vec2{}, WithBounds(bounds))
	body := addBox(t, world, 1, 1, MakeVec2(4, 0), MassNormal)
	world.Step(1.0 / 60.0)

	world.Shift(MakeVec2(100, 0))
	if body.Position() != MakeVec2(104, 0) {
		t.Fatalf("position %v", body.Position())
	}

	world.Step(1.0 / 60.0)
	if !body.IsActive() {
		t.Fatal("shifted body left the shifted bounds")
	}
}
