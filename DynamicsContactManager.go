package dyn2d

import (
	"sort"

	"golang.org/x/sync/errgroup"
)

/// BodyPair is a broad phase candidate. A always has the lower world id.
type BodyPair struct {
	A, B *Body
}

type contactKey struct {
	a, b *Fixture
}

// contactNotice is a contact event waiting for the notify phase. Contacts
// that were destroyed carry a snapshot since they are gone by then.
type contactNotice struct {
	transition contactTransition
	contact    *Contact
	snapshot   *ContactEvent
}

// Delegate of World.
type contactManager struct {
	world      *World
	broadPhase *BroadPhase

	// Creation order. This is the order of the narrow phase and of the
	// contact events.
	contacts []*Contact
	index    map[contactKey]*Contact

	seq   uint64
	stamp uint64

	queryProxies []int
	pairs        []BodyPair
	active       []*Contact
	notices      []contactNotice
}

func newContactManager(world *World, margin float64) *contactManager {
	return &contactManager{
		world:      world,
		broadPhase: NewBroadPhase(margin),
		index:      make(map[contactKey]*Contact),
	}
}

// simulated reports whether the body moves this step and may therefore
// originate new pairs.
func simulated(b *Body) bool {
	return b.IsActive() && !b.IsAsleep() && !b.IsInfinite()
}

///////////////////////////////////////////////////////////////////////////////
// Broad phase
///////////////////////////////////////////////////////////////////////////////

// synchronize refreshes the tight AABB and the tree proxy of every body.
// Inactive and empty bodies have no proxy.
func (cm *contactManager) synchronize(bodies []*Body) {
	for _, b := range bodies {
		if !b.IsActive() || len(b.fixtures) == 0 {
			cm.destroyProxy(b)
			continue
		}

		aabb := b.ComputeAABB()
		if b.proxyID == nullNode {
			b.proxyID = cm.broadPhase.CreateProxy(aabb, b)
		} else {
			displacement := aabb.Center().Sub(b.aabb.Center())
			cm.broadPhase.MoveProxy(b.proxyID, aabb, displacement)
		}
		b.aabb = aabb
	}
}

func (cm *contactManager) destroyProxy(b *Body) {
	if b.proxyID != nullNode {
		cm.broadPhase.DestroyProxy(b.proxyID)
		b.proxyID = nullNode
	}
}

// findPairs returns the candidate pairs of this step sorted by body id.
// Only moving bodies query the tree, so two sleeping or two infinite bodies
// never pair up.
func (cm *contactManager) findPairs(bodies []*Body) []BodyPair {
	cm.queryProxies = cm.queryProxies[:0]
	for _, b := range bodies {
		if b.proxyID != nullNode && simulated(b) {
			cm.queryProxies = append(cm.queryProxies, b.proxyID)
		}
	}

	cm.pairs = cm.pairs[:0]
	cm.broadPhase.UpdatePairs(cm.queryProxies, cm.addPair)

	sort.Slice(cm.pairs, func(i, j int) bool {
		if cm.pairs[i].A.id != cm.pairs[j].A.id {
			return cm.pairs[i].A.id < cm.pairs[j].A.id
		}
		return cm.pairs[i].B.id < cm.pairs[j].B.id
	})

	return cm.pairs
}

func (cm *contactManager) addPair(userDataA interface{}, userDataB interface{}) {
	bodyA := userDataA.(*Body)
	bodyB := userDataB.(*Body)

	if !bodyA.ShouldCollide(bodyB) {
		return
	}

	if bodyA.IsAsleep() && bodyB.IsAsleep() {
		return
	}

	// The tree works on fat AABBs.
	if !bodyA.aabb.Overlaps(bodyB.aabb) {
		return
	}

	if bodyB.id < bodyA.id {
		bodyA, bodyB = bodyB, bodyA
	}

	// Fixtures are paired in this order by updateContacts.
	if !cm.fixturesCollide(bodyA, bodyB) {
		return
	}
	cm.pairs = append(cm.pairs, BodyPair{A: bodyA, B: bodyB})
}

///////////////////////////////////////////////////////////////////////////////
// Contact set
///////////////////////////////////////////////////////////////////////////////

// updateContacts makes the contact set match pairs. Every accepted fixture
// combination of a pair gets a contact. Contacts that were not reported
// are destroyed, unless none of their bodies queried the tree this step.
func (cm *contactManager) updateContacts(pairs []BodyPair) {
	cm.stamp++

	for _, pair := range pairs {
		for _, fA := range pair.A.fixtures {
			for _, fB := range pair.B.fixtures {
				cm.addContact(fA, fB)
			}
		}
	}

	kept := cm.contacts[:0]
	for _, c := range cm.contacts {
		if c.seen == cm.stamp || !(simulated(c.BodyA()) || simulated(c.BodyB())) {
			kept = append(kept, c)
			continue
		}
		cm.unlink(c)
	}
	clearContacts(cm.contacts[len(kept):])
	cm.contacts = kept
}

func (cm *contactManager) addContact(fA, fB *Fixture) {
	key := contactKey{fA, fB}
	if c, ok := cm.index[key]; ok {
		c.seen = cm.stamp
		return
	}

	if !cm.shouldCollide(fA, fB) {
		return
	}

	c := newContact(fA, fB, cm.seq)
	cm.seq++
	c.seen = cm.stamp

	cm.contacts = append(cm.contacts, c)
	cm.index[key] = c

	bodyA := fA.body
	bodyB := fB.body
	bodyA.contacts = append(bodyA.contacts, ContactEdge{Other: bodyB, Contact: c})
	bodyB.contacts = append(bodyB.contacts, ContactEdge{Other: bodyA, Contact: c})

	// Wake up the bodies
	if !c.IsSensor() {
		bodyA.SetAsleep(false)
		bodyB.SetAsleep(false)
	}
}

// shouldCollide applies the fixture filters and the contact filter.
func (cm *contactManager) shouldCollide(fA, fB *Fixture) bool {
	if !fA.filter.ShouldCollide(fB.filter) {
		return false
	}

	if filter := cm.world.contactFilter; filter != nil && !filter.ShouldCollide(fA, fB) {
		return false
	}
	return true
}

// fixturesCollide reports whether any fixture of a may touch any fixture
// of b.
func (cm *contactManager) fixturesCollide(a, b *Body) bool {
	for _, fA := range a.fixtures {
		for _, fB := range b.fixtures {
			if cm.shouldCollide(fA, fB) {
				return true
			}
		}
	}
	return false
}

// unlink detaches c from the index and the bodies. A touching contact
// reports its end with the state it had.
func (cm *contactManager) unlink(c *Contact) {
	if c.IsTouching() {
		e := c.event()
		cm.notices = append(cm.notices, contactNotice{transition: transitionEnd, snapshot: &e})
	}

	delete(cm.index, contactKey{c.fixtureA, c.fixtureB})
	c.fixtureA.body.removeContactEdge(c)
	c.fixtureB.body.removeContactEdge(c)
}

// destroyWhere removes the contacts matching pred, keeping the order of
// the others.
func (cm *contactManager) destroyWhere(pred func(c *Contact) bool) {
	kept := cm.contacts[:0]
	for _, c := range cm.contacts {
		if pred(c) {
			cm.unlink(c)
			continue
		}
		kept = append(kept, c)
	}
	clearContacts(cm.contacts[len(kept):])
	cm.contacts = kept
}

func (cm *contactManager) destroyFixtureContacts(fixture *Fixture) {
	cm.destroyWhere(func(c *Contact) bool {
		return c.fixtureA == fixture || c.fixtureB == fixture
	})
}

func (cm *contactManager) destroyBodyContacts(b *Body) {
	if len(b.contacts) == 0 {
		return
	}
	cm.destroyWhere(func(c *Contact) bool {
		return c.fixtureA.body == b || c.fixtureB.body == b
	})
}

func clearContacts(tail []*Contact) {
	for i := range tail {
		tail[i] = nil
	}
}

///////////////////////////////////////////////////////////////////////////////
// Narrow phase
///////////////////////////////////////////////////////////////////////////////

// collide runs the narrow phase over the contacts of moving bodies and
// records the resulting transitions. The evaluation may run on several
// goroutines, the commit is always sequential in contact order.
func (cm *contactManager) collide(settings *Settings) {
	cm.active = cm.active[:0]
	for _, c := range cm.contacts {
		bodyA := c.BodyA()
		bodyB := c.BodyB()

		if !bodyA.IsActive() || !bodyB.IsActive() {
			continue
		}

		// At least one body must be awake and it must be able to move.
		if !simulated(bodyA) && !simulated(bodyB) {
			continue
		}

		cm.active = append(cm.active, c)
	}

	if settings.ParallelNarrowPhase && settings.NarrowPhaseWorkers > 1 && len(cm.active) > 1 {
		evaluateParallel(cm.active, settings.NarrowPhaseWorkers)
	} else {
		for _, c := range cm.active {
			c.evaluate()
		}
	}

	for _, c := range cm.active {
		if t := c.update(); t != transitionNone {
			cm.notices = append(cm.notices, contactNotice{transition: t, contact: c})
		}
	}
}

// evaluateParallel splits contacts into one chunk per worker. Each contact
// only writes its own pending manifold.
func evaluateParallel(contacts []*Contact, workers int) {
	chunk := (len(contacts) + workers - 1) / workers

	var g errgroup.Group
	g.SetLimit(workers)

	for start := 0; start < len(contacts); start += chunk {
		end := start + chunk
		if end > len(contacts) {
			end = len(contacts)
		}
		part := contacts[start:end]

		g.Go(func() error {
			for _, c := range part {
				c.evaluate()
			}
			return nil
		})
	}

	// Narrow phase never fails.
	_ = g.Wait()
}

///////////////////////////////////////////////////////////////////////////////
// Events
///////////////////////////////////////////////////////////////////////////////

// notify hands the recorded events to listener and clears them. A listener
// may remove bodies outside a step, which records new events while these are
// delivered, so the queue is detached first.
func (cm *contactManager) notify(listener ContactListener) {
	notices := cm.notices
	cm.notices = nil

	if listener == nil {
		return
	}

	for _, n := range notices {
		var e ContactEvent
		if n.snapshot != nil {
			e = *n.snapshot
		} else {
			e = n.contact.event()
		}

		switch n.transition {
		case transitionBegin:
			listener.Begin(e)
		case transitionPersist:
			listener.Persist(e)
		case transitionEnd:
			listener.End(e)
		}
	}
}
