package dyn2d

import (
	"math"
	"time"
)

/*
Position Correction Notes
=========================
Position correction runs after the velocities were integrated into the
positions. It works on pseudo velocities: each pass moves the bodies
directly to shrink the overlap or the joint separation, without touching
the velocity state, so it cannot add energy. The Baumgarte factor limits
how much of the error is removed per pass, and the slop leaves a small
overlap in place so contacts persist and warm starting works.

The passes stop early when every contact is within 3 * slop and every
joint reports itself solved. Sleep is only allowed after such a step.
*/

/// This is an internal class.
type island struct {
	bodies   []*Body
	contacts []*Contact
	joints   []Joint

	positions  []position
	velocities []velocity
}

func (is *island) clear() {
	is.bodies = is.bodies[:0]
	is.contacts = is.contacts[:0]
	is.joints = is.joints[:0]
}

func (is *island) addBody(b *Body) {
	b.islandIndex = len(is.bodies)
	is.bodies = append(is.bodies, b)
}

func (is *island) addContact(c *Contact) {
	is.contacts = append(is.contacts, c)
}

func (is *island) addJoint(j Joint) {
	is.joints = append(is.joints, j)
}

// solve runs the constraint solver over the island and integrates the
// positions. The velocities were integrated for the whole world before the
// broad phase. It reports whether the position constraints converged.
func (is *island) solve(profile *Profile, step timeStep, settings *Settings) bool {
	h := step.Dt

	// Initialize the body state.
	is.positions = is.positions[:0]
	is.velocities = is.velocities[:0]
	for _, b := range is.bodies {
		// Store positions for the sweep.
		b.sweep.C0 = b.sweep.C
		b.sweep.A0 = b.sweep.A

		is.positions = append(is.positions, position{b.sweep.C, b.sweep.A})
		is.velocities = append(is.velocities, velocity{b.linearVelocity, b.angularVelocity})
	}

	start := time.Now()

	data := &solverData{
		step:       step,
		settings:   settings,
		positions:  is.positions,
		velocities: is.velocities,
	}

	// Initialize velocity constraints.
	contactSolver := newContactSolver(data, is.contacts)
	contactSolver.initializeVelocityConstraints()

	if step.warmStarting {
		contactSolver.warmStart()
	}

	for _, j := range is.joints {
		jointSolvers[j.Kind()].initVelocity(j, data)
	}

	profile.SolveInit += milliseconds(start)

	// Solve velocity constraints
	start = time.Now()
	for i := 0; i < step.velocityIterations; i++ {
		for _, j := range is.joints {
			jointSolvers[j.Kind()].solveVelocity(j, data)
		}

		contactSolver.solveVelocityConstraints()
	}

	// Store impulses for warm starting
	contactSolver.storeImpulses()
	profile.SolveVelocity += milliseconds(start)

	// Integrate positions
	maxTranslationSquared := settings.MaxTranslation * settings.MaxTranslation
	maxRotationSquared := settings.MaxRotation * settings.MaxRotation

	for i := range is.bodies {
		c := is.positions[i].C
		a := is.positions[i].A
		v := is.velocities[i].V
		w := is.velocities[i].W

		// Check for large velocities
		translation := v.Mul(h)
		if translation.LengthSquared() > maxTranslationSquared {
			v = v.Mul(settings.MaxTranslation / translation.Length())
		}

		rotation := h * w
		if rotation*rotation > maxRotationSquared {
			w *= settings.MaxRotation / math.Abs(rotation)
		}

		// Integrate
		is.positions[i] = position{c.Add(v.Mul(h)), a + h*w}
		is.velocities[i] = velocity{v, w}
	}

	// Solve position constraints
	start = time.Now()
	positionSolved := false
	for i := 0; i < step.positionIterations; i++ {
		contactsOkay := contactSolver.solvePositionConstraints()

		jointsOkay := true
		for _, j := range is.joints {
			jointOkay := jointSolvers[j.Kind()].solvePosition(j, data)
			jointsOkay = jointsOkay && jointOkay
		}

		if contactsOkay && jointsOkay {
			// Exit early if the position errors are small.
			positionSolved = true
			break
		}
	}

	// Copy state buffers back to the bodies
	for i, b := range is.bodies {
		if b.IsInfinite() {
			continue
		}
		b.sweep.C = is.positions[i].C
		b.sweep.A = is.positions[i].A
		b.linearVelocity = is.velocities[i].V
		b.angularVelocity = is.velocities[i].W
		b.synchronizeTransform()
	}
	profile.SolvePosition += milliseconds(start)

	return positionSolved
}

// updateSleep advances the sleep timers. The island falls asleep as a whole
// once its slowest sleeper has rested for TimeToSleep.
func (is *island) updateSleep(h float64, settings *Settings, positionSolved bool) []*Body {
	minSleepTime := MaxFloat

	linTolSqr := settings.LinearSleepTolerance * settings.LinearSleepTolerance
	angTolSqr := settings.AngularSleepTolerance * settings.AngularSleepTolerance

	for _, b := range is.bodies {
		if b.IsInfinite() {
			continue
		}

		if !b.IsAutoSleep() || b.IsBullet() ||
			b.angularVelocity*b.angularVelocity > angTolSqr ||
			b.linearVelocity.LengthSquared() > linTolSqr {
			b.sleepTime = 0.0
			minSleepTime = 0.0
		} else {
			b.sleepTime += h
			minSleepTime = math.Min(minSleepTime, b.sleepTime)
		}
	}

	if minSleepTime < settings.TimeToSleep || !positionSolved {
		return nil
	}

	var slept []*Body
	for _, b := range is.bodies {
		if b.IsInfinite() {
			continue
		}
		b.SetAsleep(true)
		slept = append(slept, b)
	}
	return slept
}

// solve finds the islands of awake bodies with a depth first search over
// touching contacts and joints and solves them one by one.
func (world *World) solve(step timeStep) {
	world.profile.SolveInit = 0.0
	world.profile.SolveVelocity = 0.0
	world.profile.SolvePosition = 0.0

	// Clear all the island flags.
	for _, b := range world.bodies {
		b.flags &^= bodyIslandFlag
	}
	for _, c := range world.contactManager.contacts {
		c.flags &^= contactIslandFlag
	}
	for _, j := range world.joints {
		j.base().islandFlag = false
	}

	is := &world.island
	stack := world.islandStack[:0]

	for _, seed := range world.bodies {
		if seed.flags&bodyIslandFlag != 0 {
			continue
		}

		if seed.IsAsleep() || !seed.IsActive() {
			continue
		}

		// The seed must be able to move.
		if seed.IsInfinite() {
			continue
		}

		// Reset island and stack.
		is.clear()
		stack = append(stack[:0], seed)
		seed.flags |= bodyIslandFlag

		// Perform a depth first search (DFS) on the constraint graph.
		for len(stack) > 0 {
			// Grab the next body off the stack and add it to the island.
			b := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			Assert(b.IsActive())
			is.addBody(b)

			// Make sure the body is awake (without resetting sleep timer).
			b.flags |= bodyAwakeFlag

			// To keep islands as small as possible, we don't
			// propagate islands across infinite bodies.
			if b.IsInfinite() {
				continue
			}

			// Search all contacts connected to this body.
			for _, ce := range b.contacts {
				contact := ce.Contact

				// Has this contact already been added to an island?
				if contact.flags&contactIslandFlag != 0 {
					continue
				}

				// Is this contact solid and touching?
				if !contact.IsEnabled() || !contact.IsTouching() || contact.IsSensor() {
					continue
				}

				other := ce.Other
				if !other.IsActive() {
					continue
				}

				is.addContact(contact)
				contact.flags |= contactIslandFlag

				// Was the other body already added to this island?
				if other.flags&bodyIslandFlag != 0 {
					continue
				}

				stack = append(stack, other)
				other.flags |= bodyIslandFlag
			}

			// Search all joints connect to this body.
			for _, je := range b.joints {
				jb := je.Joint.base()
				if jb.islandFlag {
					continue
				}

				other := je.Other

				// Don't simulate joints connected to inactive bodies.
				if !other.IsActive() {
					continue
				}

				is.addJoint(je.Joint)
				jb.islandFlag = true

				if other.flags&bodyIslandFlag != 0 {
					continue
				}

				stack = append(stack, other)
				other.flags |= bodyIslandFlag
			}
		}

		positionSolved := is.solve(&world.profile, step, &world.settings)

		if world.settings.AutoSleep {
			for _, b := range is.updateSleep(step.Dt, &world.settings, positionSolved) {
				world.logger.Debug("body fell asleep", "body", b.id, "name", b.bodyProps.Name)
			}
		}

		// Post solve cleanup.
		for _, b := range is.bodies {
			// Allow infinite bodies to participate in other islands.
			if b.IsInfinite() {
				b.flags &^= bodyIslandFlag
			}
		}
	}

	world.islandStack = stack[:0]
}

func milliseconds(since time.Time) float64 {
	return float64(time.Since(since)) / float64(time.Millisecond)
}
