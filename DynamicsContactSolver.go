package dyn2d

import (
	"math"
)

// Ensure a reasonable condition number for the block solver.
const maxConditionNumber = 1000.0

type velocityConstraintPoint struct {
	rA             Vec2
	rB             Vec2
	normalImpulse  float64
	tangentImpulse float64
	normalMass     float64
	tangentMass    float64
	velocityBias   float64
}

type contactVelocityConstraint struct {
	points             [MaxManifoldPoints]velocityConstraintPoint
	normal             Vec2
	normalMass         Mat22
	K                  Mat22
	indexA             int
	indexB             int
	invMassA, invMassB float64
	invIA, invIB       float64
	friction           float64
	restitution        float64
	pointCount         int
	contactIndex       int
}

type contactPositionConstraint struct {
	localPoints                [MaxManifoldPoints]Vec2
	localNormal                Vec2
	localPoint                 Vec2
	indexA                     int
	indexB                     int
	invMassA, invMassB         float64
	localCenterA, localCenterB Vec2
	invIA, invIB               float64
	manifoldType               ManifoldType
	radiusA, radiusB           float64
	pointCount                 int
}

/// contactSolver runs the sequential impulse passes over the touching
/// contacts of one island.
type contactSolver struct {
	data                *solverData
	positionConstraints []contactPositionConstraint
	velocityConstraints []contactVelocityConstraint
	contacts            []*Contact
}

func newContactSolver(data *solverData, contacts []*Contact) *contactSolver {
	solver := &contactSolver{
		data:                data,
		positionConstraints: make([]contactPositionConstraint, len(contacts)),
		velocityConstraints: make([]contactVelocityConstraint, len(contacts)),
		contacts:            contacts,
	}

	step := data.step

	// Initialize position independent portions of the constraints.
	for i, contact := range contacts {
		fixtureA := contact.fixtureA
		fixtureB := contact.fixtureB
		bodyA := fixtureA.body
		bodyB := fixtureB.body
		manifold := &contact.manifold

		pointCount := manifold.PointCount
		Assert(pointCount > 0)

		vc := &solver.velocityConstraints[i]
		vc.friction = contact.friction
		vc.restitution = contact.restitution
		vc.indexA = bodyA.islandIndex
		vc.indexB = bodyB.islandIndex
		vc.invMassA = bodyA.mass.InvMass
		vc.invMassB = bodyB.mass.InvMass
		vc.invIA = bodyA.mass.InvInertia
		vc.invIB = bodyB.mass.InvInertia
		vc.contactIndex = i
		vc.pointCount = pointCount

		pc := &solver.positionConstraints[i]
		pc.indexA = bodyA.islandIndex
		pc.indexB = bodyB.islandIndex
		pc.invMassA = bodyA.mass.InvMass
		pc.invMassB = bodyB.mass.InvMass
		pc.localCenterA = bodyA.sweep.LocalCenter
		pc.localCenterB = bodyB.sweep.LocalCenter
		pc.invIA = bodyA.mass.InvInertia
		pc.invIB = bodyB.mass.InvInertia
		pc.localNormal = manifold.LocalNormal
		pc.localPoint = manifold.LocalPoint
		pc.pointCount = pointCount
		pc.radiusA = fixtureA.shape.Radius()
		pc.radiusB = fixtureB.shape.Radius()
		pc.manifoldType = manifold.Type

		for j := 0; j < pointCount; j++ {
			cp := &manifold.Points[j]
			vcp := &vc.points[j]

			if step.warmStarting {
				vcp.normalImpulse = step.DtRatio * cp.NormalImpulse
				vcp.tangentImpulse = step.DtRatio * cp.TangentImpulse
			}

			pc.localPoints[j] = cp.LocalPoint
		}
	}

	return solver
}

// Initialize position dependent portions of the velocity constraints.
func (solver *contactSolver) initializeVelocityConstraints() {
	positions := solver.data.positions
	velocities := solver.data.velocities
	velocityThreshold := solver.data.settings.VelocityThreshold

	for i := range solver.velocityConstraints {
		vc := &solver.velocityConstraints[i]
		pc := &solver.positionConstraints[i]

		manifold := &solver.contacts[vc.contactIndex].manifold

		mA := vc.invMassA
		mB := vc.invMassB
		iA := vc.invIA
		iB := vc.invIB

		cA := positions[vc.indexA].C
		vA := velocities[vc.indexA].V
		wA := velocities[vc.indexA].W

		cB := positions[vc.indexB].C
		vB := velocities[vc.indexB].V
		wB := velocities[vc.indexB].W

		xfA := bodyTransform(positions[vc.indexA], pc.localCenterA)
		xfB := bodyTransform(positions[vc.indexB], pc.localCenterB)

		worldManifold := MakeWorldManifold(manifold, xfA, pc.radiusA, xfB, pc.radiusB)

		vc.normal = worldManifold.Normal
		tangent := vc.normal.CrossVS(1.0)

		for j := 0; j < vc.pointCount; j++ {
			vcp := &vc.points[j]

			vcp.rA = worldManifold.Points[j].Sub(cA)
			vcp.rB = worldManifold.Points[j].Sub(cB)

			rnA := vcp.rA.Cross(vc.normal)
			rnB := vcp.rB.Cross(vc.normal)

			kNormal := mA + mB + iA*rnA*rnA + iB*rnB*rnB

			vcp.normalMass = 0.0
			if kNormal > 0.0 {
				vcp.normalMass = 1.0 / kNormal
			}

			rtA := vcp.rA.Cross(tangent)
			rtB := vcp.rB.Cross(tangent)

			kTangent := mA + mB + iA*rtA*rtA + iB*rtB*rtB

			vcp.tangentMass = 0.0
			if kTangent > 0.0 {
				vcp.tangentMass = 1.0 / kTangent
			}

			// Setup a velocity bias for restitution.
			vcp.velocityBias = 0.0
			vRel := vc.normal.Dot(relativeVelocity(vA, wA, vcp.rA, vB, wB, vcp.rB))
			if vRel < -velocityThreshold {
				vcp.velocityBias = -vc.restitution * vRel
			}
		}

		// If we have two points, then prepare the block solver.
		if vc.pointCount == 2 {
			vcp1 := &vc.points[0]
			vcp2 := &vc.points[1]

			rn1A := vcp1.rA.Cross(vc.normal)
			rn1B := vcp1.rB.Cross(vc.normal)
			rn2A := vcp2.rA.Cross(vc.normal)
			rn2B := vcp2.rB.Cross(vc.normal)

			k11 := mA + mB + iA*rn1A*rn1A + iB*rn1B*rn1B
			k22 := mA + mB + iA*rn2A*rn2A + iB*rn2B*rn2B
			k12 := mA + mB + iA*rn1A*rn2A + iB*rn1B*rn2B

			if k11*k11 < maxConditionNumber*(k11*k22-k12*k12) {
				// K is safe to invert.
				vc.K = MakeMat22(Vec2{k11, k12}, Vec2{k12, k22})
				vc.normalMass = vc.K.Inverse()
			} else {
				// The constraints are redundant, just use one.
				vc.pointCount = 1
			}
		}
	}
}

func (solver *contactSolver) warmStart() {
	velocities := solver.data.velocities

	for i := range solver.velocityConstraints {
		vc := &solver.velocityConstraints[i]

		vA := velocities[vc.indexA].V
		wA := velocities[vc.indexA].W
		vB := velocities[vc.indexB].V
		wB := velocities[vc.indexB].W

		normal := vc.normal
		tangent := normal.CrossVS(1.0)

		for j := 0; j < vc.pointCount; j++ {
			vcp := &vc.points[j]
			P := normal.Mul(vcp.normalImpulse).Add(tangent.Mul(vcp.tangentImpulse))
			wA -= vc.invIA * vcp.rA.Cross(P)
			vA = vA.Sub(P.Mul(vc.invMassA))
			wB += vc.invIB * vcp.rB.Cross(P)
			vB = vB.Add(P.Mul(vc.invMassB))
		}

		velocities[vc.indexA] = velocity{vA, wA}
		velocities[vc.indexB] = velocity{vB, wB}
	}
}

// Normal impulses are solved before friction so the friction bound uses the
// normal impulse of the current iteration.
func (solver *contactSolver) solveVelocityConstraints() {
	velocities := solver.data.velocities

	for i := range solver.velocityConstraints {
		vc := &solver.velocityConstraints[i]

		mA := vc.invMassA
		iA := vc.invIA
		mB := vc.invMassB
		iB := vc.invIB

		vA := velocities[vc.indexA].V
		wA := velocities[vc.indexA].W
		vB := velocities[vc.indexB].V
		wB := velocities[vc.indexB].W

		normal := vc.normal
		tangent := normal.CrossVS(1.0)

		Assert(vc.pointCount == 1 || vc.pointCount == 2)

		apply := func(vcp *velocityConstraintPoint, P Vec2) {
			vA = vA.Sub(P.Mul(mA))
			wA -= iA * vcp.rA.Cross(P)

			vB = vB.Add(P.Mul(mB))
			wB += iB * vcp.rB.Cross(P)
		}

		// Solve normal constraints
		if vc.pointCount == 1 {
			vcp := &vc.points[0]

			// Relative velocity at contact
			dv := relativeVelocity(vA, wA, vcp.rA, vB, wB, vcp.rB)

			// Compute normal impulse
			vn := dv.Dot(normal)
			lambda := -vcp.normalMass * (vn - vcp.velocityBias)

			// Clamp the accumulated impulse
			newImpulse := math.Max(vcp.normalImpulse+lambda, 0.0)
			lambda = newImpulse - vcp.normalImpulse
			vcp.normalImpulse = newImpulse

			apply(vcp, normal.Mul(lambda))
		} else {
			// Block solver developed in collaboration with Dirk Gregorius (back in 01/07 on Box2D_Lite).
			// Build the mini LCP for this contact patch
			//
			// vn = A * x + b, vn >= 0, x >= 0 and vn_i * x_i = 0 with i = 1..2
			//
			// A = J * W * JT and J = ( -n, -r1 x n, n, r2 x n )
			//
			// The system is solved using the "Total enumeration method" (s. Murty). The complementary constraint vn_i * x_i
			// implies that we must have in any solution either vn_i = 0 or x_i = 0. So for the 2D contact problem the cases
			// vn1 = 0 and vn2 = 0, x1 = 0 and x2 = 0, x1 = 0 and vn2 = 0, x2 = 0 and vn1 = 0 need to be tested. The first valid
			// solution that satisfies the problem is chosen.
			//
			// In order to account of the accumulated impulse 'a' (because of the iterative nature of the solver which only requires
			// that the accumulated impulse is clamped and not the incremental impulse) we change the impulse variable (x_i).
			//
			// Substitute:
			//
			// x = a + d
			//
			// a := old total impulse
			// x := new total impulse
			// d := incremental impulse
			//
			// For the current iteration we extend the formula for the incremental impulse
			// to compute the new total impulse:
			//
			// vn = A * d + b
			//    = A * (x - a) + b
			//    = A * x + b - A * a
			//    = A * x + b'
			// b' = b - A * a;

			cp1 := &vc.points[0]
			cp2 := &vc.points[1]

			a := Vec2{cp1.normalImpulse, cp2.normalImpulse}
			Assert(a.X >= 0.0 && a.Y >= 0.0)

			// Relative velocity at contact
			dv1 := relativeVelocity(vA, wA, cp1.rA, vB, wB, cp1.rB)
			dv2 := relativeVelocity(vA, wA, cp2.rA, vB, wB, cp2.rB)

			// Compute normal velocity
			vn1 := dv1.Dot(normal)
			vn2 := dv2.Dot(normal)

			b := Vec2{vn1 - cp1.velocityBias, vn2 - cp2.velocityBias}

			// Compute b'
			b = b.Sub(vc.K.MulVec(a))

			var x Vec2
			solved := false

			// Case 1: vn = 0
			//
			// 0 = A * x + b'
			//
			// Solve for x:
			//
			// x = - inv(A) * b'
			x = vc.normalMass.MulVec(b).Neg()
			if x.X >= 0.0 && x.Y >= 0.0 {
				solved = true
			}

			// Case 2: vn1 = 0 and x2 = 0
			//
			//   0 = a11 * x1 + a12 * 0 + b1'
			// vn2 = a21 * x1 + a22 * 0 + b2'
			if !solved {
				x = Vec2{-cp1.normalMass * b.X, 0.0}
				vn2 = vc.K.Ex.Y*x.X + b.Y
				solved = x.X >= 0.0 && vn2 >= 0.0
			}

			// Case 3: vn2 = 0 and x1 = 0
			//
			// vn1 = a11 * 0 + a12 * x2 + b1'
			//   0 = a21 * 0 + a22 * x2 + b2'
			if !solved {
				x = Vec2{0.0, -cp2.normalMass * b.Y}
				vn1 = vc.K.Ey.X*x.Y + b.X
				solved = x.Y >= 0.0 && vn1 >= 0.0
			}

			// Case 4: x1 = 0 and x2 = 0
			//
			// vn1 = b1
			// vn2 = b2;
			if !solved {
				x = Vec2{}
				solved = b.X >= 0.0 && b.Y >= 0.0
			}

			// No solution, give up. This is hit sometimes, but it doesn't seem to matter.
			if solved {
				// Get the incremental impulse
				d := x.Sub(a)

				// Apply incremental impulse
				apply(cp1, normal.Mul(d.X))
				apply(cp2, normal.Mul(d.Y))

				// Accumulate
				cp1.normalImpulse = x.X
				cp2.normalImpulse = x.Y
			}
		}

		// Coulomb friction, bounded by the normal impulse of each point.
		for j := 0; j < vc.pointCount; j++ {
			vcp := &vc.points[j]

			dv := relativeVelocity(vA, wA, vcp.rA, vB, wB, vcp.rB)

			// Compute tangent force
			vt := dv.Dot(tangent)
			lambda := vcp.tangentMass * (-vt)

			// Clamp the accumulated force
			maxFriction := vc.friction * vcp.normalImpulse
			newImpulse := FloatClamp(vcp.tangentImpulse+lambda, -maxFriction, maxFriction)
			lambda = newImpulse - vcp.tangentImpulse
			vcp.tangentImpulse = newImpulse

			apply(vcp, tangent.Mul(lambda))
		}

		velocities[vc.indexA] = velocity{vA, wA}
		velocities[vc.indexB] = velocity{vB, wB}
	}
}

func (solver *contactSolver) storeImpulses() {
	for i := range solver.velocityConstraints {
		vc := &solver.velocityConstraints[i]
		manifold := &solver.contacts[vc.contactIndex].manifold

		for j := 0; j < vc.pointCount; j++ {
			manifold.Points[j].NormalImpulse = vc.points[j].normalImpulse
			manifold.Points[j].TangentImpulse = vc.points[j].tangentImpulse
		}
	}
}

type positionSolverManifold struct {
	normal     Vec2
	point      Vec2
	separation float64
}

func makePositionSolverManifold(pc *contactPositionConstraint, xfA, xfB Transform, index int) positionSolverManifold {
	Assert(pc.pointCount > 0)

	var psm positionSolverManifold

	switch pc.manifoldType {
	case ManifoldCircles:
		pointA := xfA.Apply(pc.localPoint)
		pointB := xfB.Apply(pc.localPoints[0])
		psm.normal, _ = pointB.Sub(pointA).Normalized()
		psm.point = pointA.Add(pointB).Mul(0.5)
		psm.separation = pointB.Sub(pointA).Dot(psm.normal) - pc.radiusA - pc.radiusB

	case ManifoldFaceA:
		psm.normal = xfA.Q.Apply(pc.localNormal)
		planePoint := xfA.Apply(pc.localPoint)

		clipPoint := xfB.Apply(pc.localPoints[index])
		psm.separation = clipPoint.Sub(planePoint).Dot(psm.normal) - pc.radiusA - pc.radiusB
		psm.point = clipPoint

	case ManifoldFaceB:
		psm.normal = xfB.Q.Apply(pc.localNormal)
		planePoint := xfB.Apply(pc.localPoint)

		clipPoint := xfA.Apply(pc.localPoints[index])
		psm.separation = clipPoint.Sub(planePoint).Dot(psm.normal) - pc.radiusA - pc.radiusB
		psm.point = clipPoint

		// Ensure normal points from A to B
		psm.normal = psm.normal.Neg()
	}

	return psm
}

// Sequential solver. Reports whether the remaining overlap is within
// tolerance.
func (solver *contactSolver) solvePositionConstraints() bool {
	positions := solver.data.positions
	settings := solver.data.settings

	minSeparation := 0.0

	for i := range solver.positionConstraints {
		pc := &solver.positionConstraints[i]

		mA := pc.invMassA
		iA := pc.invIA
		mB := pc.invMassB
		iB := pc.invIB

		cA := positions[pc.indexA].C
		aA := positions[pc.indexA].A

		cB := positions[pc.indexB].C
		aB := positions[pc.indexB].A

		// Solve normal constraints
		for j := 0; j < pc.pointCount; j++ {
			xfA := bodyTransform(position{cA, aA}, pc.localCenterA)
			xfB := bodyTransform(position{cB, aB}, pc.localCenterB)

			psm := makePositionSolverManifold(pc, xfA, xfB, j)
			normal := psm.normal

			rA := psm.point.Sub(cA)
			rB := psm.point.Sub(cB)

			// Track max constraint error.
			minSeparation = math.Min(minSeparation, psm.separation)

			// Prevent large corrections and allow slop.
			C := FloatClamp(settings.Baumgarte*(psm.separation+settings.LinearSlop), -settings.MaxLinearCorrection, 0.0)

			// Compute the effective mass.
			rnA := rA.Cross(normal)
			rnB := rB.Cross(normal)
			K := mA + mB + iA*rnA*rnA + iB*rnB*rnB

			// Compute normal impulse
			impulse := 0.0
			if K > 0.0 {
				impulse = -C / K
			}

			P := normal.Mul(impulse)

			cA = cA.Sub(P.Mul(mA))
			aA -= iA * rA.Cross(P)

			cB = cB.Add(P.Mul(mB))
			aB += iB * rB.Cross(P)
		}

		positions[pc.indexA] = position{cA, aA}
		positions[pc.indexB] = position{cB, aB}
	}

	// We can't expect minSpeparation >= -linearSlop because we don't
	// push the separation above -linearSlop.
	return minSeparation >= -3.0*settings.LinearSlop
}

// relativeVelocity is the velocity of the contact point on B relative to
// the one on A.
func relativeVelocity(vA Vec2, wA float64, rA Vec2, vB Vec2, wB float64, rB Vec2) Vec2 {
	return vB.Add(CrossSV(wB, rB)).Sub(vA).Sub(CrossSV(wA, rA))
}

// bodyTransform rebuilds the origin transform of a body from the solver
// position of its center of mass.
func bodyTransform(p position, localCenter Vec2) Transform {
	q := MakeRot(p.A)
	return Transform{P: p.C.Sub(q.Apply(localCenter)), Q: q}
}
