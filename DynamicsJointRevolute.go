package dyn2d

import (
	"math"

	"github.com/pkg/errors"
)

/// A revolute joint constrains two bodies to share a common point while they
/// are free to rotate about the point. The relative rotation about the shared
/// point is the joint angle. You can limit the relative rotation with
/// a joint limit that specifies a lower and upper angle. You can use a motor
/// to drive the relative rotation about the shared point. A maximum motor torque
/// is provided so that infinite forces are not generated.
type RevoluteJoint struct {
	jointBase

	// Solver shared
	localAnchorA Vec2
	localAnchorB Vec2
	impulse      Vec3
	motorImpulse float64

	enableMotor    bool
	maxMotorTorque float64
	motorSpeed     float64

	enableLimit    bool
	referenceAngle float64
	lowerAngle     float64
	upperAngle     float64

	// Solver temp
	rA         Vec2
	rB         Vec2
	mass       Mat33   // effective mass for point-to-point constraint.
	motorMass  float64 // effective mass for motor/limit angular constraint.
	limitState limitState
}

/// NewRevoluteJoint pins a and b together at the world point anchor. The
/// anchor is stored in each body's local frame and the current relative
/// angle becomes the reference angle of the limits.
func NewRevoluteJoint(a, b *Body, anchor Vec2) (*RevoluteJoint, error) {
	if a == nil || b == nil || a == b {
		return nil, ErrSameBody
	}

	return &RevoluteJoint{
		jointBase: jointBase{
			kind:  JointRevolute,
			bodyA: a,
			bodyB: b,
		},
		localAnchorA:   a.LocalPoint(anchor),
		localAnchorB:   b.LocalPoint(anchor),
		referenceAngle: b.Angle() - a.Angle(),
		limitState:     limitInactive,
	}, nil
}

/// The local anchor point relative to bodyA's origin.
func (joint *RevoluteJoint) LocalAnchorA() Vec2 {
	return joint.localAnchorA
}

/// The local anchor point relative to bodyB's origin.
func (joint *RevoluteJoint) LocalAnchorB() Vec2 {
	return joint.localAnchorB
}

/// Get the reference angle.
func (joint *RevoluteJoint) ReferenceAngle() float64 {
	return joint.referenceAngle
}

func (joint *RevoluteJoint) AnchorA() Vec2 {
	return joint.bodyA.WorldPoint(joint.localAnchorA)
}

func (joint *RevoluteJoint) AnchorB() Vec2 {
	return joint.bodyB.WorldPoint(joint.localAnchorB)
}

func (joint *RevoluteJoint) ReactionForce(invDt float64) Vec2 {
	return Vec2{joint.impulse.X, joint.impulse.Y}.Mul(invDt)
}

/// The limit torque. The motor torque is reported by MotorTorque.
func (joint *RevoluteJoint) ReactionTorque(invDt float64) float64 {
	return invDt * joint.impulse.Z
}

/// Get the current joint angle in radians.
func (joint *RevoluteJoint) JointAngle() float64 {
	return joint.bodyB.sweep.A - joint.bodyA.sweep.A - joint.referenceAngle
}

/// Get the current joint angle speed in radians per second.
func (joint *RevoluteJoint) JointSpeed() float64 {
	return joint.bodyB.angularVelocity - joint.bodyA.angularVelocity
}

func (joint *RevoluteJoint) IsMotorEnabled() bool {
	return joint.enableMotor
}

func (joint *RevoluteJoint) EnableMotor(flag bool) {
	if flag != joint.enableMotor {
		joint.wakeBodies()
		joint.enableMotor = flag
	}
}

/// Get the current motor torque given the inverse time step.
/// Unit is N*m.
func (joint *RevoluteJoint) MotorTorque(invDt float64) float64 {
	return invDt * joint.motorImpulse
}

func (joint *RevoluteJoint) MotorSpeed() float64 {
	return joint.motorSpeed
}

/// Set the motor speed in radians per second.
func (joint *RevoluteJoint) SetMotorSpeed(speed float64) {
	if speed != joint.motorSpeed {
		joint.wakeBodies()
		joint.motorSpeed = speed
	}
}

func (joint *RevoluteJoint) MaxMotorTorque() float64 {
	return joint.maxMotorTorque
}

/// Set the maximum motor torque, usually in N-m.
func (joint *RevoluteJoint) SetMaxMotorTorque(torque float64) error {
	if torque < 0 || !IsValid(torque) {
		return errors.Wrapf(ErrInvalidTorque, "max motor torque %v", torque)
	}

	if torque != joint.maxMotorTorque {
		joint.wakeBodies()
		joint.maxMotorTorque = torque
	}
	return nil
}

func (joint *RevoluteJoint) IsLimitEnabled() bool {
	return joint.enableLimit
}

func (joint *RevoluteJoint) EnableLimit(flag bool) {
	if flag != joint.enableLimit {
		joint.wakeBodies()
		joint.enableLimit = flag
		joint.impulse.Z = 0.0
	}
}

func (joint *RevoluteJoint) LowerLimit() float64 {
	return joint.lowerAngle
}

func (joint *RevoluteJoint) UpperLimit() float64 {
	return joint.upperAngle
}

/// Set the joint limits in radians, relative to the reference angle.
func (joint *RevoluteJoint) SetLimits(lower, upper float64) error {
	if lower > upper || !IsValid(lower) || !IsValid(upper) {
		return errors.Wrapf(ErrInvalidLimits, "lower %v upper %v", lower, upper)
	}

	if lower != joint.lowerAngle || upper != joint.upperAngle {
		joint.wakeBodies()
		joint.impulse.Z = 0.0
		joint.lowerAngle = lower
		joint.upperAngle = upper
	}
	return nil
}

// Point-to-point constraint
// C = p2 - p1
// Cdot = v2 - v1
//      = v2 + cross(w2, r2) - v1 - cross(w1, r1)
// J = [-I -r1_skew I r2_skew ]
// Identity used:
// w k % (rx i + ry j) = w * (-ry i + rx j)

// Motor constraint
// Cdot = w2 - w1
// J = [0 0 -1 0 0 1]
// K = invI1 + invI2

func (joint *RevoluteJoint) initVelocityConstraints(data *solverData) {
	joint.loadBodies()

	aA := data.positions[joint.indexA].A
	vA := data.velocities[joint.indexA].V
	wA := data.velocities[joint.indexA].W

	aB := data.positions[joint.indexB].A
	vB := data.velocities[joint.indexB].V
	wB := data.velocities[joint.indexB].W

	qA := MakeRot(aA)
	qB := MakeRot(aB)

	joint.rA = qA.Apply(joint.localAnchorA.Sub(joint.localCenterA))
	joint.rB = qB.Apply(joint.localAnchorB.Sub(joint.localCenterB))

	// J = [-I -r1_skew I r2_skew]
	//     [ 0       -1 0       1]
	// r_skew = [-ry; rx]

	// Matlab
	// K = [ mA+r1y^2*iA+mB+r2y^2*iB,  -r1y*iA*r1x-r2y*iB*r2x,          -r1y*iA-r2y*iB]
	//     [  -r1y*iA*r1x-r2y*iB*r2x, mA+r1x^2*iA+mB+r2x^2*iB,           r1x*iA+r2x*iB]
	//     [          -r1y*iA-r2y*iB,           r1x*iA+r2x*iB,                   iA+iB]

	mA, mB := joint.invMassA, joint.invMassB
	iA, iB := joint.invIA, joint.invIB
	rA, rB := joint.rA, joint.rB

	fixedRotation := iA+iB == 0.0

	joint.mass.Ex.X = mA + mB + rA.Y*rA.Y*iA + rB.Y*rB.Y*iB
	joint.mass.Ey.X = -rA.Y*rA.X*iA - rB.Y*rB.X*iB
	joint.mass.Ez.X = -rA.Y*iA - rB.Y*iB
	joint.mass.Ex.Y = joint.mass.Ey.X
	joint.mass.Ey.Y = mA + mB + rA.X*rA.X*iA + rB.X*rB.X*iB
	joint.mass.Ez.Y = rA.X*iA + rB.X*iB
	joint.mass.Ex.Z = joint.mass.Ez.X
	joint.mass.Ey.Z = joint.mass.Ez.Y
	joint.mass.Ez.Z = iA + iB

	joint.motorMass = iA + iB
	if joint.motorMass > 0.0 {
		joint.motorMass = 1.0 / joint.motorMass
	}

	if !joint.enableMotor || fixedRotation {
		joint.motorImpulse = 0.0
	}

	if joint.enableLimit && !fixedRotation {
		jointAngle := aB - aA - joint.referenceAngle
		switch {
		case math.Abs(joint.upperAngle-joint.lowerAngle) < 2.0*data.settings.AngularSlop:
			joint.limitState = limitEqual
		case jointAngle <= joint.lowerAngle:
			if joint.limitState != limitAtLower {
				joint.impulse.Z = 0.0
			}
			joint.limitState = limitAtLower
		case jointAngle >= joint.upperAngle:
			if joint.limitState != limitAtUpper {
				joint.impulse.Z = 0.0
			}
			joint.limitState = limitAtUpper
		default:
			joint.limitState = limitInactive
			joint.impulse.Z = 0.0
		}
	} else {
		joint.limitState = limitInactive
	}

	if data.step.warmStarting {
		// Scale impulses to support a variable time step.
		joint.impulse = joint.impulse.Mul(data.step.DtRatio)
		joint.motorImpulse *= data.step.DtRatio

		P := Vec2{joint.impulse.X, joint.impulse.Y}

		vA = vA.Sub(P.Mul(mA))
		wA -= iA * (rA.Cross(P) + joint.motorImpulse + joint.impulse.Z)

		vB = vB.Add(P.Mul(mB))
		wB += iB * (rB.Cross(P) + joint.motorImpulse + joint.impulse.Z)
	} else {
		joint.impulse = Vec3{}
		joint.motorImpulse = 0.0
	}

	data.velocities[joint.indexA] = velocity{vA, wA}
	data.velocities[joint.indexB] = velocity{vB, wB}
}

func (joint *RevoluteJoint) solveVelocityConstraints(data *solverData) {
	vA := data.velocities[joint.indexA].V
	wA := data.velocities[joint.indexA].W
	vB := data.velocities[joint.indexB].V
	wB := data.velocities[joint.indexB].W

	mA, mB := joint.invMassA, joint.invMassB
	iA, iB := joint.invIA, joint.invIB

	fixedRotation := iA+iB == 0.0

	// Solve motor constraint.
	if joint.enableMotor && joint.limitState != limitEqual && !fixedRotation {
		Cdot := wB - wA - joint.motorSpeed
		impulse := -joint.motorMass * Cdot
		oldImpulse := joint.motorImpulse
		maxImpulse := data.step.Dt * joint.maxMotorTorque
		joint.motorImpulse = FloatClamp(joint.motorImpulse+impulse, -maxImpulse, maxImpulse)
		impulse = joint.motorImpulse - oldImpulse

		wA -= iA * impulse
		wB += iB * impulse
	}

	Cdot1 := relativeVelocity(vA, wA, joint.rA, vB, wB, joint.rB)

	// Solve limit constraint.
	if joint.enableLimit && joint.limitState != limitInactive && !fixedRotation {
		Cdot2 := wB - wA
		Cdot := Vec3{Cdot1.X, Cdot1.Y, Cdot2}

		impulse := joint.mass.Solve33(Cdot).Neg()

		// One sided: the accumulated limit impulse may only push away from
		// the boundary.
		newImpulse := joint.impulse.Z + impulse.Z
		if (joint.limitState == limitAtLower && newImpulse < 0.0) ||
			(joint.limitState == limitAtUpper && newImpulse > 0.0) {
			rhs := Cdot1.Neg().Add(Vec2{joint.mass.Ez.X, joint.mass.Ez.Y}.Mul(joint.impulse.Z))
			reduced := joint.mass.Solve22(rhs)
			impulse = Vec3{reduced.X, reduced.Y, -joint.impulse.Z}
			joint.impulse.X += reduced.X
			joint.impulse.Y += reduced.Y
			joint.impulse.Z = 0.0
		} else {
			joint.impulse = joint.impulse.Add(impulse)
		}

		P := Vec2{impulse.X, impulse.Y}

		vA = vA.Sub(P.Mul(mA))
		wA -= iA * (joint.rA.Cross(P) + impulse.Z)

		vB = vB.Add(P.Mul(mB))
		wB += iB * (joint.rB.Cross(P) + impulse.Z)
	} else {
		// Solve point-to-point constraint
		impulse := joint.mass.Solve22(Cdot1.Neg())

		joint.impulse.X += impulse.X
		joint.impulse.Y += impulse.Y

		vA = vA.Sub(impulse.Mul(mA))
		wA -= iA * joint.rA.Cross(impulse)

		vB = vB.Add(impulse.Mul(mB))
		wB += iB * joint.rB.Cross(impulse)
	}

	data.velocities[joint.indexA] = velocity{vA, wA}
	data.velocities[joint.indexB] = velocity{vB, wB}
}

func (joint *RevoluteJoint) solvePositionConstraints(data *solverData) bool {
	settings := data.settings

	cA := data.positions[joint.indexA].C
	aA := data.positions[joint.indexA].A
	cB := data.positions[joint.indexB].C
	aB := data.positions[joint.indexB].A

	angularError := 0.0
	positionError := 0.0

	fixedRotation := joint.invIA+joint.invIB == 0.0

	// Solve angular limit constraint.
	if joint.enableLimit && joint.limitState != limitInactive && !fixedRotation {
		angle := aB - aA - joint.referenceAngle
		limitImpulse := 0.0

		switch joint.limitState {
		case limitEqual:
			// Prevent large angular corrections
			C := FloatClamp(angle-joint.lowerAngle, -settings.MaxAngularCorrection, settings.MaxAngularCorrection)
			limitImpulse = -joint.motorMass * C
			angularError = math.Abs(C)

		case limitAtLower:
			C := angle - joint.lowerAngle
			angularError = -C

			// Prevent large angular corrections and allow some slop.
			C = FloatClamp(C+settings.AngularSlop, -settings.MaxAngularCorrection, 0.0)
			limitImpulse = -joint.motorMass * C

		case limitAtUpper:
			C := angle - joint.upperAngle
			angularError = C

			// Prevent large angular corrections and allow some slop.
			C = FloatClamp(C-settings.AngularSlop, 0.0, settings.MaxAngularCorrection)
			limitImpulse = -joint.motorMass * C
		}

		aA -= joint.invIA * limitImpulse
		aB += joint.invIB * limitImpulse
	}

	// Solve point-to-point constraint.
	{
		qA := MakeRot(aA)
		qB := MakeRot(aB)
		rA := qA.Apply(joint.localAnchorA.Sub(joint.localCenterA))
		rB := qB.Apply(joint.localAnchorB.Sub(joint.localCenterB))

		C := cB.Add(rB).Sub(cA).Sub(rA)
		positionError = C.Length()

		mA, mB := joint.invMassA, joint.invMassB
		iA, iB := joint.invIA, joint.invIB

		var K Mat22
		K.Ex.X = mA + mB + iA*rA.Y*rA.Y + iB*rB.Y*rB.Y
		K.Ex.Y = -iA*rA.X*rA.Y - iB*rB.X*rB.Y
		K.Ey.X = K.Ex.Y
		K.Ey.Y = mA + mB + iA*rA.X*rA.X + iB*rB.X*rB.X

		impulse := K.Solve(C).Neg()

		cA = cA.Sub(impulse.Mul(mA))
		aA -= iA * rA.Cross(impulse)

		cB = cB.Add(impulse.Mul(mB))
		aB += iB * rB.Cross(impulse)
	}

	data.positions[joint.indexA] = position{cA, aA}
	data.positions[joint.indexB] = position{cB, aB}

	return positionError <= settings.LinearSlop && angularError <= settings.AngularSlop
}
