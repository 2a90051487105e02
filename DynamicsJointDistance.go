package dyn2d

import (
	"math"

	"github.com/pkg/errors"
)

/// A distance joint constrains two points on two bodies
/// to remain at a fixed distance from each other. You can view
/// this as a massless, rigid rod. A positive frequency turns the rod into a
/// damped spring.
type DistanceJoint struct {
	jointBase

	frequencyHz  float64
	dampingRatio float64
	bias         float64

	// Solver shared
	localAnchorA Vec2
	localAnchorB Vec2
	gamma        float64
	impulse      float64
	length       float64

	// Solver temp
	u    Vec2
	rA   Vec2
	rB   Vec2
	mass float64
}

/// NewDistanceJoint connects anchorA on a to anchorB on b, both given in world
/// coordinates. The current distance between the anchors becomes the rest
/// length.
func NewDistanceJoint(a, b *Body, anchorA, anchorB Vec2) (*DistanceJoint, error) {
	if a == nil || b == nil || a == b {
		return nil, ErrSameBody
	}

	length := anchorB.Sub(anchorA).Length()
	if length < DefaultLinearSlop {
		return nil, errors.Wrapf(ErrInvalidDistance, "length %v", length)
	}

	return &DistanceJoint{
		jointBase: jointBase{
			kind:  JointDistance,
			bodyA: a,
			bodyB: b,
		},
		localAnchorA: a.LocalPoint(anchorA),
		localAnchorB: b.LocalPoint(anchorB),
		length:       length,
	}, nil
}

/// The local anchor point relative to bodyA's origin.
func (joint *DistanceJoint) LocalAnchorA() Vec2 {
	return joint.localAnchorA
}

/// The local anchor point relative to bodyB's origin.
func (joint *DistanceJoint) LocalAnchorB() Vec2 {
	return joint.localAnchorB
}

func (joint *DistanceJoint) Length() float64 {
	return joint.length
}

/// Set the natural length.
func (joint *DistanceJoint) SetLength(length float64) error {
	if length < DefaultLinearSlop || !IsValid(length) {
		return errors.Wrapf(ErrInvalidDistance, "length %v", length)
	}
	joint.wakeBodies()
	joint.length = length
	return nil
}

func (joint *DistanceJoint) Frequency() float64 {
	return joint.frequencyHz
}

/// Set the mass-spring-damper frequency in Hertz. 0 makes the joint rigid.
func (joint *DistanceJoint) SetFrequency(hz float64) error {
	if hz < 0 || !IsValid(hz) {
		return errors.Errorf("dyn2d: frequency must not be negative, got %v", hz)
	}
	joint.frequencyHz = hz
	return nil
}

func (joint *DistanceJoint) DampingRatio() float64 {
	return joint.dampingRatio
}

/// Set the damping ratio. 0 = no damping, 1 = critical damping.
func (joint *DistanceJoint) SetDampingRatio(ratio float64) error {
	if ratio < 0 || !IsValid(ratio) {
		return errors.Wrapf(ErrInvalidDamping, "damping ratio %v", ratio)
	}
	joint.dampingRatio = ratio
	return nil
}

func (joint *DistanceJoint) AnchorA() Vec2 {
	return joint.bodyA.WorldPoint(joint.localAnchorA)
}

func (joint *DistanceJoint) AnchorB() Vec2 {
	return joint.bodyB.WorldPoint(joint.localAnchorB)
}

func (joint *DistanceJoint) ReactionForce(invDt float64) Vec2 {
	return joint.u.Mul(invDt * joint.impulse)
}

func (joint *DistanceJoint) ReactionTorque(invDt float64) float64 {
	return 0.0
}

// 1-D constrained system
// m (v2 - v1) = lambda
// v2 + (beta/h) * x1 + gamma * lambda = 0, gamma has units of inverse mass.
// x2 = x1 + h * v2

// C = norm(p2 - p1) - L
// u = (p2 - p1) / norm(p2 - p1)
// Cdot = dot(u, v2 + cross(w2, r2) - v1 - cross(w1, r1))
// J = [-u -cross(r1, u) u cross(r2, u)]
// K = J * invM * JT
//   = invMass1 + invI1 * cross(r1, u)^2 + invMass2 + invI2 * cross(r2, u)^2

func (joint *DistanceJoint) initVelocityConstraints(data *solverData) {
	joint.loadBodies()

	cA := data.positions[joint.indexA].C
	aA := data.positions[joint.indexA].A
	vA := data.velocities[joint.indexA].V
	wA := data.velocities[joint.indexA].W

	cB := data.positions[joint.indexB].C
	aB := data.positions[joint.indexB].A
	vB := data.velocities[joint.indexB].V
	wB := data.velocities[joint.indexB].W

	qA := MakeRot(aA)
	qB := MakeRot(aB)

	joint.rA = qA.Apply(joint.localAnchorA.Sub(joint.localCenterA))
	joint.rB = qB.Apply(joint.localAnchorB.Sub(joint.localCenterB))
	d := cB.Add(joint.rB).Sub(cA).Sub(joint.rA)

	// Handle singularity.
	length := d.Length()
	if length > data.settings.LinearSlop {
		joint.u = d.Mul(1.0 / length)
	} else {
		joint.u = Vec2{}
	}

	crAu := joint.rA.Cross(joint.u)
	crBu := joint.rB.Cross(joint.u)
	invMass := joint.invMassA + joint.invIA*crAu*crAu + joint.invMassB + joint.invIB*crBu*crBu

	// Compute the effective mass matrix.
	joint.mass = 0.0
	if invMass != 0.0 {
		joint.mass = 1.0 / invMass
	}

	if joint.frequencyHz > 0.0 {
		C := length - joint.length

		omega := 2.0 * Pi * joint.frequencyHz

		// Damping coefficient
		dc := 2.0 * joint.mass * joint.dampingRatio * omega

		// Spring stiffness
		k := joint.mass * omega * omega

		h := data.step.Dt
		joint.gamma = h * (dc + h*k)
		if joint.gamma != 0.0 {
			joint.gamma = 1.0 / joint.gamma
		}
		joint.bias = C * h * k * joint.gamma

		invMass += joint.gamma
		joint.mass = 0.0
		if invMass != 0.0 {
			joint.mass = 1.0 / invMass
		}
	} else {
		joint.gamma = 0.0
		joint.bias = 0.0
	}

	if data.step.warmStarting {
		// Scale the impulse to support a variable time step.
		joint.impulse *= data.step.DtRatio

		P := joint.u.Mul(joint.impulse)
		vA = vA.Sub(P.Mul(joint.invMassA))
		wA -= joint.invIA * joint.rA.Cross(P)
		vB = vB.Add(P.Mul(joint.invMassB))
		wB += joint.invIB * joint.rB.Cross(P)
	} else {
		joint.impulse = 0.0
	}

	data.velocities[joint.indexA] = velocity{vA, wA}
	data.velocities[joint.indexB] = velocity{vB, wB}
}

func (joint *DistanceJoint) solveVelocityConstraints(data *solverData) {
	vA := data.velocities[joint.indexA].V
	wA := data.velocities[joint.indexA].W
	vB := data.velocities[joint.indexB].V
	wB := data.velocities[joint.indexB].W

	// Cdot = dot(u, v + cross(w, r))
	Cdot := joint.u.Dot(relativeVelocity(vA, wA, joint.rA, vB, wB, joint.rB))

	impulse := -joint.mass * (Cdot + joint.bias + joint.gamma*joint.impulse)
	joint.impulse += impulse

	P := joint.u.Mul(impulse)
	vA = vA.Sub(P.Mul(joint.invMassA))
	wA -= joint.invIA * joint.rA.Cross(P)
	vB = vB.Add(P.Mul(joint.invMassB))
	wB += joint.invIB * joint.rB.Cross(P)

	data.velocities[joint.indexA] = velocity{vA, wA}
	data.velocities[joint.indexB] = velocity{vB, wB}
}

func (joint *DistanceJoint) solvePositionConstraints(data *solverData) bool {
	if joint.frequencyHz > 0.0 {
		// There is no position correction for soft distance constraints.
		return true
	}

	settings := data.settings

	cA := data.positions[joint.indexA].C
	aA := data.positions[joint.indexA].A
	cB := data.positions[joint.indexB].C
	aB := data.positions[joint.indexB].A

	rA := MakeRot(aA).Apply(joint.localAnchorA.Sub(joint.localCenterA))
	rB := MakeRot(aB).Apply(joint.localAnchorB.Sub(joint.localCenterB))
	u, length := cB.Add(rB).Sub(cA).Sub(rA).Normalized()

	C := FloatClamp(length-joint.length, -settings.MaxLinearCorrection, settings.MaxLinearCorrection)

	impulse := -joint.mass * C
	P := u.Mul(impulse)

	cA = cA.Sub(P.Mul(joint.invMassA))
	aA -= joint.invIA * rA.Cross(P)
	cB = cB.Add(P.Mul(joint.invMassB))
	aB += joint.invIB * rB.Cross(P)

	data.positions[joint.indexA] = position{cA, aA}
	data.positions[joint.indexB] = position{cB, aB}

	return math.Abs(C) < settings.LinearSlop
}
