package dyn2d

/// JointKind is the closed set of joint variants.
type JointKind uint8

const (
	JointRevolute JointKind = iota
	JointDistance

	jointKindCount
)

func (k JointKind) String() string {
	switch k {
	case JointRevolute:
		return "revolute"
	case JointDistance:
		return "distance"
	}
	return "unknown"
}

type limitState uint8

const (
	limitInactive limitState = iota
	limitAtLower
	limitAtUpper
	limitEqual
)

/// A joint constrains two bodies. Joints reference their bodies and never
/// own them. The set of implementations is closed: *RevoluteJoint and
/// *DistanceJoint.
type Joint interface {
	Kind() JointKind

	/// Get the first body attached to this joint.
	BodyA() *Body

	/// Get the second body attached to this joint.
	BodyB() *Body

	/// Get the anchor point on bodyA in world coordinates.
	AnchorA() Vec2

	/// Get the anchor point on bodyB in world coordinates.
	AnchorB() Vec2

	/// Get the reaction force on bodyB at the joint anchor in Newtons.
	ReactionForce(invDt float64) Vec2

	/// Get the reaction torque on bodyB in N*m.
	ReactionTorque(invDt float64) float64

	/// Get collide connected.
	/// Note: modifying the collide connect flag won't work correctly because
	/// the flag is only checked when fixture AABBs begin to overlap.
	CollideConnected() bool

	UserData() interface{}
	SetUserData(data interface{})

	base() *jointBase
}

/// jointBase holds the state shared by all joint kinds.
type jointBase struct {
	kind  JointKind
	bodyA *Body
	bodyB *Body

	world      *World
	islandFlag bool

	collideConnected bool
	userData         interface{}

	// Solver temp
	indexA       int
	indexB       int
	localCenterA Vec2
	localCenterB Vec2
	invMassA     float64
	invMassB     float64
	invIA        float64
	invIB        float64
}

func (j *jointBase) base() *jointBase {
	return j
}

func (j *jointBase) Kind() JointKind {
	return j.kind
}

func (j *jointBase) BodyA() *Body {
	return j.bodyA
}

func (j *jointBase) BodyB() *Body {
	return j.bodyB
}

func (j *jointBase) CollideConnected() bool {
	return j.collideConnected
}

/// Set this flag to true if the attached bodies should collide. It must be
/// set before the joint is added to a world.
func (j *jointBase) SetCollideConnected(flag bool) {
	j.collideConnected = flag
}

func (j *jointBase) UserData() interface{} {
	return j.userData
}

func (j *jointBase) SetUserData(data interface{}) {
	j.userData = data
}

/// World returns the world the joint was added to, or nil.
func (j *jointBase) World() *World {
	return j.world
}

func (j *jointBase) wakeBodies() {
	j.bodyA.SetAsleep(false)
	j.bodyB.SetAsleep(false)
}

// loadBodies copies the mass data the solver needs for this step.
func (j *jointBase) loadBodies() {
	j.indexA = j.bodyA.islandIndex
	j.indexB = j.bodyB.islandIndex
	j.localCenterA = j.bodyA.sweep.LocalCenter
	j.localCenterB = j.bodyB.sweep.LocalCenter
	j.invMassA = j.bodyA.mass.InvMass
	j.invMassB = j.bodyB.mass.InvMass
	j.invIA = j.bodyA.mass.InvInertia
	j.invIB = j.bodyB.mass.InvInertia
}

// jointSolver is the per kind entry of the solver dispatch table.
type jointSolver struct {
	initVelocity  func(j Joint, data *solverData)
	solveVelocity func(j Joint, data *solverData)
	solvePosition func(j Joint, data *solverData) bool
}

var jointSolvers = [jointKindCount]jointSolver{
	JointRevolute: {
		initVelocity:  func(j Joint, data *solverData) { j.(*RevoluteJoint).initVelocityConstraints(data) },
		solveVelocity: func(j Joint, data *solverData) { j.(*RevoluteJoint).solveVelocityConstraints(data) },
		solvePosition: func(j Joint, data *solverData) bool { return j.(*RevoluteJoint).solvePositionConstraints(data) },
	},
	JointDistance: {
		initVelocity:  func(j Joint, data *solverData) { j.(*DistanceJoint).initVelocityConstraints(data) },
		solveVelocity: func(j Joint, data *solverData) { j.(*DistanceJoint).solveVelocityConstraints(data) },
		solvePosition: func(j Joint, data *solverData) bool { return j.(*DistanceJoint).solvePositionConstraints(data) },
	},
}
