package dyn2d

import "github.com/pkg/errors"

// Construction errors. Everything the world does once a body or joint has been
// accepted is error free; these are returned while building the scene.
var (
	ErrDegeneratePolygon = errors.New("dyn2d: polygon needs at least 3 distinct, non collinear vertices")
	ErrNonConvexPolygon  = errors.New("dyn2d: polygon is not convex")
	ErrTooManyVertices   = errors.New("dyn2d: polygon has too many vertices")
	ErrInvalidRadius     = errors.New("dyn2d: radius must be positive")
	ErrInvalidSize       = errors.New("dyn2d: width and height must be positive")
	ErrInvalidDensity    = errors.New("dyn2d: density must be positive")
	ErrInvalidFriction   = errors.New("dyn2d: friction must not be negative")
	ErrInvalidDamping    = errors.New("dyn2d: damping must not be negative")
	ErrInvalidMass       = errors.New("dyn2d: mass and inertia must not be negative")
	ErrFixtureAttached   = errors.New("dyn2d: fixture already belongs to a body")
	ErrBodyInWorld       = errors.New("dyn2d: body already belongs to a world")
	ErrBodyNotInWorld    = errors.New("dyn2d: body is not part of this world")
	ErrJointInWorld      = errors.New("dyn2d: joint already belongs to a world")
	ErrJointNotInWorld   = errors.New("dyn2d: joint is not part of this world")
	ErrSameBody          = errors.New("dyn2d: joint needs two different bodies")
	ErrInvalidLimits     = errors.New("dyn2d: lower limit is greater than upper limit")
	ErrInvalidTorque     = errors.New("dyn2d: maximum motor torque must not be negative")
	ErrInvalidDistance   = errors.New("dyn2d: distance joint anchors must not coincide")
	ErrInvalidSettings   = errors.New("dyn2d: invalid settings")
	ErrWorldLocked       = errors.New("dyn2d: world is stepping")
)

// Assert panics when an internal invariant is broken. It guards states that
// cannot be reached through the exported API.
func Assert(a bool) {
	if !a {
		panic("dyn2d: assertion failed")
	}
}
