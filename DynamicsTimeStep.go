package dyn2d

/// Profiling data of the last step. Times are in milliseconds.
type Profile struct {
	Step          float64
	Integrate     float64
	BroadPhase    float64
	NarrowPhase   float64
	Solve         float64
	SolveInit     float64
	SolveVelocity float64
	SolvePosition float64
}

/// Step describes one simulation step. It is handed to step listeners.
type Step struct {
	Dt      float64 // time step
	InvDt   float64 // inverse time step (0 if dt == 0).
	DtRatio float64 // dt * inv_dt0
	Count   uint64  // number of completed steps before this one
}

/// This is an internal structure.
type timeStep struct {
	Step
	velocityIterations int
	positionIterations int
	warmStarting       bool
}

/// This is an internal structure.
type position struct {
	C Vec2
	A float64
}

/// This is an internal structure.
type velocity struct {
	V Vec2
	W float64
}

/// Solver Data
type solverData struct {
	step       timeStep
	settings   *Settings
	positions  []position
	velocities []velocity
}
