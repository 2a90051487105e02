package dyn2d

import (
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const MaxFloat = math.MaxFloat64
const Epsilon = 1e-12
const Pi = math.Pi

/// @file
/// Global tuning constants based on meters-kilograms-seconds (MKS) units.
///

// Collision

/// The maximum number of contact points between two convex shapes. Do
/// not change this value.
const MaxManifoldPoints = 2

/// The maximum number of vertices on a convex polygon.
const MaxPolygonVertices = 32

/// The radius of the polygon skin. This should not be modified. Making
/// this smaller means polygons will have an insufficient buffer for contact caching.
const PolygonRadius = 2.0 * DefaultLinearSlop

/// Vertices closer than this are welded together when a polygon is built.
const VertexWeldDistance = 0.5 * DefaultLinearSlop

// Defaults for the Settings fields. The values are tuned for MKS units and
// objects between 0.1 and 10 meters.
const (
	DefaultVelocityIterations    = 8
	DefaultPositionIterations    = 3
	DefaultLinearSlop            = 0.005
	DefaultAngularSlop           = 2.0 / 180.0 * Pi
	DefaultBaumgarte             = 0.2
	DefaultMaxLinearCorrection   = 0.2
	DefaultMaxAngularCorrection  = 8.0 / 180.0 * Pi
	DefaultMaxTranslation        = 2.0
	DefaultMaxRotation           = 0.5 * Pi
	DefaultVelocityThreshold     = 1.0
	DefaultTimeToSleep           = 0.5
	DefaultLinearSleepTolerance  = 0.01
	DefaultAngularSleepTolerance = 2.0 / 180.0 * Pi
	DefaultAABBMargin            = 0.1
	DefaultStepFrequency         = 1.0 / 60.0
	DefaultMaxSubSteps           = 8
)

/// Settings holds the tunable parameters of the solver, the sleep machinery and
/// the broad phase. The zero value is not usable, start from DefaultSettings.
type Settings struct {
	/// Number of sequential impulse passes over the velocity constraints.
	VelocityIterations int `yaml:"velocity_iterations"`

	/// Number of pseudo-velocity passes over the position constraints.
	PositionIterations int `yaml:"position_iterations"`

	/// A small length used as a collision and constraint tolerance.
	LinearSlop float64 `yaml:"linear_slop"`

	/// A small angle used as a constraint tolerance.
	AngularSlop float64 `yaml:"angular_slop"`

	/// The position correction factor. 1 removes all overlap in one step and
	/// overshoots, 0 disables position correction.
	Baumgarte float64 `yaml:"baumgarte"`

	MaxLinearCorrection  float64 `yaml:"max_linear_correction"`
	MaxAngularCorrection float64 `yaml:"max_angular_correction"`

	/// The maximum translation and rotation of a body per step. These limits are
	/// very large and only exist to prevent numerical problems.
	MaxTranslation float64 `yaml:"max_translation"`
	MaxRotation    float64 `yaml:"max_rotation"`

	/// Relative normal velocity below which collisions are treated as inelastic.
	VelocityThreshold float64 `yaml:"velocity_threshold"`

	AutoSleep             bool    `yaml:"auto_sleep"`
	TimeToSleep           float64 `yaml:"time_to_sleep"`
	LinearSleepTolerance  float64 `yaml:"linear_sleep_tolerance"`
	AngularSleepTolerance float64 `yaml:"angular_sleep_tolerance"`

	/// Margin added to each body AABB in the broad phase. Bodies can move by this
	/// amount without the tree being updated.
	AABBMargin float64 `yaml:"aabb_margin"`

	WarmStarting bool `yaml:"warm_starting"`

	/// Step length used by World.Update and the upper bound of sub steps it
	/// takes for one call.
	StepFrequency float64 `yaml:"step_frequency"`
	MaxSubSteps   int     `yaml:"max_sub_steps"`

	/// Run the narrow phase on a bounded pool of goroutines. The result is
	/// identical to the serial path.
	ParallelNarrowPhase bool `yaml:"parallel_narrow_phase"`
	NarrowPhaseWorkers  int  `yaml:"narrow_phase_workers"`
}

func DefaultSettings() Settings {
	return Settings{
		VelocityIterations:    DefaultVelocityIterations,
		PositionIterations:    DefaultPositionIterations,
		LinearSlop:            DefaultLinearSlop,
		AngularSlop:           DefaultAngularSlop,
		Baumgarte:             DefaultBaumgarte,
		MaxLinearCorrection:   DefaultMaxLinearCorrection,
		MaxAngularCorrection:  DefaultMaxAngularCorrection,
		MaxTranslation:        DefaultMaxTranslation,
		MaxRotation:           DefaultMaxRotation,
		VelocityThreshold:     DefaultVelocityThreshold,
		AutoSleep:             true,
		TimeToSleep:           DefaultTimeToSleep,
		LinearSleepTolerance:  DefaultLinearSleepTolerance,
		AngularSleepTolerance: DefaultAngularSleepTolerance,
		AABBMargin:            DefaultAABBMargin,
		WarmStarting:          true,
		StepFrequency:         DefaultStepFrequency,
		MaxSubSteps:           DefaultMaxSubSteps,
		ParallelNarrowPhase:   false,
		NarrowPhaseWorkers:    4,
	}
}

func invalidSetting(field string, value interface{}) error {
	return errors.Wrapf(ErrInvalidSettings, "%s = %v", field, value)
}

/// Validate reports the first field that is out of range.
func (s Settings) Validate() error {
	switch {
	case s.VelocityIterations < 1:
		return invalidSetting("velocity_iterations", s.VelocityIterations)
	case s.PositionIterations < 0:
		return invalidSetting("position_iterations", s.PositionIterations)
	case s.LinearSlop < 0:
		return invalidSetting("linear_slop", s.LinearSlop)
	case s.AngularSlop < 0:
		return invalidSetting("angular_slop", s.AngularSlop)
	case s.Baumgarte <= 0 || s.Baumgarte > 1:
		return invalidSetting("baumgarte", s.Baumgarte)
	case s.MaxLinearCorrection < 0:
		return invalidSetting("max_linear_correction", s.MaxLinearCorrection)
	case s.MaxAngularCorrection < 0:
		return invalidSetting("max_angular_correction", s.MaxAngularCorrection)
	case s.MaxTranslation <= 0:
		return invalidSetting("max_translation", s.MaxTranslation)
	case s.MaxRotation <= 0:
		return invalidSetting("max_rotation", s.MaxRotation)
	case s.VelocityThreshold < 0:
		return invalidSetting("velocity_threshold", s.VelocityThreshold)
	case s.TimeToSleep < 0:
		return invalidSetting("time_to_sleep", s.TimeToSleep)
	case s.LinearSleepTolerance < 0:
		return invalidSetting("linear_sleep_tolerance", s.LinearSleepTolerance)
	case s.AngularSleepTolerance < 0:
		return invalidSetting("angular_sleep_tolerance", s.AngularSleepTolerance)
	case s.AABBMargin < 0:
		return invalidSetting("aabb_margin", s.AABBMargin)
	case s.StepFrequency <= 0:
		return invalidSetting("step_frequency", s.StepFrequency)
	case s.MaxSubSteps < 1:
		return invalidSetting("max_sub_steps", s.MaxSubSteps)
	case s.ParallelNarrowPhase && s.NarrowPhaseWorkers < 1:
		return invalidSetting("narrow_phase_workers", s.NarrowPhaseWorkers)
	}
	return nil
}

/// LoadSettings decodes a YAML document on top of DefaultSettings. Keys that
/// are absent keep their default, unknown keys are an error.
func LoadSettings(r io.Reader) (Settings, error) {
	settings := DefaultSettings()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&settings); err != nil && err != io.EOF {
		return Settings{}, errors.Wrap(err, "decoding settings")
	}

	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}

	return settings, nil
}

func LoadSettingsFile(path string) (Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return Settings{}, errors.Wrapf(err, "opening settings %s", path)
	}
	defer f.Close()

	settings, err := LoadSettings(f)
	if err != nil {
		return Settings{}, errors.Wrapf(err, "loading %s", path)
	}
	return settings, nil
}

/// Friction mixing law. The idea is to allow either fixture to drive the friction to zero.
/// For example, anything slides on ice.
func MixFriction(friction1, friction2 float64) float64 {
	return math.Sqrt(friction1 * friction2)
}

/// Restitution mixing law. The idea is allow for anything to bounce off an inelastic surface.
/// For example, a superball bounces on anything.
func MixRestitution(restitution1, restitution2 float64) float64 {
	if restitution1 > restitution2 {
		return restitution1
	}
	return restitution2
}
