// Package scenario builds the demo scenes shared by the commands and the
// tests.
package scenario

import (
	"math"

	"github.com/pkg/errors"

	"github.com/ByteArena/dyn2d"
)

const (
	// MotorSpeed is the target speed of the driven wheel, in rad/s.
	MotorSpeed = -2.0 * math.Pi

	// MotorMaxTorque bounds the torque of the driven wheel.
	MotorMaxTorque = 100.0

	BoundsWidth  = 16.0
	BoundsHeight = 15.0
)

// MotorScene holds the bodies and joints of the motor scene.
type MotorScene struct {
	Floor   *dyn2d.Body
	Chassis *dyn2d.Body
	Wheel1  *dyn2d.Body
	Wheel2  *dyn2d.Body

	// Joint holds the free wheel, Motor drives the other one. Both have the
	// chassis as body A and the wheel as body B.
	Joint *dyn2d.RevoluteJoint
	Motor *dyn2d.RevoluteJoint
}

// NewMotorWorld creates a world with the motor bounds and fills
// it with the motor scene.
func NewMotorWorld(gravity dyn2d.Vec2, opts ...dyn2d.WorldOption) (*dyn2d.World, *MotorScene, error) {
	bounds, err := dyn2d.NewAxisAlignedBounds(BoundsWidth, BoundsHeight)
	if err != nil {
		return nil, nil, err
	}

	world, err := dyn2d.NewWorld(gravity, append([]dyn2d.WorldOption{dyn2d.WithBounds(bounds)}, opts...)...)
	if err != nil {
		return nil, nil, err
	}

	scene, err := Motor(world)
	if err != nil {
		return nil, nil, err
	}
	return world, scene, nil
}

// Motor adds a small car to world: a chassis on two wheels resting on an
// immovable floor. The rear wheel is driven by a torque limited motor.
func Motor(world *dyn2d.World) (*MotorScene, error) {
	scene := &MotorScene{}

	// floor
	floorRect, err := dyn2d.NewRectangle(15.0, 1.0)
	if err != nil {
		return nil, err
	}
	scene.Floor = dyn2d.NewBody()
	scene.Floor.SetName("floor")
	if _, err := scene.Floor.AddFixture(floorRect); err != nil {
		return nil, err
	}
	scene.Floor.SetMassFromShapes(dyn2d.MassInfinite)
	scene.Floor.Translate(dyn2d.MakeVec2(0.0, -4.0))

	// chassis
	frameRect, err := dyn2d.NewRectangle(3.0, 0.175)
	if err != nil {
		return nil, err
	}
	bodyRect, err := dyn2d.NewRectangle(3.2, 0.5)
	if err != nil {
		return nil, err
	}
	bodyRect.Translate(dyn2d.MakeVec2(0.0, 0.0875+0.25))

	cabinPoly, err := dyn2d.NewPolygon(
		dyn2d.MakeVec2(1.25, 0.0),
		dyn2d.MakeVec2(0.25, 0.35),
		dyn2d.MakeVec2(-0.5, 0.35),
		dyn2d.MakeVec2(-0.75, 0.0),
	)
	if err != nil {
		return nil, err
	}
	cabinPoly.Translate(dyn2d.MakeVec2(-0.25, 0.0875+0.5))

	scene.Chassis = dyn2d.NewBody()
	scene.Chassis.SetName("chassis")
	for _, shape := range []dyn2d.Shape{frameRect, bodyRect, cabinPoly} {
		if _, err := scene.Chassis.AddFixture(shape); err != nil {
			return nil, err
		}
	}
	scene.Chassis.SetMassFromShapes(dyn2d.MassNormal)
	scene.Chassis.Translate(dyn2d.MakeVec2(-3.0, -3.1))

	// wheels
	circle, err := dyn2d.NewCircle(0.35)
	if err != nil {
		return nil, err
	}

	fc1 := dyn2d.NewFixture(circle.Clone())
	if err := fc1.SetDensity(2.0); err != nil {
		return nil, err
	}

	fc2 := dyn2d.NewFixture(circle.Clone())
	if err := fc2.SetDensity(1.0); err != nil {
		return nil, err
	}
	if err := fc2.SetFriction(0.1); err != nil {
		return nil, err
	}

	scene.Wheel1 = dyn2d.NewBody()
	scene.Wheel1.SetName("wheel1")
	if err := scene.Wheel1.AttachFixture(fc1); err != nil {
		return nil, err
	}
	scene.Wheel1.SetMassFromShapes(dyn2d.MassNormal)
	scene.Wheel1.Translate(dyn2d.MakeVec2(-4.0, -3.1))

	scene.Wheel2 = dyn2d.NewBody()
	scene.Wheel2.SetName("wheel2")
	if err := scene.Wheel2.AttachFixture(fc2); err != nil {
		return nil, err
	}
	scene.Wheel2.SetMassFromShapes(dyn2d.MassNormal)
	scene.Wheel2.Translate(dyn2d.MakeVec2(-2.0, -3.1))

	for _, b := range []*dyn2d.Body{scene.Floor, scene.Chassis, scene.Wheel1, scene.Wheel2} {
		if err := world.AddBody(b); err != nil {
			return nil, errors.Wrapf(err, "add %s", b.Name())
		}
	}

	// pin the wheels to the chassis at their centers
	scene.Joint, err = dyn2d.NewRevoluteJoint(scene.Chassis, scene.Wheel1, scene.Wheel1.WorldCenter())
	if err != nil {
		return nil, err
	}
	if err := world.AddJoint(scene.Joint); err != nil {
		return nil, err
	}

	scene.Motor, err = dyn2d.NewRevoluteJoint(scene.Chassis, scene.Wheel2, scene.Wheel2.WorldCenter())
	if err != nil {
		return nil, err
	}
	scene.Motor.EnableMotor(true)
	scene.Motor.SetMotorSpeed(MotorSpeed)
	if err := scene.Motor.SetMaxMotorTorque(MotorMaxTorque); err != nil {
		return nil, err
	}
	if err := world.AddJoint(scene.Motor); err != nil {
		return nil, err
	}

	return scene, nil
}
