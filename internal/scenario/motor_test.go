package scenario_test

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/ByteArena/dyn2d"
	"github.com/ByteArena/dyn2d/internal/scenario"
)

var update = flag.Bool("update", false, "rewrite the golden motor scene")

const (
	timeStep = 1.0 / 60.0
	steps    = 180
)

var gravity = dyn2d.MakeVec2(0.0, -9.8)

func newMotorWorld(t *testing.T, opts ...dyn2d.WorldOption) (*dyn2d.World, *scenario.MotorScene) {
	t.Helper()
	world, scene, err := scenario.NewMotorWorld(gravity, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return world, scene
}

func TestMotor(t *testing.T) {
	world, scene := newMotorWorld(t)

	if world.BodyCount() != 4 || world.JointCount() != 2 {
		t.Fatalf("%d bodies, %d joints", world.BodyCount(), world.JointCount())
	}
	if !scene.Floor.IsInfinite() {
		t.Fatal("floor is not infinite")
	}

	for i := 0; i < steps; i++ {
		world.Step(timeStep)

		if torque := scene.Motor.MotorTorque(1.0 / timeStep); math.Abs(torque) > scenario.MotorMaxTorque+1e-6 {
			t.Fatalf("step %d: motor torque %v exceeds %v", i, torque, scenario.MotorMaxTorque)
		}

		for _, j := range []*dyn2d.RevoluteJoint{scene.Joint, scene.Motor} {
			if d := j.AnchorA().Distance(j.AnchorB()); d > 0.01 {
				t.Fatalf("step %d: %s came off the chassis by %v", i, j.BodyB().Name(), d)
			}
		}
	}

	if speed := scene.Motor.JointSpeed(); math.Abs(speed-scenario.MotorSpeed) > 0.1 {
		t.Fatalf("motor joint speed %v, want %v", speed, scenario.MotorSpeed)
	}
	if w := scene.Wheel2.AngularVelocity(); math.Abs(w-scenario.MotorSpeed) > 0.5 {
		t.Fatalf("driven wheel angular velocity %v, want about %v", w, scenario.MotorSpeed)
	}

	// the car drives to the right
	if scene.Chassis.WorldCenter().X <= -3.0 {
		t.Fatalf("chassis stayed at %v", scene.Chassis.WorldCenter())
	}
	if scene.Wheel1.IsAsleep() || scene.Wheel2.IsAsleep() {
		t.Fatal("a driven car fell asleep")
	}
}

func TestMotorContacts(t *testing.T) {
	counter := &scenario.ContactCounter{}
	var begun []string
	counter.OnBegin = func(e dyn2d.ContactEvent) {
		begun = append(begun, e.BodyA.Name()+"/"+e.BodyB.Name())
	}

	world, _ := newMotorWorld(t,
		dyn2d.WithContactListener(counter),
		dyn2d.WithStepListener(counter.StepListener()),
	)

	persisted := 0
	for i := 0; i < 60; i++ {
		world.Step(timeStep)
		persisted += counter.Persisted
	}

	// only the wheels touch the floor, the chassis is jointed to them
	if len(begun) < 2 {
		t.Fatalf("contacts begun: %v", begun)
	}
	for _, pair := range begun {
		if !strings.Contains(pair, "floor") || !strings.Contains(pair, "wheel") {
			t.Fatalf("unexpected contact %s", pair)
		}
	}
	if persisted == 0 || counter.Persisted == 0 {
		t.Fatal("wheels do not stay on the floor")
	}
}

// trace steps a fresh motor world and prints one line per body and step.
func trace(t *testing.T, settings dyn2d.Settings) string {
	t.Helper()
	world, scene := newMotorWorld(t, dyn2d.WithSettings(settings))
	bodies := []*dyn2d.Body{scene.Floor, scene.Chassis, scene.Wheel1, scene.Wheel2}

	var sb strings.Builder
	for i := 0; i < steps; i++ {
		world.Step(timeStep)
		for _, b := range bodies {
			p := b.Position()
			fmt.Fprintf(&sb, "%v(%s): %4.4f %4.4f %4.4f\n", i, b.Name(), p.X, p.Y, b.Angle())
		}
	}
	return sb.String()
}

func diff(expected, current string) string {
	text, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(current),
		FromFile: "Expected",
		ToFile:   "Current",
		Context:  0,
	})
	return text
}

func TestMotorIsDeterministic(t *testing.T) {
	serial := dyn2d.DefaultSettings()
	parallel := dyn2d.DefaultSettings()
	parallel.ParallelNarrowPhase = true
	parallel.NarrowPhaseWorkers = 4

	expected := trace(t, serial)
	if again := trace(t, serial); again != expected {
		t.Fatalf("second run differs:\n%s", diff(expected, again))
	}
	if current := trace(t, parallel); current != expected {
		t.Fatalf("parallel narrow phase differs:\n%s", diff(expected, current))
	}
}

// layout prints the assembled scene, one line per body and joint.
func layout(scene *scenario.MotorScene) string {
	var sb strings.Builder
	for _, b := range []*dyn2d.Body{scene.Floor, scene.Chassis, scene.Wheel1, scene.Wheel2} {
		p, c, m := b.Position(), b.WorldCenter(), b.Mass()
		fmt.Fprintf(&sb, "%s %v position (%.5f, %.5f) angle %.5f center (%.5f, %.5f) mass %.5f inertia %.5f\n",
			b.Name(), m.Type, p.X, p.Y, b.Angle(), c.X, c.Y, m.Mass, m.Inertia)
	}
	for _, j := range []*dyn2d.RevoluteJoint{scene.Joint, scene.Motor} {
		a := j.AnchorA()
		fmt.Fprintf(&sb, "%s/%s anchor (%.5f, %.5f) motor %v speed %.5f max torque %.5f\n",
			j.BodyA().Name(), j.BodyB().Name(), a.X, a.Y, j.IsMotorEnabled(), j.MotorSpeed(), j.MaxMotorTorque())
	}
	return sb.String()
}

func TestMotorSceneGolden(t *testing.T) {
	golden := filepath.Join("testdata", "motor_scene.golden")
	_, scene := newMotorWorld(t)
	current := layout(scene)

	if *update {
		if err := os.WriteFile(golden, []byte(current), 0o644); err != nil {
			t.Fatal(err)
		}
		return
	}

	expected, err := os.ReadFile(golden)
	if err != nil {
		t.Fatal(err)
	}
	if current != string(expected) {
		t.Fatalf("motor scene changed:\n%s", diff(string(expected), current))
	}
}
