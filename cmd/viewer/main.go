// Command viewer runs the motor scene in a window.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/ByteArena/dyn2d"
	"github.com/ByteArena/dyn2d/internal/scenario"
)

const (
	screenW = 960
	screenH = 540

	// pixels per meter
	scale = 48.0
)

var (
	colorStatic  = color.RGBA{0x80, 0x80, 0x80, 0xff}
	colorAwake   = color.RGBA{0xe0, 0xc0, 0x40, 0xff}
	colorAsleep  = color.RGBA{0x50, 0x60, 0x90, 0xff}
	colorJoint   = color.RGBA{0xe0, 0x40, 0x40, 0xff}
	colorContact = color.RGBA{0x40, 0xe0, 0x60, 0xff}
	colorBounds  = color.RGBA{0x30, 0x30, 0x30, 0xff}
)

// Game steps the world once per tick.
type Game struct {
	settings dyn2d.Settings
	logger   *slog.Logger

	world   *dyn2d.World
	scene   *scenario.MotorScene
	counter *scenario.ContactCounter

	paused   bool
	contacts bool
}

func (g *Game) reset() error {
	g.counter = &scenario.ContactCounter{}
	world, scene, err := scenario.NewMotorWorld(
		dyn2d.MakeVec2(0.0, -9.8),
		dyn2d.WithSettings(g.settings),
		dyn2d.WithLogger(g.logger),
		dyn2d.WithContactListener(g.counter),
		dyn2d.WithStepListener(g.counter.StepListener()),
	)
	if err != nil {
		return err
	}
	g.world = world
	g.scene = scene
	return nil
}

func (g *Game) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape), inpututil.IsKeyJustPressed(ebiten.KeyQ):
		return ebiten.Termination
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.paused = !g.paused
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		if err := g.reset(); err != nil {
			return err
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		g.contacts = !g.contacts
	}

	if !g.paused {
		g.world.Update(1.0 / float64(ebiten.TPS()))
	}
	return nil
}

func toScreen(p dyn2d.Vec2) (float32, float32) {
	return float32(screenW/2 + p.X*scale), float32(screenH/2 - (p.Y+1.0)*scale)
}

func strokePolygon(screen *ebiten.Image, b *dyn2d.Body, vertices []dyn2d.Vec2, clr color.Color) {
	for i := range vertices {
		x0, y0 := toScreen(b.WorldPoint(vertices[i]))
		x1, y1 := toScreen(b.WorldPoint(vertices[(i+1)%len(vertices)]))
		vector.StrokeLine(screen, x0, y0, x1, y1, 1.5, clr, true)
	}
}

func bodyColor(b *dyn2d.Body) color.Color {
	switch {
	case b.IsInfinite():
		return colorStatic
	case b.IsAsleep():
		return colorAsleep
	}
	return colorAwake
}

func (g *Game) Draw(screen *ebiten.Image) {
	if bounds, ok := g.world.Bounds().(*dyn2d.AxisAlignedBounds); ok {
		aabb := bounds.AABB()
		corners := []dyn2d.Vec2{
			aabb.LowerBound,
			dyn2d.MakeVec2(aabb.UpperBound.X, aabb.LowerBound.Y),
			aabb.UpperBound,
			dyn2d.MakeVec2(aabb.LowerBound.X, aabb.UpperBound.Y),
		}
		for i := range corners {
			x0, y0 := toScreen(corners[i])
			x1, y1 := toScreen(corners[(i+1)%len(corners)])
			vector.StrokeLine(screen, x0, y0, x1, y1, 1, colorBounds, false)
		}
	}

	for _, b := range g.world.Bodies() {
		if !b.IsActive() {
			continue
		}
		clr := bodyColor(b)

		for _, f := range b.Fixtures() {
			switch shape := f.Shape().(type) {
			case *dyn2d.Circle:
				cx, cy := toScreen(b.WorldPoint(shape.Center()))
				vector.StrokeCircle(screen, cx, cy, float32(shape.Radius()*scale), 1.5, clr, true)

				// a spoke shows the rotation
				rx, ry := toScreen(b.WorldPoint(shape.Center().Add(dyn2d.MakeVec2(shape.Radius(), 0.0))))
				vector.StrokeLine(screen, cx, cy, rx, ry, 1, clr, true)
			case *dyn2d.Rectangle:
				strokePolygon(screen, b, shape.Vertices(), clr)
			case *dyn2d.Polygon:
				strokePolygon(screen, b, shape.Vertices(), clr)
			}
		}
	}

	for _, j := range g.world.Joints() {
		x, y := toScreen(j.AnchorA())
		vector.StrokeCircle(screen, x, y, 3, 1, colorJoint, true)
	}

	if g.contacts {
		for _, b := range g.world.Bodies() {
			for _, c := range g.world.Contacts(b) {
				wm := c.WorldManifold()
				for i := 0; i < c.Manifold().PointCount; i++ {
					x, y := toScreen(wm.Points[i])
					nx, ny := toScreen(wm.Points[i].Add(wm.Normal.Mul(0.25)))
					vector.StrokeLine(screen, x, y, nx, ny, 1, colorContact, true)
				}
			}
		}
	}

	invDt := float64(ebiten.TPS())
	msg := fmt.Sprintf("TPS: %.0f  step %d\ntorque %.1f / %.0f\nwheel %.2f rad/s\ncontacts +%d =%d -%d\n[space] pause [c] contacts [r] reset [q] quit",
		ebiten.ActualTPS(), g.world.StepCount(),
		g.scene.Motor.MotorTorque(invDt), scenario.MotorMaxTorque,
		g.scene.Wheel2.AngularVelocity(),
		g.counter.Begun, g.counter.Persisted, g.counter.Ended,
	)
	if g.paused {
		msg = "PAUSED\n" + msg
	}
	ebitenutil.DebugPrint(screen, msg)
}

func (g *Game) Layout(_, _ int) (int, int) {
	return screenW, screenH
}

func main() {
	settingsPath := flag.String("settings", "", "YAML file with solver settings")
	verbose := flag.Bool("v", false, "log debug records to stderr")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}

	g := &Game{
		settings: dyn2d.DefaultSettings(),
		logger:   slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	}
	if *settingsPath != "" {
		settings, err := dyn2d.LoadSettingsFile(*settingsPath)
		if err != nil {
			log.Fatal(err)
		}
		g.settings = settings
	}
	// one world step per tick
	ebiten.SetTPS(int(1.0/g.settings.StepFrequency + 0.5))

	if err := g.reset(); err != nil {
		log.Fatal(err)
	}

	ebiten.SetWindowTitle("dyn2d motor")
	ebiten.SetWindowSize(screenW, screenH)
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
