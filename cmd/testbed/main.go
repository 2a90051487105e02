// Command testbed runs the motor scene in the terminal.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/ByteArena/dyn2d"
	"github.com/ByteArena/dyn2d/internal/scenario"
)

const (
	// cells per meter; terminal cells are about twice as tall as wide
	scaleX = 4.0
	scaleY = 2.0

	panStep      = 0.5
	homeDuration = 0.6
	toneGap      = 120 * time.Millisecond
)

var home = dyn2d.MakeVec2(0.0, -2.0)

type testbed struct {
	screen tcell.Screen
	logger *slog.Logger

	settings dyn2d.Settings
	world    *dyn2d.World
	scene    *scenario.MotorScene
	counter  *scenario.ContactCounter

	paused bool

	camera         dyn2d.Vec2
	tweenX, tweenY *gween.Tween

	sound      bool
	sampleRate beep.SampleRate
	lastTone   time.Time

	lastFrame time.Time
	outside   int
}

func (tb *testbed) Outside(body *dyn2d.Body) {
	tb.outside++
}

func (tb *testbed) reset() error {
	tb.counter = &scenario.ContactCounter{}
	if tb.sound {
		tb.counter.OnBegin = func(e dyn2d.ContactEvent) { tb.playTone() }
	}

	world, scene, err := scenario.NewMotorWorld(
		dyn2d.MakeVec2(0.0, -9.8),
		dyn2d.WithSettings(tb.settings),
		dyn2d.WithLogger(tb.logger),
		dyn2d.WithContactListener(tb.counter),
		dyn2d.WithStepListener(tb.counter.StepListener()),
		dyn2d.WithBoundsListener(tb),
	)
	if err != nil {
		return err
	}

	tb.world = world
	tb.scene = scene
	tb.outside = 0
	tb.logger.Info("scene reset", "bodies", world.BodyCount(), "joints", world.JointCount())
	return nil
}

func (tb *testbed) initAudio() error {
	tb.sampleRate = beep.SampleRate(44100)
	return speaker.Init(tb.sampleRate, tb.sampleRate.N(time.Second/10))
}

func (tb *testbed) playTone() {
	if time.Since(tb.lastTone) < toneGap {
		return
	}
	tb.lastTone = time.Now()

	sine, err := generators.SineTone(tb.sampleRate, 440)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(tb.sampleRate.N(40*time.Millisecond), sine))
}

func (tb *testbed) goHome() {
	tb.tweenX = gween.New(float32(tb.camera.X), float32(home.X), homeDuration, ease.OutCubic)
	tb.tweenY = gween.New(float32(tb.camera.Y), float32(home.Y), homeDuration, ease.OutCubic)
}

func (tb *testbed) updateCamera(dt float32) {
	if tb.tweenX == nil {
		return
	}

	x, doneX := tb.tweenX.Update(dt)
	y, doneY := tb.tweenY.Update(dt)
	tb.camera = dyn2d.MakeVec2(float64(x), float64(y))

	if doneX && doneY {
		tb.tweenX, tb.tweenY = nil, nil
	}
}

// handleKey returns false when the testbed should quit.
func (tb *testbed) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyLeft:
		tb.camera.X -= panStep
	case tcell.KeyRight:
		tb.camera.X += panStep
	case tcell.KeyUp:
		tb.camera.Y += panStep
	case tcell.KeyDown:
		tb.camera.Y -= panStep
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			tb.paused = !tb.paused
		case 'r':
			if err := tb.reset(); err != nil {
				tb.logger.Error("reset failed", "err", err)
			}
		case 'h':
			tb.goHome()
		case 's':
			// single step while paused
			if tb.paused {
				tb.world.Step(tb.settings.StepFrequency)
			}
		}
	}
	return true
}

// toWorld maps the center of a cell to world coordinates.
func (tb *testbed) toWorld(x, y, width, height int) dyn2d.Vec2 {
	return dyn2d.MakeVec2(
		tb.camera.X+(float64(x-width/2)+0.5)/scaleX,
		tb.camera.Y-(float64(y-height/2)+0.5)/scaleY,
	)
}

func (tb *testbed) toScreen(p dyn2d.Vec2, width, height int) (int, int) {
	x := int((p.X-tb.camera.X)*scaleX) + width/2
	y := int(-(p.Y-tb.camera.Y)*scaleY) + height/2
	return x, y
}

func glyph(scene *scenario.MotorScene, b *dyn2d.Body) (rune, tcell.Style) {
	switch b {
	case scene.Floor:
		return '█', tcell.StyleDefault.Foreground(tcell.ColorGray)
	case scene.Chassis:
		return '▓', tcell.StyleDefault.Foreground(tcell.ColorTeal)
	}
	if b.IsAsleep() {
		return 'o', tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	}
	return 'o', tcell.StyleDefault.Foreground(tcell.ColorYellow)
}

func (tb *testbed) draw() {
	tb.screen.Clear()
	width, height := tb.screen.Size()

	for _, b := range tb.world.Bodies() {
		if !b.IsActive() {
			continue
		}

		ch, style := glyph(tb.scene, b)
		aabb := b.ComputeAABB()
		x0, y0 := tb.toScreen(dyn2d.MakeVec2(aabb.LowerBound.X, aabb.UpperBound.Y), width, height)
		x1, y1 := tb.toScreen(dyn2d.MakeVec2(aabb.UpperBound.X, aabb.LowerBound.Y), width, height)

		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				if x < 0 || y < 1 || x >= width || y >= height {
					continue
				}
				p := tb.toWorld(x, y, width, height)
				for _, f := range b.Fixtures() {
					if f.TestPoint(p) {
						tb.screen.SetContent(x, y, ch, nil, style)
						break
					}
				}
			}
		}
	}

	for _, j := range tb.world.Joints() {
		x, y := tb.toScreen(j.AnchorA(), width, height)
		if x >= 0 && y >= 1 && x < width && y < height {
			tb.screen.SetContent(x, y, '+', nil, tcell.StyleDefault.Foreground(tcell.ColorRed))
		}
	}

	invDt := 1.0 / tb.settings.StepFrequency
	hud := fmt.Sprintf("step %d  torque %6.1f/%0.f  wheel %6.2f rad/s  contacts +%d =%d -%d  out %d  %s",
		tb.world.StepCount(),
		tb.scene.Motor.MotorTorque(invDt), scenario.MotorMaxTorque,
		tb.scene.Wheel2.AngularVelocity(),
		tb.counter.Begun, tb.counter.Persisted, tb.counter.Ended,
		tb.outside,
		"[space] pause [s] step [r] reset [h] home [q] quit",
	)
	if tb.paused {
		hud = "PAUSED  " + hud
	}
	for i, r := range hud {
		if i >= width {
			break
		}
		tb.screen.SetContent(i, 0, r, nil, tcell.StyleDefault.Reverse(true))
	}

	tb.screen.Show()
}

func (tb *testbed) run() {
	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := tb.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	tb.lastFrame = time.Now()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !tb.handleKey(ev) {
					return
				}
			case *tcell.EventResize:
				tb.screen.Sync()
			}

		case now := <-ticker.C:
			elapsed := now.Sub(tb.lastFrame)
			tb.lastFrame = now

			if !tb.paused {
				tb.world.Update(elapsed.Seconds())
			}
			tb.updateCamera(float32(elapsed.Seconds()))
			tb.draw()
		}
	}
}

func main() {
	settingsPath := flag.String("settings", "", "YAML file with solver settings")
	sound := flag.Bool("sound", false, "play a tone when contacts begin")
	verbose := flag.Bool("v", false, "log debug records to stderr")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	settings := dyn2d.DefaultSettings()
	if *settingsPath != "" {
		var err error
		settings, err = dyn2d.LoadSettingsFile(*settingsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "testbed: %v\n", err)
			os.Exit(1)
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "testbed: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "testbed: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()

	tb := &testbed{
		screen:   screen,
		logger:   logger,
		settings: settings,
		camera:   home,
		sound:    *sound,
	}

	if tb.sound {
		if err := tb.initAudio(); err != nil {
			// Non-fatal, the testbed runs without sound
			logger.Warn("audio initialization failed", "err", err)
			tb.sound = false
		} else {
			defer speaker.Close()
		}
	}

	if err := tb.reset(); err != nil {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "testbed: %v\n", err)
		os.Exit(1)
	}

	tb.run()
}
