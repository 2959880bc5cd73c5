package viewer

import (
	"context"
	"fmt"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-mdx/internal/config"
	"github.com/Faultbox/midgard-mdx/internal/engine/gpu/glgpu"
	"github.com/Faultbox/midgard-mdx/internal/engine/input"
	"github.com/Faultbox/midgard-mdx/internal/engine/model"
	"github.com/Faultbox/midgard-mdx/internal/engine/screenshot"
	"github.com/Faultbox/midgard-mdx/internal/engine/window"
	"github.com/Faultbox/midgard-mdx/internal/logger"
)

// App is the interactive viewer: a window, a GL device and a scene.
type App struct {
	window *window.Window
	device *glgpu.Device
	input  *input.Input
	scene  *Viewer
	shots  *screenshot.Capture

	selected     *Instance
	downX, downY int
	capture      bool

	running bool
	log     *zap.Logger
}

// clickSlop is how far the mouse may move between press and release and
// still count as a click rather than a drag.
const clickSlop = 4

// NewApp opens the window and loads the scene. parsers supplies the model
// file parsers; models without a registered parser are skipped.
func NewApp(ctx context.Context, cfg *config.Config, parsers *model.Registry) (*App, error) {
	a := &App{log: logger.Named("viewer")}

	var err error
	a.window, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The device needs the GL context the window just made current.
	a.device, err = glgpu.New()
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create device: %w", err)
	}
	a.device.Viewport(a.window.DrawableSize())

	a.scene, err = New(ctx, cfg, a.device, parsers)
	if err != nil {
		a.device.Close()
		a.window.Close()
		return nil, err
	}

	a.input = input.New()
	a.shots = screenshot.New(cfg.Data.ScreenshotDir, "mdx")
	return a, nil
}

// Run drives the frame loop until the window closes, Escape is pressed or ctx
// is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	a.log.Info("starting frame loop")

	for a.alive(ctx) {
		now := time.Now()
		dt := now.Sub(lastTime)
		lastTime = now

		if a.input.Update() {
			break
		}
		a.handleInput()

		a.scene.Update(float32(dt.Seconds() * 1000))

		a.device.Clear()
		stats := a.scene.Render(a.window.Aspect())
		if a.capture {
			a.screenshot()
			a.capture = false
		}
		a.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			a.log.Debug("fps",
				zap.Int("count", frameCount),
				zap.Int("meshes", stats.Meshes),
				zap.Int("instances", stats.Instances),
				zap.Int("transparent", stats.Transparent))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
	return nil
}

// alive reports whether the frame loop should run another frame.
func (a *App) alive(ctx context.Context) bool {
	if !a.running {
		return false
	}
	if err := ctx.Err(); err != nil {
		a.log.Info("interrupted, closing viewer", zap.Error(err))
		a.running = false
		return false
	}
	return true
}

func (a *App) handleInput() {
	for _, e := range a.input.Events() {
		switch e.Type {
		case input.EventWindowResize:
			a.device.Viewport(a.window.DrawableSize())
		case input.EventKeyDown:
			switch e.Key {
			case sdl.SCANCODE_ESCAPE:
				a.running = false
			case sdl.SCANCODE_SPACE:
				a.scene.TogglePause()
			case sdl.SCANCODE_F:
				a.scene.FitCamera()
			case sdl.SCANCODE_H:
				a.toggleSelected()
			case sdl.SCANCODE_F12:
				a.capture = true
			}
		case input.EventMouseDown:
			if e.Button == sdl.BUTTON_LEFT {
				a.downX, a.downY = e.MouseX, e.MouseY
			}
		case input.EventMouseUp:
			if e.Button == sdl.BUTTON_LEFT && abs(e.MouseX-a.downX) <= clickSlop && abs(e.MouseY-a.downY) <= clickSlop {
				a.selectAt(e.MouseX, e.MouseY)
			}
		}
	}

	cam := a.scene.Camera()
	if dx, dy := a.input.Drag(); dx != 0 || dy != 0 {
		cam.HandleDrag(dx, dy)
	}
	if dx, dy := a.input.Pan(); dx != 0 || dy != 0 {
		cam.HandleMovement(dy*0.2, -dx*0.2, 0)
	}
	if w := a.input.Wheel(); w != 0 {
		cam.HandleZoom(w)
	}

	var forward, right, up float32
	keys := []struct {
		code sdl.Scancode
		axis *float32
		sign float32
	}{
		{sdl.SCANCODE_W, &forward, 1}, {sdl.SCANCODE_S, &forward, -1},
		{sdl.SCANCODE_D, &right, 1}, {sdl.SCANCODE_A, &right, -1},
		{sdl.SCANCODE_E, &up, 1}, {sdl.SCANCODE_Q, &up, -1},
	}
	for _, k := range keys {
		if a.input.IsKeyDown(k.code) {
			*k.axis += k.sign
		}
	}
	if forward != 0 || right != 0 || up != 0 {
		cam.HandleMovement(forward, right, up)
	}
}

func (a *App) selectAt(x, y int) {
	w, h := a.window.Size()
	in, ok := a.scene.Pick(float32(x), float32(y), float32(w), float32(h))
	if !ok {
		a.selected = nil
		return
	}
	a.selected = in
	pos := in.Base.Col(3)
	a.log.Info("selected",
		zap.String("mesh", in.Mesh.Name),
		zap.Float32("x", pos.X()),
		zap.Float32("y", pos.Y()),
		zap.Float32("frame", in.Frame()))
}

// toggleSelected hides the selection, or shows every hidden instance again
// when nothing is selected.
func (a *App) toggleSelected() {
	if a.selected != nil {
		a.selected.Hidden = true
		a.selected = nil
		return
	}
	for _, in := range a.scene.Instances() {
		in.Hidden = false
	}
}

func (a *App) screenshot() {
	w, h := a.window.DrawableSize()
	path, err := a.shots.SavePixels(a.device.ReadPixels(w, h), w, h)
	if err != nil {
		a.log.Error("screenshot failed", zap.Error(err))
		return
	}
	a.log.Info("screenshot saved", zap.String("path", path))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Close releases the scene, the device and the window.
func (a *App) Close() {
	a.log.Info("closing viewer")
	if a.scene != nil {
		a.scene.Close()
	}
	if a.device != nil {
		a.device.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}
