package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/veandco/go-sdl2/sdl"
)

func TestDragOnlyWhileLeftHeld(t *testing.T) {
	in := New()
	in.begin()

	in.handle(&sdl.MouseMotionEvent{XRel: 5, YRel: 5})
	dx, dy := in.Drag()
	assert.Zero(t, dx)
	assert.Zero(t, dy)

	in.handle(&sdl.MouseButtonEvent{Type: sdl.MOUSEBUTTONDOWN, Button: sdl.BUTTON_LEFT})
	in.handle(&sdl.MouseMotionEvent{XRel: 3, YRel: -2})
	in.handle(&sdl.MouseMotionEvent{XRel: 1, YRel: -1})
	dx, dy = in.Drag()
	assert.Equal(t, float32(4), dx)
	assert.Equal(t, float32(-3), dy)

	px, py := in.Pan()
	assert.Zero(t, px)
	assert.Zero(t, py)

	in.handle(&sdl.MouseButtonEvent{Type: sdl.MOUSEBUTTONUP, Button: sdl.BUTTON_LEFT})
	in.begin()
	in.handle(&sdl.MouseMotionEvent{XRel: 7})
	dx, _ = in.Drag()
	assert.Zero(t, dx, "released button stops dragging and begin resets")
}

func TestPanWithRightButton(t *testing.T) {
	in := New()
	in.begin()
	in.handle(&sdl.MouseButtonEvent{Type: sdl.MOUSEBUTTONDOWN, Button: sdl.BUTTON_RIGHT})
	in.handle(&sdl.MouseMotionEvent{XRel: 2, YRel: 6})
	px, py := in.Pan()
	assert.Equal(t, float32(2), px)
	assert.Equal(t, float32(6), py)
}

func TestWheel(t *testing.T) {
	in := New()
	in.begin()
	in.handle(&sdl.MouseWheelEvent{Y: 2})
	in.handle(&sdl.MouseWheelEvent{Y: 1, Direction: sdl.MOUSEWHEEL_FLIPPED})
	assert.Equal(t, float32(1), in.Wheel())
	assert.Len(t, in.Events(), 2)
	assert.Equal(t, -1, in.Events()[1].Wheel)
}

func TestKeys(t *testing.T) {
	in := New()
	in.begin()
	in.handle(&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_W}})
	in.handle(&sdl.KeyboardEvent{Type: sdl.KEYDOWN, Repeat: 1, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_W}})

	assert.True(t, in.IsKeyPressed(sdl.SCANCODE_W))
	assert.True(t, in.IsKeyDown(sdl.SCANCODE_W))
	assert.Len(t, in.Events(), 1, "repeats are not new presses")

	in.begin()
	assert.False(t, in.IsKeyPressed(sdl.SCANCODE_W))
	assert.True(t, in.IsKeyDown(sdl.SCANCODE_W))

	in.handle(&sdl.KeyboardEvent{Type: sdl.KEYUP, Keysym: sdl.Keysym{Scancode: sdl.SCANCODE_W}})
	assert.False(t, in.IsKeyDown(sdl.SCANCODE_W))
}

func TestQuitAndResize(t *testing.T) {
	in := New()
	in.begin()
	assert.False(t, in.handle(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_RESIZED, Data1: 800, Data2: 600}))
	assert.True(t, in.handle(&sdl.QuitEvent{}))

	events := in.Events()
	assert.Equal(t, EventWindowResize, events[0].Type)
	assert.Equal(t, 800, events[0].Width)
	assert.Equal(t, EventQuit, events[1].Type)
}
