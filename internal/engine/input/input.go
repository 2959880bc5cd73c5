// Package input handles SDL2 input events.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType classifies processed events.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
	EventMouseMove
	EventMouseDown
	EventMouseUp
	EventMouseWheel
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
	MouseX int
	MouseY int
	DeltaX int
	DeltaY int
	Wheel  int
	Button uint8
}

// Input collects one frame of events plus the derived orbit controls:
// left-button drag, right-button pan and wheel zoom.
type Input struct {
	events []Event
	keys   map[sdl.Scancode]bool

	leftHeld, rightHeld bool

	dragX, dragY float32
	panX, panY   float32
	wheel        float32
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
		keys:   make(map[sdl.Scancode]bool),
	}
}

// Update polls SDL events and converts them to viewer events.
// Returns true if the viewer should quit.
func (i *Input) Update() bool {
	i.begin()
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if i.handle(event) {
			return true
		}
	}
	return false
}

func (i *Input) begin() {
	i.events = i.events[:0]
	i.dragX, i.dragY = 0, 0
	i.panX, i.panY = 0, 0
	i.wheel = 0
}

// handle records one SDL event and reports whether it requests quitting.
func (i *Input) handle(event sdl.Event) bool {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		i.events = append(i.events, Event{Type: EventQuit})
		return true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
			i.events = append(i.events, Event{
				Type:   EventWindowResize,
				Width:  int(e.Data1),
				Height: int(e.Data2),
			})
		}

	case *sdl.KeyboardEvent:
		if e.Type == sdl.KEYDOWN {
			i.keys[e.Keysym.Scancode] = true
			if e.Repeat == 0 {
				i.events = append(i.events, Event{Type: EventKeyDown, Key: e.Keysym.Scancode})
			}
		} else if e.Type == sdl.KEYUP {
			i.keys[e.Keysym.Scancode] = false
			i.events = append(i.events, Event{Type: EventKeyUp, Key: e.Keysym.Scancode})
		}

	case *sdl.MouseMotionEvent:
		if i.leftHeld {
			i.dragX += float32(e.XRel)
			i.dragY += float32(e.YRel)
		}
		if i.rightHeld {
			i.panX += float32(e.XRel)
			i.panY += float32(e.YRel)
		}
		i.events = append(i.events, Event{
			Type:   EventMouseMove,
			MouseX: int(e.X),
			MouseY: int(e.Y),
			DeltaX: int(e.XRel),
			DeltaY: int(e.YRel),
		})

	case *sdl.MouseButtonEvent:
		pressed := e.Type == sdl.MOUSEBUTTONDOWN
		switch e.Button {
		case sdl.BUTTON_LEFT:
			i.leftHeld = pressed
		case sdl.BUTTON_RIGHT:
			i.rightHeld = pressed
		}
		typ := EventMouseUp
		if pressed {
			typ = EventMouseDown
		}
		i.events = append(i.events, Event{
			Type:   typ,
			MouseX: int(e.X),
			MouseY: int(e.Y),
			Button: e.Button,
		})

	case *sdl.MouseWheelEvent:
		y := e.Y
		if e.Direction == sdl.MOUSEWHEEL_FLIPPED {
			y = -y
		}
		i.wheel += float32(y)
		i.events = append(i.events, Event{Type: EventMouseWheel, Wheel: int(y)})
	}
	return false
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// IsKeyPressed checks if a specific key was pressed this frame.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}

// IsKeyDown reports whether a key is currently held.
func (i *Input) IsKeyDown(scancode sdl.Scancode) bool {
	return i.keys[scancode]
}

// Drag returns the mouse movement with the left button held this frame.
func (i *Input) Drag() (dx, dy float32) { return i.dragX, i.dragY }

// Pan returns the mouse movement with the right button held this frame.
func (i *Input) Pan() (dx, dy float32) { return i.panX, i.panY }

// Wheel returns the scroll amount this frame, positive away from the user.
func (i *Input) Wheel() float32 { return i.wheel }
