// Package input handles SDL2 input events.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType identifies a processed event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventKeyUp
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Repeat bool
	Width  int
	Height int
}

// Action is a viewer command bound to a key.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionOrbitLeft
	ActionOrbitRight
	ActionZoomIn
	ActionZoomOut
	ActionRaise
	ActionLower
	ActionToggle1
	ActionToggle2
	ActionPause
	ActionScreenshot
	ActionFullscreen
	ActionRestart
)

var actionNames = map[Action]string{
	ActionNone:       "none",
	ActionQuit:       "quit",
	ActionOrbitLeft:  "orbit-left",
	ActionOrbitRight: "orbit-right",
	ActionZoomIn:     "zoom-in",
	ActionZoomOut:    "zoom-out",
	ActionRaise:      "raise",
	ActionLower:      "lower",
	ActionToggle1:    "toggle-1",
	ActionToggle2:    "toggle-2",
	ActionPause:      "pause",
	ActionScreenshot: "screenshot",
	ActionFullscreen: "fullscreen",
	ActionRestart:    "restart",
}

func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "unknown"
}

// DefaultBindings maps keys to viewer actions: arrows orbit and zoom the eye,
// space and x move it up and down, 1 and 2 are scene toggles.
var DefaultBindings = map[sdl.Scancode]Action{
	sdl.SCANCODE_ESCAPE: ActionQuit,
	sdl.SCANCODE_Q:      ActionQuit,
	sdl.SCANCODE_LEFT:   ActionOrbitLeft,
	sdl.SCANCODE_RIGHT:  ActionOrbitRight,
	sdl.SCANCODE_UP:     ActionZoomIn,
	sdl.SCANCODE_DOWN:   ActionZoomOut,
	sdl.SCANCODE_SPACE:  ActionRaise,
	sdl.SCANCODE_X:      ActionLower,
	sdl.SCANCODE_1:      ActionToggle1,
	sdl.SCANCODE_2:      ActionToggle2,
	sdl.SCANCODE_P:      ActionPause,
	sdl.SCANCODE_F12:    ActionScreenshot,
	sdl.SCANCODE_F:      ActionFullscreen,
	sdl.SCANCODE_R:      ActionRestart,
}

// repeatable actions fire on key repeat as well as the initial press.
var repeatable = map[Action]bool{
	ActionOrbitLeft:  true,
	ActionOrbitRight: true,
	ActionZoomIn:     true,
	ActionZoomOut:    true,
	ActionRaise:      true,
	ActionLower:      true,
}

// Input handles all input processing.
type Input struct {
	events   []Event
	Bindings map[sdl.Scancode]Action
}

// New creates a new input handler with the default bindings.
func New() *Input {
	return &Input{
		events:   make([]Event, 0, 16),
		Bindings: DefaultBindings,
	}
}

// Update polls SDL events and converts them to viewer events.
// Returns true if the viewer should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
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
				i.events = append(i.events, Event{
					Type:   EventKeyDown,
					Key:    e.Keysym.Scancode,
					Repeat: e.Repeat != 0,
				})
			} else if e.Type == sdl.KEYUP {
				i.events = append(i.events, Event{
					Type: EventKeyUp,
					Key:  e.Keysym.Scancode,
				})
			}
		}
	}

	return false
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// Actions translates the last Update's events into bound actions.
func (i *Input) Actions() []Action {
	return Translate(i.events, i.Bindings)
}

// Translate maps key-down events to actions. Repeats only produce the
// camera movement actions so held toggles do not flicker.
func Translate(events []Event, bindings map[sdl.Scancode]Action) []Action {
	var out []Action
	for _, e := range events {
		if e.Type != EventKeyDown {
			continue
		}
		a, ok := bindings[e.Key]
		if !ok {
			continue
		}
		if e.Repeat && !repeatable[a] {
			continue
		}
		out = append(out, a)
	}
	return out
}
