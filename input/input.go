// Package input turns platform key events into engine key events and queues
// them for systems.
package input

//go:generate go tool stringer -type=KeyCode,ElementState,Action -trimprefix=Key -output=enums_string.go

// KeyCode is a logical key. Only the movement keys are recognized; everything
// else is KeyUnknown.
type KeyCode int

const (
	KeyUnknown KeyCode = iota
	KeyW
	KeyA
	KeyS
	KeyD
)

// ElementState is whether a key went down or up.
type ElementState int

const (
	Pressed ElementState = iota
	Released
)

// Action is the platform's view of a key transition.
type Action int

const (
	ActionPress Action = iota
	ActionRelease
	ActionRepeat
)

// RawKeyEvent is a key event as the platform reports it. Key is the
// platform's virtual key and is meaningful only when HasKey is set.
type RawKeyEvent struct {
	ScanCode int
	Key      int
	HasKey   bool
	Action   Action
}

// KeyboardEvent is the engine-neutral key event systems consume.
type KeyboardEvent struct {
	ScanCode int
	Key      KeyCode
	State    ElementState
}

// Keymap maps platform virtual keys to logical keys.
type Keymap map[int]KeyCode

// Translate converts a raw event. It never fails: unmapped or missing keys
// become KeyUnknown, and repeats count as presses.
func (m Keymap) Translate(raw RawKeyEvent) KeyboardEvent {
	ev := KeyboardEvent{ScanCode: raw.ScanCode, Key: KeyUnknown, State: Pressed}
	if raw.HasKey {
		if code, ok := m[raw.Key]; ok {
			ev.Key = code
		}
	}
	if raw.Action == ActionRelease {
		ev.State = Released
	}
	return ev
}
