// Package control carries control readings from the device layer to the
// resolver.
package control

import (
	"math"
	"sync"
)

// ControlState is the reading of a single control.
type ControlState struct {
	Value float64 `json:"value"`
	// InitialValue is the first value seen for the control, i.e. its resting
	// position when the controller was attached.
	InitialValue float64 `json:"initialValue"`
}

// ChangeEvent is emitted for every observed control reading.
type ChangeEvent struct {
	JoystickID  string       `json:"joystickId"`
	ControlName string       `json:"controlName"`
	State       ControlState `json:"state"`
	HasChanged  bool         `json:"hasChanged"`
}

// analogThreshold is the smallest difference treated as a real change.
const analogThreshold = 0.001

func floatEqual(a, b float64) bool {
	return math.Abs(a-b) < analogThreshold
}

type trackerKey struct {
	joystick string
	control  string
}

type trackedState struct {
	initial float64
	last    float64
}

// Tracker turns raw readings into ChangeEvents, remembering the initial and
// last value of each control per joystick.
type Tracker struct {
	mu     sync.Mutex
	states map[trackerKey]*trackedState
}

func NewTracker() *Tracker {
	return &Tracker{
		states: make(map[trackerKey]*trackedState),
	}
}

// Observe records value for the control and returns the resulting event. The
// first reading only seeds the control's resting position and is reported as
// unchanged: nothing may fire for a control nobody has moved.
func (t *Tracker) Observe(joystickID, controlName string, value float64) ChangeEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := trackerKey{joystick: joystickID, control: controlName}
	st, ok := t.states[key]
	if !ok {
		st = &trackedState{initial: value, last: value}
		t.states[key] = st
		return ChangeEvent{
			JoystickID:  joystickID,
			ControlName: controlName,
			State:       ControlState{Value: value, InitialValue: value},
		}
	}

	changed := !floatEqual(st.last, value)
	if changed {
		st.last = value
	}
	return ChangeEvent{
		JoystickID:  joystickID,
		ControlName: controlName,
		State:       ControlState{Value: value, InitialValue: st.initial},
		HasChanged:  changed,
	}
}

// Forget drops everything known about a joystick, e.g. after it was unplugged.
func (t *Tracker) Forget(joystickID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key := range t.states {
		if key.joystick == joystickID {
			delete(t.states, key)
		}
	}
}

// Snapshot returns the last value of every control of a joystick.
func (t *Tracker) Snapshot(joystickID string) map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]float64)
	for key, st := range t.states {
		if key.joystick == joystickID {
			out[key.control] = st.last
		}
	}
	return out
}
