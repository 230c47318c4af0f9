package hub

import (
	"time"

	"github.com/soar/controlmapper/internal/profile"
	"github.com/soar/controlmapper/internal/resolver"
)

// WSMessage represents a WebSocket message sent from server to monitor clients.
type WSMessage struct {
	Type      string    `json:"type"`              // Message type: "state", "call", "profile", "error"
	Seq       int64     `json:"seq"`               // Sequence number for ordering
	Timestamp int64     `json:"timestamp"`         // Unix timestamp in milliseconds
	Profile   *string   `json:"profile,omitempty"` // Active profile for "state" and "profile"
	Call      *CallView `json:"call,omitempty"`    // Fired call for "call"
	Error     string    `json:"error,omitempty"`
}

// CallView is the JSON form of a fired resolver call.
type CallView struct {
	Control    string  `json:"control"`
	Joystick   string  `json:"joystick,omitempty"`
	Value      float64 `json:"value"`
	Assignment string  `json:"assignment"`
	Action     string  `json:"action"`
	Kind       string  `json:"kind"`
	Release    bool    `json:"release"`
}

// NewCallView converts a resolver call.
func NewCallView(c resolver.Call) *CallView {
	v := &CallView{
		Control:  c.ControlName,
		Joystick: c.JoystickID,
		Value:    c.State.Value,
		Release:  c.Release,
	}
	if c.Assignment != nil {
		v.Assignment = string(c.Assignment.Kind())
	}
	if c.Action != nil {
		v.Action = c.Action.CompareKey()
	}
	switch c.Action.(type) {
	case profile.KeysAction:
		v.Kind = "keys"
	case profile.DirectAction:
		v.Kind = "direct_control"
	}
	return v
}

// NewStateMessage creates a "state" message carrying the active profile.
func NewStateMessage(seq int64, activeProfile string) *WSMessage {
	return &WSMessage{
		Type:      "state",
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Profile:   &activeProfile,
	}
}

// NewCallMessage creates a "call" message for a fired action.
func NewCallMessage(seq int64, c resolver.Call) *WSMessage {
	return &WSMessage{
		Type:      "call",
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Call:      NewCallView(c),
	}
}

// NewProfileMessage creates a "profile" message after a profile switch.
func NewProfileMessage(seq int64, name string) *WSMessage {
	return &WSMessage{
		Type:      "profile",
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Profile:   &name,
	}
}

// NewErrorMessage creates an "error" reply to a single client.
func NewErrorMessage(msg string) *WSMessage {
	return &WSMessage{
		Type:      "error",
		Timestamp: time.Now().UnixMilli(),
		Error:     msg,
	}
}

// ClientMessage represents a message sent from the client to the server.
type ClientMessage struct {
	Type    string `json:"type"`
	Profile string `json:"profile,omitempty"`
}
