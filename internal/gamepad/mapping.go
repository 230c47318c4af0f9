// Package gamepad describes how raw joystick inputs are named.
//
// A ControllerMap assigns friendly control names to SDL button, hat and axis
// indices for one USB device. Inputs without an entry fall back to generated
// names such as "axis2" or "button11".
package gamepad

import (
	"fmt"
	"math"
	"strings"
)

// ControlKind is the SDL input class of a control.
type ControlKind string

const (
	KindButton ControlKind = "button"
	KindHat    ControlKind = "hat"
	KindAxis   ControlKind = "axis"
)

// Valid reports whether k is one of the known kinds.
func (k ControlKind) Valid() bool {
	switch k {
	case KindButton, KindHat, KindAxis:
		return true
	}
	return false
}

// MapControl names one raw input.
type MapControl struct {
	Kind  ControlKind `mapstructure:"kind" json:"kind"`
	Index int32       `mapstructure:"index" json:"index"`
	Name  string      `mapstructure:"name" json:"name"`
	// Invert flips an axis so that pushing forward reads positive.
	Invert bool `mapstructure:"invert" json:"invert,omitempty"`
}

// ControllerMap holds the control names of one device type.
type ControllerMap struct {
	Name     string       `mapstructure:"name" json:"name"`
	USBID    string       `mapstructure:"usb_id" json:"usb_id"`
	Controls []MapControl `mapstructure:"data" json:"data"`
}

// USBID formats vendor and product ids the way controller maps and profiles
// refer to devices.
func USBID(vendorID, productID uint16) string {
	return fmt.Sprintf("0x%04X:0x%04X", vendorID, productID)
}

// SameUSBID compares two ids ignoring hex digit case.
func SameUSBID(a, b string) bool {
	return strings.EqualFold(a, b)
}

// Lookup returns the entry for a raw input, or nil. A nil map has no entries.
func (m *ControllerMap) Lookup(kind ControlKind, index int32) *MapControl {
	if m == nil {
		return nil
	}
	for i := range m.Controls {
		if m.Controls[i].Kind == kind && m.Controls[i].Index == index {
			return &m.Controls[i]
		}
	}
	return nil
}

// ControlName returns the friendly name of a raw input or its generated
// fallback name.
func (m *ControllerMap) ControlName(kind ControlKind, index int32) string {
	if c := m.Lookup(kind, index); c != nil && c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("%s%d", kind, index)
}

// Inverted reports whether an axis is configured as inverted.
func (m *ControllerMap) Inverted(index int32) bool {
	c := m.Lookup(KindAxis, index)
	return c != nil && c.Invert
}

// Validate lists problems with the map's entries.
func (m *ControllerMap) Validate() []string {
	var problems []string
	if m.USBID == "" {
		problems = append(problems, "missing usb_id")
	}
	seen := make(map[string]bool)
	for _, c := range m.Controls {
		if !c.Kind.Valid() {
			problems = append(problems, fmt.Sprintf("unknown kind %q for %q", c.Kind, c.Name))
		}
		if c.Index < 0 {
			problems = append(problems, fmt.Sprintf("negative index for %q", c.Name))
		}
		key := fmt.Sprintf("%s%d", c.Kind, c.Index)
		if seen[key] {
			problems = append(problems, fmt.Sprintf("%s mapped more than once", key))
		}
		seen[key] = true
	}
	return problems
}

// NormalizeAxis converts a raw axis value (-32768..32767) to -1.0..1.0.
func NormalizeAxis(raw int16) float64 {
	v := float64(raw) / math.MaxInt16
	if v < -1.0 {
		v = -1.0
	}
	return v
}

// ApplyDeadzone returns 0 if the value is within the deadzone threshold.
func ApplyDeadzone(v float64, threshold float64) float64 {
	if math.Abs(v) < threshold {
		return 0
	}
	return v
}

// Hat directions as SDL reports them. A hat reads as the bitmask of the
// directions currently held.
const (
	HatCentered uint8 = 0x00
	HatUp       uint8 = 0x01
	HatRight    uint8 = 0x02
	HatDown     uint8 = 0x04
	HatLeft     uint8 = 0x08
)

// Built-in maps for common controllers. User maps with the same usb_id take
// precedence.

var xboxControls = []MapControl{
	{Kind: KindAxis, Index: 0, Name: "left_x"},
	{Kind: KindAxis, Index: 1, Name: "left_y", Invert: true},
	{Kind: KindAxis, Index: 2, Name: "right_x"},
	{Kind: KindAxis, Index: 3, Name: "right_y", Invert: true},
	{Kind: KindAxis, Index: 4, Name: "lt"},
	{Kind: KindAxis, Index: 5, Name: "rt"},
	{Kind: KindButton, Index: 0, Name: "a"},
	{Kind: KindButton, Index: 1, Name: "b"},
	{Kind: KindButton, Index: 2, Name: "x"},
	{Kind: KindButton, Index: 3, Name: "y"},
	{Kind: KindButton, Index: 4, Name: "lb"},
	{Kind: KindButton, Index: 5, Name: "rb"},
	{Kind: KindButton, Index: 6, Name: "select"},
	{Kind: KindButton, Index: 7, Name: "start"},
	{Kind: KindButton, Index: 8, Name: "l3"},
	{Kind: KindButton, Index: 9, Name: "r3"},
	{Kind: KindButton, Index: 10, Name: "home"},
	{Kind: KindHat, Index: 0, Name: "dpad"},
}

var playstationControls = []MapControl{
	{Kind: KindAxis, Index: 0, Name: "left_x"},
	{Kind: KindAxis, Index: 1, Name: "left_y", Invert: true},
	{Kind: KindAxis, Index: 2, Name: "right_x"},
	{Kind: KindAxis, Index: 3, Name: "right_y", Invert: true},
	{Kind: KindAxis, Index: 4, Name: "lt"},
	{Kind: KindAxis, Index: 5, Name: "rt"},
	{Kind: KindButton, Index: 0, Name: "a"},      // Cross
	{Kind: KindButton, Index: 1, Name: "b"},      // Circle
	{Kind: KindButton, Index: 2, Name: "x"},      // Square
	{Kind: KindButton, Index: 3, Name: "y"},      // Triangle
	{Kind: KindButton, Index: 4, Name: "select"}, // Share / Create
	{Kind: KindButton, Index: 5, Name: "home"},   // PS button
	{Kind: KindButton, Index: 6, Name: "start"},  // Options
	{Kind: KindButton, Index: 7, Name: "l3"},
	{Kind: KindButton, Index: 8, Name: "r3"},
	{Kind: KindButton, Index: 9, Name: "lb"},  // L1
	{Kind: KindButton, Index: 10, Name: "rb"}, // R1
	{Kind: KindHat, Index: 0, Name: "dpad"},
}

var switchProControls = []MapControl{
	{Kind: KindAxis, Index: 0, Name: "left_x"},
	{Kind: KindAxis, Index: 1, Name: "left_y", Invert: true},
	{Kind: KindAxis, Index: 2, Name: "right_x"},
	{Kind: KindAxis, Index: 3, Name: "right_y", Invert: true},
	{Kind: KindButton, Index: 0, Name: "a"},
	{Kind: KindButton, Index: 1, Name: "b"},
	{Kind: KindButton, Index: 2, Name: "x"},
	{Kind: KindButton, Index: 3, Name: "y"},
	{Kind: KindButton, Index: 4, Name: "lb"},
	{Kind: KindButton, Index: 5, Name: "rb"},
	{Kind: KindButton, Index: 6, Name: "select"},
	{Kind: KindButton, Index: 7, Name: "start"},
	{Kind: KindButton, Index: 8, Name: "l3"},
	{Kind: KindButton, Index: 9, Name: "r3"},
	{Kind: KindButton, Index: 10, Name: "home"},
	{Kind: KindHat, Index: 0, Name: "dpad"},
}

var builtinMaps = []*ControllerMap{
	// Microsoft Xbox controllers
	{Name: "Xbox 360", USBID: USBID(0x045E, 0x028E), Controls: xboxControls},
	{Name: "Xbox One", USBID: USBID(0x045E, 0x02FF), Controls: xboxControls},
	{Name: "Xbox Series X|S", USBID: USBID(0x045E, 0x0B12), Controls: xboxControls},
	{Name: "Xbox Series X|S (wireless)", USBID: USBID(0x045E, 0x0B13), Controls: xboxControls},
	// Sony PlayStation controllers
	{Name: "DualSense", USBID: USBID(0x054C, 0x0CE6), Controls: playstationControls},
	{Name: "DualShock 4 v2", USBID: USBID(0x054C, 0x09CC), Controls: playstationControls},
	{Name: "DualShock 4 v1", USBID: USBID(0x054C, 0x05C4), Controls: playstationControls},
	// Nintendo Switch Pro Controller
	{Name: "Switch Pro", USBID: USBID(0x057E, 0x2009), Controls: switchProControls},
}

// BuiltinMap returns the built-in map for a device, or nil.
func BuiltinMap(usbID string) *ControllerMap {
	for _, m := range builtinMaps {
		if SameUSBID(m.USBID, usbID) {
			return m
		}
	}
	return nil
}
