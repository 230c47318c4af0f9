package profile

import (
	"math"
	"strconv"
)

// Action is either a KeysAction or a DirectAction.
type Action interface {
	// CompareKey identifies the action for toggle state comparisons.
	CompareKey() string
	action()
}

// KeysAction presses a key combination. PressTime and WaitTime are seconds;
// without PressTime the keys stay down until released.
type KeysAction struct {
	Keys      string
	PressTime *float64
	WaitTime  *float64
}

// DirectAction sets a direct control of the target to an absolute value.
type DirectAction struct {
	Target string
	Value  float64
}

func (a KeysAction) CompareKey() string {
	return a.Keys
}

func (a DirectAction) CompareKey() string {
	return a.Target + ":" + FormatValue(a.Value)
}

func (KeysAction) action()   {}
func (DirectAction) action() {}

// SameAction reports whether two actions compare equal. Nil only equals nil.
func SameAction(a, b Action) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.CompareKey() == b.CompareKey()
}

// FormatValue renders a control value the way it appears in compare keys and
// on the direct-control wire.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RoundTo rounds v to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
