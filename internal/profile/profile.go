// Package profile holds the controller profile model: which assignments are
// bound to which named controls, and the actions those assignments trigger.
//
// Profiles are read-only once loaded. Everything in this package is pure; the
// stateful evaluation lives in the resolver package.
package profile

// Profile maps named controls onto assignments.
type Profile struct {
	Name string
	// ControllerID restricts the profile to one controller ("0xVVVV:0xPPPP").
	// Empty matches any controller.
	ControllerID string
	Controls     []Control
}

// Control binds one or more assignments to a control name. Assignments are
// evaluated independently and in order for the same event.
type Control struct {
	Name        string
	Assignments []Assignment
}

// FindControl returns the control definition for name, or nil.
func (p *Profile) FindControl(name string) *Control {
	for i := range p.Controls {
		if p.Controls[i].Name == name {
			return &p.Controls[i]
		}
	}
	return nil
}

// MatchesController reports whether the profile applies to the controller id.
func (p *Profile) MatchesController(id string) bool {
	return p.ControllerID == "" || id == "" || p.ControllerID == id
}

// Kind names an assignment variant.
type Kind string

const (
	KindMomentary     Kind = "momentary"
	KindLinear        Kind = "linear"
	KindToggle        Kind = "toggle"
	KindDirectControl Kind = "direct_control"
)

// Assignment is one of Momentary, Linear, Toggle or DirectControl.
type Assignment interface {
	Kind() Kind
	assignment()
}

// Momentary fires Activate when the control crosses Threshold upwards and
// Deactivate (or a release of Activate) when it falls back below.
type Momentary struct {
	Threshold  float64
	Activate   Action
	Deactivate Action
}

// Toggle flips between Activate and Deactivate on every fresh crossing of
// Threshold.
type Toggle struct {
	Threshold  float64
	Activate   Action
	Deactivate Action
}

// Linear fires one action per threshold crossed, in both directions.
type Linear struct {
	// Neutral rescales the control around a resting point before comparison.
	// Nil or non-positive disables it.
	Neutral    *float64
	Thresholds []Threshold

	sides *linearSides
}

type linearSides struct {
	negative, positive []Threshold
}

// DirectControl streams the normalized control value to Target.
type DirectControl struct {
	Target string
	Input  InputValue
}

func (Momentary) Kind() Kind     { return KindMomentary }
func (Toggle) Kind() Kind        { return KindToggle }
func (Linear) Kind() Kind        { return KindLinear }
func (DirectControl) Kind() Kind { return KindDirectControl }

func (Momentary) assignment()     {}
func (Toggle) assignment()        {}
func (Linear) assignment()        {}
func (DirectControl) assignment() {}

// Neutralize rescales v relative to the neutral point.
func (l Linear) Neutralize(v float64) float64 {
	if l.Neutral != nil && *l.Neutral > 0 {
		return (v - *l.Neutral) / *l.Neutral
	}
	return v
}

// Prepared returns a copy of l with its thresholds expanded and split once,
// so evaluating it does not repeat the work for every reading.
func (l Linear) Prepared() Linear {
	negative, positive := Split(Expand(l.Thresholds))
	l.sides = &linearSides{negative: negative, positive: positive}
	return l
}

// Sides returns the expanded thresholds divided as by Split.
func (l Linear) Sides() (negative, positive []Threshold) {
	if l.sides != nil {
		return l.sides.negative, l.sides.positive
	}
	return Split(Expand(l.Thresholds))
}

// Threshold is a single point of a Linear assignment or, when both ValueEnd
// and ValueStep are set, a ramp that Expand turns into evenly spaced points.
type Threshold struct {
	Value      float64
	ValueEnd   *float64
	ValueStep  *float64
	Activate   Action
	Deactivate Action
}

// IsRamp reports whether the threshold still needs expanding.
func (t Threshold) IsRamp() bool {
	return t.ValueEnd != nil && t.ValueStep != nil
}

// IsExceeding compares by magnitude: negative thresholds are exceeded below
// their value, the others at or above it.
func (t Threshold) IsExceeding(v float64) bool {
	if t.Value < 0 {
		return v < t.Value
	}
	return v >= t.Value
}

// IsPassedAt reports whether a control resting at v is already strictly past
// the threshold.
func (t Threshold) IsPassedAt(v float64) bool {
	if t.Value < 0 {
		return v < t.Value
	}
	return v > t.Value
}
