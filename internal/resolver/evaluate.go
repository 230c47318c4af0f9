package resolver

import (
	"github.com/soar/controlmapper/internal/control"
	"github.com/soar/controlmapper/internal/logging"
	"github.com/soar/controlmapper/internal/profile"
)

// evaluation is the working state of one Run call.
type evaluation struct {
	resolver   *Resolver
	event      control.ChangeEvent
	prev       *Call
	assignment profile.Assignment
	fired      []Call
}

func (e *evaluation) fire(action profile.Action, release bool) {
	if action == nil {
		return
	}
	c := Call{
		ControlName: e.event.ControlName,
		JoystickID:  e.event.JoystickID,
		State:       e.event.State,
		Assignment:  e.assignment,
		Action:      action,
		Release:     release,
	}
	logging.Debugf("control %s=%s: %s %s", c.ControlName, profile.FormatValue(c.State.Value), verb(release), action.CompareKey())
	e.resolver.record(c)
	e.fired = append(e.fired, c)
}

func verb(release bool) string {
	if release {
		return "release"
	}
	return "fire"
}

// wasAtOrAbove reports whether the previous call happened at or above t.
func (e *evaluation) wasAtOrAbove(t float64) bool {
	return e.prev != nil && e.prev.State.Value >= t
}

// momentary fires on upward crossings and undoes on downward ones.
func (e *evaluation) momentary(a profile.Momentary) {
	cur := e.event.State.Value
	switch {
	case cur >= a.Threshold:
		if !e.wasAtOrAbove(a.Threshold) {
			e.fire(a.Activate, false)
		}
	case e.wasAtOrAbove(a.Threshold):
		if a.Deactivate != nil {
			e.fire(a.Deactivate, false)
		} else {
			e.fire(a.Activate, true)
		}
	}
}

// toggle alternates between the activate and deactivate action on each fresh
// crossing, and releases whatever it fired when the control drops back.
func (e *evaluation) toggle(a profile.Toggle) {
	cur := e.event.State.Value
	switch {
	case cur >= a.Threshold:
		if e.wasAtOrAbove(a.Threshold) {
			return
		}
		action := a.Activate
		if e.prev != nil && profile.SameAction(e.prev.Action, a.Activate) {
			action = a.Deactivate
		}
		e.fire(action, false)
	case e.wasAtOrAbove(a.Threshold):
		e.fire(e.prev.Action, true)
	}
}

// linear fires every threshold between the previously reached one and the
// current one: activations outwards in ascending order, deactivations inwards
// in descending order.
func (e *evaluation) linear(a profile.Linear) {
	value := a.Neutralize(e.event.State.Value)

	negative, positive := a.Sides()
	side := positive
	if value < 0 {
		side = negative
	}

	exceeding := countWhere(side, func(t profile.Threshold) bool {
		return t.IsExceeding(value)
	})

	var passed int
	if e.prev != nil {
		prev := a.Neutralize(e.prev.State.Value)
		passed = countWhere(side, func(t profile.Threshold) bool {
			return t.IsExceeding(prev)
		})
	} else {
		// without history the control's resting position counts as reached
		initial := e.event.State.InitialValue
		if e.resolver.opts.LinearInitialNeutralized {
			initial = a.Neutralize(initial)
		}
		passed = countWhere(side, func(t profile.Threshold) bool {
			return t.IsPassedAt(initial)
		})
	}

	switch {
	case exceeding > passed:
		for i := passed; i < exceeding; i++ {
			e.fire(side[i].Activate, false)
		}
	case exceeding < passed:
		for i := passed - 1; i >= exceeding; i-- {
			t := side[i]
			if t.Deactivate != nil {
				e.fire(t.Deactivate, false)
			} else {
				e.fire(t.Activate, true)
			}
		}
	}
}

// directControl streams the normalized value on every event.
func (e *evaluation) directControl(a profile.DirectControl) {
	e.fire(profile.DirectAction{
		Target: a.Target,
		Value:  a.Input.Normalize(e.event.State.Value),
	}, false)
}

func countWhere(ts []profile.Threshold, pred func(profile.Threshold) bool) int {
	n := 0
	for _, t := range ts {
		if pred(t) {
			n++
		}
	}
	return n
}
