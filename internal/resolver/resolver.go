// Package resolver decides which actions fire for a control reading under the
// active profile.
//
// A Resolver keeps, per control name, the last call it fired and compares every
// new reading against it. That comparison is what gives momentary and toggle
// assignments their edge semantics and lets linear assignments fire every
// threshold crossed between two readings. Events must therefore be applied in
// arrival order; Runner does that from a single goroutine.
package resolver

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/soar/controlmapper/internal/control"
	"github.com/soar/controlmapper/internal/directcontrol"
	"github.com/soar/controlmapper/internal/logging"
	"github.com/soar/controlmapper/internal/profile"
	"github.com/soar/controlmapper/internal/sequencer"
)

// ErrProfileNotFound is returned by SetProfile for unknown profile names.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileSource looks up loaded profiles.
type ProfileSource interface {
	// FindProfile returns the profile called name that applies to the
	// controller, or nil. An empty controllerID matches any profile.
	FindProfile(name, controllerID string) *profile.Profile
}

// KeySink receives key actions. Enqueue must not block.
type KeySink interface {
	Enqueue(sequencer.Action) error
}

// DirectSink receives direct-control commands. Enqueue must not block.
type DirectSink interface {
	Enqueue(directcontrol.Command) error
}

// Observer is notified about fired calls and profile changes. It is called
// outside the resolver's lock and must not block.
type Observer interface {
	CallFired(Call)
	ProfileChanged(name string)
}

// Options tune evaluation details.
type Options struct {
	// LinearInitialNeutralized neutralizes the event's initial value before a
	// linear assignment without history compares against it. The raw value is
	// used otherwise.
	LinearInitialNeutralized bool
}

// Call is an action fired for a control.
type Call struct {
	ControlName string
	JoystickID  string
	State       control.ControlState
	Assignment  profile.Assignment
	Action      profile.Action
	// Release marks a call that lets go of Action instead of triggering it.
	Release bool
}

// Resolver evaluates control events against the active profile.
type Resolver struct {
	profiles  ProfileSource
	keys      KeySink
	direct    DirectSink
	observers Observers
	opts      Options

	mu          sync.Mutex
	profileName string
	lastCalls   map[string]Call
}

// New creates a resolver without an active profile. observer may be nil.
func New(profiles ProfileSource, keys KeySink, direct DirectSink, observer Observer, opts Options) *Resolver {
	r := &Resolver{
		profiles:  profiles,
		keys:      keys,
		direct:    direct,
		opts:      opts,
		lastCalls: make(map[string]Call),
	}
	if observer != nil {
		r.observers = Observers{observer}
	}
	return r
}

// AddObserver registers another observer.
func (r *Resolver) AddObserver(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(slices.Clip(r.observers), o)
}

// SetProfile activates the named profile. Switching to a different profile
// drops the call history of the previous one.
func (r *Resolver) SetProfile(name string) error {
	r.mu.Lock()
	if name == r.profileName {
		r.mu.Unlock()
		return nil
	}
	if r.profiles.FindProfile(name, "") == nil {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	r.profileName = name
	clear(r.lastCalls)
	observers := r.observers
	r.mu.Unlock()

	logging.Infof("Selected profile: %s", name)
	observers.ProfileChanged(name)
	return nil
}

// ResetProfile deactivates the current profile and clears the call history.
func (r *Resolver) ResetProfile() {
	r.mu.Lock()
	had := r.profileName != ""
	r.profileName = ""
	clear(r.lastCalls)
	observers := r.observers
	r.mu.Unlock()

	if had {
		logging.Infof("Cleared profile")
	}
	observers.ProfileChanged("")
}

// ActiveProfile returns the active profile name, or "" when none is set.
func (r *Resolver) ActiveProfile() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.profileName
}

// LastCall returns the most recent call fired for a control.
func (r *Resolver) LastCall(controlName string) (Call, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.lastCalls[controlName]
	return c, ok
}

// Run evaluates one event and returns the calls it fired, in firing order.
// It is a no-op without an active profile, for unchanged readings and for
// controls the profile does not map.
func (r *Resolver) Run(ev control.ChangeEvent) []Call {
	var observers Observers
	fired := func() []Call {
		r.mu.Lock()
		defer r.mu.Unlock()
		observers = r.observers
		return r.run(ev)
	}()

	for _, c := range fired {
		observers.CallFired(c)
	}
	return fired
}

func (r *Resolver) run(ev control.ChangeEvent) []Call {
	if !ev.HasChanged || r.profileName == "" {
		return nil
	}

	p := r.profiles.FindProfile(r.profileName, ev.JoystickID)
	if p == nil {
		return nil
	}
	def := p.FindControl(ev.ControlName)
	if def == nil {
		return nil
	}

	e := &evaluation{
		resolver: r,
		event:    ev,
	}
	// every assignment compares against the history as it was before this event
	if prev, ok := r.lastCalls[ev.ControlName]; ok {
		e.prev = &prev
	}

	for _, a := range def.Assignments {
		e.assignment = a
		switch a := a.(type) {
		case profile.Momentary:
			e.momentary(a)
		case profile.Toggle:
			e.toggle(a)
		case profile.Linear:
			e.linear(a)
		case profile.DirectControl:
			e.directControl(a)
		default:
			logging.Debugf("control %s: unsupported assignment %T", ev.ControlName, a)
		}
	}
	return e.fired
}

// record stores the call as the control's latest and hands its action to the
// matching sink. The history is updated whether or not the sink accepts it, so
// a saturated sink cannot cause the same crossing to fire again.
func (r *Resolver) record(c Call) {
	r.lastCalls[c.ControlName] = c

	switch a := c.Action.(type) {
	case profile.KeysAction:
		err := r.keys.Enqueue(sequencer.Action{
			Keys:      a.Keys,
			PressTime: a.PressTime,
			WaitTime:  a.WaitTime,
			Release:   c.Release,
		})
		if err != nil {
			logging.Warnf("control %s: dropping keys %q: %v", c.ControlName, a.Keys, err)
		}
	case profile.DirectAction:
		// an absolute value cannot be released
		if c.Release {
			return
		}
		err := r.direct.Enqueue(directcontrol.Command{Target: a.Target, Value: a.Value})
		if err != nil {
			logging.Warnf("control %s: dropping direct control %s: %v", c.ControlName, a.CompareKey(), err)
		}
	}
}
