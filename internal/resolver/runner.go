package resolver

import (
	"context"
	"runtime/debug"

	"github.com/soar/controlmapper/internal/control"
	"github.com/soar/controlmapper/internal/logging"
)

// Runner feeds events from a channel into a Resolver, one at a time and in
// arrival order.
type Runner struct {
	resolver *Resolver
	events   <-chan control.ChangeEvent
}

func NewRunner(r *Resolver, events <-chan control.ChangeEvent) *Runner {
	return &Runner{
		resolver: r,
		events:   events,
	}
}

// Run processes events until ctx is cancelled or the channel is closed.
func (r *Runner) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-r.events:
			if !ok {
				return
			}
			r.handle(ev)
		}
	}
}

// handle keeps a single bad event from stopping the loop.
func (r *Runner) handle(ev control.ChangeEvent) {
	defer func() {
		if p := recover(); p != nil {
			logging.Errorf("evaluating %s on %s: %v\n%s", ev.ControlName, ev.JoystickID, p, debug.Stack())
		}
	}()
	r.resolver.Run(ev)
}
