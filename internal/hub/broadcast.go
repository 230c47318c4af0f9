package hub

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/soar/controlmapper/internal/logging"
	"github.com/soar/controlmapper/internal/resolver"
)

const (
	fullSyncInterval = 5 * time.Second
	eventBuffer      = 256
)

// ActiveProfiler reports the currently active profile.
type ActiveProfiler interface {
	ActiveProfile() string
}

type event struct {
	call    *resolver.Call
	profile *string
}

// Broadcaster turns resolver notifications into monitor messages.
// It implements resolver.Observer; notifications are queued and dropped when
// the queue is full so the resolver never waits on slow monitors.
type Broadcaster struct {
	hub    *Hub
	active ActiveProfiler
	events chan event
	seq    atomic.Int64
}

func NewBroadcaster(h *Hub, active ActiveProfiler) *Broadcaster {
	return &Broadcaster{
		hub:    h,
		active: active,
		events: make(chan event, eventBuffer),
	}
}

// CallFired implements resolver.Observer.
func (b *Broadcaster) CallFired(c resolver.Call) {
	b.push(event{call: &c})
}

// ProfileChanged implements resolver.Observer.
func (b *Broadcaster) ProfileChanged(name string) {
	b.push(event{profile: &name})
}

func (b *Broadcaster) push(ev event) {
	select {
	case b.events <- ev:
	default:
		logging.Debugf("Monitor queue full, dropping event")
	}
}

// Run starts the broadcaster loop until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(fullSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case ev := <-b.events:
			switch {
			case ev.call != nil:
				b.send(NewCallMessage(b.seq.Add(1), *ev.call))
			case ev.profile != nil:
				b.send(NewProfileMessage(b.seq.Add(1), *ev.profile))
			}

		case <-ticker.C:
			if b.hub.ClientCount() > 0 {
				b.send(NewStateMessage(b.seq.Add(1), b.activeProfile()))
			}
		}
	}
}

// SendInitialState sends the current state to a newly connected client.
func (b *Broadcaster) SendInitialState(c *Client) {
	msg := NewStateMessage(b.seq.Add(1), b.activeProfile())
	data, err := json.Marshal(msg)
	if err != nil {
		logging.Errorf("Error marshaling initial state: %v", err)
		return
	}
	c.Send(data)
}

func (b *Broadcaster) activeProfile() string {
	if b.active == nil {
		return ""
	}
	return b.active.ActiveProfile()
}

func (b *Broadcaster) send(msg *WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		logging.Errorf("Error marshaling %s message: %v", msg.Type, err)
		return
	}
	b.hub.Broadcast(data)
}
