// Package sequencer executes key actions one after another: pressing key
// combinations, holding them for their press time and waiting afterwards.
package sequencer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/soar/controlmapper/internal/logging"
)

// ErrQueueFull is returned by Enqueue when the action queue is saturated.
var ErrQueueFull = errors.New("action queue full")

// DefaultQueueSize is used when New is given a non-positive size.
const DefaultQueueSize = 1024

// Action is a key action handed to the sequencer.
type Action struct {
	// Keys is a "+" separated combination, e.g. "ctrl+shift+w".
	Keys string
	// PressTime in seconds. Without it the keys stay down until an action with
	// Release set lets go of them.
	PressTime *float64
	// WaitTime in seconds to pause after the action before the next one.
	WaitTime *float64
	Release  bool
}

// Keyboard presses and releases single keys by name.
type Keyboard interface {
	KeyDown(key string) error
	KeyUp(key string) error
	Close() error
}

// Sequencer drains a bounded queue of actions serially.
type Sequencer struct {
	kb    Keyboard
	queue chan Action
	held  map[string]bool
}

func New(kb Keyboard, size int) *Sequencer {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Sequencer{
		kb:    kb,
		queue: make(chan Action, size),
		held:  make(map[string]bool),
	}
}

// Enqueue adds an action without blocking.
func (s *Sequencer) Enqueue(a Action) error {
	select {
	case s.queue <- a:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run executes queued actions until ctx is cancelled, then releases any keys
// still held.
func (s *Sequencer) Run(ctx context.Context) {
	defer s.releaseAll()

	for {
		select {
		case <-ctx.Done():
			return
		case a := <-s.queue:
			s.execute(ctx, a)
		}
	}
}

func (s *Sequencer) execute(ctx context.Context, a Action) {
	keys := ParseKeys(a.Keys)
	if len(keys) == 0 {
		logging.Warnf("sequencer: empty key combination %q", a.Keys)
		return
	}

	if a.Release {
		s.release(keys)
		return
	}

	for _, k := range keys {
		if s.held[k] {
			continue
		}
		if err := s.kb.KeyDown(k); err != nil {
			logging.Warnf("sequencer: key down %s: %v", k, err)
			continue
		}
		s.held[k] = true
	}
	logging.Tracef("sequencer: pressed %s", a.Keys)

	if a.PressTime != nil {
		if !sleep(ctx, seconds(*a.PressTime)) {
			return
		}
		s.release(keys)
	}
	if a.WaitTime != nil {
		sleep(ctx, seconds(*a.WaitTime))
	}
}

// release lets go of keys in reverse order.
func (s *Sequencer) release(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		k := keys[i]
		if !s.held[k] {
			continue
		}
		if err := s.kb.KeyUp(k); err != nil {
			logging.Warnf("sequencer: key up %s: %v", k, err)
		}
		delete(s.held, k)
	}
	logging.Tracef("sequencer: released %s", strings.Join(keys, "+"))
}

func (s *Sequencer) releaseAll() {
	for k := range s.held {
		if err := s.kb.KeyUp(k); err != nil {
			logging.Warnf("sequencer: key up %s: %v", k, err)
		}
		delete(s.held, k)
	}
}

// ParseKeys splits a key combination into lower-case key names.
func ParseKeys(combo string) []string {
	var keys []string
	for _, k := range strings.Split(combo, "+") {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func seconds(v float64) time.Duration {
	if v <= 0 {
		return 0
	}
	return time.Duration(v * float64(time.Second))
}

// sleep waits for d and reports false when ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
