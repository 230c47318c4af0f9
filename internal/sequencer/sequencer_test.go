package sequencer

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

type fakeKeyboard struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeKeyboard) KeyDown(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "down "+key)
	return nil
}

func (f *fakeKeyboard) KeyUp(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "up "+key)
	return nil
}

func (f *fakeKeyboard) Close() error { return nil }

func (f *fakeKeyboard) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func ptr(v float64) *float64 { return &v }

func TestParseKeys(t *testing.T) {
	got := ParseKeys(" Ctrl + Shift+W ")
	want := []string{"ctrl", "shift", "w"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if got := ParseKeys("++"); len(got) != 0 {
		t.Errorf("expected no keys, got %v", got)
	}
}

func TestExecuteTap(t *testing.T) {
	kb := &fakeKeyboard{}
	s := New(kb, 4)
	s.execute(context.Background(), Action{Keys: "ctrl+a", PressTime: ptr(0.001)})

	want := []string{"down ctrl", "down a", "up a", "up ctrl"}
	if got := kb.recorded(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestExecuteHoldAndRelease(t *testing.T) {
	kb := &fakeKeyboard{}
	s := New(kb, 4)
	ctx := context.Background()

	s.execute(ctx, Action{Keys: "w"})
	s.execute(ctx, Action{Keys: "w"})
	if got, want := kb.recorded(), []string{"down w"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("held key pressed twice: %v", got)
	}

	s.execute(ctx, Action{Keys: "w", Release: true})
	s.execute(ctx, Action{Keys: "w", Release: true})
	if got, want := kb.recorded(), []string{"down w", "up w"}; !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestWaitTimeDelaysNextAction(t *testing.T) {
	kb := &fakeKeyboard{}
	s := New(kb, 4)

	start := time.Now()
	s.execute(context.Background(), Action{Keys: "a", PressTime: ptr(0.001), WaitTime: ptr(0.02)})
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("expected at least 20ms, took %v", elapsed)
	}
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	s := New(&fakeKeyboard{}, 1)
	if err := s.Enqueue(Action{Keys: "a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Enqueue(Action{Keys: "b"}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestRunReleasesHeldKeysOnShutdown(t *testing.T) {
	kb := &fakeKeyboard{}
	s := New(kb, 4)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	if err := s.Enqueue(Action{Keys: "shift"}); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(time.Second)
	for len(kb.recorded()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	cancel()
	<-done

	want := []string{"down shift", "up shift"}
	if got := kb.recorded(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
