// Package directcontrol carries absolute control values to the game side.
//
// Commands travel as plain text lines, one per websocket frame:
//
//	direct_control,<target>,<value>
package directcontrol

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/soar/controlmapper/internal/logging"
	"github.com/soar/controlmapper/internal/profile"
)

const (
	linePrefix = "direct_control"

	DefaultQueueSize = 1024
)

var (
	ErrQueueFull   = errors.New("direct control queue full")
	ErrMalformed   = errors.New("malformed direct control line")
	ErrEmptyTarget = errors.New("empty direct control target")
)

// Command sets Target to Value.
type Command struct {
	Target string  `json:"target"`
	Value  float64 `json:"value"`
}

// Line renders the command in wire format.
func (c Command) Line() string {
	return linePrefix + "," + c.Target + "," + profile.FormatValue(c.Value)
}

// ParseLine is the inverse of Line. Targets may not contain commas.
func ParseLine(line string) (Command, error) {
	parts := strings.Split(strings.TrimSpace(line), ",")
	if len(parts) != 3 || parts[0] != linePrefix {
		return Command{}, fmt.Errorf("%w: %q", ErrMalformed, line)
	}
	if parts[1] == "" {
		return Command{}, ErrEmptyTarget
	}
	v, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return Command{}, fmt.Errorf("%w: %q: %w", ErrMalformed, line, err)
	}
	return Command{Target: parts[1], Value: v}, nil
}

// Publisher delivers a frame to every connected game client.
type Publisher interface {
	Broadcast(msg []byte)
}

// Channel is a bounded queue of commands drained by Run.
type Channel struct {
	queue chan Command
}

func NewChannel(size int) *Channel {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Channel{queue: make(chan Command, size)}
}

// Enqueue adds a command without blocking.
func (c *Channel) Enqueue(cmd Command) error {
	select {
	case c.queue <- cmd:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run publishes queued commands in order until ctx is cancelled.
func (c *Channel) Run(ctx context.Context, pub Publisher) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-c.queue:
			line := cmd.Line()
			logging.Tracef("-> %s", line)
			pub.Broadcast([]byte(line))
		}
	}
}
