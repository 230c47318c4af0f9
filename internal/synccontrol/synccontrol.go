// Package synccontrol tracks control values reported back by the game.
//
// The game mod sends text frames of the form
//
//	sync_control,<identifier>,<value>
//
// Only the latest value per identifier is kept.
package synccontrol

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lxzan/gws"

	"github.com/soar/controlmapper/internal/logging"
)

const linePrefix = "sync_control"

var ErrNotSyncControl = errors.New("not a sync control message")

// State is the last reported value of one identifier. TargetValue keeps the
// first value seen for it.
type State struct {
	Identifier   string    `json:"identifier"`
	CurrentValue float64   `json:"currentValue"`
	TargetValue  float64   `json:"targetValue"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Listener accepts game connections and records what they report.
type Listener struct {
	gws.BuiltinEventHandler

	upgrader *gws.Upgrader

	mu     sync.RWMutex
	states map[string]*State
}

func NewListener() *Listener {
	l := &Listener{states: make(map[string]*State)}
	l.upgrader = gws.NewUpgrader(l, &gws.ServerOption{})
	return l
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (l *Listener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	socket, err := l.upgrader.Upgrade(w, r)
	if err != nil {
		logging.Warnf("[SC] Upgrade error: %v", err)
		return
	}
	go socket.ReadLoop()
}

func (l *Listener) OnOpen(socket *gws.Conn) {
	logging.Infof("[SC] Client connected: %s", socket.RemoteAddr())
}

func (l *Listener) OnClose(socket *gws.Conn, err error) {
	logging.Infof("[SC] Client disconnected: %s (%v)", socket.RemoteAddr(), err)
}

func (l *Listener) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()
	if message.Opcode != gws.OpcodeText {
		return
	}
	if err := l.HandleLine(message.Data.String()); err != nil {
		logging.Debugf("[SC] Ignoring message: %v", err)
	}
}

// HandleLine parses one message and updates the identifier's state.
func (l *Listener) HandleLine(line string) error {
	line = strings.TrimSpace(line)
	logging.Tracef("[SC] <- %s", line)

	parts := strings.Split(line, ",")
	if len(parts) != 3 || parts[0] != linePrefix {
		return fmt.Errorf("%w: %q", ErrNotSyncControl, line)
	}
	v, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return fmt.Errorf("sync control %s: bad value %q: %w", parts[1], parts[2], err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.states[parts[1]]
	if !ok {
		st = &State{Identifier: parts[1], TargetValue: v}
		l.states[parts[1]] = st
	}
	st.CurrentValue = v
	st.UpdatedAt = time.Now()
	return nil
}

// Get returns the state of one identifier.
func (l *Listener) Get(identifier string) (State, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	st, ok := l.states[identifier]
	if !ok {
		return State{}, false
	}
	return *st, true
}

// Snapshot returns every known state ordered by identifier.
func (l *Listener) Snapshot() []State {
	l.mu.RLock()
	out := make([]State, 0, len(l.states))
	for _, st := range l.states {
		out = append(out, *st)
	}
	l.mu.RUnlock()

	slices.SortFunc(out, func(a, b State) int {
		return strings.Compare(a.Identifier, b.Identifier)
	})
	return out
}
