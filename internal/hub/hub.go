package hub

import (
	"context"
	"sync"

	"github.com/soar/controlmapper/internal/logging"
)

// Hub manages WebSocket clients and broadcasts messages to all of them.
type Hub struct {
	name       string
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a hub; name only appears in log lines.
func NewHub(name string) *Hub {
	return &Hub{
		name:       name,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Register adds a new client to the hub. After the hub stopped the client's
// send channel is closed straight away.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		h.mu.Lock()
		h.closeClient(c)
		h.mu.Unlock()
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a message to every client. Clients whose send buffer is
// full are disconnected rather than allowed to stall the others.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			go h.Unregister(client)
		}
	}
}

// Run starts the hub's main loop until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				h.closeClient(client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			logging.Infof("[%s] Client connected (total: %d)", h.name, n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				h.closeClient(client)
			}
			n := len(h.clients)
			h.mu.Unlock()
			logging.Infof("[%s] Client disconnected (total: %d)", h.name, n)
		}
	}
}

// closeClient drops c and closes its send channel once. h.mu must be held.
func (h *Hub) closeClient(c *Client) {
	delete(h.clients, c)
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
