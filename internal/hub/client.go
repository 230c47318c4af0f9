package hub

import (
	"encoding/json"

	"github.com/gorilla/websocket"

	"github.com/soar/controlmapper/internal/logging"
)

const sendBuffer = 256

// ProfileSwitcher is what monitor clients may ask the application to do.
type ProfileSwitcher interface {
	SetProfile(name string) error
	ResetProfile()
}

// Client represents a connected WebSocket client.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	// closed is guarded by hub.mu
	closed bool
}

// NewClient creates a new Client attached to the hub.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
}

// Send queues a message for this client only, dropping it when the buffer
// is full or the client is gone.
func (c *Client) Send(msg []byte) bool {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// WritePump sends messages from the send channel to the WebSocket connection.
func (c *Client) WritePump() {
	defer func() {
		c.conn.Close()
	}()

	for msg := range c.send {
		err := c.conn.WriteMessage(websocket.TextMessage, msg)
		if err != nil {
			break
		}
	}
}

// ReadPump discards everything the peer sends until the connection closes.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// ReadPumpWithHandler reads messages from the WebSocket and handles client commands.
func (c *Client) ReadPumpWithHandler(switcher ProfileSwitcher) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var clientMsg ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			logging.Warnf("Error parsing client message: %v", err)
			continue
		}

		switch clientMsg.Type {
		case "select_profile":
			if err := switcher.SetProfile(clientMsg.Profile); err != nil {
				logging.Warnf("Failed to select profile %q: %v", clientMsg.Profile, err)
				if data, err := json.Marshal(NewErrorMessage(err.Error())); err == nil {
					c.Send(data)
				}
			}
		case "reset_profile":
			switcher.ResetProfile()
		default:
			logging.Debugf("Ignoring client message %q", clientMsg.Type)
		}
	}
}
