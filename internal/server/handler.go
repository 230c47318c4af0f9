package server

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/soar/controlmapper/internal/hub"
	"github.com/soar/controlmapper/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local use
	},
}

// handleMonitorSocket serves monitor clients: they receive every broadcast and
// may switch profiles.
func handleMonitorSocket(h *hub.Hub, b *hub.Broadcaster, switcher hub.ProfileSwitcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Warnf("WebSocket upgrade failed: %v", err)
			return
		}

		client := hub.NewClient(h, conn)
		h.Register(client)

		// Send current state to the new client
		b.SendInitialState(client)

		go client.WritePump()
		go client.ReadPumpWithHandler(switcher)
	}
}

// handleDirectControlSocket serves game clients. They only receive command
// lines; whatever they send is discarded.
func handleDirectControlSocket(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Warnf("[DC] WebSocket upgrade failed: %v", err)
			return
		}

		client := hub.NewClient(h, conn)
		h.Register(client)

		go client.WritePump()
		go client.ReadPump()
	}
}

// NewDirectControlServer serves the direct-control websocket at "/".
func NewDirectControlServer(h *hub.Hub, addr string) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", handleDirectControlSocket(h))
	return New("Direct control", addr, mux)
}

// NewSyncControlServer serves a sync-control listener at "/".
func NewSyncControlServer(listener http.Handler, addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/", listener)
	return New("Sync control", addr, mux)
}
