package server

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"regexp"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"

	"github.com/soar/controlmapper/internal/config"
	"github.com/soar/controlmapper/internal/hub"
	"github.com/soar/controlmapper/internal/logging"
	"github.com/soar/controlmapper/internal/resolver"
	"github.com/soar/controlmapper/internal/synccontrol"
)

// ProfileController switches the active profile.
type ProfileController interface {
	hub.ProfileSwitcher
	ActiveProfile() string
}

// ProfileLister lists loaded profiles.
type ProfileLister interface {
	Profiles() []config.ProfileInfo
}

// SyncReporter reports the values the game synced back.
type SyncReporter interface {
	Snapshot() []synccontrol.State
}

// Monitor bundles what the monitor page shows and controls.
type Monitor struct {
	Hub         *hub.Hub
	Broadcaster *hub.Broadcaster
	Controller  ProfileController
	Profiles    ProfileLister
	// Sync may be nil when the sync-control listener is disabled.
	Sync     SyncReporter
	Frontend fs.FS
}

// NewMonitorServer serves the monitor page, its websocket and the JSON API.
func NewMonitorServer(m Monitor, addr string) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", handleMonitorSocket(m.Hub, m.Broadcaster, m.Controller))
	mux.HandleFunc("/api/profiles", m.handleProfiles)
	mux.HandleFunc("/api/profile", m.handleProfile)
	mux.HandleFunc("/api/sync", m.handleSync)

	// Static files (frontend), minified on the fly
	fileServer := http.FileServer(http.FS(m.Frontend))
	mux.Handle("/", newMinifier().Middleware(fileServer))

	return New("Monitor", addr, loggingMiddleware(mux))
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
	return m
}

type profileView struct {
	Active   string               `json:"active"`
	Profiles []config.ProfileInfo `json:"profiles"`
}

type profileRequest struct {
	Name string `json:"name"`
}

func (m Monitor) handleProfiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	respondJSON(w, http.StatusOK, profileView{
		Active:   m.Controller.ActiveProfile(),
		Profiles: m.Profiles.Profiles(),
	})
}

func (m Monitor) handleProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req profileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		if err := m.Controller.SetProfile(req.Name); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, resolver.ErrProfileNotFound) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}
	case http.MethodDelete:
		m.Controller.ResetProfile()
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"active": m.Controller.ActiveProfile()})
}

func (m Monitor) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	states := []synccontrol.State{}
	if m.Sync != nil {
		states = m.Sync.Snapshot()
	}
	respondJSON(w, http.StatusOK, states)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Warnf("encode JSON: %v", err)
	}
}
