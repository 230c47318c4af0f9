package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soar/controlmapper/internal/config"
	"github.com/soar/controlmapper/internal/hub"
	"github.com/soar/controlmapper/internal/resolver"
	"github.com/soar/controlmapper/internal/synccontrol"
)

type fakeController struct {
	mu     sync.Mutex
	active string
	known  map[string]bool
}

func (f *fakeController) SetProfile(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.known[name] {
		return fmt.Errorf("%w: %s", resolver.ErrProfileNotFound, name)
	}
	f.active = name
	return nil
}

func (f *fakeController) ResetProfile() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = ""
}

func (f *fakeController) ActiveProfile() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

type fakeLister []config.ProfileInfo

func (f fakeLister) Profiles() []config.ProfileInfo { return f }

type fakeSync []synccontrol.State

func (f fakeSync) Snapshot() []synccontrol.State { return f }

const page = `<!DOCTYPE html>
<html>
    <head>
        <title>Test</title>
    </head>
    <body>
        <p>hello</p>
    </body>
</html>
`

func newMonitor(t *testing.T) (*httptest.Server, *fakeController) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := hub.NewHub("monitor")
	go h.Run(ctx)

	ctrl := &fakeController{active: "driving", known: map[string]bool{"driving": true, "flying": true}}
	b := hub.NewBroadcaster(h, ctrl)
	go b.Run(ctx)

	srv := NewMonitorServer(Monitor{
		Hub:         h,
		Broadcaster: b,
		Controller:  ctrl,
		Profiles:    fakeLister{{Name: "driving"}, {Name: "flying"}},
		Sync:        fakeSync{{Identifier: "Throttle1", CurrentValue: 0.5}},
		Frontend:    fstest.MapFS{"index.html": {Data: []byte(page)}},
	}, "127.0.0.1:0")

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, ctrl
}

func do(t *testing.T, method, url, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(data)
}

func TestProfilesAPI(t *testing.T) {
	ts, _ := newMonitor(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/profiles", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	var view profileView
	if err := json.Unmarshal([]byte(body), &view); err != nil {
		t.Fatal(err)
	}
	if view.Active != "driving" || len(view.Profiles) != 2 {
		t.Errorf("unexpected view %+v", view)
	}

	resp, _ = do(t, http.MethodPost, ts.URL+"/api/profiles", "")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", resp.StatusCode)
	}
}

func TestProfileAPI(t *testing.T) {
	ts, ctrl := newMonitor(t)

	resp, _ := do(t, http.MethodPut, ts.URL+"/api/profile", `{"name": "flying"}`)
	if resp.StatusCode != http.StatusOK || ctrl.ActiveProfile() != "flying" {
		t.Errorf("PUT: status %d, active %q", resp.StatusCode, ctrl.ActiveProfile())
	}

	resp, _ = do(t, http.MethodPut, ts.URL+"/api/profile", `{"name": "sailing"}`)
	if resp.StatusCode != http.StatusNotFound || ctrl.ActiveProfile() != "flying" {
		t.Errorf("PUT unknown: status %d, active %q", resp.StatusCode, ctrl.ActiveProfile())
	}

	resp, _ = do(t, http.MethodPut, ts.URL+"/api/profile", `not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("PUT garbage: status %d", resp.StatusCode)
	}

	resp, body := do(t, http.MethodGet, ts.URL+"/api/profile", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"flying"`) {
		t.Errorf("GET: status %d, body %s", resp.StatusCode, body)
	}

	resp, _ = do(t, http.MethodDelete, ts.URL+"/api/profile", "")
	if resp.StatusCode != http.StatusOK || ctrl.ActiveProfile() != "" {
		t.Errorf("DELETE: status %d, active %q", resp.StatusCode, ctrl.ActiveProfile())
	}
}

func TestSyncAPI(t *testing.T) {
	ts, _ := newMonitor(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/sync", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Throttle1") {
		t.Errorf("status %d, body %s", resp.StatusCode, body)
	}
}

func TestFrontendIsMinified(t *testing.T) {
	ts, _ := newMonitor(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Errorf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(body, "hello") || len(body) >= len(page) {
		t.Errorf("expected minified page, got %q", body)
	}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestMonitorSocket(t *testing.T) {
	ts, ctrl := newMonitor(t)
	conn := dial(t, ts.URL+"/ws")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg hub.WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "state" || msg.Profile == nil || *msg.Profile != "driving" {
		t.Fatalf("unexpected initial message %+v", msg)
	}

	if err := conn.WriteJSON(hub.ClientMessage{Type: "select_profile", Profile: "flying"}); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for ctrl.ActiveProfile() != "flying" {
		if time.Now().After(deadline) {
			t.Fatal("profile was not switched")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := conn.WriteJSON(hub.ClientMessage{Type: "select_profile", Profile: "sailing"}); err != nil {
		t.Fatal(err)
	}
	msg = hub.WSMessage{}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "error" {
		t.Errorf("expected error reply, got %+v", msg)
	}
}

func TestDirectControlSocket(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := hub.NewHub("direct control")
	go h.Run(ctx)

	ts := httptest.NewServer(NewDirectControlServer(h, "127.0.0.1:0").Handler())
	defer ts.Close()

	conn := dial(t, ts.URL)
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	h.Broadcast([]byte("direct_control,Throttle1,0.5"))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "direct_control,Throttle1,0.5" {
		t.Errorf("unexpected frame %q", data)
	}
}
