package synccontrol

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHandleLine(t *testing.T) {
	l := NewListener()

	if err := l.HandleLine("sync_control,Throttle1,0.25"); err != nil {
		t.Fatal(err)
	}
	if err := l.HandleLine("sync_control,Throttle1,0.75"); err != nil {
		t.Fatal(err)
	}

	st, ok := l.Get("Throttle1")
	if !ok {
		t.Fatal("expected state for Throttle1")
	}
	if st.CurrentValue != 0.75 || st.TargetValue != 0.25 {
		t.Errorf("unexpected state %+v", st)
	}
}

func TestHandleLineRejects(t *testing.T) {
	l := NewListener()
	for _, line := range []string{"", "direct_control,a,1", "sync_control,a", "sync_control,a,1,2"} {
		if err := l.HandleLine(line); !errors.Is(err, ErrNotSyncControl) {
			t.Errorf("HandleLine(%q): expected ErrNotSyncControl, got %v", line, err)
		}
	}
	if err := l.HandleLine("sync_control,a,fast"); err == nil {
		t.Error("expected error for non-numeric value")
	}
	if len(l.Snapshot()) != 0 {
		t.Error("rejected lines must not create state")
	}
}

func TestSnapshotSorted(t *testing.T) {
	l := NewListener()
	for _, line := range []string{"sync_control,b,1", "sync_control,a,2", "sync_control,c,3"} {
		if err := l.HandleLine(line); err != nil {
			t.Fatal(err)
		}
	}
	var ids []string
	for _, st := range l.Snapshot() {
		ids = append(ids, st.Identifier)
	}
	if got := strings.Join(ids, ","); got != "a,b,c" {
		t.Errorf("expected a,b,c, got %s", got)
	}
}

func TestListenerOverWebsocket(t *testing.T) {
	l := NewListener()
	srv := httptest.NewServer(l)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("sync_control,Reverser,-1")); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if st, ok := l.Get("Reverser"); ok {
			if st.CurrentValue != -1 {
				t.Errorf("expected -1, got %v", st.CurrentValue)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("message never arrived")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
