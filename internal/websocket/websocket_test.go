package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
)

func dialTestHub(t *testing.T, hub *Hub) *ws.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		HandleWebSocket(hub, w, r)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestBroadcastWithoutClients(t *testing.T) {
	hub := NewHub()
	// Must not panic or block.
	hub.Broadcast(Event{Type: "order_created"})
	hub.BroadcastProgress(1, 10)
}

func TestBroadcastChangeReachesClient(t *testing.T) {
	hub := NewHub()
	conn := dialTestHub(t, hub)

	// Registration happens before HandleWebSocket blocks on reads, but
	// give the server a moment under race conditions.
	time.Sleep(50 * time.Millisecond)
	hub.BroadcastChange("order", "create", int64(7))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var evt Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		t.Fatalf("unmarshal %q: %v", raw, err)
	}
	if evt.Type != "order_created" || evt.Action != "create" {
		t.Errorf("event = %+v", evt)
	}
}

func TestBroadcastProgressPayload(t *testing.T) {
	hub := NewHub()
	conn := dialTestHub(t, hub)
	time.Sleep(50 * time.Millisecond)

	hub.BroadcastProgress(3, 10)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var evt Event
	json.Unmarshal(raw, &evt)
	if evt.Type != "import_progress" || evt.Processed != 3 || evt.Total != 10 {
		t.Errorf("event = %+v", evt)
	}
}
