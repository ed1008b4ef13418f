package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("invalid event JSON %q: %v", data, err)
	}
	return ev
}

func TestPublishReachesAllClients(t *testing.T) {
	hub, srv := startHub(t)

	a := dial(t, srv)
	b := dial(t, srv)
	waitForClients(t, hub, 2)

	hub.Publish(TypeRecordSaved, map[string]any{"sessionId": 1, "filename": "a.jpg"})

	for _, conn := range []*websocket.Conn{a, b} {
		ev := readEvent(t, conn)
		if ev.Type != TypeRecordSaved {
			t.Errorf("Type = %q, want %q", ev.Type, TypeRecordSaved)
		}
		if _, err := uuid.Parse(ev.ID); err != nil {
			t.Errorf("ID %q is not a UUID: %v", ev.ID, err)
		}
		if ev.Timestamp.IsZero() {
			t.Error("Timestamp is zero")
		}

		var payload struct {
			SessionID int64  `json:"sessionId"`
			Filename  string `json:"filename"`
		}
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			t.Fatal(err)
		}
		if payload.SessionID != 1 || payload.Filename != "a.jpg" {
			t.Errorf("payload = %+v", payload)
		}
	}
}

func TestPublishWithoutPayload(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	hub.Publish(TypeSessionEnded, nil)

	ev := readEvent(t, conn)
	if ev.Type != TypeSessionEnded || len(ev.Payload) != 0 {
		t.Errorf("event = %+v", ev)
	}
}

func TestClientDisconnectUnregisters(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestPublishWithoutClientsDoesNotBlock(t *testing.T) {
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Publish(TypeSettingSaved, map[string]string{"key": "theme"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked with no running hub")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestAllowOrigin(t *testing.T) {
	tests := []struct {
		origin string
		host   string
		want   bool
	}{
		{"", "127.0.0.1:8765", true},
		{"http://localhost:1420", "127.0.0.1:8765", true},
		{"tauri://localhost", "127.0.0.1:8765", true},
		{"http://tauri.localhost", "127.0.0.1:8765", true},
		{"http://127.0.0.1:8765", "127.0.0.1:8765", true},
		{"https://evil.example.com", "127.0.0.1:8765", false},
		{"::not a url", "127.0.0.1:8765", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/events", nil)
			r.Host = tt.host
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := allowOrigin(r); got != tt.want {
				t.Errorf("allowOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}
