package ws

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"pokerpulse-server/utils"

	"golang.org/x/net/websocket"
)

func TestMain(m *testing.M) {
	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")
	os.Exit(m.Run())
}

func dialHub(t *testing.T, hub *Hub) (*websocket.Conn, func()) {
	t.Helper()

	server := httptest.NewServer(Handler(hub))
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	conn, err := websocket.Dial(wsURL, "", server.URL)
	if err != nil {
		server.Close()
		t.Fatalf("dial: %v", err)
	}
	return conn, func() {
		conn.Close()
		server.Close()
	}
}

func receiveEvent(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var raw string
	if err := websocket.Message.Receive(conn, &raw); err != nil {
		t.Fatalf("receive: %v", err)
	}
	var event map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	return event
}

func waitForCount(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Count() != want {
		if time.Now().After(deadline) {
			t.Fatalf("hub count stuck at %d, want %d", hub.Count(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubRegistersAndUnregisters(t *testing.T) {
	hub := NewHub()

	conn, cleanup := dialHub(t, hub)
	defer cleanup()
	waitForCount(t, hub, 1)

	conn.Close()
	waitForCount(t, hub, 0)
}

func TestBroadcastReachesAllConnections(t *testing.T) {
	hub := NewHub()

	first, cleanupFirst := dialHub(t, hub)
	defer cleanupFirst()
	second, cleanupSecond := dialHub(t, hub)
	defer cleanupSecond()
	waitForCount(t, hub, 2)

	hub.Broadcast("game:cancelled", map[string]interface{}{"gameId": 42})

	for _, conn := range []*websocket.Conn{first, second} {
		event := receiveEvent(t, conn)
		if event["type"] != "game:cancelled" {
			t.Fatalf("expected game:cancelled, got %v", event["type"])
		}
		if int(event["gameId"].(float64)) != 42 {
			t.Fatalf("expected gameId 42, got %v", event["gameId"])
		}
	}
}

// Concurrent broadcasts share one socket per client; every frame must still
// arrive whole.
func TestConcurrentBroadcasts(t *testing.T) {
	hub := NewHub()
	conn, cleanup := dialHub(t, hub)
	defer cleanup()
	waitForCount(t, hub, 1)

	const broadcasts = 20
	var wg sync.WaitGroup
	for i := 0; i < broadcasts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			hub.Broadcast("rsvp:updated", map[string]interface{}{"gameId": i})
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool)
	for i := 0; i < broadcasts; i++ {
		event := receiveEvent(t, conn)
		if event["type"] != "rsvp:updated" {
			t.Fatalf("frame %d corrupted: %v", i, event)
		}
		seen[int(event["gameId"].(float64))] = true
	}
	if len(seen) != broadcasts {
		t.Fatalf("expected %d distinct events, got %d", broadcasts, len(seen))
	}
}

func TestAuthHandshake(t *testing.T) {
	hub := NewHub()
	conn, cleanup := dialHub(t, hub)
	defer cleanup()
	waitForCount(t, hub, 1)

	token, err := utils.CreateToken(7, "player@example.com")
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	if err := websocket.Message.Send(conn, `{"type":"auth","token":"`+token+`"}`); err != nil {
		t.Fatalf("send auth: %v", err)
	}
	event := receiveEvent(t, conn)
	if event["type"] != "authenticated" {
		t.Fatalf("expected authenticated, got %v", event)
	}
}

func TestAuthHandshakeRejectsBadToken(t *testing.T) {
	hub := NewHub()
	conn, cleanup := dialHub(t, hub)
	defer cleanup()
	waitForCount(t, hub, 1)

	if err := websocket.Message.Send(conn, `{"type":"auth","token":"garbage"}`); err != nil {
		t.Fatalf("send auth: %v", err)
	}
	event := receiveEvent(t, conn)
	if event["type"] != "auth_error" {
		t.Fatalf("expected auth_error, got %v", event)
	}
	if event["error"] != "Invalid token" {
		t.Fatalf("unexpected error message: %v", event["error"])
	}

	// the connection stays open and other message types are ignored
	if err := websocket.Message.Send(conn, `{"type":"ping"}`); err != nil {
		t.Fatalf("send ping: %v", err)
	}
	if hub.Count() != 1 {
		t.Fatalf("connection dropped after auth failure")
	}
}
