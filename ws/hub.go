package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"
)

// Conn is one live client connection. UserID stays zero until the client
// authenticates over the socket.
type Conn struct {
	ID     string
	UserID uint

	writeMu sync.Mutex
	sock    *websocket.Conn
}

// write serializes frames onto the socket; the websocket Conn is not safe
// for concurrent writers and broadcasts can race the auth replies.
func (c *Conn) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.sock.Write(data)
	return err
}

// Hub is the registry of currently open connections: added on upgrade,
// removed when the read loop exits. There is no replay buffer.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]*Conn)}
}

var Registry *Hub

func InitializeRegistry() *Hub {
	Registry = NewHub()
	return Registry
}

func (h *Hub) add(sock *websocket.Conn) *Conn {
	conn := &Conn{ID: uuid.NewString(), sock: sock}
	h.mu.Lock()
	h.conns[conn.ID] = conn
	h.mu.Unlock()
	return conn
}

func (h *Hub) remove(conn *Conn) {
	h.mu.Lock()
	delete(h.conns, conn.ID)
	h.mu.Unlock()
}

// Count reports the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast pushes {type, ...payload} to every open connection. Delivery is
// best effort, at most once: a failed write drops the connection and the
// event is not retried.
func (h *Hub) Broadcast(eventType string, payload map[string]interface{}) {
	event := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		event[k] = v
	}
	event["type"] = eventType

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ws: marshal %s event: %v", eventType, err)
		return
	}

	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.conns))
	for _, conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.write(data); err != nil {
			log.Printf("ws: dropping connection %s: %v", conn.ID, err)
			h.remove(conn)
			conn.sock.Close()
		}
	}
}
