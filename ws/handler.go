package ws

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"pokerpulse-server/utils"

	"golang.org/x/net/websocket"
)

type clientMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// Handler upgrades /ws requests and runs the per-connection read loop on the
// given hub. The only inbound message with any effect is the auth handshake;
// everything else is ignored. Connections work fine without authenticating.
func Handler(hub *Hub) http.Handler {
	return websocket.Handler(func(sock *websocket.Conn) {
		conn := hub.add(sock)
		defer hub.remove(conn)

		for {
			var raw string
			if err := websocket.Message.Receive(sock, &raw); err != nil {
				if err != io.EOF {
					log.Printf("ws: read: %v", err)
				}
				return
			}

			var msg clientMessage
			if err := json.Unmarshal([]byte(raw), &msg); err != nil {
				log.Printf("ws: bad message: %v", err)
				continue
			}

			if msg.Type != "auth" {
				continue
			}

			claims, err := utils.VerifyAccessToken(msg.Token)
			if err != nil {
				send(conn, map[string]interface{}{"type": "auth_error", "error": "Invalid token"})
				continue
			}

			conn.UserID = claims.ID
			send(conn, map[string]interface{}{"type": "authenticated"})
		}
	})
}

func send(conn *Conn, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := conn.write(data); err != nil {
		log.Printf("ws: write: %v", err)
	}
}
