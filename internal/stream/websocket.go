package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/pirateclash/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// envelope is the WebSocket frame for one event
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ServeWS streams the player's battle events over a WebSocket.
// Incoming frames are read only to notice the peer going away.
func (m *HubManager) ServeWS(w http.ResponseWriter, r *http.Request, playerID model.PlayerID) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Warn("websocket upgrade failed",
			slog.String("player_id", string(playerID)),
			slog.String("error", err.Error()))
		return
	}

	client := m.Subscribe(playerID, TransportWebSocket)
	go client.readPump(conn)
	client.writePump(conn)
}

// readPump drains the connection until it errors, then unregisters the client
func (c *Client) readPump(conn *websocket.Conn) {
	defer c.Close()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump forwards hub messages and keepalive pings to the peer
func (c *Client) writePump(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	if err := writeEnvelope(conn, Message{Event: "connected", Data: []byte(`{"status":"connected"}`)}); err != nil {
		return
	}

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := writeEnvelope(conn, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeEnvelope(conn *websocket.Conn, message Message) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(envelope{Event: message.Event, Data: message.Data})
}
