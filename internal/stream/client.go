package stream

import (
	"net/http"
	"time"

	"github.com/mcoot/pirateclash/internal/model"
)

// Transport names
const (
	TransportSSE       = "sse"
	TransportWebSocket = "websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Time allowed to read the next pong from a WebSocket peer
	pongWait = 60 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 64
)

// Client is one open connection
type Client struct {
	hub         *Hub
	playerID    model.PlayerID
	transport   string
	send        chan Message
	connectedAt time.Time
}

// NewClient creates a new client for a hub
func NewClient(hub *Hub, playerID model.PlayerID, transport string) *Client {
	return &Client{
		hub:         hub,
		playerID:    playerID,
		transport:   transport,
		send:        make(chan Message, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// Messages returns the client's outgoing queue. It is closed when the client
// is unregistered or the hub shuts down.
func (c *Client) Messages() <-chan Message {
	return c.send
}

// Close unregisters the client from its hub
func (c *Client) Close() {
	c.hub.Unregister(c)
}

// ServeSSE streams the player's battle events as server-sent events
func (m *HubManager) ServeSSE(w http.ResponseWriter, r *http.Request, playerID model.PlayerID) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := m.Subscribe(playerID, TransportSSE)
	defer client.Close()

	_, _ = w.Write(formatSSE(Message{Event: "connected", Data: []byte(`{"status":"connected"}`)}))
	flusher.Flush()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				return
			}
			if _, err := w.Write(formatSSE(message)); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
