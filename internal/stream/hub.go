// Package stream pushes battle events to connected clients over SSE or WebSocket.
package stream

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/pirateclash/internal/api/response"
	"github.com/mcoot/pirateclash/internal/model"
)

// Message is one named event with a JSON payload
type Message struct {
	Event string
	Data  []byte
}

// Hub fans out messages to every connection of a single player.
// Membership changes happen under mu; Run only delivers broadcasts.
type Hub struct {
	playerID model.PlayerID
	clients  map[*Client]bool
	closed   bool
	mu       sync.RWMutex
	logger   *slog.Logger

	broadcast chan Message
	done      chan struct{}
}

// NewHub creates a new Hub for a player
func NewHub(playerID model.PlayerID, logger *slog.Logger) *Hub {
	return &Hub{
		playerID:  playerID,
		clients:   make(map[*Client]bool),
		logger:    logger.With(slog.String("player_id", string(playerID))),
		broadcast: make(chan Message, 256),
		done:      make(chan struct{}),
	}
}

// Run starts the hub's delivery loop
func (h *Hub) Run() {
	h.logger.Debug("stream hub started")
	for {
		select {
		case message := <-h.broadcast:
			h.deliver(message)
		case <-h.done:
			h.logger.Debug("stream hub stopped")
			return
		}
	}
}

func (h *Hub) deliver(message Message) {
	h.mu.RLock()
	dropped := 0
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			dropped++
		}
	}
	h.mu.RUnlock()
	if dropped > 0 {
		h.logger.Warn("stream message dropped - client buffer full",
			slog.String("event", message.Event),
			slog.Int("dropped", dropped))
	}
}

// Register adds a client to the hub. It reports false if the hub is closed.
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[client] = true
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("stream client registered",
		slog.String("transport", client.transport),
		slog.Int("total_clients", clientCount))
	return true
}

// Unregister removes a client from the hub and closes its queue
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("stream client unregistered",
		slog.String("transport", client.transport),
		slog.Duration("connection_duration", time.Since(client.connectedAt)),
		slog.Int("total_clients", clientCount))
}

// Broadcast queues a message for all clients
func (h *Hub) Broadcast(message Message) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("stream broadcast dropped - hub buffer full")
	}
}

// Close disconnects every client and stops the hub
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	close(h.done)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// formatSSE renders a message in text/event-stream framing.
// Every data line gets its own "data: " prefix.
func formatSSE(message Message) []byte {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(message.Event)
	b.WriteString("\n")
	for _, line := range splitLines(string(message.Data)) {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

// HubManager owns one hub per player with open connections
type HubManager struct {
	hubs   map[model.PlayerID]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.PlayerID]*Hub),
		logger: logger.With(slog.String("component", "stream")),
	}
}

// GetOrCreateHub returns the player's hub, starting one if needed
func (m *HubManager) GetOrCreateHub(playerID model.PlayerID) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[playerID]; ok {
		return hub
	}

	hub := NewHub(playerID, m.logger)
	m.hubs[playerID] = hub
	go hub.Run()
	return hub
}

// GetHub returns the player's hub, or nil if they have none
func (m *HubManager) GetHub(playerID model.PlayerID) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[playerID]
}

// Publish pushes a battle event to the player's connections, if any
func (m *HubManager) Publish(event model.BattleEvent) {
	hub := m.GetHub(event.PlayerID)
	if hub == nil {
		return
	}

	data, err := json.Marshal(response.BattleEventFromModel(event))
	if err != nil {
		m.logger.Error("failed to encode battle event",
			slog.String("player_id", string(event.PlayerID)),
			slog.String("error", err.Error()))
		return
	}
	hub.Broadcast(Message{Event: string(event.Type), Data: data})
}

// RemoveHub removes and closes a hub
func (m *HubManager) RemoveHub(playerID model.PlayerID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[playerID]; ok {
		hub.Close()
		delete(m.hubs, playerID)
	}
}

// CleanupEmptyHubs removes hubs with no clients and returns how many went
func (m *HubManager) CleanupEmptyHubs() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, hub := range m.hubs {
		if hub.ClientCount() == 0 {
			hub.Close()
			delete(m.hubs, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("stream empty hubs cleaned up", slog.Int("removed", removed))
	}
	return removed
}

// HubCount returns the number of live hubs
func (m *HubManager) HubCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hubs)
}

// Close shuts down every hub
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, id)
	}
}

// Subscribe registers a new client on the player's hub. A hub closed by a
// concurrent cleanup is replaced.
func (m *HubManager) Subscribe(playerID model.PlayerID, transport string) *Client {
	for {
		hub := m.GetOrCreateHub(playerID)
		client := NewClient(hub, playerID, transport)
		if hub.Register(client) {
			return client
		}
		m.mu.Lock()
		if m.hubs[playerID] == hub {
			delete(m.hubs, playerID)
		}
		m.mu.Unlock()
	}
}
