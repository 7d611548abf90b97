// internal/websocket/hub.go
// WebSocket hub manages client connections and broadcasts schedule events to
// tournament subscribers.

package websocket

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// Hub maintains active websocket connections and broadcasts messages
type Hub struct {
	// Registered clients by tournament ID
	tournaments map[string]map[*Client]bool

	// Register client
	register chan *Client

	// Unregister client
	unregister chan *Client

	// Broadcast messages to tournament subscribers
	broadcast chan *Message

	logger *logrus.Logger

	// Mutex for concurrent access
	mu sync.RWMutex
}

// Message represents a WebSocket message
type Message struct {
	Type              string      `json:"type"`
	TournamentID      string      `json:"tournament_id,omitempty"`
	ScheduleVersionID string      `json:"schedule_version_id,omitempty"`
	Data              interface{} `json:"data,omitempty"`
}

// NewHub creates a new WebSocket hub
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		tournaments: make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *Message, 256),
		logger:      logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// NotifyScheduleEvent queues a schedule change event for tournament
// subscribers. Never blocks the caller.
func (h *Hub) NotifyScheduleEvent(eventType, tournamentID, versionID string, payload interface{}) {
	msg := &Message{
		Type:              eventType,
		TournamentID:      tournamentID,
		ScheduleVersionID: versionID,
		Data:              payload,
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping schedule event")
	}
}

// registerClient adds a new client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for tournamentID := range client.tournaments {
		if h.tournaments[tournamentID] == nil {
			h.tournaments[tournamentID] = make(map[*Client]bool)
		}
		h.tournaments[tournamentID][client] = true
	}

	h.logger.WithField("tournaments", len(client.tournaments)).Debug("websocket client registered")
}

// Subscribe adds a client to a tournament's broadcast set.
func (h *Hub) Subscribe(client *Client, tournamentID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.tournaments[tournamentID] = true
	if h.tournaments[tournamentID] == nil {
		h.tournaments[tournamentID] = make(map[*Client]bool)
	}
	h.tournaments[tournamentID][client] = true
}

// unregisterClient removes a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeClient(client)
}

// removeClient removes a client from all tournament sets. Caller holds mu.
func (h *Hub) removeClient(client *Client) {
	for tournamentID := range client.tournaments {
		if clients, ok := h.tournaments[tournamentID]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.tournaments, tournamentID)
			}
		}
	}
	client.close()
}

// broadcastMessage sends a message to all subscribers of its tournament
func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Warnf("Failed to marshal websocket message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.tournaments[message.TournamentID] {
		select {
		case client.send <- data:
		default:
			// Slow consumer; drop the message rather than block the hub.
		}
	}
}
