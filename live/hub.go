// Package live pushes roster changes to connected dashboards over
// websockets. The engine publishes an event after every registration,
// relocation and team change; dashboards re-render without polling.
package live

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Event types published on the feed.
const (
	EventParticipantRegistered = "PARTICIPANT_REGISTERED"
	EventParticipantMoved      = "PARTICIPANT_MOVED"
	EventRosterReshuffled      = "ROSTER_RESHUFFLED"
	EventTeamCreated           = "TEAM_CREATED"
	EventTeamDeleted           = "TEAM_DELETED"
	EventTeamUpdated           = "TEAM_UPDATED"
)

type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Hub fans events out to every connected client. Register/unregister and
// broadcast all flow through channels serviced by Run.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	logger     *slog.Logger
	mu         sync.RWMutex
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.logger.Info("live client connected", slog.Int("clients", len(h.clients)))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
				h.logger.Info("live client disconnected", slog.Int("clients", len(h.clients)))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer: drop it rather than blocking the feed.
					go func(c *Client) { h.unregister <- c }(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast publishes an event to all connected clients. A nil hub is a
// no-op so services can run without a live feed (tests, CLI tools).
func (h *Hub) Broadcast(eventType string, payload any) {
	if h == nil {
		return
	}
	message, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		h.logger.Error("failed to encode live event", slog.String("type", eventType), slog.Any("error", err))
		return
	}
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("live feed saturated, dropping event", slog.String("type", eventType))
	}
}
