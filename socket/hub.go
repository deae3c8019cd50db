package socket

import (
	"context"
	"encoding/json"
	"sync"

	"notesapp/internal/note/model"
	"notesapp/pkg/logger"
)

const (
	NoteCreatedType = "NOTE_CREATED"
	NoteUpdatedType = "NOTE_UPDATED"
	NoteDeletedType = "NOTE_DELETED"
)

const broadcastBuffer = 64

// Event tells a user's open clients that one of their notes changed.
type Event struct {
	Type   string     `json:"type"`
	UserID string     `json:"user_id"`
	Note   model.Note `json:"note"`
}

// Hub fans note events out to the websocket clients of the owning user.
// Events are only ever delivered to connections of Event.UserID.
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
	done       chan struct{}
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, broadcastBuffer),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and events until ctx is cancelled, then
// closes every client.
func (h *Hub) Run(ctx context.Context) error {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]bool)
			}
			h.clients[client.UserID][client] = true
			h.mu.Unlock()
			logger.Sugar.Debugf("Client subscribed to notes of user %s", client.UserID)

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case ev := <-h.broadcast:
			h.deliver(ev)
		}
	}
}

// Publish queues ev for delivery. It never blocks the caller: events are
// dropped when the hub has stopped or its buffer is full.
func (h *Hub) Publish(ev Event) {
	select {
	case h.broadcast <- ev:
	case <-h.done:
	default:
		logger.Sugar.Warnf("Event buffer full, dropping %s for user %s", ev.Type, ev.UserID)
	}
}

// Subscribers returns how many clients are listening for userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID])
}

func (h *Hub) deliver(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling note event: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients[ev.UserID] {
		select {
		case client.Send <- payload:
		default:
			logger.Sugar.Warnf("Client of user %s is lagging, dropping it", client.UserID)
			h.remove(client)
		}
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(client *Client) {
	userClients, ok := h.clients[client.UserID]
	if !ok || !userClients[client] {
		return
	}

	delete(userClients, client)
	close(client.Send)
	if len(userClients) == 0 {
		delete(h.clients, client.UserID)
	}
}

func (h *Hub) shutdown() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, userClients := range h.clients {
		for client := range userClients {
			close(client.Send)
		}
	}
	h.clients = make(map[string]map[*Client]bool)
}
