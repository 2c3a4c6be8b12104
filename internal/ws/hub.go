package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Client is a single websocket connection subscribed to the feed.
type Client struct {
	UserID uint
	Send   chan []byte
}

// Hub fans notification events out to every connected client. The store
// stays the source of truth; clients that miss an event pick the change up
// on their next poll.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.Send)
	}
}

// Broadcast sends an event to every client. Clients with a full send buffer
// are skipped rather than blocking the caller's request.
func (h *Hub) Broadcast(event string, payload interface{}) {
	data, err := json.Marshal(map[string]interface{}{"type": event, "payload": payload})
	if err != nil {
		log.Printf("[ws] marshal broadcast: %v", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}
