// Package events pushes store-change notifications to websocket clients.
// It is a thin consumer of the store subscription contract: main wires each
// store's Subscribe into Broadcast.
package events

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"forum/pkg/logger"
)

// Event is one change announcement. Payload carries the store snapshot (or
// a reduced form of it) that triggered the broadcast.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*websocket.Conn]bool),
	}
}

// Serve upgrades the request and keeps the connection registered until the
// client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log(r.Context()).Errorf("events: can't upgrade connection: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	// Writes happen under the hub lock; gorilla allows one writer at a time.
	err = conn.WriteJSON(Event{Type: "connected"})
	h.mu.Unlock()
	if err != nil {
		h.drop(conn)
		return
	}

	// Reader loop only detects disconnects; clients don't send anything.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends the event to every connected client, dropping the ones
// that fail to take it.
func (h *Hub) Broadcast(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if err := c.WriteJSON(e); err != nil {
			delete(h.clients, c)
			c.Close()
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if h.clients[conn] {
		delete(h.clients, conn)
		conn.Close()
	}
	h.mu.Unlock()
}
