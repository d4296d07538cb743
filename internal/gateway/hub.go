// Package gateway fans scan results out to WebSocket subscribers.
// Each completed scan is broadcast as one envelope; late joiners get
// the latest scan snapshot on connect.
package gateway

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"screener-systemv1/internal/model"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Dashboard is served from a different origin in development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub manages WebSocket clients and scan-result fan-out.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	latest  json.RawMessage // last broadcast envelope
	seq     int64
}

// NewHub creates a new Hub for managing WS clients.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
	}
}

// BroadcastScan sends one scan's results to every connected client and
// stores the envelope as the snapshot for late joiners.
func (h *Hub) BroadcastScan(scanID string, asOf time.Time, results map[string][]model.Signal) {
	h.mu.Lock()
	h.seq++
	envelope, err := json.Marshal(map[string]interface{}{
		"type":    "scan",
		"scan_id": scanID,
		"as_of":   asOf.Format("2006-01-02"),
		"seq":     h.seq,
		"signals": results,
		"ts":      time.Now().Format(time.RFC3339Nano),
	})
	if err != nil {
		h.mu.Unlock()
		log.Printf("[gateway] envelope marshal error: %v", err)
		return
	}
	h.latest = envelope

	for client := range h.clients {
		select {
		case client.send <- envelope:
		default:
			// Slow client: drop the frame rather than block the scan loop.
		}
	}
	count := len(h.clients)
	h.mu.Unlock()

	log.Printf("[gateway] broadcast scan %s to %d clients", scanID, count)
}

// HandleWS upgrades an HTTP connection to WebSocket and registers the client.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[gateway] ws upgrade error: %v", err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 64),
		hub:  h,
	}

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	snapshot := h.latest
	h.mu.Unlock()

	log.Printf("[gateway] ws client connected (%d total)", count)

	if snapshot != nil {
		client.send <- snapshot
	}
	go client.writePump()
	go client.readPump()
}

// RemoveClient removes a client from the hub.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
