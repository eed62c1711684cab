// Package websocket pushes live map snapshots to connected browsers.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/apex/log"

	"report-dispatch/models"
)

// Hub manages WebSocket connections and broadcasting
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound messages for every client
	broadcast chan []byte

	register   chan *Client
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	mutex sync.RWMutex

	connectedClients  int
	lastBroadcastTick int64
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.connectedClients = 0
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.connectedClients = len(h.clients)
			h.mutex.Unlock()
			log.WithField("client", client.id).Infof("Client connected. Total clients: %d", h.ClientCount())

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.connectedClients = len(h.clients)
			}
			h.mutex.Unlock()
			log.WithField("client", client.id).Infof("Client disconnected. Total clients: %d", h.ClientCount())

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// slow consumer
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.connectedClients = len(h.clients)
			h.mutex.Unlock()
		}
	}
}

// Encode builds the wire form of a broadcast message
func Encode(msgType string, data any) ([]byte, error) {
	return json.Marshal(models.BroadcastMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// Broadcast queues a message for all connected clients. It never blocks the
// caller: when the queue is full the message is dropped.
func (h *Hub) Broadcast(msgType string, data any, tick int64) {
	message, err := Encode(msgType, data)
	if err != nil {
		log.Errorf("Failed to marshal broadcast message: %v", err)
		return
	}

	select {
	case h.broadcast <- message:
		h.mutex.Lock()
		h.lastBroadcastTick = tick
		h.mutex.Unlock()
	default:
		log.Warnf("Broadcast queue full, dropping %s message for tick %d", msgType, tick)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.connectedClients
}

// LastBroadcastTick returns the tick of the last queued broadcast
func (h *Hub) LastBroadcastTick() int64 {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.lastBroadcastTick
}
