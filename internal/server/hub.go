package server

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Event is a single message on the websocket stream.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is local-only; the view layer may be served from anywhere.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsClient struct {
	conn *websocket.Conn
	send chan Event
}

// Hub fans component events out to every connected websocket client.
type Hub struct {
	mu        sync.Mutex
	clients   map[*wsClient]struct{}
	broadcast chan Event
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*wsClient]struct{}),
		broadcast: make(chan Event, 64),
	}
}

// Run delivers broadcast events to all clients. Slow clients are dropped
// rather than allowed to stall the stream.
func (h *Hub) Run() {
	for event := range h.broadcast {
		h.mu.Lock()
		for client := range h.clients {
			select {
			case client.send <- event:
			default:
				delete(h.clients, client)
				close(client.send)
			}
		}
		h.mu.Unlock()
	}
}

// Broadcast queues an event for delivery. It never blocks the caller;
// if the queue is full the event is dropped.
func (h *Hub) Broadcast(event Event) {
	select {
	case h.broadcast <- event:
	default:
		slog.Debug("event dropped, broadcast queue full", "type", event.Type)
	}
}

// Serve upgrades the request and streams events until the client leaves.
func (h *Hub) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{conn: conn, send: make(chan Event, 16)}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(client)
	h.readLoop(client)
}

func (h *Hub) writeLoop(client *wsClient) {
	defer client.conn.Close()
	for event := range client.send {
		if err := client.conn.WriteJSON(event); err != nil {
			return
		}
	}
}

// readLoop discards inbound frames; the stream is one-way. It exists to
// notice the client disconnecting.
func (h *Hub) readLoop(client *wsClient) {
	defer h.remove(client)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}
