package orderControllers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Mouss911/webnet-back/models"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"

	writeWait  = 5 * time.Second
	sendBuffer = 16
)

// Event is one message on the admin order feed.
type Event struct {
	Type  string       `json:"type"`
	Order models.Order `json:"order"`
}

// client is one connected listener. Only its writeLoop writes to conn.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

func (cl *client) writeLoop() {
	defer cl.conn.Close()
	for msg := range cl.send {
		_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			// Closing the conn ends the read loop, which unregisters the client.
			return
		}
	}
}

// Hub fans order events out to connected admin websocket clients.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*client]struct{}),
	}
}

// GET /api/admin/orders/ws
func (h *Hub) OrderWebSocketHandler(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	cl := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.add(cl)
	defer h.remove(cl)
	go cl.writeLoop()

	// Clients only listen; reading detects when they go away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) add(cl *client) {
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	h.drop(cl)
	h.mu.Unlock()
}

// drop unregisters cl; h.mu must be held.
func (h *Hub) drop(cl *client) {
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
}

// Clients returns the number of connected listeners.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues evt for every client without waiting on the network.
// Clients whose queue is full are dropped. A nil hub discards events.
func (h *Hub) Broadcast(evt Event) {
	if h == nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		slog.Error("encode order event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		select {
		case cl.send <- data:
		default:
			slog.Warn("dropping slow order feed client")
			h.drop(cl)
		}
	}
}
