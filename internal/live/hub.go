package live

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeWait bounds one frame write, so a stalled browser cannot hold up
// the loop goroutine that broadcasts.
const writeWait = 10 * time.Second

// Frame is one published render of the document.
type Frame struct {
	Seq  uint64 `json:"seq"`
	HTML string `json:"html"`
}

// ClientEvent is an event reported by a browser.
type ClientEvent struct {
	Path  []int  `json:"path"`
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(data []byte, wait time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(wait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub manages WebSocket connections.
type Hub struct {
	clients  map[*client]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	logger   *slog.Logger

	writeWait time.Duration

	// current returns the frame sent to new connections.
	current func() Frame

	// onEvent receives decoded client events.
	onEvent func(ClientEvent)
}

// NewHub creates a hub.
func NewHub(logger *slog.Logger, current func() Frame, onEvent func(ClientEvent)) *Hub {
	return &Hub{
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger:    logger,
		writeWait: writeWait,
		current:   current,
		onEvent:   onEvent,
	}
}

// HandleWebSocket upgrades the connection, sends the current frame and
// then reads client events until the connection closes.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	if h.current != nil {
		if data, err := json.Marshal(h.current()); err == nil {
			if err := c.send(data, h.writeWait); err != nil {
				h.drop(c)
				return
			}
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var ev ClientEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			h.logger.Warn("malformed client event", "error", err)
			continue
		}
		if h.onEvent != nil {
			h.onEvent(ev)
		}
	}
	h.drop(c)
}

// Broadcast sends f to all clients.
func (h *Hub) Broadcast(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.send(data, h.writeWait); err != nil {
			h.drop(c)
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.conn.Close()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close closes all client connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		c.conn.Close()
		delete(h.clients, c)
	}
}
