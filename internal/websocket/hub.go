// Package websocket pushes page change notices to connected browsers.
// Polling stays the source of truth; a notice only makes the next version
// check happen sooner.
package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"mockery-backend/internal/models"
)

const (
	channelPrefix = "page_updates:"
	writeWait     = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// PageUpdate is the message sent to subscribers of a page.
type PageUpdate struct {
	Type    string `json:"type"` // "version" or "deleted"
	Page    string `json:"page"`
	Version string `json:"version,omitempty"`
}

// Hub tracks connections per page. With a Redis client, notices travel
// through pub/sub so every instance sharing the page directory sees them.
type Hub struct {
	mu          sync.Mutex
	connections map[string][]*websocket.Conn
	redisClient *redis.Client
	cancelFuncs map[string]context.CancelFunc
}

func NewHub(redisClient *redis.Client) *Hub {
	return &Hub{
		connections: make(map[string][]*websocket.Conn),
		redisClient: redisClient,
		cancelFuncs: make(map[string]context.CancelFunc),
	}
}

// HandleWebSocket serves GET /api/ws?page=<name>.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	page := models.SanitizePageName(r.URL.Query().Get("page"))
	if page == "" {
		http.Error(w, "Brak nazwy strony", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.registerConnection(page, conn)

	go func() {
		defer h.unregisterConnection(page, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (h *Hub) registerConnection(page string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[page] = append(h.connections[page], conn)

	if h.redisClient != nil && len(h.connections[page]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[page] = cancel
		go h.subscribeToPubSub(ctx, page)
	}

	log.Printf("WebSocket connected: page %s (total: %d)", page, len(h.connections[page]))
}

func (h *Hub) unregisterConnection(page string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	conns := h.connections[page]
	for i, c := range conns {
		if c == conn {
			h.connections[page] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	if len(h.connections[page]) == 0 {
		delete(h.connections, page)
		if cancel, ok := h.cancelFuncs[page]; ok {
			cancel()
			delete(h.cancelFuncs, page)
		}
	}

	log.Printf("WebSocket disconnected: page %s", page)
}

func (h *Hub) subscribeToPubSub(ctx context.Context, page string) {
	pubsub := h.redisClient.Subscribe(ctx, channelPrefix+page)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(page, []byte(msg.Payload))
		}
	}
}

// broadcast holds the exclusive lock: a connection supports one writer.
func (h *Hub) broadcast(page string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, conn := range h.connections[page] {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("WebSocket write failed for page %s: %v", page, err)
		}
	}
}

// PageChanged publishes a notice for page. A zero modified time means the
// page was deleted.
func (h *Hub) PageChanged(page string, modified time.Time) {
	update := PageUpdate{Type: "deleted", Page: page}
	if !modified.IsZero() {
		update = PageUpdate{Type: "version", Page: page, Version: models.VersionOf(modified)}
	}
	data, err := json.Marshal(update)
	if err != nil {
		return
	}

	if h.redisClient == nil {
		h.broadcast(page, data)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	if err := h.redisClient.Publish(ctx, channelPrefix+page, data).Err(); err != nil {
		log.Printf("Failed to publish update for page %s: %v", page, err)
	}
}

// Close drops every connection and subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for page, conns := range h.connections {
		for _, c := range conns {
			c.Close()
		}
		delete(h.connections, page)
	}
	for page, cancel := range h.cancelFuncs {
		cancel()
		delete(h.cancelFuncs, page)
	}
}
