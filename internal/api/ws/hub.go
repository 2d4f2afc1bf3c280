package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Shreyas165/Find-My-Teacher/internal/models"
	"github.com/Shreyas165/Find-My-Teacher/internal/observability"
	"github.com/Shreyas165/Find-My-Teacher/pkg/dto"
)

const writeWait = 10 * time.Second

// Client represents a connected WebSocket client.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	action string // optional filter: created, updated or deleted
}

// Hub maintains active WebSocket clients and broadcasts directory events.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan dto.DirectoryEvent
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
}

// NewHub accepts connections from allowedOrigins; "*" allows any origin.
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan dto.DirectoryEvent, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// Run starts the hub event loop until ctx is done. Call this in a goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			observability.WSConnections.Set(0)
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			observability.WSConnections.Inc()
			slog.Debug("ws client connected", "filter", client.action)

		case client := <-h.unregister:
			h.remove(client)
			slog.Debug("ws client disconnected")

		case evt := <-h.broadcast:
			data, err := json.Marshal(evt)
			if err != nil {
				slog.Error("marshal ws event", "error", err)
				continue
			}
			var slow []*Client
			h.mu.RLock()
			for client := range h.clients {
				if client.action != "" && client.action != evt.Action {
					continue
				}
				select {
				case client.send <- data:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()
			// Client buffer full, disconnect.
			for _, client := range slow {
				h.remove(client)
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		observability.WSConnections.Dec()
	}
}

// Publish queues a directory event for all connected clients.
func (h *Hub) Publish(ctx context.Context, evt models.DirectoryEvent) error {
	select {
	case h.broadcast <- toDTO(evt):
		return nil
	case <-h.done:
		return fmt.Errorf("broadcast directory event: hub stopped")
	case <-ctx.Done():
		return fmt.Errorf("broadcast directory event: %w", ctx.Err())
	}
}

func toDTO(evt models.DirectoryEvent) dto.DirectoryEvent {
	return dto.DirectoryEvent{
		ID:        evt.ID,
		Action:    string(evt.Action),
		PersonID:  evt.PersonID,
		Name:      evt.Name,
		Actor:     evt.Actor,
		Timestamp: evt.Timestamp.Format(time.RFC3339),
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWS handles WebSocket upgrade requests.
func (h *Hub) HandleWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "error", err)
		return
	}

	client := &Client{
		conn:   conn,
		send:   make(chan []byte, 64),
		action: c.Query("action"),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h)
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	for {
		// Incoming messages are ignored; the loop only detects disconnection.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
