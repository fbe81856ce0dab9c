package brackets

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Event is one spectator-facing update, scoped to the channel (room) whose
// battle produced it.
type Event struct {
	Type      string `json:"type"` // "LOBBY_UPDATED", "MATCH_RESOLVED", "BATTLE_COMPLETED", ...
	Payload   any    `json:"payload"`
	ChannelID string `json:"channel_id,omitempty"`
}

// Client is one websocket spectator attached to a room.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	room string

	mu     sync.Mutex
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, room string) *Client {
	return &Client{hub: hub, conn: conn, send: make(chan []byte, 16), room: room}
}

// Hub fans battle events out to spectators grouped by channel room.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	log        *slog.Logger

	mu    sync.RWMutex
	rooms map[string]map[*Client]bool
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		log:        log,
	}
}

// Run processes client registration until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.room]; !ok {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.room]; ok {
				if clients[client] {
					client.close()
					delete(clients, client)
					if len(clients) == 0 {
						delete(h.rooms, client.room)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register attaches a client and starts its pumps.
func (h *Hub) Register(c *Client) {
	h.register <- c
	go c.writePump()
	go c.readPump()
}

// Broadcast sends an event to every spectator in its room. Slow clients
// are skipped, never blocked on.
func (h *Hub) Broadcast(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("marshal hub event", slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[ev.ChannelID] {
		client.mu.Lock()
		if !client.closed {
			select {
			case client.send <- payload:
			default:
			}
		}
		client.mu.Unlock()
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, clients := range h.rooms {
		for client := range clients {
			client.close()
		}
		delete(h.rooms, room)
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Spectators are read-only; inbound frames only keep the connection
	// alive.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
