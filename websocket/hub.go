package websocket

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type Client struct {
	UserID uuid.UUID
	Conn   Conn
}

type envelope struct {
	userID uuid.UUID
	event  interface{}
}

// Hub fans committed wallet and withdrawal events out to the owner's open connections.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan envelope

	mu      sync.RWMutex
	clients map[uuid.UUID]map[Conn]struct{}
	logger  zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan envelope, 256),
		clients:    make(map[uuid.UUID]map[Conn]struct{}),
		logger:     logger.With().Str("component", "ws_hub").Logger(),
	}
}

func (h *Hub) Register(c *Client)   { h.register <- c }
func (h *Hub) Unregister(c *Client) { h.unregister <- c }

// Publish queues event for userID. Events are dropped when the queue is full.
func (h *Hub) Publish(userID uuid.UUID, event interface{}) {
	select {
	case h.broadcast <- envelope{userID: userID, event: event}:
	default:
		h.logger.Warn().Str("user_id", userID.String()).Msg("event queue full, dropping event")
	}
}

// Connected reports how many connections userID has open.
func (h *Hub) Connected(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[Conn]struct{})
			}
			h.clients[client.UserID][client.Conn] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug().Str("user_id", client.UserID.String()).Msg("client registered")
		case client := <-h.unregister:
			h.remove(client.UserID, client.Conn)
			h.logger.Debug().Str("user_id", client.UserID.String()).Msg("client unregistered")
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg envelope) {
	h.mu.RLock()
	conns := make([]Conn, 0, len(h.clients[msg.userID]))
	for conn := range h.clients[msg.userID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(msg.event); err != nil {
			h.logger.Warn().Err(err).Str("user_id", msg.userID.String()).Msg("write failed, dropping client")
			conn.Close()
			h.remove(msg.userID, conn)
		}
	}
}

func (h *Hub) remove(userID uuid.UUID, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.clients[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.clients, userID)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conns := range h.clients {
		for conn := range conns {
			conn.Close()
		}
		delete(h.clients, userID)
	}
}
