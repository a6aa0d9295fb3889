// Package notifications delivers live admin events, such as new comments,
// to connected staff websocket clients.
package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"lukeblog/internal/middleware"

	"github.com/gofiber/websocket/v2"
)

const (
	hubName         = "admin feed"
	maxConnsPerUser = 5
	maxTotalConns   = 500
)

// ErrHubClosed is returned by Register after Shutdown.
var ErrHubClosed = errors.New("hub is shut down")

// Hub fans events out to staff connections, keyed by user id.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	closed     bool
}

func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*Client]struct{})}
}

// Register adds a connection for userID, enforcing per-user and global limits.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.totalConns >= maxTotalConns {
		return nil, errors.New("server connection limit reached")
	}
	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, errors.New("user connection limit reached")
	}

	client := newClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	middleware.ActiveWebSockets.Inc()
	return client, nil
}

// UnregisterClient removes client and closes its send buffer. Safe to call twice.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
	h.totalConns--
	middleware.ActiveWebSockets.Dec()
	close(client.Send)
}

// Count returns the number of registered connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}

// BroadcastAll sends message to every connected client.
func (h *Hub) BroadcastAll(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(message)
		}
	}
}

// StartWiring feeds the hub from n: through Redis pub/sub when n has a
// client, otherwise directly in process.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	if !n.Distributed() {
		n.deliverLocal(h.BroadcastAll)
		return nil
	}
	return n.Subscribe(ctx, func(payload []byte) {
		h.BroadcastAll(payload)
	})
}

// Shutdown closes every connection with a going-away frame.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	for userID, clients := range h.conns {
		for client := range clients {
			if client.Conn != nil {
				msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")
				if err := client.Conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
					middleware.Logger.Debug("failed to write close frame",
						slog.Uint64("user_id", uint64(userID)),
						slog.String("error", err.Error()),
					)
				}
				_ = client.Conn.Close()
			}
			close(client.Send)
			middleware.ActiveWebSockets.Dec()
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
