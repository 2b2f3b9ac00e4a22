package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/feed-service/internal/observability"
)

const defaultMaxClients = 10000

// ErrHubFull is returned when the connection limit is reached.
var ErrHubFull = errors.New("server connection limit reached")

// ErrHubClosed is returned by Register after Shutdown.
var ErrHubClosed = errors.New("hub is shut down")

// Hub tracks the websocket clients of this instance.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	maxClients int
	closed     bool
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger, metrics *observability.Metrics) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		maxClients: defaultMaxClients,
		logger:     logger,
		metrics:    metrics,
	}
}

// Register adds a connection; userID may be empty.
func (h *Hub) Register(conn *websocket.Conn, userID string) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if len(h.clients) >= h.maxClients {
		return nil, ErrHubFull
	}

	client := newClient(h, conn, userID)
	h.clients[client] = struct{}{}
	h.metrics.ClientConnected()
	return client, nil
}

// UnregisterClient removes the client and closes its send channel.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
	h.metrics.ClientDisconnected()
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastAll queues message for every connected client.
func (h *Hub) BroadcastAll(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.TrySend(message)
	}
}

// Publish delivers payload to this instance's clients only. It is the
// publisher used when Redis is unavailable.
func (h *Hub) Publish(_ context.Context, payload []byte) error {
	h.BroadcastAll(payload)
	return nil
}

// StartWiring subscribes the hub to the notifier's channel.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartSubscriber(ctx, func(payload string) {
		h.BroadcastAll([]byte(payload))
	})
}

// Shutdown rejects new registrations and closes every client's send queue;
// each WritePump then sends the close frame and closes its own connection,
// so the hub never writes to a socket itself.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for client := range h.clients {
		delete(h.clients, client)
		close(client.Send)
		h.metrics.ClientDisconnected()
	}
	return nil
}
