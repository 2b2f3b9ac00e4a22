package realtime

import (
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Clients only listen; anything they send is read and discarded.
	maxMessageSize = 4096

	sendBuffer = 64
)

// Client is the link between one websocket connection and the hub. UserID is
// empty for anonymous subscribers.
type Client struct {
	hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID string
}

func newClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, sendBuffer),
	}
}

// ReadPump keeps the connection's deadlines fresh and unregisters the client
// when the peer goes away. Unregistering closes Send, which stops WritePump;
// WritePump owns every write and the final Close.
func (c *Client) ReadPump() {
	defer c.hub.UnregisterClient(c)

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { return c.Conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket read failed", zap.String("user_id", c.UserID), zap.Error(err))
			}
			return
		}
	}
}

// WritePump forwards queued notifications and pings the peer.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// hub closed the channel
				_ = c.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down"))
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Run pumps the connection until either side closes it. It returns only
// after both pumps have stopped, so the connection is no longer in use.
func (c *Client) Run() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.WritePump()
	}()
	c.ReadPump()
	<-done
}

// TrySend queues message without blocking; it reports false when the
// message was dropped.
func (c *Client) TrySend(message []byte) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			// send on a channel closed by UnregisterClient
			sent = false
		}
	}()

	select {
	case c.Send <- message:
		return true
	default:
		c.hub.metrics.RecordDrop()
		c.hub.logger.Warn("websocket buffer full; dropped notification", zap.String("user_id", c.UserID))
		return false
	}
}
