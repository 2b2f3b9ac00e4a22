package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/feed-service/internal/auth"
	"github.com/spec-kit/feed-service/internal/realtime"
)

const wsUserKey = "ws_user_id"

// RealtimeHandler upgrades /ws connections and attaches them to the hub.
type RealtimeHandler struct {
	hub    *realtime.Hub
	logger *zap.Logger
}

// NewRealtimeHandler constructs handler.
func NewRealtimeHandler(hub *realtime.Hub, logger *zap.Logger) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, logger: logger}
}

// Upgrade rejects plain HTTP requests and records the optional identity for
// the socket.
func (h *RealtimeHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	userID := ""
	if identity, ok := auth.IdentityFromCtx(c); ok {
		userID = identity.UserID
	}
	c.Locals(wsUserKey, userID)
	return c.Next()
}

// Serve is the websocket endpoint.
func (h *RealtimeHandler) Serve() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals(wsUserKey).(string)
		client, err := h.hub.Register(conn, userID)
		if err != nil {
			h.logger.Warn("websocket rejected", zap.Error(err))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, err.Error()))
			_ = conn.Close()
			return
		}

		client.Run()
	})
}
