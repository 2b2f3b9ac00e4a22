package realtime

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const socketReadTimeout = 2 * time.Second

// serveHub starts a real listener whose /ws route registers sockets on hub.
func serveHub(t *testing.T, hub *Hub) string {
	t.Helper()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		client, err := hub.Register(conn, "u1")
		if err != nil {
			return
		}
		client.Run()
	}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return "ws://" + ln.Addr().String() + "/ws"
}

func dial(t *testing.T, url string) *gws.Conn {
	t.Helper()
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestClient_ShutdownSendsGoingAway(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil, nil)
	conn := dial(t, serveHub(t, hub))
	require.Eventually(t, func() bool { return hub.Count() == 1 }, socketReadTimeout, testPollInterval)

	// a notification in flight while the hub shuts down
	require.NoError(t, hub.Publish(context.Background(), []byte(`{"action":"create"}`)))
	require.NoError(t, hub.Shutdown(context.Background()))

	_ = conn.SetReadDeadline(time.Now().Add(socketReadTimeout))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `{"action":"create"}`, string(msg))

	_, _, err = conn.ReadMessage()
	assert.True(t, gws.IsCloseError(err, gws.CloseGoingAway), "unexpected read error: %v", err)
	assert.Zero(t, hub.Count())
}

func TestClient_PeerCloseUnregisters(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil, nil)
	conn := dial(t, serveHub(t, hub))
	require.Eventually(t, func() bool { return hub.Count() == 1 }, socketReadTimeout, testPollInterval)

	require.NoError(t, conn.WriteMessage(gws.CloseMessage,
		gws.FormatCloseMessage(gws.CloseNormalClosure, "bye")))
	_ = conn.Close()

	assert.Eventually(t, func() bool { return hub.Count() == 0 }, socketReadTimeout, testPollInterval)
}
