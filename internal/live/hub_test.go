package live

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, hub *Hub, userID string) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, r.URL.Query().Get("user"))
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return hub.Connections(userID) > 0 }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func TestHub_PushReachesEveryConnection(t *testing.T) {
	hub := NewHub()
	first := dial(t, hub, "u1")
	second := dial(t, hub, "u1")
	require.Eventually(t, func() bool { return hub.Connections("u1") == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Push("u1", "task:updated", map[string]string{"title": "Update", "content": "x was updated"}))

	for _, conn := range []*websocket.Conn{first, second} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got struct {
			Event string            `json:"event"`
			Data  map[string]string `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, "task:updated", got.Event)
		assert.Equal(t, "Update", got.Data["title"])
		assert.Equal(t, "x was updated", got.Data["content"])
	}
}

func TestHub_PushWithoutConnections(t *testing.T) {
	hub := NewHub()
	assert.NoError(t, hub.Push("nobody", "task:created", nil))
	assert.Equal(t, 0, hub.Connections("nobody"))
}

func TestHub_UnregistersOnClose(t *testing.T) {
	hub := NewHub()
	conn := dial(t, hub, "u2")

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Connections("u2") == 0 }, 2*time.Second, 10*time.Millisecond)
}
