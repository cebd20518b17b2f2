package notification

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	model "artbid-console/internal/models"
	"artbid-console/internal/testserver"
)

// collector gathers stream deliveries for assertions.
type collector struct {
	mu    sync.Mutex
	items []model.Notification
}

func (c *collector) handle(n model.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, n)
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *collector) last() model.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items[len(c.items)-1]
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func TestStream_DeliversPushedNotifications(t *testing.T) {
	backend := testserver.New("token")
	ts := httptest.NewServer(testserver.Router(backend))
	defer ts.Close()
	defer backend.Close()

	var got collector
	stream := NewStream(wsURL(ts), "U1", got.handle)
	defer stream.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stream.Run(ctx) }()

	require.Eventually(t, func() bool {
		return stream.State() == StateOpen
	}, 2*time.Second, 10*time.Millisecond)

	n := model.Notification{
		NotificationID: "n1",
		Message:        "you were outbid",
		Category:       model.CategoryWarning,
		CreatedAt:      time.Now().UTC(),
	}
	require.Equal(t, 1, backend.Push("U1", n))

	require.Eventually(t, func() bool { return got.len() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, "n1", got.last().NotificationID)
	require.Equal(t, model.CategoryWarning, got.last().Category)
}

func TestStream_CloseStopsRun(t *testing.T) {
	backend := testserver.New("token")
	ts := httptest.NewServer(testserver.Router(backend))
	defer ts.Close()
	defer backend.Close()

	stream := NewStream(wsURL(ts), "U1", func(model.Notification) {})

	done := make(chan error, 1)
	go func() { done <- stream.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		return stream.State() == StateOpen
	}, 2*time.Second, 10*time.Millisecond)

	stream.Close()

	select {
	case err := <-done:
		require.NoError(t, err, "an explicit Close is a clean shutdown")
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}
	require.Equal(t, StateClosed, stream.State())
}

func TestStream_ContextCancelStopsRun(t *testing.T) {
	backend := testserver.New("token")
	ts := httptest.NewServer(testserver.Router(backend))
	defer ts.Close()
	defer backend.Close()

	stream := NewStream(wsURL(ts), "U1", func(model.Notification) {})
	defer stream.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- stream.Run(ctx) }()

	require.Eventually(t, func() bool {
		return stream.State() == StateOpen
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

// A dropped connection must be redialed so deliveries resume without
// any caller intervention.
func TestStream_ReconnectsAfterDrop(t *testing.T) {
	backend := testserver.New("token")
	ts := httptest.NewServer(testserver.Router(backend))
	defer ts.Close()
	defer backend.Close()

	var got collector
	stream := NewStream(wsURL(ts), "U1", got.handle)
	defer stream.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stream.Run(ctx) }()

	require.Eventually(t, func() bool {
		return stream.State() == StateOpen
	}, 2*time.Second, 10*time.Millisecond)

	// Kill the server-side connection and wait for the redial.
	backend.Close()
	require.Eventually(t, func() bool {
		return backend.Push("U1", model.Notification{NotificationID: "after-drop", Message: "m"}) == 1
	}, 10*time.Second, 50*time.Millisecond, "stream should reconnect and receive again")

	require.Eventually(t, func() bool { return got.len() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

// One malformed frame must not kill the channel; later messages still
// arrive.
func TestStream_SkipsMalformedMessages(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
		require.NoError(t, conn.WriteJSON(model.Notification{NotificationID: "ok", Message: "valid"}))

		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer ts.Close()

	var got collector
	stream := NewStream(wsURL(ts), "U1", got.handle)
	defer stream.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stream.Run(ctx) }()

	require.Eventually(t, func() bool { return got.len() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, "ok", got.last().NotificationID)
}
