package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"artbid-console/internal/auctionerrors"
	model "artbid-console/internal/models"
	"artbid-console/utils"
)

// StreamState tracks the push channel connection lifecycle.
type StreamState string

const (
	StateDisconnected StreamState = "DISCONNECTED"
	StateConnecting   StreamState = "CONNECTING"
	StateOpen         StreamState = "OPEN"
	StateClosed       StreamState = "CLOSED"
)

// Handler receives each push-delivered notification in delivery order.
type Handler func(model.Notification)

// Stream is the long-lived push channel feeding the notification
// service. Each inbound message is one JSON-encoded notification. A
// dropped connection is redialed with exponential backoff until Close
// is called or the context ends; the channel never crashes the rest of
// the client, notifications just stop updating while disconnected.
type Stream struct {
	url     string
	handler Handler

	mu    sync.Mutex
	state StreamState
	conn  *websocket.Conn

	closed    chan struct{}
	closeOnce sync.Once
}

// NewStream creates a Stream for the given user. wsBaseURL is the
// ws:// or wss:// host prefix without the push path.
func NewStream(wsBaseURL, userID string, handler Handler) *Stream {
	return &Stream{
		url:     strings.TrimRight(wsBaseURL, "/") + "/ws-notifications/" + userID,
		handler: handler,
		state:   StateDisconnected,
		closed:  make(chan struct{}),
	}
}

// State returns the current connection state.
func (s *Stream) State() StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run dials the push channel and delivers messages until Close is
// called or the context is cancelled. Dropped connections are redialed
// with exponential backoff; a successful connection resets the backoff.
func (s *Stream) Run(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 0 // retry for as long as the view is alive

	for {
		if stop, err := s.stopReason(ctx); stop {
			return err
		}

		s.setState(StateConnecting)
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
		if err != nil {
			s.setState(StateDisconnected)
			if stop, serr := s.stopReason(ctx); stop {
				return serr
			}
			wait := bo.NextBackOff()
			utils.Warn("stream: failed to connect, will retry", map[string]any{
				"url": s.url, "retry_in": wait.String(), "error": err.Error(),
			})
			if !s.sleep(ctx, wait) {
				return ctx.Err()
			}
			continue
		}

		s.setConn(conn)
		s.setState(StateOpen)
		bo.Reset()
		utils.Info("stream: connected", map[string]any{"url": s.url})

		readErr := s.readLoop(ctx, conn)
		s.setConn(nil)
		s.setState(StateDisconnected)
		if stop, err := s.stopReason(ctx); stop {
			return err
		}

		wait := bo.NextBackOff()
		utils.Warn("stream: connection dropped, will reconnect", map[string]any{
			"url": s.url, "retry_in": wait.String(), "error": readErr.Error(),
		})
		if !s.sleep(ctx, wait) {
			return ctx.Err()
		}
	}
}

// Close tears the channel down and stops any reconnection. Safe to call
// more than once; the consuming view calls it on unmount so no open
// connection keeps mutating state nobody observes.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.mu.Lock()
		conn := s.conn
		s.conn = nil
		s.state = StateClosed
		s.mu.Unlock()
		if conn != nil {
			if err := conn.Close(); err != nil {
				utils.Warn("stream: error closing connection", map[string]any{"error": err.Error()})
			}
		}
	})
}

// readLoop delivers messages from one connection until it fails or the
// stream is torn down. Malformed payloads are logged and skipped so one
// bad message never kills the channel.
func (s *Stream) readLoop(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-s.closed:
		case <-done:
			return
		}
		// Unblocks the pending ReadMessage below.
		_ = conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("%w: %v", auctionerrors.ErrChannelClosed, err)
		}

		var n model.Notification
		if err := json.Unmarshal(payload, &n); err != nil {
			utils.Warn("stream: skipping malformed message", map[string]any{"error": err.Error()})
			continue
		}
		s.handler(n)
	}
}

// stopReason reports whether the stream should stop, and with what
// error: nil after an explicit Close, the context error otherwise.
func (s *Stream) stopReason(ctx context.Context) (bool, error) {
	select {
	case <-s.closed:
		return true, nil
	default:
	}
	if err := ctx.Err(); err != nil {
		return true, err
	}
	return false, nil
}

// sleep waits out a backoff interval, reporting false when the stream
// was torn down while waiting.
func (s *Stream) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-s.closed:
		return false
	case <-timer.C:
		return true
	}
}

func (s *Stream) setState(state StreamState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.state = state
}

func (s *Stream) setConn(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = conn
}
