// Package testserver is an in-process stand-in for the marketplace
// backend: the REST surface the client consumes plus the websocket push
// channel, over in-memory state. It backs the API client tests and the
// integration tests, and enforces the authoritative monotonic-price
// check so concurrent-bid races behave like the real server of record.
package testserver

import (
	"sync"

	"github.com/gorilla/websocket"

	model "artbid-console/internal/models"
	"artbid-console/utils"
)

// Server holds the fake backend's state. All access goes through mu;
// handlers and test seeding may run concurrently.
type Server struct {
	token string

	mu            sync.Mutex
	auctions      map[string]model.Auction
	notifications map[string][]model.Notification // key: userID, newest first
	pushConns     map[string][]*websocket.Conn    // key: userID
	upgrader      websocket.Upgrader
}

// New creates a Server that accepts the given bearer token.
func New(token string) *Server {
	return &Server{
		token:         token,
		auctions:      make(map[string]model.Auction),
		notifications: make(map[string][]model.Notification),
		pushConns:     make(map[string][]*websocket.Conn),
	}
}

// AddAuction seeds one auction.
func (s *Server) AddAuction(a model.Auction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auctions[a.AuctionID] = a
}

// Auction returns a copy of one stored auction for assertions.
func (s *Server) Auction(auctionID string) (model.Auction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.auctions[auctionID]
	return a, ok
}

// AddNotification seeds one notification for a user, prepending so the
// stored list stays newest first.
func (s *Server) AddNotification(userID string, n model.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications[userID] = append([]model.Notification{n}, s.notifications[userID]...)
}

// Push stores a notification and delivers it over every open push
// connection for the user. Redelivering an already stored ID writes to
// the channel again without duplicating the stored record, which is how
// an at-least-once push behaves after a reconnect. Returns the number
// of connections written.
func (s *Server) Push(userID string, n model.Notification) int {
	s.mu.Lock()
	stored := false
	for _, existing := range s.notifications[userID] {
		if existing.NotificationID == n.NotificationID {
			stored = true
			break
		}
	}
	if !stored {
		s.notifications[userID] = append([]model.Notification{n}, s.notifications[userID]...)
	}
	conns := append([]*websocket.Conn(nil), s.pushConns[userID]...)
	s.mu.Unlock()

	delivered := 0
	for _, conn := range conns {
		if err := conn.WriteJSON(n); err != nil {
			utils.Warn("testserver: failed to push notification", map[string]any{
				"user_id": userID, "error": err.Error(),
			})
			continue
		}
		delivered++
	}
	return delivered
}

// Close drops all open push connections.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conns := range s.pushConns {
		for _, conn := range conns {
			_ = conn.Close()
		}
	}
	s.pushConns = make(map[string][]*websocket.Conn)
}

func (s *Server) registerConn(userID string, conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushConns[userID] = append(s.pushConns[userID], conn)
}

func (s *Server) dropConn(userID string, conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.pushConns[userID][:0]
	for _, c := range s.pushConns[userID] {
		if c != conn {
			kept = append(kept, c)
		}
	}
	s.pushConns[userID] = kept
}
