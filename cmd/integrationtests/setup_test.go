package integrationtests

import (
	"net/http/httptest"
	"strings"
	"testing"

	"artbid-console/internal/api"
	bidding "artbid-console/internal/biddingService"
	notification "artbid-console/internal/notificationService"
	"artbid-console/internal/repository"
	"artbid-console/internal/session"
	"artbid-console/internal/testserver"
)

const testToken = "integration-token"

// backendEnv is one shared fake marketplace backend; several userEnvs
// (independent clients) can point at it to exercise concurrent-bidder
// behavior.
type backendEnv struct {
	backend *testserver.Server
	httpURL string
	wsURL   string
}

// userEnv is one signed-in client stack: its own session, REST client,
// auction cache and services, all sharing the backend.
type userEnv struct {
	session       *session.Session
	cache         *repository.MemoryCache
	bidding       *bidding.BiddingService
	notifications *notification.NotificationService
}

// newBackend starts the in-process server of record.
func newBackend(t *testing.T) *backendEnv {
	t.Helper()

	backend := testserver.New(testToken)
	ts := httptest.NewServer(testserver.Router(backend))
	t.Cleanup(ts.Close)
	t.Cleanup(backend.Close)

	return &backendEnv{
		backend: backend,
		httpURL: ts.URL,
		wsURL:   "ws" + strings.TrimPrefix(ts.URL, "http"),
	}
}

// user builds an independent client stack for one user against the
// shared backend.
func (e *backendEnv) user(userID string) *userEnv {
	sess := session.New(userID, userID+" name", testToken)
	client := api.NewClient(e.httpURL+"/api", sess, 0)
	cache := repository.NewMemoryCache()

	return &userEnv{
		session:       sess,
		cache:         cache,
		bidding:       bidding.NewBiddingService(cache, client, sess),
		notifications: notification.NewNotificationService(client, sess),
	}
}
