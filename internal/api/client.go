package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"artbid-console/internal/auctionerrors"
	"artbid-console/internal/models"
	"artbid-console/internal/session"
	"artbid-console/utils"
)

// DefaultTimeout bounds every request; a call that exceeds it fails
// with a network error instead of hanging the caller.
const DefaultTimeout = 10 * time.Second

const maxResponseBytes = 1 << 20

// Client is the REST data-fetch utility shared by all services. Every
// request carries the session's bearer token and a generated request id.
type Client struct {
	http    *http.Client
	baseURL string
	session *session.Session
}

// envelope is the uniform wrapper around every backend response.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// NewClient creates a Client for the given base URL (including the /api
// prefix). A non-positive timeout falls back to DefaultTimeout.
func NewClient(baseURL string, sess *session.Session, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		session: sess,
	}
}

// ActiveAuctions fetches all auctions currently open for bidding.
func (c *Client) ActiveAuctions(ctx context.Context) ([]models.Auction, error) {
	var auctions []models.Auction
	if err := c.do(ctx, http.MethodGet, "/auctions/active", nil, &auctions); err != nil {
		return nil, fmt.Errorf("api: failed to list active auctions: %w", err)
	}
	return auctions, nil
}

// WonAuctions fetches the completed auctions the given user has won.
func (c *Client) WonAuctions(ctx context.Context, userID string) ([]models.Auction, error) {
	var auctions []models.Auction
	path := "/auctions/completed/winner/" + url.PathEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &auctions); err != nil {
		return nil, fmt.Errorf("api: failed to list won auctions for user %s: %w", userID, err)
	}
	return auctions, nil
}

// PlaceBid submits a bid. The server is the sole arbiter of whether the
// amount still beats the current price; a pre-checked bid may be
// rejected here if another bid was accepted concurrently.
func (c *Client) PlaceBid(ctx context.Context, req models.BidRequest) error {
	if err := c.do(ctx, http.MethodPost, "/auctions/bid", req, nil); err != nil {
		return fmt.Errorf("api: failed to place bid on auction %s: %w", req.AuctionID, err)
	}
	return nil
}

// Pay submits a payment for a won auction.
func (c *Client) Pay(ctx context.Context, req models.PaymentRequest) error {
	if err := c.do(ctx, http.MethodPost, "/auctions/pay", req, nil); err != nil {
		return fmt.Errorf("api: failed to pay for auction %s: %w", req.AuctionID, err)
	}
	return nil
}

// CreateAuction submits a new auction and returns the created record.
func (c *Client) CreateAuction(ctx context.Context, draft models.AuctionDraft) (models.Auction, error) {
	var created models.Auction
	if err := c.do(ctx, http.MethodPost, "/auctions", draft, &created); err != nil {
		return models.Auction{}, fmt.Errorf("api: failed to create auction: %w", err)
	}
	return created, nil
}

// Notifications fetches the user's full notification list.
func (c *Client) Notifications(ctx context.Context, userID string) ([]models.Notification, error) {
	var notifications []models.Notification
	path := "/notifications/user/" + url.PathEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &notifications); err != nil {
		return nil, fmt.Errorf("api: failed to list notifications for user %s: %w", userID, err)
	}
	return notifications, nil
}

// UnreadNotifications fetches only the user's unread notifications.
func (c *Client) UnreadNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	var notifications []models.Notification
	path := "/notifications/user/" + url.PathEscape(userID) + "/unread"
	if err := c.do(ctx, http.MethodGet, path, nil, &notifications); err != nil {
		return nil, fmt.Errorf("api: failed to list unread notifications for user %s: %w", userID, err)
	}
	return notifications, nil
}

// MarkNotificationRead marks a single notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, notificationID string) error {
	path := "/notifications/" + url.PathEscape(notificationID) + "/read"
	if err := c.do(ctx, http.MethodPut, path, struct{}{}, nil); err != nil {
		return fmt.Errorf("api: failed to mark notification %s as read: %w", notificationID, err)
	}
	return nil
}

// do performs one request against the backend, decodes the response
// envelope and unmarshals its data field into out (which may be nil for
// operations that only return a success flag).
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request for %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", utils.GenerateID())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", auctionerrors.ErrNetwork, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			utils.Warn("api: error closing response body", map[string]any{
				"method": method, "path": path, "error": err.Error(),
			})
		}
	}()

	raw, err := io.ReadAll(http.MaxBytesReader(nil, resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: reading response body: %v", auctionerrors.ErrNetwork, err)
	}

	var env envelope
	if len(raw) > 0 {
		// The envelope is best effort on error statuses; some proxies
		// answer with plain-text bodies.
		_ = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.mapStatus(resp.StatusCode, env.Message)
	}
	if !env.Success {
		message := env.Message
		if message == "" {
			message = "request failed"
		}
		return fmt.Errorf("%w: %s", auctionerrors.ErrRejected, message)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decoding response data for %s %s: %w", method, path, err)
		}
	}
	return nil
}

// mapStatus converts well-known HTTP statuses into the uniform error
// shape. A 401 additionally clears the local session to force
// re-authentication.
func (c *Client) mapStatus(status int, serverMessage string) error {
	switch status {
	case http.StatusUnauthorized:
		c.session.Clear()
		return auctionerrors.ErrUnauthorized
	case http.StatusForbidden:
		return auctionerrors.ErrForbidden
	case http.StatusNotFound:
		return auctionerrors.ErrNotFound
	case http.StatusInternalServerError:
		return auctionerrors.ErrServer
	default:
		if serverMessage == "" {
			serverMessage = fmt.Sprintf("unexpected status %d", status)
		}
		return fmt.Errorf("%w: %s", auctionerrors.ErrRejected, serverMessage)
	}
}
