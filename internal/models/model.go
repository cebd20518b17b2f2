package models

import "time"

// PaymentStatus tracks payment progress for a won auction.
// It only ever moves forward, from pending to completed.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	return s == PaymentPending || s == PaymentCompleted
}

// Category classifies a notification for display purposes.
type Category string

const (
	CategoryInfo    Category = "INFO"
	CategorySuccess Category = "SUCCESS"
	CategoryWarning Category = "WARNING"
	CategoryError   Category = "ERROR"
)

// Valid reports whether c is a known notification category.
func (c Category) Valid() bool {
	switch c {
	case CategoryInfo, CategorySuccess, CategoryWarning, CategoryError:
		return true
	}
	return false
}

// Auction is the client-side view of a time-boxed bidding process.
// Price and winner fields are a best-effort cache; the server is
// authoritative and every successful fetch or bid confirmation
// overwrites them.
type Auction struct {
	AuctionID     string        `json:"auction_id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	ImageURL      string        `json:"image_url"`
	StartingPrice float64       `json:"starting_price"`
	CurrentPrice  *float64      `json:"current_price,omitempty"`
	FinalPrice    *float64      `json:"final_price,omitempty"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
	BidCount      int           `json:"bid_count"`
	WinnerID      *string       `json:"winner_id,omitempty"`
	PaymentStatus PaymentStatus `json:"payment_status,omitempty"`
}

// CurrentKnownPrice returns the last known price to beat: the cached
// current price if any bid exists, otherwise the starting price.
func (a Auction) CurrentKnownPrice() float64 {
	if a.CurrentPrice != nil {
		return *a.CurrentPrice
	}
	return a.StartingPrice
}

// Ended reports whether the auction has passed its end timestamp.
func (a Auction) Ended(now time.Time) bool {
	return !now.Before(a.EndTime)
}

// AuctionDraft holds the fields an artisan submits to create an auction.
type AuctionDraft struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ImageURL      string    `json:"image_url"`
	StartingPrice float64   `json:"starting_price"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
}

// Notification is a server-originated, user-scoped message.
type Notification struct {
	NotificationID string    `json:"notification_id"`
	Message        string    `json:"message"`
	Category       Category  `json:"category"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
	ActionURL      string    `json:"action_url,omitempty"`
}

// BidRequest is the payload submitted to place a bid.
type BidRequest struct {
	AuctionID string  `json:"auction_id"`
	Amount    float64 `json:"amount"`
	UserID    string  `json:"user_id"`
}

// PaymentRequest is the payload submitted to pay for a won auction.
type PaymentRequest struct {
	AuctionID string `json:"auction_id"`
	UserID    string `json:"user_id"`
}
