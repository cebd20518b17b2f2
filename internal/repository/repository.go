package repository

import (
	"fmt"
	"sync"
	"time"

	"artbid-console/internal/auctionerrors"
	model "artbid-console/internal/models"
)

// AuctionCache is the local, provisional view of the auctions the
// client is currently displaying. The server stays authoritative: every
// successful fetch replaces the whole collection, and every mutation
// here is a best-effort cache update awaiting the next fetch.
type AuctionCache interface {
	ReplaceAll(auctions []model.Auction)
	Get(auctionID string) (model.Auction, error)
	All() []model.Auction
	SetCurrentPrice(auctionID string, price float64) error
	SetPaymentStatus(auctionID string, status model.PaymentStatus) error
}

// MemoryCache is a concurrency-safe in-memory implementation of
// AuctionCache. Reads return copies so callers can never mutate the
// cache behind its lock.
type MemoryCache struct {
	mu       sync.RWMutex
	auctions map[string]model.Auction // key: auctionID
}

// NewMemoryCache creates an empty in-memory auction cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{auctions: make(map[string]model.Auction)}
}

// ReplaceAll overwrites the whole collection with a fresh server fetch.
func (c *MemoryCache) ReplaceAll(auctions []model.Auction) {
	next := make(map[string]model.Auction, len(auctions))
	for _, a := range auctions {
		next[a.AuctionID] = a
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.auctions = next
}

// Get returns a copy of a single cached auction.
func (c *MemoryCache) Get(auctionID string) (model.Auction, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	a, ok := c.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return a, nil
}

// All returns a snapshot copy of every cached auction.
func (c *MemoryCache) All() []model.Auction {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all := make([]model.Auction, 0, len(c.auctions))
	for _, a := range c.auctions {
		all = append(all, a)
	}
	return all
}

// SetCurrentPrice records a confirmed bid amount as the new provisional
// current price and bumps the bid count.
func (c *MemoryCache) SetCurrentPrice(auctionID string, price float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.auctions[auctionID]
	if !ok {
		return fmt.Errorf("set current price for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	a.CurrentPrice = &price
	a.BidCount++
	c.auctions[auctionID] = a
	return nil
}

// SetPaymentStatus updates the cached payment status. The transition is
// one way: once completed, an auction never reverts to pending.
func (c *MemoryCache) SetPaymentStatus(auctionID string, status model.PaymentStatus) error {
	if !status.Valid() {
		return fmt.Errorf("set payment status for auction %s: invalid status %q", auctionID, status)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.auctions[auctionID]
	if !ok {
		return fmt.Errorf("set payment status for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if a.PaymentStatus == model.PaymentCompleted && status == model.PaymentPending {
		return fmt.Errorf("set payment status for auction %s: %w", auctionID, auctionerrors.ErrAlreadyPaid)
	}
	a.PaymentStatus = status
	c.auctions[auctionID] = a
	return nil
}

// ActiveAt returns a snapshot of the auctions still open at the given
// instant. The countdown engine uses this to label only live rows.
func (c *MemoryCache) ActiveAt(now time.Time) []model.Auction {
	c.mu.RLock()
	defer c.mu.RUnlock()

	active := make([]model.Auction, 0, len(c.auctions))
	for _, a := range c.auctions {
		if !a.Ended(now) {
			active = append(active, a)
		}
	}
	return active
}

// Add inserts a single auction into the cache. This method is intended
// for tests and for newly created auctions.
func (c *MemoryCache) Add(a model.Auction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auctions[a.AuctionID] = a
}
