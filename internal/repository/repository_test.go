package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"artbid-console/internal/auctionerrors"
	model "artbid-console/internal/models"
)

// Helper to create an auction
func newAuction(auctionID, title string, startingPrice float64, endTime time.Time) model.Auction {
	return model.Auction{
		AuctionID:     auctionID,
		Title:         title,
		Description:   title + " description",
		StartingPrice: startingPrice,
		EndTime:       endTime,
		PaymentStatus: model.PaymentPending,
	}
}

// Tests ReplaceAll and Get
func TestMemoryCache_ReplaceAll(t *testing.T) {
	t.Parallel()

	cache := NewMemoryCache()
	cache.Add(newAuction("stale", "Stale", 100, time.Now().Add(time.Hour)))

	fresh := []model.Auction{
		newAuction("a1", "Vase", 500, time.Now().Add(time.Hour)),
		newAuction("a2", "Print", 300, time.Now().Add(2*time.Hour)),
	}
	cache.ReplaceAll(fresh)

	require.Len(t, cache.All(), 2)

	_, err := cache.Get("stale")
	require.True(t, errors.Is(err, auctionerrors.ErrAuctionNotFound), "a fetch overwrite drops entries the server no longer returns")

	a, err := cache.Get("a1")
	require.NoError(t, err)
	require.Equal(t, "Vase", a.Title)
}

// Mutating a returned copy must not leak back into the cache.
func TestMemoryCache_ReadsAreCopies(t *testing.T) {
	t.Parallel()

	cache := NewMemoryCache()
	cache.Add(newAuction("a1", "Vase", 500, time.Now().Add(time.Hour)))

	a, err := cache.Get("a1")
	require.NoError(t, err)
	a.Title = "mutated"

	all := cache.All()
	require.Len(t, all, 1)
	require.Equal(t, "Vase", all[0].Title)

	again, err := cache.Get("a1")
	require.NoError(t, err)
	require.Equal(t, "Vase", again.Title)
}

// Tests SetCurrentPrice
func TestMemoryCache_SetCurrentPrice(t *testing.T) {
	t.Parallel()

	cache := NewMemoryCache()
	cache.Add(newAuction("a1", "Vase", 500, time.Now().Add(time.Hour)))

	require.NoError(t, cache.SetCurrentPrice("a1", 750))

	a, err := cache.Get("a1")
	require.NoError(t, err)
	require.NotNil(t, a.CurrentPrice)
	require.Equal(t, 750.0, *a.CurrentPrice)
	require.Equal(t, 1, a.BidCount)
	require.Equal(t, 750.0, a.CurrentKnownPrice())

	err = cache.SetCurrentPrice("missing", 100)
	require.True(t, errors.Is(err, auctionerrors.ErrAuctionNotFound))
}

// Tests SetPaymentStatus
func TestMemoryCache_SetPaymentStatus(t *testing.T) {
	t.Parallel()

	cache := NewMemoryCache()
	cache.Add(newAuction("a1", "Vase", 500, time.Now().Add(-time.Hour)))

	require.NoError(t, cache.SetPaymentStatus("a1", model.PaymentCompleted))

	a, err := cache.Get("a1")
	require.NoError(t, err)
	require.Equal(t, model.PaymentCompleted, a.PaymentStatus)

	// The transition is one way: completed never reverts to pending.
	err = cache.SetPaymentStatus("a1", model.PaymentPending)
	require.True(t, errors.Is(err, auctionerrors.ErrAlreadyPaid))

	a, err = cache.Get("a1")
	require.NoError(t, err)
	require.Equal(t, model.PaymentCompleted, a.PaymentStatus)

	// Re-completing an already completed auction is a harmless no-op.
	require.NoError(t, cache.SetPaymentStatus("a1", model.PaymentCompleted))

	err = cache.SetPaymentStatus("a1", model.PaymentStatus("REFUNDED"))
	require.Error(t, err)
}

// Tests ActiveAt
func TestMemoryCache_ActiveAt(t *testing.T) {
	t.Parallel()

	now := time.Now()
	cache := NewMemoryCache()
	cache.Add(newAuction("live", "Live", 100, now.Add(time.Hour)))
	cache.Add(newAuction("ended", "Ended", 100, now.Add(-time.Hour)))
	cache.Add(newAuction("boundary", "Boundary", 100, now))

	active := cache.ActiveAt(now)
	require.Len(t, active, 1)
	require.Equal(t, "live", active[0].AuctionID)
}
