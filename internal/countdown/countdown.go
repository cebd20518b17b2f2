package countdown

import (
	"context"
	"fmt"
	"sync"
	"time"

	model "artbid-console/internal/models"
	"artbid-console/utils"
)

// EndedLabel is the terminal label for an auction whose end timestamp
// has passed.
const EndedLabel = "Ended"

// DefaultInterval is the shared recompute cadence for all displayed
// auctions.
const DefaultInterval = time.Second

// Remaining renders the time left until endsAt as "{d}d {h}h {m}m", or
// EndedLabel once the end timestamp has passed. The decomposition
// floors at minute granularity, so a live auction in its final minute
// still reads "0d 0h 0m".
func Remaining(now, endsAt time.Time) string {
	delta := endsAt.Sub(now)
	if delta <= 0 {
		return EndedLabel
	}
	days := delta / (24 * time.Hour)
	delta -= days * 24 * time.Hour
	hours := delta / time.Hour
	delta -= hours * time.Hour
	minutes := delta / time.Minute
	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}

// Tick computes the label map for one shared tick. It is a pure
// function of now and the auction snapshot: recomputing at any time
// yields a consistent result, and expiry produces no event beyond the
// label flipping to EndedLabel. Callers that must refuse actions on
// ended auctions check the end timestamp themselves.
func Tick(now time.Time, auctions []model.Auction) map[string]string {
	labels := make(map[string]string, len(auctions))
	for _, a := range auctions {
		labels[a.AuctionID] = Remaining(now, a.EndTime)
	}
	return labels
}

// Snapshot supplies the auctions currently being displayed. The cache's
// All method satisfies it.
type Snapshot interface {
	All() []model.Auction
}

// Subscriber receives the recomputed label map on every tick.
type Subscriber func(labels map[string]string)

// Engine owns the single shared timer driving every countdown row.
// One timer per displayed collection, not one per auction, keeps ticks
// synchronized and bounds timer count.
type Engine struct {
	source   Snapshot
	interval time.Duration

	mu          sync.Mutex
	subscribers []Subscriber
}

// NewEngine creates an Engine over the given auction snapshot source.
// A non-positive interval falls back to DefaultInterval.
func NewEngine(source Snapshot, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Engine{source: source, interval: interval}
}

// Subscribe registers a subscriber for future ticks.
func (e *Engine) Subscribe(sub Subscriber) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subscribers = append(e.subscribers, sub)
}

// Run drives the shared ticker until the context is cancelled. The
// ticker is stopped on return so a torn-down view leaks no timer.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	utils.Info("countdown: engine started", map[string]any{"interval": e.interval.String()})
	for {
		select {
		case <-ctx.Done():
			utils.Info("countdown: engine stopped", nil)
			return
		case now := <-ticker.C:
			e.broadcast(Tick(now, e.source.All()))
		}
	}
}

func (e *Engine) broadcast(labels map[string]string) {
	e.mu.Lock()
	subs := make([]Subscriber, len(e.subscribers))
	copy(subs, e.subscribers)
	e.mu.Unlock()

	for _, sub := range subs {
		sub(labels)
	}
}
