package bidding

import (
	"context"
	"fmt"
	"time"

	"artbid-console/internal/auctionerrors"
	model "artbid-console/internal/models"
	"artbid-console/internal/repository"
	"artbid-console/internal/session"
	"artbid-console/utils"
)

// AuctionAPI is the slice of the backend the bidding service talks to.
type AuctionAPI interface {
	ActiveAuctions(ctx context.Context) ([]model.Auction, error)
	WonAuctions(ctx context.Context, userID string) ([]model.Auction, error)
	PlaceBid(ctx context.Context, req model.BidRequest) error
	Pay(ctx context.Context, req model.PaymentRequest) error
	CreateAuction(ctx context.Context, draft model.AuctionDraft) (model.Auction, error)
}

// BiddingService submits bids against the server of record and
// reconciles the authoritative result into the local auction cache.
// Every local price is provisional until the next successful fetch or
// bid confirmation; the server alone serializes concurrent bidders.
type BiddingService struct {
	cache   repository.AuctionCache
	api     AuctionAPI
	session *session.Session
	now     func() time.Time
}

// NewBiddingService creates a BiddingService over the shared auction
// cache and the REST client.
func NewBiddingService(cache repository.AuctionCache, api AuctionAPI, sess *session.Session) *BiddingService {
	return &BiddingService{
		cache:   cache,
		api:     api,
		session: sess,
		now:     time.Now,
	}
}

// RefreshActive re-fetches the active auctions and replaces the whole
// cached collection with the server's canonical view.
func (s *BiddingService) RefreshActive(ctx context.Context) error {
	auctions, err := s.api.ActiveAuctions(ctx)
	if err != nil {
		return fmt.Errorf("service: failed to refresh active auctions: %w", err)
	}
	s.cache.ReplaceAll(auctions)
	return nil
}

// PlaceBid validates a proposed bid locally, submits it, and on success
// records the accepted amount as the new provisional current price.
// Validation failures never reach the network. On a server rejection or
// network error the cache is re-fetched instead of rolled back, so the
// local view reconverges with whatever bid actually won.
func (s *BiddingService) PlaceBid(ctx context.Context, auctionID string, amount float64) (model.Auction, error) {
	userID := s.session.UserID()
	if err := s.validateBid(auctionID, userID, amount); err != nil {
		return model.Auction{}, err
	}

	req := model.BidRequest{AuctionID: auctionID, Amount: amount, UserID: userID}
	if err := s.api.PlaceBid(ctx, req); err != nil {
		// A concurrent bidder may have beaten this one; re-fetch so the
		// cached price converges on the server's canonical value.
		if refreshErr := s.RefreshActive(ctx); refreshErr != nil {
			utils.Warn("service: failed to re-fetch auctions after rejected bid", map[string]any{
				"auction_id": auctionID, "error": refreshErr.Error(),
			})
		}
		return model.Auction{}, fmt.Errorf("service: failed to place bid of %.2f on auction %s: %w", amount, auctionID, err)
	}

	// The server confirms with a bare success flag, so adopt the
	// submitted amount until the next fetch overwrites it.
	if err := s.cache.SetCurrentPrice(auctionID, amount); err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to record confirmed bid for auction %s: %w", auctionID, err)
	}

	updated, err := s.cache.Get(auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to read auction %s after bid: %w", auctionID, err)
	}
	return updated, nil
}

// validateBid checks input validity and the local bid preconditions.
func (s *BiddingService) validateBid(auctionID, userID string, amount float64) error {
	if userID == "" {
		return fmt.Errorf("service: %w - sign in to place a bid", auctionerrors.ErrNoUser)
	}
	if auctionID == "" {
		return fmt.Errorf("service: %w - missing auction ID", auctionerrors.ErrInvalidBid)
	}
	if amount <= 0 {
		return fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidBid)
	}

	auction, err := s.cache.Get(auctionID)
	if err != nil {
		return fmt.Errorf("service: failed to look up auction: %w", err)
	}
	if auction.Ended(s.now()) {
		return fmt.Errorf("service: %w - auction %s closed at %s",
			auctionerrors.ErrAuctionEnded, auctionID, auction.EndTime.UTC().Format(time.RFC3339))
	}
	if known := auction.CurrentKnownPrice(); amount <= known {
		return fmt.Errorf("service: %w - price to beat is %.2f", auctionerrors.ErrBidTooLow, known)
	}
	return nil
}

// Pay submits payment for a won auction and flips the cached payment
// status from pending to completed. An auction already paid for is
// rejected, never reverted. A failed payment leaves the status pending
// for a manual retry.
func (s *BiddingService) Pay(ctx context.Context, auctionID string) error {
	userID := s.session.UserID()
	if userID == "" {
		return fmt.Errorf("service: %w - sign in to pay", auctionerrors.ErrNoUser)
	}
	if auctionID == "" {
		return fmt.Errorf("service: %w - missing auction ID", auctionerrors.ErrInvalidBid)
	}

	auction, err := s.cache.Get(auctionID)
	if err != nil {
		return fmt.Errorf("service: failed to look up auction: %w", err)
	}
	if auction.PaymentStatus == model.PaymentCompleted {
		return fmt.Errorf("service: %w - auction %s", auctionerrors.ErrAlreadyPaid, auctionID)
	}

	if err := s.api.Pay(ctx, model.PaymentRequest{AuctionID: auctionID, UserID: userID}); err != nil {
		return fmt.Errorf("service: failed to pay for auction %s: %w", auctionID, err)
	}

	if err := s.cache.SetPaymentStatus(auctionID, model.PaymentCompleted); err != nil {
		return fmt.Errorf("service: failed to record payment for auction %s: %w", auctionID, err)
	}
	return nil
}

// WonAuctions returns the completed auctions the signed-in user won.
func (s *BiddingService) WonAuctions(ctx context.Context) ([]model.Auction, error) {
	userID := s.session.UserID()
	if userID == "" {
		return nil, fmt.Errorf("service: %w - sign in to view won auctions", auctionerrors.ErrNoUser)
	}

	auctions, err := s.api.WonAuctions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get won auctions for user %s: %w", userID, err)
	}
	return auctions, nil
}

// CreateAuction submits a new auction draft for the signed-in artisan.
func (s *BiddingService) CreateAuction(ctx context.Context, draft model.AuctionDraft) (model.Auction, error) {
	if s.session.UserID() == "" {
		return model.Auction{}, fmt.Errorf("service: %w - sign in to create an auction", auctionerrors.ErrNoUser)
	}
	if draft.Title == "" {
		return model.Auction{}, fmt.Errorf("service: %w - missing title", auctionerrors.ErrInvalidBid)
	}
	if draft.StartingPrice <= 0 {
		return model.Auction{}, fmt.Errorf("service: %w - non-positive starting price", auctionerrors.ErrInvalidBid)
	}
	if !draft.EndTime.After(draft.StartTime) {
		return model.Auction{}, fmt.Errorf("service: %w - end time must be after start time", auctionerrors.ErrInvalidBid)
	}

	created, err := s.api.CreateAuction(ctx, draft)
	if err != nil {
		return model.Auction{}, fmt.Errorf("service: failed to create auction: %w", err)
	}
	return created, nil
}
