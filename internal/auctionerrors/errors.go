package auctionerrors

import "errors"

// Local validation errors. These fail before any network call is made.
var (
	ErrInvalidBid      = errors.New("invalid bid")
	ErrBidTooLow       = errors.New("bid amount too low")
	ErrAuctionNotFound = errors.New("auction not found")
	ErrAuctionEnded    = errors.New("auction has ended")
	ErrAlreadyPaid     = errors.New("auction already paid")
	ErrNoUser          = errors.New("no user signed in")
)

// Transport and server errors, mapped from HTTP responses.
var (
	ErrNetwork      = errors.New("network error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrServer       = errors.New("internal server error")
	ErrRejected     = errors.New("request rejected by server")
)

// Push channel errors.
var (
	ErrChannelClosed = errors.New("push channel closed")
)
