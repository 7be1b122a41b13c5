package domain

import "errors"

// Domain errors returned by the market, ledger, closer and settlement
// services. The API layer maps these to HTTP status codes; the services
// themselves never see a request or a response writer.
var (
	ErrInvalidInput        = errors.New("invalid input")       // Missing fields or past deadline on create
	ErrMarketNotFound      = errors.New("market not found")    // No such market
	ErrMarketClosed        = errors.New("market closed")       // Market no longer accepts bets
	ErrInvalidAmount       = errors.New("invalid amount")      // Stake must be a positive integer
	ErrInvalidChoice       = errors.New("invalid choice")      // Choice must be Yes or No
	ErrInsufficientBalance = errors.New("insufficient balance") // Stake exceeds user balance
	ErrDuplicateBet        = errors.New("duplicate bet")       // User already bet on this market
	ErrAlreadyResolved     = errors.New("already resolved")    // Market result is write-once
	ErrInvalidResult       = errors.New("invalid result")      // Result must be Yes, No, Draw or Cancelled
	ErrUserNotFound        = errors.New("user not found")      // No such user
)
