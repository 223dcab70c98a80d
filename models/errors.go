package models

import "errors"

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrBookingConflict   = errors.New("pet is not available for the requested dates")
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
	ErrWalletLimit       = errors.New("wallet balance limit exceeded")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrOfferClosed       = errors.New("offer is no longer pending")
	ErrEmptyMessage      = errors.New("message must have content or images")
	ErrTokenInvalid      = errors.New("invalid or expired token")
	ErrDuplicateReview   = errors.New("review already exists")
)
