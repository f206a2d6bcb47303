package service

import "errors"

var (
	// Local pre-check failures. These are rejected before any authority
	// call and carry a specific user-facing message.
	ErrEventStarted     = errors.New("event has already started")
	ErrSoldOut          = errors.New("event is sold out")
	ErrCapacityExceeded = errors.New("not enough places left for that many guests")
	ErrMissingEmail     = errors.New("buyer email is required")
	ErrMissingVerifier  = errors.New("verifier identity is missing")

	ErrScanInFlight = errors.New("another scan is being verified")
	ErrFreeEvent    = errors.New("event has no paid price")
)
