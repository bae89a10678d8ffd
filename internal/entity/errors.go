package entity

import "errors"

var (
	// Waitlist errors
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotOnWaitlist = errors.New("attendee is not on the waitlist")

	// Persistence errors
	ErrPersistenceUnavailable = errors.New("waitlist storage unavailable")
	ErrUnexpectedBackend      = errors.New("unexpected storage backend response")
	ErrDocumentNotFound       = errors.New("waitlist document not found")
	ErrRateLimited            = errors.New("storage backend rate limited")

	// Event errors
	ErrEventNotFound     = errors.New("event not found")
	ErrEventsUnavailable = errors.New("events service unavailable")
)
