package session

import "errors"

var (
	// ErrPersistence wraps any failure of the backing card store. It is retryable:
	// the session stays on the current card.
	ErrPersistence = errors.New("card store failure")

	// ErrInvalidState is returned when an operation is not allowed in the
	// controller's current state.
	ErrInvalidState = errors.New("operation not allowed in current session state")

	// ErrReviewInFlight is returned when a review is submitted while another
	// submission for the same session has not resolved yet.
	ErrReviewInFlight = errors.New("a review submission is already in progress")

	// ErrSessionComplete is returned when there is no card left to present.
	ErrSessionComplete = errors.New("session complete")
)
