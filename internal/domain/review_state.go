package domain

import (
	"errors"
	"time"
)

// DefaultEaseFactor is the ease factor given to a card that has never been reviewed.
const DefaultEaseFactor = 2.5

// Validation errors for ReviewState
var (
	ErrInvalidInterval    = errors.New("interval must be greater than or equal to 0")
	ErrInvalidEaseFactor  = errors.New("ease factor must be greater than 0")
	ErrInvalidReviewCount = errors.New("review count must be greater than or equal to 0")
)

// ReviewState is the scheduling state of a single card. It is owned by the card
// record and only ever replaced as a whole by the scheduling engine.
type ReviewState struct {
	EaseFactor   float64   `json:"ease_factor"`   // Soft lower bound is the configured minimum ease
	Interval     float64   `json:"interval"`      // Days until the next review
	ReviewCount  int       `json:"review_count"`  // Completed reviews
	LastReviewed time.Time `json:"last_reviewed"` // Last review, or creation time if never reviewed
	NextReview   time.Time `json:"next_review"`   // Card is due at or after this instant
}

// NewReviewState returns the state of a freshly created card: due immediately,
// with the given ease factor. A non-positive ease falls back to DefaultEaseFactor.
func NewReviewState(now time.Time, ease float64) ReviewState {
	if ease <= 0 {
		ease = DefaultEaseFactor
	}
	return ReviewState{
		EaseFactor:   ease,
		Interval:     0,
		ReviewCount:  0,
		LastReviewed: now,
		NextReview:   now,
	}
}

// IsNew reports whether the card has never been reviewed.
func (s ReviewState) IsNew() bool {
	return s.ReviewCount == 0
}

// Validate checks that the state holds sane values.
func (s ReviewState) Validate() error {
	if s.Interval < 0 {
		return ErrInvalidInterval
	}
	if s.EaseFactor <= 0 {
		return ErrInvalidEaseFactor
	}
	if s.ReviewCount < 0 {
		return ErrInvalidReviewCount
	}
	return nil
}
