package srs

import (
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/scry-study/internal/domain"
)

// Common errors
var (
	ErrInvalidDays = errors.New("postpone days must be at least 1")
)

// Service defines the interface for SRS algorithm operations.
type Service interface {
	// CalculateNextReview computes the new review state for a rating at the current time.
	CalculateNextReview(state domain.ReviewState, rating domain.Rating) (domain.ReviewState, error)

	// PostponeReview pushes the next review time forward by a specified number of days.
	// It does not count as a review.
	PostponeReview(state domain.ReviewState, days int) (domain.ReviewState, error)

	// Params returns the parameters the service schedules with.
	Params() Params

	// Now returns the service clock's current time.
	Now() time.Time
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params Params
	clock  Clock
}

// NewDefaultService creates a new SRS service with default parameters and the system clock.
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
		clock:  SystemClock,
	}
}

// NewService creates a new SRS service with custom parameters and clock.
// A nil clock uses SystemClock.
func NewService(params Params, clock Clock) (Service, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = SystemClock
	}
	return &defaultService{params: params, clock: clock}, nil
}

// CalculateNextReview implements Service.
func (s *defaultService) CalculateNextReview(
	state domain.ReviewState,
	rating domain.Rating,
) (domain.ReviewState, error) {
	if !rating.IsValid() {
		return domain.ReviewState{}, fmt.Errorf("%w: %d", domain.ErrInvalidRating, int(rating))
	}
	return ComputeNextReview(state, rating, s.clock.Now(), s.params), nil
}

// PostponeReview implements Service.
func (s *defaultService) PostponeReview(state domain.ReviewState, days int) (domain.ReviewState, error) {
	if days < 1 {
		return domain.ReviewState{}, ErrInvalidDays
	}

	next := state
	next.NextReview = state.NextReview.AddDate(0, 0, days)
	return next, nil
}

// Params implements Service.
func (s *defaultService) Params() Params {
	return s.params
}

// Now implements Service.
func (s *defaultService) Now() time.Time {
	return s.clock.Now()
}
