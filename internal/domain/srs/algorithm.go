package srs

import (
	"math"
	"time"

	"github.com/phrazzld/scry-study/internal/domain"
)

// day is the length of one interval unit.
const day = 24 * time.Hour

// calculateNewEaseFactor determines the new ease factor based on the rating.
//
// The ease factor represents how well a card is retained - higher values mean
// intervals grow faster. Adjustments:
//   - "again" resets the ease factor to params.MinEase
//   - "hard" subtracts params.HardEasePenalty (0.15)
//   - "medium" leaves it unchanged
//   - "easy" adds params.EasyEaseBonus (0.1)
//
// The result is floored at params.MinEase. No ceiling is applied: a run of easy
// ratings may carry the ease factor past params.MaxEaseNominal.
func calculateNewEaseFactor(currentEF float64, rating domain.Rating, params Params) float64 {
	var newEF float64
	switch rating {
	case domain.RatingAgain:
		newEF = params.MinEase
	case domain.RatingHard:
		newEF = currentEF - params.HardEasePenalty
	case domain.RatingMedium:
		newEF = currentEF
	case domain.RatingEasy:
		newEF = currentEF + params.EasyEaseBonus
	default:
		newEF = currentEF
	}

	return math.Max(newEF, params.MinEase)
}

// calculateNewInterval determines the next interval in days.
//
// The interval depends on how many reviews the card has already had and uses
// the ease factor produced by calculateNewEaseFactor:
//   - first review: the configured base interval for the rating
//   - second review: again -> base again; hard -> max(1, i*1.2);
//     medium -> i*2; easy -> i*2.5
//   - later reviews: again -> base again; hard -> max(1, i*1.2);
//     medium -> round(i*ef); easy -> round(i*ef*easyBonus)
func calculateNewInterval(
	currentInterval float64,
	reviewCount int,
	easeFactor float64,
	rating domain.Rating,
	params Params,
) float64 {
	if reviewCount == 0 {
		return params.BaseIntervals.For(rating)
	}

	switch rating {
	case domain.RatingAgain:
		return params.BaseIntervals.Again
	case domain.RatingHard:
		return math.Max(1, currentInterval*params.HardMultiplier)
	case domain.RatingMedium:
		if reviewCount == 1 {
			return currentInterval * params.SecondMediumMultiple
		}
		return math.Round(currentInterval * easeFactor)
	case domain.RatingEasy:
		if reviewCount == 1 {
			return currentInterval * params.SecondEasyMultiple
		}
		return math.Round(currentInterval * easeFactor * params.EasyBonus)
	default:
		return params.BaseIntervals.Again
	}
}

// calculateNextReviewDate converts a fractional day interval into an instant.
func calculateNextReviewDate(interval float64, now time.Time) time.Time {
	return now.Add(time.Duration(interval * float64(day)))
}

// ComputeNextReview returns the review state that results from rating a card
// with the given state at time now.
//
// It is a pure function: the input state is not modified, and the same inputs
// always yield the same output. The returned state has ReviewCount incremented
// by exactly one, LastReviewed set to now and NextReview recomputed from the
// new interval. Ratings outside the closed set are treated as "again" here;
// callers validate ratings before reaching the engine (see Service).
func ComputeNextReview(
	state domain.ReviewState,
	rating domain.Rating,
	now time.Time,
	params Params,
) domain.ReviewState {
	newEF := calculateNewEaseFactor(state.EaseFactor, rating, params)
	interval := calculateNewInterval(state.Interval, state.ReviewCount, newEF, rating, params)

	return domain.ReviewState{
		EaseFactor:   newEF,
		Interval:     interval,
		ReviewCount:  state.ReviewCount + 1,
		LastReviewed: now,
		NextReview:   calculateNextReviewDate(interval, now),
	}
}
