package domain

import (
	"fmt"
	"strings"
)

// Rating is the learner's difficulty rating for a single card review.
// Values are ordered by increasing confidence. The zero value is not a
// valid rating.
type Rating int

// Possible rating values
const (
	RatingAgain Rating = iota + 1
	RatingHard
	RatingMedium
	RatingEasy
)

// Ratings lists every valid rating in ascending confidence order.
var Ratings = []Rating{RatingAgain, RatingHard, RatingMedium, RatingEasy}

// String returns the wire name of the rating.
func (r Rating) String() string {
	switch r {
	case RatingAgain:
		return "again"
	case RatingHard:
		return "hard"
	case RatingMedium:
		return "medium"
	case RatingEasy:
		return "easy"
	default:
		return fmt.Sprintf("Rating(%d)", int(r))
	}
}

// IsValid reports whether r is one of the four defined ratings.
func (r Rating) IsValid() bool {
	return r >= RatingAgain && r <= RatingEasy
}

// IsCorrect reports whether the rating counts as a correct recall
// (medium or easy) for session accuracy.
func (r Rating) IsCorrect() bool {
	return r == RatingMedium || r == RatingEasy
}

// ParseRating converts a wire name into a Rating. Matching is case-insensitive.
// "good" is accepted as an alias for medium.
func ParseRating(s string) (Rating, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "again":
		return RatingAgain, nil
	case "hard":
		return RatingHard, nil
	case "medium", "good":
		return RatingMedium, nil
	case "easy":
		return RatingEasy, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidRating, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Rating) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRating, int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rating) UnmarshalText(text []byte) error {
	parsed, err := ParseRating(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
