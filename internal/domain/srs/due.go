package srs

import (
	"slices"
	"time"

	"github.com/phrazzld/scry-study/internal/domain"
)

// IsDue reports whether a card scheduled for nextReview should be shown at now.
// The boundary is inclusive.
func IsDue(nextReview, now time.Time) bool {
	return !nextReview.After(now)
}

// SortByPriority returns a copy of cards ordered by NextReview ascending, most
// overdue first. The sort is stable: cards with equal NextReview keep their
// input order. The input slice is not modified.
func SortByPriority(cards []domain.Card) []domain.Card {
	sorted := slices.Clone(cards)
	slices.SortStableFunc(sorted, func(a, b domain.Card) int {
		return a.Review.NextReview.Compare(b.Review.NextReview)
	})
	return sorted
}

// SelectDue filters cards down to those due at now and orders them by priority.
func SelectDue(cards []domain.Card, now time.Time) []domain.Card {
	due := make([]domain.Card, 0, len(cards))
	for _, c := range cards {
		if IsDue(c.Review.NextReview, now) {
			due = append(due, c)
		}
	}
	return SortByPriority(due)
}

// CountDue counts the cards due at now.
func CountDue(cards []domain.Card, now time.Time) int {
	n := 0
	for _, c := range cards {
		if IsDue(c.Review.NextReview, now) {
			n++
		}
	}
	return n
}
