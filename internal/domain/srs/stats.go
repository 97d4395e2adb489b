package srs

import (
	"time"

	"github.com/phrazzld/scry-study/internal/domain"
)

// DeckStatistics summarises the scheduling state of a card collection.
// It is derived on demand and never persisted.
type DeckStatistics struct {
	TotalCards         int     `json:"total_cards"`
	DueCards           int     `json:"due_cards"`
	NewCards           int     `json:"new_cards"`
	AverageEaseFactor  float64 `json:"average_ease_factor"`
	EstimatedRetention float64 `json:"estimated_retention"`
}

// AverageEaseFactor returns the mean ease factor of cards, or params.DefaultEase
// when there are no cards.
func AverageEaseFactor(cards []domain.Card, params Params) float64 {
	if len(cards) == 0 {
		return params.DefaultEase
	}
	return meanEase(cards)
}

// EstimateRetention maps an ease factor linearly from [MinEase, MaxEaseNominal]
// onto [50, 100]. The result is not clamped; ease factors outside the nominal
// range give values outside [50, 100]. With the default params the nominal
// top ease of 2.5 maps to exactly 100.
func EstimateRetention(easeFactor float64, params Params) float64 {
	span := params.MaxEaseNominal - params.MinEase
	return 50 + 50*(easeFactor-params.MinEase)/span
}

// ComputeDeckStatistics reduces cards to deck-level metrics at time now.
//
// An empty collection reports an average ease factor of 0, unlike
// AverageEaseFactor which falls back to the default ease. Its estimated
// retention is set to 0 directly rather than computed: feeding the 0 average
// through EstimateRetention would give a negative percentage.
func ComputeDeckStatistics(cards []domain.Card, now time.Time, params Params) DeckStatistics {
	stats := DeckStatistics{TotalCards: len(cards)}
	if len(cards) == 0 {
		return stats
	}

	for _, c := range cards {
		if IsDue(c.Review.NextReview, now) {
			stats.DueCards++
		}
		if c.Review.IsNew() {
			stats.NewCards++
		}
	}

	stats.AverageEaseFactor = meanEase(cards)
	stats.EstimatedRetention = EstimateRetention(stats.AverageEaseFactor, params)
	return stats
}

func meanEase(cards []domain.Card) float64 {
	var sum float64
	for _, c := range cards {
		sum += c.Review.EaseFactor
	}
	return sum / float64(len(cards))
}
