package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/session"
)

// CreateDeckRequest is the body of POST /decks.
type CreateDeckRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// CardContentRequest is one card in an AddCardsRequest.
type CardContentRequest struct {
	Front    string   `json:"front"               validate:"required,max=2000"`
	Back     string   `json:"back"                validate:"required,max=2000"`
	Hint     string   `json:"hint,omitempty"      validate:"max=500"`
	Tags     []string `json:"tags,omitempty"      validate:"max=20,dive,max=50"`
	ImageURL string   `json:"image_url,omitempty" validate:"omitempty,url"`
}

// AddCardsRequest is the body of POST /decks/{id}/cards.
type AddCardsRequest struct {
	Cards []CardContentRequest `json:"cards" validate:"required,min=1,max=500,dive"`
}

// SubmitReviewRequest is the body of POST /sessions/{id}/reviews.
type SubmitReviewRequest struct {
	Rating string `json:"rating" validate:"required,oneof=again hard medium good easy"`
}

// PostponeCardRequest is the body of POST /cards/{id}/postpone.
type PostponeCardRequest struct {
	Days int `json:"days" validate:"required,gte=1,lte=365"`
}

// DeckResponse is the wire form of a deck.
type DeckResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CardResponse is the wire form of a card.
type CardResponse struct {
	ID           uuid.UUID       `json:"id"`
	DeckID       uuid.UUID       `json:"deck_id"`
	Content      json.RawMessage `json:"content"`
	EaseFactor   float64         `json:"ease_factor"`
	Interval     float64         `json:"interval"`
	ReviewCount  int             `json:"review_count"`
	LastReviewed time.Time       `json:"last_reviewed"`
	NextReview   time.Time       `json:"next_review"`
}

// ReviewResponse is returned by POST /sessions/{id}/reviews.
type ReviewResponse struct {
	CardID      uuid.UUID `json:"card_id"`
	EaseFactor  float64   `json:"ease_factor"`
	Interval    float64   `json:"interval"`
	ReviewCount int       `json:"review_count"`
	NextReview  time.Time `json:"next_review"`
	Completed   bool      `json:"completed"`
}

// SummaryResponse is returned by POST /sessions/{id}/end.
type SummaryResponse struct {
	SessionID       uuid.UUID `json:"session_id"`
	DeckID          uuid.UUID `json:"deck_id"`
	TotalCards      int       `json:"total_cards"`
	CardsReviewed   int       `json:"cards_reviewed"`
	CorrectCount    int       `json:"correct_count"`
	Accuracy        float64   `json:"accuracy"`
	DurationSeconds float64   `json:"duration_seconds"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
}

func deckToResponse(d domain.Deck) DeckResponse {
	return DeckResponse{ID: d.ID, Name: d.Name, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}
}

func cardToResponse(c domain.Card) CardResponse {
	return CardResponse{
		ID:           c.ID,
		DeckID:       c.DeckID,
		Content:      c.Content,
		EaseFactor:   c.Review.EaseFactor,
		Interval:     c.Review.Interval,
		ReviewCount:  c.Review.ReviewCount,
		LastReviewed: c.Review.LastReviewed,
		NextReview:   c.Review.NextReview,
	}
}

func reviewToResponse(r session.ReviewResult) ReviewResponse {
	return ReviewResponse{
		CardID:      r.CardID,
		EaseFactor:  r.Review.EaseFactor,
		Interval:    r.Review.Interval,
		ReviewCount: r.Review.ReviewCount,
		NextReview:  r.Review.NextReview,
		Completed:   r.Completed,
	}
}

func summaryToResponse(s session.Summary) SummaryResponse {
	return SummaryResponse{
		SessionID:       s.SessionID,
		DeckID:          s.DeckID,
		TotalCards:      s.TotalCards,
		CardsReviewed:   s.CardsReviewed,
		CorrectCount:    s.CorrectCount,
		Accuracy:        s.Accuracy,
		DurationSeconds: s.Duration.Seconds(),
		StartedAt:       s.StartedAt,
		EndedAt:         s.EndedAt,
	}
}
