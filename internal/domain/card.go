package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardDeckIDEmpty is returned when a card's deck ID is empty or nil.
	ErrCardDeckIDEmpty = errors.New("card deck ID cannot be empty")

	// ErrCardContentEmpty is returned when a card's content is empty.
	ErrCardContentEmpty = errors.New("card content cannot be empty")

	// ErrCardContentInvalid is returned when a card's content is not valid JSON.
	ErrCardContentInvalid = errors.New("card content must be valid JSON")
)

// Card is a single flashcard in a deck together with its scheduling state.
// Content is stored as JSON so the capture pipeline (OCR, generation) can
// attach extra fields without a schema change.
type Card struct {
	ID        uuid.UUID       `json:"id"`
	DeckID    uuid.UUID       `json:"deck_id"`
	Content   json.RawMessage `json:"content"`
	Review    ReviewState     `json:"review"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CardContent is the usual shape of Card.Content.
type CardContent struct {
	Front    string   `json:"front"`
	Back     string   `json:"back"`
	Hint     string   `json:"hint,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
}

// NewCard creates a card in deckID that is due immediately.
// Returns an error if validation fails.
func NewCard(deckID uuid.UUID, content json.RawMessage, now time.Time, ease float64) (*Card, error) {
	now = now.UTC()
	card := &Card{
		ID:        uuid.New(),
		DeckID:    deckID,
		Content:   content,
		Review:    NewReviewState(now, ease),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.DeckID == uuid.Nil {
		return ErrCardDeckIDEmpty
	}

	if len(c.Content) == 0 {
		return ErrCardContentEmpty
	}

	if !json.Valid(c.Content) {
		return ErrCardContentInvalid
	}

	return c.Review.Validate()
}

// DecodeContent unmarshals Content into the CardContent shape.
func (c *Card) DecodeContent() (CardContent, error) {
	var content CardContent
	if err := json.Unmarshal(c.Content, &content); err != nil {
		return CardContent{}, ErrCardContentInvalid
	}
	return content, nil
}

// WithReview returns a copy of the card carrying the given review state.
func (c Card) WithReview(state ReviewState, now time.Time) Card {
	c.Review = state
	c.UpdatedAt = now.UTC()
	return c
}
