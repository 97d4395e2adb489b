package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Deck validation errors
var (
	ErrEmptyDeckID     = errors.New("deck ID cannot be empty")
	ErrEmptyDeckUserID = errors.New("deck user ID cannot be empty")
	ErrEmptyDeckName   = errors.New("deck name cannot be empty")
)

// Deck groups the cards a user studies together.
type Deck struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewDeck creates a deck owned by userID.
func NewDeck(userID uuid.UUID, name string) (*Deck, error) {
	now := time.Now().UTC()
	deck := &Deck{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := deck.Validate(); err != nil {
		return nil, err
	}

	return deck, nil
}

// Validate checks if the Deck has valid data.
func (d *Deck) Validate() error {
	if d.ID == uuid.Nil {
		return ErrEmptyDeckID
	}
	if d.UserID == uuid.Nil {
		return ErrEmptyDeckUserID
	}
	if d.Name == "" {
		return ErrEmptyDeckName
	}
	return nil
}
