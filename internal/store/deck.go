package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
)

// DeckDueCount is the number of due cards in one deck.
type DeckDueCount struct {
	DeckID   uuid.UUID
	UserID   uuid.UUID
	DeckName string
	Due      int
}

// DeckStore defines the interface for deck data persistence.
type DeckStore interface {
	// Create saves a new deck.
	// Returns validation errors if the deck is invalid and ErrDuplicate if the ID exists.
	Create(ctx context.Context, deck *domain.Deck) error

	// GetByID retrieves a deck by its unique ID.
	// Returns ErrDeckNotFound if the deck does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error)

	// ListByUser returns the decks owned by a user ordered by name.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Deck, error)

	// ListDueCounts returns, for every deck with at least one due card at asOf,
	// the number of due cards.
	ListDueCounts(ctx context.Context, asOf time.Time) ([]DeckDueCount, error)

	// Delete removes a deck and, through cascading deletes, its cards.
	// Returns ErrDeckNotFound if the deck does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a DeckStore bound to the given transaction.
	WithTx(tx *sql.Tx) DeckStore
}
