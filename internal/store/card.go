package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
)

// CardStore defines the interface for card data persistence.
type CardStore interface {
	// CreateMultiple saves multiple cards to the store.
	// It should run inside a transaction (see WithTx and RunInTransaction)
	// so either every card is written or none is.
	// Returns validation errors if any card data is invalid.
	CreateMultiple(ctx context.Context, cards []*domain.Card) error

	// GetByID retrieves a card by its unique ID.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// ListByDeck returns every card of a deck ordered by creation time.
	ListByDeck(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error)

	// FetchDueCards returns the cards of a deck whose next review is at or
	// before asOf, earliest first.
	FetchDueCards(ctx context.Context, deckID uuid.UUID, asOf time.Time) ([]domain.Card, error)

	// PersistReviewState overwrites the review state of a card. Writing the
	// same state twice is harmless.
	// Returns ErrCardNotFound if the card does not exist.
	PersistReviewState(ctx context.Context, cardID uuid.UUID, state domain.ReviewState) error

	// Delete removes a card from the store by its ID.
	// Returns ErrCardNotFound if the card does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a CardStore bound to the given transaction.
	//
	// Example usage:
	//   err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
	//       return cardStore.WithTx(tx).CreateMultiple(ctx, cards)
	//   })
	WithTx(tx *sql.Tx) CardStore
}
