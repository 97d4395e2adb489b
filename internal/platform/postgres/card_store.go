package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/store"
)

const cardColumns = `id, deck_id, content, ease_factor, interval_days, review_count,
	last_reviewed_at, next_review_at, created_at, updated_at`

// PostgresCardStore implements the store.CardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the CardStore interface.
// It accepts a database connection or transaction managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (domain.Card, error) {
	var card domain.Card
	var content []byte
	err := row.Scan(
		&card.ID,
		&card.DeckID,
		&content,
		&card.Review.EaseFactor,
		&card.Review.Interval,
		&card.Review.ReviewCount,
		&card.Review.LastReviewed,
		&card.Review.NextReview,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	card.Content = content
	return card, err
}

// CreateMultiple implements store.CardStore.CreateMultiple
// Callers wrap it in a transaction for atomicity.
func (s *PostgresCardStore) CreateMultiple(ctx context.Context, cards []*domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(cards) == 0 {
		return nil
	}

	for _, card := range cards {
		if err := card.Validate(); err != nil {
			log.Warn("card validation failed during create",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()))
			return err
		}
	}

	query := `
		INSERT INTO cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, card := range cards {
		_, err := s.db.ExecContext(ctx, query,
			card.ID,
			card.DeckID,
			[]byte(card.Content),
			card.Review.EaseFactor,
			card.Review.Interval,
			card.Review.ReviewCount,
			card.Review.LastReviewed,
			card.Review.NextReview,
			card.CreatedAt,
			card.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to create card",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()),
				slog.String("deck_id", card.DeckID.String()))
			return store.NewStoreError("card", "create", "insert failed", MapError(err, nil))
		}
	}

	log.Info("cards created",
		slog.Int("count", len(cards)),
		slog.String("deck_id", cards[0].DeckID.String()))
	return nil
}

// GetByID implements store.CardStore.GetByID
func (s *PostgresCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`
	card, err := scanCard(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		mapped := MapError(err, store.ErrCardNotFound)
		if store.IsNotFoundError(mapped) {
			log.Debug("card not found", slog.String("card_id", id.String()))
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to get card",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return nil, store.NewStoreError("card", "get", "query failed", mapped)
	}

	return &card, nil
}

// ListByDeck implements store.CardStore.ListByDeck
func (s *PostgresCardStore) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE deck_id = $1 ORDER BY created_at, id`
	return s.queryCards(ctx, "list", query, deckID)
}

// FetchDueCards implements store.CardStore.FetchDueCards
func (s *PostgresCardStore) FetchDueCards(
	ctx context.Context,
	deckID uuid.UUID,
	asOf time.Time,
) ([]domain.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE deck_id = $1 AND next_review_at <= $2
		ORDER BY next_review_at, created_at, id
	`
	return s.queryCards(ctx, "fetch_due", query, deckID, asOf)
}

func (s *PostgresCardStore) queryCards(
	ctx context.Context,
	operation string,
	query string,
	args ...any,
) ([]domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query cards",
			slog.String("operation", operation),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("card", operation, "query failed", MapError(err, nil))
	}
	defer func() { _ = rows.Close() }()

	cards := []domain.Card{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, store.NewStoreError("card", operation, "scan failed", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("card", operation, "iteration failed", err)
	}

	log.Debug("cards loaded",
		slog.String("operation", operation),
		slog.Int("count", len(cards)))
	return cards, nil
}

// PersistReviewState implements store.CardStore.PersistReviewState
func (s *PostgresCardStore) PersistReviewState(
	ctx context.Context,
	cardID uuid.UUID,
	state domain.ReviewState,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := state.Validate(); err != nil {
		return store.NewStoreError("card", "persist_review", "invalid review state",
			invalidEntity(err))
	}

	query := `
		UPDATE cards
		SET ease_factor = $2,
			interval_days = $3,
			review_count = $4,
			last_reviewed_at = $5,
			next_review_at = $6,
			updated_at = NOW()
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		cardID,
		state.EaseFactor,
		state.Interval,
		state.ReviewCount,
		state.LastReviewed,
		state.NextReview,
	)
	if err != nil {
		log.Error("failed to persist review state",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return store.NewStoreError("card", "persist_review", "update failed", MapError(err, nil))
	}
	if err := CheckRowsAffected(result, store.ErrCardNotFound); err != nil {
		log.Warn("review state for missing card", slog.String("card_id", cardID.String()))
		return err
	}

	log.Debug("review state persisted",
		slog.String("card_id", cardID.String()),
		slog.Int("review_count", state.ReviewCount),
		slog.Time("next_review", state.NextReview))
	return nil
}

// Delete implements store.CardStore.Delete
func (s *PostgresCardStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete card",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return store.NewStoreError("card", "delete", "delete failed", MapError(err, nil))
	}
	return CheckRowsAffected(result, store.ErrCardNotFound)
}

// WithTx implements store.CardStore.WithTx
func (s *PostgresCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &PostgresCardStore{db: tx, logger: s.logger}
}
