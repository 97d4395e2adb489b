package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/store"
)

const cardColumns = `id, deck_id, content, ease_factor, interval_days, review_count,
	last_reviewed_at, next_review_at, created_at, updated_at`

// CardStore implements store.CardStore on SQLite.
type CardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.CardStore = (*CardStore)(nil)

// NewCardStore creates a CardStore. If logger is nil, a default logger will be used.
func NewCardStore(db store.DBTX, logger *slog.Logger) *CardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CardStore{db: db, logger: logger.With(slog.String("component", "card_store"))}
}

func scanCard(row interface{ Scan(...any) error }) (domain.Card, error) {
	var card domain.Card
	var content []byte
	var lastReviewed, nextReview, created, updated string

	err := row.Scan(
		&card.ID,
		&card.DeckID,
		&content,
		&card.Review.EaseFactor,
		&card.Review.Interval,
		&card.Review.ReviewCount,
		&lastReviewed,
		&nextReview,
		&created,
		&updated,
	)
	if err != nil {
		return card, err
	}
	card.Content = content

	for _, f := range []struct {
		dst *time.Time
		src string
	}{
		{&card.Review.LastReviewed, lastReviewed},
		{&card.Review.NextReview, nextReview},
		{&card.CreatedAt, created},
		{&card.UpdatedAt, updated},
	} {
		if *f.dst, err = parseTime(f.src); err != nil {
			return card, fmt.Errorf("malformed timestamp %q: %w", f.src, err)
		}
	}
	return card, nil
}

// CreateMultiple implements store.CardStore.
func (s *CardStore) CreateMultiple(ctx context.Context, cards []*domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, card := range cards {
		if err := card.Validate(); err != nil {
			return err
		}
	}

	query := `INSERT INTO cards (` + cardColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, card := range cards {
		_, err := s.db.ExecContext(ctx, query,
			card.ID,
			card.DeckID,
			string(card.Content),
			card.Review.EaseFactor,
			card.Review.Interval,
			card.Review.ReviewCount,
			formatTime(card.Review.LastReviewed),
			formatTime(card.Review.NextReview),
			formatTime(card.CreatedAt),
			formatTime(card.UpdatedAt),
		)
		if err != nil {
			log.Error("failed to create card",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()))
			return store.NewStoreError("card", "create", "insert failed", MapError(err, nil))
		}
	}

	log.Debug("cards created", slog.Int("count", len(cards)))
	return nil
}

// GetByID implements store.CardStore.
func (s *CardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	card, err := scanCard(row)
	if err != nil {
		mapped := MapError(err, store.ErrCardNotFound)
		if store.IsNotFoundError(mapped) {
			return nil, store.ErrCardNotFound
		}
		return nil, store.NewStoreError("card", "get", "query failed", mapped)
	}
	return &card, nil
}

// ListByDeck implements store.CardStore.
func (s *CardStore) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]domain.Card, error) {
	return s.queryCards(ctx, "list",
		`SELECT `+cardColumns+` FROM cards WHERE deck_id = ? ORDER BY created_at, id`, deckID)
}

// FetchDueCards implements store.CardStore.
func (s *CardStore) FetchDueCards(ctx context.Context, deckID uuid.UUID, asOf time.Time) ([]domain.Card, error) {
	return s.queryCards(ctx, "fetch_due",
		`SELECT `+cardColumns+` FROM cards
		 WHERE deck_id = ? AND next_review_at <= ?
		 ORDER BY next_review_at, created_at, id`,
		deckID, formatTime(asOf))
}

func (s *CardStore) queryCards(ctx context.Context, operation, query string, args ...any) ([]domain.Card, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
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
	return cards, nil
}

// PersistReviewState implements store.CardStore.
func (s *CardStore) PersistReviewState(ctx context.Context, cardID uuid.UUID, state domain.ReviewState) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := state.Validate(); err != nil {
		return store.NewStoreError("card", "persist_review", "invalid review state",
			fmt.Errorf("%w: %w", store.ErrInvalidEntity, err))
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE cards
		SET ease_factor = ?, interval_days = ?, review_count = ?,
			last_reviewed_at = ?, next_review_at = ?, updated_at = ?
		WHERE id = ?`,
		state.EaseFactor,
		state.Interval,
		state.ReviewCount,
		formatTime(state.LastReviewed),
		formatTime(state.NextReview),
		formatTime(time.Now()),
		cardID,
	)
	if err != nil {
		log.Error("failed to persist review state",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return store.NewStoreError("card", "persist_review", "update failed", MapError(err, nil))
	}
	return checkRowsAffected(result, store.ErrCardNotFound)
}

// Delete implements store.CardStore.
func (s *CardStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return store.NewStoreError("card", "delete", "delete failed", MapError(err, nil))
	}
	return checkRowsAffected(result, store.ErrCardNotFound)
}

// WithTx implements store.CardStore.
func (s *CardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &CardStore{db: tx, logger: s.logger}
}
