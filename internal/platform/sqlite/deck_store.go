package sqlite

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

// DeckStore implements store.DeckStore on SQLite.
type DeckStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.DeckStore = (*DeckStore)(nil)

// NewDeckStore creates a DeckStore. If logger is nil, a default logger will be used.
func NewDeckStore(db store.DBTX, logger *slog.Logger) *DeckStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DeckStore{db: db, logger: logger.With(slog.String("component", "deck_store"))}
}

func scanDeck(row interface{ Scan(...any) error }) (domain.Deck, error) {
	var d domain.Deck
	var created, updated string
	if err := row.Scan(&d.ID, &d.UserID, &d.Name, &created, &updated); err != nil {
		return d, err
	}
	var err error
	if d.CreatedAt, err = parseTime(created); err != nil {
		return d, err
	}
	d.UpdatedAt, err = parseTime(updated)
	return d, err
}

// Create implements store.DeckStore.
func (s *DeckStore) Create(ctx context.Context, deck *domain.Deck) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := deck.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decks (id, user_id, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		deck.ID, deck.UserID, deck.Name, formatTime(deck.CreatedAt), formatTime(deck.UpdatedAt))
	if err != nil {
		log.Error("failed to create deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return store.NewStoreError("deck", "create", "insert failed", MapError(err, nil))
	}

	log.Debug("deck created", slog.String("deck_id", deck.ID.String()))
	return nil
}

// GetByID implements store.DeckStore.
func (s *DeckStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at, updated_at FROM decks WHERE id = ?`, id)
	deck, err := scanDeck(row)
	if err != nil {
		mapped := MapError(err, store.ErrDeckNotFound)
		if store.IsNotFoundError(mapped) {
			return nil, store.ErrDeckNotFound
		}
		return nil, store.NewStoreError("deck", "get", "query failed", mapped)
	}
	return &deck, nil
}

// ListByUser implements store.DeckStore.
func (s *DeckStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Deck, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, created_at, updated_at FROM decks
		 WHERE user_id = ? ORDER BY name, created_at`, userID)
	if err != nil {
		return nil, store.NewStoreError("deck", "list", "query failed", MapError(err, nil))
	}
	defer func() { _ = rows.Close() }()

	decks := []domain.Deck{}
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			return nil, store.NewStoreError("deck", "list", "scan failed", err)
		}
		decks = append(decks, d)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("deck", "list", "iteration failed", err)
	}
	return decks, nil
}

// ListDueCounts implements store.DeckStore.
func (s *DeckStore) ListDueCounts(ctx context.Context, asOf time.Time) ([]store.DeckDueCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.user_id, d.name, COUNT(c.id)
		FROM decks d
		JOIN cards c ON c.deck_id = d.id
		WHERE c.next_review_at <= ?
		GROUP BY d.id, d.user_id, d.name
		ORDER BY d.name`, formatTime(asOf))
	if err != nil {
		return nil, store.NewStoreError("deck", "due_counts", "query failed", MapError(err, nil))
	}
	defer func() { _ = rows.Close() }()

	counts := []store.DeckDueCount{}
	for rows.Next() {
		var c store.DeckDueCount
		if err := rows.Scan(&c.DeckID, &c.UserID, &c.DeckName, &c.Due); err != nil {
			return nil, store.NewStoreError("deck", "due_counts", "scan failed", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("deck", "due_counts", "iteration failed", err)
	}
	return counts, nil
}

// Delete implements store.DeckStore.
func (s *DeckStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id)
	if err != nil {
		return store.NewStoreError("deck", "delete", "delete failed", MapError(err, nil))
	}
	return checkRowsAffected(result, store.ErrDeckNotFound)
}

// WithTx implements store.DeckStore.
func (s *DeckStore) WithTx(tx *sql.Tx) store.DeckStore {
	return &DeckStore{db: tx, logger: s.logger}
}
