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

// PostgresDeckStore implements the store.DeckStore interface
// using a PostgreSQL database as the storage backend.
type PostgresDeckStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDeckStore creates a new PostgreSQL implementation of the DeckStore interface.
// It accepts a database connection or transaction managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresDeckStore(db store.DBTX, logger *slog.Logger) *PostgresDeckStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDeckStore{
		db:     db,
		logger: logger.With(slog.String("component", "deck_store")),
	}
}

// Ensure PostgresDeckStore implements store.DeckStore interface
var _ store.DeckStore = (*PostgresDeckStore)(nil)

// Create implements store.DeckStore.Create
func (s *PostgresDeckStore) Create(ctx context.Context, deck *domain.Deck) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := deck.Validate(); err != nil {
		log.Warn("deck validation failed during create",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return err
	}

	query := `
		INSERT INTO decks (id, user_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		deck.ID, deck.UserID, deck.Name, deck.CreatedAt, deck.UpdatedAt)
	if err != nil {
		log.Error("failed to create deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return store.NewStoreError("deck", "create", "insert failed", MapError(err, nil))
	}

	log.Info("deck created",
		slog.String("deck_id", deck.ID.String()),
		slog.String("user_id", deck.UserID.String()))
	return nil
}

// GetByID implements store.DeckStore.GetByID
func (s *PostgresDeckStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, name, created_at, updated_at
		FROM decks
		WHERE id = $1
	`

	var deck domain.Deck
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&deck.ID, &deck.UserID, &deck.Name, &deck.CreatedAt, &deck.UpdatedAt)
	if err != nil {
		mapped := MapError(err, store.ErrDeckNotFound)
		if store.IsNotFoundError(mapped) {
			log.Debug("deck not found", slog.String("deck_id", id.String()))
			return nil, store.ErrDeckNotFound
		}
		log.Error("failed to get deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return nil, store.NewStoreError("deck", "get", "query failed", mapped)
	}

	return &deck, nil
}

// ListByUser implements store.DeckStore.ListByUser
func (s *PostgresDeckStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, name, created_at, updated_at
		FROM decks
		WHERE user_id = $1
		ORDER BY name, created_at
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list decks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, store.NewStoreError("deck", "list", "query failed", MapError(err, nil))
	}
	defer func() { _ = rows.Close() }()

	decks := []domain.Deck{}
	for rows.Next() {
		var d domain.Deck
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, store.NewStoreError("deck", "list", "scan failed", err)
		}
		decks = append(decks, d)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("deck", "list", "iteration failed", err)
	}

	return decks, nil
}

// ListDueCounts implements store.DeckStore.ListDueCounts
func (s *PostgresDeckStore) ListDueCounts(ctx context.Context, asOf time.Time) ([]store.DeckDueCount, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT d.id, d.user_id, d.name, COUNT(c.id)
		FROM decks d
		JOIN cards c ON c.deck_id = d.id
		WHERE c.next_review_at <= $1
		GROUP BY d.id, d.user_id, d.name
		ORDER BY d.name
	`
	rows, err := s.db.QueryContext(ctx, query, asOf)
	if err != nil {
		log.Error("failed to count due cards", slog.String("error", err.Error()))
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

// Delete implements store.DeckStore.Delete
func (s *PostgresDeckStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM decks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return store.NewStoreError("deck", "delete", "delete failed", MapError(err, nil))
	}
	if err := CheckRowsAffected(result, store.ErrDeckNotFound); err != nil {
		return err
	}

	log.Info("deck deleted", slog.String("deck_id", id.String()))
	return nil
}

// WithTx implements store.DeckStore.WithTx
func (s *PostgresDeckStore) WithTx(tx *sql.Tx) store.DeckStore {
	return &PostgresDeckStore{db: tx, logger: s.logger}
}
