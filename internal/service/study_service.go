package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/domain/srs"
	"github.com/phrazzld/scry-study/internal/events"
	"github.com/phrazzld/scry-study/internal/platform/logger"
	"github.com/phrazzld/scry-study/internal/session"
	"github.com/phrazzld/scry-study/internal/store"
)

// StudyService provides deck, card and study-session operations for a user.
type StudyService interface {
	// CreateDeck creates an empty deck owned by userID.
	CreateDeck(ctx context.Context, userID uuid.UUID, name string) (*domain.Deck, error)

	// ListDecks returns the decks owned by userID.
	ListDecks(ctx context.Context, userID uuid.UUID) ([]domain.Deck, error)

	// AddCards creates one card per content document in deckID. Either every
	// card is written or none is.
	AddCards(ctx context.Context, userID, deckID uuid.UUID, contents []json.RawMessage) ([]*domain.Card, error)

	// DeckStats computes the statistics of a deck at the current time.
	DeckStats(ctx context.Context, userID, deckID uuid.UUID) (srs.DeckStatistics, error)

	// DueCards returns the due cards of a deck in review order.
	DueCards(ctx context.Context, userID, deckID uuid.UUID) ([]domain.Card, error)

	// PostponeCard pushes a card's next review back by days without counting a review.
	PostponeCard(ctx context.Context, userID, cardID uuid.UUID, days int) (*domain.Card, error)

	// StartSession opens a study session over the cards of deckID that are due now.
	StartSession(ctx context.Context, userID, deckID uuid.UUID) (session.Progress, error)

	// SessionProgress reports the position and counters of an open session.
	SessionProgress(ctx context.Context, userID, sessionID uuid.UUID) (session.Progress, error)

	// CurrentCard returns the card the session is waiting on.
	CurrentCard(ctx context.Context, userID, sessionID uuid.UUID) (domain.Card, error)

	// SubmitReview rates the current card of the session.
	SubmitReview(ctx context.Context, userID, sessionID uuid.UUID, rating domain.Rating) (session.ReviewResult, error)

	// EndSession finalizes the session, removes it and returns its summary.
	EndSession(ctx context.Context, userID, sessionID uuid.UUID) (session.Summary, error)

	// ExpireIdleSessions ends every session untouched since before cutoff and
	// returns how many were removed.
	ExpireIdleSessions(ctx context.Context, cutoff time.Time) int
}

// StudyOptions configures a StudyService.
type StudyOptions struct {
	// MaxCards caps the cards in each session snapshot. Zero means no limit.
	MaxCards int

	// DB, when set, is used to run multi-card writes in a transaction.
	DB *sql.DB
}

type openSession struct {
	ctrl       *session.Controller
	userID     uuid.UUID
	lastActive time.Time
	announced  bool
}

// studyServiceImpl implements the StudyService interface
type studyServiceImpl struct {
	decks   store.DeckStore
	cards   store.CardStore
	srs     srs.Service
	emitter events.EventEmitter
	opts    StudyOptions
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*openSession
}

// NewStudyService creates a new StudyService.
// It returns an error if any of the required dependencies are nil.
// A nil emitter disables session.completed events.
func NewStudyService(
	decks store.DeckStore,
	cards store.CardStore,
	srsService srs.Service,
	emitter events.EventEmitter,
	opts StudyOptions,
	logger *slog.Logger,
) (StudyService, error) {
	if decks == nil {
		return nil, domain.NewValidationError("decks", "cannot be nil", domain.ErrValidation)
	}
	if cards == nil {
		return nil, domain.NewValidationError("cards", "cannot be nil", domain.ErrValidation)
	}
	if srsService == nil {
		return nil, domain.NewValidationError("srsService", "cannot be nil", domain.ErrValidation)
	}
	if opts.MaxCards < 0 {
		return nil, domain.NewValidationError("MaxCards", "cannot be negative", domain.ErrValidation)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &studyServiceImpl{
		decks:    decks,
		cards:    cards,
		srs:      srsService,
		emitter:  emitter,
		opts:     opts,
		logger:   logger.With(slog.String("component", "study_service")),
		sessions: make(map[uuid.UUID]*openSession),
	}, nil
}

// ownedDeck loads a deck and checks it belongs to userID.
func (s *studyServiceImpl) ownedDeck(ctx context.Context, op string, userID, deckID uuid.UUID) (*domain.Deck, error) {
	deck, err := s.decks.GetByID(ctx, deckID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, store.ErrDeckNotFound
		}
		return nil, NewServiceError(op, "failed to load deck", err)
	}
	if deck.UserID != userID {
		return nil, ErrDeckNotOwned
	}
	return deck, nil
}

// CreateDeck implements StudyService.CreateDeck
func (s *studyServiceImpl) CreateDeck(ctx context.Context, userID uuid.UUID, name string) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	deck, err := domain.NewDeck(userID, name)
	if err != nil {
		return nil, err
	}
	if err := s.decks.Create(ctx, deck); err != nil {
		return nil, NewServiceError("create_deck", "failed to save deck", err)
	}

	log.Info("deck created",
		slog.String("deck_id", deck.ID.String()),
		slog.String("user_id", userID.String()))
	return deck, nil
}

// ListDecks implements StudyService.ListDecks
func (s *studyServiceImpl) ListDecks(ctx context.Context, userID uuid.UUID) ([]domain.Deck, error) {
	decks, err := s.decks.ListByUser(ctx, userID)
	if err != nil {
		return nil, NewServiceError("list_decks", "failed to list decks", err)
	}
	return decks, nil
}

// AddCards implements StudyService.AddCards
func (s *studyServiceImpl) AddCards(
	ctx context.Context,
	userID, deckID uuid.UUID,
	contents []json.RawMessage,
) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.ownedDeck(ctx, "add_cards", userID, deckID); err != nil {
		return nil, err
	}

	now := s.srs.Now()
	ease := s.srs.Params().DefaultEase
	cards := make([]*domain.Card, 0, len(contents))
	for i, content := range contents {
		card, err := domain.NewCard(deckID, content, now, ease)
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", i+1, err)
		}
		cards = append(cards, card)
	}
	if len(cards) == 0 {
		return cards, nil
	}

	write := func(ctx context.Context, cardStore store.CardStore) error {
		return cardStore.CreateMultiple(ctx, cards)
	}

	var err error
	if s.opts.DB != nil {
		err = store.RunInTransaction(ctx, s.opts.DB, func(ctx context.Context, tx *sql.Tx) error {
			return write(ctx, s.cards.WithTx(tx))
		})
	} else {
		err = write(ctx, s.cards)
	}
	if err != nil {
		return nil, NewServiceError("add_cards", "failed to save cards", err)
	}

	log.Info("cards added",
		slog.String("deck_id", deckID.String()),
		slog.Int("count", len(cards)))
	return cards, nil
}

// DeckStats implements StudyService.DeckStats
func (s *studyServiceImpl) DeckStats(ctx context.Context, userID, deckID uuid.UUID) (srs.DeckStatistics, error) {
	if _, err := s.ownedDeck(ctx, "deck_stats", userID, deckID); err != nil {
		return srs.DeckStatistics{}, err
	}

	cards, err := s.cards.ListByDeck(ctx, deckID)
	if err != nil {
		return srs.DeckStatistics{}, NewServiceError("deck_stats", "failed to list cards", err)
	}
	return srs.ComputeDeckStatistics(cards, s.srs.Now(), s.srs.Params()), nil
}

// DueCards implements StudyService.DueCards
func (s *studyServiceImpl) DueCards(ctx context.Context, userID, deckID uuid.UUID) ([]domain.Card, error) {
	if _, err := s.ownedDeck(ctx, "due_cards", userID, deckID); err != nil {
		return nil, err
	}

	now := s.srs.Now()
	cards, err := s.cards.FetchDueCards(ctx, deckID, now)
	if err != nil {
		return nil, NewServiceError("due_cards", "failed to fetch due cards", err)
	}
	return srs.SelectDue(cards, now), nil
}

// PostponeCard implements StudyService.PostponeCard
func (s *studyServiceImpl) PostponeCard(ctx context.Context, userID, cardID uuid.UUID, days int) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, store.ErrCardNotFound
		}
		return nil, NewServiceError("postpone_card", "failed to load card", err)
	}
	if _, err := s.ownedDeck(ctx, "postpone_card", userID, card.DeckID); err != nil {
		return nil, err
	}

	next, err := s.srs.PostponeReview(card.Review, days)
	if err != nil {
		return nil, err
	}
	if err := s.cards.PersistReviewState(ctx, card.ID, next); err != nil {
		return nil, NewServiceError("postpone_card", "failed to save review state", err)
	}

	log.Info("card postponed",
		slog.String("card_id", card.ID.String()),
		slog.Int("days", days),
		slog.Time("next_review", next.NextReview))

	updated := card.WithReview(next, s.srs.Now())
	return &updated, nil
}

// StartSession implements StudyService.StartSession
func (s *studyServiceImpl) StartSession(ctx context.Context, userID, deckID uuid.UUID) (session.Progress, error) {
	if _, err := s.ownedDeck(ctx, "start_session", userID, deckID); err != nil {
		return session.Progress{}, err
	}

	ctrl := session.NewController(s.cards, s.srs, session.Options{
		Limit:  s.opts.MaxCards,
		Logger: s.logger,
	})
	if err := ctrl.Start(ctx, deckID); err != nil {
		return session.Progress{}, err
	}

	s.mu.Lock()
	s.sessions[ctrl.ID()] = &openSession{ctrl: ctrl, userID: userID, lastActive: s.srs.Now()}
	s.mu.Unlock()

	if ctrl.State() == session.StateCompleted {
		s.announce(ctx, ctrl.ID())
	}
	return ctrl.Progress(), nil
}

// lookup returns the open session for userID, touching its activity time.
// Sessions of other users are reported as not found.
func (s *studyServiceImpl) lookup(userID, sessionID uuid.UUID) (*session.Controller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	open, ok := s.sessions[sessionID]
	if !ok || open.userID != userID {
		return nil, ErrSessionNotFound
	}
	open.lastActive = s.srs.Now()
	return open.ctrl, nil
}

// SessionProgress implements StudyService.SessionProgress
func (s *studyServiceImpl) SessionProgress(_ context.Context, userID, sessionID uuid.UUID) (session.Progress, error) {
	ctrl, err := s.lookup(userID, sessionID)
	if err != nil {
		return session.Progress{}, err
	}
	return ctrl.Progress(), nil
}

// CurrentCard implements StudyService.CurrentCard
func (s *studyServiceImpl) CurrentCard(_ context.Context, userID, sessionID uuid.UUID) (domain.Card, error) {
	ctrl, err := s.lookup(userID, sessionID)
	if err != nil {
		return domain.Card{}, err
	}
	return ctrl.CurrentCard()
}

// SubmitReview implements StudyService.SubmitReview
func (s *studyServiceImpl) SubmitReview(
	ctx context.Context,
	userID, sessionID uuid.UUID,
	rating domain.Rating,
) (session.ReviewResult, error) {
	ctrl, err := s.lookup(userID, sessionID)
	if err != nil {
		return session.ReviewResult{}, err
	}

	result, err := ctrl.SubmitReview(ctx, rating)
	if err != nil {
		return session.ReviewResult{}, err
	}
	if result.Completed {
		s.announce(ctx, sessionID)
	}
	return result, nil
}

// EndSession implements StudyService.EndSession
func (s *studyServiceImpl) EndSession(ctx context.Context, userID, sessionID uuid.UUID) (session.Summary, error) {
	ctrl, err := s.lookup(userID, sessionID)
	if err != nil {
		return session.Summary{}, err
	}

	summary := ctrl.End()
	s.announce(ctx, sessionID)

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	return summary, nil
}

// ExpireIdleSessions implements StudyService.ExpireIdleSessions
func (s *studyServiceImpl) ExpireIdleSessions(ctx context.Context, cutoff time.Time) int {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	var idle []uuid.UUID
	for id, open := range s.sessions {
		if open.lastActive.Before(cutoff) {
			idle = append(idle, id)
		}
	}
	s.mu.Unlock()

	for _, id := range idle {
		s.mu.Lock()
		open, ok := s.sessions[id]
		s.mu.Unlock()
		if !ok {
			continue
		}
		open.ctrl.End()
		s.announce(ctx, id)

		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
	}

	if len(idle) > 0 {
		log.Info("expired idle sessions", slog.Int("count", len(idle)))
	}
	return len(idle)
}

// announce emits session.completed for a finished session, once.
func (s *studyServiceImpl) announce(ctx context.Context, sessionID uuid.UUID) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	open, ok := s.sessions[sessionID]
	if !ok || open.announced {
		s.mu.Unlock()
		return
	}
	summary, done := open.ctrl.Summary()
	if !done {
		s.mu.Unlock()
		return
	}
	open.announced = true
	userID := open.userID
	s.mu.Unlock()

	if s.emitter == nil {
		return
	}

	event, err := events.NewEvent(events.TypeSessionCompleted, events.SessionCompletedPayload{
		SessionID:     summary.SessionID,
		UserID:        userID,
		DeckID:        summary.DeckID,
		TotalCards:    summary.TotalCards,
		CardsReviewed: summary.CardsReviewed,
		CorrectCount:  summary.CorrectCount,
		Accuracy:      summary.Accuracy,
		Duration:      summary.Duration,
	})
	if err == nil {
		err = s.emitter.EmitEvent(ctx, event)
	}
	if err != nil {
		// The session itself is already complete; a lost event is only logged.
		log.Error("failed to emit session completed event",
			slog.String("session_id", sessionID.String()),
			slog.String("error", err.Error()))
	}
}

// IsSessionError reports whether err came from the session state machine
// rather than from storage or ownership checks.
func IsSessionError(err error) bool {
	return errors.Is(err, session.ErrInvalidState) ||
		errors.Is(err, session.ErrReviewInFlight) ||
		errors.Is(err, session.ErrSessionComplete)
}
