package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/domain/srs"
	"github.com/phrazzld/scry-study/internal/platform/logger"
)

// CardStore is the persistence a session needs.
type CardStore interface {
	// FetchDueCards returns the cards of deckID that are due at asOf, in any order.
	FetchDueCards(ctx context.Context, deckID uuid.UUID, asOf time.Time) ([]domain.Card, error)

	// PersistReviewState overwrites the review state of a card.
	PersistReviewState(ctx context.Context, cardID uuid.UUID, state domain.ReviewState) error
}

// Options configures a Controller.
type Options struct {
	// Limit caps the number of cards in the session snapshot. Zero means no limit.
	Limit int

	// Logger receives session lifecycle logs. Defaults to slog.Default().
	Logger *slog.Logger
}

// Summary describes a finished session.
type Summary struct {
	SessionID     uuid.UUID     `json:"session_id"`
	DeckID        uuid.UUID     `json:"deck_id"`
	TotalCards    int           `json:"total_cards"`
	CardsReviewed int           `json:"cards_reviewed"`
	CorrectCount  int           `json:"correct_count"`
	Accuracy      float64       `json:"accuracy"`
	Duration      time.Duration `json:"duration"`
	StartedAt     time.Time     `json:"started_at"`
	EndedAt       time.Time     `json:"ended_at"`
}

// Progress is a point-in-time view of an open session.
type Progress struct {
	SessionID     uuid.UUID `json:"session_id"`
	DeckID        uuid.UUID `json:"deck_id"`
	State         State     `json:"state"`
	Position      int       `json:"position"`
	TotalCards    int       `json:"total_cards"`
	CardsReviewed int       `json:"cards_reviewed"`
	CorrectCount  int       `json:"correct_count"`
}

// ReviewResult is returned by a successful SubmitReview.
type ReviewResult struct {
	CardID    uuid.UUID          `json:"card_id"`
	Review    domain.ReviewState `json:"review"`
	Completed bool               `json:"completed"`
}

// Controller drives a single study session. It is safe for concurrent use;
// review submissions are serialized and a second submission made while one is
// in flight is rejected with ErrReviewInFlight.
type Controller struct {
	store  CardStore
	srs    srs.Service
	limit  int
	logger *slog.Logger

	mu        sync.Mutex
	settled   *sync.Cond
	id        uuid.UUID
	deckID    uuid.UUID
	state     State
	queue     []domain.Card
	cursor    int
	reviewed  int
	correct   int
	inFlight  bool
	lastErr   error
	startedAt time.Time
	summary   *Summary
}

// NewController creates an idle controller.
func NewController(store CardStore, srsService srs.Service, opts Options) *Controller {
	if store == nil {
		panic("store cannot be nil")
	}
	if srsService == nil {
		panic("srsService cannot be nil")
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	limit := opts.Limit
	if limit < 0 {
		limit = 0
	}

	id := uuid.New()
	c := &Controller{
		store:  store,
		srs:    srsService,
		limit:  limit,
		id:     id,
		state:  StateIdle,
		logger: log.With(slog.String("component", "session"), slog.String("session_id", id.String())),
	}
	c.settled = sync.NewCond(&c.mu)
	return c
}

// ID returns the session identifier.
func (c *Controller) ID() uuid.UUID {
	return c.id
}

// DeckID returns the deck being studied, or uuid.Nil before Start.
func (c *Controller) DeckID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deckID
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error that moved the controller into StateErrored, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Start loads the due cards of deckID and opens the session. A deck with no
// due cards completes the session immediately. If loading fails the
// controller moves to StateErrored and Start may be called again.
func (c *Controller) Start(ctx context.Context, deckID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, c.logger)

	c.mu.Lock()
	if c.state != StateIdle && !(c.state == StateErrored && c.queue == nil) {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: cannot start from %s", ErrInvalidState, state)
	}
	c.state = StateLoading
	c.deckID = deckID
	c.lastErr = nil
	c.mu.Unlock()

	now := c.srs.Now()
	cards, err := c.store.FetchDueCards(ctx, deckID, now)
	if err != nil {
		wrapped := fmt.Errorf("%w: fetch due cards: %w", ErrPersistence, err)

		c.mu.Lock()
		c.state = StateErrored
		c.lastErr = wrapped
		c.mu.Unlock()

		log.Error("failed to load due cards",
			slog.String("deck_id", deckID.String()),
			slog.String("error", err.Error()))
		return wrapped
	}

	queue := srs.SelectDue(cards, now)
	if c.limit > 0 && len(queue) > c.limit {
		queue = queue[:c.limit]
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateLoading {
		// Ended while loading.
		return nil
	}

	c.queue = queue
	c.cursor = 0
	c.startedAt = now
	if len(queue) == 0 {
		c.finishLocked(now)
		log.Info("no cards due, session completed",
			slog.String("deck_id", deckID.String()))
		return nil
	}

	c.state = StateActive
	log.Info("session started",
		slog.String("deck_id", deckID.String()),
		slog.Int("cards", len(queue)))
	return nil
}

// CurrentCard returns the card at the cursor. It returns ErrSessionComplete
// once every card has been reviewed or the session has ended.
func (c *Controller) CurrentCard() (domain.Card, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateIdle, StateLoading:
		return domain.Card{}, fmt.Errorf("%w: session not started", ErrInvalidState)
	case StateCompleted:
		return domain.Card{}, ErrSessionComplete
	}
	if c.queue == nil {
		return domain.Card{}, fmt.Errorf("%w: session not loaded", ErrInvalidState)
	}
	if c.cursor >= len(c.queue) {
		return domain.Card{}, ErrSessionComplete
	}
	return c.queue[c.cursor], nil
}

// SubmitReview rates the current card, persists its new review state and
// advances to the next card. Counters and the cursor change only when the
// store accepts the write; on failure the controller moves to StateErrored,
// stays on the same card and the submission can be retried.
func (c *Controller) SubmitReview(ctx context.Context, rating domain.Rating) (ReviewResult, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	if !rating.IsValid() {
		return ReviewResult{}, fmt.Errorf("%w: %d", domain.ErrInvalidRating, int(rating))
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ReviewResult{}, ErrReviewInFlight
	}
	if !c.acceptsReviewLocked() {
		state := c.state
		c.mu.Unlock()
		if state == StateCompleted {
			return ReviewResult{}, ErrSessionComplete
		}
		return ReviewResult{}, fmt.Errorf("%w: cannot review from %s", ErrInvalidState, state)
	}
	if c.cursor >= len(c.queue) {
		c.mu.Unlock()
		return ReviewResult{}, ErrSessionComplete
	}

	card := c.queue[c.cursor]
	c.inFlight = true
	c.state = StateReviewing
	c.mu.Unlock()

	next, err := c.srs.CalculateNextReview(card.Review, rating)
	if err == nil {
		err = c.store.PersistReviewState(ctx, card.ID, next)
		if err != nil {
			err = fmt.Errorf("%w: persist review state: %w", ErrPersistence, err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
	c.settled.Broadcast()

	if err != nil {
		c.state = StateErrored
		c.lastErr = err
		log.Error("failed to record review",
			slog.String("card_id", card.ID.String()),
			slog.String("rating", rating.String()),
			slog.String("error", err.Error()))
		return ReviewResult{}, err
	}

	c.queue[c.cursor] = card.WithReview(next, next.LastReviewed)
	c.reviewed++
	if rating.IsCorrect() {
		c.correct++
	}
	c.cursor++
	c.lastErr = nil

	log.Debug("review recorded",
		slog.String("card_id", card.ID.String()),
		slog.String("rating", rating.String()),
		slog.Float64("interval", next.Interval),
		slog.Float64("ease_factor", next.EaseFactor))

	completed := c.cursor >= len(c.queue)
	if completed {
		c.finishLocked(c.srs.Now())
		log.Info("session completed",
			slog.Int("cards_reviewed", c.reviewed),
			slog.Int("correct", c.correct))
	} else {
		c.state = StateActive
	}

	return ReviewResult{CardID: card.ID, Review: next, Completed: completed}, nil
}

// End finalizes the session and returns its summary. It is idempotent: once
// completed, later calls return the same summary. A review whose write is in
// flight is waited for, so its outcome is counted in the summary.
func (c *Controller) End() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.inFlight {
		c.settled.Wait()
	}

	if c.summary == nil {
		now := c.srs.Now()
		if c.startedAt.IsZero() {
			c.startedAt = now
		}
		c.finishLocked(now)
		c.logger.Info("session ended",
			slog.Int("cards_reviewed", c.reviewed),
			slog.Int("total_cards", len(c.queue)))
	}
	return *c.summary
}

// Progress reports the session position and counters.
func (c *Controller) Progress() Progress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Progress{
		SessionID:     c.id,
		DeckID:        c.deckID,
		State:         c.state,
		Position:      c.cursor,
		TotalCards:    len(c.queue),
		CardsReviewed: c.reviewed,
		CorrectCount:  c.correct,
	}
}

// Summary returns the final summary once the session has completed.
func (c *Controller) Summary() (Summary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.summary == nil {
		return Summary{}, false
	}
	return *c.summary, true
}

func (c *Controller) acceptsReviewLocked() bool {
	switch c.state {
	case StateActive, StateReviewing:
		return true
	case StateErrored:
		return c.queue != nil
	default:
		return false
	}
}

func (c *Controller) finishLocked(now time.Time) {
	c.state = StateCompleted
	c.summary = &Summary{
		SessionID:     c.id,
		DeckID:        c.deckID,
		TotalCards:    len(c.queue),
		CardsReviewed: c.reviewed,
		CorrectCount:  c.correct,
		Accuracy:      Accuracy(c.correct, c.reviewed),
		Duration:      now.Sub(c.startedAt),
		StartedAt:     c.startedAt,
		EndedAt:       now,
	}
}

// Accuracy returns correct/reviewed, or 0 when nothing was reviewed.
func Accuracy(correct, reviewed int) float64 {
	if reviewed == 0 {
		return 0
	}
	return float64(correct) / float64(reviewed)
}
