package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/domain/srs"
	"github.com/phrazzld/scry-study/internal/events"
	"github.com/phrazzld/scry-study/internal/session"
	"github.com/phrazzld/scry-study/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory DeckStore and CardStore.
type memStore struct {
	mu         sync.Mutex
	decks      map[uuid.UUID]domain.Deck
	cards      map[uuid.UUID]domain.Card
	persistErr error
}

func newMemStore() *memStore {
	return &memStore{decks: map[uuid.UUID]domain.Deck{}, cards: map[uuid.UUID]domain.Card{}}
}

type memDecks struct{ *memStore }
type memCards struct{ *memStore }

func (m memDecks) Create(_ context.Context, d *domain.Deck) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decks[d.ID] = *d
	return nil
}

func (m memDecks) GetByID(_ context.Context, id uuid.UUID) (*domain.Deck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.decks[id]
	if !ok {
		return nil, store.ErrDeckNotFound
	}
	return &d, nil
}

func (m memDecks) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Deck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Deck{}
	for _, d := range m.decks {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m memDecks) ListDueCounts(context.Context, time.Time) ([]store.DeckDueCount, error) {
	return nil, nil
}

func (m memDecks) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.decks, id)
	return nil
}

func (m memDecks) WithTx(*sql.Tx) store.DeckStore { return m }

func (m memCards) CreateMultiple(_ context.Context, cards []*domain.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range cards {
		m.cards[c.ID] = *c
	}
	return nil
}

func (m memCards) GetByID(_ context.Context, id uuid.UUID) (*domain.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[id]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	return &c, nil
}

func (m memCards) ListByDeck(_ context.Context, deckID uuid.UUID) ([]domain.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Card{}
	for _, c := range m.cards {
		if c.DeckID == deckID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m memCards) FetchDueCards(ctx context.Context, deckID uuid.UUID, asOf time.Time) ([]domain.Card, error) {
	all, _ := m.ListByDeck(ctx, deckID)
	return srs.SelectDue(all, asOf), nil
}

func (m memCards) PersistReviewState(_ context.Context, cardID uuid.UUID, state domain.ReviewState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.persistErr != nil {
		return m.persistErr
	}
	c, ok := m.cards[cardID]
	if !ok {
		return store.ErrCardNotFound
	}
	c.Review = state
	m.cards[cardID] = c
	return nil
}

func (m memCards) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cards, id)
	return nil
}

func (m memCards) WithTx(*sql.Tx) store.CardStore { return m }

type harness struct {
	svc    StudyService
	mem    *memStore
	events *[]*events.Event
	clock  *time.Time
	user   uuid.UUID
}

func newHarness(t *testing.T, opts StudyOptions) harness {
	t.Helper()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := &now
	srsService, err := srs.NewService(srs.NewDefaultParams(), srs.ClockFunc(func() time.Time { return *clock }))
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	emitter := events.NewInMemoryEventEmitter(log)
	var got []*events.Event
	emitter.Subscribe(events.TypeSessionCompleted, events.HandlerFunc(func(_ context.Context, e *events.Event) error {
		got = append(got, e)
		return nil
	}))

	mem := newMemStore()
	svc, err := NewStudyService(memDecks{mem}, memCards{mem}, srsService, emitter, opts, log)
	require.NoError(t, err)

	return harness{svc: svc, mem: mem, events: &got, clock: clock, user: uuid.New()}
}

func (h harness) deckWithCards(t *testing.T, n int) (*domain.Deck, []*domain.Card) {
	t.Helper()
	ctx := context.Background()

	deck, err := h.svc.CreateDeck(ctx, h.user, "Spanish")
	require.NoError(t, err)

	contents := make([]json.RawMessage, n)
	for i := range contents {
		contents[i] = json.RawMessage(`{"front":"q","back":"a"}`)
	}
	cards, err := h.svc.AddCards(ctx, h.user, deck.ID, contents)
	require.NoError(t, err)
	return deck, cards
}

func TestNewStudyServiceValidation(t *testing.T) {
	mem := newMemStore()
	srsService := srs.NewDefaultService()

	_, err := NewStudyService(nil, memCards{mem}, srsService, nil, StudyOptions{}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = NewStudyService(memDecks{mem}, nil, srsService, nil, StudyOptions{}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = NewStudyService(memDecks{mem}, memCards{mem}, nil, nil, StudyOptions{}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = NewStudyService(memDecks{mem}, memCards{mem}, srsService, nil, StudyOptions{MaxCards: -1}, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	svc, err := NewStudyService(memDecks{mem}, memCards{mem}, srsService, nil, StudyOptions{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestDeckOwnership(t *testing.T) {
	h := newHarness(t, StudyOptions{})
	ctx := context.Background()
	deck, cards := h.deckWithCards(t, 1)
	stranger := uuid.New()

	_, err := h.svc.DeckStats(ctx, stranger, deck.ID)
	assert.ErrorIs(t, err, ErrDeckNotOwned)

	_, err = h.svc.DueCards(ctx, stranger, deck.ID)
	assert.ErrorIs(t, err, ErrDeckNotOwned)

	_, err = h.svc.StartSession(ctx, stranger, deck.ID)
	assert.ErrorIs(t, err, ErrDeckNotOwned)

	_, err = h.svc.PostponeCard(ctx, stranger, cards[0].ID, 1)
	assert.ErrorIs(t, err, ErrDeckNotOwned)

	_, err = h.svc.AddCards(ctx, stranger, deck.ID, []json.RawMessage{json.RawMessage(`{}`)})
	assert.ErrorIs(t, err, ErrDeckNotOwned)

	_, err = h.svc.DeckStats(ctx, h.user, uuid.New())
	assert.ErrorIs(t, err, store.ErrDeckNotFound)
}

func TestAddCardsRejectsInvalidContent(t *testing.T) {
	h := newHarness(t, StudyOptions{})
	deck, _ := h.deckWithCards(t, 0)

	_, err := h.svc.AddCards(context.Background(), h.user, deck.ID, []json.RawMessage{
		json.RawMessage(`{"front":"ok"}`),
		json.RawMessage(`{broken`),
	})

	assert.ErrorIs(t, err, domain.ErrCardContentInvalid)
	assert.Empty(t, h.mem.cards)
}

func TestDeckStatsAndDueCards(t *testing.T) {
	h := newHarness(t, StudyOptions{})
	ctx := context.Background()
	deck, cards := h.deckWithCards(t, 3)

	// Push one card into the future.
	_, err := h.svc.PostponeCard(ctx, h.user, cards[0].ID, 2)
	require.NoError(t, err)

	stats, err := h.svc.DeckStats(ctx, h.user, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalCards)
	assert.Equal(t, 2, stats.DueCards)
	assert.Equal(t, 3, stats.NewCards)
	assert.InDelta(t, 2.5, stats.AverageEaseFactor, 1e-9)
	assert.InDelta(t, 100, stats.EstimatedRetention, 1e-9)

	due, err := h.svc.DueCards(ctx, h.user, deck.ID)
	require.NoError(t, err)
	assert.Len(t, due, 2)
	for _, c := range due {
		assert.NotEqual(t, cards[0].ID, c.ID)
	}
}

func TestPostponeCard(t *testing.T) {
	h := newHarness(t, StudyOptions{})
	ctx := context.Background()
	_, cards := h.deckWithCards(t, 1)

	updated, err := h.svc.PostponeCard(ctx, h.user, cards[0].ID, 3)
	require.NoError(t, err)
	assert.True(t, updated.Review.NextReview.Equal(cards[0].Review.NextReview.AddDate(0, 0, 3)))
	assert.Equal(t, 0, updated.Review.ReviewCount)

	_, err = h.svc.PostponeCard(ctx, h.user, cards[0].ID, 0)
	assert.ErrorIs(t, err, srs.ErrInvalidDays)

	_, err = h.svc.PostponeCard(ctx, h.user, uuid.New(), 1)
	assert.ErrorIs(t, err, store.ErrCardNotFound)
}

func TestStudySessionLifecycle(t *testing.T) {
	h := newHarness(t, StudyOptions{})
	ctx := context.Background()
	deck, _ := h.deckWithCards(t, 2)

	progress, err := h.svc.StartSession(ctx, h.user, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StateActive, progress.State)
	assert.Equal(t, 2, progress.TotalCards)
	id := progress.SessionID

	_, err = h.svc.CurrentCard(ctx, uuid.New(), id)
	assert.ErrorIs(t, err, ErrSessionNotFound, "another user's session is invisible")

	card, err := h.svc.CurrentCard(ctx, h.user, id)
	require.NoError(t, err)

	result, err := h.svc.SubmitReview(ctx, h.user, id, domain.RatingEasy)
	require.NoError(t, err)
	assert.Equal(t, card.ID, result.CardID)
	assert.False(t, result.Completed)
	assert.Empty(t, *h.events)

	stored := h.mem.cards[card.ID]
	assert.Equal(t, 1, stored.Review.ReviewCount)
	assert.InDelta(t, 2.6, stored.Review.EaseFactor, 1e-9)

	result, err = h.svc.SubmitReview(ctx, h.user, id, domain.RatingAgain)
	require.NoError(t, err)
	assert.True(t, result.Completed)
	require.Len(t, *h.events, 1)

	var payload events.SessionCompletedPayload
	require.NoError(t, (*h.events)[0].UnmarshalPayload(&payload))
	assert.Equal(t, id, payload.SessionID)
	assert.Equal(t, h.user, payload.UserID)
	assert.Equal(t, 2, payload.CardsReviewed)
	assert.Equal(t, 1, payload.CorrectCount)
	assert.InDelta(t, 0.5, payload.Accuracy, 1e-9)

	_, err = h.svc.CurrentCard(ctx, h.user, id)
	assert.ErrorIs(t, err, session.ErrSessionComplete)

	summary, err := h.svc.EndSession(ctx, h.user, id)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.CardsReviewed)
	assert.Len(t, *h.events, 1, "completion is announced once")

	_, err = h.svc.SessionProgress(ctx, h.user, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStartSessionOnEmptyDeckCompletes(t *testing.T) {
	h := newHarness(t, StudyOptions{})
	ctx := context.Background()
	deck, _ := h.deckWithCards(t, 0)

	progress, err := h.svc.StartSession(ctx, h.user, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StateCompleted, progress.State)
	assert.Len(t, *h.events, 1)

	summary, err := h.svc.EndSession(ctx, h.user, progress.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.CardsReviewed)
	assert.Equal(t, 0.0, summary.Accuracy)
}

func TestSessionRespectsMaxCards(t *testing.T) {
	h := newHarness(t, StudyOptions{MaxCards: 2})
	deck, _ := h.deckWithCards(t, 5)

	progress, err := h.svc.StartSession(context.Background(), h.user, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, progress.TotalCards)
}

func TestSubmitReviewPersistenceFailure(t *testing.T) {
	h := newHarness(t, StudyOptions{})
	ctx := context.Background()
	deck, _ := h.deckWithCards(t, 1)

	progress, err := h.svc.StartSession(ctx, h.user, deck.ID)
	require.NoError(t, err)

	h.mem.persistErr = errors.New("disk full")
	_, err = h.svc.SubmitReview(ctx, h.user, progress.SessionID, domain.RatingMedium)
	assert.ErrorIs(t, err, session.ErrPersistence)

	p, err := h.svc.SessionProgress(ctx, h.user, progress.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.StateErrored, p.State)
	assert.Equal(t, 0, p.CardsReviewed)

	h.mem.persistErr = nil
	result, err := h.svc.SubmitReview(ctx, h.user, progress.SessionID, domain.RatingMedium)
	require.NoError(t, err)
	assert.True(t, result.Completed)
}

func TestExpireIdleSessions(t *testing.T) {
	h := newHarness(t, StudyOptions{})
	ctx := context.Background()
	deck, _ := h.deckWithCards(t, 2)

	stale, err := h.svc.StartSession(ctx, h.user, deck.ID)
	require.NoError(t, err)

	*h.clock = h.clock.Add(time.Hour)
	fresh, err := h.svc.StartSession(ctx, h.user, deck.ID)
	require.NoError(t, err)

	removed := h.svc.ExpireIdleSessions(ctx, h.clock.Add(-30*time.Minute))
	assert.Equal(t, 1, removed)

	_, err = h.svc.SessionProgress(ctx, h.user, stale.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = h.svc.SessionProgress(ctx, h.user, fresh.SessionID)
	assert.NoError(t, err)

	require.Len(t, *h.events, 1)
	assert.Equal(t, events.TypeSessionCompleted, (*h.events)[0].Type)
}

func TestServiceError(t *testing.T) {
	inner := errors.New("boom")
	err := NewServiceError("deck_stats", "failed to list cards", inner)

	assert.EqualError(t, err, "study service deck_stats failed: failed to list cards: boom")
	assert.ErrorIs(t, err, inner)
	assert.EqualError(t, NewServiceError("op", "msg", nil), "study service op failed: msg")
}

func TestIsSessionError(t *testing.T) {
	assert.True(t, IsSessionError(session.ErrSessionComplete))
	assert.True(t, IsSessionError(session.ErrReviewInFlight))
	assert.False(t, IsSessionError(ErrSessionNotFound))
}
